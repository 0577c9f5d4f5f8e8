package workflow

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"judgecore/internal/assets"
	"judgecore/internal/dataprovider"
	"judgecore/internal/filehandle"
	"judgecore/internal/latch"
	judgeerr "judgecore/pkg/errors"
	"judgecore/pkg/utils/contextkey"
	"judgecore/pkg/utils/logger"
)

// Workflow is a declarative DAG of tasks connected by named files (spec
// §4.6): {copy_in: map filename→Data Provider, tasks, copy_out}.
type Workflow struct {
	CopyIn  map[string]dataprovider.Provider
	Tasks   []Task
	CopyOut []string
}

// globalProducer is the sentinel producer index for a name supplied by
// Workflow.CopyIn rather than by a task.
const globalProducer = -1

// Validate resolves every declared filename to its producer and checks
// every consumer resolves to a producer, per spec §4.6's "Input
// validation" rules. It returns the producer index for every name the
// workflow can run scheduling over on success.
func (w *Workflow) Validate() (map[string]int, error) {
	producer := make(map[string]int, len(w.CopyIn)+len(w.Tasks))
	for name := range w.CopyIn {
		producer[name] = globalProducer
	}

	for i, task := range w.Tasks {
		for _, name := range task.Outputs() {
			if _, ok := w.CopyIn[name]; ok {
				return nil, judgeerr.WorkflowParseError(judgeerr.SubKindCopyInConflict, map[string]interface{}{
					"task": i,
					"name": name,
				})
			}
			if existing, ok := producer[name]; ok {
				return nil, judgeerr.WorkflowParseError(judgeerr.SubKindDuplicateFile, map[string]interface{}{
					"index1": existing,
					"index2": i,
					"name":   name,
				})
			}
			producer[name] = i
		}
	}

	for i, task := range w.Tasks {
		for _, name := range task.Inputs() {
			if _, ok := producer[name]; !ok {
				return nil, judgeerr.WorkflowParseError(judgeerr.SubKindInvalidFile, map[string]interface{}{
					"task": i,
					"name": name,
				})
			}
		}
	}

	for _, name := range w.CopyOut {
		if _, ok := producer[name]; !ok {
			return nil, judgeerr.WorkflowParseError(judgeerr.SubKindInvalidFile, map[string]interface{}{
				"task": globalProducer,
				"name": name,
			})
		}
	}

	return producer, nil
}

// EventKind discriminates Event's payload, per spec §4.6's progress
// stream: CompleteOne(task_index), Err(error), Finished(map<name,handle>).
type EventKind int

const (
	EventCompleteOne EventKind = iota
	EventErr
	EventFinished
)

// Event is one item of the Workflow Engine's progress stream. The stream
// is single-consumer and closes after the first EventErr or EventFinished
// (spec §4.6 "Progress events").
type Event struct {
	Kind      EventKind
	TaskIndex int
	Err       error
	Outputs   map[string]*filehandle.Handle
}

// releaseHandle drops h's reference, logging (rather than failing the
// workflow over) a cleanup error — h may be nil on an already-failed path.
func releaseHandle(ctx context.Context, h *filehandle.Handle) {
	if h == nil {
		return
	}
	if err := h.Release(ctx); err != nil {
		logger.Warn(ctx, "failed to release file handle", zap.String("file_id", h.FileID()), zap.Error(err))
	}
}

// publish hands a produced handle off to its latch, first bringing its
// reference count up to the number of parties that will eventually call
// Release on it: one per task that names it in Inputs(), plus one more if
// it's a workflow CopyOut name (ownership of that reference transfers to
// Run's caller via the Finished event and is never released here). A name
// with no such parties is released immediately — spec §4.6's cleanup
// section ("every other intermediate file handle is released") extends to
// outputs nobody ever consumes.
func publish(
	ctx context.Context,
	latches map[string]*latch.Latch[*filehandle.Handle],
	consumers map[string]int,
	inCopyOut map[string]bool,
	name string,
	handle *filehandle.Handle,
) {
	want := consumers[name]
	if inCopyOut[name] {
		want++
	}
	for i := 1; i < want; i++ {
		handle.Acquire()
	}
	latches[name].Publish(handle)
	if want == 0 {
		releaseHandle(ctx, handle)
	}
}

// Run validates and schedules the workflow, returning a channel of
// progress events. Each filename is modelled as a single-producer,
// multiple-consumer latch (spec §4.6 "Scheduling model"); tasks run
// concurrently via an errgroup, each awaiting its declared inputs before
// running its primitive and publishing its outputs. The first task
// failure cancels the group's context, which unblocks every latch.Wait a
// pending task is parked on — spec's "their wait operations must observe
// cancellation" — and the engine reports that one error.
func (w *Workflow) Run(ctx context.Context, env Env, registry *assets.Registry) <-chan Event {
	events := make(chan Event, len(w.Tasks)+1)

	if ctx.Value(contextkey.TraceID) == nil {
		ctx = context.WithValue(ctx, contextkey.TraceID, uuid.NewString())
	}

	go func() {
		defer close(events)

		producer, err := w.Validate()
		if err != nil {
			logger.Warn(ctx, "workflow validation failed", zap.Error(err))
			events <- Event{Kind: EventErr, Err: err}
			return
		}

		latches := make(map[string]*latch.Latch[*filehandle.Handle], len(producer))
		for name := range producer {
			latches[name] = latch.New[*filehandle.Handle]()
		}

		// consumers counts, per filename, how many tasks will Wait on and
		// then Release it; inCopyOut marks names whose final reference
		// transfers to Run's caller instead. Both drive publish's refcount
		// seeding below.
		consumers := make(map[string]int, len(producer))
		for _, task := range w.Tasks {
			for _, name := range task.Inputs() {
				consumers[name]++
			}
		}
		inCopyOut := make(map[string]bool, len(w.CopyOut))
		for _, name := range w.CopyOut {
			inCopyOut[name] = true
		}

		group, gctx := errgroup.WithContext(ctx)

		for name, provider := range w.CopyIn {
			name, provider := name, provider
			group.Go(func() error {
				content, err := provider.Materialize(gctx, registry)
				if err != nil {
					latches[name].Cancel(err)
					return err
				}
				handle, err := filehandle.Upload(gctx, env.Client, content)
				if err != nil {
					latches[name].Cancel(err)
					return err
				}
				publish(gctx, latches, consumers, inCopyOut, name, handle)
				return nil
			})
		}

		for i, task := range w.Tasks {
			i, task := i, task
			group.Go(func() error {
				inputs := make(map[string]*filehandle.Handle, len(task.Inputs()))
				for _, name := range task.Inputs() {
					handle, err := latches[name].Wait(gctx)
					if err != nil {
						return err
					}
					inputs[name] = handle
				}

				outputs, err := task.Run(gctx, env, inputs)

				// Every input named in Inputs() counted toward that
				// handle's seeded refcount (see consumers, above); this
				// task is done with them whether or not Run succeeded.
				for _, name := range task.Inputs() {
					releaseHandle(gctx, inputs[name])
				}

				if err != nil {
					logger.Warn(gctx, "task failed", zap.Int("task_index", i), zap.Error(err))
					for _, name := range task.Outputs() {
						latches[name].Cancel(err)
					}
					return err
				}
				for _, name := range task.Outputs() {
					publish(gctx, latches, consumers, inCopyOut, name, outputs[name])
				}
				logger.Info(gctx, "task completed", zap.Int("task_index", i))
				events <- Event{Kind: EventCompleteOne, TaskIndex: i}
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			events <- Event{Kind: EventErr, Err: err}
			return
		}

		final := make(map[string]*filehandle.Handle, len(w.CopyOut))
		for _, name := range w.CopyOut {
			handle, err := latches[name].Wait(ctx)
			if err != nil {
				events <- Event{Kind: EventErr, Err: err}
				return
			}
			final[name] = handle
		}
		logger.Info(ctx, "workflow finished", zap.Int("outputs", len(final)))
		events <- Event{Kind: EventFinished, Outputs: final}
	}()

	return events
}
