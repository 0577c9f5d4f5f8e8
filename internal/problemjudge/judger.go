package problemjudge

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"judgecore/internal/assets"
	"judgecore/internal/checker"
	"judgecore/internal/dataprovider"
	"judgecore/internal/execresult"
	"judgecore/internal/filehandle"
	"judgecore/internal/latch"
	"judgecore/internal/primitive"
	"judgecore/internal/sandboxclient"
	"judgecore/pkg/utils/contextkey"
	"judgecore/pkg/utils/logger"
)

// Env bundles what every judging step needs to talk to the sandbox,
// mirroring internal/workflow.Env for this package's own call sites.
type Env struct {
	Client sandboxclient.Client
	Limits sandboxclient.DefaultLimits
}

// releaseHandle drops h's reference, logging (rather than failing the
// judge run over) a cleanup error — h may be nil on an already-failed path.
func releaseHandle(ctx context.Context, h *filehandle.Handle) {
	if h == nil {
		return
	}
	if err := h.Release(ctx); err != nil {
		logger.Warn(ctx, "failed to release file handle", zap.String("file_id", h.FileID()), zap.Error(err))
	}
}

// EventKind discriminates Event's payload (spec §4.7's Response enum,
// extended one level to cover the whole problem rather than one subtask).
type EventKind int

const (
	EventCompileErr EventKind = iota
	EventCompleteOne
	EventSubtaskFinished
	EventFinished
)

// Event is one item of the Problem Judger's progress stream.
type Event struct {
	Kind      EventKind
	Message   string // EventCompileErr
	SubtaskID int    // EventCompleteOne, EventSubtaskFinished
	TestIndex int    // EventCompleteOne
	Record    Record // EventCompleteOne
	Score     float64
	Records    []Record   // EventSubtaskFinished: this subtask's per-test records
	AllRecords [][]Record // EventFinished: per-subtask list of per-test records
}

func materializeCopyIn(
	ctx context.Context,
	client sandboxclient.Client,
	registry *assets.Registry,
	providers map[string]dataprovider.Provider,
) (map[string]*filehandle.Handle, error) {
	out := make(map[string]*filehandle.Handle, len(providers))
	for name, p := range providers {
		content, err := p.Materialize(ctx, registry)
		if err != nil {
			return nil, err
		}
		handle, err := filehandle.Upload(ctx, client, content)
		if err != nil {
			return nil, err
		}
		out[name] = handle
	}
	return out, nil
}

// runChecker invokes the problem's checker over (input, output, answer),
// per `crates/judge/src/checker.rs`'s `Checker::check`: positional argv
// inf.txt/ouf.txt/ans.txt ahead of the caller's extra args, with the
// checker binary and extraCopyIn bound by name. A NonZeroExitStatus run is
// still parsed (testlib checkers routinely exit non-zero) — only other
// statuses are transport/sandbox failures.
func runChecker(
	ctx context.Context,
	client sandboxclient.Client,
	checkerExec primitive.Executable,
	extraArgv []string,
	input, output, answer *filehandle.Handle,
	extraCopyIn map[string]*filehandle.Handle,
	limits sandboxclient.DefaultLimits,
) (checker.Output, error) {
	copyIn := make(map[string]sandboxclient.File, len(extraCopyIn)+4)
	for name, h := range extraCopyIn {
		copyIn[name] = sandboxclient.CachedFile(h.FileID())
	}
	copyIn[checkerExec.Lang.ExecFile] = sandboxclient.CachedFile(checkerExec.File.FileID())
	copyIn["inf.txt"] = sandboxclient.CachedFile(input.FileID())
	copyIn["ouf.txt"] = sandboxclient.CachedFile(output.FileID())
	copyIn["ans.txt"] = sandboxclient.CachedFile(answer.FileID())

	cmd := sandboxclient.NewCmd(limits)
	cmd.Args = checkerExec.Lang.BuildRunArgv(append([]string{"inf.txt", "ouf.txt", "ans.txt"}, extraArgv...))
	cmd.CopyIn = copyIn
	cmd.CopyOut = []string{"stderr"}

	results, err := client.Exec(ctx, []sandboxclient.Cmd{cmd})
	if err != nil {
		return checker.Output{}, err
	}
	res := results[0]

	if res.Status != execresult.SandboxAccepted && res.Status != execresult.SandboxNonZeroExitStatus {
		return checker.Output{}, execresult.NewError(res.ToSandboxResult())
	}
	return checker.Parse(string(res.Files["stderr"])), nil
}

// judge runs a single test's pipeline: input materialisation, then a
// concurrent join of answer materialisation and the user solution's
// JudgeBatch, per `problem/mod.rs::Test::judge`.
func (t Test) judge(
	ctx context.Context,
	env Env,
	testset Testset,
	subtaskID int,
	solution, standardSolution, checkerExec primitive.Executable,
	timeLimit time.Duration,
	memoryLimit uint64,
	userCopyIn, judgeCopyIn map[string]*filehandle.Handle,
) Record {
	inputFile, err := t.Input.make(ctx, env.Client, judgeCopyIn, env.Limits)
	if err != nil {
		return NewSystemError("input file generated failed: " + err.Error())
	}
	defer releaseHandle(ctx, inputFile)

	var answerFile *filehandle.Handle
	var answerErr error
	var judgeRes primitive.JudgeBatchResult
	var judgeErr error

	// Both the standard solution (answer) and the user solution run with
	// judgeCopyIn; the checker below gets userCopyIn.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		answerFile, answerErr = t.Answer.make(ctx, env.Client, standardSolution, inputFile, judgeCopyIn, timeLimit, memoryLimit, env.Limits)
	}()
	go func() {
		defer wg.Done()
		judgeRes, judgeErr = primitive.JudgeBatch(ctx, env.Client, solution, nil, inputFile, judgeCopyIn, timeLimit, memoryLimit, env.Limits)
	}()
	wg.Wait()
	defer releaseHandle(ctx, answerFile)
	defer releaseHandle(ctx, judgeRes.Stdout)

	if judgeErr != nil {
		return NewSystemError("solution execute failed: " + judgeErr.Error())
	}
	if judgeRes.Result.Status != execresult.Accepted {
		return NewInterrupted(judgeRes.Result)
	}

	if answerErr != nil {
		return NewSystemError("answer file generated failed: " + answerErr.Error())
	}

	out, err := runChecker(ctx, env.Client, checkerExec,
		[]string{"--testset", testset.String(), "--group", strconv.Itoa(subtaskID)},
		inputFile, judgeRes.Stdout, answerFile, userCopyIn, env.Limits)
	if err != nil {
		return NewSystemError("checker execute failed: " + err.Error())
	}
	return NewChecked(judgeRes.Result, out)
}

// judge runs every test in the subtask concurrently and folds per-test
// scores by minimum, per `problem/mod.rs::Subtask::judge`.
func (s Subtask) judge(
	ctx context.Context,
	env Env,
	solution, standardSolution, checkerExec primitive.Executable,
	userCopyIn, judgeCopyIn map[string]*filehandle.Handle,
	events chan<- Event,
) (float64, []Record) {
	records := make([]Record, len(s.Tests))

	var wg sync.WaitGroup
	for i, test := range s.Tests {
		wg.Add(1)
		go func(i int, test Test) {
			defer wg.Done()
			r := test.judge(ctx, env, s.Testset, s.ID, solution, standardSolution, checkerExec,
				s.TimeLimit, s.MemoryLimit, userCopyIn, judgeCopyIn)
			records[i] = r
			events <- Event{Kind: EventCompleteOne, SubtaskID: s.ID, TestIndex: i, Record: r}
		}(i, test)
	}
	wg.Wait()

	score := 1.0
	for _, r := range records {
		if r.Score < score {
			score = r.Score
		}
	}
	return score, records
}

// dependencyScore returns a subtask's effective input score: the minimum
// final unscaled score across its dependences (indices into Subtasks, per
// spec §4.7 "Subtasks form a DAG by index via dependences"), or 1 if it has
// none. A cancelled wait is treated as a zero dependency score, the same
// fail-closed treatment as an actual zero score.
func dependencyScore(ctx context.Context, latches []*latch.Latch[float64], deps []int) float64 {
	effective := 1.0
	for _, dep := range deps {
		score, err := latches[dep].Wait(ctx)
		if err != nil {
			return 0
		}
		if score < effective {
			effective = score
		}
	}
	return effective
}

// Judge compiles the user submission (and the checker, plus the standard
// solution when a test needs it), runs the full problem against it, emits
// progress events and closes the channel after the terminal event (spec
// §4.7's Setup + Subtask scheduling + Score aggregation, end to end).
func Judge(ctx context.Context, env Env, registry *assets.Registry, problem *Problem, userSolution Source) <-chan Event {
	events := make(chan Event, len(problem.Subtasks)*4+2)

	if ctx.Value(contextkey.TraceID) == nil {
		ctx = context.WithValue(ctx, contextkey.TraceID, uuid.NewString())
	}

	go func() {
		defer close(events)

		userHandles, err := materializeCopyIn(ctx, env.Client, registry, problem.UserCopyIn)
		if err != nil {
			logger.Warn(ctx, "user copy_in materialisation failed", zap.Error(err))
			events <- Event{Kind: EventCompileErr, Message: err.Error()}
			return
		}
		defer func() {
			for _, h := range userHandles {
				releaseHandle(ctx, h)
			}
		}()

		judgeHandles, err := materializeCopyIn(ctx, env.Client, registry, problem.JudgeCopyIn)
		if err != nil {
			logger.Warn(ctx, "judge copy_in materialisation failed", zap.Error(err))
			events <- Event{Kind: EventCompileErr, Message: err.Error()}
			return
		}
		defer func() {
			for _, h := range judgeHandles {
				releaseHandle(ctx, h)
			}
		}()

		solutionExec, err := userSolution.compile(ctx, env.Client, userHandles, env.Limits, registry)
		if err != nil {
			logger.Warn(ctx, "user solution compile failed", zap.Error(err))
			events <- Event{Kind: EventCompileErr, Message: err.Error()}
			return
		}
		defer releaseHandle(ctx, solutionExec.File)

		checkerExec, err := problem.Checker.compile(ctx, env.Client, userHandles, env.Limits, registry)
		if err != nil {
			logger.Warn(ctx, "checker compile failed", zap.Error(err))
			events <- Event{Kind: EventCompileErr, Message: err.Error()}
			return
		}
		defer releaseHandle(ctx, checkerExec.File)

		var standardExec primitive.Executable
		if needsStandardSolution(problem) {
			standardExec, err = problem.StandardSolution.compile(ctx, env.Client, userHandles, env.Limits, registry)
			if err != nil {
				logger.Warn(ctx, "standard solution compile failed", zap.Error(err))
				events <- Event{Kind: EventCompileErr, Message: err.Error()}
				return
			}
			defer releaseHandle(ctx, standardExec.File)
		}

		latches := make([]*latch.Latch[float64], len(problem.Subtasks))
		for i := range problem.Subtasks {
			latches[i] = latch.New[float64]()
		}

		results := make([][]Record, len(problem.Subtasks))

		var wg sync.WaitGroup
		for idx, st := range problem.Subtasks {
			wg.Add(1)
			go func(idx int, st Subtask) {
				defer wg.Done()

				effective := dependencyScore(ctx, latches, st.Dependences)

				if effective <= 0 {
					records := make([]Record, len(st.Tests))
					for i := range records {
						records[i] = NewSkipped()
						events <- Event{Kind: EventCompleteOne, SubtaskID: st.ID, TestIndex: i, Record: records[i]}
					}
					results[idx] = records
					latches[idx].Publish(0)
					logger.Info(ctx, "subtask skipped", zap.Int("subtask_id", st.ID))
					events <- Event{Kind: EventSubtaskFinished, SubtaskID: st.ID, Score: 0, Records: records}
					return
				}

				score, records := st.judge(ctx, env, solutionExec, standardExec, checkerExec, userHandles, judgeHandles, events)
				results[idx] = records

				finalScore := score
				if effective < finalScore {
					finalScore = effective
				}
				latches[idx].Publish(finalScore)
				logger.Info(ctx, "subtask finished", zap.Int("subtask_id", st.ID), zap.Float64("score", finalScore))
				events <- Event{Kind: EventSubtaskFinished, SubtaskID: st.ID, Score: finalScore, Records: records}
			}(idx, st)
		}
		wg.Wait()

		total := 0.0
		for idx, st := range problem.Subtasks {
			final, _ := latches[idx].Wait(ctx)
			total += st.Score * final
		}

		logger.Info(ctx, "problem judged", zap.Float64("score", total))
		events <- Event{Kind: EventFinished, Score: total, AllRecords: results}
	}()

	return events
}

// needsStandardSolution reports whether any test's Answer is Generated,
// the only case that requires compiling the standard solution (spec §4.7
// Setup step 4).
func needsStandardSolution(problem *Problem) bool {
	for _, st := range problem.Subtasks {
		for _, t := range st.Tests {
			if t.Answer.kind == answerGenerated {
				return true
			}
		}
	}
	return false
}
