// Package workflow implements the Workflow Engine (spec §4.6, component
// C6): a declarative DAG of Compile/Generate/Validate/JudgeBatch tasks
// whose edges are named files, executed against a sandbox with
// per-filename single-producer latches. Grounded on
// `crates/judge/src/problem/mod.rs`'s task-graph execution shape
// (`futures::join!`/`FuturesOrdered` over per-test dependencies) and on
// spec §4.6's own scheduling model, re-expressed with this module's
// `internal/latch` primitive in place of Rust future combinators.
package workflow

import (
	"context"
	"time"

	"judgecore/internal/execresult"
	"judgecore/internal/filehandle"
	"judgecore/internal/langtable"
	"judgecore/internal/primitive"
	"judgecore/internal/sandboxclient"
)

// Task is one node of a workflow DAG: it declares the filenames it reads
// and produces, and knows how to run its primitive given resolved inputs.
type Task interface {
	// Inputs lists the filenames this task must await before running.
	Inputs() []string
	// Outputs lists the filenames this task publishes once it completes.
	Outputs() []string
	// Run executes the task's primitive against already-resolved inputs,
	// returning one handle per name in Outputs().
	Run(ctx context.Context, env Env, inputs map[string]*filehandle.Handle) (map[string]*filehandle.Handle, error)
}

// Env carries what every task needs to run its primitive: a sandbox
// client and the resource-limit defaults NewCmd seeds onto every command.
type Env struct {
	Client sandboxclient.Client
	Limits sandboxclient.DefaultLimits
}

// CompileTask compiles Code into Output, per spec §4.6 "Compile: inputs =
// {code} ∪ copy_in.values, outputs = {exec}".
type CompileTask struct {
	Lang      langtable.Spec
	ExtraArgv []string
	Code      string
	CopyIn    []string
	Output    string
}

func (t CompileTask) Inputs() []string  { return append([]string{t.Code}, t.CopyIn...) }
func (t CompileTask) Outputs() []string { return []string{t.Output} }

func (t CompileTask) Run(ctx context.Context, env Env, in map[string]*filehandle.Handle) (map[string]*filehandle.Handle, error) {
	extra := namedSubset(in, t.CopyIn)
	exec, err := primitive.Compile(ctx, env.Client, t.Lang, t.ExtraArgv, in[t.Code], extra, env.Limits)
	if err != nil {
		return nil, err
	}
	return map[string]*filehandle.Handle{t.Output: exec.File}, nil
}

// GenerateTask runs a generator executable, per spec §4.6 "Generate:
// inputs = {exec} ∪ copy_in.values, outputs = {generated}".
type GenerateTask struct {
	Lang   langtable.Spec
	Exec   string
	Argv   []string
	CopyIn []string
	Output string
}

func (t GenerateTask) Inputs() []string  { return append([]string{t.Exec}, t.CopyIn...) }
func (t GenerateTask) Outputs() []string { return []string{t.Output} }

func (t GenerateTask) Run(ctx context.Context, env Env, in map[string]*filehandle.Handle) (map[string]*filehandle.Handle, error) {
	extra := namedSubset(in, t.CopyIn)
	exec := primitive.Executable{Lang: t.Lang, File: in[t.Exec]}
	out, err := primitive.Generate(ctx, env.Client, exec, t.Argv, extra, env.Limits)
	if err != nil {
		return nil, err
	}
	return map[string]*filehandle.Handle{t.Output: out}, nil
}

// ValidateTask runs a validator executable over an input file, per spec
// §4.6 "Validate: inputs = {exec, inf} ∪ copy_in.values, outputs =
// {report}". The report handle is the MessagePack-encoded Overview
// re-uploaded as a sandbox file.
type ValidateTask struct {
	Lang   langtable.Spec
	Exec   string
	Argv   []string
	Input  string
	CopyIn []string
	Output string
}

func (t ValidateTask) Inputs() []string {
	return append([]string{t.Exec, t.Input}, t.CopyIn...)
}
func (t ValidateTask) Outputs() []string { return []string{t.Output} }

func (t ValidateTask) Run(ctx context.Context, env Env, in map[string]*filehandle.Handle) (map[string]*filehandle.Handle, error) {
	extra := namedSubset(in, t.CopyIn)
	exec := primitive.Executable{Lang: t.Lang, File: in[t.Exec]}
	overview, err := primitive.Validate(ctx, env.Client, exec, t.Argv, in[t.Input], extra, env.Limits)
	if err != nil {
		return nil, err
	}
	report, err := overview.MarshalMsg(nil)
	if err != nil {
		return nil, err
	}
	handle, err := filehandle.Upload(ctx, env.Client, report)
	if err != nil {
		return nil, err
	}
	return map[string]*filehandle.Handle{t.Output: handle}, nil
}

// JudgeBatchTask runs a solution executable, per spec §4.6 "JudgeBatch:
// inputs = {exec, inf} ∪ copy_in.values, outputs = {copy_out}. Failure of
// the underlying primitive becomes a task-level runtime error".
// primitive.JudgeBatch returns a non-Accepted ExecuteResult as data rather
// than as an error (the Problem Judger, which calls it directly, relies on
// that — see internal/problemjudge); this task turns such a result into a
// workflow failure, the same outcome a non-Accepted run has in the other
// three tasks.
type JudgeBatchTask struct {
	Lang        langtable.Spec
	Exec        string
	Argv        []string
	Input       string
	CopyIn      []string
	TimeLimit   time.Duration
	MemoryLimit uint64
	Output      string
}

func (t JudgeBatchTask) Inputs() []string {
	return append([]string{t.Exec, t.Input}, t.CopyIn...)
}
func (t JudgeBatchTask) Outputs() []string { return []string{t.Output} }

func (t JudgeBatchTask) Run(ctx context.Context, env Env, in map[string]*filehandle.Handle) (map[string]*filehandle.Handle, error) {
	extra := namedSubset(in, t.CopyIn)
	exec := primitive.Executable{Lang: t.Lang, File: in[t.Exec]}
	res, err := primitive.JudgeBatch(ctx, env.Client, exec, t.Argv, in[t.Input], extra, t.TimeLimit, t.MemoryLimit, env.Limits)
	if err != nil {
		return nil, err
	}
	if res.Stdout == nil {
		return nil, execResultError(res)
	}
	return map[string]*filehandle.Handle{t.Output: res.Stdout}, nil
}

// execResultError converts a non-Accepted JudgeBatchResult into the
// task-level runtime error spec §4.6 requires ("Failure of the underlying
// primitive becomes a task-level runtime error").
func execResultError(res primitive.JudgeBatchResult) error {
	return execresult.FromJudgeResult(res.Result)
}

func namedSubset(in map[string]*filehandle.Handle, names []string) map[string]*filehandle.Handle {
	out := make(map[string]*filehandle.Handle, len(names))
	for _, n := range names {
		out[n] = in[n]
	}
	return out
}
