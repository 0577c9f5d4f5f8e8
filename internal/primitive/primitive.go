// Package primitive implements the Primitive Operations (spec §4.5,
// component C5): Compile, Generate, Validate, and JudgeBatch each wrap a
// single sandbox exec call with a fixed argv template and copy-in/out
// schema. Grounded on `crates/judge/src/task.rs`'s free-function
// `compile`/`judge_batch` (the canonical call shape actually used by the
// Problem Judger) and on `program.rs`/`generator.rs` for the Generate
// argv convention.
package primitive

import (
	"context"
	"time"

	"judgecore/internal/execresult"
	"judgecore/internal/filehandle"
	"judgecore/internal/langtable"
	"judgecore/internal/sandboxclient"
	"judgecore/internal/validator"
	judgeerr "judgecore/pkg/errors"
)

// Executable is a compiled (or interpreted, compile-skipped) program ready
// to run — spec §4.1's (Language, File Handle) pair.
type Executable struct {
	Lang langtable.Spec
	File *filehandle.Handle
}

func execOne(ctx context.Context, client sandboxclient.Client, cmd sandboxclient.Cmd) (sandboxclient.Result, error) {
	results, err := client.Exec(ctx, []sandboxclient.Cmd{cmd})
	if err != nil {
		return sandboxclient.Result{}, judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	if len(results) != 1 {
		return sandboxclient.Result{}, judgeerr.Newf(judgeerr.Sandbox, "sandbox returned %d results, want 1", len(results))
	}
	return results[0], nil
}

func toCopyIn(m map[string]*filehandle.Handle) map[string]sandboxclient.File {
	out := make(map[string]sandboxclient.File, len(m))
	for name, h := range m {
		out[name] = sandboxclient.CachedFile(h.FileID())
	}
	return out
}

// Compile builds spec's source into a cached executable file (spec §4.5
// "Compile"): copy_in = extraCopyIn ∪ {lang.source → codeHandle}, argv =
// lang.compile_cmd ∪ extraArgv, copy_out_cached = {lang.exec}. A
// non-Accepted result becomes a *execresult.Error.
func Compile(
	ctx context.Context,
	client sandboxclient.Client,
	lang langtable.Spec,
	extraArgv []string,
	code *filehandle.Handle,
	extraCopyIn map[string]*filehandle.Handle,
	limits sandboxclient.DefaultLimits,
) (Executable, error) {
	if !lang.CompileEnabled() {
		// Interpreted languages skip straight to run: the "compiled"
		// artifact is the source file itself.
		return Executable{Lang: lang, File: code.Acquire()}, nil
	}

	copyIn := toCopyIn(extraCopyIn)
	copyIn[lang.SourceFile] = sandboxclient.CachedFile(code.FileID())

	cmd := sandboxclient.NewCmd(limits)
	cmd.Args = lang.BuildCompileArgv(extraArgv)
	cmd.CopyIn = copyIn
	cmd.CopyOut = []string{"stderr"}
	cmd.CopyOutCached = []string{lang.ExecFile}

	res, err := execOne(ctx, client, cmd)
	if err != nil {
		return Executable{}, err
	}
	if res.Status != execresult.SandboxAccepted {
		return Executable{}, execresult.NewError(res.ToSandboxResult())
	}

	fileID, ok := res.FileIDs[lang.ExecFile]
	if !ok {
		return Executable{}, judgeerr.Newf(judgeerr.FileNotFound, "compile did not produce %q", lang.ExecFile).WithDetail("name", lang.ExecFile)
	}
	return Executable{Lang: lang, File: filehandle.New(client, fileID)}, nil
}

// Generate runs a generator executable and returns its stdout as a cached
// file (spec §4.5 "Generate"): argv = lang.run_cmd ∪ argv, stdout goes to
// copy_out_cached. A non-Accepted result releases any partial stdout file
// and returns a *execresult.Error.
func Generate(
	ctx context.Context,
	client sandboxclient.Client,
	exec Executable,
	argv []string,
	extraCopyIn map[string]*filehandle.Handle,
	limits sandboxclient.DefaultLimits,
) (*filehandle.Handle, error) {
	copyIn := toCopyIn(extraCopyIn)
	copyIn[exec.Lang.ExecFile] = sandboxclient.CachedFile(exec.File.FileID())

	cmd := sandboxclient.NewCmd(limits)
	cmd.Args = exec.Lang.BuildRunArgv(argv)
	cmd.CopyIn = copyIn
	cmd.CopyOut = []string{"stderr"}
	cmd.CopyOutCached = []string{"stdout"}

	res, err := execOne(ctx, client, cmd)
	if err != nil {
		return nil, err
	}
	if res.Status != execresult.SandboxAccepted {
		if id, ok := res.FileIDs["stdout"]; ok {
			_ = client.FileDelete(ctx, id)
		}
		return nil, execresult.NewError(res.ToSandboxResult())
	}
	fileID, ok := res.FileIDs["stdout"]
	if !ok {
		return nil, judgeerr.New(judgeerr.FileNotFound).WithMessage("generator produced no stdout file")
	}
	return filehandle.New(client, fileID), nil
}

// Validate runs a validator executable over input and returns its parsed
// Overview report (spec §4.5 "Validate"): argv = lang.run_cmd ∪ argv ∪
// ["--testOverviewLogFileName", "val.log"], stdin bound to input,
// copy_out = {stderr, val.log}. Non-accepted results return a
// *execresult.Error.
func Validate(
	ctx context.Context,
	client sandboxclient.Client,
	exec Executable,
	argv []string,
	input *filehandle.Handle,
	extraCopyIn map[string]*filehandle.Handle,
	limits sandboxclient.DefaultLimits,
) (validator.Overview, error) {
	copyIn := toCopyIn(extraCopyIn)
	copyIn[exec.Lang.ExecFile] = sandboxclient.CachedFile(exec.File.FileID())

	cmd := sandboxclient.NewCmd(limits)
	cmd.Args = append(exec.Lang.BuildRunArgv(argv), "--testOverviewLogFileName", "val.log")
	cmd.Files[0] = sandboxclient.CachedFile(input.FileID())
	cmd.CopyIn = copyIn
	cmd.CopyOut = []string{"stderr", "val.log"}

	res, err := execOne(ctx, client, cmd)
	if err != nil {
		return validator.Overview{}, err
	}
	if res.Status != execresult.SandboxAccepted {
		return validator.Overview{}, execresult.NewError(res.ToSandboxResult())
	}
	return validator.Parse(string(res.Files["val.log"])), nil
}

// JudgeBatchResult is JudgeBatch's return value: the execute result, plus
// the produced stdout handle when (and only when) the run was accepted.
type JudgeBatchResult struct {
	Result execresult.JudgeResult
	Stdout *filehandle.Handle // nil unless Result.Status == execresult.Accepted
}

// JudgeBatch runs a solution executable on input under resource limits
// (spec §4.5 "JudgeBatch"): argv = lang.run_cmd ∪ argv, stdin bound to
// input, stdout to copy_out_cached, stderr to copy_out. Always returns an
// ExecuteResult; returns a stdout handle iff Accepted, otherwise any
// partial stdout file is released.
func JudgeBatch(
	ctx context.Context,
	client sandboxclient.Client,
	exec Executable,
	argv []string,
	input *filehandle.Handle,
	extraCopyIn map[string]*filehandle.Handle,
	timeLimit time.Duration,
	memoryLimit uint64,
	limits sandboxclient.DefaultLimits,
) (JudgeBatchResult, error) {
	copyIn := toCopyIn(extraCopyIn)
	copyIn[exec.Lang.ExecFile] = sandboxclient.CachedFile(exec.File.FileID())

	cmd := sandboxclient.NewCmd(limits)
	cmd.Args = exec.Lang.BuildRunArgv(argv)
	cmd.Files[0] = sandboxclient.CachedFile(input.FileID())
	cmd.TimeLimit = timeLimit
	cmd.MemoryLimit = memoryLimit
	cmd.CopyIn = copyIn
	cmd.CopyOut = []string{"stderr"}
	cmd.CopyOutCached = []string{"stdout"}

	res, err := execOne(ctx, client, cmd)
	if err != nil {
		return JudgeBatchResult{}, err
	}

	judgeResult := execresult.NewJudgeResult(res.ToSandboxResult())

	if judgeResult.Status != execresult.Accepted {
		if id, ok := res.FileIDs["stdout"]; ok {
			_ = client.FileDelete(ctx, id)
		}
		return JudgeBatchResult{Result: judgeResult}, nil
	}

	fileID, ok := res.FileIDs["stdout"]
	if !ok {
		return JudgeBatchResult{Result: judgeResult}, nil
	}
	return JudgeBatchResult{Result: judgeResult, Stdout: filehandle.New(client, fileID)}, nil
}
