package primitive

import (
	"context"
	"testing"
	"time"

	"judgecore/internal/execresult"
	"judgecore/internal/filehandle"
	"judgecore/internal/langtable"
	"judgecore/internal/sandboxclient"
)

func cppSpec() langtable.Spec {
	return langtable.Spec{
		Name:        "cpp17",
		CompileArgv: []string{"g++", "-O2", "-std=c++17", "-o", "{exe}", "{src}"},
		RunArgv:     []string{"./{exe}"},
		SourceFile:  "a.cpp",
		ExecFile:    "a.out",
	}
}

func TestCompile_Accepted(t *testing.T) {
	mock := sandboxclient.NewMock().WithExecResults([]sandboxclient.Result{
		{Status: execresult.SandboxAccepted, FileIDs: map[string]string{"a.out": "exec-123"}},
	})
	client := mock.AsClient()
	code := filehandle.New(client, "src-1")

	exec, err := Compile(context.Background(), client, cppSpec(), nil, code, nil, sandboxclient.DefaultLimits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.File.FileID() != "exec-123" {
		t.Fatalf("got %q", exec.File.FileID())
	}
}

func TestCompile_Failed(t *testing.T) {
	mock := sandboxclient.NewMock().WithExecResults([]sandboxclient.Result{
		{Status: execresult.SandboxNonZeroExitStatus, ExitStatus: 1, Files: map[string][]byte{"stderr": []byte("error: syntax")}},
	})
	client := mock.AsClient()
	code := filehandle.New(client, "src-1")

	_, err := Compile(context.Background(), client, cppSpec(), nil, code, nil, sandboxclient.DefaultLimits{})
	if err == nil {
		t.Fatal("expected compile error")
	}
	execErr, ok := err.(*execresult.Error)
	if !ok {
		t.Fatalf("got %T, want *execresult.Error", err)
	}
	if execErr.Status != execresult.RuntimeError {
		t.Fatalf("status = %v", execErr.Status)
	}
}

func TestCompile_InterpretedSkipsCompileStep(t *testing.T) {
	client := sandboxclient.NewMock().AsClient()
	py := langtable.Spec{Name: "py3", RunArgv: []string{"python3", "{src}"}, SourceFile: "a.py"}
	code := filehandle.New(client, "src-1")

	exec, err := Compile(context.Background(), client, py, nil, code, nil, sandboxclient.DefaultLimits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.File.FileID() != "src-1" {
		t.Fatalf("got %q, want the source file reused as the executable", exec.File.FileID())
	}
}

func TestGenerate_Accepted(t *testing.T) {
	mock := sandboxclient.NewMock().WithExecResults([]sandboxclient.Result{
		{Status: execresult.SandboxAccepted, FileIDs: map[string]string{"stdout": "gen-out"}},
	})
	client := mock.AsClient()
	exec := Executable{Lang: cppSpec(), File: filehandle.New(client, "gen-exec")}

	out, err := Generate(context.Background(), client, exec, []string{"1", "100"}, nil, sandboxclient.DefaultLimits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.FileID() != "gen-out" {
		t.Fatalf("got %q", out.FileID())
	}
}

func TestValidate_Accepted(t *testing.T) {
	mock := sandboxclient.NewMock().WithExecResults([]sandboxclient.Result{
		{Status: execresult.SandboxAccepted, Files: map[string][]byte{
			"val.log": []byte(`"a": ok min-value-hit
"b": ok max-value-hit
`),
		}},
	})
	client := mock.AsClient()
	exec := Executable{Lang: cppSpec(), File: filehandle.New(client, "val-exec")}
	input := filehandle.New(client, "input-1")

	overview, err := Validate(context.Background(), client, exec, nil, input, nil, sandboxclient.DefaultLimits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !overview.Variables["a"].HitMin || !overview.Variables["b"].HitMax {
		t.Fatalf("got %+v", overview.Variables)
	}
}

func TestJudgeBatch_AcceptedReturnsStdout(t *testing.T) {
	mock := sandboxclient.NewMock().WithExecResults([]sandboxclient.Result{
		{Status: execresult.SandboxAccepted, FileIDs: map[string]string{"stdout": "out-1"}},
	})
	client := mock.AsClient()
	exec := Executable{Lang: cppSpec(), File: filehandle.New(client, "sol-exec")}
	input := filehandle.New(client, "input-1")

	res, err := JudgeBatch(context.Background(), client, exec, nil, input, nil, time.Second, 256<<20, sandboxclient.DefaultLimits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Result.Status != execresult.Accepted {
		t.Fatalf("status = %v", res.Result.Status)
	}
	if res.Stdout == nil || res.Stdout.FileID() != "out-1" {
		t.Fatalf("got %+v", res.Stdout)
	}
}

func TestJudgeBatch_NonAcceptedReleasesStdout(t *testing.T) {
	mock := sandboxclient.NewMock().WithExecResults([]sandboxclient.Result{
		{Status: execresult.SandboxTimeLimitExceeded, FileIDs: map[string]string{"stdout": "partial-out"}},
	})
	client := mock.AsClient()
	exec := Executable{Lang: cppSpec(), File: filehandle.New(client, "sol-exec")}
	input := filehandle.New(client, "input-1")

	res, err := JudgeBatch(context.Background(), client, exec, nil, input, nil, time.Second, 256<<20, sandboxclient.DefaultLimits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Result.Status != execresult.TimeLimitExceeded {
		t.Fatalf("status = %v", res.Result.Status)
	}
	if res.Stdout != nil {
		t.Fatal("expected no stdout handle on non-accepted result")
	}
	if _, err := mock.FileGet(context.Background(), "partial-out"); err == nil {
		t.Fatal("expected partial stdout file to be released")
	}
}
