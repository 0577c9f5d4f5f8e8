package problemjudge

import (
	"context"
	"slices"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"judgecore/internal/dataprovider"
	"judgecore/internal/execresult"
	"judgecore/internal/langtable"
	"judgecore/internal/sandboxclient"
)

// interpretedSpec never compiles — Compile just acquires the source handle
// directly, so the fake sandbox only ever has to answer JudgeBatch and
// checker Exec calls, not a compile step.
func interpretedSpec() langtable.Spec {
	return langtable.Spec{
		Name:       "py3",
		RunArgv:    []string{"python3", "{src}"},
		SourceFile: "a.py",
	}
}

// fakeExec drives every test's JudgeBatch call to Accepted and every
// checker invocation (identified by the --testset flag all checker Cmds
// carry) to the fixed checkerOutput, regardless of actual file content —
// this package's own orchestration (fan-out, dependency gating, score
// aggregation) is what's under test here, not the checker grammar itself
// (covered by internal/checker).
func fakeExec(checkerOutput string) sandboxclient.ExecFunc {
	var n int64
	return func(_ context.Context, cmds []sandboxclient.Cmd) ([]sandboxclient.Result, error) {
		cmd := cmds[0]
		if slices.Contains(cmd.Args, "--testset") {
			return []sandboxclient.Result{{
				Status: execresult.SandboxAccepted,
				Files:  map[string][]byte{"stderr": []byte(checkerOutput)},
			}}, nil
		}
		id := atomic.AddInt64(&n, 1)
		return []sandboxclient.Result{{
			Status:  execresult.SandboxAccepted,
			FileIDs: map[string]string{"stdout": "stdout-" + strconv.FormatInt(id, 10)},
		}}, nil
	}
}

// cSpec is a compile-enabled language, used only by the compile-error test
// below — every other test in this file uses interpretedSpec to skip the
// compile step entirely.
func cSpec() langtable.Spec {
	return langtable.Spec{
		Name:        "c",
		CompileArgv: []string{"gcc", "-O2", "-o", "{exe}", "{src}"},
		RunArgv:     []string{"./{exe}"},
		SourceFile:  "a.c",
		ExecFile:    "a.out",
	}
}

func aPlusBProblem(checkerCode string) *Problem {
	return &Problem{
		Kind: Batch,
		Subtasks: []Subtask{
			{
				ID:          0,
				Score:       100,
				Testset:     Main,
				TimeLimit:   time.Second,
				MemoryLimit: 256 << 20,
				Tests: []Test{
					{Input: PlainInput([]byte("1 2\n")), Answer: PlainAnswer([]byte("3\n"))},
					{Input: PlainInput([]byte("100 200\n")), Answer: PlainAnswer([]byte("300\n"))},
				},
			},
		},
		Checker: Source{Lang: interpretedSpec(), Code: dataprovider.Memory([]byte(checkerCode))},
	}
}

func collectEvents(t *testing.T, events <-chan Event) (finished *Event, completed []Event) {
	t.Helper()
	for ev := range events {
		if ev.Kind == EventCompileErr {
			t.Fatalf("unexpected compile error: %s", ev.Message)
		}
		if ev.Kind == EventCompleteOne {
			completed = append(completed, ev)
		}
		if ev.Kind == EventFinished {
			e := ev
			finished = &e
		}
	}
	if finished == nil {
		t.Fatal("expected a Finished event")
	}
	return finished, completed
}

func TestJudge_APlusBHappyPath(t *testing.T) {
	mock := sandboxclient.NewMock()
	mock.Exec = fakeExec("ok\n")
	client := mock.AsClient()

	problem := aPlusBProblem("ncmp checker")
	userSolution := Source{Lang: interpretedSpec(), Code: dataprovider.Memory([]byte("solution"))}

	events := Judge(context.Background(), Env{Client: client}, nil, problem, userSolution)
	finished, completed := collectEvents(t, events)

	if finished.Score != 100 {
		t.Fatalf("score = %v, want 100", finished.Score)
	}
	if len(finished.AllRecords) != 1 || len(finished.AllRecords[0]) != 2 {
		t.Fatalf("records = %+v", finished.AllRecords)
	}
	for _, r := range finished.AllRecords[0] {
		if r.Status != execresult.Accepted || r.Score != 1 {
			t.Fatalf("record = %+v, want Accepted/1.0", r)
		}
	}
	if len(completed) != 2 {
		t.Fatalf("completed events = %d, want 2", len(completed))
	}
}

func TestJudge_WrongAnswerPath(t *testing.T) {
	mock := sandboxclient.NewMock()
	mock.Exec = fakeExec("wrong answer you lose\n")
	client := mock.AsClient()

	problem := aPlusBProblem("ncmp checker")
	userSolution := Source{Lang: interpretedSpec(), Code: dataprovider.Memory([]byte("solution"))}

	events := Judge(context.Background(), Env{Client: client}, nil, problem, userSolution)
	finished, _ := collectEvents(t, events)

	if finished.Score != 0 {
		t.Fatalf("score = %v, want 0", finished.Score)
	}
	for _, r := range finished.AllRecords[0] {
		if r.Status != execresult.WrongAnswer {
			t.Fatalf("record = %+v, want WrongAnswer", r)
		}
	}
}

func TestJudge_CompileErrorEmitsEventAndStops(t *testing.T) {
	mock := sandboxclient.NewMock()
	mock.Exec = func(_ context.Context, _ []sandboxclient.Cmd) ([]sandboxclient.Result, error) {
		return []sandboxclient.Result{{
			Status:     execresult.SandboxNonZeroExitStatus,
			ExitStatus: 1,
			Files:      map[string][]byte{"stderr": []byte("error: expected expression")},
		}}, nil
	}
	client := mock.AsClient()

	problem := aPlusBProblem("ncmp checker")
	userSolution := Source{Lang: cSpec(), Code: dataprovider.Memory([]byte("ERROR!"))}

	events := Judge(context.Background(), Env{Client: client}, nil, problem, userSolution)

	ev, ok := <-events
	if !ok {
		t.Fatal("expected one event before close")
	}
	if ev.Kind != EventCompileErr {
		t.Fatalf("kind = %v, want EventCompileErr", ev.Kind)
	}
	if ev.Message == "" {
		t.Fatal("expected a non-empty compile error message")
	}
	if _, ok := <-events; ok {
		t.Fatal("expected channel to close after the compile error event")
	}
}

func TestJudge_DependencyZeroPropagation(t *testing.T) {
	mock := sandboxclient.NewMock()
	mock.Exec = fakeExec("wrong answer you lose\n")
	client := mock.AsClient()

	problem := &Problem{
		Kind: Batch,
		Subtasks: []Subtask{
			{ID: 0, Score: 50, Testset: Main, TimeLimit: time.Second, MemoryLimit: 256 << 20,
				Tests: []Test{{Input: PlainInput([]byte("1 2\n")), Answer: PlainAnswer([]byte("3\n"))}}},
			{ID: 1, Score: 50, Dependences: []int{0}, Testset: Main, TimeLimit: time.Second, MemoryLimit: 256 << 20,
				Tests: []Test{{Input: PlainInput([]byte("1 2\n")), Answer: PlainAnswer([]byte("3\n"))}}},
		},
		Checker: Source{Lang: interpretedSpec(), Code: dataprovider.Memory([]byte("ncmp checker"))},
	}
	userSolution := Source{Lang: interpretedSpec(), Code: dataprovider.Memory([]byte("solution"))}

	events := Judge(context.Background(), Env{Client: client}, nil, problem, userSolution)
	finished, _ := collectEvents(t, events)

	if finished.Score != 0 {
		t.Fatalf("score = %v, want 0", finished.Score)
	}
	if finished.AllRecords[1][0].Status != execresult.Skipped {
		t.Fatalf("subtask 1 record = %+v, want Skipped", finished.AllRecords[1][0])
	}
}
