package sandboxclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"judgecore/internal/execresult"
)

func TestCmd_ToWire_DerivesClockLimitAndStackLimit(t *testing.T) {
	cmd := NewCmd(DefaultLimits{TimeLimit: 2 * time.Second, MemoryLimit: 256 << 20, ProcLimit: 16})
	wire := cmd.toWire()
	if wire.ClockTimeLimit != wire.CPUTimeLimit*2 {
		t.Fatalf("clock limit %d, want 2x cpu limit %d", wire.ClockTimeLimit, wire.CPUTimeLimit)
	}
	if wire.StackLimit != wire.MemoryLimit {
		t.Fatalf("stack limit %d, want == memory limit %d", wire.StackLimit, wire.MemoryLimit)
	}
	if len(wire.Files) != 3 {
		t.Fatalf("got %d default files, want 3 (stdin, stdout, stderr)", len(wire.Files))
	}
	if wire.CopyOut[0] != "stderr" {
		t.Fatalf("default copy_out = %v, want [stderr]", wire.CopyOut)
	}
}

func TestFile_ToWire_Variants(t *testing.T) {
	if got := MemoryFile([]byte("hi")).toWire(); string(got.Content) != "hi" {
		t.Fatalf("memory file content = %q", got.Content)
	}
	if got := CachedFile("abc").toWire(); got.FileID != "abc" {
		t.Fatalf("cached file id = %q", got.FileID)
	}
	if got := PipeCollector("stdout", 1024).toWire(); got.Name != "stdout" || got.Max != 1024 {
		t.Fatalf("pipe collector = %+v", got)
	}
}

func TestHTTPClient_Exec(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/run" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req wireRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Cmd) != 1 {
			t.Fatalf("got %d cmds, want 1", len(req.Cmd))
		}
		json.NewEncoder(w).Encode([]wireResult{
			{Status: "Accepted", Time: 1_000_000, Memory: 4096, ExitStatus: 0, Files: map[string][]byte{"stdout": []byte("3\n")}},
		})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.Client(), srv.URL, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmd := NewCmd(DefaultLimits{TimeLimit: time.Second, MemoryLimit: 1 << 20, ProcLimit: 1})
	results, err := client.Exec(context.Background(), []Cmd{cmd})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Status != execresult.SandboxAccepted {
		t.Fatalf("got %+v", results)
	}
	if string(results[0].Files["stdout"]) != "3\n" {
		t.Fatalf("stdout = %q", results[0].Files["stdout"])
	}
}

func TestHTTPClient_Exec_Compressed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") != "gzip" {
			t.Fatalf("Content-Encoding = %q, want gzip", r.Header.Get("Content-Encoding"))
		}
		gr, err := gzip.NewReader(r.Body)
		if err != nil {
			t.Fatalf("gzip.NewReader: %v", err)
		}
		var req wireRunRequest
		if err := json.NewDecoder(gr).Decode(&req); err != nil {
			t.Fatalf("decode gzipped request: %v", err)
		}
		if len(req.Cmd) != 1 {
			t.Fatalf("got %d cmds, want 1", len(req.Cmd))
		}
		json.NewEncoder(w).Encode([]wireResult{{Status: "Accepted"}})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.Client(), srv.URL, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.WithCompression(true)

	cmd := NewCmd(DefaultLimits{TimeLimit: time.Second, MemoryLimit: 1 << 20, ProcLimit: 1})
	results, err := client.Exec(context.Background(), []Cmd{cmd})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Status != execresult.SandboxAccepted {
		t.Fatalf("got %+v", results)
	}
}

func TestHTTPClient_FileGet_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, _ := NewHTTPClient(srv.Client(), srv.URL, 1)
	_, err := client.FileGet(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPClient(nil, "", 1); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestMock_FileRoundTrip(t *testing.T) {
	m := NewMock()
	id, err := m.FileAdd(context.Background(), []byte("payload"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := m.FileGet(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q", got)
	}
	if err := m.FileDelete(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.FileGet(context.Background(), id); err == nil {
		t.Fatal("expected error after delete")
	}
}

func TestMock_AsClient_UsesInjectedExec(t *testing.T) {
	m := NewMock().WithExecResults([]Result{{Status: execresult.SandboxAccepted}})
	client := m.AsClient()
	results, err := client.Exec(context.Background(), []Cmd{NewCmd(DefaultLimits{})})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Status != execresult.SandboxAccepted {
		t.Fatalf("got %+v", results)
	}
}
