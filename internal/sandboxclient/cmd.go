// Package sandboxclient is the Sandbox Client (spec §4.2/§7, components
// C1/C2): the contract for submitting exec requests and managing uploaded
// files against an external sandbox process. The sandbox itself is out of
// scope (spec §1 Non-goals); this package only speaks its wire protocol.
//
// Grounded on `crates/judge/src/sandbox/{client.rs,proto.rs}` for the
// exec/file-management contract shape, and on go-judge's REST surface (as
// used by `asfrgrtgd-tuis-oj-base/api/core/judge_client.go`) for the
// concrete JSON wire format, since this module cannot run protoc to
// reproduce the original's gRPC stubs.
package sandboxclient

import (
	"time"

	"judgecore/internal/execresult"
)

// fileKind discriminates File's tagged variants.
type fileKind int

const (
	fileKindMemory fileKind = iota
	fileKindCached
	fileKindPipe
)

// File is one exec command's file-descriptor spec: either inline content,
// a reference to a previously uploaded/cached sandbox file, or a pipe
// collector with a byte cap. Mirrors the original's `request::file::File`
// enum (Memory/Cached/Pipe variants; Local/Stream variants are a sandbox
// implementation detail this client never needs to construct).
type File struct {
	kind    fileKind
	content []byte
	fileID  string
	name    string
	max     int64
}

// MemoryFile is inline content for a file descriptor (e.g. stdin).
func MemoryFile(content []byte) File {
	return File{kind: fileKindMemory, content: content}
}

// CachedFile references a file previously returned via copy_out_cached or
// FileAdd, by its sandbox-assigned id.
func CachedFile(fileID string) File {
	return File{kind: fileKindCached, fileID: fileID}
}

// PipeCollector captures a stream (stdout/stderr) up to max bytes.
func PipeCollector(name string, max int64) File {
	return File{kind: fileKindPipe, name: name, max: max}
}

// Cmd is one exec command, the Go analogue of the original's `Cmd` struct.
type Cmd struct {
	Args []string
	Env  []string

	// Files are descriptors 0, 1, 2, ... in order (stdin, stdout, stderr,
	// plus any extra descriptors a command needs).
	Files []File

	// TimeLimit is the CPU time limit; the wall-clock limit sent to the
	// sandbox is always 2x this, per the original's documented invariant
	// ("Real time limit = CPU time limit * 2").
	TimeLimit time.Duration

	MemoryLimit       uint64
	ProcLimit         uint64
	StrictMemoryLimit bool

	// CopyIn maps a container-relative filename to the File to place there.
	CopyIn map[string]File

	// CopyOut and CopyOutCached list filenames to return after execution,
	// inline and sandbox-side-cached respectively. A trailing "?" marks a
	// file optional — its absence will not be reported as a FileError.
	CopyOut       []string
	CopyOutCached []string
}

// DefaultLimits are applied by NewCmd before caller overrides, mirroring
// the original's `impl Default for Cmd` (reading from process-wide
// config there; passed in explicitly here since this package carries no
// global config singleton).
type DefaultLimits struct {
	Env         []string
	TimeLimit   time.Duration
	MemoryLimit uint64
	ProcLimit   uint64
	StdoutLimit int64
	StderrLimit int64
}

// NewCmd builds a Cmd with the same defaults as the original: empty stdin,
// stdout/stderr pipe collectors sized per limits, and stderr captured via
// CopyOut so a non-Accepted result always carries a stderr excerpt.
func NewCmd(limits DefaultLimits) Cmd {
	return Cmd{
		Args: nil,
		Env:  limits.Env,
		Files: []File{
			MemoryFile(nil),
			PipeCollector("stdout", limits.StdoutLimit),
			PipeCollector("stderr", limits.StderrLimit),
		},
		TimeLimit:   limits.TimeLimit,
		MemoryLimit: limits.MemoryLimit,
		ProcLimit:   limits.ProcLimit,
		CopyIn:      map[string]File{},
		CopyOut:     []string{"stderr"},
	}
}

// Result is one exec command's outcome, the Go analogue of the original's
// `response::Result` plus the file/file-id maps the wire protocol returns
// alongside it.
type Result struct {
	Status     execresult.SandboxStatus
	Time       time.Duration
	Memory     uint64
	ExitStatus int32
	Error      string

	// Files holds the inline bytes of every name requested in CopyOut.
	Files map[string][]byte

	// FileIDs holds the sandbox-assigned id of every name requested in
	// CopyOutCached.
	FileIDs map[string]string
}

// ToSandboxResult narrows a Result to the fields execresult needs to build
// a JudgeResult/Error, reading the requested stderr excerpt out of Files.
func (r Result) ToSandboxResult() execresult.SandboxResult {
	return execresult.SandboxResult{
		Status:     r.Status,
		TimeNanos:  uint64(r.Time.Nanoseconds()),
		Memory:     r.Memory,
		ExitStatus: r.ExitStatus,
		Error:      r.Error,
		Stderr:     r.Files["stderr"],
	}
}
