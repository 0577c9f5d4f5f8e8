package execresult

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// messageLimit is the maximum byte length of a retained stderr excerpt
// (spec property P3/P9: "truncated to 1024 bytes on a UTF-8 boundary,
// idempotent").
const messageLimit = 1024

// LimitMessage truncates s to at most messageLimit bytes, cutting on a
// UTF-8 rune boundary rather than mid-sequence, and appends "..." when it
// had to cut. Grounded on the original's `limit_message`, which takes the
// first LIMIT-3 bytes and lossily re-decodes them as UTF-8.
func LimitMessage(s string) string {
	if len(s) <= messageLimit {
		return s
	}
	cut := messageLimit - 3
	return truncateUTF8([]byte(s)[:cut]) + "..."
}

// truncateUTF8 drops trailing bytes until what's left is valid UTF-8, the
// Go equivalent of Rust's String::from_utf8_lossy on a byte slice cut
// mid-character (which drops the partial trailing rune rather than
// emitting a replacement character).
func truncateUTF8(b []byte) string {
	for !utf8.Valid(b) {
		b = b[:len(b)-1]
	}
	return string(b)
}

// SandboxResult is the subset of a sandbox exec response this package
// needs to build a JudgeResult (spec §4.2's ExecRequest/ExecResult
// contract, narrowed to the result side).
type SandboxResult struct {
	Status     SandboxStatus
	TimeNanos  uint64
	Memory     uint64
	ExitStatus int32
	Error      string // sandbox-reported internal error, only set on SandboxInternalError
	Stderr     []byte // captured stderr file content, if any
}

// JudgeResult is the outcome of a single sandbox-run task (spec §4.3).
type JudgeResult struct {
	Status Status
	Time   time.Duration
	Memory uint64
	Stderr string
	ExitCode int32
}

// NewJudgeResult builds a JudgeResult from a sandbox response, selecting
// the stderr excerpt the same way the original's `From<proto::Result> for
// JudgeResult` does: a signal name for Signalled, the exit code for
// NonZeroExitStatus, the raw sandbox error for InternalError, and a
// length-limited stderr file otherwise.
func NewJudgeResult(res SandboxResult) JudgeResult {
	return JudgeResult{
		Status:   FromSandboxStatus(res.Status),
		Time:     time.Duration(res.TimeNanos),
		Memory:   res.Memory,
		ExitCode: res.ExitStatus,
		Stderr:   stderrFor(res),
	}
}

func stderrFor(res SandboxResult) string {
	switch res.Status {
	case SandboxSignalled:
		return fmt.Sprintf("signalled: %s", signalName(res.ExitStatus))
	case SandboxNonZeroExitStatus:
		return fmt.Sprintf("non_zero_exit_status: %d", res.ExitStatus)
	case SandboxInternalError:
		return res.Error
	default:
		return LimitMessage(string(res.Stderr))
	}
}

// Error is produced when a task's result is not Accepted (spec §4.3: "a
// non-Accepted JudgeResult is also an error value at the call boundary").
// It mirrors the original's `enum Error { Execute, Sandbox }`.
type Error struct {
	// Execute fields, set when the task ran but didn't accept.
	Status   Status
	Time     time.Duration
	Memory   uint64
	Stderr   string
	ExitCode int32

	// Sandbox is set instead of the above when the failure was a
	// transport-level sandbox error rather than a completed-but-rejected run.
	Sandbox error
}

func (e *Error) Error() string {
	if e.Sandbox != nil {
		return fmt.Sprintf("sandbox error: %v", e.Sandbox)
	}
	return fmt.Sprintf(
		"task executed failed (status: %s, time: %s, memory: %d bytes, stderr: %s)",
		e.Status, e.Time, e.Memory, e.Stderr,
	)
}

func (e *Error) Unwrap() error {
	return e.Sandbox
}

// NewError builds a non-Accepted Error directly from a sandbox response,
// per the original's `From<proto::Result> for Error`.
func NewError(res SandboxResult) *Error {
	return &Error{
		Status:   FromSandboxStatus(res.Status),
		Stderr:   LimitMessage(string(res.Stderr)),
		Memory:   res.Memory,
		Time:     time.Duration(res.TimeNanos),
		ExitCode: res.ExitStatus,
	}
}

// FromJudgeResult converts an already-built JudgeResult into an Error, per
// the original's `From<JudgeResult> for Error` (used once a caller has
// already inspected Status and decided it isn't Accepted).
func FromJudgeResult(res JudgeResult) *Error {
	return &Error{
		Status:   res.Status,
		Stderr:   res.Stderr,
		Memory:   res.Memory,
		Time:     res.Time,
		ExitCode: res.ExitCode,
	}
}

// SandboxError wraps a sandbox transport failure (RPC/HTTP error) as an
// Error, per the original's `Error::Sandbox` variant.
func SandboxError(err error) *Error {
	return &Error{Sandbox: err}
}
