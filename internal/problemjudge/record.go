package problemjudge

import (
	"time"

	"judgecore/internal/checker"
	"judgecore/internal/execresult"
)

// Record is the judging outcome of a single test (spec §3/§4.7): a status,
// the user solution's resource usage, a fractional score in [0,1], and a
// human-readable message. Grounded on `crates/judge/src/problem/mod.rs`'s
// `Record::new_system_error` / `new_interrupted` / `new_checked` call sites,
// which this package's constructors mirror (the Record type itself wasn't
// present in the retrieved Rust sources, so its shape is inferred from
// those call sites and from spec §3's literal `Record{status, time,
// memory, exit_code, score, message}` field list).
type Record struct {
	Status   execresult.Status
	Time     time.Duration
	Memory   uint64
	ExitCode int32
	Score    float64
	Message  string
}

// NewSystemError records an essential-step transport failure (file upload,
// checker transport) that isn't the solution's fault — there is no solution
// run to report resource usage for.
func NewSystemError(message string) Record {
	return Record{Status: execresult.SystemError, Message: message}
}

// NewSkipped records a test that was never run because its subtask's
// effective input score was zero.
func NewSkipped() Record {
	return Record{Status: execresult.Skipped}
}

// NewInterrupted records a user solution run that did not finish Accepted,
// per spec §4.7 step 3: "score 0, message = runtime error rendering", with
// the solution's actual time/memory/exit_code carried through from its run.
func NewInterrupted(res execresult.JudgeResult) Record {
	return Record{
		Status:   res.Status,
		Time:     res.Time,
		Memory:   res.Memory,
		ExitCode: res.ExitCode,
		Message:  res.Stderr,
	}
}

// NewChecked records a checker verdict over an Accepted solution run, with
// the solution's time/memory/exit_code from that same run (res) alongside
// the checker's score/message (out).
func NewChecked(res execresult.JudgeResult, out checker.Output) Record {
	return Record{
		Status:   out.Status.ToExecResult(),
		Time:     res.Time,
		Memory:   res.Memory,
		ExitCode: res.ExitCode,
		Score:    float64(out.Score),
		Message:  out.Message,
	}
}
