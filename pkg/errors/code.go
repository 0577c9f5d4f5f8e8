package errors

// ErrorCode identifies a member of the judge core's closed error taxonomy
// (spec §4.3 / §7). Unlike a general-purpose API error code, this set is
// deliberately small and never grows to cover concerns outside the
// execution core (auth, persistence, transport) — those are host-process
// errors, not ours to name.
type ErrorCode int

const (
	// Success is returned by GetCode for a nil error.
	Success ErrorCode = iota

	// CompileError names a failed compilation. No function in this module
	// returns it: primitive.Compile reports a non-Accepted compile as an
	// *execresult.Error carrying the truncated compiler stderr.
	CompileError

	// RuntimeError means an execution did not finish Accepted (returned for
	// a standard-solution answer run), and is what GetCode reports for an
	// error of a type this package does not own. The primitives report
	// their own non-Accepted runs as *execresult.Error instead.
	RuntimeError

	// Sandbox means the sandbox RPC transport failed (connection refused,
	// timeout, malformed response) rather than the executed command
	// itself producing a bad result.
	Sandbox

	// FileNotFound means a sandbox file id was not resolvable by the
	// sandbox server (maps the RPC's FileGetError).
	FileNotFound

	// InvalidLang means a language name was not present in the language
	// table.
	InvalidLang

	// WorkflowParse means workflow input validation (spec §4.6) failed.
	// Details["kind"] holds one of the WorkflowParse sub-kinds below.
	WorkflowParse

	// InvalidParams is a generic caller-input validation failure that
	// doesn't fit the sandbox/workflow-specific codes above (e.g. building
	// a request with an empty submission id).
	InvalidParams

	// NotImplemented marks an explicitly unimplemented path. No function in
	// this module returns it; problemjudge.Judge does not inspect
	// Problem.Kind, so an Interactive problem gets no error from it.
	NotImplemented
)

// WorkflowParse sub-kinds (spec §4.3), stored in Details["kind"].
const (
	SubKindInvalidFile    = "invalid_file"
	SubKindDuplicateFile  = "duplicate_file"
	SubKindCopyInConflict = "copy_in_conflict"
)

var errorMessages = map[ErrorCode]string{
	Success:        "success",
	CompileError:   "compilation failed",
	RuntimeError:   "execution did not finish with accepted status",
	Sandbox:        "sandbox transport error",
	FileNotFound:   "sandbox file not found",
	InvalidLang:    "unknown language",
	WorkflowParse:  "workflow validation failed",
	InvalidParams:  "invalid parameters",
	NotImplemented: "not implemented",
}

// Message returns the default message for the error code.
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "unknown error"
}
