// Package errors implements the judge core's closed error taxonomy.
package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// Error is the judge core's general error type. Not every error the core
// returns is one: the primitives report a non-Accepted sandbox run as an
// *execresult.Error, and a cancelled wait returns the context's own error.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
	Stack   string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the given code and its default message.
func New(code ErrorCode) *Error {
	return &Error{
		Code:    code,
		Message: code.Message(),
		Details: make(map[string]interface{}),
		Stack:   getStack(2),
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Stack:   getStack(2),
	}
}

// Wrap wraps an existing error under the given code, preserving the cause
// for errors.Is/errors.As.
func Wrap(err error, code ErrorCode) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		e.Code = code
		return e
	}
	return &Error{
		Code:    code,
		Message: err.Error(),
		Err:     err,
		Details: make(map[string]interface{}),
		Stack:   getStack(2),
	}
}

// Wrapf wraps an error with a code and a formatted message, distinct from
// the wrapped error's own message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
		Details: make(map[string]interface{}),
		Stack:   getStack(2),
	}
}

func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// GetCode extracts the ErrorCode from any error, returning Success for nil
// and RuntimeError for an error of a type this package doesn't own — the
// execution core never leaves a foreign error unclassified for long, but
// GetCode must still answer something for one passed in ad hoc.
func GetCode(err error) ErrorCode {
	if err == nil {
		return Success
	}
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return RuntimeError
}

// Is reports whether err is an *Error carrying the given code.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}

func getStack(skip int) string {
	const maxDepth = 10
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip+1, pcs[:])
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.Function, "runtime.") {
			if !more {
				break
			}
			continue
		}
		fmt.Fprintf(&b, "\n\t%s:%d %s", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}

// ValidationError builds an InvalidParams error with a field/reason detail
// pair, matching the shape callers use for request validation.
func ValidationError(field, reason string) *Error {
	return New(InvalidParams).WithDetail("field", field).WithDetail("reason", reason)
}

// WorkflowParseError builds a WorkflowParse error carrying the sub-kind and
// whatever identifying details the caller supplies (task/name/index pairs).
func WorkflowParseError(subKind string, details map[string]interface{}) *Error {
	e := New(WorkflowParse).WithDetail("kind", subKind)
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}
