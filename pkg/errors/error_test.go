package errors_test

import (
	"errors"
	"testing"

	. "judgecore/pkg/errors"
)

func TestErrorCode_Message(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{Success, "success"},
		{CompileError, "compilation failed"},
		{Sandbox, "sandbox transport error"},
		{ErrorCode(999), "unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.Message(); got != tt.want {
				t.Errorf("Message() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, Sandbox)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error to unwrap to cause")
	}
	if GetCode(err) != Sandbox {
		t.Fatalf("GetCode() = %v, want Sandbox", GetCode(err))
	}
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil, Sandbox) != nil {
		t.Fatalf("Wrap(nil, ...) should return nil")
	}
}

func TestGetCode_PlainError(t *testing.T) {
	if got := GetCode(errors.New("plain")); got != RuntimeError {
		t.Errorf("GetCode(plain error) = %v, want RuntimeError", got)
	}
}

func TestWorkflowParseError_Details(t *testing.T) {
	err := WorkflowParseError(SubKindDuplicateFile, map[string]interface{}{
		"index1": 0,
		"index2": 2,
		"name":   "b.c",
	})
	if err.Code != WorkflowParse {
		t.Fatalf("Code = %v, want WorkflowParse", err.Code)
	}
	if err.Details["kind"] != SubKindDuplicateFile {
		t.Fatalf("Details[kind] = %v, want %v", err.Details["kind"], SubKindDuplicateFile)
	}
	if err.Details["name"] != "b.c" {
		t.Fatalf("Details[name] = %v, want b.c", err.Details["name"])
	}
}
