package checker

import (
	"strings"
	"testing"
)

func TestParse_Ok(t *testing.T) {
	out := Parse("ok answer is correct\n")
	if out.Status != Accepted || out.Score != 1 {
		t.Fatalf("got %+v", out)
	}
}

func TestParse_WrongAnswer(t *testing.T) {
	out := Parse("wrong answer expected 5, found 3\n")
	if out.Status != WrongAnswer || out.Score != 0 {
		t.Fatalf("got %+v", out)
	}
}

func TestParse_Fail(t *testing.T) {
	out := Parse("FAIL checker crashed\n")
	if out.Status != SystemError || out.Score != 0 {
		t.Fatalf("got %+v", out)
	}
}

func TestParse_WrongOutputFormat(t *testing.T) {
	out := Parse("wrong output format extra tokens\n")
	if out.Status != PresentationError {
		t.Fatalf("got %+v", out)
	}
}

func TestParse_PartiallyCorrect_Fraction(t *testing.T) {
	out := Parse("partially correct (0.5)\n")
	if out.Status != PartiallyCorrect || out.Score != 0.5 {
		t.Fatalf("got %+v", out)
	}
}

func TestParse_PartiallyCorrect_ClampsToAccepted(t *testing.T) {
	out := Parse("points (1.0)\n")
	if out.Status != Accepted || out.Score != 1 {
		t.Fatalf("got %+v", out)
	}
}

func TestParse_PartiallyCorrect_ClampsToWrongAnswer(t *testing.T) {
	out := Parse("points (0)\n")
	if out.Status != WrongAnswer || out.Score != 0 {
		t.Fatalf("got %+v", out)
	}
}

func TestParse_PointsNoParens(t *testing.T) {
	out := Parse("points 0.75 of the tests passed\n")
	if out.Status != PartiallyCorrect || out.Score != 0.75 {
		t.Fatalf("got %+v", out)
	}
}

func TestParse_StatusOverride(t *testing.T) {
	out := Parse("ok trivially correct\nstatus(wrong_answer) actually not\n")
	if out.Status != WrongAnswer {
		t.Fatalf("got %+v, want status overridden by status(wrong_answer)", out)
	}
}

func TestParse_ScoreOverride(t *testing.T) {
	out := Parse("points (0.2)\nscore(0.9) bonus awarded\n")
	if out.Status != PartiallyCorrect || out.Score != 0.9 {
		t.Fatalf("got %+v", out)
	}
}

func TestParse_ScoreOverrideClamped(t *testing.T) {
	out := Parse("ok\nscore(5) way too generous\n")
	if out.Score != 1 {
		t.Fatalf("score = %v, want clamped to 1", out.Score)
	}
}

func TestParse_LaterOverrideWins(t *testing.T) {
	out := Parse("ok\nstatus(wrong_answer) first\nstatus(accepted) final\n")
	if out.Status != Accepted {
		t.Fatalf("got %+v, want later status(accepted) to win", out)
	}
}

func TestParse_UnknownPrefixDefaultsToSystemError(t *testing.T) {
	out := Parse("gibberish nonsense output\n")
	if out.Status != SystemError {
		t.Fatalf("got %+v", out)
	}
}

func TestParse_MessageIsLengthLimited(t *testing.T) {
	out := Parse("ok " + strings.Repeat("x", 2000))
	if len(out.Message) > 1024 {
		t.Fatalf("len(Message) = %d, want <= 1024", len(out.Message))
	}
}

func TestStatus_ToExecResult(t *testing.T) {
	if Accepted.ToExecResult().String() != "accepted" {
		t.Fatalf("Accepted mapping wrong")
	}
	if SystemError.ToExecResult().String() != "system_error" {
		t.Fatalf("SystemError mapping wrong")
	}
}
