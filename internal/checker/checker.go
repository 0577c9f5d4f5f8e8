// Package checker implements the Checker Output Grammar (spec §3/§7,
// component C4): parsing a testlib-style checker's stdout/stderr into a
// status, score, and message. Grounded line-for-line on
// `crates/judge/src/checker.rs`'s `Output::parse`.
package checker

import (
	"regexp"
	"strconv"
	"strings"

	"judgecore/internal/execresult"
)

// Status is the checker's own verdict vocabulary — narrower than
// execresult.Status since a checker never reports Waiting, Judging,
// TimeLimitExceeded, etc. (those come from the sandbox, not the checker).
type Status int

const (
	Accepted Status = iota
	WrongAnswer
	PartiallyCorrect
	PresentationError
	SystemError
)

var statusNames = map[Status]string{
	Accepted:          "accepted",
	WrongAnswer:       "wrong_answer",
	PartiallyCorrect:  "partially_correct",
	PresentationError: "presentation_error",
	SystemError:       "system_error",
}

var namesToStatus = func() map[string]Status {
	m := make(map[string]Status, len(statusNames))
	for s, name := range statusNames {
		m[name] = s
	}
	return m
}()

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ToExecResult maps a checker Status to the judge-facing execresult.Status
// used everywhere else in the core.
func (s Status) ToExecResult() execresult.Status {
	switch s {
	case Accepted:
		return execresult.Accepted
	case WrongAnswer:
		return execresult.WrongAnswer
	case PartiallyCorrect:
		return execresult.PartiallyCorrect
	case PresentationError:
		return execresult.PresentationError
	default:
		return execresult.SystemError
	}
}

// pcPattern matches testlib's "partially correct"/"points" prefix and
// captures the numeric score that follows, with or without parentheses.
// \A anchors at the very start of the string, exactly like the original's
// Rust regex.
var pcPattern = regexp.MustCompile(`\A(?:partially correct|points) \(?([0-9]*\.?[0-9]*)\)?`)

// customPattern matches override lines anywhere in the output: a leading
// `status(name)` or `score(0.5)` token, optionally indented, with any
// trailing text on the line ignored.
var customPattern = regexp.MustCompile(`(?m)^[ \t]*(status|score)\(([\w.]+)\)[ \t]*(.*?)\s*$`)

// Output is the parsed result of a testlib checker run.
type Output struct {
	Status  Status
	Message string
	Score   float32
}

// Parse interprets a checker's combined stdout/stderr text per the testlib
// convention:
//
//   - "ok"                    -> Accepted, score 1
//   - "wrong answer"          -> WrongAnswer, score 0
//   - "FAIL"                  -> SystemError, score 0
//   - "wrong output format"   -> PresentationError, score 0
//   - "partially correct (s)" / "points (s)":
//     s <= 0  -> WrongAnswer, score 0
//     s >= 1  -> Accepted, score 1
//     else    -> PartiallyCorrect, score s
//
// Any line of the form "status(name)" or "score(x)" anywhere in the
// output overrides the prefix-derived status/score, later lines winning.
// The message is the full output, length-limited the same way every other
// captured process output is.
func Parse(output string) Output {
	status, score := SystemError, float32(0)

	switch {
	case strings.HasPrefix(output, "ok"):
		status, score = Accepted, 1
	case strings.HasPrefix(output, "wrong answer"):
		status, score = WrongAnswer, 0
	case strings.HasPrefix(output, "FAIL"):
		status, score = SystemError, 0
	case strings.HasPrefix(output, "wrong output format"):
		status, score = PresentationError, 0
	default:
		if m := pcPattern.FindStringSubmatch(output); m != nil {
			if s, err := strconv.ParseFloat(m[1], 32); err == nil {
				sc := float32(s)
				switch {
				case sc >= 1:
					status, score = Accepted, 1
				case sc <= 0:
					status, score = WrongAnswer, 0
				default:
					status, score = PartiallyCorrect, sc
				}
			}
		}
	}

	for _, m := range customPattern.FindAllStringSubmatch(output, -1) {
		switch m[1] {
		case "status":
			if s, ok := namesToStatus[m[2]]; ok {
				status = s
			}
		case "score":
			if s, err := strconv.ParseFloat(m[2], 32); err == nil {
				score = clamp01(float32(s))
			}
		}
	}

	return Output{
		Status:  status,
		Score:   score,
		Message: execresult.LimitMessage(output),
	}
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
