// Package problemjudge implements the Problem Judger (spec §4.7, component
// C7): a two-level fan-out across subtasks and their tests that reuses
// compiled artifacts, enforces inter-subtask score dependencies, runs the
// user solution and the standard-answer generation concurrently per test,
// and adjudicates each outcome with a checker. Grounded on
// `crates/judge/src/problem/mod.rs` — the Subtask/Test/Response shapes and
// the per-test pipeline's ordering are taken directly from there, with
// Rust's `futures::join!`/`FuturesOrdered` re-expressed using this module's
// own `internal/latch` and goroutines.
package problemjudge

import (
	"context"
	"time"

	"judgecore/internal/assets"
	"judgecore/internal/dataprovider"
	"judgecore/internal/filehandle"
	"judgecore/internal/langtable"
	"judgecore/internal/primitive"
	"judgecore/internal/sandboxclient"
	judgeerr "judgecore/pkg/errors"
)

// Kind is the problem's judging discipline (spec §3 "Problem").
type Kind int

const (
	Batch Kind = iota
	Interactive
	SubmitAnswer
)

// Testset classifies a subtask for the checker's `--testset` argument.
type Testset int

const (
	Sample Testset = iota
	Pretests
	Main
	Hack
)

var testsetNames = map[Testset]string{
	Sample:   "sample",
	Pretests: "pretests",
	Main:     "main",
	Hack:     "hack",
}

func (t Testset) String() string {
	if name, ok := testsetNames[t]; ok {
		return name
	}
	return "unknown"
}

// Source pairs a language with its (not-yet-compiled) code, spec §4.7's
// "program::Source" supplemented type.
type Source struct {
	Lang langtable.Spec
	Code dataprovider.Provider
}

// compile materialises Code and compiles it, reusing the already-uploaded
// extraCopyIn handles. The upload's own reference to the source handle is
// released once the compile step finishes. On the interpreted-language
// path primitive.Compile hands back that same handle with one extra
// reference (Acquire) rather than a distinct compiled artifact, and that
// reference is the caller's to release.
func (s Source) compile(
	ctx context.Context,
	client sandboxclient.Client,
	extraCopyIn map[string]*filehandle.Handle,
	limits sandboxclient.DefaultLimits,
	registry *assets.Registry,
) (primitive.Executable, error) {
	content, err := s.Code.Materialize(ctx, registry)
	if err != nil {
		return primitive.Executable{}, err
	}
	codeHandle, err := filehandle.Upload(ctx, client, content)
	if err != nil {
		return primitive.Executable{}, err
	}
	exec, err := primitive.Compile(ctx, client, s.Lang, nil, codeHandle, extraCopyIn, limits)
	releaseHandle(ctx, codeHandle)
	return exec, err
}

// inputKind discriminates Input's tagged variant.
type inputKind int

const (
	inputPlain inputKind = iota
	inputGenerated
)

// Input is a test's input file: either inline bytes or the output of a
// generator executable (spec §3 "Test").
type Input struct {
	kind      inputKind
	bytes     []byte
	generator primitive.Executable
	args      []string
}

// PlainInput wraps inline input bytes.
func PlainInput(b []byte) Input {
	return Input{kind: inputPlain, bytes: b}
}

// GeneratedInput describes input produced by running generator with args.
func GeneratedInput(generator primitive.Executable, args []string) Input {
	return Input{kind: inputGenerated, generator: generator, args: args}
}

func (in Input) make(
	ctx context.Context,
	client sandboxclient.Client,
	copyIn map[string]*filehandle.Handle,
	limits sandboxclient.DefaultLimits,
) (*filehandle.Handle, error) {
	switch in.kind {
	case inputGenerated:
		return primitive.Generate(ctx, client, in.generator, in.args, copyIn, limits)
	default:
		return filehandle.Upload(ctx, client, in.bytes)
	}
}

// answerKind discriminates Answer's tagged variant.
type answerKind int

const (
	answerPlain answerKind = iota
	answerGenerated
)

// Answer is a test's expected output: either inline bytes or generated by
// running the standard solution over the materialised input (spec §3
// "Test").
type Answer struct {
	kind  answerKind
	bytes []byte
}

// PlainAnswer wraps inline answer bytes.
func PlainAnswer(b []byte) Answer {
	return Answer{kind: answerPlain, bytes: b}
}

// GeneratedAnswer marks an answer produced by the problem's standard
// solution, rather than supplied verbatim.
func GeneratedAnswer() Answer {
	return Answer{kind: answerGenerated}
}

func (a Answer) make(
	ctx context.Context,
	client sandboxclient.Client,
	standardSolution primitive.Executable,
	input *filehandle.Handle,
	copyIn map[string]*filehandle.Handle,
	timeLimit time.Duration,
	memoryLimit uint64,
	limits sandboxclient.DefaultLimits,
) (*filehandle.Handle, error) {
	switch a.kind {
	case answerGenerated:
		res, err := primitive.JudgeBatch(ctx, client, standardSolution, nil, input, copyIn, timeLimit, memoryLimit, limits)
		if err != nil {
			return nil, err
		}
		if res.Stdout == nil {
			return nil, judgeerr.Newf(judgeerr.RuntimeError, "standard solution did not produce an accepted run: %s", res.Result.Status)
		}
		return res.Stdout, nil
	default:
		return filehandle.Upload(ctx, client, a.bytes)
	}
}

// Test is one (input, answer) pair within a subtask.
type Test struct {
	Input  Input
	Answer Answer
}

// Subtask is a group of tests sharing a weight, limits, and a dependency
// set (spec §3/§4.7).
type Subtask struct {
	ID          int
	Score       float64
	Dependences []int
	Testset     Testset
	Tests       []Test
	TimeLimit   time.Duration
	MemoryLimit uint64
}

// Problem is a fully parsed judging problem (spec §3 "Problem").
type Problem struct {
	Subtasks         []Subtask
	Kind             Kind
	Checker          Source
	StandardSolution Source
	UserCopyIn       map[string]dataprovider.Provider
	JudgeCopyIn      map[string]dataprovider.Provider
}
