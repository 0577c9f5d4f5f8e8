// Package langtable implements the Language Table (spec §3, component C8):
// named, immutable language definitions looked up by name, with an unknown
// name surfacing as a typed error.
//
// Argv templates are stored as already-tokenized strings but can be parsed
// from a single config-file command line with ParseArgv, the same way
// judge_service/internal/sandbox/runner builds argv from a YAML-configured
// template string using google/shlex rather than a hand-rolled tokenizer.
package langtable

import (
	"strings"

	"github.com/google/shlex"

	judgeerr "judgecore/pkg/errors"
)

const (
	placeholderSource = "{src}"
	placeholderExec   = "{exe}"
)

// Spec is one language's compile/run definition (spec §3 "Language").
type Spec struct {
	Name string

	// CompileArgv is the argv template run to compile a submission.
	// {src} and {exe} are substituted with SourceFile / ExecFile.
	CompileArgv []string

	// RunArgv is the argv template run to execute the compiled (or
	// interpreted) program. {src} and {exe} are substituted with
	// SourceFile / ExecFile.
	RunArgv []string

	// SourceFile is the filename the source is copied-in as.
	SourceFile string

	// ExecFile is the filename the compiled artifact is copied-out as
	// (interpreted languages use the same name as SourceFile and an empty
	// CompileArgv).
	ExecFile string
}

// CompileEnabled reports whether this language has a compile step at all
// (interpreted languages skip straight to Run).
func (s Spec) CompileEnabled() bool {
	return len(s.CompileArgv) > 0
}

func substitute(tpl []string, src, exe string) []string {
	out := make([]string, len(tpl))
	for i, tok := range tpl {
		tok = strings.ReplaceAll(tok, placeholderSource, src)
		tok = strings.ReplaceAll(tok, placeholderExec, exe)
		out[i] = tok
	}
	return out
}

// BuildCompileArgv substitutes {src}/{exe} and appends extraArgv.
func (s Spec) BuildCompileArgv(extraArgv []string) []string {
	argv := substitute(s.CompileArgv, s.SourceFile, s.ExecFile)
	return append(argv, extraArgv...)
}

// BuildRunArgv substitutes {src}/{exe} and appends extraArgv.
func (s Spec) BuildRunArgv(extraArgv []string) []string {
	argv := substitute(s.RunArgv, s.SourceFile, s.ExecFile)
	return append(argv, extraArgv...)
}

// ParseArgv tokenizes a single config-file command line (honoring shell
// quoting) into an argv template, e.g. `"g++ -O2 -o {exe} {src}"`.
func ParseArgv(line string) ([]string, error) {
	argv, err := shlex.Split(line)
	if err != nil {
		return nil, judgeerr.Wrapf(err, judgeerr.InvalidParams, "parse argv template %q", line)
	}
	return argv, nil
}

// Table is an immutable, process-wide, read-only-after-init set of
// language definitions (spec §5 "Language Table ... process-wide,
// read-only after init").
type Table struct {
	byName map[string]Spec
}

// NewTable builds a Table from specs, indexed by Name. Later entries with a
// duplicate name overwrite earlier ones — callers own de-duplication at
// config-load time.
func NewTable(specs ...Spec) *Table {
	t := &Table{byName: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		t.byName[s.Name] = s
	}
	return t
}

// Lookup resolves a language by name. An unknown name is InvalidLang (spec
// §3: "unknown name is a typed error").
func (t *Table) Lookup(name string) (Spec, error) {
	spec, ok := t.byName[name]
	if !ok {
		return Spec{}, judgeerr.Newf(judgeerr.InvalidLang, "unknown language %q", name).WithDetail("name", name)
	}
	return spec, nil
}
