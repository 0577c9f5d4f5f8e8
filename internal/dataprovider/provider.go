// Package dataprovider implements the Data Provider (spec §4.1): a small
// tagged variant standing for "bytes that can be materialised on demand",
// either inline or borrowed from a Builtin Asset Pool. Grounded on
// `crates/judge/src/problem/input.rs`'s `Input` enum — the same
// generated-vs-plain-text shape, narrowed to the spec's Memory/Builtin
// split since generator wiring belongs to the Primitive Operations
// package, not here.
package dataprovider

import (
	"context"
	"fmt"
	"strings"

	"judgecore/internal/assets"
	judgeerr "judgecore/pkg/errors"
)

// kind discriminates the tagged variant.
type kind int

const (
	kindMemory kind = iota
	kindBuiltin
)

// Provider is a tagged {Memory(bytes) | Builtin(pool, path)} value (spec
// §4.1). The zero value is an empty Memory provider.
type Provider struct {
	kind  kind
	bytes []byte
	pool  string
	path  string
}

// Memory wraps inline bytes as a Provider.
func Memory(b []byte) Provider {
	return Provider{kind: kindMemory, bytes: b}
}

// Builtin references path within the named asset pool.
func Builtin(pool, path string) Provider {
	return Provider{kind: kindBuiltin, pool: pool, path: path}
}

// IsBuiltin reports whether this Provider borrows from an asset pool
// rather than carrying bytes inline.
func (p Provider) IsBuiltin() bool {
	return p.kind == kindBuiltin
}

// Materialize resolves the Provider to bytes, fetching from registry when
// this is a Builtin provider.
func (p Provider) Materialize(ctx context.Context, registry *assets.Registry) ([]byte, error) {
	switch p.kind {
	case kindMemory:
		return p.bytes, nil
	case kindBuiltin:
		if registry == nil {
			return nil, judgeerr.Newf(judgeerr.InvalidParams, "builtin provider %s:%s requires an asset registry", p.pool, p.path)
		}
		return registry.Resolve(ctx, p.pool, p.path)
	default:
		return nil, judgeerr.New(judgeerr.InvalidParams).WithMessage("unknown data provider kind")
	}
}

// MarshalText implements encoding.TextMarshaler per spec §6: a Builtin
// provider serialises as a "pool:path" string, Memory as raw bytes
// (handled by callers that know they're writing a byte field, not this
// method — MarshalText only ever applies to the tagged-string form).
func (p Provider) MarshalText() ([]byte, error) {
	if p.kind != kindBuiltin {
		return nil, judgeerr.New(judgeerr.InvalidParams).WithMessage("only Builtin providers serialise as pool:path text")
	}
	return []byte(fmt.Sprintf("%s:%s", p.pool, p.path)), nil
}

// ParseBuiltinRef parses a "pool:path" string into a Builtin Provider.
func ParseBuiltinRef(ref string) (Provider, error) {
	pool, path, ok := strings.Cut(ref, ":")
	if !ok {
		return Provider{}, judgeerr.Newf(judgeerr.InvalidParams, "malformed builtin reference %q, want pool:path", ref)
	}
	return Builtin(pool, path), nil
}
