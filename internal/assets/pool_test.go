package assets

import (
	"context"
	"testing"
	"testing/fstest"

	judgeerr "judgecore/pkg/errors"
)

func TestFSPool_Get(t *testing.T) {
	fsys := fstest.MapFS{"testlib.h": {Data: []byte("// testlib header")}}
	p := NewFSPool(fsys)
	got, err := p.Get(context.Background(), "testlib.h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "// testlib header" {
		t.Fatalf("got %q", got)
	}
}

func TestFSPool_Get_Missing(t *testing.T) {
	p := NewFSPool(fstest.MapFS{})
	_, err := p.Get(context.Background(), "nope.h")
	if judgeerr.GetCode(err) != judgeerr.FileNotFound {
		t.Fatalf("got %v, want FileNotFound", err)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry(map[string]Pool{
		"checkers": NewFSPool(fstest.MapFS{"ncmp.cpp": {Data: []byte("src")}}),
	})
	got, err := reg.Resolve(context.Background(), "checkers", "ncmp.cpp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "src" {
		t.Fatalf("got %q", got)
	}
}

func TestRegistry_Resolve_UnknownPool(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Resolve(context.Background(), "missing", "x")
	if judgeerr.GetCode(err) != judgeerr.FileNotFound {
		t.Fatalf("got %v, want FileNotFound", err)
	}
}
