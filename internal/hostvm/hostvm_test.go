package hostvm

import (
	"path/filepath"
	"testing"

	"github.com/lispc-lang/lispc/internal/coreir"
)

func TestFakeAssemblerRendersModule(t *testing.T) {
	mod := &coreir.Module{
		Name: "user",
		Functions: []coreir.Func{
			{Name: "x", Fn: &coreir.Lambda{Body: coreir.Lit{Kind: coreir.LitInt, Value: 10}}},
		},
	}
	res, err := (FakeAssembler{}).Assemble(mod, AssembleOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Bytecode) == 0 {
		t.Fatalf("expected non-empty bytecode")
	}
}

func TestAssembleNilModuleReturnsErrorsWhenRequested(t *testing.T) {
	res, err := (FakeAssembler{}).Assemble(nil, AssembleOptions{ReturnErrors: true})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one returned error, got %v", res.Errors)
	}
}

func TestAssembleNilModuleSurfacesErrorByDefault(t *testing.T) {
	_, err := (FakeAssembler{}).Assemble(nil, AssembleOptions{})
	if err == nil {
		t.Fatalf("expected AssemblyFailed error")
	}
}

func TestBytecodeStoreInMemoryByDefault(t *testing.T) {
	store := NewBytecodeStore(false, "", "")
	key, warn, err := store.Store("user", []byte("bytes"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warn != "" {
		t.Fatalf("expected no warning, got %q", warn)
	}
	if key != "user" {
		t.Fatalf("expected in-memory key to be the module name, got %s", key)
	}
	b, ok := store.Memory("user")
	if !ok || string(b) != "bytes" {
		t.Fatalf("expected bytecode stashed in memory")
	}
}

func TestBytecodeStoreWritesFileWhenCompileFilesSet(t *testing.T) {
	dir := t.TempDir()
	store := NewBytecodeStore(true, dir, "")
	path, _, err := store.Store("user", []byte("bytes"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("expected file under %s, got %s", dir, path)
	}
}

func TestBytecodeStoreProtocolFallsBackToCompilePathWithWarning(t *testing.T) {
	dir := t.TempDir()
	store := NewBytecodeStore(true, dir, "")
	path, warn, err := store.Store("Shape", []byte("bytes"), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warn == "" {
		t.Fatalf("expected a fallback warning")
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("expected fallback to compile_path, got %s", path)
	}
}

func TestBytecodeStoreUnsetCompilePathIsLD003(t *testing.T) {
	store := NewBytecodeStore(true, "", "")
	_, _, err := store.Store("user", []byte("bytes"), false)
	if err == nil {
		t.Fatalf("expected compile-path-unset error")
	}
}

func TestFakeLoaderRoundTripsInMemory(t *testing.T) {
	store := NewBytecodeStore(false, "", "")
	key, _, _ := store.Store("user", []byte("bytes"), false)
	loader := NewFakeLoader(store)
	if err := loader.Load("user", key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(loader.Loaded["user"]) != "bytes" {
		t.Fatalf("expected loaded bytecode to round-trip")
	}
}
