// Package hostvm is the thin interface boundary to the host VM's
// bytecode assembler and loader — both named as explicit external
// collaborators ("The host VM bytecode assembler and loader, consumed
// via assemble(core_ir) -> bytecode and load(name, bytecode)"), not
// something this module implements. It carries only the Assembler/
// Loader contracts, the compile-path/in-memory bytecode-store logic
// §6 describes, and a fake in-memory implementation of both used
// by driver tests and by cmd/lispc. Grounded on a module loader and linker pairing that
// plays the same "interface over an otherwise-external concern" role
// for a different module format.
package hostvm

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lispc-lang/lispc/internal/cerrs"
	"github.com/lispc-lang/lispc/internal/coreir"
)

// AssembleOptions configures Assembler.Assemble, matching §6's
// `{from_core, binary, return_errors, return_warnings, source=filename}`.
type AssembleOptions struct {
	FromCore       bool
	Binary         bool
	ReturnErrors   bool
	ReturnWarnings bool
	Source         string
}

// AssembleResult is assemble's output: bytecode plus any errors/warnings
// the caller asked to have returned (ReturnErrors/ReturnWarnings) rather
// than surfaced as a Go error.
type AssembleResult struct {
	Bytecode []byte
	Errors   []*cerrs.Diag
	Warnings []*cerrs.Diag
}

// Assembler turns one finalized Core IR module into bytecode. "The
// assembler's errors surface unchanged as kind AssemblyFailed" when not
// requested back via ReturnErrors.
type Assembler interface {
	Assemble(mod *coreir.Module, opts AssembleOptions) (*AssembleResult, error)
}

// Loader loads previously assembled bytecode into the host VM under
// moduleName, given the path or in-memory key a BytecodeStore produced
// (§6 `load(module_name, bytecode_path) -> ok | Error`).
type Loader interface {
	Load(moduleName, bytecodePath string) error
}

// BytecodeStore implements §6's "the compiler writes the bytecode
// to a configured compile path ... only when a runtime flag
// *compile-files* is true; otherwise it stashes the bytecode in memory
// keyed by module name." Protocol-implementation modules use
// compile_protocols_path, falling back to compile_path with a warning
// if unset.
type BytecodeStore struct {
	CompileFiles         bool
	CompilePath          string
	CompileProtocolsPath string

	memory map[string][]byte
}

func NewBytecodeStore(compileFiles bool, compilePath, compileProtocolsPath string) *BytecodeStore {
	return &BytecodeStore{
		CompileFiles:         compileFiles,
		CompilePath:          compilePath,
		CompileProtocolsPath: compileProtocolsPath,
		memory:               map[string][]byte{},
	}
}

// Store persists bytecode for moduleName and returns the path or
// in-memory key Loader.Load should be handed. isProtocol selects
// compile_protocols_path over compile_path.
func (s *BytecodeStore) Store(moduleName string, bytecode []byte, isProtocol bool) (path string, warning string, err error) {
	if !s.CompileFiles {
		s.memory[moduleName] = bytecode
		return moduleName, "", nil
	}
	dir := s.CompilePath
	if isProtocol {
		if s.CompileProtocolsPath != "" {
			dir = s.CompileProtocolsPath
		} else {
			warning = "compile_protocols_path unset, falling back to compile_path"
		}
	}
	if dir == "" {
		return "", warning, cerrs.New(cerrs.KindCompilePathUnset, cerrs.LD003, cerrs.Pos{}, "compile_path is unset")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", warning, fmt.Errorf("create compile dir: %w", err)
	}
	p := filepath.Join(dir, moduleName+".beam")
	if err := os.WriteFile(p, bytecode, 0o644); err != nil {
		return "", warning, fmt.Errorf("write bytecode: %w", err)
	}
	return p, warning, nil
}

// Memory returns bytecode previously Store()d in-memory for moduleName.
func (s *BytecodeStore) Memory(moduleName string) ([]byte, bool) {
	b, ok := s.memory[moduleName]
	return b, ok
}

// FakeAssembler is the in-memory stand-in for the real bytecode
// assembler, used by driver tests and by cmd/lispc; it renders a module's functions
// to a deterministic textual form rather than producing real machine
// code, which is enough to exercise the assemble/load/evaluate wiring
// without a host VM attached.
type FakeAssembler struct{}

func (FakeAssembler) Assemble(mod *coreir.Module, opts AssembleOptions) (*AssembleResult, error) {
	if mod == nil {
		d := cerrs.New(cerrs.KindAssemblyFailed, cerrs.LD001, cerrs.Pos{}, "nil module")
		if opts.ReturnErrors {
			return &AssembleResult{Errors: []*cerrs.Diag{d}}, nil
		}
		return nil, d
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "module %s\n", mod.Name)
	for _, fn := range mod.Functions {
		fmt.Fprintf(&buf, "fn %s = %s\n", fn.Name, fn.Fn.String())
	}
	if mod.OnLoad != nil {
		fmt.Fprintf(&buf, "on_load = %s\n", mod.OnLoad.String())
	}
	return &AssembleResult{Bytecode: buf.Bytes()}, nil
}

// FakeLoader is an in-memory Loader: it resolves bytecodePath against a
// BytecodeStore's in-memory stash first, falling back to a real file
// read so the same Loader works whether *compile-files* is on or off.
type FakeLoader struct {
	store  *BytecodeStore
	Loaded map[string][]byte
}

func NewFakeLoader(store *BytecodeStore) *FakeLoader {
	return &FakeLoader{store: store, Loaded: map[string][]byte{}}
}

func (f *FakeLoader) Load(moduleName, bytecodePath string) error {
	if b, ok := f.store.Memory(bytecodePath); ok {
		f.Loaded[moduleName] = b
		return nil
	}
	b, err := os.ReadFile(bytecodePath)
	if err != nil {
		return cerrs.New(cerrs.KindLoadFailed, cerrs.LD002, cerrs.Pos{}, "%s", err.Error())
	}
	f.Loaded[moduleName] = b
	return nil
}
