package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lispc-lang/lispc/internal/config"
	"github.com/lispc-lang/lispc/internal/driver"
	"github.com/lispc-lang/lispc/internal/hostvm"
)

func newTestREPL() (*REPL, *driver.Driver) {
	store := hostvm.NewBytecodeStore(false, "", "")
	d := driver.New("user", hostvm.FakeAssembler{}, hostvm.NewFakeLoader(store), store)
	cfg := config.Default()
	return New(d, cfg, "test"), d
}

func TestEvalAndPrintRunsDriver(t *testing.T) {
	r, _ := newTestREPL()
	var out bytes.Buffer
	r.evalAndPrint("(def x 10)", &out)
	if !strings.Contains(out.String(), "10") {
		t.Fatalf("expected the evaluated result to be printed, got %q", out.String())
	}
}

func TestEvalAndPrintShowsCoreWhenEnabled(t *testing.T) {
	r, _ := newTestREPL()
	r.cfg.ShowCore = true
	var out bytes.Buffer
	r.evalAndPrint("(def x 10)", &out)
	if !strings.Contains(out.String(), "x") {
		t.Fatalf("expected Core IR dump to mention x, got %q", out.String())
	}
}

func TestEvalAndPrintReportsCompileError(t *testing.T) {
	r, _ := newTestREPL()
	var out bytes.Buffer
	r.evalAndPrint("(def x 10", &out)
	if !strings.Contains(out.String(), "Error") {
		t.Fatalf("expected an error to be printed, got %q", out.String())
	}
}

func TestHandleCommandHistoryAndClear(t *testing.T) {
	r, _ := newTestREPL()
	r.history = []string{"(def a 1)"}
	var out bytes.Buffer
	if r.handleCommand(":history", &out) {
		t.Fatalf(":history should not end the session")
	}
	if !strings.Contains(out.String(), "(def a 1)") {
		t.Fatalf("expected history to be printed, got %q", out.String())
	}
	r.handleCommand(":clear", &out)
	if len(r.history) != 0 {
		t.Fatalf("expected :clear to empty history")
	}
}

func TestHandleCommandQuitEndsSession(t *testing.T) {
	r, _ := newTestREPL()
	var out bytes.Buffer
	if !r.handleCommand(":quit", &out) {
		t.Fatalf(":quit should end the session")
	}
}
