package analyzer

import (
	"strings"
	"testing"

	"github.com/lispc-lang/lispc/internal/ast"
	"github.com/lispc-lang/lispc/internal/cerrs"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/reader"
)

func newTestAnalyzer() (*Analyzer, *env.Env) {
	reg := env.NewRegistry()
	BootstrapCoreMacros(reg)
	report := cerrs.NewReport()
	a := New(reg, report)
	e := env.NewRoot(reg, "user")
	return a, e
}

func TestAnalyzeConstant(t *testing.T) {
	a, e := newTestAnalyzer()
	form, err := reader.ReadOne(strings.NewReader("42"), reader.DefaultOpts("t.clj"))
	if err != nil {
		t.Fatal(err)
	}
	node, _, err := a.Analyze(form, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := node.(ast.Constant); !ok {
		t.Fatalf("expected ast.Constant, got %T", node)
	}
}

func TestAnalyzeIfAndDo(t *testing.T) {
	a, e := newTestAnalyzer()
	form, err := reader.ReadOne(strings.NewReader("(if true (do 1 2) 3)"), reader.DefaultOpts("t.clj"))
	if err != nil {
		t.Fatal(err)
	}
	node, _, err := a.Analyze(form, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ifNode, ok := node.(ast.If)
	if !ok {
		t.Fatalf("expected ast.If, got %T", node)
	}
	if _, ok := ifNode.Then.(ast.Do); !ok {
		t.Fatalf("expected Do as then-branch, got %T", ifNode.Then)
	}
}

func TestAnalyzeDefInternsVar(t *testing.T) {
	a, e := newTestAnalyzer()
	form, _ := reader.ReadOne(strings.NewReader("(def x 10)"), reader.DefaultOpts("t.clj"))
	node, _, err := a.Analyze(form, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defNode, ok := node.(ast.Def)
	if !ok {
		t.Fatalf("expected ast.Def, got %T", node)
	}
	if defNode.Var.Ns != "user" || defNode.Var.Name != "x" {
		t.Fatalf("expected var user/x, got %s/%s", defNode.Var.Ns, defNode.Var.Name)
	}
	if _, ok := e.Registry.Resolve("user", "", "x"); !ok {
		t.Fatalf("expected x to be resolvable after def")
	}
}

func TestAnalyzeUnresolvedSymbolErrors(t *testing.T) {
	a, e := newTestAnalyzer()
	form, _ := reader.ReadOne(strings.NewReader("nonexistent-sym"), reader.DefaultOpts("t.clj"))
	_, _, err := a.Analyze(form, e)
	if err == nil {
		t.Fatalf("expected unresolved symbol error")
	}
	d, ok := err.(*cerrs.Diag)
	if !ok || d.Code != cerrs.AN001 {
		t.Fatalf("expected AN001, got %v", err)
	}
}

func TestAnalyzeFnArityValidation(t *testing.T) {
	a, e := newTestAnalyzer()
	form, _ := reader.ReadOne(strings.NewReader("(fn* ([a] a) ([a] a))"), reader.DefaultOpts("t.clj"))
	_, _, err := a.Analyze(form, e)
	if err == nil {
		t.Fatalf("expected duplicate arity error")
	}
	d, ok := err.(*cerrs.Diag)
	if !ok || d.Code != cerrs.AN003 {
		t.Fatalf("expected AN003, got %v", err)
	}
}

func TestAnalyzeFnVariadicArityTooLow(t *testing.T) {
	a, e := newTestAnalyzer()
	form, _ := reader.ReadOne(strings.NewReader("(fn* ([a b c] a) ([a & more] a))"), reader.DefaultOpts("t.clj"))
	_, _, err := a.Analyze(form, e)
	if err == nil {
		t.Fatalf("expected invalid variadic arity error")
	}
	d, ok := err.(*cerrs.Diag)
	if !ok || d.Code != cerrs.AN005 {
		t.Fatalf("expected AN005, got %v", err)
	}
}

func TestAnalyzeLoopRecurArityMismatch(t *testing.T) {
	a, e := newTestAnalyzer()
	form, _ := reader.ReadOne(strings.NewReader("(loop* [x 0] (recur x x))"), reader.DefaultOpts("t.clj"))
	_, _, err := a.Analyze(form, e)
	if err == nil {
		t.Fatalf("expected recur arity mismatch error")
	}
	d, ok := err.(*cerrs.Diag)
	if !ok || d.Code != cerrs.AN006 {
		t.Fatalf("expected AN006, got %v", err)
	}
}

func TestAnalyzeRecurNotInTailPosition(t *testing.T) {
	a, e := newTestAnalyzer()
	form, _ := reader.ReadOne(strings.NewReader("(loop* [x 0] (do (recur x) 1))"), reader.DefaultOpts("t.clj"))
	_, _, err := a.Analyze(form, e)
	if err == nil {
		t.Fatalf("expected recur-not-in-tail-position error")
	}
	d, ok := err.(*cerrs.Diag)
	if !ok || d.Code != cerrs.AN007 {
		t.Fatalf("expected AN007, got %v", err)
	}
}

func TestAnalyzeRecurInTryBodyNotInTailPosition(t *testing.T) {
	a, e := newTestAnalyzer()
	src := "(loop* [x 0] (try (recur x) (catch Exception e nil)))"
	form, _ := reader.ReadOne(strings.NewReader(src), reader.DefaultOpts("t.clj"))
	_, _, err := a.Analyze(form, e)
	if err == nil {
		t.Fatalf("expected recur-not-in-tail-position error for a recur inside try's main body")
	}
	d, ok := err.(*cerrs.Diag)
	if !ok || d.Code != cerrs.AN007 {
		t.Fatalf("expected AN007, got %v", err)
	}
}

func TestWhenMacroExpansion(t *testing.T) {
	a, e := newTestAnalyzer()
	form, _ := reader.ReadOne(strings.NewReader("(when true 1 2)"), reader.DefaultOpts("t.clj"))
	node, _, err := a.Analyze(form, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := node.(ast.If); !ok {
		t.Fatalf("expected when to expand to ast.If, got %T", node)
	}
}

func TestThreadFirstMacroExpansion(t *testing.T) {
	a, e := newTestAnalyzer()
	e.Registry.Intern("user", "f")
	e.Registry.Intern("user", "g")
	form, _ := reader.ReadOne(strings.NewReader("(-> 1 (f 2) (g 3))"), reader.DefaultOpts("t.clj"))
	node, _, err := a.Analyze(form, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv, ok := node.(ast.Invoke)
	if !ok {
		t.Fatalf("expected ast.Invoke after thread-first expansion, got %T", node)
	}
	if len(inv.Args) != 2 {
		t.Fatalf("expected 2 args to outer g, got %d", len(inv.Args))
	}
}

func TestAnalyzeTopLevelFlattensDo(t *testing.T) {
	a, e := newTestAnalyzer()
	form, _ := reader.ReadOne(strings.NewReader("(do (def a 1) (def b 2))"), reader.DefaultOpts("t.clj"))
	nodes, _, err := a.AnalyzeTopLevel(form, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 flattened top-level nodes, got %d", len(nodes))
	}
}

func TestAnalyzeDefProtocolAndDefType(t *testing.T) {
	a, e := newTestAnalyzer()
	protoForm, _ := reader.ReadOne(strings.NewReader("(defprotocol Shape (area [this]))"), reader.DefaultOpts("t.clj"))
	_, e2, err := a.Analyze(protoForm, e)
	if err != nil {
		t.Fatalf("unexpected error defining protocol: %v", err)
	}
	typeForm, _ := reader.ReadOne(strings.NewReader("(deftype* Square [side] Shape (area [this] side))"), reader.DefaultOpts("t.clj"))
	node, _, err := a.Analyze(typeForm, e2)
	if err != nil {
		t.Fatalf("unexpected error defining type: %v", err)
	}
	dt, ok := node.(ast.DefType)
	if !ok {
		t.Fatalf("expected ast.DefType, got %T", node)
	}
	if len(dt.Methods) != 1 || dt.Methods[0].Method != "area" {
		t.Fatalf("expected one area method impl, got %v", dt.Methods)
	}
}
