package proto

import (
	"strings"
	"testing"

	"github.com/lispc-lang/lispc/internal/cerrs"
	"github.com/lispc-lang/lispc/internal/coreir"
	"github.com/lispc-lang/lispc/internal/modctx"
)

func TestCompileIntoOrdersPrimitivesThenRecordsThenDefault(t *testing.T) {
	r := NewRegistry()
	r.DefineProtocol("Shape", []MethodSig{{Name: "area", Arity: 1}})
	if err := r.AddImpl("Shape", "string", true, map[string]string{"area": "string__Shape__area"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.AddImpl("Shape", "Square", false, map[string]string{"area": "Square__Shape__area"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.AddImpl("Shape", "integer", true, map[string]string{"area": "integer__Shape__area"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := modctx.New()
	r.CompileInto(ctx, "Shape")
	mod, ok := ctx.FlushOne("Shape")
	if !ok {
		t.Fatalf("expected Shape module to have been registered")
	}
	if len(mod.Functions) != 1 || mod.Functions[0].Name != "area" {
		t.Fatalf("expected one area function, got %v", mod.Functions)
	}
	rendered := mod.Functions[0].Fn.String()
	// integer (primitive index 2) must precede string (index 8), and
	// both primitives must precede the tagged record Square.
	iIdx := strings.Index(rendered, "integer__Shape__area")
	sIdx := strings.Index(rendered, "string__Shape__area")
	qIdx := strings.Index(rendered, "Square__Shape__area")
	if iIdx == -1 || sIdx == -1 || qIdx == -1 {
		t.Fatalf("expected all three impls to appear in rendering: %s", rendered)
	}
	if !(iIdx < sIdx && sIdx < qIdx) {
		t.Fatalf("expected integer < string < Square ordering, got rendering: %s", rendered)
	}
}

func TestCompileIntoEmitsNotImplementedDefault(t *testing.T) {
	r := NewRegistry()
	r.DefineProtocol("Shape", []MethodSig{{Name: "area", Arity: 1}})
	ctx := modctx.New()
	r.CompileInto(ctx, "Shape")
	mod, _ := ctx.FlushOne("Shape")
	rendered := mod.Functions[0].Fn.String()
	if !strings.Contains(rendered, "NotImplemented") {
		t.Fatalf("expected a NotImplemented default arm, got %s", rendered)
	}
}

func TestCompileMethodEmitsUntaggedRecordArmBeforeCatchAll(t *testing.T) {
	impls := []*Impl{
		{TypeName: "integer", IsPrimitive: true, MethodFns: map[string]string{"area": "integer__Shape__area"}},
		{TypeName: "Square", IsPrimitive: false, MethodFns: map[string]string{"area": "Square__Shape__area"}},
	}
	sw := buildSwitch("Shape", "area", impls)
	lambda := compileMethod(MethodSig{Name: "area", Arity: 1}, sw)
	match := lambda.Body.(coreir.Match)

	// m (2 known impls) + primitive/record cases already folded into m +
	// one untagged-record arm + one true catch-all == len(sw.Cases)+2.
	if len(match.Arms) != len(sw.Cases)+2 {
		t.Fatalf("expected %d arms, got %d", len(sw.Cases)+2, len(match.Arms))
	}
	untagged := match.Arms[len(match.Arms)-2]
	catchAll := match.Arms[len(match.Arms)-1]
	if untagged.Pattern.Kind != coreir.PatAnyRecord {
		t.Fatalf("expected the second-to-last arm to match untagged records, got %v", untagged.Pattern.Kind)
	}
	if catchAll.Pattern.Kind != coreir.PatWildcard {
		t.Fatalf("expected the final arm to be a true catch-all, got %v", catchAll.Pattern.Kind)
	}
}

func TestAddImplDuplicateIsPR002(t *testing.T) {
	r := NewRegistry()
	r.DefineProtocol("Shape", []MethodSig{{Name: "area", Arity: 1}})
	if err := r.AddImpl("Shape", "Square", false, map[string]string{"area": "Square__Shape__area"}); err != nil {
		t.Fatalf("unexpected error on first impl: %v", err)
	}
	err := r.AddImpl("Shape", "Square", false, map[string]string{"area": "Square__Shape__area2"})
	if err == nil {
		t.Fatalf("expected duplicate implementation error")
	}
	d, ok := err.(*cerrs.Diag)
	if !ok || d.Code != cerrs.PR002 {
		t.Fatalf("expected PR002, got %v", err)
	}
}

func TestExtendTypeReemitsStableModuleIdentity(t *testing.T) {
	r := NewRegistry()
	r.DefineProtocol("Shape", []MethodSig{{Name: "area", Arity: 1}})
	ctx := modctx.New()

	if err := r.AddImpl("Shape", "Square", false, map[string]string{"area": "Square__Shape__area"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.CompileInto(ctx, "Shape")
	first, ok := ctx.FlushOne("Shape")
	if !ok {
		t.Fatalf("expected Shape module after first CompileInto")
	}
	if first.Name != "Shape" {
		t.Fatalf("expected module named Shape, got %s", first.Name)
	}

	if err := r.AddImpl("Shape", "Circle", false, map[string]string{"area": "Circle__Shape__area"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.CompileInto(ctx, "Shape")
	second, ok := ctx.FlushOne("Shape")
	if !ok {
		t.Fatalf("expected Shape module after extend-type re-emission")
	}
	if second.Name != first.Name {
		t.Fatalf("expected stable module identity across re-emission")
	}
	rendered := second.Functions[0].Fn.String()
	if !strings.Contains(rendered, "Square__Shape__area") || !strings.Contains(rendered, "Circle__Shape__area") {
		t.Fatalf("expected both Square and Circle arms after extend-type, got %s", rendered)
	}
}

func TestSatisfiesAndExtenders(t *testing.T) {
	r := NewRegistry()
	r.DefineProtocol("Shape", nil)
	_ = r.AddImpl("Shape", "Square", false, map[string]string{})
	_ = r.AddImpl("Shape", "integer", true, map[string]string{})

	extenders := r.Extenders("Shape")
	if len(extenders) != 2 {
		t.Fatalf("expected 2 extenders, got %v", extenders)
	}
	if !r.Satisfies("Shape", "Square") || !r.Satisfies("Shape", "integer") {
		t.Fatalf("expected Square and integer to satisfy Shape")
	}
	if r.Satisfies("Shape", "Circle") {
		t.Fatalf("expected Circle not to satisfy Shape")
	}

	ctx := modctx.New()
	r.CompileSatisfies(ctx, "Shape")
	mod, ok := ctx.FlushOne("Shape")
	if !ok || len(mod.Functions) != 1 || mod.Functions[0].Name != "satisfies?" {
		t.Fatalf("expected a satisfies? function, got %v", mod)
	}
}
