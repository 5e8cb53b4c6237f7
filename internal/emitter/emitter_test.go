package emitter

import (
	"strings"
	"testing"

	"github.com/lispc-lang/lispc/internal/analyzer"
	"github.com/lispc-lang/lispc/internal/cerrs"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/modctx"
	"github.com/lispc-lang/lispc/internal/reader"
)

func TestEmitDefAndFlush(t *testing.T) {
	reg := env.NewRegistry()
	analyzer.BootstrapCoreMacros(reg)
	a := analyzer.New(reg, cerrs.NewReport())
	e := env.NewRoot(reg, "user")
	ctx := modctx.New()
	em := New(ctx)

	form, _ := reader.ReadOne(strings.NewReader("(def x 10)"), reader.DefaultOpts("t.clj"))
	node, _, err := a.Analyze(form, e)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if err := em.EmitTopLevel(node, "user"); err != nil {
		t.Fatalf("emit: %v", err)
	}
	modules := ctx.Flush()
	if len(modules) != 1 {
		t.Fatalf("expected exactly one module, got %d", len(modules))
	}
	if len(modules[0].Functions) != 1 || modules[0].Functions[0].Name != "x" {
		t.Fatalf("expected function x registered, got %v", modules[0].Functions)
	}
}

func TestEmitFnInvoke(t *testing.T) {
	reg := env.NewRegistry()
	analyzer.BootstrapCoreMacros(reg)
	rep := cerrs.NewReport()
	a := analyzer.New(reg, rep)
	e := env.NewRoot(reg, "user")
	ctx := modctx.New()
	em := New(ctx)

	defForm, _ := reader.ReadOne(strings.NewReader("(def id (fn* [x] x))"), reader.DefaultOpts("t.clj"))
	node, e2, err := a.Analyze(defForm, e)
	if err != nil {
		t.Fatalf("analyze def: %v", err)
	}
	if err := em.EmitTopLevel(node, "user"); err != nil {
		t.Fatalf("emit def: %v", err)
	}

	invokeForm, _ := reader.ReadOne(strings.NewReader("(id 5)"), reader.DefaultOpts("t.clj"))
	invNode, _, err := a.Analyze(invokeForm, e2)
	if err != nil {
		t.Fatalf("analyze invoke: %v", err)
	}
	expr, err := em.emitExpr(invNode)
	if err != nil {
		t.Fatalf("emit invoke: %v", err)
	}
	if expr.String() == "" {
		t.Fatalf("expected non-empty rendering")
	}
}

func TestEmitLoopRecurUsesTailCall(t *testing.T) {
	reg := env.NewRegistry()
	analyzer.BootstrapCoreMacros(reg)
	a := analyzer.New(reg, cerrs.NewReport())
	e := env.NewRoot(reg, "user")
	ctx := modctx.New()
	em := New(ctx)

	form, _ := reader.ReadOne(strings.NewReader("(loop* [x 0] (if x x (recur x)))"), reader.DefaultOpts("t.clj"))
	node, _, err := a.Analyze(form, e)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	_, err = em.emitExpr(node)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
}
