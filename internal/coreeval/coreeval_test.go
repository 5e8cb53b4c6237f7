package coreeval

import (
	"testing"

	"github.com/lispc-lang/lispc/internal/coreir"
	"github.com/lispc-lang/lispc/internal/env"
)

func TestEvalLit(t *testing.T) {
	ev := New(env.NewRegistry())
	v, err := ev.Eval(coreir.Lit{Kind: coreir.LitInt, Value: int64(1)}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != int64(1) {
		t.Fatalf("expected 1, got %v", v)
	}
}

func TestEvalDefThenVarRead(t *testing.T) {
	ev := New(env.NewRegistry())
	def := coreir.Def{Ns: "user", Name: "x", Init: coreir.Lit{Kind: coreir.LitInt, Value: int64(1)}}
	if _, err := ev.Eval(def, nil); err != nil {
		t.Fatalf("unexpected error evaluating def: %v", err)
	}
	v, err := ev.Eval(coreir.Var{Name: "user/x"}, nil)
	if err != nil {
		t.Fatalf("unexpected error reading back var: %v", err)
	}
	if v != int64(1) {
		t.Fatalf("expected 1, got %v", v)
	}
	root, ok := ev.Reg.Intern("user", "x").Get()
	if !ok || root != int64(1) {
		t.Fatalf("expected var root to be set to 1, got %v (ok=%v)", root, ok)
	}
}

func TestEvalDoReturnsLastStmt(t *testing.T) {
	ev := New(env.NewRegistry())
	do := coreir.Do{Stmts: []coreir.Expr{
		coreir.Lit{Kind: coreir.LitInt, Value: int64(1)},
		coreir.Lit{Kind: coreir.LitInt, Value: int64(2)},
	}}
	v, err := ev.Eval(do, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != int64(2) {
		t.Fatalf("expected 2, got %v", v)
	}
}

func TestEvalIfTruthy(t *testing.T) {
	ev := New(env.NewRegistry())
	n := coreir.If{
		Cond: coreir.Lit{Kind: coreir.LitBool, Value: true},
		Then: coreir.Lit{Kind: coreir.LitInt, Value: int64(1)},
		Else: coreir.Lit{Kind: coreir.LitInt, Value: int64(2)},
	}
	v, err := ev.Eval(n, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != int64(1) {
		t.Fatalf("expected 1, got %v", v)
	}
}

func TestApplyClosure(t *testing.T) {
	ev := New(env.NewRegistry())
	lambda := coreir.Lambda{Params: []string{"a"}, Body: coreir.Var{Name: "a"}}
	fn, err := ev.Eval(lambda, nil)
	if err != nil {
		t.Fatalf("unexpected error building closure: %v", err)
	}
	v, err := ev.apply(fn, []Value{int64(5)})
	if err != nil {
		t.Fatalf("unexpected error applying closure: %v", err)
	}
	if v != int64(5) {
		t.Fatalf("expected 5, got %v", v)
	}
}

func TestEvalTryCatchesThrow(t *testing.T) {
	ev := New(env.NewRegistry())
	try := coreir.Try{
		Body: coreir.Throw{Expr: coreir.Record{Type: "Boom", Fields: nil}},
		Catches: []coreir.CatchClause{
			{ClassName: "Boom", BindName: "e", Body: coreir.Lit{Kind: coreir.LitInt, Value: int64(42)}},
		},
	}
	v, err := ev.Eval(try, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != int64(42) {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestEvalMatchTaggedRecord(t *testing.T) {
	ev := New(env.NewRegistry())
	m := coreir.Match{
		Scrutinee: coreir.Record{Type: "Square", Fields: []coreir.RecordField{
			{Name: "side", Val: coreir.Lit{Kind: coreir.LitInt, Value: int64(3)}},
		}},
		Arms: []coreir.MatchArm{
			{Pattern: coreir.Pattern{Kind: coreir.PatTaggedRecord, Name: "Square"}, Body: coreir.Lit{Kind: coreir.LitInt, Value: int64(1)}},
			{Pattern: coreir.Pattern{Kind: coreir.PatWildcard}, Body: coreir.Lit{Kind: coreir.LitInt, Value: int64(0)}},
		},
	}
	v, err := ev.Eval(m, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != int64(1) {
		t.Fatalf("expected 1, got %v", v)
	}
}
