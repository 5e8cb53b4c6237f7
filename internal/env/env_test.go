package env

import "testing"

func TestBindLocalShadowsOuter(t *testing.T) {
	reg := NewRegistry()
	e := NewRoot(reg, "ex")
	e, _ = e.BindLocal("x", KindLet, false)
	inner := e.PushFrame()
	inner, lb := inner.BindLocal("x", KindLet, false)
	if lb.Shadows == nil {
		t.Fatalf("expected shadow chain when re-binding in an inner frame... got none")
	}
	_ = inner
}

func TestLookupLocalInnermostFirst(t *testing.T) {
	reg := NewRegistry()
	e := NewRoot(reg, "ex")
	e, outer := e.BindLocal("x", KindArg, false)
	inner := e.PushFrame()
	inner, innerLB := inner.BindLocal("x", KindLet, false)
	lb, ok := inner.LookupLocal("x")
	if !ok || lb.ID != innerLB.ID {
		t.Fatalf("expected innermost binding to win")
	}
	if outer.ID == innerLB.ID {
		t.Fatalf("expected distinct binding ids")
	}
}

func TestRecurArityViaLoopTarget(t *testing.T) {
	reg := NewRegistry()
	e := NewRoot(reg, "ex")
	e = e.WithLoopTarget(1, 2)
	lt, ok := e.LoopTarget()
	if !ok || lt.Arity != 2 {
		t.Fatalf("expected loop target arity 2")
	}
}

func TestNamespaceMonotonicity(t *testing.T) {
	reg := NewRegistry()
	before := reg.InternedVarCount()
	reg.Intern("ex", "x")
	reg.Intern("ex", "y")
	reg.Intern("ex", "x") // re-intern, first-writer-wins
	after := reg.InternedVarCount()
	if after <= before {
		t.Fatalf("expected interned var count to strictly increase, before=%d after=%d", before, after)
	}
	if after != before+2 {
		t.Fatalf("expected exactly 2 new vars, got %d", after-before)
	}
}

func TestVarDynamicBindingStack(t *testing.T) {
	v := NewVar("ex", "*x*")
	v.IsDynamic = true
	v.SetRoot(1)
	got, _ := v.Get()
	if got != 1 {
		t.Fatalf("expected root value 1, got %v", got)
	}
	v.PushBinding(2)
	got, _ = v.Get()
	if got != 2 {
		t.Fatalf("expected dynamic binding 2, got %v", got)
	}
	v.PopBinding()
	got, _ = v.Get()
	if got != 1 {
		t.Fatalf("expected root value restored after pop, got %v", got)
	}
}

func TestVarSnapshotRestoreForTaskSpawn(t *testing.T) {
	v := NewVar("ex", "*x*")
	v.SetRoot(0)
	v.PushBinding(1)
	snap := v.Snapshot()
	v.PushBinding(2)
	// simulate a child task that only ever saw the snapshot
	child := NewVar("ex", "*x*")
	child.Restore(snap)
	got, _ := child.Get()
	if got != 1 {
		t.Fatalf("expected child to see snapshot value 1, got %v", got)
	}
}

func TestResolveAliasedNamespace(t *testing.T) {
	reg := NewRegistry()
	target := reg.EnsureNamespace("other.ns")
	target.Interns["foo"] = NewVar("other.ns", "foo")
	target.Mappings["foo"] = target.Interns["foo"]
	cur := reg.EnsureNamespace("ex")
	cur.Aliases["o"] = "other.ns"
	v, ok := reg.Resolve("ex", "o", "foo")
	if !ok || v.Name != "foo" {
		t.Fatalf("expected alias resolution to find other.ns/foo")
	}
}
