package analyzer

import (
	"github.com/lispc-lang/lispc/internal/ast"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/rval"
)

// bindingPairs extracts a `let*`/`loop*`/`letfn*` binding vector's
// (symbol, init) pairs; the vector must have an even element count.
func bindingPairs(a *Analyzer, l *rval.List, v *rval.Vector) ([][2]rval.Value, error) {
	if len(v.Items)%2 != 0 {
		return nil, badForm(a, l, "binding vector must have an even number of forms")
	}
	var pairs [][2]rval.Value
	for i := 0; i < len(v.Items); i += 2 {
		pairs = append(pairs, [2]rval.Value{v.Items[i], v.Items[i+1]})
	}
	return pairs, nil
}

func analyzeLet(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) < 2 {
		return nil, e, badForm(a, l, "let* requires a binding vector")
	}
	v, ok := l.Items[1].(*rval.Vector)
	if !ok {
		return nil, e, badForm(a, l, "let* requires a binding vector")
	}
	pairs, err := bindingPairs(a, l, v)
	if err != nil {
		return nil, e, err
	}
	cur := e.WithTailPosition(false)
	var bindings []*ast.Binding
	for _, p := range pairs {
		s, ok := p[0].(*rval.Symbol)
		if !ok {
			return nil, e, badForm(a, l, "let* binding name must be a symbol")
		}
		initNode, nextEnv, err := a.Analyze(p[1], cur)
		if err != nil {
			return nil, e, err
		}
		var lb *env.LocalBinding
		cur, lb = nextEnv.BindLocal(s.Name, env.KindLet, false)
		bindings = append(bindings, &ast.Binding{
			Base:  ast.NewBase(ast.OpBinding, cur, p[0], nil),
			Name:  s.Name,
			Local: lb,
			Init:  initNode,
		})
	}
	body, _, err := a.analyzeBody(l.Items[2:], cur.WithTailPosition(e.InTailPosition()))
	if err != nil {
		return nil, e, err
	}
	return ast.Let{Base: ast.NewBase(ast.OpLet, e, l, nil), Bindings: bindings, Body: body}, e, nil
}

// analyzeLoop lowers `loop*`: identical binding shape to `let*`, but the
// body executes with a fresh recur target whose arity is the binding
// count (§4.2: "recur" may only appear in tail position relative to
// its enclosing loop*/fn_method).
func analyzeLoop(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) < 2 {
		return nil, e, badForm(a, l, "loop* requires a binding vector")
	}
	v, ok := l.Items[1].(*rval.Vector)
	if !ok {
		return nil, e, badForm(a, l, "loop* requires a binding vector")
	}
	pairs, err := bindingPairs(a, l, v)
	if err != nil {
		return nil, e, err
	}
	cur := e.WithTailPosition(false)
	var bindings []*ast.Binding
	for _, p := range pairs {
		s, ok := p[0].(*rval.Symbol)
		if !ok {
			return nil, e, badForm(a, l, "loop* binding name must be a symbol")
		}
		initNode, nextEnv, err := a.Analyze(p[1], cur)
		if err != nil {
			return nil, e, err
		}
		var lb *env.LocalBinding
		cur, lb = nextEnv.BindLocal(s.Name, env.KindLoop, false)
		bindings = append(bindings, &ast.Binding{
			Base:  ast.NewBase(ast.OpBinding, cur, p[0], nil),
			Name:  s.Name,
			Local: lb,
			Init:  initNode,
		})
	}
	loopID := a.freshLoopID()
	loopEnv := cur.WithLoopTarget(loopID, len(bindings)).WithTailPosition(true)
	body, _, err := a.analyzeBody(l.Items[2:], loopEnv)
	if err != nil {
		return nil, e, err
	}
	return ast.Loop{Base: ast.NewBase(ast.OpLoop, e, l, nil), Bindings: bindings, Body: body, LoopID: loopID}, e, nil
}

// analyzeRecur validates the two invariants §4.2 calls out: it must
// be in tail position, and its argument count must match its target's
// established arity exactly.
func analyzeRecur(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if !e.InTailPosition() {
		d := newRecurNotInTailPos(toCerrsPos(l.Pos), "recur must be in tail position")
		a.Report.AddError(d)
		return nil, e, d
	}
	target, ok := e.LoopTarget()
	if !ok {
		d := newRecurNotInTailPos(toCerrsPos(l.Pos), "recur used outside any loop*/fn* target")
		a.Report.AddError(d)
		return nil, e, d
	}
	exprs := make([]ast.Node, 0, len(l.Items)-1)
	cur := e.WithTailPosition(false)
	for _, it := range l.Items[1:] {
		n, nextEnv, err := a.Analyze(it, cur)
		if err != nil {
			return nil, e, err
		}
		exprs = append(exprs, n)
		cur = nextEnv
	}
	if len(exprs) != target.Arity {
		d := newRecurArityMismatch(toCerrsPos(l.Pos), "recur argument count does not match its loop target's arity")
		a.Report.AddError(d)
		return nil, e, d
	}
	return ast.Recur{Base: ast.NewBase(ast.OpRecur, e, l, nil), Exprs: exprs, LoopID: target.ID}, e, nil
}

// analyzeLetFn lowers `letfn*`: every binding's init must be an `fn*` form
// and all bindings are visible to every init (mutual recursion), so names
// are bound before any init is analyzed.
func analyzeLetFn(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) < 2 {
		return nil, e, badForm(a, l, "letfn* requires a binding vector")
	}
	v, ok := l.Items[1].(*rval.Vector)
	if !ok {
		return nil, e, badForm(a, l, "letfn* requires a binding vector")
	}
	pairs, err := bindingPairs(a, l, v)
	if err != nil {
		return nil, e, err
	}
	cur := e
	locals := make([]*env.LocalBinding, 0, len(pairs))
	names := make([]string, 0, len(pairs))
	for _, p := range pairs {
		s, ok := p[0].(*rval.Symbol)
		if !ok {
			return nil, e, badForm(a, l, "letfn* binding name must be a symbol")
		}
		var lb *env.LocalBinding
		cur, lb = cur.BindLocal(s.Name, env.KindLet, false)
		locals = append(locals, lb)
		names = append(names, s.Name)
	}
	var bindings []*ast.Binding
	for i, p := range pairs {
		initNode, nextEnv, err := a.Analyze(p[1], cur.WithTailPosition(false))
		if err != nil {
			return nil, e, err
		}
		cur = nextEnv
		bindings = append(bindings, &ast.Binding{
			Base:  ast.NewBase(ast.OpBinding, cur, p[0], nil),
			Name:  names[i],
			Local: locals[i],
			Init:  initNode,
		})
	}
	body, _, err := a.analyzeBody(l.Items[2:], cur.WithTailPosition(e.InTailPosition()))
	if err != nil {
		return nil, e, err
	}
	return ast.LetFn{Base: ast.NewBase(ast.OpLetFn, e, l, nil), Bindings: bindings, Body: body}, e, nil
}
