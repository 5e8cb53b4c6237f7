// Package analyzer macro-expands forms, resolves names against a layered
// lexical/namespace environment, and lowers each top-level form into the
// ~40-tag typed AST (§4.2). Grounded on a node-kind switch dispatcher
// that lowers a surface tree into a lower-level form, generalized from an
// ML-shaped surface syntax to Lisp forms, plus a declaration-level
// special-casing by leading keyword.
package analyzer

import (
	"github.com/lispc-lang/lispc/internal/ast"
	"github.com/lispc-lang/lispc/internal/cerrs"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/rval"
)

// HostEval lets the analyzer invoke a user-defined macro's compiled body.
// The driver supplies the concrete implementation once it can actually
// load and run compiled code; without one, only built-in macros expand.
type HostEval interface {
	InvokeMacro(v *env.Var, args []rval.Value) (rval.Value, error)
}

// Analyzer holds the state threaded across one batch of top-level
// analyze calls: the shared registry, diagnostics, and loop-id counter.
type Analyzer struct {
	Reg        *env.Registry
	Report     *cerrs.Report
	HostEval   HostEval
	nextLoopID int
}

// New creates an Analyzer. It does not intern the built-in macros (when,
// cond, ->, ->>): BootstrapCoreMacros does that, into reg's clojure.core
// namespace; callers typically call it once per Registry.
func New(reg *env.Registry, report *cerrs.Report) *Analyzer {
	return &Analyzer{Reg: reg, Report: report}
}

func (a *Analyzer) freshLoopID() int {
	a.nextLoopID++
	return a.nextLoopID
}

func pos(v rval.Value) rval.Pos {
	switch x := v.(type) {
	case *rval.Symbol:
		return x.Pos
	case *rval.List:
		return x.Pos
	case *rval.Vector:
		return x.Pos
	case *rval.Map:
		return x.Pos
	case *rval.Set:
		return x.Pos
	default:
		return rval.Pos{}
	}
}

func toCerrsPos(p rval.Pos) cerrs.Pos {
	return cerrs.Pos{File: p.File, Line: p.Line, Column: p.Column}
}

// AnalyzeTopLevel analyzes one top-level form, flattening a top-level `do`
// into its children so side effects on the namespace registry happen in
// source order (§4.2).
func (a *Analyzer) AnalyzeTopLevel(form rval.Value, e *env.Env) ([]ast.Node, *env.Env, error) {
	if l, ok := form.(*rval.List); ok && len(l.Items) > 0 {
		if headSym, ok := l.Items[0].(*rval.Symbol); ok && headSym.Ns == "" && headSym.Name == "do" {
			var nodes []ast.Node
			cur := e
			for _, child := range l.Items[1:] {
				childNodes, nextEnv, err := a.AnalyzeTopLevel(child, cur)
				if err != nil {
					return nil, cur, err
				}
				nodes = append(nodes, childNodes...)
				cur = nextEnv
			}
			return nodes, cur, nil
		}
	}
	node, nextEnv, err := a.Analyze(form, e.WithTailPosition(true))
	if err != nil {
		return nil, e, err
	}
	return []ast.Node{node}, nextEnv, nil
}

// Analyze lowers one (already macro-expanded at this call, and every
// nested call) form to an AST node, returning the environment extended by
// any side effects (def interning a Var, a new local frame, etc).
func (a *Analyzer) Analyze(form rval.Value, e *env.Env) (ast.Node, *env.Env, error) {
	expanded, err := a.macroexpand(form, e)
	if err != nil {
		return nil, e, err
	}
	form = expanded

	if l, ok := form.(*rval.List); ok {
		if len(l.Items) == 0 {
			return ast.Constant{Base: ast.NewBase(ast.OpConstant, e, form, nil), Value: form}, e, nil
		}
		if headSym, ok := l.Items[0].(*rval.Symbol); ok && headSym.Ns == "" {
			if fn, ok := specialForms[headSym.Name]; ok {
				return fn(a, l, e)
			}
		}
		return a.analyzeInvoke(l, e)
	}

	return a.analyzeAtom(form, e)
}

// analyzeAtom handles every non-list form: self-evaluating literals,
// collection literals, and symbol resolution (§4.2 resolution order).
func (a *Analyzer) analyzeAtom(form rval.Value, e *env.Env) (ast.Node, *env.Env, error) {
	switch v := form.(type) {
	case *rval.Symbol:
		return a.resolveSymbol(v, e)
	case *rval.Vector:
		items := make([]ast.Node, 0, len(v.Items))
		cur := e
		for _, it := range v.Items {
			n, nextEnv, err := a.Analyze(it, cur.WithTailPosition(false))
			if err != nil {
				return nil, e, err
			}
			items = append(items, n)
			cur = nextEnv
		}
		return ast.Vector{Base: ast.NewBase(ast.OpVector, e, form, nil), Items: items}, cur, nil
	case *rval.Set:
		items := make([]ast.Node, 0, len(v.Items))
		cur := e
		for _, it := range v.Items {
			n, nextEnv, err := a.Analyze(it, cur.WithTailPosition(false))
			if err != nil {
				return nil, e, err
			}
			items = append(items, n)
			cur = nextEnv
		}
		return ast.SetNode{Base: ast.NewBase(ast.OpSet, e, form, nil), Items: items}, cur, nil
	case *rval.Map:
		pairs := make([]ast.MapPair, 0, len(v.Entries))
		cur := e
		for _, entry := range v.Entries {
			kn, nextEnv, err := a.Analyze(entry.Key, cur.WithTailPosition(false))
			if err != nil {
				return nil, e, err
			}
			cur = nextEnv
			vn, nextEnv2, err := a.Analyze(entry.Val, cur.WithTailPosition(false))
			if err != nil {
				return nil, e, err
			}
			cur = nextEnv2
			pairs = append(pairs, ast.MapPair{Key: kn, Val: vn})
		}
		return ast.MapNode{Base: ast.NewBase(ast.OpMap, e, form, nil), Pairs: pairs}, cur, nil
	default:
		// int, float, string, char, bool, nil, keyword, regex, big numbers:
		// all self-evaluating constants.
		return ast.Constant{Base: ast.NewBase(ast.OpConstant, e, form, nil), Value: form}, e, nil
	}
}

// resolveSymbol implements §4.2's bare-symbol resolution order: local
// bindings (innermost first) -> current-namespace interns -> aliases ->
// referred mappings -> global registry by qualified name -> host type by
// name -> Unresolved.
func (a *Analyzer) resolveSymbol(s *rval.Symbol, e *env.Env) (ast.Node, *env.Env, error) {
	if s.Ns == "" {
		if lb, ok := e.LookupLocal(s.Name); ok {
			return ast.Local{Base: ast.NewBase(ast.OpLocal, e, s, nil), Binding: lb, Name: s.Name}, e, nil
		}
	}
	if v, ok := a.Reg.Resolve(e.CurrentNS, s.Ns, s.Name); ok {
		return ast.VarNode{Base: ast.NewBase(ast.OpVar, e, s, nil), Ref: v}, e, nil
	}
	if s.Ns != "" {
		if _, ok := a.Reg.HostType(e.CurrentNS, s.Ns); ok {
			return ast.ResolveType{Base: ast.NewBase(ast.OpResolveType, e, s, nil), Name: s.Ns + "/" + s.Name}, e, nil
		}
	}
	if host, ok := a.Reg.HostType(e.CurrentNS, s.Name); ok {
		return ast.TypeNode{Base: ast.NewBase(ast.OpType, e, s, nil), Name: host}, e, nil
	}
	d := cerrs.New(cerrs.KindUnresolvedSymbol, cerrs.AN001, toCerrsPos(s.Pos), "unresolved symbol: %s", s.String())
	a.Report.AddError(d)
	return nil, e, d
}

// analyzeInvoke lowers an ordinary function call `(f a b ...)`.
func (a *Analyzer) analyzeInvoke(l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	fnNode, cur, err := a.Analyze(l.Items[0], e.WithTailPosition(false))
	if err != nil {
		return nil, e, err
	}
	args := make([]ast.Node, 0, len(l.Items)-1)
	for _, a2 := range l.Items[1:] {
		n, nextEnv, err := a.Analyze(a2, cur.WithTailPosition(false))
		if err != nil {
			return nil, e, err
		}
		args = append(args, n)
		cur = nextEnv
	}
	return ast.Invoke{Base: ast.NewBase(ast.OpInvoke, e, l, nil), Fn: fnNode, Args: args}, cur, nil
}
