package emitter

import (
	"math/big"

	"github.com/lispc-lang/lispc/internal/ast"
	"github.com/lispc-lang/lispc/internal/coreir"
	"github.com/lispc-lang/lispc/internal/rval"
)

// emitExpr lowers one AST node appearing in expression position (a fn
// body, a let binding's init, an if branch, ...) to Core IR.
func (em *Emitter) emitExpr(node ast.Node) (coreir.Expr, error) {
	switch n := node.(type) {
	case ast.Constant:
		return em.emitConstant(n.Value)
	case ast.Quote:
		return em.emitConstant(n.Quoted)
	case ast.Local:
		return coreir.Var{Name: n.Name}, nil
	case ast.VarNode:
		if n.Reified {
			return coreir.VarRef{Ns: n.Ref.Ns, Name: n.Ref.Name}, nil
		}
		return coreir.Var{Name: n.Ref.Ns + "/" + n.Ref.Name}, nil
	case ast.Do:
		stmts := make([]coreir.Expr, 0, len(n.Stmts)+1)
		for _, s := range n.Stmts {
			e, err := em.emitExpr(s)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, e)
		}
		ret, err := em.emitExpr(n.Ret)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, ret)
		return coreir.Do{Stmts: stmts}, nil
	case ast.If:
		cond, err := em.emitExpr(n.Test)
		if err != nil {
			return nil, err
		}
		then, err := em.emitExpr(n.Then)
		if err != nil {
			return nil, err
		}
		var elseExpr coreir.Expr = coreir.Lit{Kind: coreir.LitNil}
		if n.Else != nil {
			elseExpr, err = em.emitExpr(n.Else)
			if err != nil {
				return nil, err
			}
		}
		return coreir.If{Cond: cond, Then: then, Else: elseExpr}, nil
	case ast.Let:
		return em.emitLet(n)
	case ast.Loop:
		return em.emitLoop(n)
	case ast.Recur:
		return em.emitRecur(n)
	case ast.LetFn:
		return em.emitLetFn(n)
	case ast.Fn:
		lambda, err := em.emitFnLambda(&n)
		if err != nil {
			return nil, err
		}
		return *lambda, nil
	case ast.Invoke:
		return em.emitInvoke(n)
	case ast.Throw:
		expr, err := em.emitExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		return coreir.Throw{Expr: expr}, nil
	case ast.Try:
		return em.emitTry(n)
	case ast.Case:
		return em.emitCase(n)
	case ast.Vector:
		return em.emitSeqLiteral(n.Items, coreir.ListKindVector)
	case ast.SetNode:
		return em.emitSeqLiteral(n.Items, coreir.ListKindSet)
	case ast.MapNode:
		var entries []coreir.MapEntry
		for _, p := range n.Pairs {
			k, err := em.emitExpr(p.Key)
			if err != nil {
				return nil, err
			}
			v, err := em.emitExpr(p.Val)
			if err != nil {
				return nil, err
			}
			entries = append(entries, coreir.MapEntry{Key: k, Val: v})
		}
		return coreir.Map{Entries: entries}, nil
	case ast.New:
		args := make([]coreir.Expr, 0, len(n.Args))
		for _, a := range n.Args {
			e, err := em.emitExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, e)
		}
		return coreir.App{Fn: coreir.Var{Name: "new:" + n.Type}, Args: args}, nil
	case ast.ResolveType:
		return coreir.Var{Name: n.Name}, nil
	case ast.TypeNode:
		return coreir.Var{Name: n.Name}, nil
	case ast.DefType:
		// reify* lowers to a DefType appearing in expression position: its
		// method functions register into the enclosing module, and the
		// expression itself evaluates to the generated type's name.
		if em.currentModule == "" {
			return nil, newEmitErr("deftype*/reify* used where no enclosing module is being emitted")
		}
		if err := em.emitDefType(n, em.currentModule); err != nil {
			return nil, err
		}
		return coreir.Lit{Kind: coreir.LitKeyword, Value: n.Name}, nil
	case ast.Receive:
		return em.emitReceive(n)
	case ast.OnLoad:
		return em.emitExpr(n.Body)
	case ast.WithMeta:
		return em.emitExpr(n.Expr)
	case ast.ErlMap, ast.ErlList, ast.ErlBinary, ast.Tuple, ast.ErlFun, ast.ErlAlias:
		return em.emitErlangShape(node)
	default:
		return nil, newEmitErr("unsupported AST node in expression position")
	}
}

func (em *Emitter) emitConstant(v rval.Value) (coreir.Expr, error) {
	switch x := v.(type) {
	case rval.Nil:
		return coreir.Lit{Kind: coreir.LitNil}, nil
	case rval.Bool:
		return coreir.Lit{Kind: coreir.LitBool, Value: x.V}, nil
	case rval.Int:
		return coreir.Lit{Kind: coreir.LitInt, Value: x.V}, nil
	case rval.Float:
		return coreir.Lit{Kind: coreir.LitFloat, Value: x.V}, nil
	case rval.Str:
		return coreir.Lit{Kind: coreir.LitString, Value: x.V}, nil
	case rval.Char:
		return coreir.Lit{Kind: coreir.LitChar, Value: x.V}, nil
	case *rval.Keyword:
		return coreir.Lit{Kind: coreir.LitKeyword, Value: x.String()}, nil
	case rval.BigInt:
		return coreir.Lit{Kind: coreir.LitBigInt, Value: x.V}, nil
	case rval.Ratio:
		return coreir.Lit{Kind: coreir.LitRatio, Value: [2]*big.Int{x.Num, x.Den}}, nil
	case *rval.Symbol:
		return coreir.Lit{Kind: coreir.LitKeyword, Value: x.String()}, nil
	case *rval.List:
		items := make([]coreir.Expr, 0, len(x.Items))
		for _, it := range x.Items {
			e, err := em.emitConstant(it)
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		return coreir.List{Kind: coreir.ListKindList, Items: items}, nil
	case *rval.Vector:
		items := make([]coreir.Expr, 0, len(x.Items))
		for _, it := range x.Items {
			e, err := em.emitConstant(it)
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		return coreir.List{Kind: coreir.ListKindVector, Items: items}, nil
	case *rval.Set:
		items := make([]coreir.Expr, 0, len(x.Items))
		for _, it := range x.Items {
			e, err := em.emitConstant(it)
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		return coreir.List{Kind: coreir.ListKindSet, Items: items}, nil
	case *rval.Map:
		var entries []coreir.MapEntry
		for _, me := range x.Entries {
			k, err := em.emitConstant(me.Key)
			if err != nil {
				return nil, err
			}
			val, err := em.emitConstant(me.Val)
			if err != nil {
				return nil, err
			}
			entries = append(entries, coreir.MapEntry{Key: k, Val: val})
		}
		return coreir.Map{Entries: entries}, nil
	default:
		return nil, newEmitErr("unsupported literal value in constant position")
	}
}

func (em *Emitter) emitSeqLiteral(items []ast.Node, kind coreir.ListKind) (coreir.Expr, error) {
	out := make([]coreir.Expr, 0, len(items))
	for _, it := range items {
		e, err := em.emitExpr(it)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return coreir.List{Kind: kind, Items: out}, nil
}

func (em *Emitter) emitLet(n ast.Let) (coreir.Expr, error) {
	body, err := em.emitExpr(n.Body)
	if err != nil {
		return nil, err
	}
	for i := len(n.Bindings) - 1; i >= 0; i-- {
		b := n.Bindings[i]
		init, err := em.emitExpr(b.Init)
		if err != nil {
			return nil, err
		}
		body = coreir.Let{Name: b.Name, Init: init, Body: body}
	}
	return body, nil
}

// emitLoop lowers `loop*` to a LetRec binding a single self-recursive
// named function, called once with the initial binding values; `recur`
// inside its body lowers to a TailCall back to that name (§4.3).
func (em *Emitter) emitLoop(n ast.Loop) (coreir.Expr, error) {
	fnName := em.gensym("loop")
	em.loopFnNames(n.LoopID, fnName)
	params := make([]string, len(n.Bindings))
	inits := make([]coreir.Expr, len(n.Bindings))
	for i, b := range n.Bindings {
		params[i] = b.Name
		init, err := em.emitExpr(b.Init)
		if err != nil {
			return nil, err
		}
		inits[i] = init
	}
	body, err := em.emitExpr(n.Body)
	if err != nil {
		return nil, err
	}
	lambda := coreir.Lambda{Params: params, Body: body, Name: fnName}
	return coreir.LetRec{
		Bindings: []coreir.RecBinding{{Name: fnName, Init: lambda}},
		Body:     coreir.App{Fn: coreir.Var{Name: fnName}, Args: inits},
	}, nil
}

// loopFnNames records the Core IR function name assigned to each analyzer
// loop id, so a nested Recur can target the right TailCall.
func (em *Emitter) loopFnNames(id int, name string) {
	if em.loopNames == nil {
		em.loopNames = map[int]string{}
	}
	em.loopNames[id] = name
}

func (em *Emitter) emitRecur(n ast.Recur) (coreir.Expr, error) {
	name, ok := em.loopNames[n.LoopID]
	if !ok {
		return nil, newEmitErr("recur targets a loop id the emitter never registered a function name for")
	}
	args := make([]coreir.Expr, len(n.Exprs))
	for i, ex := range n.Exprs {
		e, err := em.emitExpr(ex)
		if err != nil {
			return nil, err
		}
		args[i] = e
	}
	return coreir.TailCall{Target: name, Args: args}, nil
}

func (em *Emitter) emitLetFn(n ast.LetFn) (coreir.Expr, error) {
	var bindings []coreir.RecBinding
	for _, b := range n.Bindings {
		init, err := em.emitExpr(b.Init)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, coreir.RecBinding{Name: b.Name, Init: init})
	}
	body, err := em.emitExpr(n.Body)
	if err != nil {
		return nil, err
	}
	return coreir.LetRec{Bindings: bindings, Body: body}, nil
}

func (em *Emitter) emitInvoke(n ast.Invoke) (coreir.Expr, error) {
	fn, err := em.emitExpr(n.Fn)
	if err != nil {
		return nil, err
	}
	args := make([]coreir.Expr, 0, len(n.Args))
	for _, a := range n.Args {
		e, err := em.emitExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	return coreir.App{Fn: fn, Args: args}, nil
}

func (em *Emitter) emitTry(n ast.Try) (coreir.Expr, error) {
	body, err := em.emitExpr(n.Body)
	if err != nil {
		return nil, err
	}
	var catches []coreir.CatchClause
	for _, c := range n.Catches {
		cbody, err := em.emitExpr(c.Body)
		if err != nil {
			return nil, err
		}
		bindName := ""
		if c.Binding != nil {
			bindName = c.Binding.Name
		}
		catches = append(catches, coreir.CatchClause{ClassName: c.ClassName, BindName: bindName, Body: cbody})
	}
	var finallyExpr coreir.Expr
	if n.Finally != nil {
		finallyExpr, err = em.emitExpr(n.Finally)
		if err != nil {
			return nil, err
		}
	}
	return coreir.Try{Body: body, Catches: catches, Finally: finallyExpr}, nil
}

func (em *Emitter) emitCase(n ast.Case) (coreir.Expr, error) {
	scrutinee, err := em.emitExpr(n.Test)
	if err != nil {
		return nil, err
	}
	var arms []coreir.MatchArm
	for _, c := range n.Clauses {
		body, err := em.emitExpr(c.Body)
		if err != nil {
			return nil, err
		}
		pat, err := em.emitCasePattern(c.Pattern)
		if err != nil {
			return nil, err
		}
		arms = append(arms, coreir.MatchArm{Pattern: pat, Body: body})
	}
	defaultBody, err := em.emitExpr(n.Default)
	if err != nil {
		return nil, err
	}
	arms = append(arms, coreir.MatchArm{Pattern: coreir.Pattern{Kind: coreir.PatWildcard}, Body: defaultBody})
	return coreir.Match{Scrutinee: scrutinee, Arms: arms}, nil
}

func (em *Emitter) emitCasePattern(v rval.Value) (coreir.Pattern, error) {
	switch x := v.(type) {
	case rval.Int:
		return coreir.Pattern{Kind: coreir.PatLit, Value: x.V}, nil
	case rval.Str:
		return coreir.Pattern{Kind: coreir.PatLit, Value: x.V}, nil
	case *rval.Keyword:
		return coreir.Pattern{Kind: coreir.PatLit, Value: x.String()}, nil
	case rval.Bool:
		return coreir.Pattern{Kind: coreir.PatLit, Value: x.V}, nil
	case rval.Nil:
		return coreir.Pattern{Kind: coreir.PatLit, Value: nil}, nil
	default:
		return coreir.Pattern{}, newEmitErr("unsupported case* pattern literal")
	}
}

// emitReceive lowers a host-VM receive block to a Match over an opaque
// "next mailbox message" variable, each clause's reader pattern compiled
// the same way case* patterns are; the after-clause becomes the
// catch-all wildcard arm, consulted by the assembler's mailbox primitive.
func (em *Emitter) emitReceive(n ast.Receive) (coreir.Expr, error) {
	var arms []coreir.MatchArm
	for _, c := range n.Clauses {
		body, err := em.emitExpr(c.Body)
		if err != nil {
			return nil, err
		}
		pat, err := em.emitCasePattern(c.Pattern)
		if err != nil {
			pat = coreir.Pattern{Kind: coreir.PatVar, Name: "msg"}
		}
		arms = append(arms, coreir.MatchArm{Pattern: pat, Body: body})
	}
	if n.After != nil {
		afterBody, err := em.emitExpr(n.After.Body)
		if err != nil {
			return nil, err
		}
		arms = append(arms, coreir.MatchArm{Pattern: coreir.Pattern{Kind: coreir.PatWildcard}, Body: afterBody})
	}
	return coreir.Match{Scrutinee: coreir.App{Fn: coreir.Var{Name: "receive!"}}, Arms: arms}, nil
}

// emitErlangShape lowers the host-data literal nodes (ErlMap/ErlList/
// ErlBinary/Tuple/ErlFun/ErlAlias) to their direct Core IR counterparts;
// these all construct a value with no control flow of their own.
func (em *Emitter) emitErlangShape(node ast.Node) (coreir.Expr, error) {
	switch n := node.(type) {
	case ast.ErlMap:
		var entries []coreir.MapEntry
		for i := range n.Keys {
			k, err := em.emitExpr(n.Keys[i])
			if err != nil {
				return nil, err
			}
			v, err := em.emitExpr(n.Values[i])
			if err != nil {
				return nil, err
			}
			entries = append(entries, coreir.MapEntry{Key: k, Val: v})
		}
		return coreir.Map{Entries: entries}, nil
	case ast.ErlList:
		items := make([]coreir.Expr, 0, len(n.Items))
		for _, it := range n.Items {
			e, err := em.emitExpr(it)
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		return coreir.List{Kind: coreir.ListKindList, Items: items}, nil
	case ast.Tuple:
		var fields []coreir.RecordField
		for i, it := range n.Items {
			e, err := em.emitExpr(it)
			if err != nil {
				return nil, err
			}
			fields = append(fields, coreir.RecordField{Name: intFieldName(i), Val: e})
		}
		return coreir.Record{Type: "tuple", Fields: fields}, nil
	case ast.ErlFun:
		return coreir.Var{Name: n.Module + ":" + n.Function + "/" + itoaEm(n.Arity)}, nil
	case ast.ErlAlias:
		name, err := em.emitExpr(n.Name)
		if err != nil {
			return nil, err
		}
		pid, err := em.emitExpr(n.Pid)
		if err != nil {
			return nil, err
		}
		return coreir.Record{Type: "alias", Fields: []coreir.RecordField{{Name: "name", Val: name}, {Name: "pid", Val: pid}}}, nil
	case ast.ErlBinary:
		var items []coreir.Expr
		for _, seg := range n.Segments {
			v, err := em.emitExpr(seg.Value)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return coreir.List{Kind: coreir.ListKindList, Items: items}, nil
	default:
		return nil, newEmitErr("unsupported Erlang-shaped literal node")
	}
}

func intFieldName(i int) string { return "_" + itoaEm(i) }

func itoaEm(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}
