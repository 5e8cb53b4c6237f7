package analyzer

import (
	"github.com/lispc-lang/lispc/internal/ast"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/rval"
)

// analyzeDefProtocol lowers `(defprotocol Name (method [args...] ...) ...)`.
// It registers Name's method signature table in the current namespace (a
// side effect the proto package's decision-tree compiler reads from) but
// itself only produces the declarative DefProtocol node; Core IR emission
// of the dispatch functions happens downstream, once a deftype* or an
// extend-type has supplied implementations (§4.4).
func analyzeDefProtocol(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) < 2 {
		return nil, e, badForm(a, l, "defprotocol requires a name symbol")
	}
	nameSym, ok := l.Items[1].(*rval.Symbol)
	if !ok {
		return nil, e, badForm(a, l, "defprotocol requires a name symbol")
	}
	var methods []ast.ProtocolMethodSig
	for _, item := range l.Items[2:] {
		ml, ok := item.(*rval.List)
		if !ok || len(ml.Items) < 2 {
			continue // doc strings between methods are allowed and skipped
		}
		methodSym, ok := ml.Items[0].(*rval.Symbol)
		if !ok {
			return nil, e, badForm(a, l, "defprotocol method must start with a symbol")
		}
		var arities []int
		for _, sigForm := range ml.Items[1:] {
			if v, ok := sigForm.(*rval.Vector); ok {
				arities = append(arities, len(v.Items))
			}
		}
		methods = append(methods, ast.ProtocolMethodSig{Name: methodSym.Name, Arities: arities})
	}

	v := a.Reg.Intern(e.CurrentNS, nameSym.Name)
	v.SetMeta(map[string]interface{}{"protocol-methods": methods})

	return ast.DefProtocol{Base: ast.NewBase(ast.OpDefProtocol, e, l, nil), Name: nameSym.Name, Methods: methods}, e, nil
}

// analyzeDefType lowers `(deftype* Name [field...] Protocol (method [this
// args...] body) ...)`. Field access inside method bodies resolves like
// any other local: fields are bound into the method's frame under their
// declared names.
func analyzeDefType(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) < 3 {
		return nil, e, badForm(a, l, "deftype* requires a name and a field vector")
	}
	nameSym, ok := l.Items[1].(*rval.Symbol)
	if !ok {
		return nil, e, badForm(a, l, "deftype* requires a name symbol")
	}
	fieldsVec, ok := l.Items[2].(*rval.Vector)
	if !ok {
		return nil, e, badForm(a, l, "deftype* requires a field vector")
	}
	var fields []string
	for _, f := range fieldsVec.Items {
		fs, ok := f.(*rval.Symbol)
		if !ok {
			return nil, e, badForm(a, l, "deftype* fields must be symbols")
		}
		fields = append(fields, fs.Name)
	}

	methods, err := analyzeProtocolImpls(a, l, e, fields, l.Items[3:])
	if err != nil {
		return nil, e, err
	}

	host := a.Reg.EnsureNamespace(e.CurrentNS)
	host.Imports[nameSym.Name] = e.CurrentNS + "/" + nameSym.Name

	return ast.DefType{Base: ast.NewBase(ast.OpDefType, e, l, nil), Name: nameSym.Name, Fields: fields, Methods: methods}, e, nil
}

// analyzeExtendType lowers `(extend-type Type Protocol (method [this
// args...] body) ... Protocol2 ...)`: a flat alternating sequence of
// protocol names and method impls, re-attaching implementations to an
// existing host/record type after the fact.
func analyzeExtendType(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) < 2 {
		return nil, e, badForm(a, l, "extend-type requires a type symbol")
	}
	typeSym, ok := l.Items[1].(*rval.Symbol)
	if !ok {
		return nil, e, badForm(a, l, "extend-type requires a type symbol")
	}
	methods, err := analyzeProtocolImpls(a, l, e, nil, l.Items[2:])
	if err != nil {
		return nil, e, err
	}
	return ast.ExtendType{Base: ast.NewBase(ast.OpExtendType, e, l, nil), Type: typeSym.String(), Methods: methods}, e, nil
}

var reifyCounter int

// analyzeReify lowers `(reify* Protocol (method [this args...] body) ...)`
// to an anonymous DefType: a deftype* with no declared fields (its methods
// close over the surrounding lexical scope instead) and a generated,
// non-collidable name.
func analyzeReify(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	reifyCounter++
	name := reifyAnonName(reifyCounter)
	methods, err := analyzeProtocolImpls(a, l, e, nil, l.Items[1:])
	if err != nil {
		return nil, e, err
	}
	host := a.Reg.EnsureNamespace(e.CurrentNS)
	host.Imports[name] = e.CurrentNS + "/" + name
	return ast.DefType{Base: ast.NewBase(ast.OpDefType, e, l, nil), Name: name, Fields: nil, Methods: methods}, e, nil
}

func reifyAnonName(n int) string {
	const prefix = "reify__"
	digits := "0123456789"
	if n == 0 {
		return prefix + "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{digits[n%10]}, b...)
		n /= 10
	}
	return prefix + string(b)
}

// analyzeProtocolImpls parses a flat `Protocol (method [args] body)...`
// sequence shared by deftype* and extend-type, binding `fields` as extra
// locals visible to each method body (deftype*'s own fields; empty for
// extend-type, whose methods see only their declared parameters).
func analyzeProtocolImpls(a *Analyzer, l *rval.List, e *env.Env, fields []string, items []rval.Value) ([]*ast.ProtocolMethodImpl, error) {
	var impls []*ast.ProtocolMethodImpl
	currentProtocol := ""
	for _, item := range items {
		if sym, ok := item.(*rval.Symbol); ok {
			currentProtocol = sym.String()
			continue
		}
		ml, ok := item.(*rval.List)
		if !ok || len(ml.Items) < 2 {
			return nil, badForm(a, l, "protocol method impl must be (name [params...] body...)")
		}
		methodSym, ok := ml.Items[0].(*rval.Symbol)
		if !ok {
			return nil, badForm(a, l, "protocol method impl must start with a symbol")
		}
		paramsVec, ok := ml.Items[1].(*rval.Vector)
		if !ok {
			return nil, badForm(a, l, "protocol method impl requires a parameter vector")
		}
		methodEnv := e.PushFrame()
		for _, fld := range fields {
			methodEnv, _ = methodEnv.BindLocal(fld, env.KindArg, false)
		}
		var params []*env.LocalBinding
		for _, p := range paramsVec.Items {
			ps, ok := p.(*rval.Symbol)
			if !ok {
				return nil, badForm(a, l, "protocol method params must be symbols")
			}
			var lb *env.LocalBinding
			methodEnv, lb = methodEnv.BindLocal(ps.Name, env.KindArg, false)
			params = append(params, lb)
		}
		loopID := a.freshLoopID()
		methodEnv = methodEnv.WithLoopTarget(loopID, len(params)).WithTailPosition(true)
		body, _, err := a.analyzeBody(ml.Items[2:], methodEnv)
		if err != nil {
			return nil, err
		}
		fn := &ast.Fn{
			Base:          ast.NewBase(ast.OpFn, methodEnv, ml, nil),
			Methods:       []*ast.FnMethod{{Base: ast.NewBase(ast.OpFnMethod, methodEnv, nil, nil), Params: params, FixedArity: len(params), LoopID: loopID, Body: body}},
			FixedArities:  []int{len(params)},
			MinFixedArity: len(params),
			MaxFixedArity: len(params),
			VariadicArity: -1,
		}
		impls = append(impls, &ast.ProtocolMethodImpl{Protocol: currentProtocol, Method: methodSym.Name, Fn: fn})
	}
	return impls, nil
}
