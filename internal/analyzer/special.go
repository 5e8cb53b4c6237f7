package analyzer

import (
	"github.com/lispc-lang/lispc/internal/ast"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/rval"
)

// specialFormFn lowers one special-form list to its AST node. Dispatch
// happens on the list's un-namespaced head symbol (§4.2's exact
// special-form set); none of these are ever reached through
// macroexpansion since macroexpand1 refuses to expand a shadowed
// special-form name.
type specialFormFn func(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error)

var specialForms map[string]specialFormFn

func init() {
	specialForms = map[string]specialFormFn{
		"def":           analyzeDef,
		"if":            analyzeIf,
		"do":            analyzeDo,
		"let*":          analyzeLet,
		"loop*":         analyzeLoop,
		"recur":         analyzeRecur,
		"fn*":           analyzeFn,
		"letfn*":        analyzeLetFn,
		"quote":         analyzeQuote,
		"var":           analyzeVarSpecial,
		"throw":         analyzeThrow,
		"try":           analyzeTry,
		"new":           analyzeNew,
		".":             analyzeDot,
		"set!":          analyzeSetBang,
		"case*":         analyzeCase,
		"deftype*":      analyzeDefType,
		"reify*":        analyzeReify,
		"defprotocol":   analyzeDefProtocol,
		"extend-type":   analyzeExtendType,
		"import*":       analyzeImport,
		"monitor-enter": analyzeMonitorEnter,
		"monitor-exit":  analyzeMonitorExit,
		"receive*":      analyzeReceive,
		"on-load*":      analyzeOnLoad,
	}
}

func badForm(a *Analyzer, l *rval.List, msg string) error {
	d := newBadSpecialForm(toCerrsPos(l.Pos), msg)
	a.Report.AddError(d)
	return d
}

// analyzeBody lowers a sequence of forms as a `do`-like body, threading the
// environment and preserving the tail-position flag only on the last form.
func (a *Analyzer) analyzeBody(forms []rval.Value, e *env.Env) (ast.Node, *env.Env, error) {
	if len(forms) == 0 {
		return ast.Constant{Base: ast.NewBase(ast.OpConstant, e, nil, nil), Value: rval.Nil{}}, e, nil
	}
	if len(forms) == 1 {
		return a.Analyze(forms[0], e)
	}
	stmts := make([]ast.Node, 0, len(forms)-1)
	cur := e
	for _, f := range forms[:len(forms)-1] {
		n, nextEnv, err := a.Analyze(f, cur.WithTailPosition(false))
		if err != nil {
			return nil, e, err
		}
		stmts = append(stmts, n)
		cur = nextEnv
	}
	ret, nextEnv, err := a.Analyze(forms[len(forms)-1], cur)
	if err != nil {
		return nil, e, err
	}
	return ast.Do{Base: ast.NewBase(ast.OpDo, e, nil, nil), Stmts: stmts, Ret: ret}, nextEnv, nil
}

func analyzeDo(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	return a.analyzeBody(l.Items[1:], e)
}

func analyzeIf(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) < 3 || len(l.Items) > 4 {
		return nil, e, badForm(a, l, "if requires (if test then [else])")
	}
	test, _, err := a.Analyze(l.Items[1], e.WithTailPosition(false))
	if err != nil {
		return nil, e, err
	}
	then, _, err := a.Analyze(l.Items[2], e)
	if err != nil {
		return nil, e, err
	}
	var elseNode ast.Node
	if len(l.Items) == 4 {
		elseNode, _, err = a.Analyze(l.Items[3], e)
		if err != nil {
			return nil, e, err
		}
	}
	return ast.If{Base: ast.NewBase(ast.OpIf, e, l, nil), Test: test, Then: then, Else: elseNode}, e, nil
}

func analyzeQuote(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) != 2 {
		return nil, e, badForm(a, l, "quote requires exactly one form")
	}
	return ast.Quote{Base: ast.NewBase(ast.OpQuote, e, l, nil), Quoted: l.Items[1]}, e, nil
}

// analyzeVarSpecial lowers `(var sym)`: reification of the Var itself
// rather than its current value (§3 AST node "var", disambiguated
// via VarNode.Reified).
func analyzeVarSpecial(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) != 2 {
		return nil, e, badForm(a, l, "var requires exactly one symbol")
	}
	s, ok := l.Items[1].(*rval.Symbol)
	if !ok {
		return nil, e, badForm(a, l, "var requires a symbol argument")
	}
	v, ok := a.Reg.Resolve(e.CurrentNS, s.Ns, s.Name)
	if !ok {
		d := newUnresolvedSymbol(toCerrsPos(s.Pos), s.String())
		a.Report.AddError(d)
		return nil, e, d
	}
	return ast.VarNode{Base: ast.NewBase(ast.OpVar, e, l, nil), Ref: v, Reified: true}, e, nil
}

func analyzeThrow(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) != 2 {
		return nil, e, badForm(a, l, "throw requires exactly one expression")
	}
	expr, _, err := a.Analyze(l.Items[1], e.WithTailPosition(false))
	if err != nil {
		return nil, e, err
	}
	return ast.Throw{Base: ast.NewBase(ast.OpThrow, e, l, nil), Expr: expr}, e, nil
}

func analyzeNew(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) < 2 {
		return nil, e, badForm(a, l, "new requires a type name")
	}
	typeSym, ok := l.Items[1].(*rval.Symbol)
	if !ok {
		return nil, e, badForm(a, l, "new requires a type symbol")
	}
	args := make([]ast.Node, 0, len(l.Items)-2)
	cur := e
	for _, a2 := range l.Items[2:] {
		n, nextEnv, err := a.Analyze(a2, cur.WithTailPosition(false))
		if err != nil {
			return nil, e, err
		}
		args = append(args, n)
		cur = nextEnv
	}
	return ast.New{Base: ast.NewBase(ast.OpNew, e, l, nil), Type: typeSym.String(), Args: args}, cur, nil
}

// analyzeDot lowers `(. target field)` / `(. target (method args...))` to
// a RecordAccess-shaped Invoke; the emitter distinguishes field access from
// method invocation by whether the third item is a list.
func analyzeDot(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) < 3 {
		return nil, e, badForm(a, l, ". requires a target and a member form")
	}
	target, cur, err := a.Analyze(l.Items[1], e.WithTailPosition(false))
	if err != nil {
		return nil, e, err
	}
	switch member := l.Items[2].(type) {
	case *rval.Symbol:
		return ast.ResolveType{Base: ast.NewBase(ast.OpResolveType, e, l, target), Name: member.Name}, cur, nil
	case *rval.List:
		if len(member.Items) == 0 {
			return nil, e, badForm(a, l, ". method form must not be empty")
		}
		methodSym, ok := member.Items[0].(*rval.Symbol)
		if !ok {
			return nil, e, badForm(a, l, ". method form must start with a symbol")
		}
		args := make([]ast.Node, 0, len(member.Items))
		args = append(args, target)
		for _, a2 := range member.Items[1:] {
			n, nextEnv, err := a.Analyze(a2, cur.WithTailPosition(false))
			if err != nil {
				return nil, e, err
			}
			args = append(args, n)
			cur = nextEnv
		}
		fnNode := ast.ResolveType{Base: ast.NewBase(ast.OpResolveType, e, member, nil), Name: methodSym.Name}
		return ast.Invoke{Base: ast.NewBase(ast.OpInvoke, e, l, nil), Fn: fnNode, Args: args}, cur, nil
	default:
		return nil, e, badForm(a, l, ". requires a symbol or list member form")
	}
}

func analyzeSetBang(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) != 3 {
		return nil, e, badForm(a, l, "set! requires exactly a target and a value")
	}
	target, _, err := a.Analyze(l.Items[1], e.WithTailPosition(false))
	if err != nil {
		return nil, e, err
	}
	val, _, err := a.Analyze(l.Items[2], e.WithTailPosition(false))
	if err != nil {
		return nil, e, err
	}
	setSym := ast.ResolveType{Base: ast.NewBase(ast.OpResolveType, e, l, nil), Name: "set!"}
	return ast.Invoke{Base: ast.NewBase(ast.OpInvoke, e, l, nil), Fn: setSym, Args: []ast.Node{target, val}}, e, nil
}

func analyzeImport(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) != 2 {
		return nil, e, badForm(a, l, "import* requires exactly one host type name")
	}
	s, ok := l.Items[1].(*rval.Symbol)
	if !ok {
		return nil, e, badForm(a, l, "import* requires a symbol")
	}
	ns := a.Reg.EnsureNamespace(e.CurrentNS)
	local := s.Name
	ns.Imports[local] = s.String()
	return ast.Import{Base: ast.NewBase(ast.OpImport, e, l, nil), HostName: s.String(), LocalName: local}, e, nil
}

func analyzeMonitorEnter(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	return analyzeMonitor(a, l, e, "monitor-enter")
}

func analyzeMonitorExit(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	return analyzeMonitor(a, l, e, "monitor-exit")
}

func analyzeMonitor(a *Analyzer, l *rval.List, e *env.Env, name string) (ast.Node, *env.Env, error) {
	if len(l.Items) != 2 {
		return nil, e, badForm(a, l, name+" requires exactly one expression")
	}
	target, _, err := a.Analyze(l.Items[1], e.WithTailPosition(false))
	if err != nil {
		return nil, e, err
	}
	fnNode := ast.ResolveType{Base: ast.NewBase(ast.OpResolveType, e, l, nil), Name: name}
	return ast.Invoke{Base: ast.NewBase(ast.OpInvoke, e, l, nil), Fn: fnNode, Args: []ast.Node{target}}, e, nil
}

func analyzeOnLoad(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	body, cur, err := a.analyzeBody(l.Items[1:], e)
	if err != nil {
		return nil, e, err
	}
	return ast.OnLoad{Base: ast.NewBase(ast.OpOnLoad, e, l, nil), Body: body}, cur, nil
}
