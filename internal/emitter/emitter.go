// Package emitter translates the analyzer's typed AST into Core IR,
// registering top-level functions and on-load initializers into a
// modctx.Context as it goes (§4.3 Emitter). Adapted from the
// teacher's internal/pipeline (source -> lowered IR -> emitted artifact,
// one function per stage) generalized from a single-pass ML compiler to
// this dialect's AST-to-IR step.
package emitter

import (
	"fmt"

	"github.com/lispc-lang/lispc/internal/ast"
	"github.com/lispc-lang/lispc/internal/cerrs"
	"github.com/lispc-lang/lispc/internal/coreir"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/modctx"
	"github.com/lispc-lang/lispc/internal/rval"
)

// Emitter holds the module-accumulation context every top-level emission
// writes into, plus a counter for names the emitter itself must invent
// (multi-arity dispatch shells, reify/deftype method functions).
type Emitter struct {
	Mod        *modctx.Context
	nextGenSym int

	// loopNames maps an analyzer loop id to the Core IR function name its
	// loop*/fn* lowering was assigned, so a nested Recur can target the
	// matching TailCall.
	loopNames map[int]string

	// currentModule is the module an in-flight EmitTopLevel call is
	// registering into; emitExpr consults it when a nested reify*
	// (lowered to a DefType in expression position) must itself register
	// method functions into the enclosing module.
	currentModule string
}

func New(mod *modctx.Context) *Emitter {
	return &Emitter{Mod: mod}
}

func (em *Emitter) gensym(stem string) string {
	em.nextGenSym++
	return fmt.Sprintf("%s__%d", stem, em.nextGenSym)
}

func newEmitErr(msg string) *cerrs.Diag {
	return cerrs.New(cerrs.KindNotImplemented, cerrs.EM001, cerrs.Pos{}, "%s", msg)
}

// EmitTopLevel dispatches a single top-level AST node into moduleName's
// accumulating module. Most node kinds only make sense nested inside a
// function body; at top level, only def/deftype*/defprotocol/extend-
// type/import*/on-load* have the side-effecting module registration the
// spec describes, so everything else is emitted as an expression appended
// to the module's on_load body.
func (em *Emitter) EmitTopLevel(node ast.Node, moduleName string) error {
	em.currentModule = moduleName
	switch n := node.(type) {
	case ast.Def:
		return em.emitDef(n, moduleName)
	case ast.DefType:
		return em.emitDefType(n, moduleName)
	case ast.DefProtocol:
		return em.emitDefProtocol(n, moduleName)
	case ast.ExtendType:
		return em.emitExtendType(n, moduleName)
	case ast.Import:
		em.Mod.AddAttr(moduleName, coreir.Attr{Key: "import", Val: n.HostName})
		return nil
	case ast.OnLoad:
		body, err := em.emitExpr(n.Body)
		if err != nil {
			return err
		}
		em.Mod.AppendOnLoad(moduleName, body)
		return nil
	default:
		expr, err := em.emitExpr(node)
		if err != nil {
			return err
		}
		em.Mod.AppendOnLoad(moduleName, expr)
		return nil
	}
}

// emitDef registers name's init as a module-level Def. A composite
// literal init (one built from a collection constant rather than a bare
// atom) is constructed once via the module's on_load body and the
// top-level Def left to reference it by name, matching §4.3's "non-
// literal constants are lifted to a module-level on_load initializer
// that constructs them once".
func (em *Emitter) emitDef(n ast.Def, moduleName string) error {
	var initExpr coreir.Expr = coreir.Lit{Kind: coreir.LitNil}
	if n.Init != nil {
		expr, err := em.emitExpr(n.Init)
		if err != nil {
			return err
		}
		initExpr = expr
	}
	if isCompositeConstant(n.Init) {
		varRef := coreir.VarRef{Ns: n.Var.Ns, Name: n.Var.Name}
		em.Mod.AppendOnLoad(moduleName, coreir.Def{Ns: n.Var.Ns, Name: n.Var.Name, Init: initExpr})
		em.Mod.AddFunction(moduleName, coreir.Func{Name: n.Name, Fn: &coreir.Lambda{Body: varRef, Name: n.Name}}, true)
		return nil
	}
	em.Mod.AddFunction(moduleName, coreir.Func{
		Name: n.Name,
		Fn:   &coreir.Lambda{Body: initExpr, Name: n.Name},
	}, true)
	em.Mod.AddAttr(moduleName, coreir.Attr{Key: "def", Val: n.Name})
	return nil
}

func isCompositeConstant(n ast.Node) bool {
	c, ok := n.(ast.Constant)
	if !ok {
		return false
	}
	switch c.Value.(type) {
	case *rval.Vector, *rval.Map, *rval.Set, *rval.List:
		return true
	default:
		return false
	}
}

// emitDefType registers one module function per protocol method impl,
// named by mangling (type, protocol, method) together so extend-type can
// re-emit additional methods for the same type later without colliding.
func (em *Emitter) emitDefType(n ast.DefType, moduleName string) error {
	em.Mod.AddAttr(moduleName, coreir.Attr{Key: "deftype", Val: n.Name})
	return em.emitMethodImpls(n.Name, n.Methods, moduleName)
}

func (em *Emitter) emitDefProtocol(n ast.DefProtocol, moduleName string) error {
	em.Mod.AddAttr(moduleName, coreir.Attr{Key: "defprotocol", Val: n.Name})
	return nil
}

func (em *Emitter) emitExtendType(n ast.ExtendType, moduleName string) error {
	return em.emitMethodImpls(n.Type, n.Methods, moduleName)
}

func (em *Emitter) emitMethodImpls(typeName string, methods []*ast.ProtocolMethodImpl, moduleName string) error {
	for _, m := range methods {
		fnName := MangleMethodName(typeName, m.Protocol, m.Method)
		lambda, err := em.emitFnLambda(m.Fn)
		if err != nil {
			return err
		}
		lambda.Name = fnName
		em.Mod.AddFunction(moduleName, coreir.Func{Name: fnName, Fn: lambda}, true)
	}
	return nil
}

// MangleMethodName produces the stable function name a protocol method
// implementation is registered under, consulted by internal/proto when it
// builds the dispatch decision tree.
func MangleMethodName(typeName, protocol, method string) string {
	return fmt.Sprintf("%s__%s__%s", typeName, protocol, method)
}

// emitFnLambda lowers a (possibly multi-arity) ast.Fn to one Core IR
// Lambda. Single-arity fns lower directly; multi-arity fns lower to a
// Lambda over a variadic argument list that dispatches on length via a
// Match, matching §4.3's "multi-arity fn lowers to a dispatcher".
func (em *Emitter) emitFnLambda(fn *ast.Fn) (*coreir.Lambda, error) {
	if len(fn.Methods) == 1 {
		m := fn.Methods[0]
		recurName := em.gensym("fn")
		em.loopFnNames(m.LoopID, recurName)
		body, err := em.emitExpr(m.Body)
		if err != nil {
			return nil, err
		}
		lambda := coreir.Lambda{Params: paramNames(m.Params), Variadic: m.Variadic, Body: body, Name: recurName}
		selfName := fn.SelfName
		if selfName == "" {
			selfName = recurName
		}
		wrapped := coreir.LetRec{
			Bindings: []coreir.RecBinding{{Name: selfName, Init: lambda}},
			Body:     coreir.Var{Name: selfName},
		}
		return &coreir.Lambda{Params: paramNames(m.Params), Variadic: m.Variadic, Body: wrapped, Name: recurName}, nil
	}

	argsName := em.gensym("args")
	var arms []coreir.MatchArm
	for _, m := range fn.Methods {
		recurName := em.gensym("fn")
		em.loopFnNames(m.LoopID, recurName)
		body, err := em.emitExpr(m.Body)
		if err != nil {
			return nil, err
		}
		lambdaBody := coreir.Lambda{Params: paramNames(m.Params), Variadic: m.Variadic, Body: body, Name: recurName}
		call := coreir.App{Fn: lambdaBody, Args: []coreir.Expr{coreir.Var{Name: argsName}}}
		kind := coreir.PatLit
		if m.Variadic {
			kind = coreir.PatWildcard
		}
		arms = append(arms, coreir.MatchArm{
			Pattern: coreir.Pattern{Kind: kind, Value: m.FixedArity},
			Body:    call,
		})
	}
	dispatcher := coreir.Match{Scrutinee: coreir.Var{Name: argsName}, Arms: arms}
	return &coreir.Lambda{Params: []string{argsName}, Variadic: true, Body: dispatcher}, nil
}

func paramNames(params []*env.LocalBinding) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}
