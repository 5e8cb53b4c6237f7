package analyzer

import (
	"github.com/lispc-lang/lispc/internal/ast"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/rval"
)

// analyzeDef lowers `(def name doc? init?)`: interns name's Var in the
// current namespace (a side effect visible to every subsequent form, per
// §4.2's "top-level forms are analyzed left to right against the
// accumulating environment") and, if name's metadata carries :macro true,
// marks the Var as a macro so later forms macro-expand through it.
func analyzeDef(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) < 2 {
		return nil, e, badForm(a, l, "def requires a name symbol")
	}
	nameSym, ok := l.Items[1].(*rval.Symbol)
	if !ok {
		return nil, e, badForm(a, l, "def requires a name symbol")
	}
	rest := l.Items[2:]
	if len(rest) > 0 {
		if _, ok := rest[0].(rval.Str); ok && len(rest) > 1 {
			rest = rest[1:]
		}
	}
	v := a.Reg.Intern(e.CurrentNS, nameSym.Name)
	isMacro := false
	if meta := nameSym.Meta(); meta != nil {
		if mv, ok := meta.Get("macro"); ok {
			if b, ok := mv.(rval.Bool); ok && b.V {
				isMacro = true
			}
		}
	}
	v.IsMacro = isMacro

	var initNode ast.Node
	if len(rest) > 0 {
		n, _, err := a.Analyze(rest[0], e.WithTailPosition(false))
		if err != nil {
			return nil, e, err
		}
		initNode = n
	}
	return ast.Def{
		Base:    ast.NewBase(ast.OpDef, e, l, nil),
		Name:    nameSym.Name,
		Var:     v,
		Init:    initNode,
		IsMacro: isMacro,
	}, e, nil
}
