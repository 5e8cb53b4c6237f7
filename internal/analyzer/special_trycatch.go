package analyzer

import (
	"github.com/lispc-lang/lispc/internal/ast"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/rval"
)

// analyzeTry lowers `(try body... (catch Class e body...)* (finally
// body...)?)`. catch/finally are only meaningful nested inside try, so
// they are not entries in the special-form dispatch table; try's own
// lowering recognizes them by leading symbol while splitting its body.
func analyzeTry(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	var bodyForms []rval.Value
	var catches []*ast.Catch
	var finallyForms []rval.Value
	seenCatch := false
	seenFinally := false

	for _, item := range l.Items[1:] {
		clauseList, ok := item.(*rval.List)
		if ok && len(clauseList.Items) > 0 {
			if headSym, ok := clauseList.Items[0].(*rval.Symbol); ok && headSym.Ns == "" {
				switch headSym.Name {
				case "catch":
					if seenFinally {
						return nil, e, badForm(a, l, "catch clause must precede finally")
					}
					seenCatch = true
					c, err := analyzeCatchClause(a, clauseList, e)
					if err != nil {
						return nil, e, err
					}
					catches = append(catches, c)
					continue
				case "finally":
					if seenFinally {
						return nil, e, badForm(a, l, "try may have at most one finally clause")
					}
					seenFinally = true
					finallyForms = clauseList.Items[1:]
					continue
				}
			}
		}
		if seenCatch || seenFinally {
			return nil, e, badForm(a, l, "try body forms must precede catch/finally clauses")
		}
		bodyForms = append(bodyForms, item)
	}

	// try's own body is not a tail position, so it gets
	// WithTailPosition(false) here. Catch bodies (below) inherit the
	// enclosing tail flag; finally's body is always analyzed with
	// WithTailPosition(false).
	bodyEnv := e.WithTryCatchDepth(1).WithTailPosition(false)
	body, _, err := a.analyzeBody(bodyForms, bodyEnv)
	if err != nil {
		return nil, e, err
	}

	var finallyNode ast.Node
	if seenFinally {
		n, _, err := a.analyzeBody(finallyForms, e.WithTailPosition(false))
		if err != nil {
			return nil, e, err
		}
		finallyNode = n
	}

	return ast.Try{Base: ast.NewBase(ast.OpTry, e, l, nil), Body: body, Catches: catches, Finally: finallyNode}, e, nil
}

// analyzeCatchClause lowers one `(catch ClassOrDefault binding body...)`
// clause. ":default" selects the catch-all class (ClassName == "").
func analyzeCatchClause(a *Analyzer, l *rval.List, e *env.Env) (*ast.Catch, error) {
	if len(l.Items) < 3 {
		return nil, badForm(a, l, "catch requires a class, a binding, and a body")
	}
	className := ""
	switch c := l.Items[1].(type) {
	case *rval.Symbol:
		className = c.String()
	case *rval.Keyword:
		if c.Name != "default" {
			return nil, badForm(a, l, "catch keyword selector must be :default")
		}
	default:
		return nil, badForm(a, l, "catch class must be a symbol or :default")
	}
	bindSym, ok := l.Items[2].(*rval.Symbol)
	if !ok {
		return nil, badForm(a, l, "catch binding must be a symbol")
	}
	catchEnv, lb := e.BindLocal(bindSym.Name, env.KindCatch, false)
	body, _, err := a.analyzeBody(l.Items[3:], catchEnv.WithTailPosition(e.InTailPosition()))
	if err != nil {
		return nil, err
	}
	return &ast.Catch{
		Base:      ast.NewBase(ast.OpCatch, catchEnv, l, nil),
		ClassName: className,
		Binding:   lb,
		Body:      body,
	}, nil
}
