package analyzer

import (
	"github.com/lispc-lang/lispc/internal/ast"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/rval"
)

// analyzeReceive lowers `(receive* (pattern body...)* (after timeout
// body...)?)`: the host VM's selective-receive block. Guards are not yet
// part of the reader grammar's clause shape, so ReceiveClause.Guard is
// always nil here; the field exists for a host VM that adds `:when` later.
func analyzeReceive(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	var clauses []ast.ReceiveClause
	var after *ast.After

	for _, item := range l.Items[1:] {
		cl, ok := item.(*rval.List)
		if !ok || len(cl.Items) < 2 {
			return nil, e, badForm(a, l, "receive* clause must be (pattern body...) or (after timeout body...)")
		}
		if headSym, ok := cl.Items[0].(*rval.Symbol); ok && headSym.Ns == "" && headSym.Name == "after" {
			if after != nil {
				return nil, e, badForm(a, l, "receive* may have at most one after clause")
			}
			timeout, _, err := a.Analyze(cl.Items[1], e.WithTailPosition(false))
			if err != nil {
				return nil, e, err
			}
			body, _, err := a.analyzeBody(cl.Items[2:], e)
			if err != nil {
				return nil, e, err
			}
			after = &ast.After{Base: ast.NewBase(ast.OpAfter, e, cl, nil), Timeout: timeout, Body: body}
			continue
		}
		body, _, err := a.analyzeBody(cl.Items[1:], e)
		if err != nil {
			return nil, e, err
		}
		clauses = append(clauses, ast.ReceiveClause{Pattern: cl.Items[0], Body: body})
	}

	return ast.Receive{Base: ast.NewBase(ast.OpReceive, e, l, nil), Clauses: clauses, After: after}, e, nil
}
