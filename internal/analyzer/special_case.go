package analyzer

import (
	"github.com/lispc-lang/lispc/internal/ast"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/rval"
)

// analyzeCase lowers `(case* test pat1 expr1 pat2 expr2 ... default)`: an
// odd trailing form after a complete set of pattern/expr pairs is the
// mandatory default, matching the dense-match shape the emitter compiles
// directly to a coreir.Match (§4.3).
func analyzeCase(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	if len(l.Items) < 3 {
		return nil, e, badForm(a, l, "case* requires a test expression and a default")
	}
	test, _, err := a.Analyze(l.Items[1], e.WithTailPosition(false))
	if err != nil {
		return nil, e, err
	}
	rest := l.Items[2:]
	if len(rest)%2 == 0 {
		return nil, e, badForm(a, l, "case* requires a trailing default expression")
	}
	var clauses []ast.CaseClause
	for i := 0; i+1 < len(rest); i += 2 {
		body, _, err := a.Analyze(rest[i+1], e)
		if err != nil {
			return nil, e, err
		}
		clauses = append(clauses, ast.CaseClause{Pattern: rest[i], Body: body})
	}
	defaultNode, _, err := a.Analyze(rest[len(rest)-1], e)
	if err != nil {
		return nil, e, err
	}
	return ast.Case{Base: ast.NewBase(ast.OpCase, e, l, nil), Test: test, Clauses: clauses, Default: defaultNode}, e, nil
}
