package analyzer

import (
	"github.com/lispc-lang/lispc/internal/ast"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/rval"
)

// analyzeFn lowers `fn*`, in both its single-arity `(fn* [params] body)`
// and multi-arity `(fn* ([p1] b1) ([p2...] b2))` shapes, plus an optional
// leading self-reference name for recursive anonymous fns. Arity
// validation follows §4.2: arities must be pairwise distinct, at
// most one variadic method, and a variadic method's fixed-arg count must
// be >= every fixed method's arg count.
func analyzeFn(a *Analyzer, l *rval.List, e *env.Env) (ast.Node, *env.Env, error) {
	items := l.Items[1:]
	var selfName string
	var selfLocal *env.LocalBinding
	fnEnv := e
	if len(items) > 0 {
		if s, ok := items[0].(*rval.Symbol); ok && s.Ns == "" {
			selfName = s.Name
			items = items[1:]
		}
	}

	var methodForms [][]rval.Value
	if len(items) > 0 {
		if _, ok := items[0].(*rval.Vector); ok {
			methodForms = [][]rval.Value{items}
		} else {
			for _, it := range items {
				ml, ok := it.(*rval.List)
				if !ok {
					return nil, e, badForm(a, l, "fn* arity must be a list (params body...)")
				}
				methodForms = append(methodForms, ml.Items)
			}
		}
	}
	if len(methodForms) == 0 {
		return nil, e, badForm(a, l, "fn* requires at least one arity")
	}

	if selfName != "" {
		var selfEnv *env.Env
		selfEnv, selfLocal = fnEnv.BindLocal(selfName, env.KindArg, false)
		fnEnv = selfEnv
	}

	methods := make([]*ast.FnMethod, 0, len(methodForms))
	seenFixed := map[int]bool{}
	variadicSeen := false
	variadicArity := -1
	minFixed, maxFixed := -1, -1
	var fixedArities []int

	for _, mf := range methodForms {
		if len(mf) == 0 {
			return nil, e, badForm(a, l, "fn* arity requires a parameter vector")
		}
		paramsVec, ok := mf[0].(*rval.Vector)
		if !ok {
			return nil, e, badForm(a, l, "fn* arity must start with a parameter vector")
		}
		loopID := a.freshLoopID()
		methodEnv := fnEnv.PushFrame()
		var params []*env.LocalBinding
		variadic := false
		fixedCount := 0
		for i := 0; i < len(paramsVec.Items); i++ {
			ps, ok := paramsVec.Items[i].(*rval.Symbol)
			if !ok {
				return nil, e, badForm(a, l, "fn* parameters must be symbols")
			}
			if ps.Name == "&" {
				if i+1 >= len(paramsVec.Items) {
					return nil, e, badForm(a, l, "fn* variadic marker & requires a following binding")
				}
				restSym, ok := paramsVec.Items[i+1].(*rval.Symbol)
				if !ok {
					return nil, e, badForm(a, l, "fn* variadic binding must be a symbol")
				}
				var lb *env.LocalBinding
				methodEnv, lb = methodEnv.BindLocal(restSym.Name, env.KindArg, true)
				params = append(params, lb)
				variadic = true
				i++
				continue
			}
			var lb *env.LocalBinding
			methodEnv, lb = methodEnv.BindLocal(ps.Name, env.KindArg, false)
			params = append(params, lb)
			fixedCount++
		}
		if variadic {
			if variadicSeen {
				d := newMultipleVariadic(toCerrsPos(l.Pos), "fn* may have at most one variadic arity")
				a.Report.AddError(d)
				return nil, e, d
			}
			variadicSeen = true
			variadicArity = fixedCount
		} else {
			if seenFixed[fixedCount] {
				d := newDuplicateArity(toCerrsPos(l.Pos), "fn* has two methods of the same fixed arity")
				a.Report.AddError(d)
				return nil, e, d
			}
			seenFixed[fixedCount] = true
			fixedArities = append(fixedArities, fixedCount)
			if minFixed == -1 || fixedCount < minFixed {
				minFixed = fixedCount
			}
			if fixedCount > maxFixed {
				maxFixed = fixedCount
			}
		}

		methodEnv = methodEnv.WithLoopTarget(loopID, len(params))
		bodyEnv := methodEnv.WithTailPosition(true)
		body, _, err := a.analyzeBody(mf[1:], bodyEnv)
		if err != nil {
			return nil, e, err
		}
		methods = append(methods, &ast.FnMethod{
			Base:       ast.NewBase(ast.OpFnMethod, methodEnv, nil, nil),
			Params:     params,
			Variadic:   variadic,
			FixedArity: fixedCount,
			LoopID:     loopID,
			Body:       body,
		})
	}

	if variadicSeen && variadicArity < maxFixed {
		d := newInvalidVariadicArity(toCerrsPos(l.Pos), "fn* variadic arity must be >= every fixed arity")
		a.Report.AddError(d)
		return nil, e, d
	}

	return ast.Fn{
		Base:          ast.NewBase(ast.OpFn, e, l, nil),
		SelfName:      selfName,
		SelfLocal:     selfLocal,
		Methods:       methods,
		Variadic:      variadicSeen,
		FixedArities:  fixedArities,
		MinFixedArity: minFixed,
		MaxFixedArity: maxFixed,
		VariadicArity: variadicArity,
	}, e, nil
}
