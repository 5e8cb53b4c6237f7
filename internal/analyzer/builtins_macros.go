package analyzer

import (
	"fmt"

	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/rval"
)

// BootstrapCoreMacros interns the small set of macros the analyzer itself
// must be able to expand without a running host VM: `when`, `cond`, `->`,
// and `->>`. Every compile needs these before the first user form is macro
// expanded, since user code routinely expands through them before ever
// touching a user-defined macro. Everything else (defmacro-produced
// macros) is expanded via HostEval once a host VM is wired in.
func BootstrapCoreMacros(reg *env.Registry) {
	ns := "clojure.core"
	intern := func(name string, fn MacroFn) {
		v := reg.Intern(ns, name)
		v.IsMacro = true
		v.SetRoot(fn)
	}
	intern("when", whenMacro)
	intern("cond", condMacro)
	intern("->", threadFirstMacro)
	intern("->>", threadLastMacro)
}

func sym(name string) *rval.Symbol { return rval.NewSymbol("", name, rval.Pos{}) }

func list(items ...rval.Value) *rval.List { return &rval.List{Items: items} }

// whenMacro expands `(when test body...)` to `(if test (do body...) nil)`.
func whenMacro(args []rval.Value) (rval.Value, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("when requires a test expression")
	}
	test := args[0]
	body := args[1:]
	var thenForm rval.Value
	if len(body) == 0 {
		thenForm = rval.Nil{}
	} else {
		doItems := append([]rval.Value{sym("do")}, body...)
		thenForm = list(doItems...)
	}
	return list(sym("if"), test, thenForm, rval.Nil{}), nil
}

// condMacro expands `(cond t1 e1 t2 e2 ... [:else eN])` to nested `if`s.
func condMacro(args []rval.Value) (rval.Value, error) {
	if len(args) == 0 {
		return rval.Nil{}, nil
	}
	if len(args) == 1 {
		return nil, fmt.Errorf("cond requires an even number of test/expr forms")
	}
	test := args[0]
	expr := args[1]
	rest := args[2:]
	elseForm, err := condMacro(rest)
	if err != nil {
		return nil, err
	}
	if kw, ok := test.(*rval.Keyword); ok && kw.Ns == "" && kw.Name == "else" {
		return expr, nil
	}
	return list(sym("if"), test, expr, elseForm), nil
}

// threadFirstMacro expands `(-> x (f a) g)` to `(g (f x a))`: each step
// inserts the threaded value as the first argument.
func threadFirstMacro(args []rval.Value) (rval.Value, error) {
	return threadMacro(args, true)
}

// threadLastMacro expands `(->> x (f a) g)` to `(g (f a x))`: each step
// appends the threaded value as the last argument.
func threadLastMacro(args []rval.Value) (rval.Value, error) {
	return threadMacro(args, false)
}

func threadMacro(args []rval.Value, first bool) (rval.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("-> and ->> require a seed expression")
	}
	cur := args[0]
	for _, step := range args[1:] {
		switch s := step.(type) {
		case *rval.List:
			var items []rval.Value
			if first {
				items = append([]rval.Value{s.Items[0], cur}, s.Items[1:]...)
			} else {
				items = append(append([]rval.Value{}, s.Items...), cur)
			}
			cur = list(items...)
		case *rval.Symbol:
			cur = list(s, cur)
		default:
			return nil, fmt.Errorf("thread step must be a symbol or list form")
		}
	}
	return cur, nil
}
