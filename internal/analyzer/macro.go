package analyzer

import (
	"github.com/lispc-lang/lispc/internal/cerrs"
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/rval"
)

// MacroFn is a built-in macro implemented directly as a Go closure, stored
// as a Var's root value and type-asserted by macroexpand1. User-defined
// macros (interned by a prior `(defmacro ...)` compile) carry IsMacro=true
// on their Var but no MacroFn root; those are dispatched through HostEval
// instead, since their body must actually run to produce an expansion.
type MacroFn func(args []rval.Value) (rval.Value, error)

var specialFormNameSet = map[string]bool{
	"def": true, "if": true, "do": true, "let*": true, "loop*": true,
	"recur": true, "fn*": true, "letfn*": true, "quote": true, "var": true,
	"throw": true, "try": true, "catch": true, "finally": true, "new": true,
	".": true, "set!": true, "case*": true, "reify*": true, "deftype*": true,
	"defprotocol": true, "extend-type": true, "import*": true,
	"monitor-enter": true, "monitor-exit": true, "receive*": true,
	"on-load*": true,
}

// macroexpand1 expands a form exactly once if its head symbol names a
// macro Var, per §4.2: "Macro expansion happens before special-form
// dispatch; special forms are never macro-expanded even if shadowed by a
// like-named macro." It returns the form unchanged (ok=false) when no
// expansion applies.
func (a *Analyzer) macroexpand1(form rval.Value, e *env.Env) (rval.Value, bool, error) {
	l, ok := form.(*rval.List)
	if !ok || len(l.Items) == 0 {
		return form, false, nil
	}
	headSym, ok := l.Items[0].(*rval.Symbol)
	if !ok {
		return form, false, nil
	}
	if specialFormNameSet[headSym.Name] && headSym.Ns == "" {
		return form, false, nil
	}
	if headSym.Ns == "" {
		if _, isLocal := e.LookupLocal(headSym.Name); isLocal {
			return form, false, nil
		}
	}
	v, ok := a.Reg.Resolve(e.CurrentNS, headSym.Ns, headSym.Name)
	if !ok || !v.IsMacro {
		return form, false, nil
	}
	args := l.Items[1:]
	if root, ok := v.Get(); ok {
		if fn, ok := root.(MacroFn); ok {
			expanded, err := fn(args)
			if err != nil {
				d := cerrs.New(cerrs.KindMacroExpansionFailed, cerrs.AN008, toCerrsPos(l.Pos), "macro %s expansion failed", headSym.String()).Wrap(err)
				return nil, true, d
			}
			return expanded, true, nil
		}
	}
	if a.HostEval != nil {
		expanded, err := a.HostEval.InvokeMacro(v, args)
		if err != nil {
			d := cerrs.New(cerrs.KindMacroExpansionFailed, cerrs.AN008, toCerrsPos(l.Pos), "macro %s expansion failed", headSym.String()).Wrap(err)
			return nil, true, d
		}
		return expanded, true, nil
	}
	d := cerrs.New(cerrs.KindMacroExpansionFailed, cerrs.AN008, toCerrsPos(l.Pos),
		"macro %s has no host evaluator available to run its body", headSym.String())
	return nil, true, d
}

// macroexpand repeatedly expands form to a fixed point (§4.2: macro
// expansion is a loop, not a single step, so a macro that expands to
// another macro call is handled without analyzer-side recursion tricks).
func (a *Analyzer) macroexpand(form rval.Value, e *env.Env) (rval.Value, error) {
	for {
		next, expanded, err := a.macroexpand1(form, e)
		if err != nil {
			return nil, err
		}
		if !expanded {
			return form, nil
		}
		form = next
	}
}
