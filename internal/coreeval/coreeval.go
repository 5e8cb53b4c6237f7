// Package coreeval is a minimal tree-walking evaluator over Core IR
// (internal/coreir), standing in for the parts of the host VM's own
// evaluation this module does not implement: the assembler and loader
// named in §1/§6 are external collaborators here, faked by
// internal/hostvm for testing, so nothing downstream of Load ever
// actually runs a form. §1 names the compiler's output as "loadable
// host-VM modules plus a runtime value of the last evaluated form," and
// §2's pipeline ends with "emitted expressions are evaluated -> result
// bound as the value of the form" — this package is that missing step,
// kept deliberately small: literals, var/def plumbing, control flow and
// the handful of Core IR shapes a top-level form can actually produce.
// Host primitives (arithmetic, collection operations) are the fixed
// library named out of scope by §1 and are not modeled here; applying
// one is an evaluation error (an unbound var, or a nil Var root that is
// not callable) rather than a silent no-op.
package coreeval

import (
	"fmt"
	"strings"

	"github.com/lispc-lang/lispc/internal/coreir"
	"github.com/lispc-lang/lispc/internal/env"
)

// Value stands in for a host-VM runtime value: Go-native ints, floats,
// strings, bools, nil, *Closure, *Record, or a []Value/map[Value]Value
// collection.
type Value = interface{}

// Frame is one lexical scope: a flat name->value map plus a parent link,
// the same shape every Let/LetRec/Lambda application pushes one of.
type Frame struct {
	vars   map[string]Value
	parent *Frame
}

func newFrame(parent *Frame) *Frame {
	return &Frame{vars: map[string]Value{}, parent: parent}
}

func (f *Frame) lookup(name string) (Value, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (f *Frame) bind(name string, v Value) {
	f.vars[name] = v
}

// Closure is a captured Lambda: its defining Frame plus the params/body
// the emitter produced for it.
type Closure struct {
	Params   []string
	Variadic bool
	Body     coreir.Expr
	Frame    *Frame
	Name     string
}

// Record is the runtime shape of a coreir.Record value: a tagged map.
type Record struct {
	Type   string
	Fields map[string]Value
}

// ThrownError carries a thrown runtime value through Go's error return
// path so evalTry can catch it without a second, parallel result
// channel.
type ThrownError struct{ Value Value }

func (e *ThrownError) Error() string {
	return fmt.Sprintf("uncaught throw: %v", e.Value)
}

// Evaluator resolves Var/VarRef/Def nodes against the same registry the
// analyzer interned names into, so (def x 1) and a later bare x read
// back the same Var's root.
type Evaluator struct {
	Reg *env.Registry
}

// New builds an Evaluator over reg.
func New(reg *env.Registry) *Evaluator {
	return &Evaluator{Reg: reg}
}

// Eval walks expr, threading frame as the current lexical scope. frame
// may be nil, meaning "no enclosing locals" — top-level on-load bodies
// and bare def initializers both start this way.
func (ev *Evaluator) Eval(expr coreir.Expr, frame *Frame) (Value, error) {
	switch n := expr.(type) {
	case coreir.Lit:
		return n.Value, nil

	case coreir.Var:
		if frame != nil {
			if v, ok := frame.lookup(n.Name); ok {
				return v, nil
			}
		}
		if ns, name, ok := splitNsName(n.Name); ok {
			v, _ := ev.Reg.Intern(ns, name).Get()
			return v, nil
		}
		return nil, fmt.Errorf("coreeval: unbound var %q", n.Name)

	case coreir.VarRef:
		return ev.Reg.Intern(n.Ns, n.Name), nil

	case coreir.Def:
		val, err := ev.Eval(n.Init, frame)
		if err != nil {
			return nil, err
		}
		ev.Reg.Intern(n.Ns, n.Name).SetRoot(val)
		return val, nil

	case coreir.Do:
		return ev.evalStmts(n.Stmts, frame)
	case *coreir.Do:
		return ev.evalStmts(n.Stmts, frame)

	case coreir.Lambda:
		return &Closure{Params: n.Params, Variadic: n.Variadic, Body: n.Body, Frame: frame, Name: n.Name}, nil
	case *coreir.Lambda:
		return &Closure{Params: n.Params, Variadic: n.Variadic, Body: n.Body, Frame: frame, Name: n.Name}, nil

	case coreir.Let:
		init, err := ev.Eval(n.Init, frame)
		if err != nil {
			return nil, err
		}
		child := newFrame(frame)
		child.bind(n.Name, init)
		return ev.Eval(n.Body, child)

	case coreir.LetRec:
		child := newFrame(frame)
		for _, b := range n.Bindings {
			val, err := ev.Eval(b.Init, child)
			if err != nil {
				return nil, err
			}
			child.bind(b.Name, val)
		}
		return ev.Eval(n.Body, child)

	case coreir.If:
		cond, err := ev.Eval(n.Cond, frame)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return ev.Eval(n.Then, frame)
		}
		return ev.Eval(n.Else, frame)

	case coreir.App:
		fn, err := ev.Eval(n.Fn, frame)
		if err != nil {
			return nil, err
		}
		args, err := ev.evalAll(n.Args, frame)
		if err != nil {
			return nil, err
		}
		return ev.apply(fn, args)

	case coreir.TailCall:
		fn, ok := frame.lookup(n.Target)
		if !ok {
			return nil, fmt.Errorf("coreeval: unbound tailcall target %q", n.Target)
		}
		args, err := ev.evalAll(n.Args, frame)
		if err != nil {
			return nil, err
		}
		return ev.apply(fn, args)

	case coreir.Match:
		scrut, err := ev.Eval(n.Scrutinee, frame)
		if err != nil {
			return nil, err
		}
		return ev.evalMatch(scrut, n.Arms, frame)

	case coreir.Try:
		return ev.evalTry(n, frame)

	case coreir.Throw:
		v, err := ev.Eval(n.Expr, frame)
		if err != nil {
			return nil, err
		}
		return nil, &ThrownError{Value: v}

	case coreir.Record:
		fields := map[string]Value{}
		for _, f := range n.Fields {
			v, err := ev.Eval(f.Val, frame)
			if err != nil {
				return nil, err
			}
			fields[f.Name] = v
		}
		return &Record{Type: n.Type, Fields: fields}, nil

	case coreir.RecordAccess:
		target, err := ev.Eval(n.Target, frame)
		if err != nil {
			return nil, err
		}
		rec, ok := target.(*Record)
		if !ok {
			return nil, fmt.Errorf("coreeval: field access on non-record %v", target)
		}
		return rec.Fields[n.Field], nil

	case coreir.List:
		items, err := ev.evalAll(n.Items, frame)
		if err != nil {
			return nil, err
		}
		return items, nil

	case coreir.Map:
		out := map[Value]Value{}
		for _, e := range n.Entries {
			k, err := ev.Eval(e.Key, frame)
			if err != nil {
				return nil, err
			}
			v, err := ev.Eval(e.Val, frame)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil

	default:
		return nil, fmt.Errorf("coreeval: unsupported Core IR node %T", expr)
	}
}

func (ev *Evaluator) evalStmts(stmts []coreir.Expr, frame *Frame) (Value, error) {
	var last Value
	for _, s := range stmts {
		v, err := ev.Eval(s, frame)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (ev *Evaluator) evalAll(exprs []coreir.Expr, frame *Frame) ([]Value, error) {
	out := make([]Value, len(exprs))
	for i, e := range exprs {
		v, err := ev.Eval(e, frame)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (ev *Evaluator) apply(fn Value, args []Value) (Value, error) {
	cl, ok := fn.(*Closure)
	if !ok {
		return nil, fmt.Errorf("coreeval: %v is not callable", fn)
	}
	child := newFrame(cl.Frame)
	fixed := cl.Params
	if cl.Variadic && len(fixed) > 0 {
		fixed = cl.Params[:len(cl.Params)-1]
	}
	for i, p := range fixed {
		if i < len(args) {
			child.bind(p, args[i])
		}
	}
	if cl.Variadic {
		rest := []Value{}
		if len(args) > len(fixed) {
			rest = append(rest, args[len(fixed):]...)
		}
		child.bind(cl.Params[len(cl.Params)-1], rest)
	}
	return ev.Eval(cl.Body, child)
}

func (ev *Evaluator) evalMatch(scrut Value, arms []coreir.MatchArm, frame *Frame) (Value, error) {
	for _, arm := range arms {
		bound, ok := matchPattern(arm.Pattern, scrut, frame)
		if !ok {
			continue
		}
		if arm.Guard != nil {
			g, err := ev.Eval(arm.Guard, bound)
			if err != nil {
				return nil, err
			}
			if !truthy(g) {
				continue
			}
		}
		return ev.Eval(arm.Body, bound)
	}
	return nil, fmt.Errorf("coreeval: no match arm for %v", scrut)
}

func matchPattern(p coreir.Pattern, v Value, frame *Frame) (*Frame, bool) {
	switch p.Kind {
	case coreir.PatWildcard:
		return frame, true
	case coreir.PatVar:
		child := newFrame(frame)
		child.bind(p.Name, v)
		return child, true
	case coreir.PatLit:
		if v == p.Value {
			return frame, true
		}
		return nil, false
	case coreir.PatTaggedRecord:
		rec, ok := v.(*Record)
		if ok && rec.Type == p.Name {
			return frame, true
		}
		return nil, false
	case coreir.PatAnyRecord:
		if _, ok := v.(*Record); ok {
			return frame, true
		}
		if _, ok := v.(map[Value]Value); ok {
			return frame, true
		}
		return nil, false
	case coreir.PatPrimitiveType:
		if primitiveTypeName(v) == p.Name {
			return frame, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func (ev *Evaluator) evalTry(n coreir.Try, frame *Frame) (v Value, err error) {
	v, err = ev.Eval(n.Body, frame)
	if err != nil {
		if thrown, ok := err.(*ThrownError); ok {
			class := classNameOf(thrown.Value)
			for _, c := range n.Catches {
				if c.ClassName != "" && c.ClassName != class {
					continue
				}
				child := newFrame(frame)
				if c.BindName != "" {
					child.bind(c.BindName, thrown.Value)
				}
				v, err = ev.Eval(c.Body, child)
				break
			}
		}
	}
	if n.Finally != nil {
		if _, ferr := ev.Eval(n.Finally, frame); ferr != nil {
			return v, ferr
		}
	}
	return v, err
}

func truthy(v Value) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// primitiveTypeName maps a value to a primitive name of internal/proto's
// order so PatPrimitiveType arms can match it. Only nil, boolean,
// integer, float, string and function are told apart; any other value
// is "other".
func primitiveTypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "boolean"
	case int64, int:
		return "integer"
	case float64:
		return "float"
	case string:
		return "string"
	case *Closure:
		return "function"
	default:
		return "other"
	}
}

func classNameOf(v Value) string {
	if rec, ok := v.(*Record); ok {
		return rec.Type
	}
	return fmt.Sprintf("%T", v)
}

// splitNsName splits a Core IR Var's "ns/name" form, as produced by the
// emitter for a non-reified global reference (internal/emitter/emit_expr.go).
func splitNsName(qualified string) (ns, name string, ok bool) {
	i := strings.LastIndex(qualified, "/")
	if i < 0 {
		return "", "", false
	}
	return qualified[:i], qualified[i+1:], true
}
