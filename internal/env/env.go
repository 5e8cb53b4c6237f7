// Package env implements the layered lexical/namespace environment the
// analyzer threads through every node (§3 Environment). The lexical
// side is an immutable-with-copy-on-push chain of frames, grounded on the
// teacher's parent-linked eval.Environment; the namespace side is
// process-wide mutable state guarded by a registry (see namespace.go).
package env

import "fmt"

// BindingKind classifies a LocalBinding by the form that introduced it.
type BindingKind int

const (
	KindArg BindingKind = iota
	KindLet
	KindLoop
	KindCatch
)

// LocalBinding is one named local in a lexical frame.
type LocalBinding struct {
	ID          int
	Name        string
	Kind        BindingKind
	IsVariadic  bool
	IsUnderscore bool
	// Shadows points to the earlier binding of the same name (if any) that
	// this one shadows, in the same or an enclosing frame, letting
	// diagnostics report the shadow chain.
	Shadows *LocalBinding
}

// LoopTarget identifies a `loop*`/`fn_method` as a `recur` target: this module's
// "loop id" plus its expected argument count.
type LoopTarget struct {
	ID    int
	Arity int
}

// Frame is one lexical scope layer: a binding map plus the compile-time
// bookkeeping the analyzer needs while inside it (current loop target,
// try/catch depth, tail-position flag).
type Frame struct {
	locals        map[string]*LocalBinding
	loop          *LoopTarget
	tryCatchDepth int
	inTailPos     bool
}

// Env is a cons-cell of Frames over a shared, process-wide Registry. Pushing
// a frame never mutates the receiver: it returns a new Env sharing the
// parent chain, matching the "immutable-with-copy-on-push" design note.
type Env struct {
	frame     *Frame
	parent    *Env
	Registry  *Registry
	CurrentNS string

	// Eval holds the result of the most recent expression analyzed in this
	// environment — this module's "eval slot".
	Eval interface{}

	nextBindingID *int
}

// NewRoot creates a fresh root Env with an empty lexical chain over reg.
func NewRoot(reg *Registry, ns string) *Env {
	id := 0
	return &Env{
		frame:         &Frame{locals: map[string]*LocalBinding{}},
		Registry:      reg,
		CurrentNS:     ns,
		nextBindingID: &id,
	}
}

// PushFrame returns a child Env with a fresh, empty lexical frame — the
// shape used by `fn_method`/`let*`/`loop*`/`catch` bodies.
func (e *Env) PushFrame() *Env {
	return &Env{
		frame:         &Frame{locals: map[string]*LocalBinding{}, loop: e.frame.loop, tryCatchDepth: e.frame.tryCatchDepth},
		parent:        e,
		Registry:      e.Registry,
		CurrentNS:     e.CurrentNS,
		nextBindingID: e.nextBindingID,
	}
}

// BindLocal returns a new Env extending the current frame with one more
// local binding (copy-on-push: the old Env is left untouched so the caller
// can still see the pre-binding scope, e.g. to analyze `(let [x x] ...)`'s
// init against the outer `x`).
func (e *Env) BindLocal(name string, kind BindingKind, variadic bool) (*Env, *LocalBinding) {
	*e.nextBindingID++
	lb := &LocalBinding{ID: *e.nextBindingID, Name: name, Kind: kind, IsVariadic: variadic, IsUnderscore: name == "_"}
	if prior, ok := e.frame.locals[name]; ok {
		lb.Shadows = prior
	} else if e.parent != nil {
		if prior, _, ok := e.parent.lookupLocal(name); ok {
			lb.Shadows = prior
		}
	}
	newLocals := make(map[string]*LocalBinding, len(e.frame.locals)+1)
	for k, v := range e.frame.locals {
		newLocals[k] = v
	}
	newLocals[name] = lb
	return &Env{
		frame:         &Frame{locals: newLocals, loop: e.frame.loop, tryCatchDepth: e.frame.tryCatchDepth, inTailPos: e.frame.inTailPos},
		parent:        e.parent,
		Registry:      e.Registry,
		CurrentNS:     e.CurrentNS,
		nextBindingID: e.nextBindingID,
	}, lb
}

// lookupLocal searches innermost frame first, matching §4.2's resolution
// order's first step.
func (e *Env) lookupLocal(name string) (*LocalBinding, *Env, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if lb, ok := cur.frame.locals[name]; ok {
			return lb, cur, true
		}
	}
	return nil, nil, false
}

// LookupLocal is the exported form of lookupLocal for the analyzer.
func (e *Env) LookupLocal(name string) (*LocalBinding, bool) {
	lb, _, ok := e.lookupLocal(name)
	return lb, ok
}

// WithLoopTarget returns a new Env whose current frame is tagged as a
// `recur` target with the given arity (used by `loop*` and `fn_method`).
func (e *Env) WithLoopTarget(id, arity int) *Env {
	nf := *e.frame
	nf.loop = &LoopTarget{ID: id, Arity: arity}
	return &Env{frame: &nf, parent: e.parent, Registry: e.Registry, CurrentNS: e.CurrentNS, nextBindingID: e.nextBindingID}
}

// LoopTarget returns the innermost recur target, if any.
func (e *Env) LoopTarget() (*LoopTarget, bool) {
	if e.frame.loop == nil {
		return nil, false
	}
	return e.frame.loop, true
}

// WithTailPosition returns a new Env with the tail-position flag set,
// used by the analyzer to validate §4.2's recur-placement rule.
func (e *Env) WithTailPosition(tail bool) *Env {
	nf := *e.frame
	nf.inTailPos = tail
	return &Env{frame: &nf, parent: e.parent, Registry: e.Registry, CurrentNS: e.CurrentNS, nextBindingID: e.nextBindingID}
}

// InTailPosition reports whether the analyzer is currently analyzing a
// tail-position expression.
func (e *Env) InTailPosition() bool { return e.frame.inTailPos }

// WithTryCatchDepth bumps the try/catch nesting depth recorded on the
// current frame.
func (e *Env) WithTryCatchDepth(delta int) *Env {
	nf := *e.frame
	nf.tryCatchDepth += delta
	return &Env{frame: &nf, parent: e.parent, Registry: e.Registry, CurrentNS: e.CurrentNS, nextBindingID: e.nextBindingID}
}

func (e *Env) String() string {
	return fmt.Sprintf("Env(ns=%s locals=%d)", e.CurrentNS, len(e.frame.locals))
}
