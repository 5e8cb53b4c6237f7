// Package proto lowers defprotocol/deftype*/extend-type into the flat
// pattern-dispatch modules §4.4 describes: one module per protocol,
// one exported function per method, each function a single pattern match
// on its first argument's shape. Grounded on a decision-tree compiler
// (pattern matrix -> SwitchNode/LeafNode/FailNode), but generalized from
// its general column-by-column matrix specialization down to what
// protocol dispatch ever needs: the matrix has exactly one column (the
// dispatched argument), so a column-selection/row-specialization loop
// collapses to a single switch built directly from the frozen primitive
// order plus the alphabetically sorted tagged-record implementations.
package proto

import (
	"sort"

	"github.com/lispc-lang/lispc/internal/coreir"
	"github.com/lispc-lang/lispc/internal/modctx"
)

// DispatchNode is the LeafNode/FailNode/SwitchNode shape a method's
// dispatch tree compiles to.
// A compiled protocol method only ever produces one SwitchNode at the
// root (over the dispatched argument's shape) whose every case is a
// LeafNode, plus a FailNode default; the interface is kept rather than
// inlined so a future multi-argument dispatch extension has somewhere to
// plug in further specialization, the way dtree's matrix compiler does.
type DispatchNode interface {
	isDispatchNode()
}

// LeafNode tail-calls the mangled implementation function for the arm
// that matched.
type LeafNode struct {
	FnName string
	Params []string
}

func (LeafNode) isDispatchNode() {}

// FailNode is the catch-all arm: no implementation matched the
// dispatched value's shape (§4.4/§7 PR001).
type FailNode struct {
	Protocol string
	Method   string
}

func (FailNode) isDispatchNode() {}

// SwitchNode is the dispatch decision itself: one case per implementing
// type, ordered primitives-then-tagged-records-then-default per spec
// §4.2's tie-break rule and §4.4's "ordering is stable and total".
type SwitchNode struct {
	Cases   []switchCase
	Default DispatchNode
}

func (SwitchNode) isDispatchNode() {}

type switchCase struct {
	pattern coreir.Pattern
	leaf    LeafNode
}

// buildSwitch arranges protocol's implementations of method into the
// frozen dispatch order: primitives by the numeric table in order.go,
// then tagged records alphabetically, matching dtree's buildSwitch
// (group rows by discriminator, sorted) collapsed to this one column.
func buildSwitch(protocol, method string, impls []*Impl) *SwitchNode {
	var primCases, recordCases []switchCase
	for _, impl := range impls {
		fnName, ok := impl.MethodFns[method]
		if !ok {
			continue
		}
		leaf := LeafNode{FnName: fnName}
		if impl.IsPrimitive {
			primCases = append(primCases, switchCase{
				pattern: coreir.Pattern{Kind: coreir.PatPrimitiveType, Name: impl.TypeName},
				leaf:    leaf,
			})
		} else {
			recordCases = append(recordCases, switchCase{
				pattern: coreir.Pattern{Kind: coreir.PatTaggedRecord, Name: impl.TypeName},
				leaf:    leaf,
			})
		}
	}
	sort.Slice(primCases, func(i, j int) bool {
		ii, _ := PrimitiveIndex(primCases[i].pattern.Name)
		jj, _ := PrimitiveIndex(primCases[j].pattern.Name)
		return ii < jj
	})
	sort.Slice(recordCases, func(i, j int) bool {
		return recordCases[i].pattern.Name < recordCases[j].pattern.Name
	})
	cases := append(primCases, recordCases...)
	return &SwitchNode{Cases: cases, Default: FailNode{Protocol: protocol, Method: method}}
}

// compileMethod turns method's SwitchNode into one Core IR Lambda: the
// dispatched argument plus the method's remaining declared parameters,
// pattern-matching the first parameter and tail-calling the matched
// implementation with every parameter forwarded unchanged.
func compileMethod(method MethodSig, sw *SwitchNode) *coreir.Lambda {
	params := dispatchParamNames(method.Arity)
	self := params[0]
	args := make([]coreir.Expr, len(params))
	for i, p := range params {
		args[i] = coreir.Var{Name: p}
	}
	arms := make([]coreir.MatchArm, 0, len(sw.Cases)+2)
	for _, c := range sw.Cases {
		arms = append(arms, coreir.MatchArm{
			Pattern: c.pattern,
			Body:    coreir.App{Fn: coreir.Var{Name: c.leaf.FnName}, Args: args},
		})
	}
	fail := sw.Default.(FailNode)
	notImplemented := coreir.Throw{Expr: coreir.Record{Type: "NotImplemented", Fields: []coreir.RecordField{
		{Name: "protocol", Val: coreir.Lit{Kind: coreir.LitKeyword, Value: fail.Protocol}},
		{Name: "method", Val: coreir.Lit{Kind: coreir.LitKeyword, Value: fail.Method}},
	}}}
	// An untagged record (one with no recognized :type, e.g. a bare map
	// literal) is distinct from "anything else": it gets its own
	// NotImplemented arm ahead of the true catch-all, so the two failure
	// modes stay distinguishable in a match trace even though both raise
	// the same exception (§4.4/§8).
	arms = append(arms, coreir.MatchArm{
		Pattern: coreir.Pattern{Kind: coreir.PatAnyRecord},
		Body:    notImplemented,
	})
	arms = append(arms, coreir.MatchArm{
		Pattern: coreir.Pattern{Kind: coreir.PatWildcard},
		Body:    notImplemented,
	})
	return &coreir.Lambda{
		Params: params,
		Body:   coreir.Match{Scrutinee: coreir.Var{Name: self}, Arms: arms},
		Name:   method.Name,
	}
}

func dispatchParamNames(arity int) []string {
	if arity < 1 {
		arity = 1
	}
	names := make([]string, arity)
	names[0] = "this"
	for i := 1; i < arity; i++ {
		names[i] = "arg" + itoaProto(i+1)
	}
	return names
}

func itoaProto(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// CompileInto builds protocol's dispatch functions and registers them
// into ctx under a module named after the protocol. Calling it again
// after a new AddImpl re-derives every method's switch from scratch and
// re-registers, matching §4.4's "extend-type appends a branch to
// the dispatch body and re-emits the module" while keeping the module's
// name (hence its identity) stable across re-emission.
func (r *Registry) CompileInto(ctx *modctx.Context, protocol string) {
	r.mu.Lock()
	p, ok := r.protocols[protocol]
	if !ok {
		r.mu.Unlock()
		return
	}
	methods := append([]MethodSig(nil), p.methods...)
	impls := make([]*Impl, 0, len(p.impls))
	for _, impl := range p.impls {
		impls = append(impls, impl)
	}
	r.mu.Unlock()

	ctx.FlushOne(protocol)
	ctx.AddAttr(protocol, coreir.Attr{Key: "protocol", Val: protocol})
	for _, m := range methods {
		sw := buildSwitch(protocol, m.Name, impls)
		lambda := compileMethod(m, sw)
		ctx.AddFunction(protocol, coreir.Func{Name: m.Name, Fn: lambda}, true)
	}
}

// CompileSatisfies builds a `satisfies?`-shaped predicate function for
// protocol: true for exactly the implementing types, false otherwise
// (§4.4: "`satisfies?` emits a boolean-returning predicate over the
// same discriminator"). Marker protocols (no methods) still produce one
// of these even though CompileInto has no method lambdas to emit for
// them.
func (r *Registry) CompileSatisfies(ctx *modctx.Context, protocol string) {
	extenders := r.Extenders(protocol)
	arms := make([]coreir.MatchArm, 0, len(extenders)+1)
	for _, t := range extenders {
		kind := coreir.PatTaggedRecord
		if IsKnownPrimitive(t) {
			kind = coreir.PatPrimitiveType
		}
		arms = append(arms, coreir.MatchArm{
			Pattern: coreir.Pattern{Kind: kind, Name: t},
			Body:    coreir.Lit{Kind: coreir.LitBool, Value: true},
		})
	}
	arms = append(arms, coreir.MatchArm{
		Pattern: coreir.Pattern{Kind: coreir.PatWildcard},
		Body:    coreir.Lit{Kind: coreir.LitBool, Value: false},
	})
	lambda := &coreir.Lambda{
		Params: []string{"this"},
		Body:   coreir.Match{Scrutinee: coreir.Var{Name: "this"}, Arms: arms},
		Name:   "satisfies?",
	}
	ctx.AddFunction(protocol, coreir.Func{Name: "satisfies?", Fn: lambda}, true)
}
