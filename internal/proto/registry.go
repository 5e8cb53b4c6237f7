package proto

import (
	"sort"
	"sync"

	"github.com/lispc-lang/lispc/internal/cerrs"
)

// MethodSig is one protocol method's name and declared arity, parsed out
// of a defprotocol form by the analyzer and handed here unchanged.
type MethodSig struct {
	Name  string
	Arity int
}

// Impl records one implementing type's (or host primitive's) method
// bodies for a single protocol, keyed by the mangled function name the
// emitter registered each method under (internal/emitter.MangleMethodName).
type Impl struct {
	TypeName    string
	IsPrimitive bool
	MethodFns   map[string]string // method name -> mangled fn name
}

type protocolEntry struct {
	name    string
	methods []MethodSig
	impls   map[string]*Impl // keyed by TypeName
}

// Registry tracks every protocol seen during a compile and the set of
// types currently extending it, so a protocol's dispatch module can be
// rebuilt whenever extend-type adds a new implementation (§4.4:
// "extend-type appends a branch to the dispatch body and re-emits the
// module"; the protocol module's identity stays stable across
// re-emission since the module name never changes).
type Registry struct {
	mu        sync.Mutex
	protocols map[string]*protocolEntry
}

func NewRegistry() *Registry {
	return &Registry{protocols: map[string]*protocolEntry{}}
}

// DefineProtocol records protocol's method signature table. Calling it
// again for an already-known name is a no-op; defprotocol forms are only
// ever analyzed once per protocol name within a compile.
func (r *Registry) DefineProtocol(name string, methods []MethodSig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.protocols[name]; ok {
		return
	}
	r.protocols[name] = &protocolEntry{name: name, methods: methods, impls: map[string]*Impl{}}
}

func (r *Registry) entry(name string) *protocolEntry {
	p, ok := r.protocols[name]
	if !ok {
		p = &protocolEntry{name: name, impls: map[string]*Impl{}}
		r.protocols[name] = p
	}
	return p
}

// AddImpl registers typeName's method bodies for protocol, as produced by
// a deftype*/extend-type form. Re-registering the same (protocol, type)
// pair is a duplicate implementation (§7 PR002): "a given type may
// implement a method at most once per protocol."
func (r *Registry) AddImpl(protocol, typeName string, isPrimitive bool, methodFns map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.entry(protocol)
	if _, exists := p.impls[typeName]; exists {
		return cerrs.New(cerrs.KindDuplicateProtocolImpl, cerrs.PR002, cerrs.Pos{},
			"type %s already implements protocol %s", typeName, protocol)
	}
	p.impls[typeName] = &Impl{TypeName: typeName, IsPrimitive: isPrimitive, MethodFns: methodFns}
	return nil
}

// Methods returns protocol's declared method signatures, or nil if
// protocol is unknown.
func (r *Registry) Methods(protocol string) []MethodSig {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.protocols[protocol]
	if !ok {
		return nil
	}
	return p.methods
}

func (r *Registry) impls(protocol string) []*Impl {
	p, ok := r.protocols[protocol]
	if !ok {
		return nil
	}
	out := make([]*Impl, 0, len(p.impls))
	for _, impl := range p.impls {
		out = append(out, impl)
	}
	return out
}

// Extenders returns the static set of type names currently extending
// protocol, per §4.4's "`extenders` returns the static set."
func (r *Registry) Extenders(protocol string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.protocols[protocol]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(p.impls))
	for t := range p.impls {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Satisfies reports whether typeName currently extends protocol.
func (r *Registry) Satisfies(protocol, typeName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.protocols[protocol]
	if !ok {
		return false
	}
	_, ok = p.impls[typeName]
	return ok
}
