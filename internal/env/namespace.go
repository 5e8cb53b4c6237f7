package env

import "sync"

// Var is a named, mutable cell living in a namespace: a root value plus
// optional per-task dynamic bindings (§3/§5). It is owned by its home
// namespace and shared by reference from every namespace that refers it.
type Var struct {
	Ns        string
	Name      string
	mu        sync.RWMutex
	root      interface{}
	hasRoot   bool
	meta      map[string]interface{}
	IsMacro   bool
	IsDynamic bool

	// dynStack is the Var's dynamic-binding stack. There is one stack per
	// Var, shared by every goroutine: the driver's per-form child goroutine
	// neither snapshots nor restores it, so pushes are not task-local. The
	// Var itself just exposes push/pop/peek plus Snapshot/Restore.
	dynStack []interface{}
}

// NewVar creates an as-yet-unbound Var in ns.
func NewVar(ns, name string) *Var {
	return &Var{Ns: ns, Name: name}
}

// SetRoot assigns the Var's root binding (what `def` does).
func (v *Var) SetRoot(val interface{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.root = val
	v.hasRoot = true
}

// Get returns the Var's current value: the top of the dynamic-binding
// stack if one is pushed, otherwise the root.
func (v *Var) Get() (interface{}, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if n := len(v.dynStack); n > 0 {
		return v.dynStack[n-1], true
	}
	return v.root, v.hasRoot
}

// PushBinding pushes a dynamic (thread/task-local) binding. Only meaningful
// when IsDynamic.
func (v *Var) PushBinding(val interface{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dynStack = append(v.dynStack, val)
}

// PopBinding pops the most recent dynamic binding.
func (v *Var) PopBinding() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n := len(v.dynStack); n > 0 {
		v.dynStack = v.dynStack[:n-1]
	}
}

// Snapshot returns a copy of the current dynamic-binding stack, which
// Restore can install again later. The driver does not call it.
func (v *Var) Snapshot() []interface{} {
	v.mu.RLock()
	defer v.mu.RUnlock()
	cp := make([]interface{}, len(v.dynStack))
	copy(cp, v.dynStack)
	return cp
}

// Restore replaces the dynamic-binding stack wholesale, e.g. with a stack
// taken earlier by Snapshot.
func (v *Var) Restore(stack []interface{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dynStack = stack
}

func (v *Var) SetMeta(m map[string]interface{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.meta = m
}

func (v *Var) Meta() map[string]interface{} {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.meta
}

// Namespace maps unqualified symbols to Vars, aliases to other namespaces,
// host imports, and macro referrals (§3).
type Namespace struct {
	Name            string
	Aliases         map[string]string // alias -> namespace name
	Mappings        map[string]*Var   // name -> Var (includes interns + refers)
	Imports         map[string]string // name -> host type name
	ReferredMacros  map[string]*Var
	Interns         map[string]*Var // names defined in this namespace specifically
}

func newNamespace(name string) *Namespace {
	return &Namespace{
		Name:           name,
		Aliases:        map[string]string{},
		Mappings:       map[string]*Var{},
		Imports:        map[string]string{},
		ReferredMacros: map[string]*Var{},
		Interns:        map[string]*Var{},
	}
}

// Registry is the process-wide namespace table (§3/§5: "process-wide
// mutable state ... mutated only by the driver task during a compile
// step"). A single-writer driver loop needs no locking discipline beyond
// what's here, but the mutex lets a host that permits parallel compilation
// opt into the transactional semantics §5 describes.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]*Namespace
	internedVarCount int
}

// NewRegistry creates an empty namespace registry.
func NewRegistry() *Registry {
	return &Registry{namespaces: map[string]*Namespace{}}
}

// EnsureNamespace returns the named namespace, creating it if absent.
func (r *Registry) EnsureNamespace(name string) *Namespace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ns, ok := r.namespaces[name]; ok {
		return ns
	}
	ns := newNamespace(name)
	r.namespaces[name] = ns
	return ns
}

// Namespace returns the named namespace if it exists.
func (r *Registry) Namespace(name string) (*Namespace, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns, ok := r.namespaces[name]
	return ns, ok
}

// Intern returns the Var for name in ns, creating it (first-writer-wins,
// per §5's transactional-registry note: a second intern of the same name
// aliases the first) if it does not already exist.
func (r *Registry) Intern(nsName, name string) *Var {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns, ok := r.namespaces[nsName]
	if !ok {
		ns = newNamespace(nsName)
		r.namespaces[nsName] = ns
	}
	if v, ok := ns.Interns[name]; ok {
		return v
	}
	v := NewVar(nsName, name)
	ns.Interns[name] = v
	ns.Mappings[name] = v
	r.internedVarCount++
	return v
}

// InternedVarCount supports the namespace-monotonicity property (§8): every
// successful compile strictly increases this count or leaves it unchanged
// only when no new Vars were introduced, but it never decreases.
func (r *Registry) InternedVarCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.internedVarCount
}

// Resolve implements §4.2's bare-symbol resolution order beyond locals.
// An unqualified name is looked up in the current namespace's interns,
// referred macros and mappings, then in clojure.core's interns (implicitly
// referred into every namespace). A qualified name goes through the
// current namespace's aliases, then the namespace of that name. Host
// imports are looked up separately, by HostType.
func (r *Registry) Resolve(currentNS, ns, name string) (*Var, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ns != "" {
		if aliased, ok := r.namespaces[currentNS]; ok {
			if target, ok := aliased.Aliases[ns]; ok {
				if targetNs, ok := r.namespaces[target]; ok {
					if v, ok := targetNs.Mappings[name]; ok {
						return v, true
					}
				}
			}
		}
		if targetNs, ok := r.namespaces[ns]; ok {
			if v, ok := targetNs.Mappings[name]; ok {
				return v, true
			}
		}
		return nil, false
	}
	if cur, ok := r.namespaces[currentNS]; ok {
		if v, ok := cur.Interns[name]; ok {
			return v, true
		}
		if v, ok := cur.ReferredMacros[name]; ok {
			return v, true
		}
		if v, ok := cur.Mappings[name]; ok {
			return v, true
		}
	}
	if core, ok := r.namespaces["clojure.core"]; ok {
		if v, ok := core.Interns[name]; ok {
			return v, true
		}
	}
	for _, other := range r.namespaces {
		if v, ok := other.Interns[name]; ok && other.Name != currentNS {
			// global registry by qualified name is only reachable with an
			// explicit ns prefix; unqualified fallthrough to any other
			// namespace's interns is intentionally not performed here.
			_ = v
		}
	}
	return nil, false
}

// HostType reports whether `name` is a known host import in currentNS,
// the last step of §4.2's resolution order before Unresolved.
func (r *Registry) HostType(currentNS, name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cur, ok := r.namespaces[currentNS]; ok {
		if t, ok := cur.Imports[name]; ok {
			return t, true
		}
	}
	return "", false
}
