// Package modctx implements the module-accumulation context: the
// process-scoped registry analyzer/emitter nodes append functions to
// while a compile is in flight (§3 Module-in-progress, §4.3, §5).
// Adapted from a mutex-guarded cache keyed by module identity,
// repurposed from a read cache of already-parsed modules into a
// write-accumulator of in-progress ones.
package modctx

import (
	"sync"

	"github.com/lispc-lang/lispc/internal/coreir"
)

// inProgress accumulates one module's pieces before finalization.
type inProgress struct {
	name      string
	attrs     []coreir.Attr
	exports   map[string]bool
	functions []coreir.Func
	onLoad    []coreir.Expr
}

// Context is keyed by the active compile, per §5: "Module context: keyed
// by the active compile's child task; destroyed when that task
// terminates." Callers create one Context per top-level compile via New
// and discard it after Flush.
type Context struct {
	mu      sync.Mutex
	modules map[string]*inProgress
}

// New creates a fresh, empty module context for one compile step.
func New() *Context {
	return &Context{modules: map[string]*inProgress{}}
}

func (c *Context) ensure(name string) *inProgress {
	if m, ok := c.modules[name]; ok {
		return m
	}
	m := &inProgress{name: name, exports: map[string]bool{}}
	c.modules[name] = m
	return m
}

// AddFunction registers a top-level function into module `name`, marking
// it exported if requested. This is the operation `def`, protocol
// dispatch shells, and deftype method bodies all call (§4.3).
func (c *Context) AddFunction(name string, fn coreir.Func, export bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.ensure(name)
	m.functions = append(m.functions, fn)
	if export {
		m.exports[fn.Name] = true
	}
}

// AddAttr attaches a module-level attribute (e.g. a doc string).
func (c *Context) AddAttr(name string, attr coreir.Attr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.ensure(name)
	m.attrs = append(m.attrs, attr)
}

// AppendOnLoad appends one expression to module `name`'s on-load
// initializer body, used to lift non-literal constants (§4.3:
// "non-literal constants ... are lifted to a module-level on_load
// initializer that constructs them once").
func (c *Context) AppendOnLoad(name string, expr coreir.Expr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.ensure(name)
	m.onLoad = append(m.onLoad, expr)
}

// HasModule reports whether name has any accumulated content yet.
func (c *Context) HasModule(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.modules[name]
	return ok
}

// Flush finalizes every accumulated module into an immutable Core IR
// module tree and clears the context, matching "Finalization produces one
// immutable Core IR module tree per key" (§3).
func (c *Context) Flush() []*coreir.Module {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*coreir.Module
	for _, m := range c.modules {
		mod := &coreir.Module{Name: m.name, Attrs: m.attrs, Functions: m.functions}
		for name := range m.exports {
			mod.Exports = append(mod.Exports, name)
		}
		if len(m.onLoad) > 0 {
			mod.OnLoad = &coreir.Do{Stmts: m.onLoad}
		}
		out = append(out, mod)
	}
	c.modules = map[string]*inProgress{}
	return out
}

// FlushOne finalizes and removes a single named module, used when a
// protocol's dispatch module must be re-emitted in isolation on
// extend-type (§4.4: "the protocol module's identity is stable
// across re-emission").
func (c *Context) FlushOne(name string) (*coreir.Module, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.modules[name]
	if !ok {
		return nil, false
	}
	mod := &coreir.Module{Name: m.name, Attrs: m.attrs, Functions: m.functions}
	for ex := range m.exports {
		mod.Exports = append(mod.Exports, ex)
	}
	if len(m.onLoad) > 0 {
		mod.OnLoad = &coreir.Do{Stmts: m.onLoad}
	}
	delete(c.modules, name)
	return mod, true
}
