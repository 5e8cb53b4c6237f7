// Package rval defines the reader value tree: the tagged, metadata-carrying
// values produced by the reader and consumed by the analyzer.
package rval

import (
	"fmt"
	"math/big"
	"strings"
)

// Pos records a source position for a compound node or symbol.
type Pos struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column) }

// Meta is one frame of an ordered metadata chain. Successive ^{...} forms
// merge left-to-right, so Meta keeps a parent link rather than flattening.
type Meta struct {
	Entries map[string]Value
	Parent  *Meta
}

// Get walks the chain, innermost entry wins.
func (m *Meta) Get(key string) (Value, bool) {
	for cur := m; cur != nil; cur = cur.Parent {
		if v, ok := cur.Entries[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Merge returns a new chain with `entries` layered on top of m.
func Merge(m *Meta, entries map[string]Value) *Meta {
	if len(entries) == 0 {
		return m
	}
	return &Meta{Entries: entries, Parent: m}
}

// Value is any reader-tree value: atoms, compounds, or tagged literals.
// Atoms (Int, Float, ...) never carry metadata; compounds and symbols do via
// the Metaed interface.
type Value interface {
	isValue()
}

// Metaed is implemented by values that may carry a metadata chain
// (symbols and collections).
type Metaed interface {
	Value
	Meta() *Meta
	WithMeta(*Meta) Value
}

// --- atoms -------------------------------------------------------------

type Int struct{ V int64 }
type BigInt struct{ V *big.Int }
type Ratio struct{ Num, Den *big.Int }
type Float struct{ V float64 }
type BigDecimal struct{ V *big.Float }
type Bool struct{ V bool }
type Nil struct{}
type Char struct{ V rune }
type Str struct{ V string }
type Regex struct{ Source string }

func (Int) isValue()        {}
func (BigInt) isValue()     {}
func (Ratio) isValue()      {}
func (Float) isValue()      {}
func (BigDecimal) isValue() {}
func (Bool) isValue()       {}
func (Nil) isValue()        {}
func (Char) isValue()       {}
func (Str) isValue()        {}
func (Regex) isValue()      {}

// Keyword is namespace-qualified (Ns may be empty) and interned so that
// equal keywords compare equal by identity as well as structure.
type Keyword struct {
	Ns   string
	Name string
}

func (Keyword) isValue() {}

func (k Keyword) String() string {
	if k.Ns == "" {
		return ":" + k.Name
	}
	return ":" + k.Ns + "/" + k.Name
}

var keywordTable = map[Keyword]*Keyword{}

// InternKeyword returns the canonical *Keyword for (ns, name). Equality of
// keywords is structural regardless of interning, but interning keeps a
// single allocation per distinct keyword.
func InternKeyword(ns, name string) *Keyword {
	k := Keyword{Ns: ns, Name: name}
	if existing, ok := keywordTable[k]; ok {
		return existing
	}
	kp := &k
	keywordTable[k] = kp
	return kp
}

// Symbol is namespace-qualified (Ns may be empty) and may carry metadata
// and a source Pos (reader preserves position for every symbol).
type Symbol struct {
	Ns   string
	Name string
	Pos  Pos
	meta *Meta
}

func (s *Symbol) isValue()         {}
func (s *Symbol) Meta() *Meta      { return s.meta }
func (s *Symbol) WithMeta(m *Meta) Value {
	cp := *s
	cp.meta = m
	return &cp
}

func NewSymbol(ns, name string, pos Pos) *Symbol {
	return &Symbol{Ns: ns, Name: name, Pos: pos}
}

func (s *Symbol) String() string {
	if s.Ns == "" {
		return s.Name
	}
	return s.Ns + "/" + s.Name
}

// Equal compares symbols structurally (namespace + name), ignoring position
// and metadata.
func (s *Symbol) Equal(o *Symbol) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Ns == o.Ns && s.Name == o.Name
}

// --- compounds -----------------------------------------------------------

// List is a singly-linked reader list, the canonical form-shape for code.
type List struct {
	Items []Value
	Pos   Pos
	meta  *Meta
}

func (l *List) isValue()         {}
func (l *List) Meta() *Meta      { return l.meta }
func (l *List) WithMeta(m *Meta) Value {
	cp := *l
	cp.meta = m
	return &cp
}

// Vector is a reader vector literal `[...]`.
type Vector struct {
	Items []Value
	Pos   Pos
	meta  *Meta
}

func (v *Vector) isValue()         {}
func (v *Vector) Meta() *Meta      { return v.meta }
func (v *Vector) WithMeta(m *Meta) Value {
	cp := *v
	cp.meta = m
	return &cp
}

// MapEntry is one key/value pair of a reader map literal.
type MapEntry struct {
	Key Value
	Val Value
}

// Map is a reader map literal `{...}`.
type Map struct {
	Entries []MapEntry
	Pos     Pos
	meta    *Meta
}

func (m *Map) isValue()         {}
func (m *Map) Meta() *Meta      { return m.meta }
func (m *Map) WithMeta(mm *Meta) Value {
	cp := *m
	cp.meta = mm
	return &cp
}

// Set is a reader set literal `#{...}`.
type Set struct {
	Items []Value
	Pos   Pos
	meta  *Meta
}

func (s *Set) isValue()         {}
func (s *Set) Meta() *Meta      { return s.meta }
func (s *Set) WithMeta(m *Meta) Value {
	cp := *s
	cp.meta = m
	return &cp
}

// TaggedLiteral is `#tag form`, resolved against data_readers by the caller
// of the reader (or left for the analyzer, for tags with no registered fn).
type TaggedLiteral struct {
	Tag  *Symbol
	Form Value
	Pos  Pos
}

func (TaggedLiteral) isValue() {}

// ReaderCondPlaceholder is an unresolved `#?(...)`/`#?@(...)` form, kept
// around only when Opts.ReadConditional == Preserve.
type ReaderCondPlaceholder struct {
	Splicing bool
	Clauses  []CondClause
	Pos      Pos
}

type CondClause struct {
	Feature *Keyword
	Form    Value
}

func (ReaderCondPlaceholder) isValue() {}

// Equal performs structural equality suitable for the reader round-trip
// property: keywords and symbols compare by namespace+name, collections
// compare element-wise, metadata is excluded.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av.V == bv.V
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.V == bv.V
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Str:
		bv, ok := b.(Str)
		return ok && av.V == bv.V
	case Char:
		bv, ok := b.(Char)
		return ok && av.V == bv.V
	case *Keyword:
		bv, ok := b.(*Keyword)
		return ok && av.Ns == bv.Ns && av.Name == bv.Name
	case *Symbol:
		bv, ok := b.(*Symbol)
		return ok && av.Equal(bv)
	case *List:
		bv, ok := b.(*List)
		return ok && equalSlices(av.Items, bv.Items)
	case *Vector:
		bv, ok := b.(*Vector)
		return ok && equalSlices(av.Items, bv.Items)
	case *Set:
		bv, ok := b.(*Set)
		return ok && equalSlices(av.Items, bv.Items)
	case *Map:
		bv, ok := b.(*Map)
		if !ok || len(av.Entries) != len(bv.Entries) {
			return false
		}
		for i := range av.Entries {
			if !Equal(av.Entries[i].Key, bv.Entries[i].Key) || !Equal(av.Entries[i].Val, bv.Entries[i].Val) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func equalSlices(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Print renders a value back to canonical reader syntax, used by the
// round-trip property (§8).
func Print(v Value) string {
	var b strings.Builder
	print1(&b, v)
	return b.String()
}

func print1(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case Int:
		fmt.Fprintf(b, "%d", x.V)
	case Float:
		fmt.Fprintf(b, "%v", x.V)
	case Bool:
		fmt.Fprintf(b, "%v", x.V)
	case Nil:
		b.WriteString("nil")
	case Str:
		fmt.Fprintf(b, "%q", x.V)
	case Char:
		fmt.Fprintf(b, "\\%c", x.V)
	case *Keyword:
		b.WriteString(x.String())
	case *Symbol:
		b.WriteString(x.String())
	case *List:
		printSeq(b, "(", ")", x.Items)
	case *Vector:
		printSeq(b, "[", "]", x.Items)
	case *Set:
		printSeq(b, "#{", "}", x.Items)
	case *Map:
		b.WriteString("{")
		for i, e := range x.Entries {
			if i > 0 {
				b.WriteString(", ")
			}
			print1(b, e.Key)
			b.WriteString(" ")
			print1(b, e.Val)
		}
		b.WriteString("}")
	default:
		fmt.Fprintf(b, "%v", v)
	}
}

func printSeq(b *strings.Builder, open, close string, items []Value) {
	b.WriteString(open)
	for i, it := range items {
		if i > 0 {
			b.WriteString(" ")
		}
		print1(b, it)
	}
	b.WriteString(close)
}
