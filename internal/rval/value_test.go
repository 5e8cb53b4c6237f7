package rval

import "testing"

func TestKeywordInterning(t *testing.T) {
	a := InternKeyword("ex", "foo")
	b := InternKeyword("ex", "foo")
	if a != b {
		t.Fatalf("expected interned keywords to share identity")
	}
	if !Equal(a, b) {
		t.Fatalf("expected interned keywords to compare equal")
	}
}

func TestSymbolEqualityIgnoresPosAndMeta(t *testing.T) {
	s1 := NewSymbol("ex", "x", Pos{File: "a.clj", Line: 1})
	s2 := NewSymbol("ex", "x", Pos{File: "b.clj", Line: 99})
	s2 = s2.WithMeta(Merge(nil, map[string]Value{"doc": Str{V: "hi"}})).(*Symbol)
	if !s1.Equal(s2) {
		t.Fatalf("expected structural symbol equality regardless of position/meta")
	}
}

func TestPrintPrintableValuesNonEmpty(t *testing.T) {
	cases := []Value{
		Int{V: 42},
		Bool{V: true},
		Nil{},
		Str{V: "hello"},
		InternKeyword("", "kw"),
		NewSymbol("", "sym", Pos{}),
		&Vector{Items: []Value{Int{V: 1}, Int{V: 2}}},
	}
	for _, v := range cases {
		printed := Print(v)
		if printed == "" {
			t.Fatalf("expected non-empty print for %#v", v)
		}
	}
}

func TestMetaMergeOrder(t *testing.T) {
	m1 := Merge(nil, map[string]Value{"line": Int{V: 1}})
	m2 := Merge(m1, map[string]Value{"line": Int{V: 2}})
	v, ok := m2.Get("line")
	if !ok {
		t.Fatalf("expected line entry")
	}
	if iv, ok := v.(Int); !ok || iv.V != 2 {
		t.Fatalf("expected innermost merge to win, got %#v", v)
	}
	v2, ok := m1.Get("line")
	if !ok || v2.(Int).V != 1 {
		t.Fatalf("expected parent chain preserved")
	}
}
