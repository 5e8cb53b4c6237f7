package reader

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/lispc-lang/lispc/internal/rval"
)

func read(t *testing.T, src string, opts Opts) rval.Value {
	t.Helper()
	v, err := ReadOne(strings.NewReader(src), opts)
	if err != nil {
		t.Fatalf("ReadOne(%q) error: %v", src, err)
	}
	return v
}

func TestReadAtoms(t *testing.T) {
	opts := DefaultOpts("t.clj")
	cases := map[string]func(rval.Value) bool{
		"42":      func(v rval.Value) bool { i, ok := v.(rval.Int); return ok && i.V == 42 },
		"-7":      func(v rval.Value) bool { i, ok := v.(rval.Int); return ok && i.V == -7 },
		"3.14":    func(v rval.Value) bool { f, ok := v.(rval.Float); return ok && f.V == 3.14 },
		"1/2":     func(v rval.Value) bool { _, ok := v.(rval.Ratio); return ok },
		"true":    func(v rval.Value) bool { b, ok := v.(rval.Bool); return ok && b.V },
		"nil":     func(v rval.Value) bool { _, ok := v.(rval.Nil); return ok },
		`"hi"`:    func(v rval.Value) bool { s, ok := v.(rval.Str); return ok && s.V == "hi" },
		":kw":     func(v rval.Value) bool { k, ok := v.(*rval.Keyword); return ok && k.Name == "kw" },
		"sym":     func(v rval.Value) bool { s, ok := v.(*rval.Symbol); return ok && s.Name == "sym" },
		`\a`:      func(v rval.Value) bool { c, ok := v.(rval.Char); return ok && c.V == 'a' },
		`\space`:  func(v rval.Value) bool { c, ok := v.(rval.Char); return ok && c.V == ' ' },
	}
	for src, check := range cases {
		v := read(t, src, opts)
		if !check(v) {
			t.Errorf("unexpected value for %q: %#v", src, v)
		}
	}
}

func TestReadCollections(t *testing.T) {
	opts := DefaultOpts("t.clj")
	v := read(t, "(1 2 3)", opts)
	l, ok := v.(*rval.List)
	if !ok || len(l.Items) != 3 {
		t.Fatalf("expected 3-item list, got %#v", v)
	}
	v = read(t, "[1 2]", opts)
	if vv, ok := v.(*rval.Vector); !ok || len(vv.Items) != 2 {
		t.Fatalf("expected 2-item vector, got %#v", v)
	}
	v = read(t, "#{1 2}", opts)
	if sv, ok := v.(*rval.Set); !ok || len(sv.Items) != 2 {
		t.Fatalf("expected 2-item set, got %#v", v)
	}
	v = read(t, "{:a 1 :b 2}", opts)
	if mv, ok := v.(*rval.Map); !ok || len(mv.Entries) != 2 {
		t.Fatalf("expected 2-entry map, got %#v", v)
	}
}

func TestDiscardAndComment(t *testing.T) {
	opts := DefaultOpts("t.clj")
	v := read(t, "(1 #_2 3) ; trailing comment", opts)
	l := v.(*rval.List)
	if len(l.Items) != 2 {
		t.Fatalf("expected #_ to discard the following form, got %d items", len(l.Items))
	}
}

func TestAnonymousFunctionArity(t *testing.T) {
	opts := DefaultOpts("t.clj")
	v := read(t, "#(+ % %2 %&)", opts)
	l := v.(*rval.List)
	head := l.Items[0].(*rval.Symbol)
	if head.Name != "fn" {
		t.Fatalf("expected fn rewrite, got head %v", head)
	}
	params := l.Items[1].(*rval.Vector)
	// %1 %2 & %&
	if len(params.Items) != 4 {
		t.Fatalf("expected 4 params (%%1 %%2 & %%&), got %d: %v", len(params.Items), params.Items)
	}
}

func TestUnsupportedArgOutsideAnonFn(t *testing.T) {
	opts := DefaultOpts("t.clj")
	_, err := ReadOne(strings.NewReader("%1"), opts)
	rerr, ok := err.(*Error)
	if !ok || rerr.Kind != UnsupportedArg {
		t.Fatalf("expected UnsupportedArg, got %v", err)
	}
}

func TestReaderConditionalSelectsFeature(t *testing.T) {
	opts := DefaultOpts("t.cljc")
	opts.ReadConditional = Allow
	opts.Features = map[string]bool{"clj": true}
	v := read(t, `#?(:clj 1 :cljs 2)`, opts)
	if iv, ok := v.(rval.Int); !ok || iv.V != 1 {
		t.Fatalf("expected 1 for :clj feature, got %#v", v)
	}
}

func TestReaderConditionalFeatureNotFound(t *testing.T) {
	opts := DefaultOpts("t.cljc")
	opts.ReadConditional = Allow
	opts.Features = map[string]bool{"other": true}
	_, err := ReadOne(strings.NewReader(`#?(:clj 1 :cljs 2)`), opts)
	rerr, ok := err.(*Error)
	if !ok || rerr.Kind != FeatureNotFound {
		t.Fatalf("expected FeatureNotFound, got %v", err)
	}
}

func TestUnterminatedList(t *testing.T) {
	opts := DefaultOpts("t.clj")
	_, err := ReadOne(strings.NewReader("(1 2"), opts)
	rerr, ok := err.(*Error)
	if !ok || rerr.Kind != UnterminatedList {
		t.Fatalf("expected UnterminatedList, got %v", err)
	}
}

func TestMetadataMerge(t *testing.T) {
	opts := DefaultOpts("t.clj")
	v := read(t, `^:dynamic ^{:doc "x"} sym`, opts)
	s, ok := v.(*rval.Symbol)
	if !ok {
		t.Fatalf("expected symbol, got %#v", v)
	}
	if _, ok := s.Meta().Get("dynamic"); !ok {
		t.Fatalf("expected dynamic meta entry")
	}
	if _, ok := s.Meta().Get("doc"); !ok {
		t.Fatalf("expected doc meta entry")
	}
}

func TestSyntaxQuoteQualifiesSymbols(t *testing.T) {
	opts := DefaultOpts("t.clj")
	r := New(strings.NewReader("`(foo bar)"), opts)
	r.SetCurrentNS("ex")
	v, err := r.ReadOne()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l, ok := v.(*rval.List)
	if !ok {
		t.Fatalf("expected list, got %#v", v)
	}
	head := l.Items[0].(*rval.Symbol)
	if head.Name != "concat" || head.Ns != "clojure.core" {
		t.Fatalf("expected (clojure.core/concat ...), got %v", head)
	}
}

func TestRoundTripPrintableValues(t *testing.T) {
	opts := DefaultOpts("t.clj")
	srcs := []string{"42", "true", "nil", `"hello"`, ":kw", "sym", "[1 2 3]"}
	for _, src := range srcs {
		v := read(t, src, opts)
		printed := rval.Print(v)
		v2 := read(t, printed, opts)
		if !rval.Equal(v, v2) {
			t.Errorf("round-trip mismatch for %q: printed %q, reread %#v", src, printed, v2)
		}
	}
}

// structuralCmpOpts compares reader-tree values field-by-field rather
// than via rval.Equal's hand-rolled switch. Pos fields and unexported
// metadata chains are excluded since round-tripping through
// Print/ReadOne does not preserve them.
var structuralCmpOpts = cmp.Options{
	cmpopts.IgnoreUnexported(rval.List{}, rval.Vector{}, rval.Map{}, rval.Set{}, rval.Symbol{}),
	cmpopts.IgnoreFields(rval.Symbol{}, "Pos"),
	cmpopts.IgnoreFields(rval.List{}, "Pos"),
	cmpopts.IgnoreFields(rval.Vector{}, "Pos"),
	cmpopts.IgnoreFields(rval.Map{}, "Pos"),
	cmpopts.IgnoreFields(rval.Set{}, "Pos"),
}

func TestRoundTripStructuralEquality(t *testing.T) {
	opts := DefaultOpts("t.clj")
	srcs := []string{"42", "true", "nil", `"hello"`, ":kw", "sym", "[1 2 3]", "{:a 1 :b 2}"}
	for _, src := range srcs {
		v := read(t, src, opts)
		printed := rval.Print(v)
		v2 := read(t, printed, opts)
		if diff := cmp.Diff(v, v2, structuralCmpOpts); diff != "" {
			t.Errorf("round-trip structural mismatch for %q (-want +got):\n%s", src, diff)
		}
	}
}
