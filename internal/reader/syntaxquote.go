package reader

import (
	"strings"

	"github.com/lispc-lang/lispc/internal/rval"
)

// readSyntaxQuote implements `` ` `` expansion per §4.1: auto-gensym
// suffixes are resolved, unqualified symbols are qualified against the
// current namespace, and unquote/unquote-splicing are preserved as
// list-headed forms for the analyzer's macro expander to consume.
func (r *Reader) readSyntaxQuote(pos rval.Pos) (rval.Value, error) {
	form, err := r.readForm()
	if err != nil {
		return nil, err
	}
	prevEnv := r.gensymEnv
	r.gensymEnv = map[string]*rval.Symbol{}
	expanded := r.syntaxQuoteExpand(form)
	r.gensymEnv = prevEnv
	return expanded, nil
}

func (r *Reader) syntaxQuoteExpand(form rval.Value) rval.Value {
	switch v := form.(type) {
	case *rval.Symbol:
		return &rval.List{Items: []rval.Value{rval.NewSymbol("", "quote", v.Pos), r.sqSymbol(v)}, Pos: v.Pos}
	case *rval.List:
		if len(v.Items) > 0 {
			if head, ok := v.Items[0].(*rval.Symbol); ok {
				switch head.Name {
				case "unquote":
					if len(v.Items) == 2 {
						return &rval.List{Items: []rval.Value{rval.NewSymbol("clojure.core", "unquote", v.Pos), v.Items[1]}, Pos: v.Pos}
					}
				case "unquote-splicing":
					if len(v.Items) == 2 {
						return &rval.List{Items: []rval.Value{rval.NewSymbol("clojure.core", "unquote-splicing", v.Pos), v.Items[1]}, Pos: v.Pos}
					}
				}
			}
		}
		return r.sqSeq("list", v.Items, v.Pos)
	case *rval.Vector:
		inner := r.sqSeq("list", v.Items, v.Pos)
		return &rval.List{Items: []rval.Value{rval.NewSymbol("clojure.core", "vec", v.Pos), inner}, Pos: v.Pos}
	case *rval.Set:
		inner := r.sqSeq("list", v.Items, v.Pos)
		return &rval.List{Items: []rval.Value{rval.NewSymbol("clojure.core", "set", v.Pos), inner}, Pos: v.Pos}
	case *rval.Map:
		flat := make([]rval.Value, 0, len(v.Entries)*2)
		for _, e := range v.Entries {
			flat = append(flat, e.Key, e.Val)
		}
		inner := r.sqSeq("list", flat, v.Pos)
		return &rval.List{Items: []rval.Value{rval.NewSymbol("clojure.core", "hash-map", v.Pos), inner}, Pos: v.Pos}
	default:
		return form
	}
}

// sqSymbol resolves auto-gensyms (`name#`) and namespace-qualifies plain
// symbols against the current namespace (special-form and already
// qualified symbols pass through unchanged).
func (r *Reader) sqSymbol(s *rval.Symbol) rval.Value {
	if s.Ns == "" && strings.HasSuffix(s.Name, "#") {
		stem := strings.TrimSuffix(s.Name, "#")
		if existing, ok := r.gensymEnv[stem]; ok {
			return existing
		}
		r.gensymNum++
		fresh := rval.NewSymbol("", stem+"__"+itoa(r.gensymNum)+"__auto__", s.Pos)
		r.gensymEnv[stem] = fresh
		return fresh
	}
	if s.Ns == "" && !isSpecialFormName(s.Name) && r.currentNS != "" {
		return rval.NewSymbol(r.currentNS, s.Name, s.Pos)
	}
	return s
}

// sqSeq builds `(clojure.core/concat (list item1) (list item2) ...)` for a
// sequence, each item syntax-quoted in turn (a symbol becomes
// `(quote ns/sym)`); an unquoted child goes in as `(list x)` and an
// `unquote-splicing` child is handed to `concat` as is.
func (r *Reader) sqSeq(builder string, items []rval.Value, pos rval.Pos) rval.Value {
	var parts []rval.Value
	for _, it := range items {
		if l, ok := it.(*rval.List); ok && len(l.Items) == 2 {
			if head, ok := l.Items[0].(*rval.Symbol); ok && head.Name == "unquote-splicing" {
				parts = append(parts, l.Items[1])
				continue
			}
			if head, ok := l.Items[0].(*rval.Symbol); ok && head.Name == "unquote" {
				parts = append(parts, &rval.List{Items: []rval.Value{rval.NewSymbol("", "list", pos), l.Items[1]}, Pos: pos})
				continue
			}
		}
		expanded := r.syntaxQuoteExpand(it)
		parts = append(parts, &rval.List{Items: []rval.Value{rval.NewSymbol("", "list", pos), expanded}, Pos: pos})
	}
	return &rval.List{Items: append([]rval.Value{rval.NewSymbol("clojure.core", "concat", pos)}, parts...), Pos: pos}
}

var specialFormNames = map[string]bool{
	"def": true, "if": true, "do": true, "let*": true, "loop*": true,
	"recur": true, "fn*": true, "letfn*": true, "quote": true, "var": true,
	"throw": true, "try": true, "catch": true, "finally": true, "new": true,
	".": true, "set!": true, "case*": true, "reify*": true, "deftype*": true,
	"defprotocol": true, "extend-type": true, "import*": true,
	"monitor-enter": true, "monitor-exit": true, "receive*": true, "on-load*": true,
}

func isSpecialFormName(name string) bool { return specialFormNames[name] }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
