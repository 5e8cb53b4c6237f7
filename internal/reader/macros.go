package reader

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lispc-lang/lispc/internal/rval"
)

// readDispatchMacro handles every form introduced by `#`, grounded on the
// glojure LispReader's macros/dispatchMacros table shape (one handler per
// dispatch character) adapted into a switch over the next rune.
func (r *Reader) readDispatchMacro(pos rval.Pos) (rval.Value, error) {
	ch, err := r.nextRune()
	if err != nil {
		return nil, newErr(r, InvalidDispatchChar, "EOF after #")
	}
	switch ch {
	case '{':
		return r.readSet(pos)
	case '(':
		return r.readAnonFn(pos)
	case '"':
		return r.readRegex(pos)
	case '\'':
		return r.wrapSym("var", pos)
	case '_':
		// #_ discards the following form entirely.
		if _, err := r.readForm(); err != nil {
			return nil, err
		}
		return nil, nil
	case '^':
		m, err := r.readMetaForm()
		if err != nil {
			return nil, err
		}
		v, err := r.readForm()
		if err != nil {
			return nil, err
		}
		if mv, ok := v.(rval.Metaed); ok {
			return mv.WithMeta(rval.Merge(nil, m)), nil
		}
		return v, nil
	case '=':
		if !r.opts.AllowReadEval {
			return nil, newErr(r, InvalidDispatchChar, "#= read-time eval is disabled")
		}
		// The form following #= is handed back to the caller (the analyzer
		// driver) tagged so it can evaluate-then-substitute; the reader
		// itself performs no evaluation.
		form, err := r.readForm()
		if err != nil {
			return nil, err
		}
		return &rval.TaggedLiteral{Tag: rval.NewSymbol("", "read-eval", pos), Form: form, Pos: pos}, nil
	case '?':
		splicing := false
		if pk, ok := r.peek(); ok && pk == '@' {
			r.nextRune()
			splicing = true
		}
		return r.readReaderConditional(pos, splicing)
	case '!':
		r.skipLine()
		return nil, nil
	case '<':
		return nil, newErr(r, InvalidDispatchChar, "unreadable form")
	default:
		r.unread()
		return r.readTaggedLiteral(pos)
	}
}

// readAnonFn rewrites `#(...)` to `(fn [%1 %2 ...] body)`: the highest %N
// (or %&, a variadic rest arg) determines arity.
func (r *Reader) readAnonFn(pos rval.Pos) (rval.Value, error) {
	prevMax := r.argMax
	prevVariadic := r.argVariadic
	r.argMax = 0
	r.argVariadic = false
	r.inAnonFn++

	items, err := r.readDelimited(')')
	if err != nil {
		return nil, err
	}

	r.inAnonFn--
	maxArg := r.argMax
	variadic := r.argVariadic
	r.argMax, r.argVariadic = prevMax, prevVariadic

	params := make([]rval.Value, 0, maxArg+2)
	for i := 1; i <= maxArg; i++ {
		params = append(params, rval.NewSymbol("", "%"+strconv.Itoa(i), pos))
	}
	if variadic {
		params = append(params, rval.NewSymbol("", "&", pos), rval.NewSymbol("", "%&", pos))
	}
	body := &rval.List{Items: []rval.Value{rval.NewSymbol("", "fn", pos), &rval.Vector{Items: params, Pos: pos}, &rval.List{Items: items, Pos: pos}}, Pos: pos}
	return body, nil
}

// readArg handles a bare `%`, `%N`, or `%&` token seen while inside a `#(...)`.
// It is dispatched from readAtom when the token begins with `%`.
func (r *Reader) readArg(tok string, pos rval.Pos) (rval.Value, error) {
	if r.inAnonFn == 0 {
		return nil, newErr(r, UnsupportedArg, "%% used outside of anonymous function literal")
	}
	switch {
	case tok == "%":
		if r.argMax < 1 {
			r.argMax = 1
		}
		return rval.NewSymbol("", "%1", pos), nil
	case tok == "%&":
		r.argVariadic = true
		return rval.NewSymbol("", "%&", pos), nil
	default:
		n, err := strconv.Atoi(tok[1:])
		if err != nil {
			return nil, newErr(r, UnsupportedArg, "invalid anonymous function argument %q", tok)
		}
		if n > r.argMax {
			r.argMax = n
		}
		return rval.NewSymbol("", tok, pos), nil
	}
}

func (r *Reader) readRegex(pos rval.Pos) (rval.Value, error) {
	var b strings.Builder
	for {
		ch, err := r.nextRune()
		if err != nil {
			return nil, newErr(r, UnterminatedString, "EOF inside regex literal")
		}
		if ch == '"' {
			return rval.Regex{Source: b.String()}, nil
		}
		if ch == '\\' {
			nx, err := r.nextRune()
			if err != nil {
				return nil, newErr(r, UnterminatedString, "EOF inside regex literal")
			}
			b.WriteRune(ch)
			b.WriteRune(nx)
			continue
		}
		b.WriteRune(ch)
	}
}

// readReaderConditional resolves `#?(...)`/`#?@(...)` against r.opts per
// §4.1: Preserve keeps the raw clause list, Allow selects the first
// matching feature (falling back to :default), Disallow rejects it.
func (r *Reader) readReaderConditional(pos rval.Pos, splicing bool) (rval.Value, error) {
	if r.opts.ReadConditional == Disallow {
		return nil, newErr(r, InvalidDispatchChar, "reader conditionals are not allowed")
	}
	if splicing && !r.inList() {
		return nil, newErr(r, InvalidDispatchChar, "#?@ may only appear inside a sequence")
	}
	ch, err := r.nextRune()
	if err != nil || ch != '(' {
		return nil, newErr(r, InvalidDispatchChar, "expected ( after #?")
	}
	items, err := r.readDelimited(')')
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, newErr(r, InvalidDispatchChar, "reader conditional requires feature/form pairs")
	}
	var clauses []rval.CondClause
	for i := 0; i < len(items); i += 2 {
		kw, ok := items[i].(*rval.Keyword)
		if !ok {
			return nil, newErr(r, InvalidDispatchChar, "reader conditional feature must be a keyword")
		}
		clauses = append(clauses, rval.CondClause{Feature: kw, Form: items[i+1]})
	}
	if r.opts.ReadConditional == Preserve {
		return &rval.ReaderCondPlaceholder{Splicing: splicing, Clauses: clauses, Pos: pos}, nil
	}
	for _, c := range clauses {
		if r.opts.Features[c.Feature.Name] || c.Feature.Name == "default" {
			if splicing {
				return r.spliceMarker(c.Form), nil
			}
			return c.Form, nil
		}
	}
	return nil, newErr(r, FeatureNotFound, "no matching feature for reader conditional and no :default branch")
}

// spliceMarker wraps a resolved splicing-conditional's form so readDelimited
// can flatten it into the enclosing sequence. The marker is unwrapped by
// readDelimited immediately after readForm returns it.
type spliceResult struct {
	rval.Nil // supplies rval.Value's unexported marker method
	Items    []rval.Value
}

func (r *Reader) spliceMarker(form rval.Value) rval.Value {
	if l, ok := form.(*rval.List); ok {
		return spliceResult{Items: l.Items}
	}
	if v, ok := form.(*rval.Vector); ok {
		return spliceResult{Items: v.Items}
	}
	return spliceResult{Items: []rval.Value{form}}
}

func (r *Reader) inList() bool { return r.listDepth > 0 }

// readTaggedLiteral handles `#inst`, `#uuid`, and any tag registered in
// data_readers / default_data_readers.
func (r *Reader) readTaggedLiteral(pos rval.Pos) (rval.Value, error) {
	tok, err := r.readToken()
	if err != nil {
		return nil, err
	}
	ns, name := splitNsName(tok)
	tag := rval.NewSymbol(ns, name, pos)
	form, err := r.readForm()
	if err != nil {
		return nil, err
	}
	if fn, ok := lookupDataReader(r.opts, tok); ok {
		resolved, err := fn(form)
		if err != nil {
			return nil, newErr(r, InvalidDispatchChar, "data reader for #%s failed: %v", tok, err)
		}
		if v, ok := resolved.(rval.Value); ok {
			return v, nil
		}
	}
	return &rval.TaggedLiteral{Tag: tag, Form: form, Pos: pos}, nil
}

func lookupDataReader(opts Opts, tag string) (DataReaderFn, bool) {
	if fn, ok := opts.DataReaders[tag]; ok {
		return fn, true
	}
	if fn, ok := opts.DefaultDataReaders[tag]; ok {
		return fn, true
	}
	return nil, false
}

// sortedFeatureKeys returns m's keys in sorted order.
func sortedFeatureKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
