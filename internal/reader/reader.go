// Package reader implements the Clojure-dialect reader: text -> tagged
// reader-value tree (see internal/rval), honoring reader macros, reader
// conditionals, syntax-quote, and metadata attachment (§4.1).
package reader

import (
	"bufio"
	"io"

	"github.com/lispc-lang/lispc/internal/rval"
)

// Reader tokenizes and parses one form at a time from a character stream.
// It is purely functional over the supplied stream and its own scan state;
// all mutable state lives in this struct, not in any package global.
type Reader struct {
	src  *bufio.Reader
	file string
	line int
	col  int
	off  int

	opts Opts

	// gensymEnv maps auto-gensym stems ("x#") to their resolved symbol for
	// the duration of one syntax-quote expansion.
	gensymEnv map[string]*rval.Symbol
	gensymNum int

	// currentNS is consulted to qualify unqualified symbols/keywords inside
	// syntax-quote; set through SetCurrentNS. Readers made by the
	// package-level ReadOne and by ReadFold leave it empty, so symbols
	// stay unqualified there.
	currentNS string

	// inAnonFn/argMax/argVariadic track `%N`/`%&` usage while reading the
	// body of a `#(...)` form; listDepth lets #?@ validate it is inside a
	// sequence.
	inAnonFn    int
	argMax      int
	argVariadic bool
	listDepth   int
}

// New wraps an io.Reader as a Reader ready for read_one/read_fold.
func New(src io.Reader, opts Opts) *Reader {
	return &Reader{
		src:  bufio.NewReader(src),
		file: opts.File,
		line: 1,
		col:  0,
		opts: opts,
	}
}

// SetCurrentNS tells syntax-quote which namespace to qualify bare symbols
// against. Callers (the analyzer driver) set this before reading a form.
func (r *Reader) SetCurrentNS(ns string) { r.currentNS = ns }

func eofSentinel() error { return io.EOF }

// IsEOF reports whether err is the sentinel returned for EOFBehavior ==
// EOFError.
func IsEOF(err error) bool { return err == io.EOF }

func (r *Reader) nextRune() (rune, error) {
	ch, size, err := r.src.ReadRune()
	if err != nil {
		return 0, err
	}
	r.off += size
	if ch == '\n' {
		r.line++
		r.col = 0
	} else {
		r.col++
	}
	return ch, nil
}

func (r *Reader) unread() {
	_ = r.src.UnreadRune()
	// Position bookkeeping on unread is approximate (single-rune pushback);
	// good enough since the reader never needs to unread across a newline.
	if r.col > 0 {
		r.col--
	}
}

func (r *Reader) peek() (rune, bool) {
	ch, _, err := r.src.ReadRune()
	if err != nil {
		return 0, false
	}
	_ = r.src.UnreadRune()
	return ch, true
}

func (r *Reader) pos() rval.Pos {
	return rval.Pos{File: r.file, Line: r.line, Column: r.col, Offset: r.off}
}

// ReadOne reads and returns exactly one top-level value, or an EOF
// indication per opts.EOFBehavior. Matches §4.1's read_one contract.
func ReadOne(src io.Reader, opts Opts) (rval.Value, error) {
	r := New(src, opts)
	return r.ReadOne()
}

// ReadOne reads the next value from this reader's stream.
func (r *Reader) ReadOne() (rval.Value, error) {
	v, err := r.readForm()
	if err != nil {
		if err == io.EOF {
			switch r.opts.EOFBehavior {
			case EOFValue:
				return nil, nil
			default:
				return nil, io.EOF
			}
		}
		return nil, err
	}
	return v, nil
}

// readForm skips whitespace/comments/discards then reads one value,
// applying any pending metadata form(s) that preceded it.
func (r *Reader) readForm() (rval.Value, error) {
	var meta *rval.Meta
	for {
		if err := r.skipIntertokenSpace(); err != nil {
			return nil, err
		}
		ch, err := r.nextRune()
		if err != nil {
			return nil, err
		}

		if ch == '^' {
			m, err := r.readMetaForm()
			if err != nil {
				return nil, err
			}
			meta = rval.Merge(meta, m)
			continue
		}

		r.unread()
		v, err := r.readDispatch()
		if err != nil {
			return nil, err
		}
		if v == nil {
			// #_ discard or similar: loop for the next real form.
			continue
		}
		if meta != nil {
			if mv, ok := v.(rval.Metaed); ok {
				return mv.WithMeta(meta), nil
			}
		}
		return v, nil
	}
}

// skipIntertokenSpace consumes whitespace (commas count as whitespace),
// `;` line comments, and `#!` line comments.
func (r *Reader) skipIntertokenSpace() error {
	for {
		ch, err := r.nextRune()
		if err != nil {
			return err
		}
		switch {
		case isWhitespace(ch):
			continue
		case ch == ';':
			r.skipLine()
			continue
		case ch == '#':
			// Push '#' back first: bufio allows one UnreadRune only, so a
			// peek() here would leave the '#' consumed.
			r.unread()
			if b, err := r.src.Peek(2); err == nil && b[1] == '!' {
				r.nextRune()
				r.nextRune()
				r.skipLine()
				continue
			}
			return nil
		default:
			r.unread()
			return nil
		}
	}
}

func (r *Reader) skipLine() {
	for {
		ch, err := r.nextRune()
		if err != nil || ch == '\n' {
			return
		}
	}
}

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == ',' || ch == '\f'
}

func isDelimiter(ch rune) bool {
	switch ch {
	case '(', ')', '[', ']', '{', '}', '"', ';', '\'', '@', '^', '`', '~':
		return true
	}
	return isWhitespace(ch)
}

// readDispatch reads the next value (not skipping leading metadata — that
// is handled by readForm).
func (r *Reader) readDispatch() (rval.Value, error) {
	ch, err := r.nextRune()
	if err != nil {
		return nil, err
	}
	startPos := r.pos()
	startPos.Column--

	switch {
	case ch == '(':
		return r.readList(startPos)
	case ch == '[':
		return r.readVector(startPos)
	case ch == '{':
		return r.readMap(startPos)
	case ch == ')' || ch == ']' || ch == '}':
		return nil, newErr(r, UnmatchedDelimiter, "unexpected %q", ch)
	case ch == '"':
		return r.readString(startPos)
	case ch == '\\':
		return r.readChar(startPos)
	case ch == ':':
		return r.readKeyword(startPos)
	case ch == '\'':
		return r.wrapSym("quote", startPos)
	case ch == '@':
		return r.wrapSym("deref", startPos)
	case ch == '`':
		return r.readSyntaxQuote(startPos)
	case ch == '~':
		if pk, ok := r.peek(); ok && pk == '@' {
			r.nextRune()
			return r.wrapSym("unquote-splicing", startPos)
		}
		return r.wrapSym("unquote", startPos)
	case ch == '#':
		return r.readDispatchMacro(startPos)
	default:
		r.unread()
		return r.readAtom(startPos)
	}
}

func (r *Reader) wrapSym(name string, pos rval.Pos) (rval.Value, error) {
	inner, err := r.readForm()
	if err != nil {
		return nil, err
	}
	return &rval.List{Items: []rval.Value{rval.NewSymbol("", name, pos), inner}, Pos: pos}, nil
}

func (r *Reader) readList(pos rval.Pos) (rval.Value, error) {
	items, err := r.readDelimited(')')
	if err != nil {
		return nil, err
	}
	return &rval.List{Items: items, Pos: pos}, nil
}

func (r *Reader) readVector(pos rval.Pos) (rval.Value, error) {
	items, err := r.readDelimited(']')
	if err != nil {
		return nil, err
	}
	return &rval.Vector{Items: items, Pos: pos}, nil
}

func (r *Reader) readSet(pos rval.Pos) (rval.Value, error) {
	items, err := r.readDelimited('}')
	if err != nil {
		return nil, err
	}
	return &rval.Set{Items: items, Pos: pos}, nil
}

func (r *Reader) readMap(pos rval.Pos) (rval.Value, error) {
	items, err := r.readDelimited('}')
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, newErr(r, UnmatchedDelimiter, "map literal requires an even number of forms")
	}
	m := &rval.Map{Pos: pos}
	for i := 0; i < len(items); i += 2 {
		m.Entries = append(m.Entries, rval.MapEntry{Key: items[i], Val: items[i+1]})
	}
	return m, nil
}

// readDelimited reads forms until `close`, consuming it. #_ discards are
// transparent: readForm already returns nil for them and we just skip.
func (r *Reader) readDelimited(close rune) ([]rval.Value, error) {
	r.listDepth++
	defer func() { r.listDepth-- }()
	var items []rval.Value
	for {
		if err := r.skipIntertokenSpace(); err != nil {
			if err == io.EOF {
				return nil, newErr(r, UnterminatedList, "unterminated form, expected %q", close)
			}
			return nil, err
		}
		ch, err := r.nextRune()
		if err != nil {
			return nil, newErr(r, UnterminatedList, "unterminated form, expected %q", close)
		}
		if ch == close {
			return items, nil
		}
		r.unread()
		v, err := r.readForm()
		if err != nil {
			return nil, err
		}
		switch sv := v.(type) {
		case nil:
			// #_ discard
		case spliceResult:
			items = append(items, sv.Items...)
		default:
			items = append(items, v)
		}
	}
}

func (r *Reader) readMetaForm() (map[string]rval.Value, error) {
	v, err := r.readForm()
	if err != nil {
		return nil, err
	}
	switch mv := v.(type) {
	case *rval.Map:
		entries := map[string]rval.Value{}
		for _, e := range mv.Entries {
			if kw, ok := e.Key.(*rval.Keyword); ok {
				entries[kw.Name] = e.Val
			} else if sym, ok := e.Key.(*rval.Symbol); ok {
				entries[sym.Name] = e.Val
			}
		}
		return entries, nil
	case *rval.Keyword:
		// ^:dynamic shorthand for {:dynamic true}
		return map[string]rval.Value{mv.Name: rval.Bool{V: true}}, nil
	case *rval.Symbol:
		// ^Type shorthand for {:tag Type}
		return map[string]rval.Value{"tag": mv}, nil
	default:
		return nil, newErr(r, InvalidDispatchChar, "invalid metadata form %T", v)
	}
}
