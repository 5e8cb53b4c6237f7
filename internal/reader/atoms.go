package reader

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/lispc-lang/lispc/internal/rval"
)

var namedChars = map[string]rune{
	"space":     ' ',
	"tab":       '\t',
	"newline":   '\n',
	"return":    '\r',
	"formfeed":  '\f',
	"backspace": '\b',
}

func (r *Reader) readChar(pos rval.Pos) (rval.Value, error) {
	ch, err := r.nextRune()
	if err != nil {
		return nil, newErr(r, UnterminatedString, "EOF reading character literal")
	}
	if !isLetter(ch) {
		return rval.Char{V: ch}, nil
	}
	// Possible named character or \uHHHH — keep consuming while it looks
	// like a token.
	var b strings.Builder
	b.WriteRune(ch)
	for {
		pk, ok := r.peek()
		if !ok || isDelimiter(pk) {
			break
		}
		r.nextRune()
		b.WriteRune(pk)
	}
	tok := b.String()
	if len(tok) == 1 {
		return rval.Char{V: rune(tok[0])}, nil
	}
	if named, ok := namedChars[tok]; ok {
		return rval.Char{V: named}, nil
	}
	if strings.HasPrefix(tok, "u") && len(tok) == 5 {
		n, err := strconv.ParseInt(tok[1:], 16, 32)
		if err != nil {
			return nil, newErr(r, InvalidEscape, "invalid unicode character literal \\%s", tok)
		}
		return rval.Char{V: rune(n)}, nil
	}
	return nil, newErr(r, InvalidEscape, "unsupported character literal \\%s", tok)
}

func (r *Reader) readString(pos rval.Pos) (rval.Value, error) {
	var b strings.Builder
	for {
		ch, err := r.nextRune()
		if err != nil {
			return nil, newErr(r, UnterminatedString, "EOF inside string literal")
		}
		if ch == '"' {
			return rval.Str{V: b.String()}, nil
		}
		if ch == '\\' {
			esc, err := r.readEscape()
			if err != nil {
				return nil, err
			}
			b.WriteRune(esc)
			continue
		}
		b.WriteRune(ch)
	}
}

func (r *Reader) readEscape() (rune, error) {
	ch, err := r.nextRune()
	if err != nil {
		return 0, newErr(r, UnterminatedString, "EOF inside escape sequence")
	}
	switch ch {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case 'f':
		return '\f', nil
	case 'b':
		return '\b', nil
	case '\\', '"', '\'':
		return ch, nil
	case 'u':
		var digits strings.Builder
		for i := 0; i < 4; i++ {
			d, err := r.nextRune()
			if err != nil {
				return 0, newErr(r, InvalidEscape, "EOF inside \\u escape")
			}
			digits.WriteRune(d)
		}
		n, err := strconv.ParseInt(digits.String(), 16, 32)
		if err != nil {
			return 0, newErr(r, InvalidEscape, "invalid \\u escape %q", digits.String())
		}
		return rune(n), nil
	default:
		return 0, newErr(r, InvalidEscape, "unsupported escape \\%c", ch)
	}
}

func (r *Reader) readKeyword(pos rval.Pos) (rval.Value, error) {
	tok, err := r.readToken()
	if err != nil {
		return nil, err
	}
	ns, name := splitNsName(normalizeToken(tok))
	if ns == "" && strings.HasPrefix(name, ":") {
		// `::name` auto-qualifies against the current namespace.
		name = strings.TrimPrefix(name, ":")
		ns = r.currentNS
	}
	return rval.InternKeyword(ns, name), nil
}

// normalizeToken applies Unicode NFC normalization to a symbol/keyword
// token before it is split and interned, so visually identical names
// that arrive in different combining-character forms (e.g. a precomposed
// accented letter vs. the same letter plus a combining accent) intern to
// the same keyword/symbol.
func normalizeToken(tok string) string {
	if norm.NFC.IsNormalString(tok) {
		return tok
	}
	return norm.NFC.String(tok)
}

// readToken reads a run of non-delimiter characters.
func (r *Reader) readToken() (string, error) {
	var b strings.Builder
	for {
		ch, ok := r.peek()
		if !ok || isDelimiter(ch) {
			break
		}
		r.nextRune()
		b.WriteRune(ch)
	}
	if b.Len() == 0 {
		return "", newErr(r, InvalidDispatchChar, "empty token")
	}
	return b.String(), nil
}

func splitNsName(tok string) (ns, name string) {
	if i := strings.LastIndex(tok, "/"); i > 0 && i < len(tok)-1 {
		return tok[:i], tok[i+1:]
	}
	return "", tok
}

var (
	intPat   = regexp.MustCompile(`^([-+]?)(?:0[xX]([0-9A-Fa-f]+)|0([0-7]+)|([1-9][0-9]*[rR][0-9A-Za-z]+)|([0-9]+))(N)?$`)
	ratioPat = regexp.MustCompile(`^([-+]?[0-9]+)/([0-9]+)$`)
	floatPat = regexp.MustCompile(`^([-+]?[0-9]+(\.[0-9]*)?([eE][-+]?[0-9]+)?)(M)?$`)
)

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

// readAtom reads a number, symbol, or boolean/nil literal.
func (r *Reader) readAtom(pos rval.Pos) (rval.Value, error) {
	tok, err := r.readToken()
	if err != nil {
		return nil, err
	}
	if v, ok := tryParseNumber(tok); ok {
		return v, nil
	}
	if strings.HasPrefix(tok, "%") {
		return r.readArg(tok, pos)
	}
	switch tok {
	case "nil":
		return rval.Nil{}, nil
	case "true":
		return rval.Bool{V: true}, nil
	case "false":
		return rval.Bool{V: false}, nil
	}
	ns, name := splitNsName(normalizeToken(tok))
	sym := rval.NewSymbol(ns, name, pos)
	return sym, nil
}

// tryParseNumber parses integer, radix, ratio, big-integer (N suffix),
// float, and big-decimal (M suffix) literals per §4.1.
func tryParseNumber(tok string) (rval.Value, bool) {
	if tok == "" {
		return nil, false
	}
	if !isDigit(rune(tok[0])) && !((tok[0] == '-' || tok[0] == '+') && len(tok) > 1 && isDigit(rune(tok[1]))) {
		return nil, false
	}
	if m := ratioPat.FindStringSubmatch(tok); m != nil {
		num := new(big.Int)
		den := new(big.Int)
		num.SetString(m[1], 10)
		den.SetString(m[2], 10)
		return rval.Ratio{Num: num, Den: den}, true
	}
	if m := intPat.FindStringSubmatch(tok); m != nil {
		sign := m[1]
		big_ := m[6] == "N"
		var n *big.Int
		switch {
		case m[2] != "":
			n = bigFromBase(sign+m[2], 16)
		case m[3] != "":
			n = bigFromBase(sign+m[3], 8)
		case m[4] != "":
			parts := strings.SplitN(strings.ToLower(m[4]), "r", 2)
			base, _ := strconv.Atoi(sign + parts[0])
			if base < 0 {
				base = -base
			}
			n = bigFromBase(parts[1], base)
			if sign == "-" {
				n.Neg(n)
			}
		default:
			n = bigFromBase(sign+m[5], 10)
		}
		if big_ {
			return rval.BigInt{V: n}, true
		}
		if n.IsInt64() {
			return rval.Int{V: n.Int64()}, true
		}
		return rval.BigInt{V: n}, true
	}
	if m := floatPat.FindStringSubmatch(tok); m != nil {
		if m[4] == "M" {
			f, _, err := big.ParseFloat(m[1], 10, 100, big.ToNearestEven)
			if err != nil {
				return nil, false
			}
			return rval.BigDecimal{V: f}, true
		}
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, false
		}
		return rval.Float{V: f}, true
	}
	return nil, false
}

func bigFromBase(s string, base int) *big.Int {
	n := new(big.Int)
	n.SetString(s, base)
	return n
}
