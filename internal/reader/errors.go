package reader

import "fmt"

// ErrorKind enumerates the reader's named failure kinds.
type ErrorKind string

const (
	UnterminatedList    ErrorKind = "UnterminatedList"
	UnterminatedString  ErrorKind = "UnterminatedString"
	InvalidNumber       ErrorKind = "InvalidNumber"
	InvalidEscape       ErrorKind = "InvalidEscape"
	UnmatchedDelimiter  ErrorKind = "UnmatchedDelimiter"
	InvalidDispatchChar ErrorKind = "InvalidDispatchChar"
	FeatureNotFound     ErrorKind = "FeatureNotFound"
	UnsupportedArg      ErrorKind = "UnsupportedArg"
)

// Error is a reader failure, tagged with its Kind and source position.
type Error struct {
	Kind ErrorKind
	File string
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Col, e.Kind, e.Msg)
}

func newErr(r *Reader, kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{
		Kind: kind,
		File: r.file,
		Line: r.line,
		Col:  r.col,
		Msg:  fmt.Sprintf(format, args...),
	}
}
