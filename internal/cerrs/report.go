package cerrs

import (
	"fmt"
	"sort"
	"strings"
)

// Pos is a source location, carried on every Error/Warning.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column) }

// Diag is one error or warning entry.
type Diag struct {
	Kind    Kind
	Code    string
	Pos     Pos
	Message string
	// Fields carries kind-specific structured data (e.g. conflicting
	// arities for DuplicateArity) for the JSON encoder.
	Fields map[string]interface{}
	// Cause chains an inner error (e.g. the error the macro returned when
	// a MacroExpansionFailed occurred).
	Cause error
}

func (d *Diag) Error() string {
	if d.Cause != nil {
		return fmt.Sprintf("%s: %s: %s (caused by: %v)", d.Pos, d.Code, d.Message, d.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Code, d.Message)
}

// New builds a Diag, the constructor every phase package calls.
func New(kind Kind, code string, pos Pos, format string, args ...interface{}) *Diag {
	return &Diag{Kind: kind, Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an inner cause, used for MacroExpansionFailed{cause} per §7.
func (d *Diag) Wrap(cause error) *Diag {
	cp := *d
	cp.Cause = cause
	return &cp
}

// WithField attaches one structured field.
func (d *Diag) WithField(key string, val interface{}) *Diag {
	if d.Fields == nil {
		d.Fields = map[string]interface{}{}
	}
	d.Fields[key] = val
	return d
}

// Report aggregates one compile batch's errors and warnings (§7: "one line
// per error ... one line per warning; a non-zero exit code if any error
// occurred").
type Report struct {
	Errors      []*Diag
	Warnings    []*Diag
	suppressed  map[string]bool
}

// NewReport creates an empty report, optionally suppressing specific
// warning codes per the `no-warn-symbol-as-erl-fun` /
// `no-warn-dynamic-var-name` flags.
func NewReport(suppressedWarnings ...string) *Report {
	r := &Report{suppressed: map[string]bool{}}
	for _, c := range suppressedWarnings {
		r.suppressed[c] = true
	}
	return r
}

func (r *Report) AddError(d *Diag)   { r.Errors = append(r.Errors, d) }
func (r *Report) AddWarning(d *Diag) {
	if r.suppressed[d.Code] {
		return
	}
	r.Warnings = append(r.Warnings, d)
}

func (r *Report) HasErrors() bool { return len(r.Errors) > 0 }

// ExitCode matches §7/§6: 0 success, 1 compile-error.
func (r *Report) ExitCode() int {
	if r.HasErrors() {
		return 1
	}
	return 0
}

// Render produces `file:line:col: CODE: message` lines, errors first (in
// original order) then warnings.
func (r *Report) Render() string {
	var b strings.Builder
	for _, d := range r.Errors {
		fmt.Fprintf(&b, "%s: %s: %s\n", d.Pos, d.Code, d.Message)
	}
	for _, d := range r.Warnings {
		fmt.Fprintf(&b, "%s: warning: %s: %s\n", d.Pos, d.Code, d.Message)
	}
	return b.String()
}

// SortedByPosition returns a stable, position-ordered copy of all errors,
// used by callers that want deterministic CLI output across files.
func (r *Report) SortedByPosition() []*Diag {
	all := append([]*Diag{}, r.Errors...)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Pos.File != all[j].Pos.File {
			return all[i].Pos.File < all[j].Pos.File
		}
		if all[i].Pos.Line != all[j].Pos.Line {
			return all[i].Pos.Line < all[j].Pos.Line
		}
		return all[i].Pos.Column < all[j].Pos.Column
	})
	return all
}
