// Package coreir is the lambda-calculus Core IR the emitter produces and
// hands to the host VM's assembler (§1/§6). Adapted from an
// A-normal-form tree, renamed to this dialect's node set: every complex
// expression is still decomposed so a backend can compile each piece
// independently, but nodes correspond to AST ops rather than to an ML
// surface language.
package coreir

import "fmt"

// Expr is the base interface for every Core IR expression.
type Expr interface {
	fmt.Stringer
	coreExpr()
}

// Var is a reference to a local or top-level binding by name.
type Var struct{ Name string }

func (Var) coreExpr()        {}
func (v Var) String() string { return v.Name }

// LitKind discriminates Lit's payload.
type LitKind int

const (
	LitNil LitKind = iota
	LitBool
	LitInt
	LitFloat
	LitString
	LitChar
	LitKeyword
	LitBigInt
	LitRatio
)

// Lit is a literal constant.
type Lit struct {
	Kind  LitKind
	Value interface{}
}

func (Lit) coreExpr()        {}
func (l Lit) String() string { return fmt.Sprintf("%v", l.Value) }

// Lambda is a closure: params plus a body, with captured free variables
// left implicit (the emitter resolves them via the lexical Env).
type Lambda struct {
	Params   []string
	Variadic bool
	Body     Expr
	Name     string // "" for anonymous; set for named top-level fns
}

func (Lambda) coreExpr() {}
func (l Lambda) String() string {
	return fmt.Sprintf("(lambda %v %s)", l.Params, l.Body)
}

// Let is a single non-recursive binding.
type Let struct {
	Name string
	Init Expr
	Body Expr
}

func (Let) coreExpr() {}
func (l Let) String() string {
	return fmt.Sprintf("(let [%s %s] %s)", l.Name, l.Init, l.Body)
}

// RecBinding is one binding of a LetRec group.
type RecBinding struct {
	Name string
	Init Expr
}

// LetRec backs `loop*`/named-fn self-reference: all bindings see each
// other, enabling tail-recursive `recur` compilation via a named function.
type LetRec struct {
	Bindings []RecBinding
	Body     Expr
}

func (LetRec) coreExpr()        {}
func (l LetRec) String() string { return fmt.Sprintf("(letrec %v %s)", l.Bindings, l.Body) }

// App is function application.
type App struct {
	Fn   Expr
	Args []Expr
}

func (App) coreExpr()        {}
func (a App) String() string { return fmt.Sprintf("(%s %v)", a.Fn, a.Args) }

// TailCall is a `recur`-compiled call to a named loop function — a goto
// where the backend permits, an ordinary App otherwise (§4.3).
type TailCall struct {
	Target string
	Args   []Expr
}

func (TailCall) coreExpr()        {}
func (t TailCall) String() string { return fmt.Sprintf("(tailcall %s %v)", t.Target, t.Args) }

// If lowers the dialect's nilable-truthiness `if` (nil and false are the
// only falsey values) to a Core IR binary branch.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (If) coreExpr()        {}
func (i If) String() string { return fmt.Sprintf("(if %s %s %s)", i.Cond, i.Then, i.Else) }

// PatternKind discriminates Pattern.
type PatternKind int

const (
	PatWildcard PatternKind = iota
	PatVar
	PatLit
	PatTaggedRecord // matches {:type T, ...}
	PatPrimitiveType
	PatAnyRecord // matches any record-shaped value regardless of :type
)

// Pattern is one Match arm's discriminator.
type Pattern struct {
	Kind  PatternKind
	Name  string      // PatVar/PatTaggedRecord type name/PatPrimitiveType name
	Value interface{} // PatLit
}

// MatchArm is one (pattern, guard, body) arm.
type MatchArm struct {
	Pattern Pattern
	Guard   Expr // nil if unguarded
	Body    Expr
}

// Match is a direct Core IR pattern match with a mandatory default arm
// (the emitter's translation of `case*`, and the mechanism protocol
// dispatch lowering compiles to).
type Match struct {
	Scrutinee Expr
	Arms      []MatchArm
}

func (Match) coreExpr()        {}
func (m Match) String() string { return fmt.Sprintf("(match %s %v)", m.Scrutinee, m.Arms) }

// Try is a Core IR try/catch/finally, catch clauses pattern-matching on an
// exception class name ("" for :default).
type CatchClause struct {
	ClassName string
	BindName  string
	Body      Expr
}

type Try struct {
	Body    Expr
	Catches []CatchClause
	Finally Expr // nil if absent
}

func (Try) coreExpr()        {}
func (t Try) String() string { return fmt.Sprintf("(try %s %v %s)", t.Body, t.Catches, t.Finally) }

// Do sequences expressions for effect, evaluating to the last one. Used
// for `do` bodies and module on-load initializers.
type Do struct{ Stmts []Expr }

func (Do) coreExpr()        {}
func (d Do) String() string { return fmt.Sprintf("(do %v)", d.Stmts) }

// Throw raises a value as an exception.
type Throw struct{ Expr Expr }

func (Throw) coreExpr()        {}
func (t Throw) String() string { return fmt.Sprintf("(throw %s)", t.Expr) }

// Record constructs a tagged map-like value `{:type T, field: v, ...}`.
type Record struct {
	Type   string
	Fields []RecordField
}

type RecordField struct {
	Name string
	Val  Expr
}

func (Record) coreExpr()        {}
func (r Record) String() string { return fmt.Sprintf("(record %s %v)", r.Type, r.Fields) }

// RecordAccess reads one field.
type RecordAccess struct {
	Target Expr
	Field  string
}

func (RecordAccess) coreExpr() {}
func (r RecordAccess) String() string {
	return fmt.Sprintf("(. %s %s)", r.Target, r.Field)
}

// List is a literal sequence constructor (vectors/lists/sets at the Core
// IR level are all represented as List with a Kind tag; the persistent-
// collection runtime interprets Kind, per §1's "treated as a fixed
// library").
type ListKind int

const (
	ListKindList ListKind = iota
	ListKindVector
	ListKindSet
)

type List struct {
	Kind  ListKind
	Items []Expr
}

func (List) coreExpr()        {}
func (l List) String() string { return fmt.Sprintf("(list %v)", l.Items) }

// Map is a literal map constructor.
type MapEntry struct {
	Key Expr
	Val Expr
}

type Map struct{ Entries []MapEntry }

func (Map) coreExpr()        {}
func (m Map) String() string { return fmt.Sprintf("(map %v)", m.Entries) }

// VarRef/Def model the host VM's Var protocol: named, namespaced,
// process-wide mutable cells.
type VarRef struct{ Ns, Name string }

func (VarRef) coreExpr()        {}
func (v VarRef) String() string { return fmt.Sprintf("(var-ref %s/%s)", v.Ns, v.Name) }

type Def struct {
	Ns   string
	Name string
	Init Expr
}

func (Def) coreExpr()        {}
func (d Def) String() string { return fmt.Sprintf("(def %s/%s %s)", d.Ns, d.Name, d.Init) }

// Func is one top-level function registered into a module (see
// internal/modctx): distinct from Lambda in that it has a stable exported
// name the module tree carries.
type Func struct {
	Name string
	Fn   *Lambda
}

// Attr is a module-level attribute (e.g. doc string, behavior list).
type Attr struct {
	Key string
	Val interface{}
}

// Module is one finalized Core IR module tree: the unit `assemble` and
// `load` operate on (§3 Module-in-progress / §6).
type Module struct {
	Name      string
	Attrs     []Attr
	Exports   []string
	Functions []Func
	OnLoad    Expr // nil if module has no initializer
}
