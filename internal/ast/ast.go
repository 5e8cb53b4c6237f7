// Package ast defines the analyzer's typed AST: the ~40-tag node set
// produced by lowering a macro-expanded reader form against an
// environment (§3 AST node, §4.2 Analyzer).
package ast

import (
	"github.com/lispc-lang/lispc/internal/env"
	"github.com/lispc-lang/lispc/internal/rval"
)

// Op tags every AST node; the set is exhaustive per §3.
type Op string

const (
	OpConstant     Op = "constant"
	OpQuote        Op = "quote"
	OpLocal        Op = "local"
	OpBinding      Op = "binding"
	OpFn           Op = "fn"
	OpFnMethod     Op = "fn_method"
	OpDo           Op = "do"
	OpIf           Op = "if"
	OpLet          Op = "let"
	OpLoop         Op = "loop"
	OpRecur        Op = "recur"
	OpLetFn        Op = "letfn"
	OpCase         Op = "case"
	OpErlMap       Op = "erl_map"
	OpErlList      Op = "erl_list"
	OpErlBinary    Op = "erl_binary"
	OpBinarySeg    Op = "binary_segment"
	OpTuple        Op = "tuple"
	OpDef          Op = "def"
	OpImport       Op = "import"
	OpNew          Op = "new"
	OpDefType      Op = "deftype"
	OpDefProtocol  Op = "defprotocol"
	OpExtendType   Op = "extend_type"
	OpInvoke       Op = "invoke"
	OpResolveType  Op = "resolve_type"
	OpThrow        Op = "throw"
	OpTry          Op = "try"
	OpCatch        Op = "catch"
	OpErlFun       Op = "erl_fun"
	OpVar          Op = "var"
	OpType         Op = "type"
	OpWithMeta     Op = "with_meta"
	OpVector       Op = "vector"
	OpSet          Op = "set"
	OpMap          Op = "map"
	OpReceive      Op = "receive"
	OpAfter        Op = "after"
	OpErlAlias     Op = "erl_alias"
	OpOnLoad       Op = "on_load"
)

// Node is every AST node's base interface.
type Node interface {
	Op() Op
	Env() *env.Env
	Form() rval.Value
	Tag() Node // optional nested type-hint AST; nil if absent
}

// Base carries the fields every node tag shares: op, a captured-env
// snapshot for diagnostics, the source reader form, and an optional type
// hint AST.
type Base struct {
	op   Op
	env  *env.Env
	form rval.Value
	tag  Node
}

func NewBase(op Op, e *env.Env, form rval.Value, tag Node) Base {
	return Base{op: op, env: e, form: form, tag: tag}
}

func (b Base) Op() Op          { return b.op }
func (b Base) Env() *env.Env   { return b.env }
func (b Base) Form() rval.Value { return b.form }
func (b Base) Tag() Node       { return b.tag }

// --- leaf / simple nodes -------------------------------------------------

// Constant is a self-evaluating literal (possibly lifted to an on_load
// initializer by the emitter if non-literal, e.g. a vector).
type Constant struct {
	Base
	Value rval.Value
}

// Quote is `(quote form)`: the form itself, unevaluated.
type Quote struct {
	Base
	Quoted rval.Value
}

// Local is a reference to a lexical binding.
type Local struct {
	Base
	Binding *env.LocalBinding
	Name    string
}

// Binding is one (name, init) pair inside a `let*`/`loop*`/`letfn*`.
type Binding struct {
	Base
	Name    string
	Local   *env.LocalBinding
	Init    Node
}

// FnMethod is one arity of a `fn*`: its own loop id/arity and body.
type FnMethod struct {
	Base
	Params     []*env.LocalBinding
	Variadic   bool
	FixedArity int
	LoopID     int
	Body       Node
}

// Fn lowers a `fn*` form: one or more FnMethod arities plus derived arity
// metadata used by the emitter's multi-arity dispatcher.
type Fn struct {
	Base
	SelfName        string
	SelfLocal       *env.LocalBinding
	Methods         []*FnMethod
	Variadic        bool
	FixedArities    []int
	MinFixedArity   int
	MaxFixedArity   int
	VariadicArity   int // -1 if not variadic
	Once            bool
}

// Do is a `do` block: all but the last expr are for effect.
type Do struct {
	Base
	Stmts []Node
	Ret   Node
}

// If is `if test then else`. else may be nil (defaults to nil value).
type If struct {
	Base
	Test Node
	Then Node
	Else Node
}

// Let is `let*`.
type Let struct {
	Base
	Bindings []*Binding
	Body     Node
}

// Loop is `loop*`: like Let, but establishes a recur target.
type Loop struct {
	Base
	Bindings []*Binding
	Body     Node
	LoopID   int
}

// Recur is a tail call back to its LoopID; analyzer rejects any Recur not
// in tail position relative to that target.
type Recur struct {
	Base
	Exprs  []Node
	LoopID int
}

// LetFn is `letfn*`: mutually-recursive local function bindings.
type LetFn struct {
	Base
	Bindings []*Binding
	Body     Node
}

// CaseClause is one (pattern, body) arm of a `case*`.
type CaseClause struct {
	Pattern rval.Value
	Body    Node
}

// Case is `case*`: a dense pattern match with a mandatory default.
type Case struct {
	Base
	Test    Node
	Clauses []CaseClause
	Default Node
}

// ErlMap/ErlList/ErlBinary/BinarySegment/Tuple/ErlFun/ErlAlias are host-VM
// literal-shape nodes the emitter translates directly to the matching Core
// IR construct (the host VM's native map/list/binary/tuple/fun/alias
// forms), analogous to Clojure's map/vector/set literal nodes but for
// Erlang-shaped host data the dialect also exposes.
type ErlMap struct {
	Base
	Keys   []Node
	Values []Node
}

type ErlList struct {
	Base
	Items []Node
	Tail  Node // improper-list tail, nil for a proper list
}

type BinarySegment struct {
	Base
	Value Node
	Size  Node
	Type  string // integer, float, binary, utf8, ...
}

type ErlBinary struct {
	Base
	Segments []*BinarySegment
}

type Tuple struct {
	Base
	Items []Node
}

type ErlFun struct {
	Base
	Module   string
	Function string
	Arity    int
}

type ErlAlias struct {
	Base
	Name Node
	Pid  Node
}

// Def is `def`: interns a Var and assigns its root binding.
type Def struct {
	Base
	Name   string
	Var    *env.Var
	Init   Node
	IsMacro bool
}

// Import is `import*`: a host-type import into the current namespace.
type Import struct {
	Base
	HostName string
	LocalName string
}

// New is `(new Type args...)`.
type New struct {
	Base
	Type string
	Args []Node
}

// DefType is `deftype*`: a new record type with its fields and the
// protocol methods it implements.
type DefType struct {
	Base
	Name    string
	Fields  []string
	Methods []*ProtocolMethodImpl
}

// ProtocolMethodImpl is one method body supplied by a deftype/extend-type
// for a given protocol.
type ProtocolMethodImpl struct {
	Protocol string
	Method   string
	Fn       *Fn
}

// ProtocolMethodSig is one method signature declared by defprotocol.
type ProtocolMethodSig struct {
	Name    string
	Arities []int
}

// DefProtocol is `defprotocol`.
type DefProtocol struct {
	Base
	Name    string
	Methods []ProtocolMethodSig
}

// ExtendType is `extend-type T P1 (m1 [..] ..) P2 ...`.
type ExtendType struct {
	Base
	Type    string
	Methods []*ProtocolMethodImpl
}

// Invoke is a function call/application.
type Invoke struct {
	Base
	Fn   Node
	Args []Node
}

// ResolveType resolves a `Type/static` or bare host-type reference.
type ResolveType struct {
	Base
	Name string
}

// Throw is `(throw expr)`.
type Throw struct {
	Base
	Expr Node
}

// Catch is one catch clause of a `try`.
type Catch struct {
	Base
	ClassName   string // or "" for :default
	Binding     *env.LocalBinding
	StackBinding *env.LocalBinding
	Body        Node
}

// Try is `try`/`catch`/`finally`.
type Try struct {
	Base
	Body    Node
	Catches []*Catch
	Finally Node // nil if absent
}

// VarNode is a resolved reference to a namespace Var. Ordinary symbol
// resolution lowers to a VarNode with Reified=false (the emitter derefs
// it); `(var sym)` and `#'sym` lower to Reified=true (the Var object
// itself, for metaprogramming).
type VarNode struct {
	Base
	Ref     *env.Var
	Reified bool
}

// TypeNode names a host/record type by itself (used inside Tag hints and
// `instance?`-like checks).
type TypeNode struct {
	Base
	Name string
}

// WithMeta attaches runtime metadata to an evaluated expression's result.
type WithMeta struct {
	Base
	Expr Node
	Meta map[string]Node
}

// Vector/SetNode/Map are literal collection constructors.
type Vector struct {
	Base
	Items []Node
}

type SetNode struct {
	Base
	Items []Node
}

type MapPair struct {
	Key Node
	Val Node
}

type MapNode struct {
	Base
	Pairs []MapPair
}

// Receive/After model the host VM's selective-receive block: zero or more
// pattern clauses plus an optional timeout (`after`) clause.
type ReceiveClause struct {
	Pattern rval.Value
	Guard   Node
	Body    Node
}

type After struct {
	Base
	Timeout Node
	Body    Node
}

type Receive struct {
	Base
	Clauses []ReceiveClause
	After   *After
}

// OnLoad is a module's `on-load*` initializer body (emitted for
// non-literal constants and deftype/protocol bootstrap, per §4.3).
type OnLoad struct {
	Base
	Body Node
}
