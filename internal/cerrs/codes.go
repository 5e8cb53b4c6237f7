// Package cerrs provides the compiler's centralized error-code taxonomy
// (§7): one stable code per phase/condition, a position-tagged Error
// type, and a Report that aggregates one compile batch's errors/warnings.
package cerrs

// Kind is the non-code-specific error taxonomy named in §7.
type Kind string

const (
	KindIOFailure             Kind = "IOFailure"
	KindReaderError           Kind = "ReaderError"
	KindUnresolvedSymbol      Kind = "UnresolvedSymbol"
	KindBadSpecialForm        Kind = "BadSpecialForm"
	KindDuplicateArity        Kind = "DuplicateArity"
	KindMultipleVariadic      Kind = "MultipleVariadic"
	KindInvalidVariadicArity  Kind = "InvalidVariadicArity"
	KindRecurArityMismatch    Kind = "RecurArityMismatch"
	KindRecurNotInTailPosition Kind = "RecurNotInTailPosition"
	KindUnknownFeature        Kind = "UnknownFeature"
	KindMacroExpansionFailed  Kind = "MacroExpansionFailed"
	KindAssemblyFailed        Kind = "AssemblyFailed"
	KindLoadFailed            Kind = "LoadFailed"
	KindNotImplemented        Kind = "NotImplemented"
	KindCompilePathUnset      Kind = "CompilePathUnset"
	KindDuplicateProtocolImpl Kind = "DuplicateProtocolImpl"
)

// Error codes grouped by phase, following a PAR###/TC###/... table shape
// adapted to this pipeline's phases.
const (
	// Reader errors (RD###)
	RD001 = "RD001" // unterminated list
	RD002 = "RD002" // unterminated string
	RD003 = "RD003" // invalid number
	RD004 = "RD004" // invalid escape
	RD005 = "RD005" // unmatched delimiter
	RD006 = "RD006" // invalid dispatch char
	RD007 = "RD007" // reader-conditional feature not found
	RD008 = "RD008" // %N used outside anonymous fn

	// Analyzer errors (AN###)
	AN001 = "AN001" // unresolved symbol
	AN002 = "AN002" // unknown special form / malformed special form
	AN003 = "AN003" // duplicate fn arity
	AN004 = "AN004" // multiple variadic fn methods
	AN005 = "AN005" // variadic arity less than a fixed arity
	AN006 = "AN006" // recur arity mismatch
	AN007 = "AN007" // recur not in tail position
	AN008 = "AN008" // macro expansion failed

	// Emitter errors (EM###)
	EM001 = "EM001" // unsupported AST node for emission
	EM002 = "EM002" // protocol method has no matching dispatch clause

	// Protocol lowering errors (PR###)
	PR001 = "PR001" // NotImplemented for a given (protocol, method, type)
	PR002 = "PR002" // duplicate implementation of a method for one type

	// Host VM / load errors (LD###)
	LD001 = "LD001" // assembly failed
	LD002 = "LD002" // load failed
	LD003 = "LD003" // compile path unset
)
