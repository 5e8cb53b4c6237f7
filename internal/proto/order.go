package proto

// primitiveOrder freezes the dispatch-clause order for host primitive
// types: the precise ordering of primitive-type clauses in generated
// dispatch modules must match host-side ordering expectations, so this
// order is documented once and frozen. This is the 14-entry table decided
// in DESIGN.md; it is consulted whenever a protocol has been extended
// onto a primitive type, and never reordered once a build has shipped
// against it.
var primitiveOrder = []string{
	"nil",
	"boolean",
	"integer",
	"float",
	"ratio",
	"big-integer",
	"big-decimal",
	"character",
	"string",
	"keyword",
	"symbol",
	"regex",
	"function",
	"other",
}

// PrimitiveIndex reports name's position in the frozen primitive order,
// used to sort dispatch arms for primitive-type implementations ahead of
// every tagged-record arm.
func PrimitiveIndex(name string) (int, bool) {
	for i, n := range primitiveOrder {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// IsKnownPrimitive reports whether name is one of the 14 frozen
// primitive-type discriminators.
func IsKnownPrimitive(name string) bool {
	_, ok := PrimitiveIndex(name)
	return ok
}
