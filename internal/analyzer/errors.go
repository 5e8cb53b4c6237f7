package analyzer

import "github.com/lispc-lang/lispc/internal/cerrs"

func newBadSpecialForm(pos cerrs.Pos, msg string) *cerrs.Diag {
	return cerrs.New(cerrs.KindBadSpecialForm, cerrs.AN002, pos, "%s", msg)
}

func newUnresolvedSymbol(pos cerrs.Pos, name string) *cerrs.Diag {
	return cerrs.New(cerrs.KindUnresolvedSymbol, cerrs.AN001, pos, "unresolved symbol: %s", name)
}

func newDuplicateArity(pos cerrs.Pos, msg string) *cerrs.Diag {
	return cerrs.New(cerrs.KindDuplicateArity, cerrs.AN003, pos, "%s", msg)
}

func newMultipleVariadic(pos cerrs.Pos, msg string) *cerrs.Diag {
	return cerrs.New(cerrs.KindMultipleVariadic, cerrs.AN004, pos, "%s", msg)
}

func newInvalidVariadicArity(pos cerrs.Pos, msg string) *cerrs.Diag {
	return cerrs.New(cerrs.KindInvalidVariadicArity, cerrs.AN005, pos, "%s", msg)
}

func newRecurArityMismatch(pos cerrs.Pos, msg string) *cerrs.Diag {
	return cerrs.New(cerrs.KindRecurArityMismatch, cerrs.AN006, pos, "%s", msg)
}

func newRecurNotInTailPos(pos cerrs.Pos, msg string) *cerrs.Diag {
	return cerrs.New(cerrs.KindRecurNotInTailPosition, cerrs.AN007, pos, "%s", msg)
}
