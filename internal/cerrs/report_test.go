package cerrs

import "testing"

func TestReportExitCode(t *testing.T) {
	r := NewReport()
	if r.ExitCode() != 0 {
		t.Fatalf("expected exit 0 for empty report")
	}
	r.AddError(New(KindUnresolvedSymbol, AN001, Pos{File: "a.clj", Line: 1, Column: 1}, "unresolved symbol %s", "foo"))
	if r.ExitCode() != 1 {
		t.Fatalf("expected exit 1 once an error is present")
	}
}

func TestWarningSuppression(t *testing.T) {
	r := NewReport(AN001)
	r.AddWarning(New(KindUnresolvedSymbol, AN001, Pos{}, "suppressed"))
	r.AddWarning(New(KindUnresolvedSymbol, AN002, Pos{}, "kept"))
	if len(r.Warnings) != 1 {
		t.Fatalf("expected one warning to survive suppression, got %d", len(r.Warnings))
	}
}

func TestEncodeReportRoundTrips(t *testing.T) {
	r := NewReport()
	r.AddError(New(KindRecurArityMismatch, AN006, Pos{File: "a.clj", Line: 3, Column: 5}, "arity mismatch").WithField("expected", 2))
	b, err := EncodeReport(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("expected non-empty JSON output")
	}
}
