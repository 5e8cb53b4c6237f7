package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunCompileMissingArgsExitsTwo(t *testing.T) {
	if code := run([]string{"compile"}); code != 2 {
		t.Fatalf("expected exit code 2 for missing args, got %d", code)
	}
}

func TestRunUnknownCommandExitsTwo(t *testing.T) {
	if code := run([]string{"bogus"}); code != 2 {
		t.Fatalf("expected exit code 2 for unknown command, got %d", code)
	}
}

func TestRunCompileNonexistentFileExitsOne(t *testing.T) {
	if code := run([]string{"compile", "/no/such/path.lisp"}); code != 1 {
		t.Fatalf("expected exit code 1 for unreadable source, got %d", code)
	}
}

func TestRunCompileValidSourceExitsZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.lisp")
	if err := os.WriteFile(path, []byte("(def x 10)"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if code := run([]string{"compile", path}); code != 0 {
		t.Fatalf("expected exit code 0 for valid source, got %d", code)
	}
}

func TestRunReplRejectsExtraArgs(t *testing.T) {
	if code := run([]string{"repl", "extra"}); code != 2 {
		t.Fatalf("expected exit code 2 for repl with extra args, got %d", code)
	}
}
