package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDisablesReadEval(t *testing.T) {
	cfg := Default()
	if cfg.AllowReadEval {
		t.Fatalf("expected read-time eval disabled by default")
	}
	if cfg.CompileFiles {
		t.Fatalf("expected compile-files disabled by default")
	}
}

func TestLoadMergesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(path, []byte("compile_files: true\ncompile_path: ./ebin\nallow_read_eval: true\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.CompileFiles || cfg.CompilePath != "./ebin" || !cfg.AllowReadEval {
		t.Fatalf("expected YAML overrides applied, got %+v", cfg)
	}
}

func TestApplyEnvParsesCompilerOptions(t *testing.T) {
	t.Setenv("LISPC_COMPILER_OPTIONS", "warn_unused, no_debug  extra")
	cfg := Default()
	cfg.ApplyEnv()
	want := []string{"warn_unused", "no_debug", "extra"}
	if len(cfg.AssemblerOptions) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.AssemblerOptions)
	}
	for i, w := range want {
		if cfg.AssemblerOptions[i] != w {
			t.Fatalf("expected %v, got %v", want, cfg.AssemblerOptions)
		}
	}
}

func TestApplyEnvNoopWhenUnset(t *testing.T) {
	t.Setenv("LISPC_COMPILER_OPTIONS", "")
	cfg := Default()
	cfg.ApplyEnv()
	if len(cfg.AssemblerOptions) != 0 {
		t.Fatalf("expected no assembler options, got %v", cfg.AssemblerOptions)
	}
}
