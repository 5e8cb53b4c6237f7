// Command lispc is the CLI surface named as an optional outer
// collaborator (§6): `compile <paths>`, `run <script>`, `repl`,
// exit codes 0 success / 1 compile-error / 2 bad-invocation, and
// LISPC_COMPILER_OPTIONS (this dialect's ERL_COMPILER_OPTIONS
// equivalent) parsed into Config.AssemblerOptions, which are not passed
// on to the assemble() call. Restructured
// from a flag.Bool/flag.Parse plus command-name switch onto cobra,
// promoting spf13/cobra from an indirect-only dependency to direct use.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lispc-lang/lispc/internal/config"
	"github.com/lispc-lang/lispc/internal/driver"
	"github.com/lispc-lang/lispc/internal/hostvm"
	"github.com/lispc-lang/lispc/internal/repl"
)

// version is set by ldflags at build time.
var version = "dev"

// exitError carries the process exit code a RunE failure should produce,
// distinguishing a compile failure (1) from a usage/invocation error (2,
// cobra's own default for argument-validation failures).
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", ee.err)
			return ee.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lispc",
		Short:         "Clojure-dialect compiler targeting the host VM's Core IR",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCompileCmd(), newRunCmd(), newReplCmd())
	return root
}

func newDriverFromFlags(cfg *config.Config) *driver.Driver {
	cfg.ApplyEnv()
	store := hostvm.NewBytecodeStore(cfg.CompileFiles, cfg.CompilePath, cfg.CompileProtocolsPath)
	return driver.New("user", hostvm.FakeAssembler{}, hostvm.NewFakeLoader(store), store)
}

func newCompileCmd() *cobra.Command {
	cfg := config.Default()
	cmd := &cobra.Command{
		Use:   "compile <paths...>",
		Short: "Compile source files to host VM bytecode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDriverFromFlags(cfg)
			for _, path := range args {
				src, err := os.ReadFile(path)
				if err != nil {
					return &exitError{1, err}
				}
				if _, err := d.EvalSource(context.Background(), path, string(src)); err != nil {
					return &exitError{1, err}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cfg.CompileFiles, "compile-files", false, "write assembled bytecode to compile-path instead of stashing it in memory")
	cmd.Flags().StringVar(&cfg.CompilePath, "compile-path", "", "directory assembled bytecode is written to when --compile-files is set")
	cmd.Flags().StringVar(&cfg.CompileProtocolsPath, "compile-protocols-path", "", "directory protocol dispatch modules are written to (falls back to --compile-path with a warning if unset)")
	return cmd
}

func newRunCmd() *cobra.Command {
	cfg := config.Default()
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Compile and load a script, one top-level form at a time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDriverFromFlags(cfg)
			src, err := os.ReadFile(args[0])
			if err != nil {
				return &exitError{1, err}
			}
			if _, err := d.EvalSource(context.Background(), args[0], string(src)); err != nil {
				return &exitError{1, err}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cfg.CompileFiles, "compile-files", false, "write assembled bytecode to compile-path instead of stashing it in memory")
	cmd.Flags().StringVar(&cfg.CompilePath, "compile-path", "", "directory assembled bytecode is written to when --compile-files is set")
	return cmd
}

func newReplCmd() *cobra.Command {
	cfg := config.Default()
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive read-eval-print loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDriverFromFlags(cfg)
			r := repl.New(d, cfg, version)
			r.Start(os.Stdin, os.Stdout)
			return nil
		},
	}
	return cmd
}
