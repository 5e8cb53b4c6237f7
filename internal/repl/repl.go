// Package repl wraps internal/driver in an interactive read-eval-print
// loop: line editing, history, colorized prompts and meta-commands.
// Shaped directly on a liner.NewLiner()/SetMultiLineMode/SetCompleter
// REPL loop: the same ":"-prefixed meta-command dispatch and
// history-file save/restore on exit.
package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/lispc-lang/lispc/internal/config"
	"github.com/lispc-lang/lispc/internal/coreeval"
	"github.com/lispc-lang/lispc/internal/driver"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
)

// REPL is the read-eval-print loop: a driver.Driver plus the line-editing
// and meta-command scaffolding around it.
type REPL struct {
	cfg     *config.Config
	d       *driver.Driver
	history []string
	version string
}

// New builds a REPL around an already-constructed driver (the caller
// supplies the host-VM Assembler/Loader the driver needs, since those are
// external collaborators this package has no opinion about).
func New(d *driver.Driver, cfg *config.Config, version string) *REPL {
	if version == "" {
		version = "dev"
	}
	return &REPL{cfg: cfg, d: d, version: version}
}

func (r *REPL) prompt() string {
	return "λ> "
}

// Start begins the REPL session, writing the banner, results, and
// diagnostics to out. Input lines come from liner, which reads the
// terminal; in is not consulted.
func (r *REPL) Start(in io.Reader, out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()

	historyFile := filepath.Join(os.TempDir(), ".lispc_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	line.SetMultiLineMode(true)

	fmt.Fprintf(out, "%s %s\n", bold("lispc"), bold(r.version))
	fmt.Fprintln(out, dim("Type :help for help, :quit to exit"))
	fmt.Fprintln(out)

	line.SetCompleter(func(input string) (c []string) {
		if !strings.HasPrefix(input, ":") {
			return nil
		}
		for _, cmd := range replCommands {
			if strings.HasPrefix(cmd, input) {
				c = append(c, cmd)
			}
		}
		return
	})

	for {
		input, err := line.Prompt(r.prompt())
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)
		r.history = append(r.history, input)

		if strings.HasPrefix(input, ":") {
			if r.handleCommand(input, out) {
				break
			}
			continue
		}

		r.evalAndPrint(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

var replCommands = []string{":help", ":quit", ":history", ":clear", ":trace-forms", ":show-core"}

// handleCommand processes a `:`-prefixed meta-command, returning true
// when the session should end.
func (r *REPL) handleCommand(input string, out io.Writer) bool {
	switch {
	case input == ":quit" || input == ":q" || input == ":exit":
		fmt.Fprintln(out, green("Goodbye!"))
		return true
	case input == ":help":
		fmt.Fprintln(out, "Commands: :help :quit :history :clear :trace-forms :show-core")
	case input == ":history":
		for i, h := range r.history {
			fmt.Fprintf(out, "%3d  %s\n", i+1, h)
		}
	case input == ":clear":
		r.history = nil
	case input == ":trace-forms":
		r.cfg.TraceForms = !r.cfg.TraceForms
		fmt.Fprintf(out, "trace-forms: %v\n", r.cfg.TraceForms)
	case input == ":show-core":
		r.cfg.ShowCore = !r.cfg.ShowCore
		fmt.Fprintf(out, "show-core: %v\n", r.cfg.ShowCore)
	default:
		fmt.Fprintf(out, "%s: unknown command %s\n", red("Error"), input)
	}
	return false
}

// evalAndPrint runs one REPL line through the driver's eval loop and
// reports the last form's evaluated value, alongside whatever tracing
// :trace-forms/:show-core requested, or the compile error.
func (r *REPL) evalAndPrint(input string, out io.Writer) {
	results, err := r.d.EvalSource(context.Background(), "<repl>", input)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
		return
	}
	for _, res := range results {
		if r.cfg.TraceForms {
			fmt.Fprintf(out, "%s %T\n", dim("form ->"), res.Node)
		}
		for _, mod := range res.Modules {
			if r.cfg.ShowCore {
				fmt.Fprintf(out, "%s\n%s\n", cyan("core:"), mod.Name)
				for _, fn := range mod.Functions {
					fmt.Fprintf(out, "  %s = %s\n", fn.Name, fn.Fn.String())
				}
			}
		}
	}
	if len(results) > 0 {
		fmt.Fprintf(out, "%s %s\n", dim("=>"), formatValue(results[len(results)-1].Value))
	}
}

// formatValue renders an evaluated Core IR result for REPL display.
func formatValue(v coreeval.Value) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%v", v)
}
