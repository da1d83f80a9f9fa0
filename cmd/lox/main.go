// Command lox runs lox scripts and hosts an interactive REPL.
//
// Usage:
//
//	lox [flags]            Start the interactive REPL
//	lox [flags] <script>   Run a script file
//
// Flags:
//
//	-config <path>   YAML settings file (default $HOME/.loxrc.yaml when present)
//	-v               Debug logging to stderr
//	-tokens          Print the token stream instead of running
//	-ast             Print the syntax tree as JSON instead of running
//	-sexpr           Print each statement as an s-expression instead of running
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"lox-lang/internal/ast"
	"lox-lang/internal/config"
	"lox-lang/internal/driver"
	"lox-lang/internal/runtime"
)

// Exit codes follow sysexits.h.
const (
	exitOK       = 0
	exitUsage    = 64
	exitDataErr  = 65
	exitNoInput  = 66
	exitSoftware = 70
	exitConfig   = 78
)

const usageLine = "Usage: lox [flags] [script]"

type dumpFlags struct {
	tokens bool
	ast    bool
	sexpr  bool
}

func (f dumpFlags) any() bool { return f.tokens || f.ast || f.sexpr }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lox", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usageLine)
		fs.PrintDefaults()
	}

	var dumps dumpFlags
	configPath := fs.String("config", config.DefaultPath(), "path to a YAML settings file")
	verbose := fs.Bool("v", false, "enable debug logging")
	fs.BoolVar(&dumps.tokens, "tokens", false, "print tokens and exit")
	fs.BoolVar(&dumps.ast, "ast", false, "print the AST as JSON and exit")
	fs.BoolVar(&dumps.sexpr, "sexpr", false, "print statements as s-expressions and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitConfig
	}
	logger := newLogger(stderr, *verbose)
	logger.Debug("config loaded", "path", *configPath, "max_call_depth", cfg.MaxCallDepth)

	switch fs.NArg() {
	case 0:
		return runREPL(cfg, logger)
	case 1:
		return runFile(fs.Arg(0), cfg, logger, dumps, stdout, stderr)
	default:
		fmt.Fprintln(stderr, usageLine)
		return exitUsage
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newDriver(cfg config.Config, logger *slog.Logger, filename string, stdout, stderr io.Writer, color bool) *driver.Driver {
	return driver.New(stdout, stderr,
		driver.WithLogger(logger),
		driver.WithFilename(filename),
		driver.WithColor(color),
		driver.WithInterpreterOptions(runtime.WithMaxCallDepth(cfg.MaxCallDepth)),
	)
}

// ---- script mode ----

func runFile(path string, cfg config.Config, logger *slog.Logger, dumps dumpFlags, stdout, stderr io.Writer) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "error: cannot read file %s: %v\n", path, err)
		return exitNoInput
	}

	d := newDriver(cfg, logger, path, stdout, stderr, false)
	if dumps.any() {
		return dump(d.Compile(string(source)), dumps, stdout, stderr)
	}

	res := d.Run(string(source))
	switch {
	case res.HadError():
		return exitDataErr
	case res.HadRuntimeError():
		return exitSoftware
	default:
		return exitOK
	}
}

func dump(prog driver.Program, dumps dumpFlags, stdout, stderr io.Writer) int {
	if dumps.tokens {
		printTokensText(stdout, prog.Tokens)
	}
	if dumps.ast {
		output := map[string]interface{}{
			"ast":         ast.StmtsToSlice(prog.Stmts),
			"diagnostics": diagsToSlice(prog.Diagnostics),
		}
		if err := printJSON(stdout, output); err != nil {
			fmt.Fprintf(stderr, "error: JSON encoding failed: %v\n", err)
			return exitSoftware
		}
	}
	if dumps.sexpr {
		printSexpr(stdout, prog.Stmts)
	}
	if len(prog.Diagnostics) > 0 {
		printDiagsText(stderr, prog.Diagnostics)
		return exitDataErr
	}
	return exitOK
}
