// Package driver runs source text through the scan, parse and execute pipeline.
package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
	"lox-lang/internal/runtime"
	"lox-lang/internal/token"
	"lox-lang/internal/value"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
)

// Result reports what went wrong during one Run, if anything.
type Result struct {
	Diagnostics []diag.Diagnostic
	RuntimeErr  error
}

// HadError reports a scan or parse error. Nothing was executed.
func (r Result) HadError() bool { return diag.HasErrors(r.Diagnostics) }

// HadRuntimeError reports that execution stopped on a runtime error.
func (r Result) HadRuntimeError() bool { return r.RuntimeErr != nil }

// Failed reports any kind of error.
func (r Result) Failed() bool { return r.HadError() || r.HadRuntimeError() }

// Program is the output of the front end for one source text.
type Program struct {
	Tokens      []token.Token
	Stmts       []ast.Stmt
	Diagnostics []diag.Diagnostic
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger for phase tracing. The interpreter inherits it.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// WithFilename names the source in log records.
func WithFilename(name string) Option {
	return func(d *Driver) { d.filename = name }
}

// WithColor wraps error output in ANSI red.
func WithColor(enabled bool) Option {
	return func(d *Driver) { d.color = enabled }
}

// WithInterpreterOptions passes options through to the interpreter.
func WithInterpreterOptions(opts ...runtime.Option) Option {
	return func(d *Driver) { d.interpOpts = append(d.interpOpts, opts...) }
}

// Driver owns one interpreter; globals persist across Run calls.
type Driver struct {
	out        io.Writer
	errOut     io.Writer
	logger     *slog.Logger
	filename   string
	color      bool
	interpOpts []runtime.Option
	interp     *runtime.Interpreter
}

// New creates a driver writing program output to out and errors to errOut.
func New(out, errOut io.Writer, opts ...Option) *Driver {
	d := &Driver{
		out:      out,
		errOut:   errOut,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		filename: "<stdin>",
	}
	for _, opt := range opts {
		opt(d)
	}
	interpOpts := append([]runtime.Option{runtime.WithLogger(d.logger)}, d.interpOpts...)
	d.interp = runtime.NewInterpreter(out, interpOpts...)
	return d
}

// Compile scans and parses source without executing it.
func (d *Driver) Compile(source string) Program {
	start := time.Now()
	tokens, lexDiags := lexer.New(source, d.filename).Tokenize()
	d.logger.Debug("scanned", "file", d.filename, "tokens", len(tokens), "errors", len(lexDiags), "elapsed", time.Since(start))

	start = time.Now()
	stmts, parseDiags := parser.New(tokens).Parse()
	d.logger.Debug("parsed", "file", d.filename, "statements", len(stmts), "errors", len(parseDiags), "elapsed", time.Since(start))

	return Program{
		Tokens:      tokens,
		Stmts:       stmts,
		Diagnostics: append(lexDiags, parseDiags...),
	}
}

// Run compiles and executes source. Diagnostics are written to errOut and
// suppress execution; a runtime error stops the program and is written to
// errOut as well.
func (d *Driver) Run(source string) Result {
	prog := d.Compile(source)
	if diag.HasErrors(prog.Diagnostics) {
		d.reportDiagnostics(prog.Diagnostics)
		return Result{Diagnostics: prog.Diagnostics}
	}
	return Result{Diagnostics: prog.Diagnostics, RuntimeErr: d.execute(prog.Stmts)}
}

// RunInteractive behaves like Run, except that a bare expression with no
// trailing ';' is evaluated and its value written to out.
func (d *Driver) RunInteractive(source string) Result {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return Result{}
	}
	if !strings.HasSuffix(trimmed, ";") && !strings.HasSuffix(trimmed, "}") {
		tokens, lexDiags := lexer.New(source, d.filename).Tokenize()
		if len(lexDiags) == 0 {
			if expr, diags := parser.New(tokens).ParseExpression(); len(diags) == 0 {
				v, err := d.interp.Evaluate(expr)
				if err != nil {
					d.reportRuntimeError(err)
					return Result{RuntimeErr: err}
				}
				fmt.Fprintln(d.out, v.String())
				return Result{}
			}
		}
	}
	return d.Run(source)
}

// Globals returns the global bindings as sorted name/value pairs.
func (d *Driver) Globals() []Binding {
	env := d.interp.Globals()
	names := env.Names()
	out := make([]Binding, 0, len(names))
	for _, name := range names {
		v, err := env.Get(token.Token{Kind: token.IDENTIFIER, Lexeme: name})
		if err != nil {
			continue
		}
		out = append(out, Binding{Name: name, Value: v})
	}
	return out
}

// Binding is one named global.
type Binding struct {
	Name  string
	Value value.Value
}

func (d *Driver) execute(stmts []ast.Stmt) error {
	start := time.Now()
	err := d.interp.Interpret(stmts)
	d.logger.Debug("executed", "file", d.filename, "statements", len(stmts), "ok", err == nil, "elapsed", time.Since(start))
	if err != nil {
		d.reportRuntimeError(err)
	}
	return err
}

func (d *Driver) reportDiagnostics(diags []diag.Diagnostic) {
	for _, dg := range diags {
		d.errorLine(dg.String())
	}
}

func (d *Driver) reportRuntimeError(err error) {
	var rerr *runtime.RuntimeError
	if errors.As(err, &rerr) {
		d.errorLine(rerr.Error())
		return
	}
	d.errorLine(fmt.Sprintf("error: %v", err))
}

func (d *Driver) errorLine(msg string) {
	if d.color {
		fmt.Fprintf(d.errOut, "%s%s%s\n", colorRed, msg, colorReset)
		return
	}
	fmt.Fprintln(d.errOut, msg)
}
