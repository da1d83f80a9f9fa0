package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"lox-lang/internal/ast"
	"lox-lang/internal/token"
	"lox-lang/internal/value"
)

const (
	// DefaultMaxCallDepth bounds nested calls unless overridden with WithMaxCallDepth.
	DefaultMaxCallDepth = 1000
	// MaxCallDepthLimit is the largest accepted depth. Deeper recursion would
	// exhaust the goroutine stack before reporting "Stack overflow.".
	MaxCallDepthLimit = 20000
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone   ExecSignal = iota
	SigReturn            // return from function
)

// ExecResult carries a control flow signal and an optional value (for return).
type ExecResult struct {
	Signal ExecSignal
	Value  value.Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Runtime error
// ============================================================

// RuntimeError represents an error during interpretation.
type RuntimeError struct {
	Token   token.Token
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Token.Line)
}

func runtimeErr(tok token.Token, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Token: tok, Message: fmt.Sprintf(format, args...)}
}

// ============================================================
// Interpreter
// ============================================================

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger enables debug tracing of calls through logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// WithMaxCallDepth sets how many calls may be active at once. Values above
// MaxCallDepthLimit are clamped; non-positive values are ignored.
func WithMaxCallDepth(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxDepth = min(n, MaxCallDepthLimit)
		}
	}
}

// WithClock replaces the time source behind the clock() native.
func WithClock(now func() time.Time) Option {
	return func(i *Interpreter) { i.now = now }
}

// Interpreter walks the AST and executes it.
type Interpreter struct {
	globals  *Environment
	env      *Environment
	output   io.Writer
	logger   *slog.Logger
	now      func() time.Time
	depth    int
	maxDepth int
}

var (
	_ ast.ExprVisitor[value.Value] = (*Interpreter)(nil)
	_ ast.StmtVisitor[ExecResult]  = (*Interpreter)(nil)
)

// NewInterpreter creates a new interpreter with native functions registered.
func NewInterpreter(output io.Writer, opts ...Option) *Interpreter {
	globals := NewEnvironment(nil)
	i := &Interpreter{
		globals:  globals,
		env:      globals,
		output:   output,
		now:      time.Now,
		maxDepth: DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(i)
	}
	RegisterBuiltins(globals, i.now)
	return i
}

// Interpret executes the program statement by statement. The first runtime
// error halts the rest of the program and is returned.
func (i *Interpreter) Interpret(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if _, err := i.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate evaluates a single expression in the current scope.
func (i *Interpreter) Evaluate(expr ast.Expr) (value.Value, error) {
	return i.evaluate(expr)
}

// Globals returns the global environment (useful for REPL).
func (i *Interpreter) Globals() *Environment {
	return i.globals
}

func (i *Interpreter) execute(stmt ast.Stmt) (ExecResult, error) {
	return ast.AcceptStmt[ExecResult](stmt, i)
}

func (i *Interpreter) evaluate(expr ast.Expr) (value.Value, error) {
	return ast.AcceptExpr[value.Value](expr, i)
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) VisitExpression(s *ast.Expression) (ExecResult, error) {
	_, err := i.evaluate(s.Expression)
	return resultNone, err
}

func (i *Interpreter) VisitPrint(s *ast.Print) (ExecResult, error) {
	v, err := i.evaluate(s.Expression)
	if err != nil {
		return resultNone, err
	}
	fmt.Fprintln(i.output, v.String())
	return resultNone, nil
}

func (i *Interpreter) VisitVar(s *ast.Var) (ExecResult, error) {
	var val value.Value = value.Nil{}
	if s.Initializer != nil {
		v, err := i.evaluate(s.Initializer)
		if err != nil {
			return resultNone, err
		}
		val = v
	}
	i.env.Define(s.Name.Lexeme, val)
	return resultNone, nil
}

func (i *Interpreter) VisitBlock(s *ast.Block) (ExecResult, error) {
	return i.executeBlock(s.Statements, NewEnvironment(i.env))
}

func (i *Interpreter) VisitIf(s *ast.If) (ExecResult, error) {
	cond, err := i.evaluate(s.Condition)
	if err != nil {
		return resultNone, err
	}
	if value.Truthy(cond) {
		return i.execute(s.ThenBranch)
	}
	if s.ElseBranch != nil {
		return i.execute(s.ElseBranch)
	}
	return resultNone, nil
}

func (i *Interpreter) VisitWhile(s *ast.While) (ExecResult, error) {
	for {
		cond, err := i.evaluate(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !value.Truthy(cond) {
			break
		}

		result, err := i.execute(s.Body)
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigReturn {
			return result, nil // propagate return
		}
	}
	return resultNone, nil
}

func (i *Interpreter) VisitFunction(s *ast.Function) (ExecResult, error) {
	fn := &Function{Declaration: s, Closure: i.env}
	i.env.Define(s.Name.Lexeme, fn)
	return resultNone, nil
}

func (i *Interpreter) VisitReturn(s *ast.Return) (ExecResult, error) {
	var val value.Value = value.Nil{}
	if s.Value != nil {
		v, err := i.evaluate(s.Value)
		if err != nil {
			return resultNone, err
		}
		val = v
	}
	return ExecResult{Signal: SigReturn, Value: val}, nil
}

// executeBlock runs stmts with env as the current scope. The previous scope
// is restored on every exit path.
func (i *Interpreter) executeBlock(stmts []ast.Stmt, env *Environment) (ExecResult, error) {
	prevEnv := i.env
	i.env = env
	defer func() { i.env = prevEnv }()

	for _, stmt := range stmts {
		result, err := i.execute(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil // propagate signal
		}
	}
	return resultNone, nil
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) VisitLiteral(e *ast.Literal) (value.Value, error) {
	if e.Value == nil {
		return value.Nil{}, nil
	}
	return e.Value, nil
}

func (i *Interpreter) VisitGrouping(e *ast.Grouping) (value.Value, error) {
	return i.evaluate(e.Expression)
}

func (i *Interpreter) VisitVariable(e *ast.Variable) (value.Value, error) {
	return i.env.Get(e.Name)
}

func (i *Interpreter) VisitAssign(e *ast.Assign) (value.Value, error) {
	v, err := i.evaluate(e.Value)
	if err != nil {
		return nil, err
	}
	return i.env.Assign(e.Name, v)
}

func (i *Interpreter) VisitUnary(e *ast.Unary) (value.Value, error) {
	operand, err := i.evaluate(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Operator.Kind {
	case token.BANG:
		return value.Bool(!value.Truthy(operand)), nil
	case token.MINUS:
		n, ok := operand.(value.Number)
		if !ok {
			return nil, runtimeErr(e.Operator, "Operand of '-' must be a number.")
		}
		return -n, nil
	default:
		return nil, runtimeErr(e.Operator, "Unknown unary operator '%s'.", e.Operator.Lexeme)
	}
}

func (i *Interpreter) VisitBinary(e *ast.Binary) (value.Value, error) {
	left, err := i.evaluate(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluate(e.Right)
	if err != nil {
		return nil, err
	}

	// Equality works across every variant
	switch e.Operator.Kind {
	case token.EQUAL_EQUAL:
		return value.Bool(value.Equal(left, right)), nil
	case token.BANG_EQUAL:
		return value.Bool(!value.Equal(left, right)), nil
	}

	if e.Operator.Kind == token.PLUS {
		ls, lok := left.(value.String)
		rs, rok := right.(value.String)
		if lok && rok {
			return ls + rs, nil
		}
	}

	l, lok := left.(value.Number)
	r, rok := right.(value.Number)
	if !lok || !rok {
		if e.Operator.Kind == token.PLUS {
			return nil, runtimeErr(e.Operator, "Operands of '+' must be two numbers or two strings.")
		}
		return nil, runtimeErr(e.Operator, "Operands of '%s' must be numbers.", e.Operator.Lexeme)
	}

	switch e.Operator.Kind {
	case token.PLUS:
		return l + r, nil
	case token.MINUS:
		return l - r, nil
	case token.STAR:
		return l * r, nil
	case token.SLASH:
		if r == 0 {
			return nil, runtimeErr(e.Operator, "Division by zero.")
		}
		return l / r, nil
	case token.GREATER:
		return value.Bool(l > r), nil
	case token.GREATER_EQUAL:
		return value.Bool(l >= r), nil
	case token.LESS:
		return value.Bool(l < r), nil
	case token.LESS_EQUAL:
		return value.Bool(l <= r), nil
	default:
		return nil, runtimeErr(e.Operator, "Unknown binary operator '%s'.", e.Operator.Lexeme)
	}
}

func (i *Interpreter) VisitLogical(e *ast.Logical) (value.Value, error) {
	left, err := i.evaluate(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Operator.Kind == token.OR {
		if value.Truthy(left) {
			return left, nil // short-circuit
		}
	} else if !value.Truthy(left) {
		return left, nil // short-circuit
	}
	return i.evaluate(e.Right)
}

func (i *Interpreter) VisitCall(e *ast.Call) (value.Value, error) {
	callee, err := i.evaluate(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]value.Value, len(e.Arguments))
	for idx, argExpr := range e.Arguments {
		val, err := i.evaluate(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeErr(e.Paren, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, runtimeErr(e.Paren, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}

	if i.depth >= i.maxDepth {
		return nil, runtimeErr(e.Paren, "Stack overflow.")
	}
	i.depth++
	defer func() { i.depth-- }()

	if i.logger != nil && i.logger.Enabled(context.Background(), slog.LevelDebug) {
		i.logger.Debug("call", "fn", fn.String(), "args", len(args), "depth", i.depth, "line", e.Paren.Line)
	}

	return fn.Call(i, args)
}
