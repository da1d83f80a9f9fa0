package runtime

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
	"lox-lang/internal/token"
	"lox-lang/internal/value"
)

// runSource parses and executes source code, returning captured stdout and any error.
func runSource(source string, opts ...Option) (string, error) {
	var buf bytes.Buffer
	err := runOn(NewInterpreter(&buf, opts...), source)
	return buf.String(), err
}

func runOn(interp *Interpreter, source string) error {
	tokens, lexDiags := lexer.New(source, "test.lox").Tokenize()
	stmts, parseDiags := parser.New(tokens).Parse()
	if diags := append(lexDiags, parseDiags...); diag.HasErrors(diags) {
		return fmt.Errorf("compile errors: %v", diags)
	}
	return interp.Interpret(stmts)
}

func expectOutput(t *testing.T, source, expected string) {
	t.Helper()
	out, err := runSource(source)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if strings.TrimRight(out, "\n") != strings.TrimRight(expected, "\n") {
		t.Errorf("output mismatch:\nexpected: %q\ngot:      %q", expected, out)
	}
}

func expectError(t *testing.T, source, contains string) {
	t.Helper()
	_, err := runSource(source)
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", contains)
	}
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RuntimeError, got %T: %v", err, err)
	}
	if !strings.Contains(rerr.Message, contains) {
		t.Errorf("expected error containing %q, got: %v", contains, err)
	}
}

// ---- Expressions ----

func TestPrintLiteral(t *testing.T) {
	expectOutput(t, `print 42;`, "42\n")
	expectOutput(t, `print "hello";`, "hello\n")
	expectOutput(t, `print nil;`, "nil\n")
	expectOutput(t, `print !true;`, "false\n")
}

func TestArithmetic(t *testing.T) {
	expectOutput(t, `print 1 + 2 * 3;`, "7\n")
	expectOutput(t, `print (1 + 2) * 3;`, "9\n")
	expectOutput(t, `print 10 / 4;`, "2.5\n")
	expectOutput(t, `print 1.5 + 1.5;`, "3\n")
	expectOutput(t, `print 0.1 + 0.2;`, "0.30000000000000004\n")
	expectOutput(t, `print -(3 - 5);`, "2\n")
}

func TestComparisonAndEquality(t *testing.T) {
	expectOutput(t, `
print 1 < 2;
print 2 <= 2;
print 3 > 4;
print 1 == 1;
print "a" == "a";
print nil == false;
print 1 == "1";
print nil != nil;
`, "true\ntrue\nfalse\ntrue\ntrue\nfalse\nfalse\nfalse\n")
}

func TestStringConcat(t *testing.T) {
	expectOutput(t, `print "foo" + "bar";`, "foobar\n")
	expectError(t, `print "foo" - 1;`, "Operands of '-' must be numbers.")
	expectError(t, `print "foo" + 1;`, "two numbers or two strings")
	expectError(t, `print "a" < "b";`, "Operands of '<' must be numbers.")
}

func TestStrictNumberOperands(t *testing.T) {
	expectError(t, `print -"x";`, "Operand of '-' must be a number.")
	expectError(t, `print true + 1;`, "two numbers or two strings")
	expectError(t, `print nil * 2;`, "Operands of '*' must be numbers.")
}

func TestDivisionByZero(t *testing.T) {
	expectError(t, `print 1 / 0;`, "Division by zero.")
}

func TestTruthiness(t *testing.T) {
	expectOutput(t, `
if (0) print "zero";
if ("") print "empty";
if (nil) print "nil"; else print "no nil";
if (false) print "false"; else print "no false";
`, "zero\nempty\nno nil\nno false\n")
}

func TestLogicalReturnsOperand(t *testing.T) {
	expectOutput(t, `
print nil or "x";
print 1 and 2;
print false and 1;
print "a" or 1;
`, "x\n2\nfalse\na\n")
}

func TestLogicalShortCircuit(t *testing.T) {
	expectOutput(t, `print false and (1/0);`, "false\n")
	expectOutput(t, `print true or undefinedName;`, "true\n")
}

// ---- Variables and scope ----

func TestVarDecl(t *testing.T) {
	expectOutput(t, `
var x = 10;
var y;
print x;
print y;
x = y = 3;
print x + y;
`, "10\nnil\n6\n")
}

func TestBlockShadowing(t *testing.T) {
	expectOutput(t, `var a = 1; { var a = 2; print a; } print a;`, "2\n1\n")
}

func TestAssignInnerScopeMutatesOuter(t *testing.T) {
	expectOutput(t, `var a = 1; { a = 2; } print a;`, "2\n")
}

func TestRedeclareGlobal(t *testing.T) {
	expectOutput(t, `var a = 1; var a = "two"; print a;`, "two\n")
}

func TestUndefinedVarError(t *testing.T) {
	expectError(t, `print y;`, "Undefined variable 'y'.")
	expectError(t, `y = 1;`, "Undefined variable 'y'.")
	expectError(t, `{ { print deep; } }`, "Undefined variable 'deep'.")
	expectError(t, `fun f() { missing = 1; } f();`, "Undefined variable 'missing'.")
}

func TestRuntimeErrorFormat(t *testing.T) {
	_, err := runSource("var a = 1;\nprint a + nil;")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got, want := err.Error(), "Operands of '+' must be two numbers or two strings.\n[line 2]"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRuntimeErrorHaltsProgram(t *testing.T) {
	out, err := runSource(`print 1; print nope; print 2;`)
	if err == nil {
		t.Fatal("expected an error")
	}
	if out != "1\n" {
		t.Errorf("statements after the error should not run, got %q", out)
	}
}

func TestScopeRestoredAfterError(t *testing.T) {
	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	if err := runOn(interp, `var a = "global"; { var a = "inner"; print nope; }`); err == nil {
		t.Fatal("expected an error")
	}
	if err := runOn(interp, `print a;`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "global\n" {
		t.Errorf("got %q", buf.String())
	}
}

// ---- Control flow ----

func TestIfElse(t *testing.T) {
	expectOutput(t, `
var x = 10;
if (x > 5) { print "big"; } else { print "small"; }
if (x < 5) print "small"; else if (x < 20) print "medium"; else print "huge";
`, "big\nmedium\n")
}

func TestWhileLoop(t *testing.T) {
	expectOutput(t, `
var i = 0;
while (i < 3) { print i; i = i + 1; }
`, "0\n1\n2\n")
}

func TestForLoop(t *testing.T) {
	expectOutput(t, `for (var i = 0; i < 3; i = i + 1) print i;`, "0\n1\n2\n")
	// the loop variable is scoped to the loop
	expectError(t, `for (var i = 0; i < 1; i = i + 1) {} print i;`, "Undefined variable 'i'.")
}

// ---- Functions ----

func TestFunctionCall(t *testing.T) {
	expectOutput(t, `
fun add(a, b) { return a + b; }
print add(1, 2);
`, "3\n")
}

func TestFunctionWithoutReturnYieldsNil(t *testing.T) {
	expectOutput(t, `fun f() {} print f();`, "nil\n")
	expectOutput(t, `fun g() { return; } print g();`, "nil\n")
}

func TestReturnFromNestedLoop(t *testing.T) {
	expectOutput(t, `
fun find() {
  var i = 0;
  while (true) {
    if (i == 3) return i;
    i = i + 1;
  }
}
print find();
`, "3\n")
}

func TestRecursion(t *testing.T) {
	expectOutput(t, `
fun fact(n) { if (n <= 1) return 1; return n * fact(n - 1); }
print fact(10);
`, "3628800\n")
}

func TestClosureCounter(t *testing.T) {
	expectOutput(t, `
fun makeCounter() {
  var count = 0;
  fun counter() { count = count + 1; return count; }
  return counter;
}
var c1 = makeCounter();
var c2 = makeCounter();
print c1();
print c1();
print c2();
`, "1\n2\n1\n")
}

func TestClosureSeesLaterMutation(t *testing.T) {
	expectOutput(t, `
fun outer() {
  var x = 1;
  fun show() { print x; }
  x = 2;
  show();
}
outer();
`, "2\n")
}

func TestClosuresShareEnclosingScope(t *testing.T) {
	expectOutput(t, `
var inc;
var get;
fun make() {
  var n = 0;
  fun i() { n = n + 1; }
  fun g() { return n; }
  inc = i;
  get = g;
}
make();
inc();
inc();
print get();
`, "2\n")
}

func TestClosureUsesDefinitionScope(t *testing.T) {
	expectOutput(t, `
var x = "global";
fun show() { print x; }
fun caller() { var x = "local"; show(); }
caller();
`, "global\n")
}

func TestFunctionRendering(t *testing.T) {
	expectOutput(t, `fun f() {} print f; print clock;`, "<fn f>\n<native fn>\n")
}

func TestFunctionEquality(t *testing.T) {
	expectOutput(t, `fun f() {} var g = f; print f == g; print f == clock;`, "true\nfalse\n")
}

func TestArityMismatch(t *testing.T) {
	expectError(t, `fun f() {} f(1);`, "Expected 0 arguments but got 1.")
	expectError(t, `fun f(a, b) {} f(1);`, "Expected 2 arguments but got 1.")
	expectError(t, `typeOf();`, "Expected 1 arguments but got 0.")
}

func TestCallNonCallable(t *testing.T) {
	expectError(t, `"x"();`, "Can only call functions and classes.")
	expectError(t, `var a = 1; a(2);`, "Can only call functions and classes.")
}

func TestArgumentErrorStopsEvaluation(t *testing.T) {
	out, err := runSource(`
fun f(a, b) {}
fun noisy() { print "evaluated"; return 1; }
f(nope, noisy());
`)
	if err == nil {
		t.Fatal("expected an error")
	}
	if out != "" {
		t.Errorf("arguments after a failing one should not be evaluated, got %q", out)
	}
}

func TestStackOverflow(t *testing.T) {
	expectError(t, `fun f() { return f(); } f();`, "Stack overflow.")

	_, err := runSource(`fun down(n) { if (n == 0) return 0; return down(n - 1); } down(50);`, WithMaxCallDepth(10))
	if err == nil || !strings.Contains(err.Error(), "Stack overflow.") {
		t.Errorf("expected stack overflow with a depth of 10, got %v", err)
	}
	if _, err := runSource(`fun down(n) { if (n == 0) return 0; return down(n - 1); } down(5);`, WithMaxCallDepth(10)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMaxCallDepthIsClamped(t *testing.T) {
	interp := NewInterpreter(&bytes.Buffer{}, WithMaxCallDepth(100_000_000))
	if interp.maxDepth != MaxCallDepthLimit {
		t.Errorf("maxDepth = %d, want %d", interp.maxDepth, MaxCallDepthLimit)
	}
	if err := runOn(interp, `fun f() { return f(); } f();`); err == nil || !strings.Contains(err.Error(), "Stack overflow.") {
		t.Errorf("expected a reported stack overflow, got %v", err)
	}
	if interp := NewInterpreter(&bytes.Buffer{}, WithMaxCallDepth(0)); interp.maxDepth != DefaultMaxCallDepth {
		t.Errorf("non-positive depth should keep the default, got %d", interp.maxDepth)
	}
}

// ---- Natives ----

func TestClock(t *testing.T) {
	fixed := func() time.Time { return time.Unix(10, int64(500*time.Millisecond)) }
	out, err := runSource(`print clock();`, WithClock(fixed))
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "10.5\n" {
		t.Errorf("got %q", out)
	}
	expectOutput(t, `print typeOf(clock()) == "number";`, "true\n")
}

func TestTypeOf(t *testing.T) {
	expectOutput(t, `
print typeOf(1);
print typeOf("s");
print typeOf(true);
print typeOf(nil);
fun f() {}
print typeOf(f);
print typeOf(typeOf);
`, "number\nstring\nboolean\nnil\nfunction\nfunction\n")
}

// ---- Interpreter API ----

func TestGlobalsPersistAcrossRuns(t *testing.T) {
	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	for _, src := range []string{`var a = 1;`, `fun inc() { a = a + 1; }`, `inc(); print a;`} {
		if err := runOn(interp, src); err != nil {
			t.Fatalf("%s: %v", src, err)
		}
	}
	if buf.String() != "2\n" {
		t.Errorf("got %q", buf.String())
	}
	want := []string{"a", "clock", "inc", "typeOf"}
	if diff := cmp.Diff(want, interp.Globals().Names()); diff != "" {
		t.Errorf("globals (-want +got):\n%s", diff)
	}
}

func TestEvaluate(t *testing.T) {
	interp := NewInterpreter(&bytes.Buffer{})
	if err := runOn(interp, `var x = 4;`); err != nil {
		t.Fatal(err)
	}
	tokens, _ := lexer.Scan("x * 2 + 1")
	expr, diags := parser.New(tokens).ParseExpression()
	if len(diags) > 0 {
		t.Fatalf("parse errors: %v", diags)
	}
	v, err := interp.Evaluate(expr)
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Number(9)) {
		t.Errorf("got %v", v)
	}
}

func TestCallTracing(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if _, err := runSource(`fun f() {} f();`, WithLogger(logger)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "msg=call") || !strings.Contains(logs.String(), "depth=1") {
		t.Errorf("expected a call trace, got %q", logs.String())
	}
}

func TestIndependentInterpretersConcurrently(t *testing.T) {
	const src = `
fun fib(n) { if (n < 2) return n; return fib(n - 1) + fib(n - 2); }
var total = 0;
for (var i = 0; i < 5; i = i + 1) total = total + fib(15);
print total;
`
	outs := make([]string, 8)
	var g errgroup.Group
	for n := range outs {
		n := n
		g.Go(func() error {
			out, err := runSource(src)
			outs[n] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	for n, out := range outs {
		if out != "3050\n" {
			t.Errorf("interpreter %d: got %q", n, out)
		}
	}
}

// ---- Environment ----

func TestEnvironment(t *testing.T) {
	name := func(s string) token.Token { return token.Token{Kind: token.IDENTIFIER, Lexeme: s, Line: 7} }

	global := NewEnvironment(nil)
	global.Define("a", value.Number(1))
	local := NewEnvironment(global)
	local.Define("b", value.String("x"))

	if local.Enclosing() != global || global.Enclosing() != nil {
		t.Fatal("unexpected parent chain")
	}
	if v, err := local.Get(name("a")); err != nil || !value.Equal(v, value.Number(1)) {
		t.Errorf("Get(a) = %v, %v", v, err)
	}

	v, err := local.Assign(name("a"), value.Number(2))
	if err != nil || !value.Equal(v, value.Number(2)) {
		t.Fatalf("Assign(a) = %v, %v", v, err)
	}
	if got, _ := global.Get(name("a")); !value.Equal(got, value.Number(2)) {
		t.Errorf("assignment should land in the defining scope, got %v", got)
	}

	_, err = local.Assign(name("c"), value.Nil{})
	var rerr *RuntimeError
	if !errors.As(err, &rerr) || rerr.Message != "Undefined variable 'c'." || rerr.Token.Line != 7 {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := local.Get(name("c")); err == nil {
		t.Error("Assign must not create a binding")
	}
	if _, err := global.Get(name("b")); err == nil {
		t.Error("inner bindings must not leak outward")
	}

	local.Define("a", value.Bool(true))
	if diff := cmp.Diff([]string{"a", "b"}, local.Names()); diff != "" {
		t.Errorf("Names (-want +got):\n%s", diff)
	}
}
