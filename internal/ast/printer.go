package ast

import (
	"strconv"
	"strings"

	"lox-lang/internal/value"
)

// Printer renders trees in parenthesized prefix form, e.g. (+ 1 (* 2 3)).
type Printer struct{}

var (
	_ ExprVisitor[string] = Printer{}
	_ StmtVisitor[string] = Printer{}
)

// PrintExpr renders a single expression.
func (p Printer) PrintExpr(e Expr) string {
	s, _ := AcceptExpr[string](e, p)
	return s
}

// PrintStmt renders a single statement.
func (p Printer) PrintStmt(s Stmt) string {
	out, _ := AcceptStmt[string](s, p)
	return out
}

func (p Printer) parenthesize(name string, parts ...Expr) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(name)
	for _, e := range parts {
		b.WriteString(" ")
		b.WriteString(p.PrintExpr(e))
	}
	b.WriteString(")")
	return b.String()
}

// ---- expressions ----

func (p Printer) VisitLiteral(e *Literal) (string, error) {
	if s, ok := e.Value.(value.String); ok {
		return strconv.Quote(string(s)), nil
	}
	if e.Value == nil {
		return "nil", nil
	}
	return e.Value.String(), nil
}

func (p Printer) VisitGrouping(e *Grouping) (string, error) {
	return p.parenthesize("group", e.Expression), nil
}

func (p Printer) VisitUnary(e *Unary) (string, error) {
	return p.parenthesize(e.Operator.Lexeme, e.Right), nil
}

func (p Printer) VisitBinary(e *Binary) (string, error) {
	return p.parenthesize(e.Operator.Lexeme, e.Left, e.Right), nil
}

func (p Printer) VisitLogical(e *Logical) (string, error) {
	return p.parenthesize(e.Operator.Lexeme, e.Left, e.Right), nil
}

func (p Printer) VisitVariable(e *Variable) (string, error) {
	return e.Name.Lexeme, nil
}

func (p Printer) VisitAssign(e *Assign) (string, error) {
	return p.parenthesize("= "+e.Name.Lexeme, e.Value), nil
}

func (p Printer) VisitCall(e *Call) (string, error) {
	return p.parenthesize("call", append([]Expr{e.Callee}, e.Arguments...)...), nil
}

// ---- statements ----

func (p Printer) VisitExpression(s *Expression) (string, error) {
	return p.parenthesize(";", s.Expression), nil
}

func (p Printer) VisitPrint(s *Print) (string, error) {
	return p.parenthesize("print", s.Expression), nil
}

func (p Printer) VisitVar(s *Var) (string, error) {
	if s.Initializer == nil {
		return "(var " + s.Name.Lexeme + ")", nil
	}
	return p.parenthesize("var "+s.Name.Lexeme, s.Initializer), nil
}

func (p Printer) VisitBlock(s *Block) (string, error) {
	return "(block" + p.stmts(s.Statements) + ")", nil
}

func (p Printer) VisitIf(s *If) (string, error) {
	out := "(if " + p.PrintExpr(s.Condition) + " " + p.PrintStmt(s.ThenBranch)
	if s.ElseBranch != nil {
		out += " " + p.PrintStmt(s.ElseBranch)
	}
	return out + ")", nil
}

func (p Printer) VisitWhile(s *While) (string, error) {
	return "(while " + p.PrintExpr(s.Condition) + " " + p.PrintStmt(s.Body) + ")", nil
}

func (p Printer) VisitFunction(s *Function) (string, error) {
	params := make([]string, len(s.Params))
	for i, tok := range s.Params {
		params[i] = tok.Lexeme
	}
	return "(fun " + s.Name.Lexeme + " (" + strings.Join(params, " ") + ")" + p.stmts(s.Body) + ")", nil
}

func (p Printer) VisitReturn(s *Return) (string, error) {
	if s.Value == nil {
		return "(return)", nil
	}
	return p.parenthesize("return", s.Value), nil
}

func (p Printer) stmts(list []Stmt) string {
	var b strings.Builder
	for _, st := range list {
		b.WriteString(" ")
		b.WriteString(p.PrintStmt(st))
	}
	return b.String()
}
