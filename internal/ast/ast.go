// Package ast defines the abstract syntax tree for lox-lang.
package ast

import (
	"lox-lang/internal/token"
	"lox-lang/internal/value"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ExprBase is embedded by all expression nodes.
type ExprBase struct{}

func (ExprBase) nodeNode() {}
func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{}

func (StmtBase) nodeNode() {}
func (StmtBase) stmtNode() {}

// ============================================================
// Expressions
// ============================================================

// Literal is a constant number, string, boolean or nil.
type Literal struct {
	ExprBase
	Value value.Value
}

// Grouping is a parenthesized expression.
type Grouping struct {
	ExprBase
	Expression Expr
}

// Unary represents a unary operation: !x, -x.
type Unary struct {
	ExprBase
	Operator token.Token
	Right    Expr
}

// Binary represents an arithmetic, comparison or equality operation.
type Binary struct {
	ExprBase
	Left     Expr
	Operator token.Token
	Right    Expr
}

// Logical represents a short-circuiting 'and' / 'or'.
type Logical struct {
	ExprBase
	Left     Expr
	Operator token.Token
	Right    Expr
}

// Variable is a reference to a named binding.
type Variable struct {
	ExprBase
	Name token.Token
}

// Assign stores a value into an existing binding and yields that value.
type Assign struct {
	ExprBase
	Name  token.Token
	Value Expr
}

// Call represents callee(args). Paren is the closing parenthesis, kept for
// error locations.
type Call struct {
	ExprBase
	Callee    Expr
	Paren     token.Token
	Arguments []Expr
}

// ============================================================
// Statements
// ============================================================

// Expression evaluates an expression and discards the result.
type Expression struct {
	StmtBase
	Expression Expr
}

// Print evaluates an expression and writes its rendering.
type Print struct {
	StmtBase
	Expression Expr
}

// Var declares a variable. Initializer may be nil.
type Var struct {
	StmtBase
	Name        token.Token
	Initializer Expr
}

// Block is a braced sequence of statements with its own scope.
type Block struct {
	StmtBase
	Statements []Stmt
}

// If represents if/else. ElseBranch may be nil.
type If struct {
	StmtBase
	Condition  Expr
	ThenBranch Stmt
	ElseBranch Stmt
}

// While represents a while loop. 'for' loops are desugared into While.
type While struct {
	StmtBase
	Condition Expr
	Body      Stmt
}

// Function declares a named function.
type Function struct {
	StmtBase
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}

// Return exits the enclosing function. Value may be nil.
type Return struct {
	StmtBase
	Keyword token.Token
	Value   Expr
}
