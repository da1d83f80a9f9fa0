package ast

import "fmt"

// ExprVisitor handles every expression kind. R is the visitor's result type.
type ExprVisitor[R any] interface {
	VisitLiteral(e *Literal) (R, error)
	VisitGrouping(e *Grouping) (R, error)
	VisitUnary(e *Unary) (R, error)
	VisitBinary(e *Binary) (R, error)
	VisitLogical(e *Logical) (R, error)
	VisitVariable(e *Variable) (R, error)
	VisitAssign(e *Assign) (R, error)
	VisitCall(e *Call) (R, error)
}

// StmtVisitor handles every statement kind. R is the visitor's result type.
type StmtVisitor[R any] interface {
	VisitExpression(s *Expression) (R, error)
	VisitPrint(s *Print) (R, error)
	VisitVar(s *Var) (R, error)
	VisitBlock(s *Block) (R, error)
	VisitIf(s *If) (R, error)
	VisitWhile(s *While) (R, error)
	VisitFunction(s *Function) (R, error)
	VisitReturn(s *Return) (R, error)
}

// AcceptExpr routes e to the handler for its kind.
// A node kind outside the closed set is a programming error and panics.
func AcceptExpr[R any](e Expr, v ExprVisitor[R]) (R, error) {
	switch n := e.(type) {
	case *Literal:
		return v.VisitLiteral(n)
	case *Grouping:
		return v.VisitGrouping(n)
	case *Unary:
		return v.VisitUnary(n)
	case *Binary:
		return v.VisitBinary(n)
	case *Logical:
		return v.VisitLogical(n)
	case *Variable:
		return v.VisitVariable(n)
	case *Assign:
		return v.VisitAssign(n)
	case *Call:
		return v.VisitCall(n)
	default:
		panic(fmt.Sprintf("ast: unexpected expression node %T", e))
	}
}

// AcceptStmt routes s to the handler for its kind.
// A node kind outside the closed set is a programming error and panics.
func AcceptStmt[R any](s Stmt, v StmtVisitor[R]) (R, error) {
	switch n := s.(type) {
	case *Expression:
		return v.VisitExpression(n)
	case *Print:
		return v.VisitPrint(n)
	case *Var:
		return v.VisitVar(n)
	case *Block:
		return v.VisitBlock(n)
	case *If:
		return v.VisitIf(n)
	case *While:
		return v.VisitWhile(n)
	case *Function:
		return v.VisitFunction(n)
	case *Return:
		return v.VisitReturn(n)
	default:
		panic(fmt.Sprintf("ast: unexpected statement node %T", s))
	}
}
