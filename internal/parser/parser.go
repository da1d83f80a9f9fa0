// Package parser implements the syntax analysis for lox-lang.
// It is a recursive-descent parser with one function per precedence level.
package parser

import (
	"errors"
	"fmt"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
	"lox-lang/internal/value"
)

// maxArgs bounds both parameter lists and call argument lists.
const maxArgs = 255

// errSync unwinds the current declaration after a diagnostic has been recorded.
var errSync = errors.New("parse error")

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens   []token.Token
	pos      int
	diags    []diag.Diagnostic
	funDepth int // number of enclosing function bodies
}

// New creates a new parser from a token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a whole program. Statements that failed to parse are
// dropped; every error is reported in the returned diagnostics.
func (p *Parser) Parse() ([]ast.Stmt, []diag.Diagnostic) {
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, p.diags
}

// ParseExpression parses a single expression followed by EOF. The REPL uses
// it to echo the value of bare expressions.
func (p *Parser) ParseExpression() (ast.Expr, []diag.Diagnostic) {
	expr, err := p.expression()
	if err == nil && !p.isAtEnd() {
		_ = p.errorAt(p.peek(), "E2009", "Expect end of expression.")
	}
	return expr, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) > 0 {
			return p.tokens[len(p.tokens)-1]
		}
		return token.Token{Kind: token.EOF, Line: 1}
	}
	return p.tokens[p.pos]
}

func (p *Parser) previous() token.Token {
	if p.pos == 0 {
		return p.peek()
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) check(kind token.Kind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

// match consumes the next token if it is one of kinds.
func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes a token of the given kind or records msg and returns errSync.
func (p *Parser) expect(kind token.Kind, code, msg string) (token.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return p.peek(), p.errorAt(p.peek(), code, msg)
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == token.EOF
}

// errorAt records a diagnostic anchored at tok and returns errSync so callers
// can unwind to the declaration level.
func (p *Parser) errorAt(tok token.Token, code, msg string) error {
	where := fmt.Sprintf("at '%s'", tok.Lexeme)
	if tok.Kind == token.EOF {
		where = "at end"
	}
	p.diags = append(p.diags, diag.Errorf(code, tok.Line, tok.Column, "%s", msg).At(where))
	return errSync
}

// ============================================================
// Error recovery
// ============================================================

// synchronize discards tokens until just past a ';' or until the next token
// starts a statement.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Kind == token.SEMICOLON {
			return
		}
		switch p.peek().Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// ============================================================
// Declarations
// ============================================================

// declaration parses one declaration, recovering at the statement level.
func (p *Parser) declaration() ast.Stmt {
	var (
		stmt ast.Stmt
		err  error
	)
	switch {
	case p.match(token.FUN):
		stmt, err = p.function()
	case p.match(token.VAR):
		stmt, err = p.varDeclaration()
	case p.check(token.CLASS):
		p.classDeclaration()
		return nil
	default:
		stmt, err = p.statement()
	}
	if err != nil {
		p.synchronize()
		return nil
	}
	return stmt
}

// function parses: IDENT ( params ) { body }
func (p *Parser) function() (*ast.Function, error) {
	name, err := p.expect(token.IDENTIFIER, "E2010", "Expect function name.")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LEFT_PAREN, "E2011", "Expect '(' after function name."); err != nil {
		return nil, err
	}

	var params []token.Token
	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(params) >= maxArgs {
				// reported but not fatal
				_ = p.errorAt(p.peek(), "E2012", fmt.Sprintf("Can't have more than %d parameters.", maxArgs))
			}
			param, err := p.expect(token.IDENTIFIER, "E2013", "Expect parameter name.")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(token.RIGHT_PAREN, "E2014", "Expect ')' after parameters."); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LEFT_BRACE, "E2015", "Expect '{' before function body."); err != nil {
		return nil, err
	}

	p.funDepth++
	body, err := p.block()
	p.funDepth--
	if err != nil {
		return nil, err
	}
	return &ast.Function{Name: name, Params: params, Body: body}, nil
}

// varDeclaration parses: IDENT [ = expr ] ;
func (p *Parser) varDeclaration() (*ast.Var, error) {
	name, err := p.expect(token.IDENTIFIER, "E2016", "Expect variable name.")
	if err != nil {
		return nil, err
	}

	stmt := &ast.Var{Name: name}
	if p.match(token.EQUAL) {
		if stmt.Initializer, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON, "E2017", "Expect ';' after variable declaration."); err != nil {
		return nil, err
	}
	return stmt, nil
}

// classDeclaration rejects 'class': the keyword is reserved but classes are
// not part of the language. A braced body is skipped as a whole so its
// methods are not reported as separate errors.
func (p *Parser) classDeclaration() {
	_ = p.errorAt(p.advance(), "E2018", "Classes are not supported.")
	p.match(token.IDENTIFIER)
	if p.match(token.LESS) {
		p.match(token.IDENTIFIER)
	}
	if !p.check(token.LEFT_BRACE) {
		p.synchronize()
		return
	}
	depth := 0
	for !p.isAtEnd() {
		switch p.advance().Kind {
		case token.LEFT_BRACE:
			depth++
		case token.RIGHT_BRACE:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// ============================================================
// Statements
// ============================================================

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.match(token.FOR):
		return p.forStatement()
	case p.match(token.IF):
		return p.ifStatement()
	case p.match(token.PRINT):
		return p.printStatement()
	case p.match(token.RETURN):
		return p.returnStatement()
	case p.match(token.WHILE):
		return p.whileStatement()
	case p.match(token.LEFT_BRACE):
		stmts, err := p.block()
		if err != nil {
			return nil, err
		}
		return &ast.Block{Statements: stmts}, nil
	default:
		return p.expressionStatement()
	}
}

// forStatement desugars for (init; cond; incr) body into
// { init; while (cond) { body; incr; } }.
func (p *Parser) forStatement() (ast.Stmt, error) {
	if _, err := p.expect(token.LEFT_PAREN, "E2020", "Expect '(' after 'for'."); err != nil {
		return nil, err
	}

	var (
		initializer ast.Stmt
		err         error
	)
	switch {
	case p.match(token.SEMICOLON):
	case p.match(token.VAR):
		initializer, err = p.varDeclaration()
	default:
		initializer, err = p.expressionStatement()
	}
	if err != nil {
		return nil, err
	}

	var condition ast.Expr
	if !p.check(token.SEMICOLON) {
		if condition, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON, "E2021", "Expect ';' after loop condition."); err != nil {
		return nil, err
	}

	var increment ast.Expr
	if !p.check(token.RIGHT_PAREN) {
		if increment, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RIGHT_PAREN, "E2022", "Expect ')' after for clauses."); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	if increment != nil {
		body = &ast.Block{Statements: []ast.Stmt{body, &ast.Expression{Expression: increment}}}
	}
	if condition == nil {
		condition = &ast.Literal{Value: value.Bool(true)}
	}
	body = &ast.While{Condition: condition, Body: body}
	if initializer != nil {
		body = &ast.Block{Statements: []ast.Stmt{initializer, body}}
	}
	return body, nil
}

// ifStatement parses: if ( expr ) stmt [ else stmt ]
func (p *Parser) ifStatement() (ast.Stmt, error) {
	if _, err := p.expect(token.LEFT_PAREN, "E2023", "Expect '(' after 'if'."); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RIGHT_PAREN, "E2024", "Expect ')' after if condition."); err != nil {
		return nil, err
	}

	stmt := &ast.If{Condition: condition}
	if stmt.ThenBranch, err = p.statement(); err != nil {
		return nil, err
	}
	if p.match(token.ELSE) {
		if stmt.ElseBranch, err = p.statement(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) printStatement() (ast.Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "E2025", "Expect ';' after value."); err != nil {
		return nil, err
	}
	return &ast.Print{Expression: expr}, nil
}

// returnStatement parses: return [expr] ;
func (p *Parser) returnStatement() (ast.Stmt, error) {
	keyword := p.previous()
	if p.funDepth == 0 {
		// reported but not fatal; the statement is still well-formed
		_ = p.errorAt(keyword, "E2026", "Can't return from top-level code.")
	}

	stmt := &ast.Return{Keyword: keyword}
	if !p.check(token.SEMICOLON) {
		var err error
		if stmt.Value, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON, "E2027", "Expect ';' after return value."); err != nil {
		return nil, err
	}
	return stmt, nil
}

// whileStatement parses: while ( expr ) stmt
func (p *Parser) whileStatement() (ast.Stmt, error) {
	if _, err := p.expect(token.LEFT_PAREN, "E2028", "Expect '(' after 'while'."); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RIGHT_PAREN, "E2029", "Expect ')' after condition."); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &ast.While{Condition: condition, Body: body}, nil
}

// block parses declarations up to the closing brace; the opening brace has
// already been consumed. Errors inside the block are recovered locally.
func (p *Parser) block() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	if _, err := p.expect(token.RIGHT_BRACE, "E2030", "Expect '}' after block."); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) expressionStatement() (ast.Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "E2031", "Expect ';' after expression."); err != nil {
		return nil, err
	}
	return &ast.Expression{Expression: expr}, nil
}

// ============================================================
// Expressions, lowest to highest precedence
// ============================================================

func (p *Parser) expression() (ast.Expr, error) {
	return p.assignment()
}

// assignment is right-associative and only accepts a variable target.
func (p *Parser) assignment() (ast.Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}

	if p.match(token.EQUAL) {
		equals := p.previous()
		val, err := p.assignment()
		if err != nil {
			return nil, err
		}
		if v, ok := expr.(*ast.Variable); ok {
			return &ast.Assign{Name: v.Name, Value: val}, nil
		}
		// reported but not fatal; the left side is kept as the result
		_ = p.errorAt(equals, "E2032", "Invalid assignment target.")
	}
	return expr, nil
}

func (p *Parser) or() (ast.Expr, error) {
	return p.logical(p.and, token.OR)
}

func (p *Parser) and() (ast.Expr, error) {
	return p.logical(p.equality, token.AND)
}

func (p *Parser) equality() (ast.Expr, error) {
	return p.binary(p.comparison, token.BANG_EQUAL, token.EQUAL_EQUAL)
}

func (p *Parser) comparison() (ast.Expr, error) {
	return p.binary(p.term, token.GREATER, token.GREATER_EQUAL, token.LESS, token.LESS_EQUAL)
}

func (p *Parser) term() (ast.Expr, error) {
	return p.binary(p.factor, token.MINUS, token.PLUS)
}

func (p *Parser) factor() (ast.Expr, error) {
	return p.binary(p.unary, token.SLASH, token.STAR)
}

// binary parses one left-associative level: operand { op operand }.
func (p *Parser) binary(operand func() (ast.Expr, error), ops ...token.Kind) (ast.Expr, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}
	for p.match(ops...) {
		op := p.previous()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

// logical is binary for the short-circuiting operators.
func (p *Parser) logical(operand func() (ast.Expr, error), op token.Kind) (ast.Expr, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}
	for p.match(op) {
		operator := p.previous()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = &ast.Logical{Left: expr, Operator: operator, Right: right}
	}
	return expr, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.match(token.BANG, token.MINUS) {
		op := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Operator: op, Right: right}, nil
	}
	return p.call()
}

// call parses a primary followed by any number of argument lists: f()().
func (p *Parser) call() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.match(token.LEFT_PAREN) {
		if expr, err = p.finishCall(expr); err != nil {
			return nil, err
		}
	}
	return expr, nil
}

func (p *Parser) finishCall(callee ast.Expr) (ast.Expr, error) {
	var args []ast.Expr
	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(args) >= maxArgs {
				_ = p.errorAt(p.peek(), "E2033", fmt.Sprintf("Can't have more than %d arguments.", maxArgs))
			}
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren, err := p.expect(token.RIGHT_PAREN, "E2034", "Expect ')' after arguments.")
	if err != nil {
		return nil, err
	}
	return &ast.Call{Callee: callee, Paren: paren, Arguments: args}, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Kind {
	case token.FALSE:
		p.advance()
		return &ast.Literal{Value: value.Bool(false)}, nil
	case token.TRUE:
		p.advance()
		return &ast.Literal{Value: value.Bool(true)}, nil
	case token.NIL:
		p.advance()
		return &ast.Literal{Value: value.Nil{}}, nil
	case token.NUMBER, token.STRING:
		p.advance()
		return &ast.Literal{Value: tok.Literal}, nil
	case token.IDENTIFIER:
		p.advance()
		return &ast.Variable{Name: tok}, nil
	case token.LEFT_PAREN:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RIGHT_PAREN, "E2001", "Expect ')' after expression."); err != nil {
			return nil, err
		}
		return &ast.Grouping{Expression: expr}, nil
	default:
		return nil, p.errorAt(tok, "E2002", "Expect expression.")
	}
}
