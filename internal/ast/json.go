package ast

import "lox-lang/internal/token"

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// This produces a tagged-union structure: every node has a "kind" field.
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	// ---- Expressions ----
	case *Literal:
		result := m("Literal", "type", "nil")
		if n.Value != nil {
			result["type"] = n.Value.TypeName()
			result["value"] = n.Value.String()
		}
		return result
	case *Grouping:
		return m("Grouping", "expression", NodeToMap(n.Expression))
	case *Unary:
		return m("Unary", "op", n.Operator.Lexeme, "line", n.Operator.Line, "right", NodeToMap(n.Right))
	case *Binary:
		return m("Binary",
			"op", n.Operator.Lexeme,
			"line", n.Operator.Line,
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *Logical:
		return m("Logical",
			"op", n.Operator.Lexeme,
			"line", n.Operator.Line,
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *Variable:
		return m("Variable", "name", n.Name.Lexeme, "line", n.Name.Line)
	case *Assign:
		return m("Assign", "name", n.Name.Lexeme, "line", n.Name.Line, "value", NodeToMap(n.Value))
	case *Call:
		return m("Call",
			"callee", NodeToMap(n.Callee),
			"line", n.Paren.Line,
			"args", exprSlice(n.Arguments))

	// ---- Statements ----
	case *Expression:
		return m("Expression", "expression", NodeToMap(n.Expression))
	case *Print:
		return m("Print", "expression", NodeToMap(n.Expression))
	case *Var:
		result := m("Var", "name", n.Name.Lexeme, "line", n.Name.Line)
		if n.Initializer != nil {
			result["initializer"] = NodeToMap(n.Initializer)
		}
		return result
	case *Block:
		return m("Block", "statements", StmtsToSlice(n.Statements))
	case *If:
		result := m("If",
			"condition", NodeToMap(n.Condition),
			"then", NodeToMap(n.ThenBranch))
		if n.ElseBranch != nil {
			result["else"] = NodeToMap(n.ElseBranch)
		}
		return result
	case *While:
		return m("While",
			"condition", NodeToMap(n.Condition),
			"body", NodeToMap(n.Body))
	case *Function:
		return m("Function",
			"name", n.Name.Lexeme,
			"line", n.Name.Line,
			"params", lexemes(n.Params),
			"body", StmtsToSlice(n.Body))
	case *Return:
		result := m("Return", "line", n.Keyword.Line)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

// StmtsToSlice converts a program (or block body) for JSON serialization.
func StmtsToSlice(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = NodeToMap(s)
	}
	return result
}

// ---- helpers ----

// m builds a map with kind and extra key-value pairs.
func m(kind string, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{"kind": kind}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

func exprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = NodeToMap(e)
	}
	return result
}

func lexemes(toks []token.Token) []string {
	result := make([]string, len(toks))
	for i, t := range toks {
		result[i] = t.Lexeme
	}
	return result
}
