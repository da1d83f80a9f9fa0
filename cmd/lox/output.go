package main

import (
	"encoding/json"
	"fmt"
	"io"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
)

// ---- output helpers ----

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDiagsText(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
	}
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		result[i] = map[string]interface{}{
			"code":     d.Code,
			"severity": d.Severity.String(),
			"message":  d.Message,
			"line":     d.Line,
			"column":   d.Column,
		}
		if d.Where != "" {
			result[i]["where"] = d.Where
		}
		if d.File != "" {
			result[i]["file"] = d.File
		}
	}
	return result
}

// ---- token output helpers ----

func printTokensText(w io.Writer, tokens []token.Token) {
	for _, tok := range tokens {
		lexeme := tok.Lexeme
		if tok.Kind == token.EOF {
			lexeme = "<eof>"
		}
		fmt.Fprintf(w, "%-14s %-20s %d:%d\n", tok.Kind, lexeme, tok.Line, tok.Column)
	}
}

func printSexpr(w io.Writer, stmts []ast.Stmt) {
	for _, s := range stmts {
		fmt.Fprintln(w, ast.Printer{}.PrintStmt(s))
	}
}
