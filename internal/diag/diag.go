// Package diag provides diagnostic types for scan and parse errors.
package diag

import "fmt"

// Severity indicates the severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is a single reported problem in the source text.
type Diagnostic struct {
	Code     string   `json:"code"` // stable error code, e.g. "E2001"
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Where    string   `json:"where,omitempty"` // "at end", "at 'x'" or empty
	File     string   `json:"file,omitempty"`
}

// String renders the diagnostic as "[line N] Error at 'x': message".
func (d Diagnostic) String() string {
	label := "Error"
	if d.Severity == Warning {
		label = "Warning"
	}
	if d.Where != "" {
		label += " " + d.Where
	}
	return fmt.Sprintf("[line %d] %s: %s", d.Line, label, d.Message)
}

// Errorf creates an error diagnostic at the given line and column.
func Errorf(code string, line, column int, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   column,
	}
}

// At returns a copy of d with its location hint set.
func (d Diagnostic) At(where string) Diagnostic {
	d.Where = where
	return d
}

// HasErrors reports whether any diagnostic has Error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}
