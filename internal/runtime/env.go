package runtime

import (
	"sort"

	"lox-lang/internal/token"
	"lox-lang/internal/value"
)

// Environment represents a variable scope with a parent chain.
// Closures hold on to an Environment, so a scope outlives the block that
// created it whenever a function defined inside it escapes.
type Environment struct {
	values    map[string]value.Value
	enclosing *Environment
}

// NewEnvironment creates a new environment with an optional parent scope.
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{
		values:    make(map[string]value.Value),
		enclosing: enclosing,
	}
}

// Enclosing returns the parent scope, or nil for the global scope.
func (e *Environment) Enclosing() *Environment {
	return e.enclosing
}

// Define binds name in this scope, replacing any existing binding here and
// shadowing any binding in an ancestor.
func (e *Environment) Define(name string, v value.Value) {
	e.values[name] = v
}

// Get looks up a variable by walking the scope chain.
func (e *Environment) Get(name token.Token) (value.Value, error) {
	for env := e; env != nil; env = env.enclosing {
		if v, ok := env.values[name.Lexeme]; ok {
			return v, nil
		}
	}
	return nil, undefinedVariable(name)
}

// Assign overwrites the nearest existing binding of name and returns the
// assigned value. It never creates a binding.
func (e *Environment) Assign(name token.Token, v value.Value) (value.Value, error) {
	for env := e; env != nil; env = env.enclosing {
		if _, ok := env.values[name.Lexeme]; ok {
			env.values[name.Lexeme] = v
			return v, nil
		}
	}
	return nil, undefinedVariable(name)
}

// Names returns the names bound directly in this scope, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func undefinedVariable(name token.Token) *RuntimeError {
	return runtimeErr(name, "Undefined variable '%s'.", name.Lexeme)
}
