// Package runtime implements the interpreter, its environments and callables for lox-lang.
package runtime

import (
	"fmt"

	"lox-lang/internal/ast"
	"lox-lang/internal/value"
)

// Callable is a value that the interpreter can invoke.
type Callable interface {
	value.Callable
	Call(i *Interpreter, args []value.Value) (value.Value, error)
}

// ---- User-defined functions ----

// Function is a closure: a declaration plus the environment active where it
// was declared.
type Function struct {
	Declaration *ast.Function
	Closure     *Environment
}

var _ Callable = (*Function)(nil)

func (f *Function) TypeName() string { return "function" }
func (f *Function) String() string   { return fmt.Sprintf("<fn %s>", f.Declaration.Name.Lexeme) }
func (f *Function) Arity() int       { return len(f.Declaration.Params) }

// Call binds the arguments in a fresh scope whose parent is the closure, not
// the caller's scope, and runs the body there.
func (f *Function) Call(i *Interpreter, args []value.Value) (value.Value, error) {
	env := NewEnvironment(f.Closure)
	for idx, param := range f.Declaration.Params {
		env.Define(param.Lexeme, args[idx])
	}

	result, err := i.executeBlock(f.Declaration.Body, env)
	if err != nil {
		return nil, err
	}
	if result.Signal == SigReturn {
		return result.Value, nil
	}
	return value.Nil{}, nil
}

// ---- Native functions ----

// NativeFn is the Go signature for native functions.
type NativeFn func(args []value.Value) (value.Value, error)

// NativeFunction is a function implemented in Go.
type NativeFunction struct {
	Name  string
	NArgs int
	Fn    NativeFn
}

var _ Callable = (*NativeFunction)(nil)

func (n *NativeFunction) TypeName() string { return "function" }
func (n *NativeFunction) String() string   { return "<native fn>" }
func (n *NativeFunction) Arity() int       { return n.NArgs }

func (n *NativeFunction) Call(_ *Interpreter, args []value.Value) (value.Value, error) {
	return n.Fn(args)
}
