package runtime

import (
	"time"

	"lox-lang/internal/value"
)

// RegisterBuiltins adds native functions to the given environment.
func RegisterBuiltins(env *Environment, now func() time.Time) {
	env.Define("clock", &NativeFunction{
		Name:  "clock",
		NArgs: 0,
		Fn: func(args []value.Value) (value.Value, error) {
			t := now()
			return value.Number(float64(t.UnixNano()) / float64(time.Second)), nil
		},
	})

	env.Define("typeOf", &NativeFunction{
		Name:  "typeOf",
		NArgs: 1,
		Fn: func(args []value.Value) (value.Value, error) {
			return value.String(args[0].TypeName()), nil
		},
	})
}
