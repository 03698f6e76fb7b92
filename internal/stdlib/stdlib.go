// Package stdlib is a minimal vm.Context implementation so cmd/bang has
// something to import and run programs against. It is not part of the
// language core: the core ships only vm.Empty, since module content is
// meant to be pluggable and host-defined; this package is the driver's
// own pluggable choice, grounded on the reference interpreter's
// `print`/`type` globals and its `maths`/`string`/`list` modules.
package stdlib

import (
	"fmt"
	"math"
	"strings"

	"github.com/kristofer/bang/pkg/value"
	"github.com/kristofer/bang/pkg/vm"
)

// Context provides `print`, `type`, and the math/string/list modules.
type Context struct{}

var _ vm.Context = Context{}

// DefineGlobals seeds the VM's global table with print and type.
func (Context) DefineGlobals(machine *vm.VM) {
	machine.DefineGlobal("print", value.NewNative("print", value.NewArity(1), nativePrint))
	machine.DefineGlobal("type", value.NewNative("type", value.NewArity(1), nativeType))
}

func nativePrint(args []value.Value) (value.Value, error) {
	fmt.Println(args[0].String())
	return value.Null, nil
}

func nativeType(args []value.Value) (value.Value, error) {
	v := args[0]
	switch {
	case v.IsNull():
		return value.String("null"), nil
	case v.IsBool():
		return value.String("boolean"), nil
	case v.IsNumber():
		return value.String("number"), nil
	case v.IsString():
		return value.String("string"), nil
	case v.IsList():
		return value.String("list"), nil
	case v.IsCallable():
		return value.String("function"), nil
	default:
		return value.String(v.TypeName()), nil
	}
}

// GetValue resolves `math.x`, `string.x`, and `list.x` symbols, both
// for `Module.symbol` access and `from Module import [...]`.
func (Context) GetValue(module, symbol string) (value.Value, bool) {
	switch module {
	case "math":
		return mathSymbol(symbol)
	case "string":
		return stringSymbol(symbol)
	case "list":
		return listSymbol(symbol)
	}
	return value.Null, false
}

func mathSymbol(name string) (value.Value, bool) {
	switch name {
	case "pi":
		return value.Number(math.Pi), true
	case "e":
		return value.Number(math.E), true
	case "infinity":
		return value.Number(math.Inf(1)), true
	case "floor":
		return unaryMath(name, math.Floor), true
	case "ceil":
		return unaryMath(name, math.Ceil), true
	case "round":
		return unaryMath(name, math.Round), true
	case "abs":
		return unaryMath(name, math.Abs), true
	case "sqrt":
		return unaryMath(name, math.Sqrt), true
	case "cbrt":
		return unaryMath(name, math.Cbrt), true
	case "sin":
		return unaryMath(name, math.Sin), true
	case "cos":
		return unaryMath(name, math.Cos), true
	case "tan":
		return unaryMath(name, math.Tan), true
	case "asin":
		return unaryMath(name, math.Asin), true
	case "acos":
		return unaryMath(name, math.Acos), true
	case "atan":
		return unaryMath(name, math.Atan), true
	case "exp":
		return unaryMath(name, math.Exp), true
	case "ln":
		return unaryMath(name, math.Log), true
	case "isNan":
		return value.NewNative(name, value.NewArity(1), func(args []value.Value) (value.Value, error) {
			return value.Bool(math.IsNaN(args[0].AsNumber())), nil
		}), true
	case "pow":
		return value.NewNative(name, value.NewArity(2), func(args []value.Value) (value.Value, error) {
			return value.Number(math.Pow(args[0].AsNumber(), args[1].AsNumber())), nil
		}), true
	case "log":
		return value.NewNative(name, value.NewArity(2), func(args []value.Value) (value.Value, error) {
			return value.Number(math.Log(args[0].AsNumber()) / math.Log(args[1].AsNumber())), nil
		}), true
	case "radiansToDegrees":
		return unaryMath(name, func(r float64) float64 { return r * 180 / math.Pi }), true
	case "degreesToRadians":
		return unaryMath(name, func(d float64) float64 { return d * math.Pi / 180 }), true
	default:
		return value.Null, false
	}
}

func unaryMath(name string, fn func(float64) float64) value.Value {
	return value.NewNative(name, value.NewArity(1), func(args []value.Value) (value.Value, error) {
		return value.Number(fn(args[0].AsNumber())), nil
	})
}

func stringSymbol(name string) (value.Value, bool) {
	switch name {
	case "length":
		return value.NewNative(name, value.NewArity(1), func(args []value.Value) (value.Value, error) {
			return value.Number(float64(len([]rune(args[0].AsString())))), nil
		}), true
	case "trim":
		return unaryString(name, strings.TrimSpace), true
	case "trimStart":
		return unaryString(name, func(s string) string { return strings.TrimLeft(s, " \t\n\r") }), true
	case "trimEnd":
		return unaryString(name, func(s string) string { return strings.TrimRight(s, " \t\n\r") }), true
	case "toLowerCase":
		return unaryString(name, strings.ToLower), true
	case "toUpperCase":
		return unaryString(name, strings.ToUpper), true
	case "includes":
		return value.NewNative(name, value.NewArity(2), func(args []value.Value) (value.Value, error) {
			return value.Bool(strings.Contains(args[0].AsString(), args[1].AsString())), nil
		}), true
	case "startsWith":
		return value.NewNative(name, value.NewArity(2), func(args []value.Value) (value.Value, error) {
			return value.Bool(strings.HasPrefix(args[0].AsString(), args[1].AsString())), nil
		}), true
	case "endsWith":
		return value.NewNative(name, value.NewArity(2), func(args []value.Value) (value.Value, error) {
			return value.Bool(strings.HasSuffix(args[0].AsString(), args[1].AsString())), nil
		}), true
	case "repeat":
		return value.NewNative(name, value.NewArity(2), func(args []value.Value) (value.Value, error) {
			n := int(args[1].AsNumber())
			if n < 0 {
				return value.Null, fmt.Errorf("repeat count must not be negative")
			}
			return value.String(strings.Repeat(args[0].AsString(), n)), nil
		}), true
	case "toNumber":
		return value.NewNative(name, value.NewArity(1), func(args []value.Value) (value.Value, error) {
			var f float64
			if _, err := fmt.Sscanf(args[0].AsString(), "%g", &f); err != nil {
				return value.Number(math.NaN()), nil
			}
			return value.Number(f), nil
		}), true
	default:
		return value.Null, false
	}
}

func unaryString(name string, fn func(string) string) value.Value {
	return value.NewNative(name, value.NewArity(1), func(args []value.Value) (value.Value, error) {
		return value.String(fn(args[0].AsString())), nil
	})
}

func listSymbol(name string) (value.Value, bool) {
	switch name {
	case "length":
		return value.NewNative(name, value.NewArity(1), func(args []value.Value) (value.Value, error) {
			return value.Number(float64(len(*args[0].AsList()))), nil
		}), true
	case "isEmpty":
		return value.NewNative(name, value.NewArity(1), func(args []value.Value) (value.Value, error) {
			return value.Bool(len(*args[0].AsList()) == 0), nil
		}), true
	case "push":
		return value.NewNative(name, value.NewArity(2), func(args []value.Value) (value.Value, error) {
			items := args[0].AsList()
			args[1].Retain()
			*items = append(*items, args[1])
			return args[0], nil
		}), true
	case "pop":
		return value.NewNative(name, value.NewArity(1), func(args []value.Value) (value.Value, error) {
			items := args[0].AsList()
			if len(*items) == 0 {
				return value.Null, nil
			}
			last := (*items)[len(*items)-1]
			*items = (*items)[:len(*items)-1]
			return last, nil
		}), true
	case "includes":
		return value.NewNative(name, value.NewArity(2), func(args []value.Value) (value.Value, error) {
			for _, item := range *args[0].AsList() {
				if item.Equal(args[1]) {
					return value.Bool(true), nil
				}
			}
			return value.Bool(false), nil
		}), true
	case "reverse":
		return value.NewNative(name, value.NewArity(1), func(args []value.Value) (value.Value, error) {
			items := *args[0].AsList()
			reversed := make([]value.Value, len(items))
			for i, v := range items {
				v.Retain()
				reversed[len(items)-1-i] = v
			}
			return value.List(reversed), nil
		}), true
	default:
		return value.Null, false
	}
}
