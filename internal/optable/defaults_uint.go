package optable

import "github.com/cesnet/go-ipfix-filter/internal/value"

// registerUint registers UINT arithmetic, bitwise operators and comparisons.
func registerUint(t *Table) {
	arith := map[string]func(a, b uint64) uint64{
		"+": func(a, b uint64) uint64 { return a + b },
		"-": func(a, b uint64) uint64 { return a - b },
		"*": func(a, b uint64) uint64 { return a * b },
		"/": func(a, b uint64) uint64 { return a / b },
		"%": func(a, b uint64) uint64 { return a % b },
	}
	for sym, fn := range arith {
		sym, fn := sym, fn
		t.Add(Entry{Symbol: sym, Arity: 2, Out: value.Uint, Arg1: value.Uint, Arg2: value.Uint,
			Binary: func(a, b value.Value) (value.Value, error) {
				if (sym == "/" || sym == "%") && b.U == 0 {
					return value.Value{}, errDivisionByZero
				}
				return value.UintValue(fn(a.U, b.U)), nil
			},
		})
	}

	cmp := map[string]func(a, b uint64) bool{
		"==": func(a, b uint64) bool { return a == b },
		"!=": func(a, b uint64) bool { return a != b },
		"<":  func(a, b uint64) bool { return a < b },
		">":  func(a, b uint64) bool { return a > b },
		"<=": func(a, b uint64) bool { return a <= b },
		">=": func(a, b uint64) bool { return a >= b },
	}
	for sym, fn := range cmp {
		fn := fn
		t.Add(Entry{Symbol: sym, Arity: 2, Out: value.Bool, Arg1: value.Uint, Arg2: value.Uint,
			Binary: func(a, b value.Value) (value.Value, error) {
				return value.BoolValue(fn(a.U, b.U)), nil
			},
		})
	}

	bitwise := map[string]func(a, b uint64) uint64{
		"&":  func(a, b uint64) uint64 { return a & b },
		"|":  func(a, b uint64) uint64 { return a | b },
		"^":  func(a, b uint64) uint64 { return a ^ b },
		"<<": func(a, b uint64) uint64 { return a << b },
		">>": func(a, b uint64) uint64 { return a >> b },
	}
	for sym, fn := range bitwise {
		fn := fn
		t.Add(Entry{Symbol: sym, Arity: 2, Out: value.Uint, Arg1: value.Uint, Arg2: value.Uint,
			Binary: func(a, b value.Value) (value.Value, error) { return value.UintValue(fn(a.U, b.U)), nil },
		})
	}

	t.Add(Entry{Symbol: "~", Arity: 1, Out: value.Uint, Arg1: value.Uint,
		Unary: func(a value.Value) (value.Value, error) { return value.UintValue(^a.U), nil },
	})
	t.Add(Entry{Symbol: "+", Arity: 1, Out: value.Uint, Arg1: value.Uint,
		Unary: func(a value.Value) (value.Value, error) { return a, nil },
	})
}
