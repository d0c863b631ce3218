package optable

import "github.com/cesnet/go-ipfix-filter/internal/value"

// registerInt registers INT arithmetic, bitwise operators and comparisons.
func registerInt(t *Table) {
	arith := map[string]func(a, b int64) int64{
		"+": func(a, b int64) int64 { return a + b },
		"-": func(a, b int64) int64 { return a - b },
		"*": func(a, b int64) int64 { return a * b },
		"/": func(a, b int64) int64 { return a / b },
		"%": func(a, b int64) int64 { return a % b },
	}
	for sym, fn := range arith {
		sym, fn := sym, fn
		t.Add(Entry{Symbol: sym, Arity: 2, Out: value.Int, Arg1: value.Int, Arg2: value.Int,
			Binary: func(a, b value.Value) (value.Value, error) {
				if (sym == "/" || sym == "%") && b.I == 0 {
					return value.Value{}, errDivisionByZero
				}
				return value.IntValue(fn(a.I, b.I)), nil
			},
		})
	}

	cmp := map[string]func(a, b int64) bool{
		"==": func(a, b int64) bool { return a == b },
		"!=": func(a, b int64) bool { return a != b },
		"<":  func(a, b int64) bool { return a < b },
		">":  func(a, b int64) bool { return a > b },
		"<=": func(a, b int64) bool { return a <= b },
		">=": func(a, b int64) bool { return a >= b },
	}
	for sym, fn := range cmp {
		fn := fn
		t.Add(Entry{Symbol: sym, Arity: 2, Out: value.Bool, Arg1: value.Int, Arg2: value.Int,
			Binary: func(a, b value.Value) (value.Value, error) {
				return value.BoolValue(fn(a.I, b.I)), nil
			},
		})
	}

	t.Add(Entry{Symbol: "-", Arity: 1, Out: value.Int, Arg1: value.Int,
		Unary: func(a value.Value) (value.Value, error) { return value.IntValue(-a.I), nil },
	})
	t.Add(Entry{Symbol: "+", Arity: 1, Out: value.Int, Arg1: value.Int,
		Unary: func(a value.Value) (value.Value, error) { return a, nil },
	})
	t.Add(Entry{Symbol: "~", Arity: 1, Out: value.Int, Arg1: value.Int,
		Unary: func(a value.Value) (value.Value, error) { return value.IntValue(^a.I), nil },
	})

	bitwise := map[string]func(a, b int64) int64{
		"&":  func(a, b int64) int64 { return a & b },
		"|":  func(a, b int64) int64 { return a | b },
		"^":  func(a, b int64) int64 { return a ^ b },
		"<<": func(a, b int64) int64 { return a << uint(b) },
		">>": func(a, b int64) int64 { return a >> uint(b) },
	}
	for sym, fn := range bitwise {
		fn := fn
		t.Add(Entry{Symbol: sym, Arity: 2, Out: value.Int, Arg1: value.Int, Arg2: value.Int,
			Binary: func(a, b value.Value) (value.Value, error) { return value.IntValue(fn(a.I, b.I)), nil },
		})
	}
}
