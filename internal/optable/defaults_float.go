package optable

import "github.com/cesnet/go-ipfix-filter/internal/value"

// floatEq compares two floats within value.FloatEpsilon.
func floatEq(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < value.FloatEpsilon
}

// registerFloat registers FLOAT arithmetic and comparisons. Floats carry
// no modulo or bitwise operators.
func registerFloat(t *Table) {
	arith := map[string]func(a, b float64) float64{
		"+": func(a, b float64) float64 { return a + b },
		"-": func(a, b float64) float64 { return a - b },
		"*": func(a, b float64) float64 { return a * b },
		"/": func(a, b float64) float64 { return a / b },
	}
	for sym, fn := range arith {
		fn := fn
		t.Add(Entry{Symbol: sym, Arity: 2, Out: value.Float, Arg1: value.Float, Arg2: value.Float,
			Binary: func(a, b value.Value) (value.Value, error) { return value.FloatValue(fn(a.F, b.F)), nil },
		})
	}

	cmp := map[string]func(a, b float64) bool{
		"==": floatEq,
		"!=": func(a, b float64) bool { return !floatEq(a, b) },
		"<":  func(a, b float64) bool { return a < b },
		">":  func(a, b float64) bool { return a > b },
		"<=": func(a, b float64) bool { return a <= b },
		">=": func(a, b float64) bool { return a >= b },
	}
	for sym, fn := range cmp {
		fn := fn
		t.Add(Entry{Symbol: sym, Arity: 2, Out: value.Bool, Arg1: value.Float, Arg2: value.Float,
			Binary: func(a, b value.Value) (value.Value, error) { return value.BoolValue(fn(a.F, b.F)), nil },
		})
	}

	t.Add(Entry{Symbol: "-", Arity: 1, Out: value.Float, Arg1: value.Float,
		Unary: func(a value.Value) (value.Value, error) { return value.FloatValue(-a.F), nil },
	})
	t.Add(Entry{Symbol: "+", Arity: 1, Out: value.Float, Arg1: value.Float,
		Unary: func(a value.Value) (value.Value, error) { return a, nil },
	})
}
