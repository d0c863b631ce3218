package optable

import "github.com/cesnet/go-ipfix-filter/internal/value"

// registerBool registers BOOL equality. and/or/not are handled directly by
// the resolver and eval tree as dedicated node kinds, not through the
// operation table, but an explicit "flag == true" style comparison still
// needs a table entry.
func registerBool(t *Table) {
	t.Add(Entry{Symbol: "==", Arity: 2, Out: value.Bool, Arg1: value.Bool, Arg2: value.Bool,
		Binary: func(a, b value.Value) (value.Value, error) { return value.BoolValue(a.B == b.B), nil },
	})
	t.Add(Entry{Symbol: "!=", Arity: 2, Out: value.Bool, Arg1: value.Bool, Arg2: value.Bool,
		Binary: func(a, b value.Value) (value.Value, error) { return value.BoolValue(a.B != b.B), nil },
	})
}
