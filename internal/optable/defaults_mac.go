package optable

import "github.com/cesnet/go-ipfix-filter/internal/value"

// registerMAC registers exact 6-byte MAC equality.
func registerMAC(t *Table) {
	t.Add(Entry{Symbol: "==", Arity: 2, Out: value.Bool, Arg1: value.MAC, Arg2: value.MAC,
		Binary: func(a, b value.Value) (value.Value, error) { return value.BoolValue(a.MAC == b.MAC), nil },
	})
	t.Add(Entry{Symbol: "!=", Arity: 2, Out: value.Bool, Arg1: value.MAC, Arg2: value.MAC,
		Binary: func(a, b value.Value) (value.Value, error) { return value.BoolValue(a.MAC != b.MAC), nil },
	})
}
