package optable

import (
	"bytes"

	"github.com/cesnet/go-ipfix-filter/internal/value"
)

// registerStr registers STR equality and substring containment.
func registerStr(t *Table) {
	t.Add(Entry{Symbol: "==", Arity: 2, Out: value.Bool, Arg1: value.Str, Arg2: value.Str,
		Binary: func(a, b value.Value) (value.Value, error) { return value.BoolValue(bytes.Equal(a.S, b.S)), nil },
	})
	t.Add(Entry{Symbol: "!=", Arity: 2, Out: value.Bool, Arg1: value.Str, Arg2: value.Str,
		Binary: func(a, b value.Value) (value.Value, error) { return value.BoolValue(!bytes.Equal(a.S, b.S)), nil },
	})
	t.Add(Entry{Symbol: "contains", Arity: 2, Out: value.Bool, Arg1: value.Str, Arg2: value.Str,
		Binary: func(a, b value.Value) (value.Value, error) { return value.BoolValue(bytes.Contains(a.S, b.S)), nil },
	})
}
