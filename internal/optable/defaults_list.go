package optable

import "github.com/cesnet/go-ipfix-filter/internal/value"

// registerList registers the generic "in" list-membership test for every
// scalar base type against List(elem). The slice below is walked with Add,
// which prepends, so the last element ends up with the highest candidate
// priority: an integer membership test must be preferred over the
// truthiness-prone Bool one when the left operand needs a cast. IP is
// handled separately in defaults_ip.go since its literal lists are lowered
// to a longest-prefix-match trie rather than scanned linearly.
func registerList(t *Table) {
	scalars := []value.Type{value.Flags, value.MAC, value.Str, value.Bool, value.Float, value.Uint, value.Int}
	for _, elem := range scalars {
		elem := elem
		t.Add(Entry{Symbol: "in", Arity: 2, Out: value.Bool, Arg1: elem, Arg2: value.List(elem),
			Binary: func(a, b value.Value) (value.Value, error) {
				for _, e := range b.List {
					if value.Equal(a, e) {
						return value.BoolValue(true), nil
					}
				}
				return value.BoolValue(false), nil
			},
		})
	}
}
