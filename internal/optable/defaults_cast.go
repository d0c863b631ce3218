package optable

import "github.com/cesnet/go-ipfix-filter/internal/value"

// registerCasts registers the numeric promotion casts and the cast-to-bool
// family behind implicit mixed-type arithmetic and the truthiness tests of
// and/or/not. Flags widens to uint so bitmask fields take part in
// arithmetic, and int narrows to flags so integer literals can serve as
// masks; the unsigned-to-flags direction is deliberately absent, so plain
// counters never drift into masked comparison semantics.
func registerCasts(t *Table) {
	numeric := []struct {
		from, to value.Type
		fn       UnaryFn
	}{
		{value.Int, value.Float, func(a value.Value) (value.Value, error) { return value.FloatValue(float64(a.I)), nil }},
		{value.Uint, value.Float, func(a value.Value) (value.Value, error) { return value.FloatValue(float64(a.U)), nil }},
		{value.Int, value.Uint, func(a value.Value) (value.Value, error) { return value.UintValue(uint64(a.I)), nil }},
		{value.Uint, value.Int, func(a value.Value) (value.Value, error) { return value.IntValue(int64(a.U)), nil }},
		{value.Flags, value.Uint, func(a value.Value) (value.Value, error) { return value.UintValue(a.U), nil }},
		{value.Int, value.Flags, func(a value.Value) (value.Value, error) { return value.FlagsValue(uint64(a.I)), nil }},
	}
	for _, n := range numeric {
		n := n
		t.Add(Entry{Symbol: SymCast, Arity: 1, Out: n.to, Arg1: n.from, Unary: n.fn})
	}

	toBool := []struct {
		from value.Type
		fn   UnaryFn
	}{
		{value.Int, func(a value.Value) (value.Value, error) { return value.BoolValue(a.I != 0), nil }},
		{value.Uint, func(a value.Value) (value.Value, error) { return value.BoolValue(a.U != 0), nil }},
		{value.Flags, func(a value.Value) (value.Value, error) { return value.BoolValue(a.U != 0), nil }},
		{value.Float, func(a value.Value) (value.Value, error) { return value.BoolValue(a.F != 0), nil }},
		{value.Str, func(a value.Value) (value.Value, error) { return value.BoolValue(len(a.S) != 0), nil }},
		{value.IP, func(a value.Value) (value.Value, error) { return value.BoolValue(a.IP.IsValid()), nil }},
		{value.MAC, func(a value.Value) (value.Value, error) { return value.BoolValue(a.MAC != [6]byte{}), nil }},
	}
	for _, c := range toBool {
		c := c
		t.Add(Entry{Symbol: SymCast, Arity: 1, Out: value.Bool, Arg1: c.from, Unary: c.fn})
	}
}
