package optable

import "github.com/cesnet/go-ipfix-filter/internal/value"

// registerFlags registers bitmask comparison semantics for FLAGS fields:
// == means masked-nonzero and != means masked-zero, so "tcpflags SYN"
// asks "is the SYN bit set" rather than "are the flags exactly SYN".
// Under arithmetic FLAGS collapses to UINT via the casts in
// defaults_cast.go.
func registerFlags(t *Table) {
	maskedNonzero := func(a, b value.Value) (value.Value, error) {
		return value.BoolValue(a.U&b.U != 0), nil
	}
	maskedZero := func(a, b value.Value) (value.Value, error) {
		return value.BoolValue(a.U&b.U == 0), nil
	}
	t.Add(Entry{Symbol: "==", Arity: 2, Out: value.Bool, Arg1: value.Flags, Arg2: value.Flags, Binary: maskedNonzero})
	t.Add(Entry{Symbol: "!=", Arity: 2, Out: value.Bool, Arg1: value.Flags, Arg2: value.Flags, Binary: maskedZero})
}
