package value

import (
	"bytes"
	"fmt"
	"net"
	"net/netip"

	"github.com/cesnet/go-ipfix-filter/internal/triemap"
)

// FloatEpsilon is the tolerance used by float equality comparisons.
const FloatEpsilon = 1e-3

// Value is a tagged union over the primitive types the filter language
// understands, plus list-of-T and the optimised IP trie form. The zero
// Value has Type None.
type Value struct {
	Type Type

	I    int64
	U    uint64 // also backs Flags
	F    float64
	B    bool
	S    []byte
	IP   netip.Prefix
	MAC  [6]byte
	List []Value // element type is Type.Base() when Type.IsList()
	Trie *triemap.Trie
}

func NoneValue() Value             { return Value{Type: None} }
func IntValue(i int64) Value       { return Value{Type: Int, I: i} }
func UintValue(u uint64) Value     { return Value{Type: Uint, U: u} }
func FloatValue(f float64) Value   { return Value{Type: Float, F: f} }
func BoolValue(b bool) Value       { return Value{Type: Bool, B: b} }
func FlagsValue(u uint64) Value    { return Value{Type: Flags, U: u} }
func StrValue(s string) Value      { return Value{Type: Str, S: []byte(s)} }
func IPValue(p netip.Prefix) Value { return Value{Type: IP, IP: p} }

func MACValue(hw net.HardwareAddr) Value {
	var v Value
	v.Type = MAC
	copy(v.MAC[:], hw)
	return v
}

// ListValue builds a list value from the given elements, all of type elem.
func ListValue(elem Type, elems []Value) Value {
	return Value{Type: List(elem), List: elems}
}

// TrieValue wraps a constructed longest-prefix-match trie.
func TrieValue(t *triemap.Trie) Value {
	return Value{Type: Trie, Trie: t}
}

// Zero returns the default value for t, used when a host data callback
// reports the field absent.
func Zero(t Type) Value {
	if t.IsList() {
		return ListValue(t.Base(), nil)
	}
	switch t {
	case Int:
		return IntValue(0)
	case Uint:
		return UintValue(0)
	case Float:
		return FloatValue(0)
	case Bool:
		return BoolValue(false)
	case Flags:
		return FlagsValue(0)
	case Str:
		return StrValue("")
	case IP:
		return IPValue(netip.Prefix{})
	case MAC:
		return Value{Type: MAC}
	default:
		return Value{Type: t}
	}
}

// String renders a value for diagnostics.
func (v Value) String() string {
	if v.Type.IsList() {
		s := "[ "
		for i, e := range v.List {
			if i > 0 {
				s += ", "
			}
			s += e.String()
		}
		return s + " ]"
	}
	switch v.Type {
	case Int:
		return fmt.Sprintf("%d", v.I)
	case Uint:
		return fmt.Sprintf("%du", v.U)
	case Float:
		return fmt.Sprintf("%f", v.F)
	case Bool:
		if v.B {
			return "true"
		}
		return "false"
	case Flags:
		return fmt.Sprintf("%#x", v.U)
	case Str:
		return fmt.Sprintf("%q", v.S)
	case IP:
		return v.IP.String()
	case MAC:
		return net.HardwareAddr(v.MAC[:]).String()
	case Trie:
		return "<trie>"
	default:
		return "none"
	}
}

// Equal implements the deep-equality test used by list membership:
// prefix-aware IP comparison, exact MAC/string comparison, and epsilon
// float comparison.
func Equal(a, b Value) bool {
	if a.Type.Base() != b.Type.Base() {
		return false
	}
	if a.Type.IsList() != b.Type.IsList() {
		return false
	}
	if a.Type.IsList() {
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	}
	switch a.Type.Base() {
	case Int:
		return a.I == b.I
	case Uint, Flags:
		return a.U == b.U
	case Float:
		diff := a.F - b.F
		if diff < 0 {
			diff = -diff
		}
		return diff < FloatEpsilon
	case Bool:
		return a.B == b.B
	case Str:
		return bytes.Equal(a.S, b.S)
	case MAC:
		return a.MAC == b.MAC
	case IP:
		return IPEqual(a.IP, b.IP)
	default:
		return false
	}
}

// IPEqual implements prefix-aware IP comparison: two IP prefixes are equal
// iff their versions match and the first min(bitsA, bitsB) bits of their
// addresses are bitwise equal.
func IPEqual(a, b netip.Prefix) bool {
	if a.Addr().Is4() != b.Addr().Is4() {
		return false
	}
	n := a.Bits()
	if b.Bits() < n {
		n = b.Bits()
	}
	return commonPrefixBits(a.Addr(), b.Addr()) >= n
}

// IPContains reports whether the host address addr falls within prefix p
// (longest-prefix-match test for a single prefix, i.e. p's bits must all
// match addr's leading bits).
func IPContains(p netip.Prefix, addr netip.Addr) bool {
	if p.Addr().Is4() != addr.Is4() {
		return false
	}
	return commonPrefixBits(p.Addr(), addr) >= p.Bits()
}

func commonPrefixBits(a, b netip.Addr) int {
	var ab, bb []byte
	if a.Is4() {
		x := a.As4()
		ab = x[:]
	} else {
		x := a.As16()
		ab = x[:]
	}
	if b.Is4() {
		x := b.As4()
		bb = x[:]
	} else {
		x := b.As16()
		bb = x[:]
	}
	if len(ab) != len(bb) {
		return 0
	}
	common := 0
	for i := range ab {
		if ab[i] == bb[i] {
			common += 8
			continue
		}
		diff := ab[i] ^ bb[i]
		for bit := 7; bit >= 0; bit-- {
			if diff&(1<<bit) != 0 {
				break
			}
			common++
		}
		break
	}
	return common
}
