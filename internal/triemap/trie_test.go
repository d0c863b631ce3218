package triemap

import (
	"net/netip"
	"testing"
)

func TestContains(t *testing.T) {
	tr := New()
	tr.Insert(netip.MustParsePrefix("10.0.0.0/8"))
	tr.Insert(netip.MustParsePrefix("192.168.1.0/24"))
	tr.Insert(netip.MustParsePrefix("2001:db8::/32"))

	tests := []struct {
		addr string
		want bool
	}{
		{"10.1.2.3", true},
		{"10.255.255.255", true},
		{"11.0.0.0", false},
		{"192.168.1.42", true},
		{"192.168.2.1", false},
		{"2001:db8:abcd::1", true},
		{"2001:db9::1", false},
	}
	for _, tc := range tests {
		if got := tr.Contains(netip.MustParseAddr(tc.addr)); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func TestEmptyTrie(t *testing.T) {
	tr := New()
	if tr.Contains(netip.MustParseAddr("10.0.0.1")) {
		t.Error("an empty trie contains nothing")
	}
}

func TestOverlappingPrefixes(t *testing.T) {
	tr := New()
	tr.Insert(netip.MustParsePrefix("10.0.0.0/8"))
	tr.Insert(netip.MustParsePrefix("10.1.0.0/16"))
	if !tr.Contains(netip.MustParseAddr("10.1.2.3")) {
		t.Error("address under both prefixes should match")
	}
	if !tr.Contains(netip.MustParseAddr("10.2.0.1")) {
		t.Error("address under only the shorter prefix should match")
	}
}

func TestZeroLengthPrefix(t *testing.T) {
	tr := New()
	tr.Insert(netip.MustParsePrefix("0.0.0.0/0"))
	if !tr.Contains(netip.MustParseAddr("203.0.113.7")) {
		t.Error("the default route covers every v4 address")
	}
	if tr.Contains(netip.MustParseAddr("2001:db8::1")) {
		t.Error("a v4 default route does not cover v6 addresses")
	}
}
