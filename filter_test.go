package ipfixfilter_test

import (
	"net/netip"
	"strings"
	"testing"

	ipfixfilter "github.com/cesnet/go-ipfix-filter"
	"github.com/cesnet/go-ipfix-filter/internal/demohost"
	"github.com/cesnet/go-ipfix-filter/internal/ferr"
	"github.com/cesnet/go-ipfix-filter/internal/optable"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

func newHostOptions() (*demohost.Host, *ipfixfilter.Options) {
	h := demohost.New()
	opts := ipfixfilter.DefaultOptions()
	opts.Lookup = h.Lookup
	opts.Const = h.Const
	opts.Data = h.Data
	return h, opts
}

func webRecord() *demohost.Record {
	return &demohost.Record{
		SrcIP:    netip.MustParseAddr("192.168.1.42"),
		DstIP:    netip.MustParseAddr("93.184.216.34"),
		SrcPort:  51234,
		DstPort:  80,
		Protocol: 6,
		TCPFlags: 0x12,
		Bytes:    2048,
		Packets:  6,
		AppName:  "http-proxy",
	}
}

func dnsRecord() *demohost.Record {
	return &demohost.Record{
		SrcIP:    netip.MustParseAddr("10.0.0.1"),
		DstIP:    netip.MustParseAddr("10.0.0.254"),
		SrcPort:  53155,
		DstPort:  53,
		Protocol: 17,
		Bytes:    192,
		Packets:  2,
		AppName:  "dns",
	}
}

func v6Record() *demohost.Record {
	return &demohost.Record{
		SrcIP:    netip.MustParseAddr("2001:db8:abcd::1"),
		DstIP:    netip.MustParseAddr("2001:db8::53"),
		SrcPort:  40001,
		DstPort:  443,
		Protocol: 6,
		TCPFlags: 0x18,
		Bytes:    1 << 20,
		AppName:  "https",
	}
}

func TestEndToEnd(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		record *demohost.Record
		want   bool
	}{
		{"src prefix and dst port", "src ip 192.168.1.0/24 and dst port 80", webRecord(), true},
		{"src prefix mismatch", "src ip 192.168.1.0/24 and dst port 80", dnsRecord(), false},
		{"protocol list hit", "protocol in [6, 17]", webRecord(), true},
		{"protocol list hit udp", "protocol in [6, 17]", dnsRecord(), true},
		{"protocol list miss", "protocol in [6, 17]", &demohost.Record{Protocol: 1}, false},
		{"unit suffix", "bytes > 1k", webRecord(), true},
		{"unit suffix miss", "bytes > 1k", dnsRecord(), false},
		{"v6 prefix any direction", "ip 2001:db8::/32", v6Record(), true},
		{"v6 prefix miss", "ip 2001:db9::/32", v6Record(), false},
		{"string contains", `name contains "http"`, webRecord(), true},
		{"string contains miss", `name contains "http"`, dnsRecord(), false},
		{"trie membership", "ip in [192.168.0.0/16, 2001:db8::/32]", webRecord(), true},
		{"trie membership v6", "ip in [192.168.0.0/16, 2001:db8::/32]", v6Record(), true},
		{"trie membership miss", "ip in [192.168.0.0/16, 2001:db8::/32]", dnsRecord(), false},
		{"protocol constant", "protocol == TCP", webRecord(), true},
		{"protocol constant miss", "protocol == TCP", dnsRecord(), false},
		{"masked flags", "tcpflags == SYN", webRecord(), true},
		{"masked flags miss", "tcpflags == SYN", v6Record(), false},
		{"negation", "not (dst port 80)", dnsRecord(), true},
		{"disjunction", "dst port 80 or dst port 53", dnsRecord(), true},
		{"exists", "exists name", dnsRecord(), true},
		{"multi valued port", "port == 51234", webRecord(), true},
		{"arithmetic", "bytes / packets > 300", webRecord(), true},
		{"mac equality", "src mac 00:00:00:00:00:00", dnsRecord(), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, opts := newHostOptions()
			f, err := ipfixfilter.Compile(tc.expr, opts)
			if err != nil {
				t.Fatalf("compile %q: %v", tc.expr, err)
			}
			if got := f.Evaluate(tc.record); got != tc.want {
				t.Errorf("%q on %+v = %v, want %v", tc.expr, tc.record, got, tc.want)
			}
		})
	}
}

func TestConstSubtreeIsRecordIndependent(t *testing.T) {
	_, opts := newHostOptions()
	f, err := ipfixfilter.Compile("TCP == 6", opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range []*demohost.Record{webRecord(), dnsRecord(), {}} {
		if !f.Evaluate(rec) {
			t.Errorf("constant expression flipped on record %+v", rec)
		}
	}
}

func TestLiteralRoundTrip(t *testing.T) {
	// Each literal form below matches a field holding the same value.
	tests := []struct {
		expr   string
		record *demohost.Record
	}{
		{"bytes == 2048", webRecord()},
		{"bytes == 0x800", webRecord()},
		{"bytes == 2k", webRecord()},
		{`name == "dns"`, dnsRecord()},
		{"src ip == 10.0.0.1", dnsRecord()},
		{"src ip == 2001:db8:abcd::1", v6Record()},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			_, opts := newHostOptions()
			f, err := ipfixfilter.Compile(tc.expr, opts)
			if err != nil {
				t.Fatalf("compile %q: %v", tc.expr, err)
			}
			if !f.Evaluate(tc.record) {
				t.Errorf("%q should match its own value", tc.expr)
			}
		})
	}
}

func TestRepeatedEvaluation(t *testing.T) {
	_, opts := newHostOptions()
	f, err := ipfixfilter.Compile("dst port 80 or dst port 53", opts)
	if err != nil {
		t.Fatal(err)
	}
	records := []*demohost.Record{webRecord(), dnsRecord(), v6Record()}
	want := []bool{true, true, false}
	for round := 0; round < 3; round++ {
		for i, rec := range records {
			if got := f.Evaluate(rec); got != want[i] {
				t.Fatalf("round %d record %d: got %v, want %v", round, i, got, want[i])
			}
		}
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
		kind ferr.Kind
	}{
		{"dangling operator", "port 80 and", ferr.Syntactic},
		{"unknown field", "nosuchfield == 1", ferr.Semantic},
		{"bad literal", `name == "unterminated`, ferr.Lexical},
		{"type clash", `name > 5`, ferr.Semantic},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, opts := newHostOptions()
			f, err := ipfixfilter.Compile(tc.expr, opts)
			if err == nil {
				t.Fatalf("compile %q: expected an error", tc.expr)
			}
			latched := f.Err()
			if latched == nil {
				t.Fatal("error not latched on the filter")
			}
			if latched.Kind != tc.kind {
				t.Errorf("got kind %s, want %s", latched.Kind, tc.kind)
			}
			if f.Evaluate(webRecord()) {
				t.Error("a failed filter must never match")
			}
		})
	}
}

func TestSyntaxErrorSpanPointsAtEnd(t *testing.T) {
	const expr = "port 80 and"
	_, opts := newHostOptions()
	f, _ := ipfixfilter.Compile(expr, opts)
	e := f.Err()
	if e == nil {
		t.Fatal("no latched error")
	}
	if e.Span.Begin != len(expr) {
		t.Errorf("span begins at %d, want end-of-input %d", e.Span.Begin, len(expr))
	}
}

func TestOptionsCloneIsolation(t *testing.T) {
	_, opts := newHostOptions()
	f, err := ipfixfilter.Compile("dst port 80", opts)
	if err != nil {
		t.Fatal(err)
	}
	// Mutating the original options after compile must not affect the
	// compiled filter.
	opts.Lookup = nil
	opts.Data = nil
	opts.Table = nil
	if !f.Evaluate(webRecord()) {
		t.Error("filter depends on the caller's options after compile")
	}
}

func TestNilOptions(t *testing.T) {
	f, err := ipfixfilter.Compile("3 > 2", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Evaluate(nil) {
		t.Error("constant expression should match any record")
	}
}

func TestHostTableOverride(t *testing.T) {
	// A host entry prepended to the table overrides the default string
	// equality with a case-insensitive one.
	_, opts := newHostOptions()
	opts.Table.Add(caseInsensitiveEq())
	f, err := ipfixfilter.Compile(`name == "DNS"`, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Evaluate(dnsRecord()) {
		t.Error("override entry was not used")
	}
}

func caseInsensitiveEq() optable.Entry {
	return optable.Entry{Symbol: "==", Arity: 2, Out: value.Bool, Arg1: value.Str, Arg2: value.Str,
		Binary: func(a, b value.Value) (value.Value, error) {
			return value.BoolValue(strings.EqualFold(string(a.S), string(b.S))), nil
		},
	}
}
