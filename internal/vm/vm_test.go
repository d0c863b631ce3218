package vm

import (
	"net/netip"
	"testing"

	"github.com/cesnet/go-ipfix-filter/internal/callback"
	"github.com/cesnet/go-ipfix-filter/internal/evaltree"
	"github.com/cesnet/go-ipfix-filter/internal/optable"
	"github.com/cesnet/go-ipfix-filter/internal/parser"
	"github.com/cesnet/go-ipfix-filter/internal/resolver"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

// vmHost serves canned value streams per field and counts data-callback
// invocations, so short-circuit and iteration behaviour can be asserted.
type vmHost struct {
	types map[string]value.Type
	vals  map[string][]value.Value
	calls map[string]int
	pos   map[string]int
}

func newVMHost() *vmHost {
	ip := func(s string) value.Value { return value.IPValue(netip.MustParsePrefix(s)) }
	return &vmHost{
		types: map[string]value.Type{
			"a": value.Int, "b": value.Int, "port": value.Uint,
			"ip": value.IP, "missing": value.Int,
		},
		vals: map[string][]value.Value{
			"a":    {value.IntValue(5)},
			"b":    {value.IntValue(2)},
			"port": {value.UintValue(80)},
			"ip":   {ip("1.1.1.1/32"), ip("2.2.2.2/32"), ip("3.3.3.3/32")},
		},
		calls: map[string]int{},
		pos:   map[string]int{},
	}
}

func (h *vmHost) lookup(_ interface{}, name string, _ *string) (interface{}, value.Type, callback.LookupFlag, bool) {
	typ, ok := h.types[name]
	if !ok {
		return nil, value.None, callback.FlagNone, false
	}
	return name, typ, callback.FlagNone, true
}

func (h *vmHost) data(_ interface{}, reset bool, id interface{}, _ interface{}, out *value.Value) (callback.Outcome, error) {
	name := id.(string)
	h.calls[name]++
	vals := h.vals[name]
	i := 0
	if !reset {
		i = h.pos[name] + 1
	}
	h.pos[name] = i
	if i >= len(vals) {
		*out = value.Zero(h.types[name])
		return callback.NotFound, nil
	}
	*out = vals[i]
	if i == len(vals)-1 {
		return callback.OK, nil
	}
	return callback.OKMore, nil
}

func run(t *testing.T, expr string, h *vmHost) bool {
	t.Helper()
	root, perr := parser.Parse(expr)
	if perr != nil {
		t.Fatalf("parse %q: %v", expr, perr)
	}
	if rerr := resolver.Resolve(root, optable.NewDefault(), h.lookup, nil, nil); rerr != nil {
		t.Fatalf("resolve %q: %v", expr, rerr)
	}
	tree, gerr := evaltree.Generate(root, optable.NewDefault())
	if gerr != nil {
		t.Fatalf("generate %q: %v", expr, gerr)
	}
	ev := New(h.data, nil)
	ok, err := ev.Evaluate(tree, nil)
	if err != nil {
		t.Fatalf("evaluate %q: %v", expr, err)
	}
	return ok
}

func TestAnyQuantifierCompleteness(t *testing.T) {
	h := newVMHost()
	if !run(t, "ip == 2.2.2.2", h) {
		t.Error("a matching value in the middle of the stream should match")
	}
	if got := h.calls["ip"]; got != 2 {
		t.Errorf("matched on the second value but made %d data calls", got)
	}

	h = newVMHost()
	if run(t, "ip == 9.9.9.9", h) {
		t.Error("no value matches")
	}
	if got := h.calls["ip"]; got != 3 {
		t.Errorf("exhausting the stream should make 3 data calls, made %d", got)
	}

	h = newVMHost()
	if !run(t, "ip == 1.1.1.1", h) {
		t.Error("the first value should match")
	}
	if got := h.calls["ip"]; got != 1 {
		t.Errorf("matched on the first value but made %d data calls", got)
	}
}

func TestShortCircuitAnd(t *testing.T) {
	h := newVMHost()
	if run(t, "a == 1 and b == 2", h) {
		t.Error("a is 5, the conjunction is false")
	}
	if h.calls["b"] != 0 {
		t.Errorf("b was fetched %d times despite the false left operand", h.calls["b"])
	}

	h = newVMHost()
	if !run(t, "a == 5 and b == 2", h) {
		t.Error("both operands hold")
	}
	if h.calls["b"] != 1 {
		t.Errorf("b fetched %d times, want 1", h.calls["b"])
	}
}

func TestShortCircuitOr(t *testing.T) {
	h := newVMHost()
	if !run(t, "a == 5 or b == 9", h) {
		t.Error("the left operand holds")
	}
	if h.calls["b"] != 0 {
		t.Errorf("b was fetched %d times despite the true left operand", h.calls["b"])
	}
}

func TestAbsentFieldCollapsesQuantifier(t *testing.T) {
	h := newVMHost()
	if run(t, "missing == 5", h) {
		t.Error("an absent field never matches")
	}
	h = newVMHost()
	if !run(t, "not (missing == 5)", h) {
		t.Error("negating the collapsed subtree yields true")
	}
	h = newVMHost()
	if run(t, "missing == 5 and a == 5", h) {
		t.Error("the conjunction collapses with its left operand")
	}
	if h.calls["a"] != 0 {
		t.Errorf("a fetched %d times after the left operand collapsed", h.calls["a"])
	}
}

func TestExists(t *testing.T) {
	h := newVMHost()
	if !run(t, "exists ip", h) {
		t.Error("ip has values")
	}
	if run(t, "exists missing", h) {
		t.Error("missing has no values")
	}
}

func TestImplicitThroughCastChain(t *testing.T) {
	// The unsigned field is cast to int between the data node and the
	// comparison, so evaluation must flow through the cast.
	h := newVMHost()
	if !run(t, "port 80", h) {
		t.Error("port is 80")
	}
	h = newVMHost()
	if run(t, "port 81", h) {
		t.Error("port is not 81")
	}
}

func TestConstantExpressions(t *testing.T) {
	h := newVMHost()
	if !run(t, "3 > 2", h) {
		t.Error("3 > 2")
	}
	if run(t, "2 > 3", h) {
		t.Error("2 > 3 is false")
	}
	if len(h.calls) != 0 {
		t.Errorf("constant expressions must not touch the host, got %v", h.calls)
	}
}

func TestMultiValueUnderConjunction(t *testing.T) {
	h := newVMHost()
	if !run(t, "ip 3.3.3.3 and port 80", h) {
		t.Error("both conjuncts hold for some value combination")
	}
	h = newVMHost()
	if !run(t, "not (ip == 9.9.9.9)", h) {
		t.Error("no ip value is 9.9.9.9, so the negation holds")
	}
	h = newVMHost()
	if run(t, "not (ip == 2.2.2.2)", h) {
		t.Error("some ip value is 2.2.2.2, so the negation fails")
	}
}

func TestEvaluationOrderDeterministic(t *testing.T) {
	h := newVMHost()
	run(t, "ip == 2.2.2.2 or port == 80", h)
	first := map[string]int{}
	for k, v := range h.calls {
		first[k] = v
	}
	h2 := newVMHost()
	run(t, "ip == 2.2.2.2 or port == 80", h2)
	for k, v := range h2.calls {
		if first[k] != v {
			t.Errorf("call counts differ between identical runs: %v vs %v", first, h2.calls)
		}
	}
}
