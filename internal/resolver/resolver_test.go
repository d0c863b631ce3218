package resolver

import (
	"testing"

	"github.com/cesnet/go-ipfix-filter/internal/callback"
	"github.com/cesnet/go-ipfix-filter/internal/ferr"
	"github.com/cesnet/go-ipfix-filter/internal/optable"
	"github.com/cesnet/go-ipfix-filter/internal/parser"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

// stubHost exposes a handful of fields and one constant and counts lookup
// invocations so the per-compile cache can be asserted on.
type stubHost struct {
	lookups int
}

func (h *stubHost) lookup(_ interface{}, name string, _ *string) (interface{}, value.Type, callback.LookupFlag, bool) {
	h.lookups++
	switch name {
	case "port", "dst port":
		return name, value.Uint, callback.FlagNone, true
	case "ip", "src ip":
		return name, value.IP, callback.FlagNone, true
	case "name":
		return name, value.Str, callback.FlagNone, true
	case "tcpflags":
		return name, value.Flags, callback.FlagNone, true
	case "TCP":
		return name, value.Uint, callback.FlagConst, true
	default:
		return nil, value.None, callback.FlagNone, false
	}
}

func (h *stubHost) constVal(_ interface{}, id interface{}) (value.Value, error) {
	return value.UintValue(6), nil
}

func resolveExpr(t *testing.T, input string) (*parser.Node, *ferr.Error, *stubHost) {
	t.Helper()
	root, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	h := &stubHost{}
	rerr := Resolve(root, optable.NewDefault(), h.lookup, h.constVal, nil)
	return root, rerr, h
}

func mustResolve(t *testing.T, input string) *parser.Node {
	t.Helper()
	root, err, _ := resolveExpr(t, input)
	if err != nil {
		t.Fatalf("resolve %q: %v", input, err)
	}
	return root
}

func TestComparisonInsertsCast(t *testing.T) {
	root := mustResolve(t, "port == 80")
	cmp := root.Left
	if cmp.Type != value.Bool {
		t.Errorf("comparison type: got %s, want bool", cmp.Type)
	}
	// The unsigned field is narrowed to the literal's int type.
	if cmp.Left.Symbol != parser.SymCast || cmp.Left.Type != value.Int {
		t.Errorf("left operand: got %q type %s, want cast to int", cmp.Left.Symbol, cmp.Left.Type)
	}
	if cmp.Right.Symbol != parser.SymLiteral {
		t.Errorf("right operand: got %q", cmp.Right.Symbol)
	}
	if !root.IsMultiEval() {
		t.Error("expression reaching a field should be marked multi-eval")
	}
}

func TestImplicitResolvesLikeEquality(t *testing.T) {
	implicit := mustResolve(t, "port 80")
	explicit := mustResolve(t, "port == 80")
	if implicit.Left.Type != explicit.Left.Type {
		t.Errorf("implicit type %s differs from explicit %s", implicit.Left.Type, explicit.Left.Type)
	}
	if implicit.Left.Left.Type != explicit.Left.Left.Type {
		t.Errorf("implicit operand type %s differs from explicit %s",
			implicit.Left.Left.Type, explicit.Left.Left.Type)
	}
}

func TestImplicitListMembership(t *testing.T) {
	root := mustResolve(t, "port [80, 443]")
	n := root.Left
	if n.Type != value.Bool {
		t.Errorf("got type %s, want bool", n.Type)
	}
	if n.Right.Type != value.List(value.Int) {
		t.Errorf("list type: got %s, want list of int", n.Right.Type)
	}
}

func TestMixedNumericComparison(t *testing.T) {
	// A float literal pulls the unsigned field up to float.
	root := mustResolve(t, "port > 1k")
	cmp := root.Left
	if cmp.Left.Symbol != parser.SymCast || cmp.Left.Type != value.Float {
		t.Errorf("left operand: got %q type %s, want cast to float", cmp.Left.Symbol, cmp.Left.Type)
	}
}

func TestFlagsComparisonStaysMasked(t *testing.T) {
	root := mustResolve(t, "tcpflags == 0x2")
	cmp := root.Left
	if cmp.Left.Symbol == parser.SymCast {
		t.Error("flags operand must not be cast away from its masked semantics")
	}
	if cmp.Right.Type != value.Flags {
		t.Errorf("mask literal: got type %s, want flags", cmp.Right.Type)
	}
}

func TestConstantFolding(t *testing.T) {
	root := mustResolve(t, "TCP == 6")
	if !root.Left.IsConst() {
		t.Error("constant comparison should be marked const")
	}
	if root.IsMultiEval() {
		t.Error("constant expression must not be multi-eval")
	}
}

func TestListUnification(t *testing.T) {
	root := mustResolve(t, "port in [80, 443u]")
	list := root.Left.Right
	if list.Type != value.List(value.Int) {
		t.Fatalf("got %s, want list of int", list.Type)
	}
	items := list.ListItems()
	if items[0].Left.Symbol == parser.SymCast {
		t.Error("int item should not be cast")
	}
	if items[1].Left.Symbol != parser.SymCast {
		t.Error("unsigned item should be cast to the unified int type")
	}
}

func TestLookupCache(t *testing.T) {
	_, err, h := resolveExpr(t, "port == 80 or port == 443")
	if err != nil {
		t.Fatal(err)
	}
	if h.lookups != 1 {
		t.Errorf("got %d lookups for one distinct name, want 1", h.lookups)
	}
}

func TestExists(t *testing.T) {
	root := mustResolve(t, "exists port")
	if root.Left.Type != value.Bool || !root.Left.IsMultiEval() {
		t.Errorf("exists: got %+v", root.Left)
	}
}

func TestSemanticErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown identifier", "nosuchfield == 1"},
		{"exists on constant", "exists TCP"},
		{"exists on literal", "exists 5"},
		{"no operation", `name > 5`},
		{"list unification failure", `port in [80, "x"]`},
		{"non-const list element", "port in [port]"},
		{"uncastable condition", `[1, 2] and port 80`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err, _ := resolveExpr(t, tc.input)
			if err == nil {
				t.Fatalf("resolve %q: expected an error", tc.input)
			}
			if err.Kind != ferr.Semantic {
				t.Errorf("resolve %q: got kind %s, want %s", tc.input, err.Kind, ferr.Semantic)
			}
		})
	}
}
