// Package optable implements the operation table: a registry of
// (symbol, arg1-type, arg2-type) -> (out-type, function) entries plus
// casts and constructors, searched by the resolver and the eval-tree
// generator. The table is an ordered flat array; newer registrations are
// searched first, so a host can override any default by adding its own
// entry after construction.
package optable

import "github.com/cesnet/go-ipfix-filter/internal/value"

// Reserved operation-table symbols.
const (
	SymCast        = "__cast__"
	SymConstructor = "__constructor__"
	SymDestructor  = "__destructor__"

	// SymImplicit is the empty-symbol operator the parser emits for
	// juxtaposition ("port 80", "port [80, 443]"). NewDefault aliases it
	// to the == and in entries.
	SymImplicit = ""
)

// Flag is a bitset of per-entry behaviour flags.
type Flag uint8

// FlagDestroy marks that the result value owns heap storage that would
// need explicit destruction in a manually managed runtime. The garbage
// collector makes this vestigial here; the flag is kept so hosts porting
// operation tables from such runtimes can carry their entries over
// unchanged and so diagnostics can report which values are owned.
const FlagDestroy Flag = 1 << 0

// UnaryFn computes a unary operator or constructor/cast result.
type UnaryFn func(value.Value) (value.Value, error)

// BinaryFn computes a binary operator result.
type BinaryFn func(a, b value.Value) (value.Value, error)

// Entry is one operation-table row.
type Entry struct {
	Symbol string
	Arity  int // 1 or 2
	Out    value.Type
	Arg1   value.Type
	Arg2   value.Type // value.None for arity-1 entries
	Unary  UnaryFn
	Binary BinaryFn
	Flags  Flag
}

// Table is a flat, ordered, searchable array of entries. New entries are
// prepended by Add/Extend so that later registrations (user overrides) are
// found first.
type Table struct {
	entries []Entry
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// NewDefault returns the default table: arithmetic, comparisons, casts,
// list membership and the string/IP/MAC/flags extensions.
//
// Registration order is part of the table's semantics: because Add
// prepends, a later register call wins candidate enumeration. The order
// below puts the masked flags comparisons and the exact numeric
// comparisons ahead of the anything-to-bool fallbacks, so "port 80"
// resolves to an integer comparison rather than a truthiness test.
func NewDefault() *Table {
	t := New()
	registerCasts(t)
	registerBool(t)
	registerMAC(t)
	registerStr(t)
	registerFloat(t)
	registerUint(t)
	registerInt(t)
	registerFlags(t)
	registerIP(t)
	registerList(t)
	registerImplicit(t)
	return t
}

// Add prepends a single entry so it is found before any existing entry for
// the same symbol/arity.
func (t *Table) Add(e Entry) {
	t.entries = append([]Entry{e}, t.entries...)
}

// Extend prepends every entry of other, preserving other's own order, ahead
// of t's existing entries.
func (t *Table) Extend(other *Table) {
	merged := make([]Entry, 0, len(other.entries)+len(t.entries))
	merged = append(merged, other.entries...)
	merged = append(merged, t.entries...)
	t.entries = merged
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{entries: make([]Entry, len(t.entries))}
	copy(c.entries, t.entries)
	return c
}

// Find returns the first entry matching the query in priority order,
// treating value.Any as a wildcard in any position.
func (t *Table) Find(symbol string, out, arg1, arg2 value.Type) (*Entry, bool) {
	e, _, ok := t.FindFrom(0, symbol, out, arg1, arg2)
	return e, ok
}

// FindFrom resumes a Find iteration at start, returning the next matching
// entry and the position to resume a subsequent FindFrom at.
func (t *Table) FindFrom(start int, symbol string, out, arg1, arg2 value.Type) (*Entry, int, bool) {
	for i := start; i < len(t.entries); i++ {
		e := &t.entries[i]
		if e.Symbol != symbol {
			continue
		}
		if out != value.Any && e.Out != out {
			continue
		}
		if arg1 != value.Any && e.Arg1 != arg1 {
			continue
		}
		if arg2 != value.Any && e.Arg2 != arg2 {
			continue
		}
		return e, i + 1, true
	}
	return nil, len(t.entries), false
}

// FindExactBinary returns the first entry matching (symbol, arg1, arg2)
// exactly (out type is what the resolver is solving for). This is the
// resolver's fast path before candidate enumeration.
func (t *Table) FindExactBinary(symbol string, arg1, arg2 value.Type) (*Entry, bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Arity == 2 && e.Symbol == symbol && e.Arg1 == arg1 && e.Arg2 == arg2 {
			return e, true
		}
	}
	return nil, false
}

// CandidatesBinary returns every arity-2 entry for symbol, in priority
// order, for the resolver to scan for a cast-compatible match.
func (t *Table) CandidatesBinary(symbol string) []*Entry {
	var out []*Entry
	for i := range t.entries {
		e := &t.entries[i]
		if e.Arity == 2 && e.Symbol == symbol {
			out = append(out, e)
		}
	}
	return out
}

// FindExactUnary returns the first entry matching (symbol, arg1) exactly.
func (t *Table) FindExactUnary(symbol string, arg1 value.Type) (*Entry, bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Arity == 1 && e.Symbol == symbol && e.Arg1 == arg1 {
			return e, true
		}
	}
	return nil, false
}

// CandidatesUnary returns every arity-1 entry for symbol, in priority order.
func (t *Table) CandidatesUnary(symbol string) []*Entry {
	var out []*Entry
	for i := range t.entries {
		e := &t.entries[i]
		if e.Arity == 1 && e.Symbol == symbol {
			out = append(out, e)
		}
	}
	return out
}

// CanCast reports whether a value of type a can be used where type b is
// expected: either a == b, or a cast entry from a to b exists.
func (t *Table) CanCast(a, b value.Type) bool {
	if a == b {
		return true
	}
	_, ok := t.Cast(a, b)
	return ok
}

// Cast returns the cast entry from a to b, if any.
func (t *Table) Cast(a, b value.Type) (*Entry, bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Arity == 1 && e.Symbol == SymCast && e.Arg1 == a && e.Out == b {
			return e, true
		}
	}
	return nil, false
}

// Constructor returns a registered constructor for inputType (e.g. a
// List(IP) -> Trie constructor), if any.
func (t *Table) Constructor(inputType value.Type) (*Entry, bool) {
	return t.FindExactUnary(SymConstructor, inputType)
}

// CastTargetsOf returns, in priority order, every type a value of type a
// can be cast to (not including a itself).
func (t *Table) CastTargetsOf(a value.Type) []value.Type {
	var out []value.Type
	for i := range t.entries {
		e := &t.entries[i]
		if e.Arity == 1 && e.Symbol == SymCast && e.Arg1 == a {
			out = append(out, e.Out)
		}
	}
	return out
}

// CastsInRegistrationOrder returns every cast entry oldest-first (the
// reverse of lookup priority). The resolver's list-unification tie-break
// is defined in terms of registration order.
func (t *Table) CastsInRegistrationOrder() []*Entry {
	var out []*Entry
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := &t.entries[i]
		if e.Arity == 1 && e.Symbol == SymCast {
			out = append(out, e)
		}
	}
	return out
}
