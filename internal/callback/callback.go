// Package callback declares the three host-implemented callback contracts
// (identifier lookup, constant resolution, per-record data access) as a
// small set of Go function types and a tagged Outcome enum. It is
// intentionally dependency-free (only internal/value) so both the
// resolver/eval-tree/evaluator packages and the root API can import it
// without creating a cycle.
package callback

import "github.com/cesnet/go-ipfix-filter/internal/value"

// LookupFlag is the flag word returned by Lookup. The only currently
// defined bit says "this identifier's value is fixed at compile time";
// its absence means "value changes per record".
type LookupFlag int

const (
	FlagNone  LookupFlag = 0
	FlagConst LookupFlag = 1 << 0
)

// LookupFunc maps a source-text identifier to an opaque id, its data type,
// and a flag word. qualifier is non-nil only when the lookup happens in a
// constant-inside-a-mapping context (enum-literal lookups).
type LookupFunc func(ctx interface{}, name string, qualifier *string) (id interface{}, typ value.Type, flags LookupFlag, ok bool)

// ConstFunc populates a value for an id resolved by Lookup with FlagConst
// set. Called once at compile time per such id.
type ConstFunc func(ctx interface{}, id interface{}) (value.Value, error)

// Outcome is the tri-state result of a DataFunc call, modelled as a typed
// enum rather than a raw integer so there is no invalid fourth case to
// assert against.
type Outcome int

const (
	// OK: value populated, no more values available from this field in
	// this quantifier pass.
	OK Outcome = iota
	// OKMore: value populated, and at least one more value is available;
	// this DATA_CALL node becomes the re-evaluation cursor.
	OKMore
	// NotFound: the field is absent; out should be written with its zero
	// value. The enclosing quantifier aborts to false immediately.
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "OK"
	case OKMore:
		return "OK_MORE"
	case NotFound:
		return "NOT_FOUND"
	default:
		return "?"
	}
}

// DataFunc populates out for id against record. reset=true means "first
// call within the current quantifier pass: rewind any multi-value iterator
// for this id"; reset=false means "advance to the next value".
type DataFunc func(ctx interface{}, reset bool, id interface{}, record interface{}, out *value.Value) (Outcome, error)
