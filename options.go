package ipfixfilter

import (
	"github.com/cesnet/go-ipfix-filter/internal/callback"
	"github.com/cesnet/go-ipfix-filter/internal/optable"
)

// Re-exported callback types; hosts implement these three functions to
// bind the filter language to their record format.
type (
	// LookupFunc maps an identifier name to an opaque id, a data type and
	// a flag word.
	LookupFunc = callback.LookupFunc
	// ConstFunc populates the value of a compile-time constant id.
	ConstFunc = callback.ConstFunc
	// DataFunc populates a field value for an id against a record, with
	// reset/advance semantics for multi-valued fields.
	DataFunc = callback.DataFunc
	// Outcome is the tri-state result of a DataFunc call.
	Outcome = callback.Outcome
	// LookupFlag is the flag word returned by LookupFunc.
	LookupFlag = callback.LookupFlag
)

// Re-exported callback constants.
const (
	OK        = callback.OK
	OKMore    = callback.OKMore
	NotFound  = callback.NotFound
	FlagNone  = callback.FlagNone
	FlagConst = callback.FlagConst
)

// Options bundles the host callbacks, the operation table and an opaque
// host context. A compiled filter stores its own clone, so the host may
// mutate or discard the original after Compile returns.
type Options struct {
	Lookup  LookupFunc
	Const   ConstFunc
	Data    DataFunc
	Table   *optable.Table
	UserCtx interface{}
}

// DefaultOptions returns Options carrying the default operation table
// (arithmetic, comparisons, casts, list membership, string containment,
// prefix-aware IP matching, masked flags comparison) and no callbacks.
func DefaultOptions() *Options {
	return &Options{Table: optable.NewDefault()}
}

// Clone returns an independent copy: the operation table is deep-copied,
// callbacks and UserCtx are shared by reference.
func (o *Options) Clone() *Options {
	c := *o
	if o.Table != nil {
		c.Table = o.Table.Clone()
	}
	return &c
}
