package ipfixfilter

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/cesnet/go-ipfix-filter/internal/evaltree"
	"github.com/cesnet/go-ipfix-filter/internal/ferr"
	"github.com/cesnet/go-ipfix-filter/internal/optable"
	"github.com/cesnet/go-ipfix-filter/internal/parser"
	"github.com/cesnet/go-ipfix-filter/internal/resolver"
	"github.com/cesnet/go-ipfix-filter/internal/vm"
)

// Error is the uniform compile error: a kind (lexical, syntactic,
// semantic), a message and a byte-offset span into the expression text.
type Error = ferr.Error

// Span is a [Begin, End) byte-offset range into the expression text.
type Span = ferr.Span

// Filter is a compiled filter expression. It owns its options clone, the
// annotated syntax tree, the lowered eval tree and the first error any
// compile phase raised. A Filter is not safe for concurrent use; see the
// package documentation.
type Filter struct {
	expr string
	opts *Options
	ast  *parser.Node
	tree *evaltree.Node
	eval *vm.Evaluator
	err  *ferr.Error
}

// Compile scans, parses, resolves and lowers expr into an evaluable
// filter. On failure the returned Filter is still non-nil with the error
// latched, so callers that defer error handling can interrogate it through
// Err; the same error is also returned, wrapped with a stack trace.
func Compile(expr string, opts *Options) (*Filter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	f := &Filter{expr: expr, opts: opts.Clone()}
	if f.opts.Table == nil {
		f.opts.Table = optable.NewDefault()
	}

	ast, perr := parser.Parse(expr)
	if perr != nil {
		return f.latch(perr)
	}
	f.ast = ast

	if rerr := resolver.Resolve(ast, f.opts.Table, f.opts.Lookup, f.opts.Const, f.opts.UserCtx); rerr != nil {
		return f.latch(rerr)
	}

	tree, gerr := evaltree.Generate(ast, f.opts.Table)
	if gerr != nil {
		return f.latch(gerr)
	}
	f.tree = tree
	f.eval = vm.New(f.opts.Data, f.opts.UserCtx)
	return f, nil
}

// latch stores the first error; every later phase and every Evaluate call
// short-circuits against it.
func (f *Filter) latch(err *ferr.Error) (*Filter, error) {
	f.err = err
	return f, pkgerrors.WithStack(err)
}

// Evaluate reports whether record matches the filter. A filter whose
// compile failed never matches. Evaluation raises no typed errors: a
// runtime operation failure (e.g. division by zero fed by a record value)
// also reports no match.
func (f *Filter) Evaluate(record interface{}) bool {
	if f.err != nil || f.tree == nil {
		return false
	}
	ok, err := f.eval.Evaluate(f.tree, record)
	if err != nil {
		return false
	}
	return ok
}

// Err returns the latched compile error, or nil if compilation succeeded.
func (f *Filter) Err() *Error {
	return f.err
}

// Expression returns the original expression text, useful alongside
// Err's span for caret-printing diagnostics.
func (f *Filter) Expression() string {
	return f.expr
}
