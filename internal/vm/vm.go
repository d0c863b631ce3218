// Package vm implements the evaluator: a recursive post-order pass over
// the eval tree with short-circuiting boolean connectives and re-evaluation
// of multi-valued identifiers.
//
// Each boolean connective (and, or, not, any) evaluates its operand as a
// quantified subtree: the operand is evaluated once, and while it holds
// false and a multi-valued data node inside it has values left, the data
// node is advanced and the chain of operations between it and the operand
// root is re-invoked bottom-up. A data callback reporting the field absent
// collapses the enclosing quantified subtree to false immediately; absent
// fields are never iterated.
package vm

import (
	"errors"
	"fmt"

	"github.com/cesnet/go-ipfix-filter/internal/callback"
	"github.com/cesnet/go-ipfix-filter/internal/evaltree"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

// errFieldAbsent unwinds evaluation from a data node whose field is absent
// to the nearest enclosing quantifier, which yields false.
var errFieldAbsent = errors.New("field absent")

// Evaluator runs one eval tree against one record at a time. It is not
// safe for concurrent use: value slots in the tree and the iteration
// cursor below are mutated on every pass.
type Evaluator struct {
	data callback.DataFunc
	ctx  interface{}

	record interface{}
	// cursor is the data node whose host-side iterator has values left;
	// the innermost quantified evaluation owns and clears it.
	cursor *evaltree.Node
}

// New returns an Evaluator invoking the given host data callback.
func New(data callback.DataFunc, ctx interface{}) *Evaluator {
	return &Evaluator{data: data, ctx: ctx}
}

// Evaluate runs the tree against record and returns the root's boolean.
func (e *Evaluator) Evaluate(root *evaltree.Node, record interface{}) (bool, error) {
	e.record = record
	defer func() {
		e.record = nil
		e.cursor = nil
	}()
	return e.evalQuantified(root)
}

// evalQuantified evaluates n, then, while n holds false and a multi-valued
// data node inside n has more values, advances that node and re-invokes the
// operation chain from it up to n. On return it restores the cursor found
// on entry, so an outer quantifier never re-drives iteration a nested one
// has consumed.
func (e *Evaluator) evalQuantified(n *evaltree.Node) (bool, error) {
	saved := e.cursor
	e.cursor = nil
	defer func() { e.cursor = saved }()
	if err := e.eval(n); err != nil {
		if errors.Is(err, errFieldAbsent) {
			return false, nil
		}
		return false, err
	}
	for !truth(n.Val) && e.cursor != nil {
		if err := e.reevalOnce(n); err != nil {
			return false, err
		}
	}
	return truth(n.Val), nil
}

// reevalOnce advances the cursor's data node to its next value and
// re-invokes every operation on the chain from the cursor up to and
// including n.
func (e *Evaluator) reevalOnce(n *evaltree.Node) error {
	cur := e.cursor
	outcome, err := e.data(e.ctx, false, cur.LookupID, e.record, &cur.Val)
	if err != nil {
		return err
	}
	switch outcome {
	case callback.NotFound:
		// The stream ended without a value; stop iterating and leave the
		// subtree false.
		e.cursor = nil
		n.Val = value.BoolValue(false)
		return nil
	case callback.OK:
		e.cursor = nil
	case callback.OKMore:
	default:
		return fmt.Errorf("data callback returned invalid outcome %d", outcome)
	}
	if cur == n {
		return nil
	}
	for p := cur.Parent; p != nil; p = p.Parent {
		if err := e.reinvoke(p); err != nil {
			return err
		}
		if p == n {
			break
		}
	}
	return nil
}

// reinvoke recomputes one node from its children's current values. Only
// call nodes can appear between a data node and its quantifier: the
// boolean connectives are themselves quantifier boundaries and clear the
// cursor before returning.
func (e *Evaluator) reinvoke(n *evaltree.Node) error {
	var err error
	switch n.Op {
	case evaltree.OpCast, evaltree.OpUnary:
		n.Val, err = n.Unary(n.Left.Val)
	case evaltree.OpBinary:
		n.Val, err = n.Binary(n.Left.Val, n.Right.Val)
	}
	return err
}

func (e *Evaluator) eval(n *evaltree.Node) error {
	switch n.Op {
	case evaltree.OpValue:
		return nil

	case evaltree.OpCast, evaltree.OpUnary:
		if err := e.eval(n.Left); err != nil {
			return err
		}
		var err error
		n.Val, err = n.Unary(n.Left.Val)
		return err

	case evaltree.OpBinary:
		if err := e.eval(n.Left); err != nil {
			return err
		}
		if err := e.eval(n.Right); err != nil {
			return err
		}
		var err error
		n.Val, err = n.Binary(n.Left.Val, n.Right.Val)
		return err

	case evaltree.OpData:
		if e.data == nil {
			return errors.New("no data callback configured")
		}
		outcome, err := e.data(e.ctx, true, n.LookupID, e.record, &n.Val)
		if err != nil {
			return err
		}
		switch outcome {
		case callback.OKMore:
			e.cursor = n
		case callback.OK:
			e.cursor = nil
		case callback.NotFound:
			n.Val = value.Zero(n.DataType)
			return errFieldAbsent
		default:
			return fmt.Errorf("data callback returned invalid outcome %d", outcome)
		}
		return nil

	case evaltree.OpExists:
		if e.data == nil {
			return errors.New("no data callback configured")
		}
		var scratch value.Value
		outcome, err := e.data(e.ctx, true, n.LookupID, e.record, &scratch)
		if err != nil {
			return err
		}
		n.Val = value.BoolValue(outcome == callback.OK || outcome == callback.OKMore)
		return nil

	case evaltree.OpAnd:
		left, err := e.evalQuantified(n.Left)
		if err != nil {
			return err
		}
		if !left {
			n.Val = value.BoolValue(false)
			return nil
		}
		right, err := e.evalQuantified(n.Right)
		if err != nil {
			return err
		}
		n.Val = value.BoolValue(right)
		return nil

	case evaltree.OpOr:
		left, err := e.evalQuantified(n.Left)
		if err != nil {
			return err
		}
		if left {
			n.Val = value.BoolValue(true)
			return nil
		}
		right, err := e.evalQuantified(n.Right)
		if err != nil {
			return err
		}
		n.Val = value.BoolValue(right)
		return nil

	case evaltree.OpNot:
		inner, err := e.evalQuantified(n.Left)
		if err != nil {
			return err
		}
		n.Val = value.BoolValue(!inner)
		return nil

	case evaltree.OpAny:
		inner, err := e.evalQuantified(n.Left)
		if err != nil {
			return err
		}
		n.Val = value.BoolValue(inner)
		return nil

	default:
		return fmt.Errorf("invalid eval node opcode %d", n.Op)
	}
}

func truth(v value.Value) bool {
	return v.Type == value.Bool && v.B
}
