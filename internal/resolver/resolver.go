// Package resolver implements the semantic resolver: a post-order walk
// that resolves identifier names via the host lookup callback, infers and
// unifies types through the operation table, inserts implicit casts, and
// propagates the const / multi-eval subtree flags the eval-tree generator
// and evaluator depend on.
package resolver

import (
	"github.com/cesnet/go-ipfix-filter/internal/callback"
	"github.com/cesnet/go-ipfix-filter/internal/ferr"
	"github.com/cesnet/go-ipfix-filter/internal/optable"
	"github.com/cesnet/go-ipfix-filter/internal/parser"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

// Resolver carries the per-compile identifier-lookup cache: each distinct
// name triggers at most one host lookup per compile.
type Resolver struct {
	ops     *optable.Table
	lookup  callback.LookupFunc
	constFn callback.ConstFunc
	ctx     interface{}
	cache   map[string]lookupEntry
}

type lookupEntry struct {
	id    interface{}
	typ   value.Type
	flags callback.LookupFlag
	cv    value.Value
	found bool
}

// Resolve annotates root in place and returns the first error encountered,
// or nil on success.
func Resolve(root *parser.Node, ops *optable.Table, lookup callback.LookupFunc, constFn callback.ConstFunc, ctx interface{}) *ferr.Error {
	r := &Resolver{ops: ops, lookup: lookup, constFn: constFn, ctx: ctx, cache: map[string]lookupEntry{}}
	return r.resolve(root)
}

func (r *Resolver) resolve(n *parser.Node) *ferr.Error {
	switch n.Symbol {
	case parser.SymListItem:
		if err := r.resolve(n.Left); err != nil {
			return err
		}
		if !n.Left.IsConst() {
			return ferr.NewSemanticError(n.Left.Span, "list elements must be constant expressions")
		}
		n.Type = n.Left.Type
		n.Flags |= parser.FlagConst
		return nil

	case parser.SymList:
		for it := n.Left; it != nil; it = it.Right {
			if err := r.resolve(it); err != nil {
				return err
			}
		}
		return r.resolveList(n)

	case parser.SymLiteral:
		n.Flags |= parser.FlagConst
		return nil

	case parser.SymName:
		return r.resolveName(n)

	case "and", "or":
		if err := r.resolve(n.Left); err != nil {
			return err
		}
		if err := r.resolve(n.Right); err != nil {
			return err
		}
		if err := r.castTo(&n.Left, value.Bool); err != nil {
			return err
		}
		if err := r.castTo(&n.Right, value.Bool); err != nil {
			return err
		}
		n.Type = value.Bool
		if n.Left.IsConst() && n.Right.IsConst() {
			n.Flags |= parser.FlagConst
		}
		if n.Left.IsMultiEval() || n.Right.IsMultiEval() {
			n.Flags |= parser.FlagMultiEval
		}
		return nil

	case "not", parser.SymRoot:
		if err := r.resolve(n.Left); err != nil {
			return err
		}
		if err := r.castTo(&n.Left, value.Bool); err != nil {
			return err
		}
		n.Type = value.Bool
		n.Flags |= n.Left.Flags & (parser.FlagConst | parser.FlagMultiEval)
		return nil

	case "exists":
		if err := r.resolve(n.Left); err != nil {
			return err
		}
		if n.Left.Symbol != parser.SymName || n.Left.IsConst() {
			return ferr.NewSemanticError(n.Span, "exists requires a non-constant field name")
		}
		n.Type = value.Bool
		n.Flags |= parser.FlagMultiEval
		return nil

	default:
		return r.resolveOp(n)
	}
}

func (r *Resolver) resolveName(n *parser.Node) *ferr.Error {
	if e, ok := r.cache[n.Name]; ok {
		return r.applyLookup(n, e)
	}
	if r.lookup == nil {
		return ferr.NewSemanticError(n.Span, "no identifier lookup callback configured, cannot resolve %q", n.Name)
	}
	id, typ, flags, ok := r.lookup(r.ctx, n.Name, nil)
	if !ok {
		return ferr.NewSemanticError(n.Span, "unknown identifier %q", n.Name)
	}
	e := lookupEntry{id: id, typ: typ, flags: flags, found: true}
	if flags&callback.FlagConst != 0 {
		if r.constFn == nil {
			return ferr.NewSemanticError(n.Span, "no constant callback configured, cannot resolve %q", n.Name)
		}
		cv, err := r.constFn(r.ctx, id)
		if err != nil {
			return ferr.NewSemanticError(n.Span, "failed to resolve constant %q: %v", n.Name, err)
		}
		e.cv = cv
	}
	r.cache[n.Name] = e
	return r.applyLookup(n, e)
}

func (r *Resolver) applyLookup(n *parser.Node, e lookupEntry) *ferr.Error {
	n.LookupID = e.id
	n.LookupFlags = int(e.flags)
	n.Type = e.typ
	if e.flags&callback.FlagConst != 0 {
		n.Lit = e.cv
		n.Flags |= parser.FlagConst | parser.FlagDestroyVal
	} else {
		n.Flags |= parser.FlagMultiEval
	}
	return nil
}

// castTo rewrites *np with an inserted __cast__ node if its type isn't
// already want, erroring if no such cast is registered.
func (r *Resolver) castTo(np **parser.Node, want value.Type) *ferr.Error {
	n := *np
	if n.Type == want {
		return nil
	}
	if !r.ops.CanCast(n.Type, want) {
		return ferr.NewSemanticError(n.Span, "cannot use %s where %s is required", n.Type, want)
	}
	*np = &parser.Node{Symbol: parser.SymCast, Left: n, Type: want, Span: n.Span, Flags: n.Flags & (parser.FlagConst | parser.FlagMultiEval)}
	return nil
}

// resolveOp resolves every operator without dedicated handling above:
// unary +/-/~, and every binary infix operator, dispatched generically
// through the operation table.
func (r *Resolver) resolveOp(n *parser.Node) *ferr.Error {
	if err := r.resolve(n.Left); err != nil {
		return err
	}
	if n.Right == nil {
		return r.resolveUnaryOp(n)
	}
	if err := r.resolve(n.Right); err != nil {
		return err
	}
	return r.resolveBinaryOp(n)
}

func (r *Resolver) resolveUnaryOp(n *parser.Node) *ferr.Error {
	if e, ok := r.ops.FindExactUnary(n.Symbol, n.Left.Type); ok {
		n.Type = e.Out
		n.Flags |= n.Left.Flags & (parser.FlagConst | parser.FlagMultiEval)
		return nil
	}
	for _, e := range r.ops.CandidatesUnary(n.Symbol) {
		if r.ops.CanCast(n.Left.Type, e.Arg1) {
			if err := r.castTo(&n.Left, e.Arg1); err != nil {
				return err
			}
			n.Type = e.Out
			n.Flags |= n.Left.Flags & (parser.FlagConst | parser.FlagMultiEval)
			return nil
		}
	}
	return ferr.NewSemanticError(n.Span, "no such operation %s(%s)", n.Symbol, n.Left.Type)
}

func (r *Resolver) resolveBinaryOp(n *parser.Node) *ferr.Error {
	leftType, rightType := n.Left.Type, n.Right.Type
	if e, ok := r.ops.FindExactBinary(n.Symbol, leftType, rightType); ok {
		n.Type = e.Out
		n.Flags |= (n.Left.Flags | n.Right.Flags) & parser.FlagMultiEval
		if n.Left.IsConst() && n.Right.IsConst() {
			n.Flags |= parser.FlagConst
		}
		return nil
	}
	for _, e := range r.ops.CandidatesBinary(n.Symbol) {
		if binaryCompatible(r.ops, leftType, e.Arg1) && binaryCompatible(r.ops, rightType, e.Arg2) {
			if err := r.castBinaryOperand(&n.Left, leftType, e.Arg1); err != nil {
				return err
			}
			if err := r.castBinaryOperand(&n.Right, rightType, e.Arg2); err != nil {
				return err
			}
			n.Type = e.Out
			n.Flags |= (n.Left.Flags | n.Right.Flags) & parser.FlagMultiEval
			if n.Left.IsConst() && n.Right.IsConst() {
				n.Flags |= parser.FlagConst
			}
			return nil
		}
	}
	return ferr.NewSemanticError(n.Span, "no such operation %s(%s, %s)", n.Symbol, leftType, rightType)
}

// binaryCompatible reports whether an operand of type actual can serve an
// operation-table slot typed want: either they match, a cast exists, or
// actual is a List(IP) literal being matched against a Trie slot (the
// eval-tree generator converts List(IP) literals to a Trie at generation
// time, so no resolver-level cast node is needed).
func binaryCompatible(ops *optable.Table, actual, want value.Type) bool {
	if actual == value.List(value.IP) && want == value.Trie {
		return true
	}
	if actual == value.List(value.None) && (want.IsList() || want == value.Trie) {
		return true
	}
	return ops.CanCast(actual, want)
}

func (r *Resolver) castBinaryOperand(np **parser.Node, actual, want value.Type) *ferr.Error {
	if actual == value.List(value.IP) && want == value.Trie {
		return nil
	}
	if actual == value.List(value.None) && (want.IsList() || want == value.Trie) {
		// An empty list literal adopts the element type the operation
		// expects; membership over it is simply always false.
		if want == value.Trie {
			(*np).Type = value.List(value.IP)
		} else {
			(*np).Type = want
		}
		return nil
	}
	return r.castTo(np, want)
}
