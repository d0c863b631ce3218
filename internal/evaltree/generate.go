package evaltree

import (
	"github.com/cesnet/go-ipfix-filter/internal/ferr"
	"github.com/cesnet/go-ipfix-filter/internal/optable"
	"github.com/cesnet/go-ipfix-filter/internal/parser"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

// Generate lowers a resolved AST into an eval tree. The synthetic root
// node is elided; when the whole expression reaches a multi-valued
// identifier the result is wrapped in an ANY node so the top-level match
// succeeds if any combination of field values satisfies the predicate.
func Generate(root *parser.Node, ops *optable.Table) (*Node, *ferr.Error) {
	g := &generator{ops: ops}
	n, err := g.gen(root.Left)
	if err != nil {
		return nil, err
	}
	if root.IsMultiEval() {
		any := &Node{Op: OpAny, Left: n}
		n.Parent = any
		return any, nil
	}
	return n, nil
}

type generator struct {
	ops *optable.Table
}

func (g *generator) gen(n *parser.Node) (*Node, *ferr.Error) {
	switch n.Symbol {
	case parser.SymLiteral:
		v, err := g.construct(n.Span, n.Lit)
		if err != nil {
			return nil, err
		}
		n.Flags &^= parser.FlagDestroyVal
		return &Node{Op: OpValue, Val: v}, nil

	case parser.SymName:
		if n.IsConst() {
			v, err := g.construct(n.Span, n.Lit)
			if err != nil {
				return nil, err
			}
			n.Flags &^= parser.FlagDestroyVal
			return &Node{Op: OpValue, Val: v}, nil
		}
		return &Node{Op: OpData, LookupID: n.LookupID, DataType: n.Type}, nil

	case parser.SymList:
		v, err := g.materialiseList(n)
		if err != nil {
			return nil, err
		}
		v, err = g.construct(n.Span, v)
		if err != nil {
			return nil, err
		}
		return &Node{Op: OpValue, Val: v}, nil

	case parser.SymCast:
		child, err := g.gen(n.Left)
		if err != nil {
			return nil, err
		}
		entry, ok := g.ops.Cast(n.Left.Type, n.Type)
		if !ok {
			return nil, ferr.NewSemanticError(n.Span, "no cast from %s to %s", n.Left.Type, n.Type)
		}
		node := &Node{Op: OpCast, Unary: entry.Unary, Left: child}
		child.Parent = node
		return node, nil

	case "exists":
		return &Node{Op: OpExists, LookupID: n.Left.LookupID}, nil

	case "and", "or":
		left, err := g.gen(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := g.gen(n.Right)
		if err != nil {
			return nil, err
		}
		op := OpAnd
		if n.Symbol == "or" {
			op = OpOr
		}
		node := &Node{Op: op, Left: left, Right: right}
		left.Parent = node
		right.Parent = node
		return node, nil

	case "not":
		child, err := g.gen(n.Left)
		if err != nil {
			return nil, err
		}
		node := &Node{Op: OpNot, Left: child}
		child.Parent = node
		return node, nil

	default:
		if n.Right == nil {
			return g.genUnaryCall(n)
		}
		return g.genBinaryCall(n)
	}
}

func (g *generator) genUnaryCall(n *parser.Node) (*Node, *ferr.Error) {
	child, err := g.gen(n.Left)
	if err != nil {
		return nil, err
	}
	entry, ok := g.ops.FindExactUnary(n.Symbol, operandType(n.Left, child))
	if !ok {
		return nil, ferr.NewSemanticError(n.Span, "no such operation %s(%s)", n.Symbol, n.Left.Type)
	}
	node := &Node{Op: OpUnary, Unary: entry.Unary, Left: child}
	child.Parent = node
	return node, nil
}

func (g *generator) genBinaryCall(n *parser.Node) (*Node, *ferr.Error) {
	left, err := g.gen(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := g.gen(n.Right)
	if err != nil {
		return nil, err
	}
	lt := operandType(n.Left, left)
	rt := operandType(n.Right, right)
	entry, ok := g.ops.FindExactBinary(n.Symbol, lt, rt)
	if !ok {
		return nil, ferr.NewSemanticError(n.Span, "no such operation %s(%s, %s)", n.Symbol, lt, rt)
	}
	node := &Node{Op: OpBinary, Binary: entry.Binary, Left: left, Right: right}
	left.Parent = node
	right.Parent = node
	return node, nil
}

// operandType is the type an operand presents to the operation lookup.
// Constant slots may have been rewritten by a constructor (a List(IP)
// literal is a Trie by now), so their value tag wins over the AST type.
func operandType(ast *parser.Node, en *Node) value.Type {
	if en.Op == OpValue {
		return en.Val.Type
	}
	return ast.Type
}

// construct applies a registered constructor to a constant value, if one
// exists for its type, replacing the value with the constructed form.
func (g *generator) construct(span ferr.Span, v value.Value) (value.Value, *ferr.Error) {
	entry, ok := g.ops.Constructor(v.Type)
	if !ok {
		return v, nil
	}
	out, err := entry.Unary(v)
	if err != nil {
		return value.Value{}, ferr.NewSemanticError(span, "constructor for %s failed: %v", v.Type, err)
	}
	return out, nil
}

// materialiseList evaluates each list item's constant subtree and collects
// the results into a single contiguous list value.
func (g *generator) materialiseList(n *parser.Node) (value.Value, *ferr.Error) {
	items := n.ListItems()
	elems := make([]value.Value, 0, len(items))
	for _, it := range items {
		v, err := g.constEval(it.Left)
		if err != nil {
			return value.Value{}, err
		}
		elems = append(elems, v)
	}
	return value.ListValue(n.Type.Base(), elems), nil
}

// constEval computes the value of a constant subtree at generation time.
// The resolver guarantees list items are constant, so every case below is
// closed over literals, resolved constants, casts and table operations.
func (g *generator) constEval(n *parser.Node) (value.Value, *ferr.Error) {
	switch n.Symbol {
	case parser.SymLiteral:
		return n.Lit, nil

	case parser.SymName:
		if !n.IsConst() {
			return value.Value{}, ferr.NewSemanticError(n.Span, "identifier %q is not constant", n.Name)
		}
		return n.Lit, nil

	case parser.SymCast:
		v, err := g.constEval(n.Left)
		if err != nil {
			return value.Value{}, err
		}
		entry, ok := g.ops.Cast(n.Left.Type, n.Type)
		if !ok {
			return value.Value{}, ferr.NewSemanticError(n.Span, "no cast from %s to %s", n.Left.Type, n.Type)
		}
		out, cerr := entry.Unary(v)
		if cerr != nil {
			return value.Value{}, ferr.NewSemanticError(n.Span, "constant expression failed: %v", cerr)
		}
		return out, nil

	case parser.SymList:
		return g.materialiseList(n)

	default:
		if n.Right == nil {
			v, err := g.constEval(n.Left)
			if err != nil {
				return value.Value{}, err
			}
			entry, ok := g.ops.FindExactUnary(n.Symbol, n.Left.Type)
			if !ok {
				return value.Value{}, ferr.NewSemanticError(n.Span, "no such operation %s(%s)", n.Symbol, n.Left.Type)
			}
			out, oerr := entry.Unary(v)
			if oerr != nil {
				return value.Value{}, ferr.NewSemanticError(n.Span, "constant expression failed: %v", oerr)
			}
			return out, nil
		}
		a, err := g.constEval(n.Left)
		if err != nil {
			return value.Value{}, err
		}
		b, err := g.constEval(n.Right)
		if err != nil {
			return value.Value{}, err
		}
		entry, ok := g.ops.FindExactBinary(n.Symbol, n.Left.Type, n.Right.Type)
		if !ok {
			return value.Value{}, ferr.NewSemanticError(n.Span, "no such operation %s(%s, %s)", n.Symbol, n.Left.Type, n.Right.Type)
		}
		out, oerr := entry.Binary(a, b)
		if oerr != nil {
			return value.Value{}, ferr.NewSemanticError(n.Span, "constant expression failed: %v", oerr)
		}
		return out, nil
	}
}
