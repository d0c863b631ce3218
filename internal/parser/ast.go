// Package parser implements the Pratt precedence-climbing parser: it
// consumes the lexer's token stream and produces an abstract syntax tree
// of symbolic nodes for the semantic resolver.
//
// The AST is a single uniform node shape dispatched on a symbol string
// rather than a family of per-operator types: the operator set is data
// (the operation table, which hosts can extend), so behaviour keyed on a
// symbol generalises where a closed set of Go node types would not.
package parser

import (
	"github.com/cesnet/go-ipfix-filter/internal/ferr"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

// Reserved node symbols. Everything else appearing in Node.Symbol is an
// operator looked up in the operation table.
const (
	SymRoot     = "__root__"
	SymLiteral  = "__literal__"
	SymName     = "__name__"
	SymList     = "__list__"
	SymListItem = "__listitem__"
	SymCast     = "__cast__"
)

// Flag is the subtree-property bitset carried by every node.
type Flag uint8

const (
	// FlagConst marks a subtree that evaluates to the same value on every
	// call to Evaluate, independent of the record.
	FlagConst Flag = 1 << iota
	// FlagMultiEval marks a subtree that may need re-evaluation under an
	// any-quantifier because it reaches a multi-valued identifier.
	FlagMultiEval
	// FlagDestroyVal marks an AST literal node as still owning its heap
	// payload; the eval-tree generator clears it when it moves the value
	// out, keeping each payload single-owner.
	FlagDestroyVal
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Node is the uniform AST node shape: a symbol, up to two typed children
// (Left/Right for binary operators; Left alone for unary operators and the
// __list__ head), an optional owned identifier name, a literal/cast value,
// a resolved type, a source span and subtree flags.
//
// __list__ represents its element chain by pointing Left at the first
// __listitem__ node; each __listitem__'s own Left is its element
// expression and its Right is the next __listitem__ in the chain (nil at
// the tail).
type Node struct {
	Symbol string
	Left   *Node
	Right  *Node

	Name string      // owned identifier text, for SymName
	Lit  value.Value // literal value, for SymLiteral and resolved constants

	Type  value.Type
	Span  ferr.Span
	Flags Flag

	// Populated by the semantic resolver; zero until then.
	LookupID    interface{}
	LookupFlags int
}

func (n *Node) IsConst() bool     { return n.Flags.Has(FlagConst) }
func (n *Node) IsMultiEval() bool { return n.Flags.Has(FlagMultiEval) }
func (n *Node) OwnsValue() bool   { return n.Flags.Has(FlagDestroyVal) }

// ListItems returns the __listitem__ chain under a __list__ node, in order.
func (n *Node) ListItems() []*Node {
	var out []*Node
	for it := n.Left; it != nil; it = it.Right {
		out = append(out, it)
	}
	return out
}
