package resolver

import (
	"github.com/cesnet/go-ipfix-filter/internal/ferr"
	"github.com/cesnet/go-ipfix-filter/internal/parser"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

// resolveList unifies a list literal's element type. The chosen element
// type must be reachable (identity or a single cast) from every item's
// type. Types already present in the list beat cast-only candidates, first
// occurrence first; if no present type works, the tie among cast targets
// falls to the earliest-registered cast entry, which keeps the choice
// deterministic under host table extensions. Items whose type differs from
// the winner get a cast node inserted above their expression.
func (r *Resolver) resolveList(n *parser.Node) *ferr.Error {
	items := n.ListItems()
	n.Flags |= parser.FlagConst
	if len(items) == 0 {
		n.Type = value.List(value.None)
		return nil
	}

	var present []value.Type
	seen := map[value.Type]bool{}
	for _, it := range items {
		if !seen[it.Type] {
			seen[it.Type] = true
			present = append(present, it.Type)
		}
	}

	viable := func(t value.Type) bool {
		for _, it := range items {
			if !r.ops.CanCast(it.Type, t) {
				return false
			}
		}
		return true
	}

	var elem value.Type
	chosen := false
	for _, t := range present {
		if viable(t) {
			elem, chosen = t, true
			break
		}
	}
	if !chosen {
		for _, e := range r.ops.CastsInRegistrationOrder() {
			// The anything-to-bool casts coerce conditions; letting them
			// unify a list would make [80, "x"] a list of bool. Bool is a
			// valid element type only when the list already contains one.
			if e.Out == value.Bool && !seen[value.Bool] {
				continue
			}
			if seen[e.Arg1] && !e.Out.IsList() && viable(e.Out) {
				elem, chosen = e.Out, true
				break
			}
		}
	}
	if !chosen {
		return ferr.NewSemanticError(n.Span, "cannot unify list element types")
	}

	for _, it := range items {
		if it.Left.Type != elem {
			if err := r.castTo(&it.Left, elem); err != nil {
				return err
			}
		}
		it.Type = elem
	}
	n.Type = value.List(elem)
	return nil
}
