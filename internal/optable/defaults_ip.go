package optable

import (
	"github.com/cesnet/go-ipfix-filter/internal/triemap"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

func newTrieFromList(list value.Value) *triemap.Trie {
	tr := triemap.New()
	for _, elem := range list.List {
		tr.Insert(elem.IP)
	}
	return tr
}

// registerIP registers prefix-aware IP equality and the trie-backed "in"
// membership test.
func registerIP(t *Table) {
	t.Add(Entry{Symbol: "==", Arity: 2, Out: value.Bool, Arg1: value.IP, Arg2: value.IP,
		Binary: func(a, b value.Value) (value.Value, error) { return value.BoolValue(value.IPEqual(a.IP, b.IP)), nil },
	})
	t.Add(Entry{Symbol: "!=", Arity: 2, Out: value.Bool, Arg1: value.IP, Arg2: value.IP,
		Binary: func(a, b value.Value) (value.Value, error) { return value.BoolValue(!value.IPEqual(a.IP, b.IP)), nil },
	})

	// List(IP) literals are converted to a Trie by the eval-tree generator,
	// so "in" over IP dispatches against Trie, not List(IP), at eval time.
	t.Add(Entry{Symbol: "in", Arity: 2, Out: value.Bool, Arg1: value.IP, Arg2: value.Trie,
		Binary: func(a, b value.Value) (value.Value, error) {
			return value.BoolValue(b.Trie.Contains(a.IP.Addr())), nil
		},
	})

	t.Add(Entry{Symbol: SymConstructor, Arity: 1, Out: value.Trie, Arg1: value.List(value.IP),
		Unary: func(a value.Value) (value.Value, error) {
			tr := newTrieFromList(a)
			return value.TrieValue(tr), nil
		},
		Flags: FlagDestroy,
	})
}
