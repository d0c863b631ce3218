// Package lexer implements the filter expression scanner: a longest-match,
// one-token-lookahead tokeniser for numbers with unit suffixes, IPv4/IPv6
// prefixes, MAC addresses, escaped strings, datetimes, identifiers and a
// fixed symbol set. Every recogniser is tried at each position and the
// longest successful lexeme wins, so "80" is a number, "80:1b:...:ff" a
// MAC, and "2018-01-01" a datetime without any recogniser needing to see
// past its own grammar.
package lexer

import (
	"fmt"

	"github.com/cesnet/go-ipfix-filter/internal/ferr"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

// Kind discriminates the four token shapes: a typed literal, an operator or
// reserved-word symbol, an identifier, and end-of-input.
type Kind int

const (
	KindEnd Kind = iota
	KindSymbol
	KindName
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindEnd:
		return "END"
	case KindSymbol:
		return "SYMBOL"
	case KindName:
		return "NAME"
	case KindLiteral:
		return "LITERAL"
	default:
		return "?"
	}
}

// Token is one scanned lexeme.
type Token struct {
	Kind   Kind
	Symbol string      // for KindSymbol: the canonical operator/keyword text
	Name   string      // for KindName: the identifier text
	Lit    value.Value // for KindLiteral: the typed literal value
	Span   ferr.Span
}

func (t Token) String() string {
	switch t.Kind {
	case KindSymbol:
		return fmt.Sprintf("SYMBOL(%s)", t.Symbol)
	case KindName:
		return fmt.Sprintf("NAME(%s)", t.Name)
	case KindLiteral:
		return fmt.Sprintf("LITERAL(%s, %s)", t.Lit.Type, t.Lit)
	default:
		return "END"
	}
}

// IsSymbol reports whether t is the symbol token with the given text.
func (t Token) IsSymbol(s string) bool {
	return t.Kind == KindSymbol && t.Symbol == s
}

// symbols is the fixed non-word symbol set, two-character operators listed
// before their one-character prefixes. The scanner independently prefers
// the longest lexeme, so the ordering only documents intent.
var symbols = []string{
	"<<", ">>", "==", "!=", ">=", "<=",
	"~", "*", "/", "+", "-", "|", "&", "^", "%",
	"[", "]", "(", ")", ",", "<", ">",
}

// wordSymbols is the set of reserved word-shaped symbols: operators and
// name-prefixes spelled like identifiers. An identifier-shaped lexeme of
// the same length loses the tie to these.
var wordSymbols = map[string]bool{
	"not": true, "and": true, "or": true, "in": true, "contains": true,
	"exists": true, "out": true, "ingress": true, "egress": true,
	"src": true, "dst": true,
}

// NamePrefixes are the symbols that fuse with a following NAME token into a
// single qualified identifier, so "src ip" names one field.
var NamePrefixes = map[string]bool{
	"in": true, "out": true, "ingress": true, "egress": true, "src": true, "dst": true,
}
