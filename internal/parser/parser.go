package parser

import (
	"github.com/cesnet/go-ipfix-filter/internal/ferr"
	"github.com/cesnet/go-ipfix-filter/internal/lexer"
)

// infixOps maps an infix operator symbol to its precedence (higher binds
// first; all are left-associative). The implicit empty-symbol operator
// ("port 80" meaning "port == 80") lives at precedence 1 alongside the
// comparison operators.
var infixOps = map[string]int{
	"*": 6, "/": 6, "%": 6,
	"+": 5, "-": 5,
	"<<": 4, ">>": 4,
	"&": 3, "|": 3, "^": 3,
	"in": 2, "contains": 2,
	"==": 1, "!=": 1, "<": 1, ">": 1, "<=": 1, ">=": 1, "": 1,
	"and": 0, "or": 0,
}

// prefixOps maps a prefix operator to the level at which it binds its
// single operand (the operand is parsed at prefixOps[op]+1, the
// conventional non-associative unary binding).
var prefixOps = map[string]int{
	"+": 7, "-": 7,
	"~": 3,
	"exists": 2,
	"not":    0,
}

// Parser is a Pratt precedence-climbing parser over a Scanner.
type Parser struct {
	sc *lexer.Scanner
}

// New returns a Parser over the given expression text.
func New(expr string) *Parser {
	return &Parser{sc: lexer.New(expr)}
}

// Parse parses the full expression and wraps it in a synthetic __root__
// node. The expression must consume the entire input.
func Parse(expr string) (*Node, *ferr.Error) {
	p := New(expr)
	expr0, err := p.parseInfix(0)
	if err != nil {
		return nil, err
	}
	tok, terr := p.sc.Peek()
	if terr != nil {
		return nil, terr
	}
	if tok.Kind != lexer.KindEnd {
		return nil, ferr.NewSyntacticError(tok.Span, "unexpected trailing token %s", tok)
	}
	return &Node{Symbol: SymRoot, Left: expr0, Type: expr0.Type, Span: expr0.Span}, nil
}

func (p *Parser) parseInfix(prec int) (*Node, *ferr.Error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		tok, terr := p.sc.Peek()
		if terr != nil {
			return nil, terr
		}
		sym, isOp, isImplicit, perr := p.infixSymbolAt(tok)
		if perr != nil {
			return nil, perr
		}
		if !isOp {
			break
		}
		opPrec, ok := infixOps[sym]
		if !ok || opPrec < prec {
			break
		}
		if !isImplicit {
			if _, terr := p.sc.Consume(); terr != nil {
				return nil, terr
			}
		}
		right, rerr := p.parseInfix(opPrec + 1)
		if rerr != nil {
			return nil, rerr
		}
		left = &Node{Symbol: sym, Left: left, Right: right, Span: ferr.Span{Begin: left.Span.Begin, End: right.Span.End}}
	}
	return left, nil
}

// infixSymbolAt decides whether tok continues the current infix expression:
// either an explicit operator token, or the implicit juxtaposition operator
// when tok is not an operator and not a closing delimiter or end-of-input.
func (p *Parser) infixSymbolAt(tok lexer.Token) (sym string, isOp bool, isImplicit bool, err *ferr.Error) {
	if tok.Kind == lexer.KindSymbol {
		if _, ok := infixOps[tok.Symbol]; ok {
			// "and"/"or"/"not"/"in"/"contains" are reserved words that can
			// also be consumed by parsePrefix (not, exists) or as list/name
			// primaries; infixOps only recognises the genuinely infix set.
			return tok.Symbol, true, false, nil
		}
		if tok.Symbol == ")" || tok.Symbol == "]" || tok.Symbol == "," {
			return "", false, false, nil
		}
		if _, ok := prefixOps[tok.Symbol]; ok {
			// A prefix-only operator cannot follow a complete operand, and
			// it is not an implicit-comparison operand either.
			return "", false, false, nil
		}
	}
	if tok.Kind == lexer.KindEnd {
		return "", false, false, nil
	}
	return "", true, true, nil
}

func (p *Parser) parsePrefix() (*Node, *ferr.Error) {
	tok, err := p.sc.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind == lexer.KindSymbol {
		if prec, ok := prefixOps[tok.Symbol]; ok {
			if _, err := p.sc.Consume(); err != nil {
				return nil, err
			}
			operand, operr := p.parseInfix(prec + 1)
			if operr != nil {
				return nil, operr
			}
			return &Node{Symbol: tok.Symbol, Left: operand, Span: ferr.Span{Begin: tok.Span.Begin, End: operand.Span.End}}, nil
		}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*Node, *ferr.Error) {
	tok, err := p.sc.Peek()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.Kind == lexer.KindSymbol && tok.Symbol == "(":
		if _, err := p.sc.Consume(); err != nil {
			return nil, err
		}
		inner, ierr := p.parseInfix(0)
		if ierr != nil {
			return nil, ierr
		}
		closeTok, cerr := p.sc.Consume()
		if cerr != nil {
			return nil, cerr
		}
		if !closeTok.IsSymbol(")") {
			return nil, ferr.NewSyntacticError(closeTok.Span, "expected ')'")
		}
		return inner, nil

	case tok.Kind == lexer.KindSymbol && tok.Symbol == "[":
		return p.parseList()

	case tok.Kind == lexer.KindSymbol && lexer.NamePrefixes[tok.Symbol]:
		if _, err := p.sc.Consume(); err != nil {
			return nil, err
		}
		nameTok, nerr := p.sc.Consume()
		if nerr != nil {
			return nil, nerr
		}
		if nameTok.Kind != lexer.KindName {
			return nil, ferr.NewSyntacticError(nameTok.Span, "expected a field name after %q", tok.Symbol)
		}
		return &Node{Symbol: SymName, Name: tok.Symbol + " " + nameTok.Name,
			Span: ferr.Span{Begin: tok.Span.Begin, End: nameTok.Span.End}}, nil

	case tok.Kind == lexer.KindName:
		if _, err := p.sc.Consume(); err != nil {
			return nil, err
		}
		return &Node{Symbol: SymName, Name: tok.Name, Span: tok.Span}, nil

	case tok.Kind == lexer.KindLiteral:
		if _, err := p.sc.Consume(); err != nil {
			return nil, err
		}
		return &Node{Symbol: SymLiteral, Lit: tok.Lit, Type: tok.Lit.Type, Span: tok.Span, Flags: FlagDestroyVal}, nil

	default:
		return nil, ferr.NewSyntacticError(tok.Span, "unexpected token %s", tok)
	}
}

func (p *Parser) parseList() (*Node, *ferr.Error) {
	openTok, err := p.sc.Consume()
	if err != nil {
		return nil, err
	}
	var head, tail *Node
	endSpan := openTok.Span.End
	for {
		tok, terr := p.sc.Peek()
		if terr != nil {
			return nil, terr
		}
		if tok.IsSymbol("]") {
			if _, cerr := p.sc.Consume(); cerr != nil {
				return nil, cerr
			}
			endSpan = tok.Span.End
			break
		}
		elem, eerr := p.parseInfix(0)
		if eerr != nil {
			return nil, eerr
		}
		item := &Node{Symbol: SymListItem, Left: elem, Span: elem.Span}
		if head == nil {
			head = item
		} else {
			tail.Right = item
		}
		tail = item

		next, nerr := p.sc.Peek()
		if nerr != nil {
			return nil, nerr
		}
		if next.IsSymbol(",") {
			if _, cerr := p.sc.Consume(); cerr != nil {
				return nil, cerr
			}
			continue
		}
		closeTok, cerr := p.sc.Consume()
		if cerr != nil {
			return nil, cerr
		}
		if !closeTok.IsSymbol("]") {
			return nil, ferr.NewSyntacticError(closeTok.Span, "expected ',' or ']' in list")
		}
		endSpan = closeTok.Span.End
		break
	}
	return &Node{Symbol: SymList, Left: head, Span: ferr.Span{Begin: openTok.Span.Begin, End: endSpan}}, nil
}
