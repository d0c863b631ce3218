package lexer

import (
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cesnet/go-ipfix-filter/internal/ferr"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

// Scanner is a one-token-lookahead byte cursor over a UTF-8 expression
// buffer. Tokens are produced lazily: Peek scans (and caches) the next
// token without consuming it; Consume hands back the cached token and
// invalidates the cache so the following Peek/Consume rescans.
type Scanner struct {
	src []byte
	pos int

	cached    bool
	cachedTok Token
	cachedErr *ferr.Error

	haveLast  bool
	lastEnd   int
	lastAlnum bool
}

// New returns a Scanner over expr.
func New(expr string) *Scanner {
	return &Scanner{src: []byte(expr)}
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() (Token, *ferr.Error) {
	if !s.cached {
		s.cachedTok, s.cachedErr = s.scan()
		s.cached = true
	}
	return s.cachedTok, s.cachedErr
}

// Consume returns the next token and advances past it.
func (s *Scanner) Consume() (Token, *ferr.Error) {
	tok, err := s.Peek()
	s.cached = false
	if err == nil {
		s.pos = tok.Span.End
		s.haveLast = true
		s.lastEnd = tok.Span.End
		s.lastAlnum = lexemeHasAlnum(s.srcSpan(tok.Span))
	}
	return tok, err
}

func (s *Scanner) srcSpan(sp ferr.Span) []byte { return s.src[sp.Begin:sp.End] }

func lexemeHasAlnum(b []byte) bool {
	for _, c := range b {
		if isAlnum(c) {
			return true
		}
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }
func isHex(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

type candidate struct {
	order int
	tok   Token
	err   *ferr.Error
}

// scan runs every recogniser at the current position and picks the longest
// match, ties broken by recogniser declaration order. If nothing matched
// successfully the longest failed match's error is surfaced instead. The
// winner is then checked against the word-boundary adjacency rule: two
// directly adjacent tokens may not both contain alphanumerics, so "port80"
// stays one identifier while "port 80" is two tokens.
func (s *Scanner) scan() (Token, *ferr.Error) {
	pos := s.skipSpace(s.pos)
	hadGap := pos != s.pos || !s.haveLast

	if pos >= len(s.src) {
		return Token{Kind: KindEnd, Span: ferr.Span{Begin: pos, End: pos}}, nil
	}

	recogs := []func(int) (bool, Token, *ferr.Error){
		s.recogSymbol,
		s.recogIPv4,
		s.recogIPv6,
		s.recogMAC,
		s.recogDatetime,
		s.recogNumber,
		s.recogString,
		s.recogBool,
		s.recogName,
	}
	var cands []candidate
	for order, rec := range recogs {
		if ok, tok, err := rec(pos); ok {
			cands = append(cands, candidate{order, tok, err})
		}
	}

	best, ok := pickBest(cands, false)
	if !ok {
		best, ok = pickBest(cands, true)
		if !ok {
			return Token{}, ferr.NewLexicalError(ferr.Span{Begin: pos, End: pos + 1}, "unrecognised input")
		}
		return Token{}, best.err
	}
	if best.err != nil {
		return Token{}, best.err
	}

	if !hadGap && s.haveLast && s.lastAlnum && lexemeHasAlnum(s.srcSpan(best.tok.Span)) {
		return Token{}, ferr.NewLexicalError(ferr.Span{Begin: s.lastEnd, End: best.tok.Span.End},
			"two tokens without intervening whitespace must not both be word-like")
	}
	return best.tok, nil
}

// pickBest selects the longest candidate, ties broken by declared order.
// errsOnly restricts the search to failed (error) candidates, used as the
// fallback when nothing succeeded outright.
func pickBest(cands []candidate, errsOnly bool) (candidate, bool) {
	var best candidate
	found := false
	spanLen := func(c candidate) int {
		if c.err != nil {
			return c.err.Span.End - c.err.Span.Begin
		}
		return c.tok.Span.End - c.tok.Span.Begin
	}
	for _, c := range cands {
		if errsOnly != (c.err != nil) {
			continue
		}
		if !found || spanLen(c) > spanLen(best) {
			best, found = c, true
		}
	}
	return best, found
}

func (s *Scanner) skipSpace(pos int) int {
	for pos < len(s.src) {
		switch s.src[pos] {
		case ' ', '\t', '\r', '\n':
			pos++
		default:
			return pos
		}
	}
	return pos
}

// --- Symbol ---------------------------------------------------------------

var allSymbolText = func() []string {
	out := append([]string{}, symbols...)
	for w := range wordSymbols {
		out = append(out, w)
	}
	return out
}()

func (s *Scanner) recogSymbol(pos int) (bool, Token, *ferr.Error) {
	best := ""
	for _, sym := range allSymbolText {
		if pos+len(sym) > len(s.src) {
			continue
		}
		if string(s.src[pos:pos+len(sym)]) == sym && len(sym) > len(best) {
			best = sym
		}
	}
	if best == "" {
		return false, Token{}, nil
	}
	end := pos + len(best)
	return true, Token{Kind: KindSymbol, Symbol: best, Span: ferr.Span{Begin: pos, End: end}}, nil
}

// --- IPv4 prefix ----------------------------------------------------------

func (s *Scanner) recogIPv4(pos int) (bool, Token, *ferr.Error) {
	if !isDigit(s.src[pos]) {
		return false, Token{}, nil
	}
	p := pos
	var octets [4]int
	for i := 0; i < 4; i++ {
		start := p
		for p < len(s.src) && isDigit(s.src[p]) && p-start < 3 {
			p++
		}
		if p == start {
			return false, Token{}, nil
		}
		n, _ := strconv.Atoi(string(s.src[start:p]))
		if n > 255 {
			return true, Token{}, ferr.NewLexicalError(ferr.Span{Begin: pos, End: p}, "IPv4 octet %d out of range", n)
		}
		octets[i] = n
		if i < 3 {
			if p >= len(s.src) || s.src[p] != '.' {
				return false, Token{}, nil
			}
			p++
		}
	}
	prefixLen := 32
	end := p
	if p < len(s.src) && s.src[p] == '/' {
		q := p + 1
		start := q
		for q < len(s.src) && isDigit(s.src[q]) {
			q++
		}
		if q == start {
			return false, Token{}, nil
		}
		n, _ := strconv.Atoi(string(s.src[start:q]))
		if n > 32 {
			return true, Token{}, ferr.NewLexicalError(ferr.Span{Begin: pos, End: q}, "IPv4 prefix length %d out of range", n)
		}
		prefixLen = n
		end = q
	}
	addr := netip.AddrFrom4([4]byte{byte(octets[0]), byte(octets[1]), byte(octets[2]), byte(octets[3])})
	pfx := netip.PrefixFrom(addr, prefixLen)
	return true, Token{Kind: KindLiteral, Lit: value.IPValue(pfx), Span: ferr.Span{Begin: pos, End: end}}, nil
}

// --- IPv6 prefix ----------------------------------------------------------

func (s *Scanner) recogIPv6(pos int) (bool, Token, *ferr.Error) {
	p := pos
	if !(isHex(s.src[p]) || s.src[p] == ':') {
		return false, Token{}, nil
	}
	var groups []string
	doubleColonAt := -1
	i := p
	if i+1 < len(s.src) && s.src[i] == ':' && s.src[i+1] == ':' {
		doubleColonAt = 0
		i += 2
	} else if s.src[i] == ':' {
		return false, Token{}, nil
	}
	for {
		start := i
		for i < len(s.src) && isHex(s.src[i]) && i-start < 4 {
			i++
		}
		if i == start {
			break
		}
		groups = append(groups, string(s.src[start:i]))
		if i < len(s.src) && s.src[i] == ':' {
			if i+1 < len(s.src) && s.src[i+1] == ':' {
				if doubleColonAt >= 0 {
					return false, Token{}, nil
				}
				doubleColonAt = len(groups)
				i += 2
				continue
			}
			i++
			continue
		}
		break
	}
	if len(groups) == 0 {
		return false, Token{}, nil
	}
	if doubleColonAt < 0 && len(groups) != 8 {
		return false, Token{}, nil
	}
	if doubleColonAt >= 0 && len(groups) > 8 {
		return false, Token{}, nil
	}
	full := make([]uint16, 8)
	parse := func(g string) (uint16, bool) {
		n, err := strconv.ParseUint(g, 16, 16)
		return uint16(n), err == nil
	}
	if doubleColonAt < 0 {
		for idx, g := range groups {
			n, ok := parse(g)
			if !ok {
				return false, Token{}, nil
			}
			full[idx] = n
		}
	} else {
		before := groups[:doubleColonAt]
		after := groups[doubleColonAt:]
		for idx, g := range before {
			n, ok := parse(g)
			if !ok {
				return false, Token{}, nil
			}
			full[idx] = n
		}
		offset := 8 - len(after)
		for idx, g := range after {
			n, ok := parse(g)
			if !ok {
				return false, Token{}, nil
			}
			full[offset+idx] = n
		}
	}
	var raw [16]byte
	for idx, g := range full {
		raw[idx*2] = byte(g >> 8)
		raw[idx*2+1] = byte(g)
	}
	addr := netip.AddrFrom16(raw)
	end := i
	prefixLen := 128
	if end < len(s.src) && s.src[end] == '/' {
		q := end + 1
		start := q
		for q < len(s.src) && isDigit(s.src[q]) {
			q++
		}
		if q == start {
			return false, Token{}, nil
		}
		n, _ := strconv.Atoi(string(s.src[start:q]))
		if n > 128 {
			return true, Token{}, ferr.NewLexicalError(ferr.Span{Begin: pos, End: q}, "IPv6 prefix length %d out of range", n)
		}
		prefixLen = n
		end = q
	}
	pfx := netip.PrefixFrom(addr, prefixLen)
	return true, Token{Kind: KindLiteral, Lit: value.IPValue(pfx), Span: ferr.Span{Begin: pos, End: end}}, nil
}

// --- MAC ------------------------------------------------------------------

func (s *Scanner) recogMAC(pos int) (bool, Token, *ferr.Error) {
	p := pos
	var raw [6]byte
	for i := 0; i < 6; i++ {
		if p+2 > len(s.src) || !isHex(s.src[p]) || !isHex(s.src[p+1]) {
			return false, Token{}, nil
		}
		n, err := strconv.ParseUint(string(s.src[p:p+2]), 16, 8)
		if err != nil {
			return false, Token{}, nil
		}
		raw[i] = byte(n)
		p += 2
		if i < 5 {
			if p >= len(s.src) || s.src[p] != ':' {
				return false, Token{}, nil
			}
			p++
		}
	}
	return true, Token{Kind: KindLiteral, Lit: value.MACValue(net.HardwareAddr(raw[:])), Span: ferr.Span{Begin: pos, End: p}}, nil
}

// --- Datetime -------------------------------------------------------------

// recogDatetime matches YYYY-MM-DD, optionally followed by Thh:mm[:ss] and
// a Z, +HH[:MM] or -HH[:MM] zone suffix. Without a zone the timestamp is
// interpreted in local time. The result is stored as epoch nanoseconds in
// an unsigned literal so it compares directly against timestamp fields.
func (s *Scanner) recogDatetime(pos int) (bool, Token, *ferr.Error) {
	p := pos
	if !digitsAt(s.src, p, 4) {
		return false, Token{}, nil
	}
	p += 4
	if p >= len(s.src) || s.src[p] != '-' {
		return false, Token{}, nil
	}
	p++
	if !digitsAt(s.src, p, 2) {
		return false, Token{}, nil
	}
	p += 2
	if p >= len(s.src) || s.src[p] != '-' {
		return false, Token{}, nil
	}
	p++
	if !digitsAt(s.src, p, 2) {
		return false, Token{}, nil
	}
	p += 2

	layout := "2006-01-02"
	hasZone := false
	if p < len(s.src) && s.src[p] == 'T' {
		p++
		if !digitsAt(s.src, p, 2) {
			return false, Token{}, nil
		}
		p += 2
		if p >= len(s.src) || s.src[p] != ':' {
			return false, Token{}, nil
		}
		p++
		if !digitsAt(s.src, p, 2) {
			return false, Token{}, nil
		}
		p += 2
		layout += "T15:04"
		if p+2 < len(s.src) && s.src[p] == ':' && digitsAt(s.src, p+1, 2) {
			p += 3
			layout += ":05"
		}
		switch {
		case p < len(s.src) && s.src[p] == 'Z':
			p++
			layout += "Z07:00"
			hasZone = true
		case p < len(s.src) && (s.src[p] == '+' || s.src[p] == '-'):
			q := p + 1
			if !digitsAt(s.src, q, 2) {
				return false, Token{}, nil
			}
			q += 2
			if q+2 < len(s.src) && s.src[q] == ':' && digitsAt(s.src, q+1, 2) {
				q += 3
				layout += "-07:00"
			} else {
				layout += "-07"
			}
			p = q
			hasZone = true
		}
	}

	text := string(s.src[pos:p])
	var t time.Time
	var err error
	if hasZone {
		t, err = time.Parse(layout, text)
	} else {
		t, err = time.ParseInLocation(layout, text, time.Local)
	}
	if err != nil {
		return true, Token{}, ferr.NewLexicalError(ferr.Span{Begin: pos, End: p}, "malformed datetime literal %q", text)
	}
	return true, Token{Kind: KindLiteral, Lit: value.UintValue(uint64(t.UnixNano())), Span: ferr.Span{Begin: pos, End: p}}, nil
}

func digitsAt(src []byte, p, n int) bool {
	if p+n > len(src) {
		return false
	}
	for i := 0; i < n; i++ {
		if !isDigit(src[p+i]) {
			return false
		}
	}
	return true
}

// --- Number ---------------------------------------------------------------

// sizeUnits and timeUnits scale a numeric literal by its unit suffix. Size
// units are 1024-based; time units are nanosecond multiples, so "10ms"
// compares directly against nanosecond-resolution duration fields.
var sizeUnits = map[string]float64{
	"B": 1, "k": 1024, "M": 1024 * 1024, "G": 1024 * 1024 * 1024, "T": 1024 * 1024 * 1024 * 1024,
}

var timeUnits = map[string]float64{
	"ns": 1, "us": 1e3, "ms": 1e6, "s": 1e9, "m": 60e9, "h": 3600e9, "d": 86400e9,
}

func (s *Scanner) recogNumber(pos int) (bool, Token, *ferr.Error) {
	p := pos
	if !(isDigit(s.src[p]) || (s.src[p] == '.' && p+1 < len(s.src) && isDigit(s.src[p+1]))) {
		return false, Token{}, nil
	}
	if p+1 < len(s.src) && s.src[p] == '0' && (s.src[p+1] == 'x' || s.src[p+1] == 'X') {
		q := p + 2
		start := q
		for q < len(s.src) && isHex(s.src[q]) {
			q++
		}
		if q == start {
			return false, Token{}, nil
		}
		n, _ := strconv.ParseUint(string(s.src[start:q]), 16, 64)
		return s.finishInt(pos, q, int64(n), n, false)
	}
	if p+1 < len(s.src) && s.src[p] == '0' && (s.src[p+1] == 'b' || s.src[p+1] == 'B') {
		q := p + 2
		start := q
		for q < len(s.src) && (s.src[q] == '0' || s.src[q] == '1') {
			q++
		}
		if q == start {
			return false, Token{}, nil
		}
		n, _ := strconv.ParseUint(string(s.src[start:q]), 2, 64)
		return s.finishInt(pos, q, int64(n), n, false)
	}

	start := p
	for p < len(s.src) && isDigit(s.src[p]) {
		p++
	}
	isFloat := false
	if p < len(s.src) && s.src[p] == '.' && p+1 < len(s.src) && isDigit(s.src[p+1]) {
		isFloat = true
		p++
		for p < len(s.src) && isDigit(s.src[p]) {
			p++
		}
	}
	if p < len(s.src) && (s.src[p] == 'e' || s.src[p] == 'E') {
		q := p + 1
		if q < len(s.src) && (s.src[q] == '+' || s.src[q] == '-') {
			q++
		}
		expStart := q
		for q < len(s.src) && isDigit(s.src[q]) {
			q++
		}
		if q > expStart {
			isFloat = true
			p = q
		}
	}
	text := string(s.src[start:p])
	if isFloat {
		f, _ := strconv.ParseFloat(text, 64)
		return s.finishFloat(pos, p, f)
	}
	iv, ierr := strconv.ParseInt(text, 10, 64)
	uv, uerr := strconv.ParseUint(text, 10, 64)
	if uerr != nil {
		f, _ := strconv.ParseFloat(text, 64)
		return s.finishFloat(pos, p, f)
	}
	// A decimal too large for int64 but still within uint64 is implicitly
	// unsigned.
	return s.finishInt(pos, p, iv, uv, ierr != nil)
}

// finishInt consumes an optional unit or unsigned suffix after an integral
// literal. A unit suffix scales the literal and turns it into a float; a
// u/U suffix forces unsigned; u/U after a unit is a lexical error because
// the scaled form is floating.
func (s *Scanner) finishInt(pos, p int, iv int64, uv uint64, forceUnsigned bool) (bool, Token, *ferr.Error) {
	if mul, n, ok := s.matchUnit(p); ok {
		f := float64(iv)
		if forceUnsigned {
			f = float64(uv)
		}
		return s.finishFloat(pos, p+n, f*mul)
	}
	end := p
	if end < len(s.src) && (s.src[end] == 'u' || s.src[end] == 'U') {
		forceUnsigned = true
		end++
	}
	if forceUnsigned {
		return true, Token{Kind: KindLiteral, Lit: value.UintValue(uv), Span: ferr.Span{Begin: pos, End: end}}, nil
	}
	return true, Token{Kind: KindLiteral, Lit: value.IntValue(iv), Span: ferr.Span{Begin: pos, End: end}}, nil
}

func (s *Scanner) finishFloat(pos, p int, f float64) (bool, Token, *ferr.Error) {
	if mul, n, ok := s.matchUnit(p); ok {
		f *= mul
		p += n
	}
	if p < len(s.src) && (s.src[p] == 'u' || s.src[p] == 'U') {
		return true, Token{}, ferr.NewLexicalError(ferr.Span{Begin: pos, End: p + 1},
			"unsigned suffix not allowed on a floating literal (parsed magnitude %s)", humanize.CommafWithDigits(f, 3))
	}
	return true, Token{Kind: KindLiteral, Lit: value.FloatValue(f), Span: ferr.Span{Begin: pos, End: p}}, nil
}

// matchUnit returns the multiplier and length of the longest size- or
// time-unit suffix at p.
func (s *Scanner) matchUnit(p int) (float64, int, bool) {
	best := ""
	bestMul := 0.0
	match := func(units map[string]float64) {
		for u, mul := range units {
			if p+len(u) <= len(s.src) && string(s.src[p:p+len(u)]) == u && len(u) > len(best) {
				best, bestMul = u, mul
			}
		}
	}
	match(sizeUnits)
	match(timeUnits)
	if best == "" {
		return 0, 0, false
	}
	return bestMul, len(best), true
}

// --- String ---------------------------------------------------------------

func (s *Scanner) recogString(pos int) (bool, Token, *ferr.Error) {
	if s.src[pos] != '"' {
		return false, Token{}, nil
	}
	var out []byte
	p := pos + 1
	for {
		if p >= len(s.src) {
			return true, Token{}, ferr.NewLexicalError(ferr.Span{Begin: pos, End: p}, "unterminated string literal")
		}
		c := s.src[p]
		if c == '"' {
			p++
			break
		}
		if c == '\\' {
			p++
			if p >= len(s.src) {
				return true, Token{}, ferr.NewLexicalError(ferr.Span{Begin: pos, End: p}, "unterminated string literal")
			}
			switch s.src[p] {
			case 't':
				out = append(out, '\t')
				p++
			case 'n':
				out = append(out, '\n')
				p++
			case 'r':
				out = append(out, '\r')
				p++
			case '"':
				out = append(out, '"')
				p++
			case '\\':
				out = append(out, '\\')
				p++
			case 'x':
				if p+2 < len(s.src) && isHex(s.src[p+1]) && isHex(s.src[p+2]) {
					n, _ := strconv.ParseUint(string(s.src[p+1:p+3]), 16, 8)
					out = append(out, byte(n))
					p += 3
				} else {
					out = append(out, '\\', 'x')
					p++
				}
			default:
				// Unknown escapes pass through with the backslash kept.
				if isOctalDigit(s.src[p]) && p+2 < len(s.src) && isOctalDigit(s.src[p+1]) && isOctalDigit(s.src[p+2]) {
					n, _ := strconv.ParseUint(string(s.src[p:p+3]), 8, 8)
					out = append(out, byte(n))
					p += 3
				} else {
					out = append(out, '\\', s.src[p])
					p++
				}
			}
			continue
		}
		out = append(out, c)
		p++
	}
	return true, Token{Kind: KindLiteral, Lit: value.StrValue(string(out)), Span: ferr.Span{Begin: pos, End: p}}, nil
}

func isOctalDigit(c byte) bool { return c >= '0' && c <= '7' }

// --- Bool -----------------------------------------------------------------

func (s *Scanner) recogBool(pos int) (bool, Token, *ferr.Error) {
	for _, lit := range []struct {
		text string
		b    bool
	}{{"true", true}, {"false", false}} {
		if pos+len(lit.text) <= len(s.src) && string(s.src[pos:pos+len(lit.text)]) == lit.text {
			return true, Token{Kind: KindLiteral, Lit: value.BoolValue(lit.b), Span: ferr.Span{Begin: pos, End: pos + len(lit.text)}}, nil
		}
	}
	return false, Token{}, nil
}

// --- Name -----------------------------------------------------------------

func isNameContinuation(c byte) bool {
	return isAlnum(c) || c == ':' || c == '@' || c == '.' || c == '_' || c == '-'
}

func (s *Scanner) recogName(pos int) (bool, Token, *ferr.Error) {
	if !isAlpha(s.src[pos]) {
		return false, Token{}, nil
	}
	p := pos + 1
	for p < len(s.src) && isNameContinuation(s.src[p]) {
		p++
	}
	return true, Token{Kind: KindName, Name: string(s.src[pos:p]), Span: ferr.Span{Begin: pos, End: p}}, nil
}
