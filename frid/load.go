package frid

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds container nesting when LoadOptions.MaxDepth
// is left zero.
const DefaultMaxDepth = 128

// MixinFunc builds a custom value from a constructor call literal such
// as name(arg1, arg2, key=value). The parsed arguments arrive as a
// NakedArgs; returning an error fails the load at the call site.
type MixinFunc func(name string, args *NakedArgs) (*FridValue, error)

// LoadOptions configures parsing.
type LoadOptions struct {
	// MaxDepth is the maximum container nesting. Zero means
	// DefaultMaxDepth; exceeding it fails with a RangeError.
	MaxDepth int
	// AllowTrailing accepts input that continues after the first value
	// instead of failing.
	AllowTrailing bool
	// RejectDupKeys fails on a repeated dict key or keyword argument.
	// By default the last value wins, staying at the position where
	// the key first appeared.
	RejectDupKeys bool
	// ParseMisc, when set, is offered any unquoted run that matches no
	// built-in interpretation before the loader gives up on it.
	ParseMisc func(text string, path Path) (*FridValue, error)
	// Mixins maps constructor names usable in call literals.
	Mixins map[string]MixinFunc
}

// DefaultLoadOptions returns the options used by Load and LoadArgs.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{MaxDepth: DefaultMaxDepth}
}

// NakedArgs holds the result of parsing a bare argument list: the
// positional values in order, then the keyword entries in order of
// first appearance.
type NakedArgs struct {
	Args []*FridValue
	Kwds []MapEntry
}

// Get returns the keyword value by name, or nil if absent.
func (a *NakedArgs) Get(name string) *FridValue {
	if a == nil {
		return nil
	}
	for _, e := range a.Kwds {
		if e.Key == name {
			return e.Value
		}
	}
	return nil
}

// ============================================================
// Entry Points
// ============================================================

// Load parses a complete text as a single value.
func Load(text string) (*FridValue, error) {
	return LoadWithOptions(text, DefaultLoadOptions())
}

// LoadWithOptions parses a complete text as a single value.
func LoadWithOptions(text string, opts LoadOptions) (*FridValue, error) {
	l := newLoader(text, opts)
	tok, err := l.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenEOF {
		return nil, l.errAt(tok, "empty input")
	}
	v, err := l.parseValue(0)
	if err != nil {
		return nil, err
	}
	if !l.opts.AllowTrailing {
		tok, err := l.peek()
		if err != nil {
			return nil, err
		}
		if tok.Type != TokenEOF {
			return nil, l.errAt(tok, "trailing data after the value")
		}
	}
	return v, nil
}

// LoadArgs parses a complete text as a naked argument list: positional
// values first, then name=value keywords. Empty input is an empty
// argument list.
func LoadArgs(text string) (*NakedArgs, error) {
	return LoadArgsWithOptions(text, DefaultLoadOptions())
}

// LoadArgsWithOptions parses a complete text as a naked argument list.
func LoadArgsWithOptions(text string, opts LoadOptions) (*NakedArgs, error) {
	l := newLoader(text, opts)
	return l.parseArgs(0, false)
}

// ============================================================
// Loader
// ============================================================

type loader struct {
	lex  *Lexer
	opts LoadOptions
	path Path
	buf  []Token // token lookahead, at most two deep
}

func newLoader(text string, opts LoadOptions) *loader {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &loader{lex: NewLexer(text), opts: opts}
}

// fill pulls tokens from the lexer until n are buffered. Lexer errors
// gain the structural path of the container being parsed.
func (l *loader) fill(n int) error {
	for len(l.buf) < n {
		tok, err := l.lex.nextToken()
		if err != nil {
			if pe, ok := err.(*ParseError); ok && pe.Path == nil && len(l.path) > 0 {
				pe.Path = append(Path(nil), l.path...)
			}
			return err
		}
		l.buf = append(l.buf, tok)
	}
	return nil
}

func (l *loader) peek() (Token, error) {
	if err := l.fill(1); err != nil {
		return Token{}, err
	}
	return l.buf[0], nil
}

func (l *loader) peekAfter() (Token, error) {
	if err := l.fill(2); err != nil {
		return Token{}, err
	}
	return l.buf[1], nil
}

func (l *loader) next() (Token, error) {
	if err := l.fill(1); err != nil {
		return Token{}, err
	}
	tok := l.buf[0]
	l.buf = l.buf[1:]
	return tok, nil
}

// errAt builds a ParseError at the token's offset with the current
// structural path.
func (l *loader) errAt(tok Token, format string, args ...any) error {
	return newParseError(l.lex.input, tok.Offset, tok.Offset, l.path, format, args...)
}

// parseValue parses one value of any kind.
func (l *loader) parseValue(depth int) (*FridValue, error) {
	tok, err := l.peek()
	if err != nil {
		return nil, err
	}
	if depth >= l.opts.MaxDepth {
		return nil, &RangeError{Message: fmt.Sprintf(
			"nesting deeper than %d levels at offset %d (path %s)",
			l.opts.MaxDepth, tok.Offset, l.path)}
	}
	switch tok.Type {
	case TokenBeginList:
		l.next()
		return l.parseList(depth)
	case TokenBeginDict:
		l.next()
		return l.parseDict(depth)
	case TokenQuoted:
		return l.parseQuotedSeq()
	case TokenPrime:
		after, err := l.peekAfter()
		if err != nil {
			return nil, err
		}
		if after.Type == TokenBeginExpr && IsFridIdentifier(tok.Text) {
			return l.parseMixinCall(depth)
		}
		l.next()
		return l.interpretPrime(tok)
	case TokenEOF:
		return nil, l.errAt(tok, "expected a value, found end of input")
	default:
		return nil, l.errAt(tok, "expected a value, found '%s'", tok.Type)
	}
}

// parseQuotedSeq reads one quoted string plus any directly following
// quoted strings, concatenated into a single text value.
func (l *loader) parseQuotedSeq() (*FridValue, error) {
	tok, err := l.next()
	if err != nil {
		return nil, err
	}
	nxt, err := l.peek()
	if err != nil {
		return nil, err
	}
	if nxt.Type != TokenQuoted {
		return Text(tok.Text), nil
	}
	var sb strings.Builder
	sb.WriteString(tok.Text)
	for nxt.Type == TokenQuoted {
		l.next()
		sb.WriteString(nxt.Text)
		if nxt, err = l.peek(); err != nil {
			return nil, err
		}
	}
	return Text(sb.String()), nil
}

// parseList parses entries after a consumed '['.
func (l *loader) parseList(depth int) (*FridValue, error) {
	list := List()
	tok, err := l.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenEndList {
		l.next()
		return list, nil
	}
	for {
		l.path = append(l.path, PathStep{IsIndex: true, Index: list.Len()})
		v, err := l.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		l.path = l.path[:len(l.path)-1]
		list.Append(v)
		sep, err := l.next()
		if err != nil {
			return nil, err
		}
		switch sep.Type {
		case TokenComma:
		case TokenEndList:
			return list, nil
		default:
			return nil, l.errAt(sep, "expected ',' or ']' after list entry %d", list.Len()-1)
		}
	}
}

// parseDict parses entries after a consumed '{'.
func (l *loader) parseDict(depth int) (*FridValue, error) {
	dict := Dict()
	tok, err := l.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenEndDict {
		l.next()
		return dict, nil
	}
	for {
		key, keyTok, err := l.parseKey()
		if err != nil {
			return nil, err
		}
		sep, err := l.next()
		if err != nil {
			return nil, err
		}
		if sep.Type != TokenColon {
			return nil, l.errAt(sep, "expected ':' after key %q", key)
		}
		l.path = append(l.path, PathStep{Key: key})
		v, err := l.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		l.path = l.path[:len(l.path)-1]
		if l.opts.RejectDupKeys && dict.Get(key) != nil {
			return nil, l.errAt(keyTok, "duplicate key %q", key)
		}
		dict.Set(key, v)
		sep, err = l.next()
		if err != nil {
			return nil, err
		}
		switch sep.Type {
		case TokenComma:
		case TokenEndDict:
			return dict, nil
		default:
			return nil, l.errAt(sep, "expected ',' or '}' after the value for %q", key)
		}
	}
}

// parseKey reads a dict key, which must be a text token.
func (l *loader) parseKey() (string, Token, error) {
	tok, err := l.peek()
	if err != nil {
		return "", tok, err
	}
	switch tok.Type {
	case TokenQuoted:
		v, err := l.parseQuotedSeq()
		if err != nil {
			return "", tok, err
		}
		key, _ := v.AsText()
		return key, tok, nil
	case TokenPrime:
		l.next()
		v, err := l.interpretPrime(tok)
		if err != nil {
			return "", tok, err
		}
		key, err := v.AsText()
		if err != nil {
			return "", tok, l.errAt(tok, "invalid key of type %s", v.Type())
		}
		return key, tok, nil
	default:
		return "", tok, l.errAt(tok, "expected a key, found '%s'", tok.Type)
	}
}

// parseMixinCall parses name(args...) for a registered constructor.
// The name token is still unconsumed on entry.
func (l *loader) parseMixinCall(depth int) (*FridValue, error) {
	nameTok, err := l.next()
	if err != nil {
		return nil, err
	}
	if _, err := l.next(); err != nil { // consume '('
		return nil, err
	}
	name := nameTok.Text
	fn := l.opts.Mixins[name]
	if fn == nil {
		return nil, l.errAt(nameTok, "no constructor named %q", name)
	}
	args, err := l.parseArgs(depth+1, true)
	if err != nil {
		return nil, err
	}
	v, err := fn(name, args)
	if err != nil {
		return nil, l.errAt(nameTok, "constructor %s: %v", name, err)
	}
	if v == nil {
		v = Null()
	}
	return v, nil
}

// parseArgs parses a naked argument list: positionals first, then
// keywords, comma-separated. Inside a call literal the list ends at
// ')'; at the top level it ends at the end of input.
func (l *loader) parseArgs(depth int, inExpr bool) (*NakedArgs, error) {
	args := &NakedArgs{}
	tok, err := l.peek()
	if err != nil {
		return nil, err
	}
	if l.argsDone(tok, inExpr) {
		l.next()
		return args, nil
	}
	for {
		tok, err := l.peek()
		if err != nil {
			return nil, err
		}
		after, err := l.peekAfter()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenPrime && after.Type == TokenEquals && IsFridIdentifier(tok.Text) {
			l.next()
			l.next()
			name := tok.Text
			l.path = append(l.path, PathStep{Key: name})
			v, err := l.parseValue(depth)
			if err != nil {
				return nil, err
			}
			l.path = l.path[:len(l.path)-1]
			if l.opts.RejectDupKeys && args.Get(name) != nil {
				return nil, l.errAt(tok, "duplicate keyword %q", name)
			}
			args.putKwd(name, v)
		} else {
			if len(args.Kwds) > 0 {
				return nil, l.errAt(tok, "positional argument after keyword arguments")
			}
			l.path = append(l.path, PathStep{IsIndex: true, Index: len(args.Args)})
			v, err := l.parseValue(depth)
			if err != nil {
				return nil, err
			}
			l.path = l.path[:len(l.path)-1]
			args.Args = append(args.Args, v)
		}
		sep, err := l.next()
		if err != nil {
			return nil, err
		}
		if l.argsDone(sep, inExpr) {
			return args, nil
		}
		if sep.Type != TokenComma {
			return nil, l.errAt(sep, "expected ',' between arguments, found '%s'", sep.Type)
		}
	}
}

func (l *loader) argsDone(tok Token, inExpr bool) bool {
	if inExpr {
		return tok.Type == TokenEndExpr
	}
	return tok.Type == TokenEOF
}

// putKwd records a keyword value. A repeated name keeps its first
// position with the new value.
func (a *NakedArgs) putKwd(name string, v *FridValue) {
	for i := range a.Kwds {
		if a.Kwds[i].Key == name {
			a.Kwds[i].Value = v
			return
		}
	}
	a.Kwds = append(a.Kwds, MapEntry{Key: name, Value: v})
}

// ============================================================
// Prime Interpretation
// ============================================================

func (l *loader) interpretPrime(tok Token) (*FridValue, error) {
	return interpretPrimeToken(tok, &l.opts, l.path, l.errAt)
}

// interpretPrimeToken decides what an unquoted run means. The checks
// go from most to least specific: fixed literals, blobs, the murky36
// form, calendar datetimes, integers, floats, then quote-free text.
// Shared between the batch and the incremental loader, which differ
// only in how they build errors.
func interpretPrimeToken(tok Token, opts *LoadOptions, path Path, errAt func(Token, string, ...any) error) (*FridValue, error) {
	s := tok.Text
	switch s {
	case ".":
		return Null(), nil
	case "+":
		return Bool(true), nil
	case "-":
		return Bool(false), nil
	case "++":
		return Real(math.Inf(1)), nil
	case "--":
		return Real(math.Inf(-1)), nil
	case "+.":
		return Real(math.NaN()), nil
	case "-.":
		return Real(math.Copysign(math.NaN(), -1)), nil
	}
	if strings.HasPrefix(s, "..") {
		return parseBlobToken(tok, errAt)
	}
	if len(s) == 2+Murky36Width && s[0] == '0' && (s[1] == 'm' || s[1] == 'M') {
		t, err := ParseMurky36(s[2:])
		if err != nil {
			if de, ok := err.(*InvalidDigitError); ok {
				de.Offset += tok.Offset + 2
			}
			return nil, err
		}
		return DateTime(t), nil
	}
	if v := ParseDateTime(s); v != nil {
		return v, nil
	}
	if v, ok := parseIntPrime(s); ok {
		return v, nil
	}
	if isFloatSpelling(s) {
		f, _ := strconv.ParseFloat(s, 64)
		return Real(f), nil
	}
	if quoteFreeShape(s, false) {
		return Text(s), nil
	}
	if opts.ParseMisc != nil {
		v, err := opts.ParseMisc(s, append(Path(nil), path...))
		if err != nil {
			if _, ok := err.(*ParseError); ok {
				return nil, err
			}
			return nil, errAt(tok, "%v", err)
		}
		if v != nil {
			return v, nil
		}
	}
	return nil, errAt(tok, "cannot interpret value %q", s)
}

// parseBlobToken decodes a ..-prefixed base64url run. Trailing dots
// encode the stripped padding, one per '='; interior spaces are
// ignored.
func parseBlobToken(tok Token, errAt func(Token, string, ...any) error) (*FridValue, error) {
	body := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, tok.Text[2:])
	pad := 0
	for pad < 2 && len(body) > 0 && body[len(body)-1] == '.' {
		body = body[:len(body)-1]
		pad++
	}
	if len(body) > 0 && body[len(body)-1] == '.' {
		return nil, errAt(tok, "invalid blob padding")
	}
	var data []byte
	var err error
	if pad == 0 {
		data, err = base64.RawURLEncoding.DecodeString(body)
	} else {
		data, err = base64.URLEncoding.DecodeString(body + strings.Repeat("=", pad))
	}
	if err != nil {
		return nil, errAt(tok, "invalid base64 blob: %v", err)
	}
	return Blob(data), nil
}

// parseIntPrime reads an integer literal: an optional sign, an
// optional 0x/0o/0b base prefix, then digits with '_' grouping run
// through the integer codec.
func parseIntPrime(s string) (*FridValue, bool) {
	body := s
	neg := false
	if len(body) > 0 && (body[0] == '+' || body[0] == '-') {
		neg = body[0] == '-'
		body = body[1:]
	}
	if len(body) > 0 && (body[0] == '+' || body[0] == '-') {
		return nil, false
	}
	base := 10
	if len(body) > 2 && body[0] == '0' {
		switch body[1] {
		case 'x', 'X':
			base, body = 16, strings.ToLower(body[2:])
		case 'o', 'O':
			base, body = 8, body[2:]
		case 'b', 'B':
			base, body = 2, body[2:]
		}
	}
	n, err := ParseIntWithOptions(body, base, IntOptions{GroupSep: '_'})
	if err != nil {
		return nil, false
	}
	if neg {
		n.Neg(n)
	}
	return BigInt(n), true
}

// isFloatSpelling reports whether strconv accepts s as a float. Hex
// float syntax is excluded on purpose.
func isFloatSpelling(s string) bool {
	if strings.ContainsAny(s, "xXpP") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
