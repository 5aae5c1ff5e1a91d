package frid

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType identifies a lexer token.
type TokenType uint8

const (
	TokenEOF TokenType = iota

	// Structural
	TokenBeginList // [
	TokenEndList   // ]
	TokenBeginDict // {
	TokenEndDict   // }
	TokenBeginExpr // (
	TokenEndExpr   // )
	TokenComma     // ,
	TokenColon     // :
	TokenEquals    // =

	// Literals
	TokenQuoted // quoted string, decoded
	TokenPrime  // unquoted run, raw
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenBeginList:
		return "["
	case TokenEndList:
		return "]"
	case TokenBeginDict:
		return "{"
	case TokenEndDict:
		return "}"
	case TokenBeginExpr:
		return "("
	case TokenEndExpr:
		return ")"
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenEquals:
		return "="
	case TokenQuoted:
		return "QUOTED"
	case TokenPrime:
		return "PRIME"
	default:
		return "UNKNOWN"
	}
}

// Token is one lexer token. Offset is the byte offset of the token
// start, counted from the beginning of the whole text even when the
// input arrives in chunks. Text holds the decoded content for quoted
// tokens and the raw trimmed run for prime tokens.
type Token struct {
	Type   TokenType
	Text   string
	Offset int
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch t.Type {
	case TokenQuoted, TokenPrime:
		return fmt.Sprintf("%s(%q)", t.Type, t.Text)
	default:
		return t.Type.String()
	}
}

// errNeedMore reports that the buffer ends inside a token. The scan
// position is rewound to the token start so the caller can supply more
// input and retry. Never returned by a lexer in final mode.
var errNeedMore = errors.New("frid: need more input")

// Lexer splits frid text into tokens.
type Lexer struct {
	input string
	pos   int  // current position in input
	base  int  // global offset of input[0]
	final bool // input is the end of the text
}

// NewLexer creates a lexer over a complete input text.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, final: true}
}

// newChunkLexer creates a lexer over a partial buffer whose first byte
// sits at the given global offset. Tokens cut off by the end of the
// buffer yield errNeedMore instead of failing.
func newChunkLexer(input string, base int, final bool) *Lexer {
	return &Lexer{input: input, base: base, final: final}
}

// Tokenize returns all tokens from the input, ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// nextToken scans the next token.
func (l *Lexer) nextToken() (Token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return Token{}, err
	}
	if l.pos >= len(l.input) {
		if !l.final {
			return Token{}, errNeedMore
		}
		return Token{Type: TokenEOF, Offset: l.base + l.pos}, nil
	}

	start := l.pos
	offset := l.base + start
	ch := l.input[l.pos]
	switch ch {
	case '[':
		l.pos++
		return Token{Type: TokenBeginList, Offset: offset}, nil
	case ']':
		l.pos++
		return Token{Type: TokenEndList, Offset: offset}, nil
	case '{':
		l.pos++
		return Token{Type: TokenBeginDict, Offset: offset}, nil
	case '}':
		l.pos++
		return Token{Type: TokenEndDict, Offset: offset}, nil
	case '(':
		l.pos++
		return Token{Type: TokenBeginExpr, Offset: offset}, nil
	case ')':
		l.pos++
		return Token{Type: TokenEndExpr, Offset: offset}, nil
	case ',':
		l.pos++
		return Token{Type: TokenComma, Offset: offset}, nil
	case ':':
		l.pos++
		return Token{Type: TokenColon, Offset: offset}, nil
	case '=':
		l.pos++
		return Token{Type: TokenEquals, Offset: offset}, nil
	case '\'', '"', '`':
		return l.scanQuoted()
	}
	if r, size := l.primeRuneAt(l.pos); r > 0 {
		return l.scanPrime()
	} else if size == 0 {
		l.pos = start
		return Token{}, errNeedMore
	}
	bad, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	if bad == utf8.RuneError {
		return Token{}, newParseError(l.input, l.pos, offset, nil, "invalid UTF-8 byte %#x", ch)
	}
	return Token{}, newParseError(l.input, l.pos, offset, nil, "unexpected character %q", bad)
}

// skipSpaceAndComments advances over whitespace and # comments, which
// run to the end of the line.
func (l *Lexer) skipSpaceAndComments() error {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.pos++
		case '#':
			mark := l.pos
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
			if l.pos >= len(l.input) && !l.final {
				// The comment may continue in the next chunk.
				l.pos = mark
				return errNeedMore
			}
		default:
			return nil
		}
	}
	return nil
}

// primeRuneAt decodes the rune at index i and classifies it. It
// returns the rune and its size when the rune may appear in a prime
// token, (0, size) for a valid rune that may not, and (0, 0) when the
// buffer ends inside a multi-byte rune that more input could complete.
func (l *Lexer) primeRuneAt(i int) (rune, int) {
	c := l.input[i]
	if c < utf8.RuneSelf {
		if isPrimeByte(c) {
			return rune(c), 1
		}
		return 0, 1
	}
	if !utf8.FullRuneInString(l.input[i:]) && !l.final {
		return 0, 0
	}
	r, size := utf8.DecodeRuneInString(l.input[i:])
	if r == utf8.RuneError && size == 1 {
		return 0, 1
	}
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return r, size
	}
	return 0, size
}

// scanPrime scans an unquoted run. The run may contain spaces or tabs
// between prime characters; trailing ones are trimmed.
func (l *Lexer) scanPrime() (Token, error) {
	start := l.pos
	offset := l.base + start
	end := l.pos // exclusive end of the last prime rune seen
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == ' ' || c == '\t' {
			l.pos++
			continue
		}
		r, size := l.primeRuneAt(l.pos)
		if size == 0 {
			l.pos = start
			return Token{}, errNeedMore
		}
		if r == 0 {
			break
		}
		l.pos += size
		end = l.pos
	}
	if l.pos >= len(l.input) && !l.final {
		l.pos = start
		return Token{}, errNeedMore
	}
	l.pos = end // hand trailing spaces back to the whitespace skipper
	return Token{Type: TokenPrime, Text: l.input[start:end], Offset: offset}, nil
}

// isPrimeByte reports whether an ASCII byte may appear in a prime run.
func isPrimeByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '_', '.', '+', '-', '@':
		return true
	}
	return false
}

// ============================================================
// Quoted Strings
// ============================================================

// scanQuoted scans a string delimited by one of ' " `. The token text
// is the decoded content.
func (l *Lexer) scanQuoted() (Token, error) {
	start := l.pos
	offset := l.base + start
	quote := l.input[l.pos]
	l.pos++
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			if !l.final {
				l.pos = start
				return Token{}, errNeedMore
			}
			return Token{}, newParseError(l.input, start, offset, nil,
				"unterminated quoted string")
		}
		c := l.input[l.pos]
		if c == quote {
			l.pos++
			return Token{Type: TokenQuoted, Text: sb.String(), Offset: offset}, nil
		}
		if c != '\\' {
			sb.WriteByte(c)
			l.pos++
			continue
		}
		if err := l.scanEscape(start, &sb); err != nil {
			return Token{}, err
		}
	}
}

// scanEscape decodes one backslash escape at the current position into
// sb. tokenStart is where the enclosing token began, for rewinding
// when the buffer ends mid-escape.
func (l *Lexer) scanEscape(tokenStart int, sb *strings.Builder) error {
	if l.pos+1 >= len(l.input) {
		return l.cutOffEscape(tokenStart)
	}
	esc := l.input[l.pos+1]
	switch esc {
	case '\\', '\'', '"', '`':
		sb.WriteByte(esc)
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'v':
		sb.WriteByte('\v')
	case 'f':
		sb.WriteByte('\f')
	case '0':
		sb.WriteByte(0)
	case 'a':
		sb.WriteByte('\a')
	case 'e':
		sb.WriteByte('\'')
	case 'x':
		return l.scanHexEscape(tokenStart, sb, 2)
	case 'u':
		return l.scanHexEscape(tokenStart, sb, 4)
	case 'U':
		return l.scanHexEscape(tokenStart, sb, 8)
	default:
		return newParseError(l.input, l.pos, l.base+l.pos, nil,
			"invalid escape sequence \\%c", esc)
	}
	l.pos += 2
	return nil
}

// scanHexEscape decodes \xHH, \uHHHH, or \UHHHHHHHH with the given
// digit count. A \u escape naming a high surrogate must be followed by
// a \u low surrogate; the pair decodes to one code point.
func (l *Lexer) scanHexEscape(tokenStart int, sb *strings.Builder, ndig int) error {
	r, err := l.hexEscapeValue(tokenStart, ndig)
	if err != nil {
		return err
	}
	if ndig == 4 && r >= 0xD800 && r <= 0xDBFF {
		if l.pos+1 >= len(l.input) {
			return l.cutOffEscape(tokenStart)
		}
		if l.input[l.pos] != '\\' || l.input[l.pos+1] != 'u' {
			return newParseError(l.input, l.pos, l.base+l.pos, nil,
				"unpaired surrogate in \\u escape")
		}
		lo, err := l.hexEscapeValue(tokenStart, 4)
		if err != nil {
			return err
		}
		if lo < 0xDC00 || lo > 0xDFFF {
			return newParseError(l.input, l.pos, l.base+l.pos, nil,
				"unpaired surrogate in \\u escape")
		}
		r = ((r-0xD800)<<10 | (lo - 0xDC00)) + 0x10000
	} else if r >= 0xDC00 && r <= 0xDFFF {
		return newParseError(l.input, l.pos, l.base+l.pos, nil,
			"unpaired surrogate in \\u escape")
	}
	if r > unicode.MaxRune {
		return newParseError(l.input, l.pos, l.base+l.pos, nil,
			"code point %#x out of range", r)
	}
	sb.WriteRune(r)
	return nil
}

// hexEscapeValue reads the \?HH.. escape at the current position and
// advances past it, returning the code point value.
func (l *Lexer) hexEscapeValue(tokenStart, ndig int) (rune, error) {
	if l.pos+2+ndig > len(l.input) {
		return 0, l.cutOffEscape(tokenStart)
	}
	r := rune(0)
	for i := 0; i < ndig; i++ {
		v, ok := hexValue(l.input[l.pos+2+i])
		if !ok {
			return 0, newParseError(l.input, l.pos, l.base+l.pos, nil,
				"expected %d hex digits after \\%c", ndig, l.input[l.pos+1])
		}
		r = r<<4 | rune(v)
	}
	l.pos += 2 + ndig
	return r, nil
}

// cutOffEscape handles an escape running past the end of the buffer.
func (l *Lexer) cutOffEscape(tokenStart int) error {
	if !l.final {
		l.pos = tokenStart
		return errNeedMore
	}
	return newParseError(l.input, l.pos, l.base+l.pos, nil, "unterminated escape")
}

func hexValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}
