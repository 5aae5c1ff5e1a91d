package frid

import (
	"errors"
	"fmt"
	"strings"
)

// StreamLoader parses one value from input arriving in fragments. Feed
// it successive chunks, then call Finish for the value. The loader is
// a flat state machine over tokens; it never blocks and spawns no
// goroutines, so a chunk may be split at any byte, even inside a token
// or an escape sequence.
type StreamLoader struct {
	opts LoadOptions

	buf  string // unconsumed input
	base int    // global offset of buf[0]
	toks []Token

	frames   []streamFrame
	root     *FridValue
	done     bool
	finished bool
	err      error

	// quoted concatenation in progress
	textOn  bool
	textTok Token
	textAcc strings.Builder
}

// NewStreamLoader creates a stream loader parsing a single value.
func NewStreamLoader(opts LoadOptions) *StreamLoader {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &StreamLoader{opts: opts}
}

type frameKind uint8

const (
	frameList frameKind = iota
	frameDict
	frameCall
)

type frameState uint8

const (
	stateOpen  frameState = iota // just opened: first item or close
	stateNext                    // after a comma: an item must follow
	stateColon                   // dict: expecting ':' after a key
	stateValue                   // expecting the value for key
	stateSep                     // expecting ',' or the closer
)

type streamFrame struct {
	kind  frameKind
	state frameState

	list *FridValue // frameList
	dict *FridValue // frameDict
	args *NakedArgs // frameCall

	key    string // pending dict key or keyword name
	keyTok Token

	name    string // frameCall constructor
	nameTok Token
	kwdSeen bool
}

// ============================================================
// Public Surface
// ============================================================

// Feed appends a chunk and advances the parse as far as the input
// allows. It returns the number of bytes retired from the internal
// buffer. Running out of input mid-token is not an error; a syntax
// error is returned immediately and every later call fails with it.
func (s *StreamLoader) Feed(chunk string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.finished {
		return 0, errors.New("frid: Feed after Finish")
	}
	s.buf += chunk
	return s.advance(false)
}

// Complete reports whether a whole value has been parsed. A top-level
// scalar may stay incomplete until Finish since more input could
// extend it.
func (s *StreamLoader) Complete() bool {
	return s.done && s.err == nil
}

// Finish marks the end of input and returns the parsed value. Input
// that stops inside a value yields a ParseError at the end offset with
// the structural path of the open container.
func (s *StreamLoader) Finish() (*FridValue, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.finished {
		return s.root, nil
	}
	s.finished = true
	if _, err := s.advance(true); err != nil {
		return nil, err
	}
	if !s.done {
		err := newParseError(s.buf, len(s.buf), s.base+len(s.buf), s.currentPath(),
			"unexpected end of input")
		s.err = err
		return nil, err
	}
	if !s.opts.AllowTrailing {
		if err := s.checkTrailing(); err != nil {
			s.err = err
			return nil, err
		}
	}
	return s.root, nil
}

// checkTrailing verifies nothing but whitespace and comments follows
// the value: first any tokens pulled ahead, then the leftover buffer.
func (s *StreamLoader) checkTrailing() error {
	for _, tok := range s.toks {
		if tok.Type != TokenEOF {
			return s.errAt(tok, "trailing data after the value")
		}
	}
	lex := newChunkLexer(s.buf, s.base, true)
	tok, err := lex.nextToken()
	if err != nil {
		return err
	}
	if tok.Type != TokenEOF {
		return s.errAt(tok, "trailing data after the value")
	}
	return nil
}

// ============================================================
// Machine
// ============================================================

// advance runs the machine until the value completes, the input runs
// out, or a syntax error latches. The consumed buffer prefix is
// dropped; token offsets stay absolute via base.
func (s *StreamLoader) advance(final bool) (int, error) {
	lex := newChunkLexer(s.buf, s.base, final)
	var err error
	for !s.done {
		if err = s.step(lex); err != nil {
			break
		}
	}
	retired := lex.pos
	s.buf = s.buf[retired:]
	s.base += retired
	if err == nil || err == errNeedMore {
		return retired, nil
	}
	s.err = err
	return retired, err
}

// step consumes enough tokens to make one state transition.
func (s *StreamLoader) step(lex *Lexer) error {
	if s.textOn {
		tok, err := s.peek(lex, 0)
		if err != nil {
			return err
		}
		if tok.Type == TokenQuoted {
			s.take()
			s.textAcc.WriteString(tok.Text)
			return nil
		}
		return s.finishText()
	}
	if len(s.frames) == 0 {
		return s.wantValue(lex)
	}
	f := &s.frames[len(s.frames)-1]
	switch f.kind {
	case frameList:
		switch f.state {
		case stateOpen:
			tok, err := s.peek(lex, 0)
			if err != nil {
				return err
			}
			if tok.Type == TokenEndList {
				s.take()
				return s.closeFrame()
			}
			f.state = stateNext
			return s.wantValue(lex)
		case stateNext:
			return s.wantValue(lex)
		default: // stateSep
			tok, err := s.peek(lex, 0)
			if err != nil {
				return err
			}
			s.take()
			switch tok.Type {
			case TokenComma:
				f.state = stateNext
				return nil
			case TokenEndList:
				return s.closeFrame()
			case TokenEOF:
				return s.eofErr(tok)
			default:
				return s.errAt(tok, "expected ',' or ']' after list entry %d", f.list.Len()-1)
			}
		}
	case frameDict:
		switch f.state {
		case stateOpen, stateNext:
			tok, err := s.peek(lex, 0)
			if err != nil {
				return err
			}
			if f.state == stateOpen && tok.Type == TokenEndDict {
				s.take()
				return s.closeFrame()
			}
			f.state = stateNext
			return s.wantKey(lex)
		case stateColon:
			tok, err := s.peek(lex, 0)
			if err != nil {
				return err
			}
			s.take()
			if tok.Type == TokenEOF {
				return s.eofErr(tok)
			}
			if tok.Type != TokenColon {
				return s.errAt(tok, "expected ':' after key %q", f.key)
			}
			f.state = stateValue
			return nil
		case stateValue:
			return s.wantValue(lex)
		default: // stateSep
			tok, err := s.peek(lex, 0)
			if err != nil {
				return err
			}
			s.take()
			switch tok.Type {
			case TokenComma:
				f.state = stateNext
				return nil
			case TokenEndDict:
				return s.closeFrame()
			case TokenEOF:
				return s.eofErr(tok)
			default:
				return s.errAt(tok, "expected ',' or '}' after the value for %q", f.key)
			}
		}
	default: // frameCall
		switch f.state {
		case stateOpen:
			tok, err := s.peek(lex, 0)
			if err != nil {
				return err
			}
			if tok.Type == TokenEndExpr {
				s.take()
				return s.closeFrame()
			}
			f.state = stateNext
			return s.wantArg(lex)
		case stateNext:
			return s.wantArg(lex)
		case stateValue:
			return s.wantValue(lex)
		default: // stateSep
			tok, err := s.peek(lex, 0)
			if err != nil {
				return err
			}
			s.take()
			switch tok.Type {
			case TokenComma:
				f.state = stateNext
				return nil
			case TokenEndExpr:
				return s.closeFrame()
			case TokenEOF:
				return s.eofErr(tok)
			default:
				return s.errAt(tok, "expected ',' between arguments, found '%s'", tok.Type)
			}
		}
	}
}

// wantValue consumes the start of a value at the current position.
func (s *StreamLoader) wantValue(lex *Lexer) error {
	tok, err := s.peek(lex, 0)
	if err != nil {
		return err
	}
	if len(s.frames) >= s.opts.MaxDepth {
		return &RangeError{Message: fmt.Sprintf(
			"nesting deeper than %d levels at offset %d (path %s)",
			s.opts.MaxDepth, tok.Offset, s.currentPath())}
	}
	switch tok.Type {
	case TokenBeginList:
		s.take()
		s.frames = append(s.frames, streamFrame{kind: frameList, state: stateOpen, list: List()})
		return nil
	case TokenBeginDict:
		s.take()
		s.frames = append(s.frames, streamFrame{kind: frameDict, state: stateOpen, dict: Dict()})
		return nil
	case TokenQuoted:
		s.take()
		s.textOn = true
		s.textTok = tok
		s.textAcc.Reset()
		s.textAcc.WriteString(tok.Text)
		return nil
	case TokenPrime:
		after, err := s.peek(lex, 1)
		if err != nil {
			return err
		}
		if after.Type == TokenBeginExpr && IsFridIdentifier(tok.Text) {
			s.take()
			s.take()
			if s.opts.Mixins[tok.Text] == nil {
				return s.errAt(tok, "no constructor named %q", tok.Text)
			}
			s.frames = append(s.frames, streamFrame{
				kind: frameCall, state: stateOpen, args: &NakedArgs{},
				name: tok.Text, nameTok: tok,
			})
			return nil
		}
		s.take()
		v, err := interpretPrimeToken(tok, &s.opts, s.currentPath(), s.errAt)
		if err != nil {
			return err
		}
		return s.emit(v)
	case TokenEOF:
		return s.eofErr(tok)
	default:
		return s.errAt(tok, "expected a value, found '%s'", tok.Type)
	}
}

// wantKey consumes a dict key.
func (s *StreamLoader) wantKey(lex *Lexer) error {
	tok, err := s.peek(lex, 0)
	if err != nil {
		return err
	}
	f := &s.frames[len(s.frames)-1]
	switch tok.Type {
	case TokenQuoted:
		s.take()
		s.textOn = true
		s.textTok = tok
		s.textAcc.Reset()
		s.textAcc.WriteString(tok.Text)
		return nil
	case TokenPrime:
		s.take()
		v, err := interpretPrimeToken(tok, &s.opts, s.currentPath(), s.errAt)
		if err != nil {
			return err
		}
		key, aerr := v.AsText()
		if aerr != nil {
			return s.errAt(tok, "invalid key of type %s", v.Type())
		}
		f.key = key
		f.keyTok = tok
		f.state = stateColon
		return nil
	case TokenEOF:
		return s.eofErr(tok)
	default:
		return s.errAt(tok, "expected a key, found '%s'", tok.Type)
	}
}

// wantArg consumes the start of an argument, which is a keyword when
// an identifier is directly followed by '='.
func (s *StreamLoader) wantArg(lex *Lexer) error {
	tok, err := s.peek(lex, 0)
	if err != nil {
		return err
	}
	f := &s.frames[len(s.frames)-1]
	if tok.Type == TokenPrime && IsFridIdentifier(tok.Text) {
		after, err := s.peek(lex, 1)
		if err != nil {
			return err
		}
		if after.Type == TokenEquals {
			s.take()
			s.take()
			f.key = tok.Text
			f.keyTok = tok
			f.kwdSeen = true
			f.state = stateValue
			return nil
		}
	}
	if f.kwdSeen {
		return s.errAt(tok, "positional argument after keyword arguments")
	}
	return s.wantValue(lex)
}

// finishText closes a quoted concatenation and routes the text as a
// key or a value depending on what the innermost frame expects.
func (s *StreamLoader) finishText() error {
	s.textOn = false
	text := s.textAcc.String()
	s.textAcc.Reset()
	if len(s.frames) > 0 {
		f := &s.frames[len(s.frames)-1]
		if f.kind == frameDict && (f.state == stateOpen || f.state == stateNext) {
			f.key = text
			f.keyTok = s.textTok
			f.state = stateColon
			return nil
		}
	}
	return s.emit(Text(text))
}

// emit routes a completed value into the innermost frame, or makes it
// the result when no frame is open.
func (s *StreamLoader) emit(v *FridValue) error {
	if len(s.frames) == 0 {
		s.root = v
		s.done = true
		return nil
	}
	f := &s.frames[len(s.frames)-1]
	switch f.kind {
	case frameList:
		f.list.Append(v)
	case frameDict:
		if s.opts.RejectDupKeys && f.dict.Get(f.key) != nil {
			return s.errAt(f.keyTok, "duplicate key %q", f.key)
		}
		f.dict.Set(f.key, v)
	case frameCall:
		if f.state == stateValue {
			if s.opts.RejectDupKeys && f.args.Get(f.key) != nil {
				return s.errAt(f.keyTok, "duplicate keyword %q", f.key)
			}
			f.args.putKwd(f.key, v)
		} else {
			f.args.Args = append(f.args.Args, v)
		}
	}
	f.state = stateSep
	return nil
}

// closeFrame pops the innermost frame and emits its value. A call
// frame runs its constructor.
func (s *StreamLoader) closeFrame() error {
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	switch f.kind {
	case frameList:
		return s.emit(f.list)
	case frameDict:
		return s.emit(f.dict)
	default:
		fn := s.opts.Mixins[f.name]
		v, err := fn(f.name, f.args)
		if err != nil {
			return s.errAt(f.nameTok, "constructor %s: %v", f.name, err)
		}
		if v == nil {
			v = Null()
		}
		return s.emit(v)
	}
}

// ============================================================
// Token Pull
// ============================================================

// peek returns the i-th unconsumed token, pulling from the lexer as
// needed. A lexer error gains the current structural path.
func (s *StreamLoader) peek(lex *Lexer, i int) (Token, error) {
	for len(s.toks) <= i {
		tok, err := lex.nextToken()
		if err != nil {
			if err != errNeedMore {
				if pe, ok := err.(*ParseError); ok && pe.Path == nil {
					pe.Path = s.currentPath()
				}
			}
			return Token{}, err
		}
		s.toks = append(s.toks, tok)
	}
	return s.toks[i], nil
}

func (s *StreamLoader) take() Token {
	tok := s.toks[0]
	s.toks = s.toks[1:]
	return tok
}

// currentPath derives the structural path from the open frames,
// matching what the batch loader would report at the same point.
func (s *StreamLoader) currentPath() Path {
	p := make(Path, 0, len(s.frames))
	for i := range s.frames {
		f := &s.frames[i]
		switch f.kind {
		case frameList:
			if f.state == stateNext {
				p = append(p, PathStep{IsIndex: true, Index: f.list.Len()})
			}
		case frameDict:
			if f.state == stateValue {
				p = append(p, PathStep{Key: f.key})
			}
		case frameCall:
			if f.state == stateValue {
				p = append(p, PathStep{Key: f.key})
			} else if f.state == stateNext && !f.kwdSeen {
				p = append(p, PathStep{IsIndex: true, Index: len(f.args.Args)})
			}
		}
	}
	return p
}

func (s *StreamLoader) errAt(tok Token, format string, args ...any) error {
	return newParseError(s.buf, tok.Offset-s.base, tok.Offset, s.currentPath(), format, args...)
}

func (s *StreamLoader) eofErr(tok Token) error {
	return s.errAt(tok, "unexpected end of input")
}
