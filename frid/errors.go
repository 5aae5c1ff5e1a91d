package frid

import (
	"fmt"
	"strconv"
	"strings"
)

// PathStep is one step in a structural path into a value tree.
type PathStep struct {
	IsIndex bool   // true if list index, false if dict key
	Index   int    // list index (if IsIndex)
	Key     string // dict key (if !IsIndex)
}

// Path locates a value inside a nested tree, from the root down.
type Path []PathStep

// String renders the path in the /key/3/sub form. The root path
// renders as the empty string.
func (p Path) String() string {
	var sb strings.Builder
	for _, step := range p {
		sb.WriteByte('/')
		if step.IsIndex {
			sb.WriteString(strconv.Itoa(step.Index))
		} else {
			sb.WriteString(step.Key)
		}
	}
	return sb.String()
}

// ============================================================
// Error Types
// ============================================================

// ParseError reports a syntax error in the input text. Offset is the
// byte offset from the start of the input, counted across all chunks
// when loading incrementally. Path locates the innermost container
// being parsed when the error was found.
type ParseError struct {
	Message string
	Offset  int
	Path    Path

	near string // excerpt of the input around the offset
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString("frid: ")
	sb.WriteString(e.Message)
	sb.WriteString(" at offset ")
	sb.WriteString(strconv.Itoa(e.Offset))
	if len(e.Path) > 0 {
		sb.WriteString(" (path ")
		sb.WriteString(e.Path.String())
		sb.WriteByte(')')
	}
	if e.near != "" {
		sb.WriteString(" near ")
		sb.WriteString(e.near)
	}
	return sb.String()
}

// parseErrCtx is the number of bytes shown on each side of the error
// position in the excerpt.
const parseErrCtx = 16

// newParseError builds a ParseError with an excerpt of src around the
// local index. The offset recorded on the error is the global one,
// which differs from idx when src is a compacted incremental buffer.
func newParseError(src string, idx, offset int, path Path, format string, args ...any) *ParseError {
	e := &ParseError{
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
		Path:    append(Path(nil), path...),
	}
	if src != "" {
		if idx < 0 {
			idx = 0
		} else if idx > len(src) {
			idx = len(src)
		}
		lo := idx - parseErrCtx
		hi := idx + parseErrCtx
		var sb strings.Builder
		sb.WriteRune('⟨')
		if lo > 0 {
			sb.WriteRune('…')
		} else {
			lo = 0
		}
		sb.WriteString(src[lo:idx])
		sb.WriteRune('‣')
		if hi < len(src) {
			sb.WriteString(src[idx:hi])
			sb.WriteRune('…')
		} else {
			sb.WriteString(src[idx:])
		}
		sb.WriteRune('⟩')
		e.near = sb.String()
	}
	return e
}

// InvalidDigitError reports a character that is not a valid digit for
// the base in use.
type InvalidDigitError struct {
	Char   rune
	Base   int
	Offset int
}

func (e *InvalidDigitError) Error() string {
	return fmt.Sprintf("frid: invalid digit %q for base %d at offset %d", e.Char, e.Base, e.Offset)
}

// RangeError reports a value outside the supported range, such as a
// base outside 2..36, a timestamp beyond the fixed-width datetime
// range, or nesting beyond the configured depth limit.
type RangeError struct {
	Message string
}

func (e *RangeError) Error() string {
	return "frid: " + e.Message
}
