package frid

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// DumpOptions configures serialization. The zero value is the compact
// canonical form.
type DumpOptions struct {
	// Pretty writes one entry per line with indentation.
	Pretty bool
	// Indent is the indentation unit for Pretty. Two spaces when empty.
	Indent string
	// SortKeys orders dict entries by key instead of insertion order.
	SortKeys bool
	// Base is the integer base: 0 or 10 for plain decimal, or 2, 8, 16
	// written with the 0b/0o/0x prefix.
	Base int
	// GroupSep separates digit groups in integers. Only '_' survives a
	// reload, so any other rune is rejected.
	GroupSep rune
	// GroupSize is the digits per group when GroupSep is set. Three
	// when zero.
	GroupSize int
	// Murky36 writes zoned datetimes as 0m-prefixed murky36 digits
	// when the instant is in range. Naive datetimes keep the calendar
	// form since murky36 fixes the zone to UTC.
	Murky36 bool
	// AsciiOnly escapes every rune above 0x7f in quoted strings.
	AsciiOnly bool
}

// DefaultDumpOptions returns the options used by Dump.
func DefaultDumpOptions() DumpOptions {
	return DumpOptions{}
}

// Dump serializes a value in the compact canonical form. The output
// loads back to a value equal to the input.
func Dump(v *FridValue) string {
	s, _ := DumpWithOptions(v, DefaultDumpOptions())
	return s
}

// DumpWithOptions serializes a value. The only failures are invalid
// options.
func DumpWithOptions(v *FridValue, opts DumpOptions) (string, error) {
	if err := checkDumpOptions(&opts); err != nil {
		return "", err
	}
	d := &dumper{opts: opts}
	d.writeValue(v, 0)
	return d.sb.String(), nil
}

func checkDumpOptions(opts *DumpOptions) error {
	switch opts.Base {
	case 0:
		opts.Base = 10
	case 2, 8, 10, 16:
	default:
		return &RangeError{Message: fmt.Sprintf(
			"base %d has no integer prefix and would not load back", opts.Base)}
	}
	if opts.GroupSep != 0 && opts.GroupSep != '_' {
		return &RangeError{Message: fmt.Sprintf(
			"group separator %q would not load back", opts.GroupSep)}
	}
	if opts.GroupSize <= 0 {
		opts.GroupSize = 3
	}
	if opts.Pretty && opts.Indent == "" {
		opts.Indent = "  "
	}
	return nil
}

type dumper struct {
	sb   strings.Builder
	opts DumpOptions
}

func (d *dumper) writeValue(v *FridValue, depth int) {
	if v == nil {
		d.sb.WriteByte('.')
		return
	}
	switch v.typ {
	case TypeNull:
		d.sb.WriteByte('.')
	case TypeBool:
		if v.boolVal {
			d.sb.WriteByte('+')
		} else {
			d.sb.WriteByte('-')
		}
	case TypeInt:
		d.writeInt(v)
	case TypeReal:
		d.writeReal(v.realVal)
	case TypeText:
		d.writeText(v.textVal)
	case TypeBlob:
		d.writeBlob(v.blobVal)
	case TypeDateTime:
		d.writeDateTime(v)
	case TypeList:
		d.writeList(v, depth)
	case TypeDict:
		d.writeDict(v, depth)
	}
}

func (d *dumper) writeInt(v *FridValue) {
	var n big.Int
	if v.bigVal != nil {
		n.Set(v.bigVal)
	} else {
		n.SetInt64(v.intVal)
	}
	if n.Sign() < 0 {
		n.Neg(&n)
		d.sb.WriteByte('-')
	}
	switch d.opts.Base {
	case 2:
		d.sb.WriteString("0b")
	case 8:
		d.sb.WriteString("0o")
	case 16:
		d.sb.WriteString("0x")
	}
	var io IntOptions
	if d.opts.GroupSep != 0 {
		io.GroupSep = d.opts.GroupSep
		io.GroupSize = d.opts.GroupSize
	}
	s, _ := FormatIntWithOptions(&n, d.opts.Base, io)
	d.sb.WriteString(s)
}

// writeReal keeps the value a real on reload: a formatting without a
// point or exponent gains a ".0".
func (d *dumper) writeReal(f float64) {
	switch {
	case math.IsNaN(f):
		if math.Signbit(f) {
			d.sb.WriteString("-.")
		} else {
			d.sb.WriteString("+.")
		}
	case math.IsInf(f, 1):
		d.sb.WriteString("++")
	case math.IsInf(f, -1):
		d.sb.WriteString("--")
	default:
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		d.sb.WriteString(s)
	}
}

func (d *dumper) writeText(s string) {
	if IsQuoteFree(s) && d.bareAllowed(s) {
		d.sb.WriteString(s)
		return
	}
	d.writeQuoted(s)
}

// bareAllowed rejects unquoted output that AsciiOnly could not escape.
func (d *dumper) bareAllowed(s string) bool {
	if !d.opts.AsciiOnly {
		return true
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func (d *dumper) writeQuoted(s string) {
	d.sb.WriteByte('"')
	for _, r := range s {
		d.writeEscaped(r)
	}
	d.sb.WriteByte('"')
}

func (d *dumper) writeEscaped(r rune) {
	switch r {
	case '\\':
		d.sb.WriteString(`\\`)
	case '"':
		d.sb.WriteString(`\"`)
	case '\n':
		d.sb.WriteString(`\n`)
	case '\t':
		d.sb.WriteString(`\t`)
	case '\r':
		d.sb.WriteString(`\r`)
	case '\b':
		d.sb.WriteString(`\b`)
	case '\v':
		d.sb.WriteString(`\v`)
	case '\f':
		d.sb.WriteString(`\f`)
	case 0:
		d.sb.WriteString(`\0`)
	case '\a':
		d.sb.WriteString(`\a`)
	default:
		switch {
		case r >= 0x20 && r < 0x7f:
			d.sb.WriteRune(r)
		case r < 0x100:
			if !d.opts.AsciiOnly && unicode.IsPrint(r) {
				d.sb.WriteRune(r)
			} else {
				fmt.Fprintf(&d.sb, `\x%02x`, r)
			}
		case r <= 0xffff:
			if !d.opts.AsciiOnly && unicode.IsPrint(r) {
				d.sb.WriteRune(r)
			} else {
				fmt.Fprintf(&d.sb, `\u%04x`, r)
			}
		default:
			if !d.opts.AsciiOnly && unicode.IsPrint(r) {
				d.sb.WriteRune(r)
			} else {
				fmt.Fprintf(&d.sb, `\U%08x`, r)
			}
		}
	}
}

// writeBlob emits .. then base64url with the padding replaced by one
// trailing dot per stripped '='.
func (d *dumper) writeBlob(data []byte) {
	out := base64.URLEncoding.EncodeToString(data)
	d.sb.WriteString("..")
	switch {
	case strings.HasSuffix(out, "=="):
		d.sb.WriteString(out[:len(out)-2])
		d.sb.WriteString("..")
	case strings.HasSuffix(out, "="):
		d.sb.WriteString(out[:len(out)-1])
		d.sb.WriteByte('.')
	default:
		d.sb.WriteString(out)
	}
}

func (d *dumper) writeDateTime(v *FridValue) {
	if d.opts.Murky36 && !v.naive {
		if s, err := FormatMurky36(v.timeVal); err == nil {
			d.sb.WriteString("0m")
			d.sb.WriteString(s)
			return
		}
	}
	d.sb.WriteString(FormatDateTime(v.timeVal, v.naive))
}

func (d *dumper) writeList(v *FridValue, depth int) {
	if len(v.listVal) == 0 {
		d.sb.WriteString("[]")
		return
	}
	d.sb.WriteByte('[')
	for i, e := range v.listVal {
		if i > 0 {
			d.sb.WriteByte(',')
		}
		d.newlineIndent(depth + 1)
		d.writeValue(e, depth+1)
	}
	d.newlineIndent(depth)
	d.sb.WriteByte(']')
}

func (d *dumper) writeDict(v *FridValue, depth int) {
	entries := v.dictVal
	if len(entries) == 0 {
		d.sb.WriteString("{}")
		return
	}
	if d.opts.SortKeys {
		entries = append([]MapEntry(nil), entries...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	}
	d.sb.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			d.sb.WriteByte(',')
		}
		d.newlineIndent(depth + 1)
		d.writeKey(e.Key)
		d.sb.WriteByte(':')
		if d.opts.Pretty {
			d.sb.WriteByte(' ')
		}
		d.writeValue(e.Value, depth+1)
	}
	d.newlineIndent(depth)
	d.sb.WriteByte('}')
}

// writeKey emits identifier-shaped keys bare. A key spelling a float,
// like inf or nan, stays quoted so it reads back as a key.
func (d *dumper) writeKey(key string) {
	if IsFridIdentifier(key) && !isFloatSpelling(key) && d.bareAllowed(key) {
		d.sb.WriteString(key)
		return
	}
	d.writeQuoted(key)
}

func (d *dumper) newlineIndent(depth int) {
	if !d.opts.Pretty {
		return
	}
	d.sb.WriteByte('\n')
	for i := 0; i < depth; i++ {
		d.sb.WriteString(d.opts.Indent)
	}
}
