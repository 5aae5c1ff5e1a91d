package frid

import (
	"fmt"
	"strings"
	"time"
)

// Calendar date and time literal forms. The full shape is
// YYYY-MM-DDTHH[:]MM[[:]SS[.ffffff]][zone] where the colons inside the
// time are optional and the zone is Z, +HH, +HHMM, or +HH:MM. A bare
// date means midnight with no zone; a time of day alone is written
// with a 0T prefix and sits on the date 0001-01-01. The formatter
// always emits the colon-free form, which is also the only form that
// survives tokenization since ':' separates dict keys.

// ============================================================
// Parsing
// ============================================================

// ParseDateTime interprets s as a calendar date, time of day, or
// combined datetime literal. It returns nil when s has none of these
// shapes so callers can fall through to other interpretations.
func ParseDateTime(s string) *FridValue {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'T' || s[1] == 't') {
		tod, zone, n, ok := parseTimeCurt(s[2:])
		if !ok || 2+n != len(s) {
			return nil
		}
		return makeDateTime(1, time.January, 1, tod, zone)
	}
	year, month, day, ok := parseDateOnly(s)
	if !ok {
		return nil
	}
	if len(s) == 10 {
		return makeDateTime(year, month, day, timeOfDay{}, nil)
	}
	switch s[10] {
	case 'T', 't', '_', ' ':
	default:
		return nil
	}
	tod, zone, n, ok := parseTimeCurt(s[11:])
	if !ok || 11+n != len(s) {
		return nil
	}
	return makeDateTime(year, month, day, tod, zone)
}

// timeOfDay carries the wall-clock fields of a time literal.
type timeOfDay struct {
	hour, minute, second int
	micro                int
}

// makeDateTime builds the value, zoned when zone is a UTC offset in
// seconds and naive when zone is nil.
func makeDateTime(year int, month time.Month, day int, tod timeOfDay, zone *int) *FridValue {
	loc := time.UTC
	if zone != nil && *zone != 0 {
		loc = time.FixedZone("", *zone)
	}
	t := time.Date(year, month, day, tod.hour, tod.minute, tod.second, tod.micro*1000, loc)
	if zone == nil {
		return NaiveDateTime(t)
	}
	return DateTime(t)
}

// parseDateOnly reads a leading YYYY-MM-DD and checks it names a real
// calendar date.
func parseDateOnly(s string) (int, time.Month, int, bool) {
	if len(s) < 10 || s[4] != '-' || s[7] != '-' {
		return 0, 0, 0, false
	}
	year, ok := atoiFixed(s[0:4])
	if !ok {
		return 0, 0, 0, false
	}
	month, ok := atoiFixed(s[5:7])
	if !ok || month < 1 || month > 12 {
		return 0, 0, 0, false
	}
	day, ok := atoiFixed(s[8:10])
	if !ok || day < 1 || day > 31 {
		return 0, 0, 0, false
	}
	// time.Date normalizes out-of-range days instead of failing.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return 0, 0, 0, false
	}
	return year, time.Month(month), day, true
}

// parseTimeCurt reads HH[:]MM[[:]SS[.ffffff]][zone] from the start of
// s. It returns the number of bytes consumed; the zone result is nil
// when no zone is present.
func parseTimeCurt(s string) (timeOfDay, *int, int, bool) {
	var tod timeOfDay
	var ok bool
	pos := 0
	tod.hour, ok = atoiFixedAt(s, &pos, 2)
	if !ok || tod.hour > 23 {
		return tod, nil, 0, false
	}
	if pos < len(s) && s[pos] == ':' {
		pos++
	}
	tod.minute, ok = atoiFixedAt(s, &pos, 2)
	if !ok || tod.minute > 59 {
		return tod, nil, 0, false
	}
	mark := pos
	if pos < len(s) && s[pos] == ':' {
		pos++
	}
	if sec, ok := atoiFixedAt(s, &pos, 2); ok && sec <= 59 {
		tod.second = sec
		if pos < len(s) && s[pos] == '.' {
			pos++
			start := pos
			for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
				pos++
			}
			if pos == start {
				return tod, nil, 0, false
			}
			frac := s[start:pos]
			if len(frac) > 6 {
				frac = frac[:6]
			}
			micro, _ := atoiFixed(frac)
			for i := len(frac); i < 6; i++ {
				micro *= 10
			}
			tod.micro = micro
		}
	} else {
		pos = mark // no seconds field
	}
	zone, n, ok := parseZone(s[pos:])
	if !ok {
		return tod, nil, 0, false
	}
	return tod, zone, pos + n, true
}

// parseZone reads an optional zone suffix. A missing zone is valid and
// returns a nil offset.
func parseZone(s string) (*int, int, bool) {
	if s == "" {
		return nil, 0, true
	}
	if s[0] == 'Z' || s[0] == 'z' {
		zero := 0
		return &zero, 1, true
	}
	if s[0] != '+' && s[0] != '-' {
		return nil, 0, true
	}
	pos := 1
	hh, ok := atoiFixedAt(s, &pos, 2)
	if !ok || hh > 23 {
		return nil, 0, false
	}
	mm := 0
	if pos < len(s) {
		if s[pos] == ':' {
			pos++
		}
		mm, ok = atoiFixedAt(s, &pos, 2)
		if !ok || mm > 59 {
			return nil, 0, false
		}
	}
	off := (hh*60 + mm) * 60
	if s[0] == '-' {
		off = -off
	}
	return &off, pos, true
}

// atoiFixed converts a string of ASCII digits only.
func atoiFixed(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, len(s) > 0
}

// atoiFixedAt converts width digits at *pos, advancing it on success.
func atoiFixedAt(s string, pos *int, width int) (int, bool) {
	if *pos+width > len(s) {
		return 0, false
	}
	n, ok := atoiFixed(s[*pos : *pos+width])
	if !ok {
		return 0, false
	}
	*pos += width
	return n, true
}

// ============================================================
// Formatting
// ============================================================

// FormatDateTime renders the colon-free literal form of an instant.
// A naive midnight becomes a bare date; any value on the date
// 0001-01-01 becomes a 0T time of day. The fraction keeps 0, 3, or 6
// digits so the output parses back to the same value.
func FormatDateTime(t time.Time, naive bool) string {
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	micro := t.Nanosecond() / 1000
	if naive && h == 0 && mi == 0 && sec == 0 && micro == 0 {
		return fmt.Sprintf("%04d-%02d-%02d", y, int(mo), d)
	}
	var sb strings.Builder
	if y == 1 && mo == time.January && d == 1 {
		sb.WriteString("0T")
	} else {
		fmt.Fprintf(&sb, "%04d-%02d-%02dT", y, int(mo), d)
	}
	fmt.Fprintf(&sb, "%02d%02d%02d", h, mi, sec)
	if micro != 0 {
		if micro%1000 == 0 {
			fmt.Fprintf(&sb, ".%03d", micro/1000)
		} else {
			fmt.Fprintf(&sb, ".%06d", micro)
		}
	}
	if !naive {
		_, off := t.Zone()
		if off == 0 {
			sb.WriteByte('Z')
		} else {
			sign := byte('+')
			if off < 0 {
				sign = '-'
				off = -off
			}
			fmt.Fprintf(&sb, "%c%02d%02d", sign, off/3600, (off%3600)/60)
		}
	}
	return sb.String()
}
