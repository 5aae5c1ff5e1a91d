package frid

import (
	"fmt"
	"strconv"
	"strings"
)

// Quantity is an aggregate of value-unit pairs parsed from a compact
// form like "5ft4in" or "-4h30m". A sign carries over to the following
// pairs until another sign changes it, so "-4h30m" is -4 hours and -30
// minutes while "4h-30m" is 4 hours and -30 minutes. At most one pair
// may omit the unit and it must be the last.
type Quantity struct {
	entries []QuantityEntry
}

// QuantityEntry is one value-unit pair. The empty unit marks the
// trailing bare number.
type QuantityEntry struct {
	Unit  string
	Value float64
}

// ParseQuantity parses a value-unit sequence accepting any unit name.
func ParseQuantity(s string) (*Quantity, error) {
	return parseQuantity(s, nil)
}

// ParseQuantityUnits parses a value-unit sequence restricted to the
// given units. Map keys are the canonical names, values list aliases;
// parsed entries appear under the canonical name. Include an empty
// canonical name to permit a trailing bare number.
func ParseQuantityUnits(s string, units map[string][]string) (*Quantity, error) {
	alias := make(map[string]string, len(units))
	for canon := range units {
		alias[canon] = canon
	}
	for canon, names := range units {
		for _, n := range names {
			if prev, ok := alias[n]; ok && prev != canon {
				return nil, fmt.Errorf("frid: unit alias %q is bound to both %q and %q", n, prev, canon)
			}
			alias[n] = canon
		}
	}
	return parseQuantity(s, alias)
}

func parseQuantity(s string, alias map[string]string) (*Quantity, error) {
	q := &Quantity{}
	pos := 0
	negated := false
	for pos < len(s) {
		i := skipQuantitySpace(s, pos)
		sign := byte(0)
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			sign = s[i]
			i = skipQuantitySpace(s, i+1)
		}
		numStart := i
		for i < len(s) && isDigitByte(s[i]) {
			i++
		}
		if i == numStart {
			break
		}
		if i+1 < len(s) && s[i] == '.' && isDigitByte(s[i+1]) {
			i++
			for i < len(s) && isDigitByte(s[i]) {
				i++
			}
		}
		v, err := strconv.ParseFloat(s[numStart:i], 64)
		if err != nil {
			return nil, newParseError(s, numStart, numStart, nil, "invalid number in quantity")
		}
		switch sign {
		case '-':
			negated = true
		case '+':
			negated = false
		}
		if negated {
			v = -v
		}
		unitStart := skipQuantitySpace(s, i)
		i = unitStart
		for i < len(s) && isLatinLetter(s[i]) {
			i++
		}
		unit := s[unitStart:i]
		if alias != nil {
			canon, ok := alias[unit]
			if !ok {
				return nil, newParseError(s, pos, pos, nil, "unit %q is not allowed", unit)
			}
			unit = canon
		}
		if _, dup := q.Get(unit); dup {
			return nil, newParseError(s, unitStart, unitStart, nil, "unit %q appears a second time", unit)
		}
		q.entries = append(q.entries, QuantityEntry{Unit: unit, Value: v})
		pos = i
		if unit == "" {
			break
		}
	}
	if rest := strings.TrimSpace(s[pos:]); rest != "" {
		return nil, newParseError(s, pos, pos, nil, "trailing text of %d characters", len(s)-pos)
	}
	return q, nil
}

func skipQuantitySpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func isDigitByte(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLatinLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Len returns the number of value-unit pairs.
func (q *Quantity) Len() int {
	return len(q.entries)
}

// Entries returns a copy of the pairs in parse order.
func (q *Quantity) Entries() []QuantityEntry {
	return append([]QuantityEntry(nil), q.entries...)
}

// Get returns the value for a unit and whether the unit is present.
// The empty unit names the trailing bare number.
func (q *Quantity) Get(unit string) (float64, bool) {
	for _, e := range q.entries {
		if e.Unit == unit {
			return e.Value, true
		}
	}
	return 0, false
}

// Value reduces the quantity to one number by scaling each pair by its
// unit's factor and summing. The empty unit defaults to a factor of 1;
// any other unit missing from scaling is an error.
func (q *Quantity) Value(scaling map[string]float64) (float64, error) {
	var sum float64
	for _, e := range q.entries {
		f, ok := scaling[e.Unit]
		if !ok {
			if e.Unit != "" {
				return 0, fmt.Errorf("frid: no scaling for unit %q", e.Unit)
			}
			f = 1
		}
		sum += e.Value * f
	}
	return sum, nil
}

// String returns a normalized form that parses back to the same
// quantity: a minus sign starts a negated run, a plus sign ends it,
// and the bare number goes last.
func (q *Quantity) String() string {
	var sb strings.Builder
	negated := false
	var tail *QuantityEntry
	for i := range q.entries {
		e := &q.entries[i]
		if e.Unit == "" {
			tail = e
			continue
		}
		s := formatQuantityNum(e.Value)
		if strings.HasPrefix(s, "-") {
			if negated {
				s = s[1:]
			} else {
				negated = true
			}
		} else if negated {
			sb.WriteByte('+')
			negated = false
		}
		sb.WriteString(s)
		sb.WriteString(e.Unit)
	}
	if tail != nil {
		s := formatQuantityNum(tail.Value)
		if strings.HasPrefix(s, "-") {
			if negated {
				s = s[1:]
			}
		} else if negated {
			sb.WriteByte('+')
		}
		sb.WriteString(s)
	}
	return sb.String()
}

// formatQuantityNum writes the number without an exponent so the
// result stays parseable as a quantity.
func formatQuantityNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
