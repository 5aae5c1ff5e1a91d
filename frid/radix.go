package frid

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// stdDigits is the standard digit alphabet, sliced to the base in use.
const stdDigits = "0123456789abcdefghijklmnopqrstuvwxyz"

const (
	// MinBase and MaxBase bound the supported radix range.
	MinBase = 2
	MaxBase = 36
)

// IntOptions configures integer formatting and parsing.
type IntOptions struct {
	// Alphabet supplies custom digits, lowest value first. It must have
	// exactly base characters, all distinct. Empty selects the standard
	// digits 0-9a-z. Matching is case-sensitive either way.
	Alphabet string
	// GroupSep inserts a separator between digit groups when non-zero.
	// On parsing the separator is stripped wherever it appears between
	// digits, regardless of grouping.
	GroupSep rune
	// GroupSize is the digits per group, counted from the least
	// significant digit. Zero means 3. Only used when GroupSep is set.
	GroupSize int
}

// DefaultIntOptions returns the options used by FormatInt and ParseInt:
// standard digits, no grouping.
func DefaultIntOptions() IntOptions {
	return IntOptions{}
}

// checkIntOptions validates the base and resolves the digit alphabet.
func checkIntOptions(base int, opts IntOptions) ([]rune, error) {
	if base < MinBase || base > MaxBase {
		return nil, &RangeError{Message: fmt.Sprintf("base %d out of range 2..36", base)}
	}
	if opts.Alphabet == "" {
		return []rune(stdDigits[:base]), nil
	}
	digits := []rune(opts.Alphabet)
	if len(digits) != base {
		return nil, &RangeError{
			Message: fmt.Sprintf("alphabet has %d digits, base %d needs %d", len(digits), base, base),
		}
	}
	seen := make(map[rune]bool, base)
	for _, r := range digits {
		if seen[r] {
			return nil, &RangeError{Message: fmt.Sprintf("alphabet has repeated digit %q", r)}
		}
		seen[r] = true
		if opts.GroupSep != 0 && r == opts.GroupSep {
			return nil, &RangeError{Message: fmt.Sprintf("group separator %q is also a digit", opts.GroupSep)}
		}
	}
	return digits, nil
}

// ============================================================
// Formatting
// ============================================================

// FormatInt renders n in the given base using the standard digits.
func FormatInt(n *big.Int, base int) (string, error) {
	return FormatIntWithOptions(n, base, IntOptions{})
}

// FormatIntWithOptions renders n in the given base. The sign comes
// first and is never part of a digit group. Zero renders as the single
// zero digit.
func FormatIntWithOptions(n *big.Int, base int, opts IntOptions) (string, error) {
	digits, err := checkIntOptions(base, opts)
	if err != nil {
		return "", err
	}
	var raw []rune // digits, least significant first
	if n.IsInt64() {
		raw = formatSmall(n.Int64(), base, digits)
	} else {
		raw = formatLarge(n, base, digits)
	}
	size := opts.GroupSize
	if size <= 0 {
		size = 3
	}
	var sb strings.Builder
	if n.Sign() < 0 {
		sb.WriteByte('-')
	}
	for i := len(raw) - 1; i >= 0; i-- {
		sb.WriteRune(raw[i])
		if opts.GroupSep != 0 && i > 0 && i%size == 0 {
			sb.WriteRune(opts.GroupSep)
		}
	}
	return sb.String(), nil
}

// formatSmall converts an int64 magnitude with plain machine division.
func formatSmall(v int64, base int, digits []rune) []rune {
	var mag uint64
	if v < 0 {
		mag = uint64(-(v + 1)) + 1
	} else {
		mag = uint64(v)
	}
	if mag == 0 {
		return []rune{digits[0]}
	}
	b := uint64(base)
	raw := make([]rune, 0, 16)
	for mag > 0 {
		raw = append(raw, digits[mag%b])
		mag /= b
	}
	return raw
}

// formatLarge converts a magnitude outside int64 range. It peels off
// several digits per big.Int division to keep the division count low.
func formatLarge(n *big.Int, base int, digits []rune) []rune {
	pow, ndig := chunkPow(base)
	powBig := new(big.Int).SetUint64(pow)
	mag := new(big.Int).Abs(n)
	rem := new(big.Int)
	b := uint64(base)
	raw := make([]rune, 0, 64)
	for mag.Sign() > 0 {
		mag.DivMod(mag, powBig, rem)
		chunk := rem.Uint64()
		if mag.Sign() > 0 {
			// Inner digits keep their zero padding.
			for i := 0; i < ndig; i++ {
				raw = append(raw, digits[chunk%b])
				chunk /= b
			}
		} else {
			for chunk > 0 {
				raw = append(raw, digits[chunk%b])
				chunk /= b
			}
		}
	}
	return raw
}

// chunkPow returns the largest power of base that fits in a uint64,
// along with its exponent.
func chunkPow(base int) (uint64, int) {
	b := uint64(base)
	pow := uint64(1)
	ndig := 0
	for pow <= math.MaxUint64/b {
		pow *= b
		ndig++
	}
	return pow, ndig
}

// ============================================================
// Parsing
// ============================================================

// ParseInt reads an integer in the given base using the standard
// digits. It is the exact inverse of FormatInt.
func ParseInt(text string, base int) (*big.Int, error) {
	return ParseIntWithOptions(text, base, IntOptions{})
}

// ParseIntWithOptions reads an integer in the given base. An optional
// leading '+' or '-' sign is followed by one or more digits; the group
// separator, when configured, is skipped between digits. Any other
// rune fails with InvalidDigitError at its byte offset.
func ParseIntWithOptions(text string, base int, opts IntOptions) (*big.Int, error) {
	digits, err := checkIntOptions(base, opts)
	if err != nil {
		return nil, err
	}
	value := make(map[rune]uint64, base)
	for i, r := range digits {
		value[r] = uint64(i)
	}
	pos := 0
	neg := false
	if len(text) > 0 && (text[0] == '+' || text[0] == '-') {
		neg = text[0] == '-'
		pos = 1
	}
	pow, ndig := chunkPow(base)
	powBig := new(big.Int).SetUint64(pow)
	b := uint64(base)

	var result *big.Int
	chunk := uint64(0)
	count := 0
	total := 0
	flush := func(scale *big.Int) {
		if result == nil {
			result = new(big.Int).SetUint64(chunk)
		} else {
			result.Mul(result, scale)
			result.Add(result, new(big.Int).SetUint64(chunk))
		}
		chunk = 0
		count = 0
	}
	for i, r := range text[pos:] {
		if opts.GroupSep != 0 && r == opts.GroupSep {
			continue
		}
		v, ok := value[r]
		if !ok {
			return nil, &InvalidDigitError{Char: r, Base: base, Offset: pos + i}
		}
		chunk = chunk*b + v
		count++
		total++
		if count == ndig {
			flush(powBig)
		}
	}
	if total == 0 {
		return nil, newParseError(text, pos, pos, nil, "no digits")
	}
	if count > 0 {
		scale := uint64(1)
		for i := 0; i < count; i++ {
			scale *= b
		}
		flush(new(big.Int).SetUint64(scale))
	}
	if neg {
		result.Neg(result)
	}
	return result, nil
}
