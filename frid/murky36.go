package frid

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// The murky36 encoding maps an instant to a fixed-width base-36 string
// whose lexicographic order matches chronological order. The count of
// microseconds since 0001-01-01T00:00:00Z is rendered with the digits
// 0-9a-z, left-padded with zeros to exactly Murky36Width characters.
// Eleven digits cover about 4171 years from the epoch, so any instant
// in years 1 through 4172 encodes, each to a unique string.

const (
	// Murky36Width is the exact length of every murky36 string.
	Murky36Width = 11

	// murky36Base is the radix of the encoding.
	murky36Base = 36

	// epochToUnixSec is the number of seconds from the murky36 epoch
	// to the Unix epoch (719162 days).
	epochToUnixSec = 62135596800

	// maxMurky36Ticks is 36^11, one past the largest encodable count
	// of microseconds.
	maxMurky36Ticks = 131621703842267136
)

// FormatMurky36 encodes the instant t as a murky36 string. The instant
// is converted to UTC and truncated to microsecond resolution. Instants
// before the epoch or beyond the eleven-digit range fail with a
// RangeError.
func FormatMurky36(t time.Time) (string, error) {
	u := t.UTC()
	if y := u.Year(); y < 1 || y > 4999 {
		// Keeps the tick arithmetic below within int64 for any input.
		return "", &RangeError{
			Message: fmt.Sprintf("year %d outside the murky36 range", y),
		}
	}
	ticks := (u.Unix()+epochToUnixSec)*1_000_000 + int64(u.Nanosecond()/1000)
	if ticks < 0 || ticks >= maxMurky36Ticks {
		return "", &RangeError{
			Message: fmt.Sprintf("instant %s outside the murky36 range", u.Format(time.RFC3339)),
		}
	}
	s, err := FormatInt(big.NewInt(ticks), murky36Base)
	if err != nil {
		return "", err
	}
	if len(s) < Murky36Width {
		s = strings.Repeat("0", Murky36Width-len(s)) + s
	}
	return s, nil
}

// ParseMurky36 decodes a murky36 string back to its instant, in UTC.
// It is the exact inverse of FormatMurky36. The input must be exactly
// Murky36Width characters from the 0-9a-z alphabet.
func ParseMurky36(s string) (time.Time, error) {
	if len(s) != Murky36Width {
		return time.Time{}, newParseError(s, len(s), len(s), nil,
			"murky36 literal has %d characters, need %d", len(s), Murky36Width)
	}
	if s[0] == '+' || s[0] == '-' {
		return time.Time{}, &InvalidDigitError{Char: rune(s[0]), Base: murky36Base, Offset: 0}
	}
	n, err := ParseInt(s, murky36Base)
	if err != nil {
		return time.Time{}, err
	}
	ticks := n.Int64()
	sec := ticks/1_000_000 - epochToUnixSec
	micro := ticks % 1_000_000
	return time.Unix(sec, micro*1000).UTC(), nil
}
