package frid

import (
	"math/big"
	"strings"
	"testing"
)

func TestFormatInt(t *testing.T) {
	tests := []struct {
		name string
		n    *big.Int
		base int
		want string
	}{
		{name: "zero", n: big.NewInt(0), base: 10, want: "0"},
		{name: "decimal", n: big.NewInt(12345), base: 10, want: "12345"},
		{name: "hex", n: big.NewInt(255), base: 16, want: "ff"},
		{name: "hex_large", n: big.NewInt(0xdeadbeef), base: 16, want: "deadbeef"},
		{name: "binary", n: big.NewInt(10), base: 2, want: "1010"},
		{name: "octal", n: big.NewInt(8), base: 8, want: "10"},
		{name: "base36", n: big.NewInt(35), base: 36, want: "z"},
		{name: "base36_word", n: big.NewInt(1293994469585), base: 36, want: "gigawatt"},
		{name: "negative", n: big.NewInt(-255), base: 16, want: "-ff"},
		{name: "negative_decimal", n: big.NewInt(-42), base: 10, want: "-42"},
		{name: "int64_min", n: big.NewInt(-9223372036854775808), base: 10, want: "-9223372036854775808"},
		{name: "int64_max", n: big.NewInt(9223372036854775807), base: 10, want: "9223372036854775807"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatInt(tt.n, tt.base)
			if err != nil {
				t.Fatalf("FormatInt(%s, %d) error: %v", tt.n, tt.base, err)
			}
			if got != tt.want {
				t.Errorf("FormatInt(%s, %d) = %q, want %q", tt.n, tt.base, got, tt.want)
			}
		})
	}
}

func TestFormatIntBig(t *testing.T) {
	// 2^100, well outside int64.
	n := new(big.Int).Lsh(big.NewInt(1), 100)
	got, err := FormatInt(n, 10)
	if err != nil {
		t.Fatalf("FormatInt error: %v", err)
	}
	want := "1267650600228229401496703205376"
	if got != want {
		t.Errorf("FormatInt(2^100, 10) = %q, want %q", got, want)
	}

	got, err = FormatInt(n, 16)
	if err != nil {
		t.Fatalf("FormatInt error: %v", err)
	}
	if want := "10000000000000000000000000"; got != want {
		t.Errorf("FormatInt(2^100, 16) = %q, want %q", got, want)
	}

	neg := new(big.Int).Neg(n)
	got, err = FormatInt(neg, 36)
	if err != nil {
		t.Fatalf("FormatInt error: %v", err)
	}
	back, err := ParseInt(got, 36)
	if err != nil {
		t.Fatalf("ParseInt(%q, 36) error: %v", got, err)
	}
	if back.Cmp(neg) != 0 {
		t.Errorf("round trip of -2^100 in base 36 = %s, want %s", back, neg)
	}
}

func TestFormatIntGrouping(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		base int
		opts IntOptions
		want string
	}{
		{name: "million", n: 1000000, base: 10, opts: IntOptions{GroupSep: '_'}, want: "1_000_000"},
		{name: "short_no_sep", n: 123, base: 10, opts: IntOptions{GroupSep: '_'}, want: "123"},
		{name: "four_digits", n: 1234, base: 10, opts: IntOptions{GroupSep: '_'}, want: "1_234"},
		{name: "negative", n: -1234567, base: 10, opts: IntOptions{GroupSep: '_'}, want: "-1_234_567"},
		{name: "size_four", n: 65536, base: 16, opts: IntOptions{GroupSep: '_', GroupSize: 4}, want: "1_0000"},
		{name: "comma", n: 1000, base: 10, opts: IntOptions{GroupSep: ','}, want: "1,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatIntWithOptions(big.NewInt(tt.n), tt.base, tt.opts)
			if err != nil {
				t.Fatalf("FormatIntWithOptions error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FormatIntWithOptions(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestFormatIntAlphabet(t *testing.T) {
	opts := IntOptions{Alphabet: "OI"}
	got, err := FormatIntWithOptions(big.NewInt(10), 2, opts)
	if err != nil {
		t.Fatalf("FormatIntWithOptions error: %v", err)
	}
	if got != "IOIO" {
		t.Errorf("FormatIntWithOptions(10, base 2, OI) = %q, want %q", got, "IOIO")
	}
	back, err := ParseIntWithOptions(got, 2, opts)
	if err != nil {
		t.Fatalf("ParseIntWithOptions(%q) error: %v", got, err)
	}
	if back.Int64() != 10 {
		t.Errorf("round trip = %d, want 10", back.Int64())
	}
}

func TestFormatIntErrors(t *testing.T) {
	tests := []struct {
		name string
		base int
		opts IntOptions
	}{
		{name: "base_too_small", base: 1},
		{name: "base_too_large", base: 37},
		{name: "base_zero", base: 0},
		{name: "alphabet_size", base: 16, opts: IntOptions{Alphabet: "01"}},
		{name: "alphabet_repeat", base: 2, opts: IntOptions{Alphabet: "00"}},
		{name: "sep_is_digit", base: 2, opts: IntOptions{Alphabet: "0_", GroupSep: '_'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FormatIntWithOptions(big.NewInt(1), tt.base, tt.opts)
			if err == nil {
				t.Fatalf("FormatIntWithOptions(base %d) succeeded, want error", tt.base)
			}
			if _, ok := err.(*RangeError); !ok {
				t.Errorf("error type = %T, want *RangeError", err)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		name string
		text string
		base int
		want string // decimal
	}{
		{name: "decimal", text: "12345", base: 10, want: "12345"},
		{name: "hex", text: "ff", base: 16, want: "255"},
		{name: "plus_sign", text: "+42", base: 10, want: "42"},
		{name: "minus_sign", text: "-42", base: 10, want: "-42"},
		{name: "zero", text: "0", base: 10, want: "0"},
		{name: "leading_zeros", text: "0007", base: 10, want: "7"},
		{name: "base36", text: "gigawatt", base: 36, want: "1293994469585"},
		{name: "big", text: "1267650600228229401496703205376", base: 10, want: "1267650600228229401496703205376"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInt(tt.text, tt.base)
			if err != nil {
				t.Fatalf("ParseInt(%q, %d) error: %v", tt.text, tt.base, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseInt(%q, %d) = %s, want %s", tt.text, tt.base, got, tt.want)
			}
		})
	}
}

func TestParseIntGrouping(t *testing.T) {
	opts := IntOptions{GroupSep: '_'}
	got, err := ParseIntWithOptions("1_000_000", 10, opts)
	if err != nil {
		t.Fatalf("ParseIntWithOptions error: %v", err)
	}
	if got.Int64() != 1000000 {
		t.Errorf("ParseIntWithOptions(1_000_000) = %d, want 1000000", got.Int64())
	}

	// The separator is skipped anywhere between digits, not just at
	// group boundaries.
	got, err = ParseIntWithOptions("1_2_3", 10, opts)
	if err != nil {
		t.Fatalf("ParseIntWithOptions error: %v", err)
	}
	if got.Int64() != 123 {
		t.Errorf("ParseIntWithOptions(1_2_3) = %d, want 123", got.Int64())
	}
}

func TestParseIntErrors(t *testing.T) {
	t.Run("invalid_digit", func(t *testing.T) {
		_, err := ParseInt("12a4", 10)
		de, ok := err.(*InvalidDigitError)
		if !ok {
			t.Fatalf("error type = %T, want *InvalidDigitError", err)
		}
		if de.Char != 'a' || de.Base != 10 || de.Offset != 2 {
			t.Errorf("InvalidDigitError = %+v, want Char 'a' Base 10 Offset 2", de)
		}
	})

	t.Run("invalid_digit_after_sign", func(t *testing.T) {
		_, err := ParseInt("-1x", 16)
		de, ok := err.(*InvalidDigitError)
		if !ok {
			t.Fatalf("error type = %T, want *InvalidDigitError", err)
		}
		if de.Offset != 2 {
			t.Errorf("Offset = %d, want 2", de.Offset)
		}
	})

	t.Run("uppercase_hex", func(t *testing.T) {
		// The standard alphabet is lowercase and matching is
		// case-sensitive.
		if _, err := ParseInt("FF", 16); err == nil {
			t.Error("ParseInt(FF, 16) succeeded, want error")
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseInt("", 10)
		if _, ok := err.(*ParseError); !ok {
			t.Fatalf("error type = %T, want *ParseError", err)
		}
	})

	t.Run("sign_only", func(t *testing.T) {
		if _, err := ParseInt("-", 10); err == nil {
			t.Error("ParseInt(-, 10) succeeded, want error")
		}
	})

	t.Run("separator_only", func(t *testing.T) {
		_, err := ParseIntWithOptions("__", 10, IntOptions{GroupSep: '_'})
		if err == nil {
			t.Error("ParseIntWithOptions(__) succeeded, want error")
		}
	})
}

func TestIntRoundTrip(t *testing.T) {
	values := []string{
		"0", "1", "-1", "35", "36", "12345678901234567890",
		"-98765432109876543210987654321098765432109876543210",
	}
	for _, dec := range values {
		n, ok := new(big.Int).SetString(dec, 10)
		if !ok {
			t.Fatalf("bad test value %q", dec)
		}
		for base := MinBase; base <= MaxBase; base++ {
			s, err := FormatInt(n, base)
			if err != nil {
				t.Fatalf("FormatInt(%s, %d) error: %v", dec, base, err)
			}
			back, err := ParseInt(s, base)
			if err != nil {
				t.Fatalf("ParseInt(%q, %d) error: %v", s, base, err)
			}
			if back.Cmp(n) != 0 {
				t.Errorf("round trip of %s in base %d: got %s via %q", dec, base, back, s)
			}
		}
	}
}

func TestFormatIntNoSeparatorInSign(t *testing.T) {
	got, err := FormatIntWithOptions(big.NewInt(-100000), 10, IntOptions{GroupSep: '_'})
	if err != nil {
		t.Fatalf("FormatIntWithOptions error: %v", err)
	}
	if strings.HasPrefix(got, "-_") || strings.HasPrefix(got, "_") {
		t.Errorf("separator leaked next to the sign: %q", got)
	}
	if got != "-100_000" {
		t.Errorf("FormatIntWithOptions(-100000) = %q, want -100_000", got)
	}
}
