package frid

import (
	"sort"
	"testing"
	"time"
)

func TestFormatMurky36(t *testing.T) {
	tests := []struct {
		name string
		when time.Time
		want string
	}{
		{
			name: "epoch",
			when: time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC),
			want: "00000000000",
		},
		{
			name: "epoch_plus_35us",
			when: time.Date(1, 1, 1, 0, 0, 0, 35000, time.UTC),
			want: "0000000000z",
		},
		{
			name: "unix_epoch",
			when: time.Unix(0, 0).UTC(),
			want: "gzt8b3t5hc0",
		},
		{
			name: "unix_epoch_from_offset_zone",
			when: time.Unix(0, 0).In(time.FixedZone("X", 5*3600)),
			want: "gzt8b3t5hc0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatMurky36(tt.when)
			if err != nil {
				t.Fatalf("FormatMurky36(%v) error: %v", tt.when, err)
			}
			if got != tt.want {
				t.Errorf("FormatMurky36(%v) = %q, want %q", tt.when, got, tt.want)
			}
			if len(got) != Murky36Width {
				t.Errorf("width = %d, want %d", len(got), Murky36Width)
			}
		})
	}
}

func TestFormatMurky36Range(t *testing.T) {
	tests := []struct {
		name string
		when time.Time
	}{
		{name: "before_epoch", when: time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Microsecond)},
		{name: "year_zero", when: time.Date(0, 6, 1, 0, 0, 0, 0, time.UTC)},
		{name: "year_4200", when: time.Date(4200, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "year_9999", when: time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FormatMurky36(tt.when)
			if err == nil {
				t.Fatalf("FormatMurky36(%v) succeeded, want error", tt.when)
			}
			if _, ok := err.(*RangeError); !ok {
				t.Errorf("error type = %T, want *RangeError", err)
			}
		})
	}
}

func TestParseMurky36(t *testing.T) {
	got, err := ParseMurky36("gzt8b3t5hc0")
	if err != nil {
		t.Fatalf("ParseMurky36 error: %v", err)
	}
	if !got.Equal(time.Unix(0, 0)) {
		t.Errorf("ParseMurky36(gzt8b3t5hc0) = %v, want the Unix epoch", got)
	}

	got, err = ParseMurky36("00000000000")
	if err != nil {
		t.Fatalf("ParseMurky36 error: %v", err)
	}
	if want := time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ParseMurky36(00000000000) = %v, want %v", got, want)
	}
}

func TestParseMurky36Errors(t *testing.T) {
	t.Run("too_short", func(t *testing.T) {
		_, err := ParseMurky36("gzt8b3t5hc")
		if _, ok := err.(*ParseError); !ok {
			t.Fatalf("error type = %T, want *ParseError", err)
		}
	})

	t.Run("too_long", func(t *testing.T) {
		_, err := ParseMurky36("gzt8b3t5hc00")
		if _, ok := err.(*ParseError); !ok {
			t.Fatalf("error type = %T, want *ParseError", err)
		}
	})

	t.Run("bad_digit", func(t *testing.T) {
		_, err := ParseMurky36("gzt8b3t5hC0")
		de, ok := err.(*InvalidDigitError)
		if !ok {
			t.Fatalf("error type = %T, want *InvalidDigitError", err)
		}
		if de.Char != 'C' || de.Offset != 9 {
			t.Errorf("InvalidDigitError = %+v, want Char 'C' Offset 9", de)
		}
	})

	t.Run("signed", func(t *testing.T) {
		_, err := ParseMurky36("-zt8b3t5hc0")
		if _, ok := err.(*InvalidDigitError); !ok {
			t.Fatalf("error type = %T, want *InvalidDigitError", err)
		}
	})
}

func TestMurky36RoundTrip(t *testing.T) {
	instants := []time.Time{
		time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1969, 12, 31, 23, 59, 59, 999999000, time.UTC),
		time.Unix(0, 0).UTC(),
		time.Date(2024, 6, 15, 12, 30, 45, 123456000, time.UTC),
		time.Date(4000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, want := range instants {
		s, err := FormatMurky36(want)
		if err != nil {
			t.Fatalf("FormatMurky36(%v) error: %v", want, err)
		}
		got, err := ParseMurky36(s)
		if err != nil {
			t.Fatalf("ParseMurky36(%q) error: %v", s, err)
		}
		if !got.Equal(want) {
			t.Errorf("round trip of %v via %q = %v", want, s, got)
		}
	}
}

func TestMurky36NanosecondTruncation(t *testing.T) {
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	a, err := FormatMurky36(base.Add(100 * time.Nanosecond))
	if err != nil {
		t.Fatalf("FormatMurky36 error: %v", err)
	}
	b, err := FormatMurky36(base)
	if err != nil {
		t.Fatalf("FormatMurky36 error: %v", err)
	}
	if a != b {
		t.Errorf("sub-microsecond digits leaked: %q vs %q", a, b)
	}
}

func TestMurky36Ordering(t *testing.T) {
	instants := []time.Time{
		time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1, 1, 1, 0, 0, 0, 1000, time.UTC),
		time.Date(999, 12, 31, 23, 59, 59, 999999000, time.UTC),
		time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1969, 12, 31, 23, 59, 59, 999999000, time.UTC),
		time.Unix(0, 0).UTC(),
		time.Unix(0, 1000).UTC(),
		time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC),
		time.Date(2024, 6, 15, 12, 30, 45, 1000, time.UTC),
		time.Date(4172, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	encoded := make([]string, len(instants))
	for i, when := range instants {
		s, err := FormatMurky36(when)
		if err != nil {
			t.Fatalf("FormatMurky36(%v) error: %v", when, err)
		}
		encoded[i] = s
	}
	if !sort.StringsAreSorted(encoded) {
		t.Errorf("lexicographic order does not match chronological order: %q", encoded)
	}
	for i := 1; i < len(encoded); i++ {
		if encoded[i-1] == encoded[i] {
			t.Errorf("distinct instants share the encoding %q", encoded[i])
		}
	}
}
