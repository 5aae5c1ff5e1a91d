package frid

import (
	"strings"
	"unicode"
)

// Character classes shared by the loader and dumper for deciding when
// text may appear without quotes.

func isIdentHead(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '_' || r == '.' || r == '+' || r == '-'
}

func isIdentTail(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// IsFridIdentifier reports whether s can serve as a bare name: the
// keyword of a naked argument or a constructor call name. A name
// starts with a letter or underscore, continues with letters, digits,
// or `_.+-`, and does not end with `.+-`.
func IsFridIdentifier(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 || !isIdentHead(runes[0]) {
		return false
	}
	for i := 1; i < len(runes)-1; i++ {
		if !isIdentChar(runes[i]) {
			return false
		}
	}
	return isIdentTail(runes[len(runes)-1])
}

func isQuoteFreeChar(r rune) bool {
	return isIdentChar(r) || r == '@' || r == ' '
}

func isQuoteFreeTail(r rune) bool {
	return isIdentChar(r) && r != '@'
}

// quoteFreeShape checks the character classes of a quote-free string:
// letter or underscore head, then letters, digits, `_.+-@`, or spaces,
// with a tail excluding `@` and spaces. When strict, runs of spaces
// are rejected; the loader is lenient and accepts them.
func quoteFreeShape(s string, strict bool) bool {
	runes := []rune(s)
	if len(runes) == 0 || !isIdentHead(runes[0]) {
		return false
	}
	for i := 1; i < len(runes)-1; i++ {
		if !isQuoteFreeChar(runes[i]) {
			return false
		}
	}
	if !isQuoteFreeTail(runes[len(runes)-1]) {
		return false
	}
	if strict && strings.Contains(s, "  ") {
		return false
	}
	return true
}

// IsQuoteFree reports whether the dumper may emit s without quotes.
// Beyond the shape check this excludes anything the loader would read
// back as a different value, such as the spellings float parsing
// accepts ("inf", "NaN").
func IsQuoteFree(s string) bool {
	if !quoteFreeShape(s, true) {
		return false
	}
	return !isFloatSpelling(s)
}
