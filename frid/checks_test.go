package frid

import "testing"

func TestIsFridIdentifier(t *testing.T) {
	yes := []string{
		"a", "_", "abc", "snake_case", "CamelCase", "a1", "_9",
		"dotted.name", "dash-name", "plus+name", "ns.sub.leaf",
	}
	for _, s := range yes {
		if !IsFridIdentifier(s) {
			t.Errorf("IsFridIdentifier(%q) = false, want true", s)
		}
	}

	no := []string{
		"", "1abc", "+a", "-a", ".a", "a b", "a@b", "trailing.", "trailing-",
		"trailing+", "a,b", "a:b", "héllo space é", "\t",
	}
	for _, s := range no {
		if IsFridIdentifier(s) {
			t.Errorf("IsFridIdentifier(%q) = true, want false", s)
		}
	}
}

func TestIsQuoteFree(t *testing.T) {
	yes := []string{
		"a", "hello", "hello world", "user@example.com", "v1.2.3-beta",
		"one two three", "Mix-of_all.4+kinds", "héllo",
	}
	for _, s := range yes {
		if !IsQuoteFree(s) {
			t.Errorf("IsQuoteFree(%q) = false, want true", s)
		}
	}

	no := []string{
		"",
		" lead",
		"trail ",
		"two  spaces",
		"1abc",    // digit head would read as a number shape
		"+x",      // sign head would read as a literal shape
		"tab\tin", // only plain spaces may join words
		"end@",    // '@' may not end a run
		"with,comma",
		"with:colon",
		"with\"quote",
		"inf", // spells a float
		"NaN",
		"Infinity",
		"-infinity",
		"1e5",
	}
	for _, s := range no {
		if IsQuoteFree(s) {
			t.Errorf("IsQuoteFree(%q) = true, want false", s)
		}
	}
}

func TestQuoteFreeLoadLeniency(t *testing.T) {
	// Loading tolerates interior space runs that the writer would have
	// quoted; the text round-trips through quoting instead.
	v, err := Load("a  b")
	if err != nil {
		t.Fatalf("Load(a  b) error: %v", err)
	}
	got, err := v.AsText()
	if err != nil {
		t.Fatalf("AsText error: %v", err)
	}
	if got != "a  b" {
		t.Errorf("Load(a  b) = %q, want %q", got, "a  b")
	}
}
