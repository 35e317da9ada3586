package sanitize

import "testing"

func TestSegmentIdempotent(t *testing.T) {
	cases := []string{
		"Müller's Report [Q1] #2024.pdf",
		"plain-file_name.txt",
		"weird<>chars?*|.doc",
		"",
		"___already___collapsed",
	}

	for _, c := range cases {
		once := Segment(c)
		twice := Segment(once)
		if once != twice {
			t.Errorf("Segment(%q) not idempotent: %q != %q", c, once, twice)
		}
	}
}

func TestSegmentAllowedAlphabet(t *testing.T) {
	out := Segment("Müller's Report [Q1] #2024.pdf")
	for _, r := range out {
		if !allowed(r) && r != '_' {
			t.Errorf("Segment output contains disallowed rune %q in %q", r, out)
		}
	}
}

func TestSegmentSubstitutions(t *testing.T) {
	got := Segment("ärger[1]#x")
	want := "aerger(1)_x"
	if got != want {
		t.Errorf("Segment() = %q, want %q", got, want)
	}
}

func TestSegmentCollapsesUnderscores(t *testing.T) {
	got := Segment("a###b")
	if got != "a_b" {
		t.Errorf("Segment() = %q, want a_b", got)
	}
}

func TestPathPreservesSeparators(t *testing.T) {
	got := Path("Müller/Report [Q1]/file#1.txt")
	want := "Mueller/Report_(Q1)/file_1.txt"
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}
