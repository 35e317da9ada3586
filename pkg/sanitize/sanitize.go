// Package sanitize maps arbitrary filenames to a restricted alphabet
// suitable for use as an object-store key segment.
//
// The content-addressed upload path keys objects by content hash and does
// not use it; no other package in this module imports it either.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// substitutions maps common non-ASCII characters and shell/URL
// metacharacters to an ASCII-safe replacement, applied before Unicode
// normalization.
var substitutions = map[rune]string{
	'ä': "ae", 'ö': "oe", 'ü': "ue", 'ß': "ss",
	'Ä': "Ae", 'Ö': "Oe", 'Ü': "Ue",
	'[': "(", ']': ")", '{': "(", '}': ")",
	'#': "_", '%': "_", '&': "_and_", '+': "_",
	'!': "_", '?': "_", '*': "_", '$': "_",
	'@': "_at_", '\'': "", '"': "", '`': "",
	':': "_", ';': "_", '<': "(", '>': ")", '|': "_",
	'\\': "_", '^': "_", '~': "_",
}

var combiningMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// allowed reports whether r may appear unmodified in a sanitized segment.
func allowed(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-' || r == '(' || r == ')':
		return true
	default:
		return false
	}
}

// Path sanitizes every '/'-separated segment of p independently, preserving
// the separators. Path is idempotent and deterministic.
func Path(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = Segment(seg)
	}
	return strings.Join(segments, "/")
}

// Segment sanitizes a single path segment:
//  1. applies the explicit substitution table,
//  2. applies NFKD decomposition and strips combining marks,
//  3. replaces every remaining rune outside [A-Za-z0-9._()-] with '_',
//  4. collapses consecutive '_'.
func Segment(seg string) string {
	var b strings.Builder
	b.Grow(len(seg))
	for _, r := range seg {
		if repl, ok := substitutions[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}

	decomposed, _, err := transform.String(combiningMarks, b.String())
	if err != nil {
		decomposed = b.String()
	}

	var out strings.Builder
	out.Grow(len(decomposed))
	for _, r := range decomposed {
		if allowed(r) {
			out.WriteRune(r)
		} else {
			out.WriteByte('_')
		}
	}

	return collapseUnderscores(out.String())
}

// collapseUnderscores replaces runs of '_' with a single '_'.
func collapseUnderscores(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevUnderscore := false
	for _, r := range s {
		if r == '_' {
			if prevUnderscore {
				continue
			}
			prevUnderscore = true
		} else {
			prevUnderscore = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
