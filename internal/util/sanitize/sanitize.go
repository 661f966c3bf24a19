// Package sanitize cleans backend and user-supplied text before it is sent
// or drawn in a terminal.
//
// Record fields come from anonymous survey submissions, so they may carry
// escape sequences or invisible characters. Nothing here is a security
// boundary for the backend; it only keeps terminal output intact.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// CSI and OSC sequences, plus any other two-byte ESC sequence.
	ansiPattern  = regexp.MustCompile(`\x1b(\[[0-9;?]*[ -/]*[@-~]|\][^\x07\x1b]*(\x07|\x1b\\)|[@-Z\\-_])`)
	spacePattern = regexp.MustCompile(`[ \t]+`)
	linesPattern = regexp.MustCompile(`\n{3,}`)
)

// invisibleChars are stripped everywhere.
var invisibleChars = []string{
	"\u200B", // Zero-width space
	"\u200C", // Zero-width non-joiner
	"\u200D", // Zero-width joiner
	"\uFEFF", // Zero-width no-break space (BOM)
	"\u00AD", // Soft hyphen
	"\u2060", // Word joiner
	"\u180E", // Mongolian vowel separator
}

func removeInvisibleChars(s string) string {
	for _, char := range invisibleChars {
		s = strings.ReplaceAll(s, char, "")
	}
	return s
}

// stripControl drops escape sequences and control characters, keeping
// newlines and tabs when keepLayout is set.
func stripControl(s string, keepLayout bool) string {
	s = ansiPattern.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if keepLayout && (r == '\n' || r == '\t') {
			return r
		}
		if unicode.IsControl(r) {
			if r == '\n' || r == '\t' {
				return ' '
			}
			return -1
		}
		return r
	}, s)
}

// Field cleans a single input value: invisible characters are removed and
// surrounding whitespace trimmed.
func Field(field string) string {
	if field == "" {
		return field
	}
	return strings.TrimSpace(removeInvisibleChars(field))
}

// Cell renders s on one line: control characters and escape sequences are
// removed and every run of whitespace, newlines included, becomes one space.
func Cell(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = stripControl(removeInvisibleChars(s), false)
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// Text cleans multi-line text. Line endings are normalised to LF, runs of
// blank lines are capped at one, and other control characters are removed.
func Text(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = stripControl(removeInvisibleChars(s), true)
	s = linesPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
