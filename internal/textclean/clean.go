// Package textclean sanitizes message text before it is stored or shown.
package textclean

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern   = regexp.MustCompile(`(?s)<[^<>]*>`)
	blankPattern = regexp.MustCompile(`\n{3,}`)
)

// Sanitizer is the default message text cleaner.
type Sanitizer struct{}

// Sanitize implements the mapper's sanitizer contract with Clean.
func (Sanitizer) Sanitize(s string) string { return Clean(s) }

// Clean strips markup, decodes entities, drops control characters and
// terminal-problematic runes, NFC-normalizes and trims s.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = ForTerminal(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == utf8.RuneError:
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	out := norm.NFC.String(b.String())
	out = blankPattern.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// ForTerminal removes codepoints that tcell renders badly: skin tone
// modifiers, zero width joiners and variation selectors. A thumbs-up with a
// skin tone becomes a plain two-cell thumbs-up.
func ForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !isProblematicRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	// Skin tone modifiers.
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r == 0x200D:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	default:
		return false
	}
}
