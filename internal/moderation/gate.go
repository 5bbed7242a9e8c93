// Package moderation blocks outgoing messages that contain denylisted terms.
package moderation

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTerms is the built-in Turkish denylist. Terms are matched as
// substrings, so short words that occur inside common words are left out.
var DefaultTerms = []string{
	"salak", "aptal", "gerizekalı", "şerefsiz", "orospu", "piç",
	"siktir", "amk", "yavşak", "ahmak", "dangalak",
}

// Violation reports that a message matched a denylisted term.
type Violation struct {
	Term string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("message contains a blocked term %q", v.Term)
}

// Gate checks text against a denylist after Turkish-aware lower-casing with
// the dotted and dotless i treated as one letter.
type Gate struct {
	terms []string
}

// NewGate creates a gate over terms; nil means DefaultTerms.
func NewGate(terms []string) *Gate {
	if terms == nil {
		terms = DefaultTerms
	}
	g := &Gate{}
	for _, t := range terms {
		if t = strings.TrimSpace(lower(t)); t != "" {
			g.terms = append(g.terms, t)
		}
	}
	return g
}

// Check returns a *Violation for the first matching term, or nil.
func (g *Gate) Check(text string) error {
	folded := lower(text)
	for _, t := range g.terms {
		if strings.Contains(folded, t) {
			return &Violation{Term: t}
		}
	}
	return nil
}

// dotless folds ı onto i after lower-casing, so text typed with ASCII I
// matches the same terms as text typed with İ.
var dotless = strings.NewReplacer("ı", "i")

// lower uses a fresh Caser per call since Casers are not safe for concurrent use.
func lower(s string) string {
	return dotless.Replace(cases.Lower(language.Turkish).String(s))
}
