package views

import (
	"strings"
	"time"

	"github.com/rivo/tview"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/matheus3301/freightmsg/internal/textclean"
)

// formatTimestamp shows the clock for today and the day otherwise.
func formatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	if t.Year() == now.Year() {
		return t.Format("02.01")
	}
	return t.Format("02.01.06")
}

// Matches reports whether any field contains filter, ignoring case the
// Turkish way (İ/i, I/ı).
func Matches(filter string, fields ...string) bool {
	if filter == "" {
		return true
	}
	lower := cases.Lower(language.Turkish)
	needle := lower.String(filter)
	for _, f := range fields {
		if strings.Contains(lower.String(f), needle) {
			return true
		}
	}
	return false
}

// cell prepares backend text for a tview cell.
func cell(s string) string {
	return tview.Escape(textclean.ForTerminal(s))
}
