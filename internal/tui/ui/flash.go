package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/freightmsg/internal/notify"
	"github.com/matheus3301/freightmsg/internal/textclean"
)

// FlashBar is the one-line strip showing the current toast.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new toast bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders t, or clears the bar when t is nil.
func (fb *FlashBar) Update(t *notify.Toast) {
	fb.Clear()
	if t == nil {
		return
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", ColorName(fb.severityColor(t.Severity)),
		tview.Escape(textclean.ForTerminal(t.Text)))
}

func (fb *FlashBar) severityColor(s notify.Severity) tcell.Color {
	switch s {
	case notify.Success:
		return fb.theme.ToastOkColor
	case notify.Error:
		return fb.theme.ToastErrColor
	}
	return fb.theme.ToastInfoColor
}
