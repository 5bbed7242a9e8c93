package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/matheus3301/freightmsg/internal/convo"
)

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor           tcell.Color
	FgColor           tcell.Color
	BorderColor       tcell.Color
	BorderFocusColor  tcell.Color
	TableHeaderFg     tcell.Color
	TableHeaderBg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	MenuKeyColor      tcell.Color
	NumericKeyColor   tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	UnreadColor       tcell.Color
	MineColor         tcell.Color
	PendingColor      tcell.Color
	ReadColor         tcell.Color
	ToastInfoColor    tcell.Color
	ToastOkColor      tcell.Color
	ToastErrColor     tcell.Color
	PromptBorderColor tcell.Color
}

// DefaultTheme returns a k9s-inspired dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorCadetBlue,
		BorderColor:       tcell.ColorDodgerBlue,
		BorderFocusColor:  tcell.ColorLightSkyBlue,
		TableHeaderFg:     tcell.ColorWhite,
		TableHeaderBg:     tcell.ColorBlack,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorAqua,
		MenuKeyColor:      tcell.ColorDodgerBlue,
		NumericKeyColor:   tcell.ColorFuchsia,
		TitleColor:        tcell.ColorFuchsia,
		CounterColor:      tcell.ColorPapayaWhip,
		UnreadColor:       tcell.ColorOrange,
		MineColor:         tcell.ColorLightGreen,
		PendingColor:      tcell.ColorGray,
		ReadColor:         tcell.ColorAqua,
		ToastInfoColor:    tcell.ColorNavajoWhite,
		ToastOkColor:      tcell.ColorLightGreen,
		ToastErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.ColorDodgerBlue,
	}
}

// StatusMark returns the colored delivery glyph for an outgoing message.
func (t *Theme) StatusMark(s convo.MessageStatus) string {
	switch s {
	case convo.StatusSending:
		return fmt.Sprintf("[%s]…[-]", ColorName(t.PendingColor))
	case convo.StatusSent:
		return fmt.Sprintf("[%s]✓[-]", ColorName(t.PendingColor))
	case convo.StatusDelivered:
		return fmt.Sprintf("[%s]✓✓[-]", ColorName(t.PendingColor))
	case convo.StatusRead:
		return fmt.Sprintf("[%s]✓✓[-]", ColorName(t.ReadColor))
	}
	return ""
}

// ColorName returns a tview-compatible color name string.
func ColorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
