package views

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/freightmsg/internal/api"
	"github.com/matheus3301/freightmsg/internal/store"
	"github.com/matheus3301/freightmsg/internal/tui/ui"
)

// OutboxView lists the send journal, newest first.
type OutboxView struct {
	*tview.Table
	theme *ui.Theme
	now   func() time.Time
}

// NewOutboxView creates a new outbox table.
func NewOutboxView(theme *ui.Theme) *OutboxView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Gönderim Kuyruğu ")
	table.SetTitleColor(theme.TitleColor)

	return &OutboxView{Table: table, theme: theme, now: time.Now}
}

// Name implements ui.Component.
func (ov *OutboxView) Name() string { return "outbox" }

// Hints implements ui.Component.
func (ov *OutboxView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Geri"},
	}
}

// Update renders entries.
func (ov *OutboxView) Update(entries []api.OutboxItem) {
	ov.Clear()
	for col, h := range []string{" ZAMAN", " DURUM", " ALICI", " MESAJ", " HATA"} {
		ov.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(ov.theme.TableHeaderFg).
			SetBackgroundColor(ov.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}

	now := ov.now()
	for i, e := range entries {
		row := i + 1
		color := ov.theme.FgColor
		switch e.Status {
		case store.OutboxFailed:
			color = ov.theme.ToastErrColor
		case store.OutboxSent:
			color = ov.theme.ToastOkColor
		case store.OutboxQueued, store.OutboxSending:
			color = ov.theme.PendingColor
		}
		ov.SetCell(row, 0, tview.NewTableCell(" "+formatTimestamp(e.CreatedAt, now)).SetTextColor(ov.theme.FgColor))
		ov.SetCell(row, 1, tview.NewTableCell(" "+e.Status).SetTextColor(color))
		ov.SetCell(row, 2, tview.NewTableCell(" "+cell(e.ReceiverID)).SetTextColor(ov.theme.FgColor))
		ov.SetCell(row, 3, tview.NewTableCell(" "+cell(e.Body)).SetExpansion(1).SetMaxWidth(60).SetTextColor(ov.theme.FgColor))
		ov.SetCell(row, 4, tview.NewTableCell(" "+cell(e.Error)).SetExpansion(1).SetTextColor(ov.theme.ToastErrColor))
	}
}
