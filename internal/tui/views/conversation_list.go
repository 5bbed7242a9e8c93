package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/tui/ui"
)

// ConversationList is the inbox table.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	list    []convo.Conversation
	visible []int
	filter  string
	now     func() time.Time
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
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
	table.SetTitle(" Konuşmalar ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
		now:   time.Now,
	}
}

// Name implements ui.Component.
func (cl *ConversationList) Name() string { return "conversations" }

// Hints implements ui.Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Aç"},
		{Key: "/", Description: "Filtre"},
		{Key: ":", Description: "Komut"},
		{Key: "r", Description: "Yenile"},
		{Key: "x", Description: "Sil"},
		{Key: "?", Description: "Yardım"},
		{Key: "q", Description: "Çık"},
		{Key: "1-9", Description: "Atla", Numeric: true},
	}
}

// Update replaces the rows, keeping the cursor on the same conversation
// when it is still listed.
func (cl *ConversationList) Update(list []convo.Conversation) {
	keep := cl.SelectedID()
	cl.list = list
	cl.render()
	if keep != "" {
		cl.Select(keep)
	}
}

// SetFilter sets the active filter text and re-renders.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

// ClearFilter clears the active filter.
func (cl *ConversationList) ClearFilter() {
	cl.SetFilter("")
}

// Filter returns the active filter.
func (cl *ConversationList) Filter() string {
	return cl.filter
}

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" KARŞI TARAF", 1},
		{" SEVKİYAT", 0},
		{" SON MESAJ", 2},
		{" ZAMAN", 0},
		{" OKUNMAMIŞ", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	cl.visible = cl.visible[:0]
	now := cl.now()
	for i, c := range cl.list {
		if !Matches(cl.filter, c.CounterpartName, c.CounterpartCompany, c.TrackingNumber, c.LastMessage) {
			continue
		}
		cl.visible = append(cl.visible, i)
		row := len(cl.visible)

		name := c.CounterpartName
		if c.CounterpartCompany != "" && c.CounterpartCompany != name {
			name += " · " + c.CounterpartCompany
		}
		fg := cl.theme.FgColor
		if c.UnreadCount > 0 {
			fg = cl.theme.UnreadColor
		}
		unread := ""
		if c.UnreadCount > 0 {
			unread = fmt.Sprintf("%d", c.UnreadCount)
		}

		cl.SetCell(row, 0, tview.NewTableCell(" "+cell(name)).SetExpansion(1).SetTextColor(fg))
		cl.SetCell(row, 1, tview.NewTableCell(" "+cell(c.TrackingNumber)).SetTextColor(cl.theme.CounterColor))
		cl.SetCell(row, 2, tview.NewTableCell(" "+cell(c.LastMessage)).SetExpansion(2).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 3, tview.NewTableCell(formatTimestamp(c.LastMessageAt, now)).SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 4, tview.NewTableCell(unread).SetTextColor(cl.theme.UnreadColor).SetAlign(tview.AlignRight))
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Konuşmalar (%d/%d) filtre: %s ", len(cl.visible), len(cl.list), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Konuşmalar (%d) ", len(cl.list)))
	}
}

// SelectedID returns the ID of the conversation under the cursor.
func (cl *ConversationList) SelectedID() string {
	row, _ := cl.GetSelection()
	return cl.IDAt(row)
}

// IDAt returns the ID on table row n (1-based, below the header).
func (cl *ConversationList) IDAt(n int) string {
	if n < 1 || n > len(cl.visible) {
		return ""
	}
	return cl.list[cl.visible[n-1]].ID
}

// Select moves the cursor to conversation id if it is visible.
func (cl *ConversationList) Select(id string) {
	for row := 1; row <= len(cl.visible); row++ {
		if cl.IDAt(row) == id {
			cl.Table.Select(row, 0)
			return
		}
	}
}
