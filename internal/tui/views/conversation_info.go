package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/tui/ui"
)

// ConversationInfo shows the shipment and counterpart behind a conversation.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Ayrıntılar ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements ui.Component.
func (ci *ConversationInfo) Name() string { return "details" }

// Hints implements ui.Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Geri"},
	}
}

// Update renders conversation details.
func (ci *ConversationInfo) Update(c *convo.Conversation) {
	ci.Clear()
	if c == nil {
		return
	}

	fg := ui.ColorName(ci.theme.FgColor)
	ct := ui.ColorName(ci.theme.CounterColor)
	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		_, _ = fmt.Fprintf(ci, " [%s::b]%-14s[-:-:-] [%s]%s[-]\n", fg, label+":", ct, cell(value))
	}

	lastActive := ""
	if !c.LastMessageAt.IsZero() {
		lastActive = c.LastMessageAt.Local().Format("02.01.2006 15:04")
	}
	state := "Kayıtlı"
	if c.Local {
		state = "Yeni (henüz listelenmedi)"
	}

	_, _ = fmt.Fprintln(ci)
	field("Karşı taraf", c.CounterpartName)
	field("Firma", c.CounterpartCompany)
	field("Kullanıcı", c.CounterpartID)
	field("Sevkiyat", c.ShipmentID)
	field("Takip no", c.TrackingNumber)
	field("Okunmamış", fmt.Sprintf("%d", c.UnreadCount))
	field("Son etkinlik", lastActive)
	field("Son mesaj", c.LastMessage)
	field("Mesaj sayısı", fmt.Sprintf("%d", len(c.Messages)))
	field("Durum", state)
	field("Kimlik", c.ID)

	ci.SetTitle(fmt.Sprintf(" %s ", cell(c.CounterpartName)))
}
