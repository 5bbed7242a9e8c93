package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/tui/ui"
)

// MessageThread shows the open conversation above a composer.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *tview.InputField
	title    string
	onSend   func(text string)
	onLeave  func(draft string)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Mesajlar ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Yaz (i) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := composer.GetText()
			if strings.TrimSpace(text) != "" && mt.onSend != nil {
				mt.onSend(text)
			}
		case tcell.KeyEscape:
			if mt.onLeave != nil {
				mt.onLeave(composer.GetText())
			}
		}
	})

	return mt
}

// Name implements ui.Component.
func (mt *MessageThread) Name() string { return "thread" }

// Hints implements ui.Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Yaz"},
		{Key: "d", Description: "Ayrıntı"},
		{Key: "Esc", Description: "Geri"},
		{Key: ":", Description: "Komut"},
		{Key: "?", Description: "Yardım"},
	}
}

// SetOnSend sets the callback for Enter in the composer.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// SetOnLeave sets the callback for Esc in the composer. It receives the
// unsent text so it can be kept as a draft.
func (mt *MessageThread) SetOnLeave(fn func(draft string)) {
	mt.onLeave = fn
}

// Update renders c and restores draft into an empty composer. sending
// locks the composer while a send is in flight.
func (mt *MessageThread) Update(c *convo.Conversation, draft string, sending bool) {
	mt.messages.Clear()
	if c == nil {
		mt.messages.SetTitle(" Mesajlar ")
		return
	}

	title := c.CounterpartName
	if c.TrackingNumber != "" {
		title += " · " + c.TrackingNumber
	}
	mt.title = title
	mt.messages.SetTitle(" " + cell(title) + " ")

	mine := ui.ColorName(mt.theme.MineColor)
	for _, m := range c.Messages {
		sender := cell(m.From)
		if m.IsMine {
			sender = fmt.Sprintf("[%s]%s[-]", mine, sender)
		}
		mark := ""
		if m.IsMine {
			mark = " " + mt.theme.StatusMark(m.Status)
		}
		_, _ = fmt.Fprintf(mt.messages, "[::b]%s[-:-:-] [::d]%s[-:-:-]%s\n%s\n\n",
			sender, tview.Escape(m.Time), mark, cell(m.Text))
	}
	mt.messages.ScrollToEnd()

	if sending {
		mt.composer.SetTitle(" Gönderiliyor… ")
	} else {
		mt.composer.SetTitle(" Yaz (i) ")
		if mt.composer.GetText() == "" && draft != "" {
			mt.composer.SetText(draft)
		}
	}
	mt.composer.SetDisabled(sending)
}

// ClearComposer empties the composer after a send went through.
func (mt *MessageThread) ClearComposer() {
	mt.composer.SetText("")
}

// Title returns the header of the rendered conversation.
func (mt *MessageThread) Title() string {
	return mt.title
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}
