package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/tui/ui"
)

// StatusBar is the bottom line with the session state and a clock.
type StatusBar struct {
	*tview.TextView
	theme   *ui.Theme
	session string
	status  string
	role    convo.Role
	sending bool
	online  bool
	now     func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme, now: time.Now, online: true}
}

// SetSession updates the session name display.
func (sb *StatusBar) SetSession(name string) {
	sb.session = name
	sb.render()
}

// SetState updates the daemon status, the viewer role and the send indicator.
func (sb *StatusBar) SetState(status string, role convo.Role, sending bool) {
	sb.status = status
	sb.role = role
	sb.sending = sending
	sb.render()
}

// SetOnline records whether the event stream from the daemon is connected.
func (sb *StatusBar) SetOnline(online bool) {
	sb.online = online
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	link := fmt.Sprintf("[%s]●[-]", ui.ColorName(sb.theme.ToastOkColor))
	if !sb.online {
		link = fmt.Sprintf("[%s]○[-]", ui.ColorName(sb.theme.ToastErrColor))
	}
	sendIcon := " "
	if sb.sending {
		sendIcon = fmt.Sprintf("[%s]↑[-]", ui.ColorName(sb.theme.PendingColor))
	}
	role := "-"
	if sb.role != "" {
		role = sb.role.Label()
	}

	_, _ = fmt.Fprintf(sb, " %s [::b]%s[-:-:-] | %s | %s %s | %s",
		link, tview.Escape(sb.session), sb.status, role, sendIcon, sb.now().Format("15:04"))
}
