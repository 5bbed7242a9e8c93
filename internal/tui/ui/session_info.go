package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/freightmsg/internal/api"
)

// SessionInfo is the header panel with the session summary.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders info.
func (si *SessionInfo) Update(info api.SessionInfo) {
	si.Clear()

	fg := ColorName(si.theme.FgColor)
	ct := ColorName(si.theme.CounterColor)

	user := info.Name
	if user == "" {
		user = "-"
	}
	role := "-"
	if info.Role != "" {
		role = info.Role.Label()
	}
	refreshed := "-"
	if info.LastRefresh != nil {
		refreshed = info.LastRefresh.Local().Format("15:04:05")
	}

	_, _ = fmt.Fprintf(si,
		"[%s::b]Oturum:[-:-:-] [%s]%s[-]  [%s::b]Durum:[-:-:-] [%s]%s[-]  [%s::b]Kullanıcı:[-:-:-] [%s]%s[-] (%s)\n"+
			"[%s::b]Konuşma:[-:-:-] [%s]%d[-]  [%s::b]Mesaj:[-:-:-] [%s]%d[-]  [%s::b]Bekleyen:[-:-:-] [%s]%d[-]  [%s::b]Yenileme:[-:-:-] [%s]%s[-]  [%s::b]Süre:[-:-:-] [%s]%s[-]",
		fg, ct, tview.Escape(info.Session),
		fg, ct, info.Status,
		fg, ct, tview.Escape(user), role,
		fg, ct, info.Conversations,
		fg, ct, info.Messages,
		fg, ct, info.PendingSends,
		fg, ct, refreshed,
		fg, ct, formatDuration(time.Duration(info.UptimeMs)*time.Millisecond),
	)
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
