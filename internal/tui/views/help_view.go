package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/freightmsg/internal/tui/ui"
)

// HelpView lists the key bindings and prompt commands.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Yardım ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "help" }

// Hints implements ui.Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Geri"},
	}
}

var helpSections = []struct {
	title string
	rows  [][2]string
}{
	{"Genel", [][2]string{
		{":", "Komut satırı"},
		{"/", "Konuşmaları filtrele"},
		{"?", "Yardım"},
		{"Esc", "Geri / iptal"},
		{"q", "Çık"},
		{"Ctrl-C", "Hemen çık"},
	}},
	{"Konuşmalar", [][2]string{
		{"Enter", "Konuşmayı aç"},
		{"1-9", "N. konuşmayı aç"},
		{"r", "Listeyi yenile"},
		{"x", "Konuşmayı sil"},
		{"0", "Filtreyi temizle"},
	}},
	{"Mesajlar", [][2]string{
		{"i", "Yazma alanına geç"},
		{"Enter", "Gönder (yazarken)"},
		{"Esc", "Yazmayı bırak, taslağı sakla"},
		{"d", "Konuşma ayrıntıları"},
	}},
	{"Komutlar", [][2]string{
		{":refresh", "Listeyi yenile"},
		{":search <metin>", "Mesajlarda ara"},
		{":open <ad>", "Ada göre konuşma aç"},
		{":link userId=..&shipmentId=..", "Bağlantıdan konuşma aç"},
		{":delete", "Seçili konuşmayı sil"},
		{":outbox", "Gönderim kuyruğu"},
		{":logout", "Oturumu kapat"},
		{":help / :h", "Yardım"},
		{":quit / :q", "Çık"},
	}},
}

func (hv *HelpView) render() {
	kc := ui.ColorName(hv.theme.MenuKeyColor)

	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, r := range s.rows {
			fmt.Fprintf(&b, "  [%s]%-32s[-:-:-] %s\n", kc, tview.Escape(r[0]), r[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
