package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode selects what a submitted prompt line means.
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

const historySize = 20

// cmdHistory is a bounded list of submitted commands with a browse cursor.
// cursor == len(entries) means "past the newest entry".
type cmdHistory struct {
	entries []string
	cursor  int
}

func (h *cmdHistory) push(line string) {
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		h.rewind()
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > historySize {
		h.entries = h.entries[len(h.entries)-historySize:]
	}
	h.rewind()
}

func (h *cmdHistory) rewind() { h.cursor = len(h.entries) }

// older moves the cursor back and returns the entry under it.
func (h *cmdHistory) older() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// newer moves the cursor forward. Past the newest entry it returns "".
func (h *cmdHistory) newer() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor < len(h.entries)-1 {
		h.cursor++
		return h.entries[h.cursor], true
	}
	h.rewind()
	return "", true
}

// Prompt is the ':' command and '/' filter bar. Up and Down browse earlier
// commands in command mode.
type Prompt struct {
	*tview.InputField
	mode     PromptMode
	history  cmdHistory
	onSubmit func(mode PromptMode, text string)
	onCancel func()
}

// NewPrompt creates the prompt bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{InputField: input}
	input.SetDoneFunc(p.done)
	input.SetInputCapture(p.browse)
	return p
}

// done handles Enter and Esc. A submitted filter keeps its text so the
// filtered list stays as it is.
func (p *Prompt) done(key tcell.Key) {
	text := p.GetText()
	switch key {
	case tcell.KeyEnter:
		if p.mode == PromptCommand {
			p.SetText("")
			if text != "" {
				p.remember(text)
			}
		}
		if p.onSubmit != nil {
			p.onSubmit(p.mode, text)
		}
	case tcell.KeyEscape:
		p.SetText("")
		if p.onCancel != nil {
			p.onCancel()
		}
	}
}

func (p *Prompt) browse(ev *tcell.EventKey) *tcell.EventKey {
	if p.mode != PromptCommand {
		return ev
	}
	var (
		line string
		ok   bool
	)
	switch ev.Key() {
	case tcell.KeyUp:
		line, ok = p.history.older()
	case tcell.KeyDown:
		line, ok = p.history.newer()
	default:
		return ev
	}
	if !ok {
		return ev
	}
	p.SetText(line)
	return nil
}

// SetOnSubmit registers the callback for Enter. text may be empty.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnCancel registers the callback for Esc.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate clears the bar and switches it to mode.
func (p *Prompt) Activate(mode PromptMode) {
	p.mode = mode
	p.history.rewind()
	p.SetText("")
	if mode == PromptFilter {
		p.SetLabel("/")
		p.SetTitle(" Filtre ")
		return
	}
	p.SetLabel(":")
	p.SetTitle(" Komut ")
}

// Mode returns the current mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}

// History returns the remembered commands, oldest first.
func (p *Prompt) History() []string {
	return append([]string(nil), p.history.entries...)
}

func (p *Prompt) remember(text string) {
	p.history.push(text)
}
