// Package tui is the terminal front end of a session daemon.
package tui

import (
	"context"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/freightmsg/internal/api"
	"github.com/matheus3301/freightmsg/internal/tui/keys"
	"github.com/matheus3301/freightmsg/internal/tui/model"
	"github.com/matheus3301/freightmsg/internal/tui/ui"
	"github.com/matheus3301/freightmsg/internal/tui/views"
)

// Daemon is what the app needs from the session daemon client.
type Daemon interface {
	model.Daemon
	Watch(ctx context.Context, namespace string, fn func(api.Event) error) error
}

const (
	rpcTimeout  = 20 * time.Second
	maxBackoff  = 30 * time.Second
	promptLines = 3
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	daemon   Daemon
	vm       *model.ViewModel
	registry *keys.Registry
	theme    *ui.Theme

	root   *tview.Flex
	pages  *ui.Pages
	header *ui.SessionInfo
	prompt *ui.Prompt
	flash  *ui.FlashBar
	menu   *ui.Menu
	status *views.StatusBar

	list    *views.ConversationList
	thread  *views.MessageThread
	search  *views.SearchView
	details *views.ConversationInfo
	outbox  *views.OutboxView
	help    *views.HelpView

	promptOpen bool
	confirming bool
	link       *api.LinkRequest

	reloadCh chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(d Daemon, sessionName string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:      tview.NewApplication(),
		daemon:   d,
		vm:       model.NewViewModel(d),
		registry: keys.NewRegistry(),
		theme:    theme,
		pages:    ui.NewPages(),
		header:   ui.NewSessionInfo(theme),
		prompt:   ui.NewPrompt(theme),
		flash:    ui.NewFlashBar(theme),
		menu:     ui.NewMenu(theme),
		status:   views.NewStatusBar(theme),
		list:     views.NewConversationList(theme),
		thread:   views.NewMessageThread(theme),
		search:   views.NewSearchView(theme),
		details:  views.NewConversationInfo(theme),
		outbox:   views.NewOutboxView(theme),
		help:     views.NewHelpView(theme),
		reloadCh: make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}

	a.status.SetSession(sessionName)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

// OpenLink queues a deep link to apply once the first view has loaded.
func (a *App) OpenLink(req api.LinkRequest) {
	a.link = &req
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(
		keys.Rune(':', "command", func() { a.showPrompt(ui.PromptCommand) }),
		keys.Rune('/', "filter", func() {
			a.pages.Push(a.list)
			a.showPrompt(ui.PromptFilter)
		}),
		keys.Rune('?', "help", func() { a.pages.Push(a.help) }),
		keys.Rune('q', "quit", func() {
			if !a.pages.Pop() {
				a.Stop()
			}
		}),
	)

	a.registry.AddPage(a.list.Name(),
		keys.Rune('r', "refresh", a.refresh),
		keys.Rune('x', "delete", func() { a.confirmDelete(a.list.SelectedID()) }),
		keys.Rune('0', "clear filter", a.list.ClearFilter),
	)
	for n := 1; n <= 9; n++ {
		row := n
		a.registry.AddPage(a.list.Name(), keys.Rune(rune('0'+n), "jump "+strconv.Itoa(n), func() {
			if id := a.list.IDAt(row); id != "" {
				a.openConversation(id)
			}
		}))
	}

	a.registry.AddPage(a.thread.Name(),
		keys.Rune('i', "compose", func() { a.app.SetFocus(a.thread.Composer()) }),
		keys.Rune('d', "details", func() {
			if sel := a.vm.Selected(); sel != nil {
				a.details.Update(sel)
				a.pages.Push(a.details)
			}
		}),
		keys.Rune('x', "delete", func() {
			if sel := a.vm.Selected(); sel != nil {
				a.confirmDelete(sel.ID)
			}
		}),
	)
}

func (a *App) setupCallbacks() {
	a.pages.SetOnChange(func(top ui.Component) {
		a.menu.Update(top.Hints())
		a.focusTop()
	})

	a.list.SetSelectedFunc(func(row, _ int) {
		if id := a.list.IDAt(row); id != "" {
			a.openConversation(id)
		}
	})

	a.thread.SetOnSend(func(text string) {
		a.run(func(ctx context.Context) error {
			err := a.vm.Send(ctx, text)
			if err == nil {
				a.app.QueueUpdateDraw(a.thread.ClearComposer)
			}
			return err
		})
	})
	a.thread.SetOnLeave(func(draft string) {
		a.app.SetFocus(a.thread.Messages())
		a.run(func(ctx context.Context) error { return a.vm.SaveDraft(ctx, draft) })
	})

	a.search.SetOnQuery(a.runSearch)
	a.search.Results().SetSelectedFunc(func(_, _ int) {
		if id := a.search.SelectedConversation(); id != "" {
			a.openConversation(id)
		}
	})

	a.prompt.SetChangedFunc(func(text string) {
		if a.prompt.Mode() == ui.PromptFilter {
			a.list.SetFilter(text)
		}
	})
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		if mode == ui.PromptCommand && text != "" {
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(func() {
		if a.prompt.Mode() == ui.PromptFilter {
			a.list.ClearFilter()
		}
		a.hidePrompt()
	})
}

func (a *App) setupLayout() {
	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.header, 2, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.flash, 1, 0, false).
		AddItem(a.menu, 1, 0, false).
		AddItem(a.status, 1, 0, false)

	a.pages.Push(a.list)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.capture)
}

func (a *App) capture(ev *tcell.EventKey) *tcell.EventKey {
	if a.promptOpen || a.confirming {
		return ev
	}
	focused := a.app.GetFocus()

	if focused == a.search.Input() && ev.Key() == tcell.KeyTab {
		a.app.SetFocus(a.search.Results())
		return nil
	}
	// Text inputs own their keys; Esc in the composer is its own done key.
	if _, ok := focused.(*tview.InputField); ok {
		if ev.Key() == tcell.KeyEscape && focused != a.thread.Composer() {
			a.pages.Pop()
			return nil
		}
		return ev
	}
	if ev.Key() == tcell.KeyEscape {
		a.pages.Pop()
		return nil
	}

	top := a.pages.Top()
	if top != nil && a.registry.HandleEvent(top.Name(), ev) {
		return nil
	}
	return ev
}

func (a *App) focusTop() {
	switch a.pages.Top() {
	case a.thread:
		a.app.SetFocus(a.thread.Messages())
	case a.search:
		a.app.SetFocus(a.search.Input())
	case nil:
	default:
		a.app.SetFocus(a.pages.Top())
	}
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.promptOpen = true
	a.prompt.Activate(mode)
	a.root.ResizeItem(a.prompt, promptLines, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.promptOpen = false
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusTop()
}

// run executes an RPC off the UI goroutine. Failures surface as toasts
// through the view model.
func (a *App) run(fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, rpcTimeout)
		defer cancel()
		_ = fn(ctx)
	}()
}

func (a *App) refresh() {
	a.run(a.vm.Refresh)
}

func (a *App) openConversation(id string) {
	a.run(func(ctx context.Context) error {
		if err := a.vm.Open(ctx, id); err != nil {
			return err
		}
		a.app.QueueUpdateDraw(func() { a.pages.Push(a.thread) })
		return nil
	})
}

func (a *App) runSearch(query string) {
	a.run(func(ctx context.Context) error {
		hits, err := a.vm.Search(ctx, query)
		if err != nil {
			return err
		}
		a.app.QueueUpdateDraw(func() {
			a.search.Update(hits)
			if len(hits) > 0 {
				a.app.SetFocus(a.search.Results())
			}
		})
		return nil
	})
}

func (a *App) confirmDelete(id string) {
	if id == "" {
		return
	}
	name := id
	for _, c := range a.vm.Conversations() {
		if c.ID == id {
			name = c.CounterpartName
			break
		}
	}

	modal := tview.NewModal().
		SetText(name + " ile konuşma silinsin mi?").
		AddButtons([]string{"Sil", "Vazgeç"}).
		SetDoneFunc(func(_ int, label string) {
			a.pages.RemovePage("confirm")
			a.confirming = false
			a.focusTop()
			if label != "Sil" {
				return
			}
			a.run(func(ctx context.Context) error {
				if err := a.vm.Delete(ctx, id); err != nil {
					return err
				}
				a.app.QueueUpdateDraw(func() {
					if a.pages.Top() != a.list {
						a.pages.Push(a.list)
					}
				})
				return nil
			})
		})
	a.confirming = true
	a.pages.AddPage("confirm", modal, false, true)
	a.app.SetFocus(modal)
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "quit":
		a.Stop()
	case "help":
		a.pages.Push(a.help)
	case "refresh":
		a.refresh()
	case "search":
		a.pages.Push(a.search)
		if cmd.Args != "" {
			a.search.SetQuery(cmd.Args)
			a.runSearch(cmd.Args)
		}
	case "open":
		for _, c := range a.vm.Conversations() {
			if cmd.Args != "" && (c.ID == cmd.Args || views.Matches(cmd.Args, c.CounterpartName, c.CounterpartCompany, c.TrackingNumber)) {
				a.openConversation(c.ID)
				return
			}
		}
		a.vm.Notify("Konuşma bulunamadı: " + cmd.Args)
	case "link":
		req, err := linkRequest(cmd.Args)
		if err != nil {
			a.vm.Notify("Geçersiz bağlantı: " + err.Error())
			return
		}
		a.applyLink(req)
	case "delete":
		id := a.list.SelectedID()
		if a.pages.Top() == a.thread {
			if sel := a.vm.Selected(); sel != nil {
				id = sel.ID
			}
		}
		a.confirmDelete(id)
	case "outbox":
		a.run(func(ctx context.Context) error {
			entries, err := a.vm.LoadOutbox(ctx)
			if err != nil {
				return err
			}
			a.app.QueueUpdateDraw(func() {
				a.outbox.Update(entries)
				a.pages.Push(a.outbox)
			})
			return nil
		})
	case "logout":
		a.run(func(ctx context.Context) error {
			if err := a.vm.Logout(ctx); err != nil {
				return err
			}
			a.app.QueueUpdateDraw(func() { a.pages.Push(a.list) })
			return nil
		})
	default:
		a.vm.Notify("Bilinmeyen komut: " + cmd.Name)
	}
}

func (a *App) applyLink(req api.LinkRequest) {
	a.run(func(ctx context.Context) error {
		if err := a.vm.ApplyDeepLink(ctx, req); err != nil {
			return err
		}
		a.app.QueueUpdateDraw(func() { a.pages.Push(a.thread) })
		return nil
	})
}

func (a *App) render() {
	view := a.vm.View()
	info := a.vm.Session()

	a.header.Update(info)
	a.status.SetState(info.Status, view.Role, view.Sending)
	a.list.Update(view.Conversations)
	a.thread.Update(view.Selected, view.Draft, view.Sending)
	if a.pages.Top() == a.details {
		a.details.Update(view.Selected)
	}
	a.flash.Update(a.vm.Toast())
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	go a.renderLoop()
	go a.reloadLoop()
	go a.watchLoop()
	go a.tickLoop()

	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, rpcTimeout)
		defer cancel()
		if err := a.vm.Load(ctx); err == nil && a.link != nil {
			a.applyLink(*a.link)
		}
	}()

	err := a.app.Run()
	a.cancel()
	return err
}

func (a *App) renderLoop() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.vm.RefreshCh():
			a.app.QueueUpdateDraw(a.render)
		}
	}
}

func (a *App) reloadSoon() {
	select {
	case a.reloadCh <- struct{}{}:
	default:
	}
}

// reloadLoop coalesces event bursts into one view reload.
func (a *App) reloadLoop() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.reloadCh:
		}
		ctx, cancel := context.WithTimeout(a.ctx, rpcTimeout)
		err := a.vm.Load(ctx)
		cancel()
		a.app.QueueUpdateDraw(func() { a.status.SetOnline(err == nil) })

		select {
		case <-a.ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// watchLoop follows the daemon event stream, reconnecting with backoff.
func (a *App) watchLoop() {
	backoff := time.Second
	for a.ctx.Err() == nil {
		err := a.daemon.Watch(a.ctx, "", func(api.Event) error {
			backoff = time.Second
			a.reloadSoon()
			return nil
		})
		if a.ctx.Err() != nil {
			return
		}
		if err != nil {
			a.app.QueueUpdateDraw(func() { a.status.SetOnline(false) })
		}
		select {
		case <-a.ctx.Done():
			return
		case <-time.After(backoff):
		}
		a.reloadSoon()
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// tickLoop expires toasts and advances the clock.
func (a *App) tickLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.flash.Update(a.vm.Toast())
				a.status.SetState(a.vm.Session().Status, a.vm.View().Role, a.vm.View().Sending)
			})
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
