package model

import (
	"context"
	"sync"
	"time"

	grpcstatus "google.golang.org/grpc/status"

	"github.com/matheus3301/freightmsg/internal/api"
	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/inbox"
	"github.com/matheus3301/freightmsg/internal/notify"
)

// Daemon is the part of api.Client the TUI drives.
type Daemon interface {
	Session(ctx context.Context) (api.SessionInfo, error)
	View(ctx context.Context) (inbox.View, error)
	Conversations(ctx context.Context, refresh bool) ([]convo.Conversation, error)
	Open(ctx context.Context, id string) (*convo.Conversation, error)
	SetDraft(ctx context.Context, text string) error
	Send(ctx context.Context, conversationID, text string) (*convo.Conversation, error)
	Delete(ctx context.Context, id string) error
	ApplyDeepLink(ctx context.Context, req api.LinkRequest) (*convo.Conversation, error)
	Search(ctx context.Context, req api.SearchRequest) ([]api.SearchHit, error)
	Outbox(ctx context.Context, limit int) ([]api.OutboxItem, error)
	Logout(ctx context.Context) error
}

// ViewModel caches daemon state for the views and signals UI refreshes.
type ViewModel struct {
	mu sync.RWMutex

	daemon  Daemon
	session api.SessionInfo
	view    inbox.View
	results []api.SearchHit
	outbox  []api.OutboxItem

	// local carries client-side failures, which the daemon never sees.
	local     *notify.Notifier
	refreshCh chan struct{}
}

// NewViewModel creates a view model backed by d.
func NewViewModel(d Daemon) *ViewModel {
	return &ViewModel{
		daemon:    d,
		local:     notify.New(5*time.Second, nil),
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// fail records err as a local toast and returns it.
func (vm *ViewModel) fail(prefix string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if s, ok := grpcstatus.FromError(err); ok {
		msg = s.Message()
	}
	vm.local.Error(prefix + ": " + msg)
	vm.signalRefresh()
	return err
}

// Notify shows an informational toast that never reached the daemon.
func (vm *ViewModel) Notify(text string) {
	vm.local.Info(text)
	vm.signalRefresh()
}

// Load fetches the session summary and the controller view.
func (vm *ViewModel) Load(ctx context.Context) error {
	info, err := vm.daemon.Session(ctx)
	if err != nil {
		return vm.fail("Oturum", err)
	}
	view, err := vm.daemon.View(ctx)
	if err != nil {
		return vm.fail("Görünüm", err)
	}
	vm.mu.Lock()
	vm.session = info
	vm.view = view
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// Refresh asks the daemon to refetch the conversation list, then reloads.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	if _, err := vm.daemon.Conversations(ctx, true); err != nil {
		return vm.fail("Yenileme", err)
	}
	return vm.Load(ctx)
}

// Open selects a conversation and loads its thread.
func (vm *ViewModel) Open(ctx context.Context, id string) error {
	if _, err := vm.daemon.Open(ctx, id); err != nil {
		return vm.fail("Açma", err)
	}
	return vm.Load(ctx)
}

// SaveDraft stores the composer text on the daemon.
func (vm *ViewModel) SaveDraft(ctx context.Context, text string) error {
	if err := vm.daemon.SetDraft(ctx, text); err != nil {
		return vm.fail("Taslak", err)
	}
	return nil
}

// Send sends text to the selected conversation. The daemon toasts its own
// send failures; a local toast appears only when the reload fails too.
func (vm *ViewModel) Send(ctx context.Context, text string) error {
	_, err := vm.daemon.Send(ctx, "", text)
	if loadErr := vm.Load(ctx); loadErr != nil {
		return loadErr
	}
	return err
}

// Delete removes a conversation.
func (vm *ViewModel) Delete(ctx context.Context, id string) error {
	err := vm.daemon.Delete(ctx, id)
	if loadErr := vm.Load(ctx); loadErr != nil {
		return loadErr
	}
	return err
}

// ApplyDeepLink opens the conversation a link points to.
func (vm *ViewModel) ApplyDeepLink(ctx context.Context, req api.LinkRequest) error {
	if _, err := vm.daemon.ApplyDeepLink(ctx, req); err != nil {
		return vm.fail("Bağlantı", err)
	}
	return vm.Load(ctx)
}

// Search runs a cached message search.
func (vm *ViewModel) Search(ctx context.Context, query string) ([]api.SearchHit, error) {
	hits, err := vm.daemon.Search(ctx, api.SearchRequest{Query: query, Limit: 50})
	if err != nil {
		return nil, vm.fail("Arama", err)
	}
	vm.mu.Lock()
	vm.results = hits
	vm.mu.Unlock()
	return hits, nil
}

// LoadOutbox fetches the most recent send journal entries.
func (vm *ViewModel) LoadOutbox(ctx context.Context) ([]api.OutboxItem, error) {
	entries, err := vm.daemon.Outbox(ctx, 100)
	if err != nil {
		return nil, vm.fail("Gönderim kuyruğu", err)
	}
	vm.mu.Lock()
	vm.outbox = entries
	vm.mu.Unlock()
	return entries, nil
}

// Logout drops the session on the daemon.
func (vm *ViewModel) Logout(ctx context.Context) error {
	if err := vm.daemon.Logout(ctx); err != nil {
		return vm.fail("Çıkış", err)
	}
	return vm.Load(ctx)
}

// Session returns the last session summary.
func (vm *ViewModel) Session() api.SessionInfo {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.session
}

// View returns the last controller view.
func (vm *ViewModel) View() inbox.View {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.view
}

// Conversations returns the cached conversation list.
func (vm *ViewModel) Conversations() []convo.Conversation {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.view.Conversations
}

// Selected returns the open conversation, or nil.
func (vm *ViewModel) Selected() *convo.Conversation {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.view.Selected
}

// Results returns the last search hits.
func (vm *ViewModel) Results() []api.SearchHit {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.results
}

// Outbox returns the last loaded send journal entries.
func (vm *ViewModel) Outbox() []api.OutboxItem {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.outbox
}

// Toast returns the toast to show: a local failure wins over the daemon's.
func (vm *ViewModel) Toast() *notify.Toast {
	if t, ok := vm.local.Current(); ok {
		return &t
	}
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if t := vm.view.Toast; t != nil && time.Now().Before(t.Expires) {
		return t
	}
	return nil
}
