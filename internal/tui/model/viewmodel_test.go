package model

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/matheus3301/freightmsg/internal/api"
	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/inbox"
	"github.com/matheus3301/freightmsg/internal/notify"
)

type fakeDaemon struct {
	view      inbox.View
	viewErr   error
	sendErr   error
	searchQ   string
	sent      []string
	opened    []string
	refreshes int
}

func (f *fakeDaemon) Session(context.Context) (api.SessionInfo, error) {
	return api.SessionInfo{Session: "default", Status: "READY", Authenticated: true}, nil
}

func (f *fakeDaemon) View(context.Context) (inbox.View, error) { return f.view, f.viewErr }

func (f *fakeDaemon) Conversations(_ context.Context, refresh bool) ([]convo.Conversation, error) {
	if refresh {
		f.refreshes++
	}
	return f.view.Conversations, nil
}

func (f *fakeDaemon) Open(_ context.Context, id string) (*convo.Conversation, error) {
	f.opened = append(f.opened, id)
	for i := range f.view.Conversations {
		if f.view.Conversations[i].ID == id {
			c := f.view.Conversations[i]
			f.view.Selected = &c
			return &c, nil
		}
	}
	return nil, grpcstatus.Error(codes.NotFound, "unknown conversation")
}

func (f *fakeDaemon) SetDraft(_ context.Context, text string) error {
	f.view.Draft = text
	return nil
}

func (f *fakeDaemon) Send(_ context.Context, _ string, text string) (*convo.Conversation, error) {
	f.sent = append(f.sent, text)
	return f.view.Selected, f.sendErr
}

func (f *fakeDaemon) Delete(context.Context, string) error { return nil }

func (f *fakeDaemon) ApplyDeepLink(context.Context, api.LinkRequest) (*convo.Conversation, error) {
	return nil, nil
}

func (f *fakeDaemon) Search(_ context.Context, req api.SearchRequest) ([]api.SearchHit, error) {
	f.searchQ = req.Query
	return []api.SearchHit{{ConversationID: "conv:42:9", Body: "yük hazır"}}, nil
}

func (f *fakeDaemon) Outbox(context.Context, int) ([]api.OutboxItem, error) {
	return []api.OutboxItem{{ClientMsgID: "a", Status: "sent"}}, nil
}

func (f *fakeDaemon) Logout(context.Context) error { return nil }

func newFake() *fakeDaemon {
	return &fakeDaemon{view: inbox.View{
		Role: convo.RoleIndividual,
		Conversations: []convo.Conversation{
			{ID: "conv:42:9", CounterpartName: "Acme Kargo"},
			{ID: "conv:50:8", CounterpartName: "Ege Lojistik"},
		},
	}}
}

func TestLoadAndOpen(t *testing.T) {
	d := newFake()
	vm := NewViewModel(d)
	ctx := context.Background()

	if err := vm.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(vm.Conversations()); got != 2 {
		t.Fatalf("conversations = %d, want 2", got)
	}
	if vm.Session().Status != "READY" {
		t.Fatalf("session = %+v", vm.Session())
	}

	if err := vm.Open(ctx, "conv:50:8"); err != nil {
		t.Fatal(err)
	}
	if sel := vm.Selected(); sel == nil || sel.ID != "conv:50:8" {
		t.Fatalf("selected = %+v", sel)
	}

	select {
	case <-vm.RefreshCh():
	default:
		t.Fatal("no refresh signal")
	}
}

func TestOpenFailureToastsLocally(t *testing.T) {
	vm := NewViewModel(newFake())

	if err := vm.Open(context.Background(), "conv:missing"); err == nil {
		t.Fatal("expected error")
	}
	toast := vm.Toast()
	if toast == nil || toast.Severity != notify.Error {
		t.Fatalf("toast = %+v", toast)
	}
	if !strings.Contains(toast.Text, "unknown conversation") || strings.Contains(toast.Text, "rpc error") {
		t.Fatalf("toast text = %q", toast.Text)
	}
}

func TestSendUsesDaemonToast(t *testing.T) {
	d := newFake()
	d.sendErr = grpcstatus.Error(codes.InvalidArgument, "blocked")
	d.view.Toast = &notify.Toast{Text: "Mesaj gönderilemedi.", Severity: notify.Error, Expires: time.Now().Add(time.Minute)}
	vm := NewViewModel(d)

	err := vm.Send(context.Background(), "selam")
	if grpcstatus.Code(err) != codes.InvalidArgument {
		t.Fatalf("err = %v", err)
	}
	if len(d.sent) != 1 || d.sent[0] != "selam" {
		t.Fatalf("sent = %v", d.sent)
	}
	if toast := vm.Toast(); toast == nil || toast.Text != "Mesaj gönderilemedi." {
		t.Fatalf("toast = %+v", toast)
	}
}

func TestSendReloadFailure(t *testing.T) {
	d := newFake()
	d.viewErr = errors.New("connection refused")
	vm := NewViewModel(d)

	if err := vm.Send(context.Background(), "selam"); err == nil {
		t.Fatal("expected error")
	}
	if toast := vm.Toast(); toast == nil || !strings.Contains(toast.Text, "connection refused") {
		t.Fatalf("toast = %+v", toast)
	}
}

func TestExpiredDaemonToastHidden(t *testing.T) {
	d := newFake()
	d.view.Toast = &notify.Toast{Text: "eski", Expires: time.Now().Add(-time.Second)}
	vm := NewViewModel(d)
	if err := vm.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if toast := vm.Toast(); toast != nil {
		t.Fatalf("toast = %+v, want nil", toast)
	}
}

func TestRefreshSearchOutbox(t *testing.T) {
	d := newFake()
	vm := NewViewModel(d)
	ctx := context.Background()

	if err := vm.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if d.refreshes != 1 {
		t.Fatalf("refreshes = %d, want 1", d.refreshes)
	}

	hits, err := vm.Search(ctx, "yük")
	if err != nil {
		t.Fatal(err)
	}
	if d.searchQ != "yük" || len(hits) != 1 || len(vm.Results()) != 1 {
		t.Fatalf("query %q, hits %+v", d.searchQ, hits)
	}

	if _, err := vm.LoadOutbox(ctx); err != nil {
		t.Fatal(err)
	}
	if got := vm.Outbox(); len(got) != 1 || got[0].Status != "sent" {
		t.Fatalf("outbox = %+v", got)
	}

	if err := vm.SaveDraft(ctx, "taslak"); err != nil {
		t.Fatal(err)
	}
	if d.view.Draft != "taslak" {
		t.Fatalf("draft = %q", d.view.Draft)
	}
}
