package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/inbox"
	"github.com/matheus3301/freightmsg/internal/marketapi"
	"github.com/matheus3301/freightmsg/internal/session"
	"github.com/matheus3301/freightmsg/internal/status"
	"github.com/matheus3301/freightmsg/internal/wire"
)

type stubBackend struct {
	err error
}

func (s *stubBackend) Conversations(context.Context, convo.Role) ([]wire.RawConversation, error) {
	return nil, s.err
}

func (s *stubBackend) ShipmentThread(context.Context, string) ([]wire.RawMessage, error) {
	return nil, nil
}

func (s *stubBackend) UserThread(context.Context, string) ([]wire.RawMessage, error) {
	return nil, nil
}

func (s *stubBackend) DeleteConversation(context.Context, string, string) error { return nil }

func (s *stubBackend) Shipment(context.Context, string) (wire.RawShipment, error) {
	return wire.RawShipment{}, nil
}

func (s *stubBackend) Send(context.Context, marketapi.SendRequest) (wire.RawMessage, error) {
	return wire.RawMessage{}, nil
}

func newTestRefresher(t *testing.T, be *stubBackend, sc session.Context) (*Refresher, *status.Machine) {
	t.Helper()
	ctrl := inbox.New(be, inbox.Options{Sessions: session.NewStore(sc, nil)})
	t.Cleanup(ctrl.Close)
	m := status.NewSessionMachine(nil)
	r, err := NewRefresher("", ctrl, m, time.Second, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return r, m
}

var signedIn = session.Context{UserID: "1", Token: "t"}

func TestRefresherStates(t *testing.T) {
	be := &stubBackend{}
	r, m := newTestRefresher(t, be, signedIn)
	ctx := context.Background()

	if err := r.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if m.Current() != status.Ready {
		t.Fatalf("after success: %s", m.Current())
	}

	be.err = &marketapi.NetworkError{Endpoint: "conversations", Err: errors.New("refused")}
	_ = r.RunOnce(ctx)
	if m.Current() != status.Degraded {
		t.Fatalf("after failure: %s", m.Current())
	}
	_ = r.RunOnce(ctx)
	if m.Current() != status.Degraded {
		t.Fatalf("after second failure: %s", m.Current())
	}

	be.err = nil
	_ = r.RunOnce(ctx)
	if m.Current() != status.Ready {
		t.Fatalf("after recovery: %s", m.Current())
	}

	be.err = &marketapi.APIError{Endpoint: "conversations", Status: 401}
	_ = r.RunOnce(ctx)
	if m.Current() != status.AuthRequired {
		t.Fatalf("after 401: %s", m.Current())
	}
}

func TestRefresherFailureWhileBooting(t *testing.T) {
	be := &stubBackend{err: &marketapi.NetworkError{Endpoint: "conversations", Err: errors.New("refused")}}
	r, m := newTestRefresher(t, be, signedIn)
	_ = r.RunOnce(context.Background())
	if m.Current() != status.Booting {
		t.Errorf("state = %s, want BOOTING", m.Current())
	}
}

func TestRefresherNoSession(t *testing.T) {
	r, m := newTestRefresher(t, &stubBackend{}, session.Context{})
	_ = r.RunOnce(context.Background())
	if m.Current() != status.AuthRequired {
		t.Errorf("state = %s, want AUTH_REQUIRED", m.Current())
	}
}

func TestRefresherRejectsBadSchedule(t *testing.T) {
	ctrl := inbox.New(&stubBackend{}, inbox.Options{})
	defer ctrl.Close()
	if _, err := NewRefresher("every now and then", ctrl, status.NewSessionMachine(nil), time.Second, zap.NewNop()); err == nil {
		t.Error("expected schedule parse error")
	}
}

func TestRefresherSchedule(t *testing.T) {
	ctrl := inbox.New(&stubBackend{}, inbox.Options{Sessions: session.NewStore(signedIn, nil)})
	defer ctrl.Close()
	m := status.NewSessionMachine(nil)
	r, err := NewRefresher("@every 1s", ctrl, m, time.Second, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	r.Start()
	defer r.Stop(context.Background())

	waitFor(t, "scheduled refresh", func() bool { return m.Current() == status.Ready })
}
