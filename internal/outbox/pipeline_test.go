package outbox

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/marketapi"
	"github.com/matheus3301/freightmsg/internal/moderation"
	"github.com/matheus3301/freightmsg/internal/session"
	"github.com/matheus3301/freightmsg/internal/status"
	"github.com/matheus3301/freightmsg/internal/store"
	"github.com/matheus3301/freightmsg/internal/wire"
)

// fakeBackend records calls and returns configurable results.
type fakeBackend struct {
	mu            sync.Mutex
	sends         []marketapi.SendRequest
	shipmentCalls int
	shipment      wire.RawShipment
	shipmentErr   error
	sendErr       error
	serverID      string
}

func (f *fakeBackend) Send(_ context.Context, req marketapi.SendRequest) (wire.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, req)
	if f.sendErr != nil {
		return wire.RawMessage{}, f.sendErr
	}
	return wire.RawMessage{ServerID: f.serverID, Body: req.Message}, nil
}

func (f *fakeBackend) Shipment(_ context.Context, id string) (wire.RawShipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shipmentCalls++
	if f.shipmentErr != nil {
		return wire.RawShipment{}, f.shipmentErr
	}
	s := f.shipment
	s.ID = id
	return s, nil
}

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var (
	fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	shipper  = session.Context{UserID: "1", Token: "t", Role: convo.RoleIndividual}
)

func newPipeline(be Backend, j Journal) *Pipeline {
	return NewPipeline(be, Options{Journal: j, Now: func() time.Time { return fixedNow }})
}

func TestPrepareGate(t *testing.T) {
	db := testDB(t)
	p := newPipeline(&fakeBackend{}, db)
	conv := &convo.Conversation{ID: "conv:42:7", CounterpartID: "7", ShipmentID: "42"}

	tests := []struct {
		name string
		text string
		conv *convo.Conversation
		want Class
	}{
		{"empty", "   ", conv, ClassEmpty},
		{"no conversation", "selam", nil, ClassNoConversation},
		{"denylisted", "sen ne SALAKsın", conv, ClassContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := p.Prepare(tt.text, tt.conv, shipper, convo.RoleIndividual)
			if a != nil {
				t.Fatal("gate failure must not produce an attempt")
			}
			if got := Classify(err); got != tt.want {
				t.Fatalf("class = %s, want %s (%v)", got, tt.want, err)
			}
		})
	}

	entries, err := db.ListOutbox(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("gate failures were journaled: %+v", entries)
	}
}

func TestPrepareBuildsTempMessage(t *testing.T) {
	p := newPipeline(&fakeBackend{}, nil)
	conv := &convo.Conversation{ID: "conv:42:7", CounterpartID: "7", ShipmentID: "42",
		Messages: []convo.Message{{ID: "m1"}}}

	a, err := p.Prepare("  Merhaba  ", conv, shipper, convo.RoleIndividual)
	if err != nil {
		t.Fatal(err)
	}
	if a.Temp.ID != "temp-1714564800000" {
		t.Errorf("temp id = %q", a.Temp.ID)
	}
	if a.Temp.Status != convo.StatusSending || a.Temp.Text != "Merhaba" || a.Temp.From != "Siz" || !a.Temp.IsMine {
		t.Errorf("temp = %+v", a.Temp)
	}
	if a.Phase() != status.Sending {
		t.Errorf("phase = %s", a.Phase())
	}
	if a.Conversation.Messages != nil {
		t.Error("attempt should not carry the thread")
	}
}

func TestDeliverSuccess(t *testing.T) {
	db := testDB(t)
	be := &fakeBackend{serverID: "991", shipment: wire.RawShipment{Status: "In-Transit"}}
	p := newPipeline(be, db)
	conv := &convo.Conversation{ID: "conv:42:7", CounterpartID: "7", ShipmentID: "42"}

	a, err := p.Prepare("Merhaba", conv, shipper, convo.RoleIndividual)
	if err != nil {
		t.Fatal(err)
	}
	msg, err := p.Deliver(context.Background(), a)
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if !strings.HasPrefix(msg.ID, "sent-") || msg.Status != convo.StatusSent || msg.ServerID != "991" {
		t.Errorf("msg = %+v", msg)
	}
	if a.Phase() != status.Sent {
		t.Errorf("phase = %s", a.Phase())
	}
	if len(be.sends) != 1 || be.sends[0] != (marketapi.SendRequest{ReceiverID: "7", ShipmentID: "42", Message: "Merhaba"}) {
		t.Errorf("sends = %+v", be.sends)
	}

	entry, err := db.GetOutbox(a.ClientID)
	if err != nil || entry == nil {
		t.Fatalf("GetOutbox: %v %v", entry, err)
	}
	if entry.Status != store.OutboxSent || entry.ServerMsgID != "991" || entry.ReceiverID != "7" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestDeliverStatusGate(t *testing.T) {
	db := testDB(t)
	be := &fakeBackend{shipment: wire.RawShipment{Status: "pending"}}
	p := newPipeline(be, db)
	conv := &convo.Conversation{ID: "conv:42:7", CounterpartID: "7", ShipmentID: "42"}

	a, err := p.Prepare("Merhaba", conv, shipper, convo.RoleIndividual)
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Deliver(context.Background(), a)
	var gate *StatusGateError
	if !errors.As(err, &gate) || gate.Status != "pending" {
		t.Fatalf("expected StatusGateError, got %v", err)
	}
	if len(be.sends) != 0 {
		t.Fatal("status gate must stop the network send")
	}
	if a.Phase() != status.Failed {
		t.Errorf("phase = %s", a.Phase())
	}
	if msg := UserMessage(err); !strings.Contains(msg, "beklemede") {
		t.Errorf("toast = %q", msg)
	}

	entry, _ := db.GetOutbox(a.ClientID)
	if entry == nil || entry.Status != store.OutboxFailed || entry.ErrorMessage == "" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestResolveReceiverFromShipment(t *testing.T) {
	tests := []struct {
		name     string
		viewer   convo.Role
		self     string
		shipment wire.RawShipment
		want     string
		wantErr  error
	}{
		{
			name:     "carrier viewer picks shipper",
			viewer:   convo.RoleNakliyeci,
			self:     "8",
			shipment: wire.RawShipment{Status: "accepted", ShipperIDs: []string{"3"}, CarrierIDs: []string{"8"}},
			want:     "3",
		},
		{
			name:     "shipper viewer picks carrier",
			viewer:   convo.RoleCorporate,
			self:     "3",
			shipment: wire.RawShipment{Status: "assigned", ShipperIDs: []string{"3"}, CarrierIDs: []string{"8"}},
			want:     "8",
		},
		{
			name:     "skips self",
			viewer:   convo.RoleCorporate,
			self:     "3",
			shipment: wire.RawShipment{Status: "assigned", ShipperIDs: []string{"3"}, CarrierIDs: []string{"3", "9"}},
			want:     "9",
		},
		{
			name:     "only self",
			viewer:   convo.RoleCorporate,
			self:     "3",
			shipment: wire.RawShipment{Status: "assigned", ShipperIDs: []string{"3"}},
			wantErr:  ErrRecipientNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &fakeBackend{shipment: tt.shipment}
			p := newPipeline(be, nil)
			sc := session.Context{UserID: tt.self, Token: "t"}
			conv := &convo.Conversation{ID: "conv:42:", ShipmentID: "42", CounterpartID: tt.self}

			a, err := p.Prepare("selam", conv, sc, tt.viewer)
			if err != nil {
				t.Fatal(err)
			}
			msg, err := p.Deliver(context.Background(), a)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if msg.ReceiverID != tt.want {
				t.Fatalf("receiver = %q, want %q", msg.ReceiverID, tt.want)
			}
			if be.shipmentCalls != 1 {
				t.Errorf("shipment fetched %d times, want 1", be.shipmentCalls)
			}
		})
	}
}

func TestDeliverNoRecipient(t *testing.T) {
	be := &fakeBackend{}
	p := newPipeline(be, nil)
	a, err := p.Prepare("selam", &convo.Conversation{ID: "conv:row-0"}, shipper, convo.RoleIndividual)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Deliver(context.Background(), a); !errors.Is(err, ErrRecipientNotFound) {
		t.Fatalf("err = %v", err)
	}
	if be.shipmentCalls != 0 || len(be.sends) != 0 {
		t.Fatal("no backend call expected")
	}
}

func TestDeliverNetworkFailure(t *testing.T) {
	be := &fakeBackend{sendErr: &marketapi.NetworkError{Endpoint: "send", Err: errors.New("connection refused")}}
	p := newPipeline(be, nil)
	a, err := p.Prepare("selam", &convo.Conversation{ID: "conv::7", CounterpartID: "7"}, shipper, convo.RoleIndividual)
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Deliver(context.Background(), a)
	if Classify(err) != ClassNetwork {
		t.Fatalf("class = %s (%v)", Classify(err), err)
	}
	if UserMessage(err) != "Mesaj gönderilemedi, lütfen tekrar deneyin." {
		t.Fatalf("toast = %q", UserMessage(err))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Class
	}{
		{nil, ClassNone},
		{&moderation.Violation{Term: "x"}, ClassContent},
		{ErrSendInFlight, ClassInFlight},
		{context.Canceled, ClassCanceled},
		{context.DeadlineExceeded, ClassNetwork},
		{&marketapi.APIError{Status: 502}, ClassNetwork},
		{&marketapi.APIError{Status: 403}, ClassOther},
		{&marketapi.APIError{Status: 403, Message: "shipment status pending"}, ClassOther},
		{&marketapi.APIError{Status: 422}, ClassOther},
		{&marketapi.APIError{Status: 422, Message: "shipment is pending"}, ClassStatusGate},
		{&marketapi.APIError{Status: 400, Message: "Gönderi durumu uygun değil"}, ClassStatusGate},
		{&marketapi.APIError{Status: 409, Message: "invalid shipment status"}, ClassStatusGate},
		{&marketapi.APIError{Status: 500, Message: "status unavailable"}, ClassNetwork},
		{errors.New("boom"), ClassOther},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestUserMessageBackendStatusRejection(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"names the status",
			fmt.Errorf("send: %w", &marketapi.APIError{Endpoint: "send", Status: 422, Message: "Shipment is CANCELLED"}),
			"Bu gönderi için mesajlaşma henüz açık değil (durum: iptal edildi).",
		},
		{
			"status without a value",
			&marketapi.APIError{Endpoint: "send", Status: 400, Message: "messaging not allowed for this status"},
			"Bu gönderi için mesajlaşma henüz açık değil (durum: bilinmiyor).",
		},
		{
			"hyphenated status",
			&marketapi.APIError{Endpoint: "send", Status: 422, Message: "offer-accepted shipments are closed"},
			"Bu gönderi için mesajlaşma henüz açık değil (durum: teklif kabul edildi).",
		},
		{
			"unrelated rejection",
			&marketapi.APIError{Endpoint: "send", Status: 422, Message: "message too long"},
			"Mesaj gönderilemedi, lütfen tekrar deneyin.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
