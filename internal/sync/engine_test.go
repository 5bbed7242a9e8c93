package sync

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/matheus3301/freightmsg/internal/bus"
	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/inbox"
	"github.com/matheus3301/freightmsg/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSaveConversationsRoundTrip(t *testing.T) {
	db := testDB(t)
	e := NewEngine(db, bus.New(), nil)

	at := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	list := []convo.Conversation{
		{ID: "conv:local:1", Local: true},
		{ID: "conv:42:9", Key: "42::Acme", CounterpartID: "9", CounterpartName: "Acme", ShipmentID: "42",
			TrackingNumber: "#42", LastMessage: "yeni", LastMessageAt: at, UnreadCount: 1},
	}
	if err := e.SaveConversations(list); err != nil {
		t.Fatal(err)
	}

	cached, err := e.Cached()
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 1 {
		t.Fatalf("got %d cached, want 1 (local conversations are skipped)", len(cached))
	}
	got, want := cached[0], list[1]
	if !got.LastMessageAt.Equal(want.LastMessageAt) {
		t.Fatalf("LastMessageAt = %v, want %v", got.LastMessageAt, want.LastMessageAt)
	}
	got.LastMessageAt = want.LastMessageAt
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}
	if NewReconciler(db, nil).LastRefresh().IsZero() {
		t.Fatal("refresh checkpoint not stamped")
	}
}

func TestSaveThreadSkipsTemp(t *testing.T) {
	db := testDB(t)
	e := NewEngine(db, bus.New(), nil)

	created := time.UnixMilli(1000).UTC()
	err := e.SaveThread(inbox.ThreadLoaded{ConversationID: "c1", Messages: []convo.Message{
		{ID: "m1", Text: "selam", From: "Acme", FromType: convo.RoleNakliyeci, Status: convo.StatusRead, CreatedAt: &created},
		{ID: "temp-5", Text: "gidiyor", Status: convo.StatusSending},
	}})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := db.ListMessages("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	m := MessageFromRow(rows[0])
	if m.ID != "m1" || m.FromType != convo.RoleNakliyeci || m.CreatedAt == nil || !m.CreatedAt.Equal(created) {
		t.Fatalf("restored = %+v", m)
	}
}

func TestEngineConsumesBusEvents(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, nil)
	e.Start(context.Background())
	defer e.Stop()

	b.Publish(bus.NewEvent(bus.KindConversationsLoaded, []convo.Conversation{{ID: "conv:1:2"}, {ID: "conv:3:4"}}))
	b.Publish(bus.NewEvent(bus.KindConversationDeleted, "conv:1:2"))

	deadline := time.Now().Add(2 * time.Second)
	for {
		rows, err := db.ListConversations()
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) == 1 && rows[0].ID == "conv:3:4" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("cache never converged: %+v", rows)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReconcileAbandonsUnfinished(t *testing.T) {
	db := testDB(t)
	if err := db.QueueOutbox(store.OutboxEntry{ClientMsgID: "a", ConversationID: "c", Body: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := NewReconciler(db, nil).Reconcile(); err != nil {
		t.Fatal(err)
	}
	e, err := db.GetOutbox("a")
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != store.OutboxFailed || e.ErrorMessage != abandonReason {
		t.Fatalf("entry = %+v", e)
	}
}
