package notify

import (
	"testing"
	"time"

	"github.com/matheus3301/freightmsg/internal/bus"
)

func TestToastExpires(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := New(4*time.Second, nil)
	n.now = func() time.Time { return now }

	n.Error("Mesaj boş olamaz.")
	got, ok := n.Current()
	if !ok || got.Severity != Error || got.Text != "Mesaj boş olamaz." {
		t.Fatalf("Current = %+v, %v", got, ok)
	}

	now = now.Add(4 * time.Second)
	if _, ok := n.Current(); ok {
		t.Fatal("toast should expire after its ttl")
	}
}

func TestToastReplacesAndDismisses(t *testing.T) {
	n := New(time.Minute, nil)
	n.Info("bir")
	n.Success("iki")
	if got, _ := n.Current(); got.Text != "iki" || got.Severity != Success {
		t.Fatalf("Current = %+v", got)
	}
	n.Dismiss()
	if _, ok := n.Current(); ok {
		t.Fatal("toast should be dismissed")
	}
	n.Info("")
	if _, ok := n.Current(); ok {
		t.Fatal("empty text must not show a toast")
	}
}

func TestToastPublishes(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("toast.", 1)
	defer unsub()

	New(0, b).Success("Konuşma silindi.")
	select {
	case evt := <-ch:
		if toast, ok := evt.Payload.(Toast); !ok || toast.Text != "Konuşma silindi." {
			t.Fatalf("payload = %#v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no toast event")
	}
}
