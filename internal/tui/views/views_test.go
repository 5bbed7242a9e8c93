package views

import (
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/freightmsg/internal/api"
	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/tui/ui"
)

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, ""},
		{"today", time.Date(2024, 5, 1, 9, 5, 0, 0, time.UTC), "09:05"},
		{"this year", time.Date(2024, 3, 7, 9, 5, 0, 0, time.UTC), "07.03"},
		{"last year", time.Date(2023, 12, 31, 9, 5, 0, 0, time.UTC), "31.12.23"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimestamp(tt.t, now); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatchesTurkishCase(t *testing.T) {
	tests := []struct {
		filter string
		field  string
		want   bool
	}{
		{"", "anything", true},
		{"istanbul", "İSTANBUL Lojistik", true},
		{"ırmak", "IRMAK Nakliyat", true},
		{"ankara", "İzmir Kargo", false},
	}
	for _, tt := range tests {
		if got := Matches(tt.filter, tt.field); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.filter, tt.field, got, tt.want)
		}
	}
}

func TestConversationListFilterAndSelection(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	cl.Update([]convo.Conversation{
		{ID: "conv:42:9", CounterpartName: "Acme Kargo", TrackingNumber: "#42", UnreadCount: 1},
		{ID: "conv:50:8", CounterpartName: "Ege Lojistik", TrackingNumber: "#50"},
		{ID: "conv:61:3", CounterpartName: "İSTANBUL Nakliyat"},
	})

	if got := cl.IDAt(2); got != "conv:50:8" {
		t.Fatalf("IDAt(2) = %q", got)
	}
	if got := cl.IDAt(4); got != "" {
		t.Fatalf("IDAt(4) = %q, want empty", got)
	}

	cl.Select("conv:50:8")
	if got := cl.SelectedID(); got != "conv:50:8" {
		t.Fatalf("selected = %q", got)
	}

	cl.SetFilter("istanbul")
	if got := cl.IDAt(1); got != "conv:61:3" {
		t.Fatalf("filtered IDAt(1) = %q", got)
	}
	if got := cl.IDAt(2); got != "" {
		t.Fatalf("filtered IDAt(2) = %q", got)
	}
	if !strings.Contains(cl.GetTitle(), "1/3") {
		t.Fatalf("title = %q", cl.GetTitle())
	}

	cl.ClearFilter()
	cl.Select("conv:61:3")
	cl.Update([]convo.Conversation{
		{ID: "conv:61:3", CounterpartName: "İSTANBUL Nakliyat"},
		{ID: "conv:42:9", CounterpartName: "Acme Kargo"},
	})
	if got := cl.SelectedID(); got != "conv:61:3" {
		t.Fatalf("selection after reorder = %q", got)
	}
}

func TestSearchViewSelection(t *testing.T) {
	sv := NewSearchView(ui.DefaultTheme())
	if got := sv.SelectedConversation(); got != "" {
		t.Fatalf("empty view selected %q", got)
	}
	sv.Update([]api.SearchHit{
		{ConversationID: "conv:42:9", SenderName: "Acme", Body: "yük hazır"},
		{ConversationID: "conv:50:8", SenderName: "Ege", Body: "yola çıktı"},
	})
	if got := sv.SelectedConversation(); got != "conv:42:9" {
		t.Fatalf("selected = %q", got)
	}
}

func TestMessageThreadDraft(t *testing.T) {
	mt := NewMessageThread(ui.DefaultTheme())
	c := &convo.Conversation{ID: "conv:42:9", CounterpartName: "Acme", TrackingNumber: "#42",
		Messages: []convo.Message{{ID: "m1", From: "Acme", Text: "selam"}}}

	mt.Update(c, "taslak", false)
	if got := mt.Composer().GetText(); got != "taslak" {
		t.Fatalf("composer = %q", got)
	}
	if got := mt.Title(); got != "Acme · #42" {
		t.Fatalf("title = %q", got)
	}

	mt.Composer().SetText("yazıyorum")
	mt.Update(c, "taslak", false)
	if got := mt.Composer().GetText(); got != "yazıyorum" {
		t.Fatalf("typing was overwritten: %q", got)
	}

	mt.ClearComposer()
	mt.Update(c, "", false)
	if got := mt.Composer().GetText(); got != "" {
		t.Fatalf("composer = %q, want empty", got)
	}
}
