package convo

import (
	"reflect"
	"testing"
	"time"

	"github.com/matheus3301/freightmsg/internal/wire"
)

func TestNormalizeCollapsesSameShipmentAndCarrier(t *testing.T) {
	rows := []wire.RawConversation{
		{ShipmentID: "42", CounterpartName: "Acme Kargo", CounterpartIDs: []string{"7"}, LastMessage: "eski", LastMessageAt: "2024-05-01T09:00:00Z"},
		{ShipmentID: "42", CounterpartName: "Acme Kargo", CounterpartIDs: []string{"9"}, LastMessage: "yeni", LastMessageAt: "2024-05-01T11:00:00Z"},
	}
	got := Normalize(rows, "1")
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Key != "42::Acme Kargo" {
		t.Fatalf("key = %q", got[0].Key)
	}
	if got[0].LastMessage != "yeni" || got[0].CounterpartID != "9" {
		t.Fatalf("kept %+v, want the later row", got[0])
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	rows := []wire.RawConversation{
		{ShipmentID: "1", CounterpartName: "A", LastMessageAt: "2024-05-01T09:00:00Z"},
		{ShipmentID: "1", CounterpartName: "A", LastMessageAt: "2024-05-02T09:00:00Z"},
		{ShipmentID: "2", CounterpartName: "B", LastMessageAt: "garbage"},
		{CounterpartIDs: []string{"5"}, LastMessageAt: "2024-05-03T09:00:00Z"},
		{},
		{},
	}
	once := Normalize(rows, "1")
	twice := Dedup(append([]Conversation(nil), once...))
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalize not idempotent:\n%+v\n%+v", once, twice)
	}
}

func TestNormalizeRenamedCounterpartGetsDistinctID(t *testing.T) {
	rows := []wire.RawConversation{
		{ShipmentID: "42", CounterpartName: "Acme Kargo", CounterpartIDs: []string{"7"}, LastMessageAt: "2024-05-01T11:00:00Z"},
		{ShipmentID: "42", CounterpartName: "Acme Kargo Ltd", CounterpartIDs: []string{"7"}, LastMessageAt: "2024-05-01T10:00:00Z"},
	}
	got := Normalize(rows, "1")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "conv:42:7" || got[1].ID != "conv:42:7#2" {
		t.Fatalf("ids = %q, %q", got[0].ID, got[1].ID)
	}
	if Index(got, got[1].ID) != 1 {
		t.Fatalf("Index(%q) = %d", got[1].ID, Index(got, got[1].ID))
	}

	again := Dedup(append([]Conversation(nil), got...))
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("suffixed ids changed on a second pass:\n%+v\n%+v", got, again)
	}
}

func TestNormalizeRecencyOrder(t *testing.T) {
	rows := []wire.RawConversation{
		{ShipmentID: "1", CounterpartName: "A", LastMessageAt: "2024-05-01T09:00:00Z"},
		{ShipmentID: "2", CounterpartName: "B", LastMessageAt: "not a date"},
		{ShipmentID: "3", CounterpartName: "C", LastMessageAt: "2024-05-03T09:00:00Z"},
		{ShipmentID: "4", CounterpartName: "D", LastMessageAt: "2024-05-02T09:00:00Z"},
	}
	got := Normalize(rows, "")
	var order []string
	for i, c := range got {
		order = append(order, c.ShipmentID)
		if i > 0 && got[i-1].LastMessageAt.Before(c.LastMessageAt) {
			t.Fatalf("row %d newer than row %d", i, i-1)
		}
	}
	if !reflect.DeepEqual(order, []string{"3", "4", "1", "2"}) {
		t.Fatalf("order = %v", order)
	}
	if !got[3].LastMessageAt.Equal(time.Unix(0, 0)) {
		t.Fatalf("unparseable time = %v, want epoch", got[3].LastMessageAt)
	}
}

func TestNormalizeKeepsDegenerateRows(t *testing.T) {
	rows := []wire.RawConversation{
		{ServerID: "a", LastMessage: "x"},
		{ServerID: "b", LastMessage: "y"},
		{LastMessage: "z"},
	}
	got := Normalize(rows, "")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	ids := []string{got[0].ID, got[1].ID, got[2].ID}
	if !reflect.DeepEqual(ids, []string{"a", "b", "conv:row-2"}) {
		t.Fatalf("ids = %v", ids)
	}
}

func TestBuild(t *testing.T) {
	raw := wire.RawConversation{
		ShipmentID:         "42",
		CounterpartIDs:     []string{"1", "7"},
		CounterpartCompany: "Acme Lojistik",
		SenderID:           "7",
		LastMessageAt:      "2024-05-01 10:00:00",
	}
	c := Build(raw, "1", 0)
	if c.CounterpartID != "7" {
		t.Fatalf("counterpart = %q, want the non-self candidate", c.CounterpartID)
	}
	if c.ID != "conv:42:7" {
		t.Fatalf("id = %q", c.ID)
	}
	if c.TrackingNumber != "#42" {
		t.Fatalf("tracking = %q", c.TrackingNumber)
	}
	if c.CounterpartName != "Acme Lojistik" {
		t.Fatalf("name = %q", c.CounterpartName)
	}
	if c.Key != "42::7" {
		t.Fatalf("key = %q", c.Key)
	}
	if c.UnreadCount != 1 {
		t.Fatalf("unread = %d", c.UnreadCount)
	}

	raw.SenderID = "1"
	if got := Build(raw, "1", 0).UnreadCount; got != 0 {
		t.Fatalf("own last message unread = %d", got)
	}
}

func TestDedupKeyPrefersTrackingNumber(t *testing.T) {
	tests := []struct {
		raw  wire.RawConversation
		id   string
		want string
	}{
		{wire.RawConversation{TrackingNumber: "TR-1", ShipmentID: "42", CounterpartName: "Acme"}, "7", "TR-1::Acme"},
		{wire.RawConversation{ShipmentID: "42"}, "7", "42::7"},
		{wire.RawConversation{CounterpartName: "Acme"}, "", "::Acme"},
		{wire.RawConversation{}, "", ""},
	}
	for _, tt := range tests {
		if got := DedupKey(tt.raw, tt.id); got != tt.want {
			t.Fatalf("DedupKey(%+v) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"individual": RoleIndividual,
		"Corporate":  RoleCorporate,
		"carrier":    RoleNakliyeci,
		"nakliyeci":  RoleNakliyeci,
		"driver":     RoleTasiyici,
		"tasiyici":   RoleTasiyici,
	}
	for in, want := range tests {
		got, ok := ParseRole(in)
		if !ok || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseRole("admin"); ok {
		t.Fatal("admin should not parse")
	}
	if RoleTasiyici.DefaultCounterpart() != RoleClient || RoleCorporate.DefaultCounterpart() != RoleCarrier {
		t.Fatal("default counterpart mismatch")
	}
}
