package tui

import (
	"errors"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"q", Command{Name: "quit"}},
		{"  Search  yük hazır ", Command{Name: "search", Args: "yük hazır"}},
		{"rm", Command{Name: "delete"}},
		{"link userId=7&shipmentId=42", Command{Name: "link", Args: "userId=7&shipmentId=42"}},
		{"outbox", Command{Name: "outbox"}},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.in); got != tt.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestLinkRequest(t *testing.T) {
	req, err := linkRequest("?userId=7&shipmentId=42&prefill=Merhaba")
	if err != nil {
		t.Fatal(err)
	}
	if req.UserID != "7" || req.ShipmentID != "42" || req.Prefill != "Merhaba" {
		t.Fatalf("req = %+v", req)
	}

	if _, err := linkRequest("prefill=selam"); !errors.Is(err, errLinkTarget) {
		t.Fatalf("err = %v, want errLinkTarget", err)
	}
	if _, err := linkRequest("userId=%zz"); err == nil {
		t.Fatal("expected a query parse error")
	}
}
