package deeplink

import "testing"

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in   string
		want Link
	}{
		{"userId=7&shipmentId=42&prefill=Merhaba", Link{UserID: "7", ShipmentID: "42", Prefill: "Merhaba"}},
		{"?user_id=7", Link{UserID: "7"}},
		{"https://app.example/messages?userId=9&prefill=Y%C3%BCk+haz%C4%B1r", Link{UserID: "9", Prefill: "Yük hazır"}},
		{"", Link{}},
	}
	for _, tt := range tests {
		got, err := ParseQuery(tt.in)
		if err != nil {
			t.Fatalf("ParseQuery(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseQuery(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseQuery("userId=%zz"); err == nil {
		t.Error("expected error for malformed escape")
	}
}

func TestPendingConsumedOnce(t *testing.T) {
	var p Pending
	if _, ok := p.Take(); ok {
		t.Fatal("empty pending handed out a link")
	}
	p.Set(Link{})
	if _, ok := p.Take(); ok {
		t.Fatal("empty link should be ignored")
	}

	p.Set(Link{UserID: "7"})
	p.Set(Link{UserID: "8", Prefill: "selam"})
	l, ok := p.Take()
	if !ok || l.UserID != "8" || l.Prefill != "selam" {
		t.Fatalf("Take = %+v, %v", l, ok)
	}
	if _, ok := p.Take(); ok {
		t.Fatal("link handed out twice")
	}
}
