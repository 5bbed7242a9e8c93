// Package deeplink carries a "open this conversation" request from the CLI or
// a URL to the inbox controller, which consumes it exactly once.
package deeplink

import (
	"net/url"
	"strings"
	"sync"
)

// Link targets a counterpart, optionally about a shipment, with an optional
// draft prefill.
type Link struct {
	UserID     string `json:"user_id"`
	ShipmentID string `json:"shipment_id,omitempty"`
	Prefill    string `json:"prefill,omitempty"`
}

// Empty reports whether l targets nothing.
func (l Link) Empty() bool {
	return l.UserID == "" && l.ShipmentID == ""
}

// ParseQuery reads a link from a query string such as
// "userId=7&shipmentId=42&prefill=Merhaba". A leading '?' or a full URL is
// accepted too.
func ParseQuery(raw string) (Link, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	v, err := url.ParseQuery(raw)
	if err != nil {
		return Link{}, err
	}
	pick := func(keys ...string) string {
		for _, k := range keys {
			if s := strings.TrimSpace(v.Get(k)); s != "" {
				return s
			}
		}
		return ""
	}
	return Link{
		UserID:     pick("userId", "user_id", "userid"),
		ShipmentID: pick("shipmentId", "shipment_id", "shipmentid"),
		Prefill:    v.Get("prefill"),
	}, nil
}

// Pending holds at most one unconsumed link.
type Pending struct {
	mu   sync.Mutex
	link *Link
}

// Set stores l, replacing any unconsumed link. Empty links are ignored.
func (p *Pending) Set(l Link) {
	if l.Empty() {
		return
	}
	p.mu.Lock()
	p.link = &l
	p.mu.Unlock()
}

// Take hands out the pending link once. ok is false when none is pending.
func (p *Pending) Take() (l Link, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.link == nil {
		return Link{}, false
	}
	l = *p.link
	p.link = nil
	return l, true
}
