// Package mapper translates wire message records into canonical messages.
package mapper

import (
	"time"

	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/session"
	"github.com/matheus3301/freightmsg/internal/textclean"
	"github.com/matheus3301/freightmsg/internal/wire"
)

// SelfName is the display name of the current user's own messages.
const SelfName = "Siz"

// Sanitizer cleans untrusted message text.
type Sanitizer interface {
	Sanitize(string) string
}

// Mapper converts raw messages for one viewer. The zero value is usable.
type Mapper struct {
	// Now anchors the "today" check of display times.
	Now       func() time.Time
	Sanitizer Sanitizer
}

// New returns a Mapper with the default sanitizer and clock.
func New() *Mapper {
	return &Mapper{Now: time.Now, Sanitizer: textclean.Sanitizer{}}
}

// Map converts one raw message as seen by viewer in sc. It never fails.
func (m *Mapper) Map(raw wire.RawMessage, sc session.Context, viewer convo.Role) convo.Message {
	msg := convo.Message{
		ID:         raw.ServerID,
		ServerID:   raw.ServerID,
		Text:       m.sanitize(raw.Body),
		IsRead:     raw.IsRead,
		ShipmentID: raw.ShipmentID,
		SenderID:   raw.SenderID,
		ReceiverID: raw.ReceiverID,
		Status:     convo.StatusDelivered,
	}
	if raw.IsRead {
		msg.Status = convo.StatusRead
	}
	if ts, ok := wire.ParseTime(raw.CreatedAt); ok {
		msg.CreatedAt = &ts
		msg.Time = m.displayTime(ts)
	}

	msg.IsMine = sc.UserID != "" && raw.SenderID == sc.UserID
	if role, ok := convo.ParseRole(raw.SenderRole); msg.IsMine && viewer != "" {
		msg.FromType = viewer
	} else if ok {
		msg.FromType = role
	} else {
		msg.FromType = viewer.DefaultCounterpart()
	}

	switch {
	case msg.IsMine:
		msg.From = SelfName
	case raw.SenderName != "":
		msg.From = m.sanitize(raw.SenderName)
	default:
		msg.From = msg.FromType.Label()
	}
	return msg
}

// MapAll maps a thread in order.
func (m *Mapper) MapAll(raws []wire.RawMessage, sc session.Context, viewer convo.Role) []convo.Message {
	out := make([]convo.Message, 0, len(raws))
	for _, raw := range raws {
		out = append(out, m.Map(raw, sc, viewer))
	}
	return out
}

func (m *Mapper) sanitize(s string) string {
	if m.Sanitizer == nil {
		return textclean.Clean(s)
	}
	return m.Sanitizer.Sanitize(s)
}

func (m *Mapper) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Mapper) displayTime(ts time.Time) string {
	return DisplayTime(ts, m.now())
}

// DisplayTime renders ts as "15:04" when it falls on now's calendar day and
// as "02.01 15:04" otherwise, both in now's location.
func DisplayTime(ts, now time.Time) string {
	local := ts.In(now.Location())
	y1, m1, d1 := local.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return local.Format("15:04")
	}
	return local.Format("02.01 15:04")
}
