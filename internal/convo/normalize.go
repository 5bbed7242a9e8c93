package convo

import (
	"fmt"
	"slices"
	"time"

	"github.com/matheus3301/freightmsg/internal/wire"
)

// KeySeparator joins the shipment and counterpart halves of a dedup key.
const KeySeparator = "::"

// DedupKey builds the heuristic identity of a conversation row: the tracking
// number (else the shipment id), then the counterpart name (else id). It is
// empty when both halves are empty.
func DedupKey(raw wire.RawConversation, counterpartID string) string {
	left := raw.TrackingNumber
	if left == "" {
		left = raw.ShipmentID
	}
	right := raw.CounterpartName
	if right == "" {
		right = counterpartID
	}
	if left == "" && right == "" {
		return ""
	}
	return left + KeySeparator + right
}

// CounterpartOf picks the first counterpart candidate that is not the current
// user. With no usable candidate it returns "".
func CounterpartOf(raw wire.RawConversation, userID string) string {
	for _, id := range raw.CounterpartIDs {
		if id != "" && id != userID {
			return id
		}
	}
	return ""
}

// Build converts one raw row into a Conversation. index is the row's position
// in the response and only feeds the fallback id.
func Build(raw wire.RawConversation, userID string, index int) Conversation {
	counterpart := CounterpartOf(raw, userID)
	c := Conversation{
		Key:                DedupKey(raw, counterpart),
		ServerID:           raw.ServerID,
		CounterpartID:      counterpart,
		CounterpartName:    raw.CounterpartName,
		CounterpartCompany: raw.CounterpartCompany,
		ShipmentID:         raw.ShipmentID,
		TrackingNumber:     raw.TrackingNumber,
		LastMessage:        raw.LastMessage,
		Archived:           raw.Archived,
	}
	if c.CounterpartName == "" {
		c.CounterpartName = raw.CounterpartCompany
	}
	if c.TrackingNumber == "" && c.ShipmentID != "" {
		c.TrackingNumber = "#" + c.ShipmentID
	}
	if ts, ok := wire.ParseTime(raw.LastMessageAt); ok {
		c.LastMessageAt = ts
	} else {
		c.LastMessageAt = time.Unix(0, 0).UTC()
	}
	incoming := raw.SenderID == "" || raw.SenderID != userID
	if incoming && !raw.IsRead {
		c.UnreadCount = 1
	}
	c.ID = conversationID(c, index)
	return c
}

// ThreadID is the derived identity of a (shipment, counterpart) thread.
func ThreadID(shipmentID, counterpartID string) string {
	return fmt.Sprintf("conv:%s:%s", shipmentID, counterpartID)
}

func conversationID(c Conversation, index int) string {
	if c.ShipmentID != "" || c.CounterpartID != "" {
		return ThreadID(c.ShipmentID, c.CounterpartID)
	}
	if c.ServerID != "" {
		return c.ServerID
	}
	return fmt.Sprintf("conv:row-%d", index)
}

// Normalize builds, recency-sorts and deduplicates a raw conversation list.
// The sort is stable so equal timestamps keep response order, and the first
// occurrence of each non-empty key wins. Rows with an empty key are all kept.
func Normalize(rows []wire.RawConversation, userID string) []Conversation {
	built := make([]Conversation, 0, len(rows))
	for i, raw := range rows {
		built = append(built, Build(raw, userID, i))
	}
	return Dedup(built)
}

// Dedup sorts list by recency and drops later rows that repeat a key. Rows
// that survive with the same ID, e.g. one counterpart listed under two
// names, get a "#n" suffix so IDs are unique within the result. It is
// idempotent. The input slice is reordered in place.
func Dedup(list []Conversation) []Conversation {
	SortByRecency(list)
	seen := make(map[string]bool, len(list))
	ids := make(map[string]bool, len(list))
	out := make([]Conversation, 0, len(list))
	for _, c := range list {
		if c.Key != "" {
			if seen[c.Key] {
				continue
			}
			seen[c.Key] = true
		}
		c.ID = uniqueID(c.ID, ids)
		out = append(out, c)
	}
	return out
}

func uniqueID(id string, used map[string]bool) string {
	candidate := id
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s#%d", id, n)
	}
	used[candidate] = true
	return candidate
}

// SortByRecency stably sorts list by LastMessageAt, newest first.
func SortByRecency(list []Conversation) {
	slices.SortStableFunc(list, func(a, b Conversation) int {
		return b.LastMessageAt.Compare(a.LastMessageAt)
	})
}

// Index returns the position of the conversation with id, or -1.
func Index(list []Conversation, id string) int {
	return slices.IndexFunc(list, func(c Conversation) bool { return c.ID == id })
}
