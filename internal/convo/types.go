// Package convo holds the canonical conversation and message types and the
// normalizer that turns raw conversation rows into the inbox list.
package convo

import "time"

// MessageStatus is the delivery state shown next to a message.
type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Conversation is one row of the inbox, keyed by shipment and counterpart.
type Conversation struct {
	ID                 string    `json:"id"`
	Key                string    `json:"key,omitempty"`
	ServerID           string    `json:"server_id,omitempty"`
	CounterpartID      string    `json:"counterpart_id,omitempty"`
	CounterpartName    string    `json:"counterpart_name"`
	CounterpartCompany string    `json:"counterpart_company,omitempty"`
	ShipmentID         string    `json:"shipment_id,omitempty"`
	TrackingNumber     string    `json:"tracking_number,omitempty"`
	LastMessage        string    `json:"last_message"`
	LastMessageAt      time.Time `json:"last_message_at"`
	UnreadCount        int       `json:"unread_count"`
	Archived           bool      `json:"archived"`
	Online             bool      `json:"online"`
	// Local marks a conversation opened from a deep link that the backend
	// has not listed yet.
	Local    bool      `json:"local,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}

// Message is a canonical chat message.
type Message struct {
	ID         string        `json:"id"`
	ServerID   string        `json:"server_id,omitempty"`
	From       string        `json:"from"`
	FromType   Role          `json:"from_type"`
	Text       string        `json:"text"`
	Time       string        `json:"time"`
	CreatedAt  *time.Time    `json:"created_at,omitempty"`
	IsRead     bool          `json:"is_read"`
	Status     MessageStatus `json:"status"`
	ShipmentID string        `json:"shipment_id,omitempty"`
	IsMine     bool          `json:"is_mine"`
	SenderID   string        `json:"sender_id,omitempty"`
	ReceiverID string        `json:"receiver_id,omitempty"`
}

// IsTemp reports whether m is an unconfirmed optimistic message.
func (m Message) IsTemp() bool {
	return len(m.ID) > 5 && m.ID[:5] == "temp-"
}

// Clone returns a copy of c whose message slice can be mutated freely.
func (c Conversation) Clone() Conversation {
	if c.Messages != nil {
		c.Messages = append([]Message(nil), c.Messages...)
	}
	return c
}
