package api

import (
	"encoding/json"
	"time"

	"github.com/matheus3301/freightmsg/internal/convo"
)

// Empty is the request and reply of calls that carry nothing.
type Empty struct{}

// SessionInfo describes the daemon and its signed-in user.
type SessionInfo struct {
	Session       string     `json:"session"`
	Status        string     `json:"status"`
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"user_id,omitempty"`
	Role          convo.Role `json:"role,omitempty"`
	Name          string     `json:"name,omitempty"`
	UptimeMs      int64      `json:"uptime_ms"`
	LastRefresh   *time.Time `json:"last_refresh,omitempty"`
	Conversations int64      `json:"conversations"`
	Messages      int64      `json:"messages"`
	PendingSends  int64      `json:"pending_sends"`
}

// ListRequest asks for the conversation list, optionally reloading it first.
type ListRequest struct {
	Refresh bool `json:"refresh"`
}

// ConversationList is the reply of ListConversations.
type ConversationList struct {
	Conversations []convo.Conversation `json:"conversations"`
}

// ConversationRequest targets one conversation by id.
type ConversationRequest struct {
	ID string `json:"id"`
}

// ConversationReply carries the selected conversation with its thread.
type ConversationReply struct {
	Conversation *convo.Conversation `json:"conversation,omitempty"`
}

// DraftRequest replaces the compose text.
type DraftRequest struct {
	Text string `json:"text"`
}

// SendRequest sends Text, or the current draft when Text is empty.
// ConversationID selects a conversation first when it is not already open.
type SendRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text,omitempty"`
}

// LinkRequest is a deep link.
type LinkRequest struct {
	UserID     string `json:"user_id"`
	ShipmentID string `json:"shipment_id,omitempty"`
	Prefill    string `json:"prefill,omitempty"`
}

// SearchRequest searches cached messages.
type SearchRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

// SearchHit is one matching cached message.
type SearchHit struct {
	ConversationID string     `json:"conversation_id"`
	MessageID      string     `json:"message_id"`
	SenderName     string     `json:"sender_name"`
	Body           string     `json:"body"`
	Snippet        string     `json:"snippet"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// SearchReply is the reply of SearchMessages.
type SearchReply struct {
	Results []SearchHit `json:"results"`
}

// OutboxRequest lists recent send attempts.
type OutboxRequest struct {
	Limit int `json:"limit,omitempty"`
}

// OutboxItem is one journaled send attempt.
type OutboxItem struct {
	ClientMsgID    string    `json:"client_msg_id"`
	ConversationID string    `json:"conversation_id"`
	ReceiverID     string    `json:"receiver_id,omitempty"`
	ShipmentID     string    `json:"shipment_id,omitempty"`
	Body           string    `json:"body"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	ServerMsgID    string    `json:"server_msg_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OutboxReply is the reply of ListOutbox.
type OutboxReply struct {
	Entries []OutboxItem `json:"entries"`
}

// WatchRequest subscribes to bus events whose kind starts with Namespace.
// An empty namespace receives everything.
type WatchRequest struct {
	Namespace string `json:"namespace,omitempty"`
}

// Event is one streamed bus event.
type Event struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}
