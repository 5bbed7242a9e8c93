package bus

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds published by freightmsg components. Subscribers filter by
// prefix, so every kind is namespaced ("inbox.", "message.", ...).
const (
	KindConversationsLoaded = "inbox.conversations_loaded"
	KindThreadLoaded        = "inbox.thread_loaded"
	KindConversationDeleted = "inbox.conversation_deleted"
	KindDraftChanged        = "inbox.draft_changed"

	KindMessageSending    = "message.sending"
	KindMessageSent       = "message.sent"
	KindMessageRolledBack = "message.rolled_back"

	KindSendPhaseChanged     = "send.phase_changed"
	KindSessionStatusChanged = "session.status_changed"
	KindSessionInvalidated   = "session.invalidated"

	KindToastShown = "toast.shown"
)

// Event represents a domain event published on the bus.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(kind string, payload any) Event {
	return Event{ID: uuid.NewString(), Kind: kind, Timestamp: time.Now(), Payload: payload}
}
