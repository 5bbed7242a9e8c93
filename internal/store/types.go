package store

// ConversationRow is one cached inbox row. Times are unix milliseconds.
type ConversationRow struct {
	ID                 string
	Position           int
	DedupKey           string
	ServerID           string
	CounterpartID      string
	CounterpartName    string
	CounterpartCompany string
	ShipmentID         string
	TrackingNumber     string
	LastMessage        string
	LastMessageAt      int64
	UnreadCount        int
	Archived           bool
}

// MessageRow is one cached thread message. CreatedAt is 0 when the backend
// sent no usable time.
type MessageRow struct {
	ConversationID string
	Position       int
	MsgID          string
	ServerID       string
	SenderID       string
	ReceiverID     string
	SenderName     string
	SenderType     string
	Body           string
	Status         string
	IsRead         bool
	IsMine         bool
	ShipmentID     string
	CreatedAt      int64
}

// Outbox journal states.
const (
	OutboxQueued  = "queued"
	OutboxSending = "sending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// OutboxEntry is one journaled send attempt.
type OutboxEntry struct {
	ID             int64
	ClientMsgID    string
	ConversationID string
	ReceiverID     string
	ShipmentID     string
	Body           string
	Status         string
	ErrorMessage   string
	ServerMsgID    string
	CreatedAt      int64
	UpdatedAt      int64
}

// SearchResult holds a cached message with a highlighted snippet.
type SearchResult struct {
	Message MessageRow
	Snippet string
}

// Counts summarizes the cache contents.
type Counts struct {
	Conversations int64
	Messages      int64
	PendingSends  int64
}
