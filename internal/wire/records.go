package wire

// RawConversation is one conversation row as the backend sent it, with
// aliases already resolved. Values are uninterpreted text.
type RawConversation struct {
	ServerID           string
	ShipmentID         string
	TrackingNumber     string
	CounterpartIDs     []string
	CounterpartName    string
	CounterpartCompany string
	LastMessage        string
	LastMessageAt      string
	SenderID           string
	IsRead             bool
	Archived           bool
}

// RawMessage is one message row with aliases resolved.
type RawMessage struct {
	ServerID   string
	ShipmentID string
	SenderID   string
	ReceiverID string
	SenderName string
	SenderRole string
	Body       string
	CreatedAt  string
	IsRead     bool
}

// RawShipment carries the shipment fields messaging cares about: its status
// and the ids that may identify the other party.
type RawShipment struct {
	ID             string
	Status         string
	TrackingNumber string
	ShipperIDs     []string
	CarrierIDs     []string
}

// ConversationFrom resolves a conversation row.
func ConversationFrom(f Fields) RawConversation {
	return RawConversation{
		ServerID:           f.Get(FieldID),
		ShipmentID:         f.Get(FieldShipmentID),
		TrackingNumber:     f.Get(FieldTrackingNumber),
		CounterpartIDs:     f.GetAll(FieldCounterpartID),
		CounterpartName:    f.Get(FieldCounterpartName),
		CounterpartCompany: f.Get(FieldCounterpartCompany),
		LastMessage:        f.Get(FieldLastMessage),
		LastMessageAt:      f.Get(FieldLastMessageAt),
		SenderID:           f.Get(FieldSenderID),
		IsRead:             f.Flag(FieldIsRead),
		Archived:           f.Flag(FieldArchived),
	}
}

// MessageFrom resolves a message row.
func MessageFrom(f Fields) RawMessage {
	return RawMessage{
		ServerID:   f.Get(FieldID),
		ShipmentID: f.Get(FieldShipmentID),
		SenderID:   f.Get(FieldSenderID),
		ReceiverID: f.Get(FieldReceiverID),
		SenderName: f.Get(FieldSenderName),
		SenderRole: f.Get(FieldSenderRole),
		Body:       f.Get(FieldBody),
		CreatedAt:  f.Get(FieldCreatedAt),
		IsRead:     f.Flag(FieldIsRead),
	}
}

// ShipmentFrom resolves a shipment detail object.
func ShipmentFrom(f Fields) RawShipment {
	return RawShipment{
		ID:             f.Get(FieldID),
		Status:         f.Get(FieldStatus),
		TrackingNumber: f.Get(FieldTrackingNumber),
		ShipperIDs:     f.GetAll(FieldShipperIDs),
		CarrierIDs:     f.GetAll(FieldCarrierIDs),
	}
}

// DecodeConversations decodes a conversation list response body.
func DecodeConversations(body []byte) ([]RawConversation, error) {
	items, err := DecodeList(body, "conversations", "items")
	if err != nil {
		return nil, err
	}
	out := make([]RawConversation, 0, len(items))
	for _, f := range items {
		out = append(out, ConversationFrom(f))
	}
	return out, nil
}

// DecodeMessages decodes a message thread response body.
func DecodeMessages(body []byte) ([]RawMessage, error) {
	items, err := DecodeList(body, "messages", "items")
	if err != nil {
		return nil, err
	}
	out := make([]RawMessage, 0, len(items))
	for _, f := range items {
		out = append(out, MessageFrom(f))
	}
	return out, nil
}

// DecodeMessage decodes a single-message response body, e.g. a send result.
func DecodeMessage(body []byte) (RawMessage, error) {
	f, err := DecodeObject(body, "message")
	if err != nil {
		return RawMessage{}, err
	}
	return MessageFrom(f), nil
}

// DecodeShipment decodes a shipment detail response body.
func DecodeShipment(body []byte) (RawShipment, error) {
	f, err := DecodeObject(body, "shipment")
	if err != nil {
		return RawShipment{}, err
	}
	return ShipmentFrom(f), nil
}
