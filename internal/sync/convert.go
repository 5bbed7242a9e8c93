package sync

import (
	"time"

	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/store"
)

// ConversationRow converts a conversation for the cache.
func ConversationRow(c convo.Conversation) store.ConversationRow {
	return store.ConversationRow{
		ID:                 c.ID,
		DedupKey:           c.Key,
		ServerID:           c.ServerID,
		CounterpartID:      c.CounterpartID,
		CounterpartName:    c.CounterpartName,
		CounterpartCompany: c.CounterpartCompany,
		ShipmentID:         c.ShipmentID,
		TrackingNumber:     c.TrackingNumber,
		LastMessage:        c.LastMessage,
		LastMessageAt:      c.LastMessageAt.UnixMilli(),
		UnreadCount:        c.UnreadCount,
		Archived:           c.Archived,
	}
}

// ConversationFromRow restores a cached conversation.
func ConversationFromRow(r store.ConversationRow) convo.Conversation {
	return convo.Conversation{
		ID:                 r.ID,
		Key:                r.DedupKey,
		ServerID:           r.ServerID,
		CounterpartID:      r.CounterpartID,
		CounterpartName:    r.CounterpartName,
		CounterpartCompany: r.CounterpartCompany,
		ShipmentID:         r.ShipmentID,
		TrackingNumber:     r.TrackingNumber,
		LastMessage:        r.LastMessage,
		LastMessageAt:      time.UnixMilli(r.LastMessageAt).UTC(),
		UnreadCount:        r.UnreadCount,
		Archived:           r.Archived,
	}
}

// MessageRow converts a message for the cache.
func MessageRow(conversationID string, m convo.Message) store.MessageRow {
	row := store.MessageRow{
		ConversationID: conversationID,
		MsgID:          m.ID,
		ServerID:       m.ServerID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		SenderName:     m.From,
		SenderType:     string(m.FromType),
		Body:           m.Text,
		Status:         string(m.Status),
		IsRead:         m.IsRead,
		IsMine:         m.IsMine,
		ShipmentID:     m.ShipmentID,
	}
	if m.CreatedAt != nil {
		row.CreatedAt = m.CreatedAt.UnixMilli()
	}
	return row
}

// MessageFromRow restores a cached message. Display time is left to the
// caller since it depends on the current day.
func MessageFromRow(r store.MessageRow) convo.Message {
	m := convo.Message{
		ID:         r.MsgID,
		ServerID:   r.ServerID,
		From:       r.SenderName,
		FromType:   convo.Role(r.SenderType),
		Text:       r.Body,
		IsRead:     r.IsRead,
		Status:     convo.MessageStatus(r.Status),
		ShipmentID: r.ShipmentID,
		IsMine:     r.IsMine,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
	}
	if r.CreatedAt > 0 {
		t := time.UnixMilli(r.CreatedAt).UTC()
		m.CreatedAt = &t
	}
	return m
}
