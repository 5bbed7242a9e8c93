package store

import (
	"fmt"
	"time"
)

// QueueOutbox journals a send attempt that passed the pre-send gate.
func (db *DB) QueueOutbox(e OutboxEntry) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO outbox (client_msg_id, conversation_id, receiver_id, shipment_id, body, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ClientMsgID, e.ConversationID, e.ReceiverID, e.ShipmentID, e.Body, OutboxQueued, now, now)
	if err != nil {
		return fmt.Errorf("queue outbox: %w", err)
	}
	return nil
}

// MarkOutboxSending records the resolved receiver and moves the entry to
// sending.
func (db *DB) MarkOutboxSending(clientMsgID, receiverID string) error {
	return db.setOutboxStatus(clientMsgID, OutboxSending, "receiver_id", receiverID)
}

// MarkOutboxSent moves the entry to sent and keeps the server message ID.
func (db *DB) MarkOutboxSent(clientMsgID, serverMsgID string) error {
	return db.setOutboxStatus(clientMsgID, OutboxSent, "server_msg_id", serverMsgID)
}

// MarkOutboxFailed moves the entry to failed with the user-facing reason.
func (db *DB) MarkOutboxFailed(clientMsgID, reason string) error {
	return db.setOutboxStatus(clientMsgID, OutboxFailed, "error_message", reason)
}

// setOutboxStatus updates status plus one detail column. column is always a
// constant from this file.
func (db *DB) setOutboxStatus(clientMsgID, status, column, value string) error {
	_, err := db.Exec(`UPDATE outbox SET status = ?, `+column+` = ?, updated_at = ? WHERE client_msg_id = ?`,
		status, value, time.Now().UnixMilli(), clientMsgID)
	if err != nil {
		return fmt.Errorf("outbox %s -> %s: %w", clientMsgID, status, err)
	}
	return nil
}

// AbandonUnfinished fails every entry still queued or sending, e.g. after a
// daemon restart interrupted them. Nothing is retried.
func (db *DB) AbandonUnfinished(reason string) (int64, error) {
	now := time.Now().UnixMilli()
	res, err := db.Exec(`
		UPDATE outbox SET status = ?, error_message = ?, updated_at = ?
		WHERE status IN (?, ?)`, OutboxFailed, reason, now, OutboxQueued, OutboxSending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetOutbox returns one entry by client id, or nil.
func (db *DB) GetOutbox(clientMsgID string) (*OutboxEntry, error) {
	entries, err := db.queryOutbox(`WHERE client_msg_id = ?`, clientMsgID)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// ListOutbox returns the most recent journal entries first.
func (db *DB) ListOutbox(limit int) ([]OutboxEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return db.queryOutbox(`ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

func (db *DB) queryOutbox(tail string, args ...any) ([]OutboxEntry, error) {
	rows, err := db.Query(`
		SELECT id, client_msg_id, conversation_id, receiver_id, shipment_id, body, status,
			error_message, server_msg_id, created_at, updated_at
		FROM outbox `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.ClientMsgID, &e.ConversationID, &e.ReceiverID, &e.ShipmentID, &e.Body,
			&e.Status, &e.ErrorMessage, &e.ServerMsgID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
