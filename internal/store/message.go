package store

import (
	"database/sql"
	"fmt"
)

// ReplaceThread swaps the cached thread of conversationID for msgs.
func (db *DB) ReplaceThread(conversationID string, msgs []MessageRow) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("clear thread: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO messages (conversation_id, position, msg_id, server_id, sender_id, receiver_id,
			sender_name, sender_type, body, status, is_read, is_mine, shipment_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, m := range msgs {
		var created sql.NullInt64
		if m.CreatedAt > 0 {
			created = sql.NullInt64{Int64: m.CreatedAt, Valid: true}
		}
		if _, err := stmt.Exec(conversationID, i, m.MsgID, m.ServerID, m.SenderID, m.ReceiverID,
			m.SenderName, m.SenderType, m.Body, m.Status, m.IsRead, m.IsMine, m.ShipmentID, created); err != nil {
			return fmt.Errorf("insert message %s: %w", m.MsgID, err)
		}
	}
	return tx.Commit()
}

// ListMessages returns the cached thread of conversationID in order.
func (db *DB) ListMessages(conversationID string) ([]MessageRow, error) {
	rows, err := db.Query(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = ?
		ORDER BY position ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []MessageRow
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const messageColumns = `conversation_id, position, msg_id, server_id, sender_id, receiver_id,
	sender_name, sender_type, body, status, is_read, is_mine, shipment_id, COALESCE(created_at, 0)`

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (MessageRow, error) {
	var m MessageRow
	err := s.Scan(&m.ConversationID, &m.Position, &m.MsgID, &m.ServerID, &m.SenderID, &m.ReceiverID,
		&m.SenderName, &m.SenderType, &m.Body, &m.Status, &m.IsRead, &m.IsMine, &m.ShipmentID, &m.CreatedAt)
	return m, err
}

// Stats counts cached rows.
func (db *DB) Stats() (Counts, error) {
	var c Counts
	err := db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM conversations),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM outbox WHERE status IN ('queued', 'sending'))`).
		Scan(&c.Conversations, &c.Messages, &c.PendingSends)
	return c, err
}
