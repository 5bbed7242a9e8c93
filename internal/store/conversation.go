package store

import (
	"fmt"
	"time"
)

// ReplaceConversations swaps the cached inbox for rows, keeping their order.
func (db *DB) ReplaceConversations(rows []ConversationRow) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM conversations`); err != nil {
		return fmt.Errorf("clear conversations: %w", err)
	}
	now := time.Now().UnixMilli()
	stmt, err := tx.Prepare(`
		INSERT INTO conversations (id, position, dedup_key, server_id, counterpart_id, counterpart_name,
			counterpart_company, shipment_id, tracking_number, last_message, last_message_at,
			unread_count, archived, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rows {
		if _, err := stmt.Exec(r.ID, i, r.DedupKey, r.ServerID, r.CounterpartID, r.CounterpartName,
			r.CounterpartCompany, r.ShipmentID, r.TrackingNumber, r.LastMessage, r.LastMessageAt,
			r.UnreadCount, r.Archived, now); err != nil {
			return fmt.Errorf("insert conversation %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// ListConversations returns the cached inbox in its stored order.
func (db *DB) ListConversations() ([]ConversationRow, error) {
	rows, err := db.Query(`
		SELECT id, position, dedup_key, server_id, counterpart_id, counterpart_name, counterpart_company,
			shipment_id, tracking_number, last_message, last_message_at, unread_count, archived
		FROM conversations
		ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ConversationRow
	for rows.Next() {
		var r ConversationRow
		if err := rows.Scan(&r.ID, &r.Position, &r.DedupKey, &r.ServerID, &r.CounterpartID, &r.CounterpartName,
			&r.CounterpartCompany, &r.ShipmentID, &r.TrackingNumber, &r.LastMessage, &r.LastMessageAt,
			&r.UnreadCount, &r.Archived); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteConversation drops a conversation and its cached thread.
func (db *DB) DeleteConversation(id string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return tx.Commit()
}
