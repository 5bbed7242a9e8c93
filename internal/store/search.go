package store

import (
	"strings"
	"unicode/utf8"
)

const snippetRadius = 32

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchMessages finds cached messages whose body contains query,
// case-insensitively for ASCII. conversationID narrows the search when set.
func (db *DB) SearchMessages(query, conversationID string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE body LIKE ? ESCAPE '\'`
	args := []any{"%" + likeEscaper.Replace(query) + "%"}
	if conversationID != "" {
		q += " AND conversation_id = ?"
		args = append(args, conversationID)
	}
	q += " ORDER BY COALESCE(created_at, 0) DESC, position DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{Message: m, Snippet: snippet(m.Body, query)})
	}
	return results, rows.Err()
}

// snippet marks the first match in body with << >> and trims the context
// around it to snippetRadius runes on each side.
func snippet(body, query string) string {
	idx := strings.Index(strings.ToLower(body), strings.ToLower(query))
	if idx < 0 || len(strings.ToLower(body)) != len(body) {
		return body
	}
	end := idx + len(query)
	before, match, after := body[:idx], body[idx:end], body[end:]

	prefix, suffix := "", ""
	if utf8.RuneCountInString(before) > snippetRadius {
		r := []rune(before)
		before = string(r[len(r)-snippetRadius:])
		prefix = "..."
	}
	if utf8.RuneCountInString(after) > snippetRadius {
		r := []rune(after)
		after = string(r[:snippetRadius])
		suffix = "..."
	}
	return prefix + before + "<<" + match + ">>" + after + suffix
}
