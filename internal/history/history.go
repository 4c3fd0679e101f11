// Package history persists chat transcripts in SQLite.
//
// The in-memory session store is authoritative while a conversation is
// live; this store survives restarts so a returning client can resume a
// conversation. The query cache itself is deliberately not persisted.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amiqt/talent-gateway/internal/contextmgr"
)

const createMessagesTable = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_conversation
	ON chat_messages (conversation_id, id);
`

// Store is a SQLite-backed chat transcript store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(createMessagesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Append persists one message at the end of the conversation's transcript.
func (s *Store) Append(ctx context.Context, conversationID string, msg contextmgr.Message) error {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, string(msg.Role), msg.Content, ts.UTC(),
	)
	if err != nil {
		return fmt.Errorf("history append: %w", err)
	}
	return nil
}

// Load returns the conversation's transcript, oldest first. An unknown
// conversation yields an empty slice and no error.
func (s *Store) Load(ctx context.Context, conversationID string) ([]contextmgr.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM chat_messages WHERE conversation_id = ? ORDER BY id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("history load: %w", err)
	}
	defer rows.Close()

	var messages []contextmgr.Message
	for rows.Next() {
		var role, content string
		var createdAt time.Time
		if err := rows.Scan(&role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		messages = append(messages, contextmgr.Message{
			Role:      contextmgr.Role(role),
			Content:   content,
			Timestamp: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return messages, nil
}

// Delete removes the conversation's transcript.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return fmt.Errorf("history delete: %w", err)
	}
	return nil
}

// Count returns the number of persisted messages for the conversation.
func (s *Store) Count(ctx context.Context, conversationID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE conversation_id = ?`, conversationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("history count: %w", err)
	}
	return n, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
