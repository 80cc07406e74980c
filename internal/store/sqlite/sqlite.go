package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/teamhub/relay-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_status (
	user_id    TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	channel_id  TEXT NOT NULL,
	sender_id   TEXT NOT NULL,
	content     TEXT NOT NULL,
	attachments TEXT NOT NULL DEFAULT '[]',
	thread_id   TEXT,
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id, created_at);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SetStatus upserts the user's presence state.
func (s *SQLiteStore) SetStatus(ctx context.Context, userID string, status store.Status) error {
	query := `
		INSERT INTO user_status (user_id, status, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, userID, string(status), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert status: %w", err)
	}
	return nil
}

// GetStatus returns the stored presence state, defaulting to offline for
// unknown users.
func (s *SQLiteStore) GetStatus(ctx context.Context, userID string) (store.Status, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM user_status WHERE user_id = ?`, userID).Scan(&status)
	if err == sql.ErrNoRows {
		return store.StatusOffline, nil
	}
	if err != nil {
		return "", fmt.Errorf("query status: %w", err)
	}
	return store.Status(status), nil
}

// CreateMessage stores a message and returns it with id and timestamp set.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg store.NewMessage) (*store.Message, error) {
	attachments, err := json.Marshal(msg.Attachments)
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}

	created := &store.Message{
		ID:          uuid.NewString(),
		ChannelID:   msg.ChannelID,
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		Attachments: msg.Attachments,
		ThreadID:    msg.ThreadID,
		CreatedAt:   time.Now().UTC(),
	}

	query := `
		INSERT INTO messages (id, channel_id, sender_id, content, attachments, thread_id, created_at)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?)
	`
	if _, err := s.db.ExecContext(ctx, query,
		created.ID,
		created.ChannelID,
		created.SenderID,
		created.Content,
		string(attachments),
		created.ThreadID,
		created.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return created, nil
}

// ListMessages retrieves messages from a channel, newest first, with
// optional pagination by message timestamp.
func (s *SQLiteStore) ListMessages(ctx context.Context, channelID string, limit int) ([]*store.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, channel_id, sender_id, content, attachments, COALESCE(thread_id, ''), created_at
		FROM messages
		WHERE channel_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var (
			msg         store.Message
			attachments string
		)
		if err := rows.Scan(&msg.ID, &msg.ChannelID, &msg.SenderID, &msg.Content, &attachments, &msg.ThreadID, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if err := json.Unmarshal([]byte(attachments), &msg.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
