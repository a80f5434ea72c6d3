// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrConversationNotFound is returned when no conversation matches.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrAmbiguousID is returned when an ID prefix matches more than one
	// conversation.
	ErrAmbiguousID = errors.New("conversation id is ambiguous")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store is closed")
)

// =============================================================================
// TYPES
// =============================================================================

// Conversation is a stored conversation.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []*model.Message
}

// Meta contains metadata for listing conversations.
type Meta struct {
	ID           string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
	Preview      string // First user message, truncated
}

// titleRunes bounds generated titles.
const titleRunes = 50

// previewRunes bounds list previews.
const previewRunes = 60

// =============================================================================
// STORE
// =============================================================================

// Store is the history database. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	return OpenWithLogger(path, nil)
}

// OpenWithLogger is Open with a logger for store diagnostics.
func OpenWithLogger(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("open history: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	// SQLite allows one writer; keep a single connection so pragmas stick.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-16000", // 16MB
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug("history opened", "path", path)
	return &Store{db: db, path: path, logger: logger}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) handle() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save writes conv, replacing any stored messages under the same ID, and
// returns the ID. A conversation without an ID gets a generated one and a
// conversation without a title is titled after its first user message.
func (s *Store) Save(ctx context.Context, conv *Conversation) (string, error) {
	db, err := s.handle()
	if err != nil {
		return "", err
	}
	if conv == nil {
		return "", errors.New("save conversation: nil conversation")
	}
	for i, msg := range conv.Messages {
		if msg == nil {
			return "", fmt.Errorf("save conversation: message %d is nil", i)
		}
		if !msg.Role.Valid() {
			return "", fmt.Errorf("save conversation: message %d: %w: %q", i, model.ErrUnknownRole, msg.Role)
		}
	}

	if conv.ID == "" {
		conv.ID = NewConversationID()
	}
	if conv.Title == "" {
		conv.Title = generateTitle(conv.Messages)
	}
	conv.UpdatedAt = time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save conversation: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at`,
		conv.ID, conv.Title, conv.CreatedAt.UnixMilli(), conv.UpdatedAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("save conversation: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?", conv.ID); err != nil {
		return "", fmt.Errorf("save conversation: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (conversation_id, seq, id, role, content, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("save conversation: %w", err)
	}
	defer stmt.Close()

	for i, msg := range conv.Messages {
		var ts int64
		if !msg.Timestamp.IsZero() {
			ts = msg.Timestamp.UnixMilli()
		}
		if _, err := stmt.ExecContext(ctx, conv.ID, i, msg.ID, string(msg.Role), msg.Content, ts); err != nil {
			return "", fmt.Errorf("save conversation: message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save conversation: %w", err)
	}
	s.logger.Debug("conversation saved", "id", conv.ID, "messages", len(conv.Messages))
	return conv.ID, nil
}

// generateTitle creates a title from the first user message.
func generateTitle(msgs []*model.Message) string {
	for _, msg := range msgs {
		if msg.Role == model.RoleUser {
			if line := util.FirstLine(msg.Content); line != "" {
				return util.TruncateRunes(line, titleRunes)
			}
		}
	}
	return "New conversation"
}

// NewConversationID returns a fresh conversation identifier.
func NewConversationID() string {
	return "conv_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a conversation and its messages by exact ID.
func (s *Store) Load(ctx context.Context, id string) (*Conversation, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var conv Conversation
	var created, updated int64
	err = db.QueryRowContext(ctx,
		"SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?", id).
		Scan(&conv.ID, &conv.Title, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	conv.CreatedAt = time.UnixMilli(created)
	conv.UpdatedAt = time.UnixMilli(updated)

	rows, err := db.QueryContext(ctx,
		"SELECT id, role, content, timestamp FROM messages WHERE conversation_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			msg  model.Message
			role string
			ts   int64
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &ts); err != nil {
			return nil, fmt.Errorf("load conversation: %w", err)
		}
		if msg.Role, err = model.ParseRole(role); err != nil {
			return nil, fmt.Errorf("load conversation: %w", err)
		}
		if ts != 0 {
			msg.Timestamp = time.UnixMilli(ts)
		}
		conv.Messages = append(conv.Messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return &conv, nil
}

// Resolve returns the ID of the conversation ref names: an exact ID or a
// unique ID prefix.
func (s *Store) Resolve(ctx context.Context, ref string) (string, error) {
	db, err := s.handle()
	if err != nil {
		return "", err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrConversationNotFound
	}

	rows, err := db.QueryContext(ctx,
		"SELECT id FROM conversations WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 2",
		len(ref), ref)
	if err != nil {
		return "", fmt.Errorf("resolve conversation: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("resolve conversation: %w", err)
		}
		if id == ref {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve conversation: %w", err)
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrConversationNotFound, ref)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, ref)
	}
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns metadata of every stored conversation, most recently updated
// first.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.title, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
		       COALESCE((SELECT m.content FROM messages m
		                 WHERE m.conversation_id = c.id AND m.role = 'user'
		                 ORDER BY m.seq LIMIT 1), '')
		FROM conversations c
		ORDER BY c.updated_at DESC, c.id`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var metas []Meta
	for rows.Next() {
		var (
			m                Meta
			created, updated int64
			first            string
		)
		if err := rows.Scan(&m.ID, &m.Title, &created, &updated, &m.MessageCount, &first); err != nil {
			return nil, fmt.Errorf("list conversations: %w", err)
		}
		m.CreatedAt = time.UnixMilli(created)
		m.UpdatedAt = time.UnixMilli(updated)
		m.Preview = util.TruncateRunes(util.FirstLine(first), previewRunes)
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return metas, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a conversation and its messages.
func (s *Store) Delete(ctx context.Context, id string) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	s.logger.Debug("conversation deleted", "id", id)
	return nil
}

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatList formats conversation metadata as a table.
func FormatList(metas []Meta) string {
	if len(metas) == 0 {
		return "No conversations found."
	}

	var sb strings.Builder
	sb.WriteString(util.PadRight("ID", 22) + " " + util.PadRight("Updated", 17) + " " + util.PadRight("Messages", 8) + " Title\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	for _, m := range metas {
		sb.WriteString(util.PadRight(m.ID, 22) + " " +
			util.PadRight(m.UpdatedAt.Format("2006-01-02 15:04"), 17) + " " +
			util.PadRight(fmt.Sprint(m.MessageCount), 8) + " " +
			util.TruncateWidth(m.Title, 30) + "\n")
	}
	return sb.String()
}
