// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/ragchat-cli/internal/model"
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    backend_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    id         TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL,
    citations  TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);
`

// =============================================================================
// DATABASE
// =============================================================================

// DB wraps the sqlite handle for session persistence.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and initializes
// the schema.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer at a time; keep a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close releases the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// =============================================================================
// SESSION OPERATIONS
// =============================================================================

// SaveSession inserts a new session row.
func (d *DB) SaveSession(s *model.Session) error {
	_, err := d.db.Exec(
		`INSERT INTO sessions (id, title, backend_id, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.Title, s.BackendID, s.CreatedAt,
	)
	return err
}

// UpdateTitle updates a session's title.
func (d *DB) UpdateTitle(id, title string) error {
	_, err := d.db.Exec(`UPDATE sessions SET title = ? WHERE id = ?`, title, id)
	return err
}

// UpdateBackendID updates a session's backend conversation id.
func (d *DB) UpdateBackendID(id, backendID string) error {
	_, err := d.db.Exec(`UPDATE sessions SET backend_id = ? WHERE id = ?`, backendID, id)
	return err
}

// DeleteSession removes a session and, via the foreign key cascade, its
// messages.
func (d *DB) DeleteSession(id string) error {
	_, err := d.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// AppendMessage inserts one message row for a session.
func (d *DB) AppendMessage(sessionID string, m *model.Message) error {
	citations, err := json.Marshal(citationsOrEmpty(m.Citations))
	if err != nil {
		return err
	}

	_, err = d.db.Exec(
		`INSERT INTO messages (id, session_id, role, content, citations, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, sessionID, string(m.Role), m.Content, string(citations), m.CreatedAt,
	)
	return err
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// LoadSessions returns all persisted sessions, newest first, with
// messages in turn order.
func (d *DB) LoadSessions() ([]*model.Session, error) {
	rows, err := d.db.Query(
		`SELECT id, title, backend_id, created_at FROM sessions ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s := &model.Session{Messages: make([]*model.Message, 0)}
		if err := rows.Scan(&s.ID, &s.Title, &s.BackendID, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range sessions {
		if err := d.loadMessages(s); err != nil {
			return nil, err
		}
	}

	return sessions, nil
}

// loadMessages fills a session's message history.
func (d *DB) loadMessages(s *model.Session) error {
	rows, err := d.db.Query(
		`SELECT id, role, content, citations, created_at
		 FROM messages WHERE session_id = ? ORDER BY created_at, id`,
		s.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m         model.Message
			role      string
			citations string
			createdAt time.Time
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &citations, &createdAt); err != nil {
			return err
		}
		m.Role = model.Role(role)
		m.CreatedAt = createdAt
		if err := json.Unmarshal([]byte(citations), &m.Citations); err != nil {
			// A corrupt citations column loses the links, not the turn.
			m.Citations = nil
		}
		if len(m.Citations) == 0 {
			m.Citations = nil
		}
		s.Messages = append(s.Messages, &m)
	}
	return rows.Err()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// citationsOrEmpty never lets a nil slice serialize as JSON null.
func citationsOrEmpty(c []string) []string {
	if c == nil {
		return []string{}
	}
	return c
}
