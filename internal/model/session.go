// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the sentinel title a session carries until its first
// user message arrives. The title transitions away from it at most once.
const DefaultTitle = "New Conversation"

// TitleMaxRunes is the number of leading runes kept when deriving a
// session title from the first user message.
const TitleMaxRunes = 40

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session holds one conversation thread: identity, title, the opaque
// backend-assigned conversation id, and the ordered message history.
//
// Messages is append-only and reflects turn order. BackendID is empty
// until the answering service assigns one.
type Session struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	BackendID string     `json:"backend_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Messages  []*Message `json:"messages"`
}

// NewSession creates a new session with a generated ID, the default
// title, no backend id, and an empty message list.
func NewSession() *Session {
	return &Session{
		ID:        generateSessionID(),
		Title:     DefaultTitle,
		CreatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// HasDefaultTitle reports whether the title is still the sentinel.
func (s *Session) HasDefaultTitle() bool {
	return s.Title == DefaultTitle
}

// LastMessage returns the most recent message, or nil if empty.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// MessageCount returns the number of messages.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

// DeriveTitle builds a session title from the first message text:
// the first TitleMaxRunes runes, with a truncation marker when the
// text was longer. Blank text keeps the default title.
func DeriveTitle(text string) string {
	if strings.TrimSpace(text) == "" {
		return DefaultTitle
	}
	runes := []rune(text)
	if len(runes) <= TitleMaxRunes {
		return text
	}
	return string(runes[:TitleMaxRunes]) + "..."
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateSessionID creates a unique session ID.
func generateSessionID() string {
	return "sess_" + uuid.NewString()
}
