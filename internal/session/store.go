// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-cli/internal/model"
	"github.com/jeranaias/ragchat-cli/internal/storage"
)

// =============================================================================
// SESSION STORE
// =============================================================================

// Store owns the session list and is the sole writer of session state.
type Store struct {
	mu sync.Mutex

	// order holds sessions newest-first; byID indexes the same values.
	order []*model.Session
	byID  map[string]*model.Session

	// activeID is the currently selected session, "" when none.
	activeID string

	// db, when set, mirrors every mutation (write-through).
	db     *storage.DB
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithDatabase enables write-through persistence and loads previously
// stored sessions into the store, newest first.
func WithDatabase(db *storage.DB) Option {
	return func(s *Store) { s.db = db }
}

// WithLogger sets the store's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a session store.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		byID:   make(map[string]*model.Session),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.db != nil {
		loaded, err := s.db.LoadSessions()
		if err != nil {
			return nil, err
		}
		for _, sess := range loaded {
			s.order = append(s.order, sess)
			s.byID[sess.ID] = sess
		}
	}

	return s, nil
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// Create makes a new session, places it first in presentation order,
// and selects it as the active session.
func (s *Store) Create() *model.Session {
	sess := model.NewSession()

	s.mu.Lock()
	s.order = append([]*model.Session{sess}, s.order...)
	s.byID[sess.ID] = sess
	s.activeID = sess.ID
	s.mu.Unlock()

	if s.db != nil {
		if err := s.db.SaveSession(sess); err != nil {
			s.logger.Warn("failed to persist session", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}

	s.logger.Debug("session created", zap.String("session_id", sess.ID))
	return sess
}

// Select sets the active session pointer. No-op if the id is unknown.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; ok {
		s.activeID = id
	}
}

// Delete removes a session. If it was active, the active pointer is
// cleared. Relative order of the remaining sessions is untouched.
// Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.byID, id)
	for i, sess := range s.order {
		if sess.ID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = ""
	}
	s.mu.Unlock()

	if s.db != nil {
		if err := s.db.DeleteSession(id); err != nil {
			s.logger.Warn("failed to delete persisted session", zap.String("session_id", id), zap.Error(err))
		}
	}

	s.logger.Debug("session deleted", zap.String("session_id", id))
}

// =============================================================================
// LOOKUP
// =============================================================================

// Get returns the session for id.
func (s *Store) Get(id string) (*model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	return sess, ok
}

// Active returns the currently selected session, or nil when none.
func (s *Store) Active() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == "" {
		return nil
	}
	return s.byID[s.activeID]
}

// List returns the sessions in presentation order (newest first).
// The slice is a copy; the sessions are the live values.
func (s *Store) List() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Session, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AppendMessage appends a message to a session's history. Reports
// whether the session existed; appending to an unknown id is a no-op.
func (s *Store) AppendMessage(id string, msg *model.Message) bool {
	s.mu.Lock()
	sess, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	sess.Messages = append(sess.Messages, msg)
	s.mu.Unlock()

	if s.db != nil {
		if err := s.db.AppendMessage(id, msg); err != nil {
			s.logger.Warn("failed to persist message", zap.String("session_id", id), zap.Error(err))
		}
	}
	return true
}

// SetBackendID records the backend-assigned conversation id. No-op for
// an unknown session.
func (s *Store) SetBackendID(id, backendID string) {
	s.mu.Lock()
	sess, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	sess.BackendID = backendID
	s.mu.Unlock()

	if s.db != nil {
		if err := s.db.UpdateBackendID(id, backendID); err != nil {
			s.logger.Warn("failed to persist backend id", zap.String("session_id", id), zap.Error(err))
		}
	}
}

// SetTitleIfDefault derives the session title from text when the title
// is still the sentinel default. The title transitions at most once.
func (s *Store) SetTitleIfDefault(id, text string) {
	s.mu.Lock()
	sess, ok := s.byID[id]
	if !ok || !sess.HasDefaultTitle() {
		s.mu.Unlock()
		return
	}
	sess.Title = model.DeriveTitle(text)
	title := sess.Title
	s.mu.Unlock()

	if s.db != nil {
		if err := s.db.UpdateTitle(id, title); err != nil {
			s.logger.Warn("failed to persist title", zap.String("session_id", id), zap.Error(err))
		}
	}
}
