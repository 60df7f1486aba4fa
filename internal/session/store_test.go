// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"testing"

	"github.com/jeranaias/ragchat-cli/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return s
}

func TestStore_CreateOrdersNewestFirst(t *testing.T) {
	s := newTestStore(t)

	first := s.Create()
	second := s.Create()
	third := s.Create()

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("Len = %d, want 3", len(list))
	}
	if list[0].ID != third.ID || list[1].ID != second.ID || list[2].ID != first.ID {
		t.Error("sessions are not newest-first")
	}
	if active := s.Active(); active == nil || active.ID != third.ID {
		t.Error("newest session is not active")
	}
}

func TestStore_Select(t *testing.T) {
	s := newTestStore(t)
	a := s.Create()
	s.Create()

	s.Select(a.ID)
	if active := s.Active(); active == nil || active.ID != a.ID {
		t.Error("Select did not switch the active session")
	}

	// Unknown id leaves the selection alone.
	s.Select("sess_nope")
	if active := s.Active(); active == nil || active.ID != a.ID {
		t.Error("Select with unknown id changed the active session")
	}
}

func TestStore_DeleteClearsActive(t *testing.T) {
	s := newTestStore(t)
	a := s.Create()
	b := s.Create()

	s.Delete(b.ID)
	if s.Active() != nil {
		t.Error("deleting the active session left it selected")
	}
	if _, ok := s.Get(b.ID); ok {
		t.Error("deleted session is still retrievable")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}

	// Deleting a non-active session keeps the selection.
	s.Select(a.ID)
	s.Delete("sess_nope")
	if active := s.Active(); active == nil || active.ID != a.ID {
		t.Error("deleting an unknown id disturbed the active session")
	}
}

func TestStore_AppendMessage(t *testing.T) {
	s := newTestStore(t)
	sess := s.Create()

	if ok := s.AppendMessage(sess.ID, model.NewUserMessage("hi")); !ok {
		t.Fatal("AppendMessage returned false for a known session")
	}
	if ok := s.AppendMessage("sess_nope", model.NewUserMessage("lost")); ok {
		t.Fatal("AppendMessage returned true for an unknown session")
	}

	got, _ := s.Get(sess.ID)
	if len(got.Messages) != 1 || got.Messages[0].Content != "hi" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestStore_SetTitleIfDefault(t *testing.T) {
	s := newTestStore(t)
	sess := s.Create()

	s.SetTitleIfDefault(sess.ID, "how do I configure the retriever?")
	got, _ := s.Get(sess.ID)
	if got.Title != "how do I configure the retriever?" {
		t.Errorf("title = %q", got.Title)
	}

	// The title transitions at most once.
	s.SetTitleIfDefault(sess.ID, "a different question")
	got, _ = s.Get(sess.ID)
	if got.Title != "how do I configure the retriever?" {
		t.Errorf("title changed on second derivation: %q", got.Title)
	}
}

func TestStore_SetTitleTruncates(t *testing.T) {
	s := newTestStore(t)
	sess := s.Create()

	long := strings.Repeat("x", 80)
	s.SetTitleIfDefault(sess.ID, long)

	got, _ := s.Get(sess.ID)
	want := strings.Repeat("x", model.TitleMaxRunes) + "..."
	if got.Title != want {
		t.Errorf("title = %q, want %q", got.Title, want)
	}
}

func TestStore_SetBackendID(t *testing.T) {
	s := newTestStore(t)
	sess := s.Create()

	s.SetBackendID(sess.ID, "backend-1")
	s.SetBackendID(sess.ID, "backend-2")

	got, _ := s.Get(sess.ID)
	if got.BackendID != "backend-2" {
		t.Errorf("BackendID = %q, want backend-2", got.BackendID)
	}

	// Unknown session is a no-op, not a panic.
	s.SetBackendID("sess_nope", "backend-3")
}
