// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/ragchat-cli/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_SessionRoundTrip(t *testing.T) {
	db := openTestDB(t)

	base := time.Now().UTC().Truncate(time.Second)
	older := &model.Session{
		ID:        "sess_old",
		Title:     "older session",
		CreatedAt: base.Add(-time.Hour),
		Messages:  []*model.Message{},
	}
	newer := &model.Session{
		ID:        "sess_new",
		Title:     "newer session",
		BackendID: "backend-5",
		CreatedAt: base,
		Messages:  []*model.Message{},
	}

	for _, s := range []*model.Session{older, newer} {
		if err := db.SaveSession(s); err != nil {
			t.Fatalf("SaveSession(%s) error: %v", s.ID, err)
		}
	}

	user := model.NewUserMessage("what changed in v2?")
	bot := model.NewAssistantMessage("the retriever was rebuilt", []string{"changelog.md"})
	bot.CreatedAt = user.CreatedAt.Add(time.Second)
	if err := db.AppendMessage(newer.ID, user); err != nil {
		t.Fatalf("AppendMessage error: %v", err)
	}
	if err := db.AppendMessage(newer.ID, bot); err != nil {
		t.Fatalf("AppendMessage error: %v", err)
	}

	loaded, err := db.LoadSessions()
	if err != nil {
		t.Fatalf("LoadSessions() error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d sessions, want 2", len(loaded))
	}
	if loaded[0].ID != "sess_new" || loaded[1].ID != "sess_old" {
		t.Errorf("order = %s, %s, want newest first", loaded[0].ID, loaded[1].ID)
	}
	if loaded[0].BackendID != "backend-5" {
		t.Errorf("BackendID = %q", loaded[0].BackendID)
	}

	msgs := loaded[0].Messages
	if len(msgs) != 2 {
		t.Fatalf("loaded %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "what changed in v2?" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].Role != model.RoleAssistant {
		t.Errorf("second message role = %q", msgs[1].Role)
	}
	if len(msgs[1].Citations) != 1 || msgs[1].Citations[0] != "changelog.md" {
		t.Errorf("citations = %v", msgs[1].Citations)
	}
}

func TestDB_UpdateTitleAndBackendID(t *testing.T) {
	db := openTestDB(t)

	sess := model.NewSession()
	if err := db.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession error: %v", err)
	}

	if err := db.UpdateTitle(sess.ID, "derived title"); err != nil {
		t.Fatalf("UpdateTitle error: %v", err)
	}
	if err := db.UpdateBackendID(sess.ID, "backend-9"); err != nil {
		t.Fatalf("UpdateBackendID error: %v", err)
	}

	loaded, err := db.LoadSessions()
	if err != nil {
		t.Fatalf("LoadSessions error: %v", err)
	}
	if loaded[0].Title != "derived title" {
		t.Errorf("Title = %q", loaded[0].Title)
	}
	if loaded[0].BackendID != "backend-9" {
		t.Errorf("BackendID = %q", loaded[0].BackendID)
	}
}

func TestDB_DeleteCascadesMessages(t *testing.T) {
	db := openTestDB(t)

	sess := model.NewSession()
	if err := db.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession error: %v", err)
	}
	if err := db.AppendMessage(sess.ID, model.NewUserMessage("hello")); err != nil {
		t.Fatalf("AppendMessage error: %v", err)
	}

	if err := db.DeleteSession(sess.ID); err != nil {
		t.Fatalf("DeleteSession error: %v", err)
	}

	loaded, err := db.LoadSessions()
	if err != nil {
		t.Fatalf("LoadSessions error: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded %d sessions after delete, want 0", len(loaded))
	}

	var count int
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		t.Fatalf("count query error: %v", err)
	}
	if count != 0 {
		t.Errorf("message rows after cascade = %d, want 0", count)
	}
}

func TestDB_ReopenSurvives(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	sess := model.NewSession()
	if err := db.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession error: %v", err)
	}
	db.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db2.Close()

	loaded, err := db2.LoadSessions()
	if err != nil {
		t.Fatalf("LoadSessions error: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != sess.ID {
		t.Errorf("loaded = %+v", loaded)
	}
}
