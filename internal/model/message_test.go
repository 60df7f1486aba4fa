// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

func TestRoleDisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Assistant"},
		{Role("system"), "system"},
	}

	for _, tt := range tests {
		if got := tt.role.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestMessagePreview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short content verbatim", "hello", 10, "hello"},
		{"exact length verbatim", "hello", 5, "hello"},
		{"long content truncated", "hello world", 5, "hello..."},
		{"runes not bytes", strings.Repeat("é", 6), 3, "ééé..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewUserMessage(tt.content)
			if got := m.Preview(tt.maxLen); got != tt.want {
				t.Errorf("Preview(%d) = %q, want %q", tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestSessionLastMessage(t *testing.T) {
	s := NewSession()
	if s.LastMessage() != nil {
		t.Error("LastMessage() on empty session != nil")
	}
	if s.MessageCount() != 0 {
		t.Errorf("MessageCount() = %d, want 0", s.MessageCount())
	}

	s.Messages = append(s.Messages, NewUserMessage("first"))
	s.Messages = append(s.Messages, NewAssistantMessage("second", nil))

	last := s.LastMessage()
	if last == nil || last.Content != "second" {
		t.Errorf("LastMessage() = %+v, want the assistant reply", last)
	}
	if s.MessageCount() != 2 {
		t.Errorf("MessageCount() = %d, want 2", s.MessageCount())
	}
}
