// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "short text is used verbatim",
			text: "hello world",
			want: "hello world",
		},
		{
			name: "exactly forty runes is not truncated",
			text: strings.Repeat("a", 40),
			want: strings.Repeat("a", 40),
		},
		{
			name: "forty-one runes is truncated with ellipsis",
			text: strings.Repeat("a", 41),
			want: strings.Repeat("a", 40) + "...",
		},
		{
			name: "truncation counts runes not bytes",
			text: strings.Repeat("é", 41),
			want: strings.Repeat("é", 40) + "...",
		},
		{
			name: "empty text keeps the default title",
			text: "",
			want: DefaultTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTitle(tt.text)
			if got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession()

	if s.ID == "" {
		t.Error("NewSession() produced empty ID")
	}
	if s.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", s.Title, DefaultTitle)
	}
	if !s.HasDefaultTitle() {
		t.Error("HasDefaultTitle() = false for a fresh session")
	}
	if s.BackendID != "" {
		t.Errorf("BackendID = %q, want empty", s.BackendID)
	}
	if len(s.Messages) != 0 {
		t.Errorf("Messages = %d, want 0", len(s.Messages))
	}

	other := NewSession()
	if other.ID == s.ID {
		t.Error("two sessions share an ID")
	}
}

func TestNewAssistantMessageCopiesCitations(t *testing.T) {
	citations := []string{"doc-a.pdf", "doc-b.pdf"}
	m := NewAssistantMessage("answer", citations)

	citations[0] = "mutated"
	if m.Citations[0] != "doc-a.pdf" {
		t.Error("message shares the caller's citations slice")
	}
	if m.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", m.Role, RoleAssistant)
	}
}
