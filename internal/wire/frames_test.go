// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package wire

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseFrame_Token(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"plain text", `0:"Hello"`, "Hello"},
		{"empty token", `0:""`, ""},
		{"escaped newline", `0:"line\nbreak"`, "line\nbreak"},
		{"payload containing colon", `0:"a:b:c"`, "a:b:c"},
		{"unicode", `0:"héllo wörld"`, "héllo wörld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := ParseFrame(tt.line)
			if err != nil {
				t.Fatalf("ParseFrame(%q) error: %v", tt.line, err)
			}
			tok, ok := frame.(TokenFrame)
			if !ok {
				t.Fatalf("ParseFrame(%q) = %T, want TokenFrame", tt.line, frame)
			}
			if tok.Text != tt.want {
				t.Errorf("Text = %q, want %q", tok.Text, tt.want)
			}
		})
	}
}

func TestParseFrame_Metadata(t *testing.T) {
	tests := []struct {
		name          string
		line          string
		wantCitations []string
		wantSessionID string
	}{
		{
			name:          "citations and session id",
			line:          `d:{"citations":["a.pdf","b.pdf"],"session_id":"abc"}`,
			wantCitations: []string{"a.pdf", "b.pdf"},
			wantSessionID: "abc",
		},
		{
			name:          "absent citations normalize to empty",
			line:          `d:{"session_id":"abc"}`,
			wantCitations: []string{},
			wantSessionID: "abc",
		},
		{
			name:          "null citations normalize to empty",
			line:          `d:{"citations":null}`,
			wantCitations: []string{},
		},
		{
			name:          "unknown fields are ignored",
			line:          `d:{"citations":["x"],"session_id":"s","language":"en","chunks":3}`,
			wantCitations: []string{"x"},
			wantSessionID: "s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := ParseFrame(tt.line)
			if err != nil {
				t.Fatalf("ParseFrame(%q) error: %v", tt.line, err)
			}
			meta, ok := frame.(MetadataFrame)
			if !ok {
				t.Fatalf("ParseFrame(%q) = %T, want MetadataFrame", tt.line, frame)
			}
			if !reflect.DeepEqual(meta.Citations, tt.wantCitations) {
				t.Errorf("Citations = %v, want %v", meta.Citations, tt.wantCitations)
			}
			if meta.SessionID != tt.wantSessionID {
				t.Errorf("SessionID = %q, want %q", meta.SessionID, tt.wantSessionID)
			}
		})
	}
}

func TestParseFrame_Error(t *testing.T) {
	frame, err := ParseFrame(`e:{"error":"retrieval backend unavailable"}`)
	if err != nil {
		t.Fatalf("ParseFrame error: %v", err)
	}
	ef, ok := frame.(ErrorFrame)
	if !ok {
		t.Fatalf("frame = %T, want ErrorFrame", frame)
	}
	if ef.Message != "retrieval backend unavailable" {
		t.Errorf("Message = %q", ef.Message)
	}
}

func TestParseFrame_Malformed(t *testing.T) {
	lines := []string{
		"",
		"no separator here",
		`1:"unknown tag"`,
		`0:unquoted`,
		`0:{"wrong":"shape"}`,
		`d:[1,2,3]`,
		`d:not json`,
		`e:"bare string"`,
	}

	for _, line := range lines {
		if _, err := ParseFrame(line); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("ParseFrame(%q) = %v, want ErrMalformedFrame", line, err)
		}
	}
}
