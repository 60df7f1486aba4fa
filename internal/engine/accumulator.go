// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"strings"

	"github.com/jeranaias/ragchat-cli/internal/wire"
)

// =============================================================================
// ACCUMULATOR
// =============================================================================

// Accumulator builds one in-progress answer from a frame sequence.
//
// Token text appends in strict arrival order. Citations are replaced,
// not merged, by each MetadataFrame; the backend session id is
// last-writer-wins across MetadataFrames. The zero value is unusable;
// call NewAccumulator.
type Accumulator struct {
	// strings.Builder keeps token append amortized linear.
	content   strings.Builder
	citations []string
	backendID string
	tokens    int
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Apply folds one frame into the accumulator. ErrorFrames are not
// applied here; the engine turns them into a failed exchange.
func (a *Accumulator) Apply(frame wire.Frame) {
	switch f := frame.(type) {
	case wire.TokenFrame:
		a.content.WriteString(f.Text)
		a.tokens++
	case wire.MetadataFrame:
		a.citations = f.Citations
		if f.SessionID != "" {
			a.backendID = f.SessionID
		}
	}
}

// Content returns the accumulated answer text so far.
func (a *Accumulator) Content() string {
	return a.content.String()
}

// Citations returns a copy of the latest observed citation set.
func (a *Accumulator) Citations() []string {
	if len(a.citations) == 0 {
		return nil
	}
	out := make([]string, len(a.citations))
	copy(out, a.citations)
	return out
}

// BackendID returns the last observed backend session id, or "".
func (a *Accumulator) BackendID() string {
	return a.backendID
}

// TokenCount returns the number of token frames applied.
func (a *Accumulator) TokenCount() int {
	return a.tokens
}

// HasContent reports whether any answer text arrived.
func (a *Accumulator) HasContent() bool {
	return a.content.Len() > 0
}
