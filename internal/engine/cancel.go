// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import "sync/atomic"

// =============================================================================
// CANCELLATION TOKEN
// =============================================================================

// Token is a one-shot cooperative cancellation token scoped to a
// single in-flight stream.
//
// Cancellation is observed only at read boundaries: bytes already
// delivered and buffered keep decoding, so a cancel never discards
// frames that were received before it.
type Token struct {
	cancelled atomic.Bool
}

// NewToken creates a fresh, uncancelled token.
func NewToken() *Token {
	return &Token{}
}

// Cancel requests cancellation. Reports whether this call was the one
// that flipped the token; later calls return false.
func (t *Token) Cancel() bool {
	return t.cancelled.CompareAndSwap(false, true)
}

// Cancelled reports whether cancellation has been requested. Safe to
// call any number of times from any goroutine.
func (t *Token) Cancelled() bool {
	return t.cancelled.Load()
}
