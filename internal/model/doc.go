// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
//
// A Session is one client-visible conversation thread. It carries the
// ordered message history, a once-derived title, and the opaque
// backend-assigned conversation id used to maintain server-side
// context across turns. Messages are immutable once appended.
package model
