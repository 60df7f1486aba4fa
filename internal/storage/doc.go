// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists sessions and messages in sqlite.
//
// The database is write-through: the in-memory session store applies a
// mutation first, then mirrors it here. Messages are append-only;
// citations are stored as a JSON column on the message row.
package storage
