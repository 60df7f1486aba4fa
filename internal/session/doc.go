// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the authoritative mapping of conversation
// identity to message history.
//
// The Store is the only writer of a session's messages, title, and
// backend id; every mutation is serialized behind its mutex. Sessions
// are ordered newest-first for presentation. Mutations against an
// unknown session id are silent no-ops, which lets a streaming turn
// that finishes after its session was deleted dissolve cleanly.
package session
