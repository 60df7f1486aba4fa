// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package wire decodes the answering service's streamed line protocol.
//
// The response body is a sequence of newline-terminated lines of the
// form <tag>:<payload>:
//
//	0:"token"                                  incremental answer text
//	d:{"citations":[...],"session_id":"..."}   out-of-band turn metadata
//	e:{"error":"..."}                          remote failure
//
// Chunks arrive with arbitrary boundaries: a line, or a multi-byte
// character inside it, may straddle two chunks. LineDecoder keeps the
// undecoded tail buffered across chunks and flushes the trailing
// partial line when the stream ends. FrameReader layers frame parsing
// and cooperative cancellation on top, dropping malformed lines so a
// single bad frame never destroys an otherwise-good answer.
package wire
