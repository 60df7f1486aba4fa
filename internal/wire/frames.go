// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package wire

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrMalformedFrame is returned by ParseFrame for lines that do not
// decode under the expected format. Callers drop the line and continue;
// one bad frame must not abort the stream.
var ErrMalformedFrame = errors.New("malformed frame")

// =============================================================================
// FRAME TYPES
// =============================================================================

// Frame is one decoded line of the response protocol.
type Frame interface {
	isFrame()
}

// TokenFrame carries an incremental fragment of answer text, appended
// verbatim to the accumulator.
type TokenFrame struct {
	Text string
}

// MetadataFrame carries out-of-band facts about the current turn.
// Citations replace (not merge with) any previously observed set;
// SessionID, when present, is the backend conversation id to record.
type MetadataFrame struct {
	Citations []string
	SessionID string
}

// ErrorFrame carries a remote failure reported in-band by the service.
type ErrorFrame struct {
	Message string
}

func (TokenFrame) isFrame()    {}
func (MetadataFrame) isFrame() {}
func (ErrorFrame) isFrame()    {}

// =============================================================================
// PARSING
// =============================================================================

// metadataPayload is the wire shape of a d: line. The service may send
// extra fields (language, retrieval counters); they are ignored here.
type metadataPayload struct {
	Citations []string `json:"citations"`
	SessionID string   `json:"session_id"`
}

// errorPayload is the wire shape of an e: line.
type errorPayload struct {
	Error string `json:"error"`
}

// ParseFrame decodes a single <tag>:<payload> line.
func ParseFrame(line string) (Frame, error) {
	tag, payload, ok := strings.Cut(line, ":")
	if !ok {
		return nil, ErrMalformedFrame
	}

	switch tag {
	case "0":
		var text string
		if err := json.Unmarshal([]byte(payload), &text); err != nil {
			return nil, ErrMalformedFrame
		}
		return TokenFrame{Text: text}, nil

	case "d":
		var meta metadataPayload
		if err := json.Unmarshal([]byte(payload), &meta); err != nil {
			return nil, ErrMalformedFrame
		}
		if meta.Citations == nil {
			meta.Citations = []string{}
		}
		return MetadataFrame{Citations: meta.Citations, SessionID: meta.SessionID}, nil

	case "e":
		var remote errorPayload
		if err := json.Unmarshal([]byte(payload), &remote); err != nil {
			return nil, ErrMalformedFrame
		}
		return ErrorFrame{Message: remote.Error}, nil

	default:
		return nil, ErrMalformedFrame
	}
}
