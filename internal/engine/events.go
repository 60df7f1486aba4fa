// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

// =============================================================================
// PROGRESS EVENTS
// =============================================================================

// EventKind identifies a progress event.
type EventKind int

const (
	// EventToken: a token frame was applied; Content holds the full
	// accumulated text so far.
	EventToken EventKind = iota

	// EventMetadata: a metadata frame was applied; Citations holds the
	// replacement citation set.
	EventMetadata

	// EventDone: the stream ended normally and the answer was committed.
	EventDone

	// EventCancelled: the stream was cancelled; Content holds whatever
	// partial answer was committed ("" when nothing was).
	EventCancelled

	// EventError: the exchange failed; Err carries the cause and the
	// committed message is the fixed apology.
	EventError
)

// String returns a short name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventToken:
		return "token"
	case EventMetadata:
		return "metadata"
	case EventDone:
		return "done"
	case EventCancelled:
		return "cancelled"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one entry in the monotonically appended progress sequence
// for a single exchange. Events arrive in frame order; after every
// token frame the observer sees the updated content before the next
// frame is processed.
type Event struct {
	Kind      EventKind
	Content   string
	Citations []string
	Err       error
}

// Observer receives progress events for one exchange. Called
// synchronously from the streaming goroutine; a slow observer slows
// the stream.
type Observer func(Event)
