// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-cli/internal/answer"
	"github.com/jeranaias/ragchat-cli/internal/model"
	"github.com/jeranaias/ragchat-cli/internal/session"
	"github.com/jeranaias/ragchat-cli/internal/wire"
)

// ApologyText is the fixed assistant message committed when an
// exchange fails. Partial content is never preserved on failure.
const ApologyText = "Sorry, something went wrong while fetching the answer. Please try again."

// ErrBusy is returned by Send while another exchange is in flight.
// The engine is single-flight: it rejects rather than queueing or
// preempting, so the earlier exchange is never silently orphaned.
var ErrBusy = errors.New("another exchange is already in flight")

// =============================================================================
// STREAM HANDLE
// =============================================================================

// StreamHandle represents exactly one in-flight exchange. It owns the
// cancellation token and the accumulator, and lives from the start of
// a Send until the exchange reaches a terminal state.
type StreamHandle struct {
	sessionID string
	token     *Token
	acc       *Accumulator
}

// SessionID returns the session this exchange belongs to.
func (h *StreamHandle) SessionID() string {
	return h.sessionID
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine wires the session store, the answering service client, and at
// most one live StreamHandle.
type Engine struct {
	store  *session.Store
	client *answer.Client
	logger *zap.Logger

	// mu guards active: the single-flight invariant.
	mu     sync.Mutex
	active *StreamHandle
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an engine over a session store and service client.
func New(store *session.Store, client *answer.Client, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		client: client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Streaming reports whether an exchange is currently in flight.
func (e *Engine) Streaming() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil
}

// Cancel requests cooperative cancellation of the active exchange.
// Reports whether there was one to cancel. Takes effect at the next
// point the decoder would read further bytes from the network;
// already-buffered frames still apply.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return false
	}
	return e.active.token.Cancel()
}

// =============================================================================
// SEND
// =============================================================================

// Send runs one exchange: Idle -> Sending -> Streaming -> terminal.
//
// The user message is appended synchronously before the request is
// issued, and the session title is derived from the first message.
// Progress is delivered to observe in frame order. Send blocks until
// the exchange reaches a terminal state; run it in a goroutine for a
// responsive caller.
//
// Returns ErrBusy when an exchange is already in flight, the network
// error when the exchange failed (after committing the apology), and
// nil on completion, cancellation, or the unknown-session no-op.
func (e *Engine) Send(ctx context.Context, sessionID, text string, observe Observer) error {
	if observe == nil {
		observe = func(Event) {}
	}

	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		return ErrBusy
	}
	sess, ok := e.store.Get(sessionID)
	if !ok {
		e.mu.Unlock()
		// Guard, not an error: nothing is appended, no request goes out.
		e.logger.Warn("send to unknown session", zap.String("session_id", sessionID))
		return nil
	}
	backendID := sess.BackendID
	handle := &StreamHandle{
		sessionID: sessionID,
		token:     NewToken(),
		acc:       NewAccumulator(),
	}
	e.active = handle
	e.mu.Unlock()

	// Terminal states always clear the handle, returning to Idle.
	defer func() {
		e.mu.Lock()
		e.active = nil
		e.mu.Unlock()
	}()

	e.store.AppendMessage(sessionID, model.NewUserMessage(text))
	e.store.SetTitleIfDefault(sessionID, text)

	st, err := e.client.Stream(ctx, text, backendID, handle.token.Cancelled)
	if err != nil {
		e.logger.Warn("exchange rejected", zap.String("session_id", sessionID), zap.Error(err))
		e.failTurn(sessionID, err, observe)
		return err
	}
	defer st.Close()

	return e.consume(st, handle, observe)
}

// consume folds the frame stream into the handle's accumulator until a
// terminal state is reached.
func (e *Engine) consume(st *answer.Stream, handle *StreamHandle, observe Observer) error {
	acc := handle.acc
	for {
		frame, err := st.Next()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				e.completeTurn(handle, observe)
				return nil
			case errors.Is(err, wire.ErrCancelled):
				e.cancelTurn(handle, observe)
				return nil
			default:
				// A cancel requested while the read was blocked can
				// surface as a transport error instead of ErrCancelled;
				// honor the user's intent and keep the partial.
				if handle.token.Cancelled() {
					e.cancelTurn(handle, observe)
					return nil
				}
				netErr := &answer.ClientError{
					Type:    answer.ErrTypeConnection,
					Message: "stream interrupted",
					Cause:   err,
				}
				e.logger.Warn("stream interrupted",
					zap.String("session_id", handle.sessionID),
					zap.Int("tokens", acc.TokenCount()),
					zap.Error(err))
				e.failTurn(handle.sessionID, netErr, observe)
				return netErr
			}
		}

		switch f := frame.(type) {
		case wire.TokenFrame:
			acc.Apply(f)
			observe(Event{Kind: EventToken, Content: acc.Content(), Citations: acc.Citations()})
		case wire.MetadataFrame:
			acc.Apply(f)
			observe(Event{Kind: EventMetadata, Content: acc.Content(), Citations: acc.Citations()})
		case wire.ErrorFrame:
			// The service stops emitting tokens once it reports an
			// error, so the turn fails outright.
			netErr := &answer.ClientError{Type: answer.ErrTypeRemote, Message: f.Message}
			e.logger.Warn("service reported error",
				zap.String("session_id", handle.sessionID),
				zap.String("remote_error", f.Message))
			e.failTurn(handle.sessionID, netErr, observe)
			return netErr
		}
	}
}

// =============================================================================
// TERMINAL STATES
// =============================================================================

// completeTurn commits the finished answer and reconciles the backend
// conversation id from the latest metadata frame, if one arrived.
func (e *Engine) completeTurn(handle *StreamHandle, observe Observer) {
	acc := handle.acc
	e.store.AppendMessage(handle.sessionID, model.NewAssistantMessage(acc.Content(), acc.Citations()))
	if acc.BackendID() != "" {
		e.store.SetBackendID(handle.sessionID, acc.BackendID())
	}
	e.logger.Debug("exchange completed",
		zap.String("session_id", handle.sessionID),
		zap.Int("tokens", acc.TokenCount()),
		zap.Int("citations", len(acc.Citations())))
	observe(Event{Kind: EventDone, Content: acc.Content(), Citations: acc.Citations()})
}

// cancelTurn commits the partial answer when any content arrived.
// A cancelled turn never updates the session's backend id.
func (e *Engine) cancelTurn(handle *StreamHandle, observe Observer) {
	acc := handle.acc
	if acc.HasContent() {
		e.store.AppendMessage(handle.sessionID, model.NewAssistantMessage(acc.Content(), acc.Citations()))
	}
	e.logger.Debug("exchange cancelled",
		zap.String("session_id", handle.sessionID),
		zap.Int("tokens", acc.TokenCount()))
	observe(Event{Kind: EventCancelled, Content: acc.Content(), Citations: acc.Citations()})
}

// failTurn commits the fixed apology with empty citations. Partial
// content is discarded and the backend id stays untouched.
func (e *Engine) failTurn(sessionID string, cause error, observe Observer) {
	e.store.AppendMessage(sessionID, model.NewAssistantMessage(ApologyText, nil))
	observe(Event{Kind: EventError, Content: ApologyText, Err: cause})
}
