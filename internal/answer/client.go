// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jeranaias/ragchat-cli/internal/wire"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the answering service client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeBadStatus
	ErrTypeRemote
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeConnection, Message: "answering service is unreachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
)

// IsNetworkError reports whether err came from this client: a rejected
// request, a bad status, or a remote failure.
func IsNetworkError(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the answering service
// client.
type ClientConfig struct {
	// BaseURL is the service base URL (default: http://127.0.0.1:8000)
	BaseURL string

	// StreamPath is the streaming chat endpoint (default: /chat/stream)
	StreamPath string

	// Timeout bounds request dispatch and header receipt (default: 30s)
	Timeout time.Duration

	// StreamTimeout bounds a whole streamed exchange, first byte to
	// last (default: 5m; 0 disables the bound)
	StreamTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "http://127.0.0.1:8000",
		StreamPath:    "/chat/stream",
		Timeout:       30 * time.Second,
		StreamTimeout: 5 * time.Minute,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the answering service.
// It is safe for concurrent use.
type Client struct {
	mu     sync.RWMutex
	config ClientConfig

	// Streaming responses must not be cut off by a whole-request
	// timeout: Timeout is applied as a response-header deadline on the
	// transport, and the stream deadline is applied via context.
	httpClient *http.Client
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
// Zero-valued fields fall back to defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	def := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	if config.StreamPath == "" {
		config.StreamPath = def.StreamPath
	}
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}

	return &Client{
		config: *config,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				// Bounds dial plus header receipt; the body stays
				// unbounded so long streams are never cut off here.
				ResponseHeaderTimeout: config.Timeout,
			},
		},
	}
}

// SetBaseURL updates the service base URL (config hot reload).
func (c *Client) SetBaseURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if url != "" {
		c.config.BaseURL = url
	}
}

// BaseURL returns the current service base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.BaseURL
}

// =============================================================================
// REQUEST / STREAM
// =============================================================================

// askRequest is the wire shape of the streaming chat request.
// SessionID is null for a conversation the backend has not seen yet.
type askRequest struct {
	Question  string  `json:"question"`
	SessionID *string `json:"session_id"`
}

// Stream is one in-flight streamed exchange. It owns the response body
// and must be closed by the caller.
type Stream struct {
	body   io.ReadCloser
	frames *wire.FrameReader
	cancel context.CancelFunc
}

// Next returns the next frame. See wire.FrameReader.Next for the error
// contract (io.EOF, wire.ErrCancelled, transport errors).
func (s *Stream) Next() (wire.Frame, error) {
	return s.frames.Next()
}

// Close releases the underlying connection.
func (s *Stream) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.body.Close()
}

// Stream sends a question and opens the frame stream for the answer.
//
// sessionID is the backend conversation id from a prior turn, or empty
// for a fresh conversation (sent as JSON null). The cancelled probe is
// consulted by the frame reader at every read boundary. A non-success
// status is a synchronous failure before any frame is read.
func (c *Client) Stream(ctx context.Context, question, sessionID string, cancelled func() bool) (*Stream, error) {
	c.mu.RLock()
	cfg := c.config
	c.mu.RUnlock()

	body, err := json.Marshal(askRequest{
		Question:  question,
		SessionID: nullable(sessionID),
	})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	// The stream deadline covers the whole exchange so an unbounded
	// body can never hang the engine past the configured limit.
	cancel := context.CancelFunc(func() {})
	if cfg.StreamTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.StreamTimeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+cfg.StreamPath, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, ErrTimeout
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return nil, ErrUnreachable
		}
		return nil, &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drainAndClose(resp.Body)
		cancel()
		return nil, &ClientError{
			Type:    ErrTypeBadStatus,
			Message: "answering service returned " + resp.Status,
		}
	}

	return &Stream{
		body:   resp.Body,
		frames: wire.NewFrameReader(resp.Body, cancelled),
		cancel: cancel,
	}, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// nullable maps the empty string to JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// drainAndClose discards the remainder of a response body.
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
