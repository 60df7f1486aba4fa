// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package wire

import (
	"bytes"
	"errors"
	"io"
)

// ErrCancelled is returned by FrameReader.Next when the cancellation
// probe fires at a read boundary. It is distinct from any transport
// error so callers never have to string-match to detect cancellation.
var ErrCancelled = errors.New("stream cancelled")

// readBufferSize is the chunk size used when pulling from the body.
const readBufferSize = 4096

// =============================================================================
// LINE DECODER
// =============================================================================

// LineDecoder incrementally splits a byte stream into lines.
//
// Feed may be called with chunks of any size and alignment; bytes after
// the last newline of a chunk (including partial multi-byte characters)
// stay buffered until a later chunk completes the line. Splitting
// happens on raw bytes, so a UTF-8 sequence is never cut: '\n' cannot
// occur inside a multi-byte encoding.
type LineDecoder struct {
	tail []byte
}

// Feed consumes one chunk and returns the complete lines it finished,
// in order, with the newline (and any preceding '\r') stripped.
func (d *LineDecoder) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}

	d.tail = append(d.tail, chunk...)

	var lines []string
	for {
		idx := bytes.IndexByte(d.tail, '\n')
		if idx < 0 {
			break
		}
		line := d.tail[:idx]
		d.tail = d.tail[idx+1:]
		lines = append(lines, string(bytes.TrimSuffix(line, []byte("\r"))))
	}

	// Release the backing array once fully consumed so long streams
	// do not pin every chunk ever fed.
	if len(d.tail) == 0 {
		d.tail = nil
	}

	return lines
}

// Flush returns any buffered trailing content as a final line.
// Called when the underlying stream ends without a terminating
// delimiter. Reports false when nothing was buffered.
func (d *LineDecoder) Flush() (string, bool) {
	if len(d.tail) == 0 {
		return "", false
	}
	line := string(bytes.TrimSuffix(d.tail, []byte("\r")))
	d.tail = nil
	return line, true
}

// Pending returns the number of buffered undecoded bytes.
func (d *LineDecoder) Pending() int {
	return len(d.tail)
}

// =============================================================================
// FRAME READER
// =============================================================================

// FrameReader turns a response body into a lazy, finite, non-restartable
// sequence of frames.
//
// Already-delivered bytes are always decoded before more are read: the
// cancellation probe is consulted only at the point where the reader is
// about to pull further bytes from the network.
type FrameReader struct {
	r         io.Reader
	dec       LineDecoder
	buf       []byte
	pending   []string
	eof       bool
	cancelled func() bool
}

// NewFrameReader creates a frame reader over r. The cancelled probe may
// be nil, in which case the stream runs to completion.
func NewFrameReader(r io.Reader, cancelled func() bool) *FrameReader {
	return &FrameReader{
		r:         r,
		buf:       make([]byte, readBufferSize),
		cancelled: cancelled,
	}
}

// Next returns the next well-formed frame.
//
// Empty and malformed lines are skipped silently. Returns io.EOF at
// normal stream end, ErrCancelled when cancellation is observed at a
// read boundary, or the transport error otherwise.
func (fr *FrameReader) Next() (Frame, error) {
	for {
		// Drain everything already decoded before touching the network.
		for len(fr.pending) > 0 {
			line := fr.pending[0]
			fr.pending = fr.pending[1:]
			if line == "" {
				continue
			}
			frame, err := ParseFrame(line)
			if err != nil {
				continue
			}
			return frame, nil
		}

		if fr.eof {
			return nil, io.EOF
		}

		// Suspension point: about to read further bytes.
		if fr.cancelled != nil && fr.cancelled() {
			return nil, ErrCancelled
		}

		n, err := fr.r.Read(fr.buf)
		if n > 0 {
			fr.pending = fr.dec.Feed(fr.buf[:n])
		}
		if err != nil {
			if err == io.EOF {
				fr.eof = true
				if line, ok := fr.dec.Flush(); ok {
					fr.pending = append(fr.pending, line)
				}
				continue
			}
			return nil, err
		}
	}
}
