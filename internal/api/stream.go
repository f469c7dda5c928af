// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"io"
)

// readChunkSize is the buffer handed to each body read.
const readChunkSize = 4096

// =============================================================================
// STREAM
// =============================================================================

// Stream is a lazy, finite, non-restartable sequence of events read from a
// /chat/stream response. It is not safe for concurrent use.
//
// Next returns events in arrival order and io.EOF once the stream is
// exhausted: after a Done event, or when the body ends. A read failure or a
// server [ERROR] frame is returned once as a *StreamError after any events
// that preceded it.
type Stream struct {
	body     io.ReadCloser
	decoder  LineDecoder
	buf      []byte
	pending  []Event
	received int
	err      error
	done     bool
	closed   bool
}

// NewStream wraps a response body.
func NewStream(body io.ReadCloser) *Stream {
	return newStream(body, "")
}

// newStream wraps body. A non-empty sessionHint (from the X-Session-ID
// header) is delivered as the first event.
func newStream(body io.ReadCloser, sessionHint string) *Stream {
	s := &Stream{
		body: body,
		buf:  make([]byte, readChunkSize),
	}
	if sessionHint != "" {
		s.pending = append(s.pending, SessionEvent(sessionHint))
	}
	return s
}

// Next returns the next event.
func (s *Stream) Next() (Event, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}
		if s.err != nil {
			err := s.err
			s.err = nil
			return Event{}, err
		}
		if s.done {
			return Event{}, io.EOF
		}

		n, readErr := s.body.Read(s.buf)
		if n > 0 {
			s.consume(s.decoder.Feed(s.buf[:n]))
		}
		if s.done {
			continue
		}

		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF):
			if line, ok := s.decoder.Flush(); ok {
				s.consume([]string{line})
			}
			s.finish()
		default:
			s.err = &StreamError{Received: s.received, Err: &NetworkError{Op: "read stream", Err: readErr}}
			s.finish()
		}
	}
}

// consume parses complete lines into pending events. Lines after a Done
// frame or an [ERROR] frame are discarded.
func (s *Stream) consume(lines []string) {
	for _, line := range lines {
		ev, ok, err := ParseLine(line)
		if err != nil {
			s.err = &StreamError{Received: s.received, Err: err}
			s.finish()
			return
		}
		if !ok {
			continue
		}
		s.pending = append(s.pending, ev)
		if ev.Kind == EventContent {
			s.received++
		}
		if ev.Kind == EventDone {
			s.finish()
			return
		}
	}
}

// finish marks the stream exhausted and releases the body.
func (s *Stream) finish() {
	s.done = true
	s.Close()
}

// Close releases the response body. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.done = true
	if s.body == nil {
		return nil
	}
	return s.body.Close()
}

// Received returns the number of content events parsed so far.
func (s *Stream) Received() int {
	return s.received
}
