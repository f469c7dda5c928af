// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

// chunkReader returns its chunks one Read at a time, then err (io.EOF when nil).
type chunkReader struct {
	chunks [][]byte
	err    error
	closed bool
}

func newChunkReader(err error, chunks ...string) *chunkReader {
	r := &chunkReader{err: err}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}

// drain collects events until io.EOF or an error.
func drain(t *testing.T, s *Stream) ([]Event, error) {
	t.Helper()
	var events []Event
	for i := 0; i < 1000; i++ {
		ev, err := s.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	t.Fatal("stream did not terminate")
	return nil, nil
}

// =============================================================================
// STREAM TESTS
// =============================================================================

const sampleBody = "data: session_id:abc123\n\n" +
	"data: Hello\n\n" +
	"data:  world\n\n" +
	"data: ，你好\n\n" +
	"data: [DONE]\n\n"

var sampleEvents = []Event{
	SessionEvent("abc123"),
	ContentEvent("Hello"),
	ContentEvent(" world"),
	ContentEvent("，你好"),
	DoneEvent(),
}

func TestStream_ParsesFrames(t *testing.T) {
	r := newChunkReader(nil, sampleBody)
	s := NewStream(r)

	events, err := drain(t, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(events, sampleEvents) {
		t.Errorf("events = %+v\nwant %+v", events, sampleEvents)
	}
	if !r.closed {
		t.Error("body not closed after Done")
	}
	if s.Received() != 3 {
		t.Errorf("Received() = %d, want 3", s.Received())
	}
}

func TestStream_SplitAtEveryBoundary(t *testing.T) {
	for i := 1; i < len(sampleBody); i++ {
		s := NewStream(newChunkReader(nil, sampleBody[:i], sampleBody[i:]))
		events, err := drain(t, s)
		if err != nil {
			t.Fatalf("split %d: unexpected error: %v", i, err)
		}
		if !reflect.DeepEqual(events, sampleEvents) {
			t.Fatalf("split %d: events = %+v", i, events)
		}
	}
}

func TestStream_ByteAtATime(t *testing.T) {
	var chunks []string
	for _, b := range []byte(sampleBody) {
		chunks = append(chunks, string([]byte{b}))
	}
	events, err := drain(t, NewStream(newChunkReader(nil, chunks...)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(events, sampleEvents) {
		t.Errorf("events = %+v", events)
	}
}

func TestStream_NothingAfterDone(t *testing.T) {
	body := "data: a\n\ndata: [DONE]\n\ndata: late\n\n"
	events, err := drain(t, NewStream(newChunkReader(nil, body)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Event{ContentEvent("a"), DoneEvent()}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestStream_EOFWithoutDone(t *testing.T) {
	events, err := drain(t, NewStream(newChunkReader(nil, "data: a\n\ndata: b")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Event{ContentEvent("a"), ContentEvent("b")}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestStream_ReadErrorAfterContent(t *testing.T) {
	boom := errors.New("connection reset")
	r := newChunkReader(boom, "data: a\n\n", "data: b\n\n")

	events, err := drain(t, NewStream(r))
	if len(events) != 2 {
		t.Fatalf("events before error = %d, want 2", len(events))
	}

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("err = %v, want *StreamError", err)
	}
	if streamErr.Received != 2 {
		t.Errorf("Received = %d, want 2", streamErr.Received)
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) || !errors.Is(err, boom) {
		t.Errorf("err should wrap a NetworkError around the read error: %v", err)
	}
	if !r.closed {
		t.Error("body not closed after read error")
	}
}

func TestStream_ServerErrorFrame(t *testing.T) {
	body := "data: partial\n\ndata: [ERROR] upstream failed\n\ndata: ignored\n\n"
	events, err := drain(t, NewStream(newChunkReader(nil, body)))

	if !reflect.DeepEqual(events, []Event{ContentEvent("partial")}) {
		t.Errorf("events = %+v", events)
	}
	if !errors.Is(err, ErrStreamAborted) {
		t.Errorf("err = %v, want ErrStreamAborted", err)
	}

	// The error is reported once; afterwards the stream is exhausted.
	s := NewStream(newChunkReader(nil, "data: [ERROR] x\n"))
	if _, err := s.Next(); err == nil {
		t.Fatal("expected error")
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("second Next() err = %v, want io.EOF", err)
	}
}

func TestStream_SessionHintComesFirst(t *testing.T) {
	s := newStream(io.NopCloser(strings.NewReader("data: hi\n\ndata: [DONE]\n\n")), "hdr-1")
	events, err := drain(t, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Event{SessionEvent("hdr-1"), ContentEvent("hi"), DoneEvent()}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestStream_CloseStopsIteration(t *testing.T) {
	r := newChunkReader(nil, "data: a\n\n", "data: b\n\n")
	s := NewStream(r)

	if _, err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Next after Close err = %v, want io.EOF", err)
	}
}

func TestEventKind_String(t *testing.T) {
	if EventSessionAssigned.String() != "SessionAssigned" {
		t.Errorf("String() = %q", EventSessionAssigned.String())
	}
	if EventKind(9).String() != "EventKind(9)" {
		t.Errorf("String() = %q", EventKind(9).String())
	}
}
