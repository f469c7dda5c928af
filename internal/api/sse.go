// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"fmt"
	"strings"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind tags a parsed stream frame.
type EventKind int

const (
	// EventContent carries display text in Text.
	EventContent EventKind = iota
	// EventSessionAssigned carries the server-assigned conversation id in SessionID.
	EventSessionAssigned
	// EventDone marks the end of the stream.
	EventDone
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case EventContent:
		return "Content"
	case EventSessionAssigned:
		return "SessionAssigned"
	case EventDone:
		return "Done"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one parsed stream frame. Only the field matching Kind is set.
type Event struct {
	Kind      EventKind
	Text      string
	SessionID string
}

// ContentEvent returns a content event.
func ContentEvent(text string) Event {
	return Event{Kind: EventContent, Text: text}
}

// SessionEvent returns a session assignment event.
func SessionEvent(id string) Event {
	return Event{Kind: EventSessionAssigned, SessionID: id}
}

// DoneEvent returns the terminal event.
func DoneEvent() Event {
	return Event{Kind: EventDone}
}

// =============================================================================
// FRAME PARSING
// =============================================================================

const (
	dataPrefix      = "data:"
	donePayload     = "[DONE]"
	errorPrefix     = "[ERROR]"
	sessionIDPrefix = "session_id:"
)

// ParseLine interprets one complete line of a stream body. ok is false for
// lines that are not data frames (blank lines, comments, event: or id:
// fields). A "[ERROR] <msg>" payload is returned as an error wrapping
// ErrStreamAborted.
func ParseLine(line string) (ev Event, ok bool, err error) {
	if !strings.HasPrefix(line, dataPrefix) {
		return Event{}, false, nil
	}
	payload := strings.TrimPrefix(line[len(dataPrefix):], " ")

	switch {
	case payload == donePayload:
		return DoneEvent(), true, nil
	case strings.HasPrefix(payload, sessionIDPrefix):
		id := strings.TrimSpace(payload[len(sessionIDPrefix):])
		if id == "" {
			return Event{}, false, nil
		}
		return SessionEvent(id), true, nil
	case strings.HasPrefix(payload, errorPrefix):
		msg := strings.TrimSpace(payload[len(errorPrefix):])
		return Event{}, false, fmt.Errorf("%w: %s", ErrStreamAborted, msg)
	default:
		return ContentEvent(payload), true, nil
	}
}

// =============================================================================
// LINE DECODER
// =============================================================================

// LineDecoder splits a byte stream into LF-terminated lines. Bytes after the
// last LF are held until the next Feed, so a frame split across network
// reads is only interpreted once complete. A trailing CR is stripped.
type LineDecoder struct {
	partial []byte
}

// Feed consumes p and returns every line it completes, in order.
func (d *LineDecoder) Feed(p []byte) []string {
	var lines []string
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			d.partial = append(d.partial, p...)
			break
		}
		line := string(d.partial) + string(p[:i])
		d.partial = d.partial[:0]
		lines = append(lines, strings.TrimSuffix(line, "\r"))
		p = p[i+1:]
	}
	return lines
}

// Flush returns the held partial line, if any, and resets the decoder.
func (d *LineDecoder) Flush() (string, bool) {
	if len(d.partial) == 0 {
		return "", false
	}
	line := strings.TrimSuffix(string(d.partial), "\r")
	d.partial = d.partial[:0]
	return line, true
}

// Buffered returns the number of bytes held in the partial line.
func (d *LineDecoder) Buffered() int {
	return len(d.partial)
}
