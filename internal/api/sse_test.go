// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"reflect"
	"testing"
)

// =============================================================================
// PARSE LINE TESTS
// =============================================================================

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   Event
		wantOK bool
	}{
		{"content", "data: Hello", ContentEvent("Hello"), true},
		{"content keeps inner spaces", "data:  world", ContentEvent(" world"), true},
		{"content without space", "data:x", ContentEvent("x"), true},
		{"empty content", "data: ", ContentEvent(""), true},
		{"done", "data: [DONE]", DoneEvent(), true},
		{"session id", "data: session_id:abc123", SessionEvent("abc123"), true},
		{"session id trimmed", "data: session_id: abc123 ", SessionEvent("abc123"), true},
		{"session id empty", "data: session_id:", Event{}, false},
		{"blank", "", Event{}, false},
		{"comment", ": keepalive", Event{}, false},
		{"event field", "event: message", Event{}, false},
		{"done lookalike is content", "data: [DONE] extra", ContentEvent("[DONE] extra"), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := ParseLine(tc.line)
			if err != nil {
				t.Fatalf("ParseLine(%q) error: %v", tc.line, err)
			}
			if ok != tc.wantOK {
				t.Fatalf("ParseLine(%q) ok = %v, want %v", tc.line, ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Errorf("ParseLine(%q) = %+v, want %+v", tc.line, got, tc.want)
			}
		})
	}
}

func TestParseLine_ErrorFrame(t *testing.T) {
	_, ok, err := ParseLine("data: [ERROR] model overloaded")
	if ok {
		t.Error("error frame should not produce an event")
	}
	if !errors.Is(err, ErrStreamAborted) {
		t.Fatalf("err = %v, want ErrStreamAborted", err)
	}
	if got := err.Error(); got != "stream aborted by server: model overloaded" {
		t.Errorf("err.Error() = %q", got)
	}
}

// =============================================================================
// LINE DECODER TESTS
// =============================================================================

func TestLineDecoder_CarriesPartialLine(t *testing.T) {
	var d LineDecoder

	if lines := d.Feed([]byte("data: Hel")); len(lines) != 0 {
		t.Fatalf("partial feed produced lines: %q", lines)
	}
	if d.Buffered() != len("data: Hel") {
		t.Errorf("Buffered() = %d", d.Buffered())
	}

	lines := d.Feed([]byte("lo\ndata: wor"))
	if !reflect.DeepEqual(lines, []string{"data: Hello"}) {
		t.Fatalf("lines = %q", lines)
	}

	lines = d.Feed([]byte("ld\n\n"))
	if !reflect.DeepEqual(lines, []string{"data: world", ""}) {
		t.Fatalf("lines = %q", lines)
	}
	if d.Buffered() != 0 {
		t.Errorf("Buffered() = %d after complete lines", d.Buffered())
	}
}

func TestLineDecoder_StripsCarriageReturn(t *testing.T) {
	var d LineDecoder
	lines := d.Feed([]byte("data: a\r\ndata: b\r"))
	if !reflect.DeepEqual(lines, []string{"data: a"}) {
		t.Fatalf("lines = %q", lines)
	}
	line, ok := d.Flush()
	if !ok || line != "data: b" {
		t.Errorf("Flush() = %q, %v", line, ok)
	}
	if _, ok := d.Flush(); ok {
		t.Error("second Flush() should be empty")
	}
}

func TestLineDecoder_MultibyteSplit(t *testing.T) {
	var d LineDecoder
	payload := []byte("data: 你好\n")
	// Split in the middle of the first CJK rune.
	first := d.Feed(payload[:8])
	second := d.Feed(payload[8:])
	if len(first) != 0 {
		t.Fatalf("first = %q", first)
	}
	if !reflect.DeepEqual(second, []string{"data: 你好"}) {
		t.Errorf("second = %q", second)
	}
}
