// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package council

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventType names a deliberation stream event.
type EventType string

const (
	EventStage1Start    EventType = "stage1_start"
	EventStage1Complete EventType = "stage1_complete"
	EventStage2Start    EventType = "stage2_start"
	EventStage2Complete EventType = "stage2_complete"
	EventStage3Start    EventType = "stage3_start"
	EventStage3Complete EventType = "stage3_complete"
	EventTitleComplete  EventType = "title_complete"
	EventComplete       EventType = "complete"
	EventError          EventType = "error"
)

// Event is one decoded stream event. Data and Metadata stay raw until the
// typed accessors decode them.
type Event struct {
	Type     EventType       `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// Stage1 decodes a stage1_complete payload.
func (e Event) Stage1() ([]model.ModelResponse, error) {
	var out []model.ModelResponse
	if err := e.decode(e.Data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stage2 decodes a stage2_complete payload and its metadata.
func (e Event) Stage2() ([]model.PeerRanking, model.Metadata, error) {
	var out []model.PeerRanking
	var meta model.Metadata
	if err := e.decode(e.Data, &out); err != nil {
		return nil, meta, err
	}
	if len(e.Metadata) > 0 {
		if err := e.decode(e.Metadata, &meta); err != nil {
			return nil, meta, err
		}
	}
	return out, meta, nil
}

// Stage3 decodes a stage3_complete payload.
func (e Event) Stage3() (model.FinalResponse, error) {
	var out model.FinalResponse
	err := e.decode(e.Data, &out)
	return out, err
}

// Title decodes a title_complete payload.
func (e Event) Title() (string, error) {
	var out struct {
		Title string `json:"title"`
	}
	err := e.decode(e.Data, &out)
	return out.Title, err
}

func (e Event) decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: %s has no payload", ErrBadEvent, e.Type)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadEvent, e.Type, err)
	}
	return nil
}

// =============================================================================
// SSE READER
// =============================================================================

// MaxEventSize is the largest single SSE event accepted (4MB). Stage 1 and
// Stage 2 payloads carry every model's full answer at once.
const MaxEventSize = 4 * 1024 * 1024

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// ReadEvent reads the next SSE event and returns its joined data lines.
// Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() ([]byte, error) {
	var dataLines [][]byte
	size := 0

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		eof := err == io.EOF

		line = bytes.TrimRight(line, "\r\n")

		// Empty line ends the event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			if eof {
				return nil, io.EOF
			}
			continue
		}

		// Ignore other fields (event:, id:, retry:, comments starting with :)
		if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimPrefix(line[5:], []byte(" "))
			size += len(data)
			if size > MaxEventSize {
				return nil, fmt.Errorf("%w: event exceeds %d bytes", ErrBadEvent, MaxEventSize)
			}
			dataLines = append(dataLines, data)
		}

		// A final line without a newline still counts
		if eof {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			return nil, io.EOF
		}
	}
}

// Next reads and decodes the next event.
func (s *SSEReader) Next() (Event, error) {
	data, err := s.ReadEvent()
	if err != nil {
		return Event{}, err
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	return ev, nil
}
