// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"encoding/json"

	"github.com/cespare/xxhash/v2"

	"github.com/jeranaias/council-tui/internal/export"
	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// VIEW DRIVER
// =============================================================================

// Scroller is the scrollable surface holding the rendered conversation.
type Scroller interface {
	ScrollToEnd()
}

// Driver keeps the view pinned to the newest content and handles downloads.
// It fingerprints the message sequence so that re-renders without new
// content do not yank the user's scroll position.
type Driver struct {
	scroller Scroller
	sink     export.Sink

	convID string
	hash   uint64
	seen   bool
}

// NewDriver creates a driver. sink may be nil when downloads are disabled.
func NewDriver(scroller Scroller, sink export.Sink) *Driver {
	return &Driver{scroller: scroller, sink: sink}
}

// Observe compares conv against the last observed snapshot and scrolls to the
// end exactly once when the messages or the conversation identity changed.
// Returns whether it scrolled.
func (d *Driver) Observe(conv *model.Conversation) bool {
	if conv == nil {
		d.convID, d.hash, d.seen = "", 0, false
		return false
	}

	h := Fingerprint(conv.Messages)
	if d.seen && conv.ID == d.convID && h == d.hash {
		return false
	}

	d.convID, d.hash, d.seen = conv.ID, h, true
	if d.scroller != nil {
		d.scroller.ScrollToEnd()
	}
	return true
}

// Download exports conv and hands the artifact to the sink.
func (d *Driver) Download(conv *model.Conversation) (string, error) {
	if d.sink == nil {
		return "", ErrNoSink
	}
	return export.Download(conv, d.sink)
}

// Fingerprint hashes the JSON encoding of a message sequence. Presence and
// loading state both feed the hash, so a stage finishing counts as a change.
func Fingerprint(msgs []model.Message) uint64 {
	d := xxhash.New()
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			// Unencodable messages still count by position
			data = []byte{0}
		}
		_, _ = d.Write(data)
		_, _ = d.Write([]byte{'\n'})
	}
	return d.Sum64()
}
