// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for council conversations.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a council session. Message order is creation order.
type Conversation struct {
	ID        string
	Title     string // Optional; empty means untitled
	CreatedAt time.Time
	Messages  []Message
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	return &Conversation{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Messages:  make([]Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddUserMessage appends a user message.
func (c *Conversation) AddUserMessage(content string) *UserMessage {
	msg := &UserMessage{Content: content}
	c.Messages = append(c.Messages, msg)
	return msg
}

// AddAssistantMessage appends an assistant message with no stage data.
func (c *Conversation) AddAssistantMessage() *AssistantMessage {
	msg := &AssistantMessage{}
	c.Messages = append(c.Messages, msg)
	return msg
}

// LastAssistant returns the most recent assistant message, or nil.
func (c *Conversation) LastAssistant() *AssistantMessage {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if msg, ok := c.Messages[i].(*AssistantMessage); ok {
			return msg
		}
	}
	return nil
}

// Truncate keeps the first n messages. The collaborator uses it to roll back
// an optimistic send; the rendering core never calls it.
func (c *Conversation) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(c.Messages) {
		c.Messages = c.Messages[:n]
	}
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		Messages:  make([]Message, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		switch m := msg.(type) {
		case *UserMessage:
			u := *m
			clone.Messages[i] = &u
		case *AssistantMessage:
			clone.Messages[i] = m.Clone()
		}
	}
	return clone
}

// Meta returns listing metadata for the conversation.
func (c *Conversation) Meta() ConversationMeta {
	return ConversationMeta{
		ID:           c.ID,
		CreatedAt:    c.CreatedAt,
		Title:        c.Title,
		MessageCount: len(c.Messages),
	}
}

// ConversationMeta holds lightweight metadata for listing.
type ConversationMeta struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
}

// UnmarshalJSON implements json.Unmarshaler, tolerating the backend's
// zone-less timestamps.
func (m *ConversationMeta) UnmarshalJSON(data []byte) error {
	var w struct {
		ID           string `json:"id"`
		CreatedAt    string `json:"created_at"`
		Title        string `json:"title"`
		MessageCount int    `json:"message_count"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	created, err := ParseTimestamp(w.CreatedAt)
	if err != nil {
		return err
	}
	*m = ConversationMeta{ID: w.ID, CreatedAt: created, Title: w.Title, MessageCount: w.MessageCount}
	return nil
}

// =============================================================================
// SERIALIZATION
// =============================================================================

type wireConversation struct {
	ID        string            `json:"id"`
	CreatedAt string            `json:"created_at"`
	Title     string            `json:"title,omitempty"`
	Messages  []json.RawMessage `json:"messages"`
}

// MarshalJSON implements json.Marshaler.
func (c *Conversation) MarshalJSON() ([]byte, error) {
	w := wireConversation{
		ID:        c.ID,
		CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
		Title:     c.Title,
		Messages:  make([]json.RawMessage, 0, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		raw, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("encode message %d: %w", i, err)
		}
		w.Messages = append(w.Messages, raw)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var w wireConversation
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	created, err := ParseTimestamp(w.CreatedAt)
	if err != nil {
		return err
	}

	messages := make([]Message, 0, len(w.Messages))
	for i, raw := range w.Messages {
		msg, err := DecodeMessage(raw)
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		messages = append(messages, msg)
	}

	*c = Conversation{ID: w.ID, Title: w.Title, CreatedAt: created, Messages: messages}
	return nil
}

// timestampLayouts are tried in order. The backend writes naive UTC
// timestamps without a zone designator.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an RFC 3339 timestamp or a zone-less one, which is
// taken as UTC. The empty string yields the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("parse created_at %q: %w", s, lastErr)
}
