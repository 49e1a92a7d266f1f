// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "strings"

// =============================================================================
// COMPOSER
// =============================================================================

// SendFunc delivers a submitted query to the collaborator.
type SendFunc func(content string)

// EnterAction is the outcome of an Enter key press.
type EnterAction int

const (
	// EnterSubmit means the default newline was suppressed and Submit ran.
	EnterSubmit EnterAction = iota
	// EnterNewline means a line break was added to the input and nothing was sent.
	EnterNewline
)

func (a EnterAction) String() string {
	if a == EnterNewline {
		return "newline"
	}
	return "submit"
}

// Composer holds the query being typed and decides when it is sent.
// isLoading is owned by the host and passed in on every call.
type Composer struct {
	input string
	send  SendFunc
	sent  int
}

// NewComposer creates a composer with empty input. A nil send discards
// submissions.
func NewComposer(send SendFunc) *Composer {
	if send == nil {
		send = func(string) {}
	}
	return &Composer{send: send}
}

// UpdateInput replaces the input text.
func (c *Composer) UpdateInput(text string) {
	c.input = text
}

// Input returns the current input text.
func (c *Composer) Input() string {
	return c.input
}

// Submit sends the input unless it is blank or a deliberation is running.
// The raw text is sent, untrimmed; trimming only decides emptiness. Returns
// whether anything was sent.
func (c *Composer) Submit(isLoading bool) bool {
	if strings.TrimSpace(c.input) == "" || isLoading {
		return false
	}

	content := c.input
	c.input = ""
	c.sent++
	c.send(content)
	return true
}

// Submissions counts successful submits.
func (c *Composer) Submissions() int {
	return c.sent
}

// PressEnter handles Enter. A modified Enter (shift/alt) adds a line break;
// a plain Enter submits.
func (c *Composer) PressEnter(modified, isLoading bool) EnterAction {
	if modified {
		c.input += "\n"
		return EnterNewline
	}
	c.Submit(isLoading)
	return EnterSubmit
}

// Reset clears the input, used when the conversation identity changes.
func (c *Composer) Reset() {
	c.input = ""
}
