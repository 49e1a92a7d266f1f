// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package council

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrStreamFailed indicates the deliberation stream ended in an error.
	ErrStreamFailed = errors.New("deliberation stream failed")

	// ErrNotFound indicates the conversation does not exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrBusy indicates a deliberation is already running.
	ErrBusy = errors.New("a deliberation is already running")

	// ErrNoDeliberation indicates an event arrived with nothing to apply it to.
	ErrNoDeliberation = errors.New("no deliberation in progress")

	// ErrBadEvent indicates an event payload could not be decoded.
	ErrBadEvent = errors.New("malformed stream event")
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 * 1024

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("council backend: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("council backend: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

func newAPIError(status int, body []byte) *APIError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &APIError{StatusCode: status, Body: string(body)}
}
