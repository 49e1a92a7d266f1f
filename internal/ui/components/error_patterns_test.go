// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		title    string
		category ErrorCategory
	}{
		{
			name:     "connection refused",
			err:      errors.New(`Post "http://localhost:8001/api/conversations": dial tcp 127.0.0.1:8001: connect: connection refused`),
			title:    "Backend Unreachable",
			category: CategoryNetwork,
		},
		{
			name:     "stream error event",
			err:      errors.New("deliberation stream failed: model timeout"),
			title:    "Deliberation Failed",
			category: CategoryStream,
		},
		{
			name:     "stream wrapping a decode error",
			err:      errors.New("deliberation stream failed: malformed stream event: stage1_complete"),
			title:    "Broken Stream",
			category: CategoryStream,
		},
		{
			name:     "missing conversation",
			err:      errors.New("get conversation x: council backend: 404 Not Found"),
			title:    "Conversation Not Found",
			category: CategoryBackend,
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("create conversation: %w", context.DeadlineExceeded),
			title:    "Request Timeout",
			category: CategoryTimeout,
		},
		{
			name:     "export",
			err:      errors.New("export: write transcript: open /x: permission denied"),
			title:    "Export Failed",
			category: CategoryExport,
		},
		{
			name:     "unknown",
			err:      errors.New("something odd"),
			title:    "Error",
			category: CategoryUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diagnose(tt.err)
			assert.Equal(t, tt.title, d.Title)
			assert.Equal(t, tt.category, d.Category)
			assert.Equal(t, tt.err.Error(), d.Message)
		})
	}
}

func TestDiagnose_Cancelled(t *testing.T) {
	d := Diagnose(fmt.Errorf("send: %w", context.Canceled))
	assert.Equal(t, CategoryCancelled, d.Category)
	assert.Empty(t, d.Suggestion)
}

func TestDiagnose_Nil(t *testing.T) {
	assert.Equal(t, "Unknown error", Diagnose(nil).Message)
}

func TestSummary(t *testing.T) {
	d := Diagnosis{Title: "Backend Unreachable", Message: "dial tcp", Suggestion: "Start it"}
	assert.Equal(t, "Backend Unreachable: dial tcp | Start it", d.Summary())
	assert.Equal(t, "Error: x", Diagnosis{Title: "Error", Message: "x"}.Summary())
}

func TestAddPattern_LowerPriority(t *testing.T) {
	m := NewErrorPatternMatcher()
	m.AddPattern(ErrorPattern{Keywords: []string{"refused"}, Title: "Custom"})

	assert.Equal(t, "Backend Unreachable", m.Diagnose(errors.New("connection refused")).Title)
	assert.Equal(t, "Custom", m.Diagnose(errors.New("request refused by policy")).Title)
}
