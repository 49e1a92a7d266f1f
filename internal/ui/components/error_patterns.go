// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// =============================================================================
// ERROR CATEGORIES
// =============================================================================

// ErrorCategory represents the type of error for display.
type ErrorCategory string

const (
	CategoryNetwork   ErrorCategory = "Network"
	CategoryBackend   ErrorCategory = "Backend"
	CategoryStream    ErrorCategory = "Stream"
	CategoryTimeout   ErrorCategory = "Timeout"
	CategoryExport    ErrorCategory = "Export"
	CategoryCancelled ErrorCategory = "Cancelled"
	CategoryUnknown   ErrorCategory = "Error"
)

// =============================================================================
// ERROR PATTERN MATCHER
// =============================================================================

// ErrorPattern maps error text to a title and suggestions.
type ErrorPattern struct {
	// Keywords to match in the error message (case-insensitive, any match triggers)
	Keywords []string

	Category    ErrorCategory
	Title       string
	Suggestions []string
}

// Diagnosis is the result of classifying an error.
type Diagnosis struct {
	Category   ErrorCategory
	Title      string
	Message    string
	Suggestion string
}

// ErrorPatternMatcher classifies errors by keyword.
type ErrorPatternMatcher struct {
	mu       sync.RWMutex
	patterns []ErrorPattern
}

var (
	defaultMatcher     *ErrorPatternMatcher
	defaultMatcherOnce sync.Once
)

// GetDefaultMatcher returns the shared matcher with the default patterns.
func GetDefaultMatcher() *ErrorPatternMatcher {
	defaultMatcherOnce.Do(func() {
		defaultMatcher = NewErrorPatternMatcher()
	})
	return defaultMatcher
}

// NewErrorPatternMatcher creates a matcher with the default patterns.
func NewErrorPatternMatcher() *ErrorPatternMatcher {
	m := &ErrorPatternMatcher{}
	m.registerDefaultPatterns()
	return m
}

// registerDefaultPatterns registers patterns from MOST SPECIFIC to LEAST
// SPECIFIC.
func (m *ErrorPatternMatcher) registerDefaultPatterns() {
	m.AddPattern(ErrorPattern{
		Keywords:    []string{"already running"},
		Category:    CategoryBackend,
		Title:       "Council Busy",
		Suggestions: []string{"Wait for the current deliberation or press Esc to cancel it"},
	})

	m.AddPattern(ErrorPattern{
		Keywords:    []string{"conversation not found", "404 not found"},
		Category:    CategoryBackend,
		Title:       "Conversation Not Found",
		Suggestions: []string{"Run 'council list' to see stored conversations"},
	})

	m.AddPattern(ErrorPattern{
		Keywords:    []string{"malformed stream event", "read stream"},
		Category:    CategoryStream,
		Title:       "Broken Stream",
		Suggestions: []string{"Check that the backend version matches this client", "Try the question again"},
	})

	m.AddPattern(ErrorPattern{
		Keywords:    []string{"deliberation stream failed"},
		Category:    CategoryStream,
		Title:       "Deliberation Failed",
		Suggestions: []string{"Check the backend logs for the failing model", "Try the question again"},
	})

	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"deadline exceeded", "timed out", "timeout",
		},
		Category:    CategoryTimeout,
		Title:       "Request Timeout",
		Suggestions: []string{"The backend may be busy, try again"},
	})

	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"connection refused", "no such host", "dial tcp",
			"connection reset", "network is unreachable", "eof",
		},
		Category:    CategoryNetwork,
		Title:       "Backend Unreachable",
		Suggestions: []string{"Start the council backend or pass --backend with its URL"},
	})

	m.AddPattern(ErrorPattern{
		Keywords:    []string{"500 internal", "502 bad", "503 service", "504 gateway"},
		Category:    CategoryBackend,
		Title:       "Backend Error",
		Suggestions: []string{"Check the backend logs"},
	})

	m.AddPattern(ErrorPattern{
		Keywords:    []string{"write transcript", "permission denied", "read-only file system", "no space left"},
		Category:    CategoryExport,
		Title:       "Export Failed",
		Suggestions: []string{"Check export.dir in ~/.council/config.toml"},
	})
}

// AddPattern appends a pattern. Later patterns have lower priority.
func (m *ErrorPatternMatcher) AddPattern(p ErrorPattern) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, p)
}

// Match returns the first pattern matching errMsg, or nil.
func (m *ErrorPatternMatcher) Match(errMsg string) *ErrorPattern {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errLower := strings.ToLower(errMsg)
	for i := range m.patterns {
		for _, kw := range m.patterns[i].Keywords {
			if strings.Contains(errLower, strings.ToLower(kw)) {
				p := m.patterns[i]
				return &p
			}
		}
	}
	return nil
}

// Diagnose classifies err. Cancellation is recognized by identity, everything
// else by message.
func (m *ErrorPatternMatcher) Diagnose(err error) Diagnosis {
	if err == nil {
		return Diagnosis{Category: CategoryUnknown, Title: "Error", Message: "Unknown error"}
	}

	msg := err.Error()
	if errors.Is(err, context.Canceled) {
		return Diagnosis{Category: CategoryCancelled, Title: "Cancelled", Message: msg}
	}

	if p := m.Match(msg); p != nil {
		d := Diagnosis{Category: p.Category, Title: p.Title, Message: msg}
		if len(p.Suggestions) > 0 {
			d.Suggestion = p.Suggestions[0]
		}
		return d
	}
	return Diagnosis{Category: CategoryUnknown, Title: "Error", Message: msg}
}

// Diagnose classifies err with the default matcher.
func Diagnose(err error) Diagnosis {
	return GetDefaultMatcher().Diagnose(err)
}

// Summary renders the diagnosis on one line.
func (d Diagnosis) Summary() string {
	s := d.Title + ": " + d.Message
	if d.Suggestion != "" {
		s += " | " + d.Suggestion
	}
	return s
}
