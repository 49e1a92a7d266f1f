// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for council conversations.
package model

import "strings"

// =============================================================================
// MODEL IDENTIFIERS
// =============================================================================

// DisplayName returns the human-facing label for a model identifier.
// The provider prefix before the first "/" is dropped; identifiers without a
// "/" are returned verbatim. No validation of the shape is performed.
func DisplayName(id string) string {
	if _, name, ok := strings.Cut(id, "/"); ok {
		return name
	}
	return id
}
