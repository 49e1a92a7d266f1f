// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components holds reusable pieces of the council TUI.
//
// The error pattern matcher turns raw backend and export errors into a short
// title plus an actionable suggestion for the status bar. Patterns are tried
// from most to least specific; the first match wins.
package components
