// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the council packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync; the scratch handle
//     never outlives the call
//
// String Utilities:
//   - TruncateWidth: Column-aware truncation with ellipsis (go-runewidth)
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0644)
//	label := util.TruncateWidth(model.DisplayName(id), 18)
package util
