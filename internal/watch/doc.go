// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch loads conversation snapshots from JSON files and follows
// them as they change.
//
// A Watcher observes the file's directory rather than the file itself, so
// editors and writers that replace the file by rename are still seen. Bursts
// of writes are debounced; each settled change reloads the file and hands the
// decoded conversation to the callback. Files that fail to decode are logged
// and skipped, and the previous snapshot stays on screen.
package watch
