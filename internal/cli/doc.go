// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the council command-line interface.
//
// # Commands
//
//   - chat: interactive deliberation against the council backend
//   - view: read-only TUI over a conversation JSON file, optionally followed
//     as it changes
//   - export: write a Markdown (or JSON) transcript without starting the TUI
//   - list: list conversations stored on the backend
//   - config: show, read and write configuration values
//   - init: first-run setup wizard
//
// # Usage
//
//	os.Exit(cli.Execute())
//
// Global flags --config, --log-level and --backend override the
// configuration file for one invocation.
package cli
