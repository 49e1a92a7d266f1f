// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the council conversation view.

# Key Components

## Composer (input.go)

Holds the query being typed. Enter submits when the input is not blank and
no deliberation is running; Alt+Enter (or Shift+Enter where the terminal
reports it, or Ctrl+J) inserts a line break. The raw text is sent untrimmed.

## Driver (viewport.go)

Fingerprints the message sequence of each snapshot with xxhash and scrolls to
the end exactly once per change. It also hands transcript artifacts to an
export.Sink on download.

## Model (model.go, update.go, view.go)

The Bubble Tea model. It never mutates conversations: the Session
collaborator owns the live conversation and sends immutable snapshots, which
arrive through the event pump in streaming.go as SnapshotMsg values. Each
assistant message is drawn through the stage projector, so running stages
show a spinner and their label while finished stages show their data.

# Key Bindings

	Enter        send
	Alt+Enter    new line
	Esc          cancel the running deliberation
	Tab/S-Tab    cycle the model tab in Stage 1 and Stage 2
	PgUp/PgDn    scroll
	Ctrl+S       export the transcript
	Ctrl+N       start a new conversation
	Ctrl+C       quit
*/
package chat
