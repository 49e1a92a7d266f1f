// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package council talks to the LLM Council backend and owns the live
conversation while a deliberation streams in.

# Client

Client wraps the backend's REST API:

	GET  /api/conversations                       list
	POST /api/conversations                       create
	GET  /api/conversations/{id}                  fetch
	POST /api/conversations/{id}/message/stream   deliberate (SSE)

The stream endpoint emits one JSON object per "data:" line:

	stage1_start, stage1_complete   individual responses
	stage2_start, stage2_complete   peer rankings + metadata
	stage3_start, stage3_complete   chairman synthesis
	title_complete                  generated title
	complete                        end of deliberation
	error                           backend failure

# Tracker

Tracker applies those events to a conversation under a mutex. Begin appends
the optimistic user message and an empty assistant message, Apply follows the
start/complete protocol, Rollback removes the optimistic pair and Snapshot
hands out deep copies for rendering.

# Session

Session ties a Client and a Tracker together and is what the TUI drives.
*/
package council
