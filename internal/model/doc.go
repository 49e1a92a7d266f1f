// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for council conversations.
//
// A conversation is an ordered list of messages. User messages carry the raw
// query; assistant messages carry the three deliberation stages produced by
// the council backend.
//
// # Key Types
//
//   - Conversation: Container for a council session with ordered messages
//   - Message: Tagged union over UserMessage and AssistantMessage
//   - AssistantMessage: Stage 1/2/3 results, metadata and per-stage loading flags
//   - Stage: Deliberation stage enumeration (Stage1, Stage2, Stage3)
//
// # Ownership
//
// The rendering core only reads conversations. Mutators such as
// AddUserMessage, BeginStage and CompleteStage2 exist for the collaborator
// that talks to the backend; it hands the view immutable snapshots via Clone.
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("What is the capital of France?")
//	turn := conv.AddAssistantMessage()
//	turn.BeginStage(model.Stage1)
//	_ = turn.CompleteStage1([]model.ModelResponse{
//	    {Model: "openai/gpt-4o", Response: "Paris."},
//	})
//
// Model identifiers are opaque, conventionally "<provider>/<name>":
//
//	model.DisplayName("openai/gpt-4o") // "gpt-4o"
package model
