// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for council conversations.
package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// IDENTIFIER TESTS
// =============================================================================

func TestDisplayName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"openai/gpt-4", "gpt-4"},
		{"localmodel", "localmodel"},
		{"meta/llama/3.1", "llama/3.1"},
		{"/leading", "leading"},
		{"trailing/", ""},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			assert.Equal(t, tc.want, DisplayName(tc.id))
		})
	}
}

func TestParseStage(t *testing.T) {
	for _, in := range []string{"1", "stage1", "Stage 1", "STAGE_1"} {
		s, err := ParseStage(in)
		require.NoError(t, err, in)
		assert.Equal(t, Stage1, s)
	}

	_, err := ParseStage("stage4")
	assert.True(t, errors.Is(err, ErrUnknownStage))
	assert.Equal(t, "Stage 3", Stage3.String())
}

// =============================================================================
// STAGE LIFECYCLE TESTS
// =============================================================================

func TestAssistantMessage_StageLifecycle(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("question")
	turn := conv.AddAssistantMessage()

	turn.BeginStage(Stage1)
	assert.True(t, turn.IsLoading(Stage1))
	assert.False(t, turn.HasData(Stage1))

	require.NoError(t, turn.CompleteStage1([]ModelResponse{{Model: "openai/gpt-4", Response: "R"}}))
	assert.False(t, turn.IsLoading(Stage1))
	assert.True(t, turn.HasData(Stage1))

	turn.BeginStage(Stage2)
	require.NoError(t, turn.CompleteStage2(nil, Metadata{LabelToModel: map[string]string{"Response A": "openai/gpt-4"}}))
	assert.NotNil(t, turn.Stage2, "nil rankings become present-and-empty")
	assert.Equal(t, "openai/gpt-4", turn.Metadata.LabelToModel["Response A"])

	turn.BeginStage(Stage3)
	require.NoError(t, turn.CompleteStage3(FinalResponse{Model: "google/gemini", Response: "final"}))
	assert.False(t, turn.Loading.Any())
	assert.Same(t, turn, conv.LastAssistant())
}

func TestAssistantMessage_StageOrderEnforced(t *testing.T) {
	turn := &AssistantMessage{}

	err := turn.CompleteStage2([]PeerRanking{{Model: "a"}}, Metadata{})
	assert.True(t, errors.Is(err, ErrStageOrder))
	assert.Nil(t, turn.Stage2)

	err = turn.CompleteStage3(FinalResponse{Model: "a"})
	assert.True(t, errors.Is(err, ErrStageOrder))
	assert.Nil(t, turn.Stage3)
}

func TestAssistantMessage_LoadingAndDataCoexist(t *testing.T) {
	turn := &AssistantMessage{}
	require.NoError(t, turn.CompleteStage1([]ModelResponse{{Model: "m", Response: "old"}}))
	turn.BeginStage(Stage1)

	assert.True(t, turn.IsLoading(Stage1))
	assert.True(t, turn.HasData(Stage1))
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_CloneIsDeep(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("hi")
	turn := conv.AddAssistantMessage()
	require.NoError(t, turn.CompleteStage1([]ModelResponse{{Model: "a/b", Response: "x"}}))
	require.NoError(t, turn.CompleteStage2(
		[]PeerRanking{{Model: "a/b", Ranking: "r", ParsedRanking: []string{"Response A"}}},
		Metadata{
			LabelToModel:      map[string]string{"Response A": "a/b"},
			AggregateRankings: []AggregateRanking{{Model: "a/b", AverageRank: 1}},
		},
	))

	clone := conv.Clone()
	turn.Stage1[0].Response = "mutated"
	turn.Stage2[0].ParsedRanking[0] = "mutated"
	turn.Metadata.LabelToModel["Response A"] = "mutated"
	turn.Metadata.AggregateRankings[0].AverageRank = 9
	conv.AddUserMessage("later")

	cloned := clone.Messages[1].(*AssistantMessage)
	assert.Equal(t, "x", cloned.Stage1[0].Response)
	assert.Equal(t, "Response A", cloned.Stage2[0].ParsedRanking[0])
	assert.Equal(t, "a/b", cloned.Metadata.LabelToModel["Response A"])
	assert.Equal(t, 1.0, cloned.Metadata.AggregateRankings[0].AverageRank)
	assert.Equal(t, 2, clone.MessageCount())
}

func TestConversation_Truncate(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("a")
	conv.AddAssistantMessage()

	conv.Truncate(5)
	assert.Equal(t, 2, conv.MessageCount())
	conv.Truncate(0)
	assert.True(t, conv.IsEmpty())
}

// =============================================================================
// WIRE FORMAT TESTS
// =============================================================================

const backendConversation = `{
  "id": "c1",
  "created_at": "2025-11-20T10:30:00.123456",
  "title": "Capital cities",
  "messages": [
    {"role": "user", "content": "What is the capital of France?"},
    {
      "role": "assistant",
      "stage1": [{"model": "openai/gpt-4o", "response": "Paris"}],
      "stage2": [],
      "stage3": null,
      "metadata": {
        "label_to_model": {"Response A": "openai/gpt-4o"},
        "aggregate_rankings": [{"model": "openai/gpt-4o", "average_rank": 1.5, "rankings_count": 2}]
      }
    }
  ]
}`

func TestConversation_DecodeBackendFormat(t *testing.T) {
	var conv Conversation
	require.NoError(t, json.Unmarshal([]byte(backendConversation), &conv))

	assert.Equal(t, "c1", conv.ID)
	assert.Equal(t, "Capital cities", conv.Title)
	assert.Equal(t, time.Date(2025, 11, 20, 10, 30, 0, 123456000, time.UTC), conv.CreatedAt)
	require.Len(t, conv.Messages, 2)

	user, ok := conv.Messages[0].(*UserMessage)
	require.True(t, ok)
	assert.Equal(t, "What is the capital of France?", user.Content)

	turn, ok := conv.Messages[1].(*AssistantMessage)
	require.True(t, ok)
	assert.Len(t, turn.Stage1, 1)
	assert.NotNil(t, turn.Stage2, "[] is present")
	assert.Empty(t, turn.Stage2)
	assert.Nil(t, turn.Stage3, "null is absent")
	assert.Equal(t, 2, turn.Metadata.AggregateRankings[0].RankingsCount)
	assert.False(t, turn.Loading.Any())
}

func TestConversation_EncodePreservesPresence(t *testing.T) {
	conv := &Conversation{ID: "c2", CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	conv.AddUserMessage("q")
	turn := conv.AddAssistantMessage()
	turn.Stage1 = []ModelResponse{}
	turn.BeginStage(Stage2)

	data, err := json.Marshal(conv)
	require.NoError(t, err)

	var decoded Conversation
	require.NoError(t, json.Unmarshal(data, &decoded))
	got := decoded.Messages[1].(*AssistantMessage)
	assert.NotNil(t, got.Stage1)
	assert.Nil(t, got.Stage2)
	assert.True(t, got.Loading.Stage2)
	assert.Equal(t, conv.CreatedAt, decoded.CreatedAt)
}

func TestDecodeMessage_UnknownRole(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"role":"system","content":"x"}`))
	assert.True(t, errors.Is(err, ErrUnknownRole))
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2025-03-04T05:06:07Z")
	require.NoError(t, err)
	assert.Equal(t, 2025, ts.Year())

	ts, err = ParseTimestamp("")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}
