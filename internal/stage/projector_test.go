// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/council-tui/internal/model"
)

func TestProject(t *testing.T) {
	responses := []model.ModelResponse{{Model: "openai/gpt-4", Response: "R"}}
	rankings := []model.PeerRanking{{Model: "openai/gpt-4", Ranking: "A > B"}}
	final := &model.FinalResponse{Model: "google/gemini", Response: "F"}

	tests := []struct {
		name string
		msg  *model.AssistantMessage
		want [3]Status
	}{
		{
			name: "nil message",
			msg:  nil,
			want: [3]Status{Hidden, Hidden, Hidden},
		},
		{
			name: "fresh placeholder",
			msg:  &model.AssistantMessage{},
			want: [3]Status{Hidden, Hidden, Hidden},
		},
		{
			name: "stage 1 running",
			msg:  &model.AssistantMessage{Loading: model.Loading{Stage1: true}},
			want: [3]Status{Loading, Hidden, Hidden},
		},
		{
			name: "stage 1 done, stage 2 running",
			msg: &model.AssistantMessage{
				Stage1:  responses,
				Loading: model.Loading{Stage2: true},
			},
			want: [3]Status{Ready, Loading, Hidden},
		},
		{
			name: "stale stage 2 while recomputing",
			msg: &model.AssistantMessage{
				Stage1:  responses,
				Stage2:  rankings,
				Loading: model.Loading{Stage2: true},
			},
			want: [3]Status{Ready, Loading, Hidden},
		},
		{
			name: "complete",
			msg: &model.AssistantMessage{
				Stage1: responses,
				Stage2: rankings,
				Stage3: final,
			},
			want: [3]Status{Ready, Ready, Ready},
		},
		{
			name: "present but empty stage 1",
			msg:  &model.AssistantMessage{Stage1: []model.ModelResponse{}},
			want: [3]Status{Ready, Hidden, Hidden},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Project(tc.msg)
			for i, s := range model.Stages {
				assert.Equal(t, tc.want[i], p.Of(s).Status, s.String())
				assert.Equal(t, s, p.Of(s).Stage)
			}
		})
	}
}

func TestProject_LoadingLabels(t *testing.T) {
	p := Project(&model.AssistantMessage{Loading: model.Loading{Stage1: true, Stage2: true, Stage3: true}})

	assert.Equal(t, "Running Stage 1: Collecting individual responses...", p.Of(model.Stage1).Label)
	assert.Equal(t, "Running Stage 2: Peer rankings...", p.Of(model.Stage2).Label)
	assert.Equal(t, "Running Stage 3: Final synthesis...", p.Of(model.Stage3).Label)
	assert.True(t, p.Busy())
}

func TestProject_Idempotent(t *testing.T) {
	msg := &model.AssistantMessage{
		Stage1:  []model.ModelResponse{{Model: "a", Response: "b"}},
		Loading: model.Loading{Stage2: true},
	}

	first := Project(msg)
	second := Project(msg)
	assert.Equal(t, first, second)
	assert.Equal(t, []model.ModelResponse{{Model: "a", Response: "b"}}, msg.Stage1, "projection must not mutate")
}

func TestProjection_Visible(t *testing.T) {
	p := Project(&model.AssistantMessage{
		Stage1:  []model.ModelResponse{{Model: "a", Response: "b"}},
		Loading: model.Loading{Stage3: true},
	})

	visible := p.Visible()
	if assert.Len(t, visible, 2) {
		assert.Equal(t, model.Stage1, visible[0].Stage)
		assert.Equal(t, model.Stage3, visible[1].Stage)
	}
	assert.Equal(t, Hidden, p.Of(model.Stage(7)).Status)
}

func TestDeanonymize(t *testing.T) {
	labels := map[string]string{
		"Response A":  "openai/gpt-4o",
		"Response B":  "anthropic/claude",
		"Response AB": "localmodel",
	}

	got := Deanonymize("Response A beats Response B; Response AB last.", labels)
	assert.Equal(t, "**gpt-4o** beats **claude**; **localmodel** last.", got)

	assert.Equal(t, "unchanged", Deanonymize("unchanged", nil))
}
