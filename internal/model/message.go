// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for council conversations.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "LLM Council"
	default:
		return string(r)
	}
}

// =============================================================================
// STAGE TYPE
// =============================================================================

// Stage identifies one of the three deliberation phases.
type Stage int

const (
	Stage1 Stage = iota + 1 // Individual responses
	Stage2                  // Peer rankings
	Stage3                  // Final synthesis
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{Stage1, Stage2, Stage3}

// ErrUnknownStage is returned by ParseStage for unrecognized input.
var ErrUnknownStage = errors.New("unknown stage")

// String returns the display label of the stage.
func (s Stage) String() string {
	switch s {
	case Stage1:
		return "Stage 1"
	case Stage2:
		return "Stage 2"
	case Stage3:
		return "Stage 3"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// ParseStage accepts "1", "stage1", "stage 1" and "stage_1" in any case.
func ParseStage(s string) (Stage, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "", "_", "").Replace(normalized)
	normalized = strings.TrimPrefix(normalized, "stage")
	switch normalized {
	case "1":
		return Stage1, nil
	case "2":
		return Stage2, nil
	case "3":
		return Stage3, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStage, s)
}

// =============================================================================
// STAGE PAYLOADS
// =============================================================================

// ModelResponse is one council member's Stage 1 answer.
type ModelResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// PeerRanking is one council member's Stage 2 evaluation of the anonymized
// Stage 1 responses. ParsedRanking holds the labels the backend extracted from
// the free-text ranking, best first.
type PeerRanking struct {
	Model         string   `json:"model"`
	Ranking       string   `json:"ranking"`
	ParsedRanking []string `json:"parsed_ranking,omitempty"`
}

// AggregateRanking is the mean position of a model across all evaluators.
type AggregateRanking struct {
	Model         string  `json:"model"`
	AverageRank   float64 `json:"average_rank"`
	RankingsCount int     `json:"rankings_count,omitempty"`
}

// FinalResponse is the chairman's Stage 3 synthesis.
type FinalResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// Metadata carries Stage 2 side data. A nil field means absent.
type Metadata struct {
	LabelToModel      map[string]string
	AggregateRankings []AggregateRanking
}

// Loading holds the per-stage in-progress flags set by the collaborator.
type Loading struct {
	Stage1 bool `json:"stage1"`
	Stage2 bool `json:"stage2"`
	Stage3 bool `json:"stage3"`
}

// Any reports whether any stage is in progress.
func (l Loading) Any() bool {
	return l.Stage1 || l.Stage2 || l.Stage3
}

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Message is a tagged union over *UserMessage and *AssistantMessage.
type Message interface {
	Role() Role
	isMessage()
}

// UserMessage is a query typed by the user.
type UserMessage struct {
	Content string
}

// Role implements Message.
func (*UserMessage) Role() Role { return RoleUser }

func (*UserMessage) isMessage() {}

// AssistantMessage is one council deliberation. Nil stage fields are absent;
// an empty non-nil slice is present with zero entries.
type AssistantMessage struct {
	Stage1   []ModelResponse
	Stage2   []PeerRanking
	Stage3   *FinalResponse
	Metadata Metadata
	Loading  Loading
}

// Role implements Message.
func (*AssistantMessage) Role() Role { return RoleAssistant }

func (*AssistantMessage) isMessage() {}

// ErrStageOrder is returned when stage data would be attached out of order.
var ErrStageOrder = errors.New("stage data attached out of order")

// HasData reports whether data for the stage is present.
func (m *AssistantMessage) HasData(s Stage) bool {
	switch s {
	case Stage1:
		return m.Stage1 != nil
	case Stage2:
		return m.Stage2 != nil
	case Stage3:
		return m.Stage3 != nil
	}
	return false
}

// IsLoading reports whether the stage's loading flag is set.
func (m *AssistantMessage) IsLoading(s Stage) bool {
	switch s {
	case Stage1:
		return m.Loading.Stage1
	case Stage2:
		return m.Loading.Stage2
	case Stage3:
		return m.Loading.Stage3
	}
	return false
}

// BeginStage marks a stage as being computed.
func (m *AssistantMessage) BeginStage(s Stage) {
	m.setLoading(s, true)
}

// CompleteStage1 attaches Stage 1 results and clears its loading flag.
func (m *AssistantMessage) CompleteStage1(responses []ModelResponse) error {
	if responses == nil {
		responses = []ModelResponse{}
	}
	m.Stage1 = responses
	m.Loading.Stage1 = false
	return nil
}

// CompleteStage2 attaches Stage 2 results and metadata. Stage 1 must already
// be present.
func (m *AssistantMessage) CompleteStage2(rankings []PeerRanking, meta Metadata) error {
	if m.Stage1 == nil {
		return fmt.Errorf("%w: stage 2 before stage 1", ErrStageOrder)
	}
	if rankings == nil {
		rankings = []PeerRanking{}
	}
	m.Stage2 = rankings
	m.Metadata = meta
	m.Loading.Stage2 = false
	return nil
}

// CompleteStage3 attaches the chairman's answer. Stage 2 must already be
// present.
func (m *AssistantMessage) CompleteStage3(final FinalResponse) error {
	if m.Stage2 == nil {
		return fmt.Errorf("%w: stage 3 before stage 2", ErrStageOrder)
	}
	m.Stage3 = &final
	m.Loading.Stage3 = false
	return nil
}

// ClearLoading drops every loading flag, used when a deliberation aborts.
func (m *AssistantMessage) ClearLoading() {
	m.Loading = Loading{}
}

func (m *AssistantMessage) setLoading(s Stage, v bool) {
	switch s {
	case Stage1:
		m.Loading.Stage1 = v
	case Stage2:
		m.Loading.Stage2 = v
	case Stage3:
		m.Loading.Stage3 = v
	}
}

// Clone returns a deep copy of the assistant message.
func (m *AssistantMessage) Clone() *AssistantMessage {
	clone := &AssistantMessage{Loading: m.Loading}
	if m.Stage1 != nil {
		clone.Stage1 = append([]ModelResponse{}, m.Stage1...)
	}
	if m.Stage2 != nil {
		clone.Stage2 = make([]PeerRanking, len(m.Stage2))
		for i, r := range m.Stage2 {
			if r.ParsedRanking != nil {
				r.ParsedRanking = append([]string{}, r.ParsedRanking...)
			}
			clone.Stage2[i] = r
		}
	}
	if m.Stage3 != nil {
		final := *m.Stage3
		clone.Stage3 = &final
	}
	if m.Metadata.LabelToModel != nil {
		clone.Metadata.LabelToModel = make(map[string]string, len(m.Metadata.LabelToModel))
		for k, v := range m.Metadata.LabelToModel {
			clone.Metadata.LabelToModel[k] = v
		}
	}
	if m.Metadata.AggregateRankings != nil {
		clone.Metadata.AggregateRankings = append([]AggregateRanking{}, m.Metadata.AggregateRankings...)
	}
	return clone
}

// =============================================================================
// WIRE FORMAT
// =============================================================================

// wireMessage is the backend JSON shape. Pointers to slices keep "absent"
// (omitted or null) distinct from "present and empty" ([]).
type wireMessage struct {
	Role     Role             `json:"role"`
	Content  *string          `json:"content,omitempty"`
	Stage1   *[]ModelResponse `json:"stage1,omitempty"`
	Stage2   *[]PeerRanking   `json:"stage2,omitempty"`
	Stage3   *FinalResponse   `json:"stage3,omitempty"`
	Metadata *wireMetadata    `json:"metadata,omitempty"`
	Loading  *Loading         `json:"loading,omitempty"`
}

type wireMetadata struct {
	LabelToModel      map[string]string   `json:"label_to_model,omitempty"`
	AggregateRankings *[]AggregateRanking `json:"aggregate_rankings,omitempty"`
}

// UnmarshalJSON decodes the backend metadata object, keeping a null or
// missing aggregate_rankings distinct from an empty list.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var w wireMetadata
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.LabelToModel = w.LabelToModel
	m.AggregateRankings = nil
	if w.AggregateRankings != nil {
		m.AggregateRankings = *w.AggregateRankings
		if m.AggregateRankings == nil {
			m.AggregateRankings = []AggregateRanking{}
		}
	}
	return nil
}

// ErrUnknownRole is returned when decoding a message with an unsupported role.
var ErrUnknownRole = errors.New("unknown message role")

// MarshalJSON implements json.Marshaler.
func (m *UserMessage) MarshalJSON() ([]byte, error) {
	content := m.Content
	return json.Marshal(wireMessage{Role: RoleUser, Content: &content})
}

// MarshalJSON implements json.Marshaler.
func (m *AssistantMessage) MarshalJSON() ([]byte, error) {
	w := wireMessage{Role: RoleAssistant}
	if m.Stage1 != nil {
		w.Stage1 = &m.Stage1
	}
	if m.Stage2 != nil {
		w.Stage2 = &m.Stage2
	}
	w.Stage3 = m.Stage3
	if m.Metadata.LabelToModel != nil || m.Metadata.AggregateRankings != nil {
		meta := &wireMetadata{LabelToModel: m.Metadata.LabelToModel}
		if m.Metadata.AggregateRankings != nil {
			meta.AggregateRankings = &m.Metadata.AggregateRankings
		}
		w.Metadata = meta
	}
	if m.Loading.Any() {
		loading := m.Loading
		w.Loading = &loading
	}
	return json.Marshal(w)
}

// DecodeMessage decodes one message, dispatching on its role.
func DecodeMessage(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	switch w.Role {
	case RoleUser:
		msg := &UserMessage{}
		if w.Content != nil {
			msg.Content = *w.Content
		}
		return msg, nil

	case RoleAssistant:
		msg := &AssistantMessage{Stage3: w.Stage3}
		if w.Stage1 != nil {
			msg.Stage1 = *w.Stage1
			if msg.Stage1 == nil {
				msg.Stage1 = []ModelResponse{}
			}
		}
		if w.Stage2 != nil {
			msg.Stage2 = *w.Stage2
			if msg.Stage2 == nil {
				msg.Stage2 = []PeerRanking{}
			}
		}
		if w.Metadata != nil {
			msg.Metadata.LabelToModel = w.Metadata.LabelToModel
			if w.Metadata.AggregateRankings != nil {
				msg.Metadata.AggregateRankings = *w.Metadata.AggregateRankings
				if msg.Metadata.AggregateRankings == nil {
					msg.Metadata.AggregateRankings = []AggregateRanking{}
				}
			}
		}
		if w.Loading != nil {
			msg.Loading = *w.Loading
		}
		return msg, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownRole, w.Role)
}
