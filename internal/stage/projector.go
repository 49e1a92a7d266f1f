// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stage

import (
	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// STATUS TYPE
// =============================================================================

// Status is the display state of one stage.
type Status int

const (
	Hidden  Status = iota // No loading flag, no data: render nothing
	Loading               // Loading flag set: render a progress indicator
	Ready                 // Data present, not loading: render content
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// loadingLabels are shown next to the progress indicator of a loading stage.
var loadingLabels = map[model.Stage]string{
	model.Stage1: "Running Stage 1: Collecting individual responses...",
	model.Stage2: "Running Stage 2: Peer rankings...",
	model.Stage3: "Running Stage 3: Final synthesis...",
}

// LoadingLabel returns the progress label for a stage.
func LoadingLabel(s model.Stage) string {
	return loadingLabels[s]
}

// =============================================================================
// PROJECTION
// =============================================================================

// View is the projected state of a single stage.
type View struct {
	Stage  model.Stage
	Status Status
	Label  string // Set only when Status is Loading
}

// Projection holds the view of every stage, indexed in pipeline order.
type Projection struct {
	Stages [3]View
}

// Project computes the display state of every stage of an assistant message.
// A nil message projects to all-hidden.
func Project(msg *model.AssistantMessage) Projection {
	var p Projection
	for i, s := range model.Stages {
		p.Stages[i] = View{Stage: s, Status: status(msg, s)}
		if p.Stages[i].Status == Loading {
			p.Stages[i].Label = LoadingLabel(s)
		}
	}
	return p
}

func status(msg *model.AssistantMessage, s model.Stage) Status {
	if msg == nil {
		return Hidden
	}
	if msg.IsLoading(s) {
		return Loading
	}
	if msg.HasData(s) {
		return Ready
	}
	return Hidden
}

// Of returns the view for one stage.
func (p Projection) Of(s model.Stage) View {
	if s < model.Stage1 || s > model.Stage3 {
		return View{Stage: s}
	}
	return p.Stages[s-1]
}

// Visible returns the non-hidden stages in pipeline order.
func (p Projection) Visible() []View {
	views := make([]View, 0, len(p.Stages))
	for _, v := range p.Stages {
		if v.Status != Hidden {
			views = append(views, v)
		}
	}
	return views
}

// Busy reports whether any stage is loading.
func (p Projection) Busy() bool {
	for _, v := range p.Stages {
		if v.Status == Loading {
			return true
		}
	}
	return false
}
