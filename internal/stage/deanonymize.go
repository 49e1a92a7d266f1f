// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stage

import (
	"sort"
	"strings"

	"github.com/jeranaias/council-tui/internal/model"
)

// Deanonymize replaces the anonymous "Response X" labels that evaluators saw
// with the bold display name of the model behind each label. Longer labels are
// replaced first so "Response A" never rewrites part of "Response AB".
func Deanonymize(text string, labelToModel map[string]string) string {
	if len(labelToModel) == 0 || text == "" {
		return text
	}

	labels := make([]string, 0, len(labelToModel))
	for label := range labelToModel {
		if label != "" {
			labels = append(labels, label)
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		if len(labels[i]) != len(labels[j]) {
			return len(labels[i]) > len(labels[j])
		}
		return labels[i] < labels[j]
	})

	pairs := make([]string, 0, len(labels)*2)
	for _, label := range labels {
		pairs = append(pairs, label, "**"+model.DisplayName(labelToModel[label])+"**")
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
