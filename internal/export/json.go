// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/jeranaias/council-tui/internal/model"
)

// JSONMimeType is the MIME type of JSON artifacts.
const JSONMimeType = "application/json"

// ErrNilConversation is returned when exporting a nil conversation as JSON.
var ErrNilConversation = errors.New("conversation is nil")

// JSON exports the complete conversation in the backend wire format. Unlike
// the transcript it keeps metadata such as label mappings and parsed rankings,
// so the file can be reopened with `council view`.
func JSON(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}
	return json.MarshalIndent(conv, "", "  ")
}

// NewJSONArtifact packages the JSON export for download. The filename follows
// the transcript rule with a .json extension.
func NewJSONArtifact(conv *model.Conversation) (Artifact, error) {
	data, err := JSON(conv)
	if err != nil {
		return Artifact{}, err
	}
	name := strings.TrimSuffix(Filename(conv.Title), MarkdownExtension) + ".json"
	return Artifact{Filename: name, MimeType: JSONMimeType, Content: data}, nil
}
