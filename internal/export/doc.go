// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export turns council conversations into downloadable transcripts.
//
// The transcript is Markdown: a header with the title and creation date,
// then every message in order. User messages become "User Query" sections;
// assistant messages emit only the stage sections whose data is present.
//
// # Key Types
//
//   - Artifact: Filename, MIME type and content of one download
//   - Sink: Destination of an artifact
//   - FileSink: Writes artifacts into a directory, optionally opening them
//
// # Formats
//
//   - Markdown (text/markdown): human-readable transcript
//   - JSON (application/json): full conversation in the backend wire format
//   - HTML (text/html): the transcript as a standalone themed page
//
// FilterStages narrows any format to a subset of the stages.
//
// # Usage
//
//	text := export.Transcript(conv)
//
//	sink := export.NewFileSink("./exports", false)
//	path, err := export.Download(conv, sink)
package export
