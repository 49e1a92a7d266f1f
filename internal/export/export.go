// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export turns council conversations into downloadable transcripts.
package export

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/util"
)

// =============================================================================
// ARTIFACT
// =============================================================================

const (
	// MarkdownMimeType is the MIME type of transcript artifacts.
	MarkdownMimeType = "text/markdown"

	// MarkdownExtension is appended to every transcript filename.
	MarkdownExtension = ".md"

	// DefaultBaseName is used when a conversation has no title.
	DefaultBaseName = "council-deliberation"
)

// Artifact is a downloadable transcript.
type Artifact struct {
	Filename string
	MimeType string
	Content  []byte
}

// NewArtifact exports a conversation and packages it for download.
func NewArtifact(conv *model.Conversation) Artifact {
	var title string
	if conv != nil {
		title = conv.Title
	}
	return Artifact{
		Filename: Filename(title),
		MimeType: MarkdownMimeType,
		Content:  []byte(Transcript(conv)),
	}
}

// Filename derives the transcript filename from a conversation title.
// The title is NFC-normalized, every rune that is not an ASCII letter or digit
// becomes "-", and the result is lowercased: "Hello, World!" gives
// "hello--world-.md". An empty title gives "council-deliberation.md".
func Filename(title string) string {
	if title == "" {
		return DefaultBaseName + MarkdownExtension
	}

	var sb strings.Builder
	for _, r := range norm.NFC.String(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r + ('a' - 'A'))
		default:
			sb.WriteByte('-')
		}
	}
	return sb.String() + MarkdownExtension
}

// FilterStages returns a copy of conv keeping only the listed stages in
// every deliberation. No stages means all of them. conv is not modified.
func FilterStages(conv *model.Conversation, keep ...model.Stage) *model.Conversation {
	if conv == nil {
		return nil
	}
	out := conv.Clone()
	if len(keep) == 0 {
		return out
	}

	want := make(map[model.Stage]bool, len(keep))
	for _, s := range keep {
		want[s] = true
	}
	for _, msg := range out.Messages {
		am, ok := msg.(*model.AssistantMessage)
		if !ok {
			continue
		}
		if !want[model.Stage1] {
			am.Stage1 = nil
		}
		if !want[model.Stage2] {
			am.Stage2 = nil
		}
		if !want[model.Stage3] {
			am.Stage3 = nil
		}
	}
	return out
}

// =============================================================================
// SINKS
// =============================================================================

// Sink receives artifacts. Deliver returns where the artifact ended up.
type Sink interface {
	Deliver(a Artifact) (string, error)
}

// ErrEmptyFilename is returned when an artifact has no filename.
var ErrEmptyFilename = errors.New("artifact has no filename")

// FileSink writes artifacts into a directory. Each Deliver acquires one
// scratch file, writes and syncs it, and releases it before returning.
type FileSink struct {
	// Dir is the download directory. Default: current working directory
	Dir string

	// Open launches the platform opener on the written file.
	Open bool

	// opener is replaced in tests.
	opener func(path string) error
}

// NewFileSink creates a sink writing into dir.
func NewFileSink(dir string, open bool) *FileSink {
	if dir == "" {
		dir = "."
	}
	return &FileSink{Dir: dir, Open: open, opener: openFile}
}

// Deliver writes the artifact and returns its path.
func (s *FileSink) Deliver(a Artifact) (string, error) {
	if a.Filename == "" {
		return "", ErrEmptyFilename
	}

	path := filepath.Join(s.Dir, filepath.Base(a.Filename))
	if err := util.AtomicWriteFile(path, a.Content, 0644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}

	if s.Open && s.opener != nil {
		if err := s.opener(path); err != nil {
			// Non-fatal - the file was still written
			return path, fmt.Errorf("open %s: %w", path, err)
		}
	}

	return path, nil
}

// Download exports conv and hands it to sink.
func Download(conv *model.Conversation, sink Sink) (string, error) {
	return sink.Deliver(NewArtifact(conv))
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the opener so its process handle is released
	go cmd.Wait()
	return nil
}
