// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/council-tui/internal/model"
)

func writeConversation(t *testing.T, path, title string) {
	t.Helper()
	conv := &model.Conversation{
		ID:        "c1",
		Title:     title,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Messages:  []model.Message{&model.UserMessage{Content: "hello"}},
	}
	data, err := json.Marshal(conv)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conv.json")
	writeConversation(t, path, "Loaded")

	conv, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Loaded", conv.Title)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "hello", conv.Messages[0].(*model.UserMessage).Content)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = Load(empty)
	assert.ErrorIs(t, err, ErrEmptyFile)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"id":`), 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conv.json")
	writeConversation(t, path, "First")

	got := make(chan *model.Conversation, 8)
	w, err := New(path, 30*time.Millisecond, func(c *model.Conversation) { got <- c }, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	// Undecodable content is skipped
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))
	time.Sleep(150 * time.Millisecond)
	select {
	case c := <-got:
		t.Fatalf("unexpected snapshot %q", c.Title)
	default:
	}

	writeConversation(t, path, "Second")
	select {
	case c := <-got:
		assert.Equal(t, "Second", c.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot after write")
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conv.json")
	writeConversation(t, path, "Only")

	got := make(chan *model.Conversation, 1)
	w, err := New(path, 20*time.Millisecond, func(c *model.Conversation) { got <- c }, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	writeConversation(t, filepath.Join(dir, "other.json"), "Other")
	select {
	case c := <-got:
		t.Fatalf("sibling file reported: %q", c.Title)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conv.json")
	writeConversation(t, path, "x")

	w, err := New(path, 0, nil, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.Equal(t, DefaultDebounce, w.debounce)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
