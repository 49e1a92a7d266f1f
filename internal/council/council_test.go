// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package council

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/council-tui/internal/model"
)

const emptyConversation = `{"id":"c1","created_at":"2025-11-20T10:30:00.123456","title":"New Conversation","messages":[]}`

var fullStream = []string{
	`{"type":"stage1_start"}`,
	`{"type":"stage1_complete","data":[{"model":"openai/gpt-4","response":"Paris"},{"model":"localmodel","response":"Paris!"}]}`,
	`{"type":"stage2_start"}`,
	`{"type":"stage2_complete","data":[{"model":"openai/gpt-4","ranking":"FINAL RANKING:\n1. Response B\n2. Response A","parsed_ranking":["Response B","Response A"]}],"metadata":{"label_to_model":{"Response A":"openai/gpt-4","Response B":"localmodel"},"aggregate_rankings":[{"model":"localmodel","average_rank":1.0,"rankings_count":1},{"model":"openai/gpt-4","average_rank":2.0,"rankings_count":1}]}}`,
	`{"type":"stage3_start"}`,
	`{"type":"stage3_complete","data":{"model":"google/gemini-pro","response":"Paris is the capital."}}`,
	`{"type":"title_complete","data":{"title":"French capital"}}`,
	`{"type":"complete"}`,
}

func writeSSE(w http.ResponseWriter, events []string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, e := range events {
		fmt.Fprintf(w, "data: %s\n\n", e)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

// backend serves a conversation store with one scripted stream.
func backend(t *testing.T, stream []string) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var sent []string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/conversations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			io.WriteString(w, emptyConversation)
		default:
			io.WriteString(w, `[{"id":"c1","created_at":"2025-11-20T10:30:00.123456","title":"First","message_count":2},`+
				`{"id":"c2","created_at":"2025-11-21T08:00:00Z","title":"Second","message_count":0}]`)
		}
	})
	mux.HandleFunc("/api/conversations/c1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, emptyConversation)
	})
	mux.HandleFunc("/api/conversations/c1/message/stream", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		sent = append(sent, string(body))
		mu.Unlock()
		writeSSE(w, stream)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &sent
}

// =============================================================================
// CLIENT
// =============================================================================

func TestClient_ListConversations(t *testing.T) {
	srv, _ := backend(t, nil)
	c := NewClient(srv.URL + "/")

	list, err := c.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "c1", list[0].ID)
	assert.Equal(t, 2, list[0].MessageCount)
	assert.Equal(t, time.Date(2025, 11, 20, 10, 30, 0, 123456000, time.UTC), list[0].CreatedAt)
	assert.Equal(t, "Second", list[1].Title)
}

func TestClient_GetAndCreate(t *testing.T) {
	srv, _ := backend(t, nil)
	c := NewClient(srv.URL)

	conv, err := c.GetConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "New Conversation", conv.Title)
	assert.NotNil(t, conv.Messages)
	assert.Empty(t, conv.Messages)

	created, err := c.CreateConversation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c1", created.ID)
}

func TestClient_NotFound(t *testing.T) {
	srv, _ := backend(t, nil)
	c := NewClient(srv.URL, WithRetries(0))

	_, err := c.GetConversation(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClient_SendMessageStream(t *testing.T) {
	srv, sent := backend(t, fullStream)
	c := NewClient(srv.URL)

	var types []EventType
	err := c.SendMessageStream(context.Background(), "c1", "What is the capital?", func(ev Event) error {
		types = append(types, ev.Type)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []EventType{
		EventStage1Start, EventStage1Complete,
		EventStage2Start, EventStage2Complete,
		EventStage3Start, EventStage3Complete,
		EventTitleComplete, EventComplete,
	}, types)
	require.Len(t, *sent, 1)
	assert.JSONEq(t, `{"content":"What is the capital?"}`, (*sent)[0])
}

func TestClient_SendMessageStreamErrorEvent(t *testing.T) {
	srv, _ := backend(t, []string{`{"type":"stage1_start"}`, `{"type":"error","message":"model timeout"}`})
	c := NewClient(srv.URL)

	var seen int
	err := c.SendMessageStream(context.Background(), "c1", "q", func(Event) error {
		seen++
		return nil
	})
	assert.ErrorIs(t, err, ErrStreamFailed)
	assert.Contains(t, err.Error(), "model timeout")
	assert.Equal(t, 2, seen)
}

func TestClient_SendMessageStreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).SendMessageStream(context.Background(), "c1", "q", func(Event) error { return nil })
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "boom")
}

// =============================================================================
// SSE
// =============================================================================

func TestSSEReader(t *testing.T) {
	input := ": keepalive\n" +
		"event: message\n" +
		"data: {\"type\":\"stage1_start\"}\r\n\r\n" +
		"data: {\"type\":\n" +
		"data: \"complete\"}\n\n" +
		"data: {\"type\":\"error\",\"message\":\"eof without blank line\"}"

	r := NewSSEReader(strings.NewReader(input))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventStage1Start, ev.Type)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventComplete, ev.Type, "multi-line data is joined")

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "eof without blank line", ev.Message)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSEReader_FinalLineWithoutNewline(t *testing.T) {
	r := NewSSEReader(strings.NewReader("data: {\"type\":\"stage3_start\"}\n\ndata: {\"type\":\"complete\"}"))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventStage3Start, ev.Type)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventComplete, ev.Type)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)

	// A trailing comment is not an event
	_, err = NewSSEReader(strings.NewReader(": bye")).Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSEReader_Malformed(t *testing.T) {
	_, err := NewSSEReader(strings.NewReader("data: {nope\n\n")).Next()
	assert.ErrorIs(t, err, ErrBadEvent)
}

// =============================================================================
// TRACKER
// =============================================================================

func applyAll(t *testing.T, tr *Tracker, raw []string) bool {
	t.Helper()
	var done bool
	for _, line := range raw {
		ev, err := NewSSEReader(strings.NewReader("data: " + line + "\n\n")).Next()
		require.NoError(t, err)
		d, err := tr.Apply(ev)
		require.NoError(t, err, line)
		done = done || d
	}
	return done
}

func TestTracker_FullProtocol(t *testing.T) {
	tr := NewTracker(&model.Conversation{ID: "c1"})
	require.NoError(t, tr.Begin("What is the capital?"))
	assert.ErrorIs(t, tr.Begin("again"), ErrBusy)

	assert.True(t, applyAll(t, tr, fullStream))
	assert.False(t, tr.Pending())

	conv := tr.Snapshot()
	assert.Equal(t, "French capital", conv.Title)
	require.Len(t, conv.Messages, 2)

	msg := conv.LastAssistant()
	require.NotNil(t, msg)
	assert.Len(t, msg.Stage1, 2)
	assert.Equal(t, []string{"Response B", "Response A"}, msg.Stage2[0].ParsedRanking)
	assert.Equal(t, "localmodel", msg.Metadata.LabelToModel["Response B"])
	assert.Equal(t, 1.0, msg.Metadata.AggregateRankings[0].AverageRank)
	assert.Equal(t, "Paris is the capital.", msg.Stage3.Response)
	assert.False(t, msg.Loading.Any())
}

func TestTracker_LoadingThenData(t *testing.T) {
	tr := NewTracker(nil)
	require.NoError(t, tr.Begin("q"))

	applyAll(t, tr, fullStream[:1])
	assert.True(t, tr.Snapshot().LastAssistant().Loading.Stage1)

	applyAll(t, tr, fullStream[1:2])
	msg := tr.Snapshot().LastAssistant()
	assert.False(t, msg.Loading.Stage1)
	assert.Len(t, msg.Stage1, 2)
}

func TestTracker_OutOfOrderStage(t *testing.T) {
	tr := NewTracker(nil)
	require.NoError(t, tr.Begin("q"))

	ev, err := NewSSEReader(strings.NewReader("data: " + fullStream[3] + "\n\n")).Next()
	require.NoError(t, err)
	_, err = tr.Apply(ev)
	assert.ErrorIs(t, err, model.ErrStageOrder)
}

func TestTracker_Rollback(t *testing.T) {
	tr := NewTracker(&model.Conversation{ID: "c1", Messages: []model.Message{&model.UserMessage{Content: "earlier"}}})
	require.NoError(t, tr.Begin("q"))
	applyAll(t, tr, fullStream[:2])

	tr.Rollback()
	conv := tr.Snapshot()
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "earlier", conv.Messages[0].(*model.UserMessage).Content)

	_, err := tr.Apply(Event{Type: EventStage1Start})
	assert.ErrorIs(t, err, ErrNoDeliberation)
}

func TestTracker_SnapshotIsolation(t *testing.T) {
	tr := NewTracker(nil)
	require.NoError(t, tr.Begin("q"))
	before := tr.Snapshot()

	applyAll(t, tr, fullStream[:2])
	assert.Nil(t, before.LastAssistant().Stage1, "earlier snapshots never change")
}

func TestTracker_UnknownEventIgnored(t *testing.T) {
	tr := NewTracker(nil)
	require.NoError(t, tr.Begin("q"))
	done, err := tr.Apply(Event{Type: "stage4_start"})
	assert.NoError(t, err)
	assert.False(t, done)
}

// =============================================================================
// SESSION
// =============================================================================

func TestSession_Send(t *testing.T) {
	srv, _ := backend(t, fullStream)
	s := NewSession(NewClient(srv.URL), nil, zerolog.Nop())

	var snapshots []*model.Conversation
	err := s.Send(context.Background(), "  What is the capital?  ", func(c *model.Conversation) {
		snapshots = append(snapshots, c)
	})
	require.NoError(t, err)

	require.NotEmpty(t, snapshots)
	first := snapshots[0]
	assert.Equal(t, "c1", first.ID, "conversation created on first send")
	require.Len(t, first.Messages, 2)
	assert.Equal(t, "  What is the capital?  ", first.Messages[0].(*model.UserMessage).Content)

	sawLoading := false
	for _, snap := range snapshots {
		if snap.LastAssistant().Loading.Stage2 {
			sawLoading = true
		}
	}
	assert.True(t, sawLoading)

	final := s.Snapshot()
	assert.Equal(t, "French capital", final.Title)
	assert.NotNil(t, final.LastAssistant().Stage3)
}

func TestSession_SendFailureRollsBack(t *testing.T) {
	srv, _ := backend(t, []string{fullStream[0], fullStream[1], `{"type":"error","message":"chairman unavailable"}`})
	s := NewSession(NewClient(srv.URL), &model.Conversation{ID: "c1"}, zerolog.Nop())

	err := s.Send(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrStreamFailed)
	assert.True(t, s.Snapshot().IsEmpty())

	// The session is usable again
	srvOK, _ := backend(t, fullStream)
	s.client = NewClient(srvOK.URL)
	assert.NoError(t, s.Send(context.Background(), "q", nil))
}

func TestSession_StreamWithoutComplete(t *testing.T) {
	srv, _ := backend(t, fullStream[:2])
	s := NewSession(NewClient(srv.URL), &model.Conversation{ID: "c1"}, zerolog.Nop())

	require.NoError(t, s.Send(context.Background(), "q", nil))
	msg := s.Snapshot().LastAssistant()
	assert.Len(t, msg.Stage1, 2)
	assert.False(t, msg.Loading.Any())
}

func TestSession_Cancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, fullStream[:1])
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s := NewSession(NewClient(srv.URL), &model.Conversation{ID: "c1"}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{}, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- s.Send(ctx, "q", func(c *model.Conversation) {
			if c.LastAssistant() != nil && c.LastAssistant().Loading.Stage1 {
				select {
				case started <- struct{}{}:
				default:
				}
			}
		})
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never started")
	}
	cancel()

	select {
	case err := <-errc:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Send did not return after cancel")
	}
	assert.True(t, s.Snapshot().IsEmpty())
}

func TestSession_NewConversation(t *testing.T) {
	srv, _ := backend(t, nil)
	s := NewSession(NewClient(srv.URL), &model.Conversation{ID: "old"}, zerolog.Nop())

	conv, err := s.NewConversation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c1", conv.ID)
	assert.Equal(t, "c1", s.Snapshot().ID)
}
