// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package council

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/jeranaias/council-tui/internal/logging"
	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// CLIENT
// =============================================================================

const (
	// DefaultBaseURL is where the backend listens out of the box.
	DefaultBaseURL = "http://localhost:8001"

	// DefaultTimeout bounds unary requests. Streams are bounded only by ctx.
	DefaultTimeout = 30 * time.Second

	// DefaultRetries applies to idempotent requests only.
	DefaultRetries = 2

	conversationsPath = "/api/conversations"
	conversationPath  = "/api/conversations/{id}"
	streamPath        = "/api/conversations/{id}/message/stream"
)

// Client is a council backend client.
type Client struct {
	baseURL string
	timeout time.Duration
	log     zerolog.Logger

	// http serves unary calls with retries; stream never retries
	http   *resty.Client
	stream *resty.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the unary request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets the retry count for idempotent requests.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.http.SetRetryCount(n)
	}
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = logging.Component(log, "council")
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: baseURL,
		timeout: DefaultTimeout,
		log:     zerolog.Nop(),
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetRetryCount(DefaultRetries).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second),
		stream: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "text/event-stream"),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListConversations returns metadata for every stored conversation.
func (c *Client) ListConversations(ctx context.Context) ([]model.ConversationMeta, error) {
	var out []model.ConversationMeta
	if err := c.getJSON(ctx, conversationsPath, nil, &out); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

// GetConversation fetches one conversation with all its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.getJSON(ctx, conversationPath, map[string]string{"id": id}, &out); err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	return &out, nil
}

// CreateConversation creates an empty conversation.
func (c *Client) CreateConversation(ctx context.Context) (*model.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{}).
		Post(conversationsPath)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	c.logResponse("POST", conversationsPath, resp.StatusCode(), time.Since(start))

	if resp.IsError() {
		return nil, fmt.Errorf("create conversation: %w", newAPIError(resp.StatusCode(), resp.Body()))
	}

	var out model.Conversation
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("create conversation: decode: %w", err)
	}
	return &out, nil
}

// SendMessageStream posts content to a conversation and calls fn for every
// event the backend streams back. A non-nil error from fn stops the stream
// and is returned. An error event is returned wrapped in ErrStreamFailed
// after fn has seen it.
func (c *Client) SendMessageStream(ctx context.Context, id, content string, fn func(Event) error) error {
	resp, err := c.stream.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Content-Type", "application/json").
		SetPathParam("id", id).
		SetBody(map[string]string{"content": content}).
		Post(streamPath)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
		return fmt.Errorf("send message: %w", newAPIError(resp.StatusCode(), data))
	}

	reader := NewSSEReader(body)
	for {
		ev, err := reader.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}

		c.log.Debug().Str("event", string(ev.Type)).Int("bytes", len(ev.Data)).Msg("stream event")

		if err := fn(ev); err != nil {
			return err
		}
		if ev.Type == EventError {
			return fmt.Errorf("%w: %s", ErrStreamFailed, ev.Message)
		}
	}
}

func (c *Client) getJSON(ctx context.Context, path string, params map[string]string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(params).
		Get(path)
	if err != nil {
		return err
	}
	c.logResponse("GET", path, resp.StatusCode(), time.Since(start))

	if resp.IsError() {
		return newAPIError(resp.StatusCode(), resp.Body())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (c *Client) logResponse(method, path string, status int, d time.Duration) {
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration", d).
		Msg("council request")
}
