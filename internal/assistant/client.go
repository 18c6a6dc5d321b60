// Package assistant provides a client for the Botpress chat API.
//
// Session state is explicit: every operation takes the *Session it acts on
// and there is no package-level conversation.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://chat.botpress.cloud/v1/chat"
	DefaultTimeout = 20 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

var (
	// ErrNoSession indicates Send or LatestReply was called without an active session.
	ErrNoSession = errors.New("assistant: no active conversation")
	// ErrEmptyMessage indicates a blank message.
	ErrEmptyMessage = errors.New("assistant: message is empty")
	// ErrUnauthorized indicates a rejected token or bot id.
	ErrUnauthorized = errors.New("assistant: unauthorized (token or bot id invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("assistant: rate limited")
	// ErrNotConfigured indicates a missing token or bot id.
	ErrNotConfigured = errors.New("assistant: token and bot id are required")
)

// Session is one conversation with the assistant. The zero value and nil are
// both "no session".
type Session struct {
	ID             string    // local id, for logs
	ConversationID string    // remote conversation id
	StartedAt      time.Time
}

// Active reports whether s refers to a started conversation.
func (s *Session) Active() bool {
	return s != nil && s.ConversationID != ""
}

// Client talks to one Botpress bot.
type Client struct {
	baseURL    string
	token      string
	botID      string
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client. Returns ErrNotConfigured if token or botID is empty.
func NewClient(token, botID string, opts ...ClientOption) (*Client, error) {
	token = strings.TrimSpace(token)
	botID = strings.TrimSpace(botID)
	if token == "" || botID == "" {
		return nil, ErrNotConfigured
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		botID:      botID,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start returns s unchanged if it is already active. Otherwise it creates a
// conversation and returns a new active session.
func (c *Client) Start(ctx context.Context, s *Session) (*Session, error) {
	if s.Active() {
		return s, nil
	}

	body, err := c.do(ctx, http.MethodPost, "/conversations", struct{}{})
	if err != nil {
		return nil, fmt.Errorf("assistant: starting conversation: %w", err)
	}

	var resp struct {
		ID           string `json:"id"`
		Conversation struct {
			ID string `json:"id"`
		} `json:"conversation"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("assistant: parsing conversation: %w", err)
	}

	convID := resp.ID
	if convID == "" {
		convID = resp.Conversation.ID
	}
	if convID == "" {
		return nil, errors.New("assistant: conversation id missing from response")
	}

	started := &Session{
		ID:             uuid.NewString(),
		ConversationID: convID,
		StartedAt:      time.Now(),
	}
	c.logger.Debug().Str("session", started.ID).Str("conversation", convID).Msg("conversation started")
	return started, nil
}

type messagePayload struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type    string         `json:"type"`
	Role    string         `json:"role"`
	Payload messagePayload `json:"payload"`
}

// Send posts text as a user message. Nothing is sent for an inactive session
// or a blank message.
func (c *Client) Send(ctx context.Context, s *Session, text string) error {
	if !s.Active() {
		return ErrNoSession
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	msg := outgoingMessage{Type: "text", Role: "user", Payload: messagePayload{Text: text}}
	if _, err := c.do(ctx, http.MethodPost, c.messagesPath(s), msg); err != nil {
		return fmt.Errorf("assistant: sending message: %w", err)
	}
	return nil
}

type incomingMessage struct {
	Type    string         `json:"type"`
	Role    string         `json:"role"`
	Payload messagePayload `json:"payload"`
}

// LatestReply returns the text of the last assistant text message.
// ok is false when the assistant has not replied yet.
func (c *Client) LatestReply(ctx context.Context, s *Session) (reply string, ok bool, err error) {
	if !s.Active() {
		return "", false, ErrNoSession
	}

	body, err := c.do(ctx, http.MethodGet, c.messagesPath(s), nil)
	if err != nil {
		return "", false, fmt.Errorf("assistant: fetching messages: %w", err)
	}

	var resp struct {
		Messages []incomingMessage `json:"messages"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false, fmt.Errorf("assistant: parsing messages: %w", err)
	}

	return latestAssistantText(resp.Messages)
}

func latestAssistantText(msgs []incomingMessage) (string, bool, error) {
	var last string
	for _, m := range msgs {
		if m.Role == "assistant" && m.Type == "text" {
			last = m.Payload.Text
		}
	}
	if strings.TrimSpace(last) == "" {
		return "", false, nil
	}
	return last, true, nil
}

func (c *Client) messagesPath(s *Session) string {
	return "/conversations/" + s.ConversationID + "/messages"
}

// do performs an authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Bot-Id", c.botID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
