package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Backend names accepted by New.
const (
	BackendOpenAI     = "openai"
	BackendOpenRouter = "openrouter"
	BackendGemini     = "gemini"
)

// Backends lists the selectable backends in display order.
var Backends = []string{BackendOpenAI, BackendOpenRouter, BackendGemini}

const (
	openAIURL         = "https://api.openai.com/v1"
	openAIModel       = "gpt-4o-mini"
	openRouterURL     = "https://openrouter.ai/api/v1"
	openRouterModel   = "deepseek/deepseek-r1:free"
	openAITemperature = 0.7
)

// ChatClient talks to an OpenAI-compatible /chat/completions endpoint.
type ChatClient struct {
	name   string
	apiKey string
	s      settings
}

// NewOpenAI returns a client for OpenAI chat completions.
func NewOpenAI(apiKey string, opts ...Option) *ChatClient {
	opts = append([]Option{WithTemperature(openAITemperature)}, opts...)
	return &ChatClient{
		name:   BackendOpenAI,
		apiKey: strings.TrimSpace(apiKey),
		s:      newSettings(openAIURL, openAIModel, opts),
	}
}

// NewOpenRouter returns a client for OpenRouter chat completions.
func NewOpenRouter(apiKey string, opts ...Option) *ChatClient {
	return &ChatClient{
		name:   BackendOpenRouter,
		apiKey: strings.TrimSpace(apiKey),
		s:      newSettings(openRouterURL, openRouterModel, opts),
	}
}

// Name implements Completer.
func (c *ChatClient) Name() string { return c.name }

// Model returns the configured model name.
func (c *ChatClient) Model() string { return c.s.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements Completer. An empty completion is returned as "" with
// a nil error.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(ctx, c.s.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model:       c.s.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("advisor: encoding request: %w", err)
	}

	endpoint := strings.TrimRight(c.s.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("advisor: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	c.s.logger.Debug().Str("backend", c.name).Str("model", c.s.model).Msg("completion request")

	resp, err := c.s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisor: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("advisor: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
