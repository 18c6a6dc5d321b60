package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const geminiModel = "gemini-2.0-flash"

// Gemini generates advice with the Google Gemini API.
type Gemini struct {
	client *genai.Client
	s      settings
}

// NewGemini creates a Gemini backend. The API key is required.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrUnauthorized
	}

	s := newSettings("", geminiModel, opts)

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
	}
	if s.baseURL != "" {
		cc.HTTPOptions.BaseURL = s.baseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("advisor: creating gemini client: %w", err)
	}

	return &Gemini{client: client, s: s}, nil
}

// Name implements Completer.
func (g *Gemini) Name() string { return BackendGemini }

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.s.model }

// Complete implements Completer.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.s.timeout)
	defer cancel()

	var config *genai.GenerateContentConfig
	if g.s.temperature != nil {
		t := float32(*g.s.temperature)
		config = &genai.GenerateContentConfig{Temperature: &t}
	}

	g.s.logger.Debug().Str("backend", BackendGemini).Str("model", g.s.model).Msg("completion request")

	result, err := g.client.Models.GenerateContent(ctx, g.s.model, genai.Text(prompt), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", statusError(apiErr.Code, apiErr.Message)
		}
		return "", fmt.Errorf("advisor: gemini request failed: %w", err)
	}

	return geminiText(result)
}

// geminiText concatenates the text parts of the first candidate.
func geminiText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}
	content := result.Candidates[0].Content
	if content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
