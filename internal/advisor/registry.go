package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/finplan/internal/config"
)

// New builds the named backend from configuration. Keys come from the
// environment first, then the config file.
func New(ctx context.Context, backend string, cfg config.Config, logger zerolog.Logger) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendOpenAI:
		return NewOpenAI(config.GetOpenAIKey(cfg),
			WithBaseURL(cfg.OpenAI.BaseURL),
			WithModel(cfg.OpenAI.Model),
			WithTemperature(cfg.OpenAI.Temperature),
			WithLogger(logger),
		), nil
	case BackendOpenRouter:
		return NewOpenRouter(config.GetOpenRouterKey(cfg),
			WithBaseURL(cfg.OpenRouter.BaseURL),
			WithModel(cfg.OpenRouter.Model),
			WithLogger(logger),
		), nil
	case BackendGemini:
		g, err := NewGemini(ctx, config.GetGeminiKey(cfg),
			WithModel(cfg.Gemini.Model),
			WithLogger(logger),
		)
		if err != nil {
			return nil, &Error{Backend: BackendGemini, Err: err}
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownBackend, backend, strings.Join(Backends, ", "))
	}
}
