// Package advisor asks a large-language-model backend for budgeting advice
// built from a projection summary.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds one completion request.
	DefaultTimeout = 30 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

var (
	// ErrUnauthorized indicates a missing, expired or invalid API key.
	ErrUnauthorized = errors.New("advisor: unauthorized (api key missing or invalid)")
	// ErrRateLimited indicates the backend rate limit was hit.
	ErrRateLimited = errors.New("advisor: rate limited")
	// ErrMalformedResponse indicates a response without the expected choices.
	ErrMalformedResponse = errors.New("advisor: malformed response")
	// ErrUnknownBackend is returned by New for an unrecognized backend name.
	ErrUnknownBackend = errors.New("advisor: unknown backend")
)

// Completer turns a prompt into a completion. Implementations are selected
// explicitly by the caller.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// APIError is a non-success HTTP status other than 401/403/429.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("advisor: api error: %s (status: %d)", e.Message, e.StatusCode)
}

// Error reports which backend failed. Advise wraps every failure in one.
type Error struct {
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s advice unavailable: %s", e.Backend, describe(e.Err))
}

func (e *Error) Unwrap() error { return e.Err }

// describe renders err for a user rather than a log.
func describe(err error) string {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "the API key was rejected"
	case errors.Is(err, ErrRateLimited):
		return "the service is rate limiting requests, try again shortly"
	case errors.Is(err, context.DeadlineExceeded):
		return "the request timed out"
	case errors.Is(err, ErrMalformedResponse):
		return "the service returned an unexpected response"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("the service answered with status %d", apiErr.StatusCode)
	default:
		return err.Error()
	}
}

// statusError maps an HTTP status to the package's error values.
func statusError(status int, body string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return &APIError{StatusCode: status, Message: body}
}

// settings is shared by every backend constructor.
type settings struct {
	baseURL     string
	model       string
	temperature *float64
	timeout     time.Duration
	httpClient  *http.Client
	logger      zerolog.Logger
}

// Option configures a backend.
type Option func(*settings)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(s *settings) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithModel overrides the model name.
func WithModel(m string) Option {
	return func(s *settings) {
		if m != "" {
			s.model = m
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(s *settings) {
		s.temperature = &t
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) {
		s.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

func newSettings(baseURL, model string, opts []Option) settings {
	s := settings{
		baseURL:    baseURL,
		model:      model,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
