// Package marketdata looks up monthly returns for market proxies and turns
// them into growth rates for the projection engine.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL         = "https://www.alphavantage.co"
	DefaultTimeout         = 20 * time.Second
	DefaultRequestsPerMin  = 5 // free tier
	maxBodySize            = 4 << 20
	monthlyAdjustedSeries  = "Monthly Adjusted Time Series"
	adjustedCloseField     = "5. adjusted close"
	monthlyAdjustedFuncArg = "TIME_SERIES_MONTHLY_ADJUSTED"
)

var (
	// ErrNoData indicates the series has too few usable observations.
	ErrNoData = errors.New("marketdata: not enough observations")
	// ErrThrottled indicates the API answered with a usage note instead of data.
	ErrThrottled = errors.New("marketdata: api usage limit reached")
	// ErrMalformedResponse indicates a body that is not the expected JSON shape.
	ErrMalformedResponse = errors.New("marketdata: malformed response")
)

// Provider returns the most recent month-over-month return for a ticker.
// ok is false when no rate is available for any reason; callers fall back to
// a default rather than treating this as an error.
type Provider interface {
	MonthlyReturn(ctx context.Context, symbol string) (float64, bool)
}

// Observation is the detail behind one monthly return.
type Observation struct {
	Symbol        string
	MonthlyReturn float64
	LatestClose   float64
	PreviousClose float64
	LatestDate    string
}

// APIError represents a non-200 response or an API-level error message.
type APIError struct {
	StatusCode int
	Message    string
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketdata: alpha vantage error for %s: %s (status: %d)", e.Symbol, e.Message, e.StatusCode)
}

// AlphaVantage fetches TIME_SERIES_MONTHLY_ADJUSTED data.
type AlphaVantage struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// ClientOption configures the client.
type ClientOption func(*AlphaVantage)

// WithBaseURL sets the base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *AlphaVantage) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *AlphaVantage) {
		c.logger = logger
	}
}

// WithTimeout bounds each lookup, including the time spent waiting on the limiter.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *AlphaVantage) {
		c.timeout = timeout
	}
}

// WithRateLimit sets the request budget per minute. Zero or less disables throttling.
func WithRateLimit(perMinute int) ClientOption {
	return func(c *AlphaVantage) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *AlphaVantage) {
		c.httpClient = hc
	}
}

// NewAlphaVantage creates a client for the given API key.
func NewAlphaVantage(apiKey string, opts ...ClientOption) *AlphaVantage {
	c := &AlphaVantage{
		baseURL:    DefaultBaseURL,
		apiKey:     strings.TrimSpace(apiKey),
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/DefaultRequestsPerMin), DefaultRequestsPerMin),
		logger:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// MonthlyReturn implements Provider. Failures are logged and reported as !ok.
func (c *AlphaVantage) MonthlyReturn(ctx context.Context, symbol string) (float64, bool) {
	obs, err := c.Latest(ctx, symbol)
	if err != nil {
		ev := c.logger.Warn()
		if errors.Is(err, ErrNoData) {
			ev = c.logger.Debug()
		}
		ev.Err(err).Str("symbol", symbol).Msg("monthly return unavailable")
		return 0, false
	}
	return obs.MonthlyReturn, true
}

// Latest fetches the monthly adjusted series for symbol and returns the
// return between its two most recent observations.
func (c *AlphaVantage) Latest(ctx context.Context, symbol string) (Observation, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Observation{}, fmt.Errorf("marketdata: empty symbol")
	}
	if c.apiKey == "" {
		return Observation{}, &APIError{Message: "no api key configured", Symbol: symbol}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return Observation{}, fmt.Errorf("marketdata: rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("function", monthlyAdjustedFuncArg)
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return Observation{}, fmt.Errorf("marketdata: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("symbol", symbol).Msg("alpha vantage request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Observation{}, fmt.Errorf("marketdata: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Observation{}, fmt.Errorf("marketdata: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Observation{}, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Symbol:     symbol,
		}
	}

	obs, err := parseMonthlyAdjusted(body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.StatusCode = resp.StatusCode
			apiErr.Symbol = symbol
		}
		return Observation{}, err
	}
	obs.Symbol = symbol
	return obs, nil
}

// monthlyAdjustedResponse covers both the data shape and the error shapes
// the API returns with status 200.
type monthlyAdjustedResponse struct {
	Series       map[string]map[string]string `json:"Monthly Adjusted Time Series"`
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	ErrorMessage string                       `json:"Error Message"`
}

func parseMonthlyAdjusted(body []byte) (Observation, error) {
	var raw monthlyAdjustedResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	switch {
	case raw.ErrorMessage != "":
		return Observation{}, &APIError{Message: raw.ErrorMessage}
	case raw.Note != "":
		return Observation{}, fmt.Errorf("%w: %s", ErrThrottled, raw.Note)
	case raw.Information != "":
		return Observation{}, fmt.Errorf("%w: %s", ErrThrottled, raw.Information)
	}

	return monthlyReturn(raw.Series)
}

// monthlyReturn computes (latest - previous) / previous over the two most
// recent dates of series.
func monthlyReturn(series map[string]map[string]string) (Observation, error) {
	if len(series) < 2 {
		return Observation{}, fmt.Errorf("%w: %d in %q", ErrNoData, len(series), monthlyAdjustedSeries)
	}

	dates := make([]string, 0, len(series))
	for d := range series {
		dates = append(dates, d)
	}
	// ISO dates sort lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	latest, err := closeOn(series, dates[0])
	if err != nil {
		return Observation{}, err
	}
	previous, err := closeOn(series, dates[1])
	if err != nil {
		return Observation{}, err
	}
	if previous == 0 {
		return Observation{}, fmt.Errorf("%w: previous close on %s is zero", ErrNoData, dates[1])
	}

	return Observation{
		MonthlyReturn: (latest - previous) / previous,
		LatestClose:   latest,
		PreviousClose: previous,
		LatestDate:    dates[0],
	}, nil
}

func closeOn(series map[string]map[string]string, date string) (float64, error) {
	s, ok := series[date][adjustedCloseField]
	if !ok {
		return 0, fmt.Errorf("%w: %s has no %q", ErrMalformedResponse, date, adjustedCloseField)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: close on %s: %v", ErrMalformedResponse, date, err)
	}
	return v, nil
}
