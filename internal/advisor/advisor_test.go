package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/theirongolddev/finplan/internal/config"
	"github.com/theirongolddev/finplan/internal/model"
)

func testSummary() model.Summary {
	return model.Summary{
		GrossIncome:     5000,
		TaxRate:         0.2,
		AfterTaxIncome:  4000,
		TotalExpenses:   2400,
		TotalInvestment: 800,
		NetCashFlow:     800,
		HorizonMonths:   12,
		SavingsTarget:   10000,
		FinalNetWorth:   19938.456,
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(testSummary())

	for _, want := range []string{
		"You are a budgeting coach.",
		"Gross income: $5000.00",
		"Tax rate: 20%",
		"After-tax income: $4000.00",
		"Expenses: $2400.00",
		"Investments: $800.00",
		"Net cash flow: $800.00/mo",
		"Savings target after 12 months: $10000.00",
		"Projected net worth: $19938.46",
		"(1) expense cuts, (2) investment allocation, (3) reaching savings target.",
	} {
		assert.Contains(t, p, want)
	}
}

type chatCapture struct {
	auth string
	req  chatRequest
}

func chatServer(t *testing.T, status int, body string, got *chatCapture) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if got != nil {
			got.auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&got.req)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_WireFormat(t *testing.T) {
	var got chatCapture
	srv := chatServer(t, 200, `{"choices":[{"message":{"role":"assistant","content":"  - cut dining out\n"}}]}`, &got)

	c := NewOpenAI("sk-test", WithBaseURL(srv.URL))
	out, err := Advise(context.Background(), c, testSummary())
	require.NoError(t, err)

	assert.Equal(t, "- cut dining out", out)
	assert.Equal(t, "Bearer sk-test", got.auth)
	assert.Equal(t, "gpt-4o-mini", got.req.Model)
	require.NotNil(t, got.req.Temperature)
	assert.Equal(t, 0.7, *got.req.Temperature)
	require.Len(t, got.req.Messages, 1)
	assert.Equal(t, "user", got.req.Messages[0].Role)
	assert.Contains(t, got.req.Messages[0].Content, "budgeting coach")
}

func TestOpenRouter_WireFormat(t *testing.T) {
	var got chatCapture
	srv := chatServer(t, 200, `{"choices":[{"message":{"content":"advice"}}]}`, &got)

	c := NewOpenRouter("or-key", WithBaseURL(srv.URL))
	assert.Equal(t, BackendOpenRouter, c.Name())

	out, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "advice", out)
	assert.Equal(t, "Bearer or-key", got.auth)
	assert.Equal(t, "deepseek/deepseek-r1:free", got.req.Model)
	assert.Nil(t, got.req.Temperature)
}

func TestAdvise_EmptyCompletionIsNotAnError(t *testing.T) {
	srv := chatServer(t, 200, `{"choices":[{"message":{"content":"   "}}]}`, nil)

	out, err := Advise(context.Background(), NewOpenAI("k", WithBaseURL(srv.URL)), testSummary())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAdvise_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"unauthorized", 401, `{"error":"bad key"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrUnauthorized)
		}},
		{"forbidden", 403, ``, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrUnauthorized)
		}},
		{"rate limited", 429, ``, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrRateLimited)
		}},
		{"server error", 503, `overloaded`, func(t *testing.T, err error) {
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, 503, apiErr.StatusCode)
			assert.Equal(t, "overloaded", apiErr.Message)
		}},
		{"no choices", 200, `{"choices":[]}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrMalformedResponse)
		}},
		{"not json", 200, `<html>`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrMalformedResponse)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := chatServer(t, tc.status, tc.body, nil)
			out, err := Advise(context.Background(), NewOpenRouter("k", WithBaseURL(srv.URL)), testSummary())
			require.Error(t, err)
			assert.Empty(t, out)

			var advErr *Error
			require.ErrorAs(t, err, &advErr)
			assert.Equal(t, BackendOpenRouter, advErr.Backend)
			assert.True(t, strings.HasPrefix(err.Error(), "openrouter advice unavailable: "), err.Error())
			tc.check(t, err)
		})
	}
}

func TestAdvise_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewOpenAI("k", WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond))
	_, err := Advise(context.Background(), c, testSummary())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), err.Error())
	assert.Contains(t, err.Error(), "timed out")
}

func TestChatClient_MissingKeySkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	_, err := NewOpenAI("", WithBaseURL(srv.URL)).Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, called)
}

func TestGeminiText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "- save "}, {Text: "more\n"}}},
		}},
	}
	out, err := geminiText(resp)
	require.NoError(t, err)
	assert.Equal(t, "- save more", out)

	_, err = geminiText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrMalformedResponse)

	out, err = geminiText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNew(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	cfg := config.DefaultConfig()
	cfg.OpenRouter.Model = "meta/llama"

	c, err := New(context.Background(), "OpenRouter", cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, BackendOpenRouter, c.Name())
	assert.Equal(t, "meta/llama", c.(*ChatClient).Model())

	_, err = New(context.Background(), "claude", cfg, zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = New(context.Background(), BackendGemini, cfg, zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnauthorized)
}
