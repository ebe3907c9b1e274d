package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"guardian/internal/ratelimit"
)

func answerPayload(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
}

func newTestClient(serverURL string, limiter Admitter, opts ...Option) *Client {
	return NewClient(Config{APIKey: "test-key", BaseURL: serverURL}, limiter, nil, opts...)
}

func TestClientComplete(t *testing.T) {
	var captured generateContentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Fatalf("unexpected key query param %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if err := json.NewEncoder(w).Encode(answerPayload("It is a chess tutorial.")); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	answer, err := client.Complete(context.Background(), "[10:00:00] Chess - Board:\nmove list\n", "what am I looking at?")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if answer != "It is a chess tutorial." {
		t.Fatalf("unexpected answer %q", answer)
	}

	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 1 {
		t.Fatalf("unexpected request shape: %+v", captured)
	}
	prompt := captured.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "Here is the text captured from my screen:") {
		t.Fatalf("prompt missing transcript preamble: %q", prompt)
	}
	if !strings.Contains(prompt, "Based on this content, what am I looking at?") {
		t.Fatalf("prompt missing instruction: %q", prompt)
	}
	if len(captured.SafetySettings) != 4 {
		t.Fatalf("expected 4 safety settings, got %d", len(captured.SafetySettings))
	}
	for _, setting := range captured.SafetySettings {
		if setting.Threshold != blockMediumAndAbove {
			t.Fatalf("unexpected threshold %q", setting.Threshold)
		}
	}
}

func TestClientCompleteNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}}); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	if _, err := client.Complete(context.Background(), "transcript", "query"); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestClientCompleteRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	if _, err := client.Complete(context.Background(), "transcript", "query"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestClientCompleteStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid request payload"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	_, err := client.Complete(context.Background(), "transcript", "query")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest || statusErr.Message != "invalid request payload" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestClientCompleteMissingKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should reach the server without a key")
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil, nil)
	if _, err := client.Complete(context.Background(), "transcript", "query"); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestClientCompleteDailyQuota(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if err := json.NewEncoder(w).Encode(answerPayload("ok")); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	limiter := ratelimit.New(30, 1)
	client := newTestClient(server.URL, limiter)

	if _, err := client.Complete(context.Background(), "transcript", "query"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := client.Complete(context.Background(), "transcript", "query"); !errors.Is(err, ratelimit.ErrDailyQuotaExceeded) {
		t.Fatalf("expected ErrDailyQuotaExceeded, got %v", err)
	}
	if requests != 1 {
		t.Fatalf("quota-rejected request must not hit the network, saw %d requests", requests)
	}
}

func TestClientCompleteHonorsAdmissionWait(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(answerPayload("ok")); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	limiter := ratelimit.New(1, 100, ratelimit.WithClock(func() time.Time { return base }))

	var slept time.Duration
	client := newTestClient(server.URL, limiter, WithSleeper(func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}))

	if _, err := client.Complete(context.Background(), "transcript", "query"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if slept != 0 {
		t.Fatalf("first request should not wait, slept %s", slept)
	}
	if _, err := client.Complete(context.Background(), "transcript", "query"); err != nil {
		t.Fatalf("second request: %v", err)
	}
	if slept != 60*time.Second {
		t.Fatalf("expected 60s admission wait, slept %s", slept)
	}
}

func TestClientProbe(t *testing.T) {
	var captured generateContentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if err := json.NewEncoder(w).Encode(answerPayload("yes")); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	limiter := ratelimit.New(30, 500)
	client := newTestClient(server.URL, limiter)
	if err := client.Probe(context.Background()); err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if captured.GenerationConfig.MaxOutputTokens != 1 {
		t.Fatalf("probe must request a single token, got %d", captured.GenerationConfig.MaxOutputTokens)
	}
	if len(captured.SafetySettings) != 0 {
		t.Fatalf("probe should not send safety settings, got %d", len(captured.SafetySettings))
	}
	if usage := limiter.Usage(); usage.Today != 1 {
		t.Fatalf("probe must count against the quota, usage %+v", usage)
	}
}

func TestClientProbeMissingKey(t *testing.T) {
	client := NewClient(Config{}, nil, nil)
	if err := client.Probe(context.Background()); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}
