package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"guardian/internal/ratelimit"
)

const (
	defaultBaseURL        = "https://generativelanguage.googleapis.com/v1/models/gemini-1.5-pro:generateContent"
	defaultProbeTimeout   = 10 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultTemperature    = 0.7
	defaultMaxTokens      = 1024
)

// Safety thresholds applied to every content query.
const blockMediumAndAbove = "BLOCK_MEDIUM_AND_ABOVE"

var safetyCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

var (
	// ErrMissingCredential is returned before any network activity when no
	// API key is configured.
	ErrMissingCredential = errors.New("google api key not set")

	// ErrRateLimited indicates the remote API rejected the request with 429.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNoCandidates indicates a 200 response that carried no generated
	// text, typically because a safety filter suppressed the answer.
	ErrNoCandidates = errors.New("no candidates returned")
)

// StatusError reports a non-success HTTP status from the API together with
// the server-provided message, when one was present in the body.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("gemini request: http %d", e.StatusCode)
	}
	return fmt.Sprintf("gemini request: http %d: %s", e.StatusCode, e.Message)
}

// Config captures the runtime settings required to talk to Gemini.
type Config struct {
	APIKey                string
	BaseURL               string
	Temperature           float64
	MaxOutputTokens       int
	ProbeTimeoutSeconds   int
	RequestTimeoutSeconds int
}

// Admitter gates outbound requests. Implemented by ratelimit.Limiter.
type Admitter interface {
	Admit() (time.Duration, error)
	Usage() ratelimit.Snapshot
}

// Client issues generateContent requests under rate-limit admission.
type Client struct {
	cfg        Config
	limiter    Admitter
	logger     *slog.Logger
	httpClient *http.Client
	sleeper    func(context.Context, time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how admission waits are performed (useful for tests).
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleeper = sleeper
		}
	}
}

// NewClient constructs a Gemini client. The limiter is consulted before every
// send; pass nil to disable admission control entirely.
func NewClient(cfg Config, limiter Admitter, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultMaxTokens
	}
	client := &Client{
		cfg:        cfg,
		limiter:    limiter,
		logger:     logger,
		httpClient: &http.Client{Timeout: cfg.requestTimeout()},
		sleeper:    sleepContext,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c Config) requestTimeout() time.Duration {
	if c.RequestTimeoutSeconds > 0 {
		return time.Duration(c.RequestTimeoutSeconds) * time.Second
	}
	return defaultRequestTimeout
}

func (c Config) probeTimeout() time.Duration {
	if c.ProbeTimeoutSeconds > 0 {
		return time.Duration(c.ProbeTimeoutSeconds) * time.Second
	}
	return defaultProbeTimeout
}

type generateContentRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings,omitempty"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []requestPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a transcript plus instruction to the model and returns the
// generated answer text.
func (c *Client) Complete(ctx context.Context, transcript, instruction string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrMissingCredential
	}
	if err := c.admit(ctx); err != nil {
		return "", err
	}

	payload := generateContentRequest{
		Contents: []requestContent{{Parts: []requestPart{{Text: BuildPrompt(transcript, instruction)}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
		SafetySettings: defaultSafetySettings(),
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.requestTimeout())
	defer cancel()

	resp, err := c.send(ctx, payload)
	if err != nil {
		return "", err
	}
	answer := extractAnswer(resp)
	if answer == "" {
		return "", ErrNoCandidates
	}
	return answer, nil
}

// Probe verifies reachability and credential validity with a minimal
// single-token request. Probes count against the rate limits.
func (c *Client) Probe(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return ErrMissingCredential
	}
	if err := c.admit(ctx); err != nil {
		return err
	}

	payload := generateContentRequest{
		Contents: []requestContent{{Parts: []requestPart{{Text: probePrompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: 1,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.probeTimeout())
	defer cancel()

	_, err := c.send(ctx, payload)
	return err
}

// admit consults the limiter and sleeps out any backpressure wait.
func (c *Client) admit(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	wait, err := c.limiter.Admit()
	if err != nil {
		return err
	}
	usage := c.limiter.Usage()
	c.logger.Debug("model request admitted",
		slog.Int("requests_today", usage.Today),
		slog.Int("daily_limit", usage.DailyLimit),
		slog.Int("last_minute", usage.LastMinute),
		slog.Int("per_minute_limit", usage.PerMinuteLimit),
		slog.Duration("wait", wait))
	if wait > 0 {
		c.logger.Info("rate limit backpressure", slog.Duration("wait", wait))
		if err := c.sleeper(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, payload generateContentRequest) (generateContentResponse, error) {
	var decoded generateContentResponse

	endpoint, err := c.endpoint()
	if err != nil {
		return decoded, fmt.Errorf("gemini request: build url: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return decoded, fmt.Errorf("gemini request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return decoded, fmt.Errorf("gemini request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decoded, fmt.Errorf("gemini request: http error (timeout=%s): %w", c.cfg.requestTimeout(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decoded, fmt.Errorf("gemini request: read body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return decoded, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return decoded, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(body),
		}
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return decoded, fmt.Errorf("gemini request: decode response: %w", err)
	}
	return decoded, nil
}

// endpoint appends the API key as a query parameter, which is how the v1
// generateContent endpoint authenticates.
func (c *Client) endpoint() (string, error) {
	parsed, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("key", c.cfg.APIKey)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func defaultSafetySettings() []safetySetting {
	settings := make([]safetySetting, 0, len(safetyCategories))
	for _, category := range safetyCategories {
		settings = append(settings, safetySetting{Category: category, Threshold: blockMediumAndAbove})
	}
	return settings
}

func extractAnswer(resp generateContentResponse) string {
	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	return ""
}

func extractErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Error.Message)
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
