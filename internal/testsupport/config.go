package testsupport

import (
	"path/filepath"
	"testing"

	"guardian/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Capture.DBPath = filepath.Join(base, "capture.db")
	cfg.Gemini.APIKey = "test-key"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithGeminiKey sets the Gemini API key on the test config.
func WithGeminiKey(key string) ConfigOption {
	return func(c *config.Config) {
		c.Gemini.APIKey = key
	}
}

// WithGeminiBaseURL points the Gemini client at a test server.
func WithGeminiBaseURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Gemini.BaseURL = url
	}
}

// WithCaptureDB overrides the capture database path on the test config.
func WithCaptureDB(path string) ConfigOption {
	return func(c *config.Config) {
		c.Capture.DBPath = path
	}
}
