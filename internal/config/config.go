package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Capture contains configuration for the read-only screen capture database.
type Capture struct {
	DBPath string `toml:"db_path"`
}

// Gemini contains configuration for the Google Gemini API.
type Gemini struct {
	APIKey                string  `toml:"api_key"`
	BaseURL               string  `toml:"base_url"`
	Temperature           float64 `toml:"temperature"`
	MaxOutputTokens       int     `toml:"max_output_tokens"`
	ProbeTimeoutSeconds   int     `toml:"probe_timeout"`
	RequestTimeoutSeconds int     `toml:"request_timeout"`
}

// Query contains configuration for transcript construction.
type Query struct {
	TimeWindowSeconds   int `toml:"time_window_seconds"`
	MaxTranscriptLength int `toml:"max_transcript_length"`
}

// RateLimit contains local throttling limits enforced before Gemini calls.
type RateLimit struct {
	RequestsPerMinute int `toml:"requests_per_minute"`
	DailyLimit        int `toml:"daily_limit"`
}

// Monitor contains configuration for the background analysis loop.
type Monitor struct {
	PollInterval        int `toml:"poll_interval"`
	UsageAlertThreshold int `toml:"usage_alert_threshold"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Inappropriate  bool   `toml:"inappropriate"`
	ExcessiveUsage bool   `toml:"excessive_usage"`
	Quota          bool   `toml:"quota"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Guardian.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Capture: location of the screen capture OCR database
//   - Gemini: Google Gemini connection and generation settings
//   - Query: transcript window and length budget
//   - RateLimit: per-minute and per-day request ceilings
//   - Monitor: background analysis loop timing and alert thresholds
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Capture       Capture       `toml:"capture"`
	Gemini        Gemini        `toml:"gemini"`
	Query         Query         `toml:"query"`
	RateLimit     RateLimit     `toml:"rate_limit"`
	Monitor       Monitor       `toml:"monitor"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/guardian/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("guardian.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// UsageDBPath returns the path of guardian's own usage/alert database.
func (c *Config) UsageDBPath() string {
	return filepath.Join(c.Paths.DataDir, "guardian.db")
}

// Render serializes the effective configuration as TOML with the API key and
// token values redacted.
func (c *Config) Render() (string, error) {
	redacted := *c
	if strings.TrimSpace(redacted.Gemini.APIKey) != "" {
		redacted.Gemini.APIKey = "<redacted>"
	}
	if strings.TrimSpace(redacted.Paths.APIToken) != "" {
		redacted.Paths.APIToken = "<redacted>"
	}

	data, err := toml.Marshal(redacted)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

// ExpandPath expands a leading ~ and resolves the value to an absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
