package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCapture(); err != nil {
		return err
	}
	c.normalizeGemini()
	c.normalizeQuery()
	c.normalizeRateLimit()
	c.normalizeMonitor()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeCapture() error {
	var err error
	if strings.TrimSpace(c.Capture.DBPath) == "" {
		c.Capture.DBPath = defaultCaptureDBPath
	}
	if value, ok := os.LookupEnv("GUARDIAN_CAPTURE_DB"); ok && strings.TrimSpace(value) != "" {
		c.Capture.DBPath = strings.TrimSpace(value)
	}
	if c.Capture.DBPath, err = ExpandPath(c.Capture.DBPath); err != nil {
		return fmt.Errorf("capture.db_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		}
	}
	c.Gemini.BaseURL = strings.TrimSpace(c.Gemini.BaseURL)
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	if c.Gemini.MaxOutputTokens <= 0 {
		c.Gemini.MaxOutputTokens = defaultGeminiMaxTokens
	}
	if c.Gemini.ProbeTimeoutSeconds <= 0 {
		c.Gemini.ProbeTimeoutSeconds = defaultProbeTimeout
	}
	if c.Gemini.RequestTimeoutSeconds <= 0 {
		c.Gemini.RequestTimeoutSeconds = defaultRequestTimeout
	}
}

func (c *Config) normalizeQuery() {
	if c.Query.TimeWindowSeconds <= 0 {
		c.Query.TimeWindowSeconds = defaultTimeWindowSeconds
	}
	if c.Query.MaxTranscriptLength <= 0 {
		c.Query.MaxTranscriptLength = defaultMaxTranscriptLength
	}
}

func (c *Config) normalizeRateLimit() {
	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = defaultRequestsPerMinute
	}
	if c.RateLimit.DailyLimit <= 0 {
		c.RateLimit.DailyLimit = defaultDailyLimit
	}
}

func (c *Config) normalizeMonitor() {
	if c.Monitor.PollInterval <= 0 {
		c.Monitor.PollInterval = defaultPollInterval
	}
	if c.Monitor.UsageAlertThreshold <= 0 {
		c.Monitor.UsageAlertThreshold = defaultUsageAlertThreshold
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
