package config

const (
	defaultDataDir             = "~/.local/share/guardian"
	defaultLogDir              = "~/.local/share/guardian/logs"
	defaultAPIBind             = "127.0.0.1:7519"
	defaultCaptureDBPath       = "~/.screenpipe/screenpipe.db"
	defaultGeminiBaseURL       = "https://generativelanguage.googleapis.com/v1/models/gemini-1.5-pro:generateContent"
	defaultGeminiTemperature   = 0.7
	defaultGeminiMaxTokens     = 1024
	defaultProbeTimeout        = 10
	defaultRequestTimeout      = 30
	defaultTimeWindowSeconds   = 300
	defaultMaxTranscriptLength = 4000
	defaultRequestsPerMinute   = 30
	defaultDailyLimit          = 500
	defaultPollInterval        = 60
	defaultUsageAlertThreshold = 3
	defaultNtfyRequestTimeout  = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Capture: Capture{
			DBPath: defaultCaptureDBPath,
		},
		Gemini: Gemini{
			BaseURL:               defaultGeminiBaseURL,
			Temperature:           defaultGeminiTemperature,
			MaxOutputTokens:       defaultGeminiMaxTokens,
			ProbeTimeoutSeconds:   defaultProbeTimeout,
			RequestTimeoutSeconds: defaultRequestTimeout,
		},
		Query: Query{
			TimeWindowSeconds:   defaultTimeWindowSeconds,
			MaxTranscriptLength: defaultMaxTranscriptLength,
		},
		RateLimit: RateLimit{
			RequestsPerMinute: defaultRequestsPerMinute,
			DailyLimit:        defaultDailyLimit,
		},
		Monitor: Monitor{
			PollInterval:        defaultPollInterval,
			UsageAlertThreshold: defaultUsageAlertThreshold,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Inappropriate:  true,
			ExcessiveUsage: true,
			Quota:          true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
