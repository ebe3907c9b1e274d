package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05Z07:00"

// QueryRequest carries a free-form question about recent screen content.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse carries the model's answer (or a descriptive failure
// message, indistinguishable by design).
type QueryResponse struct {
	Answer string `json:"answer"`
}

// Analysis is the transport form of an interpreted classification.
type Analysis struct {
	Category         string   `json:"category"`
	IsAppropriate    bool     `json:"isAppropriate"`
	AgeRating        string   `json:"ageRating"`
	EducationalValue int      `json:"educationalValue"`
	Concerns         []string `json:"concerns,omitempty"`
	RawText          string   `json:"rawText,omitempty"`
}

// AnalyzeResponse wraps a single classification result. Message carries the
// user-visible explanation when the classification could not produce a real
// analysis (no content in window, model failure).
type AnalyzeResponse struct {
	Analysis Analysis `json:"analysis"`
	Message  string   `json:"message,omitempty"`
}

// Alert describes a persisted policy violation.
type Alert struct {
	ID          int64  `json:"id"`
	AppName     string `json:"appName"`
	WindowName  string `json:"windowName,omitempty"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Notified    bool   `json:"notified"`
	Resolved    bool   `json:"resolved"`
	CreatedAt   string `json:"createdAt"`
}

// AlertListResponse wraps a collection of alerts.
type AlertListResponse struct {
	Alerts []Alert `json:"alerts"`
}

// AlertResolveResponse reports the outcome of a resolve request.
type AlertResolveResponse struct {
	Resolved bool `json:"resolved"`
}

// UsageRecord describes one persisted classification outcome.
type UsageRecord struct {
	ID               int64    `json:"id"`
	SessionID        string   `json:"sessionId,omitempty"`
	AppName          string   `json:"appName"`
	WindowName       string   `json:"windowName,omitempty"`
	BrowserURL       string   `json:"browserUrl,omitempty"`
	Category         string   `json:"category"`
	IsAppropriate    bool     `json:"isAppropriate"`
	AgeRating        string   `json:"ageRating"`
	EducationalValue int      `json:"educationalValue"`
	Concerns         []string `json:"concerns,omitempty"`
	RecordedAt       string   `json:"recordedAt"`
}

// AppSummary aggregates same-day usage for one application.
type AppSummary struct {
	AppName       string `json:"appName"`
	Count         int    `json:"count"`
	Inappropriate int    `json:"inappropriate"`
}

// UsageResponse combines the per-app summary with the newest raw records.
type UsageResponse struct {
	Summaries []AppSummary  `json:"summaries"`
	Recent    []UsageRecord `json:"recent"`
}

// RateUsage mirrors the rate limiter's counters.
type RateUsage struct {
	LastMinute     int `json:"lastMinute"`
	PerMinuteLimit int `json:"perMinuteLimit"`
	Today          int `json:"today"`
	DailyLimit     int `json:"dailyLimit"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool      `json:"running"`
	PID           int       `json:"pid"`
	SessionID     string    `json:"sessionId,omitempty"`
	CaptureDBPath string    `json:"captureDbPath"`
	UsageDBPath   string    `json:"usageDbPath"`
	LockFilePath  string    `json:"lockFilePath"`
	RateUsage     RateUsage `json:"rateUsage"`
}
