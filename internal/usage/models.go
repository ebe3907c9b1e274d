package usage

import (
	"strings"
	"time"

	"guardian/internal/analysis"
)

// AlertType classifies why an alert was raised.
type AlertType string

const (
	AlertInappropriateContent AlertType = "inappropriate_content"
	AlertExcessiveUsage       AlertType = "excessive_usage"
)

// Record is one persisted classification outcome.
type Record struct {
	ID               int64
	SessionID        string
	AppName          string
	WindowName       string
	BrowserURL       string
	Category         analysis.Category
	IsAppropriate    bool
	AgeRating        analysis.AgeRating
	EducationalValue int
	Concerns         []string
	RawAnalysis      string
	RecordedAt       time.Time
}

// Alert is one persisted policy violation.
type Alert struct {
	ID          int64
	SessionID   string
	AppName     string
	WindowName  string
	Type        AlertType
	Severity    string
	Description string
	Notified    bool
	Resolved    bool
	CreatedAt   time.Time
}

// AppSummary aggregates same-day usage for one application.
type AppSummary struct {
	AppName       string
	Count         int
	Inappropriate int
}

// concerns are stored newline-joined; none of the extraction paths produce
// newlines inside a single concern.
func joinConcerns(concerns []string) string {
	return strings.Join(concerns, "\n")
}

func splitConcerns(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "\n")
}
