package engine

import "guardian/internal/analysis"

// Severity grades an alert for downstream display and notification routing.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// ExcessiveUsageThreshold is the same-day usage count at which a medium
// severity alert is raised.
const ExcessiveUsageThreshold = 3

// InappropriateAlert reports whether an analysis warrants a high severity
// alert.
func InappropriateAlert(result analysis.AppAnalysis) bool {
	return !result.IsAppropriate
}

// ExcessiveUsageAlert reports whether a same-day usage count warrants a
// medium severity alert.
func ExcessiveUsageAlert(count int) bool {
	return count >= ExcessiveUsageThreshold
}
