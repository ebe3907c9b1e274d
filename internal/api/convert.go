package api

import (
	"guardian/internal/analysis"
	"guardian/internal/ratelimit"
	"guardian/internal/usage"
)

// FromAnalysis converts an interpreted result into its transport form.
func FromAnalysis(result analysis.AppAnalysis) Analysis {
	return Analysis{
		Category:         string(result.Category),
		IsAppropriate:    result.IsAppropriate,
		AgeRating:        string(result.AgeRating),
		EducationalValue: result.EducationalValue,
		Concerns:         result.Concerns,
		RawText:          result.RawText,
	}
}

// FromAlert converts a stored alert into its transport form.
func FromAlert(alert usage.Alert) Alert {
	return Alert{
		ID:          alert.ID,
		AppName:     alert.AppName,
		WindowName:  alert.WindowName,
		Type:        string(alert.Type),
		Severity:    alert.Severity,
		Description: alert.Description,
		Notified:    alert.Notified,
		Resolved:    alert.Resolved,
		CreatedAt:   alert.CreatedAt.Format(dateTimeFormat),
	}
}

// FromAlerts converts a slice of stored alerts.
func FromAlerts(alerts []usage.Alert) []Alert {
	if len(alerts) == 0 {
		return nil
	}
	out := make([]Alert, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, FromAlert(alert))
	}
	return out
}

// FromUsageRecord converts a stored usage row into its transport form.
func FromUsageRecord(record usage.Record) UsageRecord {
	return UsageRecord{
		ID:               record.ID,
		SessionID:        record.SessionID,
		AppName:          record.AppName,
		WindowName:       record.WindowName,
		BrowserURL:       record.BrowserURL,
		Category:         string(record.Category),
		IsAppropriate:    record.IsAppropriate,
		AgeRating:        string(record.AgeRating),
		EducationalValue: record.EducationalValue,
		Concerns:         record.Concerns,
		RecordedAt:       record.RecordedAt.Format(dateTimeFormat),
	}
}

// FromUsageRecords converts a slice of stored usage rows.
func FromUsageRecords(records []usage.Record) []UsageRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]UsageRecord, 0, len(records))
	for _, record := range records {
		out = append(out, FromUsageRecord(record))
	}
	return out
}

// FromAppSummaries converts aggregate usage stats.
func FromAppSummaries(summaries []usage.AppSummary) []AppSummary {
	if len(summaries) == 0 {
		return nil
	}
	out := make([]AppSummary, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, AppSummary{
			AppName:       summary.AppName,
			Count:         summary.Count,
			Inappropriate: summary.Inappropriate,
		})
	}
	return out
}

// FromRateSnapshot converts the limiter's counters.
func FromRateSnapshot(snapshot ratelimit.Snapshot) RateUsage {
	return RateUsage{
		LastMinute:     snapshot.LastMinute,
		PerMinuteLimit: snapshot.PerMinuteLimit,
		Today:          snapshot.Today,
		DailyLimit:     snapshot.DailyLimit,
	}
}
