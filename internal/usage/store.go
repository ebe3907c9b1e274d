package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"guardian/internal/analysis"
)

// Store manages usage persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Option customizes the store.
type Option func(*Store)

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open initializes or connects to the usage database at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// RecordUsage persists one classification outcome and returns its row ID.
func (s *Store) RecordUsage(ctx context.Context, record *Record) (int64, error) {
	if record == nil {
		return 0, errors.New("nil usage record")
	}
	recordedAt := record.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = s.now()
	}
	recordedAt = recordedAt.UTC()

	res, err := s.execWithRetry(ctx, `
        INSERT INTO app_usage (
            session_id, app_name, window_name, browser_url,
            category, is_appropriate, age_rating, educational_value,
            concerns, raw_analysis, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SessionID,
		record.AppName,
		record.WindowName,
		record.BrowserURL,
		string(record.Category),
		boolToInt(record.IsAppropriate),
		string(record.AgeRating),
		record.EducationalValue,
		joinConcerns(record.Concerns),
		record.RawAnalysis,
		recordedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert usage record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("usage record id: %w", err)
	}
	record.ID = id
	record.RecordedAt = recordedAt
	return id, nil
}

// CountUsageToday returns how many usage rows exist for appName since the
// start of the current UTC day.
func (s *Store) CountUsageToday(ctx context.Context, appName string) (int, error) {
	start, end := s.dayBounds()
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx), `
        SELECT COUNT(1) FROM app_usage
        WHERE app_name = ? AND recorded_at >= ? AND recorded_at < ?`,
		appName, start, end,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count usage today: %w", err)
	}
	return count, nil
}

// SummarizeToday aggregates today's usage rows per application, most used
// first.
func (s *Store) SummarizeToday(ctx context.Context) ([]AppSummary, error) {
	start, end := s.dayBounds()
	rows, err := s.db.QueryContext(ensureContext(ctx), `
        SELECT app_name,
               COUNT(1),
               SUM(CASE WHEN is_appropriate = 0 THEN 1 ELSE 0 END)
        FROM app_usage
        WHERE recorded_at >= ? AND recorded_at < ?
        GROUP BY app_name
        ORDER BY COUNT(1) DESC, app_name ASC`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize usage: %w", err)
	}
	defer rows.Close()

	var summaries []AppSummary
	for rows.Next() {
		var summary AppSummary
		if err := rows.Scan(&summary.AppName, &summary.Count, &summary.Inappropriate); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage summaries: %w", err)
	}
	return summaries, nil
}

// ListRecent returns the newest usage rows up to limit.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), `
        SELECT id, session_id, app_name, window_name, browser_url,
               category, is_appropriate, age_rating, educational_value,
               concerns, raw_analysis, recorded_at
        FROM app_usage
        ORDER BY recorded_at DESC, id DESC
        LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list usage records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage records: %w", err)
	}
	return records, nil
}

// InsertAlert persists a new alert and returns its row ID.
func (s *Store) InsertAlert(ctx context.Context, alert *Alert) (int64, error) {
	if alert == nil {
		return 0, errors.New("nil alert")
	}
	createdAt := alert.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	createdAt = createdAt.UTC()

	res, err := s.execWithRetry(ctx, `
        INSERT INTO alerts (
            session_id, app_name, window_name, alert_type, severity,
            description, is_notified, is_resolved, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		alert.SessionID,
		alert.AppName,
		alert.WindowName,
		string(alert.Type),
		alert.Severity,
		alert.Description,
		boolToInt(alert.Notified),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("alert id: %w", err)
	}
	alert.ID = id
	alert.CreatedAt = createdAt
	return id, nil
}

// ListAlerts returns alerts newest first. Resolved alerts are excluded unless
// includeResolved is set.
func (s *Store) ListAlerts(ctx context.Context, includeResolved bool, limit int) ([]Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT id, session_id, app_name, window_name, alert_type, severity,
               description, is_notified, is_resolved, created_at
        FROM alerts`
	if !includeResolved {
		query += " WHERE is_resolved = 0"
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"

	rows, err := s.db.QueryContext(ensureContext(ctx), query, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return alerts, nil
}

// ResolveAlert marks one alert resolved. Returns false when the ID is
// unknown.
func (s *Store) ResolveAlert(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, "UPDATE alerts SET is_resolved = 1 WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("resolve alert: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("resolve alert rows: %w", err)
	}
	return affected > 0, nil
}

// MarkAlertNotified records that the alert's notification was delivered.
func (s *Store) MarkAlertNotified(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx, "UPDATE alerts SET is_notified = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark alert notified: %w", err)
	}
	return nil
}

func (s *Store) dayBounds() (string, string) {
	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start.Format(time.RFC3339), start.Add(24 * time.Hour).Format(time.RFC3339)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record        Record
		category      string
		ageRating     string
		isAppropriate int
		concerns      string
		recordedAt    string
	)
	err := row.Scan(
		&record.ID,
		&record.SessionID,
		&record.AppName,
		&record.WindowName,
		&record.BrowserURL,
		&category,
		&isAppropriate,
		&ageRating,
		&record.EducationalValue,
		&concerns,
		&record.RawAnalysis,
		&recordedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("scan usage record: %w", err)
	}
	record.Category = analysis.Category(category)
	record.AgeRating = analysis.AgeRating(ageRating)
	record.IsAppropriate = isAppropriate != 0
	record.Concerns = splitConcerns(concerns)
	record.RecordedAt, err = parseStoredTime(recordedAt)
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

func scanAlert(row rowScanner) (Alert, error) {
	var (
		alert     Alert
		alertType string
		notified  int
		resolved  int
		createdAt string
	)
	err := row.Scan(
		&alert.ID,
		&alert.SessionID,
		&alert.AppName,
		&alert.WindowName,
		&alertType,
		&alert.Severity,
		&alert.Description,
		&notified,
		&resolved,
		&createdAt,
	)
	if err != nil {
		return Alert{}, fmt.Errorf("scan alert: %w", err)
	}
	alert.Type = AlertType(alertType)
	alert.Notified = notified != 0
	alert.Resolved = resolved != 0
	alert.CreatedAt, err = parseStoredTime(createdAt)
	if err != nil {
		return Alert{}, err
	}
	return alert, nil
}

func parseStoredTime(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", value, err)
	}
	return parsed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
