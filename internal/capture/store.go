package capture

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"guardian/internal/config"
)

// Store provides read-only access to the capture database.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the capture database in read-only mode.
func Open(cfg *config.Config) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Capture.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open capture db: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA query_only = ON",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	return &Store{db: db, path: cfg.Capture.DBPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Ping verifies the database is reachable and lists its tables. Used by the
// status command as a connectivity check.
func (s *Store) Ping(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list capture tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// QueryText returns OCR records newer than since, ordered by timestamp
// ascending. Records at exactly since are excluded. When appFilter is
// non-empty, only records whose app name contains it are returned.
func (s *Store) QueryText(ctx context.Context, since time.Time, appFilter string) ([]OcrRecord, error) {
	query := `
        SELECT
            frames.timestamp,
            ocr_text.text,
            frames.app_name,
            frames.window_name,
            frames.browser_url,
            frames.focused
        FROM ocr_text
        JOIN frames ON ocr_text.frame_id = frames.id
        WHERE frames.timestamp > ?`
	args := []any{since.Unix()}

	if appFilter != "" {
		query += " AND frames.app_name LIKE ?"
		args = append(args, "%"+appFilter+"%")
	}
	query += " ORDER BY frames.timestamp ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ocr text: %w", err)
	}
	defer rows.Close()

	var records []OcrRecord
	for rows.Next() {
		var (
			ts         int64
			text       sql.NullString
			appName    sql.NullString
			windowName sql.NullString
			browserURL sql.NullString
			focused    sql.NullInt64
		)
		if err := rows.Scan(&ts, &text, &appName, &windowName, &browserURL, &focused); err != nil {
			return nil, fmt.Errorf("scan ocr record: %w", err)
		}
		records = append(records, OcrRecord{
			Timestamp:  time.Unix(ts, 0),
			AppName:    appName.String,
			WindowName: windowName.String,
			BrowserURL: browserURL.String,
			Focused:    focused.Int64 == 1,
			Text:       text.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ocr records: %w", err)
	}
	return records, nil
}

// CurrentFocusedApp returns the most recent focused frame, or nil when the
// database holds no focused frames.
func (s *Store) CurrentFocusedApp(ctx context.Context) (*FocusedApp, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT app_name, window_name, browser_url
        FROM frames
        WHERE focused = 1
        ORDER BY timestamp DESC
        LIMIT 1`)

	var appName, windowName, browserURL sql.NullString
	if err := row.Scan(&appName, &windowName, &browserURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query focused app: %w", err)
	}
	return &FocusedApp{
		AppName:    appName.String,
		WindowName: windowName.String,
		BrowserURL: browserURL.String,
	}, nil
}
