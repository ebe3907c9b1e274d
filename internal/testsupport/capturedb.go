package testsupport

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

const captureSchema = `
CREATE TABLE IF NOT EXISTS frames (
    id INTEGER PRIMARY KEY,
    timestamp INTEGER,
    app_name TEXT,
    window_name TEXT,
    browser_url TEXT,
    focused INTEGER
);
CREATE TABLE IF NOT EXISTS ocr_text (
    id INTEGER PRIMARY KEY,
    frame_id INTEGER,
    text TEXT
);`

// Frame describes one seeded capture row for tests.
type Frame struct {
	Timestamp  time.Time
	AppName    string
	WindowName string
	BrowserURL string
	Focused    bool
	Text       string
}

// SeedCaptureDB creates a minimal capture database at path and inserts the
// provided frames with their OCR text.
func SeedCaptureDB(t testing.TB, path string, frames ...Frame) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open capture db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(captureSchema); err != nil {
		t.Fatalf("create capture schema: %v", err)
	}

	for _, frame := range frames {
		focused := 0
		if frame.Focused {
			focused = 1
		}
		res, err := db.Exec(
			"INSERT INTO frames (timestamp, app_name, window_name, browser_url, focused) VALUES (?, ?, ?, ?, ?)",
			frame.Timestamp.Unix(), frame.AppName, frame.WindowName, nullable(frame.BrowserURL), focused,
		)
		if err != nil {
			t.Fatalf("insert frame: %v", err)
		}
		frameID, err := res.LastInsertId()
		if err != nil {
			t.Fatalf("frame id: %v", err)
		}
		if _, err := db.Exec("INSERT INTO ocr_text (frame_id, text) VALUES (?, ?)", frameID, frame.Text); err != nil {
			t.Fatalf("insert ocr text: %v", err)
		}
	}
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
