// Package capture reads OCR text from the screen capture SQLite database.
//
// The database is owned by the capture tool; this package opens it read-only
// and never mutates it. Rows join per-frame metadata (timestamp, app, window,
// URL, focus state) with the OCR text extracted from that frame. Timestamps
// are stored as unix seconds.
package capture
