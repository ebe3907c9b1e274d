package capture

import "time"

// OcrRecord is one captured frame with recognized text.
type OcrRecord struct {
	Timestamp  time.Time
	AppName    string
	WindowName string
	BrowserURL string
	Focused    bool
	Text       string
}

// FocusedApp describes the most recently focused application.
type FocusedApp struct {
	AppName    string
	WindowName string
	BrowserURL string
}
