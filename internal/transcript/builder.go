package transcript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guardian/internal/capture"
)

// NoContentMessage is returned when the window holds no usable OCR text.
// Callers must treat it as a short-circuit: do not send it to the model.
const NoContentMessage = "No screen content found in the specified time window."

// TruncationMarker is appended when the rendered transcript exceeds the
// length budget.
const TruncationMarker = "\n[Text truncated due to length]"

// Source provides OCR records for the builder.
type Source interface {
	QueryText(ctx context.Context, since time.Time, appFilter string) ([]capture.OcrRecord, error)
}

// Builder renders transcripts from a capture source.
type Builder struct {
	source    Source
	maxLength int
	now       func() time.Time
}

// Option customizes the builder.
type Option func(*Builder)

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBuilder constructs a Builder with the given rendered length budget.
func NewBuilder(source Source, maxLength int, opts ...Option) *Builder {
	b := &Builder{
		source:    source,
		maxLength: maxLength,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build reads records newer than windowSeconds ago, optionally filtered by
// app name substring, and renders them. Returns NoContentMessage when no
// record carries usable text.
func (b *Builder) Build(ctx context.Context, windowSeconds int, appFilter string) (string, error) {
	threshold := b.now().Add(-time.Duration(windowSeconds) * time.Second)
	records, err := b.source.QueryText(ctx, threshold, appFilter)
	if err != nil {
		return "", fmt.Errorf("read ocr window: %w", err)
	}
	return Render(records, b.maxLength), nil
}

// Render formats OCR records into a readable transcript and applies the
// length cap. Records with empty or whitespace-only text are discarded.
// Exported separately so callers holding records can render without a store.
func Render(records []capture.OcrRecord, maxLength int) string {
	var sb strings.Builder
	var currentApp, currentWindow string
	wroteHeader := false

	for _, record := range records {
		text := strings.TrimSpace(record.Text)
		if text == "" {
			continue
		}

		if !wroteHeader || record.AppName != currentApp || record.WindowName != currentWindow {
			currentApp = record.AppName
			currentWindow = record.WindowName
			wroteHeader = true

			sb.WriteString("\n[")
			sb.WriteString(record.Timestamp.Format("15:04:05"))
			sb.WriteString("] ")
			sb.WriteString(currentApp)
			if currentWindow != "" {
				sb.WriteString(" - ")
				sb.WriteString(currentWindow)
			}
			if record.BrowserURL != "" {
				sb.WriteString(" (")
				sb.WriteString(record.BrowserURL)
				sb.WriteString(")")
			}
			sb.WriteString(":\n")
		}

		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	if sb.Len() == 0 {
		return NoContentMessage
	}

	rendered := sb.String()
	if maxLength > 0 {
		if runes := []rune(rendered); len(runes) > maxLength {
			rendered = string(runes[:maxLength]) + TruncationMarker
		}
	}
	return rendered
}

// IsEmpty reports whether a rendered transcript is the no-content sentinel.
func IsEmpty(rendered string) bool {
	return rendered == NoContentMessage
}
