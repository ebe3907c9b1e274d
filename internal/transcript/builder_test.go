package transcript

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"guardian/internal/capture"
)

func record(ts time.Time, app, window, url, text string) capture.OcrRecord {
	return capture.OcrRecord{
		Timestamp:  ts,
		AppName:    app,
		WindowName: window,
		BrowserURL: url,
		Text:       text,
	}
}

func TestRenderGroupsConsecutiveSameAppRecords(t *testing.T) {
	base := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.Local)
	records := []capture.OcrRecord{
		record(base, "Chrome", "Reddit", "", "first frame"),
		record(base.Add(5*time.Second), "Chrome", "Reddit", "", "second frame"),
		record(base.Add(10*time.Second), "Terminal", "", "", "shell output"),
		record(base.Add(15*time.Second), "Chrome", "Reddit", "", "back again"),
	}

	rendered := Render(records, 0)

	if got := strings.Count(rendered, "Chrome - Reddit:"); got != 2 {
		t.Fatalf("expected 2 Chrome headers (one per run), got %d in %q", got, rendered)
	}
	if got := strings.Count(rendered, "Terminal:"); got != 1 {
		t.Fatalf("expected 1 Terminal header, got %d in %q", got, rendered)
	}
	// Adjacent same-(app,window) records never produce two headers.
	if strings.Index(rendered, "first frame") > strings.Index(rendered, "second frame") {
		t.Fatalf("records out of order: %q", rendered)
	}
}

func TestRenderHeaderIncludesTimeAndURL(t *testing.T) {
	base := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.Local)
	records := []capture.OcrRecord{
		record(base, "Chrome", "Reddit", "https://reddit.com", "some text"),
	}

	rendered := Render(records, 0)

	want := "\n[10:00:00] Chrome - Reddit (https://reddit.com):\nsome text\n\n"
	if rendered != want {
		t.Fatalf("unexpected render:\n got %q\nwant %q", rendered, want)
	}
}

func TestRenderDiscardsWhitespaceOnlyText(t *testing.T) {
	base := time.Now()
	records := []capture.OcrRecord{
		record(base, "Chrome", "", "", "   "),
		record(base.Add(time.Second), "Chrome", "", "", "\n\t"),
		record(base.Add(2*time.Second), "Chrome", "", "", ""),
	}

	if got := Render(records, 0); got != NoContentMessage {
		t.Fatalf("expected no-content sentinel, got %q", got)
	}
}

func TestRenderEmptyInputReturnsSentinel(t *testing.T) {
	if got := Render(nil, 100); got != NoContentMessage {
		t.Fatalf("expected sentinel, got %q", got)
	}
}

func TestRenderTruncatesAtExactBudget(t *testing.T) {
	base := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.Local)
	records := []capture.OcrRecord{
		record(base, "Chrome", "", "", strings.Repeat("x", 80)),
	}

	rendered := Render(records, 50)

	if !strings.HasSuffix(rendered, TruncationMarker) {
		t.Fatalf("expected truncation marker: %q", rendered)
	}
	content := strings.TrimSuffix(rendered, TruncationMarker)
	if got := utf8.RuneCountInString(content); got != 50 {
		t.Fatalf("expected exactly 50 characters of content, got %d", got)
	}
}

func TestRenderNoTruncationUnderBudget(t *testing.T) {
	base := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.Local)
	records := []capture.OcrRecord{
		record(base, "Chrome", "", "", "short"),
	}

	rendered := Render(records, 4000)
	if strings.Contains(rendered, TruncationMarker) {
		t.Fatalf("unexpected truncation: %q", rendered)
	}
}

type stubSource struct {
	records []capture.OcrRecord
	since   time.Time
	filter  string
	calls   int
}

func (s *stubSource) QueryText(_ context.Context, since time.Time, appFilter string) ([]capture.OcrRecord, error) {
	s.calls++
	s.since = since
	s.filter = appFilter
	return s.records, nil
}

func TestBuildComputesThresholdFromWindow(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	source := &stubSource{}
	builder := NewBuilder(source, 4000, WithClock(func() time.Time { return now }))

	rendered, err := builder.Build(context.Background(), 300, "Chrome")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !IsEmpty(rendered) {
		t.Fatalf("expected sentinel for empty source, got %q", rendered)
	}
	if source.calls != 1 {
		t.Fatalf("expected one query, got %d", source.calls)
	}
	if want := now.Add(-5 * time.Minute); !source.since.Equal(want) {
		t.Fatalf("unexpected threshold: got %v want %v", source.since, want)
	}
	if source.filter != "Chrome" {
		t.Fatalf("unexpected filter: %q", source.filter)
	}
}
