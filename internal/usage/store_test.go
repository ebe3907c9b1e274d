package usage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"guardian/internal/analysis"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "guardian.db"), opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordUsageRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := &Record{
		SessionID:        "session-1",
		AppName:          "Chrome",
		WindowName:       "Reddit",
		BrowserURL:       "https://reddit.com",
		Category:         analysis.CategorySocialMedia,
		IsAppropriate:    false,
		AgeRating:        analysis.Rating12Plus,
		EducationalValue: 3,
		Concerns:         []string{"time sink"},
		RawAnalysis:      "Category of App: Social Media",
	}
	id, err := store.RecordUsage(ctx, record)
	if err != nil {
		t.Fatalf("record usage: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	records, err := store.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.AppName != "Chrome" || got.Category != analysis.CategorySocialMedia {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.IsAppropriate {
		t.Fatal("expected inappropriate flag preserved")
	}
	if !reflect.DeepEqual(got.Concerns, []string{"time sink"}) {
		t.Fatalf("concerns = %#v", got.Concerns)
	}
	if got.RecordedAt.IsZero() {
		t.Fatal("recorded_at must be set")
	}
}

func TestCountUsageTodayExcludesOtherDaysAndApps(t *testing.T) {
	base := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	store := openTestStore(t, WithClock(func() time.Time { return base }))
	ctx := context.Background()

	insert := func(app string, at time.Time) {
		t.Helper()
		if _, err := store.RecordUsage(ctx, &Record{AppName: app, RecordedAt: at}); err != nil {
			t.Fatalf("record usage: %v", err)
		}
	}
	insert("Chrome", base.Add(-1*time.Hour))
	insert("Chrome", base.Add(-2*time.Hour))
	insert("Chrome", base.Add(-26*time.Hour))
	insert("Terminal", base.Add(-1*time.Hour))

	count, err := store.CountUsageToday(ctx, "Chrome")
	if err != nil {
		t.Fatalf("count usage: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 same-day rows, got %d", count)
	}
}

func TestSummarizeToday(t *testing.T) {
	base := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	store := openTestStore(t, WithClock(func() time.Time { return base }))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.RecordUsage(ctx, &Record{AppName: "Chrome", IsAppropriate: i != 0}); err != nil {
			t.Fatalf("record usage: %v", err)
		}
	}
	if _, err := store.RecordUsage(ctx, &Record{AppName: "Terminal", IsAppropriate: true}); err != nil {
		t.Fatalf("record usage: %v", err)
	}

	summaries, err := store.SummarizeToday(ctx)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].AppName != "Chrome" || summaries[0].Count != 3 || summaries[0].Inappropriate != 1 {
		t.Fatalf("unexpected first summary: %+v", summaries[0])
	}
	if summaries[1].AppName != "Terminal" || summaries[1].Count != 1 {
		t.Fatalf("unexpected second summary: %+v", summaries[1])
	}
}

func TestAlertLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	alert := &Alert{
		SessionID:   "session-1",
		AppName:     "Chrome",
		Type:        AlertInappropriateContent,
		Severity:    "HIGH",
		Description: "Inappropriate app in use: Chrome",
	}
	id, err := store.InsertAlert(ctx, alert)
	if err != nil {
		t.Fatalf("insert alert: %v", err)
	}

	open, err := store.ListAlerts(ctx, false, 10)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(open) != 1 || open[0].ID != id || open[0].Resolved {
		t.Fatalf("unexpected open alerts: %+v", open)
	}

	if err := store.MarkAlertNotified(ctx, id); err != nil {
		t.Fatalf("mark notified: %v", err)
	}

	ok, err := store.ResolveAlert(ctx, id)
	if err != nil || !ok {
		t.Fatalf("resolve alert: ok=%v err=%v", ok, err)
	}

	open, err = store.ListAlerts(ctx, false, 10)
	if err != nil {
		t.Fatalf("list alerts after resolve: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("resolved alert still listed: %+v", open)
	}

	all, err := store.ListAlerts(ctx, true, 10)
	if err != nil {
		t.Fatalf("list all alerts: %v", err)
	}
	if len(all) != 1 || !all[0].Resolved || !all[0].Notified {
		t.Fatalf("unexpected resolved alert: %+v", all)
	}
}

func TestResolveUnknownAlert(t *testing.T) {
	store := openTestStore(t)
	ok, err := store.ResolveAlert(context.Background(), 9999)
	if err != nil {
		t.Fatalf("resolve alert: %v", err)
	}
	if ok {
		t.Fatal("resolving an unknown alert must report false")
	}
}

func TestSchemaVersionGuard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guardian.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("expected schema mismatch error")
	}
}
