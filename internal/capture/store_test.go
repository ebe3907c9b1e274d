package capture_test

import (
	"context"
	"testing"
	"time"

	"guardian/internal/capture"
	"guardian/internal/testsupport"
)

func TestQueryTextFiltersByWindowAndApp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	now := time.Now().Truncate(time.Second)
	testsupport.SeedCaptureDB(t, cfg.Capture.DBPath,
		testsupport.Frame{Timestamp: now.Add(-10 * time.Minute), AppName: "Chrome", Text: "old text"},
		testsupport.Frame{Timestamp: now.Add(-2 * time.Minute), AppName: "Chrome", WindowName: "Reddit", Text: "recent chrome"},
		testsupport.Frame{Timestamp: now.Add(-1 * time.Minute), AppName: "Terminal", Text: "recent terminal"},
	)

	store, err := capture.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	records, err := store.QueryText(ctx, now.Add(-5*time.Minute), "")
	if err != nil {
		t.Fatalf("QueryText: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].AppName != "Chrome" || records[1].AppName != "Terminal" {
		t.Fatalf("unexpected order: %+v", records)
	}
	if records[0].WindowName != "Reddit" {
		t.Fatalf("unexpected window: %q", records[0].WindowName)
	}

	filtered, err := store.QueryText(ctx, now.Add(-5*time.Minute), "Term")
	if err != nil {
		t.Fatalf("QueryText with filter: %v", err)
	}
	if len(filtered) != 1 || filtered[0].AppName != "Terminal" {
		t.Fatalf("expected only Terminal, got %+v", filtered)
	}
}

func TestQueryTextExcludesBoundaryTimestamp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	boundary := time.Now().Truncate(time.Second).Add(-5 * time.Minute)
	testsupport.SeedCaptureDB(t, cfg.Capture.DBPath,
		testsupport.Frame{Timestamp: boundary, AppName: "Chrome", Text: "exactly at boundary"},
		testsupport.Frame{Timestamp: boundary.Add(time.Second), AppName: "Chrome", Text: "just inside"},
	)

	store, err := capture.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	records, err := store.QueryText(context.Background(), boundary, "")
	if err != nil {
		t.Fatalf("QueryText: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected boundary record excluded, got %d records", len(records))
	}
	if records[0].Text != "just inside" {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestCurrentFocusedApp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	now := time.Now().Truncate(time.Second)
	testsupport.SeedCaptureDB(t, cfg.Capture.DBPath,
		testsupport.Frame{Timestamp: now.Add(-3 * time.Minute), AppName: "Terminal", Focused: true, Text: "a"},
		testsupport.Frame{Timestamp: now.Add(-2 * time.Minute), AppName: "Minecraft", WindowName: "Main Menu", Focused: true, Text: "b"},
		testsupport.Frame{Timestamp: now.Add(-1 * time.Minute), AppName: "Chrome", Focused: false, Text: "c"},
	)

	store, err := capture.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	app, err := store.CurrentFocusedApp(context.Background())
	if err != nil {
		t.Fatalf("CurrentFocusedApp: %v", err)
	}
	if app == nil {
		t.Fatal("expected focused app")
	}
	if app.AppName != "Minecraft" || app.WindowName != "Main Menu" {
		t.Fatalf("unexpected focused app: %+v", app)
	}
}

func TestCurrentFocusedAppEmptyDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedCaptureDB(t, cfg.Capture.DBPath)

	store, err := capture.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	app, err := store.CurrentFocusedApp(context.Background())
	if err != nil {
		t.Fatalf("CurrentFocusedApp: %v", err)
	}
	if app != nil {
		t.Fatalf("expected nil app, got %+v", app)
	}
}

func TestPingListsTables(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedCaptureDB(t, cfg.Capture.DBPath)

	store, err := capture.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	tables, err := store.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	want := map[string]bool{"frames": false, "ocr_text": false}
	for _, table := range tables {
		if _, ok := want[table]; ok {
			want[table] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("expected table %q in %v", name, tables)
		}
	}
}
