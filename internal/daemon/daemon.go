package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"guardian/internal/analysis"
	"guardian/internal/capture"
	"guardian/internal/config"
	"guardian/internal/engine"
	"guardian/internal/logging"
	"guardian/internal/monitor"
	"guardian/internal/notifications"
	"guardian/internal/ratelimit"
	"guardian/internal/services/gemini"
	"guardian/internal/usage"
)

// Daemon coordinates the monitoring loop and API server and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	captureStore *capture.Store
	usageStore   *usage.Store
	limiter      *ratelimit.Limiter
	model        *gemini.Client
	engine       *engine.Engine
	notifier     notifications.Service
	monitor      *monitor.Monitor
	api          *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	SessionID     string
	CaptureDBPath string
	UsageDBPath   string
	LockFilePath  string
	RateUsage     ratelimit.Snapshot
}

// New constructs a daemon with all dependencies wired from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	captureStore, err := capture.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open capture store: %w", err)
	}
	usageStore, err := usage.Open(cfg.UsageDBPath())
	if err != nil {
		_ = captureStore.Close()
		return nil, fmt.Errorf("open usage store: %w", err)
	}

	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.DailyLimit)
	model := gemini.NewClient(gemini.Config{
		APIKey:                cfg.Gemini.APIKey,
		BaseURL:               cfg.Gemini.BaseURL,
		Temperature:           cfg.Gemini.Temperature,
		MaxOutputTokens:       cfg.Gemini.MaxOutputTokens,
		ProbeTimeoutSeconds:   cfg.Gemini.ProbeTimeoutSeconds,
		RequestTimeoutSeconds: cfg.Gemini.RequestTimeoutSeconds,
	}, limiter, logger)
	eng := engine.New(captureStore, model, engine.Options{
		TimeWindowSeconds:   cfg.Query.TimeWindowSeconds,
		MaxTranscriptLength: cfg.Query.MaxTranscriptLength,
	}, logger)
	notifier := notifications.NewService(cfg)

	lockPath := filepath.Join(cfg.Paths.LogDir, "guardiand.lock")
	d := &Daemon{
		cfg:          cfg,
		logger:       logger,
		captureStore: captureStore,
		usageStore:   usageStore,
		limiter:      limiter,
		model:        model,
		engine:       eng,
		notifier:     notifier,
		monitor:      monitor.New(cfg, eng, captureStore, usageStore, notifier, logger),
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}

	apiSrv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	d.api = apiSrv
	return d, nil
}

// Start acquires the daemon lock and launches the monitor and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another guardian daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.monitor.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start monitor: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.monitor.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("guardian daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.monitor.Stop()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("guardian daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.usageStore != nil {
		errs = append(errs, d.usageStore.Close())
	}
	if d.captureStore != nil {
		errs = append(errs, d.captureStore.Close())
	}
	return errors.Join(errs...)
}

// APIAddr returns the bound API address, empty until Start succeeds.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// AnswerQuery answers a free-form question about recent screen content.
func (d *Daemon) AnswerQuery(ctx context.Context, query string) string {
	return d.engine.AnswerQuery(ctx, query)
}

// Analyze classifies the application currently in use.
func (d *Daemon) Analyze(ctx context.Context) (analysis.AppAnalysis, error) {
	return d.engine.ClassifyCurrentApp(ctx)
}

// Alerts lists stored alerts, newest first.
func (d *Daemon) Alerts(ctx context.Context, includeResolved bool, limit int) ([]usage.Alert, error) {
	return d.usageStore.ListAlerts(ctx, includeResolved, limit)
}

// ResolveAlert marks an alert resolved.
func (d *Daemon) ResolveAlert(ctx context.Context, id int64) (bool, error) {
	return d.usageStore.ResolveAlert(ctx, id)
}

// UsageSummary reports today's per-app usage plus the newest records.
func (d *Daemon) UsageSummary(ctx context.Context, recentLimit int) ([]usage.AppSummary, []usage.Record, error) {
	summaries, err := d.usageStore.SummarizeToday(ctx)
	if err != nil {
		return nil, nil, err
	}
	recent, err := d.usageStore.ListRecent(ctx, recentLimit)
	if err != nil {
		return nil, nil, err
	}
	return summaries, recent, nil
}

// Probe checks Gemini reachability. Probes count against rate limits.
func (d *Daemon) Probe(ctx context.Context) error {
	return d.model.Probe(ctx)
}

// CaptureTables verifies the capture database is reachable and lists its
// tables.
func (d *Daemon) CaptureTables(ctx context.Context) ([]string, error) {
	return d.captureStore.Ping(ctx)
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		SessionID:     d.monitor.SessionID(),
		CaptureDBPath: d.captureStore.Path(),
		UsageDBPath:   d.usageStore.Path(),
		LockFilePath:  d.lockPath,
		RateUsage:     d.limiter.Usage(),
	}
}
