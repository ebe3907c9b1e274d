package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"guardian/internal/analysis"
	"guardian/internal/capture"
	"guardian/internal/config"
	"guardian/internal/engine"
	"guardian/internal/logging"
	"guardian/internal/notifications"
	"guardian/internal/ratelimit"
	"guardian/internal/usage"
)

// Classifier produces an analysis of the current screen content.
// Implemented by engine.Engine.
type Classifier interface {
	ClassifyCurrentApp(ctx context.Context) (analysis.AppAnalysis, error)
}

// FocusSource reports the currently focused application.
type FocusSource interface {
	CurrentFocusedApp(ctx context.Context) (*capture.FocusedApp, error)
}

// UsageStore is the persistence surface the monitor writes through.
type UsageStore interface {
	RecordUsage(ctx context.Context, record *usage.Record) (int64, error)
	CountUsageToday(ctx context.Context, appName string) (int, error)
	InsertAlert(ctx context.Context, alert *usage.Alert) (int64, error)
	MarkAlertNotified(ctx context.Context, id int64) error
}

// Monitor polls the classifier on a fixed interval and persists results.
type Monitor struct {
	classifier Classifier
	source     FocusSource
	store      UsageStore
	notifier   notifications.Service
	logger     *slog.Logger

	sessionID      string
	interval       time.Duration
	usageThreshold int

	notifyInappropriate bool
	notifyUsage         bool
	notifyQuota         bool

	mu            sync.Mutex
	running       bool
	quotaNotified bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a monitor from the configured poll interval and alert
// threshold.
func New(cfg *config.Config, classifier Classifier, source FocusSource, store UsageStore, notifier notifications.Service, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	interval := time.Duration(cfg.Monitor.PollInterval) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}
	threshold := cfg.Monitor.UsageAlertThreshold
	if threshold <= 0 {
		threshold = engine.ExcessiveUsageThreshold
	}

	return &Monitor{
		classifier:          classifier,
		source:              source,
		store:               store,
		notifier:            notifier,
		logger:              logger.With(logging.String("component", "monitor")),
		sessionID:           uuid.NewString(),
		interval:            interval,
		usageThreshold:      threshold,
		notifyInappropriate: cfg.Notifications.Inappropriate,
		notifyUsage:         cfg.Notifications.ExcessiveUsage,
		notifyQuota:         cfg.Notifications.Quota,
	}
}

// SessionID identifies this monitor run in recorded usage rows.
func (m *Monitor) SessionID() string {
	return m.sessionID
}

// Start launches the polling loop. The first pass runs immediately.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return errors.New("monitor unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("monitor already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.ctx = runCtx
	m.cancel = cancel
	m.running = true

	m.logger.Info("monitoring started",
		logging.String("session_id", m.sessionID),
		logging.Duration("interval", m.interval))
	if err := m.notifier.NotifyMonitoringStarted(runCtx, m.interval); err != nil {
		m.logger.Warn("monitoring start notification failed", logging.Error(err))
	}

	m.wg.Add(1)
	go m.loop()
	return nil
}

// Stop cancels the loop and waits for the in-flight pass to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	m.poll(m.ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.poll(m.ctx)
		}
	}
}

// poll runs one monitoring pass. Failures are logged, never fatal: the loop
// must survive transient capture and model errors.
func (m *Monitor) poll(ctx context.Context) {
	focused, err := m.source.CurrentFocusedApp(ctx)
	if err != nil {
		m.logger.Warn("focused app lookup failed", logging.Error(err))
		return
	}
	if focused == nil || strings.TrimSpace(focused.AppName) == "" {
		m.logger.Debug("no active app detected")
		return
	}

	result, err := m.classifier.ClassifyCurrentApp(ctx)
	switch {
	case errors.Is(err, engine.ErrNoContent):
		m.logger.Debug("no screen content in window")
		return
	case errors.Is(err, ratelimit.ErrDailyQuotaExceeded):
		m.logger.Warn("daily quota exhausted, recording with unknown analysis")
		m.notifyQuotaOnce(ctx)
	case err != nil:
		m.logger.Warn("classification failed, recording with unknown analysis", logging.Error(err))
	default:
		m.resetQuotaNotice()
	}

	record := &usage.Record{
		SessionID:        m.sessionID,
		AppName:          focused.AppName,
		WindowName:       focused.WindowName,
		BrowserURL:       focused.BrowserURL,
		Category:         result.Category,
		IsAppropriate:    result.IsAppropriate,
		AgeRating:        result.AgeRating,
		EducationalValue: result.EducationalValue,
		Concerns:         result.Concerns,
		RawAnalysis:      result.RawText,
	}
	if _, err := m.store.RecordUsage(ctx, record); err != nil {
		m.logger.Error("record usage failed", logging.Error(err))
		return
	}
	m.logger.Info("usage recorded",
		logging.String("app", focused.AppName),
		logging.String("category", string(result.Category)),
		logging.Bool("appropriate", result.IsAppropriate))

	if engine.InappropriateAlert(result) {
		m.raiseInappropriateAlert(ctx, focused, result)
	}
	m.checkExcessiveUsage(ctx, focused)
}

func (m *Monitor) raiseInappropriateAlert(ctx context.Context, focused *capture.FocusedApp, result analysis.AppAnalysis) {
	alert := &usage.Alert{
		SessionID:   m.sessionID,
		AppName:     focused.AppName,
		WindowName:  focused.WindowName,
		Type:        usage.AlertInappropriateContent,
		Severity:    string(engine.SeverityHigh),
		Description: inappropriateDescription(focused.AppName, result.RawText),
	}
	id, err := m.store.InsertAlert(ctx, alert)
	if err != nil {
		m.logger.Error("insert alert failed", logging.Error(err))
		return
	}
	m.logger.Warn("inappropriate content alert raised",
		logging.Int64("alert_id", id),
		logging.String("app", focused.AppName))

	if !m.notifyInappropriate {
		return
	}
	if err := m.notifier.NotifyInappropriateApp(ctx, focused.AppName, alert.Description); err != nil {
		m.logger.Warn("inappropriate alert notification failed", logging.Error(err))
		return
	}
	if err := m.store.MarkAlertNotified(ctx, id); err != nil {
		m.logger.Warn("mark alert notified failed", logging.Error(err))
	}
}

func (m *Monitor) checkExcessiveUsage(ctx context.Context, focused *capture.FocusedApp) {
	count, err := m.store.CountUsageToday(ctx, focused.AppName)
	if err != nil {
		m.logger.Error("count usage failed", logging.Error(err))
		return
	}
	if count < m.usageThreshold {
		return
	}

	alert := &usage.Alert{
		SessionID:   m.sessionID,
		AppName:     focused.AppName,
		WindowName:  focused.WindowName,
		Type:        usage.AlertExcessiveUsage,
		Severity:    string(engine.SeverityMedium),
		Description: fmt.Sprintf("Excessive screen time detected: %s used %d times today", focused.AppName, count),
	}
	id, err := m.store.InsertAlert(ctx, alert)
	if err != nil {
		m.logger.Error("insert alert failed", logging.Error(err))
		return
	}
	m.logger.Warn("excessive usage alert raised",
		logging.Int64("alert_id", id),
		logging.String("app", focused.AppName),
		logging.Int("count", count))

	// Push only on the first crossing to keep the notification channel quiet.
	if !m.notifyUsage || count != m.usageThreshold {
		return
	}
	if err := m.notifier.NotifyExcessiveUsage(ctx, focused.AppName, count); err != nil {
		m.logger.Warn("excessive usage notification failed", logging.Error(err))
		return
	}
	if err := m.store.MarkAlertNotified(ctx, id); err != nil {
		m.logger.Warn("mark alert notified failed", logging.Error(err))
	}
}

func (m *Monitor) notifyQuotaOnce(ctx context.Context) {
	if !m.notifyQuota {
		return
	}
	m.mu.Lock()
	already := m.quotaNotified
	m.quotaNotified = true
	m.mu.Unlock()
	if already {
		return
	}
	if err := m.notifier.NotifyQuotaExhausted(ctx); err != nil {
		m.logger.Warn("quota notification failed", logging.Error(err))
	}
}

func (m *Monitor) resetQuotaNotice() {
	m.mu.Lock()
	m.quotaNotified = false
	m.mu.Unlock()
}

func inappropriateDescription(appName, rawText string) string {
	snippet := strings.TrimSpace(rawText)
	if runes := []rune(snippet); len(runes) > 100 {
		snippet = string(runes[:100]) + "..."
	}
	if snippet == "" {
		return fmt.Sprintf("Inappropriate app in use: %s", appName)
	}
	return fmt.Sprintf("Inappropriate app in use: %s. Analysis: %s", appName, snippet)
}
