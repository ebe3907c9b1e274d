package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"guardian/internal/config"
)

const userAgent = "Guardian-Go/0.1.0"

// Service defines the notification surface exposed to the monitoring loop
// and the CLI.
type Service interface {
	NotifyInappropriateApp(ctx context.Context, appName, detail string) error
	NotifyExcessiveUsage(ctx context.Context, appName string, count int) error
	NotifyQuotaExhausted(ctx context.Context) error
	NotifyMonitoringStarted(ctx context.Context, interval time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyInappropriateApp(ctx context.Context, appName, detail string) error {
	appName = strings.TrimSpace(appName)
	message := fmt.Sprintf("Inappropriate app in use: %s", appName)
	if detail = strings.TrimSpace(detail); detail != "" {
		message = fmt.Sprintf("%s\n%s", message, detail)
	}
	data := payload{
		title:    "Guardian - Inappropriate Content",
		message:  message,
		tags:     []string{"guardian", "inappropriate", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExcessiveUsage(ctx context.Context, appName string, count int) error {
	appName = strings.TrimSpace(appName)
	data := payload{
		title:   "Guardian - Excessive Usage",
		message: fmt.Sprintf("Excessive screen time detected: %s used %d times today", appName, count),
		tags:    []string{"guardian", "usage", "alert"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQuotaExhausted(ctx context.Context) error {
	data := payload{
		title:    "Guardian - Quota Exhausted",
		message:  "Daily model request quota reached. Monitoring pauses until tomorrow.",
		tags:     []string{"guardian", "quota"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMonitoringStarted(ctx context.Context, interval time.Duration) error {
	interval = interval.Round(time.Second)
	data := payload{
		title:   "Guardian - Monitoring Started",
		message: fmt.Sprintf("Screen monitoring started, checking every %s", interval),
		tags:    []string{"guardian", "monitor", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Guardian - Error",
		message:  builder.String(),
		tags:     []string{"guardian", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Guardian - Test",
		message:  "Notification system test",
		tags:     []string{"guardian", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyInappropriateApp(context.Context, string, string) error       { return nil }
func (noopService) NotifyExcessiveUsage(context.Context, string, int) error            { return nil }
func (noopService) NotifyQuotaExhausted(context.Context) error                         { return nil }
func (noopService) NotifyMonitoringStarted(context.Context, time.Duration) error       { return nil }
func (noopService) NotifyError(context.Context, error, string) error                   { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
