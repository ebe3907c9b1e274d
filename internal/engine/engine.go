package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"guardian/internal/analysis"
	"guardian/internal/capture"
	"guardian/internal/ratelimit"
	"guardian/internal/services/gemini"
	"guardian/internal/transcript"
)

const (
	defaultWindowSeconds = 300
	defaultMaxLength     = 4000
)

// ErrNoContent indicates the capture window held no usable OCR text. Not a
// failure: callers surface the sentinel message and skip the model call.
var ErrNoContent = errors.New("no screen content in window")

// CaptureSource is the read-only view of the capture store the engine needs.
type CaptureSource interface {
	QueryText(ctx context.Context, since time.Time, appFilter string) ([]capture.OcrRecord, error)
	CurrentFocusedApp(ctx context.Context) (*capture.FocusedApp, error)
}

// Completer sends a transcript plus instruction to the model.
// Implemented by gemini.Client.
type Completer interface {
	Complete(ctx context.Context, transcript, instruction string) (string, error)
}

// Options bound the transcript the engine feeds to the model.
type Options struct {
	TimeWindowSeconds   int
	MaxTranscriptLength int
}

// Engine drives the query-and-classification pipeline.
type Engine struct {
	source        CaptureSource
	model         Completer
	builder       *transcript.Builder
	windowSeconds int
	logger        *slog.Logger
}

// New constructs an engine over the given capture source and model client.
// Transcript options (such as a test clock) are forwarded to the builder.
func New(source CaptureSource, model Completer, opts Options, logger *slog.Logger, buildOpts ...transcript.Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.TimeWindowSeconds <= 0 {
		opts.TimeWindowSeconds = defaultWindowSeconds
	}
	if opts.MaxTranscriptLength <= 0 {
		opts.MaxTranscriptLength = defaultMaxLength
	}
	return &Engine{
		source:        source,
		model:         model,
		builder:       transcript.NewBuilder(source, opts.MaxTranscriptLength, buildOpts...),
		windowSeconds: opts.TimeWindowSeconds,
		logger:        logger,
	}
}

// AnswerQuery answers a free-form question about recent screen content. The
// result is always a user-visible string: the model's answer on success, a
// descriptive message on any failure.
func (e *Engine) AnswerQuery(ctx context.Context, userText string) string {
	rendered, err := e.builder.Build(ctx, e.windowSeconds, "")
	if err != nil {
		e.logger.Error("transcript build failed", slog.Any("error", err))
		return "Error reading screen capture history: " + err.Error()
	}
	if transcript.IsEmpty(rendered) {
		return transcript.NoContentMessage
	}

	answer, err := e.model.Complete(ctx, rendered, userText)
	if err != nil {
		e.logger.Warn("model query failed", slog.Any("error", err))
		return UserMessage(err)
	}
	return answer
}

// ClassifyCurrentApp analyzes the application currently in use. On model
// failure the returned analysis carries Unknown defaults so callers can still
// record the attempt.
func (e *Engine) ClassifyCurrentApp(ctx context.Context) (analysis.AppAnalysis, error) {
	rendered, err := e.builder.Build(ctx, e.windowSeconds, "")
	if err != nil {
		return analysis.AppAnalysis{}, fmt.Errorf("classify current app: %w", err)
	}
	if transcript.IsEmpty(rendered) {
		return analysis.AppAnalysis{}, ErrNoContent
	}

	appName, windowName := "Unknown", ""
	if focused, err := e.source.CurrentFocusedApp(ctx); err != nil {
		e.logger.Warn("focused app lookup failed", slog.Any("error", err))
	} else if focused != nil {
		appName, windowName = focused.AppName, focused.WindowName
	}

	answer, err := e.model.Complete(ctx, rendered, classificationInstruction(appName, windowName))
	if err != nil {
		e.logger.Warn("model classification failed", slog.Any("error", err))
		return analysis.Unknown(""), err
	}
	return analysis.Interpret(answer), nil
}

// classificationInstruction asks the model for a labeled response the
// interpreter knows how to scan.
func classificationInstruction(appName, windowName string) string {
	return fmt.Sprintf(`analyze the application that appears to be in use.
If you can identify the app, provide the following information in this exact format:

Currently Using: [App Name]
Category of App: [App Category - e.g., Social Media, Productivity, Gaming, etc.]
Is this App suitable for minors: [Yes/No]
The recommended usage time for minors: [Recommended time]
Age Rating: [Appropriate age rating]
Potential Concerns: [List any potential concerns for parents]
Educational Value: [Rate from 1-10 and explain]
Alternative Apps: [Suggest 2-3 more educational/appropriate alternatives if needed]

If the app name is clearly visible in the OCR text, use that. Otherwise, make your best guess based on the content.
Current app name according to system: %s`, strings.TrimSpace(appName+" "+windowName))
}

// UserMessage translates a model-layer error into the message shown to the
// user. Unrecognized errors are surfaced with their detail rather than
// swallowed.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, gemini.ErrMissingCredential):
		return "Error: Google API key not set. Please set the GOOGLE_API_KEY environment variable."
	case errors.Is(err, ratelimit.ErrDailyQuotaExceeded):
		return "Daily request limit reached. Please try again tomorrow."
	case errors.Is(err, gemini.ErrRateLimited):
		return "Rate limit exceeded. Please try again later."
	case errors.Is(err, gemini.ErrNoCandidates):
		return "No response generated. This might be due to safety filters or content policy."
	}
	var statusErr *gemini.StatusError
	if errors.As(err, &statusErr) {
		msg := fmt.Sprintf("Google Gemini API error: %d", statusErr.StatusCode)
		if statusErr.Message != "" {
			msg += " - " + statusErr.Message
		}
		return msg
	}
	return "Error querying Google Gemini: " + err.Error()
}
