package engine

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"
	"time"

	"guardian/internal/analysis"
	"guardian/internal/capture"
	"guardian/internal/ratelimit"
	"guardian/internal/services/gemini"
	"guardian/internal/transcript"
)

type stubCapture struct {
	records []capture.OcrRecord
	focused *capture.FocusedApp
	err     error
}

func (s *stubCapture) QueryText(_ context.Context, _ time.Time, _ string) ([]capture.OcrRecord, error) {
	return s.records, s.err
}

func (s *stubCapture) CurrentFocusedApp(_ context.Context) (*capture.FocusedApp, error) {
	return s.focused, nil
}

type stubCompleter struct {
	answer       string
	err          error
	calls        int
	lastPrompt   string
	lastInstruct string
}

func (s *stubCompleter) Complete(_ context.Context, transcript, instruction string) (string, error) {
	s.calls++
	s.lastPrompt = transcript
	s.lastInstruct = instruction
	return s.answer, s.err
}

func record(at time.Time, app, window, text string) capture.OcrRecord {
	return capture.OcrRecord{Timestamp: at, AppName: app, WindowName: window, Text: text}
}

func TestAnswerQueryEmptyWindowSkipsModel(t *testing.T) {
	source := &stubCapture{records: []capture.OcrRecord{
		record(time.Now(), "Chrome", "Reddit", "   "),
	}}
	model := &stubCompleter{answer: "should not be used"}
	eng := New(source, model, Options{}, nil)

	got := eng.AnswerQuery(context.Background(), "what am I reading?")
	if got != transcript.NoContentMessage {
		t.Fatalf("expected no-content sentinel, got %q", got)
	}
	if model.calls != 0 {
		t.Fatalf("model must not be called for an empty window, saw %d calls", model.calls)
	}
}

func TestAnswerQueryReturnsModelAnswer(t *testing.T) {
	source := &stubCapture{records: []capture.OcrRecord{
		record(time.Now(), "Chrome", "Reddit", "front page posts"),
	}}
	model := &stubCompleter{answer: "You are browsing Reddit."}
	eng := New(source, model, Options{}, nil)

	got := eng.AnswerQuery(context.Background(), "what am I reading?")
	if got != "You are browsing Reddit." {
		t.Fatalf("unexpected answer %q", got)
	}
	if model.lastInstruct != "what am I reading?" {
		t.Fatalf("instruction should be the raw user text, got %q", model.lastInstruct)
	}
	if !strings.Contains(model.lastPrompt, "front page posts") {
		t.Fatalf("transcript missing record text: %q", model.lastPrompt)
	}
}

func TestAnswerQueryUserMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing credential", gemini.ErrMissingCredential, "Error: Google API key not set. Please set the GOOGLE_API_KEY environment variable."},
		{"daily quota", ratelimit.ErrDailyQuotaExceeded, "Daily request limit reached. Please try again tomorrow."},
		{"rate limited", gemini.ErrRateLimited, "Rate limit exceeded. Please try again later."},
		{"no candidates", gemini.ErrNoCandidates, "No response generated. This might be due to safety filters or content policy."},
		{"api error", &gemini.StatusError{StatusCode: http.StatusBadRequest, Message: "bad prompt"}, "Google Gemini API error: 400 - bad prompt"},
		{"transport", errors.New("dial tcp: connection refused"), "Error querying Google Gemini: dial tcp: connection refused"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			source := &stubCapture{records: []capture.OcrRecord{
				record(time.Now(), "Chrome", "Reddit", "some text"),
			}}
			model := &stubCompleter{err: tc.err}
			eng := New(source, model, Options{}, nil)

			if got := eng.AnswerQuery(context.Background(), "query"); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassifyCurrentApp(t *testing.T) {
	source := &stubCapture{
		records: []capture.OcrRecord{
			record(time.Now(), "Chrome", "Reddit", "some text"),
		},
		focused: &capture.FocusedApp{AppName: "Chrome", WindowName: "Reddit"},
	}
	model := &stubCompleter{
		answer: "Category of App: Social Media\nIs this App suitable for minors: No, it is not appropriate\nPotential concern: time sink\nScores 9/10 for learning value",
	}
	eng := New(source, model, Options{}, nil)

	result, err := eng.ClassifyCurrentApp(context.Background())
	if err != nil {
		t.Fatalf("ClassifyCurrentApp returned error: %v", err)
	}
	if result.Category != analysis.CategorySocialMedia {
		t.Fatalf("Category = %q", result.Category)
	}
	if result.IsAppropriate {
		t.Fatal("expected not appropriate")
	}
	if result.EducationalValue != 9 {
		t.Fatalf("EducationalValue = %d", result.EducationalValue)
	}
	if !reflect.DeepEqual(result.Concerns, []string{"time sink"}) {
		t.Fatalf("Concerns = %#v", result.Concerns)
	}

	if !strings.Contains(model.lastInstruct, "Category of App:") {
		t.Fatalf("instruction missing labeled format: %q", model.lastInstruct)
	}
	if !strings.Contains(model.lastInstruct, "Current app name according to system: Chrome Reddit") {
		t.Fatalf("instruction missing focused app: %q", model.lastInstruct)
	}
}

func TestClassifyCurrentAppNoFocusedApp(t *testing.T) {
	source := &stubCapture{records: []capture.OcrRecord{
		record(time.Now(), "Chrome", "Reddit", "some text"),
	}}
	model := &stubCompleter{answer: "Category of App: Productivity"}
	eng := New(source, model, Options{}, nil)

	if _, err := eng.ClassifyCurrentApp(context.Background()); err != nil {
		t.Fatalf("ClassifyCurrentApp returned error: %v", err)
	}
	if !strings.Contains(model.lastInstruct, "Current app name according to system: Unknown") {
		t.Fatalf("expected Unknown fallback, got %q", model.lastInstruct)
	}
}

func TestClassifyCurrentAppEmptyWindow(t *testing.T) {
	source := &stubCapture{}
	model := &stubCompleter{}
	eng := New(source, model, Options{}, nil)

	if _, err := eng.ClassifyCurrentApp(context.Background()); !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
	if model.calls != 0 {
		t.Fatalf("model must not be called, saw %d calls", model.calls)
	}
}

func TestClassifyCurrentAppModelFailure(t *testing.T) {
	source := &stubCapture{records: []capture.OcrRecord{
		record(time.Now(), "Chrome", "Reddit", "some text"),
	}}
	model := &stubCompleter{err: gemini.ErrRateLimited}
	eng := New(source, model, Options{}, nil)

	result, err := eng.ClassifyCurrentApp(context.Background())
	if !errors.Is(err, gemini.ErrRateLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if result.Category != analysis.CategoryUnknown {
		t.Fatalf("failed classification should carry Unknown defaults, got %+v", result)
	}
}

func TestAlertPolicy(t *testing.T) {
	if !InappropriateAlert(analysis.AppAnalysis{IsAppropriate: false}) {
		t.Fatal("inappropriate analysis must be alert-worthy")
	}
	if InappropriateAlert(analysis.AppAnalysis{IsAppropriate: true}) {
		t.Fatal("appropriate analysis must not alert")
	}
	if ExcessiveUsageAlert(2) {
		t.Fatal("count below threshold must not alert")
	}
	if !ExcessiveUsageAlert(3) {
		t.Fatal("count at threshold must alert")
	}
}
