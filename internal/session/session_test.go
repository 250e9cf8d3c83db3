package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/talentecho/talentecho/internal/analysis"
	"github.com/talentecho/talentecho/internal/speech"
	"github.com/talentecho/talentecho/internal/vad"
	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/media"
	mediamock "github.com/talentecho/talentecho/pkg/media/mock"
	analysisprovider "github.com/talentecho/talentecho/pkg/provider/analysis"
	analysismock "github.com/talentecho/talentecho/pkg/provider/analysis/mock"
	ttsmock "github.com/talentecho/talentecho/pkg/provider/tts/mock"
	reportmock "github.com/talentecho/talentecho/pkg/report/mock"
)

// nopPlayer satisfies speech.Player without producing audio, so session runs
// are bounded by the VAD window rather than playback duration.
type nopPlayer struct{}

func (nopPlayer) Play(context.Context, *speech.Buffer) error { return nil }
func (nopPlayer) Mute()                                      {}

// failingPlayer rejects every playback attempt with a fixed error.
type failingPlayer struct{ err error }

func (p failingPlayer) Play(context.Context, *speech.Buffer) error { return p.err }
func (failingPlayer) Mute()                                        {}

type harness struct {
	session  *Session
	tts      *ttsmock.Provider
	analysis *analysismock.Provider
	stream   *mediamock.Stream
	reports  *reportmock.Store
}

func goodFeedback(summary string) *interview.Feedback {
	return &interview.Feedback{
		Summary: summary,
		Scores:  interview.Scores{Voice: 7, Content: 8, BodyLanguage: 6},
	}
}

// newHarness builds a session over mocks tuned so silence fires within a few
// milliseconds of entering the listening phase.
func newHarness(t *testing.T, settings interview.Settings, mutate func(*Config)) *harness {
	t.Helper()

	tp := &ttsmock.Provider{SynthesizeResult: make([]byte, 480)}
	ap := &analysismock.Provider{AnalyzeAnswerResult: goodFeedback("Nice work.")}
	stream := mediamock.NewStream()
	reports := &reportmock.Store{}
	log := slog.New(slog.DiscardHandler)

	cfg := Config{
		Settings: settings,
		Platform: &mediamock.Platform{StreamResult: stream},
		Speech:   speech.NewEngine(tp, nopPlayer{}, speech.WithLogger(log)),
		Gateway:  analysis.NewGateway(ap, analysis.WithLogger(log)),
		Reports:  reports,
		VADOptions: []vad.Option{
			vad.WithSilenceWindow(20 * time.Millisecond),
			vad.WithPollInterval(2 * time.Millisecond),
		},
		FeedbackPause: time.Millisecond,
		Logger:        log,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	sess, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{session: sess, tts: tp, analysis: ap, stream: stream, reports: reports}
}

func quickSettings(questions ...string) interview.Settings {
	return interview.Settings{
		Type:      interview.SessionQuick,
		Questions: questions,
		OwnerKey:  "tester@example.com",
	}
}

func spokenTexts(tp *ttsmock.Provider) []string {
	calls := tp.Calls()
	texts := make([]string, len(calls))
	for i, c := range calls {
		texts[i] = c.Text
	}
	return texts
}

func containsPrefix(texts []string, prefix string) bool {
	for _, s := range texts {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	if err == nil {
		t.Fatal("expected validation error for empty config")
	}
	for _, want := range []string{"questions", "platform", "speech", "gateway"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got %v", want, err)
		}
	}

	_, err = New(Config{Settings: interview.Settings{
		Questions:   []string{"q"},
		Personality: "Unknown Persona",
	}})
	if err == nil || !strings.Contains(err.Error(), "personality") {
		t.Errorf("expected personality validation error, got %v", err)
	}
}

func TestSession_RunCompletes(t *testing.T) {
	h := newHarness(t, quickSettings(
		"Tell me about yourself.",
		"Why do you want this role?",
	), nil)

	rep, err := h.session.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep == nil {
		t.Fatal("expected a report")
	}
	if !strings.HasPrefix(rep.ID, "interview-") {
		t.Errorf("unexpected report ID %q", rep.ID)
	}
	if rep.Type != interview.SessionQuick {
		t.Errorf("unexpected session type %q", rep.Type)
	}
	if len(rep.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(rep.Results))
	}
	if rep.Results[0].Question != "Tell me about yourself." {
		t.Errorf("unexpected first question %q", rep.Results[0].Question)
	}
	// mean(7,8,6) = 7 per question, rounded overall 7.
	if rep.OverallScore != 7 {
		t.Errorf("expected overall score 7, got %d", rep.OverallScore)
	}

	texts := spokenTexts(h.tts)
	if !containsPrefix(texts, "Let's begin. Question 1. Tell me about yourself.") {
		t.Errorf("opening narration missing from %q", texts)
	}
	if !containsPrefix(texts, "Question 2. Why do you want this role?") {
		t.Errorf("second question narration missing from %q", texts)
	}
	if !containsPrefix(texts, "Nice work.") {
		t.Errorf("feedback narration missing from %q", texts)
	}

	if h.session.Phase() != PhaseCompleted {
		t.Errorf("expected completed phase, got %s", h.session.Phase())
	}
	if h.stream.Releases() == 0 {
		t.Error("stream was never released")
	}

	saved := h.reports.Saved()
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved report, got %d", len(saved))
	}
	if saved[0].OwnerKey != "tester@example.com" {
		t.Errorf("report saved under wrong owner %q", saved[0].OwnerKey)
	}
}

func TestSession_AcquireFailureIsFatal(t *testing.T) {
	h := newHarness(t, quickSettings("q"), func(cfg *Config) {
		cfg.Platform = &mediamock.Platform{AcquireErr: media.ErrPermissionDenied}
	})

	_, err := h.session.Run(t.Context())
	if !errors.Is(err, media.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if h.session.Phase() != PhaseCompleted {
		t.Errorf("expected completed phase after fatal acquire, got %s", h.session.Phase())
	}
}

func TestSession_PlaybackFailureLandsCompleted(t *testing.T) {
	playErr := errors.New("output device gone")
	h := newHarness(t, quickSettings("q"), func(cfg *Config) {
		cfg.Speech = speech.NewEngine(
			&ttsmock.Provider{SynthesizeResult: make([]byte, 480)},
			failingPlayer{err: playErr},
			speech.WithLogger(slog.New(slog.DiscardHandler)),
		)
	})

	_, err := h.session.Run(t.Context())
	if !errors.Is(err, playErr) {
		t.Fatalf("expected playback error, got %v", err)
	}
	if h.session.Phase() != PhaseCompleted {
		t.Errorf("expected completed phase after mid-run failure, got %s", h.session.Phase())
	}
}

func TestSession_RepeatRequestReasksWithoutResult(t *testing.T) {
	h := newHarness(t, quickSettings("Describe a project you led."), nil)

	var calls int
	h.analysis.AnalyzeAnswerFunc = func(ctx context.Context, req analysisprovider.AnswerRequest) (*interview.Feedback, error) {
		calls++
		if calls == 1 {
			return &interview.Feedback{RepeatRequested: true}, nil
		}
		return goodFeedback("Better this time."), nil
	}

	rep, err := h.session.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Results) != 1 {
		t.Fatalf("repeat must not record a result: got %d", len(rep.Results))
	}
	if calls != 2 {
		t.Errorf("expected question analysed twice, got %d", calls)
	}

	texts := spokenTexts(h.tts)
	if !containsPrefix(texts, "No problem, repeating the question. Describe a project you led.") {
		t.Errorf("repeat narration missing from %q", texts)
	}
}

func TestSession_FollowUpSuggestionJumpsQueue(t *testing.T) {
	h := newHarness(t, quickSettings(
		"Tell me about yourself.",
		"Where do you see yourself in five years?",
	), nil)

	h.analysis.AnalyzeAnswerFunc = func(ctx context.Context, req analysisprovider.AnswerRequest) (*interview.Feedback, error) {
		fb := goodFeedback("Good.")
		if req.Question == "Tell me about yourself." {
			fb.SuggestedNextQuestion = "Which part of that work are you proudest of?"
			fb.IsFollowUp = true
		}
		return fb, nil
	}

	rep, err := h.session.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Results) != 3 {
		t.Fatalf("expected 3 results with follow-up, got %d", len(rep.Results))
	}
	if rep.Results[1].Question != "Which part of that work are you proudest of?" {
		t.Errorf("follow-up should be asked second, got order %q, %q, %q",
			rep.Results[0].Question, rep.Results[1].Question, rep.Results[2].Question)
	}
	if rep.Results[2].Question != "Where do you see yourself in five years?" {
		t.Errorf("original second question should be asked last, got %q", rep.Results[2].Question)
	}
}

func TestSession_EndManuallyWithNoResults(t *testing.T) {
	h := newHarness(t, quickSettings("q1", "q2"), nil)
	h.session.EndManually()

	_, err := h.session.Run(t.Context())
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
	if len(h.reports.Saved()) != 0 {
		t.Error("no report should be saved for an empty session")
	}
}

func TestSession_EndManuallyDiscardsInFlightAnalysis(t *testing.T) {
	h := newHarness(t, quickSettings("q1"), nil)

	analysing := make(chan struct{})
	release := make(chan struct{})
	h.analysis.AnalyzeAnswerFunc = func(ctx context.Context, req analysisprovider.AnswerRequest) (*interview.Feedback, error) {
		close(analysing)
		<-release
		return goodFeedback("late"), nil
	}

	h.session.Start(t.Context())
	<-analysing
	h.session.EndManually()
	close(release)
	<-h.session.Done()

	_, err := h.session.Result()
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected late analysis to be discarded, got %v", err)
	}
}

func TestSession_StartAndDone(t *testing.T) {
	h := newHarness(t, quickSettings("q"), nil)

	h.session.Start(t.Context())
	h.session.Start(t.Context()) // second call is a no-op

	select {
	case <-h.session.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish in time")
	}

	rep, err := h.session.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if len(rep.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(rep.Results))
	}
}

func TestSession_SaveFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, quickSettings("q"), nil)
	h.reports.SaveErr = errors.New("disk full")

	rep, err := h.session.Run(t.Context())
	if err != nil {
		t.Fatalf("Run should not fail on persistence error, got %v", err)
	}
	if rep == nil || len(rep.Results) != 1 {
		t.Fatalf("expected report despite save failure, got %+v", rep)
	}
}

func TestSession_Snapshot(t *testing.T) {
	h := newHarness(t, quickSettings("q1", "q2"), nil)

	snap := h.session.Snapshot()
	if snap.Phase != PhaseInitializing {
		t.Errorf("expected initializing phase, got %s", snap.Phase)
	}
	if snap.Question != "q1" || snap.QuestionIndex != 0 || snap.QuestionCount != 2 {
		t.Errorf("unexpected question state: %+v", snap)
	}

	if _, err := h.session.Run(t.Context()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap = h.session.Snapshot()
	if snap.Phase != PhaseCompleted {
		t.Errorf("expected completed phase, got %s", snap.Phase)
	}
	if len(snap.Results) != 2 {
		t.Errorf("expected 2 results in snapshot, got %d", len(snap.Results))
	}
	if snap.LastFeedback == nil {
		t.Error("expected last feedback in snapshot")
	}
}
