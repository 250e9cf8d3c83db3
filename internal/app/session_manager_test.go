package app

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/talentecho/talentecho/internal/analysis"
	"github.com/talentecho/talentecho/internal/config"
	"github.com/talentecho/talentecho/internal/session"
	"github.com/talentecho/talentecho/pkg/interview"
	analysismock "github.com/talentecho/talentecho/pkg/provider/analysis/mock"
	ttsmock "github.com/talentecho/talentecho/pkg/provider/tts/mock"
	"github.com/talentecho/talentecho/pkg/questionbank"
	reportmock "github.com/talentecho/talentecho/pkg/report/mock"
)

// testConfig returns a server config tuned so sessions finish in
// milliseconds: tight silence window, no feedback pause.
func testConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{
			Personality:     interview.PersonalityFriendlyHR,
			Difficulty:      interview.DifficultyIntermediate,
			FeedbackPauseMS: 1,
			VAD: config.VADConfig{
				Threshold:       15,
				SilenceWindowMS: 20,
			},
		},
	}
}

func newManager(t *testing.T) (*SessionManager, *reportmock.Store) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	reports := &reportmock.Store{}
	sm := NewSessionManager(SessionManagerConfig{
		Config: testConfig(),
		TTS:    &ttsmock.Provider{SynthesizeResult: make([]byte, 480)},
		Gateway: analysis.NewGateway(&analysismock.Provider{
			AnalyzeAnswerResult: &interview.Feedback{
				Summary: "Nice work.",
				Scores:  interview.Scores{Voice: 7, Content: 8, BodyLanguage: 6},
			},
		}, analysis.WithLogger(log)),
		Reports: reports,
		Logger:  log,
	})
	return sm, reports
}

func TestSessionManager_SingleActiveSession(t *testing.T) {
	sm, _ := newManager(t)

	if _, err := sm.Create(interview.Settings{Questions: []string{"one"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := sm.Create(interview.Settings{Questions: []string{"two"}}); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second Create: got %v, want ErrSessionActive", err)
	}

	// Ending an unstarted session frees the slot with no results.
	if _, err := sm.End(t.Context()); !errors.Is(err, session.ErrNoResults) {
		t.Fatalf("End unstarted: got %v, want ErrNoResults", err)
	}
	if sm.IsActive() {
		t.Error("manager should be idle after End")
	}
	if _, err := sm.Create(interview.Settings{Questions: []string{"three"}}); err != nil {
		t.Fatalf("Create after End: %v", err)
	}
}

func TestSessionManager_RunToCompletion(t *testing.T) {
	sm, reports := newManager(t)

	info, err := sm.Create(interview.Settings{
		Questions: []string{"Tell me about yourself."},
		OwnerKey:  "tester@example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if info.QuestionCount != 1 {
		t.Errorf("QuestionCount: got %d, want 1", info.QuestionCount)
	}

	// Drain playback so real-time pacing never blocks the session.
	out, err := sm.Playback()
	if err != nil {
		t.Fatalf("Playback: %v", err)
	}
	go func() {
		for range out {
		}
	}()

	if err := sm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	rep, err := sm.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(rep.Results) != 1 {
		t.Fatalf("results: got %d, want 1", len(rep.Results))
	}
	if sm.IsActive() {
		t.Error("manager should be idle after completion")
	}

	saved := reports.Saved()
	if len(saved) != 1 || saved[0].OwnerKey != "tester@example.com" {
		t.Errorf("report not saved under owner: %+v", saved)
	}
}

func TestSessionManager_EndDuringRun(t *testing.T) {
	sm, _ := newManager(t)

	if _, err := sm.Create(interview.Settings{Questions: questionbank.Full()}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	// No answers completed yet, so the early end has nothing to report.
	if _, err := sm.End(ctx); !errors.Is(err, session.ErrNoResults) {
		t.Fatalf("End: got %v, want ErrNoResults", err)
	}
	if sm.IsActive() {
		t.Error("manager should be idle after End")
	}
}

func TestSessionManager_DefaultsFromConfig(t *testing.T) {
	sm, _ := newManager(t)

	info, err := sm.Create(interview.Settings{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if info.Type != interview.SessionQuick {
		t.Errorf("Type: got %q, want quick", info.Type)
	}
	if want := len(questionbank.Quick()); info.QuestionCount != want {
		t.Errorf("QuestionCount: got %d, want %d", info.QuestionCount, want)
	}
}

func TestSessionManager_ResumeNeedsQuestions(t *testing.T) {
	sm, _ := newManager(t)

	_, err := sm.Create(interview.Settings{Type: interview.SessionResume})
	if err == nil {
		t.Fatal("expected error for resume session without questions")
	}
}

func TestSessionManager_IdleErrors(t *testing.T) {
	sm, _ := newManager(t)

	if _, _, err := sm.Status(); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Status: got %v, want ErrNoActiveSession", err)
	}
	if _, err := sm.Audio(); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Audio: got %v, want ErrNoActiveSession", err)
	}
	if _, err := sm.Playback(); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Playback: got %v, want ErrNoActiveSession", err)
	}
	if _, err := sm.End(t.Context()); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("End: got %v, want ErrNoActiveSession", err)
	}
}
