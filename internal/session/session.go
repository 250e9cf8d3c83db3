// Package session orchestrates a live interview: it asks questions out loud,
// records the candidate's answer until silence, sends the recording for
// analysis, reads the feedback back, and compiles the final report.
//
// A session is a sequential state machine (see [Phase]); there is exactly one
// run loop per session and all state mutation happens inside it. External
// callers interact through Start, EndManually, and Snapshot only.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talentecho/talentecho/internal/analysis"
	"github.com/talentecho/talentecho/internal/observe"
	"github.com/talentecho/talentecho/internal/speech"
	"github.com/talentecho/talentecho/internal/vad"
	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/media"
	analysisprovider "github.com/talentecho/talentecho/pkg/provider/analysis"
	"github.com/talentecho/talentecho/pkg/report"
)

// ErrNoResults is returned when a session ends before any answer was
// analysed, so there is nothing to compile into a report.
var ErrNoResults = errors.New("session: no results to report")

// DefaultFeedbackPause is how long the session idles after feedback playback
// before asking the next question.
const DefaultFeedbackPause = 2 * time.Second

// Config wires a Session to its collaborators.
type Config struct {
	// Settings is the interview configuration. Questions must be non-empty.
	Settings interview.Settings

	// Platform provides the candidate's audio stream.
	Platform media.Platform

	// Speech plays interviewer utterances.
	Speech *speech.Engine

	// Gateway analyses recorded answers. Never fails by contract.
	Gateway *analysis.Gateway

	// Reports persists the compiled report. Optional; persistence failures
	// are logged, not fatal.
	Reports report.Store

	// SaveMedia, when set, persists a recording and returns an opaque
	// reference stored on the question result. Optional.
	SaveMedia func(ctx context.Context, rec media.Recording) (string, error)

	// FeedbackPause overrides [DefaultFeedbackPause]. Zero means default.
	FeedbackPause time.Duration

	// VADOptions tune the per-question silence detectors.
	VADOptions []vad.Option

	// Metrics, when set, receives phase durations and the active-session
	// gauge. Optional.
	Metrics *observe.Metrics

	// Logger defaults to [slog.Default].
	Logger *slog.Logger
}

// Snapshot is a point-in-time view of a running session.
type Snapshot struct {
	Phase         Phase                      `json:"phase"`
	Question      string                     `json:"question,omitempty"`
	QuestionIndex int                        `json:"questionIndex"`
	QuestionCount int                        `json:"questionCount"`
	Level         float64                    `json:"level"`
	LastFeedback  *interview.Feedback        `json:"lastFeedback,omitempty"`
	Results       []interview.QuestionResult `json:"results"`
}

// Session is a single interview run. Create with New, drive with Start or
// Run, stop early with EndManually.
type Session struct {
	cfg   Config
	log   *slog.Logger
	pause time.Duration

	queue    *Queue
	meter    *media.Meter
	recorder *media.Recorder

	mu           sync.Mutex
	phase        Phase
	phaseSince   time.Time
	results      []interview.QuestionResult
	lastFeedback *interview.Feedback
	epoch        int
	ended        bool

	endCh   chan struct{}
	endOnce sync.Once

	startOnce    sync.Once
	teardownOnce sync.Once
	stream       media.Stream

	done      chan struct{}
	runReport *interview.Report
	runErr    error
}

// New validates cfg and creates a session in [PhaseInitializing].
func New(cfg Config) (*Session, error) {
	var errs []error
	if len(cfg.Settings.Questions) == 0 {
		errs = append(errs, errors.New("settings: questions must not be empty"))
	}
	if cfg.Settings.Personality != "" && !cfg.Settings.Personality.IsValid() {
		errs = append(errs, fmt.Errorf("settings: unknown personality %q", cfg.Settings.Personality))
	}
	if cfg.Settings.Difficulty != "" && !cfg.Settings.Difficulty.IsValid() {
		errs = append(errs, fmt.Errorf("settings: unknown difficulty %q", cfg.Settings.Difficulty))
	}
	if cfg.Platform == nil {
		errs = append(errs, errors.New("platform must not be nil"))
	}
	if cfg.Speech == nil {
		errs = append(errs, errors.New("speech engine must not be nil"))
	}
	if cfg.Gateway == nil {
		errs = append(errs, errors.New("analysis gateway must not be nil"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("session: %w", errors.Join(errs...))
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	pause := cfg.FeedbackPause
	if pause == 0 {
		pause = DefaultFeedbackPause
	}

	return &Session{
		cfg:        cfg,
		log:        cfg.Logger,
		pause:      pause,
		queue:      NewQueue(cfg.Settings.Questions),
		meter:      media.NewMeter(),
		recorder:   media.NewRecorder(),
		phase:      PhaseInitializing,
		phaseSince: time.Now(),
		endCh:      make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Start launches the run loop in a background goroutine. Subsequent calls
// are no-ops. Use Done and Result to observe completion.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go func() {
			defer close(s.done)
			s.runReport, s.runErr = s.Run(ctx)
		}()
	})
}

// Done returns a channel closed when the run loop has finished.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Result returns the compiled report and run error. Valid after Done closes.
func (s *Session) Result() (*interview.Report, error) {
	return s.runReport, s.runErr
}

// EndManually stops the session early: playback is muted, any in-flight
// analysis is discarded, and the report is compiled from the answers already
// analysed. Safe to call from any goroutine, any number of times.
func (s *Session) EndManually() {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.ended = true
		s.epoch++
		s.mu.Unlock()
		s.cfg.Speech.Mute()
		close(s.endCh)
	})
}

// Snapshot returns the current observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Phase:         s.phase,
		Level:         s.meter.Level(),
		LastFeedback:  s.lastFeedback,
		QuestionCount: s.queue.Len(),
		Results:       append([]interview.QuestionResult(nil), s.results...),
	}
	if q, idx, ok := s.queue.Current(); ok {
		snap.Question = q
		snap.QuestionIndex = idx
	}
	return snap
}

// Run executes the interview to completion and returns the compiled report.
// It blocks; most callers want Start instead.
func (s *Session) Run(ctx context.Context) (*interview.Report, error) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ActiveSessions.Add(ctx, 1)
		defer s.cfg.Metrics.ActiveSessions.Add(context.WithoutCancel(ctx), -1)
	}

	stream, err := s.cfg.Platform.Acquire(ctx)
	if err != nil {
		s.teardown()
		return nil, fmt.Errorf("session: acquire media: %w", err)
	}
	s.stream = stream
	go s.pump(stream)
	defer s.teardown()

	first := true
	repeat := false
	for !s.isEnded() {
		question, idx, ok := s.queue.Current()
		if !ok {
			break
		}

		// Ask.
		s.setPhase(PhaseSpeakingQuestion)
		if err := s.cfg.Speech.Speak(ctx, questionNarration(question, idx, first, repeat)); err != nil {
			return nil, fmt.Errorf("session: speak question: %w", err)
		}
		first = false
		repeat = false
		if s.isEnded() {
			break
		}

		// Listen until sustained silence.
		s.setPhase(PhaseListening)
		s.meter.Reset()
		s.recorder.Start()
		if err := s.listen(ctx); err != nil {
			return nil, err
		}

		// Analyse.
		s.setPhase(PhaseProcessing)
		rec, recorded := s.recorder.Stop()
		if s.isEnded() {
			break
		}
		if !recorded {
			s.log.Warn("no recording captured for question", "index", idx)
		}
		epoch := s.currentEpoch()
		fb := s.cfg.Gateway.Analyze(ctx, s.answerRequest(question, rec))
		if s.isEnded() || epoch != s.currentEpoch() {
			// The candidate ended the session while analysis was running;
			// the late result must not land in the report.
			break
		}

		if fb.RepeatRequested {
			s.log.Info("repeat requested", "index", idx)
			repeat = true
			continue
		}

		s.recordResult(ctx, question, fb, rec)
		if fb.SuggestedNextQuestion != "" {
			if s.queue.ApplySuggestion(fb.SuggestedNextQuestion, fb.IsFollowUp) {
				s.log.Info("suggestion queued", "followUp", fb.IsFollowUp)
			} else {
				s.log.Info("suggestion rejected as duplicate")
			}
		}

		// Read feedback back, prefetching the next question's narration so
		// it is ready the moment the pause ends.
		s.setPhase(PhaseSpeakingFeedback)
		if nq, nidx, ok := s.queue.Peek(1); ok {
			s.cfg.Speech.Prefetch(ctx, questionNarration(nq, nidx, false, false))
		}
		if err := s.cfg.Speech.Speak(ctx, feedbackNarration(fb)); err != nil {
			return nil, fmt.Errorf("session: speak feedback: %w", err)
		}
		if err := s.pauseBeforeNext(ctx); err != nil {
			return nil, err
		}

		s.queue.Advance()
	}

	return s.compileReport(ctx)
}

// pump drains the capture stream into the level meter and recorder. It exits
// when the stream is released.
func (s *Session) pump(stream media.Stream) {
	for frame := range stream.Frames() {
		s.meter.Observe(frame)
		s.recorder.Write(frame)
	}
}

// listen blocks until the silence detector fires, the session is ended
// manually, or ctx is cancelled.
func (s *Session) listen(ctx context.Context) error {
	opts := append([]vad.Option{
		vad.WithActiveFunc(func() bool { return s.Phase() == PhaseListening && !s.isEnded() }),
		vad.WithLogger(s.log),
	}, s.cfg.VADOptions...)
	det := vad.New(s.meter.Level, opts...)
	det.Start(ctx)
	defer det.Stop()

	select {
	case <-det.Done():
		return nil
	case <-s.endCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// answerRequest assembles the analysis request for one recorded answer.
func (s *Session) answerRequest(question string, rec media.Recording) analysisprovider.AnswerRequest {
	req := analysisprovider.AnswerRequest{
		Question:    question,
		Media:       rec.Data,
		MimeType:    rec.MimeType,
		Personality: s.cfg.Settings.Personality,
		Difficulty:  s.cfg.Settings.Difficulty,
	}
	if nq, _, ok := s.queue.Peek(1); ok {
		req.NextPlannedQuestion = nq
	}
	return req
}

// recordResult appends the analysed answer, persisting the media first when
// a sink is configured.
func (s *Session) recordResult(ctx context.Context, question string, fb *interview.Feedback, rec media.Recording) {
	result := interview.QuestionResult{Question: question, Feedback: fb}
	if s.cfg.SaveMedia != nil && len(rec.Data) > 0 {
		ref, err := s.cfg.SaveMedia(ctx, rec)
		if err != nil {
			s.log.Warn("media persistence failed", "err", err)
		} else {
			result.MediaRef = ref
		}
	}
	s.mu.Lock()
	s.results = append(s.results, result)
	s.lastFeedback = fb
	s.mu.Unlock()
}

// pauseBeforeNext idles between feedback and the next question. Manual end
// cuts the pause short.
func (s *Session) pauseBeforeNext(ctx context.Context) error {
	timer := time.NewTimer(s.pause)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-s.endCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// compileReport builds the immutable report from the accumulated results and
// saves it when a store is configured. Persistence failures are logged; the
// report is still returned.
func (s *Session) compileReport(ctx context.Context) (*interview.Report, error) {
	s.mu.Lock()
	results := append([]interview.QuestionResult(nil), s.results...)
	s.mu.Unlock()
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	now := time.Now()
	rep := &interview.Report{
		ID:           fmt.Sprintf("interview-%d", now.UnixMilli()),
		Timestamp:    now,
		Type:         s.cfg.Settings.Type,
		OverallScore: interview.OverallScore(results),
		Results:      results,
	}
	if s.cfg.Reports != nil {
		if err := s.cfg.Reports.Save(ctx, rep, s.cfg.Settings.OwnerKey); err != nil {
			s.log.Warn("report persistence failed", "id", rep.ID, "err", err)
		}
	}
	s.log.Info("report compiled", "id", rep.ID, "questions", len(results), "overall", rep.OverallScore)
	return rep, nil
}

// teardown lands the terminal phase, releases the capture stream, and mutes
// playback. Runs exactly once across all exit paths of Run, so a session that
// bails out on an error still reports completed.
func (s *Session) teardown() {
	s.teardownOnce.Do(func() {
		s.setPhase(PhaseCompleted)
		if s.stream != nil {
			s.stream.Release()
		}
		s.cfg.Speech.Mute()
		s.recorder.Stop()
	})
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// setPhase applies a transition, logging and refusing invalid moves.
func (s *Session) setPhase(to Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == to {
		return
	}
	if !ValidTransition(s.phase, to) {
		s.log.Error("invalid phase transition refused", "from", s.phase, "to", to)
		return
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordPhase(context.Background(), string(s.phase), time.Since(s.phaseSince).Seconds())
	}
	s.phase = to
	s.phaseSince = time.Now()
}

func (s *Session) isEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

func (s *Session) currentEpoch() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// ── narration ────────────────────────────────────────────────────────────────

// questionNarration renders the spoken form of a question. The first question
// opens the interview; repeats drop the positional framing so the candidate
// is not told "Question 3" twice.
func questionNarration(question string, idx int, first, repeat bool) string {
	switch {
	case repeat:
		return fmt.Sprintf("No problem, repeating the question. %s", question)
	case first:
		return fmt.Sprintf("Let's begin. Question 1. %s", question)
	default:
		return fmt.Sprintf("Question %d. %s", idx+1, question)
	}
}

// feedbackNarration renders the spoken form of a feedback payload.
func feedbackNarration(fb *interview.Feedback) string {
	return fmt.Sprintf("%s You scored %d out of 10 on voice and %d out of 10 on content.",
		fb.Summary, fb.Scores.Voice, fb.Scores.Content)
}
