package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/talentecho/talentecho/internal/analysis"
	"github.com/talentecho/talentecho/internal/config"
	"github.com/talentecho/talentecho/internal/observe"
	"github.com/talentecho/talentecho/internal/session"
	"github.com/talentecho/talentecho/internal/speech"
	"github.com/talentecho/talentecho/internal/vad"
	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/media"
	"github.com/talentecho/talentecho/pkg/provider/tts"
	"github.com/talentecho/talentecho/pkg/questionbank"
	"github.com/talentecho/talentecho/pkg/report"
)

var (
	// ErrSessionActive is returned by Create when an interview is already
	// running. Only one session exists at a time.
	ErrSessionActive = errors.New("app: an interview session is already active")

	// ErrNoActiveSession is returned by session operations when nothing is
	// running.
	ErrNoActiveSession = errors.New("app: no active interview session")
)

// pipeBuffer sizes the ingest and playback channels. 256 frames is about
// five seconds of 20 ms audio.
const pipeBuffer = 256

// SessionInfo holds metadata about the active session.
type SessionInfo struct {
	ID            string                `json:"id"`
	Type          interview.SessionType `json:"type"`
	StartedAt     time.Time             `json:"startedAt"`
	OwnerKey      string                `json:"-"`
	QuestionCount int                   `json:"questionCount"`
}

// SessionManagerConfig holds all dependencies for a [SessionManager].
type SessionManagerConfig struct {
	Config   *config.Config
	TTS      tts.Provider
	Gateway  *analysis.Gateway
	Reports  report.Store
	Metrics  *observe.Metrics
	MediaDir string
	Logger   *slog.Logger
}

// SessionManager manages the lifecycle of interview sessions.
// Only one session can be active at a time (enforced by mutex).
// All exported methods are safe for concurrent use.
type SessionManager struct {
	mu     sync.Mutex
	sess   *session.Session
	pipe   *media.Pipe
	player *speech.ChannelPlayer
	cancel context.CancelFunc
	info   SessionInfo

	// Dependencies injected at construction.
	cfg      *config.Config
	tts      tts.Provider
	gateway  *analysis.Gateway
	reports  report.Store
	metrics  *observe.Metrics
	mediaDir string
	log      *slog.Logger
}

// NewSessionManager creates a SessionManager with the given dependencies.
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &SessionManager{
		cfg:      cfg.Config,
		tts:      cfg.TTS,
		gateway:  cfg.Gateway,
		reports:  cfg.Reports,
		metrics:  cfg.Metrics,
		mediaDir: cfg.MediaDir,
		log:      log,
	}
}

// Create assembles a new interview session from the given settings. Defaults
// from the server config fill any unset persona, difficulty, or question
// list. The session does not run until Start is called.
//
// Returns [ErrSessionActive] if a session is already running.
func (sm *SessionManager) Create(settings interview.Settings) (SessionInfo, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.sess != nil && !sm.finished() {
		return SessionInfo{}, fmt.Errorf("%w (id=%s)", ErrSessionActive, sm.info.ID)
	}

	sm.applyDefaults(&settings)
	if len(settings.Questions) == 0 {
		return SessionInfo{}, fmt.Errorf("app: create session: no questions for session type %q", settings.Type)
	}

	pipe := media.NewPipe(pipeBuffer)
	player := speech.NewChannelPlayer(pipeBuffer)

	engine := speech.NewEngine(sm.tts, player,
		speech.WithLogger(sm.log),
		speech.WithCacheObserver(sm.cacheObserver()),
	)

	sess, err := session.New(session.Config{
		Settings:      settings,
		Platform:      media.NewPipePlatform(pipe),
		Speech:        engine,
		Gateway:       sm.gateway,
		Reports:       sm.reports,
		SaveMedia:     sm.mediaSaver(),
		FeedbackPause: sm.cfg.Session.FeedbackPause(),
		VADOptions:    sm.vadOptions(),
		Metrics:       sm.metrics,
		Logger:        sm.log,
	})
	if err != nil {
		return SessionInfo{}, fmt.Errorf("app: create session: %w", err)
	}

	now := time.Now().UTC()
	sm.sess = sess
	sm.pipe = pipe
	sm.player = player
	sm.cancel = nil
	sm.info = SessionInfo{
		ID:            fmt.Sprintf("session-%d", now.UnixMilli()),
		Type:          settings.Type,
		StartedAt:     now,
		OwnerKey:      settings.OwnerKey,
		QuestionCount: len(settings.Questions),
	}

	sm.log.Info("session created",
		"session_id", sm.info.ID,
		"type", settings.Type,
		"questions", len(settings.Questions),
		"personality", settings.Personality,
		"difficulty", settings.Difficulty,
	)

	return sm.info, nil
}

// Start begins the created session's interview loop in the background.
func (sm *SessionManager) Start() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.sess == nil {
		return ErrNoActiveSession
	}
	if sm.cancel != nil {
		return fmt.Errorf("%w (id=%s)", ErrSessionActive, sm.info.ID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sm.cancel = cancel
	sm.sess.Start(ctx)

	sm.log.Info("session started", "session_id", sm.info.ID)
	return nil
}

// End stops the active session early and waits for its report. The report
// compiles from completed answers; [session.ErrNoResults] means no answer
// finished before the end.
func (sm *SessionManager) End(ctx context.Context) (*interview.Report, error) {
	sm.mu.Lock()
	sess := sm.sess
	started := sm.cancel != nil
	sm.mu.Unlock()

	if sess == nil {
		return nil, ErrNoActiveSession
	}
	if !started {
		sm.teardown()
		return nil, session.ErrNoResults
	}

	sess.EndManually()
	select {
	case <-sess.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	rep, err := sess.Result()
	sm.teardown()
	return rep, err
}

// Wait blocks until the running session completes on its own, then returns
// its report and clears the slot.
func (sm *SessionManager) Wait(ctx context.Context) (*interview.Report, error) {
	sm.mu.Lock()
	sess := sm.sess
	sm.mu.Unlock()

	if sess == nil {
		return nil, ErrNoActiveSession
	}

	select {
	case <-sess.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	rep, err := sess.Result()
	sm.teardown()
	return rep, err
}

// Status returns the live snapshot and metadata of the active session.
func (sm *SessionManager) Status() (session.Snapshot, SessionInfo, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.sess == nil {
		return session.Snapshot{}, SessionInfo{}, ErrNoActiveSession
	}
	return sm.sess.Snapshot(), sm.info, nil
}

// Audio returns the ingest pipe the transport pushes captured PCM frames
// into.
func (sm *SessionManager) Audio() (*media.Pipe, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.pipe == nil {
		return nil, ErrNoActiveSession
	}
	return sm.pipe, nil
}

// Playback returns the channel the session's interviewer speech is emitted
// on, one frame-sized clip at a time.
func (sm *SessionManager) Playback() (<-chan *speech.Buffer, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.player == nil {
		return nil, ErrNoActiveSession
	}
	return sm.player.Out(), nil
}

// UpdateDefaults swaps the server config that fills unset session settings.
// The running session, if any, keeps the settings it was created with.
func (sm *SessionManager) UpdateDefaults(cfg *config.Config) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.cfg = cfg
}

// IsActive reports whether a session currently occupies the slot.
func (sm *SessionManager) IsActive() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.sess != nil && !sm.finished()
}

// Close tears down any active session without compiling a report.
func (sm *SessionManager) Close() error {
	sm.mu.Lock()
	sess := sm.sess
	sm.mu.Unlock()

	if sess != nil {
		sess.EndManually()
	}
	sm.teardown()
	return nil
}

// finished reports whether the current session's run has completed.
// A created-but-unstarted session still occupies the slot.
// Callers must hold sm.mu.
func (sm *SessionManager) finished() bool {
	if sm.sess == nil {
		return true
	}
	select {
	case <-sm.sess.Done():
		return true
	default:
		return false
	}
}

// teardown releases the session slot and its transport resources.
func (sm *SessionManager) teardown() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.cancel != nil {
		sm.cancel()
	}
	if sm.pipe != nil {
		sm.pipe.Release()
	}
	if sm.sess != nil {
		sm.log.Info("session released", "session_id", sm.info.ID)
	}
	sm.sess = nil
	sm.pipe = nil
	sm.player = nil
	sm.cancel = nil
	sm.info = SessionInfo{}
}

// applyDefaults fills unset settings from the server config and the builtin
// question bank.
func (sm *SessionManager) applyDefaults(settings *interview.Settings) {
	if settings.Type == "" {
		settings.Type = interview.SessionQuick
	}
	if settings.Personality == "" {
		settings.Personality = sm.cfg.Session.Personality
	}
	if settings.Difficulty == "" {
		settings.Difficulty = sm.cfg.Session.Difficulty
	}
	if len(settings.Questions) == 0 {
		switch settings.Type {
		case interview.SessionQuick:
			settings.Questions = questionbank.Quick()
		case interview.SessionFull:
			settings.Questions = questionbank.Full()
		}
		// Resume sessions carry their own generated questions; an empty
		// list there is a caller error surfaced by Create.
	}
}

// vadOptions converts config VAD overrides into detector options.
func (sm *SessionManager) vadOptions() []vad.Option {
	var opts []vad.Option
	if t := sm.cfg.Session.VAD.Threshold; t > 0 {
		opts = append(opts, vad.WithThreshold(t))
	}
	if w := sm.cfg.Session.VAD.SilenceWindow(); w > 0 {
		opts = append(opts, vad.WithSilenceWindow(w))
	}
	return opts
}

// cacheObserver routes speech cache hits into the metrics, if configured.
func (sm *SessionManager) cacheObserver() func(hit bool) {
	if sm.metrics == nil {
		return func(bool) {}
	}
	return func(hit bool) {
		sm.metrics.RecordCacheLookup(context.Background(), hit)
	}
}

// mediaSaver returns the recording persistence hook, or nil when no media
// directory is configured.
func (sm *SessionManager) mediaSaver() func(context.Context, media.Recording) (string, error) {
	dir := sm.mediaDir
	if dir == "" {
		return nil
	}
	return func(_ context.Context, rec media.Recording) (string, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("app: media dir: %w", err)
		}
		name := fmt.Sprintf("answer-%d-%dhz.pcm", time.Now().UnixMilli(), rec.SampleRate)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, rec.Data, 0o644); err != nil {
			return "", fmt.Errorf("app: write recording: %w", err)
		}
		return path, nil
	}
}
