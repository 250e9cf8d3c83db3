// Package speech is the playback engine that turns interviewer text into
// audible speech.
//
// The engine sits between the session orchestrator and a tts.Provider. It
// caches synthesized clips by their exact text, deduplicates concurrent
// requests for the same text, and degrades to a local paced synthesizer when
// the remote backend fails, so a session never stalls on a TTS outage.
package speech

import (
	"context"
	"log/slog"
	"sync"

	"github.com/talentecho/talentecho/pkg/provider/tts"
)

// Buffer is a fully synthesized clip ready for playback.
type Buffer struct {
	// PCM is raw little-endian 16-bit mono audio.
	PCM []byte

	// SampleRate is the PCM rate in Hz.
	SampleRate int

	// Text is the utterance this clip renders.
	Text string

	// Fallback marks clips produced by the local synthesizer. Transports can
	// use this to hand the text to client-side speech synthesis instead of
	// streaming the (silent) placeholder audio.
	Fallback bool
}

// Duration returns the clip length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.PCM)) / 2 / float64(b.SampleRate)
}

// Player renders a clip to the listener.
//
// Play blocks until the clip has finished, the context is cancelled, or the
// player is muted. Mute interrupts the in-flight Play call; it is how a
// manually ended session cuts the interviewer off mid-sentence.
type Player interface {
	Play(ctx context.Context, buf *Buffer) error
	Mute()
}

// Engine synthesizes, caches, and plays interviewer speech.
type Engine struct {
	provider tts.Provider
	local    *Synthesizer
	player   Player
	log      *slog.Logger

	observeCache func(hit bool)

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

// cacheEntry is a clip slot. ready is closed once buf is populated, so
// concurrent requests for the same text wait instead of re-synthesizing.
type cacheEntry struct {
	ready chan struct{}
	buf   *Buffer
}

// Option customizes an [Engine].
type Option func(*Engine)

// WithLogger sets the logger. Default: [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithLocalSynthesizer replaces the fallback synthesizer.
func WithLocalSynthesizer(s *Synthesizer) Option {
	return func(e *Engine) {
		e.local = s
	}
}

// WithCacheObserver registers a callback invoked on every cache lookup,
// reporting whether it hit. Used to feed metrics.
func WithCacheObserver(fn func(hit bool)) Option {
	return func(e *Engine) {
		e.observeCache = fn
	}
}

// NewEngine creates a playback engine over the given TTS provider and player.
// A nil provider routes every clip through the local synthesizer.
func NewEngine(provider tts.Provider, player Player, opts ...Option) *Engine {
	rate := 24000
	if provider != nil {
		rate = provider.SampleRate()
	}
	e := &Engine{
		provider: provider,
		player:   player,
		local:    NewSynthesizer(rate),
		log:      slog.Default(),
		cache:    make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Speak synthesizes text (or reuses a cached clip) and plays it, returning
// once playback has finished.
func (e *Engine) Speak(ctx context.Context, text string) error {
	buf, err := e.resolve(ctx, text)
	if err != nil {
		return err
	}
	return e.player.Play(ctx, buf)
}

// Prefetch warms the cache for text without playing it. It returns
// immediately; synthesis failures are logged and absorbed by the fallback,
// never surfaced.
func (e *Engine) Prefetch(ctx context.Context, text string) {
	go func() {
		if _, err := e.resolve(ctx, text); err != nil {
			e.log.Debug("prefetch aborted", "err", err)
		}
	}()
}

// Mute interrupts the current playback. Queued Speak calls still resolve.
func (e *Engine) Mute() {
	e.player.Mute()
}

// resolve returns the cached clip for text, synthesizing it first if needed.
// At most one remote synthesis runs per distinct text; losers of the race
// wait on the winner's entry. A failed remote call is cached as a fallback
// clip rather than retried.
func (e *Engine) resolve(ctx context.Context, text string) (*Buffer, error) {
	e.mu.Lock()
	if entry, ok := e.cache[text]; ok {
		e.mu.Unlock()
		if e.observeCache != nil {
			e.observeCache(true)
		}
		select {
		case <-entry.ready:
			return entry.buf, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	entry := &cacheEntry{ready: make(chan struct{})}
	e.cache[text] = entry
	e.mu.Unlock()
	if e.observeCache != nil {
		e.observeCache(false)
	}

	entry.buf = e.synthesize(ctx, text)
	close(entry.ready)
	return entry.buf, nil
}

// synthesize calls the remote provider and falls back to the local
// synthesizer on failure or empty audio.
func (e *Engine) synthesize(ctx context.Context, text string) *Buffer {
	if e.provider == nil {
		return e.local.Synthesize(text)
	}
	pcm, err := e.provider.Synthesize(ctx, text)
	if err != nil || len(pcm) == 0 {
		if err != nil {
			e.log.Warn("remote synthesis failed, using local fallback", "err", err)
		} else {
			e.log.Warn("remote synthesis returned no audio, using local fallback")
		}
		return e.local.Synthesize(text)
	}
	return &Buffer{PCM: pcm, SampleRate: e.provider.SampleRate(), Text: text}
}
