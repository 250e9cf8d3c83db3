// Package vad detects the end of a spoken answer by watching the
// microphone level for a sustained window of silence.
package vad

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Defaults mirror what works well for browser-captured speech: levels are
// normalized to 0-255, anything below 15 counts as silence, and 4 seconds
// of uninterrupted silence ends the answer.
const (
	DefaultThreshold     = 15.0
	DefaultSilenceWindow = 4 * time.Second
	DefaultPollInterval  = 15 * time.Millisecond
)

// LevelSource reports the current audio level on a 0-255 scale.
type LevelSource func() float64

// Detector watches a level source and fires once after the level has stayed
// below the threshold for a full silence window. Speech before the window
// elapses resets the countdown. A detector is single-use.
type Detector struct {
	level     LevelSource
	active    func() bool
	threshold float64
	window    time.Duration
	interval  time.Duration
	log       *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

// Option customizes a [Detector].
type Option func(*Detector)

// WithThreshold sets the silence threshold on the 0-255 level scale.
// Default: [DefaultThreshold].
func WithThreshold(threshold float64) Option {
	return func(d *Detector) {
		d.threshold = threshold
	}
}

// WithSilenceWindow sets how long the level must stay below the threshold
// before the detector fires. Default: [DefaultSilenceWindow].
func WithSilenceWindow(window time.Duration) Option {
	return func(d *Detector) {
		d.window = window
	}
}

// WithPollInterval sets how often the level source is sampled.
// Default: [DefaultPollInterval].
func WithPollInterval(interval time.Duration) Option {
	return func(d *Detector) {
		d.interval = interval
	}
}

// WithActiveFunc gates the detector on an external condition. When the
// function reports false the detector stops without firing. This keeps a
// leftover poll loop from ending an answer after the session moved on.
func WithActiveFunc(active func() bool) Option {
	return func(d *Detector) {
		d.active = active
	}
}

// WithLogger sets the logger. Default: [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(d *Detector) {
		d.log = log
	}
}

// New creates a detector over the given level source.
func New(level LevelSource, opts ...Option) *Detector {
	d := &Detector{
		level:     level,
		active:    func() bool { return true },
		threshold: DefaultThreshold,
		window:    DefaultSilenceWindow,
		interval:  DefaultPollInterval,
		log:       slog.Default(),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start begins polling in a background goroutine. The silence countdown is
// armed immediately: a speaker who never says anything still gets cut off
// one window after Start. Subsequent calls are no-ops.
func (d *Detector) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		go d.poll(ctx)
	})
}

// Done returns a channel that is closed when the silence window elapses.
// It never closes if the detector is stopped or its context is cancelled
// first.
func (d *Detector) Done() <-chan struct{} {
	return d.done
}

// Stop terminates the poll loop without firing. Safe to call multiple times
// and before Start.
func (d *Detector) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopped)
	})
}

// poll samples the level until the window elapses, the detector is stopped,
// the gate reports inactive, or ctx is cancelled.
func (d *Detector) poll(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	silentSince := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopped:
			return
		case now := <-ticker.C:
			if !d.active() {
				return
			}
			if d.level() > d.threshold {
				silentSince = now
				continue
			}
			if now.Sub(silentSince) >= d.window {
				d.log.Debug("silence window elapsed", "window", d.window)
				close(d.done)
				return
			}
		}
	}
}
