package vad

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitFired(t *testing.T, d *Detector, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-d.Done():
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestDetectorFiresAfterSilence(t *testing.T) {
	t.Parallel()
	d := New(func() float64 { return 0 },
		WithSilenceWindow(30*time.Millisecond),
		WithPollInterval(time.Millisecond),
	)
	d.Start(t.Context())
	if !waitFired(t, d, time.Second) {
		t.Fatal("detector did not fire on sustained silence")
	}
}

func TestDetectorSpeechResetsCountdown(t *testing.T) {
	t.Parallel()
	var loud atomic.Bool
	loud.Store(true)
	d := New(func() float64 {
		if loud.Load() {
			return 120
		}
		return 0
	},
		WithSilenceWindow(40*time.Millisecond),
		WithPollInterval(time.Millisecond),
	)
	d.Start(t.Context())

	// Keep talking past the window, then go quiet.
	if waitFired(t, d, 100*time.Millisecond) {
		t.Fatal("detector fired while level was above the threshold")
	}
	loud.Store(false)
	if !waitFired(t, d, time.Second) {
		t.Fatal("detector did not fire after speech stopped")
	}
}

func TestDetectorStopSuppressesFiring(t *testing.T) {
	t.Parallel()
	d := New(func() float64 { return 0 },
		WithSilenceWindow(30*time.Millisecond),
		WithPollInterval(time.Millisecond),
	)
	d.Start(t.Context())
	d.Stop()
	d.Stop() // idempotent
	if waitFired(t, d, 100*time.Millisecond) {
		t.Fatal("stopped detector must not fire")
	}
}

func TestDetectorActiveFuncGates(t *testing.T) {
	t.Parallel()
	d := New(func() float64 { return 0 },
		WithSilenceWindow(30*time.Millisecond),
		WithPollInterval(time.Millisecond),
		WithActiveFunc(func() bool { return false }),
	)
	d.Start(t.Context())
	if waitFired(t, d, 100*time.Millisecond) {
		t.Fatal("detector fired while gate reported inactive")
	}
}

func TestDetectorThresholdBoundary(t *testing.T) {
	t.Parallel()
	// Only levels strictly above the threshold reset the silence clock; a
	// level pinned exactly at it counts as silence.
	d := New(func() float64 { return DefaultThreshold },
		WithSilenceWindow(30*time.Millisecond),
		WithPollInterval(time.Millisecond),
	)
	d.Start(t.Context())
	if !waitFired(t, d, time.Second) {
		t.Fatal("level at the threshold must count as silence")
	}
}
