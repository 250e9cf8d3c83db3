package media

import (
	"math"
	"sync"
)

// Meter tracks the live amplitude of a frame stream on a 0–255 scale, the
// same range the browser's byte frequency data uses. The session exposes the
// level to the UI for visualisation and the VAD samples it to detect silence.
//
// A Meter observes frames via [Meter.Observe]; it does not own any channel.
// All methods are safe for concurrent use.
type Meter struct {
	mu    sync.RWMutex
	level float64
}

// NewMeter creates a Meter at level zero.
func NewMeter() *Meter {
	return &Meter{}
}

// Observe updates the level from one frame: the mean absolute int16 sample
// value scaled to [0, 255]. Empty or odd-length frames reset the level to 0.
func (m *Meter) Observe(frame AudioFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = frameLevel(frame.Data)
}

// Level returns the most recently observed amplitude in [0, 255].
func (m *Meter) Level() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.level
}

// Reset clears the level, e.g. between recordings.
func (m *Meter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = 0
}

// frameLevel computes the mean absolute sample value of little-endian int16
// PCM, scaled from [0, 32768] to [0, 255].
func frameLevel(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < samples*2; i += 2 {
		s := int16(pcm[i]) | int16(pcm[i+1])<<8
		sum += math.Abs(float64(s))
	}
	return (sum / float64(samples)) * 255 / 32768
}
