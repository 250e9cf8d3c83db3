package media

import (
	"bytes"
	"sync"
	"time"
)

// DefaultMimeType is the encoding declared on recordings produced by
// [Recorder]: raw little-endian int16 PCM.
const DefaultMimeType = "audio/L16"

// Recorder buffers pushed frames into a [Recording].
//
// The session owns a single pump goroutine that reads the live [Stream] and
// calls [Recorder.Write] for every frame; Write is a no-op while the recorder
// is idle, so the pump never needs to know the session phase.
//
// Start and Stop are idempotent-guarded: starting an active recorder and
// stopping an idle one both report false instead of failing. All methods are
// safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	active  bool
	buf     bytes.Buffer
	started time.Time

	sampleRate int
	channels   int
}

// NewRecorder creates an idle Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start arms the recorder. Returns false if it is already recording.
func (r *Recorder) Start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return false
	}
	r.active = true
	r.buf.Reset()
	r.started = time.Now()
	r.sampleRate = 0
	r.channels = 0
	return true
}

// Write appends one captured frame. Frames written while the recorder is
// idle are discarded.
func (r *Recorder) Write(frame AudioFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	if r.sampleRate == 0 {
		r.sampleRate = frame.SampleRate
		r.channels = frame.Channels
	}
	r.buf.Write(frame.Data)
}

// Stop finalises the recorder and returns the captured payload.
// Stopping a recorder that is not recording returns ok=false — a no-op,
// not an error.
func (r *Recorder) Stop() (Recording, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return Recording{}, false
	}
	r.active = false

	data := make([]byte, r.buf.Len())
	copy(data, r.buf.Bytes())
	r.buf.Reset()

	rate := r.sampleRate
	if rate == 0 {
		rate = 16000
	}
	ch := r.channels
	if ch == 0 {
		ch = 1
	}
	return Recording{
		Data:       data,
		MimeType:   DefaultMimeType,
		SampleRate: rate,
		Channels:   ch,
		Duration:   time.Since(r.started),
	}, true
}

// Active reports whether the recorder is currently capturing. The VAD uses
// this to stop sampling as soon as the recorder is torn down.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}
