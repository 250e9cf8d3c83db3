// Package media provides the capture-side abstractions for an interview
// session: an acquired audio [Stream], a [Recorder] that buffers it into a
// finished [Recording], and a [Meter] exposing live amplitude.
//
// The actual microphone lives in the browser; frames reach the server as raw
// PCM over a WebSocket and are pushed into a [Pipe], which implements
// [Stream]. The interfaces are intentionally narrow so the orchestrator stays
// decoupled from the transport.
package media

import (
	"context"
	"errors"
	"sync"
)

// ErrPermissionDenied indicates the client refused camera/microphone access.
// This is fatal to a session: the orchestrator must abort, not retry.
var ErrPermissionDenied = errors.New("media: capture permission denied")

// Stream is an acquired live audio source.
//
// A Stream is singly-owned by one session. Release must be called on every
// session-exit path; it is idempotent.
type Stream interface {
	// Frames returns the channel delivering captured audio. The channel is
	// closed when the stream is released or the transport disconnects.
	Frames() <-chan AudioFrame

	// Release stops the underlying source and closes the frame channel.
	// Safe to call more than once; subsequent calls are no-ops.
	Release()
}

// Platform acquires capture streams. Implementations wrap a transport
// (the server's ingest WebSocket) or a test double.
type Platform interface {
	// Acquire obtains the live stream for this session. Returns
	// [ErrPermissionDenied] if the client refused device access.
	Acquire(ctx context.Context) (Stream, error)
}

// Pipe is an in-memory [Stream] fed by the transport layer via [Pipe.Push].
// All methods are safe for concurrent use.
type Pipe struct {
	mu       sync.Mutex
	frames   chan AudioFrame
	released bool
}

// Compile-time check that *Pipe satisfies [Stream].
var _ Stream = (*Pipe)(nil)

// NewPipe creates a Pipe whose frame channel buffers up to buf frames.
// Frames pushed while the buffer is full are dropped rather than blocking
// the transport reader.
func NewPipe(buf int) *Pipe {
	if buf <= 0 {
		buf = 64
	}
	return &Pipe{frames: make(chan AudioFrame, buf)}
}

// Push delivers a captured frame to the stream. Pushing after Release drops
// the frame silently — the transport may race the session teardown.
func (p *Pipe) Push(frame AudioFrame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	select {
	case p.frames <- frame:
	default:
		// Buffer full: drop. The VAD and recorder tolerate gaps.
	}
}

// Frames implements [Stream].
func (p *Pipe) Frames() <-chan AudioFrame { return p.frames }

// Release implements [Stream]. Idempotent.
func (p *Pipe) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	p.released = true
	close(p.frames)
}

// Released reports whether Release has been called. Intended for the ingest
// transport to stop reading once the session has torn down.
func (p *Pipe) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// PipePlatform is a [Platform] that hands out a single pre-created [Pipe].
// The server creates the pipe when the client's audio socket connects and
// the session acquires it at start.
type PipePlatform struct {
	mu   sync.Mutex
	pipe *Pipe
}

var _ Platform = (*PipePlatform)(nil)

// NewPipePlatform creates a platform serving the given pipe. A nil pipe
// models a client that never granted device access: Acquire returns
// [ErrPermissionDenied].
func NewPipePlatform(pipe *Pipe) *PipePlatform {
	return &PipePlatform{pipe: pipe}
}

// Acquire implements [Platform].
func (pp *PipePlatform) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.pipe == nil {
		return nil, ErrPermissionDenied
	}
	return pp.pipe, nil
}
