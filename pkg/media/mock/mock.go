// Package mock provides test doubles for the media package interfaces.
//
// Stream is a scripted [media.Stream] that records whether and how often it
// was released; Platform returns a configured stream or error from Acquire.
package mock

import (
	"context"
	"sync"

	"github.com/talentecho/talentecho/pkg/media"
)

// Stream is a mock implementation of media.Stream.
type Stream struct {
	mu sync.Mutex

	// FrameCh is the channel returned by Frames. Tests push frames into it
	// and close it to simulate transport disconnect.
	FrameCh chan media.AudioFrame

	// ReleaseCount records how many times Release was called.
	ReleaseCount int

	closed bool
}

var _ media.Stream = (*Stream)(nil)

// NewStream creates a mock stream with a buffered frame channel.
func NewStream() *Stream {
	return &Stream{FrameCh: make(chan media.AudioFrame, 64)}
}

// Frames implements media.Stream.
func (s *Stream) Frames() <-chan media.AudioFrame { return s.FrameCh }

// Release implements media.Stream. The frame channel is closed on the first
// call only; every call increments ReleaseCount so tests can assert the
// exactly-once teardown property.
func (s *Stream) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReleaseCount++
	if !s.closed {
		s.closed = true
		close(s.FrameCh)
	}
}

// Releases returns the number of Release calls so far.
func (s *Stream) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ReleaseCount
}

// Platform is a mock implementation of media.Platform.
type Platform struct {
	mu sync.Mutex

	// StreamResult is returned by Acquire when AcquireErr is nil.
	StreamResult media.Stream

	// AcquireErr, if non-nil, is returned by Acquire.
	AcquireErr error

	// AcquireCalls counts Acquire invocations.
	AcquireCalls int
}

var _ media.Platform = (*Platform)(nil)

// Acquire implements media.Platform.
func (p *Platform) Acquire(_ context.Context) (media.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AcquireCalls++
	if p.AcquireErr != nil {
		return nil, p.AcquireErr
	}
	return p.StreamResult, nil
}
