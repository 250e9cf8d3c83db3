package speech

import (
	"context"
	"sync/atomic"
	"time"
)

// frameDuration is the slice size the channel player emits. 20 ms keeps the
// outbound WebSocket writes small without drowning the session in syscalls.
const frameDuration = 20 * time.Millisecond

// ChannelPlayer streams clips to an output channel in real time, one frame
// per tick. The session transport drains the channel and forwards frames to
// the connected client.
type ChannelPlayer struct {
	out   chan *Buffer
	muted atomic.Bool
}

// NewChannelPlayer creates a player with the given output buffer size.
func NewChannelPlayer(buffer int) *ChannelPlayer {
	return &ChannelPlayer{out: make(chan *Buffer, buffer)}
}

// Out returns the channel playback frames are written to. Each emitted Buffer
// is one frame-sized slice of the clip; Fallback clips are emitted whole so
// the transport can hand the text to client-side synthesis immediately.
func (p *ChannelPlayer) Out() <-chan *Buffer {
	return p.out
}

// Play implements [Player]. It emits the clip frame by frame at real-time
// pace and returns when the clip ends, ctx is cancelled, or Mute is called.
func (p *ChannelPlayer) Play(ctx context.Context, buf *Buffer) error {
	p.muted.Store(false)

	if buf.Fallback {
		select {
		case p.out <- buf:
		case <-ctx.Done():
			return ctx.Err()
		}
		// Sleep out the estimated duration so session pacing matches what the
		// client-side voice is speaking.
		return p.wait(ctx, time.Duration(buf.Duration()*float64(time.Second)))
	}

	frameBytes := int(float64(buf.SampleRate) * frameDuration.Seconds())
	frameBytes *= 2 // int16 samples
	if frameBytes <= 0 {
		return nil
	}

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for off := 0; off < len(buf.PCM); off += frameBytes {
		end := min(off+frameBytes, len(buf.PCM))
		frame := &Buffer{
			PCM:        buf.PCM[off:end],
			SampleRate: buf.SampleRate,
			Text:       buf.Text,
		}
		// Keep polling the mute flag while the send is blocked, so Mute can
		// interrupt even when the transport has stopped draining.
		for sent := false; !sent; {
			if p.muted.Load() {
				return nil
			}
			select {
			case p.out <- frame:
				sent = true
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// wait blocks for d or until ctx is cancelled or the player is muted.
func (p *ChannelPlayer) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	poll := time.NewTicker(frameDuration)
	defer poll.Stop()
	for {
		select {
		case <-timer.C:
			return nil
		case <-poll.C:
			if p.muted.Load() {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Mute implements [Player]: the in-flight Play returns at the next frame
// boundary without emitting the remainder of the clip.
func (p *ChannelPlayer) Mute() {
	p.muted.Store(true)
}

// Ensure ChannelPlayer implements Player at compile time.
var _ Player = (*ChannelPlayer)(nil)
