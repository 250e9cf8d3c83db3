// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to feed controlled PCM clips to consumers and to verify which
// texts were synthesised and how often.
//
// Example:
//
//	p := &mock.Provider{
//	    SynthesizeResult: []byte{0x01, 0x00},
//	    Rate:             24000,
//	}
//	pcm, _ := p.Synthesize(ctx, "Question 1. Tell me about yourself.")
package mock

import (
	"context"
	"sync"

	"github.com/talentecho/talentecho/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Text is the text passed to Synthesize.
	Text string
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// SynthesizeResult is the PCM clip returned by Synthesize for every text.
	SynthesizeResult []byte

	// SynthesizeErr, if non-nil, is returned as the error from Synthesize.
	SynthesizeErr error

	// SynthesizeFunc, if non-nil, overrides SynthesizeResult/SynthesizeErr
	// entirely. The call is still recorded.
	SynthesizeFunc func(ctx context.Context, text string) ([]byte, error)

	// Rate is returned by SampleRate. Defaults to 24000 when zero.
	Rate int

	// --- Call records ---

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Synthesize records the call and returns the configured clip or error.
func (p *Provider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	p.mu.Lock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text})
	fn := p.SynthesizeFunc
	result := p.SynthesizeResult
	err := p.SynthesizeErr
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	if err != nil {
		return nil, err
	}
	clip := make([]byte, len(result))
	copy(clip, result)
	return clip, nil
}

// SampleRate returns Rate, defaulting to 24000.
func (p *Provider) SampleRate() int {
	if p.Rate == 0 {
		return 24000
	}
	return p.Rate
}

// Calls returns a snapshot of recorded Synthesize calls. Thread-safe.
func (p *Provider) Calls() []SynthesizeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	calls := make([]SynthesizeCall, len(p.SynthesizeCalls))
	copy(calls, p.SynthesizeCalls)
	return calls
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = nil
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
