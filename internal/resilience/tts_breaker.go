package resilience

import (
	"context"

	"github.com/talentecho/talentecho/pkg/provider/tts"
)

// TTSBreaker wraps a [tts.Provider] with a [CircuitBreaker]. While the
// breaker is open, Synthesize fails fast with [ErrCircuitOpen]; the speech
// engine treats that like any other synthesis error and voices the clip
// through the local synthesizer.
type TTSBreaker struct {
	inner   tts.Provider
	breaker *CircuitBreaker
}

var _ tts.Provider = (*TTSBreaker)(nil)

// NewTTSBreaker wraps provider with a breaker named after it.
func NewTTSBreaker(provider tts.Provider, name string, cfg CircuitBreakerConfig) *TTSBreaker {
	if cfg.Name == "" {
		cfg.Name = "tts/" + name
	}
	return &TTSBreaker{
		inner:   provider,
		breaker: NewCircuitBreaker(cfg),
	}
}

func (b *TTSBreaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var pcm []byte
	err := b.breaker.Execute(func() error {
		var err error
		pcm, err = b.inner.Synthesize(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pcm, nil
}

func (b *TTSBreaker) SampleRate() int {
	return b.inner.SampleRate()
}

// State exposes the breaker state for health reporting.
func (b *TTSBreaker) State() State {
	return b.breaker.State()
}
