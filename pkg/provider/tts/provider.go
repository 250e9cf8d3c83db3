// Package tts defines the Provider interface for Text-to-Speech backends.
//
// An interview session speaks every question and every piece of feedback out
// loud, so a TTS provider wraps a speech synthesis service (e.g., the Gemini
// TTS API or OpenAI's speech endpoint) and presents a uniform one-shot
// interface: text in, raw PCM out. Streaming synthesis is deliberately out of
// scope; utterances are short and the playback engine caches whole clips.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use. The playback engine
// prefetches upcoming questions while feedback is still playing, so two
// Synthesize calls may run in parallel.
type Provider interface {
	// Synthesize renders the given text to raw little-endian 16-bit mono PCM
	// at the rate reported by SampleRate.
	//
	// Returns an error if the backend cannot be reached, rejects the request,
	// or ctx is cancelled first. An empty text should return an error rather
	// than an empty clip.
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// SampleRate reports the PCM sample rate of clips produced by Synthesize,
	// in Hz. It is constant for the lifetime of the provider.
	SampleRate() int
}
