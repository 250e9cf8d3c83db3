package speech

import "strings"

// DefaultRate is the fallback pacing multiplier applied to the base speaking
// rate. Slightly slower than normal reads as calm rather than rushed.
const DefaultRate = 0.9

// baseWPM is an average conversational speaking rate.
const baseWPM = 150

// Synthesizer is the always-available local fallback. It produces a silent
// placeholder clip whose duration matches how long the text would take to
// speak at the configured rate, so session timing stays intact, and marks the
// buffer as Fallback so transports can delegate the actual voicing to
// client-side speech synthesis.
type Synthesizer struct {
	rate       float64
	sampleRate int
}

// NewSynthesizer creates a fallback synthesizer emitting PCM at the given
// rate in Hz, paced at [DefaultRate].
func NewSynthesizer(sampleRate int) *Synthesizer {
	return &Synthesizer{rate: DefaultRate, sampleRate: sampleRate}
}

// SetPace overrides the pacing multiplier. Values outside (0, 2] are ignored.
func (s *Synthesizer) SetPace(rate float64) {
	if rate > 0 && rate <= 2 {
		s.rate = rate
	}
}

// Synthesize produces the placeholder clip for text. Never fails.
func (s *Synthesizer) Synthesize(text string) *Buffer {
	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	seconds := float64(words) / (baseWPM * s.rate / 60)
	samples := int(seconds * float64(s.sampleRate))
	return &Buffer{
		PCM:        make([]byte, samples*2),
		SampleRate: s.sampleRate,
		Text:       text,
		Fallback:   true,
	}
}
