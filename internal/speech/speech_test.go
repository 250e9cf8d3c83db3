package speech

import (
	"context"
	"errors"
	"sync"
	"testing"

	ttsmock "github.com/talentecho/talentecho/pkg/provider/tts/mock"
)

// nopPlayer is a Player that completes playback instantly and records clips.
type nopPlayer struct {
	mu     sync.Mutex
	played []*Buffer
	muted  bool
}

func (p *nopPlayer) Play(ctx context.Context, buf *Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, buf)
	return nil
}

func (p *nopPlayer) Mute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = true
}

func (p *nopPlayer) clips() []*Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Buffer(nil), p.played...)
}

func TestSpeakPlaysSynthesizedClip(t *testing.T) {
	t.Parallel()
	provider := &ttsmock.Provider{SynthesizeResult: []byte{1, 0, 2, 0}}
	player := &nopPlayer{}
	e := NewEngine(provider, player)

	if err := e.Speak(t.Context(), "Question 1. Tell me about yourself."); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	clips := player.clips()
	if len(clips) != 1 {
		t.Fatalf("expected 1 played clip, got %d", len(clips))
	}
	if clips[0].Fallback {
		t.Error("remote synthesis should not be marked fallback")
	}
	if clips[0].SampleRate != provider.SampleRate() {
		t.Errorf("clip rate = %d, want %d", clips[0].SampleRate, provider.SampleRate())
	}
}

func TestSpeakCachesByText(t *testing.T) {
	t.Parallel()
	provider := &ttsmock.Provider{SynthesizeResult: []byte{1, 0}}
	e := NewEngine(provider, &nopPlayer{})

	for range 3 {
		if err := e.Speak(t.Context(), "same text"); err != nil {
			t.Fatalf("Speak: %v", err)
		}
	}
	if calls := len(provider.Calls()); calls != 1 {
		t.Errorf("expected 1 remote call for repeated text, got %d", calls)
	}
}

func TestConcurrentSpeakSynthesizesOnce(t *testing.T) {
	t.Parallel()
	provider := &ttsmock.Provider{SynthesizeResult: []byte{1, 0}}
	e := NewEngine(provider, &nopPlayer{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			if err := e.Speak(t.Context(), "raced text"); err != nil {
				t.Errorf("Speak: %v", err)
			}
		})
	}
	wg.Wait()
	if calls := len(provider.Calls()); calls != 1 {
		t.Errorf("expected 1 remote call under concurrency, got %d", calls)
	}
}

func TestSpeakFallsBackOnRemoteFailure(t *testing.T) {
	t.Parallel()
	provider := &ttsmock.Provider{SynthesizeErr: errors.New("backend down")}
	player := &nopPlayer{}
	e := NewEngine(provider, player)

	if err := e.Speak(t.Context(), "two words"); err != nil {
		t.Fatalf("Speak should absorb remote failure, got %v", err)
	}
	clips := player.clips()
	if len(clips) != 1 || !clips[0].Fallback {
		t.Fatal("expected a fallback clip")
	}
	if clips[0].Duration() <= 0 {
		t.Error("fallback clip should have a positive paced duration")
	}

	// The failure is cached; a second Speak must not retry the backend.
	if err := e.Speak(t.Context(), "two words"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if calls := len(provider.Calls()); calls != 1 {
		t.Errorf("expected no retry after cached failure, got %d calls", calls)
	}
}

func TestSpeakFallsBackOnEmptyAudio(t *testing.T) {
	t.Parallel()
	provider := &ttsmock.Provider{} // returns empty clip
	player := &nopPlayer{}
	e := NewEngine(provider, player)

	if err := e.Speak(t.Context(), "hello"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if clips := player.clips(); len(clips) != 1 || !clips[0].Fallback {
		t.Fatal("expected a fallback clip for empty remote audio")
	}
}

func TestPrefetchWarmsCache(t *testing.T) {
	t.Parallel()
	done := make(chan struct{})
	provider := &ttsmock.Provider{
		SynthesizeFunc: func(ctx context.Context, text string) ([]byte, error) {
			defer close(done)
			return []byte{1, 0}, nil
		},
	}
	e := NewEngine(provider, &nopPlayer{})

	e.Prefetch(t.Context(), "upcoming question")
	<-done

	if err := e.Speak(t.Context(), "upcoming question"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if calls := len(provider.Calls()); calls != 1 {
		t.Errorf("expected prefetch to satisfy Speak, got %d remote calls", calls)
	}
}

func TestMuteForwardsToPlayer(t *testing.T) {
	t.Parallel()
	player := &nopPlayer{}
	e := NewEngine(&ttsmock.Provider{}, player)
	e.Mute()
	if !player.muted {
		t.Error("Mute should reach the player")
	}
}

func TestSynthesizerDurationScalesWithWords(t *testing.T) {
	t.Parallel()
	s := NewSynthesizer(24000)
	short := s.Synthesize("one two three")
	long := s.Synthesize("one two three four five six seven eight nine ten")
	if !short.Fallback || !long.Fallback {
		t.Fatal("local clips must be marked fallback")
	}
	if long.Duration() <= short.Duration() {
		t.Errorf("longer text should yield longer clip: %v vs %v", long.Duration(), short.Duration())
	}
	// Three words at 135 effective WPM is roughly 1.3 seconds.
	if d := short.Duration(); d < 1 || d > 2 {
		t.Errorf("unexpected paced duration %v", d)
	}
}

func TestSynthesizerEmptyText(t *testing.T) {
	t.Parallel()
	s := NewSynthesizer(24000)
	if d := s.Synthesize("").Duration(); d <= 0 {
		t.Error("empty text should still produce a non-empty clip")
	}
}

func TestChannelPlayerStreamsFrames(t *testing.T) {
	t.Parallel()
	p := NewChannelPlayer(64)
	// 3 frames of 20 ms at 1 kHz mono: 20 samples = 40 bytes each.
	clip := &Buffer{PCM: make([]byte, 120), SampleRate: 1000, Text: "x"}

	go func() {
		for range p.Out() {
		}
	}()
	if err := p.Play(t.Context(), clip); err != nil {
		t.Fatalf("Play: %v", err)
	}
}

func TestChannelPlayerMuteStopsPlayback(t *testing.T) {
	t.Parallel()
	p := NewChannelPlayer(1)
	clip := &Buffer{PCM: make([]byte, 1<<20), SampleRate: 24000, Text: "x"}

	done := make(chan error, 1)
	go func() {
		done <- p.Play(t.Context(), clip)
	}()
	<-p.Out()
	p.Mute()
	if err := <-done; err != nil {
		t.Fatalf("muted Play should return nil, got %v", err)
	}
}

func TestCacheObserverReportsHits(t *testing.T) {
	t.Parallel()
	provider := &ttsmock.Provider{SynthesizeResult: []byte{1, 0}}

	var mu sync.Mutex
	var hits, misses int
	e := NewEngine(provider, &nopPlayer{}, WithCacheObserver(func(hit bool) {
		mu.Lock()
		defer mu.Unlock()
		if hit {
			hits++
		} else {
			misses++
		}
	}))

	for range 3 {
		if err := e.Speak(t.Context(), "observed text"); err != nil {
			t.Fatalf("Speak: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if misses != 1 || hits != 2 {
		t.Errorf("expected 1 miss and 2 hits, got %d and %d", misses, hits)
	}
}
