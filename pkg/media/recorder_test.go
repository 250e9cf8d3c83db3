package media

import (
	"bytes"
	"testing"
)

func frame(data []byte) AudioFrame {
	return AudioFrame{Data: data, SampleRate: 16000, Channels: 1}
}

func TestRecorderLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("start stop captures written frames", func(t *testing.T) {
		t.Parallel()
		r := NewRecorder()
		if !r.Start() {
			t.Fatal("first Start should succeed")
		}
		r.Write(frame([]byte{1, 0, 2, 0}))
		r.Write(frame([]byte{3, 0}))

		rec, ok := r.Stop()
		if !ok {
			t.Fatal("Stop on active recorder should report ok")
		}
		if want := []byte{1, 0, 2, 0, 3, 0}; !bytes.Equal(rec.Data, want) {
			t.Fatalf("data = %v, want %v", rec.Data, want)
		}
		if rec.SampleRate != 16000 || rec.Channels != 1 {
			t.Fatalf("format = %d/%d, want 16000/1", rec.SampleRate, rec.Channels)
		}
		if rec.MimeType != DefaultMimeType {
			t.Fatalf("mime = %q, want %q", rec.MimeType, DefaultMimeType)
		}
	})

	t.Run("double start is rejected", func(t *testing.T) {
		t.Parallel()
		r := NewRecorder()
		r.Start()
		if r.Start() {
			t.Fatal("second Start should report false")
		}
	})

	t.Run("stop on idle recorder is a no-op", func(t *testing.T) {
		t.Parallel()
		r := NewRecorder()
		if _, ok := r.Stop(); ok {
			t.Fatal("Stop on idle recorder should report ok=false")
		}
		r.Start()
		r.Stop()
		if _, ok := r.Stop(); ok {
			t.Fatal("second Stop should report ok=false")
		}
	})

	t.Run("writes while idle are discarded", func(t *testing.T) {
		t.Parallel()
		r := NewRecorder()
		r.Write(frame([]byte{9, 9}))
		r.Start()
		r.Write(frame([]byte{1, 0}))
		rec, _ := r.Stop()
		if want := []byte{1, 0}; !bytes.Equal(rec.Data, want) {
			t.Fatalf("data = %v, want %v", rec.Data, want)
		}
	})

	t.Run("active tracks state", func(t *testing.T) {
		t.Parallel()
		r := NewRecorder()
		if r.Active() {
			t.Fatal("new recorder should be idle")
		}
		r.Start()
		if !r.Active() {
			t.Fatal("started recorder should be active")
		}
		r.Stop()
		if r.Active() {
			t.Fatal("stopped recorder should be idle")
		}
	})

	t.Run("restart clears previous capture", func(t *testing.T) {
		t.Parallel()
		r := NewRecorder()
		r.Start()
		r.Write(frame([]byte{1, 0}))
		r.Stop()
		r.Start()
		r.Write(frame([]byte{2, 0}))
		rec, _ := r.Stop()
		if want := []byte{2, 0}; !bytes.Equal(rec.Data, want) {
			t.Fatalf("data = %v, want %v", rec.Data, want)
		}
	})
}

func TestPipe(t *testing.T) {
	t.Parallel()

	t.Run("push then receive", func(t *testing.T) {
		t.Parallel()
		p := NewPipe(4)
		p.Push(frame([]byte{1, 0}))
		got := <-p.Frames()
		if !bytes.Equal(got.Data, []byte{1, 0}) {
			t.Fatalf("unexpected frame %v", got.Data)
		}
	})

	t.Run("push after release is dropped", func(t *testing.T) {
		t.Parallel()
		p := NewPipe(4)
		p.Release()
		p.Push(frame([]byte{1, 0})) // must not panic
		if _, ok := <-p.Frames(); ok {
			t.Fatal("frame channel should be closed after Release")
		}
	})

	t.Run("release is idempotent", func(t *testing.T) {
		t.Parallel()
		p := NewPipe(4)
		p.Release()
		p.Release() // must not panic
		if !p.Released() {
			t.Fatal("Released should report true")
		}
	})

	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		t.Parallel()
		p := NewPipe(1)
		p.Push(frame([]byte{1, 0}))
		p.Push(frame([]byte{2, 0})) // dropped
		got := <-p.Frames()
		if !bytes.Equal(got.Data, []byte{1, 0}) {
			t.Fatalf("unexpected frame %v", got.Data)
		}
		select {
		case f, ok := <-p.Frames():
			if ok {
				t.Fatalf("expected empty channel, got %v", f.Data)
			}
		default:
		}
	})
}

func TestPipePlatform(t *testing.T) {
	t.Parallel()

	t.Run("acquire returns the pipe", func(t *testing.T) {
		t.Parallel()
		pipe := NewPipe(4)
		pp := NewPipePlatform(pipe)
		s, err := pp.Acquire(t.Context())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s != Stream(pipe) {
			t.Fatal("Acquire should return the configured pipe")
		}
	})

	t.Run("nil pipe means permission denied", func(t *testing.T) {
		t.Parallel()
		pp := NewPipePlatform(nil)
		if _, err := pp.Acquire(t.Context()); err != ErrPermissionDenied {
			t.Fatalf("want ErrPermissionDenied, got %v", err)
		}
	})
}

func TestMeter(t *testing.T) {
	t.Parallel()

	t.Run("silence reads zero", func(t *testing.T) {
		t.Parallel()
		m := NewMeter()
		m.Observe(frame([]byte{0, 0, 0, 0}))
		if got := m.Level(); got != 0 {
			t.Fatalf("level = %v, want 0", got)
		}
	})

	t.Run("full-scale reads near 255", func(t *testing.T) {
		t.Parallel()
		m := NewMeter()
		// Two samples of -32768 (0x8000 little-endian).
		m.Observe(frame([]byte{0x00, 0x80, 0x00, 0x80}))
		if got := m.Level(); got < 254 || got > 255 {
			t.Fatalf("level = %v, want ~255", got)
		}
	})

	t.Run("empty frame resets to zero", func(t *testing.T) {
		t.Parallel()
		m := NewMeter()
		m.Observe(frame([]byte{0x00, 0x40}))
		if m.Level() == 0 {
			t.Fatal("expected non-zero level")
		}
		m.Observe(frame(nil))
		if got := m.Level(); got != 0 {
			t.Fatalf("level = %v, want 0", got)
		}
	})

	t.Run("reset clears the level", func(t *testing.T) {
		t.Parallel()
		m := NewMeter()
		m.Observe(frame([]byte{0x00, 0x40}))
		m.Reset()
		if got := m.Level(); got != 0 {
			t.Fatalf("level = %v, want 0", got)
		}
	})
}
