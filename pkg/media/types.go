package media

import "time"

// AudioFrame is a single frame of little-endian int16 PCM flowing from the
// capture transport into the session pipeline.
type AudioFrame struct {
	// Data is raw PCM. Length must be even (2 bytes per sample).
	Data []byte

	// SampleRate in Hz (e.g., 16000 for the browser capture path).
	SampleRate int

	// Channels: 1 for mono capture, 2 for stereo.
	Channels int

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Recording is the finalised binary payload produced by a [Recorder] once
// recording stops. It is the unit handed to the analysis gateway.
type Recording struct {
	// Data is the concatenated PCM of every frame between Start and Stop.
	Data []byte

	// MimeType describes the payload encoding for the remote collaborator.
	MimeType string

	// SampleRate and Channels describe the PCM layout.
	SampleRate int
	Channels   int

	// Duration is the wall-clock span covered by the recording.
	Duration time.Duration
}
