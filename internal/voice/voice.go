// Package voice defines the stream-transport seam the playback core talks
// through, plus the Discord implementation of it.
package voice

// ReasonUser marks an end-of-stream that was forced by a user command
// (skip or stop) rather than natural completion.
const ReasonUser = "user"

// EndEvent is the single terminal event a stream emits.
type EndEvent struct {
	Reason string
}

// PlayOptions carry per-stream settings.
type PlayOptions struct {
	Volume float64
	Seek   float64 // seconds into the track
}

// Session is a live voice connection for one guild. A Session is owned by
// exactly one guild at a time and never shared.
type Session interface {
	// Play starts streaming link and returns a handle for the running
	// stream. The handle's End channel delivers exactly one EndEvent.
	Play(link string, opts PlayOptions) (StreamHandle, error)

	Pause()
	Resume()
	IsPaused() bool

	// IsSpeaking reports whether the session is currently producing audio.
	IsSpeaking() bool

	// SetVolume adjusts the live stream gain (1.0 = unchanged).
	SetVolume(v float64)

	Disconnect() error
}

// StreamHandle represents one running stream.
type StreamHandle interface {
	// Stop forces the terminal EndEvent with ReasonUser.
	Stop()

	// End delivers the terminal event. It is closed after delivery.
	End() <-chan EndEvent
}
