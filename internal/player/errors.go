package player

import "errors"

var (
	ErrNoVoiceChannel = errors.New("not in a voice channel")
	ErrInvalidRange   = errors.New("volume out of range")
	ErrAlreadyPaused  = errors.New("playback is already paused")
	ErrNotPaused      = errors.New("playback is not paused")
	ErrNothingToSkip  = errors.New("nothing to skip")
	ErrEmptyQueue     = errors.New("nothing in queue")
)
