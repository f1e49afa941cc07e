package voice

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"
	"layeh.com/gopus"
)

// DiscordSession streams opus audio into one guild's voice channel.
type DiscordSession struct {
	vc *discordgo.VoiceConnection

	mu      sync.Mutex
	paused  bool
	volume  float64
	current *discordStream
}

// Join connects to a voice channel and returns a live session for it.
func Join(dg *discordgo.Session, guildID, channelID string) (*DiscordSession, error) {
	vc, err := dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}
	return &DiscordSession{vc: vc, volume: 1.0}, nil
}

func (s *DiscordSession) Play(link string, opts PlayOptions) (StreamHandle, error) {
	pcm, cleanup, err := openPCM(link, opts.Seek)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}

	st := &discordStream{
		stop: make(chan struct{}),
		end:  make(chan EndEvent, 1),
	}

	s.mu.Lock()
	if opts.Volume > 0 {
		s.volume = opts.Volume
	}
	s.paused = false
	s.current = st
	s.mu.Unlock()

	go s.run(st, pcm, cleanup)
	return st, nil
}

func (s *DiscordSession) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	s.vc.Speaking(false)
}

func (s *DiscordSession) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	s.vc.Speaking(true)
}

func (s *DiscordSession) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *DiscordSession) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && !s.paused
}

func (s *DiscordSession) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
}

func (s *DiscordSession) Disconnect() error {
	s.vc.Speaking(false)
	return s.vc.Disconnect()
}

// run is the send loop: PCM frames are gain-scaled, opus-encoded and pushed
// to Discord until the stream drains or is stopped.
func (s *DiscordSession) run(st *discordStream, pcm io.ReadCloser, cleanup func()) {
	defer cleanup()
	defer pcm.Close()

	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		zlog.Error().Err(err).Msg("opus encoder error")
		s.finish(st, "error")
		return
	}

	s.vc.Speaking(true)
	defer s.vc.Speaking(false)

	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)

	for {
		select {
		case <-st.stop:
			s.finish(st, ReasonUser)
			return
		default:
		}

		if s.IsPaused() {
			time.Sleep(20 * time.Millisecond)
			continue
		}

		if _, err := io.ReadFull(pcm, pcmBuf); err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				zlog.Warn().Err(err).Msg("stream read error")
			}
			s.finish(st, "")
			return
		}

		gain := s.currentVolume()
		for i := range intBuf {
			sample := int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
			intBuf[i] = applyGain(sample, gain)
		}

		frame, err := encoder.Encode(intBuf, frameSize, len(pcmBuf))
		if err != nil {
			zlog.Error().Err(err).Msg("opus encode error")
			s.finish(st, "error")
			return
		}

		select {
		case s.vc.OpusSend <- frame:
		case <-st.stop:
			s.finish(st, ReasonUser)
			return
		}
	}
}

func (s *DiscordSession) finish(st *discordStream, reason string) {
	s.mu.Lock()
	if s.current == st {
		s.current = nil
	}
	s.mu.Unlock()
	st.emit(reason)
}

func (s *DiscordSession) currentVolume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func applyGain(sample int16, gain float64) int16 {
	scaled := float64(sample) * gain
	switch {
	case scaled > 32767:
		return 32767
	case scaled < -32768:
		return -32768
	default:
		return int16(scaled)
	}
}

type discordStream struct {
	stopOnce sync.Once
	endOnce  sync.Once
	stop     chan struct{}
	end      chan EndEvent
}

func (d *discordStream) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

func (d *discordStream) End() <-chan EndEvent {
	return d.end
}

func (d *discordStream) emit(reason string) {
	d.endOnce.Do(func() {
		d.end <- EndEvent{Reason: reason}
		close(d.end)
	})
}
