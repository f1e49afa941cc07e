package player

import (
	"context"
	"fmt"
	"sync"

	zlog "github.com/rs/zerolog/log"

	"nbot/internal/search"
	"nbot/internal/voice"
)

// Resolver turns user input into playable tracks.
type Resolver interface {
	Search(ctx context.Context, query string) (search.TrackInfo, error)
	Lookup(link string) search.TrackInfo
}

// VoiceJoiner joins the invoking user's current voice channel. It fails
// with ErrNoVoiceChannel when the user is not in one.
type VoiceJoiner interface {
	JoinUserChannel(guildID, userID string) (voice.Session, error)
}

// Notifier delivers playback notices to a text channel. Implementations
// must not block the caller.
type Notifier interface {
	Notice(channelID, text string)
}

// Player is the per-guild playback state machine: it owns the guild's
// queue, repeat flag and volume, and chains one track's end to the next
// track's start.
//
// All operations and the stream continuation are serialized on mu, so a
// guild's state transitions are logically single-threaded. Different
// guilds' players never share locks.
type Player struct {
	guildID string

	joiner   VoiceJoiner
	notifier Notifier
	resolver Resolver

	mu        sync.Mutex
	queue     []Track
	repeat    bool
	volume    float64 // gain factor applied to the stream
	volumePct int     // user-facing percent, kept exact for display
	session   voice.Session
	handle    voice.StreamHandle
	channelID string // text channel for notices, last command wins
}

// New creates an idle player for one guild with default state.
func New(guildID string, joiner VoiceJoiner, notifier Notifier, resolver Resolver) *Player {
	return &Player{
		guildID:   guildID,
		joiner:    joiner,
		notifier:  notifier,
		resolver:  resolver,
		volume:    1.0,
		volumePct: 100,
	}
}

// SetTextChannel records where playback notices for this guild go.
func (p *Player) SetTextChannel(channelID string) {
	p.mu.Lock()
	p.channelID = channelID
	p.mu.Unlock()
}

// Play resolves query (raw URL or free-text search), appends the track and
// starts streaming unless a stream is already active. The returned string
// is the reply for the invoking user; an empty string means the notice was
// (or will be) sent via the Notifier instead.
func (p *Player) Play(ctx context.Context, userID, query string) (string, error) {
	var info search.TrackInfo
	if search.IsURL(query) {
		info = p.resolver.Lookup(query)
	} else {
		var err error
		info, err = p.resolver.Search(ctx, query)
		if err != nil {
			return "", err
		}
	}
	track := Track{Link: info.Link, Title: info.Title, Channel: info.Channel}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil {
		p.queue = append(p.queue, track)
		if p.session.IsSpeaking() {
			return track.Title + " added to the queue", nil
		}
		// Connected but silent (paused): appended only.
		return "", nil
	}

	session, err := p.joiner.JoinUserChannel(p.guildID, userID)
	if err != nil {
		return "", err
	}

	p.session = session
	p.queue = append(p.queue, track)

	handle, err := p.startHeadLocked("", false)
	if err != nil {
		session.Disconnect()
		p.session = nil
		return "", err
	}

	go p.watch(handle)
	return "", nil
}

// Pause pauses the active stream.
func (p *Player) Pause() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return "", ErrNoVoiceChannel
	}
	if p.session.IsPaused() {
		return "", ErrAlreadyPaused
	}
	p.session.Pause()
	return "Playback paused", nil
}

// Resume resumes a paused stream.
func (p *Player) Resume() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return "", ErrNoVoiceChannel
	}
	if !p.session.IsPaused() {
		return "", ErrNotPaused
	}
	p.session.Resume()
	return "Playback resumed", nil
}

// Stop clears the queue and ends the active stream. The continuation then
// observes the empty queue and disconnects.
func (p *Player) Stop() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = nil
	if p.session == nil {
		return "", ErrNoVoiceChannel
	}
	if p.handle != nil {
		p.handle.Stop()
	}
	return "", nil
}

// Skip ends the active stream; the continuation advances the queue.
func (p *Player) Skip() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil || len(p.queue) == 0 {
		return "", ErrNothingToSkip
	}
	if p.handle != nil {
		p.handle.Stop()
	}
	return "", nil
}

// SetVolume applies a 0-400 percent gain to the live stream and the guild
// state. The value persists across tracks until the queue empties.
func (p *Player) SetVolume(rawPercent int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return "", ErrNoVoiceChannel
	}
	if rawPercent < 0 || rawPercent > 400 {
		return "", ErrInvalidRange
	}

	p.volume = float64(rawPercent) / 100
	p.volumePct = rawPercent
	p.session.SetVolume(p.volume)
	return fmt.Sprintf("volume set to %d%%", rawPercent), nil
}

// ToggleRepeat flips the repeat flag.
func (p *Player) ToggleRepeat() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.repeat = !p.repeat
	if p.repeat {
		return "Repeat current audio: `on`", nil
	}
	return "Repeat current audio: `off`", nil
}

// DescribeQueue renders the ordered queue with repeat/volume status. It
// never mutates state.
func (p *Player) DescribeQueue() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return "", ErrEmptyQueue
	}

	repeat := "off"
	if p.repeat {
		repeat = "on"
	}

	out := fmt.Sprintf("```md\ncurrently playing ↴  repeat: %s  volume: %d%%\n", repeat, p.volumePct)
	for i, track := range p.queue {
		out += fmt.Sprintf("%d. %s\n", i+1, track.Title)
	}
	return out + "```", nil
}

// watch consumes terminal stream events and drives the continuation. One
// watcher runs per voice session; it exits when the session tears down, so
// at most one continuation is ever in flight for a guild.
func (p *Player) watch(handle voice.StreamHandle) {
	for {
		evt, ok := <-handle.End()
		if !ok {
			return
		}
		next := p.advance(evt.Reason)
		if next == nil {
			return
		}
		handle = next
	}
}

// advance runs the continuation for one end-of-stream event: drop the head
// unless repeating, then either tear the session down (empty queue) or
// start the new head. Returns the next stream handle, or nil when playback
// ended.
func (p *Player) advance(reason string) voice.StreamHandle {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) > 0 {
		finished := p.queue[0]
		zlog.Info().
			Str("guildID", p.guildID).
			Str("reason", reason).
			Str("title", finished.Title).
			Str("link", finished.Link).
			Msg("stream ended")
		if !p.repeat {
			p.queue = p.queue[1:]
		}
	} else {
		// Queue was cleared by stop before the end event arrived.
		zlog.Info().Str("guildID", p.guildID).Str("reason", reason).Msg("stream ended")
	}

	if len(p.queue) == 0 {
		p.teardownLocked()
		p.notifyLocked("Queue playback complete")
		return nil
	}

	handle, err := p.startHeadLocked(reason, true)
	if err != nil {
		// Queue is kept so the user may retry with another play.
		p.notifyLocked(fmt.Sprintf("Failed to start next track: %v", err))
		if p.session != nil {
			p.session.Disconnect()
			p.session = nil
		}
		p.handle = nil
		return nil
	}
	return handle
}

// startHeadLocked begins streaming the queue head and emits the
// now-playing notice. continued marks a continuation start as opposed to a
// fresh play command. Caller holds mu.
func (p *Player) startHeadLocked(reason string, continued bool) (voice.StreamHandle, error) {
	head := p.queue[0]

	handle, err := p.session.Play(head.Link, voice.PlayOptions{Volume: p.volume})
	if err != nil {
		return nil, fmt.Errorf("failed to start stream: %w", err)
	}
	p.handle = handle

	if continued && p.repeat && reason != voice.ReasonUser {
		p.notifyLocked("`Now repeating:` " + head.Title)
	} else {
		p.notifyLocked(fmt.Sprintf("\n\n`Now playing:` %s\n`Link:` %s\n`Channel:` %s",
			head.Title, head.Link, head.Channel))
	}
	return handle, nil
}

// teardownLocked resets the guild to idle defaults. The repeat flag is
// cleared without a toggle notice on purpose, matching long-standing bot
// behavior.
func (p *Player) teardownLocked() {
	p.repeat = false
	p.volume = 1.0
	p.volumePct = 100
	if p.session != nil {
		p.session.Disconnect()
		p.session = nil
	}
	p.handle = nil
}

func (p *Player) notifyLocked(text string) {
	if p.channelID == "" {
		return
	}
	p.notifier.Notice(p.channelID, text)
}
