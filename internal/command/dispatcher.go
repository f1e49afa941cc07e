// Package command maps tokenized sub-commands onto playback operations.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"nbot/internal/player"
	"nbot/internal/search"
	"nbot/internal/version"
)

// ErrNotANumber rejects a non-numeric volume argument before the range
// check.
var ErrNotANumber = errors.New("volume is not a number")

// Context carries one invocation's inputs.
type Context struct {
	Ctx    context.Context
	UserID string
	Player *player.Player
	Args   []string // tokens after the sub-command
}

// Command is one sub-command with its aliases.
type Command struct {
	Name    string
	Aliases []string
	Run     func(c *Context) (string, error)
}

// Dispatcher resolves sub-command tokens to playback operations and
// converts every failure into a single user-visible reply.
type Dispatcher struct {
	registry map[string]*Command
	players  *player.Registry
}

func NewDispatcher(players *player.Registry) *Dispatcher {
	d := &Dispatcher{
		registry: make(map[string]*Command),
		players:  players,
	}

	d.register(&Command{Name: "play", Aliases: []string{"p"}, Run: runPlay})
	d.register(&Command{Name: "pause", Aliases: []string{"ps"}, Run: func(c *Context) (string, error) { return c.Player.Pause() }})
	d.register(&Command{Name: "resume", Aliases: []string{"rs"}, Run: func(c *Context) (string, error) { return c.Player.Resume() }})
	d.register(&Command{Name: "stop", Aliases: []string{"s"}, Run: func(c *Context) (string, error) { return c.Player.Stop() }})
	d.register(&Command{Name: "skip", Aliases: []string{"sk"}, Run: func(c *Context) (string, error) { return c.Player.Skip() }})
	d.register(&Command{Name: "queue", Aliases: []string{"q"}, Run: func(c *Context) (string, error) { return c.Player.DescribeQueue() }})
	d.register(&Command{Name: "repeat", Aliases: []string{"r"}, Run: func(c *Context) (string, error) { return c.Player.ToggleRepeat() }})
	d.register(&Command{Name: "volume", Aliases: []string{"v"}, Run: runVolume})

	return d
}

func (d *Dispatcher) register(cmd *Command) {
	d.registry[cmd.Name] = cmd
	for _, a := range cmd.Aliases {
		d.registry[a] = cmd
	}
}

// Dispatch handles one sub-command for a guild and returns the reply text.
// Unknown tokens are ignored with an empty reply.
func (d *Dispatcher) Dispatch(ctx context.Context, guildID, userID, channelID, sub string, args []string) string {
	cmd, ok := d.registry[strings.ToLower(sub)]
	if !ok {
		return ""
	}

	pl := d.players.GetOrCreate(guildID)
	pl.SetTextChannel(channelID)

	reply, err := cmd.Run(&Context{
		Ctx:    ctx,
		UserID: userID,
		Player: pl,
		Args:   args,
	})
	if err != nil {
		return errorReply(err)
	}
	return reply
}

func runPlay(c *Context) (string, error) {
	query := strings.TrimSpace(strings.Join(c.Args, " "))
	if query == "" {
		return "Tell me what to play: a link or a search query", nil
	}
	return c.Player.Play(c.Ctx, c.UserID, query)
}

func runVolume(c *Context) (string, error) {
	if len(c.Args) == 0 {
		return "", ErrNotANumber
	}
	raw, err := strconv.Atoi(c.Args[0])
	if err != nil {
		return "", ErrNotANumber
	}
	return c.Player.SetVolume(raw)
}

// errorReply converts the failure taxonomy into user-visible notices. A
// playlist-only search hit reads the same as no results on purpose.
func errorReply(err error) string {
	switch {
	case errors.Is(err, player.ErrNoVoiceChannel):
		return version.AppName + " is not in a voice channel. Use @" + version.AppName + " help to learn how to fix that"
	case errors.Is(err, search.ErrNoResults), errors.Is(err, search.ErrPlaylistNotSupported):
		return "No results for that search"
	case errors.Is(err, ErrNotANumber):
		return "Volume must be a number between 0-400"
	case errors.Is(err, player.ErrInvalidRange):
		return "Enter a value between 0-400"
	case errors.Is(err, player.ErrAlreadyPaused):
		return "Playback is already paused"
	case errors.Is(err, player.ErrNotPaused):
		return "Playback is not paused"
	case errors.Is(err, player.ErrNothingToSkip):
		return "Nothing to skip"
	case errors.Is(err, player.ErrEmptyQueue):
		return "Nothing in queue"
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}
