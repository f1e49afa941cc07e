// Package bot wires the playback core to Discord: message handling,
// mention gating, voice channel joins and outbound notices.
package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"

	"nbot/internal/command"
	"nbot/internal/config"
	"nbot/internal/player"
	"nbot/internal/search"
	"nbot/internal/version"
	"nbot/internal/voice"
)

// Bot is the Discord front end: it owns the session, the per-guild player
// registry and the command dispatcher.
type Bot struct {
	dg         *discordgo.Session
	cfg        *config.Config
	players    *player.Registry
	dispatcher *command.Dispatcher
	notifier   *Notifier
}

// New builds the bot and its collaborators. Nothing connects until Run.
func New(cfg *config.Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	b := &Bot{dg: dg, cfg: cfg}
	b.notifier = NewNotifier(dg)

	resolver := search.New(cfg.YouTubeProxy)
	b.players = player.NewRegistry(func(guildID string) *player.Player {
		return player.New(guildID, b, b.notifier, resolver)
	})
	b.dispatcher = command.NewDispatcher(b.players)

	return b, nil
}

// Run opens the Discord session and blocks until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentMessageContent

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	zlog.Info().Msg("shutdown signal received, closing session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	zlog.Info().Str("user", r.User.Username).Msg(version.AppName + " online")
	s.UpdateGameStatus(0, "@"+version.AppName+" help")
}

// onMessageCreate runs a command when the bot is mentioned as the first
// token, followed by the audio module keyword and a sub-command:
//
//	@nbot audio play <link or query>
//
// An unexpected fault while handling a command is logged with a timestamp
// and re-raised; everything expected is converted to a reply.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID || m.GuildID == "" {
		return
	}
	if !b.mentionedAtStart(s, m) {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			zlog.Error().
				Time("at", time.Now()).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("command handler fault")
			panic(r)
		}
	}()

	// 0 - mention, 1 - module keyword, 2 - sub-command
	tokens := strings.Fields(m.Content)
	if len(tokens) < 3 {
		return
	}

	module := strings.ToLower(tokens[1])
	if module != "audio" && module != "a" {
		return
	}
	if module == "a" {
		b.deleteLater(m.ChannelID, m.ID, 15*time.Second)
	}

	reply := b.dispatcher.Dispatch(context.Background(), m.GuildID, m.Author.ID, m.ChannelID, tokens[2], tokens[3:])
	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSendReply(m.ChannelID, reply, m.Reference()); err != nil {
		zlog.Warn().Err(err).Str("channelID", m.ChannelID).Msg("failed to send reply")
	}
}

func (b *Bot) mentionedAtStart(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	mentioned := false
	for _, user := range m.Mentions {
		if user.ID == s.State.User.ID {
			mentioned = true
			break
		}
	}
	if !mentioned {
		return false
	}

	tokens := strings.Fields(m.Content)
	return len(tokens) > 0 && strings.Contains(tokens[0], s.State.User.ID)
}

// deleteLater removes the shorthand invocation message to keep channels
// tidy, matching the original bot's behavior for the "a" alias.
func (b *Bot) deleteLater(channelID, messageID string, after time.Duration) {
	go func() {
		time.Sleep(after)
		if err := b.dg.ChannelMessageDelete(channelID, messageID); err != nil {
			zlog.Debug().Err(err).Msg("failed to delete invocation message")
		}
	}()
}

// JoinUserChannel implements player.VoiceJoiner: it finds the user's
// current voice channel in the guild and joins it.
func (b *Bot) JoinUserChannel(guildID, userID string) (voice.Session, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving guild: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return voice.Join(b.dg, guildID, vs.ChannelID)
		}
	}
	return nil, player.ErrNoVoiceChannel
}
