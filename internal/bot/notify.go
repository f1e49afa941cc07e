package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const embedColor = 0x9f00d4

type notice struct {
	channelID string
	text      string
}

// Notifier sends playback notices to text channels. A single worker drains
// the queue in submission order, rate-limited so a fast continuation chain
// cannot flood Discord.
type Notifier struct {
	dg      *discordgo.Session
	limiter *rate.Limiter
	queue   chan notice
}

func NewNotifier(dg *discordgo.Session) *Notifier {
	n := &Notifier{
		dg:      dg,
		limiter: rate.NewLimiter(rate.Limit(2), 5),
		queue:   make(chan notice, 64),
	}
	go n.run()
	return n
}

// Notice implements player.Notifier. It never blocks the caller; when the
// queue is full the notice is dropped.
func (n *Notifier) Notice(channelID, text string) {
	select {
	case n.queue <- notice{channelID: channelID, text: text}:
	default:
		zlog.Warn().Str("channelID", channelID).Msg("notice queue full, dropping")
	}
}

func (n *Notifier) run() {
	for nt := range n.queue {
		if err := n.limiter.Wait(context.Background()); err != nil {
			return
		}

		msg := embed.NewEmbed().
			SetColor(embedColor).
			SetDescription(nt.text).
			MessageEmbed
		if _, err := n.dg.ChannelMessageSendEmbed(nt.channelID, msg); err != nil {
			zlog.Warn().Err(err).Str("channelID", nt.channelID).Msg("failed to send notice")
		}
	}
}
