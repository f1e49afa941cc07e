package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func newTestSession(t *testing.T) *discordgo.Session {
	t.Helper()
	s := &discordgo.Session{State: discordgo.NewState()}
	s.State.User = &discordgo.User{ID: "bot-id"}
	return s
}

func message(content string, mentions ...*discordgo.User) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			Content:  content,
			Mentions: mentions,
		},
	}
}

func TestMentionedAtStart(t *testing.T) {
	s := newTestSession(t)
	b := &Bot{}

	tests := []struct {
		name string
		msg  *discordgo.MessageCreate
		want bool
	}{
		{
			name: "mention first token",
			msg:  message("<@bot-id> audio play song", &discordgo.User{ID: "bot-id"}),
			want: true,
		},
		{
			name: "nickname mention first token",
			msg:  message("<@!bot-id> a q", &discordgo.User{ID: "bot-id"}),
			want: true,
		},
		{
			name: "mention mid-message",
			msg:  message("hey <@bot-id> audio play song", &discordgo.User{ID: "bot-id"}),
			want: false,
		},
		{
			name: "no mention",
			msg:  message("audio play song"),
			want: false,
		},
		{
			name: "someone else mentioned",
			msg:  message("<@other-id> audio play song", &discordgo.User{ID: "other-id"}),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.mentionedAtStart(s, tt.msg))
		})
	}
}

func TestNoticeQueueKeepsOrder(t *testing.T) {
	// No worker running: the queue can be inspected directly.
	n := &Notifier{queue: make(chan notice, 8)}

	n.Notice("chan-1", "Now playing: a")
	n.Notice("chan-1", "Now playing: b")
	n.Notice("chan-1", "Queue playback complete")

	assert.Equal(t, "Now playing: a", (<-n.queue).text)
	assert.Equal(t, "Now playing: b", (<-n.queue).text)
	assert.Equal(t, "Queue playback complete", (<-n.queue).text)
}

func TestNoticeNeverBlocks(t *testing.T) {
	n := &Notifier{queue: make(chan notice, 1)}

	n.Notice("chan-1", "kept")
	n.Notice("chan-1", "dropped") // full queue must not block the caller

	assert.Equal(t, "kept", (<-n.queue).text)
	select {
	case nt := <-n.queue:
		t.Fatalf("unexpected queued notice %q", nt.text)
	default:
	}
}
