package infrastructure

import (
	"context"
	"errors"
	"testing"

	"raffler/application/dto"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedSender struct {
	channelID string
	embeds    []*discordgo.MessageEmbed
	err       error
}

func (f *fakeEmbedSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channelID = channelID
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func TestDiscordAnnouncer_PostsEmbed(t *testing.T) {
	t.Parallel()

	sender := &fakeEmbedSender{}
	announcer := newDiscordAnnouncer(sender, "123456")

	err := announcer.AnnounceWinner(context.Background(), dto.WinnerAnnouncementDTO{
		Winner:      "alice",
		PrizeAmount: 30_003,
		RoundNumber: 4,
		RequestID:   "req-4",
	})
	require.NoError(t, err)

	assert.Equal(t, "123456", sender.channelID)
	require.Len(t, sender.embeds, 1)
	embed := sender.embeds[0]
	assert.Equal(t, "Raffle Round #4", embed.Title)
	assert.Contains(t, embed.Description, "alice")
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "30003", embed.Fields[0].Value)
	assert.Equal(t, "req-4", embed.Fields[1].Value)
}

func TestDiscordAnnouncer_SendError(t *testing.T) {
	t.Parallel()

	sender := &fakeEmbedSender{err: errors.New("rate limited")}
	announcer := newDiscordAnnouncer(sender, "123456")

	err := announcer.AnnounceWinner(context.Background(), dto.WinnerAnnouncementDTO{Winner: "alice"})
	assert.Error(t, err)
}
