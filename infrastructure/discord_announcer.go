package infrastructure

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"raffler/application/dto"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const colorWinner = 0x57F287

// embedSender is the subset of discordgo.Session used to post announcements
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAnnouncer posts completed rounds to a Discord channel
type DiscordAnnouncer struct {
	session   embedSender
	channelID string
}

// NewDiscordAnnouncer creates an announcer using a bot token. Only the REST
// API is used, so no gateway connection is opened.
func NewDiscordAnnouncer(token, channelID string) (*DiscordAnnouncer, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return newDiscordAnnouncer(session, channelID), nil
}

func newDiscordAnnouncer(session embedSender, channelID string) *DiscordAnnouncer {
	return &DiscordAnnouncer{
		session:   session,
		channelID: channelID,
	}
}

// AnnounceWinner posts the winner embed
func (a *DiscordAnnouncer) AnnounceWinner(ctx context.Context, announcement dto.WinnerAnnouncementDTO) error {
	embed := createWinnerEmbed(announcement)

	if _, err := a.session.ChannelMessageSendEmbed(a.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post winner announcement: %w", err)
	}

	log.WithFields(log.Fields{
		"channelID": a.channelID,
		"round":     announcement.RoundNumber,
		"winner":    announcement.Winner,
	}).Info("Posted winner announcement")
	return nil
}

func createWinnerEmbed(announcement dto.WinnerAnnouncementDTO) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Raffle Round #%d", announcement.RoundNumber),
		Color:       colorWinner,
		Description: fmt.Sprintf("**%s** wins the pot!", announcement.Winner),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Prize",
				Value:  strconv.FormatInt(announcement.PrizeAmount, 10),
				Inline: true,
			},
			{
				Name:   "Request",
				Value:  announcement.RequestID,
				Inline: true,
			},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
