package discord

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/coopermor/hive/internal/config"
	"github.com/coopermor/hive/internal/event"
	"github.com/coopermor/hive/internal/fleet"
)

type Bot struct {
	discordSession *discordgo.Session
	channelID      string
	manager        *fleet.Manager
}

func NewBot(token, channelID string, manager *fleet.Manager) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	return &Bot{
		discordSession: dg,
		channelID:      channelID,
		manager:        manager,
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	b.discordSession.AddHandler(b.onMessageCreated)
	// MESSAGE_CONTENT intent is required to read command text
	b.discordSession.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	if err := b.discordSession.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	<-ctx.Done()

	return b.discordSession.Close()
}

// Handle forwards session events to the configured channel.
func (b *Bot) Handle(_ context.Context, e event.Event) error {
	switch evt := e.(type) {
	case event.SessionCompletedEvent:
		suffix := ""
		if !evt.Confirmed {
			suffix = " (unconfirmed)"
		}
		_, err := b.discordSession.ChannelMessageSend(b.channelID, fmt.Sprintf("[%s] %s%s", e.Bot(), e.Message(), suffix))
		return err
	case event.DisconnectedEvent, event.ReconnectScheduledEvent:
		_, err := b.discordSession.ChannelMessageSend(b.channelID, fmt.Sprintf("[%s] %s", e.Bot(), e.Message()))
		return err
	}
	return nil
}

func (b *Bot) onMessageCreated(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore messages from the bot itself
	if m.Author.ID == s.State.User.ID {
		return
	}

	if !slices.Contains(config.Hive.Discord.BotAdmins, m.Author.ID) {
		return
	}

	if !strings.HasPrefix(m.Content, "!") {
		return
	}

	prefix := strings.Split(m.Content, " ")[0]
	switch prefix {
	case "!connect":
		b.handleConnectRequest(s, m)
	case "!disconnect":
		b.handleDisconnectRequest(s, m)
	case "!command":
		b.handleCommandRequest(s, m)
	case "!status":
		b.handleStatusRequest(s, m)
	case "!list":
		b.handleListRequest(s, m)
	case "!help":
		b.handleHelpRequest(s, m)
	default:
		s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Unknown command: `%s`. Type `!help` for available commands.", prefix))
	}
}
