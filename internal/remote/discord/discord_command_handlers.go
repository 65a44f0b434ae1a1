package discord

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) botExists(name string) bool {
	return slices.Contains(b.manager.AvailableBots(), name)
}

func (b *Bot) handleConnectRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	words := strings.Fields(m.Content)
	if len(words) < 2 {
		s.ChannelMessageSend(m.ChannelID, "Usage: !connect <bot1> [bot2] ...")
		return
	}

	for _, name := range words[1:] {
		if !b.botExists(name) {
			s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Bot '%s' not found.", name))
			continue
		}

		go func(name string) {
			if err := b.manager.Connect(context.Background(), name); err != nil {
				s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Bot '%s' failed to connect: %s", name, err))
				return
			}
			s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Bot '%s' is connecting.", name))
		}(name)
	}
}

func (b *Bot) handleDisconnectRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	words := strings.Fields(m.Content)
	if len(words) < 2 {
		s.ChannelMessageSend(m.ChannelID, "Usage: !disconnect <bot1> [bot2] ...")
		return
	}

	for _, name := range words[1:] {
		if !b.botExists(name) {
			s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Bot '%s' not found.", name))
			continue
		}
		if err := b.manager.Disconnect(name); err != nil {
			s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Bot '%s': %s", name, err))
			continue
		}
		s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Bot '%s' has been disconnected.", name))
	}
}

func (b *Bot) handleCommandRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	words := strings.SplitN(m.Content, " ", 3)
	if len(words) < 3 {
		s.ChannelMessageSend(m.ChannelID, "Usage: !command <bot> <command text>")
		return
	}

	name, command := words[1], words[2]
	if err := b.manager.SendCommand(name, command); err != nil {
		s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Bot '%s': %s", name, err))
		return
	}
	s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Command sent to '%s'.", name))
}

func (b *Bot) handleStatusRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	var sb strings.Builder
	sb.WriteString("**Fleet status**\n")
	for _, st := range b.manager.StatusAll() {
		sb.WriteString(fmt.Sprintf("- %s: %s", st.ID, st.State))
		if st.ReconnectAttempt > 0 {
			sb.WriteString(fmt.Sprintf(" (reconnect attempt %d)", st.ReconnectAttempt))
		}
		if st.LastError != "" {
			sb.WriteString(fmt.Sprintf(", last error: %s", st.LastError))
		}
		sb.WriteString("\n")
	}
	s.ChannelMessageSend(m.ChannelID, sb.String())
}

func (b *Bot) handleListRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	bots := b.manager.AvailableBots()
	if len(bots) == 0 {
		s.ChannelMessageSend(m.ChannelID, "No bots configured.")
		return
	}
	s.ChannelMessageSend(m.ChannelID, "Configured bots: "+strings.Join(bots, ", "))
}

func (b *Bot) handleHelpRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	help := "**Available commands**\n" +
		"`!connect <bot> ...` - connect one or more bots\n" +
		"`!disconnect <bot> ...` - disconnect bots\n" +
		"`!command <bot> <text>` - dispatch a command to a ready bot\n" +
		"`!status` - fleet status\n" +
		"`!list` - configured bots\n" +
		"`!help` - this message"
	s.ChannelMessageSend(m.ChannelID, help)
}
