package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/coopermor/hive/internal/event"
	"github.com/coopermor/hive/internal/fleet"
)

type Bot struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	logger  *slog.Logger
	manager *fleet.Manager
}

func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(b.getLatestOffset())
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			if update.Message == nil || update.Message.Chat.ID != b.chatID {
				continue
			}
			b.handleMessage(ctx, update.Message.Text)
		}
	}
}

// getLatestOffset skips the backlog of updates accumulated while the
// controller was down, so old commands are not replayed on startup.
func (b *Bot) getLatestOffset() int {
	updates, err := b.bot.GetUpdates(tgbotapi.UpdateConfig{Timeout: 0})
	if err != nil || len(updates) == 0 {
		return 0
	}

	return updates[len(updates)-1].UpdateID + 1
}

func (b *Bot) handleMessage(ctx context.Context, text string) {
	words := strings.Fields(strings.TrimSpace(text))
	if len(words) == 0 {
		return
	}

	switch strings.ToLower(words[0]) {
	case "status":
		b.handleStatus()
	case "list":
		b.handleList()
	case "connect":
		if len(words) < 2 {
			b.send("Usage: connect <bot>")
			return
		}
		b.handleConnect(ctx, words[1])
	case "disconnect":
		if len(words) < 2 {
			b.send("Usage: disconnect <bot>")
			return
		}
		b.handleDisconnect(words[1])
	case "command":
		if len(words) < 3 {
			b.send("Usage: command <bot> <text>")
			return
		}
		b.handleCommand(words[1], strings.Join(words[2:], " "))
	case "help":
		b.send("Commands:\nstatus\nlist\nconnect <bot>\ndisconnect <bot>\ncommand <bot> <text>")
	}
}

func (b *Bot) handleStatus() {
	statuses := b.manager.StatusAll()
	if len(statuses) == 0 {
		b.send("No bots configured.")
		return
	}

	sb := strings.Builder{}
	for _, st := range statuses {
		sb.WriteString(fmt.Sprintf("%s: %s", st.ID, st.State))
		if st.LastError != "" {
			sb.WriteString(fmt.Sprintf(" (last error: %s)", st.LastError))
		}
		sb.WriteString("\n")
	}
	b.send(sb.String())
}

func (b *Bot) handleList() {
	bots := b.manager.AvailableBots()
	if len(bots) == 0 {
		b.send("No bots configured.")
		return
	}
	b.send("Configured bots:\n" + strings.Join(bots, "\n"))
}

func (b *Bot) handleConnect(ctx context.Context, name string) {
	go func() {
		if err := b.manager.Connect(ctx, name); err != nil {
			b.send(fmt.Sprintf("Failed to connect %s: %s", name, err.Error()))
			return
		}
		b.send(fmt.Sprintf("Connecting %s", name))
	}()
}

func (b *Bot) handleDisconnect(name string) {
	if err := b.manager.Disconnect(name); err != nil {
		b.send(fmt.Sprintf("Failed to disconnect %s: %s", name, err.Error()))
		return
	}
	b.send(fmt.Sprintf("Disconnected %s", name))
}

func (b *Bot) handleCommand(name, command string) {
	if err := b.manager.SendCommand(name, command); err != nil {
		b.send(fmt.Sprintf("Failed to send command to %s: %s", name, err.Error()))
		return
	}
	b.send(fmt.Sprintf("Sent to %s: %s", name, command))
}

func (b *Bot) Handle(_ context.Context, e event.Event) error {
	switch evt := e.(type) {
	case event.SessionCompletedEvent:
		msg := fmt.Sprintf("%s session completed", evt.Bot())
		if !evt.Confirmed {
			msg += " (unconfirmed)"
		}
		b.send(msg)
	case event.DisconnectedEvent:
		if !evt.UserInitiated {
			b.send(fmt.Sprintf("%s disconnected: %s", evt.Bot(), evt.Reason))
		}
	case event.ReconnectScheduledEvent:
		b.send(fmt.Sprintf("%s reconnecting (attempt %d, in %s)", evt.Bot(), evt.Attempt, evt.Delay))
	}

	return nil
}

func (b *Bot) send(text string) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	if _, err := b.bot.Send(msg); err != nil {
		b.logger.Error("error sending telegram message", slog.Any("error", err))
	}
}
