package telegram

func (b *Bot) Close() {
	b.bot.StopReceivingUpdates()
}
