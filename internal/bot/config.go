package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Chat allowed to use the bot and receiving reminders; 0 accepts any chat
	ChatID int64
	// Long polling timeout in seconds
	UpdateTimeout int
	// Maximum number of words shown by /list
	ListLimit int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeout: 60,
		ListLimit:     50,
	}
}
