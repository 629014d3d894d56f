package gmail

// Config holds Gmail API provider configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	// UserID is the mailbox messages are sent from. "me" is the
	// authenticated account.
	UserID string `yaml:"user_id" env:"GMAIL_USER_ID"`
	// Endpoint overrides the API base URL.
	Endpoint string `yaml:"endpoint" env:"GMAIL_ENDPOINT"`
}
