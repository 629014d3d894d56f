package smtp

// Config holds SMTP relay configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	// SenderEmail is the envelope sender used when the message has none.
	SenderEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
	// InsecureSkipVerify disables TLS certificate checks. Test relays only.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" env:"SMTP_INSECURE_SKIP_VERIFY"`
}
