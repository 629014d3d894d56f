package resend

// Config holds Resend email provider configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	APIKey      string `yaml:"api_key" env:"RESEND_API_KEY"`
	SenderEmail string `yaml:"from_email" env:"RESEND_FROM_EMAIL"`
	SenderName  string `yaml:"from_name" env:"RESEND_FROM_NAME"`
	// BaseURL overrides the API endpoint.
	BaseURL string `yaml:"base_url" env:"RESEND_BASE_URL"`
}
