package oauth

// GoogleConfig holds Google OAuth client configuration.
// ClientSecretFile is used when ClientID and ClientSecret are empty.
type GoogleConfig struct {
	ClientID         string   `yaml:"client_id" env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret     string   `yaml:"client_secret" env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	ClientSecretFile string   `yaml:"client_secret_file" env:"GOOGLE_OAUTH_CLIENT_SECRET_FILE"`
	RedirectURL      string   `yaml:"redirect_url" env:"GOOGLE_OAUTH_REDIRECT_URL"`
	Scopes           []string `yaml:"scopes" env:"GOOGLE_OAUTH_SCOPES" envSeparator:","`
}

// HasInlineCredentials reports whether the client credentials are set
// directly rather than through a client secret file.
func (c GoogleConfig) HasInlineCredentials() bool {
	return c.ClientID != "" || c.ClientSecret != ""
}
