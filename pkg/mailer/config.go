package mailer

// Config holds campaign template configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	// Template is the body template path (.html, .md or .markdown).
	Template string `yaml:"template" env:"MAILSHOT_TEMPLATE"`
	// Layout is an optional HTML layout, relative to the template directory.
	Layout string `yaml:"layout" env:"MAILSHOT_LAYOUT"`
	// Subject overrides the template's frontmatter subject.
	Subject string `yaml:"subject" env:"MAILSHOT_SUBJECT"`
	// FallbackSubject is used when neither Subject nor frontmatter set one.
	FallbackSubject string `yaml:"fallback_subject" env:"MAILSHOT_FALLBACK_SUBJECT"`
	// HTMLPolicy is one of escape, sanitize or trusted.
	HTMLPolicy string `yaml:"html_policy" env:"MAILSHOT_HTML_POLICY"`
}
