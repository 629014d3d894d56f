package dispatch

// Config holds dispatcher settings.
type Config struct {
	// Rate limits sends per second. Zero or less disables throttling.
	Rate float64 `yaml:"rate" env:"MAILSHOT_RATE"`
	// Burst is the number of sends allowed without waiting. Defaults to 1.
	Burst int `yaml:"burst" env:"MAILSHOT_BURST"`
}
