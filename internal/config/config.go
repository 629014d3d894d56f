// Package config loads mailshot settings.
//
// Values are layered, later sources winning: built-in defaults, the YAML
// config file, a .env file, environment variables and finally command line
// flags (applied by the CLI).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/mailshot/pkg/credential"
	"github.com/dmitrymomot/mailshot/pkg/dispatch"
	"github.com/dmitrymomot/mailshot/pkg/logger"
	"github.com/dmitrymomot/mailshot/pkg/mailer"
	"github.com/dmitrymomot/mailshot/pkg/mailer/gmail"
	"github.com/dmitrymomot/mailshot/pkg/mailer/resend"
	"github.com/dmitrymomot/mailshot/pkg/mailer/smtp"
	"github.com/dmitrymomot/mailshot/pkg/oauth"
	"github.com/dmitrymomot/mailshot/pkg/recipient"
	"github.com/dmitrymomot/mailshot/pkg/sanitizer"
	"github.com/dmitrymomot/mailshot/pkg/storage"
)

// Providers accepted by Config.Provider.
const (
	ProviderGmail  = "gmail"
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
)

// Default file names.
const (
	DefaultConfigFile       = "mailshot.yaml"
	DefaultEnvFile          = ".env"
	DefaultClientSecretFile = "client_secret.json"
	DefaultRecipientsFile   = "sponsors_list.csv"
	DefaultAttachmentFile   = "brochure.pdf"
	DefaultTemplateFile     = "campaign.html"
	DefaultSender           = "me"
	DefaultFallbackSubject  = "Invitation to Collaborate with {{.Name}}"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrReadFailed is returned when the config file cannot be read or parsed.
	ErrReadFailed = errors.New("config: failed to read configuration")
)

// Config is the complete mailshot configuration.
type Config struct {
	Provider   string `yaml:"provider" env:"MAILSHOT_PROVIDER"`
	From       string `yaml:"from" env:"MAILSHOT_FROM"`
	Recipients string `yaml:"recipients" env:"MAILSHOT_RECIPIENTS"`
	Attachment string `yaml:"attachment" env:"MAILSHOT_ATTACHMENT"`
	Report     string `yaml:"report" env:"MAILSHOT_REPORT"`

	// Encoding of the recipient table: utf-8 (default), utf-16,
	// windows-1252, iso-8859-1 or iso-8859-15.
	Encoding  string `yaml:"encoding" env:"MAILSHOT_CSV_ENCODING"`
	Delimiter string `yaml:"delimiter" env:"MAILSHOT_CSV_DELIMITER"`

	NonInteractive bool `yaml:"non_interactive" env:"MAILSHOT_NON_INTERACTIVE"`

	Mailer     mailer.Config        `yaml:"mailer"`
	Columns    recipient.Columns    `yaml:"columns"`
	Dispatch   dispatch.Config      `yaml:"dispatch"`
	Credential credential.Config    `yaml:"credential"`
	OAuth      oauth.GoogleConfig   `yaml:"oauth"`
	Loopback   oauth.LoopbackConfig `yaml:"loopback"`
	Gmail      gmail.Config         `yaml:"gmail"`
	Resend     resend.Config        `yaml:"resend"`
	SMTP       smtp.Config          `yaml:"smtp"`
	S3         storage.S3Config     `yaml:"s3"`
	Log        logger.Config        `yaml:"log"`
}

// Default returns the configuration used when nothing is overridden. File
// names match the layout of a campaign directory: client_secret.json,
// token.json, sponsors_list.csv and brochure.pdf.
func Default() *Config {
	return &Config{
		Provider:   ProviderGmail,
		From:       DefaultSender,
		Recipients: DefaultRecipientsFile,
		Attachment: DefaultAttachmentFile,
		Mailer: mailer.Config{
			Template:        DefaultTemplateFile,
			FallbackSubject: DefaultFallbackSubject,
			HTMLPolicy:      string(sanitizer.PolicyEscape),
		},
		Columns:    recipient.DefaultColumns(),
		Dispatch:   dispatch.Config{Burst: 1},
		Credential: credential.DefaultConfig(),
		OAuth: oauth.GoogleConfig{
			ClientSecretFile: DefaultClientSecretFile,
			Scopes:           oauth.GoogleDefaultScopes(),
		},
		Loopback: oauth.LoopbackConfig{Timeout: oauth.DefaultAuthorizationTimeout},
		Gmail:    gmail.Config{UserID: gmail.DefaultUserID},
		SMTP:     smtp.Config{Port: smtp.DefaultPort},
		Log:      logger.Config{Level: "info", Format: logger.FormatText},
	}
}

// Options controls which sources Load reads.
type Options struct {
	// Path of the YAML file. Empty means DefaultConfigFile, read only when
	// it exists.
	Path string
	// EnvFile is loaded into the process environment without overriding
	// variables already set. Empty means DefaultEnvFile, read only when it
	// exists.
	EnvFile string
	// SkipEnv disables the .env file and environment variables.
	SkipEnv bool
}

// Load builds the configuration from defaults, the YAML file and the
// environment. An explicitly named file that does not exist is an error.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	path, required := opts.Path, true
	if path == "" {
		path, required = DefaultConfigFile, false
	}
	if err := cfg.loadFile(path, required); err != nil {
		return nil, err
	}

	if !opts.SkipEnv {
		envFile, required := opts.EnvFile, true
		if envFile == "" {
			envFile, required = DefaultEnvFile, false
		}
		if err := godotenv.Load(envFile); err != nil && (required || !errors.Is(err, fs.ErrNotExist)) {
			return nil, errors.Join(ErrReadFailed, fmt.Errorf("load %s: %w", envFile, err))
		}
		if err := env.Parse(cfg); err != nil {
			return nil, errors.Join(ErrReadFailed, err)
		}
	}

	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Join(ErrReadFailed, err)
	}
	if err := yaml.Unmarshal(content, c); err != nil {
		return errors.Join(ErrReadFailed, fmt.Errorf("parse %s: %w", path, err))
	}
	return nil
}

// Validate checks the settings needed for a send run.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider {
	case ProviderGmail, ProviderResend, ProviderSMTP:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	if strings.TrimSpace(c.Recipients) == "" {
		errs = append(errs, errors.New("recipients file is required"))
	}
	if strings.TrimSpace(c.Mailer.Template) == "" {
		errs = append(errs, errors.New("template is required"))
	}
	if _, err := sanitizer.ParsePolicy(c.Mailer.HTMLPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.Dispatch.Rate < 0 {
		errs = append(errs, errors.New("rate must not be negative"))
	}
	if c.Delimiter != "" && len([]rune(c.Delimiter)) != 1 {
		errs = append(errs, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter))
	}
	switch c.Credential.Store {
	case "", credential.StoreFile, credential.StoreKeyring:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", credential.ErrUnknownStore, c.Credential.Store))
	}

	switch c.Provider {
	case ProviderResend:
		if c.Resend.APIKey == "" {
			errs = append(errs, errors.New("resend api key is required"))
		}
	case ProviderSMTP:
		if c.SMTP.Host == "" {
			errs = append(errs, errors.New("smtp host is required"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// DelimiterRune returns the configured CSV delimiter, or zero for the
// default comma.
func (c *Config) DelimiterRune() rune {
	if c.Delimiter == "" {
		return 0
	}
	return []rune(c.Delimiter)[0]
}
