package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Store kinds accepted by Config.Store.
const (
	StoreFile    = "file"
	StoreKeyring = "keyring"
)

// DefaultTokenFile is where the file store keeps the credential unless
// configured otherwise.
const DefaultTokenFile = "token.json"

// Store persists a single credential.
type Store interface {
	// Load returns the stored credential or ErrNotFound.
	Load(ctx context.Context) (*Credential, error)
	// Save replaces the stored credential.
	Save(ctx context.Context, c *Credential) error
	// Delete removes the stored credential. Deleting a missing credential is
	// not an error.
	Delete(ctx context.Context) error
}

// Config selects and configures the credential store.
type Config struct {
	Store          string `yaml:"store" env:"MAILSHOT_CREDENTIAL_STORE"`
	TokenFile      string `yaml:"token_file" env:"MAILSHOT_TOKEN_FILE"`
	KeyringService string `yaml:"keyring_service" env:"MAILSHOT_KEYRING_SERVICE"`
	KeyringUser    string `yaml:"keyring_user" env:"MAILSHOT_KEYRING_USER"`
}

// DefaultConfig returns the file store at DefaultTokenFile.
func DefaultConfig() Config {
	return Config{
		Store:          StoreFile,
		TokenFile:      DefaultTokenFile,
		KeyringService: defaultKeyringService,
		KeyringUser:    defaultKeyringUser,
	}
}

// NewStore creates the store selected by cfg.
func NewStore(cfg Config) (Store, error) {
	switch cfg.Store {
	case "", StoreFile:
		return NewFileStore(cfg.TokenFile), nil
	case StoreKeyring:
		return NewKeyringStore(cfg.KeyringService, cfg.KeyringUser), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}
}

// decodeCredential parses a persisted credential. A record without any token
// is reported as ErrCorrupt.
func decodeCredential(data []byte) (*Credential, error) {
	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Join(ErrCorrupt, err)
	}
	if c.AccessToken == "" && c.RefreshToken == "" {
		return nil, ErrCorrupt
	}
	return &c, nil
}
