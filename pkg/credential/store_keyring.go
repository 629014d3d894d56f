package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	defaultKeyringService = "mailshot"
	defaultKeyringUser    = "default"
)

// KeyringStore keeps the credential in the OS keychain.
type KeyringStore struct {
	service string
	user    string
}

// NewKeyringStore creates a store for the service/user pair. Empty values
// fall back to "mailshot" and "default".
func NewKeyringStore(service, user string) *KeyringStore {
	if service == "" {
		service = defaultKeyringService
	}
	if user == "" {
		user = defaultKeyringUser
	}
	return &KeyringStore{service: service, user: user}
}

// Load reads the credential from the keychain.
func (s *KeyringStore) Load(_ context.Context) (*Credential, error) {
	secret, err := keyring.Get(s.service, s.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("credential: keyring get: %w", err)
	}

	return decodeCredential([]byte(secret))
}

// Save writes the credential to the keychain.
func (s *KeyringStore) Save(_ context.Context, c *Credential) error {
	if c == nil {
		return errors.New("credential: nil credential")
	}
	content, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("credential: marshal: %w", err)
	}
	if err := keyring.Set(s.service, s.user, string(content)); err != nil {
		return fmt.Errorf("credential: keyring set: %w", err)
	}
	return nil
}

// Delete removes the credential from the keychain.
func (s *KeyringStore) Delete(_ context.Context) error {
	if err := keyring.Delete(s.service, s.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("credential: keyring delete: %w", err)
	}
	return nil
}

var _ Store = (*KeyringStore)(nil)
