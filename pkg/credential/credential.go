// Package credential keeps the OAuth2 credential that authorizes sending
// between runs and turns it into an authenticated session.
//
// Manager.ObtainSession decides how a session is produced:
//
//  1. A stored credential that is valid and carries the required scopes is
//     used as is.
//  2. A stored credential that is expired but has a refresh token is
//     refreshed exactly once and the result is persisted.
//  3. Otherwise the interactive grant runs (or ErrInteractionRequired is
//     returned when interaction is disabled) and its result is persisted.
//
// Credentials are stored in a JSON file (mode 0600) or in the OS keyring.
// The file format also accepts token files written by Google's Python
// client library.
package credential

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// expiryDelta treats tokens this close to expiry as expired, matching
// golang.org/x/oauth2.
const expiryDelta = 10 * time.Second

// Credential is a persisted OAuth2 token together with the scopes it was
// granted for.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// FromToken converts an issued token into a Credential. The granted scopes
// are taken from the token response when present and from scopes otherwise.
func FromToken(tok *oauth2.Token, scopes []string) *Credential {
	c := &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		Scopes:       slices.Clone(scopes),
	}
	if granted, ok := tok.Extra("scope").(string); ok && strings.TrimSpace(granted) != "" {
		c.Scopes = strings.Fields(granted)
	}
	return c
}

// Token returns the credential as an oauth2 token.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// Valid reports whether the access token is present and not expired at now.
// A zero expiry never expires.
func (c *Credential) Valid(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	return c.Expiry.IsZero() || now.Add(expiryDelta).Before(c.Expiry)
}

// CanRefresh reports whether the credential carries a refresh token.
func (c *Credential) CanRefresh() bool {
	return c != nil && c.RefreshToken != ""
}

// HasScopes reports whether every required scope was granted. Credentials
// that recorded no scopes are assumed to match.
func (c *Credential) HasScopes(required []string) bool {
	if c == nil {
		return false
	}
	if len(c.Scopes) == 0 {
		return true
	}
	for _, s := range required {
		if !slices.Contains(c.Scopes, s) {
			return false
		}
	}
	return true
}

// UnmarshalJSON accepts both this package's format and the authorized user
// format of Google's client libraries, which names the access token "token".
func (c *Credential) UnmarshalJSON(data []byte) error {
	var raw struct {
		AccessToken  string    `json:"access_token"`
		Token        string    `json:"token"`
		RefreshToken string    `json:"refresh_token"`
		TokenType    string    `json:"token_type"`
		Expiry       time.Time `json:"expiry"`
		Scopes       []string  `json:"scopes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = Credential{
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
		TokenType:    raw.TokenType,
		Expiry:       raw.Expiry,
		Scopes:       raw.Scopes,
	}
	if c.AccessToken == "" {
		c.AccessToken = raw.Token
	}
	return nil
}
