// Package gcal integrates with the Google Calendar API: OAuth credential
// persistence, the consent flow endpoints, and the event client used by the
// booking handler.
package gcal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoCredentials means no usable token has been persisted yet.
var ErrNoCredentials = errors.New("no stored calendar credentials")

// storedCredentials is the on-disk token format. The field names match the
// file the authorization flow has always written, so an existing token.json
// keeps working.
type storedCredentials struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// TokenStore loads and persists the single-tenant OAuth token file. The
// mutex only serializes writers within this process; concurrent refreshes
// from separate processes can still clobber each other.
type TokenStore struct {
	path string
	mu   sync.Mutex
}

// NewTokenStore creates a store backed by the given file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load reads the persisted token. ErrNoCredentials when the file is absent
// or holds no token.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	var creds storedCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	if creds.Token == "" && creds.RefreshToken == "" {
		return nil, ErrNoCredentials
	}

	return &oauth2.Token{
		AccessToken:  creds.Token,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       creds.Expiry,
	}, nil
}

// Save persists tok along with the client identity from cfg.
func (s *TokenStore) Save(cfg *oauth2.Config, tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds := storedCredentials{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
		Expiry:       tok.Expiry,
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Connected reports whether a token is currently persisted.
func (s *TokenStore) Connected() bool {
	_, err := s.Load()
	return err == nil
}
