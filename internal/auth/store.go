package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"
)

// Token is a persisted session token.
type Token struct {
	Token    string `yaml:"token"`
	UserID   string `yaml:"user_id,omitempty"`
	SavedAt  int64  `yaml:"saved_at"`
	ServerID string `yaml:"server,omitempty"`
}

// TokenStore persists the auth token under a directory.
type TokenStore struct {
	Dir string
}

// NewTokenStore creates a token store rooted at dir.
func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{Dir: dir}
}

func (s *TokenStore) tokenPath() string {
	return filepath.Join(s.Dir, "token.yaml")
}

// Save writes the token to disk.
func (s *TokenStore) Save(token *Token) error {
	data, err := yaml.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(s.tokenPath(), data, 0600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Load reads the stored token. Returns nil when none exists.
func (s *TokenStore) Load() (*Token, error) {
	data, err := os.ReadFile(s.tokenPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read token: %w", err)
	}

	var token Token
	if err := yaml.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &token, nil
}

// Delete removes the stored token.
func (s *TokenStore) Delete() error {
	err := os.Remove(s.tokenPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Valid reports whether the token exists and its JWT expiry (if it
// carries one) is at least a minute away. Tokens without an exp claim
// are treated as valid; the server is the authority either way.
func (s *TokenStore) Valid(token *Token) bool {
	if token == nil || token.Token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token.Token, claims); err != nil {
		// Not a JWT; opaque tokens pass through.
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Until(exp.Time) > time.Minute
}
