// ABOUTME: Persists the session token in the user's config directory
// ABOUTME: The QUICKCHAT_TOKEN environment variable overrides the file

package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TokenEnvVar overrides the token file when set.
const TokenEnvVar = "QUICKCHAT_TOKEN"

// DefaultTokenPath returns $XDG_CONFIG_HOME/quickchat/token, falling back to
// ~/.config/quickchat/token.
func DefaultTokenPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("finding home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "quickchat", "token"), nil
}

// TokenStore reads and writes the session token file.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store for path. An empty path means
// DefaultTokenPath.
func NewTokenStore(path string) (*TokenStore, error) {
	if path == "" {
		p, err := DefaultTokenPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &TokenStore{path: path}, nil
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Load returns the token from the environment or the token file, or
// ErrNoToken when neither has one.
func (s *TokenStore) Load() (string, error) {
	if token := strings.TrimSpace(os.Getenv(TokenEnvVar)); token != "" {
		return token, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Save writes token to the token file.
func (s *TokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

// Delete removes the token file. A missing file is not an error.
func (s *TokenStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token: %w", err)
	}
	return nil
}
