// Package credentials persists the backend session of the CLI user.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// DirName is the per-user directory holding the credentials file.
const DirName = ".uitestkit"

// Credentials is the locally stored session.
type Credentials struct {
	APIURL      string `json:"api_url" mapstructure:"api_url"`
	AccessToken string `json:"access_token" mapstructure:"access_token"`
	TokenType   string `json:"token_type" mapstructure:"token_type"`
	Username    string `json:"username" mapstructure:"username"`
	UserID      int    `json:"user_id" mapstructure:"user_id"`
}

// Store reads and writes credentials.json in one directory.
type Store struct {
	mu  sync.Mutex
	dir string
}

// DefaultDir returns ~/.uitestkit.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName), nil
}

// NewStore creates a Store rooted at dir. The directory is created on Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// viper keeps Set values as overrides, so every operation starts from a fresh instance.
func (s *Store) newViper() *viper.Viper {
	v := viper.New()
	v.AddConfigPath(s.dir)
	v.SetConfigName("credentials")
	v.SetConfigType("json")
	return v
}

// Path is the credentials file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, "credentials.json")
}

// Load returns the stored credentials, empty ones when nothing is stored.
func (s *Store) Load() (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return &Credentials{}, nil
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var c Credentials
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return &c, nil
}

// Save writes c, replacing any stored session.
func (s *Store) Save(c *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}
	v := s.newViper()
	v.Set("api_url", c.APIURL)
	v.Set("access_token", c.AccessToken)
	v.Set("token_type", c.TokenType)
	v.Set("username", c.Username)
	v.Set("user_id", c.UserID)

	if err := v.WriteConfigAs(s.Path()); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return os.Chmod(s.Path(), 0600)
}

// Token returns the stored access token, empty when logged out.
func (s *Store) Token() string {
	c, err := s.Load()
	if err != nil {
		return ""
	}
	return c.AccessToken
}

// Clear removes the credentials file. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}
