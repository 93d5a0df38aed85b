// Package authstore keeps the leaderboard submission token in the OS
// keychain, with an optional file fallback for headless environments.
package authstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

const tokenKey = "submit-token"

// ErrNotFound is returned when no token has been stored.
var ErrNotFound = errors.New("authstore: token not found")

// Store wraps the OS keychain with an optional JSON file fallback. The
// fallback is only consulted when no system keyring is available.
type Store struct {
	service      string
	fallbackPath string
	mu           sync.Mutex
}

// New creates a token store scoped to serviceName. fallbackPath may be empty
// to disable the file fallback.
func New(serviceName, fallbackPath string) *Store {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = "snake-ai-arena"
	}
	return &Store{service: serviceName, fallbackPath: fallbackPath}
}

// SetToken stores the submission token.
func (s *Store) SetToken(value string) error {
	if err := keyring.Set(s.service, tokenKey, value); err == nil {
		return nil
	} else if !isKeyringUnavailable(err) {
		return fmt.Errorf("authstore: keyring set: %w", err)
	}
	return s.setFallback(value)
}

// GetToken retrieves the submission token, or ErrNotFound.
func (s *Store) GetToken() (string, error) {
	val, err := keyring.Get(s.service, tokenKey)
	if err == nil {
		return val, nil
	}
	if !isKeyringUnavailable(err) && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("authstore: keyring get: %w", err)
	}

	if fallback, ferr := s.getFallback(); ferr == nil {
		return fallback, nil
	}
	return "", ErrNotFound
}

// DeleteToken removes the stored token from both backends.
func (s *Store) DeleteToken() error {
	err := keyring.Delete(s.service, tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) && !isKeyringUnavailable(err) {
		_ = s.deleteFallback()
		return fmt.Errorf("authstore: keyring delete: %w", err)
	}
	return s.deleteFallback()
}

func isKeyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "no keychain") ||
		strings.Contains(msg, "keyring backend not available")
}

func (s *Store) setFallback(value string) error {
	if strings.TrimSpace(s.fallbackPath) == "" {
		return fmt.Errorf("authstore: keyring unavailable and no fallback path configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readFallbackUnlocked()
	if err != nil {
		return err
	}
	data[tokenKey] = value
	return s.writeFallbackUnlocked(data)
}

func (s *Store) getFallback() (string, error) {
	if strings.TrimSpace(s.fallbackPath) == "" {
		return "", ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readFallbackUnlocked()
	if err != nil {
		return "", err
	}
	val, ok := data[tokenKey]
	if !ok || val == "" {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *Store) deleteFallback() error {
	if strings.TrimSpace(s.fallbackPath) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readFallbackUnlocked()
	if err != nil {
		return err
	}
	delete(data, tokenKey)
	return s.writeFallbackUnlocked(data)
}

func (s *Store) readFallbackUnlocked() (map[string]string, error) {
	raw, err := os.ReadFile(s.fallbackPath)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authstore: read fallback: %w", err)
	}
	data := map[string]string{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("authstore: parse fallback: %w", err)
	}
	return data, nil
}

func (s *Store) writeFallbackUnlocked(data map[string]string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.fallbackPath), 0o700); err != nil {
		return fmt.Errorf("authstore: create fallback dir: %w", err)
	}
	if err := os.WriteFile(s.fallbackPath, raw, 0o600); err != nil {
		return fmt.Errorf("authstore: write fallback: %w", err)
	}
	return nil
}
