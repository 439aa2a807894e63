// Package keychain keeps operator tokens for the codepad CLI, one per
// server URL. The OS keyring is preferred; a private YAML file is used on
// systems without a keyring service.
package keychain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

const service = "codepad"

// ErrNotFound is returned when no token is stored for a server.
var ErrNotFound = errors.New("keychain: token not found")

// Store saves and loads tokens keyed by server URL.
type Store interface {
	Get(server string) (string, error)
	Set(server, token string) error
	Delete(server string) error
}

// Keyring stores tokens in the OS keyring.
type Keyring struct{}

func (Keyring) Get(server string) (string, error) {
	token, err := keyring.Get(service, server)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return token, err
}

func (Keyring) Set(server, token string) error {
	return keyring.Set(service, server, token)
}

func (Keyring) Delete(server string) error {
	err := keyring.Delete(service, server)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// File stores tokens in a YAML map readable only by the owner.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a file-backed store at path.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) load() (map[string]string, error) {
	tokens := map[string]string{}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return tokens, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	if err := yaml.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return tokens, nil
}

func (f *File) write(tokens map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := yaml.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	return os.WriteFile(f.path, data, 0600)
}

func (f *File) Get(server string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.load()
	if err != nil {
		return "", err
	}
	token, ok := tokens[server]
	if !ok {
		return "", ErrNotFound
	}
	return token, nil
}

func (f *File) Set(server, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.load()
	if err != nil {
		return err
	}
	tokens[server] = token
	return f.write(tokens)
}

func (f *File) Delete(server string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := tokens[server]; !ok {
		return nil
	}
	delete(tokens, server)
	return f.write(tokens)
}

// Fallback tries primary first and uses secondary when primary fails.
type Fallback struct {
	Primary   Store
	Secondary Store
}

func (s Fallback) Get(server string) (string, error) {
	token, err := s.Primary.Get(server)
	if err == nil {
		return token, nil
	}
	return s.Secondary.Get(server)
}

func (s Fallback) Set(server, token string) error {
	if err := s.Primary.Set(server, token); err == nil {
		// drop any stale copy left by an earlier fallback write
		_ = s.Secondary.Delete(server)
		return nil
	}
	return s.Secondary.Set(server, token)
}

func (s Fallback) Delete(server string) error {
	errPrimary := s.Primary.Delete(server)
	errSecondary := s.Secondary.Delete(server)
	if errPrimary != nil && errSecondary != nil {
		return errors.Join(errPrimary, errSecondary)
	}
	return nil
}

// Default returns the OS keyring backed by a token file in dir.
func Default(dir string) Store {
	return Fallback{
		Primary:   Keyring{},
		Secondary: NewFile(filepath.Join(dir, "tokens.yaml")),
	}
}
