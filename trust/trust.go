// Package trust pins module image digests in the OS keyring so a host
// can refuse to load an image that differs from the one an operator
// approved. A pin is the SHA-256 of the image file keyed by module name.
package trust

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/99designs/keyring"
)

var (
	// ErrNotPinned indicates no digest is pinned for the module name.
	ErrNotPinned = errors.New("no digest pinned for module")

	// ErrDigestMismatch indicates the image on disk no longer matches the
	// pinned digest.
	ErrDigestMismatch = errors.New("module image digest does not match pinned digest")
)

// Store holds pinned digests in a keyring.
type Store struct {
	ring keyring.Keyring
}

// Open opens the OS keyring under the given service name.
func Open(service string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: service,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// NewWithKeyring wraps an existing keyring. Tests use this with
// keyring.NewArrayKeyring.
func NewWithKeyring(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Pin records the SHA-256 digest of the image at path under the module
// name, replacing any existing pin. Returns the hex digest.
func (s *Store) Pin(name, path string) (string, error) {
	digest, err := fileDigest(path)
	if err != nil {
		return "", err
	}
	err = s.ring.Set(keyring.Item{
		Key:         name,
		Data:        []byte(digest),
		Label:       fmt.Sprintf("extload module digest for %s", name),
		Description: "module image sha256",
	})
	if err != nil {
		return "", fmt.Errorf("failed to store digest in keyring: %w", err)
	}
	return digest, nil
}

// Digest returns the pinned hex digest for the module name.
func (s *Store) Digest(name string) (string, error) {
	item, err := s.ring.Get(name)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("module %q: %w", name, ErrNotPinned)
		}
		return "", fmt.Errorf("failed to get digest from keyring: %w", err)
	}
	return string(item.Data), nil
}

// Verify recomputes the digest of the image at path and compares it to
// the pin for the module name.
func (s *Store) Verify(name, path string) error {
	pinned, err := s.Digest(name)
	if err != nil {
		return err
	}
	actual, err := fileDigest(path)
	if err != nil {
		return err
	}
	if actual != pinned {
		return fmt.Errorf("module %q: %w (pinned %s, got %s)", name, ErrDigestMismatch, pinned, actual)
	}
	return nil
}

// fileDigest streams the file through SHA-256 and returns the hex digest.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open module image: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash module image: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
