package secret

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// AgeStore implements Store using age's scrypt-based passphrase
// encryption. The token never touches disk in plaintext.
type AgeStore struct {
	path string
}

var _ Store = (*AgeStore)(nil)

// NewAgeStore creates a store that keeps the sealed token at path.
func NewAgeStore(path string) *AgeStore {
	return &AgeStore{path: path}
}

// Seal encrypts the token with the passphrase and writes it to disk.
func (s *AgeStore) Seal(token, passphrase string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating token file: %w", err)
	}
	defer f.Close()

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	w, err := age.Encrypt(f, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	if _, err := io.WriteString(w, token+"\n"); err != nil {
		return fmt.Errorf("writing encrypted token: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted token: %w", err)
	}

	return nil
}

// Open decrypts the stored token using the passphrase.
func (s *AgeStore) Open(passphrase string) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return "", fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return "", fmt.Errorf("decrypting token: %w", err)
	}

	token, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading decrypted token: %w", err)
	}

	return strings.TrimSpace(string(token)), nil
}

// IsConfigured returns true if the token file exists.
func (s *AgeStore) IsConfigured() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
