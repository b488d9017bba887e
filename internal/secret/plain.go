package secret

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PlainStore implements Store with a plaintext file. It exists for the
// memory backend and for tests; the passphrase is ignored.
type PlainStore struct {
	path string
}

var _ Store = (*PlainStore)(nil)

// NewPlainStore creates a store that keeps the token in plaintext at path.
func NewPlainStore(path string) *PlainStore {
	return &PlainStore{path: path}
}

func (s *PlainStore) Seal(token, passphrase string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

func (s *PlainStore) Open(passphrase string) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PlainStore) IsConfigured() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
