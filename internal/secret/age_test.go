package secret

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestAgeStore(t *testing.T) *AgeStore {
	t.Helper()
	dir := t.TempDir()
	return NewAgeStore(filepath.Join(dir, "keys", "remote.token"))
}

func TestAgeStore_IsConfigured_BeforeSeal(t *testing.T) {
	t.Parallel()
	s := newTestAgeStore(t)
	if s.IsConfigured() {
		t.Error("IsConfigured() = true before Seal, want false")
	}
}

func TestAgeStore_Seal_IsConfigured(t *testing.T) {
	t.Parallel()
	s := newTestAgeStore(t)

	if err := s.Seal("123456:AAHtoken", "test-passphrase"); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	if !s.IsConfigured() {
		t.Error("IsConfigured() = false after Seal, want true")
	}
}

func TestAgeStore_SealOpenRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{name: "bot token", token: "123456:AAHtoken"},
		{name: "hex token", token: "d41d8cd98f00b204e9800998ecf8427e"},
		{name: "token with symbols", token: "a/b+c=_d-e"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			passphrase := "test-passphrase"
			s := newTestAgeStore(t)
			if err := s.Seal(tt.token, passphrase); err != nil {
				t.Fatalf("Seal() error = %v", err)
			}

			got, err := s.Open(passphrase)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if got != tt.token {
				t.Errorf("Open() = %q, want %q", got, tt.token)
			}
		})
	}
}

func TestAgeStore_FileIsNotPlaintext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "remote.token")
	s := NewAgeStore(path)

	token := "123456:AAHtoken"
	if err := s.Seal(token, "test-passphrase"); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading sealed file: %v", err)
	}
	if strings.Contains(string(data), token) {
		t.Error("sealed file contains the token in plaintext")
	}
}

func TestAgeStore_OpenWrongPassphrase(t *testing.T) {
	t.Parallel()

	s := newTestAgeStore(t)
	if err := s.Seal("123456:AAHtoken", "correct-passphrase"); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	_, err := s.Open("wrong-passphrase")
	if err == nil {
		t.Error("Open() with wrong passphrase should return error")
	}
}

func TestAgeStore_OpenBeforeSeal(t *testing.T) {
	t.Parallel()

	s := newTestAgeStore(t)
	_, err := s.Open("test-passphrase")
	if err == nil {
		t.Error("Open() before Seal should return error")
	}
}

func TestAgeStore_SealOverwritesPreviousToken(t *testing.T) {
	t.Parallel()

	s := newTestAgeStore(t)
	if err := s.Seal("first", "test-passphrase"); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if err := s.Seal("second", "test-passphrase"); err != nil {
		t.Fatalf("second Seal() error = %v", err)
	}

	got, err := s.Open("test-passphrase")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got != "second" {
		t.Errorf("Open() = %q, want second", got)
	}
}
