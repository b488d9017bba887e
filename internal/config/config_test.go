package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/tgdrive",
		LogDir:  "/home/user/.local/share/tgdrive/log",
		Index:   IndexConfig{Type: "sqlite", DataDir: "/home/user/.local/share/tgdrive/index"},
		Remote:  RemoteConfig{Type: "bridge", BridgeURL: "http://127.0.0.1:8484", ChatID: 777000},
		Auth:    AuthConfig{Type: "age", TokenPath: "/home/user/.local/share/tgdrive/keys/remote.token"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Index.Type != "sqlite" {
		t.Errorf("Index.Type = %q, want %q", got.Index.Type, "sqlite")
	}
	if got.Index.DataDir != original.Index.DataDir {
		t.Errorf("Index.DataDir = %q, want %q", got.Index.DataDir, original.Index.DataDir)
	}
	if got.Remote.Type != "bridge" {
		t.Errorf("Remote.Type = %q, want %q", got.Remote.Type, "bridge")
	}
	if got.Remote.BridgeURL != original.Remote.BridgeURL {
		t.Errorf("Remote.BridgeURL = %q, want %q", got.Remote.BridgeURL, original.Remote.BridgeURL)
	}
	if got.Remote.ChatID != 777000 {
		t.Errorf("Remote.ChatID = %d, want %d", got.Remote.ChatID, 777000)
	}
	if got.Auth.Type != "age" {
		t.Errorf("Auth.Type = %q, want %q", got.Auth.Type, "age")
	}
	if got.Auth.TokenPath != original.Auth.TokenPath {
		t.Errorf("Auth.TokenPath = %q, want %q", got.Auth.TokenPath, original.Auth.TokenPath)
	}
}

func TestManager_Read_Handwritten(t *testing.T) {
	raw := `
base_dir = "/data/tgdrive"

[index]
type = "memory"

[remote]
type = "bot"
chat_id = 123456

[auth]
type = "plain"
token_path = "/data/tgdrive/token"
`
	m := &Manager{}
	got, err := m.Read(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != "/data/tgdrive" {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, "/data/tgdrive")
	}
	if got.Index.Type != "memory" {
		t.Errorf("Index.Type = %q, want %q", got.Index.Type, "memory")
	}
	if got.Remote.Type != "bot" {
		t.Errorf("Remote.Type = %q, want %q", got.Remote.Type, "bot")
	}
	if got.Remote.ChatID != 123456 {
		t.Errorf("Remote.ChatID = %d, want %d", got.Remote.ChatID, 123456)
	}
	if got.Auth.Type != "plain" {
		t.Errorf("Auth.Type = %q, want %q", got.Auth.Type, "plain")
	}
	if got.Auth.TokenPath != "/data/tgdrive/token" {
		t.Errorf("Auth.TokenPath = %q, want %q", got.Auth.TokenPath, "/data/tgdrive/token")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/tgdrive")

	if cfg.BaseDir != "/data/tgdrive" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/tgdrive")
	}
	if cfg.LogDir != "/data/tgdrive/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/tgdrive/log")
	}
	if cfg.Index.Type != "sqlite" {
		t.Errorf("Index.Type = %q, want %q", cfg.Index.Type, "sqlite")
	}
	if cfg.Index.DataDir != "/data/tgdrive/index" {
		t.Errorf("Index.DataDir = %q, want %q", cfg.Index.DataDir, "/data/tgdrive/index")
	}
	if cfg.Remote.Type != "bridge" {
		t.Errorf("Remote.Type = %q, want %q", cfg.Remote.Type, "bridge")
	}
	if cfg.Auth.Type != "age" {
		t.Errorf("Auth.Type = %q, want %q", cfg.Auth.Type, "age")
	}
	if cfg.Auth.TokenPath != "/data/tgdrive/keys/remote.token" {
		t.Errorf("Auth.TokenPath = %q, want %q", cfg.Auth.TokenPath, "/data/tgdrive/keys/remote.token")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tgdrive.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tgdrive.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tgdrive.toml")
		cfg := NewConfig(dir)
		cfg.Index = IndexConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Index.Type != "memory" {
			t.Errorf("Index.Type = %q, want %q", got.Index.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/tgdrive.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
