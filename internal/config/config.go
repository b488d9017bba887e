package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for tgdrive.
type Config struct {
	BaseDir string       `toml:"base_dir"`
	LogDir  string       `toml:"log_dir"`
	Index   IndexConfig  `toml:"index"`
	Remote  RemoteConfig `toml:"remote"`
	Auth    AuthConfig   `toml:"auth"`
}

// IndexConfig represents configuration for the local index database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type IndexConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// RemoteConfig represents configuration for the saved-messages backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type RemoteConfig struct {
	Type string `toml:"type"` // "memory", "bridge", or "bot"

	// Bridge-specific fields (only used when Type == "bridge")
	BridgeURL string `toml:"bridge_url,omitempty"`

	// Chat id of the saved-messages chat. Used by the bot backend, and by
	// the memory backend as the simulated owner id.
	ChatID int64 `toml:"chat_id,omitempty"`
}

// AuthConfig holds how the remote API token is stored on disk.
type AuthConfig struct {
	Type      string `toml:"type"` // "age" (default) or "plain"
	TokenPath string `toml:"token_path"`
}

// NewConfig creates a new Config with the provided base directory and
// default paths filled in.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Index: IndexConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "index"),
		},
		Remote: RemoteConfig{
			Type:      "bridge",
			BridgeURL: "http://127.0.0.1:8484",
		},
		Auth: AuthConfig{
			Type:      "age",
			TokenPath: filepath.Join(baseDir, "keys", "remote.token"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
// This is an internal helper and should not be exported.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
