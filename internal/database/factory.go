package database

import (
	"fmt"
	"os"
	"path/filepath"

	"tgdrive/internal/config"
	"tgdrive/internal/drive"
)

// NewIndexFromConfig creates an Index implementation based on the index config type.
func NewIndexFromConfig(cfg config.IndexConfig) (drive.Index, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite index")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, "tgdrive.db")
		return NewSQLiteIndex(dbPath)
	case "memory":
		return NewSQLiteIndex(":memory:")
	default:
		return nil, fmt.Errorf("unknown index type: %s", cfg.Type)
	}
}
