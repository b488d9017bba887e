package secret

import (
	"fmt"

	"tgdrive/internal/config"
)

// NewStoreFromConfig creates a Store based on the auth configuration type.
func NewStoreFromConfig(cfg config.AuthConfig) (Store, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeStore(cfg.TokenPath), nil
	case "plain":
		return NewPlainStore(cfg.TokenPath), nil
	default:
		return nil, fmt.Errorf("unknown auth type: %q", cfg.Type)
	}
}
