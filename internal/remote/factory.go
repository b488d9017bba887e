package remote

import (
	"fmt"

	"tgdrive/internal/config"
	"tgdrive/internal/drive"
)

// NewRemoteFromConfig creates a Remote implementation based on the remote config type.
// token carries the unsealed API token for backends that need one.
func NewRemoteFromConfig(cfg config.RemoteConfig, token string) (drive.Remote, error) {
	switch cfg.Type {
	case "memory":
		chatID := cfg.ChatID
		if chatID == 0 {
			chatID = 1
		}
		return NewMemoryRemote(chatID), nil
	case "bridge":
		if cfg.BridgeURL == "" {
			return nil, fmt.Errorf("bridge remote requires bridge_url to be set")
		}
		return NewBridgeRemote(cfg.BridgeURL, token), nil
	case "bot":
		if cfg.ChatID == 0 {
			return nil, fmt.Errorf("bot remote requires chat_id to be set")
		}
		return NewBotRemote(token, cfg.ChatID)
	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Type)
	}
}
