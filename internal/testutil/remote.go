package testutil

import (
	"tgdrive/internal/remote"
)

// TestChatID is the owner id used by NewTestRemote.
const TestChatID int64 = 777000

// NewTestRemote creates a new in-memory remote for testing.
func NewTestRemote() *remote.MemoryRemote {
	return remote.NewMemoryRemote(TestChatID)
}
