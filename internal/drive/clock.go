package drive

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so engine behavior is deterministic in
// tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts the random tokens embedded in generated file
// names so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs in compact 32-character hex form.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
