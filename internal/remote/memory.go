package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tgdrive/internal/drive"
)

// memoryPageLimit is the page size used when a caller passes limit <= 0.
const memoryPageLimit = 100

// MemoryRemote is an in-memory implementation of the drive.Remote
// interface. It simulates a saved-messages chat, making it useful for
// testing and for trying the CLI without a live session.
// This implementation is safe for concurrent use.
type MemoryRemote struct {
	ownerID    int64
	messages   map[int64]drive.RemoteMessage
	nextID     int64
	deleted    []int64
	authorized bool
	mu         sync.RWMutex
}

// NewMemoryRemote creates a new in-memory remote owned by the given id.
func NewMemoryRemote(ownerID int64) *MemoryRemote {
	return &MemoryRemote{
		ownerID:    ownerID,
		messages:   make(map[int64]drive.RemoteMessage),
		nextID:     1,
		authorized: true,
	}
}

// SetAuthorized flips whether calls succeed. With false, every method
// returns drive.ErrNotAuthorized.
func (m *MemoryRemote) SetAuthorized(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authorized = ok
}

// SeedMessage places a message into the simulated chat. A zero ID is
// assigned the next free id. Returns the id the message landed under.
func (m *MemoryRemote) SeedMessage(msg drive.RemoteMessage) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.ID == 0 {
		msg.ID = m.nextID
	}
	if msg.ID >= m.nextID {
		m.nextID = msg.ID + 1
	}
	m.messages[msg.ID] = cloneMessage(msg)
	return msg.ID
}

// Message returns a copy of the stored message, or nil if absent.
func (m *MemoryRemote) Message(id int64) *drive.RemoteMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msg, ok := m.messages[id]
	if !ok {
		return nil
	}
	c := cloneMessage(msg)
	return &c
}

// Deleted returns the ids removed through DeleteMessages, in call order.
func (m *MemoryRemote) Deleted() []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]int64{}, m.deleted...)
}

// OwnerID returns the configured owner id.
func (m *MemoryRemote) OwnerID(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.authorized {
		return 0, drive.ErrNotAuthorized
	}
	return m.ownerID, nil
}

// Messages returns up to limit messages with ids strictly below
// offsetID, newest first. An offsetID of zero starts from the newest.
func (m *MemoryRemote) Messages(ctx context.Context, offsetID int64, limit int) ([]drive.RemoteMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.authorized {
		return nil, drive.ErrNotAuthorized
	}
	if limit <= 0 {
		limit = memoryPageLimit
	}

	ids := make([]int64, 0, len(m.messages))
	for id := range m.messages {
		if offsetID > 0 && id >= offsetID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	if len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]drive.RemoteMessage, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneMessage(m.messages[id]))
	}
	return out, nil
}

// DeleteMessages removes the given messages from the simulated chat.
// Ids that are not present are ignored, matching the provider's
// tolerance for already-deleted messages.
func (m *MemoryRemote) DeleteMessages(ctx context.Context, messageIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authorized {
		return drive.ErrNotAuthorized
	}
	for _, id := range messageIDs {
		delete(m.messages, id)
		m.deleted = append(m.deleted, id)
	}
	return nil
}

// SendFile stores the upload as a new message and returns it.
func (m *MemoryRemote) SendFile(ctx context.Context, req drive.SendFileRequest) (*drive.RemoteMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authorized {
		return nil, drive.ErrNotAuthorized
	}

	id := m.nextID
	m.nextID++

	name := req.Name
	if req.Kind == drive.MediaKindPhoto {
		// Photos lose their file name on the wire.
		name = ""
	}

	msg := drive.RemoteMessage{
		ID:   id,
		Date: time.Now().UTC(),
		Media: &drive.RemoteMedia{
			Kind:          req.Kind,
			FileName:      name,
			MimeType:      req.MimeType,
			Size:          int64(len(req.Bytes)),
			FileReference: fmt.Sprintf("mem:%d", id),
		},
	}
	m.messages[id] = cloneMessage(msg)

	c := cloneMessage(msg)
	return &c, nil
}

// SendText stores a plain text message and returns it.
func (m *MemoryRemote) SendText(ctx context.Context, text string) (*drive.RemoteMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authorized {
		return nil, drive.ErrNotAuthorized
	}

	id := m.nextID
	m.nextID++

	msg := drive.RemoteMessage{
		ID:   id,
		Date: time.Now().UTC(),
		Text: text,
	}
	m.messages[id] = cloneMessage(msg)

	c := cloneMessage(msg)
	return &c, nil
}

// EditText replaces the text of a stored message and returns it.
func (m *MemoryRemote) EditText(ctx context.Context, messageID int64, text string) (*drive.RemoteMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authorized {
		return nil, drive.ErrNotAuthorized
	}

	msg, ok := m.messages[messageID]
	if !ok {
		return nil, fmt.Errorf("message %d not found", messageID)
	}
	msg.Text = text
	m.messages[messageID] = cloneMessage(msg)

	c := cloneMessage(msg)
	return &c, nil
}

// cloneMessage copies a message including its media so callers never
// alias the stored value.
func cloneMessage(msg drive.RemoteMessage) drive.RemoteMessage {
	if msg.Media != nil {
		media := *msg.Media
		msg.Media = &media
	}
	return msg
}

// Compile-time check that MemoryRemote implements drive.Remote interface
var _ drive.Remote = (*MemoryRemote)(nil)
