package drive

import (
	"context"
	"time"
)

// Media kinds distinguished on the wire. Enumerated messages carry photo
// or document; outgoing sends pick one of the four from the upload
// extension.
const (
	MediaKindPhoto    = "photo"
	MediaKindVideo    = "video"
	MediaKindAudio    = "audio"
	MediaKindDocument = "document"
)

// RemoteMedia describes the attachment carried by a remote message.
type RemoteMedia struct {
	Kind          string // MediaKindPhoto or MediaKindDocument when enumerated
	FileName      string // As declared by the sender, "" for photos
	MimeType      string
	Size          int64
	FileReference string // Opaque provider token, persisted verbatim
}

// RemoteMessage is one message from the saved-messages stream.
type RemoteMessage struct {
	ID    int64
	Date  time.Time
	Text  string
	Media *RemoteMedia
}

// SendFileRequest describes a file upload to the saved-messages peer.
type SendFileRequest struct {
	Name     string
	Kind     string // One of the MediaKind constants
	MimeType string // "" for formats without a declared type
	Bytes    []byte
}

// Remote is the authenticated handle onto the saved-messages peer. The
// engine never touches transport or session state; everything it needs
// is behind these six calls. Implementations return ErrNotAuthorized
// when the session is missing or rejected.
type Remote interface {
	// OwnerID returns the id of the saved-messages peer. Index rows are
	// scoped by its decimal string form.
	OwnerID(ctx context.Context) (int64, error)

	// Messages returns up to limit messages with ids strictly below
	// offsetID, newest first. An offsetID of zero starts from the newest
	// message.
	Messages(ctx context.Context, offsetID int64, limit int) ([]RemoteMessage, error)

	// DeleteMessages removes the given messages from the remote stream.
	DeleteMessages(ctx context.Context, messageIDs []int64) error

	// SendFile uploads content as a new saved message and returns it.
	SendFile(ctx context.Context, req SendFileRequest) (*RemoteMessage, error)

	// SendText posts a plain text message and returns it.
	SendText(ctx context.Context, text string) (*RemoteMessage, error)

	// EditText replaces the text of an existing message and returns the
	// edited message.
	EditText(ctx context.Context, messageID int64, text string) (*RemoteMessage, error)
}
