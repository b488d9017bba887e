package model

import "time"

// TelegramMessage is one row of the message cache: the remote metadata for
// a saved message, captured during indexing or backfill. Rows are keyed by
// (MessageID, ChatID) and overwritten wholesale on re-index.
type TelegramMessage struct {
	MessageID     int64     // Remote message id, unique within the chat
	ChatID        int64     // Saved-messages peer id
	Category      string    // Images, Videos, Audios, Documents or Notes
	Filename      string    // Sanitized original filename, "" when absent
	Extension     string    // Normalized extension without the dot
	MimeType      string    // Declared mime type, "" when absent
	Timestamp     time.Time // Remote message date
	Size          int64     // Size in bytes, 0 when unknown
	Text          string    // Message text or media caption
	Thumbnail     string    // Local thumbnail path, "" until resolved
	FileReference string    // Opaque provider reference for re-fetching content
}

// SavedItem is one node of the virtual saved-items tree. Folder rows carry
// zero message and chat ids and a synthetic unique id; file rows point back
// at the cached message that produced them.
type SavedItem struct {
	ChatID            int64
	MessageID         int64
	Thumbnail         string
	FileType          string // folder, image, video, audio, text or document
	FileUniqueID      string // Upsert key, deterministically derived
	FileSize          int64
	FileName          string
	FileCaption       string // Message text for files, display name for folders; renames overwrite it
	FilePath          string // Parent folder path, e.g. "/Home/Images"
	RecycleOriginPath string // Parent path before recycling, "" outside the bin
	ModifiedDate      time.Time
	OwnerID           string // Decimal form of the saved-messages peer id
}
