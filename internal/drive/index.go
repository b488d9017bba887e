package drive

import (
	"context"
	"time"

	"tgdrive/internal/model"
)

// Index is the local relational store behind the virtual tree: the
// message cache, the saved-item rows and the settings rows that hold
// backfill bookkeeping. Methods that touch a whole folder subtree run
// their statements inside a single transaction.
type Index interface {
	// GetSetting returns the value stored under key. The boolean reports
	// whether the key exists.
	GetSetting(ctx context.Context, key string) (string, bool, error)

	// SetSetting stores value under key, replacing any previous value.
	SetSetting(ctx context.Context, key, value string) error

	// SaveMessage inserts or replaces one message cache row.
	SaveMessage(ctx context.Context, msg *model.TelegramMessage) error

	// GetMessage returns one cached message, or nil if absent.
	GetMessage(ctx context.Context, chatID, messageID int64) (*model.TelegramMessage, error)

	// AllMessages returns every cached message for a chat, newest first.
	AllMessages(ctx context.Context, chatID int64) ([]model.TelegramMessage, error)

	// MessagesByCategory returns cached messages in one category ordered
	// by remote timestamp descending.
	MessagesByCategory(ctx context.Context, chatID int64, category string) ([]model.TelegramMessage, error)

	// CountMessages returns the number of cached messages for a chat.
	CountMessages(ctx context.Context, chatID int64) (int64, error)

	// LastMessageID returns the highest cached message id, 0 when empty.
	LastMessageID(ctx context.Context, chatID int64) (int64, error)

	// OldestMessageID returns the lowest cached message id, 0 when empty.
	OldestMessageID(ctx context.Context, chatID int64) (int64, error)

	// DeleteMessages removes cache rows for the given message ids.
	DeleteMessages(ctx context.Context, chatID int64, messageIDs []int64) error

	// SetMessageThumbnail records a resolved thumbnail path on a cache row.
	SetMessageThumbnail(ctx context.Context, chatID, messageID int64, thumbnail string) error

	// SetMessageSize corrects the stored size of a cache row.
	SetMessageSize(ctx context.Context, chatID, messageID int64, size int64) error

	// UpsertSavedItem inserts or replaces one tree row by its unique id.
	UpsertSavedItem(ctx context.Context, item *model.SavedItem) error

	// SavedItemByUniqueID returns one tree row, or nil if absent.
	SavedItemByUniqueID(ctx context.Context, uniqueID string) (*model.SavedItem, error)

	// SavedItemsByPath returns the direct children of a folder path,
	// folders first, then files newest first.
	SavedItemsByPath(ctx context.Context, ownerID, path string) ([]model.SavedItem, error)

	// SavedItemsByPathPage is SavedItemsByPath with LIMIT and OFFSET.
	SavedItemsByPathPage(ctx context.Context, ownerID, path string, offset, limit int64) ([]model.SavedItem, error)

	// CountNonFolderItems returns the number of file rows for an owner.
	CountNonFolderItems(ctx context.Context, ownerID string) (int64, error)

	// CountItemsWithEmptyName returns the number of file rows whose name
	// is missing or blank.
	CountItemsWithEmptyName(ctx context.Context, ownerID string) (int64, error)

	// CountGeneratedNamesMissingExtension returns the number of file rows
	// carrying a synthetic name that never gained an extension.
	CountGeneratedNamesMissingExtension(ctx context.Context, ownerID string) (int64, error)

	// SavedFileByMessageID returns the file row for a message, or nil if
	// absent. Folder rows are never returned.
	SavedFileByMessageID(ctx context.Context, ownerID string, messageID int64) (*model.SavedItem, error)

	// FileExists reports whether a file row exists for a message.
	FileExists(ctx context.Context, ownerID string, messageID int64) (bool, error)

	// MoveFile re-parents a file row to destPath.
	MoveFile(ctx context.Context, ownerID string, messageID int64, destPath string, modified time.Time) error

	// RenameFile changes a file row's display name and caption.
	RenameFile(ctx context.Context, ownerID string, messageID int64, newName string, modified time.Time) error

	// RecycleFile moves a file row under binPath, recording its current
	// parent as the recycle origin unless one is already recorded.
	RecycleFile(ctx context.Context, ownerID string, messageID int64, binPath string, modified time.Time) error

	// RestoreFile moves a file row to destPath and clears its origin.
	RestoreFile(ctx context.Context, ownerID string, messageID int64, destPath string, modified time.Time) error

	// DeleteFile removes a file row.
	DeleteFile(ctx context.Context, ownerID string, messageID int64) error

	// SetFileThumbnail records a resolved thumbnail path on a file row.
	SetFileThumbnail(ctx context.Context, ownerID string, messageID int64, thumbnail string) error

	// SetFileSize corrects the stored size of a file row.
	SetFileSize(ctx context.Context, ownerID string, messageID int64, size int64) error

	// FolderExists reports whether a folder row exists at (parent, name).
	FolderExists(ctx context.Context, ownerID, parentPath, name string) (bool, error)

	// FolderRecycleOrigin returns the recorded origin of a recycled
	// folder, "" when none is recorded.
	FolderRecycleOrigin(ctx context.Context, ownerID, parentPath, name string) (string, error)

	// FolderTreeMessageIDs returns the message ids of every file row at
	// or below sourcePath.
	FolderTreeMessageIDs(ctx context.Context, ownerID, sourcePath string) ([]int64, error)

	// MoveFolderTree re-parents a folder row and rewrites every
	// descendant path in one transaction.
	MoveFolderTree(ctx context.Context, move FolderTreeMove) error

	// RenameFolderTree renames a folder row in place and rewrites every
	// descendant path in one transaction.
	RenameFolderTree(ctx context.Context, rename FolderTreeRename) error

	// RecycleFolderTree moves a subtree under the bin, recording the
	// folder's origin unless one is already recorded.
	RecycleFolderTree(ctx context.Context, recycle FolderTreeRecycle) error

	// RestoreFolderTree moves a subtree out of the bin and clears the
	// folder's recorded origin.
	RestoreFolderTree(ctx context.Context, restore FolderTreeRestore) error

	// DeleteFolderTree removes a folder row and everything below it.
	DeleteFolderTree(ctx context.Context, ownerID, parentPath, name, sourcePath string) error

	// Migrate brings the index schema up to date, creating it on first run.
	Migrate() error

	// Close closes the underlying store.
	Close() error
}

// FolderTreeMove relocates a folder row and its descendants. SourcePath
// and DestPath are the folder's full paths before and after; descendant
// rows swap the SourcePath prefix for DestPath.
type FolderTreeMove struct {
	OwnerID        string
	ParentPath     string // Current parent of the folder row
	FolderName     string
	SourcePath     string // Full current path of the folder
	DestParentPath string // New parent for the folder row
	DestPath       string // Full new path of the folder
	Modified       time.Time
}

// FolderTreeRename renames a folder row without changing its parent.
type FolderTreeRename struct {
	OwnerID    string
	ParentPath string
	OldName    string
	NewName    string
	SourcePath string
	DestPath   string
	Modified   time.Time
}

// FolderTreeRecycle moves a subtree into the recycle bin.
type FolderTreeRecycle struct {
	OwnerID    string
	ParentPath string // Parent the folder is leaving, recorded as origin
	FolderName string
	SourcePath string
	BinPath    string // New parent for the folder row, the bin itself
	DestPath   string // BinPath plus the folder name
	Modified   time.Time
}

// FolderTreeRestore moves a subtree back out of the recycle bin.
type FolderTreeRestore struct {
	OwnerID        string
	ParentPath     string // Parent inside the bin
	FolderName     string
	SourcePath     string
	DestParentPath string // Restored parent
	DestPath       string
	Modified       time.Time
}
