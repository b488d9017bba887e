package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tgdrive/internal/database/migrations"
	"tgdrive/internal/drive"
	"tgdrive/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteIndex implements the drive.Index interface using SQLite.
type SQLiteIndex struct {
	db   *sql.DB
	path string
}

var _ drive.Index = (*SQLiteIndex)(nil)

// NewSQLiteIndex creates a new SQLite-backed index.
// path can be a file path or ":memory:" for an in-memory index.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteIndex{db: db, path: path}, nil
}

// NewSQLiteIndexFromDB wraps an existing database connection. The caller
// is responsible for the connection being configured via OpenConnection.
func NewSQLiteIndexFromDB(db *sql.DB) *SQLiteIndex {
	return &SQLiteIndex{db: db}
}

// DB exposes the underlying connection for migration tooling.
func (s *SQLiteIndex) DB() *sql.DB {
	return s.db
}

// OpenConnection opens and configures a SQLite connection with the
// PRAGMAs the index relies on. A single connection serializes writers;
// the busy timeout covers the moments migrations hold the file.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Migrate brings the index schema up to date, creating it on first run.
func (s *SQLiteIndex) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the index schema is up-to-date.
func (s *SQLiteIndex) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the underlying connection.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// Dates are stored as RFC 3339 strings, matching what the remote side
// reports for message dates.

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t, nil
}

// nullable returns nil for "" so empty strings land as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Settings

func (s *SQLiteIndex) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteIndex) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, "INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// Message cache

const messageColumns = "message_id, chat_id, category, filename, extension, mime_type, timestamp, size, text, thumbnail, file_reference"

func (s *SQLiteIndex) SaveMessage(ctx context.Context, msg *model.TelegramMessage) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO telegram_messages ("+messageColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		msg.MessageID,
		msg.ChatID,
		msg.Category,
		nullable(msg.Filename),
		nullable(msg.Extension),
		nullable(msg.MimeType),
		formatTime(msg.Timestamp),
		msg.Size,
		nullable(msg.Text),
		nullable(msg.Thumbnail),
		msg.FileReference,
	)
	if err != nil {
		return fmt.Errorf("saving message %d: %w", msg.MessageID, err)
	}
	return nil
}

func scanMessage(row interface{ Scan(...any) error }) (*model.TelegramMessage, error) {
	var (
		msg       model.TelegramMessage
		filename  sql.NullString
		extension sql.NullString
		mimeType  sql.NullString
		timestamp string
		size      sql.NullInt64
		text      sql.NullString
		thumbnail sql.NullString
	)
	err := row.Scan(
		&msg.MessageID,
		&msg.ChatID,
		&msg.Category,
		&filename,
		&extension,
		&mimeType,
		&timestamp,
		&size,
		&text,
		&thumbnail,
		&msg.FileReference,
	)
	if err != nil {
		return nil, err
	}
	msg.Filename = filename.String
	msg.Extension = extension.String
	msg.MimeType = mimeType.String
	msg.Size = size.Int64
	msg.Text = text.String
	msg.Thumbnail = thumbnail.String
	msg.Timestamp, err = parseTime(timestamp)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *SQLiteIndex) GetMessage(ctx context.Context, chatID, messageID int64) (*model.TelegramMessage, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+messageColumns+" FROM telegram_messages WHERE chat_id = ? AND message_id = ?",
		chatID, messageID)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading message %d: %w", messageID, err)
	}
	return msg, nil
}

func (s *SQLiteIndex) queryMessages(ctx context.Context, query string, args ...any) ([]model.TelegramMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.TelegramMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

func (s *SQLiteIndex) AllMessages(ctx context.Context, chatID int64) ([]model.TelegramMessage, error) {
	messages, err := s.queryMessages(ctx,
		"SELECT "+messageColumns+" FROM telegram_messages WHERE chat_id = ? ORDER BY message_id DESC",
		chatID)
	if err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}
	return messages, nil
}

func (s *SQLiteIndex) MessagesByCategory(ctx context.Context, chatID int64, category string) ([]model.TelegramMessage, error) {
	messages, err := s.queryMessages(ctx,
		"SELECT "+messageColumns+" FROM telegram_messages WHERE chat_id = ? AND category = ? ORDER BY timestamp DESC",
		chatID, category)
	if err != nil {
		return nil, fmt.Errorf("reading %s messages: %w", category, err)
	}
	return messages, nil
}

func (s *SQLiteIndex) CountMessages(ctx context.Context, chatID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM telegram_messages WHERE chat_id = ?", chatID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

func (s *SQLiteIndex) LastMessageID(ctx context.Context, chatID int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(message_id), 0) FROM telegram_messages WHERE chat_id = ?", chatID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reading last message id: %w", err)
	}
	return id, nil
}

func (s *SQLiteIndex) OldestMessageID(ctx context.Context, chatID int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MIN(message_id), 0) FROM telegram_messages WHERE chat_id = ?", chatID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reading oldest message id: %w", err)
	}
	return id, nil
}

func (s *SQLiteIndex) DeleteMessages(ctx context.Context, chatID int64, messageIDs []int64) error {
	if len(messageIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(messageIDs)), ", ")
	args := make([]any, 0, len(messageIDs)+1)
	args = append(args, chatID)
	for _, id := range messageIDs {
		args = append(args, id)
	}

	query := "DELETE FROM telegram_messages WHERE chat_id = ? AND message_id IN (" + placeholders + ")"
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting messages: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) SetMessageThumbnail(ctx context.Context, chatID, messageID int64, thumbnail string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE telegram_messages SET thumbnail = ? WHERE chat_id = ? AND message_id = ?",
		nullable(thumbnail), chatID, messageID)
	if err != nil {
		return fmt.Errorf("updating message thumbnail: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) SetMessageSize(ctx context.Context, chatID, messageID int64, size int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE telegram_messages SET size = ? WHERE chat_id = ? AND message_id = ?",
		size, chatID, messageID)
	if err != nil {
		return fmt.Errorf("updating message size: %w", err)
	}
	return nil
}

// Saved items

const savedItemColumns = "chat_id, message_id, thumbnail, file_type, file_unique_id, file_size, file_name, file_caption, file_path, recycle_origin_path, modified_date, owner_id"

// savedItemOrder lists folders first in name order, then files newest
// first by message id, with names breaking ties.
const savedItemOrder = `ORDER BY
	CASE WHEN file_type = 'folder' THEN 0 ELSE 1 END,
	CASE WHEN file_type = 'folder' THEN LOWER(file_name) ELSE '' END,
	CASE WHEN file_type = 'folder' THEN 0 ELSE message_id END DESC,
	LOWER(file_name) ASC`

func (s *SQLiteIndex) UpsertSavedItem(ctx context.Context, item *model.SavedItem) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO telegram_saved_items ("+savedItemColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		item.ChatID,
		item.MessageID,
		nullable(item.Thumbnail),
		item.FileType,
		item.FileUniqueID,
		item.FileSize,
		item.FileName,
		nullable(item.FileCaption),
		item.FilePath,
		nullable(item.RecycleOriginPath),
		formatTime(item.ModifiedDate),
		item.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("saving item %s: %w", item.FileUniqueID, err)
	}
	return nil
}

func scanSavedItem(row interface{ Scan(...any) error }) (*model.SavedItem, error) {
	var (
		item          model.SavedItem
		thumbnail     sql.NullString
		caption       sql.NullString
		recycleOrigin sql.NullString
		modified      string
	)
	err := row.Scan(
		&item.ChatID,
		&item.MessageID,
		&thumbnail,
		&item.FileType,
		&item.FileUniqueID,
		&item.FileSize,
		&item.FileName,
		&caption,
		&item.FilePath,
		&recycleOrigin,
		&modified,
		&item.OwnerID,
	)
	if err != nil {
		return nil, err
	}
	item.Thumbnail = thumbnail.String
	item.FileCaption = caption.String
	item.RecycleOriginPath = recycleOrigin.String
	item.ModifiedDate, err = parseTime(modified)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *SQLiteIndex) SavedItemByUniqueID(ctx context.Context, uniqueID string) (*model.SavedItem, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+savedItemColumns+" FROM telegram_saved_items WHERE file_unique_id = ?", uniqueID)
	item, err := scanSavedItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading item %s: %w", uniqueID, err)
	}
	return item, nil
}

func (s *SQLiteIndex) querySavedItems(ctx context.Context, query string, args ...any) ([]model.SavedItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.SavedItem
	for rows.Next() {
		item, err := scanSavedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *SQLiteIndex) SavedItemsByPath(ctx context.Context, ownerID, path string) ([]model.SavedItem, error) {
	items, err := s.querySavedItems(ctx,
		"SELECT "+savedItemColumns+" FROM telegram_saved_items WHERE owner_id = ? AND file_path = ? "+savedItemOrder,
		ownerID, path)
	if err != nil {
		return nil, fmt.Errorf("listing items at %s: %w", path, err)
	}
	return items, nil
}

func (s *SQLiteIndex) SavedItemsByPathPage(ctx context.Context, ownerID, path string, offset, limit int64) ([]model.SavedItem, error) {
	items, err := s.querySavedItems(ctx,
		"SELECT "+savedItemColumns+" FROM telegram_saved_items WHERE owner_id = ? AND file_path = ? "+savedItemOrder+" LIMIT ? OFFSET ?",
		ownerID, path, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing items at %s: %w", path, err)
	}
	return items, nil
}

func (s *SQLiteIndex) CountNonFolderItems(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM telegram_saved_items WHERE owner_id = ? AND file_type != 'folder'",
		ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

func (s *SQLiteIndex) CountItemsWithEmptyName(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM telegram_saved_items
		 WHERE owner_id = ?
		   AND file_type != 'folder'
		   AND (file_name IS NULL OR TRIM(file_name) = '')`,
		ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unnamed items: %w", err)
	}
	return count, nil
}

func (s *SQLiteIndex) CountGeneratedNamesMissingExtension(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM telegram_saved_items
		 WHERE owner_id = ?
		   AND file_type != 'folder'
		   AND file_name IS NOT NULL
		   AND TRIM(file_name) != ''
		   AND file_name NOT LIKE '%.%'
		   AND (
		     (file_type = 'image' AND LOWER(file_name) LIKE 'image_%')
		     OR (file_type = 'video' AND LOWER(file_name) LIKE 'video_%')
		     OR (file_type = 'audio' AND LOWER(file_name) LIKE 'audio_%')
		     OR (file_type = 'text' AND LOWER(file_name) LIKE 'text_%')
		     OR (file_type = 'document' AND LOWER(file_name) LIKE 'document_%')
		   )`,
		ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting generated names without extension: %w", err)
	}
	return count, nil
}

// File rows

func (s *SQLiteIndex) SavedFileByMessageID(ctx context.Context, ownerID string, messageID int64) (*model.SavedItem, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+savedItemColumns+" FROM telegram_saved_items WHERE owner_id = ? AND message_id = ? AND file_type != 'folder' LIMIT 1",
		ownerID, messageID)
	item, err := scanSavedItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading file for message %d: %w", messageID, err)
	}
	return item, nil
}

func (s *SQLiteIndex) FileExists(ctx context.Context, ownerID string, messageID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM telegram_saved_items WHERE owner_id = ? AND message_id = ? AND file_type != 'folder')",
		ownerID, messageID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking file for message %d: %w", messageID, err)
	}
	return exists, nil
}

func (s *SQLiteIndex) MoveFile(ctx context.Context, ownerID string, messageID int64, destPath string, modified time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE telegram_saved_items SET file_path = ?, modified_date = ?
		 WHERE owner_id = ? AND message_id = ? AND file_type != 'folder'`,
		destPath, formatTime(modified), ownerID, messageID)
	if err != nil {
		return fmt.Errorf("moving file for message %d: %w", messageID, err)
	}
	return nil
}

func (s *SQLiteIndex) RenameFile(ctx context.Context, ownerID string, messageID int64, newName string, modified time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE telegram_saved_items SET file_name = ?, file_caption = ?, modified_date = ?
		 WHERE owner_id = ? AND message_id = ? AND file_type != 'folder'`,
		newName, newName, formatTime(modified), ownerID, messageID)
	if err != nil {
		return fmt.Errorf("renaming file for message %d: %w", messageID, err)
	}
	return nil
}

func (s *SQLiteIndex) RecycleFile(ctx context.Context, ownerID string, messageID int64, binPath string, modified time.Time) error {
	// COALESCE reads the pre-update file_path, so the first recycle
	// records the origin and later recycles leave it alone.
	_, err := s.db.ExecContext(ctx,
		`UPDATE telegram_saved_items
		 SET file_path = ?, recycle_origin_path = COALESCE(recycle_origin_path, file_path), modified_date = ?
		 WHERE owner_id = ? AND message_id = ? AND file_type != 'folder'`,
		binPath, formatTime(modified), ownerID, messageID)
	if err != nil {
		return fmt.Errorf("recycling file for message %d: %w", messageID, err)
	}
	return nil
}

func (s *SQLiteIndex) RestoreFile(ctx context.Context, ownerID string, messageID int64, destPath string, modified time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE telegram_saved_items
		 SET file_path = ?, recycle_origin_path = NULL, modified_date = ?
		 WHERE owner_id = ? AND message_id = ? AND file_type != 'folder'`,
		destPath, formatTime(modified), ownerID, messageID)
	if err != nil {
		return fmt.Errorf("restoring file for message %d: %w", messageID, err)
	}
	return nil
}

func (s *SQLiteIndex) DeleteFile(ctx context.Context, ownerID string, messageID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM telegram_saved_items WHERE owner_id = ? AND message_id = ? AND file_type != 'folder'",
		ownerID, messageID)
	if err != nil {
		return fmt.Errorf("deleting file for message %d: %w", messageID, err)
	}
	return nil
}

func (s *SQLiteIndex) SetFileThumbnail(ctx context.Context, ownerID string, messageID int64, thumbnail string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE telegram_saved_items SET thumbnail = ?
		 WHERE owner_id = ? AND message_id = ? AND file_type != 'folder'`,
		nullable(thumbnail), ownerID, messageID)
	if err != nil {
		return fmt.Errorf("updating file thumbnail for message %d: %w", messageID, err)
	}
	return nil
}

func (s *SQLiteIndex) SetFileSize(ctx context.Context, ownerID string, messageID int64, size int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE telegram_saved_items SET file_size = ?
		 WHERE owner_id = ? AND message_id = ? AND file_type != 'folder'`,
		size, ownerID, messageID)
	if err != nil {
		return fmt.Errorf("updating file size for message %d: %w", messageID, err)
	}
	return nil
}

// Folder rows and subtrees

func (s *SQLiteIndex) FolderExists(ctx context.Context, ownerID, parentPath, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM telegram_saved_items
		 WHERE owner_id = ? AND file_type = 'folder' AND file_path = ? AND file_name = ?)`,
		ownerID, parentPath, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking folder %s: %w", name, err)
	}
	return exists, nil
}

func (s *SQLiteIndex) FolderRecycleOrigin(ctx context.Context, ownerID, parentPath, name string) (string, error) {
	var origin sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT recycle_origin_path FROM telegram_saved_items
		 WHERE owner_id = ? AND file_type = 'folder' AND file_path = ? AND file_name = ?`,
		ownerID, parentPath, name).Scan(&origin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("reading folder origin for %s: %w", name, err)
	}
	return origin.String, nil
}

func (s *SQLiteIndex) FolderTreeMessageIDs(ctx context.Context, ownerID, sourcePath string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id FROM telegram_saved_items
		 WHERE owner_id = ? AND (file_path = ? OR file_path LIKE ?)
		   AND file_type != 'folder' AND message_id > 0`,
		ownerID, sourcePath, sourcePath+"/%")
	if err != nil {
		return nil, fmt.Errorf("collecting message ids under %s: %w", sourcePath, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("collecting message ids under %s: %w", sourcePath, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// rewriteDescendantPaths swaps the sourcePath prefix for destPath on the
// folder's children and every deeper row. substr and length count
// characters, so the substitution is safe for non-ASCII folder names.
func rewriteDescendantPaths(ctx context.Context, tx *sql.Tx, ownerID, sourcePath, destPath, modified string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE telegram_saved_items
		 SET file_path = ? || substr(file_path, length(?) + 1), modified_date = ?
		 WHERE owner_id = ? AND (file_path = ? OR file_path LIKE ?)`,
		destPath, sourcePath, modified, ownerID, sourcePath, sourcePath+"/%")
	if err != nil {
		return fmt.Errorf("rewriting descendant paths: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) MoveFolderTree(ctx context.Context, move drive.FolderTreeMove) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	modified := formatTime(move.Modified)
	_, err = tx.ExecContext(ctx,
		`UPDATE telegram_saved_items SET file_path = ?, modified_date = ?
		 WHERE owner_id = ? AND file_type = 'folder' AND file_path = ? AND file_name = ?`,
		move.DestParentPath, modified, move.OwnerID, move.ParentPath, move.FolderName)
	if err != nil {
		return fmt.Errorf("moving folder row: %w", err)
	}

	if err := rewriteDescendantPaths(ctx, tx, move.OwnerID, move.SourcePath, move.DestPath, modified); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) RenameFolderTree(ctx context.Context, rename drive.FolderTreeRename) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	modified := formatTime(rename.Modified)
	_, err = tx.ExecContext(ctx,
		`UPDATE telegram_saved_items SET file_name = ?, file_caption = ?, modified_date = ?
		 WHERE owner_id = ? AND file_type = 'folder' AND file_path = ? AND file_name = ?`,
		rename.NewName, rename.NewName, modified, rename.OwnerID, rename.ParentPath, rename.OldName)
	if err != nil {
		return fmt.Errorf("renaming folder row: %w", err)
	}

	if err := rewriteDescendantPaths(ctx, tx, rename.OwnerID, rename.SourcePath, rename.DestPath, modified); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) RecycleFolderTree(ctx context.Context, recycle drive.FolderTreeRecycle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	modified := formatTime(recycle.Modified)
	_, err = tx.ExecContext(ctx,
		`UPDATE telegram_saved_items
		 SET file_path = ?, recycle_origin_path = COALESCE(recycle_origin_path, ?), modified_date = ?
		 WHERE owner_id = ? AND file_type = 'folder' AND file_path = ? AND file_name = ?`,
		recycle.BinPath, recycle.ParentPath, modified, recycle.OwnerID, recycle.ParentPath, recycle.FolderName)
	if err != nil {
		return fmt.Errorf("recycling folder row: %w", err)
	}

	if err := rewriteDescendantPaths(ctx, tx, recycle.OwnerID, recycle.SourcePath, recycle.DestPath, modified); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) RestoreFolderTree(ctx context.Context, restore drive.FolderTreeRestore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	modified := formatTime(restore.Modified)
	_, err = tx.ExecContext(ctx,
		`UPDATE telegram_saved_items
		 SET file_path = ?, recycle_origin_path = NULL, modified_date = ?
		 WHERE owner_id = ? AND file_type = 'folder' AND file_path = ? AND file_name = ?`,
		restore.DestParentPath, modified, restore.OwnerID, restore.ParentPath, restore.FolderName)
	if err != nil {
		return fmt.Errorf("restoring folder row: %w", err)
	}

	if err := rewriteDescendantPaths(ctx, tx, restore.OwnerID, restore.SourcePath, restore.DestPath, modified); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) DeleteFolderTree(ctx context.Context, ownerID, parentPath, name, sourcePath string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM telegram_saved_items
		 WHERE owner_id = ? AND file_type = 'folder' AND file_path = ? AND file_name = ?`,
		ownerID, parentPath, name)
	if err != nil {
		return fmt.Errorf("deleting folder row: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM telegram_saved_items WHERE owner_id = ? AND (file_path = ? OR file_path LIKE ?)",
		ownerID, sourcePath, sourcePath+"/%")
	if err != nil {
		return fmt.Errorf("deleting descendant rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
