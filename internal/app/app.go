package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tgdrive/internal/config"
	"tgdrive/internal/database"
	"tgdrive/internal/drive"
	"tgdrive/internal/model"
	"tgdrive/internal/remote"
	"tgdrive/internal/secret"
)

// DriveApp is the application layer between the CLI and the drive
// service. It constructs all dependencies from config, exposes
// high-level operations that accept raw path strings, and manages the
// index lifecycle on Close.
type DriveApp struct {
	cfg     *config.Config
	index   drive.Index
	remote  drive.Remote
	service *drive.Service
	logFile *os.File
}

// RemoteNeedsToken reports whether a backend type authenticates with a
// stored API token.
func RemoteNeedsToken(remoteType string) bool {
	return remoteType == "bridge" || remoteType == "bot"
}

// NewDriveApp creates a fully wired DriveApp from the given config.
// operation identifies the CLI command being run (e.g. "Sync", "Upload").
// passphrase unseals the stored API token for backends that need one.
// The caller must call Close when done.
func NewDriveApp(cfg *config.Config, operation, passphrase string) (*DriveApp, error) {
	token := ""
	if RemoteNeedsToken(cfg.Remote.Type) {
		tokens, err := secret.NewStoreFromConfig(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("creating token store: %w", err)
		}
		if !tokens.IsConfigured() {
			return nil, fmt.Errorf("no api token stored; run 'tgdrive auth set-token' first")
		}
		token, err = tokens.Open(passphrase)
		if err != nil {
			return nil, fmt.Errorf("unsealing api token: %w", err)
		}
	}

	idx, err := database.NewIndexFromConfig(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	// The original schema is created on first run, so the index migrates
	// itself on every open.
	if err := idx.Migrate(); err != nil {
		idx.Close()
		return nil, fmt.Errorf("preparing index schema: %w", err)
	}

	rc, err := remote.NewRemoteFromConfig(cfg.Remote, token)
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("creating remote: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With("operation", operation)

	svc := drive.NewService(idx, rc, &slogAdapter{l: logger}, drive.RealClock{}, drive.UUIDGenerator{})

	return &DriveApp{
		cfg:     cfg,
		index:   idx,
		remote:  rc,
		service: svc,
		logFile: logFile,
	}, nil
}

// resolvePath accepts tg://saved virtual paths, absolute saved paths,
// and bare folder names relative to the root.
func resolvePath(rawPath string) string {
	if path, ok := drive.VirtualToSavedPath(rawPath); ok {
		return path
	}
	return drive.NormalizeSavedPath(rawPath)
}

// resolveSource keeps tg://msg file references intact and resolves
// everything else like resolvePath.
func resolveSource(rawPath string) string {
	if _, ok := drive.ParseMessageRef(rawPath); ok {
		return rawPath
	}
	return resolvePath(rawPath)
}

// Sync indexes the messages that arrived since the last run.
func (a *DriveApp) Sync(ctx context.Context) (*drive.IndexSummary, error) {
	return a.service.IndexMessages(ctx)
}

// Backfill walks one batch of history below the backfill cursor.
func (a *DriveApp) Backfill(ctx context.Context, batchSize int) (*drive.BackfillResult, error) {
	return a.service.BackfillBatch(ctx, batchSize)
}

// Rebuild re-derives every saved item from the message cache.
func (a *DriveApp) Rebuild(ctx context.Context) (*drive.RebuildResult, error) {
	return a.service.RebuildIndex(ctx)
}

// Status reports how much of the stream is indexed and where the
// backfill cursor sits.
func (a *DriveApp) Status(ctx context.Context) (*drive.SyncStatus, error) {
	return a.service.GetStatus(ctx)
}

// List returns the children of the given folder path.
func (a *DriveApp) List(ctx context.Context, rawPath string) ([]model.SavedItem, error) {
	return a.service.List(ctx, resolvePath(rawPath))
}

// ListPage returns one pagination window of a folder listing.
func (a *DriveApp) ListPage(ctx context.Context, rawPath string, offset, limit int64) (*drive.Page, error) {
	return a.service.ListPage(ctx, resolvePath(rawPath), offset, limit)
}

// CreateFolder creates a folder at the given path.
func (a *DriveApp) CreateFolder(ctx context.Context, rawPath string) (*model.SavedItem, error) {
	path := resolvePath(rawPath)
	parent, name, ok := drive.SplitParentAndName(path)
	if !ok {
		return nil, fmt.Errorf("invalid folder path: %s", rawPath)
	}
	return a.service.CreateFolder(ctx, parent, name)
}

// Move relocates a file (tg://msg reference) or a folder (path) under a
// new parent folder.
func (a *DriveApp) Move(ctx context.Context, rawSource, rawDest string) error {
	return a.service.Move(ctx, resolveSource(rawSource), resolvePath(rawDest))
}

// Rename changes the display name of a file or folder.
func (a *DriveApp) Rename(ctx context.Context, rawSource, newName string) error {
	return a.service.Rename(ctx, resolveSource(rawSource), newName)
}

// Recycle moves a file or folder into the recycle bin.
func (a *DriveApp) Recycle(ctx context.Context, rawSource string) error {
	return a.service.Recycle(ctx, resolveSource(rawSource))
}

// Restore moves a recycled item back to its recorded origin.
func (a *DriveApp) Restore(ctx context.Context, rawSource string) error {
	return a.service.Restore(ctx, resolveSource(rawSource))
}

// Purge permanently deletes a recycled item, remote messages first.
func (a *DriveApp) Purge(ctx context.Context, rawSource string) error {
	return a.service.DeletePermanently(ctx, resolveSource(rawSource))
}

// Upload reads a local file and sends it to saved messages, filing it
// under the destination folder when one is given.
func (a *DriveApp) Upload(ctx context.Context, localPath, rawDest string) (*model.TelegramMessage, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", localPath, err)
	}

	dest := ""
	if rawDest != "" {
		dest = resolvePath(rawDest)
	}
	return a.service.Upload(ctx, filepath.Base(localPath), content, dest)
}

// SaveNote posts a text note to saved messages.
func (a *DriveApp) SaveNote(ctx context.Context, text string) (*model.TelegramMessage, error) {
	return a.service.SaveNote(ctx, text)
}

// EditNote replaces the text of an existing note.
func (a *DriveApp) EditNote(ctx context.Context, messageID int64, text string) (*model.TelegramMessage, error) {
	return a.service.EditNote(ctx, messageID, text)
}

// Close closes the index and the log file.
func (a *DriveApp) Close() error {
	var firstErr error

	if err := a.index.Close(); err != nil {
		firstErr = fmt.Errorf("closing index: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
