package drive

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"tgdrive/internal/model"
)

// Batch bounds shared by backfill and pagination, and the chunk size for
// remote deletions.
const (
	DefaultBatchSize      = 50
	MaxBatchSize          = 200
	remoteDeleteChunkSize = 100
	tailScanPageSize      = 100
)

// reservedFolderNames are ensured under the root for every owner.
var reservedFolderNames = []string{"Images", "Videos", "Audios", "Documents", "Notes", "Recycle Bin"}

// Service is the synchronization engine: it orchestrates the local index
// and the remote saved-messages handle, and owns every operation on the
// virtual tree.
type Service struct {
	index  Index
	remote Remote
	logger Logger
	clock  Clock
	idgen  IDGenerator

	// mu serializes index mutations. Remote fetches happen before the
	// lock is taken so the network never stalls local work.
	mu sync.Mutex
}

// NewService creates a Service with the provided dependencies.
func NewService(index Index, remote Remote, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		index:  index,
		remote: remote,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// session is the per-operation view of the authenticated owner.
type session struct {
	chatID  int64
	ownerID string
}

// session resolves the saved-messages peer and makes sure the reserved
// folders exist for it.
func (s *Service) session(ctx context.Context) (*session, error) {
	chatID, err := s.remote.OwnerID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving saved-messages owner: %w", err)
	}

	sess := &session{chatID: chatID, ownerID: strconv.FormatInt(chatID, 10)}
	if err := s.ensureReservedFolders(ctx, sess.ownerID); err != nil {
		return nil, err
	}
	return sess, nil
}

// ensureReservedFolders creates the category folders and the recycle bin
// for an owner. Existence is checked by unique id, so a reserved folder
// the user moved elsewhere keeps its place and is not recreated.
func (s *Service) ensureReservedFolders(ctx context.Context, ownerID string) error {
	now := s.clock.Now()
	for _, name := range reservedFolderNames {
		uniqueID := buildFolderUniqueID(ownerID, RootPath, name)
		existing, err := s.index.SavedItemByUniqueID(ctx, uniqueID)
		if err != nil {
			return fmt.Errorf("checking reserved folder %s: %w", name, err)
		}
		if existing != nil {
			continue
		}
		if err := s.index.UpsertSavedItem(ctx, folderItem(ownerID, RootPath, name, now)); err != nil {
			return fmt.Errorf("creating reserved folder %s: %w", name, err)
		}
	}
	return nil
}

// folderItem builds the tree row for a folder at parentPath/name.
func folderItem(ownerID, parentPath, name string, modified time.Time) *model.SavedItem {
	return &model.SavedItem{
		FileType:     "folder",
		FileUniqueID: buildFolderUniqueID(ownerID, parentPath, name),
		FileName:     name,
		FileCaption:  name,
		FilePath:     parentPath,
		ModifiedDate: modified,
		OwnerID:      ownerID,
	}
}

// ensureFolderHierarchy creates any missing folder rows along the
// destination path, one segment at a time. An ancestor whose derived id
// is claimed by a folder that has since moved away cannot be recreated
// here and fails the operation.
func (s *Service) ensureFolderHierarchy(ctx context.Context, ownerID, destination string, modified time.Time) error {
	normalized := NormalizeSavedPath(destination)
	if normalized == RootPath {
		return nil
	}

	relative := strings.TrimSpace(strings.TrimPrefix(normalized, RootPath+"/"))
	if relative == "" {
		return nil
	}

	parentPath := RootPath
	for _, segment := range strings.Split(relative, "/") {
		name := strings.TrimSpace(segment)
		if name == "" {
			continue
		}

		uniqueID := buildFolderUniqueID(ownerID, parentPath, name)
		existing, err := s.index.SavedItemByUniqueID(ctx, uniqueID)
		if err != nil {
			return fmt.Errorf("checking folder hierarchy: %w", err)
		}
		switch {
		case existing == nil:
			if err := s.index.UpsertSavedItem(ctx, folderItem(ownerID, parentPath, name, modified)); err != nil {
				return fmt.Errorf("creating folder hierarchy: %w", err)
			}
		case existing.FilePath != parentPath || existing.FileName != name:
			return fmt.Errorf("%w: folder %s now lives at %s", ErrInvalidState, name, joinSavedPath(existing.FilePath, existing.FileName))
		}

		parentPath = joinSavedPath(parentPath, name)
	}
	return nil
}

// SyncStatus summarizes the local index against the remote stream.
type SyncStatus struct {
	OwnerID          string
	CachedMessages   int64
	SavedItems       int64
	BackfillCursor   int64
	BackfillComplete bool
}

// GetStatus reports how much of the stream is indexed and where the
// backfill cursor sits.
func (s *Service) GetStatus(ctx context.Context) (*SyncStatus, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	cached, err := s.index.CountMessages(ctx, sess.chatID)
	if err != nil {
		return nil, fmt.Errorf("counting cached messages: %w", err)
	}
	items, err := s.index.CountNonFolderItems(ctx, sess.ownerID)
	if err != nil {
		return nil, fmt.Errorf("counting saved items: %w", err)
	}
	cursor, err := s.backfillCursorValue(ctx, sess.chatID)
	if err != nil {
		return nil, err
	}
	complete, err := s.backfillComplete(ctx, sess.chatID)
	if err != nil {
		return nil, err
	}

	return &SyncStatus{
		OwnerID:          sess.ownerID,
		CachedMessages:   cached,
		SavedItems:       items,
		BackfillCursor:   cursor,
		BackfillComplete: complete,
	}, nil
}
