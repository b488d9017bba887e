package drive

import (
	"context"
	"fmt"
	"strings"

	"tgdrive/internal/model"
)

// CreateFolder creates a folder under parentPath. Creating a folder that
// already exists at the same location is a no-op returning the existing
// row. A folder created here earlier and moved elsewhere still owns the
// derived id, which blocks the create instead of silently absorbing the
// old row.
func (s *Service) CreateFolder(ctx context.Context, parentPath, name string) (*model.SavedItem, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: folder name cannot be empty", ErrInvalidPath)
	}

	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	parent := NormalizeSavedPath(parentPath)

	s.mu.Lock()
	defer s.mu.Unlock()

	uniqueID := buildFolderUniqueID(sess.ownerID, parent, trimmed)
	existing, err := s.index.SavedItemByUniqueID(ctx, uniqueID)
	if err != nil {
		return nil, fmt.Errorf("checking folder: %w", err)
	}
	if existing != nil {
		if existing.FilePath == parent && existing.FileName == trimmed {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: a folder created at this location now lives at %s",
			ErrInvalidState, joinSavedPath(existing.FilePath, existing.FileName))
	}

	item := folderItem(sess.ownerID, parent, trimmed, s.clock.Now())
	if err := s.index.UpsertSavedItem(ctx, item); err != nil {
		return nil, fmt.Errorf("saving folder metadata: %w", err)
	}

	s.logger.Info("folder created", "path", joinSavedPath(parent, trimmed))
	return item, nil
}

// Move relocates an item to a new parent folder. Files are addressed by
// tg://msg references, folders by path; folder moves carry the whole
// subtree along in one transaction.
func (s *Service) Move(ctx context.Context, sourcePath, destinationPath string) error {
	destination, ok := VirtualToSavedPath(destinationPath)
	if !ok {
		return fmt.Errorf("%w: destination %s", ErrInvalidPath, destinationPath)
	}

	sess, err := s.session(ctx)
	if err != nil {
		return err
	}
	modified := s.clock.Now()

	if messageID, isFile := ParseMessageRef(sourcePath); isFile {
		exists, err := s.index.FileExists(ctx, sess.ownerID, messageID)
		if err != nil {
			return fmt.Errorf("checking source file: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: source file", ErrNotFound)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.index.MoveFile(ctx, sess.ownerID, messageID, destination, modified); err != nil {
			return fmt.Errorf("moving file metadata: %w", err)
		}
		s.logger.Info("file moved", "message_id", messageID, "path", destination)
		return nil
	}

	source, ok := VirtualToSavedPath(sourcePath)
	if !ok {
		return fmt.Errorf("%w: source %s", ErrInvalidPath, sourcePath)
	}
	if source == RootPath {
		return fmt.Errorf("%w: cannot move the root folder", ErrInvalidPath)
	}
	if source == destination {
		return nil
	}
	if strings.HasPrefix(destination, source+"/") {
		return fmt.Errorf("%w: cannot move a folder into its own child", ErrInvalidPath)
	}

	parentPath, folderName, ok := SplitParentAndName(source)
	if !ok {
		return fmt.Errorf("%w: source %s", ErrInvalidPath, sourcePath)
	}

	exists, err := s.index.FolderExists(ctx, sess.ownerID, parentPath, folderName)
	if err != nil {
		return fmt.Errorf("checking source folder: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: source folder", ErrNotFound)
	}

	destPath := joinSavedPath(destination, folderName)

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.index.MoveFolderTree(ctx, FolderTreeMove{
		OwnerID:        sess.ownerID,
		ParentPath:     parentPath,
		FolderName:     folderName,
		SourcePath:     source,
		DestParentPath: destination,
		DestPath:       destPath,
		Modified:       modified,
	})
	if err != nil {
		return fmt.Errorf("moving folder metadata: %w", err)
	}

	s.logger.Info("folder moved", "from", source, "to", destPath)
	return nil
}

// Rename changes an item's display name. File renames touch only the
// name column; folder renames also rewrite every descendant path.
func (s *Service) Rename(ctx context.Context, sourcePath, newName string) error {
	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		return fmt.Errorf("%w: new name cannot be empty", ErrInvalidPath)
	}
	name := sanitizeFileName(trimmed)

	sess, err := s.session(ctx)
	if err != nil {
		return err
	}
	modified := s.clock.Now()

	if messageID, isFile := ParseMessageRef(sourcePath); isFile {
		exists, err := s.index.FileExists(ctx, sess.ownerID, messageID)
		if err != nil {
			return fmt.Errorf("checking source file: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: source file", ErrNotFound)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.index.RenameFile(ctx, sess.ownerID, messageID, name, modified); err != nil {
			return fmt.Errorf("renaming file metadata: %w", err)
		}
		s.logger.Info("file renamed", "message_id", messageID, "name", name)
		return nil
	}

	source, ok := VirtualToSavedPath(sourcePath)
	if !ok {
		return fmt.Errorf("%w: source %s", ErrInvalidPath, sourcePath)
	}
	if source == RootPath {
		return fmt.Errorf("%w: cannot rename the root folder", ErrInvalidPath)
	}

	parentPath, currentName, ok := SplitParentAndName(source)
	if !ok {
		return fmt.Errorf("%w: source %s", ErrInvalidPath, sourcePath)
	}
	if currentName == name {
		return nil
	}

	destPath := joinSavedPath(parentPath, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.index.RenameFolderTree(ctx, FolderTreeRename{
		OwnerID:    sess.ownerID,
		ParentPath: parentPath,
		OldName:    currentName,
		NewName:    name,
		SourcePath: source,
		DestPath:   destPath,
		Modified:   modified,
	})
	if err != nil {
		return fmt.Errorf("renaming folder metadata: %w", err)
	}

	s.logger.Info("folder renamed", "from", source, "to", destPath)
	return nil
}

// Recycle moves an item into the recycle bin. The item's current parent
// is recorded as its origin the first time it enters the bin, so a later
// restore can put it back.
func (s *Service) Recycle(ctx context.Context, sourcePath string) error {
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}
	modified := s.clock.Now()

	if messageID, isFile := ParseMessageRef(sourcePath); isFile {
		file, err := s.index.SavedFileByMessageID(ctx, sess.ownerID, messageID)
		if err != nil {
			return fmt.Errorf("reading source file metadata: %w", err)
		}
		if file == nil {
			return fmt.Errorf("%w: source file", ErrNotFound)
		}
		if IsRecycleBinPath(file.FilePath) {
			return fmt.Errorf("%w: item is already in the recycle bin", ErrInvalidState)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.index.RecycleFile(ctx, sess.ownerID, messageID, RecycleBinPath, modified); err != nil {
			return fmt.Errorf("moving file to recycle bin: %w", err)
		}
		s.logger.Info("file recycled", "message_id", messageID)
		return nil
	}

	source, ok := VirtualToSavedPath(sourcePath)
	if !ok {
		return fmt.Errorf("%w: source %s", ErrInvalidPath, sourcePath)
	}
	if source == RootPath {
		return fmt.Errorf("%w: cannot recycle the root folder", ErrInvalidPath)
	}
	if IsRecycleBinPath(source) {
		return fmt.Errorf("%w: item is already in the recycle bin", ErrInvalidState)
	}

	parentPath, folderName, ok := SplitParentAndName(source)
	if !ok {
		return fmt.Errorf("%w: source %s", ErrInvalidPath, sourcePath)
	}

	exists, err := s.index.FolderExists(ctx, sess.ownerID, parentPath, folderName)
	if err != nil {
		return fmt.Errorf("checking source folder: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: source folder", ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.index.RecycleFolderTree(ctx, FolderTreeRecycle{
		OwnerID:    sess.ownerID,
		ParentPath: parentPath,
		FolderName: folderName,
		SourcePath: source,
		BinPath:    RecycleBinPath,
		DestPath:   joinSavedPath(RecycleBinPath, folderName),
		Modified:   modified,
	})
	if err != nil {
		return fmt.Errorf("moving folder to recycle bin: %w", err)
	}

	s.logger.Info("folder recycled", "path", source)
	return nil
}

// Restore moves an item out of the recycle bin back to its recorded
// origin, or to the root when no origin is known, recreating missing
// ancestor folders along the way.
func (s *Service) Restore(ctx context.Context, sourcePath string) error {
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}
	modified := s.clock.Now()

	if messageID, isFile := ParseMessageRef(sourcePath); isFile {
		file, err := s.index.SavedFileByMessageID(ctx, sess.ownerID, messageID)
		if err != nil {
			return fmt.Errorf("reading source file metadata: %w", err)
		}
		if file == nil {
			return fmt.Errorf("%w: source file", ErrNotFound)
		}
		if !IsRecycleBinPath(file.FilePath) {
			return fmt.Errorf("%w: only items in the recycle bin can be restored", ErrInvalidState)
		}

		destination := file.RecycleOriginPath
		if destination == "" {
			destination = RootPath
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.ensureFolderHierarchy(ctx, sess.ownerID, destination, modified); err != nil {
			return err
		}
		if err := s.index.RestoreFile(ctx, sess.ownerID, messageID, destination, modified); err != nil {
			return fmt.Errorf("restoring file metadata: %w", err)
		}
		s.logger.Info("file restored", "message_id", messageID, "path", destination)
		return nil
	}

	source, ok := VirtualToSavedPath(sourcePath)
	if !ok {
		return fmt.Errorf("%w: source %s", ErrInvalidPath, sourcePath)
	}
	if !IsRecycleBinPath(source) {
		return fmt.Errorf("%w: only items in the recycle bin can be restored", ErrInvalidState)
	}

	parentPath, folderName, ok := SplitParentAndName(source)
	if !ok {
		return fmt.Errorf("%w: source %s", ErrInvalidPath, sourcePath)
	}

	exists, err := s.index.FolderExists(ctx, sess.ownerID, parentPath, folderName)
	if err != nil {
		return fmt.Errorf("checking source folder: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: source folder", ErrNotFound)
	}

	origin, err := s.index.FolderRecycleOrigin(ctx, sess.ownerID, parentPath, folderName)
	if err != nil {
		return fmt.Errorf("reading folder restore path: %w", err)
	}
	destParent := origin
	if destParent == "" {
		destParent = RootPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureFolderHierarchy(ctx, sess.ownerID, destParent, modified); err != nil {
		return err
	}

	destPath := joinSavedPath(destParent, folderName)
	err = s.index.RestoreFolderTree(ctx, FolderTreeRestore{
		OwnerID:        sess.ownerID,
		ParentPath:     parentPath,
		FolderName:     folderName,
		SourcePath:     source,
		DestParentPath: destParent,
		DestPath:       destPath,
		Modified:       modified,
	})
	if err != nil {
		return fmt.Errorf("restoring folder metadata: %w", err)
	}

	s.logger.Info("folder restored", "path", destPath)
	return nil
}

// DeletePermanently removes recycled items for good. Remote messages are
// deleted first, in chunks, then the local rows; a remote failure leaves
// the local index untouched.
func (s *Service) DeletePermanently(ctx context.Context, sourcePath string) error {
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}

	if messageID, isFile := ParseMessageRef(sourcePath); isFile {
		file, err := s.index.SavedFileByMessageID(ctx, sess.ownerID, messageID)
		if err != nil {
			return fmt.Errorf("reading source file metadata: %w", err)
		}
		if file == nil {
			return fmt.Errorf("%w: source file", ErrNotFound)
		}
		if !IsRecycleBinPath(file.FilePath) {
			return fmt.Errorf("%w: only items in the recycle bin can be deleted permanently", ErrInvalidState)
		}

		if err := s.remote.DeleteMessages(ctx, []int64{messageID}); err != nil {
			return fmt.Errorf("deleting remote message: %w", err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.index.DeleteFile(ctx, sess.ownerID, messageID); err != nil {
			return fmt.Errorf("deleting local file metadata: %w", err)
		}
		if err := s.index.DeleteMessages(ctx, sess.chatID, []int64{messageID}); err != nil {
			return fmt.Errorf("deleting cached message: %w", err)
		}
		s.logger.Info("file deleted permanently", "message_id", messageID)
		return nil
	}

	source, ok := VirtualToSavedPath(sourcePath)
	if !ok {
		return fmt.Errorf("%w: source %s", ErrInvalidPath, sourcePath)
	}
	if !IsRecycleBinPath(source) {
		return fmt.Errorf("%w: only items in the recycle bin can be deleted permanently", ErrInvalidState)
	}

	parentPath, folderName, ok := SplitParentAndName(source)
	if !ok {
		return fmt.Errorf("%w: source %s", ErrInvalidPath, sourcePath)
	}

	exists, err := s.index.FolderExists(ctx, sess.ownerID, parentPath, folderName)
	if err != nil {
		return fmt.Errorf("checking source folder: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: source folder", ErrNotFound)
	}

	messageIDs, err := s.index.FolderTreeMessageIDs(ctx, sess.ownerID, source)
	if err != nil {
		return fmt.Errorf("collecting folder message ids: %w", err)
	}

	for start := 0; start < len(messageIDs); start += remoteDeleteChunkSize {
		end := start + remoteDeleteChunkSize
		if end > len(messageIDs) {
			end = len(messageIDs)
		}
		if err := s.remote.DeleteMessages(ctx, messageIDs[start:end]); err != nil {
			return fmt.Errorf("deleting remote messages: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.DeleteFolderTree(ctx, sess.ownerID, parentPath, folderName, source); err != nil {
		return fmt.Errorf("deleting local folder metadata: %w", err)
	}
	if err := s.index.DeleteMessages(ctx, sess.chatID, messageIDs); err != nil {
		return fmt.Errorf("deleting cached messages: %w", err)
	}

	s.logger.Info("folder deleted permanently", "path", source, "messages", len(messageIDs))
	return nil
}

// UpdateThumbnail records a resolved thumbnail path on a cached message
// and its saved item.
func (s *Service) UpdateThumbnail(ctx context.Context, messageID int64, thumbnail string) error {
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.SetMessageThumbnail(ctx, sess.chatID, messageID, thumbnail); err != nil {
		return fmt.Errorf("updating message thumbnail: %w", err)
	}
	if err := s.index.SetFileThumbnail(ctx, sess.ownerID, messageID, thumbnail); err != nil {
		return fmt.Errorf("updating item thumbnail: %w", err)
	}
	return nil
}

// UpdateFileSize corrects the stored size of a cached message and its
// saved item, used when the true size only becomes known on download.
func (s *Service) UpdateFileSize(ctx context.Context, messageID int64, size int64) error {
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.SetMessageSize(ctx, sess.chatID, messageID, size); err != nil {
		return fmt.Errorf("updating message size: %w", err)
	}
	if err := s.index.SetFileSize(ctx, sess.ownerID, messageID, size); err != nil {
		return fmt.Errorf("updating item size: %w", err)
	}
	return nil
}
