package drive

import (
	"context"
	"fmt"
	"strings"

	"tgdrive/internal/model"
)

// Upload sends a local file to saved messages and indexes the result.
// The stored name keeps the original stem but gains a random token so
// repeated uploads of the same file never collide. An empty
// destinationPath files the upload under its category folder.
func (s *Service) Upload(ctx context.Context, fileName string, content []byte, destinationPath string) (*model.TelegramMessage, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("cannot upload an empty file")
	}

	uploadName, uploadExtension := buildUploadFileName(fileName, s.idgen.New())
	kind := uploadMediaKindForExtension(uploadExtension)
	mimeType := mimeTypeFromExtension(uploadExtension)

	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	sent, err := s.remote.SendFile(ctx, SendFileRequest{
		Name:     uploadName,
		Kind:     kind,
		MimeType: mimeType,
		Bytes:    content,
	})
	if err != nil {
		return nil, fmt.Errorf("uploading file: %w", err)
	}

	record := categorizeMessage(sent, sess.chatID)
	if record == nil {
		// The provider echoed a message we cannot classify. Record it
		// from what was sent so the upload is still visible locally.
		extension := extensionFromName(uploadName)
		classification := classifyExtension(extension)
		record = &model.TelegramMessage{
			MessageID:     sent.ID,
			ChatID:        sess.chatID,
			Category:      classification.Category,
			Filename:      uploadName,
			Extension:     extension,
			Timestamp:     sent.Date,
			Size:          int64(len(content)),
			Text:          sent.Text,
			FileReference: fmt.Sprintf("upload:%d:%d", sess.chatID, sent.ID),
		}
	}

	// The upload name wins over whatever the provider derived, so the
	// indexed item matches what the user will see in the stream.
	classification := classifyExtension(uploadExtension)
	record.Category = classification.Category
	record.Filename = uploadName
	record.Extension = uploadExtension
	if record.MimeType == "" {
		record.MimeType = mimeType
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.SaveMessage(ctx, record); err != nil {
		return nil, fmt.Errorf("caching uploaded message: %w", err)
	}
	if err := s.index.UpsertSavedItem(ctx, deriveSavedItem(record, sess.ownerID, destinationPath, uploadName, s.idgen)); err != nil {
		return nil, fmt.Errorf("saving uploaded item metadata: %w", err)
	}

	s.logger.Info("file uploaded", "message_id", record.MessageID, "name", uploadName)
	return record, nil
}

// SaveNote posts a text note to saved messages and indexes it under the
// Notes folder.
func (s *Service) SaveNote(ctx context.Context, text string) (*model.TelegramMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("note text cannot be empty")
	}

	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	sent, err := s.remote.SendText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("sending note: %w", err)
	}

	record := categorizeMessage(sent, sess.chatID)
	if record == nil {
		return nil, fmt.Errorf("sent note came back without text")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.SaveMessage(ctx, record); err != nil {
		return nil, fmt.Errorf("caching note message: %w", err)
	}
	if err := s.index.UpsertSavedItem(ctx, deriveSavedItem(record, sess.ownerID, "", "", s.idgen)); err != nil {
		return nil, fmt.Errorf("saving note item metadata: %w", err)
	}

	s.logger.Info("note saved", "message_id", record.MessageID)
	return record, nil
}

// EditNote replaces the text of an existing note and re-indexes it. The
// note's current location and display name survive the edit.
func (s *Service) EditNote(ctx context.Context, messageID int64, text string) (*model.TelegramMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("note text cannot be empty")
	}

	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.index.GetMessage(ctx, sess.chatID, messageID)
	if err != nil {
		return nil, fmt.Errorf("reading note message: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: note message", ErrNotFound)
	}

	item, err := s.index.SavedFileByMessageID(ctx, sess.ownerID, messageID)
	if err != nil {
		return nil, fmt.Errorf("reading note item metadata: %w", err)
	}

	edited, err := s.remote.EditText(ctx, messageID, text)
	if err != nil {
		return nil, fmt.Errorf("editing note: %w", err)
	}

	record := categorizeMessage(edited, sess.chatID)
	if record == nil {
		return nil, fmt.Errorf("edited note came back without text")
	}

	preferredPath, fallbackName := "", ""
	if item != nil {
		preferredPath = item.FilePath
		fallbackName = item.FileName
	}
	derived := deriveSavedItem(record, sess.ownerID, preferredPath, fallbackName, s.idgen)
	if item != nil {
		derived.RecycleOriginPath = item.RecycleOriginPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.SaveMessage(ctx, record); err != nil {
		return nil, fmt.Errorf("caching note message: %w", err)
	}
	if err := s.index.UpsertSavedItem(ctx, derived); err != nil {
		return nil, fmt.Errorf("saving note item metadata: %w", err)
	}

	s.logger.Info("note edited", "message_id", record.MessageID)
	return record, nil
}
