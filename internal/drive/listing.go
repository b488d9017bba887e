package drive

import (
	"context"
	"fmt"

	"tgdrive/internal/model"
)

// List returns the direct children of a folder, folders first in name
// order, then files newest first.
func (s *Service) List(ctx context.Context, path string) ([]model.SavedItem, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeSavedPath(path)
	items, err := s.index.SavedItemsByPath(ctx, sess.ownerID, normalized)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", normalized, err)
	}
	return items, nil
}

// Page is one window of a folder listing.
type Page struct {
	Items      []model.SavedItem
	HasMore    bool
	NextOffset int64
}

// ListPage returns one pagination window of a folder listing. Offsets
// clamp to zero and limits to [1, MaxBatchSize]; one extra row is
// fetched to decide HasMore without a count query.
func (s *Service) ListPage(ctx context.Context, path string, offset, limit int64) (*Page, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeSavedPath(path)
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxBatchSize {
		limit = MaxBatchSize
	}

	items, err := s.index.SavedItemsByPathPage(ctx, sess.ownerID, normalized, offset, limit+1)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", normalized, err)
	}

	hasMore := int64(len(items)) > limit
	if hasMore {
		items = items[:limit]
	}

	return &Page{
		Items:      items,
		HasMore:    hasMore,
		NextOffset: offset + int64(len(items)),
	}, nil
}

// MessagesByCategory returns the cached messages of one category, newest
// first by remote timestamp.
func (s *Service) MessagesByCategory(ctx context.Context, category string) ([]model.TelegramMessage, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	messages, err := s.index.MessagesByCategory(ctx, sess.chatID, category)
	if err != nil {
		return nil, fmt.Errorf("listing %s messages: %w", category, err)
	}
	return messages, nil
}
