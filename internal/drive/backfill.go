package drive

import (
	"context"
	"fmt"
	"strconv"
)

// Settings keys scoping backfill bookkeeping to one chat.
func backfillCursorKey(chatID int64) string {
	return fmt.Sprintf("tg_saved_backfill_cursor_%d", chatID)
}

func backfillCompleteKey(chatID int64) string {
	return fmt.Sprintf("tg_saved_backfill_complete_%d", chatID)
}

// clampBatchSize applies the backfill batch bounds. Zero and negative
// sizes fall back to the default.
func clampBatchSize(size int) int {
	if size <= 0 {
		return DefaultBatchSize
	}
	if size > MaxBatchSize {
		return MaxBatchSize
	}
	return size
}

// backfillCursorValue returns the stored cursor, 0 when absent or
// unparseable.
func (s *Service) backfillCursorValue(ctx context.Context, chatID int64) (int64, error) {
	value, ok, err := s.index.GetSetting(ctx, backfillCursorKey(chatID))
	if err != nil {
		return 0, fmt.Errorf("reading backfill cursor: %w", err)
	}
	if !ok {
		return 0, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 0 {
		return 0, nil
	}
	return parsed, nil
}

// backfillStart returns where the next batch should begin: the stored
// cursor when one exists, otherwise the oldest indexed message id.
func (s *Service) backfillStart(ctx context.Context, chatID int64) (int64, error) {
	cursor, err := s.backfillCursorValue(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if cursor > 0 {
		return cursor, nil
	}
	oldest, err := s.index.OldestMessageID(ctx, chatID)
	if err != nil {
		return 0, fmt.Errorf("reading oldest indexed message id: %w", err)
	}
	return oldest, nil
}

// backfillComplete reports whether the stream has been walked to its
// beginning. Only the literal "1" counts.
func (s *Service) backfillComplete(ctx context.Context, chatID int64) (bool, error) {
	value, _, err := s.index.GetSetting(ctx, backfillCompleteKey(chatID))
	if err != nil {
		return false, fmt.Errorf("reading backfill state: %w", err)
	}
	return value == "1", nil
}

// IndexSummary reports one tail-indexing run.
type IndexSummary struct {
	NewMessages  int
	Categories   map[string]int
	StartedEmpty bool
	Hydrated     int
}

// IndexMessages scans the remote stream newest first and caches messages
// until it reaches the last id already indexed. On an empty cache this
// is the initial full scan, which also seeds the backfill cursor and
// marks the stream complete.
func (s *Service) IndexMessages(ctx context.Context) (*IndexSummary, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	lastID, err := s.index.LastMessageID(ctx, sess.chatID)
	if err != nil {
		return nil, fmt.Errorf("reading last indexed message id: %w", err)
	}

	hydrated, err := s.hydrateFromCache(ctx, sess)
	if err != nil {
		return nil, err
	}

	s.logger.Info("indexing saved messages", "chat_id", sess.chatID, "from_id", lastID)

	startedEmpty := lastID == 0
	summary := &IndexSummary{
		Categories:   map[string]int{},
		StartedEmpty: startedEmpty,
		Hydrated:     hydrated,
	}

	var minIndexedID int64
	var offsetID int64
	for {
		page, err := s.remote.Messages(ctx, offsetID, tailScanPageSize)
		if err != nil {
			return nil, fmt.Errorf("fetching saved messages: %w", err)
		}
		if len(page) == 0 {
			break
		}

		stop, err := s.indexPage(ctx, sess, page, lastID, startedEmpty, summary, &minIndexedID)
		if err != nil {
			return nil, err
		}
		if stop || len(page) < tailScanPageSize {
			break
		}
		offsetID = page[len(page)-1].ID
	}

	if startedEmpty {
		if err := s.index.SetSetting(ctx, backfillCompleteKey(sess.chatID), "1"); err != nil {
			return nil, fmt.Errorf("recording backfill completion: %w", err)
		}
		if minIndexedID > 0 {
			if err := s.index.SetSetting(ctx, backfillCursorKey(sess.chatID), strconv.FormatInt(minIndexedID, 10)); err != nil {
				return nil, fmt.Errorf("recording backfill cursor: %w", err)
			}
		}
	}

	s.logger.Info("indexing finished", "new_messages", summary.NewMessages, "started_empty", startedEmpty)
	return summary, nil
}

// indexPage caches one page of remote messages under the mutation lock.
// It reports stop when the scan reaches the last previously indexed id.
func (s *Service) indexPage(ctx context.Context, sess *session, page []RemoteMessage, lastID int64, startedEmpty bool, summary *IndexSummary, minIndexedID *int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range page {
		msg := &page[i]
		if !startedEmpty && msg.ID <= lastID {
			return true, nil
		}

		record := categorizeMessage(msg, sess.chatID)
		if record == nil {
			continue
		}
		if err := s.index.SaveMessage(ctx, record); err != nil {
			return false, fmt.Errorf("caching message %d: %w", record.MessageID, err)
		}
		if err := s.index.UpsertSavedItem(ctx, deriveSavedItem(record, sess.ownerID, "", "", s.idgen)); err != nil {
			return false, fmt.Errorf("saving item metadata for message %d: %w", record.MessageID, err)
		}

		summary.NewMessages++
		summary.Categories[record.Category]++
		if *minIndexedID == 0 || record.MessageID < *minIndexedID {
			*minIndexedID = record.MessageID
		}
	}
	return false, nil
}

// hydrateFromCache re-derives saved items from cached messages when the
// item table looks stale: fewer file rows than cached messages, rows
// with blank names, or generated names that lost their extension. It
// returns the number of items rebuilt.
func (s *Service) hydrateFromCache(ctx context.Context, sess *session) (int, error) {
	cached, err := s.index.CountMessages(ctx, sess.chatID)
	if err != nil {
		return 0, fmt.Errorf("counting cached messages: %w", err)
	}
	if cached == 0 {
		return 0, nil
	}

	items, err := s.index.CountNonFolderItems(ctx, sess.ownerID)
	if err != nil {
		return 0, fmt.Errorf("counting saved items: %w", err)
	}
	unnamed, err := s.index.CountItemsWithEmptyName(ctx, sess.ownerID)
	if err != nil {
		return 0, fmt.Errorf("counting unnamed items: %w", err)
	}
	missingExt, err := s.index.CountGeneratedNamesMissingExtension(ctx, sess.ownerID)
	if err != nil {
		return 0, fmt.Errorf("counting generated names without extension: %w", err)
	}

	if items >= cached && unnamed == 0 && missingExt == 0 {
		return 0, nil
	}

	s.logger.Info("hydrating saved items from message cache",
		"cached", cached, "items", items, "unnamed", unnamed, "missing_extension", missingExt)

	messages, err := s.index.AllMessages(ctx, sess.chatID)
	if err != nil {
		return 0, fmt.Errorf("reading cached messages: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range messages {
		if err := s.index.UpsertSavedItem(ctx, deriveSavedItem(&messages[i], sess.ownerID, "", "", s.idgen)); err != nil {
			return 0, fmt.Errorf("rebuilding item for message %d: %w", messages[i].MessageID, err)
		}
	}

	oldest, err := s.index.OldestMessageID(ctx, sess.chatID)
	if err != nil {
		return 0, fmt.Errorf("reading oldest cached message id: %w", err)
	}
	if oldest > 0 {
		if err := s.index.SetSetting(ctx, backfillCursorKey(sess.chatID), strconv.FormatInt(oldest, 10)); err != nil {
			return 0, fmt.Errorf("recording backfill cursor: %w", err)
		}
		if err := s.index.SetSetting(ctx, backfillCompleteKey(sess.chatID), "0"); err != nil {
			return 0, fmt.Errorf("recording backfill completion: %w", err)
		}
	}

	return len(messages), nil
}

// BackfillResult reports one backfill batch.
type BackfillResult struct {
	Fetched      int
	Indexed      int
	HasMore      bool
	IsComplete   bool
	NextOffsetID int64 // 0 when unknown
}

// BackfillBatch fetches one batch of history older than the cursor and
// indexes it. A batch that comes back shorter than requested is the only
// signal that the stream has been walked to its beginning.
func (s *Service) BackfillBatch(ctx context.Context, batchSize int) (*BackfillResult, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	limit := clampBatchSize(batchSize)

	complete, err := s.backfillComplete(ctx, sess.chatID)
	if err != nil {
		return nil, err
	}
	if complete {
		return &BackfillResult{IsComplete: true}, nil
	}

	cursor, err := s.backfillStart(ctx, sess.chatID)
	if err != nil {
		return nil, err
	}

	page, err := s.remote.Messages(ctx, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching saved messages: %w", err)
	}

	result := &BackfillResult{Fetched: len(page)}
	minMessageID := cursor

	s.mu.Lock()
	for i := range page {
		msg := &page[i]
		if minMessageID == 0 || msg.ID < minMessageID {
			minMessageID = msg.ID
		}

		record := categorizeMessage(msg, sess.chatID)
		if record == nil {
			continue
		}
		if err := s.index.SaveMessage(ctx, record); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("caching message %d: %w", record.MessageID, err)
		}
		if err := s.index.UpsertSavedItem(ctx, deriveSavedItem(record, sess.ownerID, "", "", s.idgen)); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("saving item metadata for message %d: %w", record.MessageID, err)
		}
		result.Indexed++
	}
	s.mu.Unlock()

	if result.Fetched > 0 && minMessageID > 0 {
		if err := s.index.SetSetting(ctx, backfillCursorKey(sess.chatID), strconv.FormatInt(minMessageID, 10)); err != nil {
			return nil, fmt.Errorf("recording backfill cursor: %w", err)
		}
	}

	result.HasMore = result.Fetched == limit
	result.IsComplete = !result.HasMore
	completeValue := "1"
	if result.HasMore {
		completeValue = "0"
	}
	if err := s.index.SetSetting(ctx, backfillCompleteKey(sess.chatID), completeValue); err != nil {
		return nil, fmt.Errorf("recording backfill completion: %w", err)
	}
	if minMessageID > 0 {
		result.NextOffsetID = minMessageID
	}

	s.logger.Info("backfill batch finished",
		"fetched", result.Fetched, "indexed", result.Indexed, "has_more", result.HasMore)
	return result, nil
}

// RebuildResult reports a forced hydration sweep.
type RebuildResult struct {
	Upserted        int
	OldestMessageID int64
}

// RebuildIndex re-derives every saved item from the message cache when
// the staleness counters say the item table is behind, then rewinds the
// backfill cursor to the oldest cached id.
func (s *Service) RebuildIndex(ctx context.Context) (*RebuildResult, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	upserted, err := s.hydrateFromCache(ctx, sess)
	if err != nil {
		return nil, err
	}

	oldest, err := s.index.OldestMessageID(ctx, sess.chatID)
	if err != nil {
		return nil, fmt.Errorf("reading oldest cached message id: %w", err)
	}
	return &RebuildResult{Upserted: upserted, OldestMessageID: oldest}, nil
}
