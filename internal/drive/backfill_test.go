package drive_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tgdrive/internal/drive"
	"tgdrive/internal/testutil"
)

func TestService_IndexMessages(t *testing.T) {
	t.Run("initial scan indexes the whole stream", func(t *testing.T) {
		svc, _, rc := newTestService(t)
		ctx := context.Background()

		seedPhoto(rc, 1, "sunset")
		seedDocument(rc, 2, "report.pdf", "application/pdf")
		seedText(rc, 3, "remember the milk")

		summary, err := svc.IndexMessages(ctx)
		if err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}
		if summary.NewMessages != 3 {
			t.Errorf("NewMessages = %d, want 3", summary.NewMessages)
		}
		if !summary.StartedEmpty {
			t.Error("StartedEmpty = false, want true")
		}
		if summary.Hydrated != 0 {
			t.Errorf("Hydrated = %d, want 0", summary.Hydrated)
		}
		for category, want := range map[string]int{"Images": 1, "Documents": 1, "Notes": 1} {
			if got := summary.Categories[category]; got != want {
				t.Errorf("Categories[%s] = %d, want %d", category, got, want)
			}
		}

		// The initial scan walked everything, so the history is complete
		// and the cursor sits at the oldest id.
		status, err := svc.GetStatus(ctx)
		if err != nil {
			t.Fatalf("GetStatus() error = %v", err)
		}
		if !status.BackfillComplete {
			t.Error("BackfillComplete = false, want true")
		}
		if status.BackfillCursor != 1 {
			t.Errorf("BackfillCursor = %d, want 1", status.BackfillCursor)
		}

		images, err := svc.List(ctx, "/Home/Images")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if names := itemNames(images); len(names) != 1 || names[0] != "photo_1.jpg" {
			t.Errorf("Images listing = %v, want [photo_1.jpg]", names)
		}
	})

	t.Run("rescan picks up only newer messages", func(t *testing.T) {
		svc, _, rc := newTestService(t)
		ctx := context.Background()

		seedText(rc, 1, "old")
		seedText(rc, 2, "older")
		if _, err := svc.IndexMessages(ctx); err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}

		seedText(rc, 3, "new")
		seedDocument(rc, 4, "fresh.pdf", "application/pdf")

		summary, err := svc.IndexMessages(ctx)
		if err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}
		if summary.NewMessages != 2 {
			t.Errorf("NewMessages = %d, want 2", summary.NewMessages)
		}
		if summary.StartedEmpty {
			t.Error("StartedEmpty = true, want false")
		}

		status, err := svc.GetStatus(ctx)
		if err != nil {
			t.Fatalf("GetStatus() error = %v", err)
		}
		if status.CachedMessages != 4 {
			t.Errorf("CachedMessages = %d, want 4", status.CachedMessages)
		}
	})

	t.Run("rescan with nothing new is a no-op", func(t *testing.T) {
		svc, _, rc := newTestService(t)
		ctx := context.Background()

		seedText(rc, 1, "only")
		if _, err := svc.IndexMessages(ctx); err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}

		summary, err := svc.IndexMessages(ctx)
		if err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}
		if summary.NewMessages != 0 {
			t.Errorf("NewMessages = %d, want 0", summary.NewMessages)
		}
	})

	t.Run("messages without media or text are skipped", func(t *testing.T) {
		svc, _, rc := newTestService(t)
		ctx := context.Background()

		rc.SeedMessage(drive.RemoteMessage{ID: 1, Date: seedDate(1)})
		seedText(rc, 2, "kept")

		summary, err := svc.IndexMessages(ctx)
		if err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}
		if summary.NewMessages != 1 {
			t.Errorf("NewMessages = %d, want 1", summary.NewMessages)
		}
	})

	t.Run("pages through streams longer than one fetch", func(t *testing.T) {
		svc, _, rc := newTestService(t)
		ctx := context.Background()

		for id := int64(1); id <= 250; id++ {
			seedText(rc, id, fmt.Sprintf("note %d", id))
		}

		summary, err := svc.IndexMessages(ctx)
		if err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}
		if summary.NewMessages != 250 {
			t.Errorf("NewMessages = %d, want 250", summary.NewMessages)
		}

		status, err := svc.GetStatus(ctx)
		if err != nil {
			t.Fatalf("GetStatus() error = %v", err)
		}
		if status.CachedMessages != 250 {
			t.Errorf("CachedMessages = %d, want 250", status.CachedMessages)
		}
		if status.BackfillCursor != 1 {
			t.Errorf("BackfillCursor = %d, want 1", status.BackfillCursor)
		}
	})

	t.Run("rebuilds items lost from the item table", func(t *testing.T) {
		svc, idx, rc := newTestService(t)
		ctx := context.Background()

		seedText(rc, 1, "first")
		seedText(rc, 2, "second")
		seedText(rc, 3, "third")
		if _, err := svc.IndexMessages(ctx); err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}

		// Drop one item row so the table falls behind the message cache.
		if err := idx.DeleteFile(ctx, testOwnerID, 2); err != nil {
			t.Fatalf("DeleteFile() error = %v", err)
		}

		summary, err := svc.IndexMessages(ctx)
		if err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}
		if summary.Hydrated != 3 {
			t.Errorf("Hydrated = %d, want 3", summary.Hydrated)
		}

		restored, err := idx.SavedFileByMessageID(ctx, testOwnerID, 2)
		if err != nil {
			t.Fatalf("SavedFileByMessageID() error = %v", err)
		}
		if restored == nil {
			t.Fatal("item for message 2 was not rebuilt")
		}
		if restored.FileName != "note_2.txt" {
			t.Errorf("FileName = %q, want %q", restored.FileName, "note_2.txt")
		}

		// Hydration rewinds the cursor and reopens the backfill.
		status, err := svc.GetStatus(ctx)
		if err != nil {
			t.Fatalf("GetStatus() error = %v", err)
		}
		if status.BackfillComplete {
			t.Error("BackfillComplete = true, want false after hydration")
		}
		if status.BackfillCursor != 1 {
			t.Errorf("BackfillCursor = %d, want 1", status.BackfillCursor)
		}
	})

	t.Run("rebuilds items whose names were blanked", func(t *testing.T) {
		svc, idx, rc := newTestService(t)
		ctx := context.Background()

		seedText(rc, 1, "first")
		seedText(rc, 2, "second")
		if _, err := svc.IndexMessages(ctx); err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}

		if err := idx.RenameFile(ctx, testOwnerID, 1, "", seedDate(1)); err != nil {
			t.Fatalf("RenameFile() error = %v", err)
		}

		summary, err := svc.IndexMessages(ctx)
		if err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}
		if summary.Hydrated != 2 {
			t.Errorf("Hydrated = %d, want 2", summary.Hydrated)
		}

		item, err := idx.SavedFileByMessageID(ctx, testOwnerID, 1)
		if err != nil {
			t.Fatalf("SavedFileByMessageID() error = %v", err)
		}
		if item == nil || item.FileName != "note_1.txt" {
			t.Errorf("item = %+v, want FileName note_1.txt", item)
		}
	})

	t.Run("fails when the session is rejected", func(t *testing.T) {
		svc, _, rc := newTestService(t)
		rc.SetAuthorized(false)

		_, err := svc.IndexMessages(context.Background())
		if !errors.Is(err, drive.ErrNotAuthorized) {
			t.Errorf("IndexMessages() error = %v, want ErrNotAuthorized", err)
		}
	})
}

func TestService_BackfillBatch(t *testing.T) {
	t.Run("walks the history in batches until exhausted", func(t *testing.T) {
		svc, _, rc := newTestService(t)
		ctx := context.Background()

		for id := int64(1); id <= 10; id++ {
			seedText(rc, id, fmt.Sprintf("note %d", id))
		}

		// First batch starts from the newest message.
		first, err := svc.BackfillBatch(ctx, 3)
		if err != nil {
			t.Fatalf("BackfillBatch() error = %v", err)
		}
		if first.Fetched != 3 || first.Indexed != 3 {
			t.Errorf("first batch = %d fetched / %d indexed, want 3/3", first.Fetched, first.Indexed)
		}
		if !first.HasMore {
			t.Error("first batch HasMore = false, want true")
		}
		if first.NextOffsetID != 8 {
			t.Errorf("first batch NextOffsetID = %d, want 8", first.NextOffsetID)
		}

		second, err := svc.BackfillBatch(ctx, 3)
		if err != nil {
			t.Fatalf("BackfillBatch() error = %v", err)
		}
		if second.NextOffsetID != 5 {
			t.Errorf("second batch NextOffsetID = %d, want 5", second.NextOffsetID)
		}

		third, err := svc.BackfillBatch(ctx, 3)
		if err != nil {
			t.Fatalf("BackfillBatch() error = %v", err)
		}
		if third.NextOffsetID != 2 {
			t.Errorf("third batch NextOffsetID = %d, want 2", third.NextOffsetID)
		}

		// The short batch is the end-of-history signal.
		last, err := svc.BackfillBatch(ctx, 3)
		if err != nil {
			t.Fatalf("BackfillBatch() error = %v", err)
		}
		if last.Fetched != 1 {
			t.Errorf("last batch Fetched = %d, want 1", last.Fetched)
		}
		if last.HasMore {
			t.Error("last batch HasMore = true, want false")
		}
		if !last.IsComplete {
			t.Error("last batch IsComplete = false, want true")
		}

		status, err := svc.GetStatus(ctx)
		if err != nil {
			t.Fatalf("GetStatus() error = %v", err)
		}
		if status.CachedMessages != 10 {
			t.Errorf("CachedMessages = %d, want 10", status.CachedMessages)
		}
		if !status.BackfillComplete {
			t.Error("BackfillComplete = false, want true")
		}
		if status.BackfillCursor != 1 {
			t.Errorf("BackfillCursor = %d, want 1", status.BackfillCursor)
		}
	})

	t.Run("completed history short-circuits", func(t *testing.T) {
		svc, _, rc := newTestService(t)
		ctx := context.Background()

		seedText(rc, 1, "only")
		if _, err := svc.IndexMessages(ctx); err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}

		result, err := svc.BackfillBatch(ctx, 50)
		if err != nil {
			t.Fatalf("BackfillBatch() error = %v", err)
		}
		if !result.IsComplete {
			t.Error("IsComplete = false, want true")
		}
		if result.Fetched != 0 {
			t.Errorf("Fetched = %d, want 0", result.Fetched)
		}
	})

	t.Run("resumes from the stored cursor", func(t *testing.T) {
		svc, idx, rc := newTestService(t)
		ctx := context.Background()

		for id := int64(1); id <= 9; id++ {
			seedText(rc, id, fmt.Sprintf("note %d", id))
		}

		if _, err := svc.BackfillBatch(ctx, 3); err != nil {
			t.Fatalf("BackfillBatch() error = %v", err)
		}

		// A fresh service over the same index continues where the last
		// one stopped.
		resumed := drive.NewService(idx, rc, drive.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())
		result, err := resumed.BackfillBatch(ctx, 3)
		if err != nil {
			t.Fatalf("BackfillBatch() error = %v", err)
		}
		if result.NextOffsetID != 4 {
			t.Errorf("NextOffsetID = %d, want 4", result.NextOffsetID)
		}
	})

	t.Run("counts skipped messages as fetched but not indexed", func(t *testing.T) {
		svc, _, rc := newTestService(t)
		ctx := context.Background()

		seedText(rc, 1, "kept")
		rc.SeedMessage(drive.RemoteMessage{ID: 2, Date: seedDate(2)})
		seedDocument(rc, 3, "kept.pdf", "application/pdf")

		result, err := svc.BackfillBatch(ctx, 50)
		if err != nil {
			t.Fatalf("BackfillBatch() error = %v", err)
		}
		if result.Fetched != 3 {
			t.Errorf("Fetched = %d, want 3", result.Fetched)
		}
		if result.Indexed != 2 {
			t.Errorf("Indexed = %d, want 2", result.Indexed)
		}
	})

	t.Run("zero batch size falls back to the default", func(t *testing.T) {
		svc, _, rc := newTestService(t)
		ctx := context.Background()

		for id := int64(1); id <= 60; id++ {
			seedText(rc, id, fmt.Sprintf("note %d", id))
		}

		result, err := svc.BackfillBatch(ctx, 0)
		if err != nil {
			t.Fatalf("BackfillBatch() error = %v", err)
		}
		if result.Fetched != drive.DefaultBatchSize {
			t.Errorf("Fetched = %d, want %d", result.Fetched, drive.DefaultBatchSize)
		}
		if !result.HasMore {
			t.Error("HasMore = false, want true")
		}
	})

	t.Run("oversized batch size is capped", func(t *testing.T) {
		svc, _, rc := newTestService(t)
		ctx := context.Background()

		for id := int64(1); id <= 210; id++ {
			seedText(rc, id, fmt.Sprintf("note %d", id))
		}

		result, err := svc.BackfillBatch(ctx, 5000)
		if err != nil {
			t.Fatalf("BackfillBatch() error = %v", err)
		}
		if result.Fetched != drive.MaxBatchSize {
			t.Errorf("Fetched = %d, want %d", result.Fetched, drive.MaxBatchSize)
		}
	})
}

func TestService_RebuildIndex(t *testing.T) {
	t.Run("re-derives items from the message cache", func(t *testing.T) {
		svc, idx, rc := newTestService(t)
		ctx := context.Background()

		seedText(rc, 1, "first")
		seedDocument(rc, 2, "report.pdf", "application/pdf")
		seedText(rc, 3, "third")
		if _, err := svc.IndexMessages(ctx); err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}

		if err := idx.DeleteFile(ctx, testOwnerID, 1); err != nil {
			t.Fatalf("DeleteFile() error = %v", err)
		}

		result, err := svc.RebuildIndex(ctx)
		if err != nil {
			t.Fatalf("RebuildIndex() error = %v", err)
		}
		if result.Upserted != 3 {
			t.Errorf("Upserted = %d, want 3", result.Upserted)
		}
		if result.OldestMessageID != 1 {
			t.Errorf("OldestMessageID = %d, want 1", result.OldestMessageID)
		}

		restored, err := idx.SavedFileByMessageID(ctx, testOwnerID, 1)
		if err != nil {
			t.Fatalf("SavedFileByMessageID() error = %v", err)
		}
		if restored == nil {
			t.Fatal("item for message 1 was not rebuilt")
		}
	})

	t.Run("leaves a current item table alone", func(t *testing.T) {
		svc, _, rc := newTestService(t)
		ctx := context.Background()

		seedText(rc, 1, "only")
		if _, err := svc.IndexMessages(ctx); err != nil {
			t.Fatalf("IndexMessages() error = %v", err)
		}

		result, err := svc.RebuildIndex(ctx)
		if err != nil {
			t.Fatalf("RebuildIndex() error = %v", err)
		}
		if result.Upserted != 0 {
			t.Errorf("Upserted = %d, want 0", result.Upserted)
		}
	})
}
