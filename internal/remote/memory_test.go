package remote

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"tgdrive/internal/drive"
)

func remoteIDs(msgs []drive.RemoteMessage) []int64 {
	ids := make([]int64, 0, len(msgs))
	for _, msg := range msgs {
		ids = append(ids, msg.ID)
	}
	return ids
}

func TestMemoryRemote_SeedMessage(t *testing.T) {
	t.Run("assigns sequential ids from one", func(t *testing.T) {
		rc := NewMemoryRemote(100)

		first := rc.SeedMessage(drive.RemoteMessage{Text: "a"})
		second := rc.SeedMessage(drive.RemoteMessage{Text: "b"})
		if first != 1 || second != 2 {
			t.Errorf("SeedMessage() ids = (%d, %d), want (1, 2)", first, second)
		}
	})

	t.Run("explicit ids advance the allocator", func(t *testing.T) {
		rc := NewMemoryRemote(100)

		id := rc.SeedMessage(drive.RemoteMessage{ID: 10, Text: "a"})
		if id != 10 {
			t.Errorf("SeedMessage() = %d, want 10", id)
		}

		sent, err := rc.SendText(context.Background(), "b")
		if err != nil {
			t.Fatalf("SendText() error = %v", err)
		}
		if sent.ID != 11 {
			t.Errorf("SendText() id = %d, want 11", sent.ID)
		}
	})
}

func TestMemoryRemote_OwnerID(t *testing.T) {
	t.Run("returns the configured owner", func(t *testing.T) {
		rc := NewMemoryRemote(100)

		owner, err := rc.OwnerID(context.Background())
		if err != nil {
			t.Fatalf("OwnerID() error = %v", err)
		}
		if owner != 100 {
			t.Errorf("OwnerID() = %d, want 100", owner)
		}
	})
}

func TestMemoryRemote_Messages(t *testing.T) {
	t.Run("returns newest first below the offset", func(t *testing.T) {
		rc := NewMemoryRemote(100)
		for i := 1; i <= 5; i++ {
			rc.SeedMessage(drive.RemoteMessage{Text: "m"})
		}

		msgs, err := rc.Messages(context.Background(), 0, 10)
		if err != nil {
			t.Fatalf("Messages() error = %v", err)
		}
		if got, want := remoteIDs(msgs), []int64{5, 4, 3, 2, 1}; !reflect.DeepEqual(got, want) {
			t.Errorf("Messages(0) ids = %v, want %v", got, want)
		}

		// The offset id itself is excluded.
		msgs, err = rc.Messages(context.Background(), 4, 10)
		if err != nil {
			t.Fatalf("Messages() error = %v", err)
		}
		if got, want := remoteIDs(msgs), []int64{3, 2, 1}; !reflect.DeepEqual(got, want) {
			t.Errorf("Messages(4) ids = %v, want %v", got, want)
		}
	})

	t.Run("respects the limit", func(t *testing.T) {
		rc := NewMemoryRemote(100)
		for i := 1; i <= 3; i++ {
			rc.SeedMessage(drive.RemoteMessage{Text: "m"})
		}

		msgs, err := rc.Messages(context.Background(), 0, 2)
		if err != nil {
			t.Fatalf("Messages() error = %v", err)
		}
		if got, want := remoteIDs(msgs), []int64{3, 2}; !reflect.DeepEqual(got, want) {
			t.Errorf("Messages() ids = %v, want %v", got, want)
		}
	})

	t.Run("zero limit falls back to the default page", func(t *testing.T) {
		rc := NewMemoryRemote(100)
		for i := 1; i <= 3; i++ {
			rc.SeedMessage(drive.RemoteMessage{Text: "m"})
		}

		msgs, err := rc.Messages(context.Background(), 0, 0)
		if err != nil {
			t.Fatalf("Messages() error = %v", err)
		}
		if len(msgs) != 3 {
			t.Errorf("Messages() returned %d messages, want 3", len(msgs))
		}
	})
}

func TestMemoryRemote_DeleteMessages(t *testing.T) {
	t.Run("removes messages and records the ids", func(t *testing.T) {
		rc := NewMemoryRemote(100)
		rc.SeedMessage(drive.RemoteMessage{Text: "a"})
		rc.SeedMessage(drive.RemoteMessage{Text: "b"})

		// Id 7 does not exist; deletion tolerates it.
		if err := rc.DeleteMessages(context.Background(), []int64{1, 7}); err != nil {
			t.Fatalf("DeleteMessages() error = %v", err)
		}

		if got, want := rc.Deleted(), []int64{1, 7}; !reflect.DeepEqual(got, want) {
			t.Errorf("Deleted() = %v, want %v", got, want)
		}
		if rc.Message(1) != nil {
			t.Error("Message(1) still present after delete")
		}
		if rc.Message(2) == nil {
			t.Error("Message(2) missing, delete removed too much")
		}
	})
}

func TestMemoryRemote_SendFile(t *testing.T) {
	t.Run("stores the upload with a file reference", func(t *testing.T) {
		rc := NewMemoryRemote(100)

		msg, err := rc.SendFile(context.Background(), drive.SendFileRequest{
			Name:     "report.pdf",
			Kind:     drive.MediaKindDocument,
			MimeType: "application/pdf",
			Bytes:    []byte("content"),
		})
		if err != nil {
			t.Fatalf("SendFile() error = %v", err)
		}
		if msg.ID != 1 {
			t.Errorf("ID = %d, want 1", msg.ID)
		}
		if msg.Media == nil {
			t.Fatal("Media is nil")
		}
		if msg.Media.FileName != "report.pdf" {
			t.Errorf("FileName = %q, want report.pdf", msg.Media.FileName)
		}
		if msg.Media.Size != int64(len("content")) {
			t.Errorf("Size = %d, want %d", msg.Media.Size, len("content"))
		}
		if msg.Media.FileReference != "mem:1" {
			t.Errorf("FileReference = %q, want mem:1", msg.Media.FileReference)
		}
	})

	t.Run("photos lose their file name", func(t *testing.T) {
		rc := NewMemoryRemote(100)

		msg, err := rc.SendFile(context.Background(), drive.SendFileRequest{
			Name:  "pic.png",
			Kind:  drive.MediaKindPhoto,
			Bytes: []byte("pixels"),
		})
		if err != nil {
			t.Fatalf("SendFile() error = %v", err)
		}
		if msg.Media.FileName != "" {
			t.Errorf("FileName = %q, want empty for photos", msg.Media.FileName)
		}
	})
}

func TestMemoryRemote_EditText(t *testing.T) {
	t.Run("replaces the text and keeps the date", func(t *testing.T) {
		rc := NewMemoryRemote(100)

		date := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
		id := rc.SeedMessage(drive.RemoteMessage{Date: date, Text: "first"})

		edited, err := rc.EditText(context.Background(), id, "second")
		if err != nil {
			t.Fatalf("EditText() error = %v", err)
		}
		if edited.Text != "second" {
			t.Errorf("Text = %q, want second", edited.Text)
		}
		if !edited.Date.Equal(date) {
			t.Errorf("Date = %v, want %v", edited.Date, date)
		}

		if got := rc.Message(id); got.Text != "second" {
			t.Errorf("stored Text = %q, want second", got.Text)
		}
	})

	t.Run("unknown message fails", func(t *testing.T) {
		rc := NewMemoryRemote(100)

		if _, err := rc.EditText(context.Background(), 99, "text"); err == nil {
			t.Error("EditText() expected error for unknown message")
		}
	})
}

func TestMemoryRemote_SetAuthorized(t *testing.T) {
	t.Run("revokes every operation", func(t *testing.T) {
		rc := NewMemoryRemote(100)
		rc.SetAuthorized(false)
		ctx := context.Background()

		if _, err := rc.OwnerID(ctx); !errors.Is(err, drive.ErrNotAuthorized) {
			t.Errorf("OwnerID() error = %v, want ErrNotAuthorized", err)
		}
		if _, err := rc.Messages(ctx, 0, 10); !errors.Is(err, drive.ErrNotAuthorized) {
			t.Errorf("Messages() error = %v, want ErrNotAuthorized", err)
		}
		if _, err := rc.SendText(ctx, "note"); !errors.Is(err, drive.ErrNotAuthorized) {
			t.Errorf("SendText() error = %v, want ErrNotAuthorized", err)
		}
		if err := rc.DeleteMessages(ctx, []int64{1}); !errors.Is(err, drive.ErrNotAuthorized) {
			t.Errorf("DeleteMessages() error = %v, want ErrNotAuthorized", err)
		}
	})

	t.Run("restores access when re-enabled", func(t *testing.T) {
		rc := NewMemoryRemote(100)
		rc.SetAuthorized(false)
		rc.SetAuthorized(true)

		if _, err := rc.OwnerID(context.Background()); err != nil {
			t.Errorf("OwnerID() error = %v", err)
		}
	})
}
