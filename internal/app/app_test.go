package app

import (
	"context"
	"strings"
	"testing"

	"tgdrive/internal/config"
	"tgdrive/internal/secret"
)

// newTestConfig returns a config wired entirely to in-memory backends,
// with base and log dirs under a temp dir.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig(t.TempDir())
	cfg.Index.Type = "memory"
	cfg.Remote = config.RemoteConfig{Type: "memory", ChatID: 42}
	return cfg
}

func newTestApp(t *testing.T) *DriveApp {
	t.Helper()
	a, err := NewDriveApp(newTestConfig(t), "Test", "")
	if err != nil {
		t.Fatalf("NewDriveApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestRemoteNeedsToken(t *testing.T) {
	tests := []struct {
		remoteType string
		want       bool
	}{
		{"bridge", true},
		{"bot", true},
		{"memory", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := RemoteNeedsToken(tt.remoteType); got != tt.want {
			t.Errorf("RemoteNeedsToken(%q) = %v, want %v", tt.remoteType, got, tt.want)
		}
	}
}

func TestNewDriveApp(t *testing.T) {
	t.Run("wires a memory backend", func(t *testing.T) {
		a := newTestApp(t)

		status, err := a.Status(context.Background())
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if status.OwnerID != "42" {
			t.Errorf("OwnerID = %q, want %q", status.OwnerID, "42")
		}
		if status.CachedMessages != 0 {
			t.Errorf("CachedMessages = %d, want 0", status.CachedMessages)
		}
		if status.SavedItems != 0 {
			t.Errorf("SavedItems = %d, want 0", status.SavedItems)
		}
		if status.BackfillComplete {
			t.Error("BackfillComplete = true on a fresh index, want false")
		}
	})

	t.Run("fails when a bridge remote has no stored token", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Remote = config.RemoteConfig{Type: "bridge", BridgeURL: "http://127.0.0.1:8484"}

		_, err := NewDriveApp(cfg, "Test", "")
		if err == nil {
			t.Fatal("NewDriveApp() expected error for missing token, got nil")
		}
		if !strings.Contains(err.Error(), "no api token stored") {
			t.Errorf("error = %v, want mention of missing token", err)
		}
	})

	t.Run("unseals a stored token for the bridge remote", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Remote = config.RemoteConfig{Type: "bridge", BridgeURL: "http://127.0.0.1:8484"}
		cfg.Auth = config.AuthConfig{Type: "plain", TokenPath: cfg.Auth.TokenPath}

		store, err := secret.NewStoreFromConfig(cfg.Auth)
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		if err := store.Seal("bridge-token", ""); err != nil {
			t.Fatalf("Seal() error = %v", err)
		}

		a, err := NewDriveApp(cfg, "Test", "")
		if err != nil {
			t.Fatalf("NewDriveApp() error = %v", err)
		}
		a.Close()
	})
}

func TestDriveApp_List_ReservedFolders(t *testing.T) {
	a := newTestApp(t)

	// tg://saved resolves to the tree root.
	items, err := a.List(context.Background(), "tg://saved")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"Audios", "Documents", "Images", "Notes", "Recycle Bin", "Videos"}
	if len(items) != len(want) {
		t.Fatalf("List() returned %d items, want %d", len(items), len(want))
	}
	for i, name := range want {
		if items[i].FileName != name {
			t.Errorf("items[%d].FileName = %q, want %q", i, items[i].FileName, name)
		}
		if items[i].FileType != "folder" {
			t.Errorf("items[%d].FileType = %q, want folder", i, items[i].FileType)
		}
	}
}

func TestDriveApp_SaveNote(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	note, err := a.SaveNote(ctx, "remember the milk")
	if err != nil {
		t.Fatalf("SaveNote() error = %v", err)
	}
	if note.MessageID != 1 {
		t.Errorf("MessageID = %d, want 1", note.MessageID)
	}

	items, err := a.List(ctx, "/Home/Notes")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("List(/Home/Notes) returned %d items, want 1", len(items))
	}
	if items[0].FileName != "note_1.txt" {
		t.Errorf("FileName = %q, want note_1.txt", items[0].FileName)
	}

	status, err := a.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.CachedMessages != 1 {
		t.Errorf("CachedMessages = %d, want 1", status.CachedMessages)
	}
	if status.SavedItems != 1 {
		t.Errorf("SavedItems = %d, want 1", status.SavedItems)
	}
}

func TestDriveApp_CreateFolder_ResolvesBareNames(t *testing.T) {
	a := newTestApp(t)

	folder, err := a.CreateFolder(context.Background(), "Trips")
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if folder.FilePath != "/Home" {
		t.Errorf("FilePath = %q, want /Home", folder.FilePath)
	}
	if folder.FileName != "Trips" {
		t.Errorf("FileName = %q, want Trips", folder.FileName)
	}
}
