package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"tgdrive/internal/app"
	"tgdrive/internal/config"
	"tgdrive/internal/model"
	"tgdrive/internal/secret"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	// A .env file can supply TGDRIVE_* variables during development.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a DriveApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Sync", "Upload").
func newApp(operation string) (*app.DriveApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	passphrase, err := resolvePassphrase(cfg)
	if err != nil {
		return nil, err
	}

	a, err := app.NewDriveApp(cfg, operation, passphrase)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// resolvePassphrase finds the token passphrase for backends that need
// one: the TGDRIVE_PASSPHRASE variable first, then a terminal prompt.
func resolvePassphrase(cfg *config.Config) (string, error) {
	if !app.RemoteNeedsToken(cfg.Remote.Type) || cfg.Auth.Type == "plain" {
		return "", nil
	}
	if pw := os.Getenv("TGDRIVE_PASSPHRASE"); pw != "" {
		return pw, nil
	}
	pw, err := promptSecret("Passphrase: ")
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return pw, nil
}

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// promptSecret reads a line from the terminal without echo.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	data, err := readPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

var rootCmd = &cobra.Command{
	Use:   "tgdrive",
	Short: "Saved messages as a file tree",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Index:    %s\n", cfg.Index.Type)
		fmt.Printf("Remote:   %s\n", cfg.Remote.Type)
		fmt.Printf("Auth:     %s\n", cfg.Auth.Type)
		return nil
	},
}

// auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the remote API token",
}

var authSetTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Store the remote API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		store, err := secret.NewStoreFromConfig(cfg.Auth)
		if err != nil {
			return fmt.Errorf("creating token store: %w", err)
		}

		token, err := promptSecret("API token: ")
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}
		if token == "" {
			return fmt.Errorf("token cannot be empty")
		}

		passphrase := ""
		if cfg.Auth.Type != "plain" {
			passphrase, err = promptSecret("Passphrase: ")
			if err != nil {
				return fmt.Errorf("reading passphrase: %w", err)
			}
		}

		if err := store.Seal(token, passphrase); err != nil {
			return fmt.Errorf("storing token: %w", err)
		}

		fmt.Printf("Token stored at %s\n", cfg.Auth.TokenPath)
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index new saved messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Sync(cmd.Context())
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		fmt.Printf("Indexed %d new message(s)\n", summary.NewMessages)

		categories := make([]string, 0, len(summary.Categories))
		for category := range summary.Categories {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Printf("  %-10s %d\n", category, summary.Categories[category])
		}

		if summary.Hydrated > 0 {
			fmt.Printf("Rebuilt %d item(s) from the cache\n", summary.Hydrated)
		}
		return nil
	},
}

// backfill command
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Walk older history into the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, _ := cmd.Flags().GetInt("batch")
		all, _ := cmd.Flags().GetBool("all")

		a, err := newApp("Backfill")
		if err != nil {
			return err
		}
		defer a.Close()

		for {
			res, err := a.Backfill(cmd.Context(), batch)
			if err != nil {
				return fmt.Errorf("backfill failed: %w", err)
			}

			fmt.Printf("Fetched %d, indexed %d", res.Fetched, res.Indexed)
			if res.NextOffsetID > 0 {
				fmt.Printf(", cursor %d", res.NextOffsetID)
			}
			fmt.Println()

			if res.IsComplete {
				fmt.Println("History fully indexed.")
				return nil
			}
			if !all {
				return nil
			}
		}
	},
}

// rebuild command
var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Re-derive the tree from the message cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Rebuild")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Rebuild(cmd.Context())
		if err != nil {
			return fmt.Errorf("rebuild failed: %w", err)
		}

		fmt.Printf("Rebuilt %d item(s) from the cache\n", res.Upserted)
		return nil
	},
}

// ls command
var lsCmd = &cobra.Command{
	Use:   "ls [PATH]",
	Short: "List a folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, _ := cmd.Flags().GetInt64("offset")
		limit, _ := cmd.Flags().GetInt64("limit")

		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		target := "/Home"
		if len(args) > 0 {
			target = args[0]
		}

		if limit > 0 {
			page, err := a.ListPage(cmd.Context(), target, offset, limit)
			if err != nil {
				return err
			}
			printItems(page.Items)
			if page.HasMore {
				fmt.Printf("More items; next offset %d\n", page.NextOffset)
			}
			return nil
		}

		items, err := a.List(cmd.Context(), target)
		if err != nil {
			return err
		}
		printItems(items)
		return nil
	},
}

func printItems(items []model.SavedItem) {
	if len(items) == 0 {
		fmt.Println("Empty folder.")
		return
	}
	for _, item := range items {
		if item.FileType == "folder" {
			fmt.Printf("d %-36s %s\n",
				item.FileName,
				item.ModifiedDate.Format("2006-01-02 15:04:05"),
			)
			continue
		}
		fmt.Printf("- %-36s %s  %10d  tg://msg/%d\n",
			item.FileName,
			item.ModifiedDate.Format("2006-01-02 15:04:05"),
			item.FileSize,
			item.MessageID,
		)
	}
}

// mkdir command
var mkdirCmd = &cobra.Command{
	Use:   "mkdir PATH",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CreateFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := a.CreateFolder(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("creating folder: %w", err)
		}

		fmt.Printf("Created %s/%s\n", item.FilePath, item.FileName)
		return nil
	},
}

// mv command
var mvCmd = &cobra.Command{
	Use:   "mv SOURCE DEST",
	Short: "Move a file (tg://msg/ID) or folder into DEST",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Move")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Move(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("moving: %w", err)
		}

		fmt.Printf("Moved %s to %s\n", args[0], args[1])
		return nil
	},
}

// rename command
var renameCmd = &cobra.Command{
	Use:   "rename SOURCE NEW_NAME",
	Short: "Rename a file (tg://msg/ID) or folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Rename")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Rename(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("renaming: %w", err)
		}

		fmt.Printf("Renamed %s to %s\n", args[0], args[1])
		return nil
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm SOURCE",
	Short: "Move a file (tg://msg/ID) or folder to the recycle bin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Recycle")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Recycle(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("recycling: %w", err)
		}

		fmt.Printf("Moved %s to the recycle bin\n", args[0])
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore SOURCE",
	Short: "Restore an item from the recycle bin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Restore(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("restoring: %w", err)
		}

		fmt.Printf("Restored %s\n", args[0])
		return nil
	},
}

// purge command
var purgeCmd = &cobra.Command{
	Use:   "purge SOURCE",
	Short: "Permanently delete a recycled item, remote messages included",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Purge")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Purge(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting: %w", err)
		}

		fmt.Printf("Permanently deleted %s\n", args[0])
		return nil
	},
}

// upload command
var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a file to saved messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")

		a, err := newApp("Upload")
		if err != nil {
			return err
		}
		defer a.Close()

		msg, err := a.Upload(cmd.Context(), args[0], to)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		fmt.Printf("Uploaded as %s (message %d)\n", msg.Filename, msg.MessageID)
		return nil
	},
}

// note command
var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage text notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add TEXT...",
	Short: "Save a text note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SaveNote")
		if err != nil {
			return err
		}
		defer a.Close()

		msg, err := a.SaveNote(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("saving note: %w", err)
		}

		fmt.Printf("Note saved as %s (message %d)\n", msg.Filename, msg.MessageID)
		return nil
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit MESSAGE_ID TEXT...",
	Short: "Replace the text of a note",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid message id: %s", args[0])
		}

		a, err := newApp("EditNote")
		if err != nil {
			return err
		}
		defer a.Close()

		msg, err := a.EditNote(cmd.Context(), id, strings.Join(args[1:], " "))
		if err != nil {
			return fmt.Errorf("editing note: %w", err)
		}

		fmt.Printf("Note %d updated (%s)\n", msg.MessageID, msg.Filename)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetStatus")
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Status(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Owner:           %s\n", st.OwnerID)
		fmt.Printf("Cached messages: %d\n", st.CachedMessages)
		fmt.Printf("Saved items:     %d\n", st.SavedItems)
		switch {
		case st.BackfillComplete:
			fmt.Println("Backfill:        complete")
		case st.BackfillCursor > 0:
			fmt.Printf("Backfill:        cursor at %d\n", st.BackfillCursor)
		default:
			fmt.Println("Backfill:        not started")
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// auth subcommands
	authCmd.AddCommand(authSetTokenCmd)

	// note subcommands
	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteEditCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(backfillCmd)
	backfillCmd.Flags().IntP("batch", "b", 0, "Messages per batch (default 50, max 200)")
	backfillCmd.Flags().Bool("all", false, "Keep fetching batches until history is complete")
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().Int64("offset", 0, "Skip this many items")
	lsCmd.Flags().Int64("limit", 0, "Page size; 0 lists everything")
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringP("to", "t", "", "Destination folder (defaults to the category folder)")
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(statusCmd)
}
