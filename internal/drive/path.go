// Package drive implements the virtual saved-items tree over Telegram
// Saved Messages: path normalization, media classification, the local
// index contract and the synchronization engine that keeps the two sides
// consistent.
package drive

import (
	"strconv"
	"strings"
)

// Every saved item lives under the root. The recycle bin is an ordinary
// folder row with reserved semantics.
const (
	RootPath       = "/Home"
	RecycleBinPath = "/Home/Recycle Bin"
)

// Virtual URI schemes accepted by tree operations. Folders are addressed
// by tg://saved paths or plain slash paths; files by tg://msg references.
const (
	savedScheme      = "tg://saved"
	messageRefPrefix = "tg://msg/"
)

// NormalizeSavedPath maps any user-supplied path onto the /Home tree.
// Backslashes count as separators, trailing separators are dropped, and
// relative or bare-rooted paths are re-anchored under the root. Empty
// input and "/" normalize to the root itself.
func NormalizeSavedPath(path string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(path, "\\", "/"))
	if trimmed == "" || trimmed == "/" {
		return RootPath
	}

	trimmed = strings.TrimRight(trimmed, "/")
	switch {
	case strings.HasPrefix(trimmed, RootPath):
		return trimmed
	case strings.HasPrefix(trimmed, "/"):
		return RootPath + trimmed
	default:
		return RootPath + "/" + trimmed
	}
}

// VirtualToSavedPath resolves the tg://saved scheme and plain slash paths
// to a normalized folder path. It reports false for strings that name no
// folder location, message references included.
func VirtualToSavedPath(path string) (string, bool) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, savedScheme) {
		relative := strings.Trim(strings.TrimPrefix(trimmed, savedScheme), "/")
		if relative == "" {
			return RootPath, true
		}
		return RootPath + "/" + relative, true
	}
	if strings.HasPrefix(trimmed, "/") {
		return NormalizeSavedPath(trimmed), true
	}
	return "", false
}

// ParseMessageRef extracts the message id from a tg://msg/<id> reference.
func ParseMessageRef(path string) (int64, bool) {
	value, found := strings.CutPrefix(strings.TrimSpace(path), messageRefPrefix)
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SplitParentAndName splits a path into its parent folder and final
// segment. The root has no parent; names that trim to nothing are
// rejected.
func SplitParentAndName(path string) (parent, name string, ok bool) {
	normalized := NormalizeSavedPath(path)
	if normalized == RootPath {
		return "", "", false
	}

	trimmed := strings.TrimRight(normalized, "/")
	index := strings.LastIndex(trimmed, "/")
	if index < 0 {
		return "", "", false
	}

	parent = trimmed[:index]
	if index == 0 {
		parent = RootPath
	}
	name = strings.TrimSpace(trimmed[index+1:])
	if name == "" {
		return "", "", false
	}
	return parent, name, true
}

// IsRecycleBinPath reports whether path is the recycle bin or inside it.
func IsRecycleBinPath(path string) bool {
	return path == RecycleBinPath || strings.HasPrefix(path, RecycleBinPath+"/")
}

// joinSavedPath appends a name below a parent folder path.
func joinSavedPath(parent, name string) string {
	return strings.TrimRight(parent, "/") + "/" + name
}
