package drive

import (
	"fmt"
	"strings"
	"time"

	"tgdrive/internal/model"
)

// Classification pairs the category folder a message lands in with the
// file type recorded on its saved item.
type Classification struct {
	Category string
	FileType string
}

// classifyExtension buckets a normalized extension into its category.
// Unknown and empty extensions fall through to Documents.
func classifyExtension(extension string) Classification {
	switch extension {
	case "jpg", "jpeg", "png", "webp", "gif", "bmp", "tiff", "svg", "heic":
		return Classification{Category: "Images", FileType: "image"}
	case "mp4", "mkv", "webm", "mov", "avi", "wmv", "m4v", "flv":
		return Classification{Category: "Videos", FileType: "video"}
	case "mp3", "m4a", "ogg", "wav", "flac", "aac", "opus", "wma":
		return Classification{Category: "Audios", FileType: "audio"}
	case "txt", "md", "rtf", "log", "json", "xml", "yaml", "yml", "csv", "ini", "toml":
		return Classification{Category: "Notes", FileType: "text"}
	default:
		return Classification{Category: "Documents", FileType: "document"}
	}
}

// categoryToSavedPath returns the folder a category maps to. Unknown
// categories land at the root.
func categoryToSavedPath(category string) string {
	switch category {
	case "Images", "Videos", "Audios", "Documents", "Notes":
		return RootPath + "/" + category
	default:
		return RootPath
	}
}

// defaultExtensionForFileType fills in an extension when nothing else
// resolved one.
func defaultExtensionForFileType(fileType string) string {
	switch fileType {
	case "image":
		return "jpg"
	case "video":
		return "mp4"
	case "audio":
		return "mp3"
	case "text":
		return "txt"
	default:
		return "bin"
	}
}

// sanitizeFileName replaces filesystem-hostile characters with
// underscores. Blank input yields the fallback upload name.
func sanitizeFileName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "upload.bin"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		default:
			return r
		}
	}, trimmed)
}

// optionalSanitizedName sanitizes a name, or returns "" for blank input.
func optionalSanitizedName(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	return sanitizeFileName(name)
}

// normalizeExtension trims whitespace and leading dots and lowercases.
func normalizeExtension(extension string) string {
	normalized := strings.ToLower(strings.TrimLeft(strings.TrimSpace(extension), "."))
	return normalized
}

// extensionFromName pulls the extension out of a file name. Names without
// a dot, and names whose extension trims to nothing, yield "".
func extensionFromName(name string) string {
	index := strings.LastIndex(name, ".")
	if index < 0 {
		return ""
	}
	return normalizeExtension(name[index+1:])
}

// extensionFromMimeType maps well-known mime types to an extension.
func extensionFromMimeType(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/tiff":
		return "tiff"
	case "image/heic", "image/heif":
		return "heic"
	case "video/mp4":
		return "mp4"
	case "video/x-matroska":
		return "mkv"
	case "video/webm":
		return "webm"
	case "video/quicktime":
		return "mov"
	case "video/x-msvideo":
		return "avi"
	case "video/x-ms-wmv":
		return "wmv"
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/mp4", "audio/x-m4a":
		return "m4a"
	case "audio/ogg":
		return "ogg"
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "audio/flac", "audio/x-flac":
		return "flac"
	case "audio/aac":
		return "aac"
	case "audio/opus":
		return "opus"
	case "text/plain":
		return "txt"
	case "text/markdown":
		return "md"
	case "application/pdf":
		return "pdf"
	case "application/zip":
		return "zip"
	case "application/x-rar-compressed":
		return "rar"
	case "application/x-7z-compressed":
		return "7z"
	case "application/json":
		return "json"
	case "application/xml":
		return "xml"
	case "application/msword":
		return "doc"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	case "application/vnd.ms-excel":
		return "xls"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	case "application/vnd.ms-powerpoint":
		return "ppt"
	case "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return "pptx"
	case "application/octet-stream":
		return "bin"
	default:
		return ""
	}
}

// mimeTypeFromExtension is the reverse mapping for outgoing sends. Only
// media formats get a declared type; everything else travels untyped.
func mimeTypeFromExtension(extension string) string {
	switch extension {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "mp4", "m4v":
		return "video/mp4"
	case "mkv":
		return "video/x-matroska"
	case "webm":
		return "video/webm"
	case "mov":
		return "video/quicktime"
	case "avi":
		return "video/x-msvideo"
	case "wmv":
		return "video/x-ms-wmv"
	case "flv":
		return "video/x-flv"
	case "mp3":
		return "audio/mpeg"
	case "m4a":
		return "audio/mp4"
	case "ogg":
		return "audio/ogg"
	case "wav":
		return "audio/wav"
	case "flac":
		return "audio/flac"
	case "aac":
		return "audio/aac"
	case "opus":
		return "audio/opus"
	case "wma":
		return "audio/x-ms-wma"
	default:
		return ""
	}
}

// uploadMediaKindForExtension picks how a file should travel on the wire.
// Only formats Telegram renders inline go as photos; everything outside
// the media sets is sent as a plain document.
func uploadMediaKindForExtension(extension string) string {
	switch extension {
	case "jpg", "jpeg", "png", "webp", "gif", "bmp":
		return MediaKindPhoto
	case "mp4", "mkv", "webm", "mov", "avi", "wmv", "m4v", "flv":
		return MediaKindVideo
	case "mp3", "m4a", "ogg", "wav", "flac", "aac", "opus", "wma":
		return MediaKindAudio
	default:
		return MediaKindDocument
	}
}

// generatedFileName builds a synthetic name for media without one.
func generatedFileName(fileType, token, extension string) string {
	if extension != "" {
		return fileType + "_" + token + "." + extension
	}
	return fileType + "_" + token
}

// fallbackFileNameForNonMedia names text and document messages after
// their message id so re-derivation is stable.
func fallbackFileNameForNonMedia(messageID int64, fileType, extension string) string {
	base := fmt.Sprintf("message_%d", messageID)
	if fileType == "text" {
		base = fmt.Sprintf("note_%d", messageID)
	}
	if extension != "" {
		return base + "." + extension
	}
	return base
}

// buildUploadFileName derives the stored name for an upload: the sanitized
// stem plus a random token, so repeated uploads of the same file never
// collide. Returns the name and its normalized extension.
func buildUploadFileName(name, token string) (uploadName, extension string) {
	safe := sanitizeFileName(name)

	stem := safe
	if index := strings.LastIndex(safe, "."); index > 0 {
		stem = safe[:index]
		extension = normalizeExtension(safe[index+1:])
	}
	stem = strings.TrimSpace(stem)
	if stem == "" {
		stem = "upload"
	}

	if extension != "" {
		return fmt.Sprintf("%s_%s.%s", stem, token, extension), extension
	}
	return fmt.Sprintf("%s_%s", stem, token), ""
}

// sanitizeIdentifierToken keeps ASCII letters and digits and replaces
// everything else with underscores. Derived unique ids stay stable as
// long as the inputs do.
func sanitizeIdentifierToken(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, s)
}

// buildFolderUniqueID derives the stable identity of a folder from its
// owner, parent path and name. Re-deriving at the same location yields
// the same key, which is what makes folder creation idempotent.
func buildFolderUniqueID(ownerID, parentPath, name string) string {
	return "folder_" + sanitizeIdentifierToken(ownerID+"_"+parentPath+"_"+name)
}

// deriveSavedItem builds the saved-item row for a cached message. Names
// and extensions resolve in a fixed priority: an explicit override or the
// message's own filename first, then extensions from the record, the
// name, and the mime type, with per-type defaults filling what is left.
func deriveSavedItem(msg *model.TelegramMessage, ownerID, preferredPath, fallbackName string, idgen IDGenerator) *model.SavedItem {
	preferredName := optionalSanitizedName(fallbackName)
	if preferredName == "" {
		preferredName = optionalSanitizedName(msg.Filename)
	}

	extension := normalizeExtension(msg.Extension)
	if extension == "" {
		extension = extensionFromName(preferredName)
	}
	if extension == "" {
		extension = extensionFromMimeType(msg.MimeType)
	}

	classification := classifyExtension(extension)

	finalExtension := extension
	if finalExtension == "" {
		finalExtension = defaultExtensionForFileType(classification.FileType)
	}

	fileName := preferredName
	if fileName == "" {
		switch classification.FileType {
		case "image", "video", "audio":
			fileName = generatedFileName(classification.FileType, idgen.New(), finalExtension)
		default:
			fileName = fallbackFileNameForNonMedia(msg.MessageID, classification.FileType, finalExtension)
		}
	}

	filePath := categoryToSavedPath(classification.Category)
	if preferredPath != "" {
		filePath = NormalizeSavedPath(preferredPath)
	}

	uniqueID := fmt.Sprintf("msg_%d_%d", msg.ChatID, msg.MessageID)
	if msg.MessageID <= 0 {
		token := fmt.Sprintf("%d_%s_%s", msg.ChatID, msg.Timestamp.UTC().Format(time.RFC3339), fileName)
		uniqueID = "msg_" + sanitizeIdentifierToken(token)
	}

	return &model.SavedItem{
		ChatID:       msg.ChatID,
		MessageID:    msg.MessageID,
		Thumbnail:    msg.Thumbnail,
		FileType:     classification.FileType,
		FileUniqueID: uniqueID,
		FileSize:     msg.Size,
		FileName:     fileName,
		FileCaption:  msg.Text,
		FilePath:     filePath,
		ModifiedDate: msg.Timestamp,
		OwnerID:      ownerID,
	}
}

// categorizeMessage converts one remote message into a cache row.
// Messages with neither media nor text produce nil and are skipped.
func categorizeMessage(msg *RemoteMessage, chatID int64) *model.TelegramMessage {
	switch {
	case msg.Media != nil && msg.Media.Kind == MediaKindPhoto:
		classification := classifyExtension("jpg")
		return &model.TelegramMessage{
			MessageID:     msg.ID,
			ChatID:        chatID,
			Category:      classification.Category,
			Filename:      fmt.Sprintf("photo_%d.jpg", msg.ID),
			Extension:     "jpg",
			MimeType:      "image/jpeg",
			Timestamp:     msg.Date,
			Size:          msg.Media.Size,
			Text:          msg.Text,
			FileReference: msg.Media.FileReference,
		}
	case msg.Media != nil:
		fileName := optionalSanitizedName(msg.Media.FileName)
		extension := extensionFromName(fileName)
		if extension == "" {
			extension = extensionFromMimeType(msg.Media.MimeType)
		}
		classification := classifyExtension(extension)
		return &model.TelegramMessage{
			MessageID:     msg.ID,
			ChatID:        chatID,
			Category:      classification.Category,
			Filename:      fileName,
			Extension:     extension,
			MimeType:      msg.Media.MimeType,
			Timestamp:     msg.Date,
			Size:          msg.Media.Size,
			Text:          msg.Text,
			FileReference: msg.Media.FileReference,
		}
	case msg.Text != "":
		classification := classifyExtension("txt")
		return &model.TelegramMessage{
			MessageID:     msg.ID,
			ChatID:        chatID,
			Category:      classification.Category,
			Extension:     "txt",
			MimeType:      "text/plain",
			Timestamp:     msg.Date,
			Size:          int64(len(msg.Text)),
			Text:          msg.Text,
			FileReference: `{"type":"text"}`,
		}
	default:
		return nil
	}
}
