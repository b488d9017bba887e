package remote

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tgdrive/internal/drive"
)

// BotRemote drives a saved-messages chat through the Telegram Bot API.
// A bot cannot read its own chat history, so Messages always fails with
// an explanation; sends, edits and deletes work, which is enough to use
// the tree as a write-mostly drive. The underlying client does not take
// a context, so cancellation only applies between calls.
type BotRemote struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewBotRemote creates a Bot API client for the given token and target
// chat. The token is validated against the API during construction.
func NewBotRemote(token string, chatID int64) (*BotRemote, error) {
	if token == "" {
		return nil, fmt.Errorf("no bot token configured: %w", drive.ErrNotAuthorized)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot client: %w", err)
	}
	return &BotRemote{api: api, chatID: chatID}, nil
}

func (b *BotRemote) OwnerID(ctx context.Context) (int64, error) {
	return b.chatID, nil
}

func (b *BotRemote) Messages(ctx context.Context, offsetID int64, limit int) ([]drive.RemoteMessage, error) {
	return nil, fmt.Errorf("the bot api cannot list chat history; sync requires the bridge backend")
}

func (b *BotRemote) DeleteMessages(ctx context.Context, messageIDs []int64) error {
	for _, id := range messageIDs {
		del := tgbotapi.NewDeleteMessage(b.chatID, int(id))
		if _, err := b.api.Request(del); err != nil {
			return fmt.Errorf("deleting message %d: %w", id, err)
		}
	}
	return nil
}

func (b *BotRemote) SendFile(ctx context.Context, req drive.SendFileRequest) (*drive.RemoteMessage, error) {
	file := tgbotapi.FileBytes{Name: req.Name, Bytes: req.Bytes}

	var cfg tgbotapi.Chattable
	switch req.Kind {
	case drive.MediaKindPhoto:
		cfg = tgbotapi.NewPhoto(b.chatID, file)
	case drive.MediaKindVideo:
		cfg = tgbotapi.NewVideo(b.chatID, file)
	case drive.MediaKindAudio:
		cfg = tgbotapi.NewAudio(b.chatID, file)
	default:
		cfg = tgbotapi.NewDocument(b.chatID, file)
	}

	sent, err := b.api.Send(cfg)
	if err != nil {
		return nil, fmt.Errorf("sending file: %w", err)
	}
	msg := messageFromBot(&sent)
	return &msg, nil
}

func (b *BotRemote) SendText(ctx context.Context, text string) (*drive.RemoteMessage, error) {
	sent, err := b.api.Send(tgbotapi.NewMessage(b.chatID, text))
	if err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}
	msg := messageFromBot(&sent)
	return &msg, nil
}

func (b *BotRemote) EditText(ctx context.Context, messageID int64, text string) (*drive.RemoteMessage, error) {
	edited, err := b.api.Send(tgbotapi.NewEditMessageText(b.chatID, int(messageID), text))
	if err != nil {
		return nil, fmt.Errorf("editing message %d: %w", messageID, err)
	}
	msg := messageFromBot(&edited)
	return &msg, nil
}

// messageFromBot converts a Bot API message into the engine's shape.
// For photos the largest size is kept.
func messageFromBot(msg *tgbotapi.Message) drive.RemoteMessage {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	out := drive.RemoteMessage{
		ID:   int64(msg.MessageID),
		Date: time.Unix(int64(msg.Date), 0).UTC(),
		Text: text,
	}

	switch {
	case len(msg.Photo) > 0:
		photo := msg.Photo[len(msg.Photo)-1]
		out.Media = &drive.RemoteMedia{
			Kind:          drive.MediaKindPhoto,
			Size:          int64(photo.FileSize),
			FileReference: photo.FileID,
		}
	case msg.Video != nil:
		out.Media = &drive.RemoteMedia{
			Kind:          drive.MediaKindVideo,
			FileName:      msg.Video.FileName,
			MimeType:      msg.Video.MimeType,
			Size:          int64(msg.Video.FileSize),
			FileReference: msg.Video.FileID,
		}
	case msg.Audio != nil:
		out.Media = &drive.RemoteMedia{
			Kind:          drive.MediaKindAudio,
			FileName:      msg.Audio.FileName,
			MimeType:      msg.Audio.MimeType,
			Size:          int64(msg.Audio.FileSize),
			FileReference: msg.Audio.FileID,
		}
	case msg.Voice != nil:
		out.Media = &drive.RemoteMedia{
			Kind:          drive.MediaKindAudio,
			MimeType:      msg.Voice.MimeType,
			Size:          int64(msg.Voice.FileSize),
			FileReference: msg.Voice.FileID,
		}
	case msg.Document != nil:
		out.Media = &drive.RemoteMedia{
			Kind:          drive.MediaKindDocument,
			FileName:      msg.Document.FileName,
			MimeType:      msg.Document.MimeType,
			Size:          int64(msg.Document.FileSize),
			FileReference: msg.Document.FileID,
		}
	}

	return out
}

// Compile-time check that BotRemote implements drive.Remote interface
var _ drive.Remote = (*BotRemote)(nil)
