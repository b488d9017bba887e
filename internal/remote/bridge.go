package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tgdrive/internal/drive"
)

// BridgeRemote talks to a companion daemon that holds the real
// saved-messages session and exposes it as a small JSON API over HTTP.
// Every request carries the API token as a bearer credential; a 401 or
// 403 from the daemon surfaces as drive.ErrNotAuthorized.
//
// Endpoints:
//
//	GET  /v1/owner                           -> {"owner_id": n}
//	GET  /v1/messages?offset_id=n&limit=n    -> {"messages": [...]}
//	POST /v1/messages/delete                 <- {"message_ids": [...]}
//	POST /v1/files                           <- {"name", "kind", "mime_type", "bytes"}
//	POST /v1/notes                           <- {"text"}
//	POST /v1/notes/edit                      <- {"message_id", "text"}
type BridgeRemote struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewBridgeRemote creates a client for the daemon at baseURL using the
// given API token.
func NewBridgeRemote(baseURL, token string) *BridgeRemote {
	return &BridgeRemote{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// wireMessage mirrors drive.RemoteMessage on the daemon's wire format.
type wireMessage struct {
	ID    int64      `json:"id"`
	Date  time.Time  `json:"date"`
	Text  string     `json:"text,omitempty"`
	Media *wireMedia `json:"media,omitempty"`
}

type wireMedia struct {
	Kind          string `json:"kind"`
	FileName      string `json:"file_name,omitempty"`
	MimeType      string `json:"mime_type,omitempty"`
	Size          int64  `json:"size"`
	FileReference string `json:"file_reference,omitempty"`
}

func (w *wireMessage) toMessage() drive.RemoteMessage {
	msg := drive.RemoteMessage{
		ID:   w.ID,
		Date: w.Date,
		Text: w.Text,
	}
	if w.Media != nil {
		msg.Media = &drive.RemoteMedia{
			Kind:          w.Media.Kind,
			FileName:      w.Media.FileName,
			MimeType:      w.Media.MimeType,
			Size:          w.Media.Size,
			FileReference: w.Media.FileReference,
		}
	}
	return msg
}

// do sends one request and decodes the JSON response into out when out
// is non-nil. Payloads are encoded as JSON request bodies.
func (b *BridgeRemote) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling bridge: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading bridge response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("bridge rejected token: %w", drive.ErrNotAuthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("bridge %s failed: status=%d message=%s", path, resp.StatusCode, bridgeErrorMessage(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding bridge response: %w", err)
		}
	}
	return nil
}

// bridgeErrorMessage pulls the error field out of a failure body,
// falling back to the raw body.
func bridgeErrorMessage(body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && strings.TrimSpace(parsed.Error) != "" {
		return parsed.Error
	}
	return strings.TrimSpace(string(body))
}

func (b *BridgeRemote) OwnerID(ctx context.Context) (int64, error) {
	var out struct {
		OwnerID int64 `json:"owner_id"`
	}
	if err := b.do(ctx, http.MethodGet, "/v1/owner", nil, &out); err != nil {
		return 0, err
	}
	return out.OwnerID, nil
}

func (b *BridgeRemote) Messages(ctx context.Context, offsetID int64, limit int) ([]drive.RemoteMessage, error) {
	q := url.Values{}
	if offsetID > 0 {
		q.Set("offset_id", strconv.FormatInt(offsetID, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/messages"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Messages []wireMessage `json:"messages"`
	}
	if err := b.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	messages := make([]drive.RemoteMessage, 0, len(out.Messages))
	for i := range out.Messages {
		messages = append(messages, out.Messages[i].toMessage())
	}
	return messages, nil
}

func (b *BridgeRemote) DeleteMessages(ctx context.Context, messageIDs []int64) error {
	if len(messageIDs) == 0 {
		return nil
	}
	payload := struct {
		MessageIDs []int64 `json:"message_ids"`
	}{MessageIDs: messageIDs}
	return b.do(ctx, http.MethodPost, "/v1/messages/delete", payload, nil)
}

func (b *BridgeRemote) SendFile(ctx context.Context, req drive.SendFileRequest) (*drive.RemoteMessage, error) {
	payload := struct {
		Name     string `json:"name"`
		Kind     string `json:"kind"`
		MimeType string `json:"mime_type,omitempty"`
		Bytes    []byte `json:"bytes"`
	}{Name: req.Name, Kind: req.Kind, MimeType: req.MimeType, Bytes: req.Bytes}

	var out wireMessage
	if err := b.do(ctx, http.MethodPost, "/v1/files", payload, &out); err != nil {
		return nil, err
	}
	msg := out.toMessage()
	return &msg, nil
}

func (b *BridgeRemote) SendText(ctx context.Context, text string) (*drive.RemoteMessage, error) {
	payload := struct {
		Text string `json:"text"`
	}{Text: text}

	var out wireMessage
	if err := b.do(ctx, http.MethodPost, "/v1/notes", payload, &out); err != nil {
		return nil, err
	}
	msg := out.toMessage()
	return &msg, nil
}

func (b *BridgeRemote) EditText(ctx context.Context, messageID int64, text string) (*drive.RemoteMessage, error) {
	payload := struct {
		MessageID int64  `json:"message_id"`
		Text      string `json:"text"`
	}{MessageID: messageID, Text: text}

	var out wireMessage
	if err := b.do(ctx, http.MethodPost, "/v1/notes/edit", payload, &out); err != nil {
		return nil, err
	}
	msg := out.toMessage()
	return &msg, nil
}

// Compile-time check that BridgeRemote implements drive.Remote interface
var _ drive.Remote = (*BridgeRemote)(nil)
