package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nowplaybot/nowplay/errors"
)

const helixBaseURL = "https://api.twitch.tv/helix"

// User is the subset of a Helix user record we care about.
type User struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// helixClient is a minimal Helix REST client scoped to the endpoints the chat
// transport needs: user lookup, EventSub subscription, message send.
type helixClient struct {
	http     *http.Client
	baseURL  string
	clientID string
	token    string
}

func newHelixClient(clientID, token string) *helixClient {
	return &helixClient{
		http:     &http.Client{Timeout: 10 * time.Second},
		baseURL:  helixBaseURL,
		clientID: clientID,
		token:    token,
	}
}

// TokenUser returns the user the access token belongs to.
func (h *helixClient) TokenUser(ctx context.Context) (*User, error) {
	return h.lookupUser(ctx, "")
}

// UserByLogin resolves a login name to a user record.
func (h *helixClient) UserByLogin(ctx context.Context, login string) (*User, error) {
	if login == "" {
		return nil, fmt.Errorf("empty login")
	}
	return h.lookupUser(ctx, login)
}

func (h *helixClient) lookupUser(ctx context.Context, login string) (*User, error) {
	q := url.Values{}
	if login != "" {
		q.Set("login", login)
	}
	var resp struct {
		Data []User `json:"data"`
	}
	if err := h.do(ctx, http.MethodGet, "/users", q, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no user record for %q", login)
	}
	return &resp.Data[0], nil
}

// SubscribeChatMessages registers a channel.chat.message EventSub subscription
// delivered over the given websocket session.
func (h *helixClient) SubscribeChatMessages(ctx context.Context, sessionID, broadcasterID, userID string) error {
	body := map[string]interface{}{
		"type":    "channel.chat.message",
		"version": "1",
		"condition": map[string]string{
			"broadcaster_user_id": broadcasterID,
			"user_id":             userID,
		},
		"transport": map[string]string{
			"method":     "websocket",
			"session_id": sessionID,
		},
	}
	return h.do(ctx, http.MethodPost, "/eventsub/subscriptions", nil, body, nil)
}

// SendChatMessage posts a chat message, optionally threaded onto the message
// that triggered it.
func (h *helixClient) SendChatMessage(ctx context.Context, broadcasterID, senderID, text, replyParentID string) error {
	body := map[string]interface{}{
		"broadcaster_id": broadcasterID,
		"sender_id":      senderID,
		"message":        text,
	}
	if replyParentID != "" {
		body["reply_parent_message_id"] = replyParentID
	}
	return h.do(ctx, http.MethodPost, "/chat/messages", nil, body, nil)
}

func (h *helixClient) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := h.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Client-Id", h.clientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.TransportRejected(resp.StatusCode, string(payload))
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("failed to decode helix response: %w", err)
		}
	}
	return nil
}
