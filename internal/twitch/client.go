// Package twitch connects to Twitch chat over EventSub websockets and sends
// responses through the Helix API. It is the chat transport for the command
// dispatcher.
package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/nowplaybot/nowplay/config"
	"github.com/nowplaybot/nowplay/internal/daemon/store"
	"github.com/nowplaybot/nowplay/logging"
	"github.com/nowplaybot/nowplay/pkg/models"
)

const (
	eventSubURL = "wss://eventsub.wss.twitch.tv/ws"

	// Applied when the welcome frame omits keepalive_timeout_seconds.
	defaultKeepalive = 30 * time.Second

	// Slack added on top of the advertised keepalive before the read
	// deadline trips.
	keepaliveGrace = 5 * time.Second

	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// Handler receives inbound chat events. The dispatcher satisfies this.
type Handler interface {
	Handle(ctx context.Context, ev models.ChatEvent)
}

// Client maintains the EventSub websocket session and implements the
// dispatcher's Transport for outbound messages.
type Client struct {
	log     *logrus.Entry
	cfg     config.TwitchConfig
	helix   *helixClient
	handler Handler

	mu          sync.Mutex
	broadcaster *User
	sender      *User
}

// New creates a Twitch chat client from config. Credentials are not checked
// until Run resolves the users on first connect.
func New(cfg *config.TwitchConfig, handler Handler) *Client {
	return &Client{
		log:     logging.NewLogger("twitch"),
		cfg:     *cfg,
		helix:   newHelixClient(cfg.ClientID, cfg.Token),
		handler: handler,
	}
}

func (c *Client) replyToUser() bool {
	return c.cfg.ReplyToUser == nil || *c.cfg.ReplyToUser
}

// Send delivers a rendered response to the broadcaster's chat, threading it
// onto the triggering message when reply_to_user is enabled.
func (c *Client) Send(ctx context.Context, ev models.ChatEvent, text string) error {
	c.mu.Lock()
	broadcaster, sender := c.broadcaster, c.sender
	c.mu.Unlock()
	if broadcaster == nil || sender == nil {
		return fmt.Errorf("chat transport not connected")
	}

	replyParent := ""
	if c.replyToUser() {
		replyParent = ev.MessageID
	}
	return c.helix.SendChatMessage(ctx, broadcaster.ID, sender.ID, text, replyParent)
}

// Name identifies the client when run as a daemon collector.
func (c *Client) Name() string { return "twitch" }

// Run connects to EventSub and processes chat notifications until the context
// is cancelled, reconnecting with backoff on any session failure. It matches
// the daemon collector signature but never publishes store updates.
func (c *Client) Run(ctx context.Context, _ *store.Store, _ chan<- store.Update) error {
	delay := reconnectBaseDelay
	for {
		err := c.resolveUsers(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WithError(err).Warnf("Failed to resolve twitch users, retrying in %s", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}

	dialURL := eventSubURL
	delay = reconnectBaseDelay
	for {
		reconnectURL, err := c.runSession(ctx, dialURL)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.log.WithError(err).Warnf("EventSub session ended, reconnecting in %s", delay)
		}

		if reconnectURL != "" {
			// Server-directed reconnect carries the session over,
			// no backoff needed.
			dialURL = reconnectURL
			delay = reconnectBaseDelay
			continue
		}
		dialURL = eventSubURL

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

func (c *Client) resolveUsers(ctx context.Context) error {
	tokenUser, err := c.helix.TokenUser(ctx)
	if err != nil {
		return err
	}

	sender := tokenUser
	if c.cfg.Sender != "" && c.cfg.Sender != tokenUser.Login {
		sender, err = c.helix.UserByLogin(ctx, c.cfg.Sender)
		if err != nil {
			return err
		}
	}

	broadcaster := tokenUser
	if c.cfg.Broadcaster != "" && c.cfg.Broadcaster != tokenUser.Login {
		broadcaster, err = c.helix.UserByLogin(ctx, c.cfg.Broadcaster)
		if err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.broadcaster = broadcaster
	c.sender = sender
	c.mu.Unlock()

	c.log.Infof("Connected as %s, watching %s's chat", sender.DisplayName, broadcaster.DisplayName)
	return nil
}

// runSession runs one websocket session. It returns a non-empty reconnect URL
// when the server asked us to migrate the session.
func (c *Client) runSession(ctx context.Context, dialURL string) (string, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, dialURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to dial eventsub: %w", err)
	}
	defer conn.Close()

	// Unblock reads when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	keepalive := defaultKeepalive
	subscribed := dialURL != eventSubURL

	for {
		conn.SetReadDeadline(time.Now().Add(keepalive + keepaliveGrace))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("eventsub read failed: %w", err)
		}

		var frame eventFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.WithError(err).Debug("Discarding malformed frame")
			continue
		}

		switch frame.Metadata.MessageType {
		case "session_welcome":
			var welcome welcomePayload
			if err := json.Unmarshal(frame.Payload, &welcome); err != nil {
				return "", fmt.Errorf("failed to parse welcome payload: %w", err)
			}
			if welcome.Session.KeepaliveTimeoutSeconds > 0 {
				keepalive = time.Duration(welcome.Session.KeepaliveTimeoutSeconds) * time.Second
			}
			if !subscribed {
				if err := c.subscribe(ctx, welcome.Session.ID); err != nil {
					return "", err
				}
				subscribed = true
			}
			c.log.Debug("EventSub session established")

		case "session_keepalive":
			// Deadline already reset above.

		case "session_reconnect":
			var welcome welcomePayload
			if err := json.Unmarshal(frame.Payload, &welcome); err == nil && welcome.Session.ReconnectURL != "" {
				c.log.Debug("Server requested session migration")
				return welcome.Session.ReconnectURL, nil
			}
			return "", fmt.Errorf("reconnect frame without url")

		case "revocation":
			return "", fmt.Errorf("subscription revoked: %s", frame.Metadata.SubscriptionType)

		case "notification":
			if frame.Metadata.SubscriptionType != "channel.chat.message" {
				continue
			}
			ev, ok := decodeChatEvent(frame.Payload)
			if !ok {
				c.log.Debug("Discarding undecodable chat notification")
				continue
			}
			c.handler.Handle(ctx, ev)

		default:
			c.log.Debugf("Ignoring frame type %q", frame.Metadata.MessageType)
		}
	}
}

func (c *Client) subscribe(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	broadcaster, sender := c.broadcaster, c.sender
	c.mu.Unlock()

	if err := c.helix.SubscribeChatMessages(ctx, sessionID, broadcaster.ID, sender.ID); err != nil {
		return fmt.Errorf("failed to subscribe to chat messages: %w", err)
	}
	return nil
}

type eventFrame struct {
	Metadata eventMetadata   `json:"metadata"`
	Payload  json.RawMessage `json:"payload"`
}

type eventMetadata struct {
	MessageID        string `json:"message_id"`
	MessageType      string `json:"message_type"`
	SubscriptionType string `json:"subscription_type"`
}

type welcomePayload struct {
	Session struct {
		ID                      string `json:"id"`
		KeepaliveTimeoutSeconds int    `json:"keepalive_timeout_seconds"`
		ReconnectURL            string `json:"reconnect_url"`
	} `json:"session"`
}

type chatNotification struct {
	Event struct {
		BroadcasterUserLogin string `json:"broadcaster_user_login"`
		ChatterUserLogin     string `json:"chatter_user_login"`
		MessageID            string `json:"message_id"`
		Message              struct {
			Text string `json:"text"`
		} `json:"message"`
	} `json:"event"`
}

func decodeChatEvent(payload json.RawMessage) (models.ChatEvent, bool) {
	var n chatNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return models.ChatEvent{}, false
	}
	if n.Event.ChatterUserLogin == "" || n.Event.MessageID == "" {
		return models.ChatEvent{}, false
	}
	return models.ChatEvent{
		Sender:    n.Event.ChatterUserLogin,
		Text:      n.Event.Message.Text,
		Channel:   n.Event.BroadcasterUserLogin,
		MessageID: n.Event.MessageID,
	}, true
}
