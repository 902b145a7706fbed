package twitch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeChatEvent(t *testing.T) {
	payload := json.RawMessage(`{
		"event": {
			"broadcaster_user_login": "somechannel",
			"chatter_user_login": "viewer",
			"message_id": "msg-1",
			"message": {"text": "!np"}
		}
	}`)

	ev, ok := decodeChatEvent(payload)
	require.True(t, ok)

	assert.Equal(t, "viewer", ev.Sender)
	assert.Equal(t, "!np", ev.Text)
	assert.Equal(t, "somechannel", ev.Channel)
	assert.Equal(t, "msg-1", ev.MessageID)
}

func TestDecodeChatEventRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"event":`},
		{"missing chatter", `{"event":{"message_id":"m","message":{"text":"!np"}}}`},
		{"missing message id", `{"event":{"chatter_user_login":"viewer","message":{"text":"!np"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := decodeChatEvent(json.RawMessage(tt.payload))
			assert.False(t, ok)
		})
	}
}

func TestEventFrameParsing(t *testing.T) {
	data := []byte(`{
		"metadata": {
			"message_id": "abc",
			"message_type": "session_welcome"
		},
		"payload": {
			"session": {
				"id": "sess-1",
				"keepalive_timeout_seconds": 10,
				"reconnect_url": ""
			}
		}
	}`)

	var frame eventFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "session_welcome", frame.Metadata.MessageType)

	var welcome welcomePayload
	require.NoError(t, json.Unmarshal(frame.Payload, &welcome))
	assert.Equal(t, "sess-1", welcome.Session.ID)
	assert.Equal(t, 10, welcome.Session.KeepaliveTimeoutSeconds)
}
