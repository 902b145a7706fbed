package models

// ChatEvent is one inbound chat message. Events are ephemeral; nothing
// retains them past dispatch.
type ChatEvent struct {
	Sender  string
	Text    string
	Channel string
	// MessageID, when present, lets the transport thread the response as a
	// reply to the originating message.
	MessageID string
}
