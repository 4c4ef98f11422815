package domain

import (
	"encoding/json"
	"time"
)

// ChatMessage is one entry of a room's chat log. Body is relayed untouched.
type ChatMessage struct {
	Sender string
	Body   json.RawMessage
	SentAt time.Time
}

func NewChatMessage(sender string, body json.RawMessage) ChatMessage {
	b := make(json.RawMessage, len(body))
	copy(b, body)
	return ChatMessage{
		Sender: sender,
		Body:   b,
		SentAt: time.Now().UTC(),
	}
}
