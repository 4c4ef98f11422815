package domain

import (
	"encoding/json"
	"time"
)

// Outbound event names.
const (
	EventConnected    = "connected"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
	EventRoomStatus   = "room-status"
	EventChatHistory  = "chat-history"
	EventChatMessage  = "chat-message"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
	EventRoomClosed   = "room-closed"
)

// Event is a named message delivered to one connection.
type Event struct {
	Name string
	Data any
}

func NewEvent(name string, data any) Event {
	return Event{Name: name, Data: data}
}

type ConnectedPayload struct {
	ConnectionID ConnID `json:"connectionId"`
}

type MemberPayload struct {
	RoomID       RoomID `json:"roomId"`
	ConnectionID ConnID `json:"connectionId"`
	DisplayName  string `json:"displayName"`
	Role         Role   `json:"role"`
}

type RoomStatusPayload struct {
	RoomID             RoomID `json:"roomId"`
	PresenterConnected bool   `json:"presenterConnected"`
}

type ChatPayload struct {
	RoomID RoomID          `json:"roomId"`
	Sender string          `json:"sender"`
	Body   json.RawMessage `json:"body"`
	SentAt time.Time       `json:"sentAt"`
}

type ChatHistoryPayload struct {
	RoomID   RoomID        `json:"roomId"`
	Messages []ChatPayload `json:"messages"`
}

type SignalPayload struct {
	From   ConnID          `json:"from"`
	RoomID RoomID          `json:"roomId,omitempty"`
	Signal json.RawMessage `json:"signal"`
}

type CandidatePayload struct {
	From      ConnID          `json:"from"`
	Candidate json.RawMessage `json:"candidate"`
}

type RoomClosedPayload struct {
	RoomID RoomID `json:"roomId"`
	Reason string `json:"reason"`
}

const ReasonPresenterLeft = "presenter-left"

func NewChatPayload(roomID RoomID, m ChatMessage) ChatPayload {
	return ChatPayload{
		RoomID: roomID,
		Sender: m.Sender,
		Body:   m.Body,
		SentAt: m.SentAt,
	}
}
