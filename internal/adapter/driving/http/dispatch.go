package http

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/Wyydra/inplay/internal/core/domain"
	"github.com/Wyydra/inplay/internal/core/service"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Inbound event names.
const (
	EventJoinRoom     = "join-room"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
	EventChatMessage  = "chat-message"
	legacyChatMessage = "chatMessage"
)

type incomingDTO struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinRoomDTO struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
	User        string `json:"user"`
	Role        string `json:"role"`
}

type signalDTO struct {
	RoomID string          `json:"roomId"`
	Signal json.RawMessage `json:"signal"`
}

type candidateDTO struct {
	TargetConnectionID string          `json:"targetConnectionId"`
	Candidate          json.RawMessage `json:"candidate"`
}

type chatDTO struct {
	RoomID string          `json:"roomId"`
	Body   json.RawMessage `json:"body"`
}

type eventHandler func(ctx context.Context, from domain.ConnID, data json.RawMessage) error

func (h *Handler) eventHandlers() map[string]eventHandler {
	return map[string]eventHandler{
		EventJoinRoom:     h.onJoinRoom,
		EventOffer:        h.onOffer,
		EventAnswer:       h.onAnswer,
		EventICECandidate: h.onICECandidate,
		EventChatMessage:  h.onChatMessage,
		legacyChatMessage: h.onChatMessage,
	}
}

// dispatch decodes one frame and runs its handler. Failures never produce a
// reply; they are logged and counted.
func (h *Handler) dispatch(ctx context.Context, from domain.ConnID, raw []byte) {
	var req incomingDTO
	if err := json.Unmarshal(raw, &req); err != nil {
		h.drop(from, "", errors.Wrap(domain.ErrBadPayload, err.Error()))
		return
	}

	handle, ok := h.handlers[req.Event]
	if !ok {
		h.drop(from, req.Event, domain.ErrUnknownEvent)
		return
	}
	if err := handle(ctx, from, req.Data); err != nil {
		h.drop(from, req.Event, err)
	}
}

func (h *Handler) drop(from domain.ConnID, event string, err error) {
	h.Metrics.Dropped(domain.Reason(err))
	log.Debug().Err(err).Str("conn_id", from.String()).Str("event", event).Msg("Event dropped")
}

func decode(data json.RawMessage, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.ErrBadPayload
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(domain.ErrBadPayload, err.Error())
	}
	return nil
}

func (h *Handler) onJoinRoom(ctx context.Context, from domain.ConnID, data json.RawMessage) error {
	var req joinRoomDTO
	if err := decode(data, &req); err != nil {
		return err
	}

	name := req.DisplayName
	if name == "" {
		name = req.User
	}
	return h.Presence.Join(ctx, service.JoinRequest{
		ConnID:      from,
		RoomID:      domain.RoomID(req.RoomID),
		DisplayName: name,
		Role:        domain.ParseRole(req.Role),
	})
}

func (h *Handler) onOffer(ctx context.Context, from domain.ConnID, data json.RawMessage) error {
	var req signalDTO
	if err := decode(data, &req); err != nil {
		return err
	}
	return h.Signal.RelayOffer(ctx, from, domain.RoomID(req.RoomID), req.Signal)
}

func (h *Handler) onAnswer(ctx context.Context, from domain.ConnID, data json.RawMessage) error {
	var req signalDTO
	if err := decode(data, &req); err != nil {
		return err
	}
	return h.Signal.RelayAnswer(ctx, from, domain.RoomID(req.RoomID), req.Signal)
}

func (h *Handler) onICECandidate(ctx context.Context, from domain.ConnID, data json.RawMessage) error {
	var req candidateDTO
	if err := decode(data, &req); err != nil {
		return err
	}
	return h.Signal.RelayICECandidate(ctx, from, domain.ConnID(req.TargetConnectionID), req.Candidate)
}

func (h *Handler) onChatMessage(ctx context.Context, from domain.ConnID, data json.RawMessage) error {
	var req chatDTO
	if err := decode(data, &req); err != nil {
		return err
	}

	// older clients send the whole message object without a body field
	body := req.Body
	if len(body) == 0 {
		body = data
	}
	return h.Chat.Post(ctx, from, domain.RoomID(req.RoomID), body)
}
