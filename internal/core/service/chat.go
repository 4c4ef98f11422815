package service

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/Wyydra/inplay/internal/core/domain"
	"github.com/Wyydra/inplay/internal/core/port"
	"github.com/pkg/errors"
)

type ChatService struct {
	store    *RoomStore
	registry *ConnectionRegistry
	repo     port.HistoryRepository
	gateway  port.RealTimeGateway
	metrics  port.Metrics
}

func NewChatService(store *RoomStore, registry *ConnectionRegistry, repo port.HistoryRepository, gateway port.RealTimeGateway, metrics port.Metrics) *ChatService {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &ChatService{
		store:    store,
		registry: registry,
		repo:     repo,
		gateway:  gateway,
		metrics:  metrics,
	}
}

// Post appends body to the room's chat log and relays it to every other
// member. Messages for unknown rooms are dropped.
func (s *ChatService) Post(ctx context.Context, from domain.ConnID, roomID domain.RoomID, body json.RawMessage) error {
	if roomID == "" {
		return domain.ErrMissingRoomID
	}
	if len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return domain.ErrEmptyMessage
	}

	sender := from.String()
	if b, ok := s.registry.Lookup(from); ok && b.RoomID == roomID && b.Member.DisplayName != "" {
		sender = b.Member.DisplayName
	}

	var err error
	found := s.store.Update(roomID, false, func(room *domain.Room) {
		msg := domain.NewChatMessage(sender, body)
		if err = s.repo.Append(ctx, roomID, msg); err != nil {
			err = errors.Wrap(err, "append chat message")
			return
		}
		s.gateway.Broadcast(ctx, room.MembersExcept(from), domain.NewEvent(domain.EventChatMessage, domain.NewChatPayload(roomID, msg)))
		s.metrics.ChatPosted()
	})
	if !found {
		return domain.ErrUnknownRoom
	}
	return err
}

// Replay sends the room's full chat log to one connection as a single batch.
func (s *ChatService) Replay(ctx context.Context, to domain.ConnID, roomID domain.RoomID) error {
	var err error
	found := s.store.Update(roomID, false, func(room *domain.Room) {
		err = s.replay(ctx, room.ID, to)
	})
	if !found {
		return domain.ErrUnknownRoom
	}
	return err
}

// caller holds the room lock
func (s *ChatService) replay(ctx context.Context, roomID domain.RoomID, to domain.ConnID) error {
	msgs, err := s.repo.History(ctx, roomID)
	if err != nil {
		return errors.Wrap(err, "load chat history")
	}

	payload := domain.ChatHistoryPayload{
		RoomID:   roomID,
		Messages: make([]domain.ChatPayload, 0, len(msgs)),
	}
	for _, m := range msgs {
		payload.Messages = append(payload.Messages, domain.NewChatPayload(roomID, m))
	}
	s.gateway.Send(ctx, to, domain.NewEvent(domain.EventChatHistory, payload))
	return nil
}
