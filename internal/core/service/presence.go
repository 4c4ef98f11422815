package service

import (
	"context"

	"github.com/Wyydra/inplay/internal/core/domain"
	"github.com/Wyydra/inplay/internal/core/port"
	"github.com/rs/zerolog/log"
)

type JoinRequest struct {
	ConnID      domain.ConnID
	RoomID      domain.RoomID
	DisplayName string
	Role        domain.Role
}

type RoomPolicies struct {
	Presenter  domain.PresenterPolicy
	Disconnect domain.DisconnectPolicy
}

// PresenceService handles members entering and leaving rooms.
type PresenceService struct {
	store    *RoomStore
	registry *ConnectionRegistry
	chat     *ChatService
	gateway  port.RealTimeGateway
	metrics  port.Metrics
	policies RoomPolicies
}

func NewPresenceService(
	store *RoomStore,
	registry *ConnectionRegistry,
	chat *ChatService,
	gateway port.RealTimeGateway,
	metrics port.Metrics,
	policies RoomPolicies,
) *PresenceService {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	if policies.Presenter == "" {
		policies.Presenter = domain.PresenterReplace
	}
	if policies.Disconnect == "" {
		policies.Disconnect = domain.DisconnectNotify
	}
	return &PresenceService{
		store:    store,
		registry: registry,
		chat:     chat,
		gateway:  gateway,
		metrics:  metrics,
		policies: policies,
	}
}

// Join puts the connection into the room, creating the room if needed. The
// other members are told about the newcomer, and the newcomer receives the
// room status followed by the full chat history before any later traffic.
func (s *PresenceService) Join(ctx context.Context, req JoinRequest) error {
	if req.RoomID == "" {
		return domain.ErrMissingRoomID
	}

	member := domain.Member{
		ID:          req.ConnID,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	}
	if member.Role != domain.RolePresenter {
		member.Role = domain.RoleViewer
	}

	if b, ok := s.registry.Lookup(req.ConnID); ok && b.RoomID != req.RoomID {
		// a refused claim must leave the current membership untouched
		if err := s.admit(req.RoomID, member); err != nil {
			return err
		}
		s.Leave(ctx, req.ConnID, b.RoomID)
	}

	l := log.With().Str("room_id", req.RoomID.String()).Str("conn_id", req.ConnID.String()).Logger()

	var err error
	s.store.Update(req.RoomID, true, func(room *domain.Room) {
		prev, existed := room.Member(member.ID)

		if member.Role == domain.RolePresenter {
			cur, taken := room.Presenter()
			if taken && cur.ID != member.ID && s.policies.Presenter == domain.PresenterReject {
				err = domain.ErrPresenterTaken
				return
			}
			if replaced, ok := room.SetPresenter(member); ok {
				l.Info().Str("replaced_conn_id", replaced.ID.String()).Msg("Presenter replaced")
				s.metrics.MemberLeft(domain.RolePresenter)
				s.metrics.MemberJoined(domain.RoleViewer)
			}
		} else {
			room.AddViewer(member)
		}

		switch {
		case !existed:
			s.metrics.MemberJoined(member.Role)
		case prev.Role != member.Role:
			s.metrics.MemberLeft(prev.Role)
			s.metrics.MemberJoined(member.Role)
		}

		s.registry.Bind(room.ID, member)

		s.gateway.Broadcast(ctx, room.MembersExcept(member.ID), domain.NewEvent(domain.EventUserJoined, domain.MemberPayload{
			RoomID:       room.ID,
			ConnectionID: member.ID,
			DisplayName:  member.DisplayName,
			Role:         member.Role,
		}))
		s.gateway.Send(ctx, member.ID, domain.NewEvent(domain.EventRoomStatus, domain.RoomStatusPayload{
			RoomID:             room.ID,
			PresenterConnected: room.HasPresenter(),
		}))
		if rerr := s.chat.replay(ctx, room.ID, member.ID); rerr != nil {
			l.Error().Err(rerr).Msg("Failed to replay chat history")
		}

		l.Info().Str("role", member.Role.String()).Int("members", room.Size()).Msg("Member joined room")
	})
	return err
}

// admit reports whether member could currently join roomID under the
// presenter policy. Join repeats the check under the room lock.
func (s *PresenceService) admit(roomID domain.RoomID, member domain.Member) error {
	if member.Role != domain.RolePresenter || s.policies.Presenter != domain.PresenterReject {
		return nil
	}
	room, ok := s.store.Get(roomID)
	if ok && room.Presenter != "" && room.Presenter != member.ID {
		return domain.ErrPresenterTaken
	}
	return nil
}

// Leave removes the connection from roomID and applies the presenter
// departure policy. Unknown rooms and non-members are ignored.
func (s *PresenceService) Leave(ctx context.Context, id domain.ConnID, roomID domain.RoomID) {
	s.store.Update(roomID, false, func(room *domain.Room) {
		s.registry.UnbindIf(id, roomID)

		m, ok := room.Remove(id)
		if !ok {
			return
		}
		s.metrics.MemberLeft(m.Role)

		l := log.With().Str("room_id", roomID.String()).Str("conn_id", id.String()).Logger()
		rest := room.MembersExcept(id)

		if m.Role != domain.RolePresenter {
			s.gateway.Broadcast(ctx, rest, domain.NewEvent(domain.EventUserLeft, domain.MemberPayload{
				RoomID:       roomID,
				ConnectionID: m.ID,
				DisplayName:  m.DisplayName,
				Role:         m.Role,
			}))
			l.Info().Int("members", room.Size()).Msg("Viewer left room")
			return
		}

		s.gateway.Broadcast(ctx, rest, domain.NewEvent(domain.EventRoomClosed, domain.RoomClosedPayload{
			RoomID: roomID,
			Reason: domain.ReasonPresenterLeft,
		}))
		s.gateway.Broadcast(ctx, rest, domain.NewEvent(domain.EventRoomStatus, domain.RoomStatusPayload{
			RoomID:             roomID,
			PresenterConnected: false,
		}))
		l.Info().Int("members", room.Size()).Msg("Presenter left room")

		if s.policies.Disconnect == domain.DisconnectEvict {
			for _, v := range rest {
				if ev, ok := room.Remove(v); ok {
					s.registry.UnbindIf(v, roomID)
					s.metrics.MemberLeft(ev.Role)
				}
			}
			l.Info().Int("evicted", len(rest)).Msg("Viewers evicted after presenter left")
		}
	})
}
