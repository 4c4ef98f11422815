package service

import (
	"context"

	"github.com/Wyydra/inplay/internal/core/domain"
)

// LifecycleService tears down a connection's room membership once the
// transport reports it closed.
type LifecycleService struct {
	registry *ConnectionRegistry
	presence *PresenceService
}

func NewLifecycleService(registry *ConnectionRegistry, presence *PresenceService) *LifecycleService {
	return &LifecycleService{
		registry: registry,
		presence: presence,
	}
}

func (s *LifecycleService) Disconnect(ctx context.Context, id domain.ConnID) {
	if b, ok := s.registry.Lookup(id); ok {
		s.presence.Leave(ctx, id, b.RoomID)
	}
	s.registry.Unbind(id)
}
