package port

import (
	"context"

	"github.com/Wyydra/inplay/internal/core/domain"
)

// RealTimeGateway delivers events to live connections. Implementations must
// not block: delivery is a hand-off, failures stay inside the gateway.
type RealTimeGateway interface {
	Send(ctx context.Context, to domain.ConnID, ev domain.Event)
	Broadcast(ctx context.Context, to []domain.ConnID, ev domain.Event)
}
