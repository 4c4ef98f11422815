package ws

import "github.com/Wyydra/inplay/internal/core/domain"

// Client is one live connection as seen by the hub. Send must not block.
type Client interface {
	ID() domain.ConnID
	Send(ev domain.Event) error
	Close() error
}
