package ws

import (
	"context"
	"sync"

	"github.com/Wyydra/inplay/internal/core/domain"
	"github.com/Wyydra/inplay/internal/core/port"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// Hub implements port.RealTimeGateway on top of the connected clients.
// Clients that cannot keep up are handed to the Run loop and closed there.
type Hub struct {
	mu      sync.RWMutex
	clients map[domain.ConnID]Client

	connected atomic.Int32
	evict     chan Client
	quit      chan struct{}
	stopOnce  sync.Once
}

var _ port.RealTimeGateway = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		clients: make(map[domain.ConnID]Client),
		evict:   make(chan Client, 64),
		quit:    make(chan struct{}),
	}
}

func (h *Hub) Register(c Client) {
	h.mu.Lock()
	h.clients[c.ID()] = c
	h.mu.Unlock()

	h.connected.Inc()
	log.Info().Str("conn_id", c.ID().String()).Int32("connected", h.connected.Load()).Msg("Client registered")
}

// Unregister forgets c. It reports false if c was already gone.
func (h *Hub) Unregister(c Client) bool {
	h.mu.Lock()
	cur, ok := h.clients[c.ID()]
	if ok && cur == c {
		delete(h.clients, c.ID())
	}
	h.mu.Unlock()

	if !ok || cur != c {
		return false
	}
	h.connected.Dec()
	log.Info().Str("conn_id", c.ID().String()).Int32("connected", h.connected.Load()).Msg("Client unregistered")
	return true
}

func (h *Hub) Send(ctx context.Context, to domain.ConnID, ev domain.Event) {
	h.mu.RLock()
	c, ok := h.clients[to]
	h.mu.RUnlock()

	if !ok {
		log.Debug().Str("conn_id", to.String()).Str("event", ev.Name).Msg("Dropping event for unknown client")
		return
	}
	h.deliver(c, ev)
}

func (h *Hub) Broadcast(ctx context.Context, to []domain.ConnID, ev domain.Event) {
	if len(to) == 0 {
		return
	}

	h.mu.RLock()
	targets := make([]Client, 0, len(to))
	for _, id := range to {
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, ev)
	}
}

func (h *Hub) deliver(c Client, ev domain.Event) {
	if err := c.Send(ev); err != nil {
		log.Warn().Err(err).Str("conn_id", c.ID().String()).Str("event", ev.Name).Msg("Error sending event")
		select {
		case h.evict <- c:
		default:
		}
	}
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	return int(h.connected.Load())
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for id, client := range h.clients {
				if err := client.Close(); err != nil {
					log.Error().Err(err).Str("conn_id", id.String()).Msg("Error closing client connection")
				}
				delete(h.clients, id)
				h.connected.Dec()
			}
			h.mu.Unlock()
			return

		case client := <-h.evict:
			// Closing makes the read pump exit, which runs the normal disconnect path.
			log.Warn().Str("conn_id", client.ID().String()).Msg("Evicting slow client")
			if err := client.Close(); err != nil {
				log.Error().Err(err).Str("conn_id", client.ID().String()).Msg("Error closing client connection")
			}
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}
