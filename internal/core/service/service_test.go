package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Wyydra/inplay/internal/adapter/driven/persistence/memory"
	"github.com/Wyydra/inplay/internal/core/domain"
	"github.com/stretchr/testify/require"
)

type delivery struct {
	to domain.ConnID
	ev domain.Event
}

type fakeGateway struct {
	mu   sync.Mutex
	sent []delivery
}

func (g *fakeGateway) Send(ctx context.Context, to domain.ConnID, ev domain.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, delivery{to: to, ev: ev})
}

func (g *fakeGateway) Broadcast(ctx context.Context, to []domain.ConnID, ev domain.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range to {
		g.sent = append(g.sent, delivery{to: id, ev: ev})
	}
}

// events returns what id received, in order.
func (g *fakeGateway) events(id domain.ConnID) []domain.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []domain.Event
	for _, d := range g.sent {
		if d.to == id {
			out = append(out, d.ev)
		}
	}
	return out
}

func (g *fakeGateway) named(id domain.ConnID, name string) []domain.Event {
	var out []domain.Event
	for _, ev := range g.events(id) {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

func (g *fakeGateway) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = nil
}

type harness struct {
	store     *RoomStore
	registry  *ConnectionRegistry
	history   *memory.HistoryRepository
	gw        *fakeGateway
	presence  *PresenceService
	chat      *ChatService
	signal    *SignalService
	lifecycle *LifecycleService
}

func newHarness(t *testing.T, policies RoomPolicies) *harness {
	t.Helper()
	h := &harness{
		registry: NewConnectionRegistry(),
		history:  memory.NewHistoryRepository(0),
		gw:       &fakeGateway{},
	}
	h.store = NewRoomStore(h.history, nil)
	h.chat = NewChatService(h.store, h.registry, h.history, h.gw, nil)
	h.presence = NewPresenceService(h.store, h.registry, h.chat, h.gw, nil, policies)
	h.signal = NewSignalService(h.store, h.gw, nil)
	h.lifecycle = NewLifecycleService(h.registry, h.presence)
	return h
}

func (h *harness) join(t *testing.T, id domain.ConnID, room domain.RoomID, role domain.Role) {
	t.Helper()
	require.NoError(t, h.presence.Join(context.Background(), JoinRequest{
		ConnID:      id,
		RoomID:      room,
		DisplayName: "user-" + id.String(),
		Role:        role,
	}))
}
