package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/Wyydra/inplay/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_PresenterLeaves(t *testing.T) {
	h := newHarness(t, RoomPolicies{})
	h.join(t, "p", "r", domain.RolePresenter)
	h.join(t, "v1", "r", domain.RoleViewer)
	h.join(t, "v2", "r", domain.RoleViewer)
	h.gw.reset()

	h.lifecycle.Disconnect(context.Background(), "p")

	room, ok := h.store.Get("r")
	require.True(t, ok)
	assert.Empty(t, room.Presenter)
	assert.Equal(t, []domain.ConnID{"v1", "v2"}, room.Viewers)

	for _, id := range []domain.ConnID{"v1", "v2"} {
		got := h.gw.events(id)
		require.Len(t, got, 2)
		assert.Equal(t, domain.EventRoomClosed, got[0].Name)
		assert.Equal(t, domain.ReasonPresenterLeft, got[0].Data.(domain.RoomClosedPayload).Reason)
		assert.Equal(t, domain.EventRoomStatus, got[1].Name)
		assert.False(t, got[1].Data.(domain.RoomStatusPayload).PresenterConnected)
	}
	_, bound := h.registry.Lookup("p")
	assert.False(t, bound)
}

func TestLifecycle_PresenterLeavesWithEvict(t *testing.T) {
	h := newHarness(t, RoomPolicies{Disconnect: domain.DisconnectEvict})
	h.join(t, "p", "r", domain.RolePresenter)
	h.join(t, "v1", "r", domain.RoleViewer)
	h.join(t, "v2", "r", domain.RoleViewer)
	h.gw.reset()

	h.lifecycle.Disconnect(context.Background(), "p")

	_, ok := h.store.Get("r")
	assert.False(t, ok)
	assert.Zero(t, h.registry.Len())
	for _, id := range []domain.ConnID{"v1", "v2"} {
		assert.Len(t, h.gw.named(id, domain.EventRoomClosed), 1)
	}

	// evicted viewers disconnecting later is a no-op
	h.lifecycle.Disconnect(context.Background(), "v1")
	assert.Empty(t, h.store.List())
}

func TestLifecycle_ViewerLeaves(t *testing.T) {
	h := newHarness(t, RoomPolicies{})
	h.join(t, "p", "r", domain.RolePresenter)
	h.join(t, "v", "r", domain.RoleViewer)
	h.gw.reset()

	h.lifecycle.Disconnect(context.Background(), "v")

	left := h.gw.named("p", domain.EventUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, domain.ConnID("v"), left[0].Data.(domain.MemberPayload).ConnectionID)
	assert.Empty(t, h.gw.named("p", domain.EventRoomClosed))

	room, ok := h.store.Get("r")
	require.True(t, ok)
	assert.Equal(t, domain.ConnID("p"), room.Presenter)
	assert.Empty(t, room.Viewers)
}

func TestLifecycle_LastMemberDeletesRoom(t *testing.T) {
	tests := []struct {
		name string
		role domain.Role
	}{
		{name: "presenter", role: domain.RolePresenter},
		{name: "viewer", role: domain.RoleViewer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, RoomPolicies{})
			h.join(t, "c", "r", tt.role)

			h.lifecycle.Disconnect(context.Background(), "c")

			_, ok := h.store.Get("r")
			assert.False(t, ok)
			assert.Empty(t, h.store.List())
			assert.Zero(t, h.registry.Len())
		})
	}
}

func TestLifecycle_DisconnectUnknownConnection(t *testing.T) {
	h := newHarness(t, RoomPolicies{})

	h.lifecycle.Disconnect(context.Background(), "ghost")
	h.lifecycle.Disconnect(context.Background(), "ghost")

	assert.Zero(t, h.gw.count())
}

func TestLifecycle_RoomExistsIffMembers(t *testing.T) {
	h := newHarness(t, RoomPolicies{})
	rng := rand.New(rand.NewSource(1))
	rooms := []domain.RoomID{"a", "b", "c"}
	conns := []domain.ConnID{"c1", "c2", "c3", "c4", "c5"}
	want := make(map[domain.ConnID]domain.RoomID)

	for step := 0; step < 500; step++ {
		id := conns[rng.Intn(len(conns))]
		if rng.Intn(3) == 0 {
			h.lifecycle.Disconnect(context.Background(), id)
			delete(want, id)
		} else {
			room := rooms[rng.Intn(len(rooms))]
			role := domain.RoleViewer
			if rng.Intn(4) == 0 {
				role = domain.RolePresenter
			}
			h.join(t, id, room, role)
			want[id] = room
		}

		members := make(map[domain.RoomID]int)
		for _, r := range want {
			members[r]++
		}
		for _, r := range rooms {
			snap, ok := h.store.Get(r)
			require.Equal(t, members[r] > 0, ok, "room %s", r)
			if ok {
				n := len(snap.Viewers)
				if snap.Presenter != "" {
					n++
				}
				require.Equal(t, members[r], n, "room %s", r)
			}
		}
	}
}

func TestLifecycle_ConcurrentJoinLeave(t *testing.T) {
	h := newHarness(t, RoomPolicies{})
	const workers = 16

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.ConnID(fmt.Sprintf("c%d", i))
			role := domain.RoleViewer
			if i%4 == 0 {
				role = domain.RolePresenter
			}
			for j := 0; j < 50; j++ {
				room := domain.RoomID(fmt.Sprintf("r%d", j%3))
				_ = h.presence.Join(context.Background(), JoinRequest{ConnID: id, RoomID: room, Role: role})
				_ = h.chat.Post(context.Background(), id, room, body("hi"))
				_ = h.signal.RelayOffer(context.Background(), id, room, sdp)
				if j%5 == 0 {
					h.lifecycle.Disconnect(context.Background(), id)
				}
			}
			h.lifecycle.Disconnect(context.Background(), id)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, h.store.List())
	assert.Zero(t, h.registry.Len())
	rooms, members := h.store.Stats()
	assert.Zero(t, rooms)
	assert.Zero(t, members)
}
