package service

import (
	"context"
	"sort"
	"sync"

	"github.com/Wyydra/inplay/internal/core/domain"
	"github.com/Wyydra/inplay/internal/core/port"
	"github.com/rs/zerolog/log"
)

type roomEntry struct {
	mu   sync.Mutex
	room *domain.Room
	// set once the entry has been removed from the store; holders must retry
	dead bool
}

// RoomStore owns every live room. Each room has its own lock; the map lock is
// only ever taken while a room lock is held, never the other way around.
type RoomStore struct {
	mu      sync.Mutex
	rooms   map[domain.RoomID]*roomEntry
	history port.HistoryRepository
	metrics port.Metrics
}

func NewRoomStore(history port.HistoryRepository, metrics port.Metrics) *RoomStore {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &RoomStore{
		rooms:   make(map[domain.RoomID]*roomEntry),
		history: history,
		metrics: metrics,
	}
}

func (s *RoomStore) lookup(id domain.RoomID, create bool) *roomEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.rooms[id]
	if !ok && create {
		e = &roomEntry{room: domain.NewRoom(id)}
		s.rooms[id] = e
		s.metrics.RoomOpened()
		log.Info().Str("room_id", id.String()).Msg("Room created")
	}
	return e
}

// Update runs fn with exclusive access to the room. With create set an absent
// room is created first. Without it, a room that is still waiting for its
// creator to add the first member counts as absent. Once fn returns the room
// is removed if it has no members left. It reports whether fn ran.
func (s *RoomStore) Update(id domain.RoomID, create bool, fn func(room *domain.Room)) bool {
	for {
		e := s.lookup(id, create)
		if e == nil {
			return false
		}

		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}
		if !create && e.room.Empty() {
			e.mu.Unlock()
			return false
		}
		fn(e.room)
		s.removeIfEmptyLocked(e)
		e.mu.Unlock()
		return true
	}
}

// Get returns a copy of the room's current state.
func (s *RoomStore) Get(id domain.RoomID) (domain.RoomSnapshot, bool) {
	e := s.lookup(id, false)
	if e == nil {
		return domain.RoomSnapshot{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead || e.room.Empty() {
		return domain.RoomSnapshot{}, false
	}
	return e.room.Snapshot(), true
}

// DeleteIfEmpty removes the room when it has no members. It is a no-op for
// unknown or populated rooms.
func (s *RoomStore) DeleteIfEmpty(id domain.RoomID) {
	e := s.lookup(id, false)
	if e == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dead {
		s.removeIfEmptyLocked(e)
	}
}

// caller holds e.mu
func (s *RoomStore) removeIfEmptyLocked(e *roomEntry) {
	if !e.room.Empty() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.rooms[e.room.ID]; ok && cur == e {
		delete(s.rooms, e.room.ID)
	}
	e.dead = true

	// Still under the map lock: a room recreated under the same id cannot
	// append history before the old log is gone.
	if s.history != nil {
		if err := s.history.Drop(context.Background(), e.room.ID); err != nil {
			log.Error().Err(err).Str("room_id", e.room.ID.String()).Msg("Failed to drop chat history")
		}
	}
	s.metrics.RoomClosed(e.room.CreatedAt)
	log.Info().Str("room_id", e.room.ID.String()).Msg("Room removed")
}

func (s *RoomStore) entries() []*roomEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*roomEntry, 0, len(s.rooms))
	for _, e := range s.rooms {
		out = append(out, e)
	}
	return out
}

// List returns snapshots of all live rooms ordered by id.
func (s *RoomStore) List() []domain.RoomSnapshot {
	var out []domain.RoomSnapshot
	for _, e := range s.entries() {
		e.mu.Lock()
		if !e.dead && !e.room.Empty() {
			out = append(out, e.room.Snapshot())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats reports the number of rooms and the combined membership.
func (s *RoomStore) Stats() (rooms, members int) {
	for _, e := range s.entries() {
		e.mu.Lock()
		if !e.dead && !e.room.Empty() {
			rooms++
			members += e.room.Size()
		}
		e.mu.Unlock()
	}
	return rooms, members
}
