package service

import (
	"sync"

	"github.com/Wyydra/inplay/internal/core/domain"
)

// Binding records which room a connection currently belongs to.
type Binding struct {
	RoomID domain.RoomID
	Member domain.Member
}

// ConnectionRegistry maps live connections to their room.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]Binding
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[domain.ConnID]Binding),
	}
}

func (r *ConnectionRegistry) Bind(roomID domain.RoomID, m domain.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[m.ID] = Binding{RoomID: roomID, Member: m}
}

func (r *ConnectionRegistry) Lookup(id domain.ConnID) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[id]
	return b, ok
}

func (r *ConnectionRegistry) Unbind(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// UnbindIf removes id only while it is still bound to roomID, so a teardown
// of an old room never clobbers a newer binding.
func (r *ConnectionRegistry) UnbindIf(id domain.ConnID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.conns[id]; ok && b.RoomID == roomID {
		delete(r.conns, id)
	}
}

func (r *ConnectionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
