package domain

import (
	"sort"
	"time"
)

// Member is a connection's presence inside a room.
type Member struct {
	ID          ConnID
	DisplayName string
	Role        Role
}

// Room holds membership for one room. It is not safe for concurrent use;
// callers serialize access through the room store.
type Room struct {
	ID        RoomID
	CreatedAt time.Time

	presenter *Member
	viewers   map[ConnID]Member
}

func NewRoom(id RoomID) *Room {
	return &Room{
		ID:        id,
		CreatedAt: time.Now(),
		viewers:   make(map[ConnID]Member),
	}
}

func (r *Room) HasPresenter() bool {
	return r.presenter != nil
}

// Presenter returns the current presenter, if any.
func (r *Room) Presenter() (Member, bool) {
	if r.presenter == nil {
		return Member{}, false
	}
	return *r.presenter, true
}

// SetPresenter puts m in the presenter slot. A previous presenter with a
// different id is demoted to viewer and returned.
func (r *Room) SetPresenter(m Member) (replaced Member, ok bool) {
	m.Role = RolePresenter
	delete(r.viewers, m.ID)
	if r.presenter != nil && r.presenter.ID != m.ID {
		replaced = *r.presenter
		replaced.Role = RoleViewer
		r.viewers[replaced.ID] = replaced
		ok = true
	}
	r.presenter = &m
	return replaced, ok
}

// AddViewer inserts m as a viewer. Re-adding an existing viewer only updates
// its display name; a presenter re-joining as viewer gives up the slot.
func (r *Room) AddViewer(m Member) {
	m.Role = RoleViewer
	if r.presenter != nil && r.presenter.ID == m.ID {
		r.presenter = nil
	}
	r.viewers[m.ID] = m
}

// Remove drops id from the room and reports the member that was removed.
func (r *Room) Remove(id ConnID) (Member, bool) {
	if r.presenter != nil && r.presenter.ID == id {
		m := *r.presenter
		r.presenter = nil
		return m, true
	}
	if m, ok := r.viewers[id]; ok {
		delete(r.viewers, id)
		return m, true
	}
	return Member{}, false
}

// Member looks up id in either the presenter slot or the viewer set.
func (r *Room) Member(id ConnID) (Member, bool) {
	if r.presenter != nil && r.presenter.ID == id {
		return *r.presenter, true
	}
	m, ok := r.viewers[id]
	return m, ok
}

func (r *Room) Has(id ConnID) bool {
	_, ok := r.Member(id)
	return ok
}

// Viewers returns viewer ids in a stable order.
func (r *Room) Viewers() []ConnID {
	ids := make([]ConnID, 0, len(r.viewers))
	for id := range r.viewers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MembersExcept returns every member id other than skip.
func (r *Room) MembersExcept(skip ConnID) []ConnID {
	ids := make([]ConnID, 0, r.Size())
	if r.presenter != nil && r.presenter.ID != skip {
		ids = append(ids, r.presenter.ID)
	}
	for _, id := range r.Viewers() {
		if id != skip {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Room) Size() int {
	n := len(r.viewers)
	if r.presenter != nil {
		n++
	}
	return n
}

func (r *Room) Empty() bool {
	return r.Size() == 0
}

// RoomSnapshot is a read-only copy of a room handed out by the store.
type RoomSnapshot struct {
	ID        RoomID    `json:"roomId"`
	Presenter ConnID    `json:"presenter,omitempty"`
	Viewers   []ConnID  `json:"viewers"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Room) Snapshot() RoomSnapshot {
	s := RoomSnapshot{
		ID:        r.ID,
		Viewers:   r.Viewers(),
		CreatedAt: r.CreatedAt,
	}
	if r.presenter != nil {
		s.Presenter = r.presenter.ID
	}
	return s
}
