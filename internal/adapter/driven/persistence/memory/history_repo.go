package memory

import (
	"context"
	"sync"

	"github.com/Wyydra/inplay/internal/core/domain"
)

// HistoryRepository keeps chat logs in process memory. A positive limit keeps
// only the newest messages of each room; zero keeps everything.
type HistoryRepository struct {
	mu    sync.Mutex
	limit int
	logs  map[domain.RoomID][]domain.ChatMessage
}

func NewHistoryRepository(limit int) *HistoryRepository {
	if limit < 0 {
		limit = 0
	}
	return &HistoryRepository{
		limit: limit,
		logs:  make(map[domain.RoomID][]domain.ChatMessage),
	}
}

func (r *HistoryRepository) Append(ctx context.Context, roomID domain.RoomID, msg domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := append(r.logs[roomID], msg)
	if r.limit > 0 && len(log) > r.limit {
		log = append([]domain.ChatMessage(nil), log[len(log)-r.limit:]...)
	}
	r.logs[roomID] = log
	return nil
}

// History returns a copy of the room's log in append order.
func (r *HistoryRepository) History(ctx context.Context, roomID domain.RoomID) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.logs[roomID]
	out := make([]domain.ChatMessage, len(log))
	copy(out, log)
	return out, nil
}

func (r *HistoryRepository) Drop(ctx context.Context, roomID domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.logs, roomID)
	return nil
}

func (r *HistoryRepository) Len(roomID domain.RoomID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs[roomID])
}
