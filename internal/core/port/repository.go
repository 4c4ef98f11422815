package port

import (
	"context"

	"github.com/Wyydra/inplay/internal/core/domain"
)

// HistoryRepository keeps the chat log of each live room.
type HistoryRepository interface {
	Append(ctx context.Context, roomID domain.RoomID, msg domain.ChatMessage) error
	History(ctx context.Context, roomID domain.RoomID) ([]domain.ChatMessage, error)
	Drop(ctx context.Context, roomID domain.RoomID) error
}
