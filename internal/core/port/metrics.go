package port

import (
	"time"

	"github.com/Wyydra/inplay/internal/core/domain"
)

type Metrics interface {
	RoomOpened()
	RoomClosed(createdAt time.Time)
	MemberJoined(role domain.Role)
	MemberLeft(role domain.Role)
	ChatPosted()
	SignalRelayed(kind domain.SignalType, deliveries int)
	Dropped(reason string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RoomOpened()                          {}
func (NopMetrics) RoomClosed(time.Time)                 {}
func (NopMetrics) MemberJoined(domain.Role)             {}
func (NopMetrics) MemberLeft(domain.Role)               {}
func (NopMetrics) ChatPosted()                          {}
func (NopMetrics) SignalRelayed(domain.SignalType, int) {}
func (NopMetrics) Dropped(string)                       {}
