package service

import (
	"context"
	"encoding/json"

	"github.com/Wyydra/inplay/internal/core/domain"
	"github.com/Wyydra/inplay/internal/core/port"
	"github.com/rs/zerolog/log"
)

// SignalService relays WebRTC negotiation between the presenter and the
// viewers of a room. Payloads are never inspected.
type SignalService struct {
	store   *RoomStore
	gateway port.RealTimeGateway
	metrics port.Metrics
}

func NewSignalService(store *RoomStore, gateway port.RealTimeGateway, metrics port.Metrics) *SignalService {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &SignalService{
		store:   store,
		gateway: gateway,
		metrics: metrics,
	}
}

// RelayOffer fans the offer out to every viewer of the room.
func (s *SignalService) RelayOffer(ctx context.Context, from domain.ConnID, roomID domain.RoomID, payload json.RawMessage) error {
	if roomID == "" {
		return domain.ErrMissingRoomID
	}

	sig := domain.NewSignal(domain.SignalOffer, from, payload)
	var delivered int
	found := s.store.Update(roomID, false, func(room *domain.Room) {
		var to []domain.ConnID
		for _, id := range room.Viewers() {
			if id != from {
				to = append(to, id)
			}
		}
		s.gateway.Broadcast(ctx, to, signalEvent(roomID, sig))
		delivered = len(to)
	})
	if !found {
		return domain.ErrUnknownRoom
	}

	s.metrics.SignalRelayed(sig.Type, delivered)
	log.Debug().Str("room_id", roomID.String()).Str("from", from.String()).Int("viewers", delivered).Msg("Offer relayed")
	return nil
}

// RelayAnswer hands a viewer's answer to the room's presenter.
func (s *SignalService) RelayAnswer(ctx context.Context, from domain.ConnID, roomID domain.RoomID, payload json.RawMessage) error {
	if roomID == "" {
		return domain.ErrMissingRoomID
	}

	sig := domain.NewSignal(domain.SignalAnswer, from, payload)
	var err error
	found := s.store.Update(roomID, false, func(room *domain.Room) {
		p, ok := room.Presenter()
		if !ok || p.ID == from {
			err = domain.ErrNoPresenter
			return
		}
		s.gateway.Send(ctx, p.ID, signalEvent(roomID, sig))
	})
	if !found {
		return domain.ErrUnknownRoom
	}
	if err != nil {
		return err
	}

	s.metrics.SignalRelayed(sig.Type, 1)
	log.Debug().Str("room_id", roomID.String()).Str("from", from.String()).Msg("Answer relayed")
	return nil
}

// RelayICECandidate forwards a candidate to one named connection. Room
// membership is not checked.
func (s *SignalService) RelayICECandidate(ctx context.Context, from, target domain.ConnID, payload json.RawMessage) error {
	if target == "" {
		return domain.ErrMissingTarget
	}

	sig := domain.NewSignal(domain.SignalCandidate, from, payload)
	s.gateway.Send(ctx, target, domain.NewEvent(domain.EventICECandidate, domain.CandidatePayload{
		From:      sig.From,
		Candidate: sig.Payload,
	}))
	s.metrics.SignalRelayed(sig.Type, 1)
	return nil
}

func signalEvent(roomID domain.RoomID, sig domain.Signal) domain.Event {
	return domain.NewEvent(string(sig.Type), domain.SignalPayload{
		From:   sig.From,
		RoomID: roomID,
		Signal: sig.Payload,
	})
}
