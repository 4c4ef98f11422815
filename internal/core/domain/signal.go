package domain

import "encoding/json"

type SignalType string

const (
	SignalOffer     SignalType = "offer"
	SignalAnswer    SignalType = "answer"
	SignalCandidate SignalType = "ice-candidate"
)

// Signal is an opaque WebRTC negotiation payload (SDP or ICE candidate).
type Signal struct {
	Type    SignalType
	From    ConnID
	Payload json.RawMessage
}

func NewSignal(t SignalType, from ConnID, payload json.RawMessage) Signal {
	return Signal{
		Type:    t,
		From:    from,
		Payload: payload,
	}
}
