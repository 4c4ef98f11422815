package domain

import "github.com/pkg/errors"

// Drop reasons. None of these ever reach a client, they are only logged and counted.
var (
	ErrMissingRoomID  = errors.New("missing room id")
	ErrUnknownRoom    = errors.New("unknown room")
	ErrNoPresenter    = errors.New("no presenter in room")
	ErrPresenterTaken = errors.New("room already has a presenter")
	ErrEmptyMessage   = errors.New("empty chat message")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrBadPayload     = errors.New("malformed payload")
	ErrMissingTarget  = errors.New("missing target connection id")
)

// Reason is the short label used for the dropped-event metric.
func Reason(err error) string {
	switch errors.Cause(err) {
	case ErrMissingRoomID:
		return "missing_room_id"
	case ErrUnknownRoom:
		return "unknown_room"
	case ErrNoPresenter:
		return "no_presenter"
	case ErrPresenterTaken:
		return "presenter_taken"
	case ErrEmptyMessage:
		return "empty_message"
	case ErrUnknownEvent:
		return "unknown_event"
	case ErrBadPayload:
		return "bad_payload"
	case ErrMissingTarget:
		return "missing_target"
	default:
		return "other"
	}
}
