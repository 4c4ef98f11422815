package domain

import "github.com/pkg/errors"

// PresenterPolicy decides what happens when a second connection claims the
// presenter role of a room.
type PresenterPolicy string

const (
	PresenterReplace PresenterPolicy = "replace"
	PresenterReject  PresenterPolicy = "reject"
)

// DisconnectPolicy decides what happens to viewers when the presenter leaves.
type DisconnectPolicy string

const (
	DisconnectNotify DisconnectPolicy = "notify"
	DisconnectEvict  DisconnectPolicy = "evict"
)

func ParsePresenterPolicy(s string) (PresenterPolicy, error) {
	switch p := PresenterPolicy(s); p {
	case "":
		return PresenterReplace, nil
	case PresenterReplace, PresenterReject:
		return p, nil
	}
	return "", errors.Errorf("invalid presenter policy %q", s)
}

func ParseDisconnectPolicy(s string) (DisconnectPolicy, error) {
	switch p := DisconnectPolicy(s); p {
	case "":
		return DisconnectNotify, nil
	case DisconnectNotify, DisconnectEvict:
		return p, nil
	}
	return "", errors.Errorf("invalid disconnect policy %q", s)
}
