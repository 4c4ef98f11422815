package domain

import (
	"github.com/google/uuid"
)

// ConnID identifies a live transport connection.
type ConnID string

// RoomID is chosen by clients and compared case-sensitively.
type RoomID string

func NewConnID() ConnID {
	return ConnID(uuid.New().String())
}

func (id ConnID) String() string {
	return string(id)
}

func (id RoomID) String() string {
	return string(id)
}
