package domain

import "strings"

type Role string

const (
	RolePresenter Role = "presenter"
	RoleViewer    Role = "viewer"
)

// ParseRole maps a client supplied role. Anything that is not a presenter
// (or the legacy "teacher") is treated as a viewer.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "presenter", "teacher":
		return RolePresenter
	default:
		return RoleViewer
	}
}

func (r Role) String() string {
	return string(r)
}
