package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the caller role asserted by the auth gateway.
type Role string

const (
	RoleAttendee  Role = "ATTENDEE"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

// ParseRole maps a claim value to a Role. "audience" is accepted as an alias of attendee.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ATTENDEE", "AUDIENCE":
		return RoleAttendee, nil
	case "ORGANIZER":
		return RoleOrganizer, nil
	case "ADMIN":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// Principal is the verified identity of a caller. The engine trusts it as given.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

// TokenIssuer issues tokens (e.g. JWT) for a principal.
type TokenIssuer interface {
	Issue(p Principal, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated principal.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}
