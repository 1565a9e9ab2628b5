// Package identity turns bearer tokens into principals. User accounts
// live in an external identity provider; this service only trusts the
// signed claims.
package identity

import (
	"errors"
	"strings"
)

type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrBlocked         = errors.New("principal is blocked")
)

// Principal is the authenticated caller. ID is the opaque user id
// bookings are keyed by.
type Principal struct {
	ID     string
	Role   Role
	Status Status
}

// ValidatePrincipal rejects principals that may not act: no subject,
// unknown role or a blocked account.
func ValidatePrincipal(p Principal) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.Join(ErrUnauthenticated, errors.New("subject is empty"))
	}
	if len(p.ID) > 64 {
		return errors.Join(ErrUnauthenticated, errors.New("subject is too long"))
	}
	switch p.Role {
	case RoleClient, RoleProvider, RoleAdmin:
	default:
		return errors.Join(ErrUnauthenticated, errors.New("unknown role "+string(p.Role)))
	}
	if p.Status == StatusBlocked {
		return ErrBlocked
	}
	return nil
}
