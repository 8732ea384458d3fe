package authz

import (
	"errors"

	"userhub/internal/domain/user"
)

var (
	ErrSelfAction      = errors.New("cannot perform this action on your own account")
	ErrInvalidRole     = errors.New("invalid role, must be either admin or user")
	ErrAlreadyActive   = errors.New("user is already active")
	ErrAlreadyInactive = errors.New("user is already inactive")
)

// RequireNotSelf blocks a privileged actor from mutating their own
// role or status through the admin endpoints, so an admin can never
// lock themselves out or self-demote.
func RequireNotSelf(actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfAction
	}
	return nil
}

// ParseRole validates a candidate role value from a request body.
func ParseRole(candidate string) (string, error) {
	switch candidate {
	case user.RoleAdmin, user.RoleUser:
		return candidate, nil
	default:
		return "", ErrInvalidRole
	}
}

// EnsureActivate rejects activation of an already-active account. The
// redundant transition is a reportable client error, not a silent success.
func EnsureActivate(u user.User) error {
	if u.Status == user.StatusActive {
		return ErrAlreadyActive
	}
	return nil
}

// EnsureDeactivate rejects deactivation of an already-inactive account.
func EnsureDeactivate(u user.User) error {
	if u.Status == user.StatusInactive {
		return ErrAlreadyInactive
	}
	return nil
}
