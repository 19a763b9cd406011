package domain

import "errors"

// Sentinel errors shared by the registry, reservation and simulation services.
// Services wrap them with context; callers match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidCapacity   = errors.New("capacity must be a positive integer")
	ErrEventNotAvailable = errors.New("event is not available for registration")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrInvalidTransition = errors.New("invalid event status transition")
	ErrInvalidUserCount  = errors.New("user count must be a positive integer")
	ErrTimeout           = errors.New("simulation timed out")

	// ErrOverbooked is never returned. It is the panic value used when a
	// transition would leave more confirmed seats than capacity.
	ErrOverbooked = errors.New("confirmed seats exceed capacity")
)

// IsRetryable reports whether err describes a condition that may clear on its own,
// such as an event that is not yet published. AlreadyRegistered and friends are terminal.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return false
	}
	return errors.Is(err, ErrEventNotAvailable) || errors.Is(err, ErrTimeout)
}
