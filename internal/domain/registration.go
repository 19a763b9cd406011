package domain

import (
	"context"
	"time"
)

// RegistrationStatus is the state of a registrant's claim on an event.
type RegistrationStatus string

const (
	RegistrationStatusConfirmed  RegistrationStatus = "CONFIRMED"
	RegistrationStatusWaitlisted RegistrationStatus = "WAITLISTED"
	RegistrationStatusCancelled  RegistrationStatus = "CANCELLED"
)

// Registration is the record of one user's registration for one event.
// Sequence is assigned per event at creation and orders the waitlist.
// swagger:model Registration
type Registration struct {
	ID        string             `json:"id"`
	EventID   string             `json:"event_id"`
	UserID    string             `json:"user_id"`
	UserEmail string             `json:"user_email,omitempty"`
	Status    RegistrationStatus `json:"status"`
	Sequence  int64              `json:"sequence"`
	Version   int64              `json:"version"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// IsActive reports whether the registration holds or awaits a seat.
func (r *Registration) IsActive() bool {
	return r.Status == RegistrationStatusConfirmed || r.Status == RegistrationStatusWaitlisted
}

// RegistrationResult is returned by Register.
type RegistrationResult struct {
	Registration *Registration `json:"registration"`
	Waitlisted   bool          `json:"waitlist"`
	// Position is the 1-based waitlist position at enqueue time; 0 when confirmed.
	Position int `json:"position,omitempty"`
}

// CancelResult is returned by Cancel. Promoted is set when the freed seat went to the
// head of the waitlist.
type CancelResult struct {
	Cancelled *Registration `json:"cancelled"`
	Promoted  *Registration `json:"promoted,omitempty"`
}

// ReservationService is the serialization point for seat-changing operations.
type ReservationService interface {
	Register(ctx context.Context, eventID string, caller Principal) (*RegistrationResult, error)
	Cancel(ctx context.Context, registrationID string, caller Principal) (*CancelResult, error)
}
