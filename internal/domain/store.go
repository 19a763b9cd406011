package domain

import (
	"context"
	"time"
)

// EventStore is the persistence boundary behind the event registry.
// Implementations treat each call as atomic; SaveEvent and SaveRegistration must ignore
// writes whose Version is not newer than the stored one, since saves issued after the
// per-event critical section may arrive out of order.
type EventStore interface {
	LoadEvent(ctx context.Context, id string) (*Event, error)
	SaveEvent(ctx context.Context, event *Event) error
	ListEvents(ctx context.Context) ([]*Event, error)

	LoadRegistration(ctx context.Context, id string) (*Registration, error)
	SaveRegistration(ctx context.Context, reg *Registration) error
	// ListRegistrations returns the event's registrations in the given status ordered by sequence.
	ListRegistrations(ctx context.Context, eventID string, status RegistrationStatus) ([]*Registration, error)
	// ListWaitlist returns the event's waitlisted registrations ordered by sequence.
	ListWaitlist(ctx context.Context, eventID string) ([]*Registration, error)
	// MaxSequence returns the highest sequence ever issued for the event, cancelled
	// registrations included, or 0 when it has none.
	MaxSequence(ctx context.Context, eventID string) (int64, error)

	AppendAudit(ctx context.Context, entry *AuditEntry) error
}

// Audit actions recorded by the services.
const (
	AuditEventCreated          = "event.created"
	AuditEventPublished        = "event.published"
	AuditEventCancelled        = "event.cancelled"
	AuditEventCompleted        = "event.completed"
	AuditRegistrationConfirmed = "registration.confirmed"
	AuditRegistrationWaitlist  = "registration.waitlisted"
	AuditRegistrationCancelled = "registration.cancelled"
	AuditRegistrationPromoted  = "registration.promoted"
	AuditSimulationRun         = "event.simulated"
)

// AuditEntry records who did what to which entity.
type AuditEntry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Timestamp  time.Time `json:"timestamp"`
}
