package domain

import (
	"context"
	"fmt"
	"time"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
	EventStatusCancelled EventStatus = "CANCELLED"
	EventStatusCompleted EventStatus = "COMPLETED"
)

// eventTransitions lists the allowed organizer-driven status changes.
var eventTransitions = map[EventStatus][]EventStatus{
	EventStatusDraft:     {EventStatusPublished, EventStatusCancelled},
	EventStatusPublished: {EventStatusCancelled, EventStatusCompleted},
}

// CanTransition reports whether an event in status s may move to status to.
func (s EventStatus) CanTransition(to EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Event represents a fixed-capacity event.
// swagger:model Event
type Event struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Location       string      `json:"location"`
	EventDate      time.Time   `json:"event_date"`
	Capacity       int         `json:"capacity"`
	ConfirmedCount int         `json:"confirmed_count"`
	OwnerID        string      `json:"owner_id"`
	Status         EventStatus `json:"status"`
	Version        int64       `json:"version"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// NewEvent returns a Draft event with no confirmed seats. ID is set by the registry.
func NewEvent(title, description, location string, eventDate time.Time, capacity int, ownerID string, createdAt time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Location:    location,
		EventDate:   eventDate,
		Capacity:    capacity,
		OwnerID:     ownerID,
		Status:      EventStatusDraft,
		Version:     1,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// SeatsRemaining returns capacity minus confirmed seats, never below zero.
func (e *Event) SeatsRemaining() int {
	if r := e.Capacity - e.ConfirmedCount; r > 0 {
		return r
	}
	return 0
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.ConfirmedCount >= e.Capacity
}

// CheckAvailable returns ErrEventNotAvailable unless the event is published and has not started yet.
func (e *Event) CheckAvailable(now time.Time) error {
	if e.Status != EventStatusPublished {
		return fmt.Errorf("%w: event is %s", ErrEventNotAvailable, e.Status)
	}
	if !e.EventDate.IsZero() && e.EventDate.Before(now) {
		return fmt.Errorf("%w: event has already taken place", ErrEventNotAvailable)
	}
	return nil
}

// EventStats bundles an event with its registration counts.
// swagger:model EventStats
type EventStats struct {
	Event                 *Event  `json:"event"`
	ConfirmedCount        int     `json:"confirmed_count"`
	WaitlistCount         int     `json:"waitlist_count"`
	TotalRegistrations    int     `json:"total_registrations"`
	SeatsRemaining        int     `json:"seats_remaining"`
	SeatsFilledPercentage float64 `json:"seats_filled_percentage"`
}

// NewEventStats computes the derived counts for event e with waitlisted pending registrants.
func NewEventStats(e *Event, waitlisted int) *EventStats {
	var filled float64
	if e.Capacity > 0 {
		filled = float64(e.ConfirmedCount) / float64(e.Capacity) * 100
	}
	return &EventStats{
		Event:                 e,
		ConfirmedCount:        e.ConfirmedCount,
		WaitlistCount:         waitlisted,
		TotalRegistrations:    e.ConfirmedCount + waitlisted,
		SeatsRemaining:        e.SeatsRemaining(),
		SeatsFilledPercentage: filled,
	}
}

// CreateEventInput carries the organizer-supplied fields of a new event.
type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	EventDate   time.Time
	Capacity    int
}

// EventService defines organizer and read operations on the event registry.
type EventService interface {
	Create(ctx context.Context, caller Principal, in CreateEventInput) (*Event, error)
	Publish(ctx context.Context, eventID string, caller Principal) (*Event, error)
	Cancel(ctx context.Context, eventID string, caller Principal) (*Event, error)
	Complete(ctx context.Context, eventID string, caller Principal) (*Event, error)
	Get(ctx context.Context, eventID string) (*Event, error)
	ListPublished(ctx context.Context, page PaginationParams) ([]*Event, int, error)
	ListByOwner(ctx context.Context, caller Principal) ([]*EventStats, error)
	Stats(ctx context.Context, eventID string, caller Principal) (*EventStats, error)
}
