package cli

import (
	"context"
	"fmt"
	"time"

	"eventregistration/internal/domain"
)

// demoOrganizer owns the seeded events.
var demoOrganizer = domain.Principal{UserID: "demo-organizer", Email: "organizer@example.com", Role: domain.RoleOrganizer}

type demoEvent struct {
	in      domain.CreateEventInput
	publish bool
}

// seedDemoEvents creates a small catalogue for local development: two published events
// (one tiny, to exercise the waitlist) and one draft.
func seedDemoEvents(ctx context.Context, events domain.EventService, now time.Time) ([]*domain.Event, error) {
	day := 24 * time.Hour
	demos := []demoEvent{
		{in: domain.CreateEventInput{
			Title:       "Go Concurrency Workshop",
			Description: "Hands-on session on goroutines, channels and the race detector.",
			Location:    "Room A",
			EventDate:   now.Add(14 * day).Truncate(time.Hour),
			Capacity:    30,
		}, publish: true},
		{in: domain.CreateEventInput{
			Title:       "Founders Breakfast",
			Description: "Five seats. Everyone else joins the waitlist.",
			Location:    "Cafe",
			EventDate:   now.Add(7 * day).Truncate(time.Hour),
			Capacity:    5,
		}, publish: true},
		{in: domain.CreateEventInput{
			Title:     "Year End Meetup",
			Location:  "Main Hall",
			EventDate: now.Add(60 * day).Truncate(time.Hour),
			Capacity:  200,
		}},
	}

	created := make([]*domain.Event, 0, len(demos))
	for _, d := range demos {
		ev, err := events.Create(ctx, demoOrganizer, d.in)
		if err != nil {
			return created, fmt.Errorf("create %q: %w", d.in.Title, err)
		}
		if d.publish {
			if ev, err = events.Publish(ctx, ev.ID, demoOrganizer); err != nil {
				return created, fmt.Errorf("publish %q: %w", d.in.Title, err)
			}
		}
		created = append(created, ev)
	}
	return created, nil
}
