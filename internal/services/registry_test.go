package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventregistration/internal/domain"
	"eventregistration/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRegistry_Create(t *testing.T) {
	tests := []struct {
		name    string
		caller  domain.Principal
		in      domain.CreateEventInput
		wantErr error
	}{
		{
			name:    "attendee cannot create",
			caller:  attendee("u1"),
			in:      domain.CreateEventInput{Title: "x", Capacity: 1},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "blank title",
			caller:  organizer,
			in:      domain.CreateEventInput{Title: "  ", Capacity: 1},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "zero capacity",
			caller:  organizer,
			in:      domain.CreateEventInput{Title: "x", Capacity: 0},
			wantErr: domain.ErrInvalidCapacity,
		},
		{
			name:    "negative capacity",
			caller:  admin,
			in:      domain.CreateEventInput{Title: "x", Capacity: -3},
			wantErr: domain.ErrInvalidCapacity,
		},
		{
			name:   "organizer creates draft",
			caller: organizer,
			in:     domain.CreateEventInput{Title: " Meetup ", Capacity: 20, EventDate: testLater},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ev, err := env.registry.Create(context.Background(), tt.caller, tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, ev)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, ev.ID)
			assert.Equal(t, "Meetup", ev.Title)
			assert.Equal(t, domain.EventStatusDraft, ev.Status)
			assert.Equal(t, 0, ev.ConfirmedCount)
			assert.Equal(t, tt.caller.UserID, ev.OwnerID)

			stored, err := env.store.LoadEvent(context.Background(), ev.ID)
			require.NoError(t, err)
			assert.Equal(t, ev.ID, stored.ID)

			trail := env.store.AuditTrail()
			require.Len(t, trail, 1)
			assert.Equal(t, domain.AuditEventCreated, trail[0].Action)
		})
	}
}

func TestEventRegistry_StatusTransitions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	ev, err := env.registry.Create(ctx, organizer, domain.CreateEventInput{Title: "Conf", Capacity: 5})
	require.NoError(t, err)

	_, err = env.registry.Publish(ctx, ev.ID, otherOrganizer)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = env.registry.Complete(ctx, ev.ID, organizer)
	require.ErrorIs(t, err, domain.ErrInvalidTransition, "drafts cannot complete")

	published, err := env.registry.Publish(ctx, ev.ID, organizer)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusPublished, published.Status)
	assert.Greater(t, published.Version, ev.Version)

	_, err = env.registry.Publish(ctx, ev.ID, organizer)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	completed, err := env.registry.Complete(ctx, ev.ID, admin)
	require.NoError(t, err, "admin may manage any event")
	assert.Equal(t, domain.EventStatusCompleted, completed.Status)

	_, err = env.registry.Cancel(ctx, ev.ID, organizer)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = env.registry.Publish(ctx, "missing", organizer)
	require.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := env.store.LoadEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusCompleted, stored.Status)
}

func TestEventRegistry_CancelKeepsRegistrations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ev := env.publishedEvent(t, 1)

	first, err := env.reservations.Register(ctx, ev.ID, attendee("u1"))
	require.NoError(t, err)
	_, err = env.reservations.Register(ctx, ev.ID, attendee("u2"))
	require.NoError(t, err)

	cancelled, err := env.registry.Cancel(ctx, ev.ID, organizer)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusCancelled, cancelled.Status)
	assert.Equal(t, 1, cancelled.ConfirmedCount)

	_, err = env.reservations.Register(ctx, ev.ID, attendee("u3"))
	require.ErrorIs(t, err, domain.ErrEventNotAvailable)

	// Seats freed on a cancelled event are not handed to the waitlist.
	res, err := env.reservations.Cancel(ctx, first.Registration.ID, attendee("u1"))
	require.NoError(t, err)
	assert.Nil(t, res.Promoted)
}

func TestEventRegistry_Reads(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	soon, err := env.registry.Create(ctx, organizer, domain.CreateEventInput{Title: "Soon", Capacity: 4, EventDate: testNow.Add(time.Hour)})
	require.NoError(t, err)
	later, err := env.registry.Create(ctx, otherOrganizer, domain.CreateEventInput{Title: "Later", Capacity: 2, EventDate: testLater})
	require.NoError(t, err)
	draft, err := env.registry.Create(ctx, organizer, domain.CreateEventInput{Title: "Draft", Capacity: 2})
	require.NoError(t, err)

	_, err = env.registry.Publish(ctx, later.ID, otherOrganizer)
	require.NoError(t, err)
	_, err = env.registry.Publish(ctx, soon.ID, organizer)
	require.NoError(t, err)

	t.Run("published list is ordered by date and paged", func(t *testing.T) {
		all, total, err := env.registry.ListPublished(ctx, domain.PaginationParams{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, all, 2)
		assert.Equal(t, soon.ID, all[0].ID)
		assert.Equal(t, later.ID, all[1].ID)

		second, total, err := env.registry.ListPublished(ctx, domain.PaginationParams{Page: 2, PageSize: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, second, 1)
		assert.Equal(t, later.ID, second[0].ID)
	})

	t.Run("owner list includes drafts", func(t *testing.T) {
		mine, err := env.registry.ListByOwner(ctx, organizer)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		ids := []string{mine[0].Event.ID, mine[1].Event.ID}
		assert.ElementsMatch(t, []string{soon.ID, draft.ID}, ids)

		_, err = env.registry.ListByOwner(ctx, attendee("u1"))
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("stats are owner scoped", func(t *testing.T) {
		_, err := env.reservations.Register(ctx, soon.ID, attendee("u1"))
		require.NoError(t, err)

		stats, err := env.registry.Stats(ctx, soon.ID, organizer)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.ConfirmedCount)
		assert.Equal(t, 3, stats.SeatsRemaining)
		assert.InDelta(t, 25.0, stats.SeatsFilledPercentage, 0.001)

		_, err = env.registry.Stats(ctx, soon.ID, otherOrganizer)
		require.ErrorIs(t, err, domain.ErrUnauthorized)

		_, err = env.registry.Stats(ctx, soon.ID, admin)
		require.NoError(t, err)
	})

	t.Run("get unknown event", func(t *testing.T) {
		_, err := env.registry.Get(ctx, "nope")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func seedStore(t *testing.T) (*memory.Store, *domain.Event) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	ev := &domain.Event{
		ID:             "ev-1",
		Title:          "Stored",
		EventDate:      testLater,
		Capacity:       2,
		ConfirmedCount: 2,
		OwnerID:        organizer.UserID,
		Status:         domain.EventStatusPublished,
		Version:        4,
		CreatedAt:      testNow,
	}
	require.NoError(t, store.SaveEvent(ctx, ev))
	regs := []*domain.Registration{
		{ID: "r1", EventID: ev.ID, UserID: "u1", Status: domain.RegistrationStatusConfirmed, Sequence: 1, Version: 1},
		{ID: "r2", EventID: ev.ID, UserID: "u2", Status: domain.RegistrationStatusConfirmed, Sequence: 2, Version: 1},
		{ID: "r3", EventID: ev.ID, UserID: "u3", Status: domain.RegistrationStatusCancelled, Sequence: 3, Version: 2},
		{ID: "r4", EventID: ev.ID, UserID: "u4", Status: domain.RegistrationStatusWaitlisted, Sequence: 4, Version: 1},
		{ID: "r5", EventID: ev.ID, UserID: "u5", Status: domain.RegistrationStatusWaitlisted, Sequence: 5, Version: 1},
	}
	for _, r := range regs {
		require.NoError(t, store.SaveRegistration(ctx, r))
	}
	return store, ev
}

func TestEventRegistry_Hydrate(t *testing.T) {
	ctx := context.Background()
	store, ev := seedStore(t)
	env := newTestEnvWithStore(t, store)

	n, err := env.registry.Hydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = env.registry.Hydrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "already loaded events are skipped")

	stats, err := env.registry.Stats(ctx, ev.ID, organizer)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ConfirmedCount)
	assert.Equal(t, 2, stats.WaitlistCount)

	_, err = env.reservations.Register(ctx, ev.ID, attendee("u1"))
	require.ErrorIs(t, err, domain.ErrAlreadyRegistered)

	res, err := env.reservations.Register(ctx, ev.ID, attendee("u3"))
	require.NoError(t, err, "a cancelled registrant may register again")
	assert.True(t, res.Waitlisted)
	assert.Equal(t, 3, res.Position)
	assert.Equal(t, int64(6), res.Registration.Sequence, "sequence continues after the stored maximum")

	cancel, err := env.reservations.Cancel(ctx, "r2", attendee("u2"))
	require.NoError(t, err)
	require.NotNil(t, cancel.Promoted)
	assert.Equal(t, "r4", cancel.Promoted.ID)
}

func TestEventRegistry_LazyLoad(t *testing.T) {
	ctx := context.Background()
	store, ev := seedStore(t)
	env := newTestEnvWithStore(t, store)

	// Cancel resolves the registration through the store and loads its event.
	res, err := env.reservations.Cancel(ctx, "r1", attendee("u1"))
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusCancelled, res.Cancelled.Status)
	require.NotNil(t, res.Promoted)
	assert.Equal(t, "r4", res.Promoted.ID)

	got, err := env.registry.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ConfirmedCount)

	_, err = env.reservations.Cancel(ctx, "r3", attendee("u3"))
	require.ErrorIs(t, err, domain.ErrNotFound, "registrations cancelled before loading are gone")
}

func TestEventRegistry_SequenceSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	first := newTestEnv(t)
	ev := first.publishedEvent(t, 1)

	_, err := first.reservations.Register(ctx, ev.ID, attendee("a"))
	require.NoError(t, err)
	b, err := first.reservations.Register(ctx, ev.ID, attendee("b"))
	require.NoError(t, err)
	require.True(t, b.Waitlisted)
	_, err = first.reservations.Cancel(ctx, b.Registration.ID, attendee("b"))
	require.NoError(t, err)

	restarted := newTestEnvWithStore(t, first.store)
	_, err = restarted.registry.Hydrate(ctx)
	require.NoError(t, err)

	c, err := restarted.reservations.Register(ctx, ev.ID, attendee("c"))
	require.NoError(t, err)
	assert.Greater(t, c.Registration.Sequence, b.Registration.Sequence, "cancelled sequences are not issued again")

	stored, err := first.store.LoadRegistration(ctx, c.Registration.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusWaitlisted, stored.Status)
	stored, err = first.store.LoadRegistration(ctx, b.Registration.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusCancelled, stored.Status)
}

func TestEventRegistry_HydrateRejectsOverbookedStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveEvent(ctx, &domain.Event{ID: "ev", Capacity: 1, Status: domain.EventStatusPublished, Version: 1}))
	for i, id := range []string{"a", "b"} {
		require.NoError(t, store.SaveRegistration(ctx, &domain.Registration{
			ID: id, EventID: "ev", UserID: id, Status: domain.RegistrationStatusConfirmed, Sequence: int64(i + 1), Version: 1,
		}))
	}
	env := newTestEnvWithStore(t, store)

	_, err := env.registry.Hydrate(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOverbooked))
}

func TestEventRecord_checkInvariant_panics(t *testing.T) {
	rec, err := newEventRecord(domain.Event{ID: "ev", Capacity: 1}, nil, nil, 0)
	require.NoError(t, err)
	rec.event.ConfirmedCount = 2

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, domain.ErrOverbooked)
	}()
	rec.checkInvariant()
}
