package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"eventregistration/internal/domain"
	"eventregistration/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

var (
	testNow   = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	testLater = testNow.Add(30 * 24 * time.Hour)

	organizer      = domain.Principal{UserID: "org-1", Email: "org@example.com", Role: domain.RoleOrganizer}
	otherOrganizer = domain.Principal{UserID: "org-2", Role: domain.RoleOrganizer}
	admin          = domain.Principal{UserID: "admin-1", Role: domain.RoleAdmin}
)

func attendee(id string) domain.Principal {
	return domain.Principal{UserID: id, Role: domain.RoleAttendee}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	store        *memory.Store
	locks        *EventLocks
	registry     *EventRegistry
	reservations *ReservationService
	notifier     *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, memory.NewStore())
}

func newTestEnvWithStore(t *testing.T, store *memory.Store) *testEnv {
	t.Helper()
	locks := NewEventLocks()
	registry := NewEventRegistry(store, locks, discardLogger(), time.Second)
	registry.now = func() time.Time { return testNow }
	notifier := &fakeNotifier{}
	reservations := NewReservationService(registry, notifier, discardLogger())
	reservations.now = func() time.Time { return testNow }
	return &testEnv{store: store, locks: locks, registry: registry, reservations: reservations, notifier: notifier}
}

// publishedEvent creates and publishes an event owned by organizer.
func (e *testEnv) publishedEvent(t *testing.T, capacity int) *domain.Event {
	t.Helper()
	ctx := context.Background()
	ev, err := e.registry.Create(ctx, organizer, domain.CreateEventInput{
		Title:     "GopherCon",
		Location:  "Berlin",
		EventDate: testLater,
		Capacity:  capacity,
	})
	require.NoError(t, err)
	ev, err = e.registry.Publish(ctx, ev.ID, organizer)
	require.NoError(t, err)
	return ev
}

type sentEmail struct {
	kind string
	data domain.RegistrationEmailData
}

// fakeNotifier records every notification it is asked to send.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeNotifier) record(kind string, data *domain.RegistrationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{kind: kind, data: *data})
	return f.err
}

func (f *fakeNotifier) SendRegistrationConfirmed(_ context.Context, data *domain.RegistrationEmailData) error {
	return f.record("confirmed", data)
}

func (f *fakeNotifier) SendWaitlisted(_ context.Context, data *domain.RegistrationEmailData) error {
	return f.record("waitlisted", data)
}

func (f *fakeNotifier) SendWaitlistPromotion(_ context.Context, data *domain.RegistrationEmailData) error {
	return f.record("promoted", data)
}

func (f *fakeNotifier) emails() []sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentEmail, len(f.sent))
	copy(out, f.sent)
	return out
}
