package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"eventregistration/internal/domain"
	"eventregistration/internal/waitlist"

	"github.com/google/uuid"
)

// eventRecord is the authoritative in-memory state of one event. Every field except
// view is guarded by the event's mutex in EventLocks.
type eventRecord struct {
	event    domain.Event
	regs     map[string]*domain.Registration
	active   map[string]string // user ID -> active registration ID
	waitlist *waitlist.Queue
	lastSeq  int64

	// view is replaced after every transition so readers never take the lock.
	view atomic.Pointer[eventView]
}

type eventView struct {
	event      domain.Event
	waitlisted int
}

// newEventRecord rebuilds an event's state. lastSeq is the highest sequence already
// issued for it, which may belong to a cancelled registration that is not loaded.
func newEventRecord(ev domain.Event, confirmed, waitlisted []*domain.Registration, lastSeq int64) (*eventRecord, error) {
	rec := &eventRecord{
		event:    ev,
		lastSeq:  lastSeq,
		regs:     make(map[string]*domain.Registration, len(confirmed)+len(waitlisted)),
		active:   make(map[string]string, len(confirmed)+len(waitlisted)),
		waitlist: waitlist.New(),
	}
	if len(confirmed) > ev.Capacity {
		return nil, fmt.Errorf("event %s has %d confirmed registrations for %d seats: %w",
			ev.ID, len(confirmed), ev.Capacity, domain.ErrOverbooked)
	}
	rec.event.ConfirmedCount = len(confirmed)
	for _, r := range confirmed {
		rec.add(r)
	}
	for _, r := range waitlisted {
		if err := rec.waitlist.Enqueue(r.ID, r.Sequence); err != nil {
			return nil, fmt.Errorf("rebuild waitlist of event %s: %w", ev.ID, err)
		}
		rec.add(r)
	}
	rec.publish()
	return rec, nil
}

func (rec *eventRecord) add(r *domain.Registration) {
	rec.regs[r.ID] = r
	if r.IsActive() {
		rec.active[r.UserID] = r.ID
	}
	rec.lastSeq = max(rec.lastSeq, r.Sequence)
}

func (rec *eventRecord) setStatus(r *domain.Registration, status domain.RegistrationStatus, now time.Time) {
	r.Status = status
	r.Version++
	r.UpdatedAt = now
	if !r.IsActive() && rec.active[r.UserID] == r.ID {
		delete(rec.active, r.UserID)
	}
}

func (rec *eventRecord) touch(now time.Time) {
	rec.event.Version++
	rec.event.UpdatedAt = now
}

// checkInvariant panics when the seat count left the [0, capacity] range. Reaching it
// means the critical section was bypassed, and no caller can recover from that.
func (rec *eventRecord) checkInvariant() {
	if rec.event.ConfirmedCount < 0 || rec.event.ConfirmedCount > rec.event.Capacity {
		panic(fmt.Errorf("%w: event %s has %d confirmed of %d",
			domain.ErrOverbooked, rec.event.ID, rec.event.ConfirmedCount, rec.event.Capacity))
	}
}

// publish stores a fresh read view and returns the event copy it holds.
func (rec *eventRecord) publish() domain.Event {
	v := &eventView{event: rec.event, waitlisted: rec.waitlist.Len()}
	rec.view.Store(v)
	return v.event
}

const defaultStoreTimeout = 5 * time.Second

// EventRegistry owns every event record and the registration index. It implements
// domain.EventService; seat changes go through ReservationService, which shares its state.
type EventRegistry struct {
	store          domain.EventStore
	locks          *EventLocks
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time

	mu     sync.RWMutex
	events map[string]*eventRecord

	regIndex sync.Map // registration ID -> event ID
}

// NewEventRegistry returns an empty registry backed by store. Events already in the
// store are loaded on first access or all at once with Hydrate.
func NewEventRegistry(store domain.EventStore, locks *EventLocks, logger *slog.Logger, timeout time.Duration) *EventRegistry {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &EventRegistry{
		store:          store,
		locks:          locks,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
		events:         make(map[string]*eventRecord),
	}
}

var _ domain.EventService = (*EventRegistry)(nil)

// Hydrate loads every stored event that is not in memory yet and returns how many it loaded.
func (r *EventRegistry) Hydrate(ctx context.Context) (int, error) {
	events, err := r.store.ListEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}
	loaded := 0
	for _, ev := range events {
		if r.lookup(ev.ID) != nil {
			continue
		}
		rec, err := r.build(ctx, ev)
		if err != nil {
			return loaded, err
		}
		r.install(rec)
		loaded++
	}
	r.logger.InfoContext(ctx, "registry hydrated", "events", loaded)
	return loaded, nil
}

func (r *EventRegistry) Create(ctx context.Context, caller domain.Principal, in domain.CreateEventInput) (*domain.Event, error) {
	if err := domain.Authorize(domain.OpCreateEvent, caller, ""); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if in.Capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidCapacity, in.Capacity)
	}

	ev := domain.NewEvent(title, strings.TrimSpace(in.Description), strings.TrimSpace(in.Location),
		in.EventDate, in.Capacity, caller.UserID, r.now())
	ev.ID = uuid.NewString()

	sctx, cancel := context.WithTimeout(ctx, r.contextTimeout)
	defer cancel()
	if err := r.store.SaveEvent(sctx, ev); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}

	rec, err := newEventRecord(*ev, nil, nil, 0)
	if err != nil {
		return nil, err
	}
	r.install(rec)
	r.audit(ctx, caller.UserID, domain.AuditEventCreated, "event", ev.ID)
	r.logger.InfoContext(ctx, "event created", "event_id", ev.ID, "owner_id", ev.OwnerID, "capacity", ev.Capacity)
	return ev, nil
}

func (r *EventRegistry) Publish(ctx context.Context, eventID string, caller domain.Principal) (*domain.Event, error) {
	return r.transition(ctx, eventID, caller, domain.EventStatusPublished, domain.AuditEventPublished)
}

// Cancel cancels the event. Existing registrations keep their status; no new ones are accepted.
func (r *EventRegistry) Cancel(ctx context.Context, eventID string, caller domain.Principal) (*domain.Event, error) {
	return r.transition(ctx, eventID, caller, domain.EventStatusCancelled, domain.AuditEventCancelled)
}

func (r *EventRegistry) Complete(ctx context.Context, eventID string, caller domain.Principal) (*domain.Event, error) {
	return r.transition(ctx, eventID, caller, domain.EventStatusCompleted, domain.AuditEventCompleted)
}

func (r *EventRegistry) transition(ctx context.Context, eventID string, caller domain.Principal, to domain.EventStatus, action string) (*domain.Event, error) {
	rec, err := r.record(ctx, eventID)
	if err != nil {
		return nil, err
	}

	snap, err := func() (domain.Event, error) {
		unlock := r.locks.Lock(eventID)
		defer unlock()

		if err := domain.Authorize(domain.OpManageEvent, caller, rec.event.OwnerID); err != nil {
			return domain.Event{}, err
		}
		from := rec.event.Status
		if !from.CanTransition(to) {
			return domain.Event{}, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, from, to)
		}
		rec.event.Status = to
		rec.touch(r.now())
		return rec.publish(), nil
	}()
	if err != nil {
		return nil, err
	}

	r.persistEvent(ctx, &snap)
	r.audit(ctx, caller.UserID, action, "event", eventID)
	r.logger.InfoContext(ctx, "event status changed", "event_id", eventID, "status", to)
	return &snap, nil
}

// Get returns the latest published snapshot of the event.
func (r *EventRegistry) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	rec, err := r.record(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ev := rec.view.Load().event
	return &ev, nil
}

// ListPublished pages through published events ordered by event date.
func (r *EventRegistry) ListPublished(_ context.Context, page domain.PaginationParams) ([]*domain.Event, int, error) {
	var out []*domain.Event
	for _, v := range r.views() {
		if v.event.Status == domain.EventStatusPublished {
			ev := v.event
			out = append(out, &ev)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Event) int {
		if c := a.EventDate.Compare(b.EventDate); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	total := len(out)
	start, end := page.Bounds(total)
	return out[start:end], total, nil
}

// ListByOwner returns the caller's events with their counts, newest first.
func (r *EventRegistry) ListByOwner(_ context.Context, caller domain.Principal) ([]*domain.EventStats, error) {
	if err := domain.Authorize(domain.OpListOwnEvents, caller, ""); err != nil {
		return nil, err
	}
	out := []*domain.EventStats{}
	for _, v := range r.views() {
		if v.event.OwnerID != caller.UserID {
			continue
		}
		ev := v.event
		out = append(out, domain.NewEventStats(&ev, v.waitlisted))
	}
	slices.SortFunc(out, func(a, b *domain.EventStats) int {
		return b.Event.CreatedAt.Compare(a.Event.CreatedAt)
	})
	return out, nil
}

// Stats returns the event's analytics. Only the owner or an admin may read them.
func (r *EventRegistry) Stats(ctx context.Context, eventID string, caller domain.Principal) (*domain.EventStats, error) {
	rec, err := r.record(ctx, eventID)
	if err != nil {
		return nil, err
	}
	v := rec.view.Load()
	if err := domain.Authorize(domain.OpManageEvent, caller, v.event.OwnerID); err != nil {
		return nil, err
	}
	ev := v.event
	return domain.NewEventStats(&ev, v.waitlisted), nil
}

func (r *EventRegistry) views() []*eventView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*eventView, 0, len(r.events))
	for _, rec := range r.events {
		out = append(out, rec.view.Load())
	}
	return out
}

func (r *EventRegistry) lookup(eventID string) *eventRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.events[eventID]
}

// record returns the in-memory record of eventID, loading it from the store on a miss.
func (r *EventRegistry) record(ctx context.Context, eventID string) (*eventRecord, error) {
	if rec := r.lookup(eventID); rec != nil {
		return rec, nil
	}
	sctx, cancel := context.WithTimeout(ctx, r.contextTimeout)
	defer cancel()
	ev, err := r.store.LoadEvent(sctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load event %s: %w", eventID, err)
	}
	rec, err := r.build(sctx, ev)
	if err != nil {
		return nil, err
	}
	return r.install(rec), nil
}

func (r *EventRegistry) build(ctx context.Context, ev *domain.Event) (*eventRecord, error) {
	confirmed, err := r.store.ListRegistrations(ctx, ev.ID, domain.RegistrationStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("list confirmed registrations of %s: %w", ev.ID, err)
	}
	queued, err := r.store.ListWaitlist(ctx, ev.ID)
	if err != nil {
		return nil, fmt.Errorf("list waitlist of %s: %w", ev.ID, err)
	}
	lastSeq, err := r.store.MaxSequence(ctx, ev.ID)
	if err != nil {
		return nil, fmt.Errorf("read last sequence of %s: %w", ev.ID, err)
	}
	if len(confirmed) != ev.ConfirmedCount {
		r.logger.WarnContext(ctx, "stored seat count differs from confirmed registrations",
			"event_id", ev.ID, "stored", ev.ConfirmedCount, "confirmed", len(confirmed))
	}
	return newEventRecord(*ev, confirmed, queued, lastSeq)
}

// install registers rec unless another goroutine got there first, and returns the winner.
func (r *EventRegistry) install(rec *eventRecord) *eventRecord {
	id := rec.event.ID
	r.mu.Lock()
	if cur, ok := r.events[id]; ok {
		r.mu.Unlock()
		return cur
	}
	r.events[id] = rec
	r.mu.Unlock()

	for regID := range rec.regs {
		r.regIndex.Store(regID, id)
	}
	return rec
}

// locate resolves the event a registration belongs to.
func (r *EventRegistry) locate(ctx context.Context, registrationID string) (string, error) {
	if v, ok := r.regIndex.Load(registrationID); ok {
		return v.(string), nil
	}
	sctx, cancel := context.WithTimeout(ctx, r.contextTimeout)
	defer cancel()
	reg, err := r.store.LoadRegistration(sctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("registration %s: %w", registrationID, domain.ErrNotFound)
		}
		return "", fmt.Errorf("load registration %s: %w", registrationID, err)
	}
	return reg.EventID, nil
}

// persistEvent writes a committed snapshot. The transition already happened in memory,
// so failures are logged rather than returned.
func (r *EventRegistry) persistEvent(ctx context.Context, ev *domain.Event) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.contextTimeout)
	defer cancel()
	if err := r.store.SaveEvent(sctx, ev); err != nil {
		r.logger.ErrorContext(ctx, "persist event failed", "event_id", ev.ID, "version", ev.Version, "error", err)
	}
}

func (r *EventRegistry) persistRegistration(ctx context.Context, reg *domain.Registration) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.contextTimeout)
	defer cancel()
	if err := r.store.SaveRegistration(sctx, reg); err != nil {
		r.logger.ErrorContext(ctx, "persist registration failed", "registration_id", reg.ID, "version", reg.Version, "error", err)
	}
}

func (r *EventRegistry) audit(ctx context.Context, actorID, action, entityType, entityID string) {
	entry := &domain.AuditEntry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  r.now(),
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.contextTimeout)
	defer cancel()
	if err := r.store.AppendAudit(sctx, entry); err != nil {
		r.logger.WarnContext(ctx, "append audit entry failed", "action", action, "entity_id", entityID, "error", err)
	}
}
