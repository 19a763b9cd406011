// Package memory provides a process-local domain.EventStore, used when no database is configured.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"eventregistration/internal/domain"
)

// Store is a mutex-guarded EventStore keeping records by value.
type Store struct {
	mu            sync.RWMutex
	events        map[string]domain.Event
	registrations map[string]domain.Registration
	audit         []domain.AuditEntry
}

// NewStore returns an empty in-memory EventStore. Records are copied on the way in and out.
func NewStore() *Store {
	return &Store{
		events:        make(map[string]domain.Event),
		registrations: make(map[string]domain.Registration),
	}
}

func (s *Store) LoadEvent(_ context.Context, id string) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (s *Store) SaveEvent(_ context.Context, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.events[event.ID]; ok && cur.Version >= event.Version {
		return nil
	}
	s.events[event.ID] = *event
	return nil
}

func (s *Store) ListEvents(_ context.Context) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, &e)
	}
	slices.SortFunc(out, func(a, b *domain.Event) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *Store) LoadRegistration(_ context.Context, id string) (*domain.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.registrations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (s *Store) SaveRegistration(_ context.Context, reg *domain.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[reg.EventID]; !ok {
		return domain.ErrNotFound
	}
	if cur, ok := s.registrations[reg.ID]; ok && cur.Version >= reg.Version {
		return nil
	}
	s.registrations[reg.ID] = *reg
	return nil
}

func (s *Store) ListRegistrations(_ context.Context, eventID string, status domain.RegistrationStatus) ([]*domain.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Registration
	for _, r := range s.registrations {
		if r.EventID == eventID && r.Status == status {
			out = append(out, &r)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Registration) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	if out == nil {
		out = []*domain.Registration{}
	}
	return out, nil
}

func (s *Store) ListWaitlist(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	return s.ListRegistrations(ctx, eventID, domain.RegistrationStatusWaitlisted)
}

func (s *Store) MaxSequence(_ context.Context, eventID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var seq int64
	for _, r := range s.registrations {
		if r.EventID == eventID {
			seq = max(seq, r.Sequence)
		}
	}
	return seq, nil
}

func (s *Store) AppendAudit(_ context.Context, entry *domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, *entry)
	return nil
}

// AuditTrail returns a copy of the recorded audit entries in append order.
func (s *Store) AuditTrail() []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.audit)
}
