// Package waitlist implements the per-event FIFO queue of waitlisted registrations.
package waitlist

import (
	"container/list"
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned by PeekHead and PopHead on an empty queue.
	ErrEmpty = errors.New("waitlist is empty")
	// ErrOutOfOrder is returned when an entry is enqueued with a sequence not above the tail.
	ErrOutOfOrder = errors.New("waitlist sequence out of order")
	// ErrDuplicate is returned when a registration is enqueued twice.
	ErrDuplicate = errors.New("registration already waitlisted")
)

// Entry is a position reference into the registry, never the registration itself.
type Entry struct {
	RegistrationID string
	Sequence       int64
}

// Queue keeps entries ordered by sequence number. Enqueue only accepts increasing
// sequences, so insertion order is sequence order and the head is always the lowest.
//
// A Queue is not safe for concurrent use; the owning event's critical section guards it.
type Queue struct {
	order *list.List
	index map[string]*list.Element
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{
		order: list.New(),
		index: make(map[string]*list.Element),
	}
}

// Enqueue appends registrationID with the given sequence.
func (q *Queue) Enqueue(registrationID string, sequence int64) error {
	if _, ok := q.index[registrationID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, registrationID)
	}
	if tail := q.order.Back(); tail != nil {
		if last := tail.Value.(Entry).Sequence; sequence <= last {
			return fmt.Errorf("%w: %d after %d", ErrOutOfOrder, sequence, last)
		}
	}
	q.index[registrationID] = q.order.PushBack(Entry{RegistrationID: registrationID, Sequence: sequence})
	return nil
}

// PeekHead returns the lowest-sequence entry without removing it.
func (q *Queue) PeekHead() (Entry, error) {
	front := q.order.Front()
	if front == nil {
		return Entry{}, ErrEmpty
	}
	return front.Value.(Entry), nil
}

// PopHead removes and returns the lowest-sequence entry.
func (q *Queue) PopHead() (Entry, error) {
	front := q.order.Front()
	if front == nil {
		return Entry{}, ErrEmpty
	}
	e := q.order.Remove(front).(Entry)
	delete(q.index, e.RegistrationID)
	return e, nil
}

// Remove deletes registrationID wherever it sits. It reports whether the entry was present.
func (q *Queue) Remove(registrationID string) bool {
	el, ok := q.index[registrationID]
	if !ok {
		return false
	}
	q.order.Remove(el)
	delete(q.index, registrationID)
	return true
}

// Contains reports whether registrationID is queued.
func (q *Queue) Contains(registrationID string) bool {
	_, ok := q.index[registrationID]
	return ok
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	return q.order.Len()
}

// Entries returns the queue contents head first.
func (q *Queue) Entries() []Entry {
	out := make([]Entry, 0, q.order.Len())
	for el := q.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(Entry))
	}
	return out
}
