package services

import "sync"

// EventLocks hands out one mutex per event ID. A mutex is created the first time its
// event is locked and is never shared with another event, so transitions on different
// events never wait on each other.
type EventLocks struct {
	m sync.Map // event ID -> *sync.Mutex
}

// NewEventLocks returns an empty lock table.
func NewEventLocks() *EventLocks {
	return &EventLocks{}
}

// Lock enters the critical section of eventID and returns the function that leaves it.
func (l *EventLocks) Lock(eventID string) (unlock func()) {
	v, ok := l.m.Load(eventID)
	if !ok {
		v, _ = l.m.LoadOrStore(eventID, &sync.Mutex{})
	}
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// TryLock is like Lock but returns ok=false instead of waiting when the section is held.
func (l *EventLocks) TryLock(eventID string) (unlock func(), ok bool) {
	v, _ := l.m.LoadOrStore(eventID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, false
	}
	return mu.Unlock, true
}
