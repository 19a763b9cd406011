package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventregistration/internal/domain"

	"github.com/google/uuid"
)

// ReservationService performs every seat-changing operation. Each Register or Cancel
// runs entirely inside the event's critical section, promotion included.
type ReservationService struct {
	registry *EventRegistry
	notifier domain.NotificationService
	logger   *slog.Logger
	now      func() time.Time
}

// NewReservationService returns a service that mutates the records held by registry.
// notifier may be nil, in which case no emails are sent.
func NewReservationService(registry *EventRegistry, notifier domain.NotificationService, logger *slog.Logger) *ReservationService {
	return &ReservationService{
		registry: registry,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

var _ domain.ReservationService = (*ReservationService)(nil)

// Register confirms a seat for caller if one is free and waitlists them otherwise.
func (s *ReservationService) Register(ctx context.Context, eventID string, caller domain.Principal) (*domain.RegistrationResult, error) {
	if err := domain.Authorize(domain.OpRegister, caller, ""); err != nil {
		return nil, err
	}
	rec, err := s.registry.record(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrEventNotAvailable, err)
		}
		return nil, err
	}
	// Cheap rejection from the snapshot; the same check is repeated under the lock.
	if err := rec.view.Load().event.CheckAvailable(s.now()); err != nil {
		return nil, err
	}

	var (
		res       domain.RegistrationResult
		seatTaken bool
		snap      domain.Event
	)
	err = func() error {
		unlock := s.registry.locks.Lock(eventID)
		defer unlock()

		now := s.now()
		if err := rec.event.CheckAvailable(now); err != nil {
			return err
		}
		if _, ok := rec.active[caller.UserID]; ok {
			return domain.ErrAlreadyRegistered
		}

		rec.lastSeq++
		reg := &domain.Registration{
			ID:        uuid.NewString(),
			EventID:   eventID,
			UserID:    caller.UserID,
			UserEmail: caller.Email,
			Sequence:  rec.lastSeq,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if rec.event.ConfirmedCount < rec.event.Capacity {
			reg.Status = domain.RegistrationStatusConfirmed
			rec.event.ConfirmedCount++
			rec.touch(now)
			seatTaken = true
		} else {
			reg.Status = domain.RegistrationStatusWaitlisted
			if err := rec.waitlist.Enqueue(reg.ID, reg.Sequence); err != nil {
				return fmt.Errorf("enqueue registration: %w", err)
			}
			res.Waitlisted = true
			res.Position = rec.waitlist.Len()
		}
		rec.add(reg)
		s.registry.regIndex.Store(reg.ID, eventID)

		rec.checkInvariant()
		snap = rec.publish()
		out := *reg
		res.Registration = &out
		return nil
	}()
	if err != nil {
		return nil, err
	}

	if seatTaken {
		s.registry.persistEvent(ctx, &snap)
	}
	s.registry.persistRegistration(ctx, res.Registration)

	if res.Waitlisted {
		s.registry.audit(ctx, caller.UserID, domain.AuditRegistrationWaitlist, "registration", res.Registration.ID)
		s.logger.InfoContext(ctx, "registration waitlisted", "event_id", eventID, "registration_id", res.Registration.ID, "position", res.Position)
		s.notify(ctx, domain.NotificationService.SendWaitlisted, &snap, res.Registration, res.Position)
	} else {
		s.registry.audit(ctx, caller.UserID, domain.AuditRegistrationConfirmed, "registration", res.Registration.ID)
		s.logger.InfoContext(ctx, "registration confirmed", "event_id", eventID, "registration_id", res.Registration.ID, "seats_remaining", snap.SeatsRemaining())
		s.notify(ctx, domain.NotificationService.SendRegistrationConfirmed, &snap, res.Registration, 0)
	}
	return &res, nil
}

// Cancel cancels a registration. A freed seat goes to the head of the waitlist in the
// same critical section, so no concurrent Register can take it first.
func (s *ReservationService) Cancel(ctx context.Context, registrationID string, caller domain.Principal) (*domain.CancelResult, error) {
	eventID, err := s.registry.locate(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	rec, err := s.registry.record(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var (
		res         domain.CancelResult
		seatChanged bool
		snap        domain.Event
	)
	err = func() error {
		unlock := s.registry.locks.Lock(eventID)
		defer unlock()

		reg, ok := rec.regs[registrationID]
		if !ok {
			return fmt.Errorf("registration %s: %w", registrationID, domain.ErrNotFound)
		}
		if err := domain.Authorize(domain.OpCancelRegistration, caller, reg.UserID); err != nil {
			return err
		}
		if reg.Status == domain.RegistrationStatusCancelled {
			return fmt.Errorf("registration %s is already cancelled: %w", registrationID, domain.ErrNotFound)
		}

		now := s.now()
		wasConfirmed := reg.Status == domain.RegistrationStatusConfirmed
		if reg.Status == domain.RegistrationStatusWaitlisted {
			rec.waitlist.Remove(reg.ID)
		}
		rec.setStatus(reg, domain.RegistrationStatusCancelled, now)

		if wasConfirmed {
			rec.event.ConfirmedCount--
			if promoted := s.promoteHead(rec, now); promoted != nil {
				out := *promoted
				res.Promoted = &out
			}
			rec.touch(now)
			seatChanged = true
		}

		rec.checkInvariant()
		snap = rec.publish()
		out := *reg
		res.Cancelled = &out
		return nil
	}()
	if err != nil {
		return nil, err
	}

	if seatChanged {
		s.registry.persistEvent(ctx, &snap)
	}
	s.registry.persistRegistration(ctx, res.Cancelled)
	s.registry.audit(ctx, caller.UserID, domain.AuditRegistrationCancelled, "registration", registrationID)
	s.logger.InfoContext(ctx, "registration cancelled", "event_id", eventID, "registration_id", registrationID)

	if p := res.Promoted; p != nil {
		s.registry.persistRegistration(ctx, p)
		s.registry.audit(ctx, p.UserID, domain.AuditRegistrationPromoted, "registration", p.ID)
		s.logger.InfoContext(ctx, "waitlist promoted", "event_id", eventID, "registration_id", p.ID, "sequence", p.Sequence)
		s.notify(ctx, domain.NotificationService.SendWaitlistPromotion, &snap, p, 0)
	}
	return &res, nil
}

// promoteHead confirms the lowest-sequence waitlisted registration, if any. Promotion
// only happens while the event still accepts registrations. Caller holds the event lock.
func (s *ReservationService) promoteHead(rec *eventRecord, now time.Time) *domain.Registration {
	if rec.event.CheckAvailable(now) != nil {
		return nil
	}
	for rec.waitlist.Len() > 0 {
		entry, err := rec.waitlist.PopHead()
		if err != nil {
			return nil
		}
		reg, ok := rec.regs[entry.RegistrationID]
		if !ok || reg.Status != domain.RegistrationStatusWaitlisted {
			s.logger.Error("waitlist entry without waitlisted registration", "event_id", rec.event.ID, "registration_id", entry.RegistrationID)
			continue
		}
		rec.setStatus(reg, domain.RegistrationStatusConfirmed, now)
		rec.event.ConfirmedCount++
		return reg
	}
	return nil
}

type sendFunc func(domain.NotificationService, context.Context, *domain.RegistrationEmailData) error

// notify emails the registrant. Synthetic users carry no email and are skipped; send
// failures never undo the committed transition.
func (s *ReservationService) notify(ctx context.Context, send sendFunc, ev *domain.Event, reg *domain.Registration, position int) {
	if s.notifier == nil || reg.UserEmail == "" {
		return
	}
	data := &domain.RegistrationEmailData{
		Email:          reg.UserEmail,
		EventTitle:     ev.Title,
		EventLocation:  ev.Location,
		EventDate:      ev.EventDate,
		RegistrationID: reg.ID,
		Position:       position,
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.registry.contextTimeout)
	defer cancel()
	if err := send(s.notifier, sctx, data); err != nil {
		s.logger.WarnContext(ctx, "registration email failed", "registration_id", reg.ID, "error", err)
	}
}
