package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"eventregistration/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SimulationConfig bounds simulation runs.
type SimulationConfig struct {
	MaxUsers       int
	MaxWorkers     int
	DefaultTimeout time.Duration
}

// Simulator drives concurrent synthetic registrations through the real ReservationService.
type Simulator struct {
	reservations *ReservationService
	registry     *EventRegistry
	cfg          SimulationConfig
	logger       *slog.Logger
	now          func() time.Time
}

func NewSimulator(reservations *ReservationService, registry *EventRegistry, cfg SimulationConfig, logger *slog.Logger) *Simulator {
	return &Simulator{
		reservations: reservations,
		registry:     registry,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

var _ domain.Simulator = (*Simulator)(nil)

// Simulate issues userCount registrations for eventID, one per synthetic user, from a
// bounded worker pool. When timeout elapses no further attempts are started; attempts
// already handed to a worker finish and are counted. On timeout the partial result is
// returned together with an error wrapping domain.ErrTimeout. When ctx itself is
// cancelled first, the partial result is returned with an error wrapping ctx's cause.
func (s *Simulator) Simulate(ctx context.Context, eventID string, userCount int, timeout time.Duration, caller domain.Principal) (*domain.SimulationResult, error) {
	if err := domain.Authorize(domain.OpSimulate, caller, ""); err != nil {
		return nil, err
	}
	if userCount <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidUserCount, userCount)
	}
	if s.cfg.MaxUsers > 0 && userCount > s.cfg.MaxUsers {
		return nil, fmt.Errorf("%w: got %d, at most %d allowed", domain.ErrInvalidUserCount, userCount, s.cfg.MaxUsers)
	}
	ev, err := s.registry.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrEventNotAvailable, err)
		}
		return nil, err
	}
	if err := ev.CheckAvailable(s.now()); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = s.cfg.DefaultTimeout
	}
	workers := userCount
	if s.cfg.MaxWorkers > 0 {
		workers = min(userCount, s.cfg.MaxWorkers)
	}

	users := make([]domain.Principal, userCount)
	for i := range users {
		users[i] = domain.Principal{UserID: "sim-" + uuid.NewString(), Role: domain.RoleAttendee}
	}

	s.logger.InfoContext(ctx, "simulation started", "event_id", eventID, "users", userCount, "workers", workers, "timeout", timeout)
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	// Attempts outlive the dispatch deadline so an issued attempt always completes.
	attemptCtx := context.WithoutCancel(ctx)

	var success, waitlisted, failed atomic.Int64
	jobs := make(chan domain.Principal)
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for user := range jobs {
				res, err := s.reservations.Register(attemptCtx, eventID, user)
				switch {
				case err != nil:
					failed.Add(1)
					s.logger.DebugContext(ctx, "simulated registration failed", "event_id", eventID, "user_id", user.UserID, "error", err)
				case res.Waitlisted:
					waitlisted.Add(1)
				default:
					success.Add(1)
				}
			}
			return nil
		})
	}

	attempted, stopped := dispatch(runCtx, jobs, users)
	close(jobs)
	_ = g.Wait()
	interrupted := stopped && ctx.Err() != nil
	timedOut := stopped && !interrupted

	final, err := s.registry.Get(attemptCtx, eventID)
	if err != nil {
		return nil, fmt.Errorf("read final event state: %w", err)
	}
	result := &domain.SimulationResult{
		TotalAttempted:      attempted,
		SuccessCount:        int(success.Load()),
		WaitlistedCount:     int(waitlisted.Load()),
		FailedCount:         int(failed.Load()),
		FinalSeatsRemaining: final.SeatsRemaining(),
		RequestedUsers:      userCount,
		TimedOut:            timedOut,
		InvariantHeld:       final.ConfirmedCount >= 0 && final.ConfirmedCount <= final.Capacity,
		DurationMs:          time.Since(start).Milliseconds(),
	}
	if !result.InvariantHeld {
		s.logger.ErrorContext(ctx, "capacity invariant violated", "event_id", eventID, "confirmed", final.ConfirmedCount, "capacity", final.Capacity)
	}
	s.registry.audit(ctx, caller.UserID, domain.AuditSimulationRun, "event", eventID)
	s.logger.InfoContext(ctx, "simulation finished",
		"event_id", eventID,
		"attempted", result.TotalAttempted,
		"confirmed", result.SuccessCount,
		"waitlisted", result.WaitlistedCount,
		"failed", result.FailedCount,
		"timed_out", timedOut,
		"interrupted", interrupted,
		"duration_ms", result.DurationMs,
	)

	if interrupted {
		return result, fmt.Errorf("simulation interrupted after %d of %d attempts: %w", attempted, userCount, context.Cause(ctx))
	}
	if timedOut {
		return result, fmt.Errorf("%w: %d of %d attempts issued within %s", domain.ErrTimeout, attempted, userCount, timeout)
	}
	return result, nil
}

// dispatch hands users to the workers until all are taken or ctx is done.
func dispatch(ctx context.Context, jobs chan<- domain.Principal, users []domain.Principal) (sent int, stopped bool) {
	for _, u := range users {
		if ctx.Err() != nil {
			return sent, true
		}
		select {
		case jobs <- u:
			sent++
		case <-ctx.Done():
			return sent, true
		}
	}
	return sent, false
}
