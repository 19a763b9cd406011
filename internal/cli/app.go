package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"eventregistration/config"
	"eventregistration/internal/adapters/email"
	"eventregistration/internal/domain"
	"eventregistration/internal/repository/memory"
	"eventregistration/internal/repository/postgres"
	"eventregistration/internal/services"
)

// app is the wired engine: store, registry, reservations and simulator.
type app struct {
	registry     *services.EventRegistry
	reservations *services.ReservationService
	simulator    *services.Simulator
	db           *sql.DB
}

func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// newApp opens the configured store, loads stored events into memory and wires the services.
// Without DATABASE_URL the in-memory store is used.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}
	var store domain.EventStore
	if cfg.UseDatabase() {
		db, err := postgres.Open(ctx, cfg.DBDriver, cfg.DBUrl, logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		store = postgres.NewStore(db)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		store = memory.NewStore()
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.registry = services.NewEventRegistry(store, services.NewEventLocks(), logger, cfg.ContextTimeout)
	n, err := a.registry.Hydrate(ctx)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("hydrate events: %w", err)
	}
	logger.InfoContext(ctx, "events loaded", "count", n)

	a.reservations = services.NewReservationService(a.registry, notifier, logger)
	a.simulator = services.NewSimulator(a.reservations, a.registry, services.SimulationConfig{
		MaxUsers:       cfg.Simulation.MaxUsers,
		MaxWorkers:     cfg.Simulation.MaxWorkers,
		DefaultTimeout: cfg.Simulation.Timeout,
	}, logger)
	return a, nil
}

func newNotifier(cfg *config.Config, logger *slog.Logger) (domain.NotificationService, error) {
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	return services.NewEmailService(mailer, renderer, logger), nil
}
