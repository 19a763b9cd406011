package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"eventregistration/internal/adapters/auth"
	delivery "eventregistration/internal/delivery/http"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Seed bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the event registration HTTP API.

Stored events are loaded into memory before the listener opens. Without
DATABASE_URL an in-memory store is used and nothing survives a restart.

Example:
  eventreg serve
  eventreg serve --seed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "create demo events on start")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	cfg, logger, err := opts.setup()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required to verify bearer tokens")
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.Seed {
		if _, err := seedDemoEvents(ctx, a.registry, time.Now()); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.InfoContext(ctx, "demo events seeded")
	}

	handler := delivery.NewRouter(delivery.RouterDeps{
		Logger:         logger,
		Verifier:       auth.NewJWTVerifier(cfg.JWTSecret),
		Events:         a.registry,
		Reservations:   a.reservations,
		Simulator:      a.simulator,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Simulations may run up to their configured timeout.
		WriteTimeout: cfg.Simulation.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
