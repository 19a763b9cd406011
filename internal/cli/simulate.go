package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"eventregistration/internal/domain"

	"github.com/spf13/cobra"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	EventID  string
	Users    int
	Capacity int
	Workers  int
	Timeout  time.Duration
	Format   string
}

// simulationAdmin is the principal the command acts as.
var simulationAdmin = domain.Principal{UserID: "cli-admin", Role: domain.RoleAdmin}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Fire concurrent registrations at one event",
		Long: `Run the simulation harness in-process against the configured store.

Without --event a published event with --capacity seats is created first.
The command exits non-zero when the run times out.

Example:
  eventreg simulate --users 5000 --capacity 100
  eventreg simulate --event 3f0c... --users 200 --timeout 10s --format json`,
		Args: cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.EventID, "event", "", "existing event ID (default: create one)")
	cmd.Flags().IntVar(&opts.Users, "users", 1000, "number of synthetic users")
	cmd.Flags().IntVar(&opts.Capacity, "capacity", 50, "seats of the created event")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "worker pool size (default: SIMULATION_MAX_WORKERS)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "overall timeout (default: SIMULATION_TIMEOUT)")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	return cmd
}

func runSimulate(cmd *cobra.Command, opts *SimulateOptions) error {
	ctx := cmd.Context()
	cfg, logger, err := opts.setup()
	if err != nil {
		return err
	}
	if opts.Workers > 0 {
		cfg.Simulation.MaxWorkers = opts.Workers
	}
	if opts.Users > cfg.Simulation.MaxUsers {
		cfg.Simulation.MaxUsers = opts.Users
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	eventID := opts.EventID
	if eventID == "" {
		ev, err := a.registry.Create(ctx, simulationAdmin, domain.CreateEventInput{
			Title:     fmt.Sprintf("Simulation %s", time.Now().UTC().Format(time.RFC3339)),
			EventDate: time.Now().Add(24 * time.Hour),
			Capacity:  opts.Capacity,
		})
		if err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		if _, err := a.registry.Publish(ctx, ev.ID, simulationAdmin); err != nil {
			return fmt.Errorf("publish event: %w", err)
		}
		eventID = ev.ID
	}

	result, simErr := a.simulator.Simulate(ctx, eventID, opts.Users, opts.Timeout, simulationAdmin)
	if result == nil {
		return simErr
	}
	if err := writeSimulationResult(cmd.OutOrStdout(), opts.Format, eventID, result); err != nil {
		return err
	}
	if simErr != nil {
		return simErr
	}
	if !result.InvariantHeld {
		return errors.New("capacity invariant violated")
	}
	return nil
}

func writeSimulationResult(w io.Writer, format, eventID string, r *domain.SimulationResult) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"event_id": eventID, "simulation_results": r})
	}
	_, err := fmt.Fprintf(w, `Event:            %s
Requested users:  %d
Attempted:        %d
Confirmed:        %d
Waitlisted:       %d
Failed:           %d
Seats remaining:  %d
Timed out:        %t
Invariant held:   %t
Duration:         %dms
`, eventID, r.RequestedUsers, r.TotalAttempted, r.SuccessCount, r.WaitlistedCount, r.FailedCount,
		r.FinalSeatsRemaining, r.TimedOut, r.InvariantHeld, r.DurationMs)
	return err
}
