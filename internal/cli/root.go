package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"eventregistration/config"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool

	// loadConfig and logOutput are replaced in tests.
	loadConfig func() (*config.Config, error)
	logOutput  io.Writer
}

// NewRootCommand creates the root command for the eventreg CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{loadConfig: config.Load, logOutput: os.Stderr}

	cmd := &cobra.Command{
		Use:           "eventreg",
		Short:         "Event registration and waitlist engine",
		Long:          "Serves the event registration API and runs concurrency simulations against it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// setup loads configuration and builds the logger shared by every command.
func (o *RootOptions) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.Verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	return cfg, config.NewLogger(cfg, o.logOutput), nil
}
