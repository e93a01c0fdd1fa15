package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/patentdesk/internal/config"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// ServeOptions are the serve command's flags.
type ServeOptions struct {
	// Migrate applies pending migrations before the server starts.
	Migrate bool
}

// ServeFunc runs the API server until ctx is cancelled.
type ServeFunc func(ctx context.Context, cc *CLIContext, opts ServeOptions) error

// NewServeCommand creates the serve command. It stops on SIGINT or SIGTERM
// and, when a config file is in use, hot-reloads the log level from it.
func NewServeCommand(serve ServeFunc) *cobra.Command {
	opts := ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and GraphQL API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if serve == nil {
				return errors.Internal("serve is not available in this build")
			}
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cc.Logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cc.ConfigPath != "" {
				if err := watchLogLevel(cc); err != nil {
					cc.Logger.Warn("config hot reload disabled", logging.Err(err))
				}
			}
			return serve(ctx, cc, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "apply pending database migrations before serving")
	return cmd
}

// watchLogLevel applies log.level changes from the config file at runtime.
// Every other setting needs a restart.
func watchLogLevel(cc *CLIContext) error {
	setter, ok := cc.Logger.(logging.LevelSetter)
	if !ok {
		return nil
	}
	return config.Watch(cc.ConfigPath,
		func(cfg *config.Config) {
			setter.SetLevel(cfg.Log.Level)
			cc.Logger.Info("log level reloaded", logging.String("level", cfg.Log.Level))
		},
		func(err error) {
			cc.Logger.Warn("ignoring invalid config change", logging.Err(err))
		},
	)
}
