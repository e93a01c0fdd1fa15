package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/patentdesk/internal/config"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// Migrator applies schema migrations. postgres.Migrator implements it.
type Migrator interface {
	Up() error
	Down(steps int) error
	Status() (version uint, dirty bool, err error)
	Force(version int) error
	Close() error
}

// MigratorFactory opens a Migrator for cfg.
type MigratorFactory func(cfg *config.Config, logger logging.Logger) (Migrator, error)

// MigrationStatus is the result of migrate status.
type MigrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (s MigrationStatus) String() string {
	if s.Version == 0 {
		return "no migrations applied"
	}
	if s.Dirty {
		return fmt.Sprintf("version %d (dirty)", s.Version)
	}
	return fmt.Sprintf("version %d", s.Version)
}

func (s MigrationStatus) TableHeaders() []string { return []string{"VERSION", "DIRTY"} }

func (s MigrationStatus) TableRows() [][]string {
	return [][]string{{strconv.FormatUint(uint64(s.Version), 10), strconv.FormatBool(s.Dirty)}}
}

// NewMigrateCommand creates migrate with its up, down, status and force
// subcommands.
func NewMigrateCommand(factory MigratorFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: withMigrator(factory, func(cmd *cobra.Command, cc *CLIContext, m Migrator, args []string) error {
			if steps < 1 {
				return errors.InvalidParam("--steps must be at least 1")
			}
			if err := m.Down(steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withMigrator(factory, func(cmd *cobra.Command, cc *CLIContext, m Migrator, args []string) error {
				if err := m.Up(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			}),
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Show the current schema version",
			RunE: withMigrator(factory, func(cmd *cobra.Command, cc *CLIContext, m Migrator, args []string) error {
				version, dirty, err := m.Status()
				if err != nil {
					return err
				}
				return PrintResult(cmd.OutOrStdout(), cc.OutputFormat, MigrationStatus{Version: version, Dirty: dirty})
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(factory, func(cmd *cobra.Command, cc *CLIContext, m Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return errors.InvalidParam("VERSION must be an integer").WithDetail(args[0])
				}
				if err := m.Force(version); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "forced version %d\n", version)
				return nil
			}),
		},
	)
	return cmd
}

func withMigrator(
	factory MigratorFactory,
	fn func(cmd *cobra.Command, cc *CLIContext, m Migrator, args []string) error,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if factory == nil {
			return errors.Internal("migrations are not available in this build")
		}
		cc, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		m, err := factory(cc.Config, cc.Logger)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := m.Close(); cerr != nil {
				cc.Logger.Warn("failed to close migrator", logging.Err(cerr))
			}
		}()
		return fn(cmd, cc, m, args)
	}
}
