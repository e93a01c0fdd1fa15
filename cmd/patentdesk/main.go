// Command patentdesk runs the PatentDesk API server and its maintenance
// commands.
package main

import (
	"context"
	"os"

	"github.com/turtacn/patentdesk/internal/config"
	"github.com/turtacn/patentdesk/internal/infrastructure/database/postgres"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	info := cli.BuildInfo{Version: version, Commit: commit, BuildDate: buildDate}
	deps := cli.Dependencies{
		Serve:       serve,
		NewMigrator: newMigrator,
	}
	if err := cli.Execute(context.Background(), info, deps); err != nil {
		os.Exit(1)
	}
}

func newMigrator(cfg *config.Config, logger logging.Logger) (cli.Migrator, error) {
	return postgres.NewMigrator(cfg.Database.DSN(), cfg.Database.MigrationsDir, logger)
}
