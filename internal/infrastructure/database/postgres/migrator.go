package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file source driver

	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
)

// Migrator applies the SQL files under migrations/ with golang-migrate.
type Migrator struct {
	m      *migrate.Migrate
	logger logging.Logger
}

// sourceURL turns a directory into a file:// source URL. Values that already
// carry a scheme are returned unchanged.
func sourceURL(dir string) string {
	if strings.Contains(dir, "://") {
		return dir
	}
	return "file://" + dir
}

// NewMigrator opens a migrate instance for dbURL and migrationsDir.
func NewMigrator(dbURL, migrationsDir string, log logging.Logger) (*Migrator, error) {
	m, err := migrate.New(sourceURL(migrationsDir), dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m, logger: log}, nil
}

// Up applies every pending migration. Having nothing to apply is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, dirty, _ := mg.Status()
		return fmt.Errorf("failed to run migrations (version %d, dirty %t): %w", version, dirty, err)
	}
	version, dirty, err := mg.Status()
	if err != nil {
		return err
	}
	mg.logger.Info("database migrations applied",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// Down rolls back steps migrations, or all of them when steps <= 0.
func (mg *Migrator) Down(steps int) error {
	var err error
	if steps <= 0 {
		err = mg.m.Down()
	} else {
		err = mg.m.Steps(-steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	mg.logger.Info("database migrations rolled back", logging.Int("steps", steps))
	return nil
}

// Status returns the applied version and whether the last migration failed
// half-way. An empty database reports version 0.
func (mg *Migrator) Status() (version uint, dirty bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the version without running migrations. Used to recover from a
// dirty state after a manual fix.
func (mg *Migrator) Force(version int) error {
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and database handles.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
