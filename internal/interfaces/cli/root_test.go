package cli

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentdesk/internal/config"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
)

var testBuild = BuildInfo{Version: "1.2.3", Commit: "abc123", BuildDate: "2024-05-01"}

type fakeMigrator struct {
	upCalls   int
	downSteps int
	forced    int
	version   uint
	dirty     bool
	closed    bool
	err       error
}

func (m *fakeMigrator) Up() error { m.upCalls++; return m.err }
func (m *fakeMigrator) Down(steps int) error {
	m.downSteps = steps
	return m.err
}
func (m *fakeMigrator) Status() (uint, bool, error) { return m.version, m.dirty, m.err }
func (m *fakeMigrator) Force(v int) error {
	m.forced = v
	return m.err
}
func (m *fakeMigrator) Close() error { m.closed = true; return nil }

func factoryFor(m *fakeMigrator) MigratorFactory {
	return func(*config.Config, logging.Logger) (Migrator, error) { return m, nil }
}

// isolate runs the command from an empty directory with only the settings
// config validation requires.
func isolate(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("PATENTDESK_AUTH_JWT_SECRET", "cli-test-secret-0123456789")
	t.Setenv("PATENTDESK_LOG_FORMAT", "console")
}

func run(t *testing.T, deps Dependencies, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(testBuild, deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand(testBuild, Dependencies{})
	assert.Equal(t, "patentdesk", cmd.Use)
	assert.Contains(t, cmd.Version, "1.2.3")

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	for _, flag := range []string{"config", "log-level", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %q", flag)
	}
}

func TestVersion_NeedsNoConfig(t *testing.T) {
	isolate(t)
	t.Setenv("PATENTDESK_AUTH_JWT_SECRET", "")

	out, err := run(t, Dependencies{}, "version", "-o", "json")
	require.NoError(t, err)

	var v VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "1.2.3", v.Version)
	assert.Equal(t, "abc123", v.Commit)
	assert.NotEmpty(t, v.GoVersion)
}

func TestConfigValidationFailureStopsCommands(t *testing.T) {
	isolate(t)
	t.Setenv("PATENTDESK_AUTH_JWT_SECRET", "short")

	m := &fakeMigrator{}
	_, err := run(t, Dependencies{NewMigrator: factoryFor(m)}, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
	assert.Zero(t, m.upCalls)
}

func TestMigrate(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		isolate(t)
		m := &fakeMigrator{}
		out, err := run(t, Dependencies{NewMigrator: factoryFor(m)}, "migrate", "up")
		require.NoError(t, err)
		assert.Equal(t, 1, m.upCalls)
		assert.True(t, m.closed)
		assert.Contains(t, out, "migrations applied")
	})

	t.Run("down with steps", func(t *testing.T) {
		isolate(t)
		m := &fakeMigrator{}
		_, err := run(t, Dependencies{NewMigrator: factoryFor(m)}, "migrate", "down", "--steps", "2")
		require.NoError(t, err)
		assert.Equal(t, 2, m.downSteps)
	})

	t.Run("down rejects zero steps", func(t *testing.T) {
		isolate(t)
		m := &fakeMigrator{}
		_, err := run(t, Dependencies{NewMigrator: factoryFor(m)}, "migrate", "down", "--steps", "0")
		require.Error(t, err)
		assert.Zero(t, m.downSteps)
	})

	t.Run("status as table", func(t *testing.T) {
		isolate(t)
		m := &fakeMigrator{version: 4}
		out, err := run(t, Dependencies{NewMigrator: factoryFor(m)}, "migrate", "status", "-o", "table")
		require.NoError(t, err)
		assert.Contains(t, out, "VERSION")
		assert.Contains(t, out, "4 ")
		assert.Contains(t, out, "false")
	})

	t.Run("status as text", func(t *testing.T) {
		isolate(t)
		m := &fakeMigrator{version: 3, dirty: true}
		out, err := run(t, Dependencies{NewMigrator: factoryFor(m)}, "migrate", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "version 3 (dirty)")
	})

	t.Run("force", func(t *testing.T) {
		isolate(t)
		m := &fakeMigrator{}
		_, err := run(t, Dependencies{NewMigrator: factoryFor(m)}, "migrate", "force", "2")
		require.NoError(t, err)
		assert.Equal(t, 2, m.forced)

		_, err = run(t, Dependencies{NewMigrator: factoryFor(m)}, "migrate", "force", "two")
		require.Error(t, err)
	})

	t.Run("migrator errors surface", func(t *testing.T) {
		isolate(t)
		m := &fakeMigrator{err: stderrors.New("dirty database")}
		_, err := run(t, Dependencies{NewMigrator: factoryFor(m)}, "migrate", "up")
		require.Error(t, err)
		assert.True(t, m.closed)
	})

	t.Run("unavailable", func(t *testing.T) {
		isolate(t)
		_, err := run(t, Dependencies{}, "migrate", "up")
		require.Error(t, err)
	})
}

func TestServe(t *testing.T) {
	t.Run("passes options and config", func(t *testing.T) {
		isolate(t)
		var (
			gotOpts ServeOptions
			gotCC   *CLIContext
		)
		serve := func(ctx context.Context, cc *CLIContext, opts ServeOptions) error {
			gotOpts, gotCC = opts, cc
			return nil
		}

		_, err := run(t, Dependencies{Serve: serve}, "serve", "--migrate", "--log-level", "debug")
		require.NoError(t, err)
		assert.True(t, gotOpts.Migrate)
		require.NotNil(t, gotCC)
		assert.Equal(t, "debug", gotCC.Config.Log.Level)
		assert.Equal(t, "patentdesk", gotCC.Config.Database.Name)
	})

	t.Run("loads a config file and watches it", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "patentdesk.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0o600))

		var port int
		serve := func(ctx context.Context, cc *CLIContext, opts ServeOptions) error {
			port = cc.Config.Server.Port
			assert.Equal(t, path, cc.ConfigPath)
			return nil
		}
		_, err := run(t, Dependencies{Serve: serve}, "serve", "--config", path)
		require.NoError(t, err)
		assert.Equal(t, 9191, port)
	})

	t.Run("serve error is returned", func(t *testing.T) {
		isolate(t)
		boom := stderrors.New("listen failed")
		serve := func(context.Context, *CLIContext, ServeOptions) error { return boom }
		_, err := run(t, Dependencies{Serve: serve}, "serve")
		assert.ErrorIs(t, err, boom)
	})
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintResult(&buf, "json", MigrationStatus{Version: 2}))
	assert.JSONEq(t, `{"version":2,"dirty":false}`, buf.String())

	buf.Reset()
	require.NoError(t, PrintResult(&buf, "text", MigrationStatus{}))
	assert.Equal(t, "no migrations applied\n", buf.String())

	buf.Reset()
	require.NoError(t, PrintResult(&buf, "table", "plain"))
	assert.Equal(t, "plain\n", buf.String())
}

func TestFormatTable(t *testing.T) {
	got := FormatTable([]string{"A", "LONGER"}, [][]string{{"xyz", "1"}, {"k"}})
	want := "A    LONGER\n" +
		"---  ------\n" +
		"xyz  1     \n" +
		"k          \n"
	assert.Equal(t, want, got)
	assert.Empty(t, FormatTable(nil, nil))
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, stderrors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())

	buf.Reset()
	PrintError(&buf, nil)
	assert.Empty(t, buf.String())
}
