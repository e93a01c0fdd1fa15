package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8081
  mode: debug
  cors_origins: ["http://localhost:3000"]
database:
  host: db.internal
  port: 5432
  user: patentdesk
  password: secret
  name: patentdesk
auth:
  jwt_secret: "a-very-long-signing-secret"
  token_ttl: 2h
storage:
  driver: local
  local_dir: /var/lib/patentdesk/uploads
intelligence:
  provider: mock
  failure_policy: fallback
  match_threshold: 0.6
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
log:
  level: debug
  format: console
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "/var/lib/patentdesk/uploads", cfg.Storage.LocalDir)
	assert.Equal(t, FailurePolicyFallback, cfg.Intelligence.FailurePolicy)
	assert.Equal(t, 0.6, cfg.Intelligence.MatchThreshold)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)

	// untouched sections get defaults
	assert.Equal(t, DefaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, DefaultEmbeddingModel, cfg.Intelligence.EmbeddingModel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("PATENTDESK_SERVER_PORT", "9999")
	t.Setenv("PATENTDESK_DATABASE_HOST", "env-db")
	t.Setenv("PATENTDESK_REDIS_ENABLED", "true")

	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidConfig(t *testing.T) {
	_, err := Load(writeConfig(t, "auth:\n  jwt_secret: short\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EmptyPathUsesEnv(t *testing.T) {
	t.Setenv("PATENTDESK_AUTH_JWT_SECRET", "env-only-signing-secret")
	t.Setenv("PATENTDESK_STORAGE_DRIVER", "minio")
	t.Setenv("PATENTDESK_STORAGE_MINIO_ENDPOINT", "minio:9000")
	t.Setenv("PATENTDESK_METRICS_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-only-signing-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, StorageMinIO, cfg.Storage.Driver)
	assert.Equal(t, "minio:9000", cfg.Storage.MinIO.Endpoint)
	assert.Equal(t, DefaultMinIOBucket, cfg.Storage.MinIO.Bucket)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFromEnv_MissingSecret(t *testing.T) {
	t.Setenv("PATENTDESK_AUTH_JWT_SECRET", "")
	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml")) })
}

func TestWatch_InvokesCallbackOnChange(t *testing.T) {
	path := writeConfig(t, validConfigYAML)
	changed := make(chan *Config, 16)
	require.NoError(t, Watch(path, func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	}, nil))

	updated := validConfigYAML + "\nmetrics:\n  namespace: reloaded\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changed:
			// editors and os.WriteFile may emit several events; wait for the final content
			if cfg.Metrics.Namespace == "reloaded" {
				return
			}
		case <-deadline:
			t.Fatal("watch callback not invoked with the reloaded config")
		}
	}
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "missing.yaml"), func(*Config) {}, nil)
	assert.Error(t, err)
}
