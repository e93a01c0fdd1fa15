package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultServerMode, cfg.Server.Mode)
	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, DefaultDBPort, cfg.Database.Port)
	assert.Equal(t, DefaultDBName, cfg.Database.Name)
	assert.Equal(t, int32(DefaultDBMaxConns), cfg.Database.MaxConns)
	assert.Equal(t, DefaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, DefaultIssuer, cfg.Auth.Issuer)
	assert.Equal(t, StorageLocal, cfg.Storage.Driver)
	assert.Equal(t, "./uploads", cfg.Storage.LocalDir)
	assert.Equal(t, "/uploads", cfg.Storage.PublicPrefix)
	assert.Equal(t, ProviderMock, cfg.Intelligence.Provider)
	assert.Equal(t, FailurePolicyFail, cfg.Intelligence.FailurePolicy)
	assert.Equal(t, "gpt-4", cfg.Intelligence.Model)
	assert.Equal(t, 0.5, cfg.Intelligence.MatchThreshold)
	assert.Equal(t, time.Hour, cfg.Intelligence.CacheTTL)
	assert.Equal(t, "@every 1h", cfg.Subscription.ExpirySchedule)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Empty(t, cfg.Intelligence.InferenceBaseURL, "inference url only defaults for the inference provider")
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9090
	cfg.Storage.Driver = StorageS3
	cfg.Intelligence.Provider = ProviderInference
	cfg.Intelligence.MatchThreshold = 0.8
	ApplyDefaults(cfg)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StorageS3, cfg.Storage.Driver)
	assert.Equal(t, 0.8, cfg.Intelligence.MatchThreshold)
	assert.Equal(t, DefaultInferenceBaseURL, cfg.Intelligence.InferenceBaseURL)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestConfigKeys_FlattensNestedSections(t *testing.T) {
	keys := configKeys(reflect.TypeOf(Config{}), "")
	assert.Contains(t, keys, "server.port")
	assert.Contains(t, keys, "storage.minio.endpoint")
	assert.Contains(t, keys, "storage.s3.use_path_style")
	assert.Contains(t, keys, "log.level")
	assert.Contains(t, keys, "intelligence.cache_ttl")
	assert.NotContains(t, keys, "storage.minio")
}
