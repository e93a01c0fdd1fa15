// Package config defines the configuration structures for PatentDesk. No I/O
// lives here, only plain data types and validation; see loader.go for
// reading files and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	// AuthRateLimit and AuthRateBurst throttle /api/auth per client IP.
	AuthRateLimit float64 `mapstructure:"auth_rate_limit"`
	AuthRateBurst int     `mapstructure:"auth_rate_burst"`
	// GraphQLMaxDepth bounds query nesting on /graphql.
	GraphQLMaxDepth int `mapstructure:"graphql_max_depth"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// RedisConfig holds Redis connection parameters. When Enabled is false the
// analysis cache falls back to an in-process no-op.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AuthConfig holds token signing parameters.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
}

// MinIOConfig configures the minio storage driver.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
}

// S3Config configures the s3 storage driver. Endpoint is optional and only
// needed for S3-compatible services.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// StorageConfig selects and configures the document blob store.
type StorageConfig struct {
	Driver       string      `mapstructure:"driver"` // "local" | "minio" | "s3"
	LocalDir     string      `mapstructure:"local_dir"`
	PublicPrefix string      `mapstructure:"public_prefix"`
	MaxFileSize  int64       `mapstructure:"max_file_size"`
	MinIO        MinIOConfig `mapstructure:"minio"`
	S3           S3Config    `mapstructure:"s3"`
}

// IntelligenceConfig configures the AI analysis providers.
type IntelligenceConfig struct {
	Provider      string `mapstructure:"provider"`       // "mock" | "openai" | "inference"
	FailurePolicy string `mapstructure:"failure_policy"` // "fail" | "fallback"

	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	OpenAIBaseURL  string `mapstructure:"openai_base_url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`

	InferenceBaseURL       string `mapstructure:"inference_base_url"`
	InferenceAPIKey        string `mapstructure:"inference_api_key"`
	ClassificationModel    string `mapstructure:"classification_model"`
	FeatureExtractionModel string `mapstructure:"feature_extraction_model"`
	SummarizationModel     string `mapstructure:"summarization_model"`
	TokenClassifierModel   string `mapstructure:"token_classifier_model"`

	MatchThreshold float64       `mapstructure:"match_threshold"`
	CorpusLimit    int           `mapstructure:"corpus_limit"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// KafkaConfig configures the event publisher. When Enabled is false events
// are discarded.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	TopicPrefix  string        `mapstructure:"topic_prefix"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SubscriptionConfig configures subscription lifecycle jobs.
type SubscriptionConfig struct {
	ExpirySchedule string `mapstructure:"expiry_schedule"`
	TrialDays      int    `mapstructure:"trial_days"`
}

// MetricsConfig configures the prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Config is the root configuration object.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Intelligence IntelligenceConfig `mapstructure:"intelligence"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Log          logging.LogConfig  `mapstructure:"log"`
}

// Storage driver names.
const (
	StorageLocal = "local"
	StorageMinIO = "minio"
	StorageS3    = "s3"
)

// Provider names.
const (
	ProviderMock      = "mock"
	ProviderOpenAI    = "openai"
	ProviderInference = "inference"
)

// Failure policy names.
const (
	FailurePolicyFail     = "fail"
	FailurePolicyFallback = "fallback"
)

const minJWTSecretLen = 16

// Validate checks that the configuration is internally consistent. It is
// called by the loader after defaults are applied.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("config: database.name is required")
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("config: auth.jwt_secret must be at least %d bytes", minJWTSecretLen)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("config: auth.token_ttl must be positive")
	}

	switch c.Storage.Driver {
	case StorageLocal:
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("config: storage.local_dir is required for the local driver")
		}
	case StorageMinIO:
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			return fmt.Errorf("config: storage.minio.endpoint and storage.minio.bucket are required")
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" || c.Storage.S3.Region == "" {
			return fmt.Errorf("config: storage.s3.bucket and storage.s3.region are required")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}

	switch c.Intelligence.Provider {
	case ProviderMock:
	case ProviderOpenAI:
		if c.Intelligence.OpenAIAPIKey == "" {
			return fmt.Errorf("config: intelligence.openai_api_key is required for the openai provider")
		}
	case ProviderInference:
		if c.Intelligence.InferenceBaseURL == "" {
			return fmt.Errorf("config: intelligence.inference_base_url is required for the inference provider")
		}
	default:
		return fmt.Errorf("config: unknown intelligence.provider %q", c.Intelligence.Provider)
	}

	switch strings.ToLower(c.Intelligence.FailurePolicy) {
	case FailurePolicyFail, FailurePolicyFallback:
	default:
		return fmt.Errorf("config: unknown intelligence.failure_policy %q", c.Intelligence.FailurePolicy)
	}
	if c.Intelligence.MatchThreshold < 0 || c.Intelligence.MatchThreshold > 1 {
		return fmt.Errorf("config: intelligence.match_threshold must be within [0,1]")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers is required when kafka is enabled")
	}
	return nil
}

// DSN returns the PostgreSQL connection URL for this configuration.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}
