package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default value constants
const (
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 60 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second
	DefaultServerMaxBodySize     = 32 << 20
	DefaultAuthRateLimit         = 1.0
	DefaultAuthRateBurst         = 10
	DefaultGraphQLMaxDepth       = 10

	DefaultDBHost          = "localhost"
	DefaultDBPort          = 5432
	DefaultDBUser          = "postgres"
	DefaultDBName          = "patentdesk"
	DefaultDBSSLMode       = "disable"
	DefaultDBMaxConns      = 25
	DefaultDBMinConns      = 2
	DefaultDBConnLifetime  = time.Hour
	DefaultDBMigrationsDir = "migrations"

	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPoolSize = 10
	DefaultRedisTimeout  = 3 * time.Second

	DefaultTokenTTL = 24 * time.Hour
	DefaultIssuer   = "patentdesk"

	DefaultStorageDriver       = StorageLocal
	DefaultStorageLocalDir     = "./uploads"
	DefaultStoragePublicPrefix = "/uploads"
	DefaultStorageMaxFileSize  = 20 << 20
	DefaultMinIOBucket         = "patentdesk-documents"

	DefaultProvider               = ProviderMock
	DefaultFailurePolicy          = FailurePolicyFail
	DefaultModel                  = "gpt-4"
	DefaultEmbeddingModel         = "text-embedding-3-small"
	DefaultInferenceBaseURL       = "https://api-inference.huggingface.co"
	DefaultClassificationModel    = "bert-base-uncased"
	DefaultFeatureExtractionModel = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultSummarizationModel     = "facebook/bart-large-cnn"
	DefaultTokenClassifierModel   = "dslim/bert-base-NER"
	DefaultMatchThreshold         = 0.5
	DefaultCorpusLimit            = 200
	DefaultAnalysisCacheTTL       = time.Hour
	DefaultAITimeout              = 60 * time.Second

	DefaultKafkaTopicPrefix  = "patentdesk."
	DefaultKafkaBatchTimeout = 10 * time.Millisecond
	DefaultKafkaWriteTimeout = 10 * time.Second

	DefaultExpirySchedule = "@every 1h"

	DefaultMetricsNamespace = "patentdesk"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the default. Fields
// that already hold a value are left alone.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}
	if cfg.Server.AuthRateLimit == 0 {
		cfg.Server.AuthRateLimit = DefaultAuthRateLimit
	}
	if cfg.Server.AuthRateBurst == 0 {
		cfg.Server.AuthRateBurst = DefaultAuthRateBurst
	}
	if cfg.Server.GraphQLMaxDepth == 0 {
		cfg.Server.GraphQLMaxDepth = DefaultGraphQLMaxDepth
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = DefaultDBUser
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = DefaultDBMinConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = DefaultDBConnLifetime
	}
	if cfg.Database.MigrationsDir == "" {
		cfg.Database.MigrationsDir = DefaultDBMigrationsDir
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = DefaultRedisTimeout
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = DefaultRedisTimeout
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = DefaultRedisTimeout
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = DefaultTokenTTL
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = DefaultIssuer
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = DefaultStorageLocalDir
	}
	if cfg.Storage.PublicPrefix == "" {
		cfg.Storage.PublicPrefix = DefaultStoragePublicPrefix
	}
	if cfg.Storage.MaxFileSize == 0 {
		cfg.Storage.MaxFileSize = DefaultStorageMaxFileSize
	}
	if cfg.Storage.MinIO.Bucket == "" {
		cfg.Storage.MinIO.Bucket = DefaultMinIOBucket
	}

	in := &cfg.Intelligence
	if in.Provider == "" {
		in.Provider = DefaultProvider
	}
	if in.FailurePolicy == "" {
		in.FailurePolicy = DefaultFailurePolicy
	}
	if in.Model == "" {
		in.Model = DefaultModel
	}
	if in.EmbeddingModel == "" {
		in.EmbeddingModel = DefaultEmbeddingModel
	}
	if in.InferenceBaseURL == "" && in.Provider == ProviderInference {
		in.InferenceBaseURL = DefaultInferenceBaseURL
	}
	if in.ClassificationModel == "" {
		in.ClassificationModel = DefaultClassificationModel
	}
	if in.FeatureExtractionModel == "" {
		in.FeatureExtractionModel = DefaultFeatureExtractionModel
	}
	if in.SummarizationModel == "" {
		in.SummarizationModel = DefaultSummarizationModel
	}
	if in.TokenClassifierModel == "" {
		in.TokenClassifierModel = DefaultTokenClassifierModel
	}
	if in.MatchThreshold == 0 {
		in.MatchThreshold = DefaultMatchThreshold
	}
	if in.CorpusLimit == 0 {
		in.CorpusLimit = DefaultCorpusLimit
	}
	if in.CacheTTL == 0 {
		in.CacheTTL = DefaultAnalysisCacheTTL
	}
	if in.Timeout == 0 {
		in.Timeout = DefaultAITimeout
	}

	if cfg.Kafka.TopicPrefix == "" {
		cfg.Kafka.TopicPrefix = DefaultKafkaTopicPrefix
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = DefaultKafkaBatchTimeout
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = DefaultKafkaWriteTimeout
	}

	if cfg.Subscription.ExpirySchedule == "" {
		cfg.Subscription.ExpirySchedule = DefaultExpirySchedule
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// bindEnvKeys registers every mapstructure key of Config with v so that
// AutomaticEnv picks up PATENTDESK_* overrides for keys absent from the file.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range configKeys(reflect.TypeOf(Config{}), "") {
		_ = v.BindEnv(key)
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

func configKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if prefix != "" {
			name = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct && f.Type != durationType {
			keys = append(keys, configKeys(f.Type, name)...)
			continue
		}
		keys = append(keys, name)
	}
	return keys
}
