package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"

	"github.com/Ramsey-B/fern/pkg/matching"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"fern-api"`
	Version                       string   `env:"APP_VERSION" env-default:"dev"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Record store. DB_DRIVER is postgres or oracle.
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"fern"` // service name for oracle
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseWalletPath            string        `env:"DB_WALLET_PATH" env-default:""`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`
	DatabaseMigrateOnStart        bool          `env:"DB_MIGRATE_ON_START" env-default:"false"`

	// Result cache
	RedisEnabled   bool          `env:"REDIS_ENABLED" env-default:"false"`
	RedisHost      string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort      int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB        int           `env:"REDIS_DB" env-default:"0"`
	RedisKeyPrefix string        `env:"REDIS_KEY_PREFIX" env-default:"fern:"`
	CacheTTL       time.Duration `env:"CACHE_TTL" env-default:"1h"`
	CacheEmptyHits bool          `env:"CACHE_EMPTY_RESULTS" env-default:"false"`

	// Kafka consumer of scraped listings
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaInputTopic      string   `env:"KAFKA_INPUT_TOPIC" env-default:"listings.scraped"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" env-default:"fern-consumer"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"false"`

	// Kafka producer of listing.resolved events
	KafkaProducerEnabled bool   `env:"KAFKA_PRODUCER_ENABLED" env-default:"false"`
	KafkaOutputTopic     string `env:"KAFKA_OUTPUT_TOPIC" env-default:"listing-events"`
	KafkaBatchSize       int    `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout    int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks    int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression     string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Tracing. TRACING_EXPORTER is none, console or otlp.
	TracingExporter    string `env:"TRACING_EXPORTER" env-default:"none"`
	OTLPEndpoint       string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol       string `env:"OTEL_EXPORTER_OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure       bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`
	OTLPHeaders        string `env:"OTEL_EXPORTER_OTLP_HEADERS" env-default:""`
	OTLPTimeoutSeconds int    `env:"OTEL_EXPORTER_OTLP_TIMEOUT_SECONDS" env-default:"10"`

	// Alias dataset. Empty uses the embedded dataset.
	AliasDatasetPath string `env:"ALIAS_DATASET_PATH" env-default:""`

	// Resolution responses
	IncludeAttempts bool `env:"RESOLVE_INCLUDE_ATTEMPTS" env-default:"false"`

	Matching MatchingConfig
}

// MatchingConfig mirrors matching.Config so every tunable can be set from the environment
type MatchingConfig struct {
	PermitMinDigits          int     `env:"PERMIT_MIN_DIGITS" env-default:"3"`
	PermitPrefixDrop         int     `env:"PERMIT_PREFIX_DROP" env-default:"2"`
	PermitPartialMinLength   int     `env:"PERMIT_PARTIAL_MIN_LENGTH" env-default:"6"`
	PermitPartialTrim        int     `env:"PERMIT_PARTIAL_TRIM" env-default:"2"`
	PermitSizeToleranceSqm   float64 `env:"PERMIT_SIZE_TOLERANCE_SQM" env-default:"0.1"`
	MapperSizeToleranceRatio float64 `env:"MAPPER_SIZE_TOLERANCE_RATIO" env-default:"0.02"`
	MapperResultLimit        int     `env:"MAPPER_RESULT_LIMIT" env-default:"50"`
	FuzzySizeWindowSqm       float64 `env:"FUZZY_SIZE_WINDOW_SQM" env-default:"0.02"`
	FuzzySizeTightSqm        float64 `env:"FUZZY_SIZE_TIGHT_SQM" env-default:"0.01"`
	FuzzyExactNamePoints     int     `env:"FUZZY_EXACT_NAME_POINTS" env-default:"5"`
	FuzzyOrderedNamePoints   int     `env:"FUZZY_ORDERED_NAME_POINTS" env-default:"4"`
	FuzzyTightSizePoints     int     `env:"FUZZY_TIGHT_SIZE_POINTS" env-default:"4"`
	FuzzyLooseSizePoints     int     `env:"FUZZY_LOOSE_SIZE_POINTS" env-default:"3"`
	FuzzyPropertyTypePoints  int     `env:"FUZZY_PROPERTY_TYPE_POINTS" env-default:"2"`
	FuzzyScoreThreshold      int     `env:"FUZZY_SCORE_THRESHOLD" env-default:"2"`
	FuzzyExactTierScore      int     `env:"FUZZY_EXACT_TIER_SCORE" env-default:"5"`
	FuzzyPageSize            int     `env:"FUZZY_PAGE_SIZE" env-default:"0"`
}

// Load reads an optional .env file and binds the environment
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if _, err := cfg.MatchingConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MatchingConfig converts the environment settings into a validated matching.Config.
// The loose fuzzy window is the same as the candidate window.
func (c *Config) MatchingConfig() (matching.Config, error) {
	m := c.Matching
	mc := matching.Config{
		PermitMinDigits:          m.PermitMinDigits,
		PermitPrefixLength:       m.PermitPrefixDrop,
		PermitPartialMinLength:   m.PermitPartialMinLength,
		PermitPartialTrim:        m.PermitPartialTrim,
		PermitSizeToleranceSqm:   m.PermitSizeToleranceSqm,
		MapperSizeToleranceRatio: m.MapperSizeToleranceRatio,
		MapperResultLimit:        m.MapperResultLimit,
		FuzzySizeWindowSqm:       m.FuzzySizeWindowSqm,
		FuzzyPageSize:            m.FuzzyPageSize,
		Scoring: matching.ScoringConfig{
			ExactNamePoints:    m.FuzzyExactNamePoints,
			OrderedNamePoints:  m.FuzzyOrderedNamePoints,
			TightSizePoints:    m.FuzzyTightSizePoints,
			LooseSizePoints:    m.FuzzyLooseSizePoints,
			PropertyTypePoints: m.FuzzyPropertyTypePoints,
			TightSizeSqm:       m.FuzzySizeTightSqm,
			LooseSizeSqm:       m.FuzzySizeWindowSqm,
			Threshold:          m.FuzzyScoreThreshold,
			ExactTierScore:     m.FuzzyExactTierScore,
		},
	}
	if err := mc.Validate(); err != nil {
		return matching.Config{}, fmt.Errorf("invalid matching config: %w", err)
	}
	return mc, nil
}
