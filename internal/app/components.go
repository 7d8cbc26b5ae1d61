package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/alias"
	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/resolver"
	"github.com/Ramsey-B/fern/pkg/sanitize"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

// cacheSegment separates result keys from anything else sharing the redis prefix
const cacheSegment = "result:"

func DatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		WalletPath:      cfg.DatabaseWalletPath,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}
}

func MigrationConfig(cfg *config.Config) *database.MigrationConfig {
	version := cfg.DatabaseMigrationVersion
	if version < 0 {
		version = 0
	}
	return &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(version),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	}
}

// Migrate connects, applies the record store migrations and closes the connection
func Migrate(ctx context.Context, cfg *config.Config, logger ectologger.Logger) error {
	db, err := database.Connect(ctx, DatabaseConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return database.NewMigrationService(logger, MigrationConfig(cfg)).MigratePostgres(db)
}

func RedisConfig(cfg *config.Config) redis.Config {
	return redis.Config{
		Host:      cfg.RedisHost,
		Port:      cfg.RedisPort,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		KeyPrefix: cfg.RedisKeyPrefix,
	}
}

func CacheConfig(cfg *config.Config) cache.Config {
	return cache.Config{
		TTL:        cfg.CacheTTL,
		Prefix:     cfg.RedisKeyPrefix + cacheSegment,
		CacheEmpty: cfg.CacheEmptyHits,
	}
}

func ProducerConfig(cfg *config.Config) kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}
}

func ConsumerConfig(cfg *config.Config) kafka.ConsumerConfig {
	return kafka.ConsumerConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaInputTopic,
		ConsumerGroup: cfg.KafkaConsumerGroup,
	}
}

func OTLPConfig(cfg *config.Config) exporters.OTLPConfig {
	return exporters.OTLPConfig{
		Endpoint: cfg.OTLPEndpoint,
		Protocol: cfg.OTLPProtocol,
		Insecure: cfg.OTLPInsecure,
		Headers:  exporters.ParseHeaders(cfg.OTLPHeaders),
		Timeout:  time.Duration(cfg.OTLPTimeoutSeconds) * time.Second,
	}
}

// SetupTracing installs the configured exporter and returns its shutdown function
func SetupTracing(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	return tracing.Setup(ctx, cfg.AppName, cfg.TracingExporter, OTLPConfig(cfg))
}

// LoadIndex builds the alias index from ALIAS_DATASET_PATH, or the embedded dataset when unset
func LoadIndex(cfg *config.Config) (*alias.Index, error) {
	if cfg.AliasDatasetPath == "" {
		return alias.NewDefaultIndex()
	}
	ds, err := alias.LoadDataset(cfg.AliasDatasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load alias dataset: %w", err)
	}
	return alias.NewIndex(ds)
}

// Resolvers holds the matching stack built on top of a record store
type Resolvers struct {
	Index        *alias.Index
	Orchestrator *matching.Orchestrator
	Service      *resolver.Service
}

// BuildResolvers wires the alias index, the cascade and the resolver service over st.
// Options add the cache and the event emitter.
func BuildResolvers(cfg *config.Config, logger ectologger.Logger, st store.Store, opts ...resolver.Option) (*Resolvers, error) {
	idx, err := LoadIndex(cfg)
	if err != nil {
		return nil, err
	}

	mc, err := cfg.MatchingConfig()
	if err != nil {
		return nil, err
	}

	orchestrator := matching.NewOrchestrator(logger, idx, st, mc, matching.WithObserver(metrics.Observer{}))

	opts = append([]resolver.Option{
		resolver.WithSanitizeOptions(sanitize.Options{IncludeAttempts: cfg.IncludeAttempts}),
	}, opts...)

	return &Resolvers{
		Index:        idx,
		Orchestrator: orchestrator,
		Service:      resolver.NewService(logger, orchestrator, opts...),
	}, nil
}

// NewCache wraps a connected redis client in the result cache
func NewCache(cfg *config.Config, client *redis.Client, logger ectologger.Logger) *cache.ResultCache {
	return cache.New(client, logger, CacheConfig(cfg))
}

func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *events.Emitter {
	return events.NewEmitter(producer, logger)
}
