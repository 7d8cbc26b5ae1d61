// Package app assembles the fern service from configuration and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/resolver"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/startup"
)

// Startup dependency names
const (
	DepTracing  = "tracing"
	DepDatabase = "database"
	DepRedis    = "redis"
	DepProducer = "kafka-producer"
	DepResolver = "resolver"
	DepConsumer = "kafka-consumer"
	DepHTTP     = "http"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	Config *config.Config
	Logger ectologger.Logger

	DB           database.DB
	Repositories *repositories.Repositories
	Redis        *redis.Client
	Cache        *cache.ResultCache
	Producer     *kafka.Producer
	Resolvers    *Resolvers
	Echo         *echo.Echo

	consumer *kafka.Consumer
	checker  *health.Checker
	startup  *startup.Startup
	serveErr chan error
}

func New(cfg *config.Config, logger ectologger.Logger) *App {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		checker:  health.NewChecker(cfg.Version),
		startup:  startup.NewStartup(logger, cfg.StartupMaxAttempts),
		serveErr: make(chan error, 1),
	}
	a.registerDependencies()
	return a
}

func (a *App) registerDependencies() {
	cfg := a.Config

	var shutdownTracing func(context.Context) error
	a.startup.AddDependency(startup.Dependency{
		Name: DepTracing,
		OnStart: func(ctx context.Context) (err error) {
			shutdownTracing, err = SetupTracing(ctx, cfg)
			return err
		},
		OnStop: func(ctx context.Context) error {
			return shutdownTracing(ctx)
		},
	})

	a.startup.AddDependency(startup.Dependency{
		Name:    DepDatabase,
		OnStart: a.startDatabase,
		OnStop: func(context.Context) error {
			return a.DB.Close()
		},
	})

	resolverDeps := []string{DepTracing, DepDatabase}

	if cfg.RedisEnabled {
		resolverDeps = append(resolverDeps, DepRedis)
		a.startup.AddDependency(startup.Dependency{
			Name: DepRedis,
			OnStart: func(ctx context.Context) error {
				client, err := redis.NewClient(ctx, RedisConfig(cfg), a.Logger)
				if err != nil {
					return err
				}
				a.Redis = client
				a.Cache = NewCache(cfg, client, a.Logger)
				a.checker.AddCheck(DepRedis, client.Ping, false)
				return nil
			},
			OnStop: func(context.Context) error {
				return a.Redis.Close()
			},
		})
	}

	if cfg.KafkaProducerEnabled {
		resolverDeps = append(resolverDeps, DepProducer)
		a.startup.AddDependency(startup.Dependency{
			Name: DepProducer,
			OnStart: func(context.Context) error {
				a.Producer = kafka.NewProducer(ProducerConfig(cfg), a.Logger)
				return nil
			},
			OnStop: func(context.Context) error {
				return a.Producer.Close()
			},
		})
	}

	a.startup.AddDependency(startup.Dependency{
		Name:     DepResolver,
		Requires: resolverDeps,
		OnStart:  a.startResolver,
	})

	if cfg.KafkaConsumerEnabled {
		a.startup.AddDependency(startup.Dependency{
			Name:     DepConsumer,
			Requires: []string{DepResolver},
			OnStart: func(ctx context.Context) error {
				a.consumer = kafka.NewConsumer(ConsumerConfig(cfg), a.Logger, a.handleListing)
				a.checker.AddCheck(DepConsumer, func(context.Context) error {
					if !a.consumer.Health() {
						return errors.New("consumer is not running")
					}
					return nil
				}, false)
				// the consumer outlives the startup context
				return a.consumer.Start(context.WithoutCancel(ctx))
			},
			OnStop: func(context.Context) error {
				return a.consumer.Stop()
			},
		})
	}

	a.startup.AddDependency(startup.Dependency{
		Name:     DepHTTP,
		Requires: []string{DepResolver},
		OnStart:  a.startHTTP,
		OnStop: func(ctx context.Context) error {
			a.checker.SetReady(false)
			return a.Echo.Shutdown(ctx)
		},
	})
}

func (a *App) startDatabase(ctx context.Context) error {
	db, err := database.Connect(ctx, DatabaseConfig(a.Config), a.Logger)
	if err != nil {
		return err
	}

	if a.Config.DatabaseMigrateOnStart {
		if err := database.NewMigrationService(a.Logger, MigrationConfig(a.Config)).MigratePostgres(db); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to migrate record store: %w", err)
		}
	}

	a.DB = db
	a.Repositories = repositories.New(db, a.Logger)
	a.checker.AddCheck(DepDatabase, db.PingContext, true)
	return nil
}

func (a *App) startResolver(context.Context) error {
	var opts []resolver.Option
	if a.Cache != nil {
		opts = append(opts, resolver.WithCache(a.Cache))
	}
	if a.Producer != nil {
		opts = append(opts, resolver.WithEmitter(NewEmitter(a.Producer, a.Logger)))
	}

	resolvers, err := BuildResolvers(a.Config, a.Logger, a.Repositories.Store(), opts...)
	if err != nil {
		return err
	}
	if err := RegisterDependencies(resolvers.Service, resolvers.Index); err != nil {
		return fmt.Errorf("failed to register dependencies: %w", err)
	}
	a.Resolvers = resolvers
	return nil
}

func (a *App) startHTTP(context.Context) error {
	a.Echo = NewServer(a.Config, a.Logger, a.checker)
	addr := fmt.Sprintf(":%d", a.Config.Port)

	go func() {
		a.Logger.Infof("HTTP server listening on %s", addr)
		if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.serveErr <- err
		}
	}()

	a.checker.SetReady(true)
	return nil
}

// handleListing resolves one consumed listing. Resolution never fails, so every parsed message is committed.
func (a *App) handleListing(ctx context.Context, msg *kafka.IncomingMessage) error {
	resp := a.Resolvers.Service.Resolve(ctx, *msg.Listing)
	metrics.RecordKafkaMessage("processed")
	a.Logger.WithContext(ctx).WithFields(map[string]any{
		"offset":   msg.Offset,
		"strategy": resp.Result.Strategy,
		"reason":   resp.Result.Reason,
	}).Debug("Resolved consumed listing")
	return nil
}

// Start brings up every dependency with retries
func (a *App) Start(ctx context.Context) error {
	return a.startup.Start(ctx)
}

// Stop tears the service down in reverse start order
func (a *App) Stop(ctx context.Context) error {
	return a.startup.Stop(ctx)
}

// Run starts the service and blocks until ctx is cancelled or the HTTP server fails
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	a.Logger.Infof("%s %s started", a.Config.AppName, a.Config.Version)

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Shutting down")
	case runErr = <-a.serveErr:
		a.Logger.WithError(runErr).Error("HTTP server failed")
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := a.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
