// Package cli provides common initialization shared by cmd/fintrack,
// cmd/fintrack-worker and cmd/fintrackctl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/idgen"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// sets it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = component
	if cfg != nil {
		lc.Level = log.ParseLevel(cfg.LogLevel)
		lc.Format = cfg.LogFormat
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	config.LoadEnvFile()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET is not set, using the development placeholder")
	}
	return cfg
}

// Options selects the optional parts of an App.
type Options struct {
	// ConnectAMQP publishes change events when AMQP_URL is set. A broker
	// that cannot be reached is logged and skipped.
	ConnectAMQP bool
}

// App is a fully wired ledger on the configured store.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Backend *backend.BackendResult
	Ledger  *services.Ledger
	Tokens  *auth.Tokens
	AMQP    *amqp.Client
	Caches  *cache.Manager

	// Overviews is the dashboard cache registered with Caches.
	Overviews *cache.LRUCache[core.Overview]
}

// Bootstrap opens the store and wires every service.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger, opts Options) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	ids, err := idgen.New(cfg.IDScheme)
	if err != nil {
		res.Cleanup()
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Backend: res,
		Tokens:  auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Caches:  cache.NewManager(logger.WithComponent(log.ComponentCache).Logger),
	}

	var sinks []services.ChangeSink
	if opts.ConnectAMQP && cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		} else {
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			app.AMQP = client
			sinks = append(sinks, client)
		}
	}

	app.Overviews = cache.NewLRUCache[core.Overview](cfg.CacheSize, cfg.CacheTTL)
	app.Caches.Register(app.Overviews)

	app.Ledger = services.New(services.Deps{
		DB:        res.DB,
		IDs:       ids,
		Hasher:    auth.NewHasher(cfg.BcryptCost),
		Tokens:    app.Tokens,
		Logger:    logger,
		Overviews: app.Overviews,
		Sinks:     sinks,
	})
	return app, nil
}

// Close releases the broker connection, the cache sweeper and the store.
func (a *App) Close() error {
	var errs []error
	a.Caches.Stop()
	if a.AMQP != nil {
		if err := a.AMQP.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if a.Backend != nil && a.Backend.Cleanup != nil {
		if err := a.Backend.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has finished or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
