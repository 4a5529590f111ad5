// Package main provides the Datum admin API server entrypoint.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/datum-viz/datum/internal/cache"
	"github.com/datum-viz/datum/internal/config"
	"github.com/datum-viz/datum/internal/observability"
	"github.com/datum-viz/datum/internal/storage"
	"github.com/datum-viz/datum/pkg/engine"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting Datum API")

	// Open database and run migrations
	db, err := openDatabase(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open database")
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := storage.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		logger.Error().Err(err).Msg("Migration failed")
		os.Exit(1)
	}
	cancelMigrate()

	// Build the spec engine with the configured cache backend
	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithLimits(engine.Limits{
			MaxInputBytes:   cfg.Editor.MaxInputBytes,
			MaxRows:         cfg.Editor.MaxRows,
			MaxValueColumns: cfg.Editor.MaxValueColumns,
		}),
	}
	if cfg.Editor.CacheSpecs {
		engineOpts = append(engineOpts, engine.WithCache(newCacheClient(cfg, logger), cfg.Cache.TTL))
	}
	eng := engine.New(engineOpts...)

	router := NewRouter(logger, cfg, eng, db)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt or error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

// openDatabase opens the configured database with pool settings applied.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		dsn := fmt.Sprintf("%s?_journal_mode=%s&_foreign_keys=on",
			cfg.Database.SQLite.Path, cfg.Database.SQLite.JournalMode)
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.SQLite.MaxOpenConns)
		return db, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.Database.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.Postgres.ConnMaxLifetime)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// newCacheClient builds the configured cache backend, falling back to the
// in-process cache when Redis is unreachable.
func newCacheClient(cfg *config.Config, logger *observability.Logger) cache.Client {
	if cfg.Cache.Driver == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
			return cache.NewMemoryClient(cfg.Cache.MaxEntries)
		}
		return client
	}
	return cache.NewMemoryClient(cfg.Cache.MaxEntries)
}
