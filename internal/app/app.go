// Package app wires configuration, storage, locking and services for the
// server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/services"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/config"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/lock"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/repositories/database/pgsql"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/repositories/memory"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/pkg/database"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "fsm:lock:"

// App holds the wired dependencies. Close releases them in reverse order.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Services *portssvc.ServiceContainer
	closers  []func()
}

// NewLogger returns the JSON logger used by every binary.
func NewLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	return logger
}

// New opens storage for cfg.StorageDriver, optionally migrates it and builds the service container.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	repos, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Services = services.NewServiceContainer(cfg, repos, locker)
	return a, nil
}

func (a *App) openStorage(ctx context.Context) (portsrepo.RepositoryProvider, error) {
	if a.Config.StorageDriver == config.StorageMemory {
		a.Logger.Warn("Using in-memory storage. Data is lost on restart.")
		return memory.NewRepositoryProvider(memory.New()), nil
	}

	if a.Config.RunMigrations {
		if _, err := database.RunMigrations(a.Config.DatabaseURL, database.MigrateUp, a.Logger); err != nil {
			return portsrepo.RepositoryProvider{}, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	pool, err := database.NewPgxPool(ctx, a.Config.DatabaseURL, a.Config.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, fmt.Errorf("failed to initialize database pool: %w", err)
	}
	a.closers = append(a.closers, func() { database.ClosePgxPool(pool) })
	a.Logger.Info("Database connection pool established.")

	return pgsql.NewRepositoryProvider(pool), nil
}

// newLocker prefers Redis so overdue sweeps are exclusive across replicas.
func (a *App) newLocker(ctx context.Context) (portssvc.Locker, error) {
	if a.Config.RedisURL == "" {
		return lock.NewKeyedMutex(), nil
	}

	opt, err := redis.ParseURL(a.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := client.Close(); err != nil {
			a.Logger.Error("Error closing redis client", slog.String("error", err.Error()))
		}
	})
	return lock.NewRedisLocker(client, lockPrefix), nil
}

// Close releases storage and lock connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
