package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"practice_portal_backend/internal/businesstime"
	"practice_portal_backend/internal/cache"
	"practice_portal_backend/internal/clients"
	"practice_portal_backend/internal/events"
	apphttp "practice_portal_backend/internal/http"
	"practice_portal_backend/internal/http/router"
	"practice_portal_backend/internal/pipelines"
	"practice_portal_backend/internal/projects"
	"practice_portal_backend/internal/scheduling"
	"practice_portal_backend/platform/config"
	"practice_portal_backend/platform/db"
	"practice_portal_backend/platform/logger"
	"practice_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Business calendar for stage timers
	calendar, err := businesstime.NewCalendar(cfg)
	if err != nil {
		log.Error("failed to build business calendar", "error", err)
		panic("failed to build business calendar: " + err.Error())
	}

	// Redis-backed stage counts cache; a nil client degrades to a
	// pass-through that always misses.
	var redisClient *redis.Client
	if cfg.IsCacheEnabled() {
		redisClient, err = cache.NewClient(cfg.GetRedisURL())
		if err != nil {
			log.Warn("stage counts cache disabled", "error", err)
			redisClient = nil
		} else {
			log.Info("stage counts cache enabled", "ttl", cfg.GetCacheTTL())
		}
	}
	stageCounts := cache.NewStageCounts(redisClient, cfg.GetCacheTTL(), log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	pipelinesModule := pipelines.NewModule(pool, val, log)
	projectsModule := projects.NewModule(pool, pipelinesModule.Repository(), calendar, stageCounts, eventBus, val, log)
	schedulingModule := scheduling.NewModule(pool, projectsModule.Repository(), pipelinesModule.Repository(), eventBus, val, log, cfg.GetSchedulingWorkerCount())
	clientsModule := clients.NewModule(pool, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			pipelinesModule,
			projectsModule,
			schedulingModule,
			clientsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%s: %w", name, lastErr)
}
