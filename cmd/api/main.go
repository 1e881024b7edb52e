package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadrouter_backend/internal/adapters/storage"
	"leadrouter_backend/internal/assignments"
	"leadrouter_backend/internal/assignments/lock"
	"leadrouter_backend/internal/assignments/orchestrator"
	assignmentrepo "leadrouter_backend/internal/assignments/repository"
	"leadrouter_backend/internal/audit"
	"leadrouter_backend/internal/directory"
	"leadrouter_backend/internal/events"
	apphttp "leadrouter_backend/internal/http"
	"leadrouter_backend/internal/http/router"
	"leadrouter_backend/internal/leads"
	leadrepo "leadrouter_backend/internal/leads/repository"
	"leadrouter_backend/internal/notification"
	"leadrouter_backend/internal/scheduler"
	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/db"
	"leadrouter_backend/platform/logger"
	"leadrouter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

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

	// Redis backs the per-lead matching lock and the offer expiry timers.
	redisClient, err := newRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer redisClient.Close()

	timerClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize offer timer client", "error", err)
		panic("failed to initialize offer timer client: " + err.Error())
	}
	defer timerClient.Close()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	directoryModule := directory.NewModule(pool, val)

	// The orchestrator spans assignments, leads, the directory, and the
	// timers, so the composition root builds it from the raw stores.
	orch := orchestrator.New(
		assignmentrepo.New(pool),
		leadrepo.New(pool),
		directoryModule.Repository(),
		timerClient,
		lock.New(redisClient, 0),
		eventBus,
		cfg,
		log,
	)

	leadsModule := leads.NewModule(pool, orch, eventBus, val, log)
	assignmentsModule := assignments.NewModule(pool, orch, val)

	// Notification module subscribes to domain events (not HTTP-facing)
	notification.NewModule(cfg, directoryModule.Repository(), eventBus, log)

	var objectStore storage.ObjectStore
	if cfg.IsMinIOEnabled() {
		minioStore, err := storage.NewMinIOStore(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		objectStore = minioStore
		log.Info("storage service initialized", "auditExportsBucket", cfg.GetMinioBucketAuditExports())
	} else {
		log.Warn("MinIO not configured; audit exports disabled")
	}

	auditModule := audit.NewModule(pool, eventBus, objectStore, cfg.GetMinioBucketAuditExports(), log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			directoryModule,
			leadsModule,
			assignmentsModule,
			auditModule,
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

func newRedisClient(cfg config.SchedulerConfig) (*redis.Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig.InsecureSkipVerify = true
	} else if opt.TLSConfig == nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return redis.NewClient(opt), nil
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

	return errors.New(name + ": " + lastErr.Error())
}
