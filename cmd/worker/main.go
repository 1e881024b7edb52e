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
	"leadrouter_backend/internal/assignments/lock"
	"leadrouter_backend/internal/assignments/orchestrator"
	assignmentrepo "leadrouter_backend/internal/assignments/repository"
	"leadrouter_backend/internal/audit"
	auditrepo "leadrouter_backend/internal/audit/repository"
	directoryrepo "leadrouter_backend/internal/directory/repository"
	"leadrouter_backend/internal/events"
	leadrepo "leadrouter_backend/internal/leads/repository"
	"leadrouter_backend/internal/notification"
	"leadrouter_backend/internal/scheduler"
	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/db"
	"leadrouter_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const auditExportInterval = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

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

	directoryRepo := directoryrepo.New(pool)

	orch := orchestrator.New(
		assignmentrepo.New(pool),
		leadrepo.New(pool),
		directoryRepo,
		timerClient,
		lock.New(redisClient, 0),
		eventBus,
		cfg,
		log,
	)

	// Expiry cascades fired from this process publish the same events as the
	// API, so notifications and the audit trail are wired here too.
	notification.NewModule(cfg, directoryRepo, eventBus, log)
	auditRepo := auditrepo.New(pool)
	audit.NewSubscriber(auditRepo, eventBus, log)

	worker, err := scheduler.NewWorker(cfg, orch, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})

	if cfg.IsMinIOEnabled() {
		minioStore, err := storage.NewMinIOStore(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		exporter := audit.NewExporter(auditRepo, minioStore, cfg.GetMinioBucketAuditExports())
		g.Go(func() error {
			runExportLoop(gctx, exporter, log)
			return nil
		})
	} else {
		log.Warn("MinIO not configured; periodic audit exports disabled")
	}

	if err := g.Wait(); err != nil {
		log.Error("worker stopped", "error", err)
	}
}

// runExportLoop writes a daily CSV snapshot of the audit trail to object
// storage, covering the previous export interval.
func runExportLoop(ctx context.Context, exporter *audit.Exporter, log *logger.Logger) {
	ticker := time.NewTicker(auditExportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := exporter.ExportSince(ctx, time.Now().Add(-auditExportInterval))
			if err != nil {
				log.Error("periodic audit export failed", "error", err)
				continue
			}
			log.Info("periodic audit export complete", "key", result.Key, "rows", result.Rows)
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
