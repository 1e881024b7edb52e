package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// OfferLifecycle is the slice of the orchestrator the worker drives.
type OfferLifecycle interface {
	Expire(ctx context.Context, assignmentID uuid.UUID) error
	SweepOverdue(ctx context.Context) (int, error)
	RecoverTimers(ctx context.Context) (int, error)
}

type Worker struct {
	server        *asynq.Server
	mux           *asynq.ServeMux
	lifecycle     OfferLifecycle
	log           *logger.Logger
	sweepInterval time.Duration
}

func NewWorker(cfg config.SchedulerConfig, lifecycle OfferLifecycle, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:        server,
		mux:           mux,
		lifecycle:     lifecycle,
		log:           log,
		sweepInterval: 5 * time.Minute,
	}

	mux.HandleFunc(TaskOfferExpiry, w.handleOfferExpiry)

	return w, nil
}

func (w *Worker) handleOfferExpiry(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOfferExpiryPayload(task)
	if err != nil {
		return err
	}

	assignmentID, err := uuid.Parse(payload.AssignmentID)
	if err != nil {
		return err
	}

	return w.lifecycle.Expire(ctx, assignmentID)
}

// Run starts the asynq server, the startup timer recovery scan, and the
// periodic overdue sweep. Blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	if recovered, err := w.lifecycle.RecoverTimers(ctx); err != nil {
		w.log.Error("offer timer recovery failed", "error", err)
	} else if recovered > 0 {
		w.log.Info("re-armed offer expiry timers", "count", recovered)
	}

	go w.runSweep(ctx)

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) runSweep(ctx context.Context) {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := w.lifecycle.SweepOverdue(ctx); err != nil {
				w.log.Error("overdue offer sweep failed", "error", err)
			} else if n > 0 {
				w.log.Info("swept overdue offers", "count", n)
			}
		}
	}
}
