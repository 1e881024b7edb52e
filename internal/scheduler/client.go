// Package scheduler backs the one-shot offer expiry timers with asynq.
// Each offered assignment gets exactly one durable task, keyed by the
// assignment ID; the worker process fires them and a periodic sweep covers
// any task that was lost.
package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"leadrouter_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		queue:     queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleExpiry arms the expiry timer for an assignment. Re-scheduling the
// same assignment is a no-op thanks to the deterministic task ID.
func (c *Client) ScheduleExpiry(ctx context.Context, assignmentID uuid.UUID, at time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewOfferExpiryTask(OfferExpiryPayload{AssignmentID: assignmentID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(at),
		asynq.Queue(c.queue),
		asynq.TaskID(offerExpiryTaskID(assignmentID.String())),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// CancelExpiry removes the assignment's pending timer task. A missing task
// is fine: the timer may already have fired, and the status guard makes the
// handler a no-op for resolved offers.
func (c *Client) CancelExpiry(_ context.Context, assignmentID uuid.UUID) error {
	if c == nil || c.inspector == nil {
		return nil
	}

	err := c.inspector.DeleteTask(c.queue, offerExpiryTaskID(assignmentID.String()))
	if err != nil && !errors.Is(err, asynq.ErrTaskNotFound) && !errors.Is(err, asynq.ErrQueueNotFound) {
		return err
	}
	return nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
