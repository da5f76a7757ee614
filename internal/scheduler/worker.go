package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"concierge_backend/platform/config"
	"concierge_backend/platform/logger"
)

// SessionSweeper reclaims expired order sessions.
type SessionSweeper interface {
	SweepExpiredSessions(ctx context.Context) (int64, error)
}

// SearchDigester reports unanswered knowledge queries over a window.
type SearchDigester interface {
	LogSearchMissDigest(ctx context.Context, window time.Duration) error
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	orders    SessionSweeper
	knowledge SearchDigester
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, orders SessionSweeper, knowledge SearchDigester, log *logger.Logger) (*Worker, error) {
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
		server:    server,
		mux:       mux,
		orders:    orders,
		knowledge: knowledge,
		log:       log,
	}

	mux.HandleFunc(TaskSessionSweep, w.handleSessionSweep)
	mux.HandleFunc(TaskSearchDigest, w.handleSearchDigest)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleSessionSweep(ctx context.Context, task *asynq.Task) error {
	if w.orders == nil {
		return nil
	}

	_, err := w.orders.SweepExpiredSessions(ctx)
	return err
}

func (w *Worker) handleSearchDigest(ctx context.Context, task *asynq.Task) error {
	if w.knowledge == nil {
		return nil
	}

	payload, err := ParseSearchDigestPayload(task)
	if err != nil {
		return err
	}

	window := defaultDigestWindow
	if payload.Window != "" {
		parsed, err := time.ParseDuration(payload.Window)
		if err != nil {
			return err
		}
		if parsed > 0 {
			window = parsed
		}
	}

	return w.knowledge.LogSearchMissDigest(ctx, window)
}
