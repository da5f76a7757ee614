package scheduler

import (
	"context"
	"time"

	"concierge_backend/platform/config"
	"concierge_backend/platform/logger"
)

const (
	defaultSweepInterval = 5 * time.Minute
	defaultDigestWindow  = 24 * time.Hour
)

// Dispatcher enqueues the periodic maintenance tasks on their
// configured cadence.
type Dispatcher struct {
	client       *Client
	sweepEvery   time.Duration
	digestWindow time.Duration
	log          *logger.Logger
}

func NewDispatcher(cfg config.SchedulerConfig, log *logger.Logger) (*Dispatcher, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	sweepEvery := cfg.GetSessionSweepInterval()
	if sweepEvery <= 0 {
		sweepEvery = defaultSweepInterval
	}

	digestWindow := cfg.GetSearchDigestWindow()
	if digestWindow <= 0 {
		digestWindow = defaultDigestWindow
	}

	return &Dispatcher{
		client:       client,
		sweepEvery:   sweepEvery,
		digestWindow: digestWindow,
		log:          log,
	}, nil
}

func (d *Dispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

// Run blocks until ctx is cancelled. One sweep is enqueued at startup,
// then both tasks repeat on their tickers.
func (d *Dispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	d.enqueueSweep(ctx)

	sweepTicker := time.NewTicker(d.sweepEvery)
	defer sweepTicker.Stop()

	digestTicker := time.NewTicker(d.digestWindow)
	defer digestTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweepTicker.C:
			d.enqueueSweep(ctx)
		case <-digestTicker.C:
			if err := d.client.EnqueueSearchDigest(ctx, d.digestWindow); err != nil {
				d.log.Warn("search digest enqueue failed", "error", err)
			}
		}
	}
}

func (d *Dispatcher) enqueueSweep(ctx context.Context) {
	if err := d.client.EnqueueSessionSweep(ctx); err != nil {
		d.log.Warn("session sweep enqueue failed", "error", err)
	}
}
