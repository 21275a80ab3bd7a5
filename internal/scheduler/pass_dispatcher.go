package scheduler

import (
	"context"
	"time"

	"practice_portal_backend/platform/config"
	"practice_portal_backend/platform/logger"
)

// PassDispatcher enqueues a scheduling pass on a fixed interval. The
// task's uniqueness window and the run-log conflict guard make an extra
// enqueue harmless.
type PassDispatcher struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewPassDispatcher(cfg config.SchedulerConfig, client *Client, log *logger.Logger) *PassDispatcher {
	interval := cfg.GetSchedulingPassInterval()
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &PassDispatcher{
		client:   client,
		interval: interval,
		log:      log,
	}
}

func (d *PassDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	if err := d.client.EnqueueSchedulingPass(ctx, time.Now().UTC()); err != nil {
		d.log.Warn("scheduling pass enqueue failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := d.client.EnqueueSchedulingPass(ctx, time.Now().UTC()); err != nil {
			d.log.Warn("scheduling pass enqueue failed", "error", err)
		}
	}
}
