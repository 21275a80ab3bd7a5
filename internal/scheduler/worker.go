package scheduler

import (
	"context"
	"fmt"
	"time"

	"practice_portal_backend/internal/scheduling/service"
	"practice_portal_backend/platform/apperr"
	"practice_portal_backend/platform/config"
	"practice_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runs   *service.Service
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runs *service.Service, log *logger.Logger) (*Worker, error) {
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
		server: server,
		mux:    mux,
		runs:   runs,
		log:    log,
	}

	mux.HandleFunc(TaskSchedulingPass, w.handleSchedulingPass)

	return w, nil
}

// handleSchedulingPass runs one full pass. A conflict means another pass
// is still running; retrying would only collide again, so the task is
// dropped.
func (w *Worker) handleSchedulingPass(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSchedulingPassPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	asOf := time.Now().UTC()
	if payload.RunDate != "" {
		asOf, err = time.Parse(time.DateOnly, payload.RunDate)
		if err != nil {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
	}

	run, err := w.runs.ExecutePass(ctx, asOf)
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			w.log.Warn("scheduling pass skipped, another run in progress", "run_date", payload.RunDate)
			return nil
		}
		return err
	}

	w.log.Info("scheduling pass finished",
		"run_id", run.ID,
		"status", run.Status,
		"summary", run.Summary,
	)
	return nil
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
