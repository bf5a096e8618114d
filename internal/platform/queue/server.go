package queue

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const defaultQueue = "default"

// NewServer creates the worker server for redisURL.
func NewServer(redisURL string, concurrency int) (*asynq.Server, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{defaultQueue: 1},
	}), nil
}

// NewScheduler creates a scheduler that enqueues an overdue sweep on cronSpec.
func NewScheduler(redisURL, cronSpec string, logger *slog.Logger) (*asynq.Scheduler, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %w", err)
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Error("Failed to enqueue scheduled task", slog.String("error", err.Error()))
				return
			}
			logger.Info("Scheduled task enqueued", slog.String("task", info.Type), slog.String("task_id", info.ID))
		},
	})

	task, err := NewSweepOverdueTask(time.Time{})
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(cronSpec, task); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", cronSpec, err)
	}
	return scheduler, nil
}

// Enqueue pushes a one-off sweep, used by the CLI.
func Enqueue(redisURL string, task *asynq.Task) (*asynq.TaskInfo, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %w", err)
	}
	client := asynq.NewClient(opt)
	defer client.Close()
	return client.Enqueue(task, asynq.Queue(defaultQueue))
}
