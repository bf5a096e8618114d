package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/queue"
	"github.com/spf13/cobra"
)

func workerCommand(c *cli) *cobra.Command {
	var noSchedule bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process background jobs and schedule the nightly overdue sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.RedisURL == "" {
				return fmt.Errorf("REDIS_URL is required to run the worker")
			}
			a, err := c.services(cmd)
			if err != nil {
				return err
			}

			srv, err := queue.NewServer(c.cfg.RedisURL, c.cfg.WorkerConcurrency)
			if err != nil {
				return err
			}
			mux := asynq.NewServeMux()
			queue.NewHandlers(a.Services.Loan, c.logger).Register(mux)
			if err := srv.Start(mux); err != nil {
				return fmt.Errorf("error starting worker: %w", err)
			}
			defer srv.Shutdown()

			if !noSchedule {
				scheduler, err := queue.NewScheduler(c.cfg.RedisURL, c.cfg.SweepCron, c.logger)
				if err != nil {
					return err
				}
				if err := scheduler.Start(); err != nil {
					return fmt.Errorf("error starting scheduler: %w", err)
				}
				defer scheduler.Shutdown()
			}

			c.logger.Info("Worker started",
				slog.Int("concurrency", c.cfg.WorkerConcurrency),
				slog.String("sweep_cron", c.cfg.SweepCron),
				slog.Bool("scheduler", !noSchedule))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			c.logger.Info("Worker shutting down")
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "process tasks without registering the cron schedule")
	return cmd
}
