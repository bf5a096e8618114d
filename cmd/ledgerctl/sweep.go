package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/lock"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/queue"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func sweepOverdueCommand(c *cli) *cobra.Command {
	var asOfStr string
	var enqueue bool

	cmd := &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Mark unpaid loan installments past their due date as overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf := time.Now().UTC()
			if asOfStr != "" {
				parsed, err := time.Parse(dateLayout, asOfStr)
				if err != nil {
					return fmt.Errorf("invalid --as-of %q, expected YYYY-MM-DD: %w", asOfStr, err)
				}
				asOf = parsed
			}

			if enqueue {
				if c.cfg.RedisURL == "" {
					return fmt.Errorf("REDIS_URL is required to enqueue")
				}
				task, err := queue.NewSweepOverdueTask(asOf)
				if err != nil {
					return err
				}
				info, err := queue.Enqueue(c.cfg.RedisURL, task)
				if err != nil {
					return err
				}
				cmd.Printf("enqueued %s (%s)\n", info.ID, info.Queue)
				return nil
			}

			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			marked, err := a.Services.Loan.SweepOverdue(cmd.Context(), asOf)
			if errors.Is(err, lock.ErrLockHeld) {
				c.logger.Warn("Another sweep is running", slog.String("as_of", asOf.Format(dateLayout)))
				cmd.Println("another sweep is already running")
				return nil
			}
			if err != nil {
				return err
			}
			cmd.Printf("marked %d installment(s) overdue as of %s\n", marked, asOf.Format(dateLayout))
			return nil
		},
	}

	cmd.Flags().StringVar(&asOfStr, "as-of", "", "cut-off date (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "hand the sweep to the background worker instead of running it here")
	return cmd
}
