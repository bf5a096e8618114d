package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/app"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/config"
	"github.com/spf13/cobra"
)

// cli carries the loaded configuration into subcommands. The application is
// only built by commands that need services.
type cli struct {
	cfg    *config.Config
	logger *slog.Logger
	app    *app.App
}

func (c *cli) preRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	c.cfg = cfg
	return nil
}

// services builds the application once per process.
func (c *cli) services(cmd *cobra.Command) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := app.New(cmd.Context(), c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
	}
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:               "ledgerctl",
		Short:             "Fuel station ledger maintenance",
		SilenceUsage:      true,
		PersistentPreRunE: c.preRun,
	}

	root.AddCommand(migrateCommands(c))
	root.AddCommand(verifyCommand(c))
	root.AddCommand(sweepOverdueCommand(c))
	root.AddCommand(workerCommand(c))
	root.AddCommand(tokenCommand(c))
	return root
}

func main() {
	c := &cli{logger: app.NewLogger()}
	root := newRootCommand(c)
	err := root.Execute()
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
