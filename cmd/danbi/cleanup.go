package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danbi-ai/danbi/internal/config"
	"github.com/danbi-ai/danbi/internal/state"
)

var cleanupOlderThan time.Duration

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge old session checkpoints",
	Long: `Delete session checkpoints that have not been updated recently.

By default the configured store.retention window is used. Pass --older-than
to override it for one run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		retention := cfg.Store.Retention
		if cleanupOlderThan > 0 {
			retention = cleanupOlderThan
		}
		if retention <= 0 {
			return fmt.Errorf("retention window must be positive, got %s", retention)
		}

		db, err := state.Open(cfg.StorePath())
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate session store: %w", err)
		}

		count, err := db.PurgeOlderThan(retention)
		if err != nil {
			return err
		}

		color.Green("✓ Purged %d checkpoint(s) older than %s", count, retention)
		fmt.Fprintf(os.Stdout, "  store: %s\n", db.Path())
		return nil
	},
}

func init() {
	cleanupCmd.Flags().DurationVar(&cleanupOlderThan, "older-than", 0, "Purge checkpoints older than this duration (overrides store.retention)")
}
