package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/econcal/econcal/pkg/audit"
	"github.com/econcal/econcal/pkg/logging"
	"github.com/econcal/econcal/pkg/stale"
)

func newStaleCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "stale",
		Short: "Flag future events the schedule feed stopped confirming",
		Long: `Stale scans future canonical events that were seeded by the
authoritative schedule provider and marks as cancelled any whose last feed
confirmation is older than the staleness window. Re-running against an
already-cancelled record is a no-op.`,
		Example: `  econcal stale --dry-run
  econcal stale`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := logging.Default()

			st, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			sink, err := openSink(cfg, logger)
			if err != nil {
				return err
			}
			defer sink.Close()

			detector := stale.New(st, cfg.StaleConfig(), logger)
			result, err := detector.Run(ctx, stale.RunOptions{DryRun: dryRun})
			if err != nil {
				return err
			}

			if !dryRun {
				now := time.Now().UTC()
				for _, flagged := range result.Flagged {
					emitErr := sink.Emit(ctx, audit.Event{
						Kind:      audit.EventCancelled,
						EventID:   flagged.Event.ID,
						Name:      flagged.Event.Name,
						OldStatus: flagged.StatusBefore,
						NewStatus: flagged.Event.Status,
						At:        now,
						Detail:    "not confirmed by schedule feed within staleness window",
					})
					if emitErr != nil {
						logger.Warn().Err(emitErr).Str("event_id", flagged.Event.ID).Msg("audit emission failed")
					}
				}
			}

			logger.Info().
				Int("scanned", result.Scanned).
				Int("flagged", len(result.Flagged)).
				Bool("dry_run", result.DryRun).
				Msg("stale detection complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report candidates without writing")
	return cmd
}
