package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/econcal/econcal/pkg/logging"
	"github.com/econcal/econcal/pkg/providers"
	"github.com/econcal/econcal/pkg/stale"
	"github.com/econcal/econcal/pkg/syncer"
)

func newSyncCommand() *cobra.Command {
	var (
		feedPath string
		fromStr  string
		toStr    string
	)

	cmd := &cobra.Command{
		Use:   "sync <provider>",
		Short: "Sync one provider feed into the canonical collection",
		Long: `Sync pulls normalized records from a provider feed, resolves each
record's identity against the canonical collection, merges it, and persists
the result in chunked batch writes.

Syncing the authoritative schedule provider also runs the stale detector
immediately afterwards, so events the schedule feed stopped confirming are
flagged while the signal is fresh.`,
		Example: `  econcal sync nfs --feed schedule.yaml
  econcal sync mql --feed actuals.yaml --from 2026-03-01 --to 2026-03-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			from, to, err := parseRange(fromStr, toStr)
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

			registry, err := cfg.Registry()
			if err != nil {
				return err
			}

			provider := providers.ID(args[0])
			adapter := syncer.NewFileFeed(provider, feedPath)
			syncCfg := syncer.Config{
				Registry:       registry,
				ChunkSize:      cfg.ChunkSize,
				DriftTolerance: cfg.DriftTolerance,
			}

			var result *syncer.Result
			if provider == providers.ID(cfg.StaleAuthority) {
				detector := stale.New(st, cfg.StaleConfig(), logger)
				s := syncer.NewScheduleSyncer(adapter, st, cfg.IdentityConfig(), syncCfg, sink, detector, logger)
				result, err = s.Run(ctx, from, to)
			} else {
				s := syncer.NewActualsSyncer(adapter, st, cfg.IdentityConfig(), syncCfg, sink, logger)
				result, err = s.Run(ctx, from, to)
			}
			if err != nil {
				return err
			}

			logger.Info().
				Str("provider", string(result.Provider)).
				Int("processed", result.Processed).
				Int("created", result.Created).
				Int("merged", result.Merged).
				Int("skipped", result.Skipped).
				Int("rescheduled", result.Rescheduled).
				Int("reinstated", result.Reinstated).
				Int("cancelled", result.Cancelled).
				Int("errors", len(result.Errors)).
				Dur("duration", result.Duration()).
				Msg("sync complete")
			for _, recErr := range result.Errors {
				logger.Warn().Err(recErr).Msg("record error")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&feedPath, "feed", "", "path to the normalized feed file (required)")
	cmd.Flags().StringVar(&fromStr, "from", "", "range start, YYYY-MM-DD (default: 7 days ago)")
	cmd.Flags().StringVar(&toStr, "to", "", "range end, YYYY-MM-DD (default: 90 days ahead)")
	_ = cmd.MarkFlagRequired("feed")
	return cmd
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -7)
	to := now.AddDate(0, 0, 90)

	var err error
	if fromStr != "" {
		if from, err = time.Parse("2006-01-02", fromStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if toStr != "" {
		if to, err = time.Parse("2006-01-02", toStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
		// Include the whole end day.
		to = to.AddDate(0, 0, 1).Add(-time.Second)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to precedes --from")
	}
	return from, to, nil
}
