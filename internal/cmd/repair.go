package cmd

import (
	"github.com/spf13/cobra"

	"github.com/econcal/econcal/pkg/logging"
	"github.com/econcal/econcal/pkg/stale"
)

func newRepairCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Clear weekly-cadence false-positive reschedule markers",
		Long: `Repair scans canonical events carrying a rescheduledFrom marker and
clears markers whose time difference sits on a weekly cadence (an exact
multiple of 7 days, within tolerance). Those records are periodic
recurrences that were wrongly merged as reschedules before the cadence
guard existed.`,
		Example: `  econcal repair --dry-run
  econcal repair`,
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

			detector := stale.New(st, cfg.StaleConfig(), logger)
			result, err := detector.RepairWeeklyReschedules(ctx, stale.RunOptions{DryRun: dryRun})
			if err != nil {
				return err
			}

			logger.Info().
				Int("scanned", result.Scanned).
				Int("repaired", len(result.Repaired)).
				Bool("dry_run", result.DryRun).
				Msg("reschedule repair complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report candidates without writing")
	return cmd
}
