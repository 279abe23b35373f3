// Package cmd wires the econcal CLI: configuration loading, store and sink
// construction, and the sync, stale, and repair commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/econcal/econcal/internal/config"
	"github.com/econcal/econcal/pkg/audit"
	"github.com/econcal/econcal/pkg/logging"
	"github.com/econcal/econcal/pkg/store"
	"github.com/econcal/econcal/pkg/store/files"
	"github.com/econcal/econcal/pkg/store/memory"
	"github.com/econcal/econcal/pkg/store/postgres"
)

// Execute runs the root command.
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		logging.Err(err).Msg("command failed")
		return err
	}
	return nil
}

// NewRootCommand builds the econcal root command.
func NewRootCommand() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "econcal",
		Short: "Economic-calendar event reconciliation",
		Long: `econcal reconciles economic-calendar events from independent,
unreliable, schedule-drifting providers into one canonical record per
real-world event.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel != "" {
				level, err := zerolog.ParseLevel(logLevel)
				if err != nil {
					return fmt.Errorf("invalid log level %q: %w", logLevel, err)
				}
				zerolog.SetGlobalLevel(level)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (trace, debug, info, warn, error)")

	root.AddCommand(newSyncCommand())
	root.AddCommand(newStaleCommand())
	root.AddCommand(newRepairCommand())
	return root
}

// openStore builds the configured document store.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		return memory.New(), func() {}, nil
	case "files":
		st, err := files.New(cfg.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	case "postgres":
		st, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// openSink builds the configured audit sink: Kafka when brokers are set,
// structured logs otherwise.
func openSink(cfg *config.Config, logger *zerolog.Logger) (audit.Sink, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewLogSink(logger), nil
	}
	return audit.NewKafkaSink(audit.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	})
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return nil, err
	}
	return cfg, nil
}
