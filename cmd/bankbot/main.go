// Command bankbot runs the banking assistant's custom actions from the
// command line: single actions against a tracker snapshot, batches of
// recorded conversations, and maintenance of the profile database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bankbot/internal/actions"
	"bankbot/internal/config"
	"bankbot/internal/logging"
	"bankbot/internal/responses"
	"bankbot/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bankbot",
	Short: "Custom actions of the banking assistant",
	Long: `bankbot executes the custom actions of the financial assistant demo.

Actions read a tracker snapshot (slots, latest message, events) and return
the events the dialogue engine should apply together with the messages to
send. Form validation actions also keep count of repeated validation
failures and ask the user whether to continue once the limit is reached.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if verbose {
			opts := cfg.Logging.Options()
			opts.DebugMode = true
			opts.Level = "debug"
			logging.Install(opts, logger)
			return nil
		}
		return logging.Initialize(cfg.Logging.Options())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "bankbot.yaml", "Config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Profile database path (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	runCmd.Flags().StringVarP(&trackerPath, "tracker", "t", "", "Tracker snapshot (JSON, - for stdin); empty starts a new conversation")
	runCmd.Flags().StringVarP(&senderID, "sender", "s", "", "Sender id (default: from tracker, else random)")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw response as JSON")

	parseTimeCmd.Flags().BoolVar(&parsePoint, "point", false, "Read the annotation as a single instant")
	dbTransactionsCmd.Flags().IntVarP(&transactionLimit, "limit", "n", 20, "Number of transactions to show")
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSchemaCmd)

	parseCmd.AddCommand(parseTimeCmd)
	parseCmd.AddCommand(parseMoneyCmd)

	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbPopulateCmd)
	dbCmd.AddCommand(dbTransactionsCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the configured profile database.
func openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, cfg.Database.Driver, cfg.Database.Path,
		store.WithSeed(cfg.Database.Seed),
		store.WithHistoryDays(cfg.Database.HistoryDays))
}

// app bundles what running actions needs.
type app struct {
	store     *store.Store
	registry  *actions.Registry
	templates *responses.Templates
}

func openApp(ctx context.Context) (*app, error) {
	templates, err := responses.Load(cfg.ResponsesPath)
	if err != nil {
		return nil, err
	}
	s, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	registry, err := actions.Default(actions.Deps{Profile: s, Config: cfg})
	if err != nil {
		s.Close()
		return nil, err
	}
	logger.Debug("Actions ready", zap.Int("actions", len(registry.Names())), zap.String("db", s.Path()))
	return &app{store: s, registry: registry, templates: templates}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
