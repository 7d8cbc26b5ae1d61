package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/app"
)

var (
	envFiles []string

	// set by PersistentPreRunE for every subcommand
	cfg       *config.Config
	logger    ectologger.Logger
	zapLogger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fern",
	Short: "Property identity resolution",
	Long: `fern links scraped property listings to canonical property records.

A listing is matched by permit number first, then by project name through
the alias index, then by fuzzy name and size scoring. The first strategy
that produces candidates wins.`,
	SilenceUsage: true,
	PersistentPostRun: func(*cobra.Command, []string) {
		if zapLogger != nil {
			_ = zapLogger.Sync()
		}
	},
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM
func Execute(version string) {
	rootCmd.Version = version

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func init() {
	// assigned here rather than in the literal to avoid an initialization cycle
	rootCmd.PersistentPreRunE = setup
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load before reading the environment (default .env)")

	rootCmd.AddCommand(serveCmd, migrateCmd, resolveCmd, aliasesCmd, importCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(envFiles...)
	if err != nil {
		return err
	}
	if rootCmd.Version != "" && cfg.Version == "dev" {
		cfg.Version = rootCmd.Version
	}

	logger, zapLogger, err = app.NewLogger(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
