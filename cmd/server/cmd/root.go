package cmd

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/exp/slog"

	"fieldinspect/internal/app/server/config"
	"fieldinspect/internal/infrastructure/storage/postgres"
	"fieldinspect/internal/utils/logger"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "inspection-authority",
	Short: "Inspection authority: version-checked storage for device pushes",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.MustLoad()

		var opts []logger.Option
		if cfg.Logger.LogFile != "" {
			opts = append(opts, logger.WithFile(cfg.Logger.LogFile))
		}
		log = logger.New(cfg.Env, opts...)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openStorage runs migrations and connects to PostgreSQL.
func openStorage(ctx context.Context) (*postgres.Storage, error) {
	if cfg.DB.DatabaseURI == "" {
		return nil, fmt.Errorf("DATABASE_URI is not set")
	}
	db, err := postgres.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(issueTokenCmd)
}
