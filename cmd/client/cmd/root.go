package cmd

import (
	"fmt"
	"os"

	"fieldinspect/cmd/client/cmd/conflicts"
	"fieldinspect/cmd/client/cmd/record"
	"fieldinspect/cmd/client/cmd/report"
	"fieldinspect/cmd/client/cmd/sync"
	"fieldinspect/internal/app/client"
	"fieldinspect/internal/app/client/config"
	"fieldinspect/internal/utils/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	serverURL string
	debug     bool

	app *client.App
)

var rootCmd = &cobra.Command{
	Use:   "inspectctl",
	Short: "inspectctl - offline-first inspection records",
	Long: `inspectctl stores roof inspection records on this device and
synchronizes them with the inspection authority when it is reachable.

Edits never wait for the network. Records that changed on the server in the
meantime are flagged as conflicts and kept side by side until resolved.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}

	var logOpts []logger.Option
	if cfg.LogFile != "" {
		logOpts = append(logOpts, logger.WithFile(cfg.LogFile))
	}
	// CLI output goes to stdout, logs to stderr
	logOpts = append(logOpts, logger.WithOutput(os.Stderr))
	env := config.EnvQuiet
	if debug {
		env = cfg.Env
	}
	log := logger.New(env, logOpts...)

	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("init application: %w", err)
	}

	cmd.SetContext(client.WithApp(cmd.Context(), app))
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	return app.Close()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "authority address (host:port)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(record.RecordCmd)
	rootCmd.AddCommand(sync.SyncCmd)
	rootCmd.AddCommand(conflicts.ConflictsCmd)
	rootCmd.AddCommand(report.ReportCmd)
}
