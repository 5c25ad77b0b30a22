package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chris/worklog/internal/config"
	"github.com/chris/worklog/internal/logging"
)

var (
	dbPath     string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:     "worklog",
	Short:   "Weekly work journal",
	Long:    "A command-line journal that groups work entries by ISO week and generates weekly summaries",
	Version: WorklogVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file path (default: ~/.local/share/worklog/journal.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ~/.config/worklog/config.yaml)")
	rootCmd.SetVersionTemplate("worklog version {{.Version}}\n")
	rootCmd.Flags().BoolP("version", "v", false, "Print the version number of worklog")
}

// loadConfig reads the config file and environment, then applies flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger for cmd, writing to its stderr
func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging(), cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
