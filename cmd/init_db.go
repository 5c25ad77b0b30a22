package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chris/worklog/internal/db"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize the journal database",
	Long:  "Creates the worklog journal and applies the schema. Safe to run multiple times - existing entries and summaries are kept.",
	Args:  cobra.NoArgs,
	RunE:  runInitDB,
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}

func runInitDB(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Open with SkipSchemaCheck, then let InitSchema report new vs existing
	database, err := db.NewWithOptions(cfg.DB.Path, db.Options{SkipSchemaCheck: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	created, err := database.InitSchema()
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Journal initialized: %s\n", database.Path())
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Journal already initialized: %s\n", database.Path())
	}
	return nil
}
