package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the record store migrations",
	Long: `Apply the record store migrations in DB_MIGRATION_FOLDER_PATH.

Only postgres is supported. Oracle schemas are managed outside fern.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		if flags.Changed("version") {
			cfg.DatabaseMigrationVersion, _ = flags.GetInt("version")
		}
		if flags.Changed("force") {
			cfg.DatabaseMigrationForce, _ = flags.GetInt("force")
		}
		if err := app.Migrate(cmd.Context(), cfg, logger); err != nil {
			return err
		}
		logger.Info("Migrations applied")
		return nil
	},
}

func init() {
	migrateCmd.Flags().Int("version", 0, "migrate to this version instead of the latest")
	migrateCmd.Flags().Int("force", 0, "force the schema version before migrating")
}
