package cmd

import (
	"fmt"

	"salary-tracker/core/database"
	"salary-tracker/feature/compensation/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the compensation tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if a.db == nil {
			return fmt.Errorf("database is not reachable")
		}

		if err := database.Migrate(a.db, &models.CompensationRecord{}); err != nil {
			return err
		}
		a.logger.Info("Schema migrated", zap.String("table", models.TableName))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
