package cmd

import (
	"errors"
	"fmt"
	"os"

	"salary-tracker/core/reconcile"
	"salary-tracker/feature/compensation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncOwner     string
	syncFile      string
	syncObject    string
	syncCompany   string
	syncLocation  string
	syncOverwrite bool
	syncDryRun    bool
)

// syncCmd groups payroll synchronization commands.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize compensation records from a payroll export",
}

var syncCompensationCmd = &cobra.Command{
	Use:   "compensation",
	Short: "Reconcile a payroll export into the record store",
	Long: `Reads a payroll export either from a local file (--file) or from object
storage (--object) and reconciles it into the owner's compensation history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (syncFile == "") == (syncObject == "") {
			return errors.New("exactly one of --file or --object is required")
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if a.db == nil {
			return errors.New("database is not reachable")
		}

		opts := reconcile.Options{
			Overwrite: syncOverwrite,
			DryRun:    syncDryRun,
			Company:   syncCompany,
			Location:  syncLocation,
		}

		var result reconcile.Result
		if syncObject != "" {
			result, err = a.compensation.SyncObject(cmd.Context(), syncOwner, syncObject, opts)
		} else {
			var data []byte
			if data, err = os.ReadFile(syncFile); err != nil {
				return fmt.Errorf("read %s: %w", syncFile, err)
			}
			var records []reconcile.ProviderRecord
			if records, err = compensation.DecodeImport(data); err != nil {
				return err
			}
			result, err = a.compensation.Sync(cmd.Context(), syncOwner, records, opts)
		}
		if err != nil {
			return err
		}

		a.logger.Info("Sync finished",
			zap.String("owner", syncOwner),
			zap.Int("created", result.Created),
			zap.Int("updated", result.Updated),
			zap.Int("skipped", result.Skipped),
			zap.Bool("dry_run", result.DryRun))
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the import state of an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if a.db == nil {
			return errors.New("database is not reachable")
		}

		status, err := a.compensation.Status(cmd.Context(), syncOwner, nil)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), status)
	},
}

func init() {
	syncCmd.PersistentFlags().StringVar(&syncOwner, "owner", "", "Owner id of the records")
	_ = syncCmd.MarkPersistentFlagRequired("owner")

	syncCompensationCmd.Flags().StringVar(&syncFile, "file", "", "Local payroll export (JSON)")
	syncCompensationCmd.Flags().StringVar(&syncObject, "object", "", "Payroll export in object storage, relative to sync.import_prefix")
	syncCompensationCmd.Flags().StringVar(&syncCompany, "company", "", "Company recorded on imported rows")
	syncCompensationCmd.Flags().StringVar(&syncLocation, "location", "", "Location recorded on imported rows")
	syncCompensationCmd.Flags().BoolVar(&syncOverwrite, "overwrite", false, "Update records that already exist")
	syncCompensationCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compute the result without writing")

	syncCmd.AddCommand(syncCompensationCmd, syncStatusCmd)
	RootCmd.AddCommand(syncCmd)
}
