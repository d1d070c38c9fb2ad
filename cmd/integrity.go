package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fixFlag      bool
	seriesFlag   string
	errUnhealthy = errors.New("integrity checks failed")
)

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on storage and database",
	Long:  `Checks the storage folder structure, the series archive and the compensation schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd, true, true, true)
	},
}

// structureCmd represents the integrity structure command
var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Check and fix folder structure",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd, true, false, false)
	},
}

// archiveCmd represents the integrity archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Check the newest archived series payload",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd, false, true, false)
	},
}

// serverCmd represents the integrity server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Check the compensation table schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd, false, false, true)
	},
}

func init() {
	structureCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create missing folders")
	archiveCmd.Flags().StringVar(&seriesFlag, "series", "", "Series id (defaults to inflation.series)")

	integrityCmd.AddCommand(structureCmd, archiveCmd, serverCmd)
	RootCmd.AddCommand(integrityCmd)
}

func runIntegrityChecks(cmd *cobra.Command, runStructure, runArchive, runServer bool) error {
	ctx := cmd.Context()

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	logg := a.logger
	svc := a.integrity
	healthy := true

	if (runStructure || runArchive) && a.store == nil {
		return fmt.Errorf("storage is not reachable")
	}

	if runStructure {
		logg.Info("Checking folder structure...")
		missing, err := svc.CheckStructure(ctx)
		if err != nil {
			return fmt.Errorf("structure check failed: %w", err)
		}

		if len(missing) == 0 {
			logg.Info("Structure is intact.")
		} else if fixFlag {
			logg.Info("Fixing missing folders...", zap.Strings("missing", missing))
			if err := svc.FixStructure(ctx, missing); err != nil {
				return fmt.Errorf("failed to fix structure: %w", err)
			}
			logg.Info("Structure fixed successfully.")
		} else {
			healthy = false
			logg.Warn("Missing folders detected", zap.Strings("missing", missing))
			logg.Info("Run 'integrity structure --fix' to create missing folders.")
		}
	}

	if runArchive {
		logg.Info("Checking series archive...")
		report, err := svc.CheckArchive(ctx, seriesFlag)
		if err != nil {
			return fmt.Errorf("archive check failed: %w", err)
		}

		switch report.Status {
		case "ok":
			logg.Info("Archive is readable.",
				zap.String("series", report.SeriesID),
				zap.Int("objects", report.Objects),
				zap.String("latest", report.Latest),
				zap.Int("points", report.Points))
		case "empty":
			logg.Info("No archived payloads yet.", zap.String("series", report.SeriesID))
		default:
			healthy = false
			logg.Warn("Archived payload is unreadable",
				zap.String("series", report.SeriesID),
				zap.String("latest", report.Latest),
				zap.String("error", report.Error))
		}
	}

	if runServer {
		logg.Info("Checking server schema integrity...")
		report, err := svc.CheckServer()
		if err != nil {
			healthy = false
			logg.Error("Server schema check failed", zap.Error(err))
		} else if report.Matched {
			logg.Info("Server schema matches expected definition.", zap.String("driver", report.Driver))
		} else {
			healthy = false
			logg.Warn("Server schema mismatches found", zap.String("driver", report.Driver))
			for table, tblReport := range report.Tables {
				if tblReport.Status == "ok" {
					continue
				}
				if len(tblReport.MissingColumns) > 0 {
					logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tblReport.MissingColumns))
				}
				if len(tblReport.TypeMismatches) > 0 {
					logg.Warn("Type Mismatches", zap.String("table", table), zap.Strings("mismatches", tblReport.TypeMismatches))
				}
			}
			for _, e := range report.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
		}
	}

	if !healthy {
		return errUnhealthy
	}
	return nil
}
