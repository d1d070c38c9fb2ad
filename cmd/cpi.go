package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"salary-tracker/core/bls"
	"salary-tracker/core/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cpiSeries    string
	cpiStartYear int
	cpiEndYear   int
	cpiStart     string
	cpiEnd       string
	cpiSalary    string
)

// cpiCmd groups the consumer price index commands.
var cpiCmd = &cobra.Command{
	Use:   "cpi",
	Short: "Query consumer price index data",
}

var cpiFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and normalize a CPI series",
	RunE: func(cmd *cobra.Command, args []string) error {
		var years *bls.YearRange
		if cpiStartYear != 0 || cpiEndYear != 0 {
			years = &bls.YearRange{Start: cpiStartYear, End: cpiEndYear}
			if err := years.Validate(); err != nil {
				return err
			}
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		points, err := a.inflation.Series(cmd.Context(), cpiSeries, years)
		if err != nil {
			return err
		}
		a.logger.Info("Series fetched",
			zap.String("series", a.inflation.SeriesID(cpiSeries)),
			zap.Int("points", len(points)),
			zap.Int64("calls", a.client.Stats().Calls))
		return printJSON(cmd.OutOrStdout(), points)
	},
}

var cpiRateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Inflation between two dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		start, end, err := dateRange(cpiStart, cpiEnd, a.inflation.Today())
		if err != nil {
			return err
		}
		report, err := a.inflation.Rate(cmd.Context(), cpiSeries, start, end)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var cpiAnnualCmd = &cobra.Command{
	Use:   "annual <year>",
	Short: "Year-over-year inflation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, err := utils.ParseYear(args[0])
		if err != nil {
			return err
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		report, err := a.inflation.AnnualRate(cmd.Context(), cpiSeries, year)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var cpiAdjustCmd = &cobra.Command{
	Use:   "adjust",
	Short: "Restate a salary in today's money",
	RunE: func(cmd *cobra.Command, args []string) error {
		salary, err := utils.ParseAmount(cpiSalary)
		if err != nil {
			return fmt.Errorf("invalid --salary: %w", err)
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		start, end, err := dateRange(cpiStart, cpiEnd, a.inflation.Today())
		if err != nil {
			return err
		}
		report, err := a.inflation.PurchasingPower(cmd.Context(), cpiSeries, salary, start, end)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

// dateRange parses --start and --end; an empty end means today.
func dateRange(rawStart, rawEnd string, today time.Time) (time.Time, time.Time, error) {
	start, err := utils.ParseDate(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
	}
	end := today
	if rawEnd != "" {
		if end, err = utils.ParseDate(rawEnd); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
		}
	}
	return start, end, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	cpiCmd.PersistentFlags().StringVar(&cpiSeries, "series", "", "Series id (defaults to inflation.series)")

	cpiFetchCmd.Flags().IntVar(&cpiStartYear, "start-year", 0, "First year to fetch")
	cpiFetchCmd.Flags().IntVar(&cpiEndYear, "end-year", 0, "Last year to fetch")

	for _, c := range []*cobra.Command{cpiRateCmd, cpiAdjustCmd} {
		c.Flags().StringVar(&cpiStart, "start", "", "Start date (YYYY-MM or YYYY-MM-DD)")
		c.Flags().StringVar(&cpiEnd, "end", "", "End date (defaults to today)")
		_ = c.MarkFlagRequired("start")
	}
	cpiAdjustCmd.Flags().StringVar(&cpiSalary, "salary", "", "Salary earned at --start")
	_ = cpiAdjustCmd.MarkFlagRequired("salary")

	cpiCmd.AddCommand(cpiFetchCmd, cpiRateCmd, cpiAnnualCmd, cpiAdjustCmd)
	RootCmd.AddCommand(cpiCmd)
}

