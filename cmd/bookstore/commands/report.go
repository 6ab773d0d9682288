package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/safar/go-bookstore/cmd/bookstore/output"
	"github.com/safar/go-bookstore/internal/export"
	"github.com/safar/go-bookstore/internal/service"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var (
	reportFrom string
	reportTo   string
	reportJSON bool
	reportXLSX string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the daily revenue report",
	Long: `Print completed-order revenue per UTC day for an inclusive date range.

Examples:
  bookstore report --from 2024-01-01 --to 2024-01-31
  bookstore report --from 2024-01-05 --to 2024-01-05 --json
  bookstore report --from 2024-01-01 --to 2024-01-31 --xlsx january.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := time.Parse(dateLayout, reportFrom)
		if err != nil {
			return fmt.Errorf("--from must be YYYY-MM-DD: %w", err)
		}
		to, err := time.Parse(dateLayout, reportTo)
		if err != nil {
			return fmt.Errorf("--to must be YYYY-MM-DD: %w", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		repo, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		report, err := service.New(repo).Reports.GetRevenueReport(ctx, from, to)
		if err != nil {
			return err
		}

		if reportXLSX != "" {
			return writeWorkbook(reportXLSX, report)
		}
		if reportJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printReport(os.Stdout, report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "First day (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "Last day (YYYY-MM-DD)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Output in JSON format")
	reportCmd.Flags().StringVar(&reportXLSX, "xlsx", "", "Write the report to this .xlsx file instead")
	_ = reportCmd.MarkFlagRequired("from")
	_ = reportCmd.MarkFlagRequired("to")
}

func printReport(w io.Writer, report *service.RevenueReport) {
	output.Section(w, fmt.Sprintf("Revenue %s to %s", report.From.Format(dateLayout), report.To.Format(dateLayout)))

	if len(report.Days) == 0 {
		output.Muted(w, "No completed orders in range")
		return
	}

	rows := make([][]string, 0, len(report.Days)+1)
	for _, day := range report.Days {
		rows = append(rows, []string{
			day.Date.Format(dateLayout),
			strconv.Itoa(day.OrderCount),
			strconv.Itoa(day.TotalQuantity),
			day.TotalPrice.StringFixed(2),
		})
	}
	rows = append(rows, []string{
		"Total",
		strconv.Itoa(report.OrderCount),
		strconv.Itoa(report.TotalQuantity),
		report.TotalPrice.StringFixed(2),
	})

	fmt.Fprintln(w, output.Table([]string{"Date", "Orders", "Books", "Revenue"}, rows, true))
}

func writeWorkbook(path string, report *service.RevenueReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteRevenue(f, report); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	output.Success(os.Stdout, "Wrote %s", path)
	return nil
}
