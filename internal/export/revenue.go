// Package export renders reports as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/safar/go-bookstore/internal/service"
	"github.com/tealeg/xlsx"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout      = "2006-01-02"
)

// RevenueWorkbook builds a single-sheet workbook with one row per day and a
// closing Total row.
func RevenueWorkbook(report *service.RevenueReport) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Revenue")
	if err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range []string{"Date", "Orders", "Books", "Revenue"} {
		header.AddCell().SetString(h)
	}

	for _, day := range report.Days {
		row := sheet.AddRow()
		row.AddCell().SetString(day.Date.Format(dateLayout))
		row.AddCell().SetInt(day.OrderCount)
		row.AddCell().SetInt(day.TotalQuantity)
		row.AddCell().SetString(day.TotalPrice.StringFixed(2))
	}

	total := sheet.AddRow()
	total.AddCell().SetString("Total")
	total.AddCell().SetInt(report.OrderCount)
	total.AddCell().SetInt(report.TotalQuantity)
	total.AddCell().SetString(report.TotalPrice.StringFixed(2))

	return file, nil
}

func WriteRevenue(w io.Writer, report *service.RevenueReport) error {
	file, err := RevenueWorkbook(report)
	if err != nil {
		return err
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// RevenueFilename names an export after its date range.
func RevenueFilename(report *service.RevenueReport) string {
	return fmt.Sprintf("revenue_%s_%s.xlsx", report.From.Format(dateLayout), report.To.Format(dateLayout))
}
