// Package export renders monthly revenue reports for the CLI, as a
// terminal table, JSON, or an xlsx workbook.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/xuri/excelize/v2"

	"github.com/subtrack/subtrack/internal/domain"
)

// Format selects the report output rendering.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatXLSX  Format = "xlsx"
)

func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case FormatTable, FormatJSON, FormatXLSX:
		return Format(raw), nil
	default:
		return "", fmt.Errorf("unknown format %q (expected table, json or xlsx)", raw)
	}
}

// WriteTable renders the report as an aligned terminal table, most
// recent month first, with a footer summing every column.
func WriteTable(w io.Writer, rows []domain.MonthlyTotal) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Month", "VND", "USD", "Converted VND"})

	totals := sumTotals(rows)
	for _, row := range rows {
		t.AppendRow(table.Row{
			row.MonthBucket,
			row.VND.StringFixed(0),
			row.USD.StringFixed(2),
			row.ConvertedVND.StringFixed(0),
		})
	}
	t.AppendFooter(table.Row{
		"Total",
		totals.VND.StringFixed(0),
		totals.USD.StringFixed(2),
		totals.ConvertedVND.StringFixed(0),
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}

type jsonReport struct {
	Months []domain.MonthlyTotal `json:"months"`
	Total  domain.MonthlyTotal   `json:"total"`
}

// WriteJSON renders the report as indented JSON with a trailing total.
func WriteJSON(w io.Writer, rows []domain.MonthlyTotal) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{Months: rows, Total: sumTotals(rows)})
}

const xlsxSheet = "Monthly Revenue"

// WriteXLSX renders the report as a single-sheet xlsx workbook. Amounts
// are written as numbers so spreadsheet formulas work on them.
func WriteXLSX(w io.Writer, rows []domain.MonthlyTotal) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	header := []interface{}{"Month", "VND", "USD", "Converted VND"}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		vnd, _ := row.VND.Float64()
		usd, _ := row.USD.Float64()
		converted, _ := row.ConvertedVND.Float64()
		values := []interface{}{row.MonthBucket, vnd, usd, converted}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %s: %w", row.MonthBucket, err)
		}
	}

	totals := sumTotals(rows)
	totalVND, _ := totals.VND.Float64()
	totalUSD, _ := totals.USD.Float64()
	totalConverted, _ := totals.ConvertedVND.Float64()
	footer := []interface{}{"Total", totalVND, totalUSD, totalConverted}
	cell := fmt.Sprintf("A%d", len(rows)+2)
	if err := f.SetSheetRow(xlsxSheet, cell, &footer); err != nil {
		return fmt.Errorf("writing total row: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Write renders rows to w in the requested format.
func Write(w io.Writer, format Format, rows []domain.MonthlyTotal) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	default:
		WriteTable(w, rows)
		return nil
	}
}

func sumTotals(rows []domain.MonthlyTotal) domain.MonthlyTotal {
	total := domain.MonthlyTotal{MonthBucket: "total"}
	for _, row := range rows {
		total.VND = total.VND.Add(row.VND)
		total.USD = total.USD.Add(row.USD)
		total.ConvertedVND = total.ConvertedVND.Add(row.ConvertedVND)
	}
	return total
}
