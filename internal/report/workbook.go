package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/segyhp/dues-engine/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// PendingSheet is the name of the worksheet holding the tenant rows.
const PendingSheet = "Pending Dues"

// PendingWorkbookHeader is the header row of the export.
var PendingWorkbookHeader = []string{
	"Tenant Name",
	"Shop Numbers",
	"Pending Rent",
	"Pending EMI",
	"Penalty",
	"Total Due",
	"Unpaid Rent Months",
	"Unpaid EMI Months",
}

var pendingColumnWidths = []float64{30, 20, 15, 15, 12, 15, 20, 20}

// moneyFormat is the built-in "#,##0.00" number format.
const moneyFormat = 4

// PendingWorkbook renders the tenant rows as an xlsx file with a totals row
// at the bottom.
func PendingWorkbook(rows []TenantRow, asOf domain.Period, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open; close explicitly on every path.

	index, err := f.NewSheet(PendingSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create money style: %w", err)
	}

	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		NumFmt: moneyFormat,
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create total style: %w", err)
	}

	for col, header := range PendingWorkbookHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(PendingSheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(PendingSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(PendingSheet, name, name, pendingColumnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	var totals TenantRow
	for i, row := range rows {
		values := []interface{}{
			row.TenantName,
			strings.Join(row.ShopNos, ", "),
			decimalCell(row.PendingRent),
			decimalCell(row.PendingEMI),
			decimalCell(row.Penalty),
			decimalCell(row.Total),
			row.UnpaidRentPeriods,
			row.UnpaidEMIPeriods,
		}
		if err := writeRow(f, i+2, values, moneyStyle); err != nil {
			f.Close()
			return nil, err
		}

		totals.PendingRent = totals.PendingRent.Add(row.PendingRent)
		totals.PendingEMI = totals.PendingEMI.Add(row.PendingEMI)
		totals.Penalty = totals.Penalty.Add(row.Penalty)
		totals.Total = totals.Total.Add(row.Total)
		totals.UnpaidRentPeriods += row.UnpaidRentPeriods
		totals.UnpaidEMIPeriods += row.UnpaidEMIPeriods
	}

	footer := []interface{}{
		fmt.Sprintf("Total (as of %s, generated %s)", asOf, generatedAt.Format("2006-01-02 15:04")),
		"",
		decimalCell(totals.PendingRent),
		decimalCell(totals.PendingEMI),
		decimalCell(totals.Penalty),
		decimalCell(totals.Total),
		totals.UnpaidRentPeriods,
		totals.UnpaidEMIPeriods,
	}
	if err := writeRow(f, len(rows)+2, footer, totalStyle); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetPanes(PendingSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}

func decimalCell(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// writeRow writes one row; money columns (C to F) get moneyStyle.
func writeRow(f *excelize.File, row int, values []interface{}, moneyStyle int) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(PendingSheet, cell, value); err != nil {
			return fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
		}
		if col >= 2 && col <= 5 {
			if err := f.SetCellStyle(PendingSheet, cell, cell, moneyStyle); err != nil {
				return fmt.Errorf("failed to set cell style: %w", err)
			}
		}
	}
	return nil
}
