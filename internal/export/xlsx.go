package export

import (
	"bytes"
	"fmt"
	"strconv"

	"BPOrganizer.api/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	XLSXFileName    = "blood_pressure_readings.xlsx"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	readingsSheet = "Readings"
	summarySheet  = "Summary"
)

// BuildXLSX renders the readings table and a summary sheet as a workbook.
func BuildXLSX(view models.SummaryView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", readingsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

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
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, readingsSheet, 1, Header); err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 1)
	if err := f.SetCellStyle(readingsSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	for i, r := range view.Readings {
		if err := writeRow(f, readingsSheet, i+2, readingCells(r)); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(readingsSheet, "A", "B", 14); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	pulse := any(missing)
	if view.AveragePulse != nil {
		pulse = *view.AveragePulse
	}
	rows := [][]any{
		{"Average Systolic (mmHg)", view.AverageSystolic},
		{"Average Diastolic (mmHg)", view.AverageDiastolic},
		{"Average Pulse (BPM)", pulse},
		{"Readings", len(view.Readings)},
		{"Category", view.Category.Label},
	}
	for i, row := range rows {
		if err := writeRow(f, summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 26); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// readingCells keeps the numeric columns numeric in the sheet.
func readingCells(r models.Reading) []any {
	cells := make([]any, 0, len(Header))
	for i, v := range Row(r) {
		if i >= 2 && v != missing {
			if n, err := strconv.Atoi(v); err == nil {
				cells = append(cells, n)
				continue
			}
		}
		cells = append(cells, v)
	}
	return cells
}

func writeRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &out); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}
