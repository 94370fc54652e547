package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders a Dataset into a spreadsheet. Unlike the PDF preview,
// the sheet always carries the full row set.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

const xlsxSheet = "Data"

// Render writes the summary block (when present) and the full data table.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	rowIdx := 1
	if data.Title != "" {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := f.SetCellValue(xlsxSheet, cell, data.Title); err != nil {
			return nil, fmt.Errorf("write title: %w", err)
		}
		rowIdx += 2
	}
	for _, summary := range data.Summary {
		labelCell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		valueCell, _ := excelize.CoordinatesToCellName(2, rowIdx)
		if err := f.SetCellValue(xlsxSheet, labelCell, summary.Label); err != nil {
			return nil, fmt.Errorf("write summary label: %w", err)
		}
		if err := f.SetCellValue(xlsxSheet, valueCell, summary.Value); err != nil {
			return nil, fmt.Errorf("write summary value: %w", err)
		}
		rowIdx++
	}
	if len(data.Summary) > 0 {
		rowIdx++
	}

	headerCell, _ := excelize.CoordinatesToCellName(1, rowIdx)
	headerRow := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, headerCell, &headerRow); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}
	rowIdx++

	for _, row := range data.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
		rowIdx++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
