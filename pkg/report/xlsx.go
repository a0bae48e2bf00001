package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/yurifrl/ebcrawler/pkg/csv"
	"github.com/yurifrl/ebcrawler/pkg/export"
)

const sheet = "Sheet1"

// NewWorkbook lays the report out on a single sheet with the CSV header.
func NewWorkbook(r *export.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	header := strings.Split(csv.Header, ",")
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		f.Close()
		return nil, err
	}

	for i, row := range r.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := []interface{}{row.Date, row.PointType, row.Description, row.BasePoints, row.UsePoints}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return f, nil
}

// WriteXLSX saves the report as an Excel workbook at path.
func WriteXLSX(path string, r *export.Report) error {
	f, err := NewWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
