package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/stockpulse/stockpulse/internal/reports"
)

const sheetName = "Report"

// WriteWorkbook serialises title, summary block and full data table into an
// XLSX workbook. Row count is bounded only by what the dataset provider
// already enforces.
func WriteWorkbook(w io.Writer, payload reports.Payload) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"EEEEEE"}},
	})
	if err != nil {
		return err
	}

	row := 1
	if err := f.SetCellValue(sheetName, cell(1, row), payload.Title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, cell(1, row), cell(1, row), titleStyle); err != nil {
		return err
	}
	row += 2

	for _, item := range summaryItems(payload.Summary) {
		if err := f.SetCellValue(sheetName, cell(1, row), item.label); err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell(2, row), item.value); err != nil {
			return err
		}
		row++
	}
	row++

	columns := reports.Columns(payload.Type)
	for i, c := range columns {
		if err := f.SetCellValue(sheetName, cell(i+1, row), c.Title); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetName, cell(1, row), cell(len(columns), row), headerStyle); err != nil {
		return err
	}
	row++

	for _, dataRow := range payload.Rows {
		for i, c := range columns {
			if err := f.SetCellValue(sheetName, cell(i+1, row), dataRow[c.Key]); err != nil {
				return err
			}
		}
		row++
	}

	_, err = f.WriteTo(w)
	return err
}

func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Sprintf("A%d", row)
	}
	return name
}
