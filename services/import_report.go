package services

import (
	"github.com/xuri/excelize/v2"
)

// GenerateImportErrorReport writes row errors to a downloadable .xlsx file.
func GenerateImportErrorReport(errs []ImportRowError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	f.SetSheetName(f.GetSheetName(0), sheet)

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Field")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle(f, "#DC2626"))
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 60)

	for i, e := range errs {
		row := i + 2
		a, _ := excelize.CoordinatesToCellName(1, row)
		b, _ := excelize.CoordinatesToCellName(2, row)
		c, _ := excelize.CoordinatesToCellName(3, row)
		f.SetCellValue(sheet, a, e.Row)
		f.SetCellValue(sheet, b, sanitizeExcelCell(e.Field))
		f.SetCellValue(sheet, c, sanitizeExcelCell(e.Message))
	}
	freezeHeader(f, sheet)

	return writeWorkbook(f, "error report")
}
