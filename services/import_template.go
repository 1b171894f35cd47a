package services

import (
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/xuri/excelize/v2"
)

// importDropLists are the closed value sets offered as in-cell dropdowns.
var importDropLists = map[ImportTable]map[string][]string{
	TableCompanies: {
		"status": {"active", "inactive", "prospect"},
	},
	TableContacts: {
		"role":       {"general", "decision_maker", "billing", "operations", "technical"},
		"is_primary": {"yes", "no"},
	},
}

// GenerateImportTemplate builds a downloadable .xlsx template for a table:
// one header per built-in field (required ones marked with " *"), then one
// per custom field already defined, plus a hidden Instructions sheet.
func GenerateImportTemplate(app core.App, table ImportTable) ([]byte, error) {
	if _, err := ParseImportTable(string(table)); err != nil {
		return nil, err
	}
	custom, err := LoadCustomFields(app, table)
	if err != nil {
		return nil, err
	}

	fields := SystemFields(table)
	for _, cf := range custom {
		label := cf.DisplayName
		if label == "" {
			label = cf.FieldName
		}
		fields = append(fields, SystemField{
			Key:         cf.FieldName,
			Label:       label,
			Type:        cf.FieldType,
			Required:    cf.IsRequired,
			Description: "Custom field",
		})
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := templateSheetName(table)
	f.SetSheetName(f.GetSheetName(0), sheet)

	required := headerStyle(f, "#1D4ED8")
	optional := headerStyle(f, "#6B7280")

	columns := columnLetters(len(fields))
	for i, field := range fields {
		cell := columns[i] + "1"
		text := field.Label
		style := optional
		if field.Required {
			text += " *"
			style = required
		}
		f.SetCellValue(sheet, cell, text)
		f.SetCellStyle(sheet, cell, cell, style)

		width := float64(len(field.Label)) * 1.3
		if width < 15 {
			width = 15
		}
		f.SetColWidth(sheet, columns[i], columns[i], width)

		if values, ok := importDropLists[table][field.Key]; ok {
			addDropList(f, sheet, columns[i], values)
		}
	}

	freezeHeader(f, sheet)
	addImportInstructions(f, table, fields)

	return writeWorkbook(f, "import template")
}

func templateSheetName(table ImportTable) string {
	s := string(table)
	return strings.ToUpper(s[:1]) + s[1:]
}

func addImportInstructions(f *excelize.File, table ImportTable, fields []SystemField) {
	sheet := "Instructions"
	f.NewSheet(sheet)

	title, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	head, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s Import - Instructions", templateSheetName(table)))
	f.SetCellStyle(sheet, "A1", "A1", title)

	cols := columnLetters(5)
	for i, h := range []string{"Column", "Required?", "Type", "Description", "Example"} {
		cell := cols[i] + "3"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, head)
	}

	for i, field := range fields {
		row := fmt.Sprint(i + 4)
		req := "Optional"
		if field.Required {
			req = "Required"
		}
		f.SetCellValue(sheet, cols[0]+row, field.Label)
		f.SetCellValue(sheet, cols[1]+row, req)
		f.SetCellValue(sheet, cols[2]+row, string(field.Type))
		f.SetCellValue(sheet, cols[3]+row, field.Description)
		f.SetCellValue(sheet, cols[4]+row, field.Example)
	}

	for i, w := range []float64{22, 12, 10, 50, 25} {
		f.SetColWidth(sheet, cols[i], cols[i], w)
	}
	f.SetSheetVisible(sheet, false)
}
