package services

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"equipquote/testhelpers"
)

func TestGenerateImportTemplate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if _, err := createCustomField(app, TableContacts, "shoe_size", "Shoe Size", FieldNumber); err != nil {
		t.Fatalf("createCustomField: %v", err)
	}

	data, err := GenerateImportTemplate(app, TableContacts)
	if err != nil {
		t.Fatalf("GenerateImportTemplate() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open template: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Contacts")
	if err != nil || len(rows) == 0 {
		t.Fatalf("read Contacts sheet: rows=%d err=%v", len(rows), err)
	}
	header := rows[0]
	fields := SystemFields(TableContacts)
	if len(header) != len(fields)+1 {
		t.Fatalf("header has %d columns, want %d", len(header), len(fields)+1)
	}
	if header[0] != "First Name *" {
		t.Errorf("first header = %q, want required marker", header[0])
	}
	if header[1] != "Last Name" {
		t.Errorf("second header = %q", header[1])
	}
	if header[len(header)-1] != "Shoe Size" {
		t.Errorf("custom field header = %q", header[len(header)-1])
	}

	visible, _ := f.GetSheetVisible("Instructions")
	if visible {
		t.Error("Instructions sheet should be hidden")
	}

	// The template round-trips through the importer's parser and matcher.
	parsed, err := ParseImportFile("contacts.xlsx", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseImportFile(template) error = %v", err)
	}
	mappings := AutoMatch(TableContacts, parsed, nil)
	if missing := MissingRequired(TableContacts, mappings); len(missing) != 0 {
		t.Errorf("template headers leave required fields unmapped: %v", missing)
	}
}

func TestGenerateImportTemplate_UnsupportedTable(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if _, err := GenerateImportTemplate(app, "quote_history"); !errors.Is(err, ErrUnsupportedTable) {
		t.Errorf("error = %v, want ErrUnsupportedTable", err)
	}
}

func TestGenerateImportErrorReport(t *testing.T) {
	data, err := GenerateImportErrorReport([]ImportRowError{
		{Row: 3, Field: "Company Name", Message: "Company Name is required"},
		{Row: 7, Message: "=cmd|' /C calc'!A0"},
	})
	if err != nil {
		t.Fatalf("GenerateImportErrorReport() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows("Errors")
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "3" || rows[1][1] != "Company Name" {
		t.Errorf("first error row = %v", rows[1])
	}
	if rows[2][2][0] != '\'' {
		t.Errorf("formula-like message not escaped: %q", rows[2][2])
	}
}
