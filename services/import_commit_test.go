package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"equipquote/collections"
	"equipquote/testhelpers"
)

func TestCommitImport_CompaniesEndToEnd(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	parsed, err := ParseCSV(strings.NewReader("Company Name,Phone,Notes\nAcme Corp,555-1234,VIP client\n"))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	mappings := []FieldMapping{
		{CSVColumn: "Company Name", SystemField: "name"},
		{CSVColumn: "Phone", SystemField: "phone"},
		{CSVColumn: "Notes"},
	}

	result, err := CommitImport(app, TableCompanies, parsed, mappings, "", 0)
	if err != nil {
		t.Fatalf("CommitImport() error = %v", err)
	}
	if result.Imported != 1 || result.Failed != 0 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v, want 1 imported and no errors", result)
	}

	records, err := app.FindAllRecords("companies")
	if err != nil {
		t.Fatalf("FindAllRecords() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 company, got %d", len(records))
	}
	rec := records[0]
	if rec.GetString("name") != "Acme Corp" || rec.GetString("phone") != "555-1234" {
		t.Errorf("company = {name:%q phone:%q}", rec.GetString("name"), rec.GetString("phone"))
	}
	if rec.GetString("notes") != "" {
		t.Errorf("unmapped Notes column was stored: %q", rec.GetString("notes"))
	}
	if rec.GetString("import_batch") != result.BatchID || result.BatchID == "" {
		t.Errorf("import_batch = %q, batch id %q", rec.GetString("import_batch"), result.BatchID)
	}
}

func TestCommitImport_RequiredMissingRowIsSkipped(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	parsed, _ := ParseCSV(strings.NewReader("Name,Phone\nAcme,1\n,2\nBeta,3\n"))
	mappings := []FieldMapping{
		{CSVColumn: "Name", SystemField: "name"},
		{CSVColumn: "Phone", SystemField: "phone"},
	}

	result, err := CommitImport(app, TableCompanies, parsed, mappings, "", 0)
	if err != nil {
		t.Fatalf("CommitImport() error = %v", err)
	}
	if result.Imported != 2 || result.Failed != 1 {
		t.Errorf("Imported = %d, Failed = %d; want 2, 1", result.Imported, result.Failed)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 3 || result.Errors[0].Field != "Company Name" {
		t.Errorf("Errors = %+v, want one error on row 3 for Company Name", result.Errors)
	}

	total, _ := app.CountRecords("companies")
	if total != 2 {
		t.Errorf("expected 2 companies in DB, got %d", total)
	}
	if _, err := app.FindFirstRecordByData("companies", "phone", "2"); err == nil {
		t.Error("row missing its required field was inserted")
	}
}

func TestCommitImport_MissingRequiredMapping(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	parsed, _ := ParseCSV(strings.NewReader("Phone\n1\n"))

	_, err := CommitImport(app, TableCompanies, parsed, []FieldMapping{{CSVColumn: "Phone", SystemField: "phone"}}, "", 0)
	if !errors.Is(err, ErrMissingRequiredMappings) {
		t.Fatalf("error = %v, want ErrMissingRequiredMappings", err)
	}
	if n, _ := app.CountRecords("companies"); n != 0 {
		t.Errorf("expected no inserts, got %d", n)
	}
}

func TestCommitImport_InsertErrorDoesNotAbort(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	parsed, _ := ParseCSV(strings.NewReader("Name,Status\nAcme,active\nBeta,bogus\nGamma,prospect\n"))
	mappings := []FieldMapping{
		{CSVColumn: "Name", SystemField: "name"},
		{CSVColumn: "Status", SystemField: "status"},
	}

	result, err := CommitImport(app, TableCompanies, parsed, mappings, "", 0)
	if err != nil {
		t.Fatalf("CommitImport() error = %v", err)
	}
	if result.Imported != 2 || result.Failed != 1 {
		t.Errorf("Imported = %d, Failed = %d; want 2, 1", result.Imported, result.Failed)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 3 {
		t.Errorf("Errors = %+v, want one error on row 3", result.Errors)
	}
}

func TestCommitImport_ErrorRowsAreSourceLines(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	input := "Name,Notes\n" +
		"Acme,\"two\nlines\"\n" +
		"\n" +
		",first failure\n" +
		"Beta,\"a\nb\nc\"\n" +
		",second failure\n"
	parsed, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	mappings := []FieldMapping{{CSVColumn: "Name", SystemField: "name"}, {CSVColumn: "Notes", SystemField: "notes"}}

	result, err := CommitImport(app, TableCompanies, parsed, mappings, "", 0)
	if err != nil {
		t.Fatalf("CommitImport() error = %v", err)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Errors = %+v, want 2", result.Errors)
	}
	if result.Errors[0].Row != 5 || result.Errors[1].Row != 9 {
		t.Errorf("error rows = %d, %d; want 5, 9", result.Errors[0].Row, result.Errors[1].Row)
	}
}

func TestCommitImport_CustomFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	parsed, _ := ParseCSV(strings.NewReader("Name,Fleet Size,Tags\nAcme,\"1,200\",vip;port\n"))
	mappings := AutoMatch(TableCompanies, parsed, nil)

	result, err := CommitImport(app, TableCompanies, parsed, mappings, "", 0)
	if err != nil {
		t.Fatalf("CommitImport() error = %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("Imported = %d, errors %v", result.Imported, result.Errors)
	}
	if len(result.CreatedFields) != 1 || result.CreatedFields[0] != "fleet_size" {
		t.Errorf("CreatedFields = %v, want [fleet_size]", result.CreatedFields)
	}

	defs, err := LoadCustomFields(app, TableCompanies)
	if err != nil || len(defs) != 1 || defs[0].FieldType != FieldNumber {
		t.Fatalf("custom field defs = %+v, err %v", defs, err)
	}

	rec, err := app.FindFirstRecordByData("companies", "name", "Acme")
	if err != nil {
		t.Fatalf("find Acme: %v", err)
	}
	var custom map[string]any
	if err := rec.UnmarshalJSONField("custom_data", &custom); err != nil {
		t.Fatalf("custom_data: %v", err)
	}
	if custom["fleet_size"] != 1200.0 {
		t.Errorf("custom_data = %v, want fleet_size 1200", custom)
	}
	var tags []string
	if err := rec.UnmarshalJSONField("tags", &tags); err != nil || len(tags) != 2 {
		t.Errorf("tags = %v (err %v), want [vip port]", tags, err)
	}

	// A second import reuses the definition instead of creating another.
	again, err := CommitImport(app, TableCompanies, parsed, AutoMatch(TableCompanies, parsed, defs), "", 0)
	if err != nil {
		t.Fatalf("second CommitImport() error = %v", err)
	}
	if len(again.CreatedFields) != 0 {
		t.Errorf("second import created %v", again.CreatedFields)
	}
}

func TestCommitImport_ContactsResolveCompany(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	acme := testhelpers.CreateTestCompany(t, app, "Acme Corp")

	parsed, _ := ParseCSV(strings.NewReader("First Name,Company,Primary\nDana,acme corp,yes\nLee,Nowhere Inc,no\n"))
	mappings := AutoMatch(TableContacts, parsed, nil)

	result, err := CommitImport(app, TableContacts, parsed, mappings, "", 0)
	if err != nil {
		t.Fatalf("CommitImport() error = %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("Imported = %d, errors %v", result.Imported, result.Errors)
	}

	dana, err := app.FindFirstRecordByData("contacts", "first_name", "Dana")
	if err != nil {
		t.Fatalf("find Dana: %v", err)
	}
	if dana.GetString("company") != acme.Id {
		t.Errorf("Dana company = %q, want %q", dana.GetString("company"), acme.Id)
	}
	if !dana.GetBool("is_primary") {
		t.Error("Dana should be primary")
	}

	lee, err := app.FindFirstRecordByData("contacts", "first_name", "Lee")
	if err != nil {
		t.Fatalf("find Lee: %v", err)
	}
	unassigned, err := app.FindFirstRecordByData("companies", "name", collections.UnassignedCompanyName)
	if err != nil {
		t.Fatalf("find Unassigned: %v", err)
	}
	if lee.GetString("company") != unassigned.Id {
		t.Errorf("Lee company = %q, want Unassigned %q", lee.GetString("company"), unassigned.Id)
	}
}

func TestCommitImport_LogsActivity(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	user := testhelpers.CreateTestUser(t, app, "ops@example.com")
	parsed, _ := ParseCSV(strings.NewReader("Customer Name\nPat Lee\n"))

	if _, err := CommitImport(app, TableCustomers, parsed, AutoMatch(TableCustomers, parsed, nil), user.Id, 0); err != nil {
		t.Fatalf("CommitImport() error = %v", err)
	}

	entries, err := ListActivity(app, ActivityFilter{Type: ActivityImport})
	if err != nil {
		t.Fatalf("ListActivity() error = %v", err)
	}
	if len(entries) != 1 || entries[0].CreatedBy != user.Id {
		t.Fatalf("activity = %+v, want one import entry by the user", entries)
	}
	if !strings.Contains(entries[0].Subject, "Imported 1 customers") {
		t.Errorf("Subject = %q", entries[0].Subject)
	}
}

func TestCommitImport_ActivitySummaryUsesErrorLimit(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	var b strings.Builder
	b.WriteString("Name,Phone\n")
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, ",%d\n", i)
	}
	parsed, _ := ParseCSV(strings.NewReader(b.String()))
	mappings := []FieldMapping{{CSVColumn: "Name", SystemField: "name"}, {CSVColumn: "Phone", SystemField: "phone"}}

	result, err := CommitImport(app, TableCompanies, parsed, mappings, "", 3)
	if err != nil {
		t.Fatalf("CommitImport() error = %v", err)
	}
	if got := len(result.VisibleErrors()); got != 3 {
		t.Errorf("VisibleErrors() len = %d, want 3", got)
	}

	entries, err := ListActivity(app, ActivityFilter{Type: ActivityImport})
	if err != nil || len(entries) != 1 {
		t.Fatalf("ListActivity() = %v, %v", entries, err)
	}
	want := "Imported 0 of 8 companies, 8 failed (5 more errors not shown)"
	if entries[0].Description != want {
		t.Errorf("Description = %q, want %q", entries[0].Description, want)
	}
}

func TestImportResult_ErrorCap(t *testing.T) {
	r := &ImportResult{Table: TableCompanies, TotalRows: 30, Imported: 5, Failed: 25}
	for i := 0; i < 25; i++ {
		r.Errors = append(r.Errors, ImportRowError{Row: i + 2, Message: "bad"})
	}

	if got := len(r.VisibleErrors()); got != MaxVisibleErrors {
		t.Errorf("VisibleErrors() len = %d, want %d", got, MaxVisibleErrors)
	}
	if got := r.RemainingErrors(); got != 5 {
		t.Errorf("RemainingErrors() = %d, want 5", got)
	}
	want := fmt.Sprintf("Imported 5 of 30 companies, 25 failed (%d more errors not shown)", 5)
	if got := r.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	r.ErrorLimit = 30
	if r.RemainingErrors() != 0 || len(r.VisibleErrors()) != 25 {
		t.Error("custom ErrorLimit not honoured")
	}
}

func TestImportRowError_String(t *testing.T) {
	e := ImportRowError{Row: 4, Field: "Company Name", Message: "Company Name is required"}
	if got := e.String(); got != "Row 4 (Company Name): Company Name is required" {
		t.Errorf("String() = %q", got)
	}
}
