package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xuri/excelize/v2"

	"equipquote/config"
	"equipquote/services"
	"equipquote/testhelpers"
)

// uploadRequest builds a multipart POST carrying content as the "file"
// part plus any extra form fields.
func uploadRequest(t *testing.T, target, table, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.SetPathValue("table", table)
	return req
}

const companiesCSV = "Company Name,Phone,Fleet Size\nAcme Corp,555-1234,12\nBeta Haulage,555-9876,4\n"

func TestHandleImportPreview(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	cfg := config.Default()

	req := uploadRequest(t, "/api/import/companies/preview", "companies", "companies.csv", companiesCSV, nil)
	rec := serve(t, app, HandleImportPreview(app, cfg), req, nil)
	assertStatus(t, rec, http.StatusOK)

	var got importPreview
	decodeBody(t, rec, &got)
	if got.RowCount != 2 || len(got.Rows) != 2 || len(got.Headers) != 3 {
		t.Fatalf("preview = %+v", got)
	}
	if len(got.MissingRequired) != 0 {
		t.Errorf("missing required = %v", got.MissingRequired)
	}
	want := map[string]string{"Company Name": "name", "Phone": "phone"}
	for _, m := range got.Mappings {
		if field, ok := want[m.CSVColumn]; ok && m.SystemField != field {
			t.Errorf("%s mapped to %q, want %q", m.CSVColumn, m.SystemField, field)
		}
		if m.CSVColumn == "Fleet Size" && !m.CreateNew {
			t.Errorf("Fleet Size should be offered as a new field: %+v", m)
		}
	}
	// nothing is written by a preview
	if rows, _ := app.FindAllRecords("companies"); len(rows) != 0 {
		t.Errorf("preview saved %d companies", len(rows))
	}
}

func TestHandleImportPreview_BadUploads(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	cfg := config.Default()

	tests := []struct {
		name     string
		table    string
		filename string
		content  string
		status   int
	}{
		{"unknown table", "quote_history", "a.csv", companiesCSV, http.StatusBadRequest},
		{"empty file", "companies", "a.csv", "", http.StatusUnprocessableEntity},
		{"unsupported type", "companies", "a.pdf", "%PDF-", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := uploadRequest(t, "/api/import/"+tt.table+"/preview", tt.table, tt.filename, tt.content, nil)
			rec := serve(t, app, HandleImportPreview(app, cfg), req, nil)
			assertStatus(t, rec, tt.status)
		})
	}
}

func TestHandleImportCommit(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	user := testhelpers.CreateTestUser(t, app, "rep@example.com")
	cfg := config.Default()

	mappings, _ := json.Marshal([]services.FieldMapping{
		{CSVColumn: "Company Name", SystemField: "name"},
		{CSVColumn: "Phone", SystemField: "phone"},
		{CSVColumn: "Fleet Size"},
	})
	csv := companiesCSV + ",555-0000,1\n"
	req := uploadRequest(t, "/api/import/companies/commit", "companies", "companies.csv", csv,
		map[string]string{"mappings": string(mappings)})
	rec := serve(t, app, HandleImportCommit(app, cfg), req, user)
	assertStatus(t, rec, http.StatusOK)

	var got struct {
		BatchID         string                    `json:"batch_id"`
		TotalRows       int                       `json:"total_rows"`
		Imported        int                       `json:"imported"`
		Failed          int                       `json:"failed"`
		Summary         string                    `json:"summary"`
		VisibleErrors   []services.ImportRowError `json:"visible_errors"`
		RemainingErrors int                       `json:"remaining_errors"`
		Errors          []services.ImportRowError `json:"errors"`
	}
	decodeBody(t, rec, &got)
	if got.TotalRows != 3 || got.Imported != 2 || got.Failed != 1 || got.BatchID == "" {
		t.Errorf("result = %+v", got)
	}
	if len(got.Errors) != 1 || got.Errors[0].Row != 4 || len(got.VisibleErrors) != 1 || got.RemainingErrors != 0 {
		t.Errorf("errors = %+v visible = %+v", got.Errors, got.VisibleErrors)
	}

	rows, _ := app.FindAllRecords("companies")
	if len(rows) != 2 {
		t.Errorf("saved %d companies, want 2", len(rows))
	}
}

func TestHandleImportCommit_Rejected(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	cfg := config.Default()

	phoneOnly, _ := json.Marshal([]services.FieldMapping{{CSVColumn: "Phone", SystemField: "phone"}})
	tests := []struct {
		name     string
		mappings string
		status   int
	}{
		{"no mappings field", "", http.StatusBadRequest},
		{"malformed mappings", "{not json", http.StatusBadRequest},
		{"required field unmapped", string(phoneOnly), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]string{}
			if tt.mappings != "" {
				fields["mappings"] = tt.mappings
			}
			req := uploadRequest(t, "/api/import/companies/commit", "companies", "companies.csv", companiesCSV, fields)
			rec := serve(t, app, HandleImportCommit(app, cfg), req, nil)
			assertStatus(t, rec, tt.status)
		})
	}
}

func TestHandleImportTemplate(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	req := jsonRequest(t, http.MethodGet, "/api/import/contacts/template", nil)
	req.SetPathValue("table", "contacts")
	rec := serve(t, app, HandleImportTemplate(app), req, nil)
	assertStatus(t, rec, http.StatusOK)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open template: %v", err)
	}
	defer f.Close()
	if len(f.GetSheetList()) == 0 {
		t.Error("template has no sheets")
	}

	req = jsonRequest(t, http.MethodGet, "/api/import/users/template", nil)
	req.SetPathValue("table", "users")
	rec = serve(t, app, HandleImportTemplate(app), req, nil)
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestHandleImportErrorReport(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	rowErrors := []services.ImportRowError{
		{Row: 3, Field: "Company Name", Message: "required"},
		{Row: 7, Message: "Failed to save: duplicate"},
	}

	req := jsonRequest(t, http.MethodPost, "/api/import/companies/errors", rowErrors)
	req.SetPathValue("table", "companies")
	rec := serve(t, app, HandleImportErrorReport(), req, nil)
	assertStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Content-Type") != xlsxContentType {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if _, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes())); err != nil {
		t.Errorf("open report: %v", err)
	}

	req = jsonRequest(t, http.MethodPost, "/api/import/companies/errors", nil)
	req.SetPathValue("table", "companies")
	rec = serve(t, app, HandleImportErrorReport(), req, nil)
	assertStatus(t, rec, http.StatusBadRequest)
}
