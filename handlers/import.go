package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/config"
	"equipquote/services"
)

// previewRows is how many parsed rows the preview echoes back.
const previewRows = 5

func importTable(e *core.RequestEvent) (services.ImportTable, error) {
	return services.ParseImportTable(e.Request.PathValue("table"))
}

// parseUpload reads the "file" part of a multipart upload.
func parseUpload(e *core.RequestEvent, maxBytes int64) (*services.ParsedFile, error) {
	if err := e.Request.ParseMultipartForm(maxBytes); err != nil {
		return nil, fmt.Errorf("file too large or invalid form data")
	}
	file, header, err := e.Request.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("please select a file to upload")
	}
	defer file.Close()
	return services.ParseImportFile(header.Filename, file)
}

// HandleImportTemplate downloads the blank .xlsx import template of a table.
// Route: GET /api/import/{table}/template
func HandleImportTemplate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		table, err := importTable(e)
		if err != nil {
			return respondServiceError(e, "import_template", err)
		}
		data, err := services.GenerateImportTemplate(app, table)
		if err != nil {
			return respondServiceError(e, "import_template", err)
		}
		return sendFile(e, xlsxContentType, fmt.Sprintf("%s_Import_Template.xlsx", table), data)
	}
}

type importPreview struct {
	Table           services.ImportTable    `json:"table"`
	Headers         []string                `json:"headers"`
	RowCount        int                     `json:"row_count"`
	Rows            []map[string]string     `json:"rows"`
	Mappings        []services.FieldMapping `json:"mappings"`
	MissingRequired []string                `json:"missing_required"`
	SystemFields    []services.SystemField  `json:"system_fields"`
	CustomFields    []services.CustomField  `json:"custom_fields"`
}

// HandleImportPreview parses an upload and suggests a mapping for every
// column. Nothing is written.
// Route: POST /api/import/{table}/preview
func HandleImportPreview(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		table, err := importTable(e)
		if err != nil {
			return respondServiceError(e, "import_preview", err)
		}
		parsed, err := parseUpload(e, cfg.Import.MaxUploadBytes)
		if err != nil {
			return uploadError(e, "import_preview", err)
		}

		custom, err := services.LoadCustomFields(app, table)
		if err != nil {
			return respondServiceError(e, "import_preview", err)
		}
		mappings := services.AutoMatch(table, parsed, custom)

		rows := parsed.Rows
		if len(rows) > previewRows {
			rows = rows[:previewRows]
		}
		return e.JSON(http.StatusOK, importPreview{
			Table:           table,
			Headers:         parsed.Headers,
			RowCount:        len(parsed.Rows),
			Rows:            rows,
			Mappings:        mappings,
			MissingRequired: services.MissingRequired(table, mappings),
			SystemFields:    services.SystemFields(table),
			CustomFields:    custom,
		})
	}
}

// importCommitted is the commit result. AllErrors carries every row error
// for the error report download.
type importCommitted struct {
	*services.ImportResult
	Summary         string                    `json:"summary"`
	VisibleErrors   []services.ImportRowError `json:"visible_errors"`
	RemainingErrors int                       `json:"remaining_errors"`
	AllErrors       []services.ImportRowError `json:"errors"`
}

// HandleImportCommit re-parses the upload and writes every row using the
// posted mappings (a JSON array in the "mappings" form field). Row failures
// are reported, not fatal.
// Route: POST /api/import/{table}/commit
func HandleImportCommit(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		table, err := importTable(e)
		if err != nil {
			return respondServiceError(e, "import_commit", err)
		}
		parsed, err := parseUpload(e, cfg.Import.MaxUploadBytes)
		if err != nil {
			return uploadError(e, "import_commit", err)
		}

		var mappings []services.FieldMapping
		if err := json.Unmarshal([]byte(e.Request.FormValue("mappings")), &mappings); err != nil {
			return respondError(e, http.StatusBadRequest, "Invalid field mappings")
		}

		result, err := services.CommitImport(app, table, parsed, mappings, userID(e), cfg.Import.VisibleErrors)
		if err != nil {
			return respondServiceError(e, "import_commit", err)
		}
		log.Printf("import_commit: %s batch %s: %s", table, result.BatchID, result.Summary())

		return e.JSON(http.StatusOK, importCommitted{
			ImportResult:    result,
			Summary:         result.Summary(),
			VisibleErrors:   result.VisibleErrors(),
			RemainingErrors: result.RemainingErrors(),
			AllErrors:       result.Errors,
		})
	}
}

// HandleImportErrorReport turns posted row errors into an .xlsx download.
// Route: POST /api/import/{table}/errors
func HandleImportErrorReport() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		table, err := importTable(e)
		if err != nil {
			return respondServiceError(e, "import_errors", err)
		}
		var rowErrors []services.ImportRowError
		if err := readJSON(e, &rowErrors); err != nil {
			return respondError(e, http.StatusBadRequest, "Invalid error data")
		}
		data, err := services.GenerateImportErrorReport(rowErrors)
		if err != nil {
			return respondServiceError(e, "import_errors", err)
		}
		filename := fmt.Sprintf("%s_Import_Errors_%s.xlsx", table, time.Now().Format("2006-01-02"))
		return sendFile(e, xlsxContentType, filename, data)
	}
}

// uploadError reports a bad upload. Parse failures describe the file, so
// their message is shown as is.
func uploadError(e *core.RequestEvent, scope string, err error) error {
	if errors.Is(err, services.ErrEmptyFile) {
		return respondServiceError(e, scope, err)
	}
	log.Printf("%s: %v", scope, err)
	return respondError(e, http.StatusBadRequest, capitalize(err.Error()))
}
