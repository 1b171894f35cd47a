package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/collections"
)

// MaxVisibleErrors is how many row errors are shown before the rest are
// summarised as a count.
const MaxVisibleErrors = 20

// ImportResult holds the outcome of an import.
type ImportResult struct {
	Table         ImportTable      `json:"table"`
	BatchID       string           `json:"batch_id"`
	TotalRows     int              `json:"total_rows"`
	Imported      int              `json:"imported"`
	Failed        int              `json:"failed"`
	Errors        []ImportRowError `json:"-"`
	CreatedFields []string         `json:"created_fields,omitempty"`
	ErrorLimit    int              `json:"-"`
}

// ImportRowError is a failure on one row. Row is the 1-indexed line the row
// starts on in the uploaded file.
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ImportRowError) String() string {
	if e.Field == "" {
		return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("Row %d (%s): %s", e.Row, e.Field, e.Message)
}

func (r *ImportResult) errorLimit() int {
	if r.ErrorLimit > 0 {
		return r.ErrorLimit
	}
	return MaxVisibleErrors
}

// VisibleErrors returns the first errors up to the display cap.
func (r *ImportResult) VisibleErrors() []ImportRowError {
	if len(r.Errors) <= r.errorLimit() {
		return r.Errors
	}
	return r.Errors[:r.errorLimit()]
}

// RemainingErrors is the number of errors beyond the display cap.
func (r *ImportResult) RemainingErrors() int {
	if n := len(r.Errors) - r.errorLimit(); n > 0 {
		return n
	}
	return 0
}

// Summary is the one-line user feedback for an import.
func (r *ImportResult) Summary() string {
	s := fmt.Sprintf("Imported %d of %d %s", r.Imported, r.TotalRows, r.Table)
	if r.Failed > 0 {
		s += fmt.Sprintf(", %d failed", r.Failed)
	}
	if n := r.RemainingErrors(); n > 0 {
		s += fmt.Sprintf(" (%d more errors not shown)", n)
	}
	return s
}

// columnPlan is a validated mapping resolved to where its values go.
type columnPlan struct {
	column   string
	key      string
	label    string
	typ      FieldType
	custom   bool
	required bool
	fallback string
}

// CommitImport writes every parsed row into table using mappings. Rows are
// inserted one at a time and independently: a row that fails its required
// check or its insert is recorded in the result and the loop moves on.
// Missing custom fields are created first. errorLimit caps the errors listed
// in the result and its activity summary; zero means MaxVisibleErrors.
func CommitImport(app core.App, table ImportTable, parsed *ParsedFile, mappings []FieldMapping, userID string, errorLimit int) (*ImportResult, error) {
	if _, err := ParseImportTable(string(table)); err != nil {
		return nil, err
	}
	if err := ValidateMappings(table, mappings); err != nil {
		return nil, err
	}

	col, err := app.FindCollectionByNameOrId(string(table))
	if err != nil {
		return nil, fmt.Errorf("%s collection not found: %w", table, err)
	}

	result := &ImportResult{
		Table:      table,
		BatchID:    uuid.NewString(),
		TotalRows:  len(parsed.Rows),
		ErrorLimit: errorLimit,
	}

	plans, created, err := planColumns(app, table, mappings)
	if err != nil {
		return nil, err
	}
	result.CreatedFields = created

	var companyLookup map[string]string
	if table == TableContacts {
		companyLookup, err = buildCompanyLookup(app)
		if err != nil {
			return nil, err
		}
	}

	for i, row := range parsed.Rows {
		rowNum := parsed.LineOf(i)

		record, rowErrs := buildImportRecord(col, plans, row, rowNum)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			result.Failed++
			continue
		}
		record.Set("import_batch", result.BatchID)

		if table == TableContacts {
			companyID, err := resolveContactCompany(app, companyLookup, row, plans)
			if err != nil {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Field: "Company Name", Message: err.Error()})
				result.Failed++
				continue
			}
			record.Set("company", companyID)
		}

		if err := app.Save(record); err != nil {
			app.Logger().Warn("import row failed", "table", table, "row", rowNum, "error", err)
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: fmt.Sprintf("Failed to save: %s", err.Error())})
			result.Failed++
			continue
		}
		result.Imported++
	}

	app.Logger().Info("import finished",
		"table", table, "batch", result.BatchID,
		"imported", result.Imported, "failed", result.Failed)

	if err := LogActivity(app, Activity{
		Type:        ActivityImport,
		Subject:     fmt.Sprintf("Imported %d %s", result.Imported, table),
		Description: result.Summary(),
		CreatedBy:   userID,
	}); err != nil {
		app.Logger().Warn("import activity log failed", "error", err)
	}

	return result, nil
}

// planColumns resolves mappings to column plans, creating custom fields for
// create-new mappings that do not exist yet. It returns the names created.
func planColumns(app core.App, table ImportTable, mappings []FieldMapping) ([]columnPlan, []string, error) {
	existing, err := LoadCustomFields(app, table)
	if err != nil {
		return nil, nil, err
	}
	byName := make(map[string]CustomField, len(existing))
	for _, cf := range existing {
		byName[cf.FieldName] = cf
	}

	var (
		plans   []columnPlan
		created []string
	)
	for _, m := range mappings {
		switch {
		case m.SystemField != "":
			f, _ := findSystemField(table, m.SystemField)
			plans = append(plans, columnPlan{
				column: m.CSVColumn, key: f.Key, label: f.Label, typ: f.Type, required: f.Required,
			})
		case m.CustomField != "":
			cf, ok := byName[m.CustomField]
			if !ok {
				return nil, nil, fmt.Errorf("custom field %q is not defined for %s", m.CustomField, table)
			}
			plans = append(plans, customPlan(m.CSVColumn, cf))
		case m.CreateNew:
			name := Normalize(m.NewFieldName)
			cf, ok := byName[name]
			if !ok {
				typ := m.NewFieldType
				if typ == "" {
					typ = DetectFieldType(m.SampleValues)
				}
				cf, err = createCustomField(app, table, name, m.CSVColumn, typ)
				if err != nil {
					return nil, nil, err
				}
				byName[name] = cf
				created = append(created, name)
			}
			plans = append(plans, customPlan(m.CSVColumn, cf))
		}
	}
	return plans, created, nil
}

func customPlan(column string, cf CustomField) columnPlan {
	label := cf.DisplayName
	if label == "" {
		label = cf.FieldName
	}
	return columnPlan{
		column:   column,
		key:      cf.FieldName,
		label:    label,
		typ:      cf.FieldType,
		custom:   true,
		required: cf.IsRequired,
		fallback: cf.DefaultValue,
	}
}

func createCustomField(app core.App, table ImportTable, name, displayName string, typ FieldType) (CustomField, error) {
	col, err := app.FindCollectionByNameOrId("custom_fields")
	if err != nil {
		return CustomField{}, fmt.Errorf("custom_fields collection not found: %w", err)
	}
	r := core.NewRecord(col)
	r.Set("table_name", string(table))
	r.Set("field_name", name)
	r.Set("field_type", string(typ))
	r.Set("display_name", displayName)
	if err := app.Save(r); err != nil {
		return CustomField{}, fmt.Errorf("create custom field %q: %w", name, err)
	}
	return customFieldFromRecord(r), nil
}

// buildImportRecord converts one row into an unsaved record. Required fields
// that end up empty produce errors and no record.
func buildImportRecord(col *core.Collection, plans []columnPlan, row map[string]string, rowNum int) (*core.Record, []ImportRowError) {
	var errs []ImportRowError
	record := core.NewRecord(col)
	customData := make(map[string]any)

	for _, p := range plans {
		raw := row[p.column]
		if strings.TrimSpace(raw) == "" && p.fallback != "" {
			raw = p.fallback
		}
		val := ConvertValue(p.typ, raw)

		if val == nil {
			if p.required {
				msg := p.label + " is required"
				if strings.TrimSpace(raw) != "" {
					msg = fmt.Sprintf("%s: %q is not a valid %s", p.label, raw, p.typ)
				}
				errs = append(errs, ImportRowError{Row: rowNum, Field: p.label, Message: msg})
			}
			continue
		}

		switch {
		case p.custom:
			customData[p.key] = val
		case p.key == contactCompanyField && col.Name == string(TableContacts):
			// resolved to a relation by the caller
		default:
			record.Set(p.key, val)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	if len(customData) > 0 {
		record.Set("custom_data", customData)
	}
	return record, nil
}

// buildCompanyLookup maps lower-cased company names to ids.
func buildCompanyLookup(app core.App) (map[string]string, error) {
	records, err := app.FindAllRecords("companies")
	if err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}
	lookup := make(map[string]string, len(records))
	for _, r := range records {
		key := strings.ToLower(strings.TrimSpace(r.GetString("name")))
		if _, dup := lookup[key]; !dup {
			lookup[key] = r.Id
		}
	}
	return lookup, nil
}

// resolveContactCompany finds the company named in the row, falling back to
// the Unassigned company.
func resolveContactCompany(app core.App, lookup map[string]string, row map[string]string, plans []columnPlan) (string, error) {
	for _, p := range plans {
		if p.custom || p.key != contactCompanyField {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(row[p.column]))
		if id, ok := lookup[name]; ok && name != "" {
			return id, nil
		}
	}

	id, err := UnassignedCompanyID(app)
	if err != nil {
		return "", err
	}
	lookup[strings.ToLower(collections.UnassignedCompanyName)] = id
	return id, nil
}

// UnassignedCompanyID returns the placeholder company for orphaned
// contacts, creating it when missing.
func UnassignedCompanyID(app core.App) (string, error) {
	rec, err := app.FindFirstRecordByFilter("companies", "name = {:name}", dbx.Params{"name": collections.UnassignedCompanyName})
	if err == nil {
		return rec.Id, nil
	}

	col, err := app.FindCollectionByNameOrId("companies")
	if err != nil {
		return "", fmt.Errorf("companies collection not found: %w", err)
	}
	rec = core.NewRecord(col)
	rec.Set("name", collections.UnassignedCompanyName)
	rec.Set("status", "inactive")
	if err := app.Save(rec); err != nil {
		return "", fmt.Errorf("create unassigned company: %w", err)
	}
	return rec.Id, nil
}
