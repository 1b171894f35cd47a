package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// ErrMissingRequiredMappings blocks an import until every required system
// field has a column.
var ErrMissingRequiredMappings = errors.New("required fields are not mapped")

// sampleSize is how many non-empty values feed type detection and previews.
const sampleSize = 5

// FieldMapping ties one uploaded column to its destination. At most one of
// SystemField, CustomField and CreateNew is set; none means the column is
// dropped.
type FieldMapping struct {
	CSVColumn    string    `json:"csv_column"`
	SystemField  string    `json:"system_field,omitempty"`
	CustomField  string    `json:"custom_field,omitempty"`
	CreateNew    bool      `json:"create_new"`
	NewFieldName string    `json:"new_field_name,omitempty"`
	NewFieldType FieldType `json:"new_field_type,omitempty"`
	SampleValues []string  `json:"sample_values"`
}

// Skipped reports whether the column is dropped on import.
func (m FieldMapping) Skipped() bool {
	return m.SystemField == "" && m.CustomField == "" && !m.CreateNew
}

// CustomField is a user-defined column stored in a record's custom_data.
type CustomField struct {
	ID           string    `json:"id"`
	TableName    string    `json:"table_name"`
	FieldName    string    `json:"field_name"`
	FieldType    FieldType `json:"field_type"`
	DisplayName  string    `json:"display_name"`
	IsRequired   bool      `json:"is_required"`
	DefaultValue string    `json:"default_value"`
}

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lower-cases s and collapses runs of anything other than letters
// and digits into a single underscore: " Company  Name* " -> "company_name".
func Normalize(s string) string {
	s = nonAlnumRun.ReplaceAllString(strings.ToLower(s), "_")
	return strings.Trim(s, "_")
}

// LoadCustomFields returns the custom fields already defined for a table.
func LoadCustomFields(app core.App, table ImportTable) ([]CustomField, error) {
	records, err := app.FindAllRecords("custom_fields", dbx.HashExp{"table_name": string(table)})
	if err != nil {
		return nil, fmt.Errorf("load custom fields: %w", err)
	}
	out := make([]CustomField, 0, len(records))
	for _, r := range records {
		out = append(out, customFieldFromRecord(r))
	}
	return out, nil
}

func customFieldFromRecord(r *core.Record) CustomField {
	return CustomField{
		ID:           r.Id,
		TableName:    r.GetString("table_name"),
		FieldName:    r.GetString("field_name"),
		FieldType:    FieldType(r.GetString("field_type")),
		DisplayName:  r.GetString("display_name"),
		IsRequired:   r.GetBool("is_required"),
		DefaultValue: r.GetString("default_value"),
	}
}

// AutoMatch proposes a mapping for every header of parsed. Built-in fields
// are tried by exact key or label, then by exact alias, then by substring;
// each target is used by at most one column. Remaining columns match
// existing custom fields or become create-new suggestions with a detected
// type.
func AutoMatch(table ImportTable, parsed *ParsedFile, custom []CustomField) []FieldMapping {
	fields := SystemFields(table)
	mappings := make([]FieldMapping, len(parsed.Headers))
	used := make(map[string]bool)

	for i, h := range parsed.Headers {
		mappings[i] = FieldMapping{CSVColumn: h, SampleValues: parsed.Samples(h, sampleSize)}
	}

	// Exact passes run over all columns before any substring guess can claim
	// a field. A header naming a field's key or label outranks an alias.
	for _, match := range []func(string, SystemField) bool{nameMatch, aliasMatch} {
		for i := range mappings {
			if mappings[i].SystemField != "" {
				continue
			}
			norm := Normalize(mappings[i].CSVColumn)
			for _, f := range fields {
				if !used[f.Key] && match(norm, f) {
					mappings[i].SystemField = f.Key
					used[f.Key] = true
					break
				}
			}
		}
	}

	for i := range mappings {
		if mappings[i].SystemField != "" {
			continue
		}
		norm := Normalize(mappings[i].CSVColumn)
		for _, f := range fields {
			if !used[f.Key] && substringFieldMatch(norm, f) {
				mappings[i].SystemField = f.Key
				used[f.Key] = true
				break
			}
		}
	}

	usedCustom := make(map[string]bool)
	for i := range mappings {
		m := &mappings[i]
		if m.SystemField != "" {
			continue
		}
		norm := Normalize(m.CSVColumn)
		for _, cf := range custom {
			if usedCustom[cf.FieldName] {
				continue
			}
			if norm == Normalize(cf.FieldName) || (cf.DisplayName != "" && norm == Normalize(cf.DisplayName)) {
				m.CustomField = cf.FieldName
				usedCustom[cf.FieldName] = true
				break
			}
		}
		if m.CustomField != "" {
			continue
		}
		m.CreateNew = true
		m.NewFieldName = Normalize(m.CSVColumn)
		m.NewFieldType = DetectFieldType(m.SampleValues)
	}
	return mappings
}

func nameMatch(norm string, f SystemField) bool {
	return norm != "" && (norm == f.Key || norm == Normalize(f.Label))
}

func aliasMatch(norm string, f SystemField) bool {
	if norm == "" {
		return false
	}
	for _, a := range f.Aliases {
		if norm == a {
			return true
		}
	}
	return false
}

// minSubstringLen keeps short tokens like "st" from matching everything.
const minSubstringLen = 4

func substringFieldMatch(norm string, f SystemField) bool {
	if len(norm) < minSubstringLen {
		return false
	}
	candidates := append([]string{f.Key, Normalize(f.Label)}, f.Aliases...)
	for _, c := range candidates {
		if len(c) < minSubstringLen {
			continue
		}
		if strings.Contains(norm, c) || strings.Contains(c, norm) {
			return true
		}
	}
	return false
}

var (
	isoDatePattern   = regexp.MustCompile(`^\d{4}[-/]\d{1,2}[-/]\d{1,2}([T ].*)?$`)
	slashDatePattern = regexp.MustCompile(`^\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}$`)
	longDatePattern  = regexp.MustCompile(`^(?i)[a-z]{3,9}\.? \d{1,2},? \d{4}$`)
)

// DetectFieldType guesses a column type from sample values, checking number,
// then date, then boolean. No samples, or mixed values, give text.
func DetectFieldType(samples []string) FieldType {
	if len(samples) > sampleSize {
		samples = samples[:sampleSize]
	}
	if len(samples) == 0 {
		return FieldText
	}
	switch {
	case allMatch(samples, looksNumeric):
		return FieldNumber
	case allMatch(samples, looksDate):
		return FieldDate
	case allMatch(samples, looksBoolean):
		return FieldBoolean
	}
	return FieldText
}

func allMatch(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(strings.TrimSpace(v)) {
			return false
		}
	}
	return true
}

func looksNumeric(s string) bool {
	_, ok := parseNumber(s)
	return ok
}

// looksDate accepts only values ConvertValue can also read as a date.
func looksDate(s string) bool {
	if !isoDatePattern.MatchString(s) && !slashDatePattern.MatchString(s) && !longDatePattern.MatchString(s) {
		return false
	}
	_, ok := parseDate(s)
	return ok
}

func looksBoolean(s string) bool {
	_, ok := booleanTokens[strings.ToLower(s)]
	return ok
}

// MissingRequired lists the labels of required built-in fields no column maps to.
func MissingRequired(table ImportTable, mappings []FieldMapping) []string {
	mapped := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		if m.SystemField != "" {
			mapped[m.SystemField] = true
		}
	}
	var missing []string
	for _, f := range requiredSystemFields(table) {
		if !mapped[f.Key] {
			missing = append(missing, f.Label)
		}
	}
	return missing
}

// ValidateMappings checks a user-edited mapping set against a table before
// anything is written.
func ValidateMappings(table ImportTable, mappings []FieldMapping) error {
	var problems []string
	seen := make(map[string]string)
	for _, m := range mappings {
		switch {
		case m.SystemField != "":
			if _, ok := findSystemField(table, m.SystemField); !ok {
				problems = append(problems, fmt.Sprintf("%q maps to unknown field %q", m.CSVColumn, m.SystemField))
				continue
			}
			if prev, dup := seen[m.SystemField]; dup {
				problems = append(problems, fmt.Sprintf("%q and %q both map to %q", prev, m.CSVColumn, m.SystemField))
			}
			seen[m.SystemField] = m.CSVColumn
		case m.CreateNew:
			if Normalize(m.NewFieldName) == "" {
				problems = append(problems, fmt.Sprintf("%q needs a name for the new field", m.CSVColumn))
			}
			if m.NewFieldType != "" && !ValidFieldType(string(m.NewFieldType)) {
				problems = append(problems, fmt.Sprintf("%q has unknown type %q", m.CSVColumn, m.NewFieldType))
			}
		}
	}

	if missing := MissingRequired(table, mappings); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequiredMappings, strings.Join(missing, ", "))
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
