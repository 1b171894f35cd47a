package services

import (
	"errors"
	"fmt"
)

// FieldType is the value type an imported column is converted to.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldDate    FieldType = "date"
	FieldBoolean FieldType = "boolean"
	FieldJSON    FieldType = "json"
)

// ValidFieldType reports whether s is a supported field type.
func ValidFieldType(s string) bool {
	switch FieldType(s) {
	case FieldText, FieldNumber, FieldDate, FieldBoolean, FieldJSON:
		return true
	}
	return false
}

// ImportTable is a collection that accepts bulk imports.
type ImportTable string

const (
	TableCompanies ImportTable = "companies"
	TableContacts  ImportTable = "contacts"
	TableCustomers ImportTable = "customers"
)

// ErrUnsupportedTable is returned for import targets outside ImportTables.
var ErrUnsupportedTable = errors.New("table does not accept imports")

// ImportTables lists the supported import targets.
var ImportTables = []ImportTable{TableCompanies, TableContacts, TableCustomers}

// ParseImportTable validates a table name from a request.
func ParseImportTable(s string) (ImportTable, error) {
	for _, t := range ImportTables {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedTable, s)
}

// SystemField describes one built-in column of an import table.
type SystemField struct {
	Key         string    `json:"key"`   // PocketBase field name
	Label       string    `json:"label"` // header shown in templates
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Aliases     []string  `json:"aliases,omitempty"` // normalized header spellings also accepted
	Description string    `json:"description,omitempty"`
	Example     string    `json:"example,omitempty"`
}

// contactCompanyField is resolved to a company id rather than stored.
const contactCompanyField = "company_name"

// SystemFields returns the ordered importable fields of a table.
func SystemFields(table ImportTable) []SystemField {
	switch table {
	case TableCompanies:
		return []SystemField{
			{Key: "name", Label: "Company Name", Type: FieldText, Required: true, Aliases: []string{"company", "organization", "business_name", "account"}, Description: "Legal or trading name", Example: "Acme Corp"},
			{Key: "industry", Label: "Industry", Type: FieldText, Aliases: []string{"sector", "vertical"}, Example: "Construction"},
			{Key: "website", Label: "Website", Type: FieldText, Aliases: []string{"url", "web", "homepage"}, Example: "https://acme.example"},
			{Key: "phone", Label: "Phone", Type: FieldText, Aliases: []string{"telephone", "tel", "phone_number", "main_phone"}, Example: "555-1234"},
			{Key: "email", Label: "Email", Type: FieldText, Aliases: []string{"e_mail", "email_address"}, Description: "Valid email format", Example: "info@acme.example"},
			{Key: "address", Label: "Address", Type: FieldText, Aliases: []string{"street", "street_address", "address_1", "address_line_1"}, Example: "1 Port Way"},
			{Key: "city", Label: "City", Type: FieldText, Aliases: []string{"town"}, Example: "Newark"},
			{Key: "state", Label: "State", Type: FieldText, Aliases: []string{"province", "region", "st"}, Example: "NJ"},
			{Key: "zip", Label: "ZIP", Type: FieldText, Aliases: []string{"zip_code", "postal_code", "postcode"}, Example: "07105"},
			{Key: "country", Label: "Country", Type: FieldText, Example: "USA"},
			{Key: "billing_address", Label: "Billing Address", Type: FieldText, Aliases: []string{"bill_to"}, Example: "PO Box 10"},
			{Key: "billing_city", Label: "Billing City", Type: FieldText, Example: "Newark"},
			{Key: "billing_state", Label: "Billing State", Type: FieldText, Example: "NJ"},
			{Key: "billing_zip", Label: "Billing ZIP", Type: FieldText, Example: "07105"},
			{Key: "payment_terms", Label: "Payment Terms", Type: FieldText, Aliases: []string{"terms"}, Example: "Net 30"},
			{Key: "notes", Label: "Notes", Type: FieldText, Aliases: []string{"comments"}, Example: "Gate code 4411"},
			{Key: "tags", Label: "Tags", Type: FieldJSON, Aliases: []string{"labels"}, Description: "Separate multiple tags with ;", Example: "vip;port"},
			{Key: "status", Label: "Status", Type: FieldText, Description: "active, inactive or prospect", Example: "active"},
		}
	case TableContacts:
		return []SystemField{
			{Key: "first_name", Label: "First Name", Type: FieldText, Required: true, Aliases: []string{"first", "given_name", "fname"}, Example: "Dana"},
			{Key: "last_name", Label: "Last Name", Type: FieldText, Aliases: []string{"last", "surname", "family_name", "lname"}, Example: "Rivera"},
			{Key: contactCompanyField, Label: "Company Name", Type: FieldText, Aliases: []string{"company", "organization", "account"}, Description: "Matched to an existing company; unmatched contacts go to Unassigned", Example: "Acme Corp"},
			{Key: "title", Label: "Title", Type: FieldText, Aliases: []string{"job_title", "position"}, Example: "Fleet Manager"},
			{Key: "email", Label: "Email", Type: FieldText, Aliases: []string{"e_mail", "email_address"}, Example: "dana@acme.example"},
			{Key: "phone", Label: "Phone", Type: FieldText, Aliases: []string{"telephone", "tel", "work_phone", "office_phone"}, Example: "555-1234"},
			{Key: "mobile", Label: "Mobile", Type: FieldText, Aliases: []string{"cell", "cell_phone", "mobile_phone"}, Example: "555-9876"},
			{Key: "role", Label: "Role", Type: FieldText, Description: "general, decision_maker, billing, operations or technical", Example: "operations"},
			{Key: "is_primary", Label: "Primary Contact", Type: FieldBoolean, Aliases: []string{"primary"}, Example: "yes"},
			{Key: "notes", Label: "Notes", Type: FieldText, Aliases: []string{"comments"}, Example: "Prefers email"},
		}
	case TableCustomers:
		return []SystemField{
			{Key: "name", Label: "Customer Name", Type: FieldText, Required: true, Aliases: []string{"name", "customer", "client", "client_name", "full_name"}, Example: "Pat Lee"},
			{Key: "company_name", Label: "Company", Type: FieldText, Aliases: []string{"company", "organization"}, Example: "Acme Corp"},
			{Key: "email", Label: "Email", Type: FieldText, Aliases: []string{"e_mail", "email_address"}, Example: "pat@acme.example"},
			{Key: "phone", Label: "Phone", Type: FieldText, Aliases: []string{"telephone", "tel"}, Example: "555-1234"},
			{Key: "address", Label: "Address", Type: FieldText, Aliases: []string{"street", "street_address"}, Example: "1 Port Way"},
			{Key: "billing_address", Label: "Billing Address", Type: FieldText, Aliases: []string{"bill_to"}, Example: "PO Box 10"},
			{Key: "notes", Label: "Notes", Type: FieldText, Aliases: []string{"comments"}, Example: "Repeat buyer"},
		}
	}
	return nil
}

// requiredSystemFields returns the required fields of a table.
func requiredSystemFields(table ImportTable) []SystemField {
	var out []SystemField
	for _, f := range SystemFields(table) {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

func findSystemField(table ImportTable, key string) (SystemField, bool) {
	for _, f := range SystemFields(table) {
		if f.Key == key {
			return f, true
		}
	}
	return SystemField{}, false
}
