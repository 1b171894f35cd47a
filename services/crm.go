package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"equipquote/collections"
)

var (
	ErrCompanyNotFound  = errors.New("company not found")
	ErrContactNotFound  = errors.New("contact not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrProtectedCompany = errors.New("the Unassigned company cannot be deleted")
)

// ListOptions pages and narrows CRM listings. Query matches names and
// emails case-insensitively.
type ListOptions struct {
	Query  string
	Status string
	Limit  int
	Offset int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 || o.Limit > 500 {
		return 50
	}
	return o.Limit
}

// CreateCompany saves a company and, when in.PrimaryContact is set, its
// primary contact as a second write. A failed contact save leaves the
// company in place and is returned as the error.
func CreateCompany(app core.App, in CompanyInput, userID string) (*core.Record, *core.Record, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	col, err := app.FindCollectionByNameOrId("companies")
	if err != nil {
		return nil, nil, fmt.Errorf("companies collection not found: %w", err)
	}
	if in.Status == "" {
		in.Status = "active"
	}

	company := core.NewRecord(col)
	applyCompanyInput(company, in)
	if err := app.Save(company); err != nil {
		return nil, nil, fmt.Errorf("save company: %w", err)
	}

	if in.PrimaryContact == nil {
		return company, nil, nil
	}
	c := *in.PrimaryContact
	c.CompanyID = company.Id
	c.IsPrimary = true
	contact, err := CreateContact(app, c)
	if err != nil {
		return company, nil, fmt.Errorf("company saved but primary contact failed: %w", err)
	}
	return company, contact, nil
}

func applyCompanyInput(rec *core.Record, in CompanyInput) {
	rec.Set("name", strings.TrimSpace(in.Name))
	rec.Set("industry", in.Industry)
	rec.Set("website", in.Website)
	rec.Set("phone", in.Phone)
	rec.Set("email", in.Email)
	rec.Set("address", in.Address)
	rec.Set("city", in.City)
	rec.Set("state", in.State)
	rec.Set("zip", in.Zip)
	rec.Set("country", in.Country)
	rec.Set("billing_address", in.BillingAddress)
	rec.Set("billing_city", in.BillingCity)
	rec.Set("billing_state", in.BillingState)
	rec.Set("billing_zip", in.BillingZip)
	rec.Set("payment_terms", in.PaymentTerms)
	rec.Set("notes", in.Notes)
	rec.Set("tags", in.Tags)
	if in.Status != "" {
		rec.Set("status", in.Status)
	}
}

// UpdateCompany replaces a company's fields. PrimaryContact is ignored.
func UpdateCompany(app core.App, id string, in CompanyInput) (*core.Record, error) {
	in.PrimaryContact = nil
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rec, err := app.FindRecordById("companies", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, id)
	}
	applyCompanyInput(rec, in)
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	return rec, nil
}

// DeleteCompany removes a company and, through the cascade, its contacts.
func DeleteCompany(app core.App, id string) error {
	rec, err := app.FindRecordById("companies", id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCompanyNotFound, id)
	}
	if rec.GetString("name") == collections.UnassignedCompanyName {
		return ErrProtectedCompany
	}
	if err := app.Delete(rec); err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}

// GetCompany loads one company.
func GetCompany(app core.App, id string) (*core.Record, error) {
	rec, err := app.FindRecordById("companies", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, id)
	}
	return rec, nil
}

// ListCompanies returns companies sorted by name.
func ListCompanies(app core.App, opts ListOptions) ([]*core.Record, error) {
	filter := []string{"1=1"}
	params := map[string]any{}
	if q := strings.TrimSpace(opts.Query); q != "" {
		filter = append(filter, "(name ~ {:q} || email ~ {:q} || city ~ {:q})")
		params["q"] = q
	}
	if opts.Status != "" {
		filter = append(filter, "status = {:status}")
		params["status"] = opts.Status
	}
	records, err := app.FindRecordsByFilter("companies", strings.Join(filter, " && "), "name", opts.limit(), opts.Offset, params)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return records, nil
}

// CreateContact saves a contact. Setting IsPrimary clears the flag on the
// company's other contacts.
func CreateContact(app core.App, in ContactInput) (*core.Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := app.FindRecordById("companies", in.CompanyID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, in.CompanyID)
	}
	col, err := app.FindCollectionByNameOrId("contacts")
	if err != nil {
		return nil, fmt.Errorf("contacts collection not found: %w", err)
	}
	if in.Role == "" {
		in.Role = "general"
	}

	rec := core.NewRecord(col)
	applyContactInput(rec, in)
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("save contact: %w", err)
	}
	if in.IsPrimary {
		if err := clearOtherPrimaries(app, in.CompanyID, rec.Id); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

func applyContactInput(rec *core.Record, in ContactInput) {
	rec.Set("company", in.CompanyID)
	rec.Set("first_name", strings.TrimSpace(in.FirstName))
	rec.Set("last_name", strings.TrimSpace(in.LastName))
	rec.Set("title", in.Title)
	rec.Set("email", in.Email)
	rec.Set("phone", in.Phone)
	rec.Set("mobile", in.Mobile)
	if in.Role != "" {
		rec.Set("role", in.Role)
	}
	rec.Set("is_primary", in.IsPrimary)
	rec.Set("notes", in.Notes)
}

func clearOtherPrimaries(app core.App, companyID, keepID string) error {
	others, err := app.FindRecordsByFilter("contacts",
		"company = {:company} && is_primary = true && id != {:keep}", "", 0, 0,
		map[string]any{"company": companyID, "keep": keepID})
	if err != nil {
		return fmt.Errorf("find primary contacts: %w", err)
	}
	for _, o := range others {
		o.Set("is_primary", false)
		if err := app.Save(o); err != nil {
			return fmt.Errorf("clear primary contact %s: %w", o.Id, err)
		}
	}
	return nil
}

// UpdateContact replaces a contact's fields.
func UpdateContact(app core.App, id string, in ContactInput) (*core.Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rec, err := app.FindRecordById("contacts", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrContactNotFound, id)
	}
	applyContactInput(rec, in)
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	if in.IsPrimary {
		if err := clearOtherPrimaries(app, in.CompanyID, rec.Id); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// DeleteContact removes a contact.
func DeleteContact(app core.App, id string) error {
	rec, err := app.FindRecordById("contacts", id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrContactNotFound, id)
	}
	if err := app.Delete(rec); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

// ListContacts returns contacts, primary contacts first. companyID narrows
// to one company when set.
func ListContacts(app core.App, companyID string, opts ListOptions) ([]*core.Record, error) {
	filter := []string{"1=1"}
	params := map[string]any{}
	if companyID != "" {
		filter = append(filter, "company = {:company}")
		params["company"] = companyID
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		filter = append(filter, "(first_name ~ {:q} || last_name ~ {:q} || email ~ {:q})")
		params["q"] = q
	}
	records, err := app.FindRecordsByFilter("contacts", strings.Join(filter, " && "),
		"-is_primary,first_name", opts.limit(), opts.Offset, params)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return records, nil
}

// CreateCustomer saves a client-list entry.
func CreateCustomer(app core.App, in CustomerInput) (*core.Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	col, err := app.FindCollectionByNameOrId("customers")
	if err != nil {
		return nil, fmt.Errorf("customers collection not found: %w", err)
	}
	rec := core.NewRecord(col)
	applyCustomerInput(rec, in)
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("save customer: %w", err)
	}
	return rec, nil
}

func applyCustomerInput(rec *core.Record, in CustomerInput) {
	rec.Set("name", strings.TrimSpace(in.Name))
	rec.Set("company_name", in.CompanyName)
	rec.Set("email", in.Email)
	rec.Set("phone", in.Phone)
	rec.Set("address", in.Address)
	rec.Set("billing_address", in.BillingAddress)
	rec.Set("notes", in.Notes)
}

// UpdateCustomer replaces a customer's fields.
func UpdateCustomer(app core.App, id string, in CustomerInput) (*core.Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rec, err := app.FindRecordById("customers", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
	}
	applyCustomerInput(rec, in)
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return rec, nil
}

// DeleteCustomer removes a customer.
func DeleteCustomer(app core.App, id string) error {
	rec, err := app.FindRecordById("customers", id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
	}
	if err := app.Delete(rec); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}

// ListCustomers returns customers sorted by name.
func ListCustomers(app core.App, opts ListOptions) ([]*core.Record, error) {
	filter, params := "1=1", map[string]any{}
	if q := strings.TrimSpace(opts.Query); q != "" {
		filter = "(name ~ {:q} || company_name ~ {:q} || email ~ {:q})"
		params["q"] = q
	}
	records, err := app.FindRecordsByFilter("customers", filter, "name", opts.limit(), opts.Offset, params)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return records, nil
}
