package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/services"
)

// HandleCompanyList lists companies filtered by ?q and ?status.
// Route: GET /api/companies
func HandleCompanyList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := services.ListCompanies(app, listOptions(e))
		if err != nil {
			return respondServiceError(e, "company_list", err)
		}
		return e.JSON(http.StatusOK, records)
	}
}

type companyDetail struct {
	Company  *core.Record        `json:"company"`
	Contacts []*core.Record      `json:"contacts"`
	Activity []services.Activity `json:"activity"`
}

// HandleCompanyGet returns a company with its contacts and recent activity.
// Route: GET /api/companies/{id}
func HandleCompanyGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		company, err := services.GetCompany(app, e.Request.PathValue("id"))
		if err != nil {
			return respondServiceError(e, "company_get", err)
		}
		contacts, err := services.ListContacts(app, company.Id, services.ListOptions{Limit: 500})
		if err != nil {
			return respondServiceError(e, "company_get", err)
		}
		activity, err := services.ListActivity(app, services.ActivityFilter{CompanyID: company.Id, Limit: 25})
		if err != nil {
			return respondServiceError(e, "company_get", err)
		}
		return e.JSON(http.StatusOK, companyDetail{Company: company, Contacts: contacts, Activity: activity})
	}
}

type companyCreated struct {
	Company *core.Record `json:"company"`
	Contact *core.Record `json:"contact"`
	Warning string       `json:"warning,omitempty"`
}

// HandleCompanyCreate saves a company and, when primary_contact is given,
// its primary contact. The two writes are separate: a contact that fails
// leaves the company saved and is reported as a warning.
// Route: POST /api/companies
func HandleCompanyCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.CompanyInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}

		company, contact, err := services.CreateCompany(app, in, userID(e))
		if err != nil && company == nil {
			return respondServiceError(e, "company_create", err)
		}

		resp := companyCreated{Company: company, Contact: contact}
		if err != nil {
			log.Printf("company_create: %v", err)
			resp.Warning = "Company saved, but the primary contact could not be created"
		}
		return e.JSON(http.StatusCreated, resp)
	}
}

// HandleCompanyUpdate edits a company.
// Route: PUT /api/companies/{id}
func HandleCompanyUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.CompanyInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}
		rec, err := services.UpdateCompany(app, e.Request.PathValue("id"), in)
		if err != nil {
			return respondServiceError(e, "company_update", err)
		}
		return e.JSON(http.StatusOK, rec)
	}
}

// HandleCompanyDelete removes a company and its contacts.
// Route: DELETE /api/companies/{id}
func HandleCompanyDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		if err := services.DeleteCompany(app, id); err != nil {
			return respondServiceError(e, "company_delete", err)
		}
		log.Printf("company_delete: deleted company %s", id)
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleContactList lists contacts, optionally of one ?company.
// Route: GET /api/contacts
func HandleContactList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := services.ListContacts(app, e.Request.URL.Query().Get("company"), listOptions(e))
		if err != nil {
			return respondServiceError(e, "contact_list", err)
		}
		return e.JSON(http.StatusOK, records)
	}
}

// HandleContactCreate saves a contact.
// Route: POST /api/contacts
func HandleContactCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.ContactInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}
		rec, err := services.CreateContact(app, in)
		if err != nil {
			return respondServiceError(e, "contact_create", err)
		}
		return e.JSON(http.StatusCreated, rec)
	}
}

// HandleContactUpdate edits a contact.
// Route: PUT /api/contacts/{id}
func HandleContactUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.ContactInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}
		rec, err := services.UpdateContact(app, e.Request.PathValue("id"), in)
		if err != nil {
			return respondServiceError(e, "contact_update", err)
		}
		return e.JSON(http.StatusOK, rec)
	}
}

// HandleContactDelete removes a contact.
// Route: DELETE /api/contacts/{id}
func HandleContactDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := services.DeleteContact(app, e.Request.PathValue("id")); err != nil {
			return respondServiceError(e, "contact_delete", err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleCustomerList lists walk-in customers filtered by ?q.
// Route: GET /api/customers
func HandleCustomerList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := services.ListCustomers(app, listOptions(e))
		if err != nil {
			return respondServiceError(e, "customer_list", err)
		}
		return e.JSON(http.StatusOK, records)
	}
}

// HandleCustomerCreate saves a customer.
// Route: POST /api/customers
func HandleCustomerCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.CustomerInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}
		rec, err := services.CreateCustomer(app, in)
		if err != nil {
			return respondServiceError(e, "customer_create", err)
		}
		return e.JSON(http.StatusCreated, rec)
	}
}

// HandleCustomerUpdate edits a customer.
// Route: PUT /api/customers/{id}
func HandleCustomerUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.CustomerInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}
		rec, err := services.UpdateCustomer(app, e.Request.PathValue("id"), in)
		if err != nil {
			return respondServiceError(e, "customer_update", err)
		}
		return e.JSON(http.StatusOK, rec)
	}
}

// HandleCustomerDelete removes a customer.
// Route: DELETE /api/customers/{id}
func HandleCustomerDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := services.DeleteCustomer(app, e.Request.PathValue("id")); err != nil {
			return respondServiceError(e, "customer_delete", err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}
