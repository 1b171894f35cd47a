package handlers

import (
	"net/http"
	"testing"

	"equipquote/collections"
	"equipquote/services"
	"equipquote/testhelpers"
)

func TestHandleCompanyCreate_WithPrimaryContact(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	user := testhelpers.CreateTestUser(t, app, "rep@example.com")

	body := services.CompanyInput{
		Name: "Gulf Salvage",
		City: "Houston",
		PrimaryContact: &services.ContactInput{
			FirstName: "Dana", Email: "dana@gulf.example",
		},
	}
	rec := serve(t, app, HandleCompanyCreate(app), jsonRequest(t, http.MethodPost, "/api/companies", body), user)
	assertStatus(t, rec, http.StatusCreated)

	var got struct {
		Company map[string]any `json:"company"`
		Contact map[string]any `json:"contact"`
		Warning string         `json:"warning"`
	}
	decodeBody(t, rec, &got)
	if got.Company["name"] != "Gulf Salvage" || got.Company["status"] != "active" {
		t.Errorf("company = %v", got.Company)
	}
	if got.Contact == nil || got.Contact["is_primary"] != true || got.Contact["company"] != got.Company["id"] {
		t.Errorf("contact = %v", got.Contact)
	}
	if got.Warning != "" {
		t.Errorf("unexpected warning %q", got.Warning)
	}
}

func TestHandleCompanyCreate_Validation(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	tests := []struct {
		name  string
		body  services.CompanyInput
		field string
	}{
		{"missing name", services.CompanyInput{}, "name"},
		{"bad email", services.CompanyInput{Name: "X", Email: "not-an-email"}, "email"},
		{"bad status", services.CompanyInput{Name: "X", Status: "archived"}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, app, HandleCompanyCreate(app), jsonRequest(t, http.MethodPost, "/api/companies", tt.body), nil)
			assertStatus(t, rec, http.StatusBadRequest)
			var body errorBody
			decodeBody(t, rec, &body)
			if _, ok := body.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %q", body.Fields, tt.field)
			}
		})
	}

	rows, _ := app.FindRecordsByFilter("companies", "1=1", "", 0, 0)
	if len(rows) != 0 {
		t.Errorf("invalid input saved %d companies", len(rows))
	}
}

func TestHandleCompanyGet(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "Keystone Salvage")
	testhelpers.CreateTestContact(t, app, company.Id, "Kira", "kira@keystone.example")
	other := testhelpers.CreateTestCompany(t, app, "Other Co")
	testhelpers.CreateTestContact(t, app, other.Id, "Olga", "olga@other.example")

	req := jsonRequest(t, http.MethodGet, "/api/companies/"+company.Id, nil)
	req.SetPathValue("id", company.Id)
	rec := serve(t, app, HandleCompanyGet(app), req, nil)
	assertStatus(t, rec, http.StatusOK)

	var got struct {
		Company  map[string]any   `json:"company"`
		Contacts []map[string]any `json:"contacts"`
	}
	decodeBody(t, rec, &got)
	if got.Company["name"] != "Keystone Salvage" || len(got.Contacts) != 1 || got.Contacts[0]["first_name"] != "Kira" {
		t.Errorf("detail = %+v", got)
	}

	req = jsonRequest(t, http.MethodGet, "/api/companies/nope", nil)
	req.SetPathValue("id", "nope")
	rec = serve(t, app, HandleCompanyGet(app), req, nil)
	assertStatus(t, rec, http.StatusNotFound)
}

func TestHandleCompanyDelete(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "Short Lived")
	contact := testhelpers.CreateTestContact(t, app, company.Id, "Sam", "sam@short.example")

	req := jsonRequest(t, http.MethodDelete, "/api/companies/"+company.Id, nil)
	req.SetPathValue("id", company.Id)
	rec := serve(t, app, HandleCompanyDelete(app), req, nil)
	assertStatus(t, rec, http.StatusNoContent)

	if _, err := app.FindRecordById("contacts", contact.Id); err == nil {
		t.Error("contact should be deleted with its company")
	}

	unassigned, err := app.FindFirstRecordByData("companies", "name", collections.UnassignedCompanyName)
	if err != nil {
		t.Fatalf("seeded Unassigned company missing: %v", err)
	}
	req = jsonRequest(t, http.MethodDelete, "/api/companies/"+unassigned.Id, nil)
	req.SetPathValue("id", unassigned.Id)
	rec = serve(t, app, HandleCompanyDelete(app), req, nil)
	assertStatus(t, rec, http.StatusConflict)
}

func TestHandleContactList_ByCompany(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	a := testhelpers.CreateTestCompany(t, app, "Alpha")
	b := testhelpers.CreateTestCompany(t, app, "Beta")
	testhelpers.CreateTestContact(t, app, a.Id, "Ann", "ann@alpha.example")
	testhelpers.CreateTestContact(t, app, a.Id, "Art", "art@alpha.example")
	testhelpers.CreateTestContact(t, app, b.Id, "Bea", "bea@beta.example")

	tests := []struct {
		target string
		want   int
	}{
		{"/api/contacts", 3},
		{"/api/contacts?company=" + a.Id, 2},
		{"/api/contacts?q=bea", 1},
	}
	for _, tt := range tests {
		rec := serve(t, app, HandleContactList(app), jsonRequest(t, http.MethodGet, tt.target, nil), nil)
		assertStatus(t, rec, http.StatusOK)
		var list []map[string]any
		decodeBody(t, rec, &list)
		if len(list) != tt.want {
			t.Errorf("%s: %d contacts, want %d", tt.target, len(list), tt.want)
		}
	}
}

func TestHandleContactCreate_UnknownCompany(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	body := services.ContactInput{CompanyID: "missing", FirstName: "Lost"}
	rec := serve(t, app, HandleContactCreate(app), jsonRequest(t, http.MethodPost, "/api/contacts", body), nil)
	assertStatus(t, rec, http.StatusNotFound)
}

func TestHandleCustomerLifecycle(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	rec := serve(t, app, HandleCustomerCreate(app),
		jsonRequest(t, http.MethodPost, "/api/customers", services.CustomerInput{Name: "Walk-in buyer"}), nil)
	assertStatus(t, rec, http.StatusCreated)
	var created map[string]any
	decodeBody(t, rec, &created)
	id := created["id"].(string)

	req := jsonRequest(t, http.MethodPut, "/api/customers/"+id, services.CustomerInput{Name: "Renamed buyer", Email: "buyer@example.com"})
	req.SetPathValue("id", id)
	rec = serve(t, app, HandleCustomerUpdate(app), req, nil)
	assertStatus(t, rec, http.StatusOK)
	var updated map[string]any
	decodeBody(t, rec, &updated)
	if updated["name"] != "Renamed buyer" {
		t.Errorf("name = %v", updated["name"])
	}

	req = jsonRequest(t, http.MethodDelete, "/api/customers/"+id, nil)
	req.SetPathValue("id", id)
	rec = serve(t, app, HandleCustomerDelete(app), req, nil)
	assertStatus(t, rec, http.StatusNoContent)

	req = jsonRequest(t, http.MethodDelete, "/api/customers/"+id, nil)
	req.SetPathValue("id", id)
	rec = serve(t, app, HandleCustomerDelete(app), req, nil)
	assertStatus(t, rec, http.StatusNotFound)
}
