package services

import (
	"errors"
	"testing"

	"equipquote/collections"
	"equipquote/testhelpers"
)

func TestCreateCompany_WithPrimaryContact(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	company, contact, err := CreateCompany(app, CompanyInput{
		Name: "  Midwest Crane & Rigging ",
		City: "Joliet",
		PrimaryContact: &ContactInput{
			FirstName: "Dana",
			Email:     "dana@midwestcrane.example",
		},
	}, "")
	if err != nil {
		t.Fatalf("CreateCompany() error = %v", err)
	}
	if company.GetString("name") != "Midwest Crane & Rigging" || company.GetString("status") != "active" {
		t.Errorf("company name=%q status=%q", company.GetString("name"), company.GetString("status"))
	}
	if contact == nil {
		t.Fatal("expected a primary contact")
	}
	if contact.GetString("company") != company.Id || !contact.GetBool("is_primary") || contact.GetString("role") != "general" {
		t.Errorf("contact company=%q primary=%v role=%q",
			contact.GetString("company"), contact.GetBool("is_primary"), contact.GetString("role"))
	}
}

func TestCreateCompany_Validation(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	tests := []struct {
		name string
		in   CompanyInput
	}{
		{"missing name", CompanyInput{}},
		{"bad email", CompanyInput{Name: "x", Email: "not-an-email"}},
		{"contact without first name", CompanyInput{Name: "x", PrimaryContact: &ContactInput{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := CreateCompany(app, tt.in, ""); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestContacts_SinglePrimary(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "Atlas Dismantling")

	first, err := CreateContact(app, ContactInput{CompanyID: company.Id, FirstName: "Ada", IsPrimary: true})
	if err != nil {
		t.Fatal(err)
	}
	second, err := CreateContact(app, ContactInput{CompanyID: company.Id, FirstName: "Bo", IsPrimary: true})
	if err != nil {
		t.Fatal(err)
	}

	reloaded, _ := app.FindRecordById("contacts", first.Id)
	if reloaded.GetBool("is_primary") {
		t.Error("first contact should lose primary when second is made primary")
	}

	list, err := ListContacts(app, company.Id, ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Id != second.Id {
		t.Errorf("primary contact should be listed first, got %d contacts", len(list))
	}

	if _, err := CreateContact(app, ContactInput{CompanyID: "missing", FirstName: "X"}); !errors.Is(err, ErrCompanyNotFound) {
		t.Errorf("contact for missing company error = %v, want ErrCompanyNotFound", err)
	}
}

func TestDeleteCompany(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	unassigned := testhelpers.CreateTestCompany(t, app, collections.UnassignedCompanyName)
	other := testhelpers.CreateTestCompany(t, app, "Short Lived LLC")
	testhelpers.CreateTestContact(t, app, other.Id, "Cy", "cy@example.com")

	if err := DeleteCompany(app, unassigned.Id); !errors.Is(err, ErrProtectedCompany) {
		t.Errorf("DeleteCompany(Unassigned) error = %v, want ErrProtectedCompany", err)
	}
	if err := DeleteCompany(app, other.Id); err != nil {
		t.Fatalf("DeleteCompany() error = %v", err)
	}
	contacts, _ := ListContacts(app, other.Id, ListOptions{})
	if len(contacts) != 0 {
		t.Errorf("contacts left after delete = %d, want 0", len(contacts))
	}
	if err := DeleteCompany(app, other.Id); !errors.Is(err, ErrCompanyNotFound) {
		t.Errorf("second delete error = %v, want ErrCompanyNotFound", err)
	}
}

func TestListCompanies_Query(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	for _, name := range []string{"Bravo Haulers", "alpha heavy", "Charlie Salvage"} {
		testhelpers.CreateTestCompany(t, app, name)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"haul", 1},
		{"HEAVY", 1},
		{"zzz", 0},
	}
	for _, tt := range tests {
		got, err := ListCompanies(app, ListOptions{Query: tt.query})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("ListCompanies(%q) = %d, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestCustomers(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	c, err := CreateCustomer(app, CustomerInput{Name: "Pat Quinn", CompanyName: "Quinn Farms", Email: "pat@quinn.example"})
	if err != nil {
		t.Fatalf("CreateCustomer() error = %v", err)
	}
	updated, err := UpdateCustomer(app, c.Id, CustomerInput{Name: "Pat Quinn", CompanyName: "Quinn Farms LLC"})
	if err != nil {
		t.Fatalf("UpdateCustomer() error = %v", err)
	}
	if updated.GetString("company_name") != "Quinn Farms LLC" {
		t.Errorf("company_name = %q", updated.GetString("company_name"))
	}

	found, _ := ListCustomers(app, ListOptions{Query: "farms"})
	if len(found) != 1 {
		t.Errorf("ListCustomers(farms) = %d, want 1", len(found))
	}

	if err := DeleteCustomer(app, c.Id); err != nil {
		t.Fatal(err)
	}
	if _, err := UpdateCustomer(app, c.Id, CustomerInput{Name: "x"}); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("update deleted customer error = %v, want ErrCustomerNotFound", err)
	}
}
