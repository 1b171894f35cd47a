// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// NewSeededTestApp is NewTestApp plus collections.Seed.
func NewSeededTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	app := NewTestApp(t)
	if err := collections.Seed(app); err != nil {
		t.Fatalf("failed to seed test app: %v", err)
	}
	return app
}

// CreateTestUser creates a verified user in the built-in users collection.
func CreateTestUser(t *testing.T, app *pocketbase.PocketBase, email string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("users")
	if err != nil {
		t.Fatalf("failed to find users collection: %v", err)
	}

	record := core.NewRecord(col)
	record.SetEmail(email)
	record.SetPassword("Passw0rd!Passw0rd")
	record.SetVerified(true)
	record.Set("name", strings.Split(email, "@")[0])

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test user: %v", err)
	}

	return record
}

// CreateTestCompany creates an active company record with the given name.
func CreateTestCompany(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("companies")
	if err != nil {
		t.Fatalf("failed to find companies collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("status", "active")
	record.Set("phone", "555-0100")
	record.Set("city", "Newark")
	record.Set("state", "NJ")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test company: %v", err)
	}

	return record
}

// CreateTestContact creates a contact linked to a company.
func CreateTestContact(t *testing.T, app *pocketbase.PocketBase, companyID, firstName, email string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("contacts")
	if err != nil {
		t.Fatalf("failed to find contacts collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("company", companyID)
	record.Set("first_name", firstName)
	record.Set("last_name", "Tester")
	record.Set("email", email)
	record.Set("role", "general")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test contact: %v", err)
	}

	return record
}

// CreateTestModel creates a make (if missing) and a model under it and
// returns the model record.
func CreateTestModel(t *testing.T, app *pocketbase.PocketBase, makeName, modelName string) *core.Record {
	t.Helper()

	mk, err := app.FindFirstRecordByData("equipment_makes", "name", makeName)
	if err != nil {
		makesCol, err := app.FindCollectionByNameOrId("equipment_makes")
		if err != nil {
			t.Fatalf("failed to find equipment_makes collection: %v", err)
		}
		mk = core.NewRecord(makesCol)
		mk.Set("name", makeName)
		if err := app.Save(mk); err != nil {
			t.Fatalf("failed to save test make: %v", err)
		}
	}

	col, err := app.FindCollectionByNameOrId("equipment_models")
	if err != nil {
		t.Fatalf("failed to find equipment_models collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("make", mk.Id)
	record.Set("name", modelName)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test model: %v", err)
	}

	return record
}

// CreateTestLocationCosts stores a cost schedule for a model at a location.
func CreateTestLocationCosts(t *testing.T, app *pocketbase.PocketBase, modelID, location string, costs map[string]float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("location_costs")
	if err != nil {
		t.Fatalf("failed to find location_costs collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("model", modelID)
	record.Set("location", location)
	for field, amount := range costs {
		record.Set(field, amount)
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test location costs: %v", err)
	}

	return record
}

// CreateTestQuote creates a draft version-1 dismantle quote whose total is
// subtotal plus margin.
func CreateTestQuote(t *testing.T, app *pocketbase.PocketBase, quoteNumber string, subtotal, margin float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("quote_history")
	if err != nil {
		t.Fatalf("failed to find quote_history collection: %v", err)
	}

	marginAmount := subtotal * margin / 100

	record := core.NewRecord(col)
	record.Set("quote_number", quoteNumber)
	record.Set("version", 1)
	record.Set("status", "draft")
	record.Set("customer_name", "Test Customer")
	record.Set("customer_email", "customer@example.com")
	record.Set("make_name", "Caterpillar")
	record.Set("model_name", "320")
	record.Set("location", "new_jersey")
	record.Set("equipment_type", "excavator")
	record.Set("cost_data", map[string]float64{"loading": subtotal})
	record.Set("margin_percentage", margin)
	record.Set("subtotal", subtotal)
	record.Set("margin_amount", marginAmount)
	record.Set("total", subtotal+marginAmount)
	record.Set("expires_at", time.Now().UTC().AddDate(0, 0, 30))

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quote: %v", err)
	}

	record.Set("original_quote_id", record.Id)
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to stamp test quote lineage: %v", err)
	}

	return record
}

// CreateTestInlandQuote creates a draft version-1 inland transport quote.
func CreateTestInlandQuote(t *testing.T, app *pocketbase.PocketBase, quoteNumber string, total float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("inland_quotes")
	if err != nil {
		t.Fatalf("failed to find inland_quotes collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("quote_number", quoteNumber)
	record.Set("version", 1)
	record.Set("status", "draft")
	record.Set("customer_name", "Test Customer")
	record.Set("pickup_address", "1 Port Way, Newark, NJ")
	record.Set("dropoff_address", "99 Yard Rd, Allentown, PA")
	record.Set("distance_miles", 80)
	record.Set("flat_rate", total)
	record.Set("subtotal", total)
	record.Set("total", total)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test inland quote: %v", err)
	}

	record.Set("original_quote_id", record.Id)
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to stamp test inland quote lineage: %v", err)
	}

	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected body to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
