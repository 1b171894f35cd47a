package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// EquipmentTypes are the silhouette categories stored on equipment_dimensions
// and quotes.
var EquipmentTypes = []string{
	"excavator", "wheel_loader", "bulldozer", "skid_steer", "compact_track_loader",
	"backhoe", "telehandler", "articulated_dump_truck", "motor_grader", "roller",
	"forklift", "crane", "other",
}

// Locations are the dismantling yards that carry their own cost schedule.
var Locations = []string{
	"new_jersey", "savannah", "houston", "chicago", "oakland", "long_beach",
}

// CostColumns are the per-location cost fields, one number column each.
var CostColumns = []string{
	"loading", "blocking_bracing", "survey", "drayage", "chassis",
	"tolls", "escorts", "power_wash", "waste_fluids", "miscellaneous",
}

// QuoteStatuses is the sales pipeline shared by dismantle and inland quotes.
var QuoteStatuses = []string{"draft", "sent", "viewed", "accepted", "rejected", "expired"}

// Setup programmatically creates/ensures every collection the app uses.
// The built-in users auth collection must already exist (PocketBase creates
// it during bootstrap).
func Setup(app core.App) {
	users, err := app.FindCollectionByNameOrId("users")
	if err != nil {
		log.Fatalf("users collection missing: %v", err)
	}

	companies := ensureCollection(app, "companies", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true, Max: 255})
		c.Fields.Add(&core.TextField{Name: "industry"})
		c.Fields.Add(&core.TextField{Name: "website"})
		c.Fields.Add(&core.TextField{Name: "phone"})
		c.Fields.Add(&core.EmailField{Name: "email"})
		c.Fields.Add(&core.TextField{Name: "address"})
		c.Fields.Add(&core.TextField{Name: "city"})
		c.Fields.Add(&core.TextField{Name: "state"})
		c.Fields.Add(&core.TextField{Name: "zip"})
		c.Fields.Add(&core.TextField{Name: "country"})
		c.Fields.Add(&core.TextField{Name: "billing_address"})
		c.Fields.Add(&core.TextField{Name: "billing_city"})
		c.Fields.Add(&core.TextField{Name: "billing_state"})
		c.Fields.Add(&core.TextField{Name: "billing_zip"})
		c.Fields.Add(&core.TextField{Name: "payment_terms"})
		c.Fields.Add(&core.TextField{Name: "notes", Max: 10000})
		c.Fields.Add(&core.JSONField{Name: "tags"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Values:    []string{"active", "inactive", "prospect"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.JSONField{Name: "custom_data"})
		c.Fields.Add(&core.TextField{Name: "import_batch"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_companies_name", false, "name", "")
	})

	contacts := ensureCollection(app, "contacts", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "company",
			Required:      true,
			CollectionId:  companies.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "first_name", Required: true, Max: 255})
		c.Fields.Add(&core.TextField{Name: "last_name"})
		c.Fields.Add(&core.TextField{Name: "title"})
		c.Fields.Add(&core.EmailField{Name: "email"})
		c.Fields.Add(&core.TextField{Name: "phone"})
		c.Fields.Add(&core.TextField{Name: "mobile"})
		c.Fields.Add(&core.SelectField{
			Name:      "role",
			Values:    []string{"general", "decision_maker", "billing", "operations", "technical"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.BoolField{Name: "is_primary"})
		c.Fields.Add(&core.TextField{Name: "notes", Max: 10000})
		c.Fields.Add(&core.JSONField{Name: "custom_data"})
		c.Fields.Add(&core.TextField{Name: "import_batch"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "customers", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true, Max: 255})
		c.Fields.Add(&core.TextField{Name: "company_name"})
		c.Fields.Add(&core.EmailField{Name: "email"})
		c.Fields.Add(&core.TextField{Name: "phone"})
		c.Fields.Add(&core.TextField{Name: "address"})
		c.Fields.Add(&core.TextField{Name: "billing_address"})
		c.Fields.Add(&core.TextField{Name: "notes", Max: 10000})
		c.Fields.Add(&core.JSONField{Name: "custom_data"})
		c.Fields.Add(&core.TextField{Name: "import_batch"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	makes := ensureCollection(app, "equipment_makes", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.AddIndex("idx_equipment_makes_name", true, "name", "")
	})

	models := ensureCollection(app, "equipment_models", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "make",
			Required:      true,
			CollectionId:  makes.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.AddIndex("idx_equipment_models_make_name", true, "make, name", "")
	})

	ensureCollection(app, "equipment_dimensions", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "model",
			Required:      true,
			CollectionId:  models.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "length_in"})
		c.Fields.Add(&core.NumberField{Name: "width_in"})
		c.Fields.Add(&core.NumberField{Name: "height_in"})
		c.Fields.Add(&core.NumberField{Name: "weight_lbs"})
		c.Fields.Add(&core.TextField{Name: "front_image", Max: imageTextMax})
		c.Fields.Add(&core.TextField{Name: "side_image", Max: imageTextMax})
		c.Fields.Add(&core.SelectField{Name: "equipment_type", Values: EquipmentTypes, MaxSelect: 1})
		c.AddIndex("idx_equipment_dimensions_model", true, "model", "")
	})

	ensureCollection(app, "location_costs", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "model",
			Required:      true,
			CollectionId:  models.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.SelectField{Name: "location", Required: true, Values: Locations, MaxSelect: 1})
		for _, name := range CostColumns {
			c.Fields.Add(&core.NumberField{Name: name})
		}
		c.AddIndex("idx_location_costs_model_location", true, "model, location", "")
	})

	inland := ensureCollection(app, "inland_quotes", func(c *core.Collection) {
		addLineageFields(c)
		addCustomerFields(c, companies.Id, contacts.Id)
		c.Fields.Add(&core.TextField{Name: "pickup_address", Required: true})
		c.Fields.Add(&core.TextField{Name: "pickup_city"})
		c.Fields.Add(&core.TextField{Name: "pickup_state"})
		c.Fields.Add(&core.TextField{Name: "pickup_zip"})
		c.Fields.Add(&core.TextField{Name: "dropoff_address", Required: true})
		c.Fields.Add(&core.TextField{Name: "dropoff_city"})
		c.Fields.Add(&core.TextField{Name: "dropoff_state"})
		c.Fields.Add(&core.TextField{Name: "dropoff_zip"})
		c.Fields.Add(&core.NumberField{Name: "distance_miles"})
		c.Fields.Add(&core.NumberField{Name: "rate_per_mile"})
		c.Fields.Add(&core.NumberField{Name: "flat_rate"})
		c.Fields.Add(&core.NumberField{Name: "fuel_surcharge_percent"})
		c.Fields.Add(&core.JSONField{Name: "accessorials"})
		c.Fields.Add(&core.TextField{Name: "truck_type"})
		c.Fields.Add(&core.TextField{Name: "cargo_description"})
		c.Fields.Add(&core.NumberField{Name: "cargo_weight_lbs"})
		c.Fields.Add(&core.NumberField{Name: "cargo_length_in"})
		c.Fields.Add(&core.NumberField{Name: "cargo_width_in"})
		c.Fields.Add(&core.NumberField{Name: "cargo_height_in"})
		c.Fields.Add(&core.NumberField{Name: "margin_percentage"})
		c.Fields.Add(&core.NumberField{Name: "line_haul"})
		c.Fields.Add(&core.NumberField{Name: "fuel_surcharge"})
		c.Fields.Add(&core.NumberField{Name: "accessorial_total"})
		c.Fields.Add(&core.NumberField{Name: "subtotal"})
		c.Fields.Add(&core.NumberField{Name: "margin_amount"})
		c.Fields.Add(&core.NumberField{Name: "total"})
		c.Fields.Add(&core.TextField{Name: "notes", Max: 10000})
		addQuoteTimestamps(c, users.Id)
	})

	ensureCollection(app, "quote_history", func(c *core.Collection) {
		addLineageFields(c)
		addCustomerFields(c, companies.Id, contacts.Id)
		c.Fields.Add(&core.RelationField{Name: "model", CollectionId: models.Id, MaxSelect: 1})
		c.Fields.Add(&core.TextField{Name: "make_name"})
		c.Fields.Add(&core.TextField{Name: "model_name"})
		c.Fields.Add(&core.SelectField{Name: "location", Values: Locations, MaxSelect: 1})
		c.Fields.Add(&core.SelectField{Name: "equipment_type", Values: EquipmentTypes, MaxSelect: 1})
		c.Fields.Add(&core.JSONField{Name: "cost_data"})
		c.Fields.Add(&core.JSONField{Name: "enabled_costs"})
		c.Fields.Add(&core.JSONField{Name: "cost_overrides"})
		c.Fields.Add(&core.JSONField{Name: "misc_fees"})
		c.Fields.Add(&core.JSONField{Name: "equipment_blocks", MaxSize: 20 << 20})
		c.Fields.Add(&core.NumberField{Name: "margin_percentage"})
		c.Fields.Add(&core.NumberField{Name: "subtotal"})
		c.Fields.Add(&core.NumberField{Name: "margin_amount"})
		c.Fields.Add(&core.RelationField{Name: "inland_quote", CollectionId: inland.Id, MaxSelect: 1})
		c.Fields.Add(&core.NumberField{Name: "inland_total"})
		c.Fields.Add(&core.NumberField{Name: "total"})
		c.Fields.Add(&core.TextField{Name: "notes", Max: 10000})
		c.Fields.Add(&core.TextField{Name: "terms", Max: 10000})
		addQuoteTimestamps(c, users.Id)
	})

	ensureCollection(app, "quote_status_history", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "quote", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "quote_kind",
			Required:  true,
			Values:    []string{"dismantle", "inland"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "from_status"})
		c.Fields.Add(&core.TextField{Name: "to_status", Required: true})
		c.Fields.Add(&core.RelationField{Name: "changed_by", CollectionId: users.Id, MaxSelect: 1})
		c.Fields.Add(&core.TextField{Name: "notes"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.AddIndex("idx_quote_status_history_quote", false, "quote", "")
	})

	ensureCollection(app, "custom_fields", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "table_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "field_name", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "field_type",
			Required:  true,
			Values:    []string{"text", "number", "date", "boolean", "json"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "display_name"})
		c.Fields.Add(&core.BoolField{Name: "is_required"})
		c.Fields.Add(&core.TextField{Name: "default_value"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.AddIndex("idx_custom_fields_table_field", true, "table_name, field_name", "")
	})

	ensureCollection(app, "company_settings", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "company_name"})
		c.Fields.Add(&core.TextField{Name: "address"})
		c.Fields.Add(&core.TextField{Name: "phone"})
		c.Fields.Add(&core.TextField{Name: "email"})
		c.Fields.Add(&core.TextField{Name: "website"})
		c.Fields.Add(&core.TextField{Name: "logo", Max: imageTextMax})
		c.Fields.Add(&core.TextField{Name: "primary_color"})
		c.Fields.Add(&core.NumberField{Name: "default_margin"})
		c.Fields.Add(&core.NumberField{Name: "quote_validity_days", OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "terms", Max: 10000})
		c.Fields.Add(&core.BoolField{Name: "show_margin"})
		c.Fields.Add(&core.SelectField{Name: "pdf_renderer", Values: []string{"raster", "vector"}, MaxSelect: 1})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "activity_logs", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{Name: "company", CollectionId: companies.Id, CascadeDelete: true, MaxSelect: 1})
		c.Fields.Add(&core.RelationField{Name: "contact", CollectionId: contacts.Id, MaxSelect: 1})
		c.Fields.Add(&core.TextField{Name: "quote"})
		c.Fields.Add(&core.SelectField{
			Name:      "activity_type",
			Required:  true,
			Values:    []string{"call", "email", "meeting", "note", "quote_sent", "status_change", "import"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "subject", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Max: 10000})
		c.Fields.Add(&core.RelationField{Name: "created_by", CollectionId: users.Id, MaxSelect: 1})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "follow_up_reminders", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{Name: "company", CollectionId: companies.Id, CascadeDelete: true, MaxSelect: 1})
		c.Fields.Add(&core.RelationField{Name: "contact", CollectionId: contacts.Id, MaxSelect: 1})
		c.Fields.Add(&core.TextField{Name: "quote"})
		c.Fields.Add(&core.TextField{Name: "title", Required: true})
		c.Fields.Add(&core.TextField{Name: "notes", Max: 10000})
		c.Fields.Add(&core.DateField{Name: "due_at", Required: true})
		c.Fields.Add(&core.SelectField{Name: "priority", Values: []string{"low", "medium", "high"}, MaxSelect: 1})
		c.Fields.Add(&core.BoolField{Name: "completed"})
		c.Fields.Add(&core.DateField{Name: "completed_at"})
		c.Fields.Add(&core.BoolField{Name: "notified"})
		c.Fields.Add(&core.RelationField{Name: "created_by", CollectionId: users.Id, MaxSelect: 1})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "quote_templates", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.SelectField{Name: "location", Values: Locations, MaxSelect: 1})
		c.Fields.Add(&core.NumberField{Name: "margin_percentage"})
		c.Fields.Add(&core.JSONField{Name: "enabled_costs"})
		c.Fields.Add(&core.JSONField{Name: "misc_fees"})
		c.Fields.Add(&core.TextField{Name: "notes", Max: 10000})
		c.Fields.Add(&core.TextField{Name: "terms", Max: 10000})
		c.Fields.Add(&core.BoolField{Name: "is_default"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "email_logs", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "recipient", Required: true})
		c.Fields.Add(&core.TextField{Name: "subject"})
		c.Fields.Add(&core.TextField{Name: "kind"})
		c.Fields.Add(&core.TextField{Name: "quote"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"sent", "failed", "skipped"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "provider"})
		c.Fields.Add(&core.TextField{Name: "error", Max: 10000})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})
}

// imageTextMax bounds base64 image columns (about 6MB of binary data).
const imageTextMax = 8 << 20

// addLineageFields adds the version-lineage columns shared by both quote kinds.
func addLineageFields(c *core.Collection) {
	c.Fields.Add(&core.TextField{Name: "quote_number", Required: true})
	c.Fields.Add(&core.NumberField{Name: "version", Required: true, OnlyInt: true})
	c.Fields.Add(&core.TextField{Name: "parent_quote_id"})
	c.Fields.Add(&core.TextField{Name: "original_quote_id"})
	c.Fields.Add(&core.SelectField{Name: "status", Required: true, Values: QuoteStatuses, MaxSelect: 1})
	c.AddIndex("idx_"+c.Name+"_quote_number", true, "quote_number", "")
	c.AddIndex("idx_"+c.Name+"_original", false, "original_quote_id", "")
}

func addCustomerFields(c *core.Collection, companiesID, contactsID string) {
	c.Fields.Add(&core.TextField{Name: "customer_name", Required: true})
	c.Fields.Add(&core.TextField{Name: "customer_email"})
	c.Fields.Add(&core.TextField{Name: "customer_phone"})
	c.Fields.Add(&core.TextField{Name: "customer_company"})
	c.Fields.Add(&core.TextField{Name: "billing_address"})
	c.Fields.Add(&core.RelationField{Name: "company", CollectionId: companiesID, MaxSelect: 1})
	c.Fields.Add(&core.RelationField{Name: "contact", CollectionId: contactsID, MaxSelect: 1})
}

func addQuoteTimestamps(c *core.Collection, usersID string) {
	c.Fields.Add(&core.DateField{Name: "expires_at"})
	c.Fields.Add(&core.DateField{Name: "sent_at"})
	c.Fields.Add(&core.DateField{Name: "viewed_at"})
	c.Fields.Add(&core.DateField{Name: "responded_at"})
	c.Fields.Add(&core.RelationField{Name: "created_by", CollectionId: usersID, MaxSelect: 1})
	c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app core.App, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
