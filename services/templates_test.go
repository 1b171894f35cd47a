package services

import (
	"errors"
	"testing"

	"equipquote/testhelpers"
)

func TestSaveTemplate_SingleDefault(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	a, err := SaveTemplate(app, "", TemplateInput{Name: "Port of Houston", Location: "houston", MarginPercentage: 18, IsDefault: true})
	if err != nil {
		t.Fatalf("SaveTemplate(a) error = %v", err)
	}
	b, err := SaveTemplate(app, "", TemplateInput{Name: "East coast", Location: "new_jersey", MarginPercentage: 12, IsDefault: true})
	if err != nil {
		t.Fatalf("SaveTemplate(b) error = %v", err)
	}

	list, err := ListTemplates(app)
	if err != nil {
		t.Fatal(err)
	}
	defaults := 0
	for _, tpl := range list {
		if tpl.IsDefault {
			defaults++
		}
	}
	if defaults != 1 || list[0].ID != b.ID {
		t.Errorf("defaults = %d, first = %q; want 1 default listed first (%q)", defaults, list[0].Name, b.Name)
	}

	renamed, err := SaveTemplate(app, a.ID, TemplateInput{Name: "Houston yard", Location: "houston"})
	if err != nil {
		t.Fatalf("SaveTemplate(update) error = %v", err)
	}
	if renamed.ID != a.ID || renamed.Name != "Houston yard" {
		t.Errorf("update = %+v", renamed)
	}

	if _, err := SaveTemplate(app, "", TemplateInput{Name: "bad", Location: "atlantis"}); err == nil {
		t.Error("expected validation error for unknown location")
	}
	if err := DeleteTemplate(app, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := GetTemplate(app, a.ID); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("GetTemplate(deleted) error = %v, want ErrTemplateNotFound", err)
	}
}

func TestQuoteTemplate_Apply(t *testing.T) {
	tpl := QuoteTemplate{
		Location:         "savannah",
		MarginPercentage: 20,
		EnabledCosts:     map[string]bool{"escorts": false},
		MiscFees:         []MiscFee{{Label: "Port fee", Amount: 75}},
		Notes:            "Template notes",
		Terms:            "Net 30",
	}

	blank := tpl.Apply(QuoteRequest{CustomerName: "x"})
	if blank.Equipment.Location != "savannah" || *blank.MarginPercentage != 20 || len(blank.MiscFees) != 1 || blank.Terms != "Net 30" {
		t.Errorf("applied to blank = %+v", blank)
	}

	own := 5.0
	filled := tpl.Apply(QuoteRequest{
		CustomerName:     "x",
		Equipment:        EquipmentBlock{Location: "houston"},
		MarginPercentage: &own,
		Notes:            "Mine",
	})
	if filled.Equipment.Location != "houston" || *filled.MarginPercentage != 5 || filled.Notes != "Mine" {
		t.Errorf("template overrode request values: %+v", filled)
	}

	blank.Equipment.EnabledCosts["escorts"] = true
	if tpl.EnabledCosts["escorts"] {
		t.Error("Apply should copy enabled costs, not share the map")
	}
}
