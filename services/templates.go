package services

import (
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

var ErrTemplateNotFound = errors.New("quote template not found")

// QuoteTemplate is a saved set of quote defaults.
type QuoteTemplate struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Location         string          `json:"location,omitempty"`
	MarginPercentage float64         `json:"margin_percentage"`
	EnabledCosts     map[string]bool `json:"enabled_costs,omitempty"`
	MiscFees         []MiscFee       `json:"misc_fees,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	Terms            string          `json:"terms,omitempty"`
	IsDefault        bool            `json:"is_default"`
}

func templateFromRecord(rec *core.Record) QuoteTemplate {
	t := QuoteTemplate{
		ID:               rec.Id,
		Name:             rec.GetString("name"),
		Description:      rec.GetString("description"),
		Location:         rec.GetString("location"),
		MarginPercentage: rec.GetFloat("margin_percentage"),
		Notes:            rec.GetString("notes"),
		Terms:            rec.GetString("terms"),
		IsDefault:        rec.GetBool("is_default"),
	}
	_ = rec.UnmarshalJSONField("enabled_costs", &t.EnabledCosts)
	_ = rec.UnmarshalJSONField("misc_fees", &t.MiscFees)
	return t
}

// Apply copies the template's defaults onto req where req leaves them empty.
func (t QuoteTemplate) Apply(req QuoteRequest) QuoteRequest {
	if req.Equipment.Location == "" {
		req.Equipment.Location = t.Location
	}
	if req.Equipment.EnabledCosts == nil && len(t.EnabledCosts) > 0 {
		req.Equipment.EnabledCosts = make(map[string]bool, len(t.EnabledCosts))
		for k, v := range t.EnabledCosts {
			req.Equipment.EnabledCosts[k] = v
		}
	}
	if req.MarginPercentage == nil {
		m := t.MarginPercentage
		req.MarginPercentage = &m
	}
	if len(req.MiscFees) == 0 {
		req.MiscFees = append([]MiscFee(nil), t.MiscFees...)
	}
	if req.Notes == "" {
		req.Notes = t.Notes
	}
	if req.Terms == "" {
		req.Terms = t.Terms
	}
	return req
}

// ListTemplates returns every template, the default first.
func ListTemplates(app core.App) ([]QuoteTemplate, error) {
	records, err := app.FindRecordsByFilter("quote_templates", "1=1", "-is_default,name", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list quote templates: %w", err)
	}
	out := make([]QuoteTemplate, 0, len(records))
	for _, r := range records {
		out = append(out, templateFromRecord(r))
	}
	return out, nil
}

// GetTemplate loads one template.
func GetTemplate(app core.App, id string) (QuoteTemplate, error) {
	rec, err := app.FindRecordById("quote_templates", id)
	if err != nil {
		return QuoteTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return templateFromRecord(rec), nil
}

// SaveTemplate creates a template when id is empty, else updates it. Only
// one template can be the default.
func SaveTemplate(app core.App, id string, in TemplateInput) (QuoteTemplate, error) {
	if err := in.Validate(); err != nil {
		return QuoteTemplate{}, err
	}

	var rec *core.Record
	if id == "" {
		col, err := app.FindCollectionByNameOrId("quote_templates")
		if err != nil {
			return QuoteTemplate{}, fmt.Errorf("quote_templates collection not found: %w", err)
		}
		rec = core.NewRecord(col)
	} else {
		var err error
		if rec, err = app.FindRecordById("quote_templates", id); err != nil {
			return QuoteTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
		}
	}

	rec.Set("name", in.Name)
	rec.Set("description", in.Description)
	rec.Set("location", in.Location)
	rec.Set("margin_percentage", in.MarginPercentage)
	rec.Set("enabled_costs", in.EnabledCosts)
	rec.Set("misc_fees", in.MiscFees)
	rec.Set("notes", in.Notes)
	rec.Set("terms", in.Terms)
	rec.Set("is_default", in.IsDefault)

	err := app.RunInTransaction(func(txApp core.App) error {
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("save quote template: %w", err)
		}
		if !in.IsDefault {
			return nil
		}
		others, err := txApp.FindRecordsByFilter("quote_templates",
			"is_default = true && id != {:id}", "", 0, 0, map[string]any{"id": rec.Id})
		if err != nil {
			return err
		}
		for _, o := range others {
			o.Set("is_default", false)
			if err := txApp.Save(o); err != nil {
				return fmt.Errorf("clear default template: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return QuoteTemplate{}, err
	}
	return templateFromRecord(rec), nil
}

// DeleteTemplate removes a template.
func DeleteTemplate(app core.App, id string) error {
	rec, err := app.FindRecordById("quote_templates", id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	if err := app.Delete(rec); err != nil {
		return fmt.Errorf("delete quote template: %w", err)
	}
	return nil
}
