package services

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"

	"equipquote/config"
)

// CompanySettings is the branding and quoting defaults used on every quote.
type CompanySettings struct {
	CompanyName       string  `json:"company_name"`
	Address           string  `json:"address"`
	Phone             string  `json:"phone"`
	Email             string  `json:"email"`
	Website           string  `json:"website"`
	Logo              string  `json:"logo,omitempty"` // base64 data URL or raw base64
	PrimaryColor      string  `json:"primary_color"`
	DefaultMargin     float64 `json:"default_margin"`
	QuoteValidityDays int     `json:"quote_validity_days"`
	Terms             string  `json:"terms"`
	ShowMargin        bool    `json:"show_margin"`
	PDFRenderer       string  `json:"pdf_renderer"`
}

// LoadSettings reads the company_settings row. Blank columns fall back to
// the environment defaults in cfg.
func LoadSettings(app core.App, cfg *config.Config) (CompanySettings, error) {
	s := CompanySettings{
		CompanyName:       cfg.Company.Name,
		Address:           cfg.Company.Address,
		Phone:             cfg.Company.Phone,
		Email:             cfg.Company.Email,
		Website:           cfg.Company.Website,
		PrimaryColor:      cfg.Company.PrimaryColor,
		DefaultMargin:     cfg.Quote.DefaultMargin,
		QuoteValidityDays: cfg.Quote.ValidityDays,
		PDFRenderer:       cfg.Quote.Renderer,
	}

	rec, err := settingsRecord(app)
	if err != nil {
		return s, err
	}
	if rec == nil {
		return s, nil
	}

	overrideString(&s.CompanyName, rec.GetString("company_name"))
	overrideString(&s.Address, rec.GetString("address"))
	overrideString(&s.Phone, rec.GetString("phone"))
	overrideString(&s.Email, rec.GetString("email"))
	overrideString(&s.Website, rec.GetString("website"))
	overrideString(&s.Logo, rec.GetString("logo"))
	overrideString(&s.PrimaryColor, rec.GetString("primary_color"))
	overrideString(&s.Terms, rec.GetString("terms"))
	overrideString(&s.PDFRenderer, rec.GetString("pdf_renderer"))
	if v := rec.GetFloat("default_margin"); v > 0 {
		s.DefaultMargin = v
	}
	if v := rec.GetInt("quote_validity_days"); v > 0 {
		s.QuoteValidityDays = v
	}
	s.ShowMargin = rec.GetBool("show_margin")
	return s, nil
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// settingsRecord returns the single settings row, or nil when none exists.
func settingsRecord(app core.App) (*core.Record, error) {
	records, err := app.FindRecordsByFilter("company_settings", "1=1", "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("load company settings: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// SaveSettings writes in to the settings row, creating it if needed.
func SaveSettings(app core.App, in SettingsInput) error {
	rec, err := settingsRecord(app)
	if err != nil {
		return err
	}
	if rec == nil {
		col, err := app.FindCollectionByNameOrId("company_settings")
		if err != nil {
			return fmt.Errorf("company_settings collection not found: %w", err)
		}
		rec = core.NewRecord(col)
	}

	rec.Set("company_name", in.CompanyName)
	rec.Set("address", in.Address)
	rec.Set("phone", in.Phone)
	rec.Set("email", in.Email)
	rec.Set("website", in.Website)
	if in.Logo != nil {
		rec.Set("logo", *in.Logo)
	}
	rec.Set("primary_color", in.PrimaryColor)
	rec.Set("default_margin", in.DefaultMargin)
	rec.Set("quote_validity_days", in.QuoteValidityDays)
	rec.Set("terms", in.Terms)
	rec.Set("show_margin", in.ShowMargin)
	rec.Set("pdf_renderer", in.PDFRenderer)

	if err := app.Save(rec); err != nil {
		return fmt.Errorf("save company settings: %w", err)
	}
	return nil
}
