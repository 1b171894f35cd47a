package services

import (
	"testing"

	"equipquote/config"
	"equipquote/testhelpers"
)

func TestLoadSettings_DefaultsFromConfig(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	cfg := config.Default()
	cfg.Company.Name = "Env Brokers"

	s, err := LoadSettings(app, cfg)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.CompanyName != "Env Brokers" || s.DefaultMargin != 15 || s.QuoteValidityDays != 30 || s.PDFRenderer != "raster" {
		t.Errorf("settings = %+v", s)
	}
	if s.ShowMargin {
		t.Error("margin should be hidden by default")
	}
}

func TestSaveSettings_Overrides(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	cfg := config.Default()
	logo := "data:image/png;base64,AAAA"

	in := SettingsInput{
		CompanyName:       "Saved Brokers",
		PrimaryColor:      "#123456",
		DefaultMargin:     22,
		QuoteValidityDays: 45,
		ShowMargin:        true,
		PDFRenderer:       "vector",
		Logo:              &logo,
	}
	if err := SaveSettings(app, in); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	// a second save without a logo keeps the stored one
	in.Logo = nil
	in.Phone = "555-0199"
	if err := SaveSettings(app, in); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(app, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if s.CompanyName != "Saved Brokers" || s.DefaultMargin != 22 || s.QuoteValidityDays != 45 ||
		!s.ShowMargin || s.PDFRenderer != "vector" || s.Phone != "555-0199" || s.Logo != logo {
		t.Errorf("settings = %+v", s)
	}

	rows, _ := app.FindRecordsByFilter("company_settings", "1=1", "", 0, 0)
	if len(rows) != 1 {
		t.Errorf("settings rows = %d, want 1", len(rows))
	}
}

func TestSettingsInput_Validate(t *testing.T) {
	tests := []struct {
		name  string
		in    SettingsInput
		field string
	}{
		{"missing name", SettingsInput{}, "company_name"},
		{"bad color", SettingsInput{CompanyName: "x", PrimaryColor: "navy"}, "primary_color"},
		{"bad email", SettingsInput{CompanyName: "x", Email: "nope"}, "email"},
		{"validity too long", SettingsInput{CompanyName: "x", QuoteValidityDays: 400}, "quote_validity_days"},
		{"unknown renderer", SettingsInput{CompanyName: "x", PDFRenderer: "laser"}, "pdf_renderer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := FieldErrors(tt.in.Validate())
			if _, ok := errs[tt.field]; !ok {
				t.Errorf("errors = %v, want one for %q", errs, tt.field)
			}
		})
	}
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	if got := FieldErrors(nil); got != nil {
		t.Errorf("FieldErrors(nil) = %v", got)
	}
	if got := FieldErrors(ErrQuoteLocked); got != nil {
		t.Errorf("FieldErrors(plain error) = %v", got)
	}
}
