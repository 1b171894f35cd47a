package services

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/config"
)

var truckTypes = []string{
	string(TruckFlatbed), string(TruckStepDeck), string(TruckRGN), string(TruckLowboy), string(TruckMultiAxleLowboy),
}

// InlandRequest is the body of an inland quote create, update or dry run.
type InlandRequest struct {
	CustomerName         string        `json:"customer_name"`
	CustomerEmail        string        `json:"customer_email"`
	CustomerPhone        string        `json:"customer_phone"`
	CustomerCompany      string        `json:"customer_company"`
	BillingAddress       string        `json:"billing_address"`
	CompanyID            string        `json:"company"`
	ContactID            string        `json:"contact"`
	PickupAddress        string        `json:"pickup_address"`
	PickupCity           string        `json:"pickup_city"`
	PickupState          string        `json:"pickup_state"`
	PickupZip            string        `json:"pickup_zip"`
	DropoffAddress       string        `json:"dropoff_address"`
	DropoffCity          string        `json:"dropoff_city"`
	DropoffState         string        `json:"dropoff_state"`
	DropoffZip           string        `json:"dropoff_zip"`
	DistanceMiles        float64       `json:"distance_miles"`
	RatePerMile          float64       `json:"rate_per_mile"`
	FlatRate             float64       `json:"flat_rate"`
	FuelSurchargePercent float64       `json:"fuel_surcharge_percent"`
	Accessorials         []Accessorial `json:"accessorials"`
	TruckType            string        `json:"truck_type"`
	CargoDescription     string        `json:"cargo_description"`
	CargoWeightLbs       float64       `json:"cargo_weight_lbs"`
	CargoLengthIn        float64       `json:"cargo_length_in"`
	CargoWidthIn         float64       `json:"cargo_width_in"`
	CargoHeightIn        float64       `json:"cargo_height_in"`
	MarginPercentage     *float64      `json:"margin_percentage"`
	Notes                string        `json:"notes"`
}

func (r InlandRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CustomerName, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.CustomerEmail, is.EmailFormat),
		validation.Field(&r.PickupAddress, validation.Required),
		validation.Field(&r.DropoffAddress, validation.Required),
		validation.Field(&r.DistanceMiles, validation.Min(0.0)),
		validation.Field(&r.RatePerMile, validation.Min(0.0)),
		validation.Field(&r.FlatRate, validation.Min(0.0)),
		validation.Field(&r.FuelSurchargePercent, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&r.Accessorials, validation.By(validateAccessorials)),
		validation.Field(&r.TruckType, validation.In(anyOf(truckTypes)...)),
		validation.Field(&r.CargoWeightLbs, validation.Min(0.0)),
		validation.Field(&r.CargoLengthIn, validation.Min(0.0)),
		validation.Field(&r.CargoWidthIn, validation.Min(0.0)),
		validation.Field(&r.CargoHeightIn, validation.Min(0.0)),
		validation.Field(&r.MarginPercentage, validation.Min(0.0), validation.Max(1000.0)),
		validation.Field(&r.Notes, validation.Length(0, 10000)),
	)
}

func validateAccessorials(value any) error {
	items, _ := value.([]Accessorial)
	for i, a := range items {
		if a.Name == "" {
			return fmt.Errorf("accessorial %d needs a name", i+1)
		}
		if a.Amount < 0 {
			return fmt.Errorf("accessorial %q cannot be negative", a.Name)
		}
	}
	return nil
}

func (r InlandRequest) input() InlandInput {
	margin := 0.0
	if r.MarginPercentage != nil {
		margin = *r.MarginPercentage
	}
	return InlandInput{
		DistanceMiles:        r.DistanceMiles,
		RatePerMile:          r.RatePerMile,
		FlatRate:             r.FlatRate,
		FuelSurchargePercent: r.FuelSurchargePercent,
		Accessorials:         r.Accessorials,
		MarginPercent:        margin,
	}
}

// InlandCalc is a dry-run result: the totals plus a trailer suggestion.
type InlandCalc struct {
	Totals InlandTotals        `json:"totals"`
	Truck  TruckRecommendation `json:"truck"`
}

// InlandService creates and edits inland transport quotes.
type InlandService struct {
	app     core.App
	cfg     *config.Config
	lineage *Lineage
	now     func() time.Time
}

// NewInlandService returns an InlandService numbering quotes with the
// inland prefix.
func NewInlandService(app core.App, cfg *config.Config) *InlandService {
	return &InlandService{
		app:     app,
		cfg:     cfg,
		lineage: NewLineage(app, KindInland, cfg.Quote.InlandPrefix),
		now:     time.Now,
	}
}

// Lineage exposes version history of inland quotes.
func (s *InlandService) Lineage() *Lineage { return s.lineage }

// Calc prices r and recommends a trailer. A missing margin uses the
// company default.
func (s *InlandService) Calc(r InlandRequest) (InlandCalc, error) {
	r, err := s.withDefaults(r)
	if err != nil {
		return InlandCalc{}, err
	}
	return InlandCalc{
		Totals: CalcInlandTotals(r.input()),
		Truck:  RecommendTruck(r.CargoWeightLbs, r.CargoHeightIn, r.CargoWidthIn),
	}, nil
}

func (s *InlandService) withDefaults(r InlandRequest) (InlandRequest, error) {
	if r.MarginPercentage != nil {
		return r, nil
	}
	settings, err := LoadSettings(s.app, s.cfg)
	if err != nil {
		return r, err
	}
	m := settings.DefaultMargin
	r.MarginPercentage = &m
	return r, nil
}

func (s *InlandService) prepare(r InlandRequest) (InlandRequest, InlandCalc, error) {
	if err := r.Validate(); err != nil {
		return r, InlandCalc{}, err
	}
	r, err := s.withDefaults(r)
	if err != nil {
		return r, InlandCalc{}, err
	}
	calc, err := s.Calc(r)
	if err != nil {
		return r, InlandCalc{}, err
	}
	if r.TruckType == "" {
		r.TruckType = string(calc.Truck.Truck)
	}
	return r, calc, nil
}

// Create saves a new draft inland quote, version 1.
func (s *InlandService) Create(r InlandRequest, userID string) (*core.Record, error) {
	r, calc, err := s.prepare(r)
	if err != nil {
		return nil, err
	}
	validity := s.cfg.Quote.ValidityDays
	if settings, err := LoadSettings(s.app, s.cfg); err == nil {
		validity = settings.QuoteValidityDays
	}
	return s.lineage.Create(userID, func(rec *core.Record) error {
		applyInlandRequest(rec, r, calc.Totals)
		if validity > 0 {
			rec.Set("expires_at", s.now().UTC().AddDate(0, 0, validity))
		}
		return nil
	})
}

// Update rewrites an inland quote on the same row.
func (s *InlandService) Update(id string, r InlandRequest) (*core.Record, error) {
	r, calc, err := s.prepare(r)
	if err != nil {
		return nil, err
	}
	return s.lineage.UpdateInPlace(id, func(rec *core.Record) error {
		applyInlandRequest(rec, r, calc.Totals)
		return nil
	})
}

// SaveVersion branches a new draft from id, applying r when given.
func (s *InlandService) SaveVersion(id string, r *InlandRequest, userID string) (*core.Record, error) {
	if r == nil {
		return s.lineage.SaveAsNewVersion(id, userID, nil)
	}
	resolved, calc, err := s.prepare(*r)
	if err != nil {
		return nil, err
	}
	return s.lineage.SaveAsNewVersion(id, userID, func(rec *core.Record) error {
		applyInlandRequest(rec, resolved, calc.Totals)
		return nil
	})
}

func applyInlandRequest(rec *core.Record, r InlandRequest, t InlandTotals) {
	rec.Set("customer_name", r.CustomerName)
	rec.Set("customer_email", r.CustomerEmail)
	rec.Set("customer_phone", r.CustomerPhone)
	rec.Set("customer_company", r.CustomerCompany)
	rec.Set("billing_address", r.BillingAddress)
	rec.Set("company", r.CompanyID)
	rec.Set("contact", r.ContactID)
	rec.Set("pickup_address", r.PickupAddress)
	rec.Set("pickup_city", r.PickupCity)
	rec.Set("pickup_state", r.PickupState)
	rec.Set("pickup_zip", r.PickupZip)
	rec.Set("dropoff_address", r.DropoffAddress)
	rec.Set("dropoff_city", r.DropoffCity)
	rec.Set("dropoff_state", r.DropoffState)
	rec.Set("dropoff_zip", r.DropoffZip)
	rec.Set("distance_miles", r.DistanceMiles)
	rec.Set("rate_per_mile", r.RatePerMile)
	rec.Set("flat_rate", r.FlatRate)
	rec.Set("fuel_surcharge_percent", r.FuelSurchargePercent)
	rec.Set("accessorials", r.Accessorials)
	rec.Set("truck_type", r.TruckType)
	rec.Set("cargo_description", r.CargoDescription)
	rec.Set("cargo_weight_lbs", r.CargoWeightLbs)
	rec.Set("cargo_length_in", r.CargoLengthIn)
	rec.Set("cargo_width_in", r.CargoWidthIn)
	rec.Set("cargo_height_in", r.CargoHeightIn)
	rec.Set("notes", r.Notes)

	rec.Set("margin_percentage", t.MarginPercent)
	rec.Set("line_haul", t.LineHaul)
	rec.Set("fuel_surcharge", t.FuelSurcharge)
	rec.Set("accessorial_total", t.AccessorialTotal)
	rec.Set("subtotal", t.Subtotal)
	rec.Set("margin_amount", t.MarginAmount)
	rec.Set("total", t.Total)
}

// InlandRequestFromRecord rebuilds the request a saved inland quote was
// made from.
func InlandRequestFromRecord(rec *core.Record) (InlandRequest, error) {
	margin := rec.GetFloat("margin_percentage")
	r := InlandRequest{
		CustomerName:         rec.GetString("customer_name"),
		CustomerEmail:        rec.GetString("customer_email"),
		CustomerPhone:        rec.GetString("customer_phone"),
		CustomerCompany:      rec.GetString("customer_company"),
		BillingAddress:       rec.GetString("billing_address"),
		CompanyID:            rec.GetString("company"),
		ContactID:            rec.GetString("contact"),
		PickupAddress:        rec.GetString("pickup_address"),
		PickupCity:           rec.GetString("pickup_city"),
		PickupState:          rec.GetString("pickup_state"),
		PickupZip:            rec.GetString("pickup_zip"),
		DropoffAddress:       rec.GetString("dropoff_address"),
		DropoffCity:          rec.GetString("dropoff_city"),
		DropoffState:         rec.GetString("dropoff_state"),
		DropoffZip:           rec.GetString("dropoff_zip"),
		DistanceMiles:        rec.GetFloat("distance_miles"),
		RatePerMile:          rec.GetFloat("rate_per_mile"),
		FlatRate:             rec.GetFloat("flat_rate"),
		FuelSurchargePercent: rec.GetFloat("fuel_surcharge_percent"),
		TruckType:            rec.GetString("truck_type"),
		CargoDescription:     rec.GetString("cargo_description"),
		CargoWeightLbs:       rec.GetFloat("cargo_weight_lbs"),
		CargoLengthIn:        rec.GetFloat("cargo_length_in"),
		CargoWidthIn:         rec.GetFloat("cargo_width_in"),
		CargoHeightIn:        rec.GetFloat("cargo_height_in"),
		MarginPercentage:     &margin,
		Notes:                rec.GetString("notes"),
	}
	if err := rec.UnmarshalJSONField("accessorials", &r.Accessorials); err != nil {
		return r, fmt.Errorf("accessorials: %w", err)
	}
	return r, nil
}
