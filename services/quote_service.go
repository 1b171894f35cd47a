package services

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/collections"
	"equipquote/config"
)

// EquipmentBlock is one unit on a quote. The first unit lives in the quote's
// own columns; further units are stored in equipment_blocks.
type EquipmentBlock struct {
	ModelID       string             `json:"model,omitempty"`
	MakeName      string             `json:"make_name"`
	ModelName     string             `json:"model_name"`
	Location      string             `json:"location"`
	EquipmentType string             `json:"equipment_type,omitempty"`
	CostData      map[string]float64 `json:"cost_data,omitempty"`
	EnabledCosts  map[string]bool    `json:"enabled_costs,omitempty"`
	CostOverrides map[string]float64 `json:"cost_overrides,omitempty"`
}

// Label names the unit on documents, e.g. "Caterpillar 320".
func (b EquipmentBlock) Label() string {
	return joinNonEmpty([]string{b.MakeName, b.ModelName}, " ")
}

func (b EquipmentBlock) costs() EquipmentCosts {
	return EquipmentCosts{
		Label:     b.Label(),
		Costs:     scheduleFromMap(b.CostData),
		Enabled:   toggleFromMap(b.EnabledCosts),
		Overrides: scheduleFromMap(b.CostOverrides),
	}
}

func (b EquipmentBlock) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Location, validation.In(anyOf(collections.Locations)...)),
		validation.Field(&b.EquipmentType, validation.In(anyOf(collections.EquipmentTypes)...)),
		validation.Field(&b.CostData, validation.By(costKeys[float64]), validation.By(nonNegativeCosts)),
		validation.Field(&b.EnabledCosts, validation.By(costKeys[bool])),
		validation.Field(&b.CostOverrides, validation.By(costKeys[float64]), validation.By(nonNegativeCosts)),
	)
}

// QuoteRequest is the body of a dismantle quote create, update or dry run.
type QuoteRequest struct {
	CustomerName     string           `json:"customer_name"`
	CustomerEmail    string           `json:"customer_email"`
	CustomerPhone    string           `json:"customer_phone"`
	CustomerCompany  string           `json:"customer_company"`
	BillingAddress   string           `json:"billing_address"`
	CompanyID        string           `json:"company"`
	ContactID        string           `json:"contact"`
	Equipment        EquipmentBlock   `json:"equipment"`
	EquipmentBlocks  []EquipmentBlock `json:"equipment_blocks"`
	MiscFees         []MiscFee        `json:"misc_fees"`
	MarginPercentage *float64         `json:"margin_percentage"`
	InlandQuoteID    string           `json:"inland_quote"`
	Notes            string           `json:"notes"`
	Terms            string           `json:"terms"`
}

func (r QuoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CustomerName, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.CustomerEmail, is.EmailFormat),
		validation.Field(&r.Equipment),
		validation.Field(&r.EquipmentBlocks),
		validation.Field(&r.MiscFees, validation.By(validateMiscFees)),
		validation.Field(&r.MarginPercentage, validation.Min(0.0), validation.Max(1000.0)),
		validation.Field(&r.Notes, validation.Length(0, 10000)),
		validation.Field(&r.Terms, validation.Length(0, 10000)),
	)
}

// AllEquipment returns the primary unit followed by the additional ones.
func (r QuoteRequest) AllEquipment() []EquipmentBlock {
	return append([]EquipmentBlock{r.Equipment}, r.EquipmentBlocks...)
}

// QuoteService creates and edits dismantle quotes.
type QuoteService struct {
	app     core.App
	cfg     *config.Config
	lineage *Lineage
	now     func() time.Time
}

// NewQuoteService returns a QuoteService numbering quotes with cfg's prefix.
func NewQuoteService(app core.App, cfg *config.Config) *QuoteService {
	return &QuoteService{
		app:     app,
		cfg:     cfg,
		lineage: NewLineage(app, KindDismantle, cfg.Quote.NumberPrefix),
		now:     time.Now,
	}
}

// Lineage exposes version history of dismantle quotes.
func (s *QuoteService) Lineage() *Lineage { return s.lineage }

// Resolve fills in what the request leaves out: make and model names and
// equipment type from the catalog, cost schedules from location_costs when
// none are given, and the default margin.
func (s *QuoteService) Resolve(req QuoteRequest) (QuoteRequest, error) {
	if req.MarginPercentage == nil {
		settings, err := LoadSettings(s.app, s.cfg)
		if err != nil {
			return req, err
		}
		m := settings.DefaultMargin
		req.MarginPercentage = &m
	}

	var err error
	if req.Equipment, err = s.resolveBlock(req.Equipment); err != nil {
		return req, err
	}
	for i := range req.EquipmentBlocks {
		if req.EquipmentBlocks[i], err = s.resolveBlock(req.EquipmentBlocks[i]); err != nil {
			return req, err
		}
	}
	return req, nil
}

func (s *QuoteService) resolveBlock(b EquipmentBlock) (EquipmentBlock, error) {
	if b.ModelID != "" {
		model, err := s.app.FindRecordById("equipment_models", b.ModelID)
		if err != nil {
			return b, fmt.Errorf("equipment model %s not found: %w", b.ModelID, err)
		}
		if b.ModelName == "" {
			b.ModelName = model.GetString("name")
		}
		if b.MakeName == "" {
			if mk, err := s.app.FindRecordById("equipment_makes", model.GetString("make")); err == nil {
				b.MakeName = mk.GetString("name")
			}
		}
		if b.EquipmentType == "" {
			if t, err := ClassifyModel(s.app, b.ModelID); err == nil {
				b.EquipmentType = string(t)
			}
		}
		if len(b.CostData) == 0 && b.Location != "" {
			schedule, err := FindLocationCosts(s.app, b.ModelID, Location(b.Location))
			if err == nil {
				b.CostData = make(map[string]float64, len(schedule))
				for f, v := range schedule {
					b.CostData[string(f)] = v
				}
			}
		}
	}
	if b.EquipmentType == "" && (b.MakeName != "" || b.ModelName != "") {
		b.EquipmentType = string(ClassifyEquipment(b.MakeName, b.ModelName))
	}
	return b, nil
}

// Calc prices a resolved request without saving anything.
func (s *QuoteService) Calc(req QuoteRequest) (QuoteTotals, error) {
	inland := 0.0
	if req.InlandQuoteID != "" {
		rec, err := s.app.FindRecordById(KindInland.Collection(), req.InlandQuoteID)
		if err != nil {
			return QuoteTotals{}, fmt.Errorf("inland quote %s: %w", req.InlandQuoteID, ErrQuoteNotFound)
		}
		inland = rec.GetFloat("total")
	}

	margin := 0.0
	if req.MarginPercentage != nil {
		margin = *req.MarginPercentage
	}

	in := QuoteInput{MiscFees: req.MiscFees, MarginPercent: margin, InlandTotal: inland}
	for _, b := range req.AllEquipment() {
		in.Equipment = append(in.Equipment, b.costs())
	}
	return CalcQuoteTotals(in), nil
}

// Create saves a new draft quote, version 1.
func (s *QuoteService) Create(req QuoteRequest, userID string) (*core.Record, error) {
	req, totals, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	validity := s.cfg.Quote.ValidityDays
	if settings, err := LoadSettings(s.app, s.cfg); err == nil {
		validity = settings.QuoteValidityDays
	}

	return s.lineage.Create(userID, func(rec *core.Record) error {
		applyQuoteRequest(rec, req, totals)
		if validity > 0 {
			rec.Set("expires_at", s.now().UTC().AddDate(0, 0, validity))
		}
		return nil
	})
}

// Update rewrites a quote's content on the same row.
func (s *QuoteService) Update(id string, req QuoteRequest) (*core.Record, error) {
	req, totals, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	return s.lineage.UpdateInPlace(id, func(rec *core.Record) error {
		applyQuoteRequest(rec, req, totals)
		return nil
	})
}

// SaveVersion branches a new draft from id. A nil req copies the source
// content unchanged.
func (s *QuoteService) SaveVersion(id string, req *QuoteRequest, userID string) (*core.Record, error) {
	if req == nil {
		return s.lineage.SaveAsNewVersion(id, userID, nil)
	}
	resolved, totals, err := s.prepare(*req)
	if err != nil {
		return nil, err
	}
	return s.lineage.SaveAsNewVersion(id, userID, func(rec *core.Record) error {
		applyQuoteRequest(rec, resolved, totals)
		return nil
	})
}

func (s *QuoteService) prepare(req QuoteRequest) (QuoteRequest, QuoteTotals, error) {
	if err := req.Validate(); err != nil {
		return req, QuoteTotals{}, err
	}
	req, err := s.Resolve(req)
	if err != nil {
		return req, QuoteTotals{}, err
	}
	totals, err := s.Calc(req)
	if err != nil {
		return req, QuoteTotals{}, err
	}
	return req, totals, nil
}

func applyQuoteRequest(rec *core.Record, req QuoteRequest, totals QuoteTotals) {
	rec.Set("customer_name", req.CustomerName)
	rec.Set("customer_email", req.CustomerEmail)
	rec.Set("customer_phone", req.CustomerPhone)
	rec.Set("customer_company", req.CustomerCompany)
	rec.Set("billing_address", req.BillingAddress)
	rec.Set("company", req.CompanyID)
	rec.Set("contact", req.ContactID)

	eq := req.Equipment
	rec.Set("model", eq.ModelID)
	rec.Set("make_name", eq.MakeName)
	rec.Set("model_name", eq.ModelName)
	rec.Set("location", eq.Location)
	rec.Set("equipment_type", eq.EquipmentType)
	rec.Set("cost_data", eq.CostData)
	rec.Set("enabled_costs", eq.EnabledCosts)
	rec.Set("cost_overrides", eq.CostOverrides)
	rec.Set("equipment_blocks", req.EquipmentBlocks)
	rec.Set("misc_fees", req.MiscFees)

	rec.Set("margin_percentage", totals.MarginPercent)
	rec.Set("subtotal", totals.Subtotal)
	rec.Set("margin_amount", totals.MarginAmount)
	rec.Set("inland_quote", req.InlandQuoteID)
	rec.Set("inland_total", totals.InlandTotal)
	rec.Set("total", totals.Total())
	rec.Set("notes", req.Notes)
	rec.Set("terms", req.Terms)
}

// QuoteRequestFromRecord rebuilds the request a saved quote was made from.
func QuoteRequestFromRecord(rec *core.Record) (QuoteRequest, error) {
	margin := rec.GetFloat("margin_percentage")
	req := QuoteRequest{
		CustomerName:    rec.GetString("customer_name"),
		CustomerEmail:   rec.GetString("customer_email"),
		CustomerPhone:   rec.GetString("customer_phone"),
		CustomerCompany: rec.GetString("customer_company"),
		BillingAddress:  rec.GetString("billing_address"),
		CompanyID:       rec.GetString("company"),
		ContactID:       rec.GetString("contact"),
		Equipment: EquipmentBlock{
			ModelID:       rec.GetString("model"),
			MakeName:      rec.GetString("make_name"),
			ModelName:     rec.GetString("model_name"),
			Location:      rec.GetString("location"),
			EquipmentType: rec.GetString("equipment_type"),
		},
		MarginPercentage: &margin,
		InlandQuoteID:    rec.GetString("inland_quote"),
		Notes:            rec.GetString("notes"),
		Terms:            rec.GetString("terms"),
	}

	var errs []error
	unmarshal := func(key string, dst any) {
		if err := rec.UnmarshalJSONField(key, dst); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	unmarshal("cost_data", &req.Equipment.CostData)
	unmarshal("enabled_costs", &req.Equipment.EnabledCosts)
	unmarshal("cost_overrides", &req.Equipment.CostOverrides)
	unmarshal("equipment_blocks", &req.EquipmentBlocks)
	unmarshal("misc_fees", &req.MiscFees)

	return req, errors.Join(errs...)
}
