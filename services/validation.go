package services

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"equipquote/collections"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func anyOf(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

var (
	companyStatuses = []string{"active", "inactive", "prospect"}
	contactRoles    = []string{"general", "decision_maker", "billing", "operations", "technical"}
	priorities      = []string{"low", "medium", "high"}
)

// costKeys rejects unknown cost field names in a JSON map.
func costKeys[V any](value any) error {
	m, _ := value.(map[string]V)
	for k := range m {
		if _, ok := ParseCostField(k); !ok {
			return fmt.Errorf("unknown cost field %q", k)
		}
	}
	return nil
}

func nonNegativeCosts(value any) error {
	m, _ := value.(map[string]float64)
	for k, v := range m {
		if v < 0 {
			return fmt.Errorf("%s cannot be negative", k)
		}
	}
	return nil
}

// SettingsInput is the body of a settings update.
type SettingsInput struct {
	CompanyName       string  `json:"company_name"`
	Address           string  `json:"address"`
	Phone             string  `json:"phone"`
	Email             string  `json:"email"`
	Website           string  `json:"website"`
	Logo              *string `json:"logo"`
	PrimaryColor      string  `json:"primary_color"`
	DefaultMargin     float64 `json:"default_margin"`
	QuoteValidityDays int     `json:"quote_validity_days"`
	Terms             string  `json:"terms"`
	ShowMargin        bool    `json:"show_margin"`
	PDFRenderer       string  `json:"pdf_renderer"`
}

func (in SettingsInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CompanyName, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Email, is.EmailFormat),
		validation.Field(&in.Website, is.URL),
		validation.Field(&in.PrimaryColor, validation.Match(hexColor).Error("must be a hex color like #1E3A8A")),
		validation.Field(&in.DefaultMargin, validation.Min(0.0), validation.Max(1000.0)),
		validation.Field(&in.QuoteValidityDays, validation.Min(0), validation.Max(365)),
		validation.Field(&in.PDFRenderer, validation.In(anyOf(RendererNames)...)),
	)
}

// CompanyInput is the body of a company create or update. PrimaryContact,
// when set on create, is saved as a second step after the company.
type CompanyInput struct {
	Name           string        `json:"name"`
	Industry       string        `json:"industry"`
	Website        string        `json:"website"`
	Phone          string        `json:"phone"`
	Email          string        `json:"email"`
	Address        string        `json:"address"`
	City           string        `json:"city"`
	State          string        `json:"state"`
	Zip            string        `json:"zip"`
	Country        string        `json:"country"`
	BillingAddress string        `json:"billing_address"`
	BillingCity    string        `json:"billing_city"`
	BillingState   string        `json:"billing_state"`
	BillingZip     string        `json:"billing_zip"`
	PaymentTerms   string        `json:"payment_terms"`
	Notes          string        `json:"notes"`
	Tags           []string      `json:"tags"`
	Status         string        `json:"status"`
	PrimaryContact *ContactInput `json:"primary_contact,omitempty"`
}

func (in CompanyInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Email, is.EmailFormat),
		validation.Field(&in.Status, validation.In(anyOf(companyStatuses)...)),
		validation.Field(&in.Notes, validation.Length(0, 10000)),
		validation.Field(&in.Tags, validation.Each(validation.Length(1, 50))),
		validation.Field(&in.PrimaryContact, validation.By(func(v any) error {
			c, _ := v.(*ContactInput)
			if c == nil {
				return nil
			}
			// company is assigned after the company row exists
			return c.validate(false)
		}), validation.Skip),
	)
}

// ContactInput is the body of a contact create or update.
type ContactInput struct {
	CompanyID string `json:"company"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Title     string `json:"title"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Mobile    string `json:"mobile"`
	Role      string `json:"role"`
	IsPrimary bool   `json:"is_primary"`
	Notes     string `json:"notes"`
}

func (in ContactInput) Validate() error { return in.validate(true) }

func (in ContactInput) validate(needCompany bool) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CompanyID, validation.When(needCompany, validation.Required)),
		validation.Field(&in.FirstName, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Email, is.EmailFormat),
		validation.Field(&in.Role, validation.In(anyOf(contactRoles)...)),
		validation.Field(&in.Notes, validation.Length(0, 10000)),
	)
}

// CustomerInput is the body of a customer create or update.
type CustomerInput struct {
	Name           string `json:"name"`
	CompanyName    string `json:"company_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	BillingAddress string `json:"billing_address"`
	Notes          string `json:"notes"`
}

func (in CustomerInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Email, is.EmailFormat),
		validation.Field(&in.Notes, validation.Length(0, 10000)),
	)
}

// ReminderInput is the body of a follow-up reminder create.
type ReminderInput struct {
	CompanyID string    `json:"company"`
	ContactID string    `json:"contact"`
	QuoteID   string    `json:"quote"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
	DueAt     time.Time `json:"due_at"`
	Priority  string    `json:"priority"`
}

func (in ReminderInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.DueAt, validation.Required),
		validation.Field(&in.Priority, validation.In(anyOf(priorities)...)),
	)
}

// ActivityInput is the body of a manual activity entry.
type ActivityInput struct {
	Type        string `json:"activity_type"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	CompanyID   string `json:"company"`
	ContactID   string `json:"contact"`
	QuoteID     string `json:"quote"`
}

func (in ActivityInput) Validate() error {
	manual := []string{string(ActivityCall), string(ActivityEmail), string(ActivityMeeting), string(ActivityNote)}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Type, validation.Required, validation.In(anyOf(manual)...)),
		validation.Field(&in.Subject, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Description, validation.Length(0, 10000)),
	)
}

// StatusChangeInput is the body of a quote status change.
type StatusChangeInput struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (in StatusChangeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Status, validation.Required, validation.In(anyOf(collections.QuoteStatuses)...)),
		validation.Field(&in.Notes, validation.Length(0, 2000)),
	)
}

// SendQuoteInput is the body of a quote email.
type SendQuoteInput struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	AttachPDF bool   `json:"attach_pdf"`
}

func (in SendQuoteInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.To, validation.Required, is.EmailFormat),
		validation.Field(&in.Subject, validation.Length(0, 255)),
		validation.Field(&in.Message, validation.Length(0, 10000)),
	)
}

// TemplateInput is the body of a quote template create or update.
type TemplateInput struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Location         string          `json:"location"`
	MarginPercentage float64         `json:"margin_percentage"`
	EnabledCosts     map[string]bool `json:"enabled_costs"`
	MiscFees         []MiscFee       `json:"misc_fees"`
	Notes            string          `json:"notes"`
	Terms            string          `json:"terms"`
	IsDefault        bool            `json:"is_default"`
}

func (in TemplateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Location, validation.In(anyOf(collections.Locations)...)),
		validation.Field(&in.MarginPercentage, validation.Min(0.0), validation.Max(1000.0)),
		validation.Field(&in.EnabledCosts, validation.By(costKeys[bool])),
		validation.Field(&in.MiscFees, validation.By(validateMiscFees)),
	)
}

func validateMiscFees(value any) error {
	fees, _ := value.([]MiscFee)
	for i, f := range fees {
		if f.Label == "" {
			return fmt.Errorf("fee %d needs a label", i+1)
		}
		if f.Amount < 0 {
			return fmt.Errorf("fee %q cannot be negative", f.Label)
		}
	}
	return nil
}

// DimensionsInput is the body of an equipment dimensions upsert.
type DimensionsInput struct {
	LengthIn      float64 `json:"length_in"`
	WidthIn       float64 `json:"width_in"`
	HeightIn      float64 `json:"height_in"`
	WeightLbs     float64 `json:"weight_lbs"`
	FrontImage    string  `json:"front_image"`
	SideImage     string  `json:"side_image"`
	EquipmentType string  `json:"equipment_type"`
}

func (in DimensionsInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.LengthIn, validation.Min(0.0)),
		validation.Field(&in.WidthIn, validation.Min(0.0)),
		validation.Field(&in.HeightIn, validation.Min(0.0)),
		validation.Field(&in.WeightLbs, validation.Min(0.0)),
		validation.Field(&in.EquipmentType, validation.In(anyOf(collections.EquipmentTypes)...)),
	)
}

// FieldErrors flattens a validation failure into field -> message. Other
// errors come back as nil.
func FieldErrors(err error) map[string]string {
	var ve validation.Errors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string, len(ve))
	for field, e := range ve {
		out[field] = e.Error()
	}
	return out
}
