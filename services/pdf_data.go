package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// QuotePDFData is the document shape shared by every renderer and the HTML
// preview. Amounts are already final: when the margin is hidden the line
// items carry the markup and MarginAmount is folded into Subtotal.
type QuotePDFData struct {
	Kind        QuoteKind
	Company     CompanySettings
	QuoteNumber string
	Version     int
	Status      QuoteStatus
	Date        string
	ValidUntil  string

	Customer  PDFCustomer
	Equipment []PDFEquipment
	LineItems []PDFLineItem
	Inland    *PDFInland

	Subtotal      float64
	ShowMargin    bool
	MarginPercent float64
	MarginAmount  float64
	InlandTotal   float64
	GrandTotal    float64

	Notes    string
	Terms    string
	Filename string
}

// PDFCustomer is the bill-to block.
type PDFCustomer struct {
	Name           string
	Company        string
	Email          string
	Phone          string
	BillingAddress string
}

// PDFEquipment is one unit with its specs and silhouette images.
type PDFEquipment struct {
	Label      string
	Location   string
	Type       string
	Dimensions *Dimensions
}

// PDFLineItem is one priced row. Group is the equipment label, or "Fees".
type PDFLineItem struct {
	Group       string
	Description string
	Amount      float64
}

// PDFInland is the trucking section of a document.
type PDFInland struct {
	QuoteNumber string
	Pickup      string
	Dropoff     string
	Distance    string
	Truck       string
	Cargo       string
	Lines       []PDFLineItem
	Total       float64
}

// BuildQuotePDFData loads a dismantle quote and everything it references.
func BuildQuotePDFData(app core.App, settings CompanySettings, rec *core.Record) (*QuotePDFData, error) {
	req, err := QuoteRequestFromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("read quote %s: %w", rec.Id, err)
	}

	margin := rec.GetFloat("margin_percentage")
	data := newPDFData(KindDismantle, settings, rec)
	data.MarginPercent = margin

	in := QuoteInput{MiscFees: req.MiscFees, MarginPercent: margin, InlandTotal: rec.GetFloat("inland_total")}
	for _, b := range req.AllEquipment() {
		eq := PDFEquipment{
			Label:    b.Label(),
			Location: Location(b.Location).Label(),
			Type:     EquipmentType(b.EquipmentType).Label(),
		}
		if b.ModelID != "" {
			if dims, err := GetDimensions(app, b.ModelID); err == nil && (dims.WeightLbs > 0 || dims.LengthIn > 0 || dims.FrontImage != "" || dims.SideImage != "") {
				eq.Dimensions = &dims
			}
		}
		data.Equipment = append(data.Equipment, eq)
		in.Equipment = append(in.Equipment, b.costs())
	}
	totals := CalcQuoteTotals(in)

	for _, et := range totals.Equipment {
		for _, l := range et.Lines {
			data.LineItems = append(data.LineItems, PDFLineItem{Group: et.Label, Description: l.Label, Amount: l.Amount})
		}
	}
	for _, fee := range totals.Fees {
		desc := fee.Label
		if fee.Percent > 0 {
			desc = fmt.Sprintf("%s (%s)", fee.Label, FormatPercent(fee.Percent))
		}
		data.LineItems = append(data.LineItems, PDFLineItem{Group: "Fees", Description: desc, Amount: fee.Amount})
	}

	data.Subtotal = totals.Subtotal
	data.MarginAmount = totals.MarginAmount
	data.InlandTotal = totals.InlandTotal
	data.GrandTotal = totals.GrandTotal

	if id := rec.GetString("inland_quote"); id != "" {
		if inland, err := app.FindRecordById(KindInland.Collection(), id); err == nil {
			data.Inland = inlandSection(app, inland)
		}
	}

	if !data.ShowMargin {
		hideMargin(data)
	}
	data.Filename = quoteFilename(data.QuoteNumber, data.Equipment)
	return data, nil
}

// BuildInlandPDFData renders an inland quote on its own.
func BuildInlandPDFData(app core.App, settings CompanySettings, rec *core.Record) (*QuotePDFData, error) {
	data := newPDFData(KindInland, settings, rec)
	data.Inland = inlandSection(app, rec)
	data.MarginPercent = rec.GetFloat("margin_percentage")
	data.MarginAmount = rec.GetFloat("margin_amount")
	data.Subtotal = rec.GetFloat("subtotal")
	data.GrandTotal = rec.GetFloat("total")
	data.LineItems = data.Inland.Lines
	data.Inland.Lines = nil

	if !data.ShowMargin {
		hideMargin(data)
	}
	data.Filename = quoteFilename(data.QuoteNumber, nil)
	return data, nil
}

func newPDFData(kind QuoteKind, settings CompanySettings, rec *core.Record) *QuotePDFData {
	d := &QuotePDFData{
		Kind:        kind,
		Company:     settings,
		QuoteNumber: rec.GetString("quote_number"),
		Version:     rec.GetInt("version"),
		Status:      QuoteStatus(rec.GetString("status")),
		Date:        formatDocDate(rec.GetDateTime("created").Time()),
		ShowMargin:  settings.ShowMargin,
		Notes:       rec.GetString("notes"),
		Terms:       rec.GetString("terms"),
		Customer: PDFCustomer{
			Name:           rec.GetString("customer_name"),
			Company:        rec.GetString("customer_company"),
			Email:          rec.GetString("customer_email"),
			Phone:          rec.GetString("customer_phone"),
			BillingAddress: rec.GetString("billing_address"),
		},
	}
	if exp := rec.GetDateTime("expires_at"); !exp.IsZero() {
		d.ValidUntil = formatDocDate(exp.Time())
	}
	if d.Terms == "" {
		d.Terms = settings.Terms
	}
	return d
}

func formatDocDate(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("January 2, 2006")
}

func inlandSection(app core.App, rec *core.Record) *PDFInland {
	place := func(prefix string) string {
		return joinNonEmpty([]string{
			rec.GetString(prefix + "_address"),
			rec.GetString(prefix + "_city"),
			joinNonEmpty([]string{rec.GetString(prefix + "_state"), rec.GetString(prefix + "_zip")}, " "),
		}, ", ")
	}

	sec := &PDFInland{
		QuoteNumber: rec.GetString("quote_number"),
		Pickup:      place("pickup"),
		Dropoff:     place("dropoff"),
		Truck:       truckLabel(TruckType(rec.GetString("truck_type"))),
		Total:       rec.GetFloat("total"),
	}
	if miles := rec.GetFloat("distance_miles"); miles > 0 {
		sec.Distance = fmt.Sprintf("%s mi", formatQty(miles))
	}
	sec.Cargo = joinNonEmpty([]string{
		rec.GetString("cargo_description"),
		fmtField("Weight", dashless(FormatWeight(rec.GetFloat("cargo_weight_lbs")))),
		fmtField("L×W×H", cargoDims(rec)),
	}, " · ")

	const group = "Inland transport"
	haul := "Line haul"
	if rec.GetFloat("flat_rate") <= 0 && rec.GetFloat("rate_per_mile") > 0 {
		haul = fmt.Sprintf("Line haul (%s mi × %s)", formatQty(rec.GetFloat("distance_miles")), FormatUSD(rec.GetFloat("rate_per_mile")))
	}
	sec.Lines = append(sec.Lines, PDFLineItem{Group: group, Description: haul, Amount: rec.GetFloat("line_haul")})
	if fuel := rec.GetFloat("fuel_surcharge"); fuel > 0 {
		sec.Lines = append(sec.Lines, PDFLineItem{Group: group,
			Description: fmt.Sprintf("Fuel surcharge (%s)", FormatPercent(rec.GetFloat("fuel_surcharge_percent"))), Amount: fuel})
	}
	var accessorials []Accessorial
	if err := rec.UnmarshalJSONField("accessorials", &accessorials); err != nil {
		app.Logger().Warn("inland accessorials unreadable, omitted from document",
			"quote", rec.GetString("quote_number"), "error", err)
	}
	for _, a := range accessorials {
		if a.Amount > 0 {
			sec.Lines = append(sec.Lines, PDFLineItem{Group: group, Description: a.Name, Amount: a.Amount})
		}
	}
	return sec
}

func cargoDims(rec *core.Record) string {
	l, w, h := rec.GetFloat("cargo_length_in"), rec.GetFloat("cargo_width_in"), rec.GetFloat("cargo_height_in")
	if l <= 0 && w <= 0 && h <= 0 {
		return ""
	}
	return fmt.Sprintf("%s × %s × %s", FormatInches(l), FormatInches(w), FormatInches(h))
}

func dashless(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

var truckLabels = map[TruckType]string{
	TruckFlatbed:         "Flatbed",
	TruckStepDeck:        "Step deck",
	TruckRGN:             "RGN",
	TruckLowboy:          "Lowboy",
	TruckMultiAxleLowboy: "Multi-axle lowboy",
}

func truckLabel(t TruckType) string {
	if s, ok := truckLabels[t]; ok {
		return s
	}
	return string(t)
}

// hideMargin spreads the margin over the line items. The last line absorbs
// rounding so the items still add up to the displayed subtotal.
func hideMargin(d *QuotePDFData) {
	target := decimal.NewFromFloat(d.Subtotal).Add(decimal.NewFromFloat(d.MarginAmount))
	sum := decimal.Zero
	for i := range d.LineItems {
		d.LineItems[i].Amount = ApplyMarkup(d.LineItems[i].Amount, d.MarginPercent)
		sum = sum.Add(decimal.NewFromFloat(d.LineItems[i].Amount))
	}
	if n := len(d.LineItems); n > 0 {
		diff := target.Sub(sum)
		last := decimal.NewFromFloat(d.LineItems[n-1].Amount).Add(diff)
		d.LineItems[n-1].Amount = roundCents(last)
	}
	d.Subtotal = roundCents(target)
	d.MarginAmount = 0
	d.MarginPercent = 0
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// quoteFilename is Quote_<number>_<make>_<model>.pdf for a single unit and
// quote-<number>.pdf otherwise.
func quoteFilename(number string, equipment []PDFEquipment) string {
	clean := func(s string) string {
		return strings.Trim(unsafeFilename.ReplaceAllString(strings.TrimSpace(s), "-"), "-")
	}
	if len(equipment) == 1 && equipment[0].Label != "" {
		return fmt.Sprintf("Quote_%s_%s.pdf", clean(number), strings.ReplaceAll(clean(equipment[0].Label), "-", "_"))
	}
	return fmt.Sprintf("quote-%s.pdf", clean(number))
}
