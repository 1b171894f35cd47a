package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	mimage "github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// VectorRenderer draws the quote with maroto text and table rows.
type VectorRenderer struct{}

func (VectorRenderer) Name() string { return "vector" }

func (VectorRenderer) Render(data *QuotePDFData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)
	brand := brandColor(data.Company.PrimaryColor)

	addQuoteHeader(m, data, brand)
	addQuoteParties(m, data)
	addQuoteEquipment(m, data)
	addQuoteLineItems(m, data, brand)
	addQuoteTotals(m, data, brand)
	addQuoteInland(m, data)
	addQuoteNotes(m, "Notes", data.Notes)
	addQuoteNotes(m, "Terms & Conditions", data.Terms)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate quote PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

var (
	grayText  = &props.Color{Red: 100, Green: 100, Blue: 100}
	lightFill = &props.Color{Red: 243, Green: 244, Blue: 246}
	white     = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// brandColor parses #RRGGBB, falling back to navy.
func brandColor(hex string) *props.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 6 {
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return &props.Color{Red: int(v >> 16 & 0xFF), Green: int(v >> 8 & 0xFF), Blue: int(v & 0xFF)}
		}
	}
	return &props.Color{Red: 30, Green: 58, Blue: 138}
}

func documentTitle(data *QuotePDFData) string {
	if data.Kind == KindInland {
		return "INLAND TRANSPORT QUOTE"
	}
	return "QUOTATION"
}

// addQuoteHeader adds the logo, company block, title and quote metadata.
func addQuoteHeader(m core.Maroto, data *QuotePDFData, brand *props.Color) {
	if logo, err := pngBytes(data.Company.Logo, 600, 240); err == nil {
		m.AddRows(row.New(18).Add(
			col.New(3).Add(mimage.NewFromBytes(logo, extension.Png, props.Rect{Percent: 90})),
			col.New(4),
			col.New(5).Add(text.New(documentTitle(data), props.Text{
				Size: 16, Style: fontstyle.Bold, Align: align.Right, Color: brand,
			})),
		))
	} else {
		m.AddRows(row.New(12).Add(
			col.New(7).Add(text.New(data.Company.CompanyName, props.Text{Size: 15, Style: fontstyle.Bold})),
			col.New(5).Add(text.New(documentTitle(data), props.Text{
				Size: 16, Style: fontstyle.Bold, Align: align.Right, Color: brand,
			})),
		))
	}

	contact := joinNonEmpty([]string{data.Company.Address, data.Company.Phone, data.Company.Email, data.Company.Website}, " | ")
	meta := fmt.Sprintf("Quote #: %s", data.QuoteNumber)
	if data.Version > 1 {
		meta += fmt.Sprintf(" (v%d)", data.Version)
	}
	m.AddRows(row.New(6).Add(
		col.New(7).Add(text.New(contact, props.Text{Size: 8, Color: grayText})),
		col.New(5).Add(text.New(meta, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right})),
	))

	dates := "Date: " + data.Date
	if data.ValidUntil != "" {
		dates += "   Valid until: " + data.ValidUntil
	}
	m.AddRows(row.New(6).Add(
		col.New(12).Add(text.New(dates, props.Text{Size: 8, Align: align.Right, Color: grayText})),
	))
	m.AddRows(row.New(4))
}

// addQuoteParties adds the bill-to block.
func addQuoteParties(m core.Maroto, data *QuotePDFData) {
	label := props.Text{Size: 7, Style: fontstyle.Bold, Color: grayText}
	value := props.Text{Size: 9}

	m.AddRows(row.New(5).Add(col.New(12).Add(text.New("BILL TO", label))))
	lines := []string{
		data.Customer.Name,
		data.Customer.Company,
		data.Customer.BillingAddress,
		joinNonEmpty([]string{data.Customer.Email, data.Customer.Phone}, " | "),
	}
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		m.AddRows(row.New(5).Add(col.New(12).Add(text.New(l, value))))
	}
	m.AddRows(row.New(4))
}

// addQuoteEquipment adds one block per unit with specs and silhouettes.
func addQuoteEquipment(m core.Maroto, data *QuotePDFData) {
	for _, eq := range data.Equipment {
		m.AddRows(row.New(7).Add(
			col.New(8).Add(text.New(eq.Label, props.Text{Size: 10, Style: fontstyle.Bold})),
			col.New(4).Add(text.New(joinNonEmpty([]string{eq.Type, eq.Location}, " · "),
				props.Text{Size: 8, Align: align.Right, Color: grayText})),
		).WithStyle(&props.Cell{BackgroundColor: lightFill}))

		if eq.Dimensions == nil {
			continue
		}
		d := eq.Dimensions
		specs := joinNonEmpty([]string{
			fmtField("Length", dashless(FormatInches(d.LengthIn))),
			fmtField("Width", dashless(FormatInches(d.WidthIn))),
			fmtField("Height", dashless(FormatInches(d.HeightIn))),
			fmtField("Weight", dashless(FormatWeight(d.WeightLbs))),
		}, "   ")
		if specs != "" {
			m.AddRows(row.New(6).Add(col.New(12).Add(text.New(specs, props.Text{Size: 8}))))
		}

		var imgs []core.Col
		for _, src := range []string{d.FrontImage, d.SideImage} {
			if b, err := pngBytes(src, 800, 500); err == nil {
				imgs = append(imgs, mimage.NewFromBytesCol(6, b, extension.Png, props.Rect{Center: true, Percent: 90}))
			}
		}
		if len(imgs) > 0 {
			m.AddRows(row.New(40).Add(imgs...))
		}
		m.AddRows(row.New(2))
	}
}

// addQuoteLineItems adds the priced rows, grouped by equipment.
func addQuoteLineItems(m core.Maroto, data *QuotePDFData, brand *props.Color) {
	head := props.Text{Size: 8, Style: fontstyle.Bold, Color: white}
	headRight := head
	headRight.Align = align.Right
	headCell := &props.Cell{BackgroundColor: brand}

	m.AddRows(row.New(4))
	m.AddRows(row.New(7).Add(
		col.New(9).Add(text.New("Description", head)).WithStyle(headCell),
		col.New(3).Add(text.New("Amount", headRight)).WithStyle(headCell),
	))

	group := ""
	for i, li := range data.LineItems {
		if li.Group != group && (len(data.Equipment) > 1 || li.Group == "Fees" || data.Kind == KindInland) {
			group = li.Group
			m.AddRows(row.New(6).Add(
				col.New(12).Add(text.New(group, props.Text{Size: 8, Style: fontstyle.Bold, Color: grayText})),
			))
		}
		var style *props.Cell
		if i%2 == 1 {
			style = &props.Cell{BackgroundColor: lightFill}
		}
		desc := col.New(9).Add(text.New(li.Description, props.Text{Size: 8, Left: 2}))
		amt := col.New(3).Add(text.New(FormatUSD(li.Amount), props.Text{Size: 8, Align: align.Right}))
		if style != nil {
			desc, amt = desc.WithStyle(style), amt.WithStyle(style)
		}
		m.AddRows(row.New(6).Add(desc, amt))
	}
}

// addQuoteTotals adds subtotal, margin, inland and grand total rows.
func addQuoteTotals(m core.Maroto, data *QuotePDFData, brand *props.Color) {
	label := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	value := props.Text{Size: 9, Align: align.Right}
	line := func(l, v string) {
		m.AddRows(row.New(6).Add(
			col.New(9).Add(text.New(l, label)),
			col.New(3).Add(text.New(v, value)),
		))
	}

	m.AddRows(row.New(3))
	line("Subtotal", FormatUSD(data.Subtotal))
	if data.ShowMargin && data.MarginAmount != 0 {
		line(fmt.Sprintf("Margin (%s)", FormatPercent(data.MarginPercent)), FormatUSD(data.MarginAmount))
	}
	if data.InlandTotal > 0 {
		line("Inland transport", FormatUSD(data.InlandTotal))
	}

	totalText := props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right, Color: white}
	cell := &props.Cell{BackgroundColor: brand}
	m.AddRows(row.New(8).Add(
		col.New(9).Add(text.New("TOTAL", totalText)).WithStyle(cell),
		col.New(3).Add(text.New(FormatUSD(data.GrandTotal), totalText)).WithStyle(cell),
	))
}

// addQuoteInland adds the route summary of the trucking leg.
func addQuoteInland(m core.Maroto, data *QuotePDFData) {
	in := data.Inland
	if in == nil {
		return
	}
	m.AddRows(row.New(6))
	m.AddRows(row.New(6).Add(col.New(12).Add(text.New("Inland transport", props.Text{Size: 10, Style: fontstyle.Bold}))))
	for _, l := range []string{
		fmtField("Pickup", in.Pickup),
		fmtField("Delivery", in.Dropoff),
		joinNonEmpty([]string{fmtField("Distance", in.Distance), fmtField("Trailer", in.Truck)}, "   "),
		fmtField("Cargo", in.Cargo),
	} {
		if l == "" {
			continue
		}
		m.AddRows(row.New(5).Add(col.New(12).Add(text.New(l, props.Text{Size: 8}))))
	}
	if data.Kind == KindDismantle {
		for _, li := range in.Lines {
			m.AddRows(row.New(5).Add(
				col.New(9).Add(text.New(li.Description, props.Text{Size: 8, Left: 2, Color: grayText})),
				col.New(3).Add(text.New(FormatUSD(li.Amount), props.Text{Size: 8, Align: align.Right, Color: grayText})),
			))
		}
	}
}

// addQuoteNotes adds a titled free-text section when body is set.
func addQuoteNotes(m core.Maroto, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	m.AddRows(row.New(6))
	m.AddRows(row.New(6).Add(col.New(12).Add(text.New(title, props.Text{Size: 9, Style: fontstyle.Bold}))))
	for _, para := range strings.Split(body, "\n") {
		if para = strings.TrimSpace(para); para == "" {
			continue
		}
		m.AddAutoRow(col.New(12).Add(text.New(para, props.Text{Size: 8, Color: grayText})))
	}
}
