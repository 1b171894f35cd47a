package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"
)

//go:generate templ generate

const defaultBrand = "#1E3A8A"

// previewRow is one line of the preview table. Heading is set on the first
// row of a new group.
type previewRow struct {
	Heading     string
	Description string
	Amount      string
}

type previewTotal struct {
	Label  string
	Amount string
}

type previewSection struct {
	Title      string
	Paragraphs []string
}

// brandCSS sets one CSS property to the company colour. The colour is
// checked against hexColor, so it is safe to emit as-is.
func brandCSS(property string, data *QuotePDFData) templ.SafeCSS {
	brand := data.Company.PrimaryColor
	if !hexColor.MatchString(brand) {
		brand = defaultBrand
	}
	return templ.SafeCSS(property + ":" + brand + ";")
}

// logoSrc turns raw base64 into a data URL usable in an img tag.
func logoSrc(s string) string {
	if strings.HasPrefix(s, "data:") {
		return s
	}
	return "data:image/png;base64," + s
}

func companyLine(c CompanySettings) string {
	return joinNonEmpty([]string{c.Address, c.Phone, c.Email, c.Website}, " | ")
}

func quoteRef(data *QuotePDFData) string {
	if data.Version > 1 {
		return fmt.Sprintf("%s (v%d)", data.QuoteNumber, data.Version)
	}
	return data.QuoteNumber
}

func quoteDates(data *QuotePDFData) string {
	s := "Date: " + data.Date
	if data.ValidUntil != "" {
		s += " · Valid until: " + data.ValidUntil
	}
	return s
}

func customerLines(c PDFCustomer) []string {
	var out []string
	for _, l := range []string{c.Name, c.Company, c.BillingAddress, joinNonEmpty([]string{c.Email, c.Phone}, " | ")} {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func equipmentTags(eq PDFEquipment) string {
	return joinNonEmpty([]string{eq.Type, eq.Location}, " · ")
}

func dimensionLine(d *Dimensions) string {
	return joinNonEmpty([]string{
		fmtField("Length", dashless(FormatInches(d.LengthIn))),
		fmtField("Width", dashless(FormatInches(d.WidthIn))),
		fmtField("Height", dashless(FormatInches(d.HeightIn))),
		fmtField("Weight", dashless(FormatWeight(d.WeightLbs))),
	}, " · ")
}

// silhouettes returns the front and side images that are present, as data URLs.
func silhouettes(d *Dimensions) []string {
	var out []string
	for _, img := range []string{d.FrontImage, d.SideImage} {
		if img != "" {
			out = append(out, logoSrc(img))
		}
	}
	return out
}

// previewRows groups line items under their equipment label. Headings are
// only shown when there is more than one group to tell apart.
func previewRows(data *QuotePDFData) []previewRow {
	rows := make([]previewRow, 0, len(data.LineItems))
	group := ""
	for _, li := range data.LineItems {
		row := previewRow{Description: li.Description, Amount: FormatUSD(li.Amount)}
		if li.Group != group && (len(data.Equipment) > 1 || li.Group == "Fees" || data.Kind == KindInland) {
			group = li.Group
			row.Heading = group
		}
		rows = append(rows, row)
	}
	return rows
}

func previewTotals(data *QuotePDFData) []previewTotal {
	totals := []previewTotal{{"Subtotal", FormatUSD(data.Subtotal)}}
	if data.ShowMargin && data.MarginAmount != 0 {
		totals = append(totals, previewTotal{fmt.Sprintf("Margin (%s)", FormatPercent(data.MarginPercent)), FormatUSD(data.MarginAmount)})
	}
	if data.InlandTotal > 0 {
		totals = append(totals, previewTotal{"Inland transport", FormatUSD(data.InlandTotal)})
	}
	return totals
}

func inlandLines(in *PDFInland) []string {
	var out []string
	for _, l := range []string{
		fmtField("Pickup", in.Pickup), fmtField("Delivery", in.Dropoff),
		fmtField("Distance", in.Distance), fmtField("Trailer", in.Truck), fmtField("Cargo", in.Cargo),
	} {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func documentSections(data *QuotePDFData) []previewSection {
	var out []previewSection
	for _, sec := range []struct{ title, body string }{{"Notes", data.Notes}, {"Terms & Conditions", data.Terms}} {
		var paras []string
		for _, para := range strings.Split(sec.body, "\n") {
			if para = strings.TrimSpace(para); para != "" {
				paras = append(paras, para)
			}
		}
		if len(paras) > 0 {
			out = append(out, previewSection{Title: sec.title, Paragraphs: paras})
		}
	}
	return out
}

// RenderQuoteHTML renders the preview to a string.
func RenderQuoteHTML(ctx context.Context, data *QuotePDFData) (string, error) {
	var buf bytes.Buffer
	if err := QuotePreview(data).Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("render quote preview: %w", err)
	}
	return buf.String(), nil
}
