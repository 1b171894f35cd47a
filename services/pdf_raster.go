package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	mimage "github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// A4 at 150 dpi.
const (
	rasterPageW  = 1240
	rasterPageH  = 1754
	rasterMargin = 80
	rasterDPI    = 150
)

// RasterRenderer paints the styled document onto page images and wraps
// each image in a PDF page. It mirrors the HTML preview layout.
type RasterRenderer struct{}

func (RasterRenderer) Name() string { return "raster" }

func (RasterRenderer) Render(data *QuotePDFData) ([]byte, error) {
	faces, err := loadRasterFaces()
	if err != nil {
		return nil, err
	}
	c := newCanvas(faces, rasterBrand(data.Company.PrimaryColor))
	paintQuote(c, data)

	pages, err := c.encodePages()
	if err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		Build()
	m := maroto.New(cfg)
	for _, png := range pages {
		m.AddPages(page.New().Add(
			row.New(260).Add(col.New(12).Add(
				mimage.NewFromBytes(png, extension.Png, props.Rect{Center: true, Percent: 100}),
			)),
		))
	}
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate raster PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

type rasterFaces struct {
	title, heading, body, small, bold font.Face
}

func loadRasterFaces() (*rasterFaces, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	boldFont, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	face := func(f *opentype.Font, size float64) (font.Face, error) {
		return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: rasterDPI, Hinting: font.HintingFull})
	}

	var out rasterFaces
	for _, spec := range []struct {
		dst  *font.Face
		f    *opentype.Font
		size float64
	}{
		{&out.title, boldFont, 16},
		{&out.heading, boldFont, 10},
		{&out.body, regular, 9},
		{&out.small, regular, 7.5},
		{&out.bold, boldFont, 9},
	} {
		fc, err := face(spec.f, spec.size)
		if err != nil {
			return nil, fmt.Errorf("load font face: %w", err)
		}
		*spec.dst = fc
	}
	return &out, nil
}

func rasterBrand(hex string) color.RGBA {
	c := brandColor(hex)
	return color.RGBA{R: uint8(c.Red), G: uint8(c.Green), B: uint8(c.Blue), A: 255}
}

var (
	inkBlack = color.RGBA{R: 17, G: 24, B: 39, A: 255}
	inkGray  = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	fillGray = color.RGBA{R: 243, G: 244, B: 246, A: 255}
	inkWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// canvas is a top-to-bottom page painter. y is the baseline cursor of the
// current page.
type canvas struct {
	faces *rasterFaces
	brand color.RGBA
	pages []*image.RGBA
	page  *image.RGBA
	y     int
}

func newCanvas(faces *rasterFaces, brand color.RGBA) *canvas {
	c := &canvas{faces: faces, brand: brand}
	c.newPage()
	return c
}

func (c *canvas) newPage() {
	c.page = image.NewRGBA(image.Rect(0, 0, rasterPageW, rasterPageH))
	draw.Draw(c.page, c.page.Bounds(), image.NewUniform(inkWhite), image.Point{}, draw.Src)
	c.pages = append(c.pages, c.page)
	c.y = rasterMargin
}

// ensure starts a new page when h more pixels would overflow this one.
func (c *canvas) ensure(h int) {
	if c.y+h > rasterPageH-rasterMargin {
		c.newPage()
	}
}

func lineHeight(f font.Face) int {
	m := f.Metrics()
	return (m.Ascent + m.Descent).Ceil() + 6
}

func textWidth(f font.Face, s string) int {
	return font.MeasureString(f, s).Ceil()
}

func (c *canvas) text(f font.Face, ink color.Color, x int, s string) {
	d := font.Drawer{
		Dst:  c.page,
		Src:  image.NewUniform(ink),
		Face: f,
		Dot:  fixed.P(x, c.y+f.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

func (c *canvas) textRight(f font.Face, ink color.Color, right int, s string) {
	c.text(f, ink, right-textWidth(f, s), s)
}

func (c *canvas) fill(r image.Rectangle, ink color.Color) {
	draw.Draw(c.page, r, image.NewUniform(ink), image.Point{}, draw.Over)
}

// line writes one line of text and advances the cursor.
func (c *canvas) line(f font.Face, ink color.Color, s string) {
	h := lineHeight(f)
	c.ensure(h)
	c.text(f, ink, rasterMargin, s)
	c.y += h
}

// paragraph word-wraps s to the content width.
func (c *canvas) paragraph(f font.Face, ink color.Color, s string) {
	maxW := rasterPageW - 2*rasterMargin
	for _, para := range strings.Split(s, "\n") {
		var cur string
		for _, w := range strings.Fields(para) {
			next := strings.TrimSpace(cur + " " + w)
			if cur != "" && textWidth(f, next) > maxW {
				c.line(f, ink, cur)
				cur = w
				continue
			}
			cur = next
		}
		if cur != "" {
			c.line(f, ink, cur)
		}
	}
}

func (c *canvas) gap(h int) { c.y += h }

// amountRow draws a label on the left and an amount on the right, with an
// optional band behind it.
func (c *canvas) amountRow(f font.Face, ink color.Color, band *color.RGBA, label, amount string) {
	h := lineHeight(f) + 8
	c.ensure(h)
	if band != nil {
		c.fill(image.Rect(rasterMargin, c.y, rasterPageW-rasterMargin, c.y+h), *band)
	}
	c.y += 4
	c.text(f, ink, rasterMargin+12, label)
	c.textRight(f, ink, rasterPageW-rasterMargin-12, amount)
	c.y += h - 4
}

// image pastes img scaled into a box of the given height at x.
func (c *canvas) image(img image.Image, x, w, h int) {
	fitted := imaging.Fit(img, w, h, imaging.Lanczos)
	b := fitted.Bounds()
	dst := image.Rect(x, c.y, x+b.Dx(), c.y+b.Dy())
	draw.Draw(c.page, dst, fitted, b.Min, draw.Over)
}

func (c *canvas) encodePages() ([][]byte, error) {
	out := make([][]byte, 0, len(c.pages))
	for i, p := range c.pages {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, p, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		out = append(out, buf.Bytes())
	}
	return out, nil
}

func paintQuote(c *canvas, data *QuotePDFData) {
	f := c.faces
	right := rasterPageW - rasterMargin

	// ── Header ───────────────────────────────────────────────────────────

	headerH := lineHeight(f.title)
	if logo, err := decodeImage(data.Company.Logo); err == nil {
		c.image(logo, rasterMargin, 360, 140)
		headerH = 140
	} else {
		c.text(f.title, inkBlack, rasterMargin, data.Company.CompanyName)
	}
	c.textRight(f.title, c.brand, right, documentTitle(data))
	c.y += headerH + 10

	meta := "Quote #: " + data.QuoteNumber
	if data.Version > 1 {
		meta += fmt.Sprintf(" (v%d)", data.Version)
	}
	c.text(f.small, inkGray, rasterMargin,
		joinNonEmpty([]string{data.Company.Address, data.Company.Phone, data.Company.Email, data.Company.Website}, " | "))
	c.textRight(f.bold, inkBlack, right, meta)
	c.y += lineHeight(f.bold)
	dates := "Date: " + data.Date
	if data.ValidUntil != "" {
		dates += "   Valid until: " + data.ValidUntil
	}
	c.textRight(f.small, inkGray, right, dates)
	c.y += lineHeight(f.small)
	c.fill(image.Rect(rasterMargin, c.y, right, c.y+4), c.brand)
	c.gap(24)

	// ── Bill to ──────────────────────────────────────────────────────────

	c.line(f.small, inkGray, "BILL TO")
	for _, l := range []string{
		data.Customer.Name,
		data.Customer.Company,
		data.Customer.BillingAddress,
		joinNonEmpty([]string{data.Customer.Email, data.Customer.Phone}, " | "),
	} {
		if strings.TrimSpace(l) != "" {
			c.line(f.body, inkBlack, l)
		}
	}
	c.gap(16)

	// ── Equipment ────────────────────────────────────────────────────────

	for _, eq := range data.Equipment {
		band := fillGray
		c.amountRow(f.heading, inkBlack, &band, eq.Label, joinNonEmpty([]string{eq.Type, eq.Location}, " · "))
		if d := eq.Dimensions; d != nil {
			specs := joinNonEmpty([]string{
				fmtField("Length", dashless(FormatInches(d.LengthIn))),
				fmtField("Width", dashless(FormatInches(d.WidthIn))),
				fmtField("Height", dashless(FormatInches(d.HeightIn))),
				fmtField("Weight", dashless(FormatWeight(d.WeightLbs))),
			}, "   ")
			if specs != "" {
				c.line(f.body, inkBlack, specs)
			}
			var imgs []image.Image
			for _, src := range []string{d.FrontImage, d.SideImage} {
				if img, err := decodeImage(src); err == nil {
					imgs = append(imgs, img)
				}
			}
			if len(imgs) > 0 {
				const boxH = 300
				c.ensure(boxH)
				boxW := (right - rasterMargin - 20) / 2
				for i, img := range imgs {
					c.image(img, rasterMargin+i*(boxW+20), boxW, boxH)
				}
				c.gap(boxH)
			}
		}
		c.gap(10)
	}

	// ── Line items ───────────────────────────────────────────────────────

	c.amountRow(f.bold, inkWhite, &c.brand, "Description", "Amount")
	group := ""
	for i, li := range data.LineItems {
		if li.Group != group && (len(data.Equipment) > 1 || li.Group == "Fees" || data.Kind == KindInland) {
			group = li.Group
			c.amountRow(f.bold, inkGray, nil, group, "")
		}
		var band *color.RGBA
		if i%2 == 1 {
			b := fillGray
			band = &b
		}
		c.amountRow(f.body, inkBlack, band, li.Description, FormatUSD(li.Amount))
	}
	c.gap(10)

	// ── Totals ───────────────────────────────────────────────────────────

	c.amountRow(f.bold, inkBlack, nil, "Subtotal", FormatUSD(data.Subtotal))
	if data.ShowMargin && data.MarginAmount != 0 {
		c.amountRow(f.bold, inkBlack, nil, fmt.Sprintf("Margin (%s)", FormatPercent(data.MarginPercent)), FormatUSD(data.MarginAmount))
	}
	if data.InlandTotal > 0 {
		c.amountRow(f.bold, inkBlack, nil, "Inland transport", FormatUSD(data.InlandTotal))
	}
	c.amountRow(f.heading, inkWhite, &c.brand, "TOTAL", FormatUSD(data.GrandTotal))

	if in := data.Inland; in != nil {
		c.gap(20)
		c.line(f.heading, inkBlack, "Inland transport")
		for _, l := range []string{
			fmtField("Pickup", in.Pickup),
			fmtField("Delivery", in.Dropoff),
			joinNonEmpty([]string{fmtField("Distance", in.Distance), fmtField("Trailer", in.Truck)}, "   "),
			fmtField("Cargo", in.Cargo),
		} {
			if l != "" {
				c.line(f.body, inkBlack, l)
			}
		}
	}

	for _, sec := range []struct{ title, body string }{{"Notes", data.Notes}, {"Terms & Conditions", data.Terms}} {
		if strings.TrimSpace(sec.body) == "" {
			continue
		}
		c.gap(20)
		c.line(f.bold, inkBlack, sec.title)
		c.paragraph(f.small, inkGray, sec.body)
	}
}
