package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"equipquote/config"
	"equipquote/testhelpers"
)

func testPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: 30, G: 58, B: 138, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func sampleDocument(t *testing.T) *QuotePDFData {
	return &QuotePDFData{
		Kind:        KindDismantle,
		Company:     CompanySettings{CompanyName: "Heavy Haul Brokers", PrimaryColor: "#0F766E", Logo: testPNG(t)},
		QuoteNumber: "QT-260701-001",
		Version:     2,
		Date:        "July 1, 2026",
		ValidUntil:  "July 31, 2026",
		Customer:    PDFCustomer{Name: "Ana <Buyer>", Company: "Buyer & Co", Email: "ana@example.com"},
		Equipment: []PDFEquipment{{
			Label: "Caterpillar 320", Location: "Houston", Type: "Excavator",
			Dimensions: &Dimensions{LengthIn: 372, WeightLbs: 48500, SideImage: testPNG(t)},
		}},
		LineItems: []PDFLineItem{
			{Group: "Caterpillar 320", Description: "Loading", Amount: 100},
			{Group: "Caterpillar 320", Description: "Tolls", Amount: 50},
		},
		Subtotal: 150, ShowMargin: true, MarginPercent: 10, MarginAmount: 15, GrandTotal: 165,
		Notes: "Crated tracks ship separately.",
		Terms: "Net 30.\nPrices valid for 30 days.",
	}
}

func TestRenderers_ProducePDF(t *testing.T) {
	for _, r := range []Renderer{VectorRenderer{}, RasterRenderer{}} {
		t.Run(r.Name(), func(t *testing.T) {
			pdf, err := r.Render(sampleDocument(t))
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
				t.Errorf("output does not start with %%PDF-")
			}
		})
	}
}

type stubRenderer struct {
	name string
	err  error
	hits int
}

func (s *stubRenderer) Name() string { return s.name }

func (s *stubRenderer) Render(*QuotePDFData) ([]byte, error) {
	s.hits++
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-" + s.name), nil
}

func TestRenderChain_FallsBack(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	broken := &stubRenderer{name: "broken", err: errors.New("font missing")}
	good := &stubRenderer{name: "good"}
	unused := &stubRenderer{name: "unused"}

	pdf, used, err := NewRenderChainOf(app, broken, good, unused).Render(sampleDocument(t))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if used != "good" || string(pdf) != "%PDF-good" {
		t.Errorf("used %q, pdf %q", used, pdf)
	}
	if broken.hits != 1 || unused.hits != 0 {
		t.Errorf("hits broken=%d unused=%d", broken.hits, unused.hits)
	}

	_, _, err = NewRenderChainOf(app, broken, &stubRenderer{name: "also", err: errors.New("disk full")}).Render(sampleDocument(t))
	if err == nil || !strings.Contains(err.Error(), "font missing") || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("all-failed error = %v, want both causes", err)
	}
}

func TestNewRenderChain_Order(t *testing.T) {
	tests := []struct {
		preferred string
		first     string
	}{
		{"vector", "vector"},
		{"VECTOR", "vector"},
		{"raster", "raster"},
		{"", "raster"},
		{"bogus", "raster"},
	}
	for _, tt := range tests {
		c := NewRenderChain(nil, tt.preferred)
		if got := c.renderers[0].Name(); got != tt.first {
			t.Errorf("NewRenderChain(%q) first = %q, want %q", tt.preferred, got, tt.first)
		}
		if len(c.renderers) != 2 {
			t.Errorf("chain length = %d, want 2", len(c.renderers))
		}
	}
}

func TestHideMargin(t *testing.T) {
	d := &QuotePDFData{
		LineItems: []PDFLineItem{
			{Description: "a", Amount: 33.33},
			{Description: "b", Amount: 33.33},
			{Description: "c", Amount: 33.34},
		},
		Subtotal: 100, MarginPercent: 12.5, MarginAmount: 12.5, GrandTotal: 112.5,
	}
	hideMargin(d)

	sum := decimal.Zero
	for _, li := range d.LineItems {
		sum = sum.Add(decimal.NewFromFloat(li.Amount))
	}
	if !sum.Equal(decimal.NewFromFloat(112.5)) {
		t.Errorf("line items sum to %s, want 112.5", sum)
	}
	if d.Subtotal != 112.5 || d.MarginAmount != 0 || d.GrandTotal != 112.5 {
		t.Errorf("subtotal=%v margin=%v grand=%v", d.Subtotal, d.MarginAmount, d.GrandTotal)
	}
}

func TestQuoteFilename(t *testing.T) {
	tests := []struct {
		name      string
		number    string
		equipment []PDFEquipment
		want      string
	}{
		{"single unit", "QT-260701-001", []PDFEquipment{{Label: "Caterpillar 320"}}, "Quote_QT-260701-001_Caterpillar_320.pdf"},
		{"slash in model", "QT-1", []PDFEquipment{{Label: "John Deere 310SL/HL"}}, "Quote_QT-1_John_Deere_310SL_HL.pdf"},
		{"multiple units", "QT-2", []PDFEquipment{{Label: "A"}, {Label: "B"}}, "quote-QT-2.pdf"},
		{"inland", "IT-260701-003", nil, "quote-IT-260701-003.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quoteFilename(tt.number, tt.equipment); got != tt.want {
				t.Errorf("quoteFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildQuotePDFData(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	cfg := config.Default()
	svc := NewQuoteService(app, cfg)
	inland := testhelpers.CreateTestInlandQuote(t, app, "IT-260701-001", 800)

	rec, err := svc.Create(QuoteRequest{
		CustomerName:     "Ridge Mining",
		Equipment:        EquipmentBlock{MakeName: "Caterpillar", ModelName: "D6", Location: "chicago", CostData: map[string]float64{"loading": 1000, "survey": 200}},
		MiscFees:         []MiscFee{{Label: "Permit", Amount: 100}},
		MarginPercentage: ptr(10.0),
		InlandQuoteID:    inland.Id,
	}, "")
	if err != nil {
		t.Fatal(err)
	}

	shown := CompanySettings{CompanyName: "Brokers", ShowMargin: true, Terms: "Default terms"}
	data, err := BuildQuotePDFData(app, shown, rec)
	if err != nil {
		t.Fatalf("BuildQuotePDFData() error = %v", err)
	}
	if data.Subtotal != 1300 || data.MarginAmount != 130 || data.InlandTotal != 800 || data.GrandTotal != 2230 {
		t.Errorf("totals = %v/%v/%v/%v", data.Subtotal, data.MarginAmount, data.InlandTotal, data.GrandTotal)
	}
	if len(data.LineItems) != 3 || data.LineItems[2].Group != "Fees" {
		t.Errorf("line items = %+v", data.LineItems)
	}
	if data.Inland == nil || data.Inland.QuoteNumber != "IT-260701-001" {
		t.Errorf("inland section = %+v", data.Inland)
	}
	if data.Terms != "Default terms" || data.Filename != "Quote_"+rec.GetString("quote_number")+"_Caterpillar_D6.pdf" {
		t.Errorf("terms=%q filename=%q", data.Terms, data.Filename)
	}
	if data.Equipment[0].Location != "Chicago" || data.Equipment[0].Type != "Bulldozer" {
		t.Errorf("equipment = %+v", data.Equipment[0])
	}

	hidden, err := BuildQuotePDFData(app, CompanySettings{}, rec)
	if err != nil {
		t.Fatal(err)
	}
	if hidden.Subtotal != 1430 || hidden.MarginAmount != 0 || hidden.GrandTotal != 2230 {
		t.Errorf("hidden margin totals = %v/%v/%v", hidden.Subtotal, hidden.MarginAmount, hidden.GrandTotal)
	}
}

func TestBuildInlandPDFData_Accessorials(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	settings := CompanySettings{CompanyName: "Acme Dismantling"}

	tests := []struct {
		name   string
		number string
		set    func(rec *core.Record)
		lines  []string
	}{
		{"listed", "IT-260701-011", func(rec *core.Record) {
			rec.Set("accessorials", []Accessorial{{Name: "Escort", Amount: 150}, {Name: "Tarp", Amount: 0}})
		}, []string{"Line haul", "Escort"}},
		{"unreadable is omitted", "IT-260701-012", func(rec *core.Record) {
			rec.SetRaw("accessorials", "{")
		}, []string{"Line haul"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testhelpers.CreateTestInlandQuote(t, app, tt.number, 400)
			tt.set(rec)

			data, err := BuildInlandPDFData(app, settings, rec)
			if err != nil {
				t.Fatalf("BuildInlandPDFData() error = %v", err)
			}
			var got []string
			for _, li := range data.LineItems {
				got = append(got, li.Description)
			}
			if strings.Join(got, "|") != strings.Join(tt.lines, "|") {
				t.Errorf("lines = %v, want %v", got, tt.lines)
			}
		})
	}
}

func TestDocuments_PDF(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	q := testhelpers.CreateTestQuote(t, app, "QT-260701-002", 500, 10)
	docs := NewDocuments(app, config.Default())

	pdf, filename, err := docs.PDF(KindDismantle, q.Id)
	if err != nil {
		t.Fatalf("PDF() error = %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) || filename != "Quote_QT-260701-002_Caterpillar_320.pdf" {
		t.Errorf("filename = %q, magic ok = %v", filename, bytes.HasPrefix(pdf, []byte("%PDF-")))
	}

	if _, _, err := docs.PDF(KindInland, "missing"); !errors.Is(err, ErrQuoteNotFound) {
		t.Errorf("PDF(missing) error = %v, want ErrQuoteNotFound", err)
	}
}

func TestQuotePreview(t *testing.T) {
	html, err := RenderQuoteHTML(context.Background(), sampleDocument(t))
	if err != nil {
		t.Fatalf("RenderQuoteHTML() error = %v", err)
	}
	testhelpers.AssertHTMLContains(t, html,
		"QT-260701-001 (v2)",
		"Ana &lt;Buyer&gt;",
		"Buyer &amp; Co",
		"Margin (10%)",
		"$165.00",
		"#0F766E",
		"Prices valid for 30 days.",
	)
	if strings.Contains(html, "<Buyer>") {
		t.Error("customer name was not escaped")
	}
}
