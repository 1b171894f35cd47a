package services

import (
	"errors"
	"math"
	"strings"
	"testing"

	"equipquote/config"
	"equipquote/testhelpers"
)

func ptr[T any](v T) *T { return &v }

func TestQuoteService_CreateComputesTotals(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	user := testhelpers.CreateTestUser(t, app, "sales@example.com")
	svc := NewQuoteService(app, config.Default())

	rec, err := svc.Create(QuoteRequest{
		CustomerName: "Acme Demolition",
		Equipment: EquipmentBlock{
			MakeName:  "Caterpillar",
			ModelName: "320",
			Location:  "new_jersey",
			CostData:  map[string]float64{"loading": 100, "tolls": 50},
		},
		MarginPercentage: ptr(10.0),
	}, user.Id)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if got := rec.GetFloat("subtotal"); got != 150 {
		t.Errorf("subtotal = %v, want 150", got)
	}
	if got := rec.GetFloat("margin_amount"); got != 15 {
		t.Errorf("margin_amount = %v, want 15", got)
	}
	if got := rec.GetFloat("total"); got != 165 {
		t.Errorf("total = %v, want 165", got)
	}
	if rec.GetInt("version") != 1 || rec.GetString("status") != "draft" {
		t.Errorf("version/status = %d/%s, want 1/draft", rec.GetInt("version"), rec.GetString("status"))
	}
	if rec.GetString("original_quote_id") != rec.Id {
		t.Errorf("original_quote_id = %q, want own id %q", rec.GetString("original_quote_id"), rec.Id)
	}
	if !strings.HasPrefix(rec.GetString("quote_number"), "QT-") {
		t.Errorf("quote_number = %q, want QT- prefix", rec.GetString("quote_number"))
	}
	if rec.GetString("equipment_type") != "excavator" {
		t.Errorf("equipment_type = %q, want excavator", rec.GetString("equipment_type"))
	}
	if rec.GetDateTime("expires_at").IsZero() {
		t.Error("expires_at should be set from the validity period")
	}
}

func TestQuoteService_TotalsInvariant(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	svc := NewQuoteService(app, config.Default())

	for _, margin := range []float64{0, 7.5, 12.345, 33, 100} {
		totals, err := svc.Calc(QuoteRequest{
			CustomerName: "x",
			Equipment: EquipmentBlock{CostData: map[string]float64{
				"loading": 1234.56, "survey": 99.99, "escorts": 0.01,
			}},
			MiscFees:         []MiscFee{{Label: "Permit", Amount: 45.5}, {Label: "Admin", Amount: 3, IsPercent: true}},
			MarginPercentage: ptr(margin),
		})
		if err != nil {
			t.Fatalf("Calc() error = %v", err)
		}
		if diff := math.Abs(totals.Subtotal + totals.MarginAmount - totals.Total()); diff > 0.005 {
			t.Errorf("margin %v: subtotal %v + margin %v != total %v", margin, totals.Subtotal, totals.MarginAmount, totals.Total())
		}
	}
}

func TestQuoteService_ResolvesCatalog(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	model := testhelpers.CreateTestModel(t, app, "Komatsu", "WA380")
	testhelpers.CreateTestLocationCosts(t, app, model.Id, "houston", map[string]float64{"loading": 400, "drayage": 600})
	svc := NewQuoteService(app, config.Default())

	req, err := svc.Resolve(QuoteRequest{
		CustomerName: "Gulf Salvage",
		Equipment:    EquipmentBlock{ModelID: model.Id, Location: "houston"},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if req.Equipment.MakeName != "Komatsu" || req.Equipment.ModelName != "WA380" {
		t.Errorf("names = %q %q", req.Equipment.MakeName, req.Equipment.ModelName)
	}
	if req.Equipment.EquipmentType != "wheel_loader" {
		t.Errorf("equipment_type = %q, want wheel_loader", req.Equipment.EquipmentType)
	}
	if req.Equipment.CostData["drayage"] != 600 {
		t.Errorf("cost_data = %v, want location costs", req.Equipment.CostData)
	}
	if req.MarginPercentage == nil || *req.MarginPercentage != 15 {
		t.Errorf("margin = %v, want default 15", req.MarginPercentage)
	}
}

func TestQuoteService_SaveVersionKeepsSource(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	svc := NewQuoteService(app, config.Default())

	src, err := svc.Create(QuoteRequest{
		CustomerName:     "Harbor Rigging",
		Equipment:        EquipmentBlock{MakeName: "Volvo", ModelName: "EC220", CostData: map[string]float64{"loading": 500}},
		MarginPercentage: ptr(20.0),
	}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	edited := QuoteRequest{
		CustomerName:     "Harbor Rigging",
		Equipment:        EquipmentBlock{MakeName: "Volvo", ModelName: "EC220", CostData: map[string]float64{"loading": 800}},
		MarginPercentage: ptr(20.0),
	}
	next, err := svc.SaveVersion(src.Id, &edited, "")
	if err != nil {
		t.Fatalf("SaveVersion() error = %v", err)
	}

	reloaded, _ := app.FindRecordById("quote_history", src.Id)
	if reloaded.GetFloat("total") != 600 || reloaded.GetInt("version") != 1 || reloaded.GetString("status") != "draft" {
		t.Errorf("source changed: total=%v version=%d status=%s",
			reloaded.GetFloat("total"), reloaded.GetInt("version"), reloaded.GetString("status"))
	}
	if next.GetString("parent_quote_id") != src.Id {
		t.Errorf("parent_quote_id = %q, want %q", next.GetString("parent_quote_id"), src.Id)
	}
	if next.GetString("original_quote_id") != src.Id {
		t.Errorf("original_quote_id = %q, want %q", next.GetString("original_quote_id"), src.Id)
	}
	if next.GetInt("version") != 2 {
		t.Errorf("version = %d, want 2", next.GetInt("version"))
	}
	if next.GetString("quote_number") == src.GetString("quote_number") {
		t.Error("new version should get a fresh quote number")
	}
	if next.GetFloat("total") != 960 {
		t.Errorf("new total = %v, want 960", next.GetFloat("total"))
	}

	third, err := svc.SaveVersion(next.Id, nil, "")
	if err != nil {
		t.Fatalf("SaveVersion(nil) error = %v", err)
	}
	history, err := svc.Lineage().History(third.Id)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history has %d versions, want 3", len(history))
	}
	for i, h := range history {
		if h.GetInt("version") != i+1 {
			t.Errorf("history[%d].version = %d", i, h.GetInt("version"))
		}
	}
}

func TestQuoteService_UpdateInPlace(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	svc := NewQuoteService(app, config.Default())

	q := testhelpers.CreateTestQuote(t, app, "QT-260101-001", 100, 10)
	updated, err := svc.Update(q.Id, QuoteRequest{
		CustomerName:     "Renamed Customer",
		Equipment:        EquipmentBlock{MakeName: "Caterpillar", ModelName: "320", CostData: map[string]float64{"loading": 200}},
		MarginPercentage: ptr(10.0),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Id != q.Id || updated.GetString("quote_number") != "QT-260101-001" || updated.GetInt("version") != 1 {
		t.Errorf("update changed lineage: id=%s number=%s version=%d",
			updated.Id, updated.GetString("quote_number"), updated.GetInt("version"))
	}
	if updated.GetFloat("total") != 220 {
		t.Errorf("total = %v, want 220", updated.GetFloat("total"))
	}

	q.Set("status", "accepted")
	if err := app.Save(q); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Update(q.Id, QuoteRequest{CustomerName: "Too late"})
	if !errors.Is(err, ErrQuoteLocked) {
		t.Errorf("Update() on accepted quote error = %v, want ErrQuoteLocked", err)
	}
}

func TestQuoteRequest_Validate(t *testing.T) {
	tests := []struct {
		name  string
		req   QuoteRequest
		field string
	}{
		{"missing customer", QuoteRequest{}, "customer_name"},
		{"unknown cost", QuoteRequest{CustomerName: "x", Equipment: EquipmentBlock{CostData: map[string]float64{"bribes": 1}}}, "equipment"},
		{"negative cost", QuoteRequest{CustomerName: "x", Equipment: EquipmentBlock{CostData: map[string]float64{"loading": -1}}}, "equipment"},
		{"bad location", QuoteRequest{CustomerName: "x", Equipment: EquipmentBlock{Location: "mars"}}, "equipment"},
		{"unlabelled fee", QuoteRequest{CustomerName: "x", MiscFees: []MiscFee{{Amount: 5}}}, "misc_fees"},
		{"negative margin", QuoteRequest{CustomerName: "x", MarginPercentage: ptr(-1.0)}, "margin_percentage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := FieldErrors(tt.req.Validate())
			if _, ok := errs[tt.field]; !ok {
				t.Errorf("errors = %v, want one for %q", errs, tt.field)
			}
		})
	}

	ok := QuoteRequest{CustomerName: "Valid", Equipment: EquipmentBlock{Location: "savannah", CostData: map[string]float64{"loading": 1}}}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid request error = %v", err)
	}
}

func TestQuoteRequestFromRecord(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	svc := NewQuoteService(app, config.Default())

	rec, err := svc.Create(QuoteRequest{
		CustomerName: "Round Trip Co",
		Equipment:    EquipmentBlock{MakeName: "Bobcat", ModelName: "S650", CostData: map[string]float64{"survey": 75}},
		EquipmentBlocks: []EquipmentBlock{
			{MakeName: "Bobcat", ModelName: "T770", CostData: map[string]float64{"survey": 80}},
		},
		MiscFees:         []MiscFee{{Label: "Permit", Amount: 20}},
		MarginPercentage: ptr(5.0),
	}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	req, err := QuoteRequestFromRecord(rec)
	if err != nil {
		t.Fatalf("QuoteRequestFromRecord() error = %v", err)
	}
	if len(req.AllEquipment()) != 2 || req.EquipmentBlocks[0].ModelName != "T770" {
		t.Errorf("equipment = %+v", req.AllEquipment())
	}
	totals, err := svc.Calc(req)
	if err != nil {
		t.Fatal(err)
	}
	if totals.Total() != rec.GetFloat("total") {
		t.Errorf("recomputed total %v != stored %v", totals.Total(), rec.GetFloat("total"))
	}
}
