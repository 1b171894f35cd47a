package services

import (
	"math"
	"testing"
)

func TestCostToggle_Enabled(t *testing.T) {
	toggle := CostToggle{CostTolls: false, CostLoading: true}

	if !toggle.Enabled(CostLoading) {
		t.Error("explicitly enabled field reported disabled")
	}
	if toggle.Enabled(CostTolls) {
		t.Error("explicitly disabled field reported enabled")
	}
	if !toggle.Enabled(CostSurvey) {
		t.Error("absent field should default to enabled")
	}
}

func TestEffectiveCost(t *testing.T) {
	costs := CostSchedule{CostLoading: 100, CostTolls: 50}
	overrides := CostSchedule{CostTolls: 80, CostSurvey: 25}

	tests := []struct {
		field  CostField
		want   float64
		wantOK bool
	}{
		{CostLoading, 100, true},
		{CostTolls, 80, true},
		{CostSurvey, 25, true},
		{CostEscorts, 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			got, ok := EffectiveCost(costs, overrides, tt.field)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("EffectiveCost(%s) = (%v, %v), want (%v, %v)", tt.field, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCalcQuoteTotals_LoadingAndTolls(t *testing.T) {
	totals := CalcQuoteTotals(QuoteInput{
		Equipment:     []EquipmentCosts{{Costs: CostSchedule{CostLoading: 100, CostTolls: 50}}},
		MarginPercent: 10,
	})

	if totals.Subtotal != 150 {
		t.Errorf("Subtotal = %v, want 150", totals.Subtotal)
	}
	if totals.MarginAmount != 15 {
		t.Errorf("MarginAmount = %v, want 15", totals.MarginAmount)
	}
	if totals.GrandTotal != 165 {
		t.Errorf("GrandTotal = %v, want 165", totals.GrandTotal)
	}
	if totals.Total() != 165 {
		t.Errorf("Total() = %v, want 165", totals.Total())
	}
}

func TestCalcQuoteTotals(t *testing.T) {
	tests := []struct {
		name         string
		in           QuoteInput
		wantSubtotal float64
		wantMargin   float64
		wantGrand    float64
	}{
		{
			name: "disabled field excluded",
			in: QuoteInput{
				Equipment: []EquipmentCosts{{
					Costs:   CostSchedule{CostLoading: 100, CostTolls: 50},
					Enabled: CostToggle{CostTolls: false},
				}},
				MarginPercent: 10,
			},
			wantSubtotal: 100, wantMargin: 10, wantGrand: 110,
		},
		{
			name: "override replaces schedule value",
			in: QuoteInput{
				Equipment: []EquipmentCosts{{
					Costs:     CostSchedule{CostLoading: 100},
					Overrides: CostSchedule{CostLoading: 250},
				}},
			},
			wantSubtotal: 250, wantMargin: 0, wantGrand: 250,
		},
		{
			name: "non-positive costs ignored",
			in: QuoteInput{
				Equipment: []EquipmentCosts{{
					Costs: CostSchedule{CostLoading: 0, CostSurvey: -40, CostChassis: 60},
				}},
				MarginPercent: 50,
			},
			wantSubtotal: 60, wantMargin: 30, wantGrand: 90,
		},
		{
			name: "flat and percent misc fees",
			in: QuoteInput{
				Equipment: []EquipmentCosts{{Costs: CostSchedule{CostDrayage: 1000}}},
				MiscFees: []MiscFee{
					{Label: "Permit", Amount: 125},
					{Label: "Admin", Amount: 5, IsPercent: true},
				},
				MarginPercent: 10,
			},
			wantSubtotal: 1175, wantMargin: 117.5, wantGrand: 1292.5,
		},
		{
			name: "multiple equipment plus inland",
			in: QuoteInput{
				Equipment: []EquipmentCosts{
					{Costs: CostSchedule{CostLoading: 100}},
					{Costs: CostSchedule{CostLoading: 200, CostTolls: 25}},
				},
				MarginPercent: 20,
				InlandTotal:   400,
			},
			wantSubtotal: 325, wantMargin: 65, wantGrand: 790,
		},
		{
			name:         "empty quote",
			in:           QuoteInput{MarginPercent: 15},
			wantSubtotal: 0, wantMargin: 0, wantGrand: 0,
		},
		{
			name: "fractional cents avoid float drift",
			in: QuoteInput{
				Equipment:     []EquipmentCosts{{Costs: CostSchedule{CostLoading: 0.1, CostTolls: 0.2}}},
				MarginPercent: 0,
			},
			wantSubtotal: 0.3, wantMargin: 0, wantGrand: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalcQuoteTotals(tt.in)
			if got.Subtotal != tt.wantSubtotal {
				t.Errorf("Subtotal = %v, want %v", got.Subtotal, tt.wantSubtotal)
			}
			if got.MarginAmount != tt.wantMargin {
				t.Errorf("MarginAmount = %v, want %v", got.MarginAmount, tt.wantMargin)
			}
			if got.GrandTotal != tt.wantGrand {
				t.Errorf("GrandTotal = %v, want %v", got.GrandTotal, tt.wantGrand)
			}
		})
	}
}

func TestCalcQuoteTotals_SubtotalPlusMarginEqualsTotal(t *testing.T) {
	schedules := []CostSchedule{
		{CostLoading: 123.45, CostSurvey: 67.89},
		{CostDrayage: 1999.99, CostChassis: 0.01, CostEscorts: 333.33},
		{CostPowerWash: 17, CostWasteFluids: 3.5, CostMiscellaneous: 42.42},
	}
	margins := []float64{0, 7.5, 12.345, 33.333, 100}

	for _, s := range schedules {
		for _, m := range margins {
			totals := CalcQuoteTotals(QuoteInput{Equipment: []EquipmentCosts{{Costs: s}}, MarginPercent: m})
			if math.Abs(totals.Subtotal+totals.MarginAmount-totals.Total()) > 0.005 {
				t.Errorf("margin %v: subtotal %v + margin %v != total %v", m, totals.Subtotal, totals.MarginAmount, totals.Total())
			}
			if math.Abs(totals.MarginAmount-totals.Subtotal*m/100) > 0.006 {
				t.Errorf("margin %v: margin amount %v, want %v", m, totals.MarginAmount, totals.Subtotal*m/100)
			}
		}
	}
}

func TestCalcQuoteTotals_LinesInDisplayOrder(t *testing.T) {
	totals := CalcQuoteTotals(QuoteInput{
		Equipment: []EquipmentCosts{{Costs: CostSchedule{CostTolls: 1, CostLoading: 2, CostSurvey: 3}}},
	})

	lines := totals.Equipment[0].Lines
	want := []CostField{CostLoading, CostSurvey, CostTolls}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i, f := range want {
		if lines[i].Field != f {
			t.Errorf("line %d = %s, want %s", i, lines[i].Field, f)
		}
	}
	if lines[0].Label != "Loading" {
		t.Errorf("label = %q, want Loading", lines[0].Label)
	}
}

func TestApplyMarkup(t *testing.T) {
	tests := []struct {
		amount, margin, want float64
	}{
		{100, 10, 110},
		{150, 0, 150},
		{33.33, 15, 38.33},
	}
	for _, tt := range tests {
		if got := ApplyMarkup(tt.amount, tt.margin); got != tt.want {
			t.Errorf("ApplyMarkup(%v, %v) = %v, want %v", tt.amount, tt.margin, got, tt.want)
		}
	}
}
