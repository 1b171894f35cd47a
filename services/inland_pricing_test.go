package services

import "testing"

func TestCalcInlandTotals(t *testing.T) {
	tests := []struct {
		name      string
		in        InlandInput
		wantHaul  float64
		wantFuel  float64
		wantAcc   float64
		wantSub   float64
		wantTotal float64
	}{
		{
			name:     "per mile with fuel",
			in:       InlandInput{DistanceMiles: 200, RatePerMile: 4.5, FuelSurchargePercent: 10},
			wantHaul: 900, wantFuel: 90, wantAcc: 0, wantSub: 990, wantTotal: 990,
		},
		{
			name:     "flat rate beats per mile",
			in:       InlandInput{DistanceMiles: 200, RatePerMile: 4.5, FlatRate: 1500},
			wantHaul: 1500, wantFuel: 0, wantAcc: 0, wantSub: 1500, wantTotal: 1500,
		},
		{
			name: "accessorials and margin",
			in: InlandInput{
				FlatRate:      1000,
				Accessorials:  []Accessorial{{Name: "Permit", Amount: 150}, {Name: "Tarp", Amount: 50}, {Name: "Bogus", Amount: -20}},
				MarginPercent: 10,
			},
			wantHaul: 1000, wantFuel: 0, wantAcc: 200, wantSub: 1200, wantTotal: 1320,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalcInlandTotals(tt.in)
			if got.LineHaul != tt.wantHaul {
				t.Errorf("LineHaul = %v, want %v", got.LineHaul, tt.wantHaul)
			}
			if got.FuelSurcharge != tt.wantFuel {
				t.Errorf("FuelSurcharge = %v, want %v", got.FuelSurcharge, tt.wantFuel)
			}
			if got.AccessorialTotal != tt.wantAcc {
				t.Errorf("AccessorialTotal = %v, want %v", got.AccessorialTotal, tt.wantAcc)
			}
			if got.Subtotal != tt.wantSub {
				t.Errorf("Subtotal = %v, want %v", got.Subtotal, tt.wantSub)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("Total = %v, want %v", got.Total, tt.wantTotal)
			}
		})
	}
}

func TestRecommendTruck(t *testing.T) {
	tests := []struct {
		name                  string
		weight, height, width float64
		want                  TruckType
		wantOversize          bool
	}{
		{"skid steer fits flatbed", 8000, 81, 72, TruckFlatbed, false},
		{"tall loader needs step deck", 20000, 110, 96, TruckStepDeck, false},
		{"taller needs rgn", 30000, 125, 100, TruckRGN, false},
		{"very tall is permitted rgn", 30000, 150, 100, TruckRGN, true},
		{"heavy excavator on lowboy", 49000, 118, 125, TruckLowboy, true},
		{"very heavy needs multi axle", 120000, 130, 140, TruckMultiAxleLowboy, true},
		{"unknown dimensions default to flatbed", 0, 0, 0, TruckFlatbed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecommendTruck(tt.weight, tt.height, tt.width)
			if got.Truck != tt.want {
				t.Errorf("Truck = %q, want %q", got.Truck, tt.want)
			}
			if got.Oversize != tt.wantOversize {
				t.Errorf("Oversize = %v, want %v", got.Oversize, tt.wantOversize)
			}
			if got.Reason == "" {
				t.Error("Reason should not be empty")
			}
		})
	}
}
