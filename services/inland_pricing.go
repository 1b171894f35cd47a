package services

import (
	"github.com/shopspring/decimal"
)

// Accessorial is an extra inland charge such as detention or a permit.
type Accessorial struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// InlandInput is everything needed to total an inland transport quote.
// A positive FlatRate replaces the per-mile line haul.
type InlandInput struct {
	DistanceMiles        float64
	RatePerMile          float64
	FlatRate             float64
	FuelSurchargePercent float64
	Accessorials         []Accessorial
	MarginPercent        float64
}

// InlandTotals holds the computed amounts for an inland quote.
type InlandTotals struct {
	LineHaul         float64 `json:"line_haul"`
	FuelSurcharge    float64 `json:"fuel_surcharge"`
	AccessorialTotal float64 `json:"accessorial_total"`
	Subtotal         float64 `json:"subtotal"`
	MarginPercent    float64 `json:"margin_percent"`
	MarginAmount     float64 `json:"margin_amount"`
	Total            float64 `json:"total"`
}

// CalcInlandTotals prices an inland move:
//
//	lineHaul  = flatRate, or miles × ratePerMile
//	fuel      = lineHaul × fuel% / 100
//	subtotal  = lineHaul + fuel + Σ accessorials > 0
//	total     = subtotal + subtotal × margin / 100
func CalcInlandTotals(in InlandInput) InlandTotals {
	hundred := decimal.NewFromInt(100)

	lineHaul := decimal.NewFromFloat(in.FlatRate)
	if in.FlatRate <= 0 {
		lineHaul = decimal.NewFromFloat(in.DistanceMiles).Mul(decimal.NewFromFloat(in.RatePerMile))
	}
	lineHaul = lineHaul.Round(2)

	fuel := lineHaul.Mul(decimal.NewFromFloat(in.FuelSurchargePercent)).Div(hundred).Round(2)

	acc := decimal.Zero
	for _, a := range in.Accessorials {
		if a.Amount > 0 {
			acc = acc.Add(decimal.NewFromFloat(a.Amount))
		}
	}
	acc = acc.Round(2)

	subtotal := lineHaul.Add(fuel).Add(acc)
	margin := subtotal.Mul(decimal.NewFromFloat(in.MarginPercent)).Div(hundred).Round(2)

	return InlandTotals{
		LineHaul:         lineHaul.InexactFloat64(),
		FuelSurcharge:    fuel.InexactFloat64(),
		AccessorialTotal: acc.InexactFloat64(),
		Subtotal:         subtotal.InexactFloat64(),
		MarginPercent:    in.MarginPercent,
		MarginAmount:     margin.InexactFloat64(),
		Total:            roundCents(subtotal.Add(margin)),
	}
}

// TruckType is a trailer configuration for inland moves.
type TruckType string

const (
	TruckFlatbed         TruckType = "flatbed"
	TruckStepDeck        TruckType = "step_deck"
	TruckRGN             TruckType = "rgn"
	TruckLowboy          TruckType = "lowboy"
	TruckMultiAxleLowboy TruckType = "multi_axle_lowboy"
)

// Legal cargo envelopes per trailer (US federal defaults without permits).
const (
	legalWidthIn         = 102
	flatbedMaxHeightIn   = 102
	stepDeckMaxHeightIn  = 120
	rgnMaxHeightIn       = 138
	flatbedMaxWeightLbs  = 48000
	rgnMaxWeightLbs      = 42000
	lowboyMaxWeightLbs   = 80000
	multiAxleThresholdLb = 80000
)

// TruckRecommendation is the suggested trailer plus permit flags.
type TruckRecommendation struct {
	Truck      TruckType `json:"truck"`
	Oversize   bool      `json:"oversize"`
	Overweight bool      `json:"overweight"`
	Reason     string    `json:"reason"`
}

// RecommendTruck picks the smallest trailer that carries the cargo. Zero
// dimensions are treated as unknown and do not influence the choice.
func RecommendTruck(weightLbs, heightIn, widthIn float64) TruckRecommendation {
	rec := TruckRecommendation{Oversize: widthIn > legalWidthIn}

	switch {
	case weightLbs > multiAxleThresholdLb:
		rec.Truck = TruckMultiAxleLowboy
		rec.Overweight = true
		rec.Reason = "cargo exceeds 80,000 lbs"
	case weightLbs > flatbedMaxWeightLbs:
		rec.Truck = TruckLowboy
		rec.Reason = "cargo exceeds 48,000 lbs"
	case heightIn > rgnMaxHeightIn:
		rec.Truck = TruckRGN
		rec.Oversize = true
		rec.Reason = "cargo taller than 11'6\" needs a permit"
	case heightIn > stepDeckMaxHeightIn:
		rec.Truck = TruckRGN
		if weightLbs > rgnMaxWeightLbs {
			rec.Truck = TruckLowboy
		}
		rec.Reason = "cargo taller than 10'"
	case heightIn > flatbedMaxHeightIn:
		rec.Truck = TruckStepDeck
		rec.Reason = "cargo taller than 8'6\""
	default:
		rec.Truck = TruckFlatbed
		rec.Reason = "fits a standard flatbed"
	}

	if rec.Truck == TruckLowboy && weightLbs > lowboyMaxWeightLbs {
		rec.Truck = TruckMultiAxleLowboy
	}
	return rec
}
