// Package services provides quoting, import and rendering services.
package services

import (
	"github.com/shopspring/decimal"
)

// MiscFee is an itemised extra charge. Percent fees apply to the cost
// subtotal of all equipment.
type MiscFee struct {
	Label     string  `json:"label"`
	Amount    float64 `json:"amount"`
	IsPercent bool    `json:"is_percent"`
}

// EquipmentCosts is one priced unit on a quote.
type EquipmentCosts struct {
	Label     string
	Costs     CostSchedule
	Enabled   CostToggle
	Overrides CostSchedule
}

// QuoteInput is everything needed to total a dismantle quote.
type QuoteInput struct {
	Equipment     []EquipmentCosts
	MiscFees      []MiscFee
	MarginPercent float64
	InlandTotal   float64
}

// CostLine is one enabled, positive cost on a quote.
type CostLine struct {
	Field  CostField `json:"field"`
	Label  string    `json:"label"`
	Amount float64   `json:"amount"`
}

// EquipmentTotals is the cost breakdown for a single unit.
type EquipmentTotals struct {
	Label    string     `json:"label"`
	Lines    []CostLine `json:"lines"`
	Subtotal float64    `json:"subtotal"`
}

// FeeLine is a misc fee resolved to an amount.
type FeeLine struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent,omitempty"`
	Amount  float64 `json:"amount"`
}

// QuoteTotals holds the computed amounts for a quote. Subtotal includes fees;
// GrandTotal = Subtotal + MarginAmount + InlandTotal.
type QuoteTotals struct {
	Equipment     []EquipmentTotals `json:"equipment"`
	Fees          []FeeLine         `json:"fees"`
	CostSubtotal  float64           `json:"cost_subtotal"`
	FeesTotal     float64           `json:"fees_total"`
	Subtotal      float64           `json:"subtotal"`
	MarginPercent float64           `json:"margin_percent"`
	MarginAmount  float64           `json:"margin_amount"`
	InlandTotal   float64           `json:"inland_total"`
	GrandTotal    float64           `json:"grand_total"`
}

// Total is the quote total excluding inland transport.
func (t QuoteTotals) Total() float64 {
	return roundCents(decimal.NewFromFloat(t.Subtotal).Add(decimal.NewFromFloat(t.MarginAmount)))
}

// EffectiveCost returns the override for f if present, else the schedule value.
// The bool is false when neither has a value.
func EffectiveCost(costs, overrides CostSchedule, f CostField) (float64, bool) {
	if v, ok := overrides[f]; ok {
		return v, true
	}
	v, ok := costs[f]
	return v, ok
}

// CalcEquipmentTotals sums the enabled, positive effective costs of one unit.
func CalcEquipmentTotals(eq EquipmentCosts) EquipmentTotals {
	out := EquipmentTotals{Label: eq.Label}
	sum := decimal.Zero
	for _, f := range CostFields {
		if !eq.Enabled.Enabled(f) {
			continue
		}
		v, ok := EffectiveCost(eq.Costs, eq.Overrides, f)
		if !ok || v <= 0 {
			continue
		}
		out.Lines = append(out.Lines, CostLine{Field: f, Label: f.Label(), Amount: v})
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	out.Subtotal = roundCents(sum)
	return out
}

// CalcQuoteTotals prices a quote:
//
//	subtotal     = Σ enabled costs > 0 (all equipment) + misc fees
//	marginAmount = subtotal × margin / 100
//	grandTotal   = subtotal + marginAmount + inland total
func CalcQuoteTotals(in QuoteInput) QuoteTotals {
	totals := QuoteTotals{MarginPercent: in.MarginPercent, InlandTotal: in.InlandTotal}

	costSum := decimal.Zero
	for _, eq := range in.Equipment {
		et := CalcEquipmentTotals(eq)
		totals.Equipment = append(totals.Equipment, et)
		costSum = costSum.Add(decimal.NewFromFloat(et.Subtotal))
	}

	feeSum := decimal.Zero
	hundred := decimal.NewFromInt(100)
	for _, fee := range in.MiscFees {
		amount := decimal.NewFromFloat(fee.Amount)
		line := FeeLine{Label: fee.Label}
		if fee.IsPercent {
			line.Percent = fee.Amount
			amount = costSum.Mul(amount).Div(hundred)
		}
		line.Amount = roundCents(amount)
		totals.Fees = append(totals.Fees, line)
		feeSum = feeSum.Add(decimal.NewFromFloat(line.Amount))
	}

	subtotal := costSum.Add(feeSum)
	margin := decimal.NewFromFloat(roundCents(subtotal.Mul(decimal.NewFromFloat(in.MarginPercent)).Div(hundred)))

	totals.CostSubtotal = roundCents(costSum)
	totals.FeesTotal = roundCents(feeSum)
	totals.Subtotal = roundCents(subtotal)
	totals.MarginAmount = margin.InexactFloat64()
	totals.GrandTotal = roundCents(subtotal.Add(margin).Add(decimal.NewFromFloat(in.InlandTotal)))
	return totals
}

// ApplyMarkup spreads the margin into an amount so customers who should not
// see the margin get marked-up line prices instead.
func ApplyMarkup(amount, marginPercent float64) float64 {
	d := decimal.NewFromFloat(amount)
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(marginPercent).Div(decimal.NewFromInt(100)))
	return roundCents(d.Mul(factor))
}

func roundCents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
