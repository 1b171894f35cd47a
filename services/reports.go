package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// StatusBucket is the count and value of quotes in one status.
type StatusBucket struct {
	Status QuoteStatus `json:"status"`
	Count  int         `json:"count"`
	Value  float64     `json:"value"`
}

// PipelineSummary aggregates quotes of one kind by status.
type PipelineSummary struct {
	Kind           QuoteKind      `json:"kind"`
	From           *time.Time     `json:"from,omitempty"`
	To             *time.Time     `json:"to,omitempty"`
	Buckets        []StatusBucket `json:"buckets"`
	TotalCount     int            `json:"total_count"`
	TotalValue     float64        `json:"total_value"`
	ConversionRate float64        `json:"conversion_rate"` // accepted / (accepted + rejected), percent
}

// ReportRange limits a report to quotes created in [From, To). Zero times
// are open ends.
type ReportRange struct {
	From time.Time
	To   time.Time
}

func (r ReportRange) expression() dbx.Expression {
	var parts []dbx.Expression
	if !r.From.IsZero() {
		parts = append(parts, dbx.NewExp("created >= {:from}",
			dbx.Params{"from": r.From.UTC().Format(types.DefaultDateLayout)}))
	}
	if !r.To.IsZero() {
		parts = append(parts, dbx.NewExp("created < {:to}",
			dbx.Params{"to": r.To.UTC().Format(types.DefaultDateLayout)}))
	}
	if len(parts) == 0 {
		return dbx.NewExp("1=1")
	}
	return dbx.And(parts...)
}

// Pipeline counts and totals quotes of kind per status.
func Pipeline(app core.App, kind QuoteKind, rng ReportRange) (PipelineSummary, error) {
	records, err := findRecordsWhere(app, kind.Collection(), rng.expression(), "", 0)
	if err != nil {
		return PipelineSummary{}, fmt.Errorf("load %s: %w", kind.Collection(), err)
	}

	counts := map[QuoteStatus]int{}
	values := map[QuoteStatus]decimal.Decimal{}
	total := decimal.Zero
	for _, r := range records {
		st := QuoteStatus(r.GetString("status"))
		v := decimal.NewFromFloat(r.GetFloat("total"))
		counts[st]++
		values[st] = values[st].Add(v)
		total = total.Add(v)
	}

	sum := PipelineSummary{Kind: kind, TotalCount: len(records), TotalValue: roundCents(total)}
	if !rng.From.IsZero() {
		sum.From = &rng.From
	}
	if !rng.To.IsZero() {
		sum.To = &rng.To
	}
	for _, st := range QuoteStatuses {
		sum.Buckets = append(sum.Buckets, StatusBucket{Status: st, Count: counts[st], Value: roundCents(values[st])})
	}
	if decided := counts[StatusAccepted] + counts[StatusRejected]; decided > 0 {
		rate := decimal.NewFromInt(int64(counts[StatusAccepted])).
			Div(decimal.NewFromInt(int64(decided))).
			Mul(decimal.NewFromInt(100))
		sum.ConversionRate = rate.Round(1).InexactFloat64()
	}
	return sum, nil
}

// historyColumns are the quote history export columns in order.
var historyColumns = []struct {
	header string
	width  float64
}{
	{"Quote #", 18}, {"Version", 9}, {"Status", 11}, {"Created", 12}, {"Customer", 26},
	{"Company", 26}, {"Equipment", 30}, {"Location", 14}, {"Subtotal", 14},
	{"Margin %", 10}, {"Margin", 14}, {"Inland", 14}, {"Total", 14}, {"Expires", 12},
}

// ExportQuoteHistory writes dismantle quotes created in rng to an xlsx
// workbook, newest first, with a totals row.
func ExportQuoteHistory(app core.App, rng ReportRange) ([]byte, error) {
	records, err := findRecordsWhere(app, KindDismantle.Collection(), rng.expression(), "-created", 0)
	if err != nil {
		return nil, fmt.Errorf("load quote history: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Quotes"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	// ── Header ───────────────────────────────────────────────────────────

	cols := columnLetters(len(historyColumns))
	headers := make([]any, len(historyColumns))
	for i, c := range historyColumns {
		headers[i] = c.header
		f.SetColWidth(sheet, cols[i], cols[i], c.width)
	}
	f.SetSheetRow(sheet, "A1", &headers)
	last := cols[len(cols)-1]
	f.SetCellStyle(sheet, "A1", last+"1", headerStyle(f, "#1E3A8A"))
	freezeHeader(f, sheet)

	moneyFmt := "#,##0.00"
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt, Border: thinBorders()})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}
	plain, err := f.NewStyle(&excelize.Style{Border: thinBorders()})
	if err != nil {
		return nil, fmt.Errorf("create cell style: %w", err)
	}

	// ── Rows ─────────────────────────────────────────────────────────────

	row := 2
	var subtotal, margin, inland, total decimal.Decimal
	for _, r := range records {
		cells := []any{
			sanitizeExcelCell(r.GetString("quote_number")),
			r.GetInt("version"),
			r.GetString("status"),
			dateCell(r.GetDateTime("created")),
			sanitizeExcelCell(r.GetString("customer_name")),
			sanitizeExcelCell(r.GetString("customer_company")),
			sanitizeExcelCell(joinNonEmpty([]string{r.GetString("make_name"), r.GetString("model_name")}, " ")),
			Location(r.GetString("location")).Label(),
			r.GetFloat("subtotal"),
			r.GetFloat("margin_percentage"),
			r.GetFloat("margin_amount"),
			r.GetFloat("inland_total"),
			r.GetFloat("total"),
			dateCell(r.GetDateTime("expires_at")),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		f.SetSheetRow(sheet, cell, &cells)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("H%d", row), plain)
		f.SetCellStyle(sheet, fmt.Sprintf("I%d", row), fmt.Sprintf("M%d", row), money)
		f.SetCellStyle(sheet, fmt.Sprintf("N%d", row), fmt.Sprintf("N%d", row), plain)

		subtotal = subtotal.Add(decimal.NewFromFloat(r.GetFloat("subtotal")))
		margin = margin.Add(decimal.NewFromFloat(r.GetFloat("margin_amount")))
		inland = inland.Add(decimal.NewFromFloat(r.GetFloat("inland_total")))
		total = total.Add(decimal.NewFromFloat(r.GetFloat("total")))
		row++
	}

	// ── Totals ───────────────────────────────────────────────────────────

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt})
	f.SetCellValue(sheet, fmt.Sprintf("H%d", row), "Totals")
	f.SetCellValue(sheet, fmt.Sprintf("I%d", row), roundCents(subtotal))
	f.SetCellValue(sheet, fmt.Sprintf("K%d", row), roundCents(margin))
	f.SetCellValue(sheet, fmt.Sprintf("L%d", row), roundCents(inland))
	f.SetCellValue(sheet, fmt.Sprintf("M%d", row), roundCents(total))
	f.SetCellStyle(sheet, fmt.Sprintf("H%d", row), fmt.Sprintf("M%d", row), bold)

	return writeWorkbook(f, "quote history export")
}

func dateCell(d types.DateTime) string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format("2006-01-02")
}
