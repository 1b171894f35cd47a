package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"equipquote/services"
)

// reportRange reads ?from and ?to. Both are inclusive calendar dates; to is
// widened to the end of its day.
func reportRange(e *core.RequestEvent) (services.ReportRange, error) {
	var rng services.ReportRange
	q := e.Request.URL.Query()
	if raw := q.Get("from"); raw != "" {
		t, err := cast.ToTimeE(raw)
		if err != nil {
			return rng, fmt.Errorf("invalid from date %q", raw)
		}
		rng.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := cast.ToTimeE(raw)
		if err != nil {
			return rng, fmt.Errorf("invalid to date %q", raw)
		}
		rng.To = t.Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	return rng, nil
}

func quoteKindParam(e *core.RequestEvent) (services.QuoteKind, bool) {
	switch e.Request.URL.Query().Get("kind") {
	case "", string(services.KindDismantle):
		return services.KindDismantle, true
	case string(services.KindInland):
		return services.KindInland, true
	}
	return "", false
}

// HandlePipelineReport summarises quotes by status. ?kind selects dismantle
// (default) or inland quotes.
// Route: GET /api/reports/pipeline
func HandlePipelineReport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		kind, ok := quoteKindParam(e)
		if !ok {
			return respondError(e, http.StatusBadRequest, "Unknown quote kind")
		}
		rng, err := reportRange(e)
		if err != nil {
			return respondError(e, http.StatusBadRequest, capitalize(err.Error()))
		}
		summary, err := services.Pipeline(app, kind, rng)
		if err != nil {
			return respondServiceError(e, "pipeline_report", err)
		}
		return e.JSON(http.StatusOK, summary)
	}
}

// HandleQuoteExport downloads dismantle quote history as .xlsx.
// Route: GET /api/reports/quotes.xlsx
func HandleQuoteExport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rng, err := reportRange(e)
		if err != nil {
			return respondError(e, http.StatusBadRequest, capitalize(err.Error()))
		}
		data, err := services.ExportQuoteHistory(app, rng)
		if err != nil {
			return respondServiceError(e, "quote_export", err)
		}
		filename := fmt.Sprintf("Quotes_%s.xlsx", time.Now().Format("2006-01-02"))
		return sendFile(e, xlsxContentType, filename, data)
	}
}

// HandleSearch searches companies, contacts, customers and quotes for ?q.
// Route: GET /api/search
func HandleSearch(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		hits, err := services.Search(app, e.Request.URL.Query().Get("q"), queryInt(e, "limit", 5))
		if err != nil {
			return respondServiceError(e, "search", err)
		}
		if hits == nil {
			hits = []services.SearchHit{}
		}
		return e.JSON(http.StatusOK, hits)
	}
}
