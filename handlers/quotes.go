package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/services"
)

// Handlers in this file serve both quote kinds; kind picks the collection.

// HandleQuoteList lists quotes filtered by ?status, ?company, ?q and
// ?latest=1.
// Route: GET /api/quotes, GET /api/inland
func HandleQuoteList(app *pocketbase.PocketBase, kind services.QuoteKind) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q := e.Request.URL.Query()
		records, err := services.ListQuotes(app, kind, services.QuoteFilter{
			Status:     q.Get("status"),
			CompanyID:  q.Get("company"),
			Query:      q.Get("q"),
			LatestOnly: queryBool(e, "latest"),
			Limit:      queryInt(e, "limit", 50),
			Offset:     queryInt(e, "offset", 0),
		})
		if err != nil {
			return respondServiceError(e, "quote_list", err)
		}
		return e.JSON(http.StatusOK, records)
	}
}

type quoteDetail struct {
	Quote         *core.Record           `json:"quote"`
	StatusHistory []services.StatusEntry `json:"status_history"`
	Emails        []services.EmailLog    `json:"emails"`
}

// HandleQuoteGet returns one quote with its status and email history.
// Route: GET /api/quotes/{id}, GET /api/inland/{id}
func HandleQuoteGet(app *pocketbase.PocketBase, kind services.QuoteKind) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		rec, err := app.FindRecordById(kind.Collection(), id)
		if err != nil {
			return respondError(e, http.StatusNotFound, "Quote not found")
		}
		history, err := services.StatusHistory(app, rec.Id)
		if err != nil {
			return respondServiceError(e, "quote_get", err)
		}
		emails, err := services.ListEmailLogs(app, rec.Id, 20)
		if err != nil {
			return respondServiceError(e, "quote_get", err)
		}
		return e.JSON(http.StatusOK, quoteDetail{Quote: rec, StatusHistory: history, Emails: emails})
	}
}

// HandleQuoteHistory returns every version in a quote's lineage, oldest
// first.
// Route: GET /api/quotes/{id}/versions, GET /api/inland/{id}/versions
func HandleQuoteHistory(lineage *services.Lineage) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		versions, err := lineage.History(e.Request.PathValue("id"))
		if err != nil {
			return respondServiceError(e, "quote_history", err)
		}
		return e.JSON(http.StatusOK, versions)
	}
}

// HandleQuoteStatus moves a quote through the sales pipeline.
// Route: POST /api/quotes/{id}/status, POST /api/inland/{id}/status
func HandleQuoteStatus(statuses *services.StatusService, kind services.QuoteKind) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.StatusChangeInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}
		if err := in.Validate(); err != nil {
			return respondServiceError(e, "quote_status", err)
		}
		rec, err := statuses.Change(e.Request.Context(), kind, e.Request.PathValue("id"),
			services.QuoteStatus(in.Status), userID(e), in.Notes)
		if err != nil {
			return respondServiceError(e, "quote_status", err)
		}
		return e.JSON(http.StatusOK, rec)
	}
}

// HandleQuotePDF renders a quote as a PDF download. It only fails when every
// renderer failed.
// Route: GET /api/quotes/{id}/pdf, GET /api/inland/{id}/pdf
func HandleQuotePDF(docs *services.Documents, kind services.QuoteKind) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		pdf, filename, err := docs.PDF(kind, e.Request.PathValue("id"))
		if err != nil {
			return respondServiceError(e, "quote_pdf", err)
		}
		if queryBool(e, "inline") {
			e.Response.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
			return e.Blob(http.StatusOK, "application/pdf", pdf)
		}
		return sendFile(e, "application/pdf", filename, pdf)
	}
}

// HandleQuotePreview renders the HTML preview of a quote.
// Route: GET /api/quotes/{id}/preview, GET /api/inland/{id}/preview
func HandleQuotePreview(docs *services.Documents, kind services.QuoteKind) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := docs.Data(kind, e.Request.PathValue("id"))
		if err != nil {
			return respondServiceError(e, "quote_preview", err)
		}
		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return services.QuotePreview(data).Render(e.Request.Context(), e.Response)
	}
}

// HandleQuoteCalc totals a quote request without saving it.
// Route: POST /api/quotes/calc
func HandleQuoteCalc(quotes *services.QuoteService) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req services.QuoteRequest
		if err := readJSON(e, &req); err != nil {
			return badJSON(e)
		}
		totals, err := quotes.Calc(req)
		if err != nil {
			return respondServiceError(e, "quote_calc", err)
		}
		return e.JSON(http.StatusOK, totals)
	}
}

// HandleQuoteCreate saves version 1 of a new quote. ?template=<id> fills
// blank fields from a saved template first.
// Route: POST /api/quotes
func HandleQuoteCreate(app *pocketbase.PocketBase, quotes *services.QuoteService) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req services.QuoteRequest
		if err := readJSON(e, &req); err != nil {
			return badJSON(e)
		}
		if id := e.Request.URL.Query().Get("template"); id != "" {
			tpl, err := services.GetTemplate(app, id)
			if err != nil {
				return respondServiceError(e, "quote_create", err)
			}
			req = tpl.Apply(req)
		}

		rec, err := quotes.Create(req, userID(e))
		if err != nil {
			return respondServiceError(e, "quote_create", err)
		}
		log.Printf("quote_create: created %s (%s)", rec.GetString("quote_number"), rec.Id)
		return e.JSON(http.StatusCreated, rec)
	}
}

// HandleQuoteUpdate edits a draft or open quote in place.
// Route: PUT /api/quotes/{id}
func HandleQuoteUpdate(quotes *services.QuoteService) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req services.QuoteRequest
		if err := readJSON(e, &req); err != nil {
			return badJSON(e)
		}
		rec, err := quotes.Update(e.Request.PathValue("id"), req)
		if err != nil {
			return respondServiceError(e, "quote_update", err)
		}
		return e.JSON(http.StatusOK, rec)
	}
}

// HandleQuoteVersion saves a new version of a quote. An empty body copies
// the source version unchanged.
// Route: POST /api/quotes/{id}/versions
func HandleQuoteVersion(quotes *services.QuoteService) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req services.QuoteRequest
		present, err := readOptionalJSON(e, &req)
		if err != nil {
			return badJSON(e)
		}
		var body *services.QuoteRequest
		if present {
			body = &req
		}
		rec, err := quotes.SaveVersion(e.Request.PathValue("id"), body, userID(e))
		if err != nil {
			return respondServiceError(e, "quote_version", err)
		}
		log.Printf("quote_version: saved %s v%d", rec.GetString("quote_number"), rec.GetInt("version"))
		return e.JSON(http.StatusCreated, rec)
	}
}
