package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/services"
)

type emailSent struct {
	Quote *core.Record `json:"quote"`
	// Attached is false when attach_pdf was not requested.
	Attached bool `json:"attached"`
}

// HandleQuoteEmail emails a quote to a customer, optionally with the PDF
// attached. A draft quote is marked sent once the email has gone out; that
// status change is best-effort and never fails the request.
// Route: POST /api/quotes/{id}/email, POST /api/inland/{id}/email
func HandleQuoteEmail(app *pocketbase.PocketBase, docs *services.Documents, notifier *services.Notifier, statuses *services.StatusService, kind services.QuoteKind) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		var in services.SendQuoteInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}
		if err := in.Validate(); err != nil {
			return respondServiceError(e, "quote_email", err)
		}

		rec, err := app.FindRecordById(kind.Collection(), id)
		if err != nil {
			return respondError(e, http.StatusNotFound, "Quote not found")
		}

		var pdf []byte
		var filename string
		if in.AttachPDF {
			pdf, filename, err = docs.PDF(kind, id)
			if err != nil {
				return respondServiceError(e, "quote_email", err)
			}
		}

		if err := notifier.SendQuote(e.Request.Context(), rec, in.To, in.Subject, in.Message, filename, pdf); err != nil {
			log.Printf("quote_email: send %s to %s: %v", rec.GetString("quote_number"), in.To, err)
			return respondError(e, http.StatusBadGateway, "The email could not be sent. Please try again.")
		}

		if services.QuoteStatus(rec.GetString("status")) == services.StatusDraft {
			updated, err := statuses.Change(e.Request.Context(), kind, id, services.StatusSent, userID(e), "Emailed to "+in.To)
			if err != nil {
				log.Printf("quote_email: mark %s sent: %v", id, err)
			} else {
				rec = updated
			}
		}

		return e.JSON(http.StatusOK, emailSent{Quote: rec, Attached: len(pdf) > 0})
	}
}

// HandleEmailLogList lists recent email attempts, optionally for one ?quote.
// Route: GET /api/email-logs
func HandleEmailLogList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		logs, err := services.ListEmailLogs(app, e.Request.URL.Query().Get("quote"), queryInt(e, "limit", 50))
		if err != nil {
			return respondServiceError(e, "email_logs", err)
		}
		return e.JSON(http.StatusOK, logs)
	}
}
