package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"equipquote/services"
)

// genericError is shown for anything the client cannot act on.
const genericError = "Something went wrong. Please try again."

// errorBody is the JSON shape of every failed request. Fields is set for
// validation failures and maps the request's json field names to messages.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondError writes {"error": message} with the given status.
func respondError(e *core.RequestEvent, status int, message string) error {
	return e.JSON(status, errorBody{Error: message})
}

// errorStatuses maps service sentinels to HTTP statuses. The first match
// wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrQuoteNotFound, http.StatusNotFound},
	{services.ErrModelNotFound, http.StatusNotFound},
	{services.ErrCompanyNotFound, http.StatusNotFound},
	{services.ErrContactNotFound, http.StatusNotFound},
	{services.ErrCustomerNotFound, http.StatusNotFound},
	{services.ErrReminderNotFound, http.StatusNotFound},
	{services.ErrTemplateNotFound, http.StatusNotFound},
	{services.ErrQuoteLocked, http.StatusConflict},
	{services.ErrInvalidTransition, http.StatusConflict},
	{services.ErrProtectedCompany, http.StatusConflict},
	{services.ErrUnsupportedTable, http.StatusBadRequest},
	{services.ErrEmptyFile, http.StatusUnprocessableEntity},
	{services.ErrMissingRequiredMappings, http.StatusUnprocessableEntity},
}

// respondServiceError turns a service error into a response. Validation
// errors become 400 with per-field messages, known sentinels get their own
// status, and everything else is logged under scope and hidden behind a
// generic 500.
func respondServiceError(e *core.RequestEvent, scope string, err error) error {
	if fields := services.FieldErrors(err); fields != nil {
		return e.JSON(http.StatusBadRequest, errorBody{
			Error:  "Please correct the highlighted fields",
			Fields: fields,
		})
	}
	for _, m := range errorStatuses {
		if !errors.Is(err, m.err) {
			continue
		}
		msg := m.err.Error()
		if m.status != http.StatusNotFound {
			msg = err.Error()
		}
		return respondError(e, m.status, capitalize(msg))
	}
	log.Printf("%s: %v", scope, err)
	return respondError(e, http.StatusInternalServerError, genericError)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// readJSON decodes the request body into dst.
func readJSON(e *core.RequestEvent, dst any) error {
	if e.Request.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(e.Request.Body).Decode(dst)
}

// readOptionalJSON decodes the body into dst when there is one. It reports
// whether a body was present.
func readOptionalJSON(e *core.RequestEvent, dst any) (bool, error) {
	if e.Request.Body == nil {
		return false, nil
	}
	raw, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return false, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

// badJSON is the response for a body that does not decode.
func badJSON(e *core.RequestEvent) error {
	return respondError(e, http.StatusBadRequest, "Invalid request body")
}

// userID returns the authenticated user's id, or "" for guests.
func userID(e *core.RequestEvent) string {
	if e.Auth == nil {
		return ""
	}
	return e.Auth.Id
}

// queryInt reads an integer query parameter, falling back to def when it is
// missing or malformed.
func queryInt(e *core.RequestEvent, key string, def int) int {
	raw := e.Request.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return def
	}
	return n
}

// queryBool reads a boolean query parameter ("1", "true", ...).
func queryBool(e *core.RequestEvent, key string) bool {
	return cast.ToBool(e.Request.URL.Query().Get(key))
}

// listOptions reads the shared q/status/limit/offset query parameters.
func listOptions(e *core.RequestEvent) services.ListOptions {
	q := e.Request.URL.Query()
	return services.ListOptions{
		Query:  q.Get("q"),
		Status: q.Get("status"),
		Limit:  queryInt(e, "limit", 50),
		Offset: queryInt(e, "offset", 0),
	}
}

// sendFile writes a download with a Content-Disposition filename.
func sendFile(e *core.RequestEvent, contentType, filename string, data []byte) error {
	e.Response.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return e.Blob(http.StatusOK, contentType, data)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
