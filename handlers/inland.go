package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"equipquote/services"
)

// HandleInlandCalc totals an inland request and suggests a trailer without
// saving anything.
// Route: POST /api/inland/calc
func HandleInlandCalc(inland *services.InlandService) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req services.InlandRequest
		if err := readJSON(e, &req); err != nil {
			return badJSON(e)
		}
		calc, err := inland.Calc(req)
		if err != nil {
			return respondServiceError(e, "inland_calc", err)
		}
		return e.JSON(http.StatusOK, calc)
	}
}

// HandleInlandCreate saves version 1 of a new inland quote.
// Route: POST /api/inland
func HandleInlandCreate(inland *services.InlandService) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req services.InlandRequest
		if err := readJSON(e, &req); err != nil {
			return badJSON(e)
		}
		rec, err := inland.Create(req, userID(e))
		if err != nil {
			return respondServiceError(e, "inland_create", err)
		}
		log.Printf("inland_create: created %s (%s)", rec.GetString("quote_number"), rec.Id)
		return e.JSON(http.StatusCreated, rec)
	}
}

// HandleInlandUpdate edits an open inland quote in place.
// Route: PUT /api/inland/{id}
func HandleInlandUpdate(inland *services.InlandService) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req services.InlandRequest
		if err := readJSON(e, &req); err != nil {
			return badJSON(e)
		}
		rec, err := inland.Update(e.Request.PathValue("id"), req)
		if err != nil {
			return respondServiceError(e, "inland_update", err)
		}
		return e.JSON(http.StatusOK, rec)
	}
}

// HandleInlandVersion saves a new version of an inland quote.
// Route: POST /api/inland/{id}/versions
func HandleInlandVersion(inland *services.InlandService) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req services.InlandRequest
		present, err := readOptionalJSON(e, &req)
		if err != nil {
			return badJSON(e)
		}
		var body *services.InlandRequest
		if present {
			body = &req
		}
		rec, err := inland.SaveVersion(e.Request.PathValue("id"), body, userID(e))
		if err != nil {
			return respondServiceError(e, "inland_version", err)
		}
		return e.JSON(http.StatusCreated, rec)
	}
}
