package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/services"
)

// HandleReminderList lists follow-up reminders. ?scope is one of open (the
// default), due, overdue or all.
// Route: GET /api/reminders
func HandleReminderList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		scope := services.ReminderScope(e.Request.URL.Query().Get("scope"))
		switch scope {
		case "", services.ReminderScopeOpen, services.ReminderScopeDue,
			services.ReminderScopeOverdue, services.ReminderScopeAll:
		default:
			return respondError(e, http.StatusBadRequest, "Unknown reminder scope")
		}
		reminders, err := services.ListReminders(app, scope, time.Now())
		if err != nil {
			return respondServiceError(e, "reminder_list", err)
		}
		return e.JSON(http.StatusOK, reminders)
	}
}

// HandleReminderCreate saves a reminder.
// Route: POST /api/reminders
func HandleReminderCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.ReminderInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}
		r, err := services.CreateReminder(app, in, userID(e))
		if err != nil {
			return respondServiceError(e, "reminder_create", err)
		}
		return e.JSON(http.StatusCreated, r)
	}
}

// HandleReminderComplete marks a reminder done.
// Route: POST /api/reminders/{id}/complete
func HandleReminderComplete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		r, err := services.CompleteReminder(app, e.Request.PathValue("id"), time.Now())
		if err != nil {
			return respondServiceError(e, "reminder_complete", err)
		}
		return e.JSON(http.StatusOK, r)
	}
}

// HandleReminderDelete removes a reminder.
// Route: DELETE /api/reminders/{id}
func HandleReminderDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := services.DeleteReminder(app, e.Request.PathValue("id")); err != nil {
			return respondServiceError(e, "reminder_delete", err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleActivityList lists activity entries filtered by ?company, ?contact,
// ?quote and ?type.
// Route: GET /api/activity
func HandleActivityList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q := e.Request.URL.Query()
		entries, err := services.ListActivity(app, services.ActivityFilter{
			CompanyID: q.Get("company"),
			ContactID: q.Get("contact"),
			QuoteID:   q.Get("quote"),
			Type:      services.ActivityType(q.Get("type")),
			Limit:     queryInt(e, "limit", 100),
		})
		if err != nil {
			return respondServiceError(e, "activity_list", err)
		}
		return e.JSON(http.StatusOK, entries)
	}
}

// HandleActivityCreate records a manual call, email, meeting or note.
// Route: POST /api/activity
func HandleActivityCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.ActivityInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}
		if err := in.Validate(); err != nil {
			return respondServiceError(e, "activity_create", err)
		}
		a := services.Activity{
			Type:        services.ActivityType(in.Type),
			Subject:     in.Subject,
			Description: in.Description,
			CompanyID:   in.CompanyID,
			ContactID:   in.ContactID,
			QuoteID:     in.QuoteID,
			CreatedBy:   userID(e),
		}
		if err := services.LogActivity(app, a); err != nil {
			return respondServiceError(e, "activity_create", err)
		}
		return e.JSON(http.StatusCreated, a)
	}
}
