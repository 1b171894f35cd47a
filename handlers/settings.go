package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/config"
	"equipquote/services"
)

// HandleSettingsGet returns the company settings merged over the
// environment defaults.
// Route: GET /api/company/settings
func HandleSettingsGet(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := services.LoadSettings(app, cfg)
		if err != nil {
			return respondServiceError(e, "settings_get", err)
		}
		return e.JSON(http.StatusOK, s)
	}
}

// HandleSettingsSave replaces the company settings. Omitting logo keeps the
// stored one; an empty string clears it.
// Route: PUT /api/company/settings
func HandleSettingsSave(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.SettingsInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}
		if err := in.Validate(); err != nil {
			return respondServiceError(e, "settings_save", err)
		}
		if err := services.SaveSettings(app, in); err != nil {
			return respondServiceError(e, "settings_save", err)
		}
		s, err := services.LoadSettings(app, cfg)
		if err != nil {
			return respondServiceError(e, "settings_save", err)
		}
		return e.JSON(http.StatusOK, s)
	}
}

// HandleTemplateList lists quote templates, the default first.
// Route: GET /api/templates
func HandleTemplateList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		list, err := services.ListTemplates(app)
		if err != nil {
			return respondServiceError(e, "template_list", err)
		}
		return e.JSON(http.StatusOK, list)
	}
}

// HandleTemplateGet returns one template.
// Route: GET /api/templates/{id}
func HandleTemplateGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		t, err := services.GetTemplate(app, e.Request.PathValue("id"))
		if err != nil {
			return respondServiceError(e, "template_get", err)
		}
		return e.JSON(http.StatusOK, t)
	}
}

// HandleTemplateSave creates a template, or replaces one when the route
// carries an id.
// Route: POST /api/templates, PUT /api/templates/{id}
func HandleTemplateSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.TemplateInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}
		id := e.Request.PathValue("id")
		t, err := services.SaveTemplate(app, id, in)
		if err != nil {
			return respondServiceError(e, "template_save", err)
		}
		status := http.StatusOK
		if id == "" {
			status = http.StatusCreated
		}
		return e.JSON(status, t)
	}
}

// HandleTemplateDelete removes a template.
// Route: DELETE /api/templates/{id}
func HandleTemplateDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := services.DeleteTemplate(app, e.Request.PathValue("id")); err != nil {
			return respondServiceError(e, "template_delete", err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

type currentUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

// HandleCurrentUser returns the signed-in user.
// Route: GET /api/user/me
func HandleCurrentUser() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if e.Auth == nil {
			return respondError(e, http.StatusUnauthorized, "Not signed in")
		}
		return e.JSON(http.StatusOK, currentUser{
			ID:       e.Auth.Id,
			Email:    e.Auth.Email(),
			Name:     e.Auth.GetString("name"),
			Verified: e.Auth.Verified(),
		})
	}
}
