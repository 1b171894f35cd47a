package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/services"
)

// HandleMakeList returns every equipment make.
// Route: GET /api/equipment/makes
func HandleMakeList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		makes, err := services.ListMakes(app)
		if err != nil {
			return respondServiceError(e, "make_list", err)
		}
		return e.JSON(http.StatusOK, makes)
	}
}

// HandleModelList returns the models of one make.
// Route: GET /api/equipment/makes/{makeId}/models
func HandleModelList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		models, err := services.ListModels(app, e.Request.PathValue("makeId"))
		if err != nil {
			return respondServiceError(e, "model_list", err)
		}
		return e.JSON(http.StatusOK, models)
	}
}

// HandleDimensionsGet returns a model's dimensions. A model without a
// dimensions row still answers with its classified type.
// Route: GET /api/equipment/models/{modelId}/dimensions
func HandleDimensionsGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		dims, err := services.GetDimensions(app, e.Request.PathValue("modelId"))
		if err != nil {
			return respondServiceError(e, "dimensions_get", err)
		}
		return e.JSON(http.StatusOK, dims)
	}
}

// HandleDimensionsSave creates or replaces a model's dimensions.
// Route: PUT /api/equipment/models/{modelId}/dimensions
func HandleDimensionsSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.DimensionsInput
		if err := readJSON(e, &in); err != nil {
			return badJSON(e)
		}
		dims, err := services.UpsertDimensions(app, e.Request.PathValue("modelId"), in)
		if err != nil {
			return respondServiceError(e, "dimensions_save", err)
		}
		return e.JSON(http.StatusOK, dims)
	}
}

// HandleModelCosts returns a model's cost schedules, optionally for one
// location (?location=houston).
// Route: GET /api/equipment/models/{modelId}/costs
func HandleModelCosts(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		location := e.Request.URL.Query().Get("location")
		if location != "" && !services.ValidLocation(location) {
			return respondError(e, http.StatusBadRequest, "Unknown location")
		}
		costs, err := services.ModelCosts(app, e.Request.PathValue("modelId"), services.Location(location))
		if err != nil {
			return respondServiceError(e, "model_costs", err)
		}
		return e.JSON(http.StatusOK, costs)
	}
}

type classifyResponse struct {
	EquipmentType services.EquipmentType `json:"equipment_type"`
	Label         string                 `json:"label"`
}

// HandleClassify classifies a make/model pair without saving anything.
// Route: GET /api/equipment/classify?make=..&model=..
func HandleClassify() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q := e.Request.URL.Query()
		if q.Get("make") == "" && q.Get("model") == "" {
			return respondError(e, http.StatusBadRequest, "make or model is required")
		}
		t := services.ClassifyEquipment(q.Get("make"), q.Get("model"))
		return e.JSON(http.StatusOK, classifyResponse{EquipmentType: t, Label: t.Label()})
	}
}
