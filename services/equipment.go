package services

import (
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

var ErrModelNotFound = errors.New("equipment model not found")

// Make is an equipment manufacturer.
type Make struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Model is one equipment model of a make.
type Model struct {
	ID     string `json:"id"`
	MakeID string `json:"make"`
	Name   string `json:"name"`
}

// Dimensions are the physical specs of a model. Images are base64 data URLs.
type Dimensions struct {
	ModelID       string        `json:"model"`
	LengthIn      float64       `json:"length_in"`
	WidthIn       float64       `json:"width_in"`
	HeightIn      float64       `json:"height_in"`
	WeightLbs     float64       `json:"weight_lbs"`
	FrontImage    string        `json:"front_image,omitempty"`
	SideImage     string        `json:"side_image,omitempty"`
	EquipmentType EquipmentType `json:"equipment_type"`
}

// ListMakes returns every make, sorted by name.
func ListMakes(app core.App) ([]Make, error) {
	records, err := app.FindRecordsByFilter("equipment_makes", "1=1", "name", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list makes: %w", err)
	}
	out := make([]Make, 0, len(records))
	for _, r := range records {
		out = append(out, Make{ID: r.Id, Name: r.GetString("name")})
	}
	return out, nil
}

// ListModels returns the models of a make, sorted by name.
func ListModels(app core.App, makeID string) ([]Model, error) {
	records, err := app.FindRecordsByFilter("equipment_models", "make = {:make}", "name", 0, 0,
		map[string]any{"make": makeID})
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	out := make([]Model, 0, len(records))
	for _, r := range records {
		out = append(out, Model{ID: r.Id, MakeID: r.GetString("make"), Name: r.GetString("name")})
	}
	return out, nil
}

// GetDimensions returns a model's dimensions. A model with no row yet comes
// back zeroed with its classified type.
func GetDimensions(app core.App, modelID string) (Dimensions, error) {
	if _, err := app.FindRecordById("equipment_models", modelID); err != nil {
		return Dimensions{}, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}
	rec, err := app.FindFirstRecordByData("equipment_dimensions", "model", modelID)
	if err != nil {
		kind, _ := ClassifyModel(app, modelID)
		return Dimensions{ModelID: modelID, EquipmentType: kind}, nil
	}
	return dimensionsFromRecord(rec), nil
}

func dimensionsFromRecord(rec *core.Record) Dimensions {
	return Dimensions{
		ModelID:       rec.GetString("model"),
		LengthIn:      rec.GetFloat("length_in"),
		WidthIn:       rec.GetFloat("width_in"),
		HeightIn:      rec.GetFloat("height_in"),
		WeightLbs:     rec.GetFloat("weight_lbs"),
		FrontImage:    rec.GetString("front_image"),
		SideImage:     rec.GetString("side_image"),
		EquipmentType: EquipmentType(rec.GetString("equipment_type")),
	}
}

// UpsertDimensions creates or replaces a model's dimensions. A blank type is
// filled in by the equipment_dimensions save hook.
func UpsertDimensions(app core.App, modelID string, in DimensionsInput) (Dimensions, error) {
	if err := in.Validate(); err != nil {
		return Dimensions{}, err
	}
	if _, err := app.FindRecordById("equipment_models", modelID); err != nil {
		return Dimensions{}, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}

	rec, err := app.FindFirstRecordByData("equipment_dimensions", "model", modelID)
	if err != nil {
		col, err := app.FindCollectionByNameOrId("equipment_dimensions")
		if err != nil {
			return Dimensions{}, fmt.Errorf("equipment_dimensions collection not found: %w", err)
		}
		rec = core.NewRecord(col)
		rec.Set("model", modelID)
	}

	rec.Set("length_in", in.LengthIn)
	rec.Set("width_in", in.WidthIn)
	rec.Set("height_in", in.HeightIn)
	rec.Set("weight_lbs", in.WeightLbs)
	rec.Set("front_image", in.FrontImage)
	rec.Set("side_image", in.SideImage)
	rec.Set("equipment_type", in.EquipmentType)
	if err := app.Save(rec); err != nil {
		return Dimensions{}, fmt.Errorf("save dimensions: %w", err)
	}
	return dimensionsFromRecord(rec), nil
}

// LocationCosts is the cost schedule of a model at every location that has
// one.
type LocationCosts struct {
	Location Location           `json:"location"`
	Label    string             `json:"label"`
	Costs    map[string]float64 `json:"costs"`
}

// ModelCosts returns a model's schedules. location narrows to one yard when
// set.
func ModelCosts(app core.App, modelID string, location Location) ([]LocationCosts, error) {
	filter, params := "model = {:model}", map[string]any{"model": modelID}
	if location != "" {
		filter += " && location = {:location}"
		params["location"] = string(location)
	}
	records, err := app.FindRecordsByFilter("location_costs", filter, "location", 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("load location costs: %w", err)
	}
	out := make([]LocationCosts, 0, len(records))
	for _, r := range records {
		loc := Location(r.GetString("location"))
		costs := map[string]float64{}
		for f, v := range ScheduleFromRecord(r) {
			costs[string(f)] = v
		}
		out = append(out, LocationCosts{Location: loc, Label: loc.Label(), Costs: costs})
	}
	return out, nil
}
