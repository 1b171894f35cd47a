package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// UnassignedCompanyName is the fallback company for contacts whose company
// cannot be resolved.
const UnassignedCompanyName = "Unassigned"

// ── Definition structs ───────────────────────────────────────────────────

type costDef struct {
	location string
	costs    map[string]float64
}

type modelDef struct {
	name                        string
	lengthIn, widthIn, heightIn float64
	weightLbs                   float64
	costs                       []costDef
}

type makeDef struct {
	name   string
	models []modelDef
}

// seedCatalog is a starter equipment catalog so quotes can be priced on a
// fresh install. Silhouette types are filled in by the classification backfill.
var seedCatalog = []makeDef{
	{
		name: "Caterpillar",
		models: []modelDef{
			{
				name: "320", lengthIn: 374, widthIn: 125, heightIn: 118, weightLbs: 49000,
				costs: []costDef{
					{"new_jersey", map[string]float64{"loading": 850, "blocking_bracing": 350, "survey": 150, "drayage": 1200, "chassis": 250, "tolls": 75}},
					{"houston", map[string]float64{"loading": 800, "blocking_bracing": 325, "drayage": 950, "chassis": 225, "tolls": 40}},
				},
			},
			{
				name: "140M", lengthIn: 350, widthIn: 100, heightIn: 130, weightLbs: 43000,
				costs: []costDef{
					{"savannah", map[string]float64{"loading": 900, "blocking_bracing": 400, "drayage": 1100, "escorts": 600}},
				},
			},
		},
	},
	{
		name: "Bobcat",
		models: []modelDef{
			{
				name: "S650", lengthIn: 134, widthIn: 72, heightIn: 81, weightLbs: 8000,
				costs: []costDef{
					{"new_jersey", map[string]float64{"loading": 300, "blocking_bracing": 150, "drayage": 600, "power_wash": 120}},
					{"chicago", map[string]float64{"loading": 275, "blocking_bracing": 125, "drayage": 550}},
				},
			},
			{
				name: "T770", lengthIn: 146, widthIn: 78, heightIn: 82, weightLbs: 10300,
				costs: []costDef{
					{"chicago", map[string]float64{"loading": 325, "blocking_bracing": 150, "drayage": 575}},
				},
			},
		},
	},
	{
		name: "Komatsu",
		models: []modelDef{
			{
				name: "PC210", lengthIn: 372, widthIn: 112, heightIn: 120, weightLbs: 48000,
				costs: []costDef{
					{"long_beach", map[string]float64{"loading": 875, "blocking_bracing": 375, "survey": 175, "drayage": 1300, "waste_fluids": 90}},
				},
			},
		},
	},
	{
		name: "John Deere",
		models: []modelDef{
			{
				name: "850K", lengthIn: 215, widthIn: 118, heightIn: 125, weightLbs: 45000,
				costs: []costDef{
					{"oakland", map[string]float64{"loading": 950, "blocking_bracing": 400, "drayage": 1250, "escorts": 450}},
				},
			},
		},
	},
	{
		name: "Volvo",
		models: []modelDef{
			{
				name: "L120H", lengthIn: 330, widthIn: 110, heightIn: 138, weightLbs: 43000,
				costs: []costDef{
					{"savannah", map[string]float64{"loading": 780, "blocking_bracing": 300, "drayage": 1050}},
				},
			},
		},
	},
}

// Seed populates the equipment catalog, the Unassigned company and the
// default company settings row. Each part is skipped when data already exists.
func Seed(app core.App) error {
	if err := seedUnassignedCompany(app); err != nil {
		return err
	}
	if err := seedCompanySettings(app); err != nil {
		return err
	}
	return seedEquipmentCatalog(app)
}

func seedUnassignedCompany(app core.App) error {
	existing, _ := app.FindFirstRecordByData("companies", "name", UnassignedCompanyName)
	if existing != nil {
		return nil
	}

	col, err := app.FindCollectionByNameOrId("companies")
	if err != nil {
		return fmt.Errorf("seed: could not find companies collection: %w", err)
	}

	record := core.NewRecord(col)
	record.Set("name", UnassignedCompanyName)
	record.Set("status", "inactive")
	record.Set("notes", "Holds contacts whose company could not be resolved.")
	if err := app.Save(record); err != nil {
		return fmt.Errorf("seed: failed to create Unassigned company: %w", err)
	}

	log.Printf("seed: created %q company (%s)\n", UnassignedCompanyName, record.Id)
	return nil
}

func seedCompanySettings(app core.App) error {
	col, err := app.FindCollectionByNameOrId("company_settings")
	if err != nil {
		return fmt.Errorf("seed: could not find company_settings collection: %w", err)
	}

	existing, err := app.FindAllRecords(col)
	if err == nil && len(existing) > 0 {
		return nil
	}

	record := core.NewRecord(col)
	record.Set("show_margin", false)
	record.Set("pdf_renderer", "raster")
	if err := app.Save(record); err != nil {
		return fmt.Errorf("seed: failed to create company settings: %w", err)
	}

	log.Println("seed: created default company settings")
	return nil
}

func seedEquipmentCatalog(app core.App) error {
	makesCol, err := app.FindCollectionByNameOrId("equipment_makes")
	if err != nil {
		return fmt.Errorf("seed: could not find equipment_makes collection: %w", err)
	}

	count, err := app.CountRecords(makesCol)
	if err == nil && count > 0 {
		log.Println("seed: equipment catalog already present, skipping.")
		return nil
	}

	modelsCol, err := app.FindCollectionByNameOrId("equipment_models")
	if err != nil {
		return fmt.Errorf("seed: could not find equipment_models collection: %w", err)
	}
	dimsCol, err := app.FindCollectionByNameOrId("equipment_dimensions")
	if err != nil {
		return fmt.Errorf("seed: could not find equipment_dimensions collection: %w", err)
	}
	costsCol, err := app.FindCollectionByNameOrId("location_costs")
	if err != nil {
		return fmt.Errorf("seed: could not find location_costs collection: %w", err)
	}

	models := 0
	err = app.RunInTransaction(func(txApp core.App) error {
		for _, md := range seedCatalog {
			mk := core.NewRecord(makesCol)
			mk.Set("name", md.name)
			if err := txApp.Save(mk); err != nil {
				return fmt.Errorf("seed: make %q: %w", md.name, err)
			}

			for _, mod := range md.models {
				m := core.NewRecord(modelsCol)
				m.Set("make", mk.Id)
				m.Set("name", mod.name)
				if err := txApp.Save(m); err != nil {
					return fmt.Errorf("seed: model %s %s: %w", md.name, mod.name, err)
				}

				dims := core.NewRecord(dimsCol)
				dims.Set("model", m.Id)
				dims.Set("length_in", mod.lengthIn)
				dims.Set("width_in", mod.widthIn)
				dims.Set("height_in", mod.heightIn)
				dims.Set("weight_lbs", mod.weightLbs)
				if err := txApp.Save(dims); err != nil {
					return fmt.Errorf("seed: dimensions %s %s: %w", md.name, mod.name, err)
				}

				for _, cd := range mod.costs {
					lc := core.NewRecord(costsCol)
					lc.Set("model", m.Id)
					lc.Set("location", cd.location)
					for field, amount := range cd.costs {
						lc.Set(field, amount)
					}
					if err := txApp.Save(lc); err != nil {
						return fmt.Errorf("seed: costs %s %s @ %s: %w", md.name, mod.name, cd.location, err)
					}
				}
				models++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("seed: created equipment catalog with %d makes and %d models\n", len(seedCatalog), models)
	return nil
}
