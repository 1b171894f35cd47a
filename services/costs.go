package services

import (
	"github.com/pocketbase/pocketbase/core"
)

// CostField identifies one per-location cost column.
type CostField string

const (
	CostLoading         CostField = "loading"
	CostBlockingBracing CostField = "blocking_bracing"
	CostSurvey          CostField = "survey"
	CostDrayage         CostField = "drayage"
	CostChassis         CostField = "chassis"
	CostTolls           CostField = "tolls"
	CostEscorts         CostField = "escorts"
	CostPowerWash       CostField = "power_wash"
	CostWasteFluids     CostField = "waste_fluids"
	CostMiscellaneous   CostField = "miscellaneous"
)

// CostFields lists every cost field in display order.
var CostFields = []CostField{
	CostLoading, CostBlockingBracing, CostSurvey, CostDrayage, CostChassis,
	CostTolls, CostEscorts, CostPowerWash, CostWasteFluids, CostMiscellaneous,
}

var costFieldLabels = map[CostField]string{
	CostLoading:         "Loading",
	CostBlockingBracing: "Blocking & Bracing",
	CostSurvey:          "Survey",
	CostDrayage:         "Drayage",
	CostChassis:         "Chassis",
	CostTolls:           "Tolls",
	CostEscorts:         "Escorts",
	CostPowerWash:       "Power Wash",
	CostWasteFluids:     "Waste Fluids",
	CostMiscellaneous:   "Miscellaneous",
}

// Label returns the human-readable name printed on quotes.
func (f CostField) Label() string {
	if l, ok := costFieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// ParseCostField reports whether s names a known cost field.
func ParseCostField(s string) (CostField, bool) {
	f := CostField(s)
	_, ok := costFieldLabels[f]
	return f, ok
}

// CostSchedule holds the per-location amounts. An absent key means no value.
type CostSchedule map[CostField]float64

// CostToggle holds the per-field enabled flags. An absent key means enabled.
type CostToggle map[CostField]bool

// Enabled reports whether f is switched on.
func (t CostToggle) Enabled(f CostField) bool {
	v, ok := t[f]
	return !ok || v
}

// Location identifies a dismantling yard.
type Location string

var locationLabels = map[Location]string{
	"new_jersey": "New Jersey",
	"savannah":   "Savannah",
	"houston":    "Houston",
	"chicago":    "Chicago",
	"oakland":    "Oakland",
	"long_beach": "Long Beach",
}

// Label returns the display name of the location.
func (l Location) Label() string {
	if s, ok := locationLabels[l]; ok {
		return s
	}
	return string(l)
}

// ValidLocation reports whether s is a known location.
func ValidLocation(s string) bool {
	_, ok := locationLabels[Location(s)]
	return ok
}

// ScheduleFromRecord reads a location_costs record into a schedule. Zero
// columns are left out.
func ScheduleFromRecord(rec *core.Record) CostSchedule {
	s := CostSchedule{}
	for _, f := range CostFields {
		if v := rec.GetFloat(string(f)); v != 0 {
			s[f] = v
		}
	}
	return s
}

// FindLocationCosts returns the cost schedule for a model at a location.
func FindLocationCosts(app core.App, modelID string, location Location) (CostSchedule, error) {
	rec, err := app.FindFirstRecordByFilter(
		"location_costs",
		"model = {:model} && location = {:location}",
		map[string]any{"model": modelID, "location": string(location)},
	)
	if err != nil {
		return nil, err
	}
	return ScheduleFromRecord(rec), nil
}

// scheduleFromMap converts loosely typed JSON keys into a schedule, dropping
// unknown field names.
func scheduleFromMap(m map[string]float64) CostSchedule {
	s := CostSchedule{}
	for k, v := range m {
		if f, ok := ParseCostField(k); ok {
			s[f] = v
		}
	}
	return s
}

func toggleFromMap(m map[string]bool) CostToggle {
	t := CostToggle{}
	for k, v := range m {
		if f, ok := ParseCostField(k); ok {
			t[f] = v
		}
	}
	return t
}
