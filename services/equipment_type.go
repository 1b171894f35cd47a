package services

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/pocketbase/pocketbase/core"
)

// EquipmentType is the silhouette category drawn on quotes.
type EquipmentType string

const (
	EquipmentExcavator            EquipmentType = "excavator"
	EquipmentWheelLoader          EquipmentType = "wheel_loader"
	EquipmentBulldozer            EquipmentType = "bulldozer"
	EquipmentSkidSteer            EquipmentType = "skid_steer"
	EquipmentCompactTrackLoader   EquipmentType = "compact_track_loader"
	EquipmentBackhoe              EquipmentType = "backhoe"
	EquipmentTelehandler          EquipmentType = "telehandler"
	EquipmentArticulatedDumpTruck EquipmentType = "articulated_dump_truck"
	EquipmentMotorGrader          EquipmentType = "motor_grader"
	EquipmentRoller               EquipmentType = "roller"
	EquipmentForklift             EquipmentType = "forklift"
	EquipmentCrane                EquipmentType = "crane"
	EquipmentOther                EquipmentType = "other"
)

// EquipmentTypes lists every category, "other" last.
var EquipmentTypes = []EquipmentType{
	EquipmentExcavator, EquipmentWheelLoader, EquipmentBulldozer, EquipmentSkidSteer,
	EquipmentCompactTrackLoader, EquipmentBackhoe, EquipmentTelehandler,
	EquipmentArticulatedDumpTruck, EquipmentMotorGrader, EquipmentRoller,
	EquipmentForklift, EquipmentCrane, EquipmentOther,
}

// Label returns the display name, e.g. "Wheel Loader".
func (t EquipmentType) Label() string {
	if t == EquipmentArticulatedDumpTruck {
		return "Articulated Dump Truck"
	}
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ValidEquipmentType reports whether s is a known category.
func ValidEquipmentType(s string) bool {
	for _, t := range EquipmentTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// classifierRule matches either a model-number pattern for specific makes or
// a keyword anywhere in "make model".
type classifierRule struct {
	kind  EquipmentType
	makes []string
	model *regexp.Regexp
}

func (r classifierRule) matches(makeName, modelName, combined string) bool {
	if len(r.makes) == 0 {
		return r.model.MatchString(combined)
	}
	padded := " " + makeName + " "
	for _, m := range r.makes {
		if strings.Contains(padded, " "+m+" ") {
			return r.model.MatchString(modelName)
		}
	}
	return false
}

func makeRule(kind EquipmentType, makes string, pattern string) classifierRule {
	return classifierRule{kind: kind, makes: strings.Split(makes, ","), model: regexp.MustCompile(pattern)}
}

func keywordRule(kind EquipmentType, pattern string) classifierRule {
	return classifierRule{kind: kind, model: regexp.MustCompile(pattern)}
}

// classifierRules are evaluated in order; the first match wins. Categories
// appear in priority order so excavators shadow wheel loaders and so on.
var classifierRules = []classifierRule{
	makeRule(EquipmentExcavator, "caterpillar,cat", `^3[0-9]{2}`),
	makeRule(EquipmentExcavator, "komatsu", `^pc[0-9]`),
	makeRule(EquipmentExcavator, "hitachi", `^(zx|ex)[0-9]`),
	makeRule(EquipmentExcavator, "volvo", `^(ec|ew)[0-9]`),
	makeRule(EquipmentExcavator, "kobelco", `^sk[0-9]`),
	makeRule(EquipmentExcavator, "doosan,develon", `^dx[0-9]`),
	makeRule(EquipmentExcavator, "hyundai", `^(r|hx)[0-9]`),
	makeRule(EquipmentExcavator, "case", `^cx[0-9]`),
	makeRule(EquipmentExcavator, "bobcat", `^e[0-9]{2}`),
	makeRule(EquipmentExcavator, "john deere,deere", `^(35|50|60|75|85|130|135|160|170|210|245|250|345|350|380|470|670|870)[gp]\b`),
	makeRule(EquipmentExcavator, "jcb", `^js[0-9]`),
	makeRule(EquipmentExcavator, "kubota", `^(kx|u)[0-9]`),
	keywordRule(EquipmentExcavator, `excavator|\bdigger\b`),

	makeRule(EquipmentWheelLoader, "caterpillar,cat", `^9[0-9]{2}`),
	makeRule(EquipmentWheelLoader, "komatsu", `^wa[0-9]`),
	makeRule(EquipmentWheelLoader, "volvo", `^l[0-9]{2,3}`),
	makeRule(EquipmentWheelLoader, "john deere,deere", `^(444|524|544|624|644|724|744|824|844)[a-z]`),
	makeRule(EquipmentWheelLoader, "case", `^(521|621|721|821|921)`),
	keywordRule(EquipmentWheelLoader, `wheel\s*loader`),

	makeRule(EquipmentBulldozer, "caterpillar,cat", `^d[0-9]{1,2}`),
	makeRule(EquipmentBulldozer, "komatsu", `^d[0-9]{2,3}`),
	makeRule(EquipmentBulldozer, "john deere,deere", `^(450|550|650|700|750|850|950|1050)[a-z]`),
	keywordRule(EquipmentBulldozer, `dozer`),

	makeRule(EquipmentSkidSteer, "bobcat", `^s[0-9]{3}`),
	makeRule(EquipmentSkidSteer, "caterpillar,cat", `^(216|226|232|236|242|246|262|272)`),
	makeRule(EquipmentSkidSteer, "john deere,deere", `^(312|314|316|317|318|319|320|324|326|330|332)[a-z]?$`),
	makeRule(EquipmentSkidSteer, "case", `^sv?r[0-9]`),
	keywordRule(EquipmentSkidSteer, `skid\s*steer`),

	makeRule(EquipmentCompactTrackLoader, "bobcat", `^t[0-9]{3}`),
	makeRule(EquipmentCompactTrackLoader, "caterpillar,cat", `^(239|249|259|279|289|299)`),
	makeRule(EquipmentCompactTrackLoader, "kubota", `^svl[0-9]`),
	makeRule(EquipmentCompactTrackLoader, "john deere,deere", `^(323|325|329|331|333)[a-z]?$`),
	makeRule(EquipmentCompactTrackLoader, "case", `^tv?r[0-9]`),
	keywordRule(EquipmentCompactTrackLoader, `track\s*loader|\bctl\b`),

	makeRule(EquipmentBackhoe, "caterpillar,cat", `^4[1-5][0-9]`),
	makeRule(EquipmentBackhoe, "jcb", `^[34]cx`),
	makeRule(EquipmentBackhoe, "case", `^5[0-9]{2}[a-z]{1,2}\b`),
	makeRule(EquipmentBackhoe, "john deere,deere", `^(310|315|410|710)[a-z]`),
	keywordRule(EquipmentBackhoe, `backhoe`),

	makeRule(EquipmentTelehandler, "caterpillar,cat", `^th[0-9]`),
	makeRule(EquipmentTelehandler, "jcb", `^5[0-9]{2}-[0-9]+`),
	makeRule(EquipmentTelehandler, "jlg,genie,skytrak,manitou", `.`),
	keywordRule(EquipmentTelehandler, `telehandler|telescopic`),

	makeRule(EquipmentArticulatedDumpTruck, "caterpillar,cat", `^7[2-4][0-9]`),
	makeRule(EquipmentArticulatedDumpTruck, "volvo", `^a[0-9]{2}`),
	makeRule(EquipmentArticulatedDumpTruck, "komatsu", `^hm[0-9]`),
	makeRule(EquipmentArticulatedDumpTruck, "bell", `^b[0-9]{2}`),
	keywordRule(EquipmentArticulatedDumpTruck, `articulated|dump\s*truck|\badt\b`),

	makeRule(EquipmentMotorGrader, "caterpillar,cat", `^1[2-6][0-9]?[mhk]\b`),
	makeRule(EquipmentMotorGrader, "komatsu", `^gd[0-9]`),
	makeRule(EquipmentMotorGrader, "volvo", `^g[0-9]{3}`),
	makeRule(EquipmentMotorGrader, "john deere,deere", `^(620|622|670|672|770|772|870|872)[a-z]`),
	keywordRule(EquipmentMotorGrader, `grader`),

	makeRule(EquipmentRoller, "caterpillar,cat", `^(cb|cs|cp|cw)[0-9]`),
	makeRule(EquipmentRoller, "volvo", `^(sd|dd)[0-9]`),
	makeRule(EquipmentRoller, "hamm,bomag,dynapac,sakai", `.`),
	keywordRule(EquipmentRoller, `roller|compactor`),

	makeRule(EquipmentForklift, "caterpillar,cat", `^(dp|gp|ep)[0-9]`),
	makeRule(EquipmentForklift, "toyota,hyster,yale,clark,crown,linde", `.`),
	keywordRule(EquipmentForklift, `fork\s*lift|lift\s*truck`),

	makeRule(EquipmentCrane, "grove,manitowoc,tadano,link-belt,link belt,terex", `.`),
	makeRule(EquipmentCrane, "liebherr", `^(ltm|lr|ltc)`),
	keywordRule(EquipmentCrane, `crane`),
}

// ClassifyEquipment returns the silhouette category for a make and model,
// or "other" when no rule matches. It is a pure function.
func ClassifyEquipment(makeName, modelName string) EquipmentType {
	mk := strings.ToLower(strings.TrimSpace(makeName))
	md := strings.ToLower(strings.TrimSpace(modelName))
	combined := strings.TrimSpace(mk + " " + md)

	for _, r := range classifierRules {
		if r.matches(mk, md, combined) {
			return r.kind
		}
	}
	return EquipmentOther
}

// ClassifyModel looks up a model's make and classifies it.
func ClassifyModel(app core.App, modelID string) (EquipmentType, error) {
	model, err := app.FindRecordById("equipment_models", modelID)
	if err != nil {
		return "", fmt.Errorf("model not found: %w", err)
	}
	mk, err := app.FindRecordById("equipment_makes", model.GetString("make"))
	if err != nil {
		return "", fmt.Errorf("make not found: %w", err)
	}
	return ClassifyEquipment(mk.GetString("name"), model.GetString("name")), nil
}

// BackfillEquipmentTypes classifies every equipment_dimensions row that has
// no type yet. Safe to call on every startup.
func BackfillEquipmentTypes(app core.App) (int, error) {
	pending, err := app.FindRecordsByFilter("equipment_dimensions", "equipment_type = ''", "", 0, 0, nil)
	if err != nil {
		return 0, fmt.Errorf("backfill: could not query dimensions: %w", err)
	}

	updated := 0
	for _, dims := range pending {
		kind, err := ClassifyModel(app, dims.GetString("model"))
		if err != nil {
			log.Printf("backfill: skipping dimensions %s: %v\n", dims.Id, err)
			continue
		}
		dims.Set("equipment_type", string(kind))
		if err := app.Save(dims); err != nil {
			log.Printf("backfill: failed to save dimensions %s: %v\n", dims.Id, err)
			continue
		}
		updated++
	}

	if updated > 0 {
		log.Printf("backfill: classified %d equipment dimension record(s)\n", updated)
	}
	return updated, nil
}

// BindEquipmentHooks classifies equipment_dimensions on create or update
// when the type was left blank.
func BindEquipmentHooks(app core.App) {
	classify := func(e *core.RecordEvent) error {
		if e.Record.GetString("equipment_type") == "" && e.Record.GetString("model") != "" {
			if kind, err := ClassifyModel(e.App, e.Record.GetString("model")); err == nil {
				e.Record.Set("equipment_type", string(kind))
			}
		}
		return e.Next()
	}
	app.OnRecordCreate("equipment_dimensions").BindFunc(classify)
	app.OnRecordUpdate("equipment_dimensions").BindFunc(classify)
}
