package constants

import (
	"strings"
)

// Panel groups lab tests the way report sheets usually do.
type Panel string

const (
	Renal        Panel = "Renal"
	Electrolyte  Panel = "Electrolyte"
	Diabetes     Panel = "Diabetes"
	Lipid        Panel = "Lipid"
	Hematology   Panel = "Hematology"
	Liver        Panel = "Liver"
	Thyroid      Panel = "Thyroid"
	Inflammation Panel = "Inflammation"
	Iron         Panel = "Iron"
	Other        Panel = "Other"
)

var allPanels = []Panel{
	Renal,
	Electrolyte,
	Diabetes,
	Lipid,
	Hematology,
	Liver,
	Thyroid,
	Inflammation,
	Iron,
	Other,
}

func PanelsAsStringSlice() []string {
	result := make([]string, len(allPanels))
	for i, p := range allPanels {
		result[i] = string(p)
	}
	return result
}

// CanonicalizePanel maps free-form input to a Panel. Unknown input yields Other, false.
func CanonicalizePanel(input string) (Panel, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Panel{
		"kidney":       Renal,
		"kft":          Renal,
		"lytes":        Electrolyte,
		"glucose":      Diabetes,
		"sugar":        Diabetes,
		"cholesterol":  Lipid,
		"cbc":          Hematology,
		"blood count":  Hematology,
		"lft":          Liver,
		"tft":          Thyroid,
		"inflammatory": Inflammation,
	}

	if p, ok := synonyms[normalized]; ok {
		return p, true
	}

	for _, p := range allPanels {
		if normalized == strings.ToLower(string(p)) {
			return p, true
		}
	}

	return Other, false
}
