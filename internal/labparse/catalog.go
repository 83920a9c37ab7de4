package labparse

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/labs-tracker/constants"
)

// TestDef is one known lab test: its canonical key and the surface forms reports use for it.
type TestDef struct {
	Key        string
	Panel      constants.Panel
	Variations []string
}

var defaultTests = []TestDef{
	{Key: "eGFR", Panel: constants.Renal, Variations: []string{"eGFR", "GFR", "e-GFR"}},
	{Key: "CRE", Panel: constants.Renal, Variations: []string{"CRE", "Cr", "Creat", "Creatinine"}},
	{Key: "BUN", Panel: constants.Renal, Variations: []string{"BUN", "Blood Urea Nitrogen"}},
	{Key: "Urea", Panel: constants.Renal, Variations: []string{"Urea"}},
	{Key: "UA", Panel: constants.Renal, Variations: []string{"UA", "Uric Acid"}},
	{Key: "Na", Panel: constants.Electrolyte, Variations: []string{"Na", "Sodium"}},
	{Key: "K", Panel: constants.Electrolyte, Variations: []string{"K", "Potassium"}},
	{Key: "Cl", Panel: constants.Electrolyte, Variations: []string{"Cl", "Chloride"}},
	{Key: "Ca", Panel: constants.Electrolyte, Variations: []string{"Ca", "Calcium"}},
	{Key: "Mg", Panel: constants.Electrolyte, Variations: []string{"Mg", "Magnesium"}},
	{Key: "Phos", Panel: constants.Electrolyte, Variations: []string{"Phos", "Phosphorus", "PO4"}},
	{Key: "Glu", Panel: constants.Diabetes, Variations: []string{"Glu", "Glucose", "FBS", "BS"}},
	{Key: "HbA1c", Panel: constants.Diabetes, Variations: []string{"HbA1c", "A1c", "Hb A1c", "Glycated Hemoglobin"}},
	{Key: "Chol", Panel: constants.Lipid, Variations: []string{"Chol", "Cholesterol", "TC"}},
	{Key: "TG", Panel: constants.Lipid, Variations: []string{"TG", "Triglyceride", "Triglycerides"}},
	{Key: "HDL", Panel: constants.Lipid, Variations: []string{"HDL", "HDL-C"}},
	{Key: "LDL", Panel: constants.Lipid, Variations: []string{"LDL", "LDL-C"}},
	{Key: "WBC", Panel: constants.Hematology, Variations: []string{"WBC", "White Blood Cells"}},
	{Key: "RBC", Panel: constants.Hematology, Variations: []string{"RBC", "Red Blood Cells"}},
	{Key: "Hb", Panel: constants.Hematology, Variations: []string{"Hb", "Hgb", "Hemoglobin"}},
	{Key: "Hct", Panel: constants.Hematology, Variations: []string{"Hct", "Hematocrit"}},
	{Key: "PLT", Panel: constants.Hematology, Variations: []string{"PLT", "Platelets", "Platelet"}},
	{Key: "MCV", Panel: constants.Hematology, Variations: []string{"MCV"}},
	{Key: "MCH", Panel: constants.Hematology, Variations: []string{"MCH"}},
	{Key: "MCHC", Panel: constants.Hematology, Variations: []string{"MCHC"}},
	{Key: "AST", Panel: constants.Liver, Variations: []string{"AST", "SGOT"}},
	{Key: "ALT", Panel: constants.Liver, Variations: []string{"ALT", "SGPT"}},
	{Key: "ALP", Panel: constants.Liver, Variations: []string{"ALP", "Alk Phos", "Alkaline Phosphatase"}},
	{Key: "Bili", Panel: constants.Liver, Variations: []string{"Bili", "T.Bil", "Total Bilirubin", "Bilirubin"}},
	{Key: "Alb", Panel: constants.Liver, Variations: []string{"Alb", "Albumin"}},
	{Key: "TSH", Panel: constants.Thyroid, Variations: []string{"TSH"}},
	{Key: "T3", Panel: constants.Thyroid, Variations: []string{"T3"}},
	{Key: "T4", Panel: constants.Thyroid, Variations: []string{"T4"}},
	{Key: "CRP", Panel: constants.Inflammation, Variations: []string{"CRP", "hs-CRP"}},
	{Key: "ESR", Panel: constants.Inflammation, Variations: []string{"ESR"}},
	{Key: "Ferritin", Panel: constants.Iron, Variations: []string{"Ferritin"}},
	{Key: "Fe", Panel: constants.Iron, Variations: []string{"Fe", "Iron", "Serum Iron"}},
	{Key: "VitD", Panel: constants.Other, Variations: []string{"VitD", "Vit D", "Vitamin D", "25-OH Vit D"}},
	{Key: "B12", Panel: constants.Other, Variations: []string{"B12", "Vit B12", "Vitamin B12"}},
}

// Catalog resolves surface forms to canonical test keys. It is read-only after construction.
type Catalog struct {
	tests   []TestDef
	byKey   map[string]TestDef
	bySurf  map[string]string
	surface []string
	known   *regexp.Regexp
}

var defaultCatalog = NewCatalog(defaultTests)

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog { return defaultCatalog }

// NewCatalog indexes defs. Later definitions never override a surface form claimed by an earlier one.
func NewCatalog(defs []TestDef) *Catalog {
	c := &Catalog{
		tests:  append([]TestDef(nil), defs...),
		byKey:  make(map[string]TestDef, len(defs)),
		bySurf: make(map[string]string),
	}
	for _, d := range c.tests {
		c.byKey[strings.ToUpper(d.Key)] = d
		forms := append([]string{d.Key}, d.Variations...)
		for _, f := range forms {
			u := strings.ToUpper(f)
			if _, taken := c.bySurf[u]; taken {
				continue
			}
			c.bySurf[u] = d.Key
			c.surface = append(c.surface, f)
		}
	}
	// Longest first so the alternation prefers "HbA1c" over "Hb".
	sort.SliceStable(c.surface, func(i, j int) bool {
		return len(c.surface[i]) > len(c.surface[j])
	})
	c.known = compileKnownPattern(c.surface)
	return c
}

// Canonical maps a surface form to its catalog key (case-insensitive).
func (c *Catalog) Canonical(name string) (string, bool) {
	key, ok := c.bySurf[strings.ToUpper(strings.TrimSpace(name))]
	return key, ok
}

// CanonicalOrSelf returns the catalog key for name, or name unchanged when it is unknown.
func (c *Catalog) CanonicalOrSelf(name string) string {
	if key, ok := c.Canonical(name); ok {
		return key
	}
	return name
}

// Lookup returns the definition for a canonical key.
func (c *Catalog) Lookup(key string) (TestDef, bool) {
	d, ok := c.byKey[strings.ToUpper(key)]
	return d, ok
}

// Variations returns every surface form for key, or just key when it is not in the catalog.
func (c *Catalog) Variations(key string) []string {
	d, ok := c.Lookup(key)
	if !ok {
		return []string{key}
	}
	out := []string{d.Key}
	for _, v := range d.Variations {
		if !strings.EqualFold(v, d.Key) {
			out = append(out, v)
		}
	}
	return out
}

// PanelOf returns the panel for a test name, Other when unknown.
func (c *Catalog) PanelOf(name string) constants.Panel {
	if key, ok := c.Canonical(name); ok {
		return c.byKey[strings.ToUpper(key)].Panel
	}
	return constants.Other
}

// Tests returns a copy of the definitions.
func (c *Catalog) Tests() []TestDef {
	return append([]TestDef(nil), c.tests...)
}

// SurfaceForms returns every indexed form, longest first.
func (c *Catalog) SurfaceForms() []string {
	return append([]string(nil), c.surface...)
}

// knownStarts returns the offsets in flat where a catalog "<test> <value>" match begins.
func (c *Catalog) knownStarts(flat string) []int {
	if c.known == nil || flat == "" {
		return nil
	}
	locs := c.known.FindAllStringIndex(flat, -1)
	starts := make([]int, len(locs))
	for i, l := range locs {
		starts[i] = l[0]
	}
	return starts
}
