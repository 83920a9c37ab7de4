package labparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/labs-tracker/constants"
)

func TestCatalogCanonical(t *testing.T) {
	c := DefaultCatalog()

	tests := map[string]string{
		"eGFR":       "eGFR",
		"EGFR":       "eGFR",
		"creatinine": "CRE",
		"NA":         "Na",
		"hgb":        "Hb",
		"HBA1C":      "HbA1c",
		"sgpt":       "ALT",
		"Vit D":      "VitD",
	}
	for in, want := range tests {
		got, ok := c.Canonical(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := c.Canonical("Lipase")
	assert.False(t, ok)
	assert.Equal(t, "Lipase", c.CanonicalOrSelf("Lipase"))
}

func TestCatalogVariationsAndPanels(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, []string{"CRE", "Cr", "Creat", "Creatinine"}, c.Variations("cre"))
	assert.Equal(t, []string{"xyz"}, c.Variations("xyz"))
	assert.Equal(t, constants.Lipid, c.PanelOf("hdl"))
	assert.Equal(t, constants.Other, c.PanelOf("xyz"))
	assert.GreaterOrEqual(t, len(c.Tests()), 35)
}

func TestCatalogSurfaceFormsLongestFirst(t *testing.T) {
	forms := DefaultCatalog().SurfaceForms()
	for i := 1; i < len(forms); i++ {
		assert.GreaterOrEqual(t, len(forms[i-1]), len(forms[i]))
	}
}

func TestCustomCatalogFirstDefinitionWins(t *testing.T) {
	c := NewCatalog([]TestDef{
		{Key: "Glu", Variations: []string{"Glucose"}},
		{Key: "FBS", Variations: []string{"Glucose"}},
	})

	key, ok := c.Canonical("glucose")
	require.True(t, ok)
	assert.Equal(t, "Glu", key)
}
