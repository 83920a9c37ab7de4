package labparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichUnitAndRange(t *testing.T) {
	flat := Normalize("Glu 95 mg/dL Normal range: 70 - 100\nNa 140 mmol/L\nTSH 2.1 µIU/mL (Ref range 0.4-4.0)").Flat
	in := []LabTestResult{
		{TestName: "Glu", Result: "95"},
		{TestName: "Na", Result: "140"},
		{TestName: "TSH", Result: "2.1"},
	}

	got := Enrich(in, flat, nil)

	require.Len(t, got, 3)
	require.NotNil(t, got[0].Unit)
	assert.Equal(t, "mg/dL", *got[0].Unit)
	require.NotNil(t, got[0].NormalRange)
	assert.Equal(t, "70-100", *got[0].NormalRange)

	require.NotNil(t, got[1].Unit)
	assert.Equal(t, "mmol/L", *got[1].Unit)
	assert.Nil(t, got[1].NormalRange)

	require.NotNil(t, got[2].Unit)
	assert.Equal(t, "µIU/mL", *got[2].Unit)
	require.NotNil(t, got[2].NormalRange)
	assert.Equal(t, "0.4-4.0", *got[2].NormalRange)

	assert.Nil(t, in[0].Unit, "input must not be modified")
}

func TestEnrichUsesVariations(t *testing.T) {
	flat := Normalize("Creatinine 1.3 mg/dL reference range 0.6-1.2").Flat

	got := Enrich([]LabTestResult{{TestName: "CRE", Result: "1.3"}}, flat, nil)

	require.NotNil(t, got[0].Unit)
	assert.Equal(t, "mg/dL", *got[0].Unit)
	require.NotNil(t, got[0].NormalRange)
	assert.Equal(t, "0.6-1.2", *got[0].NormalRange)
}

func TestEnrichLeavesUnknownsEmpty(t *testing.T) {
	in := []LabTestResult{
		{TestName: "xyz", Result: "123"},
		{TestName: FallbackTestName, Notes: "Na 140 mmol/L"},
	}

	got := Enrich(in, "xyz 123 xyz 456", nil)

	for _, r := range got {
		assert.Nil(t, r.Unit)
		assert.Nil(t, r.NormalRange)
	}
}
