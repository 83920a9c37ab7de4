package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/labs-tracker/constants"
)

func TestValidatorCollectsErrors(t *testing.T) {
	v := NewValidator().
		Field("testName", "", Required, MaxLen(3)).
		Field("testDate", "01/04/2024", ISODate).
		Field("fileId", "not-a-uuid", UUID).
		Field("notes", "short", MaxLen(3)).
		Field("limit", "-1", NonNegativeInt).
		Field("panel", "kidneys", PanelName)

	require.True(t, v.HasErrors())

	err := v.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, constants.StageValidation, StageOf(err))

	msg := MessageOf(err)
	for _, field := range []string{"testName is required", "testDate", "fileId", "notes", "limit", "panel must be one of Renal"} {
		assert.Contains(t, msg, field)
	}
	assert.Len(t, v.errs, 6, "only the first failing rule per field is kept")
}

func TestValidatorAcceptsValidInput(t *testing.T) {
	v := NewValidator().
		Field("testName", "HbA1c", Required, MaxLen(100)).
		Field("testDate", "2024-04-01", ISODate).
		Field("testDate", "", ISODate).
		Field("fileId", "5f0c3a8e-7f1b-4a57-9a64-0c2f7d9b1e11", UUID).
		Field("limit", "25", NonNegativeInt).
		Field("panel", "cbc", PanelName).
		Field("panel", "Lipid", PanelName)

	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Err())
}
