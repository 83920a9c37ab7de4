package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
)

var confidences = []string{"none", "medium", "high", "very_high"}

func TestManualEntryValidator(t *testing.T) {
	v := NewManualEntryValidator(confidences)

	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"minimal", `{"testName":"K","result":"4.1"}`, true},
		{"full", `{"testName":"CRE","testDate":"2024-04-01","result":"1.6","unit":"mg/dL","normalRange":null,"notes":"","confidence":"high"}`, true},
		{"missing result", `{"testName":"K"}`, false},
		{"empty name", `{"testName":"","result":"1"}`, false},
		{"bad date", `{"testName":"K","result":"4","testDate":"01/04/2024"}`, false},
		{"unknown confidence", `{"testName":"K","result":"4","confidence":"certain"}`, false},
		{"extra field", `{"testName":"K","result":"4","userId":"x"}`, false},
		{"number result", `{"testName":"K","result":4}`, false},
		{"not json", `{`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate([]byte(tt.body))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, constants.StageValidation, common.StageOf(err))
		})
	}
}

func TestExtractResponseSchema(t *testing.T) {
	schema := BuildExtractResponseJSONSchema(confidences)

	ok := `[{"testName":"Laboratory Data","testDate":"2024-06-15","result":"","unit":null,"normalRange":null,"notes":"raw","confidence":"none"}]`
	assert.NoError(t, ValidateJSONAgainstSchema(schema, []byte(ok)))
	assert.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`[]`)))

	missingUnit := `[{"testName":"K","testDate":"2024-06-15","result":"4","normalRange":null,"notes":"","confidence":"high"}]`
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(missingUnit)))
}
