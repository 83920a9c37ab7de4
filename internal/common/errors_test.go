package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/labs-tracker/constants"
)

func TestStageOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want constants.Stage
	}{
		{
			name: "stage error",
			err:  NewStageError(constants.StageAcquisition, CodeOcrTimeout, "ocr timed out", ErrOcrTimeout),
			want: constants.StageAcquisition,
		},
		{
			name: "wrapped stage error",
			err:  fmt.Errorf("extract: %w", NewStageError(constants.StageDatabase, CodeDatabase, "insert failed", ErrDatabase)),
			want: constants.StageDatabase,
		},
		{
			name: "bare unsupported type",
			err:  fmt.Errorf("upload: %w", ErrUnsupportedFileType),
			want: constants.StageValidation,
		},
		{
			name: "unknown error",
			err:  errors.New("boom"),
			want: constants.StageParsing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StageOf(tt.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := NewStageError(constants.StageAcquisition, CodeCorruptDocument, "pdf could not be read", ErrCorruptDocument)

	assert.ErrorIs(t, err, ErrCorruptDocument)
	assert.Equal(t, "pdf could not be read", MessageOf(fmt.Errorf("wrapped: %w", err)))
	assert.Contains(t, err.Error(), CodeCorruptDocument)
}
