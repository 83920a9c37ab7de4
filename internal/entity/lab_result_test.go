package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileIDTag(t *testing.T) {
	id := uuid.New()

	notes := TagFileID("Extracted from uploaded file - High (H)", id)
	assert.Equal(t, "Extracted from uploaded file - High (H) | fileId:"+id.String(), notes)

	got, ok := FileIDFromNotes(notes)
	require.True(t, ok)
	assert.Equal(t, id, got)

	assert.Equal(t, "fileId:"+id.String(), TagFileID("  ", id))

	_, ok = FileIDFromNotes("Extracted from uploaded file")
	assert.False(t, ok)
}
