package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/labs-tracker/internal/entity"
	"github.com/joseph-ayodele/labs-tracker/internal/repository"
)

type staticLister []entity.LabResult

func (l staticLister) List(context.Context, string, repository.ListFilter) ([]entity.LabResult, error) {
	return l, nil
}

type staticUploads map[uuid.UUID]entity.Upload

func (u staticUploads) Get(_ context.Context, id uuid.UUID) (entity.Upload, error) {
	return u[id], nil
}

func str(s string) *string { return &s }

func readSheet(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return rows
}

func TestExportLabsXLSX(t *testing.T) {
	fileID := uuid.New()
	recs := staticLister{
		{TestName: "CRE", TestDate: "2024-04-01", Result: "1.61", Unit: str("mg/dL"), NormalRange: str("0.6-1.3"),
			Panel: "Renal", Confidence: "very_high", Source: entity.SourceUpload, FileID: &fileID,
			Notes: "Extracted from uploaded file - High (H)"},
		{TestName: "Hb", TestDate: "2023-01-10", Result: "13.2", Panel: "Hematology", Confidence: "high",
			Source: entity.SourceManual},
	}
	svc := NewService(recs, staticUploads{fileID: {Filename: "march.pdf"}}, nil)

	data, err := svc.ExportLabsXLSX(context.Background(), "u", nil, nil)
	require.NoError(t, err)

	rows := readSheet(t, data)
	require.Len(t, rows, 3)
	assert.Equal(t, "Test", rows[0][0])
	assert.Equal(t, []string{"CRE", "2024-04-01", "1.61", "mg/dL", "0.6-1.3", "Renal", "very_high", "upload",
		"Extracted from uploaded file - High (H)", "march.pdf"}, rows[1])
	assert.Equal(t, "Hb", rows[2][0])
	assert.Equal(t, "", rows[2][3])
}

func TestExportLabsXLSX_DateWindow(t *testing.T) {
	recs := staticLister{
		{TestName: "CRE", TestDate: "2024-04-01", Result: "1.1"},
		{TestName: "K", TestDate: "2023-01-10", Result: "4.0"},
	}
	svc := NewService(recs, nil, nil)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	data, err := svc.ExportLabsXLSX(context.Background(), "u", &from, nil)
	require.NoError(t, err)
	rows := readSheet(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, "CRE", rows[1][0])

	to := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	data, err = svc.ExportLabsXLSX(context.Background(), "u", nil, &to)
	require.NoError(t, err)
	rows = readSheet(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, "K", rows[1][0])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "آز…", truncate("آزمایش", 3))
}
