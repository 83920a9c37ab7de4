package repository

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/entity"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestSQLiteStore_UploadLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	hash := sha256.Sum256([]byte("report"))

	up, err := s.Start(ctx, entity.Upload{
		UserID:      "user-1",
		Filename:    "cbc.pdf",
		MIMEType:    constants.MIMEPDF,
		FileSize:    1024,
		ContentHash: hash[:],
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, up.ID)
	assert.Equal(t, string(constants.UploadStatusRunning), up.Status)

	require.NoError(t, s.FinishSuccess(ctx, up.ID, UploadOutcome{
		Status:      string(constants.UploadStatusParsed),
		Method:      "pdf-text",
		Confidence:  100,
		ResultCount: 3,
	}))

	got, err := s.Get(ctx, up.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.UploadStatusParsed), got.Status)
	require.NotNil(t, got.Method)
	assert.Equal(t, "pdf-text", *got.Method)
	assert.Equal(t, 3, got.ResultCount)
	assert.NotNil(t, got.FinishedAt)
	assert.Nil(t, got.ErrorStage)

	dup, err := s.GetByUserAndHash(ctx, "user-1", hash[:])
	require.NoError(t, err)
	assert.Equal(t, up.ID, dup.ID)

	_, err = s.GetByUserAndHash(ctx, "user-2", hash[:])
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStore_FailedUploadIsNotADuplicate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	hash := sha256.Sum256([]byte("broken"))

	up, err := s.Start(ctx, entity.Upload{UserID: "u", Filename: "x.png", MIMEType: constants.MIMEPNG, ContentHash: hash[:]})
	require.NoError(t, err)
	require.NoError(t, s.FinishFailure(ctx, up.ID, string(constants.StageAcquisition), "ocr timed out"))

	got, err := s.Get(ctx, up.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.UploadStatusFailed), got.Status)
	require.NotNil(t, got.ErrorStage)
	assert.Equal(t, "acquisition", *got.ErrorStage)

	_, err = s.GetByUserAndHash(ctx, "u", hash[:])
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStore_FinishUnknownUpload(t *testing.T) {
	s := openTestStore(t)
	err := s.FinishFailure(context.Background(), uuid.New(), "parsing", "boom")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStore_InsertAndList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	up, err := s.Start(ctx, entity.Upload{UserID: "u", Filename: "a.pdf", MIMEType: constants.MIMEPDF, ContentHash: []byte{1}})
	require.NoError(t, err)

	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	rows := []entity.LabResult{
		{
			ID: uuid.New(), UserID: "u", FileID: &up.ID, TestName: "CRE", TestDate: "2024-05-03",
			Result: "1.2", Unit: strPtr("mg/dL"), NormalRange: strPtr("0.6-1.3"),
			Notes: entity.TagFileID("Extracted from uploaded file", up.ID), Confidence: "very_high",
			Panel: "renal", Source: entity.SourceUpload, CreatedAt: now,
		},
		{
			ID: uuid.New(), UserID: "u", FileID: &up.ID, TestName: "K", TestDate: "2024-05-03",
			Result: "4.1", Notes: entity.TagFileID("", up.ID), Confidence: "high",
			Panel: "electrolyte", Source: entity.SourceUpload, CreatedAt: now.Add(time.Second),
		},
		{
			ID: uuid.New(), UserID: "u", TestName: "Hb", TestDate: "2024-04-01",
			Result: "13.5", Confidence: "high", Panel: "hematology", Source: entity.SourceManual,
			CreatedAt: now.Add(-time.Hour),
		},
		{
			ID: uuid.New(), UserID: "other", TestName: "Hb", TestDate: "2024-04-01",
			Result: "11", Confidence: "high", Panel: "hematology", Source: entity.SourceManual, CreatedAt: now,
		},
	}
	require.NoError(t, s.InsertBatch(ctx, rows))
	require.NoError(t, s.InsertBatch(ctx, nil))

	all, err := s.List(ctx, "u", ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "K", all[0].TestName)
	assert.Equal(t, "Hb", all[2].TestName)
	assert.Nil(t, all[2].FileID)

	byFile, err := s.List(ctx, "u", ListFilter{FileID: &up.ID})
	require.NoError(t, err)
	require.Len(t, byFile, 2)
	for _, r := range byFile {
		require.NotNil(t, r.FileID)
		assert.Equal(t, up.ID, *r.FileID)
		id, ok := entity.FileIDFromNotes(r.Notes)
		assert.True(t, ok)
		assert.Equal(t, up.ID, id)
	}

	byName, err := s.List(ctx, "u", ListFilter{TestName: "cre"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.NotNil(t, byName[0].Unit)
	assert.Equal(t, "mg/dL", *byName[0].Unit)
	assert.Equal(t, "0.6-1.3", *byName[0].NormalRange)

	byPanel, err := s.List(ctx, "u", ListFilter{Panel: constants.Hematology})
	require.NoError(t, err)
	require.Len(t, byPanel, 1)
	assert.Equal(t, "Hb", byPanel[0].TestName)

	limited, err := s.List(ctx, "u", ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListQuery_Placeholders(t *testing.T) {
	id := uuid.New()
	q, args := listQuery(ListFilter{FileID: &id, TestName: "ldl", Panel: constants.Lipid, Limit: 10000}, "u",
		func(n int) string { return "$" + string(rune('0'+n)) })

	assert.Contains(t, q, "user_id = $1")
	assert.Contains(t, q, "file_id = $2")
	assert.Contains(t, q, "UPPER(test_name) = $3")
	assert.Contains(t, q, "UPPER(panel) = $4")
	assert.Contains(t, q, "LIMIT 500")
	assert.Equal(t, []any{"u", id, "LDL", "LIPID"}, args)
}
