package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/entity"
)

// LabResultRepository stores extracted and manually entered lab results.
type LabResultRepository interface {
	InsertBatch(ctx context.Context, rows []entity.LabResult) error
	List(ctx context.Context, userID string, f ListFilter) ([]entity.LabResult, error)
}

// UploadRepository tracks uploaded files through extraction.
type UploadRepository interface {
	Start(ctx context.Context, up entity.Upload) (entity.Upload, error)
	FinishSuccess(ctx context.Context, id uuid.UUID, out UploadOutcome) error
	FinishFailure(ctx context.Context, id uuid.UUID, stage, message string) error
	Get(ctx context.Context, id uuid.UUID) (entity.Upload, error)
	GetByUserAndHash(ctx context.Context, userID string, hash []byte) (entity.Upload, error)
}

// Store is a backend providing both repositories.
type Store interface {
	LabResultRepository
	UploadRepository
	Ping(ctx context.Context) error
	Close() error
}

// UploadOutcome is written when an upload finishes without a fatal error.
type UploadOutcome struct {
	Status      string
	Method      string
	Confidence  float32
	NeedsReview bool
	ResultCount int
}

// ListFilter narrows List. Zero values mean no filter.
type ListFilter struct {
	FileID   *uuid.UUID
	TestName string
	Panel    constants.Panel
	Limit    int
}

const defaultListLimit = 500

// listQuery builds the SELECT for List using ph to render the n-th placeholder.
func listQuery(f ListFilter, userID string, ph func(n int) string) (string, []any) {
	var (
		where = []string{"user_id = " + ph(1)}
		args  = []any{userID}
	)
	if f.FileID != nil {
		args = append(args, *f.FileID)
		where = append(where, "file_id = "+ph(len(args)))
	}
	if f.TestName != "" {
		args = append(args, strings.ToUpper(f.TestName))
		where = append(where, "UPPER(test_name) = "+ph(len(args)))
	}
	if f.Panel != "" {
		args = append(args, strings.ToUpper(string(f.Panel)))
		where = append(where, "UPPER(panel) = "+ph(len(args)))
	}
	limit := f.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	q := fmt.Sprintf(`SELECT %s FROM lab_result WHERE %s ORDER BY created_at DESC, test_name LIMIT %d`,
		labResultColumns, strings.Join(where, " AND "), limit)
	return q, args
}

const labResultColumns = `id, user_id, file_id, test_name, test_date, result, unit, normal_range, notes, confidence, panel, source, created_at`

const uploadColumns = `id, user_id, filename, mime_type, file_size, content_hash, status, method, confidence, needs_review, result_count, error_stage, error_message, started_at, finished_at`

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLabResult(s rowScanner) (entity.LabResult, error) {
	var (
		r      entity.LabResult
		fileID uuid.NullUUID
	)
	err := s.Scan(&r.ID, &r.UserID, &fileID, &r.TestName, &r.TestDate, &r.Result, &r.Unit,
		&r.NormalRange, &r.Notes, &r.Confidence, &r.Panel, &r.Source, &r.CreatedAt)
	if err != nil {
		return entity.LabResult{}, err
	}
	if fileID.Valid {
		id := fileID.UUID
		r.FileID = &id
	}
	return r, nil
}

func scanUpload(s rowScanner) (entity.Upload, error) {
	var u entity.Upload
	err := s.Scan(&u.ID, &u.UserID, &u.Filename, &u.MIMEType, &u.FileSize, &u.ContentHash, &u.Status,
		&u.Method, &u.Confidence, &u.NeedsReview, &u.ResultCount, &u.ErrorStage, &u.ErrorMessage,
		&u.StartedAt, &u.FinishedAt)
	return u, err
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
