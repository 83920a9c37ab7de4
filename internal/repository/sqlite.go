package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/entity"
)

// SQLiteStore implements Store on a local SQLite file, used by the batch tool and tests.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
// Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, dbError("open sqlite", err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, logger: logger}
	for i, stmt := range sqliteMigrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, dbError(fmt.Sprintf("migration %d failed", i+1), err)
		}
	}
	logger.Info("sqlite store ready", "path", path)
	return s, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) InsertBatch(ctx context.Context, rows []entity.LabResult) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO lab_result (`+labResultColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dbError("prepare insert", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx, r.ID, r.UserID, nullableUUID(r.FileID), r.TestName, r.TestDate,
			r.Result, r.Unit, r.NormalRange, r.Notes, r.Confidence, r.Panel, r.Source, r.CreatedAt.UTC())
		if err != nil {
			return dbError("insert lab result", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return dbError("commit lab results", err)
	}
	s.logger.Debug("lab results stored", "count", len(rows))
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, userID string, f ListFilter) ([]entity.LabResult, error) {
	q, args := listQuery(f, userID, func(int) string { return "?" })
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, dbError("list lab results", err)
	}
	defer rows.Close()

	out := make([]entity.LabResult, 0)
	for rows.Next() {
		r, err := scanLabResult(rows)
		if err != nil {
			return nil, dbError("scan lab result", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list lab results", err)
	}
	return out, nil
}

func (s *SQLiteStore) Start(ctx context.Context, up entity.Upload) (entity.Upload, error) {
	if up.ID == uuid.Nil {
		up.ID = uuid.New()
	}
	if up.StartedAt.IsZero() {
		up.StartedAt = time.Now().UTC()
	}
	if up.Status == "" {
		up.Status = string(constants.UploadStatusRunning)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO lab_upload
		(id, user_id, filename, mime_type, file_size, content_hash, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		up.ID, up.UserID, up.Filename, up.MIMEType, up.FileSize, up.ContentHash, up.Status, up.StartedAt.UTC())
	if err != nil {
		return entity.Upload{}, dbError("create upload", err)
	}
	return up, nil
}

func (s *SQLiteStore) FinishSuccess(ctx context.Context, id uuid.UUID, out UploadOutcome) error {
	res, err := s.db.ExecContext(ctx, `UPDATE lab_upload
		SET status = ?, method = ?, confidence = ?, needs_review = ?, result_count = ?, finished_at = ?
		WHERE id = ?`,
		out.Status, out.Method, out.Confidence, out.NeedsReview, out.ResultCount, time.Now().UTC(), id)
	if err != nil {
		return dbError("finish upload", err)
	}
	return requireAffected(res, id)
}

func (s *SQLiteStore) FinishFailure(ctx context.Context, id uuid.UUID, stage, message string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE lab_upload
		SET status = ?, error_stage = ?, error_message = ?, finished_at = ?
		WHERE id = ?`,
		string(constants.UploadStatusFailed), stage, message, time.Now().UTC(), id)
	if err != nil {
		return dbError("fail upload", err)
	}
	return requireAffected(res, id)
}

func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (entity.Upload, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM lab_upload WHERE id = ?`, id)
	up, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Upload{}, fmt.Errorf("upload %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return entity.Upload{}, dbError("get upload", err)
	}
	return up, nil
}

func (s *SQLiteStore) GetByUserAndHash(ctx context.Context, userID string, hash []byte) (entity.Upload, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM lab_upload
		WHERE user_id = ? AND content_hash = ? AND status <> ?
		ORDER BY started_at DESC LIMIT 1`,
		userID, hash, string(constants.UploadStatusFailed))
	up, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Upload{}, common.ErrNotFound
	}
	if err != nil {
		return entity.Upload{}, dbError("get upload by hash", err)
	}
	return up, nil
}

func requireAffected(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbError("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("upload %s: %w", id, common.ErrNotFound)
	}
	return nil
}
