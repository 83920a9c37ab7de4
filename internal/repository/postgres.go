package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/entity"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore wraps an open pool. The caller keeps ownership of the pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

// Migrate creates the tables if they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for i, stmt := range postgresMigrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return dbError(fmt.Sprintf("migration %d failed", i+1), err)
		}
	}
	s.logger.Info("database schema ready", "migrations", len(postgresMigrations))
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PostgresStore) Close() error {
	Close(s.pool, s.logger)
	return nil
}

func (s *PostgresStore) InsertBatch(ctx context.Context, rows []entity.LabResult) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return dbError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`INSERT INTO lab_result (`+labResultColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			r.ID, r.UserID, nullableUUID(r.FileID), r.TestName, r.TestDate, r.Result, r.Unit,
			r.NormalRange, r.Notes, r.Confidence, r.Panel, r.Source, r.CreatedAt)
	}
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return dbError("insert lab results", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return dbError("commit lab results", err)
	}
	s.logger.Debug("lab results stored", "count", len(rows))
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID string, f ListFilter) ([]entity.LabResult, error) {
	q, args := listQuery(f, userID, func(n int) string { return fmt.Sprintf("$%d", n) })
	rows, err := s.pool.Query(ctx, q, args...)
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

func (s *PostgresStore) Start(ctx context.Context, up entity.Upload) (entity.Upload, error) {
	if up.ID == uuid.Nil {
		up.ID = uuid.New()
	}
	if up.StartedAt.IsZero() {
		up.StartedAt = time.Now().UTC()
	}
	if up.Status == "" {
		up.Status = string(constants.UploadStatusRunning)
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO lab_upload
		(id, user_id, filename, mime_type, file_size, content_hash, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		up.ID, up.UserID, up.Filename, up.MIMEType, up.FileSize, up.ContentHash, up.Status, up.StartedAt)
	if err != nil {
		return entity.Upload{}, dbError("create upload", err)
	}
	return up, nil
}

func (s *PostgresStore) FinishSuccess(ctx context.Context, id uuid.UUID, out UploadOutcome) error {
	tag, err := s.pool.Exec(ctx, `UPDATE lab_upload
		SET status = $2, method = $3, confidence = $4, needs_review = $5, result_count = $6, finished_at = $7
		WHERE id = $1`,
		id, out.Status, out.Method, out.Confidence, out.NeedsReview, out.ResultCount, time.Now().UTC())
	if err != nil {
		return dbError("finish upload", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("upload %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) FinishFailure(ctx context.Context, id uuid.UUID, stage, message string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE lab_upload
		SET status = $2, error_stage = $3, error_message = $4, finished_at = $5
		WHERE id = $1`,
		id, string(constants.UploadStatusFailed), stage, message, time.Now().UTC())
	if err != nil {
		return dbError("fail upload", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("upload %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (entity.Upload, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+uploadColumns+` FROM lab_upload WHERE id = $1`, id)
	up, err := scanUpload(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.Upload{}, fmt.Errorf("upload %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return entity.Upload{}, dbError("get upload", err)
	}
	return up, nil
}

func (s *PostgresStore) GetByUserAndHash(ctx context.Context, userID string, hash []byte) (entity.Upload, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+uploadColumns+` FROM lab_upload
		WHERE user_id = $1 AND content_hash = $2 AND status <> $3
		ORDER BY started_at DESC LIMIT 1`,
		userID, hash, string(constants.UploadStatusFailed))
	up, err := scanUpload(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.Upload{}, common.ErrNotFound
	}
	if err != nil {
		return entity.Upload{}, dbError("get upload by hash", err)
	}
	return up, nil
}

func dbError(op string, err error) error {
	return common.NewStageError(constants.StageDatabase, common.CodeDatabase, op, errors.Join(common.ErrDatabase, err))
}
