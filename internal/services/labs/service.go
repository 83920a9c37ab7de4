package labs

import (
	"context"
	"crypto/sha256"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/entity"
	"github.com/joseph-ayodele/labs-tracker/internal/labparse"
	"github.com/joseph-ayodele/labs-tracker/internal/ocr"
	"github.com/joseph-ayodele/labs-tracker/internal/pipeline"
	"github.com/joseph-ayodele/labs-tracker/internal/repository"
)

// Processor runs the extraction pipeline for one document.
type Processor interface {
	Process(ctx context.Context, doc ocr.Document) (pipeline.Outcome, error)
}

// Service handles lab result business logic on top of the pipeline.
type Service struct {
	proc    Processor
	results repository.LabResultRepository
	uploads repository.UploadRepository
	catalog *labparse.Catalog
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Service)

// WithStore persists uploads and results. Without it Extract is stateless.
func WithStore(results repository.LabResultRepository, uploads repository.UploadRepository) Option {
	return func(s *Service) {
		s.results = results
		s.uploads = uploads
	}
}

func WithCatalog(c *labparse.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new lab results service.
func NewService(proc Processor, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		proc:    proc,
		catalog: labparse.DefaultCatalog(),
		now:     time.Now,
		logger:  logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Persistent reports whether results are stored.
func (s *Service) Persistent() bool { return s.results != nil }

// ExtractResult is what one upload produced.
type ExtractResult struct {
	FileID      uuid.UUID
	Results     []labparse.LabTestResult
	NoText      bool
	Placeholder bool
	NeedsReview bool
	Method      string
	Confidence  float32
	Duration    time.Duration
}

// Extract runs the pipeline on doc and, when a store is configured, records
// the upload and its results tagged with the new file id.
func (s *Service) Extract(ctx context.Context, userID string, doc ocr.Document) (ExtractResult, error) {
	fileID := uuid.New()
	ctx = common.WithFileID(ctx, fileID.String())

	if s.uploads != nil {
		sum := sha256.Sum256(doc.Data)
		up, err := s.uploads.Start(ctx, entity.Upload{
			ID:          fileID,
			UserID:      userID,
			Filename:    doc.Filename,
			MIMEType:    constants.NormalizeMIME(doc.MIMEType),
			FileSize:    len(doc.Data),
			ContentHash: sum[:],
			StartedAt:   s.now().UTC(),
		})
		if err != nil {
			s.logger.Error("failed to record upload", "filename", doc.Filename, "error", err)
			return ExtractResult{}, err
		}
		fileID = up.ID
	}

	out, err := s.proc.Process(ctx, doc)
	if err != nil {
		s.finishFailure(ctx, fileID, err)
		return ExtractResult{FileID: fileID}, err
	}

	res := ExtractResult{
		FileID:      fileID,
		Results:     out.Results,
		NoText:      out.NoText,
		Placeholder: out.Placeholder,
		NeedsReview: out.NeedsReview,
		Method:      out.Extraction.Method,
		Confidence:  out.Extraction.Confidence,
		Duration:    out.Duration,
	}
	if res.NoText {
		s.finishSuccess(ctx, fileID, res, constants.UploadStatusNoText)
		return res, nil
	}

	if s.results != nil && len(res.Results) > 0 {
		rows := s.toRows(userID, &fileID, entity.SourceUpload, res.Results)
		for i := range rows {
			rows[i].Notes = entity.TagFileID(rows[i].Notes, fileID)
		}
		if err := s.results.InsertBatch(ctx, rows); err != nil {
			s.logger.Error("failed to store lab results", "file_id", fileID, "error", err)
			s.finishFailure(ctx, fileID, err)
			return res, err
		}
	}
	s.finishSuccess(ctx, fileID, res, constants.UploadStatusParsed)

	s.logger.Info("extraction complete",
		"file_id", fileID,
		"user_id", userID,
		"results", len(res.Results),
		"placeholder", res.Placeholder,
		"needs_review", res.NeedsReview,
	)
	return res, nil
}

// CreateManual stores one result typed in by the user.
func (s *Service) CreateManual(ctx context.Context, userID string, in labparse.LabTestResult) (entity.LabResult, error) {
	if s.results == nil {
		return entity.LabResult{}, common.NewStageError(constants.StageDatabase, common.CodeDatabase,
			"no result store configured", common.ErrDatabase)
	}

	in.TestName = strings.TrimSpace(in.TestName)
	in.Result = strings.TrimSpace(in.Result)
	in.TestDate = strings.TrimSpace(in.TestDate)
	if in.TestDate == "" {
		in.TestDate = s.now().Format("2006-01-02")
	}

	err := common.NewValidator().
		Field("testName", in.TestName, common.Required, common.MaxLen(100)).
		Field("result", in.Result, common.Required, common.MaxLen(64)).
		Field("testDate", in.TestDate, common.ISODate).
		Field("notes", in.Notes, common.MaxLen(2000)).
		Err()
	if err != nil {
		return entity.LabResult{}, err
	}

	rows := s.toRows(userID, nil, entity.SourceManual, []labparse.LabTestResult{in})
	if err := s.results.InsertBatch(ctx, rows); err != nil {
		return entity.LabResult{}, err
	}
	s.logger.Info("manual lab result stored", "user_id", userID, "test_name", rows[0].TestName)
	return rows[0], nil
}

// List returns the user's stored results.
func (s *Service) List(ctx context.Context, userID string, f repository.ListFilter) ([]entity.LabResult, error) {
	if s.results == nil {
		return []entity.LabResult{}, nil
	}
	return s.results.List(ctx, userID, f)
}

// FindDuplicate returns the id of an earlier successful upload of the same bytes.
func (s *Service) FindDuplicate(ctx context.Context, userID string, data []byte) (uuid.UUID, bool, error) {
	if s.uploads == nil {
		return uuid.Nil, false, nil
	}
	sum := sha256.Sum256(data)
	up, err := s.uploads.GetByUserAndHash(ctx, userID, sum[:])
	if errors.Is(err, common.ErrNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return up.ID, true, nil
}

func (s *Service) toRows(userID string, fileID *uuid.UUID, source string, in []labparse.LabTestResult) []entity.LabResult {
	now := s.now().UTC()
	rows := make([]entity.LabResult, 0, len(in))
	for _, r := range in {
		name := s.catalog.CanonicalOrSelf(r.TestName)
		rows = append(rows, entity.LabResult{
			ID:          uuid.New(),
			UserID:      userID,
			FileID:      fileID,
			TestName:    name,
			TestDate:    r.TestDate,
			Result:      r.Result,
			Unit:        r.Unit,
			NormalRange: r.NormalRange,
			Notes:       r.Notes,
			Confidence:  r.Confidence.String(),
			Panel:       string(s.catalog.PanelOf(name)),
			Source:      source,
			CreatedAt:   now,
		})
	}
	return rows
}

func (s *Service) finishSuccess(ctx context.Context, id uuid.UUID, res ExtractResult, status constants.UploadStatus) {
	if s.uploads == nil {
		return
	}
	err := s.uploads.FinishSuccess(context.WithoutCancel(ctx), id, repository.UploadOutcome{
		Status:      string(status),
		Method:      res.Method,
		Confidence:  res.Confidence,
		NeedsReview: res.NeedsReview,
		ResultCount: len(res.Results),
	})
	if err != nil {
		s.logger.Warn("failed to finish upload", "file_id", id, "error", err)
	}
}

func (s *Service) finishFailure(ctx context.Context, id uuid.UUID, cause error) {
	if s.uploads == nil {
		return
	}
	stage := string(common.StageOf(cause))
	if err := s.uploads.FinishFailure(context.WithoutCancel(ctx), id, stage, common.MessageOf(cause)); err != nil {
		s.logger.Warn("failed to mark upload failed", "file_id", id, "error", err)
	}
}
