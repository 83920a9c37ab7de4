package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/labs-tracker/internal/entity"
	"github.com/joseph-ayodele/labs-tracker/internal/repository"
)

const SheetName = "Lab Results"

// Lister is the part of the result store the export needs.
type Lister interface {
	List(ctx context.Context, userID string, f repository.ListFilter) ([]entity.LabResult, error)
}

// UploadGetter resolves the source file of uploaded results. Optional.
type UploadGetter interface {
	Get(ctx context.Context, id uuid.UUID) (entity.Upload, error)
}

// Service produces XLSX bytes for exports.
type Service struct {
	results Lister
	uploads UploadGetter
	logger  *slog.Logger
}

func NewService(results Lister, uploads UploadGetter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{results: results, uploads: uploads, logger: logger}
}

// ExportLabsXLSX returns an XLSX workbook (as bytes) of the user's results.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all results.
func (s *Service) ExportLabsXLSX(ctx context.Context, userID string, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var fromDate, toDate string
	if from != nil {
		fromDate = from.UTC().Format("2006-01-02")
		if to == nil {
			toDate = time.Now().UTC().Format("2006-01-02")
		}
	}
	if to != nil {
		toDate = to.UTC().Format("2006-01-02")
	}

	recs, err := s.results.List(ctx, userID, repository.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("query lab results: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	headers := []string{
		"Test",
		"Test Date",
		"Result",
		"Unit",
		"Normal Range",
		"Panel",
		"Confidence",
		"Source",
		"Notes",
		"File",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(SheetName, 1, 1, style)
	}

	files := map[uuid.UUID]string{}
	row := 2
	for _, r := range recs {
		if fromDate != "" && r.TestDate < fromDate {
			continue
		}
		if toDate != "" && r.TestDate > toDate {
			continue
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		write(1, r.TestName)
		write(2, r.TestDate)
		write(3, r.Result)
		write(4, deref(r.Unit))
		write(5, deref(r.NormalRange))
		write(6, r.Panel)
		write(7, r.Confidence)
		write(8, r.Source)
		write(9, truncate(r.Notes, 140))
		write(10, s.fileName(ctx, r.FileID, files))
		row++
	}

	_ = f.SetColWidth(SheetName, "A", "A", 18) // test
	_ = f.SetColWidth(SheetName, "B", "B", 12) // date
	_ = f.SetColWidth(SheetName, "C", "E", 14)
	_ = f.SetColWidth(SheetName, "F", "H", 12)
	_ = f.SetColWidth(SheetName, "I", "I", 48) // notes
	_ = f.SetColWidth(SheetName, "J", "J", 32) // file

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID,
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) fileName(ctx context.Context, id *uuid.UUID, cache map[uuid.UUID]string) string {
	if id == nil || *id == uuid.Nil || s.uploads == nil {
		return ""
	}
	if name, ok := cache[*id]; ok {
		return name
	}
	name := ""
	if up, err := s.uploads.Get(ctx, *id); err == nil {
		name = up.Filename
	} else {
		s.logger.Debug("upload lookup failed", "file_id", id.String(), "error", err)
	}
	cache[*id] = name
	return name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
