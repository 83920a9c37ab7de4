package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/labparse"
)

// LabParser turns extracted text into lab results.
type LabParser interface {
	ParseReport(ctx context.Context, text string) (labparse.Report, error)
}

type ParseStage struct {
	Parser LabParser
	Logger *slog.Logger
}

func NewParseStage(parser LabParser, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Parser: parser, Logger: logger}
}

// Run parses text. The returned report always has a non-nil Results slice on success.
func (s *ParseStage) Run(ctx context.Context, text string) (labparse.Report, error) {
	rep, err := s.Parser.ParseReport(ctx, text)
	if err != nil {
		s.Logger.Error("parse failed", "file_id", common.FileIDFromContext(ctx), "error", err)
		return labparse.Report{}, err
	}
	if rep.Results == nil {
		rep.Results = []labparse.LabTestResult{}
	}
	s.Logger.Info("parse ok",
		"file_id", common.FileIDFromContext(ctx),
		"candidates", len(rep.Candidates),
		"results", len(rep.Results),
	)
	return rep, nil
}
