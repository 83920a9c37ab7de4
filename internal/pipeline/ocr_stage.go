package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/ocr"
)

// TextExtractor turns an uploaded document into text.
type TextExtractor interface {
	Extract(ctx context.Context, doc ocr.Document) (ocr.ExtractionResult, error)
}

type OCRStage struct {
	TextExtractor TextExtractor
	Timeout       time.Duration // shared budget for pdf text and ocr; 0 = caller's context only
	Logger        *slog.Logger
}

func NewOCRStage(tx TextExtractor, timeout time.Duration, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{TextExtractor: tx, Timeout: timeout, Logger: logger}
}

// Run extracts text under the stage timeout. Low-confidence image text is flagged for review.
func (s *OCRStage) Run(ctx context.Context, doc ocr.Document) (ocr.ExtractionResult, bool, error) {
	ctx, cancel := common.WithTimeout(ctx, s.Timeout)
	defer cancel()

	res, err := s.TextExtractor.Extract(ctx, doc)
	if err != nil {
		return res, false, err
	}

	needsReview := false
	if res.SourceType == "IMAGE" && !res.Empty() && res.Confidence < ocr.ImageConfidenceThreshold*100 {
		s.Logger.Warn("image ocr confidence low; needs review",
			"file_id", common.FileIDFromContext(ctx),
			"filename", doc.Filename,
			"conf", res.Confidence,
		)
		needsReview = true
	}
	return res, needsReview, nil
}
