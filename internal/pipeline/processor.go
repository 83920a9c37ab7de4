package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/labparse"
	"github.com/joseph-ayodele/labs-tracker/internal/ocr"
)

// NoTextMessage is reported to callers when a file yields no readable text.
const NoTextMessage = "No text was extracted from the uploaded file"

// Outcome is the result of one extraction run.
type Outcome struct {
	Results     []labparse.LabTestResult
	NoText      bool
	Placeholder bool // Results holds only the manual-entry placeholder
	NeedsReview bool
	Extraction  ocr.ExtractionResult
	Candidates  int
	Duration    time.Duration
}

// Processor coordinates text acquisition then lab parsing.
type Processor struct {
	Logger *slog.Logger
	OCR    *OCRStage
	Parse  *ParseStage
}

func NewProcessor(logger *slog.Logger, ocrStage *OCRStage, parse *ParseStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, OCR: ocrStage, Parse: parse}
}

// Process runs the pipeline for one document. Empty text is reported through
// Outcome.NoText rather than an error.
func (p *Processor) Process(ctx context.Context, doc ocr.Document) (Outcome, error) {
	start := time.Now()

	// 1) acquisition
	res, needsReview, err := p.OCR.Run(ctx, doc)
	if err != nil {
		p.Logger.Error("processor.acquire.failed", "filename", doc.Filename, "err", err)
		return Outcome{Extraction: res}, err
	}
	p.Logger.Info("processor.acquire.ok",
		"filename", doc.Filename,
		"method", res.Method,
		"pages", res.Pages,
		"confidence", res.Confidence,
	)
	if res.Empty() {
		p.Logger.Warn("processor.acquire.no_text", "filename", doc.Filename, "err", common.ErrNoTextFound)
		return Outcome{
			Results:    []labparse.LabTestResult{},
			NoText:     true,
			Extraction: res,
			Duration:   time.Since(start),
		}, nil
	}

	// 2) parse
	rep, err := p.Parse.Run(ctx, res.Text)
	if err != nil {
		return Outcome{Extraction: res}, err
	}

	out := Outcome{
		Results:     rep.Results,
		Placeholder: len(rep.Retained) == 0 && len(rep.Results) == 1,
		NeedsReview: needsReview,
		Extraction:  res,
		Candidates:  len(rep.Candidates),
		Duration:    time.Since(start),
	}
	p.Logger.Info("processor.parse.ok",
		"filename", doc.Filename,
		"results", len(out.Results),
		"placeholder", out.Placeholder,
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}
