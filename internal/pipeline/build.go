package pipeline

import (
	"log/slog"

	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/labparse"
	"github.com/joseph-ayodele/labs-tracker/internal/ocr"
)

// OCRConfig maps application settings onto the extractor's options.
func OCRConfig(cfg common.OCRConfig) ocr.Config {
	return ocr.Config{
		Tesseract:           cfg.Tesseract,
		Pdftoppm:            cfg.Pdftoppm,
		TesseractLang:       cfg.TesseractLang,
		DPI:                 cfg.DPI,
		MaxPages:            cfg.MaxPages,
		TessdataDir:         cfg.TessdataDir,
		EnableTSVConfidence: cfg.EnableTSVConfidence,
		ScannedPDFFallback:  cfg.ScannedPDFFallback,
		PSM:                 cfg.PSM,
		OEM:                 cfg.OEM,
		ScratchDir:          cfg.ScratchDir,
	}
}

// NewFromConfig wires the OCR extractor and lab parser into a Processor.
func NewFromConfig(cfg *common.Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	extractor := ocr.NewExtractor(OCRConfig(cfg.OCR), logger)
	parser := labparse.NewParser(
		labparse.WithMaxTextBytes(cfg.Pipeline.MaxTextBytes),
		labparse.WithLogger(logger),
	)
	return NewProcessor(logger,
		NewOCRStage(extractor, cfg.Pipeline.AcquisitionTimeout, logger),
		NewParseStage(parser, logger),
	)
}
