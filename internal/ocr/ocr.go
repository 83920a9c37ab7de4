package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"

	TesseractLang string // default "fas+eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir         string
	EnableTSVConfidence bool
	ScannedPDFFallback  bool // OCR rendered pages when a PDF has no text layer

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	ScratchDir string // where uploads are staged for the OCR engine; "" = os.TempDir()
}

// Document is an uploaded file held in memory for the duration of one request.
type Document struct {
	Data     []byte
	MIMEType string
	Filename string
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF" | "IMAGE"
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32 // 0..100
}

// Empty reports whether acquisition produced no usable text.
func (r ExtractionResult) Empty() bool {
	return strings.TrimSpace(r.Text) == ""
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "fas+eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Extract picks a strategy based on the declared MIME type. A document without text is
// not an error: the result is returned with Empty() == true.
func (e *Extractor) Extract(ctx context.Context, doc Document) (ExtractionResult, error) {
	start := time.Now()
	mime := constants.NormalizeMIME(doc.MIMEType)
	e.logger.Debug("starting text acquisition", "filename", doc.Filename, "mime", mime, "bytes", len(doc.Data))

	if !constants.IsAllowedMIME(mime) {
		e.logger.Warn("unsupported upload type", "mime", doc.MIMEType, "filename", doc.Filename)
		return ExtractionResult{}, common.NewStageError(constants.StageValidation, common.CodeUnsupportedFileType,
			fmt.Sprintf("file type %q is not supported; upload a PDF, JPEG or PNG", doc.MIMEType), common.ErrUnsupportedFileType)
	}
	if len(doc.Data) == 0 {
		return ExtractionResult{}, common.NewStageError(constants.StageValidation, common.CodeValidation,
			"uploaded file is empty", common.ErrInvalidInput)
	}

	var (
		res ExtractionResult
		err error
	)
	if mime == constants.MIMEPDF {
		res, err = e.extractPDF(ctx, doc)
	} else {
		res, err = e.extractImage(ctx, doc)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("text acquisition failed",
			"filename", doc.Filename,
			"mime", mime,
			"duration_ms", res.Duration.Milliseconds(),
			"error", err,
		)
		return res, err
	}

	e.logger.Info("text acquisition complete",
		"filename", doc.Filename,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	if !res.Empty() && res.Confidence < ImageConfidenceThreshold*100 {
		e.logger.Warn("low confidence text; results need review", "filename", doc.Filename, "confidence", res.Confidence)
	}
	return res, nil
}
