package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/labparse"
	"github.com/joseph-ayodele/labs-tracker/internal/ocr"
	"github.com/joseph-ayodele/labs-tracker/internal/pipeline"
)

type debugOutput struct {
	Method     string                   `json:"method"`
	Pages      int                      `json:"pages"`
	Confidence float32                  `json:"ocrConfidence"`
	Text       string                   `json:"text"`
	Lines      []string                 `json:"lines"`
	Candidates []labparse.Candidate     `json:"candidates"`
	Retained   []labparse.Candidate     `json:"retained"`
	Results    []labparse.LabTestResult `json:"results"`
}

type errorOutput struct {
	Error   string          `json:"error"`
	Stage   constants.Stage `json:"stage"`
	Details string          `json:"details,omitempty"`
}

func main() {
	var (
		mimeFlag = flag.String("mime", "", "override the MIME type inferred from the extension")
		debug    = flag.Bool("debug", false, "print extracted text and every matcher candidate")
		verbose  = flag.Bool("v", false, "log pipeline progress to stderr")
	)
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "usage: labextract [flags] <report.pdf|report.jpg|report.png>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		fail(common.NewStageError(constants.StageValidation, common.CodeValidation, "could not read file", err))
	}
	mime := *mimeFlag
	if mime == "" {
		mime = constants.MIMEFromExt(filepath.Ext(path))
	}
	doc := ocr.Document{Data: data, MIMEType: mime, Filename: filepath.Base(path)}

	cfg := common.LoadConfig()
	ctx := context.Background()

	if !*debug {
		proc := pipeline.NewFromConfig(cfg, logger)
		out, err := proc.Process(ctx, doc)
		if err != nil {
			fail(err)
		}
		if out.NoText {
			emit(map[string]any{"error": pipeline.NoTextMessage, "results": out.Results})
			return
		}
		emit(out.Results)
		return
	}

	stage := pipeline.NewOCRStage(ocr.NewExtractor(pipeline.OCRConfig(cfg.OCR), logger), cfg.Pipeline.AcquisitionTimeout, logger)
	res, _, err := stage.Run(ctx, doc)
	if err != nil {
		fail(err)
	}
	parser := labparse.NewParser(labparse.WithMaxTextBytes(cfg.Pipeline.MaxTextBytes), labparse.WithLogger(logger))
	rep, err := parser.ParseReport(ctx, res.Text)
	if err != nil {
		fail(err)
	}
	emit(debugOutput{
		Method:     res.Method,
		Pages:      res.Pages,
		Confidence: res.Confidence,
		Text:       rep.Normalized.Flat,
		Lines:      rep.Normalized.Lines,
		Candidates: rep.Candidates,
		Retained:   rep.Retained,
		Results:    rep.Results,
	})
}

func emit(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}
}

func fail(err error) {
	out := errorOutput{Error: common.MessageOf(err), Stage: common.StageOf(err)}
	if out.Error != err.Error() {
		out.Details = err.Error()
	}
	enc := json.NewEncoder(os.Stderr)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(out)
	os.Exit(1)
}
