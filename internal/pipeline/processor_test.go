package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/labparse"
	"github.com/joseph-ayodele/labs-tracker/internal/ocr"
)

type stubExtractor struct {
	res      ocr.ExtractionResult
	err      error
	deadline time.Time
	hasDL    bool
}

func (s *stubExtractor) Extract(ctx context.Context, _ ocr.Document) (ocr.ExtractionResult, error) {
	s.deadline, s.hasDL = ctx.Deadline()
	return s.res, s.err
}

type panickyParser struct{}

func (panickyParser) ParseReport(context.Context, string) (labparse.Report, error) {
	return labparse.Report{}, common.NewStageError(constants.StageParsing, common.CodeParseFailed, "failed to parse extracted text", errors.New("boom"))
}

func newProcessor(tx TextExtractor, parser LabParser, timeout time.Duration) *Processor {
	return NewProcessor(nil, NewOCRStage(tx, timeout, nil), NewParseStage(parser, nil))
}

func fixedParser() *labparse.Parser {
	return labparse.NewParser(labparse.WithClock(func() time.Time {
		return time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	}))
}

func TestProcessHappyPath(t *testing.T) {
	tx := &stubExtractor{res: ocr.ExtractionResult{
		Text:       "eGFR 37.7 (Apr 1)\nCRE 1.61 H (Apr 1)",
		SourceType: "PDF",
		Method:     "pdf-text",
		Confidence: 100,
	}}
	p := newProcessor(tx, fixedParser(), 5*time.Second)

	out, err := p.Process(context.Background(), ocr.Document{Data: []byte("x"), MIMEType: "application/pdf"})
	require.NoError(t, err)

	assert.False(t, out.NoText)
	assert.False(t, out.Placeholder)
	assert.False(t, out.NeedsReview)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "CRE", out.Results[0].TestName)
	assert.Equal(t, "Extracted from uploaded file - High (H)", out.Results[0].Notes)
	assert.Equal(t, 2, out.Candidates)
	assert.True(t, tx.hasDL, "acquisition runs under the stage timeout")
}

func TestProcessNoText(t *testing.T) {
	tx := &stubExtractor{res: ocr.ExtractionResult{Text: "  \n", SourceType: "IMAGE", Method: "image-ocr"}}
	p := newProcessor(tx, fixedParser(), 0)

	out, err := p.Process(context.Background(), ocr.Document{Data: []byte("x"), MIMEType: "image/png"})
	require.NoError(t, err)

	assert.True(t, out.NoText)
	assert.NotNil(t, out.Results)
	assert.Empty(t, out.Results)
	assert.False(t, tx.hasDL, "no deadline without a stage timeout")
}

func TestProcessPlaceholder(t *testing.T) {
	tx := &stubExtractor{res: ocr.ExtractionResult{Text: "Patient report without values", SourceType: "PDF", Confidence: 100}}
	p := newProcessor(tx, fixedParser(), 0)

	out, err := p.Process(context.Background(), ocr.Document{Data: []byte("x"), MIMEType: "application/pdf"})
	require.NoError(t, err)

	assert.True(t, out.Placeholder)
	require.Len(t, out.Results, 1)
	assert.Equal(t, labparse.FallbackTestName, out.Results[0].TestName)
}

func TestProcessFlagsLowConfidenceImages(t *testing.T) {
	tx := &stubExtractor{res: ocr.ExtractionResult{Text: "Na 140", SourceType: "IMAGE", Confidence: 35}}
	p := newProcessor(tx, fixedParser(), 0)

	out, err := p.Process(context.Background(), ocr.Document{Data: []byte("x"), MIMEType: "image/png"})
	require.NoError(t, err)
	assert.True(t, out.NeedsReview)
}

func TestProcessPropagatesAcquisitionErrors(t *testing.T) {
	acqErr := common.NewStageError(constants.StageAcquisition, common.CodeOcrTimeout, "tesseract timed out", common.ErrOcrTimeout)
	p := newProcessor(&stubExtractor{err: acqErr}, fixedParser(), 0)

	_, err := p.Process(context.Background(), ocr.Document{Data: []byte("x"), MIMEType: "image/png"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrOcrTimeout)
	assert.Equal(t, constants.StageAcquisition, common.StageOf(err))
}

func TestProcessPropagatesParseErrors(t *testing.T) {
	tx := &stubExtractor{res: ocr.ExtractionResult{Text: "Na 140"}}
	p := newProcessor(tx, panickyParser{}, 0)

	_, err := p.Process(context.Background(), ocr.Document{Data: []byte("x"), MIMEType: "application/pdf"})
	require.Error(t, err)
	assert.Equal(t, constants.StageParsing, common.StageOf(err))
}
