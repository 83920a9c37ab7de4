package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
)

func (e *Extractor) extractPDF(ctx context.Context, doc Document) (ExtractionResult, error) {
	text, pages, warns, err := pdfText(ctx, doc.Data, e.cfg.MaxPages)
	if err != nil {
		return ExtractionResult{SourceType: "PDF", Warnings: warns}, err
	}

	res := ExtractionResult{
		Text:       text,
		Pages:      pages,
		SourceType: "PDF",
		Method:     "pdf-text",
		Warnings:   warns,
		Confidence: 100,
	}
	if strings.TrimSpace(text) != "" || !e.cfg.ScannedPDFFallback {
		return res, nil
	}

	// No text layer: render pages and OCR them.
	e.logger.Info("pdf has no text layer; falling back to ocr", "filename", doc.Filename, "pages", pages)
	ocrText, ocrPages, ocrWarns, err := e.pdfToOCR(ctx, doc)
	res.Warnings = append(res.Warnings, ocrWarns...)
	if err != nil {
		if errors.Is(err, common.ErrOcrTimeout) || errors.Is(err, context.Canceled) {
			return res, err
		}
		res.Warnings = append(res.Warnings, "scanned pdf fallback failed: "+err.Error())
		e.logger.Warn("scanned pdf fallback failed", "filename", doc.Filename, "error", err)
		return res, nil
	}
	res.Text = ocrText
	res.Pages = ocrPages
	res.Method = "pdf-ocr"
	res.Language = e.cfg.TesseractLang
	res.Confidence = heuristicConfidence(ocrText) * 100
	return res, nil
}

// pdfText reads the text layer page by page, joining pages with "\n".
// The parser panics on some malformed inputs; those surface as CorruptDocument.
func pdfText(ctx context.Context, data []byte, maxPages int) (text string, pages int, warnings []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = corruptError("pdf could not be parsed", fmt.Errorf("pdf reader panic: %v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, nil, corruptError("pdf could not be parsed", err)
	}

	pages = r.NumPage()
	if pages == 0 {
		return "", 0, nil, common.NewStageError(constants.StageAcquisition, common.CodeEmptyDocument,
			"pdf has no pages", common.ErrEmptyDocument)
	}

	limit := pages
	if maxPages > 0 && limit > maxPages {
		limit = maxPages
		warnings = append(warnings, fmt.Sprintf("only the first %d of %d pages were read", maxPages, pages))
	}

	texts := make([]string, 0, limit)
	for i := 1; i <= limit; i++ {
		if ctx.Err() != nil {
			return "", pages, warnings, timeoutError("pdf text extraction", ctx.Err())
		}
		p := r.Page(i)
		if p.V.IsNull() {
			warnings = append(warnings, fmt.Sprintf("page %d is missing", i))
			continue
		}
		pt, perr := pageText(p)
		if perr != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i, perr))
			continue
		}
		texts = append(texts, pt)
	}
	return strings.Join(texts, "\n"), pages, warnings, nil
}

// pageText rebuilds the rows of a page top to bottom, falling back to plain text.
func pageText(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil || len(rows) == 0 {
		return p.GetPlainText(nil)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position > rows[j].Position })

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := strings.TrimSpace(joinRow(row.Content)); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// joinRow concatenates glyph runs, inserting a space where the horizontal gap
// is wider than a fraction of the font size.
func joinRow(words pdf.TextHorizontal) string {
	sorted := append(pdf.TextHorizontal(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var b strings.Builder
	var prevEnd float64
	for i, w := range sorted {
		if i > 0 && w.X-prevEnd > 0.25*w.FontSize && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(w.S, " ") {
			b.WriteByte(' ')
		}
		b.WriteString(w.S)
		prevEnd = w.X + w.W
	}
	return b.String()
}
