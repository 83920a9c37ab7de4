package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
)

// pdfToOCR renders a scanned PDF to PNGs and runs tesseract on each page.
// Everything is written under one scratch dir that is removed on return.
func (e *Extractor) pdfToOCR(ctx context.Context, doc Document) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp(e.cfg.ScratchDir, "lab-pdf-*")
	if err != nil {
		return "", 0, nil, scratchError("create scratch dir", err)
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			e.logger.Warn("failed to remove scratch dir", "path", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(in, doc.Data, 0o600); err != nil {
		return "", 0, nil, scratchError("write scratch pdf", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, append(args, in, prefix)...)
	if err != nil {
		return "", 0, []string{string(errb)}, classifyEngineError(ctx, "pdftoppm", err, errb)
	}

	// collect generated pngs (page-1.png, page-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sortPageImages(matches)
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, common.NewStageError(constants.StageAcquisition, common.CodeEmptyDocument,
			"no pages rendered", common.ErrEmptyDocument)
	}

	texts := make([]string, 0, len(matches))
	var warns []string
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			if errors.Is(err, common.ErrOcrTimeout) || errors.Is(err, common.ErrOcrUnavailable) || errors.Is(err, context.Canceled) {
				return "", 0, append(warns, w...), err
			}
			warns = append(warns, err.Error())
			continue
		}
		texts = append(texts, strings.TrimSpace(txt))
		warns = append(warns, w...)
	}
	return strings.Join(texts, "\n"), len(matches), warns, nil
}

// sortPageImages orders page-N.png by N (pdftoppm pads inconsistently across versions).
func sortPageImages(paths []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		n, _ := strconv.Atoi(base[strings.LastIndex(base, "-")+1:])
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool { return num(paths[i]) < num(paths[j]) })
}
