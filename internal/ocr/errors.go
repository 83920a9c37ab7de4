package ocr

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
)

// stderr fragments tesseract prints when it cannot start.
var engineInitMarkers = []string{
	"failed loading language",
	"error opening data file",
	"could not initialize tesseract",
	"tessdata_prefix",
}

// stderr fragments leptonica prints for unreadable images.
var badImageMarkers = []string{
	"pixreadstream",
	"cannot be read",
	"unsupported image type",
	"image file",
	"truncated",
}

// classifyEngineError maps a failed OCR command to the pipeline error taxonomy.
func classifyEngineError(ctx context.Context, tool string, err error, stderr []byte) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return timeoutError(tool, err)
	}
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return cancelledError(tool, err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return common.NewStageError(constants.StageAcquisition, common.CodeOcrUnavailable,
			tool+" is not installed", errors.Join(common.ErrOcrUnavailable, err))
	}

	msg := strings.ToLower(string(stderr))
	for _, m := range engineInitMarkers {
		if strings.Contains(msg, m) {
			return common.NewStageError(constants.StageAcquisition, common.CodeOcrUnavailable,
				tool+" could not initialize", errors.Join(common.ErrOcrUnavailable, err))
		}
	}
	for _, m := range badImageMarkers {
		if strings.Contains(msg, m) {
			return corruptError("image could not be read", err)
		}
	}
	return common.NewStageError(constants.StageAcquisition, common.CodeOcrUnavailable,
		tool+" failed", errors.Join(common.ErrOcrUnavailable, err))
}

func timeoutError(what string, err error) error {
	return common.NewStageError(constants.StageAcquisition, common.CodeOcrTimeout,
		what+" timed out", errors.Join(common.ErrOcrTimeout, err))
}

func corruptError(message string, err error) error {
	return common.NewStageError(constants.StageAcquisition, common.CodeCorruptDocument,
		message, errors.Join(common.ErrCorruptDocument, err))
}

func cancelledError(what string, err error) error {
	return common.NewStageError(constants.StageAcquisition, common.CodeCancelled,
		what+" was cancelled", errors.Join(context.Canceled, err))
}

// scratchError reports a failure staging the upload on local disk.
func scratchError(what string, err error) error {
	return common.NewStageError(constants.StageAcquisition, common.CodeScratchIO,
		"could not "+what, err)
}
