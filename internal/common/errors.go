package common

import (
	"errors"
	"fmt"

	"github.com/joseph-ayodele/labs-tracker/constants"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Stage   constants.Stage
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Extraction pipeline errors
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrCorruptDocument     = errors.New("document could not be parsed")
	ErrEmptyDocument       = errors.New("document has no pages")
	ErrOcrUnavailable      = errors.New("ocr engine unavailable")
	ErrOcrTimeout          = errors.New("ocr timed out")
	ErrNoTextFound         = errors.New("no text found")
	ErrNoCandidatesFound   = errors.New("no lab tests recognized")
)

// Error codes carried by AppError.Code
const (
	CodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	CodeCorruptDocument     = "CORRUPT_DOCUMENT"
	CodeEmptyDocument       = "EMPTY_DOCUMENT"
	CodeOcrUnavailable      = "OCR_UNAVAILABLE"
	CodeOcrTimeout          = "OCR_TIMEOUT"
	CodeScratchIO           = "SCRATCH_IO_FAILED"
	CodeCancelled           = "CANCELLED"
	CodeParseFailed         = "PARSE_FAILED"
	CodeValidation          = "VALIDATION_ERROR"
	CodeDatabase            = "DATABASE_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewStageError builds an AppError tagged with the pipeline stage it came from.
func NewStageError(stage constants.Stage, code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stage:   stage,
		Cause:   cause,
	}
}

// StageOf returns the stage of the first AppError in err's chain.
// Errors without one are reported as parsing failures.
func StageOf(err error) constants.Stage {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Stage != "" {
		return appErr.Stage
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrValidation) || errors.Is(err, ErrUnsupportedFileType) {
		return constants.StageValidation
	}
	if errors.Is(err, ErrDatabase) {
		return constants.StageDatabase
	}
	return constants.StageParsing
}

// MessageOf returns the human-readable message of the first AppError in err's chain.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
