package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string          `json:"error"`
	Stage   constants.Stage `json:"stage"`
	Details string          `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to its HTTP status: validation problems are the caller's fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case common.StageOf(err) == constants.StageValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	body := ErrorResponse{
		Error: common.MessageOf(err),
		Stage: common.StageOf(err),
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Cause != nil {
		body.Details = appErr.Cause.Error()
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "stage", body.Stage, "error", err)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "stage", body.Stage, "error", err)
	}
	writeJSON(w, status, body)
}

func validationError(msg string, cause error) error {
	if cause == nil {
		cause = common.ErrInvalidInput
	}
	return common.NewStageError(constants.StageValidation, common.CodeValidation, msg, cause)
}
