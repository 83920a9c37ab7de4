package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	svc    *export.Service
	logger *slog.Logger
}

func NewExportHandler(svc *export.Service, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{svc: svc, logger: logger}
}

// ExportXLSX handles GET /api/labs/export.xlsx?from=YYYY-MM-DD&to=YYYY-MM-DD.
// - only from -> from..today
// - only to   -> beginning..to
// - none      -> all.
func (h *ExportHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	var fromPtr, toPtr *time.Time
	parseDate := func(name string) (*time.Time, error) {
		s := strings.TrimSpace(r.URL.Query().Get(name))
		if s == "" {
			return nil, nil
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, validationError(name+" must be YYYY-MM-DD", err)
		}
		return &t, nil
	}

	var err error
	if fromPtr, err = parseDate("from"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if toPtr, err = parseDate("to"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	userID := common.UserIDFromContext(r.Context())
	xlsx, err := h.svc.ExportLabsXLSX(r.Context(), userID, fromPtr, toPtr)
	if err != nil {
		h.logger.Error("export.xlsx.failed", "user_id", userID, "err", err)
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="lab-results.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}
