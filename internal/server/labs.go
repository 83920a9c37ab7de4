package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/contract"
	"github.com/joseph-ayodele/labs-tracker/internal/labparse"
	"github.com/joseph-ayodele/labs-tracker/internal/ocr"
	"github.com/joseph-ayodele/labs-tracker/internal/pipeline"
	"github.com/joseph-ayodele/labs-tracker/internal/repository"
	"github.com/joseph-ayodele/labs-tracker/internal/services/labs"
)

const (
	uploadField     = "file"
	fileIDHeader    = "X-File-Id"
	maxManualBody   = 64 << 10
	multipartMemory = 8 << 20
)

// NoTextResponse is returned with 200 when a file has nothing readable.
type NoTextResponse struct {
	Error   string                   `json:"error"`
	Results []labparse.LabTestResult `json:"results"`
}

type LabsHandler struct {
	svc       *labs.Service
	validator *contract.ManualEntryValidator
	metrics   *Metrics
	maxUpload int64
	logger    *slog.Logger
}

func NewLabsHandler(svc *labs.Service, metrics *Metrics, maxUpload int64, logger *slog.Logger) *LabsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LabsHandler{
		svc:       svc,
		validator: contract.NewManualEntryValidator(confidenceNames()),
		metrics:   metrics,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Extract handles POST /api/labs/extract.
func (h *LabsHandler) Extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := common.UserIDFromContext(ctx)

	doc, err := h.readUpload(w, r)
	if err != nil {
		h.observeFailure(err)
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("extracting lab report", "user_id", userID, "filename", doc.Filename, "mime", doc.MIMEType, "bytes", len(doc.Data))
	res, err := h.svc.Extract(ctx, userID, doc)
	if err != nil {
		h.observeFailure(err)
		writeError(w, r, h.logger, err)
		return
	}
	h.observe(res)

	if h.svc.Persistent() {
		w.Header().Set(fileIDHeader, res.FileID.String())
	}
	if res.NoText {
		writeJSON(w, http.StatusOK, NoTextResponse{Error: pipeline.NoTextMessage, Results: []labparse.LabTestResult{}})
		return
	}
	writeJSON(w, http.StatusOK, res.Results)
}

// CreateManual handles POST /api/labs/manual.
func (h *LabsHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxManualBody))
	if err != nil {
		writeError(w, r, h.logger, validationError("could not read request body", err))
		return
	}
	if err := h.validator.Validate(body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var in labparse.LabTestResult
	if err := json.Unmarshal(body, &in); err != nil {
		writeError(w, r, h.logger, validationError("invalid lab result", err))
		return
	}

	row, err := h.svc.CreateManual(r.Context(), common.UserIDFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

// List handles GET /api/labs with optional fileId, testName, panel and limit filters.
func (h *LabsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		fileID   = strings.TrimSpace(q.Get("fileId"))
		testName = strings.TrimSpace(q.Get("testName"))
		panel    = strings.TrimSpace(q.Get("panel"))
		limit    = strings.TrimSpace(q.Get("limit"))
	)
	err := common.NewValidator().
		Field("fileId", fileID, common.UUID).
		Field("testName", testName, common.MaxLen(100)).
		Field("panel", panel, common.PanelName).
		Field("limit", limit, common.NonNegativeInt).
		Err()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	f := repository.ListFilter{TestName: testName}
	if fileID != "" {
		id := uuid.MustParse(fileID)
		f.FileID = &id
	}
	if panel != "" {
		f.Panel, _ = constants.CanonicalizePanel(panel)
	}
	if limit != "" {
		f.Limit, _ = strconv.Atoi(limit)
	}

	rows, err := h.svc.List(r.Context(), common.UserIDFromContext(r.Context()), f)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *LabsHandler) readUpload(w http.ResponseWriter, r *http.Request) (ocr.Document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return ocr.Document{}, validationError("uploaded file is too large", err)
		}
		return ocr.Document{}, validationError("request must be multipart/form-data", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return ocr.Document{}, validationError("file is required", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return ocr.Document{}, validationError("could not read uploaded file", err)
	}

	name := filepath.Base(header.Filename)
	mime := constants.NormalizeMIME(header.Header.Get("Content-Type"))
	if mime == "" || mime == "application/octet-stream" {
		if byExt := constants.MIMEFromExt(filepath.Ext(name)); byExt != "" {
			mime = byExt
		} else {
			mime = constants.NormalizeMIME(http.DetectContentType(data))
		}
	}
	return ocr.Document{Data: data, MIMEType: mime, Filename: name}, nil
}

func (h *LabsHandler) observe(res labs.ExtractResult) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case res.NoText:
		outcome = "no_text"
	case res.Placeholder:
		outcome = "placeholder"
	}
	method := res.Method
	if method == "" {
		method = "none"
	}
	h.metrics.ExtractionsTotal.WithLabelValues(outcome).Inc()
	h.metrics.ExtractionDuration.WithLabelValues(method).Observe(res.Duration.Seconds())
	if !res.Placeholder {
		h.metrics.ResultsExtracted.Add(float64(len(res.Results)))
	}
}

func (h *LabsHandler) observeFailure(err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.ExtractionsTotal.WithLabelValues("error").Inc()
	h.metrics.ExtractionFailures.WithLabelValues(string(common.StageOf(err))).Inc()
}

func confidenceNames() []string {
	levels := []labparse.Confidence{
		labparse.ConfidenceNone,
		labparse.ConfidenceMedium,
		labparse.ConfidenceHigh,
		labparse.ConfidenceVeryHigh,
	}
	out := make([]string, len(levels))
	for i, c := range levels {
		out[i] = c.String()
	}
	return out
}
