package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/labs-tracker/internal/ocr"
	"github.com/joseph-ayodele/labs-tracker/internal/services/labs"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string `json:"source_path"`
	FileID       string `json:"file_id,omitempty"`
	Deduplicated bool   `json:"deduplicated"`
	HashHex      string `json:"hash"`
	FileExt      string `json:"ext"`
	Results      int    `json:"results"`
	NoText       bool   `json:"no_text,omitempty"`
	Placeholder  bool   `json:"placeholder,omitempty"`
	NeedsReview  bool   `json:"needs_review,omitempty"`
	Err          string `json:"error,omitempty"`
	Stage        string `json:"stage,omitempty"`
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32 `json:"scanned"`
	Matched      uint32 `json:"matched"`
	Succeeded    uint32 `json:"succeeded"`
	Deduplicated uint32 `json:"deduplicated"`
	NoText       uint32 `json:"no_text"`
	Failed       uint32 `json:"failed"`
}

// LabExtractor is the part of the labs service ingestion drives.
type LabExtractor interface {
	Extract(ctx context.Context, userID string, doc ocr.Document) (labs.ExtractResult, error)
	FindDuplicate(ctx context.Context, userID string, data []byte) (uuid.UUID, bool, error)
}

// Ingestor is the behavior the batch tool depends on.
type Ingestor interface {
	// IngestPath extracts a single file.
	IngestPath(ctx context.Context, userID string, path string) (IngestionResult, error)
	// IngestDirectory extracts all matching files under root.
	IngestDirectory(ctx context.Context, userID string, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
