package entity

import (
	"time"

	"github.com/google/uuid"
)

// Upload records one submitted lab report file and how its extraction went.
type Upload struct {
	ID           uuid.UUID  `json:"id"`
	UserID       string     `json:"user_id"`
	Filename     string     `json:"filename"`
	MIMEType     string     `json:"mime_type"`
	FileSize     int        `json:"file_size"`
	ContentHash  []byte     `json:"content_hash"`
	Status       string     `json:"status"`
	Method       *string    `json:"method,omitempty"`
	Confidence   *float32   `json:"confidence,omitempty"`
	NeedsReview  bool       `json:"needs_review"`
	ResultCount  int        `json:"result_count"`
	ErrorStage   *string    `json:"error_stage,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
