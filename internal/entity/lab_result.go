package entity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LabResult is a stored lab test result for data transfer between layers.
type LabResult struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"user_id"`
	FileID      *uuid.UUID `json:"file_id,omitempty"`
	TestName    string     `json:"test_name"`
	TestDate    string     `json:"test_date"`
	Result      string     `json:"result"`
	Unit        *string    `json:"unit,omitempty"`
	NormalRange *string    `json:"normal_range,omitempty"`
	Notes       string     `json:"notes"`
	Confidence  string     `json:"confidence"`
	Panel       string     `json:"panel"`
	Source      string     `json:"source"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Result sources
const (
	SourceUpload = "upload"
	SourceManual = "manual"
)

const fileIDTagPrefix = "fileId:"

var reFileIDTag = regexp.MustCompile(`fileId:([0-9a-fA-F-]{36})`)

// TagFileID appends the upload tag the UI uses to group results from one document.
func TagFileID(notes string, fileID uuid.UUID) string {
	tag := fileIDTagPrefix + fileID.String()
	if strings.TrimSpace(notes) == "" {
		return tag
	}
	return notes + " | " + tag
}

// FileIDFromNotes extracts the upload tag written by TagFileID.
func FileIDFromNotes(notes string) (uuid.UUID, bool) {
	m := reFileIDTag.FindStringSubmatch(notes)
	if m == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(m[1])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
