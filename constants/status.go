package constants

// UploadStatus is the canonical status for rows in lab_upload.
type UploadStatus string

// Stable values (store these exact strings in DB).
const (
	UploadStatusRunning UploadStatus = "RUNNING" // in progress
	UploadStatusParsed  UploadStatus = "PARSED"  // results assembled and stored
	UploadStatusNoText  UploadStatus = "NO_TEXT" // nothing readable in the file
	UploadStatusFailed  UploadStatus = "FAILED"  // terminal failure
)

// Stage tags the pipeline step an error surfaced from.
type Stage string

const (
	StageValidation  Stage = "validation"
	StageAcquisition Stage = "acquisition"
	StageParsing     Stage = "parsing"
	StageDatabase    Stage = "database"
)
