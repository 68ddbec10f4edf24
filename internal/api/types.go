package api

// Stable machine-readable error codes returned in the `error` field of
// failure envelopes. Codes are part of the public contract; clients branch
// on them, so they never carry internal detail.
const (
	CodeNoFile          = "NO_FILE"
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeNoFileID        = "NO_FILE_ID"
	CodeBadTarget       = "BAD_TARGET"
	CodeFileNotFound    = "FILE_NOT_FOUND"
	CodeJobNotFound     = "JOB_NOT_FOUND"
	CodeNotReady        = "NOT_READY"
	CodeCORSBlocked     = "CORS_BLOCKED"
	CodeServerError     = "SERVER_ERROR"
)

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// UploadResponse acknowledges a registered upload.
type UploadResponse struct {
	OK       bool   `json:"ok"`
	FileID   string `json:"fileId"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// ConvertRequest asks for an uploaded file to be converted to a target format.
type ConvertRequest struct {
	FileID string `json:"fileId"`
	Target string `json:"target"`
}

// ConvertResponse acknowledges a created job.
type ConvertResponse struct {
	OK    bool   `json:"ok"`
	JobID string `json:"jobId"`
}

// JobStatus is the pollable job snapshot. Timestamps are Unix milliseconds;
// error, doneAt, and downloadUrl are null until populated.
type JobStatus struct {
	OK          bool    `json:"ok"`
	JobID       string  `json:"jobId"`
	Status      string  `json:"status"`
	Target      string  `json:"target"`
	Error       *string `json:"error"`
	CreatedAt   int64   `json:"createdAt"`
	DoneAt      *int64  `json:"doneAt"`
	DownloadURL *string `json:"downloadUrl"`
}

// HealthResponse reports liveness with the server's current Unix-ms time.
type HealthResponse struct {
	OK   bool  `json:"ok"`
	Time int64 `json:"time"`
}

// JobListResponse wraps a collection of job snapshots.
type JobListResponse struct {
	OK   bool        `json:"ok"`
	Jobs []JobStatus `json:"jobs"`
}
