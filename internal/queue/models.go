package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a conversion job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusDone,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// Target is the requested output format of a conversion job.
type Target string

const (
	TargetAPK Target = "apk"
	TargetEXE Target = "exe"
)

var allTargets = []Target{TargetAPK, TargetEXE}

// DefaultTarget is assumed when a conversion request omits the target.
const DefaultTarget = TargetAPK

// AllTargets returns the ordered list of supported targets.
func AllTargets() []Target {
	cp := make([]Target, len(allTargets))
	copy(cp, allTargets)
	return cp
}

// ParseTarget converts a string into a known Target. The empty string maps
// to DefaultTarget.
func ParseTarget(value string) (Target, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return DefaultTarget, true
	}
	for _, target := range allTargets {
		if Target(normalized) == target {
			return target, true
		}
	}
	return "", false
}

// Extension returns the conventional file extension for the target,
// including the dot.
func (t Target) Extension() string {
	return "." + string(t)
}

// File is an uploaded archive persisted in the file registry. Rows are
// immutable after insert.
type File struct {
	ID           string
	StoragePath  string
	OriginalName string
	SizeBytes    int64
	UploadedAt   time.Time
}

// Job is a conversion job persisted in the job registry.
type Job struct {
	ID           string
	FileID       string
	Target       Target
	Status       Status
	ErrorMessage string
	OutputPath   string
	OutputName   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DoneAt       *time.Time
}

// SetDone marks the job completed with its output metadata.
func (j *Job) SetDone(outputPath, outputName string) {
	now := time.Now().UTC()
	j.Status = StatusDone
	j.OutputPath = outputPath
	j.OutputName = outputName
	j.ErrorMessage = ""
	j.DoneAt = &now
}

// SetFailed marks the job failed with the given error message. Output
// fields are cleared so they are populated only on done jobs.
func (j *Job) SetFailed(message string) {
	now := time.Now().UTC()
	j.Status = StatusError
	j.ErrorMessage = message
	j.OutputPath = ""
	j.OutputName = ""
	j.DoneAt = &now
}
