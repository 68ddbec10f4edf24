package api

import (
	"context"

	"appforge/internal/queue"
)

// JobReader abstracts the registry reads the API surfaces need.
type JobReader interface {
	JobByID(ctx context.Context, id string) (*queue.Job, error)
	ListJobs(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error)
	JobStats(ctx context.Context) (map[queue.Status]int, error)
}

// JobService exposes read-only job queries returning API DTOs.
type JobService struct {
	store JobReader
}

// NewJobService constructs a JobService around the provided reader.
func NewJobService(store JobReader) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store}
}

// Describe fetches a single job snapshot. downloadBase, when non-empty, is
// the URL prefix a finished job's artifact is reachable under.
func (s *JobService) Describe(ctx context.Context, id, downloadBase string) (*JobStatus, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	job, err := s.store.JobByID(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job, downloadBase)
	return &dto, nil
}

// List returns job snapshots filtered by status.
func (s *JobService) List(ctx context.Context, downloadBase string, statuses ...queue.Status) ([]JobStatus, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	jobs, err := s.store.ListJobs(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	out := make([]JobStatus, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job, downloadBase))
	}
	return out, nil
}

// Stats returns job counts keyed by status string.
func (s *JobService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.JobStats(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out, nil
}

// FromJob converts a stored job into its transport snapshot.
func FromJob(job *queue.Job, downloadBase string) JobStatus {
	dto := JobStatus{
		OK:        true,
		JobID:     job.ID,
		Status:    string(job.Status),
		Target:    string(job.Target),
		CreatedAt: job.CreatedAt.UnixMilli(),
	}
	if job.ErrorMessage != "" {
		msg := job.ErrorMessage
		dto.Error = &msg
	}
	if job.DoneAt != nil {
		done := job.DoneAt.UnixMilli()
		dto.DoneAt = &done
	}
	if job.Status == queue.StatusDone && downloadBase != "" {
		url := downloadBase + job.ID
		dto.DownloadURL = &url
	}
	return dto
}
