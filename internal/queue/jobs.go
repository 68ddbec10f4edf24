package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const jobColumns = "id, file_id, target, status, error_message, output_path, output_name, created_at, updated_at, done_at"

// NewJob inserts a conversion job in the queued state and returns it.
// The caller is responsible for having validated that the file id resolves
// and the target is a known value.
func (s *Store) NewJob(ctx context.Context, fileID string, target Target) (*Job, error) {
	if fileID == "" {
		return nil, errors.New("file id is required")
	}

	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		FileID:    fileID,
		Target:    target,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (id, file_id, target, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.FileID,
		string(job.Target),
		string(job.Status),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return job, nil
}

// JobByID fetches a job by identifier. Returns nil when absent.
func (s *Store) JobByID(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// UpdateJob persists changes to an existing job.
func (s *Store) UpdateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs
         SET file_id = ?, target = ?, status = ?, error_message = ?,
             output_path = ?, output_name = ?, updated_at = ?, done_at = ?
         WHERE id = ?`,
		job.FileID,
		string(job.Target),
		string(job.Status),
		nullableString(job.ErrorMessage),
		nullableString(job.OutputPath),
		nullableString(job.OutputName),
		job.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(job.DoneAt),
		job.ID,
	); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// ClaimQueued atomically moves the oldest queued job to processing and
// returns it. Returns nil when no queued job exists. The guarded UPDATE is
// the queued -> processing transition: if another claimer won the race the
// update affects zero rows and the claim is retried on the next candidate.
func (s *Store) ClaimQueued(ctx context.Context) (*Job, error) {
	for {
		row := s.db.QueryRowContext(
			ctx,
			`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at, id LIMIT 1`,
			string(StatusQueued),
		)
		job, err := scanJob(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("next queued job: %w", err)
		}

		now := time.Now().UTC()
		res, err := s.execWithRetry(
			ctx,
			`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(StatusProcessing),
			now.Format(time.RFC3339Nano),
			job.ID,
			string(StatusQueued),
		)
		if err != nil {
			return nil, fmt.Errorf("claim job: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			continue
		}

		job.Status = StatusProcessing
		job.UpdatedAt = now
		return job, nil
	}
}

// ListJobs returns jobs filtered by status set (or all jobs when no status
// is provided), ordered by creation time.
func (s *Store) ListJobs(ctx context.Context, statuses ...Status) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = string(status)
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// JobStats returns per-status job counts.
func (s *Store) JobStats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// FailAbandonedJobs fails every non-terminal job with the given reason.
// Called on daemon startup so jobs interrupted by a previous process reach a
// terminal state instead of re-entering the queue; the status machine stays
// one-directional.
func (s *Store) FailAbandonedJobs(ctx context.Context, reason string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, output_path = NULL, output_name = NULL,
             updated_at = ?, done_at = ?
         WHERE status IN (?, ?)`,
		string(StatusError),
		reason,
		now,
		now,
		string(StatusQueued),
		string(StatusProcessing),
	)
	if err != nil {
		return 0, fmt.Errorf("fail abandoned jobs: %w", err)
	}
	return res.RowsAffected()
}
