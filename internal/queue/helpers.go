package queue

import (
	"database/sql"
	"errors"
	"time"
)

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           string
		fileID       string
		target       string
		statusStr    string
		errorMessage sql.NullString
		outputPath   sql.NullString
		outputName   sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		doneRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&fileID,
		&target,
		&statusStr,
		&errorMessage,
		&outputPath,
		&outputName,
		&createdRaw,
		&updatedRaw,
		&doneRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:           id,
		FileID:       fileID,
		Target:       Target(target),
		Status:       Status(statusStr),
		ErrorMessage: errorMessage.String,
		OutputPath:   outputPath.String,
		OutputName:   outputName.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if doneRaw.Valid {
		if done, err := parseTimeString(doneRaw.String); err == nil {
			job.DoneAt = &done
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
