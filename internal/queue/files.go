package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const fileColumns = "id, storage_path, original_name, size_bytes, uploaded_at"

// RegisterFile inserts an uploaded archive into the file registry and
// returns the stored row. The storage path must already be derived from the
// generated identifier by the caller; the original name is untrusted client
// input kept only for display-name derivation.
func (s *Store) RegisterFile(ctx context.Context, storagePath, originalName string, sizeBytes int64) (*File, error) {
	if strings.TrimSpace(storagePath) == "" {
		return nil, errors.New("storage path is required")
	}
	if sizeBytes < 0 {
		return nil, fmt.Errorf("negative file size %d", sizeBytes)
	}

	file := &File{
		ID:           uuid.NewString(),
		StoragePath:  storagePath,
		OriginalName: originalName,
		SizeBytes:    sizeBytes,
		UploadedAt:   time.Now().UTC(),
	}

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO files (id, storage_path, original_name, size_bytes, uploaded_at)
         VALUES (?, ?, ?, ?, ?)`,
		file.ID,
		file.StoragePath,
		file.OriginalName,
		file.SizeBytes,
		file.UploadedAt.Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("insert file: %w", err)
	}

	return file, nil
}

// FileByID fetches a registered file by identifier. Returns nil when absent.
func (s *Store) FileByID(ctx context.Context, id string) (*File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// FileCount returns the number of registered files.
func (s *Store) FileCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM files`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return count, nil
}

func scanFile(scanner interface{ Scan(dest ...any) error }) (*File, error) {
	var (
		id           string
		storagePath  string
		originalName sql.NullString
		sizeBytes    int64
		uploadedRaw  sql.NullString
	)

	if err := scanner.Scan(&id, &storagePath, &originalName, &sizeBytes, &uploadedRaw); err != nil {
		return nil, err
	}

	file := &File{
		ID:           id,
		StoragePath:  storagePath,
		OriginalName: originalName.String,
		SizeBytes:    sizeBytes,
	}
	if uploaded, err := parseTimeString(uploadedRaw.String); err == nil {
		file.UploadedAt = uploaded
	}
	return file, nil
}
