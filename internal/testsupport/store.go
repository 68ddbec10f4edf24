package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"appforge/internal/config"
	"appforge/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RegisterUpload writes an archive of the given size under the config's
// upload directory and registers it, returning the stored file.
func RegisterUpload(t testing.TB, cfg *config.Config, store *queue.Store, originalName string, size int64) *queue.File {
	t.Helper()

	path := filepath.Join(cfg.UploadDir(), originalName+".stored")
	WriteFile(t, path, size)

	file, err := store.RegisterFile(context.Background(), path, originalName, size)
	if err != nil {
		t.Fatalf("store.RegisterFile: %v", err)
	}
	return file
}

// NewJob creates a queued job for tests using the provided store.
func NewJob(t testing.TB, store *queue.Store, fileID string, target queue.Target) *queue.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), fileID, target)
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}
