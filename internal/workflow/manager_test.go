package workflow_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"appforge/internal/config"
	"appforge/internal/logging"
	"appforge/internal/queue"
	"appforge/internal/testsupport"
	"appforge/internal/workflow"
)

func waitForTerminal(t *testing.T, store *queue.Store, jobID string) *queue.Job {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.JobByID(context.Background(), jobID)
		if err != nil {
			t.Fatalf("JobByID failed: %v", err)
		}
		if job != nil && job.Status.IsTerminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach a terminal state", jobID)
	return nil
}

func startManager(t *testing.T, cfg *config.Config, store *queue.Store) *workflow.Manager {
	t.Helper()

	manager := workflow.NewManager(cfg, store, logging.NewNop())
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("manager.Start failed: %v", err)
	}
	t.Cleanup(manager.Stop)
	return manager
}

func TestManagerDrivesJobToDone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	payload := []byte("archive-bytes")
	srcPath := filepath.Join(cfg.UploadDir(), "app-stored.zip")
	if err := os.WriteFile(srcPath, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	file, err := store.RegisterFile(context.Background(), srcPath, "app.zip", int64(len(payload)))
	if err != nil {
		t.Fatalf("RegisterFile failed: %v", err)
	}

	manager := startManager(t, cfg, store)

	job := testsupport.NewJob(t, store, file.ID, queue.TargetEXE)
	manager.Kick()

	final := waitForTerminal(t, store, job.ID)
	if final.Status != queue.StatusDone {
		t.Fatalf("expected done, got %s (%s)", final.Status, final.ErrorMessage)
	}
	if final.OutputName != "app.exe" {
		t.Fatalf("unexpected output name: %q", final.OutputName)
	}

	out, err := os.ReadFile(final.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatal("output bytes differ from input")
	}
}

func TestManagerRecordsFailureOnJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	// File row exists but the bytes were never written to disk.
	file, err := store.RegisterFile(context.Background(), filepath.Join(cfg.UploadDir(), "ghost.zip"), "ghost.zip", 9)
	if err != nil {
		t.Fatalf("RegisterFile failed: %v", err)
	}

	manager := startManager(t, cfg, store)

	job := testsupport.NewJob(t, store, file.ID, queue.TargetAPK)
	manager.Kick()

	final := waitForTerminal(t, store, job.ID)
	if final.Status != queue.StatusError {
		t.Fatalf("expected error, got %s", final.Status)
	}
	if final.ErrorMessage == "" {
		t.Fatal("expected a failure description")
	}
	if final.OutputPath != "" || final.OutputName != "" {
		t.Fatalf("failed job carries output fields: %#v", final)
	}
}

func TestTerminalSnapshotIsStable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	payload := []byte("stable")
	srcPath := filepath.Join(cfg.UploadDir(), "stable-stored.zip")
	if err := os.WriteFile(srcPath, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	file, err := store.RegisterFile(context.Background(), srcPath, "stable.zip", int64(len(payload)))
	if err != nil {
		t.Fatalf("RegisterFile failed: %v", err)
	}

	manager := startManager(t, cfg, store)
	job := testsupport.NewJob(t, store, file.ID, queue.TargetAPK)
	manager.Kick()

	first := waitForTerminal(t, store, job.ID)

	// Give the loop a chance to misbehave, then compare snapshots.
	time.Sleep(50 * time.Millisecond)
	second, err := store.JobByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("JobByID failed: %v", err)
	}
	if second.Status != first.Status || second.OutputName != first.OutputName {
		t.Fatalf("terminal snapshot changed: %#v -> %#v", first, second)
	}
	if second.DoneAt == nil || !second.DoneAt.Equal(*first.DoneAt) {
		t.Fatal("doneAt changed after terminal transition")
	}
}

func TestManagerStatusSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	manager := startManager(t, cfg, store)

	summary := manager.Status(context.Background())
	if !summary.Running {
		t.Fatal("expected running summary")
	}

	manager.Stop()
	summary = manager.Status(context.Background())
	if summary.Running {
		t.Fatal("expected stopped summary")
	}
}

func TestStartTwiceFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	manager := startManager(t, cfg, store)
	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
}
