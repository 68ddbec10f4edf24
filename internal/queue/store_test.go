package queue_test

import (
	"context"
	"testing"
	"time"

	"appforge/internal/queue"
	"appforge/internal/testsupport"
)

func TestRegisterFileRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file, err := store.RegisterFile(ctx, "/tmp/storage/abc.zip", "game.zip", 1234)
	if err != nil {
		t.Fatalf("RegisterFile failed: %v", err)
	}
	if file.ID == "" {
		t.Fatal("expected file ID to be assigned")
	}

	fetched, err := store.FileByID(ctx, file.ID)
	if err != nil {
		t.Fatalf("FileByID failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected file to resolve")
	}
	if fetched.OriginalName != "game.zip" || fetched.SizeBytes != 1234 {
		t.Fatalf("unexpected file row: %#v", fetched)
	}
	if fetched.StoragePath != "/tmp/storage/abc.zip" {
		t.Fatalf("unexpected storage path: %s", fetched.StoragePath)
	}
}

func TestFileByIDUnknownReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	file, err := store.FileByID(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("FileByID failed: %v", err)
	}
	if file != nil {
		t.Fatalf("expected nil for unknown id, got %#v", file)
	}
}

func TestRegisterFileRequiresStoragePath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.RegisterFile(context.Background(), "", "x.zip", 1); err == nil {
		t.Fatal("expected error for empty storage path")
	}
}

func TestNewJobStartsQueued(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file := testsupport.RegisterUpload(t, cfg, store, "app.zip", 10)

	job, err := store.NewJob(ctx, file.ID, queue.TargetEXE)
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if job.Status != queue.StatusQueued {
		t.Fatalf("expected queued, got %s", job.Status)
	}
	if job.DoneAt != nil || job.OutputPath != "" || job.OutputName != "" {
		t.Fatalf("new job carries terminal fields: %#v", job)
	}

	fetched, err := store.JobByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("JobByID failed: %v", err)
	}
	if fetched == nil || fetched.FileID != file.ID || fetched.Target != queue.TargetEXE {
		t.Fatalf("unexpected job row: %#v", fetched)
	}
}

func TestClaimQueuedTakesOldestAndTransitions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file := testsupport.RegisterUpload(t, cfg, store, "app.zip", 10)

	first := testsupport.NewJob(t, store, file.ID, queue.TargetAPK)
	time.Sleep(2 * time.Millisecond)
	second := testsupport.NewJob(t, store, file.ID, queue.TargetEXE)

	claimed, err := store.ClaimQueued(ctx)
	if err != nil {
		t.Fatalf("ClaimQueued failed: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("expected oldest job %s, got %#v", first.ID, claimed)
	}
	if claimed.Status != queue.StatusProcessing {
		t.Fatalf("expected processing after claim, got %s", claimed.Status)
	}

	persisted, err := store.JobByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("JobByID failed: %v", err)
	}
	if persisted.Status != queue.StatusProcessing {
		t.Fatalf("claim not persisted, got %s", persisted.Status)
	}

	next, err := store.ClaimQueued(ctx)
	if err != nil {
		t.Fatalf("second ClaimQueued failed: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("expected second job %s, got %#v", second.ID, next)
	}

	empty, err := store.ClaimQueued(ctx)
	if err != nil {
		t.Fatalf("empty ClaimQueued failed: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected nil on empty queue, got %#v", empty)
	}
}

func TestUpdateJobPersistsTerminalState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file := testsupport.RegisterUpload(t, cfg, store, "app.zip", 10)
	job := testsupport.NewJob(t, store, file.ID, queue.TargetAPK)

	job.Status = queue.StatusProcessing
	if err := store.UpdateJob(ctx, job); err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	job.SetDone("/data/out/"+job.ID+".apk", "app.apk")
	if err := store.UpdateJob(ctx, job); err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	fetched, err := store.JobByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("JobByID failed: %v", err)
	}
	if fetched.Status != queue.StatusDone {
		t.Fatalf("expected done, got %s", fetched.Status)
	}
	if fetched.OutputName != "app.apk" || fetched.OutputPath == "" {
		t.Fatalf("output fields not persisted: %#v", fetched)
	}
	if fetched.DoneAt == nil {
		t.Fatal("expected doneAt to be set")
	}
	if fetched.ErrorMessage != "" {
		t.Fatalf("done job carries error message: %q", fetched.ErrorMessage)
	}
}

func TestSetFailedClearsOutputFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file := testsupport.RegisterUpload(t, cfg, store, "app.zip", 10)
	job := testsupport.NewJob(t, store, file.ID, queue.TargetAPK)

	job.SetFailed("copy blew up")
	if err := store.UpdateJob(ctx, job); err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	fetched, err := store.JobByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("JobByID failed: %v", err)
	}
	if fetched.Status != queue.StatusError {
		t.Fatalf("expected error status, got %s", fetched.Status)
	}
	if fetched.ErrorMessage != "copy blew up" {
		t.Fatalf("unexpected error message: %q", fetched.ErrorMessage)
	}
	if fetched.OutputPath != "" || fetched.OutputName != "" {
		t.Fatalf("failed job carries output fields: %#v", fetched)
	}
	if fetched.DoneAt == nil {
		t.Fatal("expected doneAt on terminal transition")
	}
}

func TestListJobsFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file := testsupport.RegisterUpload(t, cfg, store, "app.zip", 10)

	queued := testsupport.NewJob(t, store, file.ID, queue.TargetAPK)
	failed := testsupport.NewJob(t, store, file.ID, queue.TargetEXE)
	failed.SetFailed("boom")
	if err := store.UpdateJob(ctx, failed); err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	all, err := store.ListJobs(ctx)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}

	errored, err := store.ListJobs(ctx, queue.StatusError)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(errored) != 1 || errored[0].ID != failed.ID {
		t.Fatalf("unexpected filtered listing: %#v", errored)
	}

	pending, err := store.ListJobs(ctx, queue.StatusQueued)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != queued.ID {
		t.Fatalf("unexpected queued listing: %#v", pending)
	}

	stats, err := store.JobStats(ctx)
	if err != nil {
		t.Fatalf("JobStats failed: %v", err)
	}
	if stats[queue.StatusQueued] != 1 || stats[queue.StatusError] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestFailAbandonedJobsLeavesTerminalAlone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	file := testsupport.RegisterUpload(t, cfg, store, "app.zip", 10)

	queued := testsupport.NewJob(t, store, file.ID, queue.TargetAPK)
	processing := testsupport.NewJob(t, store, file.ID, queue.TargetAPK)
	processing.Status = queue.StatusProcessing
	if err := store.UpdateJob(ctx, processing); err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}
	done := testsupport.NewJob(t, store, file.ID, queue.TargetEXE)
	done.SetDone("/data/out/x.exe", "app.exe")
	if err := store.UpdateJob(ctx, done); err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	count, err := store.FailAbandonedJobs(ctx, "interrupted by daemon restart")
	if err != nil {
		t.Fatalf("FailAbandonedJobs failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 failed jobs, got %d", count)
	}

	for _, id := range []string{queued.ID, processing.ID} {
		job, err := store.JobByID(ctx, id)
		if err != nil {
			t.Fatalf("JobByID failed: %v", err)
		}
		if job.Status != queue.StatusError {
			t.Fatalf("job %s not failed: %s", id, job.Status)
		}
		if job.ErrorMessage != "interrupted by daemon restart" {
			t.Fatalf("unexpected reason: %q", job.ErrorMessage)
		}
	}

	kept, err := store.JobByID(ctx, done.ID)
	if err != nil {
		t.Fatalf("JobByID failed: %v", err)
	}
	if kept.Status != queue.StatusDone || kept.OutputName != "app.exe" {
		t.Fatalf("terminal job mutated: %#v", kept)
	}
}

func TestFileCount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	count, err := store.FileCount(ctx)
	if err != nil {
		t.Fatalf("FileCount failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty registry, got %d", count)
	}

	testsupport.RegisterUpload(t, cfg, store, "a.zip", 1)
	testsupport.RegisterUpload(t, cfg, store, "b.zip", 1)

	count, err = store.FileCount(ctx)
	if err != nil {
		t.Fatalf("FileCount failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 files, got %d", count)
	}
}
