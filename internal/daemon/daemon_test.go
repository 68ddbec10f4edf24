package daemon_test

import (
	"context"
	"net/http"
	"testing"

	"appforge/internal/daemon"
	"appforge/internal/logging"
	"appforge/internal/queue"
	"appforge/internal/testsupport"
)

func TestDaemonServesHealthEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start failed: %v", err)
	}
	t.Cleanup(d.Close)

	addr := d.Addr()
	if addr == "" {
		t.Fatal("expected bound address after Start")
	}

	resp, err := http.Get("http://" + addr + "/api/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health returned %d", resp.StatusCode)
	}

	status := d.Status(context.Background())
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("unexpected daemon status: %#v", status)
	}
	if status.QueueDBPath == "" || status.LockFilePath == "" {
		t.Fatalf("status missing paths: %#v", status)
	}
}

func TestSecondInstanceIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	t.Cleanup(first.Close)

	second, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail on the lock")
	}
}

func TestStartFailsJobsAbandonedByPreviousRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	file := testsupport.RegisterUpload(t, cfg, store, "app.zip", 16)
	stale := testsupport.NewJob(t, store, file.ID, queue.TargetAPK)

	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start failed: %v", err)
	}
	t.Cleanup(d.Close)

	job, err := store.JobByID(context.Background(), stale.ID)
	if err != nil {
		t.Fatalf("JobByID failed: %v", err)
	}
	if job.Status != queue.StatusError {
		t.Fatalf("expected abandoned job to be failed, got %s", job.Status)
	}
	if job.ErrorMessage == "" {
		t.Fatal("expected abandoned job to carry a reason")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start failed: %v", err)
	}

	d.Stop()
	d.Stop()
	d.Close()

	if d.Status(context.Background()).Running {
		t.Fatal("daemon reports running after Stop")
	}
}
