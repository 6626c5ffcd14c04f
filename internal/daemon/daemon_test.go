package daemon

import (
	"context"
	"testing"

	"photoscan/internal/identity"
	"photoscan/internal/logging"
	"photoscan/internal/scanner"
	"photoscan/internal/testsupport"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	registry := identity.NewRegistry(s, cfg.Entities.MatchThreshold, nil)
	ctrl := scanner.New(cfg, s, &blockingEnricher{}, registry, nil)
	d, err := New(cfg, s, ctrl, registry, logging.NewStreamHub(10), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	first := newTestDaemon(t)
	ctx := context.Background()

	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })

	if err := first.Start(ctx); err == nil {
		t.Fatal("expected second Start on the same daemon to fail")
	}

	first.Stop()
	if first.Status().Running {
		t.Fatal("daemon should report stopped")
	}

	// The lock is free again; a fresh start must succeed.
	if err := first.Start(ctx); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
	first.Stop()
}

func TestDaemonStatusFields(t *testing.T) {
	d := newTestDaemon(t)

	status := d.Status()
	if status.Running {
		t.Fatal("daemon should start out stopped")
	}
	if status.DatabasePath == "" || status.LockFilePath == "" || status.PID == 0 {
		t.Fatalf("incomplete status: %#v", status)
	}
	if status.Scan.State != scanner.StateIdle {
		t.Fatalf("expected idle scan, got %s", status.Scan.State)
	}
}
