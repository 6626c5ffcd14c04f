package scanner_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"photoscan/internal/identity"
	"photoscan/internal/scanner"
	"photoscan/internal/store"
	"photoscan/internal/testsupport"
	"photoscan/internal/vision"
)

type stubEnricher struct {
	mu      sync.Mutex
	model   string
	calls   []string
	entered chan string
	gate    chan struct{}
}

func (e *stubEnricher) Enrich(_ context.Context, imagePath string) vision.Result {
	if e.entered != nil {
		e.entered <- imagePath
	}
	if e.gate != nil {
		<-e.gate
	}
	e.mu.Lock()
	e.calls = append(e.calls, imagePath)
	e.mu.Unlock()
	return vision.Result{
		Model:       e.model,
		Description: "Description: a test photo. Entities: none",
	}
}

func (e *stubEnricher) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func newController(t *testing.T, enricher scanner.Enricher) (*scanner.Controller, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	resolver := identity.NewRegistry(s, cfg.Entities.MatchThreshold, nil)
	return scanner.New(cfg, s, enricher, resolver, nil), s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestScanNewDuplicateScreenshot(t *testing.T) {
	enricher := &stubEnricher{model: "llava:13b"}
	ctrl, s := newController(t, enricher)
	ctx := context.Background()

	dir := t.TempDir()
	a := testsupport.WriteFile(t, dir, "a.jpg", []byte("shared-bytes"))
	b := testsupport.WriteFile(t, dir, "b.jpg", []byte("shared-bytes"))
	shot := testsupport.WriteFile(t, dir, "screenshot.png", []byte("other-bytes"))

	jobID, err := ctrl.Start(ctx, dir, false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a job id")
	}
	ctrl.Wait()

	status := ctrl.Status()
	if status.State != scanner.StateIdle || status.Total != 3 || status.Processed != 3 || status.Pending != 0 {
		t.Fatalf("unexpected status after scan: %#v", status)
	}

	photo, err := s.PhotoByPath(ctx, a)
	if err != nil || photo == nil {
		t.Fatalf("original photo missing: %v", err)
	}
	if photo.Description == "" || photo.AIModel != "llava:13b" {
		t.Fatalf("photo not enriched: %#v", photo)
	}
	if dup, _ := s.PhotoByPath(ctx, b); dup != nil {
		t.Fatal("duplicate must not get its own photo row")
	}

	groups, err := s.Duplicates(ctx)
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if len(groups) != 1 || groups[0].OriginalPhotoID != photo.ID {
		t.Fatalf("unexpected duplicate groups: %#v", groups)
	}
	if len(groups[0].Copies) != 1 || groups[0].Copies[0].Filepath != b {
		t.Fatalf("unexpected duplicate copies: %#v", groups[0].Copies)
	}

	skipped, err := s.Skipped(ctx)
	if err != nil {
		t.Fatalf("Skipped: %v", err)
	}
	if len(skipped) != 1 || skipped[0].Filepath != shot || skipped[0].Reason != "screenshot" {
		t.Fatalf("unexpected skipped items: %#v", skipped)
	}

	history, err := s.ScanHistory(ctx)
	if err != nil {
		t.Fatalf("ScanHistory: %v", err)
	}
	if len(history) != 1 || history[0].DirectoryPath != dir {
		t.Fatalf("unexpected scan history: %#v", history)
	}
	if got := enricher.callCount(); got != 1 {
		t.Fatalf("only the new file should be enriched, got %d calls", got)
	}
}

func TestRescanWithoutForceIsIdempotent(t *testing.T) {
	enricher := &stubEnricher{model: "llava:13b"}
	ctrl, s := newController(t, enricher)
	ctx := context.Background()

	dir := t.TempDir()
	a := testsupport.WriteFile(t, dir, "a.jpg", []byte("bytes-a"))
	testsupport.WriteFile(t, dir, "b.jpg", []byte("bytes-a"))

	if _, err := ctrl.Start(ctx, dir, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctrl.Wait()
	first, err := s.PhotoByPath(ctx, a)
	if err != nil || first == nil {
		t.Fatalf("photo missing after first scan: %v", err)
	}

	if _, err := ctrl.Start(ctx, dir, false); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	ctrl.Wait()

	if got := enricher.callCount(); got != 1 {
		t.Fatalf("rescan must not re-enrich unchanged files, got %d calls", got)
	}
	second, err := s.PhotoByPath(ctx, a)
	if err != nil || second == nil {
		t.Fatalf("photo missing after rescan: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("photo id changed across rescans: %d vs %d", first.ID, second.ID)
	}
	groups, err := s.Duplicates(ctx)
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Copies) != 1 {
		t.Fatalf("duplicate rows must not multiply on rescan: %#v", groups)
	}
}

func TestForceRescanPreservesIDAndAccumulatesHistory(t *testing.T) {
	enricher := &stubEnricher{model: "llava:13b"}
	ctrl, s := newController(t, enricher)
	ctx := context.Background()

	dir := t.TempDir()
	a := testsupport.WriteFile(t, dir, "a.jpg", []byte("bytes-a"))
	testsupport.WriteFile(t, dir, "b.jpg", []byte("bytes-a"))

	if _, err := ctrl.Start(ctx, dir, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctrl.Wait()
	first, err := s.PhotoByPath(ctx, a)
	if err != nil || first == nil {
		t.Fatalf("photo missing: %v", err)
	}

	enricher.mu.Lock()
	enricher.model = "llama3.2-vision:latest"
	enricher.mu.Unlock()

	if _, err := ctrl.Start(ctx, dir, true); err != nil {
		t.Fatalf("force rescan: %v", err)
	}
	ctrl.Wait()

	second, err := s.PhotoByPath(ctx, a)
	if err != nil || second == nil {
		t.Fatalf("photo missing after force rescan: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("force rescan must preserve the photo id: %d vs %d", first.ID, second.ID)
	}
	if second.AIModel != "llama3.2-vision:latest" {
		t.Fatalf("live row must reflect the newest model, got %q", second.AIModel)
	}

	history, err := s.HistoryForPhoto(ctx, second.ID)
	if err != nil {
		t.Fatalf("HistoryForPhoto: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected one history row per model, got %d", len(history))
	}

	// The duplicate is re-evaluated and lands in quarantine again.
	groups, err := s.Duplicates(ctx)
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Copies) != 1 {
		t.Fatalf("unexpected duplicates after force rescan: %#v", groups)
	}
	if groups[0].OriginalPhotoID != second.ID {
		t.Fatalf("duplicate should still reference the original: %#v", groups[0])
	}
}

func TestPauseResumeAtCheckpoint(t *testing.T) {
	enricher := &stubEnricher{
		model:   "llava:13b",
		entered: make(chan string),
		gate:    make(chan struct{}),
	}
	ctrl, s := newController(t, enricher)
	ctx := context.Background()

	dir := t.TempDir()
	testsupport.WriteFile(t, dir, "a.jpg", []byte("bytes-a"))
	testsupport.WriteFile(t, dir, "b.jpg", []byte("bytes-b"))
	testsupport.WriteFile(t, dir, "c.jpg", []byte("bytes-c"))

	if _, err := ctrl.Start(ctx, dir, false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	<-enricher.entered
	if err := ctrl.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	// The in-flight file still finishes; the pause lands at the checkpoint.
	enricher.gate <- struct{}{}

	waitFor(t, "first file to commit", func() bool {
		st := ctrl.Status()
		return st.Processed == 1 && st.State == scanner.StatePaused
	})

	select {
	case path := <-enricher.entered:
		t.Fatalf("second file started while paused: %s", path)
	case <-time.After(100 * time.Millisecond):
	}
	if st := ctrl.Status(); st.Processed != 1 || st.Pending != 2 {
		t.Fatalf("paused status drifted: %#v", st)
	}

	if err := ctrl.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	for i := 0; i < 2; i++ {
		<-enricher.entered
		enricher.gate <- struct{}{}
	}
	ctrl.Wait()

	if st := ctrl.Status(); st.State != scanner.StateIdle || st.Processed != 3 {
		t.Fatalf("unexpected final status: %#v", st)
	}
	if paths, err := s.KnownPaths(ctx); err != nil || len(paths) != 3 {
		t.Fatalf("expected 3 committed photos, got %d (%v)", len(paths), err)
	}
}

func TestCancelFinishesInFlightFile(t *testing.T) {
	enricher := &stubEnricher{
		model:   "llava:13b",
		entered: make(chan string),
		gate:    make(chan struct{}),
	}
	ctrl, s := newController(t, enricher)
	ctx := context.Background()

	dir := t.TempDir()
	testsupport.WriteFile(t, dir, "a.jpg", []byte("bytes-a"))
	testsupport.WriteFile(t, dir, "b.jpg", []byte("bytes-b"))

	if _, err := ctrl.Start(ctx, dir, false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	<-enricher.entered
	if err := ctrl.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	enricher.gate <- struct{}{}
	ctrl.Wait()

	st := ctrl.Status()
	if st.State != scanner.StateIdle {
		t.Fatalf("expected idle after cancel, got %s", st.State)
	}
	if st.Processed != 1 {
		t.Fatalf("the in-flight file must finish before the cancel lands, processed=%d", st.Processed)
	}
	paths, err := s.KnownPaths(ctx)
	if err != nil {
		t.Fatalf("KnownPaths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("work committed before cancel must persist, got %d photos", len(paths))
	}

	// A cancelled scan can be restarted and catches up on the rest.
	if _, err := ctrl.Start(ctx, dir, false); err != nil {
		t.Fatalf("restart after cancel: %v", err)
	}
	<-enricher.entered
	enricher.gate <- struct{}{}
	ctrl.Wait()
	if paths, _ := s.KnownPaths(ctx); len(paths) != 2 {
		t.Fatalf("expected the remaining file after restart, got %d photos", len(paths))
	}
}

func TestStartWhileRunningFails(t *testing.T) {
	enricher := &stubEnricher{
		model:   "llava:13b",
		entered: make(chan string),
		gate:    make(chan struct{}),
	}
	ctrl, _ := newController(t, enricher)
	ctx := context.Background()

	dir := t.TempDir()
	testsupport.WriteFile(t, dir, "a.jpg", []byte("bytes-a"))

	if _, err := ctrl.Start(ctx, dir, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-enricher.entered

	if _, err := ctrl.Start(ctx, dir, false); !errors.Is(err, scanner.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	enricher.gate <- struct{}{}
	ctrl.Wait()
}

func TestStartInvalidPath(t *testing.T) {
	ctrl, _ := newController(t, &stubEnricher{model: "llava:13b"})

	if _, err := ctrl.Start(context.Background(), "", false); !errors.Is(err, scanner.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for empty path, got %v", err)
	}
	if _, err := ctrl.Start(context.Background(), "/does/not/exist", false); !errors.Is(err, scanner.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for missing dir, got %v", err)
	}
}

func TestControlTransitionsFromIdle(t *testing.T) {
	ctrl, _ := newController(t, &stubEnricher{model: "llava:13b"})

	if err := ctrl.Pause(); !errors.Is(err, scanner.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for idle pause, got %v", err)
	}
	if err := ctrl.Resume(); !errors.Is(err, scanner.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for idle resume, got %v", err)
	}
	if err := ctrl.Cancel(); !errors.Is(err, scanner.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for idle cancel, got %v", err)
	}
}
